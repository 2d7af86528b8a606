package prompt

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/rbxarchive/api"
	"github.com/polydawn/rbxarchive/archive"
	"github.com/polydawn/rbxarchive/config"
)

/*
	Where the session cookie may be cached, and whether we're still allowed
	to use (and offer to write) that cache this run.

	Enabled flips to false at most once: as soon as the cookie has been read
	from the cache, there's no point offering to write it back.
*/
type CookieCache struct {
	Path    string
	Enabled bool
}

/*
	Answers given up front (as flags).  Empty or nil means "ask".
	A given number still has to be positive.
*/
type Presets struct {
	OutputDir string
	Place     *int64
	Min       *int64
	Max       *int64
}

/*
	Ask for the output directory.  An empty answer means the default.
	It's an error for the directory to already exist.
*/
func (p *Prompter) OutputDir(preset string) (string, error) {
	dir := preset
	if dir == "" {
		var err error
		dir, err = p.Line(fmt.Sprintf("Output directory (default = %s): ", config.DefaultOutputDirectory))
		if err != nil {
			return "", err
		}
		if dir == "" {
			dir = config.DefaultOutputDirectory
		}
	}
	return dir, archive.CheckOutputDir(dir)
}

/*
	Get the session cookie.

	If the cache is enabled and the cache file exists, it's read silently
	and the cache is disabled for the rest of the run.
	Otherwise we ask (without echo) until something non-empty is given,
	then, if the cache is still enabled, offer to save it.
*/
func (p *Prompter) Cookie(cache *CookieCache) (api.Cookie, error) {
	if cache.Enabled {
		if bs, err := os.ReadFile(cache.Path); err == nil {
			cache.Enabled = false
			fmt.Fprintf(p.out, "Roblox cookie: <Read from %s>\n", cache.Path)
			return api.Cookie(strings.TrimSpace(string(bs))), nil
		}
	}
	var cookie string
	for {
		var err error
		cookie, err = p.Secret("Roblox cookie (" + api.CookieName + "): ")
		if err != nil {
			return "", err
		}
		if cookie != "" {
			break
		}
		fmt.Fprintln(p.out, "Invalid Roblox cookie, please try again!")
	}
	if cache.Enabled {
		if p.Confirm(fmt.Sprintf("Cache this cookie for future use (stored in %s)? (Y/N) ", cache.Path)) {
			if err := os.WriteFile(cache.Path, []byte(cookie), 0600); err != nil {
				return "", Errorf(api.ErrLocalIO, "failed to cache cookie in %s: %s", cache.Path, err)
			}
		}
	}
	return api.Cookie(cookie), nil
}

/*
	Run all of input collection, in order, and echo the result.

	The expansion questions are only asked if a toolchain was detected.
*/
func (p *Prompter) Collect(presets Presets, cache *CookieCache, expandAvailable bool) (cfg api.RunConfig, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	if cfg.OutputDir, err = p.OutputDir(presets.OutputDir); err != nil {
		return cfg, err
	}
	if cfg.Cookie, err = p.Cookie(cache); err != nil {
		return cfg, err
	}
	place, err := p.presetOrAsk(presets.Place, "Place Id: ", "Invalid place id, please try again!", nil)
	if err != nil {
		return cfg, err
	}
	cfg.Place = api.PlaceID(place)
	one := int64(1)
	if cfg.Range.Min, err = p.presetOrAsk(presets.Min, "Minimum version (default = 1): ", "Invalid minimum version, please try again!", &one); err != nil {
		return cfg, err
	}
	unbounded := api.Unbounded
	for {
		if cfg.Range.Max, err = p.presetOrAsk(presets.Max, "Maximum version (default = none): ", "Invalid maximum version, please try again!", &unbounded); err != nil {
			return cfg, err
		}
		if cfg.Range.Max >= cfg.Range.Min {
			break
		}
		if presets.Max != nil {
			return cfg, Errorf(api.ErrUsage, "maximum version %d is below minimum version %d", cfg.Range.Max, cfg.Range.Min)
		}
		fmt.Fprintln(p.out, "Maximum version can't be below the minimum version, please try again!")
	}
	if expandAvailable {
		rbxlx, err := p.YesNo("Expand each version to an rbxlx file? (Y/N) ")
		if err != nil {
			return cfg, err
		}
		scripts, err := p.YesNo("Extract scripts to individual files? (Y/N) ")
		if err != nil {
			return cfg, err
		}
		cfg.Expand = api.ExpandModeFor(rbxlx, scripts)
	}
	EchoConfig(p.out, cfg, expandAvailable)
	return cfg, nil
}

func (p *Prompter) presetOrAsk(preset *int64, prompt string, errorIfInvalid string, def *int64) (int64, error) {
	if preset != nil {
		if *preset <= 0 {
			name := label(prompt)
			if i := strings.Index(name, " ("); i > 0 {
				name = name[:i]
			}
			return 0, Errorf(api.ErrUsage, "%s must be positive (got %d)", name, *preset)
		}
		return *preset, nil
	}
	return p.PositiveInt(prompt, errorIfInvalid, def)
}

/*
	Print the final configuration.  The cookie is never shown.
*/
func EchoConfig(w io.Writer, cfg api.RunConfig, expandAvailable bool) {
	fmt.Fprintln(w)
	color.New(color.Bold).Fprintln(w, "Final configuration:")
	fmt.Fprintf(w, "  Output directory: %s\n", cfg.OutputDir)
	fmt.Fprintf(w, "  Roblox cookie: %s\n", cfg.Cookie)
	fmt.Fprintf(w, "  Place Id: %s\n", cfg.Place)
	fmt.Fprintf(w, "  Minimum version: %d\n", cfg.Range.Min)
	fmt.Fprintf(w, "  Maximum version: %s\n", api.FormatMaxVersion(cfg.Range.Max))
	if expandAvailable {
		mode := string(cfg.Expand)
		if mode == "" {
			mode = "none"
		}
		fmt.Fprintf(w, "  Expansion: %s\n", mode)
	}
	fmt.Fprintln(w)
}
