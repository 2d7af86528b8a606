/*
	The archiving pipeline: list every version's metadata, then walk the
	requested range in order, downloading and committing each version,
	until the range runs out or the server says a version doesn't exist.
*/
package archive

import (
	"context"
	"fmt"
	"os"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/rbxarchive/api"
	"github.com/polydawn/rbxarchive/expand"
	"github.com/polydawn/rbxarchive/gitcli"
	"github.com/polydawn/rbxarchive/log"
	"github.com/polydawn/rbxarchive/warehouse"
)

/*
	The output directory precondition: nothing may exist at the path yet.
*/
func CheckOutputDir(dir string) error {
	if _, err := os.Lstat(dir); err == nil {
		return Errorf(api.ErrUsage, "output path %q already exists! Cannot proceed.", dir)
	} else if !os.IsNotExist(err) {
		return Errorf(api.ErrUsage, "output path %q unusable: %s", dir, err)
	}
	return nil
}

/*
	Run the whole pipeline for an already-collected configuration.

	Failures abort the run where they happen; commits made before the
	failure are left as they are.  The returned result is meaningful
	(it describes what did get committed) even alongside an error.

	May return errors of category:

	  - `api.ErrUsage` -- if the output directory already exists
	  - `api.ErrUpstream` -- if the metadata listing fails
	  - `api.ErrMetadataInconsistent` -- if a downloaded version can't be attributed
	  - `api.ErrProcessFailed` -- if git or the expansion tool fails
	  - `api.ErrLocalIO` -- if the output directory can't be written
	  - `api.ErrCancelled`
*/
func Run(
	ctx context.Context, // Long-running call.  Cancellable.
	cfg api.RunConfig, // What to archive and where.
	src warehouse.Controller, // Where versions come from.
	exp expand.Expander, // Optionally: expansion to apply to each version.
	mon api.Monitor, // Optionally: callbacks for progress monitoring.
) (result api.RunResult, err error) {
	if mon.Chan != nil {
		defer close(mon.Chan)
	}
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	result.Place = cfg.Place

	// Check preconditions before any side effects.
	gitVersion, err := gitcli.Version(ctx)
	if err != nil {
		return result, err
	}
	log.Log(mon, api.LogDebug, "Using "+gitVersion)
	if err := CheckOutputDir(cfg.OutputDir); err != nil {
		return result, err
	}

	// Make the repository.
	log.Info(mon, "Creating directory...")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return result, Errorf(api.ErrLocalIO, "failed to create output directory: %s", err)
	}
	repo, err := gitcli.Init(ctx, cfg.OutputDir, gitcli.Identity{Name: cfg.AuthorName, Email: cfg.AuthorEmail})
	if err != nil {
		return result, err
	}

	// Get all the metadata up front.  Nothing is downloaded until we have all of it.
	idx, err := src.ListVersions(ctx, cfg.Place, mon)
	if err != nil {
		return result, err
	}

	// Download and commit each version in turn.
	if cfg.Range.Min > cfg.Range.Max {
		result.Stop = api.Stop_RangeExhausted
		return result, nil
	}
	for version := cfg.Range.Min; ; version++ {
		log.Progress(mon, "download", fmt.Sprintf("version %d", version), version, idx.Highest)
		log.Info(mon, fmt.Sprintf("Downloading version %d...", version))
		body, err := src.FetchVersion(ctx, cfg.Place, version, mon)
		switch Category(err) {
		case nil:
			// pass
		case api.ErrVersionAbsent:
			log.VersionAbsent(mon, version, Details(err)["status"])
			result.Stop = api.Stop_Absent
			return result, nil
		default:
			return result, err
		}

		tag, err := CommitVersion(ctx, repo, cfg.Place, exp, idx, version, body, mon)
		if err != nil {
			return result, err
		}
		if result.Commits == 0 {
			result.FirstCommitted = version
		}
		result.LastCommitted = version
		result.Commits++
		if tag != "" {
			result.Tags++
		}

		if version >= cfg.Range.Max {
			break
		}
	}
	result.Stop = api.Stop_RangeExhausted
	return result, nil
}
