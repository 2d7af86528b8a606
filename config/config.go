/*
	Helpers for loading contextual config.

	Config for rbxarchive means "things that are the host machine operator's
	concerns": where the cookie cache lives, and where the companion expansion
	tool is found.  Everything about *what* to archive is asked for at the
	prompt (or given as flags) instead.
*/
package config

import (
	"os"
	"os/exec"
	"path/filepath"
)

const (
	DefaultOutputDirectory = "output/"
	DefaultCookieCachePath = "cookie.txt"
	DefaultExpandTool      = "lune"
	DefaultExpandScript    = "expand.luau"
)

/*
	Return the path of the plaintext file the session cookie is cached in.

	The default value is `"cookie.txt"` (relative to the working directory);
	this can be overriden by the `RBXARCHIVE_COOKIE_CACHE` environment variable.
*/
func GetCookieCachePath() string {
	pth := os.Getenv("RBXARCHIVE_COOKIE_CACHE")
	if pth == "" {
		return DefaultCookieCachePath
	}
	return pth
}

/*
	Return the name (or path) of the interpreter which runs the expansion script.

	The default value is `"lune"`;
	this can be overriden by the `RBXARCHIVE_EXPAND_TOOL` environment variable.
*/
func GetExpandTool() string {
	tool := os.Getenv("RBXARCHIVE_EXPAND_TOOL")
	if tool == "" {
		return DefaultExpandTool
	}
	return tool
}

/*
	Return the absolute path of the expansion script.

	The default value is `"expand.luau"` (relative to the working directory);
	this can be overriden by the `RBXARCHIVE_EXPAND_SCRIPT` environment variable.
	The path is absolutized because the tool is run with the output directory
	as its working directory.
*/
func GetExpandScript() string {
	pth := os.Getenv("RBXARCHIVE_EXPAND_SCRIPT")
	if pth == "" {
		pth = DefaultExpandScript
	}
	pth, err := filepath.Abs(pth)
	if err != nil {
		panic(err)
	}
	return pth
}

/*
	An ExpandToolchain is the resolved pair of interpreter and script.
*/
type ExpandToolchain struct {
	Tool   string // resolved by PATH lookup.
	Script string // absolute.
}

/*
	Look for the companion expansion tool.

	Returns false if either the interpreter isn't on the PATH or the script
	isn't present; in that case the expansion questions are never asked.
*/
func DetectExpandToolchain() (ExpandToolchain, bool) {
	tool, err := exec.LookPath(GetExpandTool())
	if err != nil {
		return ExpandToolchain{}, false
	}
	script := GetExpandScript()
	if fi, err := os.Stat(script); err != nil || fi.IsDir() {
		return ExpandToolchain{}, false
	}
	return ExpandToolchain{tool, script}, true
}
