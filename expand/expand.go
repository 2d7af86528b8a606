/*
	Driving the companion expansion tool, which turns a binary place file
	into a readable rbxlx and/or a tree of extracted script files.

	The tool is an interpreter plus a script, run as
	`<tool> <script> <filename> <mode>` in the output directory.
*/
package expand

import (
	"context"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/rbxarchive/api"
	"github.com/polydawn/rbxarchive/config"
	"github.com/polydawn/rbxarchive/subproc"
)

/*
	An Expander runs the toolchain in one mode.
	The zero value (or any value with mode Expand_None) does nothing.
*/
type Expander struct {
	Toolchain config.ExpandToolchain
	Mode      api.ExpandMode
}

func (e Expander) Enabled() bool {
	return e.Mode != api.Expand_None
}

/*
	Returns the argv the tool is run with for the given file.
*/
func (e Expander) Args(filename string) []string {
	return []string{e.Toolchain.Tool, e.Toolchain.Script, filename, string(e.Mode)}
}

/*
	Expand the file (a name relative to dir).  A non-zero exit is an error.

	May return errors of category:

	  - `api.ErrProcessFailed` -- if the tool fails or can't be started
	  - `api.ErrCancelled`
*/
func (e Expander) Expand(ctx context.Context, dir string, filename string) (err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	if !e.Enabled() {
		return nil
	}
	argv := e.Args(filename)
	res, err := subproc.Run(ctx, subproc.Cmd{
		Dir:  dir,
		Name: argv[0],
		Args: argv[1:],
	})
	if err != nil {
		return err
	}
	return res.Check("expand " + filename)
}
