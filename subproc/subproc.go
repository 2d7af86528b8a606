/*
	Running external processes (git, and the expansion tool) to completion,
	with their output captured.

	Exit status is reported as data in a Result, not as an error:
	whether a non-zero exit is fatal is up to the call site, which says so
	by calling Result.Check.  Errors returned from Run itself mean the process
	couldn't be run at all (or was killed).
*/
package subproc

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/rbxarchive/api"
)

/*
	A finished process.
*/
type Result struct {
	Args     []string // the full argv, including the command name.
	Dir      string
	ExitCode int
	Stdout   string
	Stderr   string
}

/*
	A Cmd describes a process to run.  Env is appended to the environment
	inherited from this process (so later entries win).
*/
type Cmd struct {
	Dir  string
	Env  []string
	Name string
	Args []string
}

/*
	Run the command, wait for it, and capture stdout and stderr.

	May return errors of category:

	  - `api.ErrProcessFailed` -- if the process could not be started, or died to a signal
	  - `api.ErrCancelled` -- if the context was cancelled while the process ran
*/
func Run(ctx context.Context, c Cmd) (_ Result, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	res := Result{
		Args: append([]string{c.Name}, c.Args...),
		Dir:  c.Dir,
	}
	if err := cmd.Start(); err != nil {
		return res, ErrorDetailed(api.ErrProcessFailed, "failed to start: "+err.Error(), map[string]string{
			"cmd": res.Cmdline(),
		})
	}
	res.ExitCode, err = waitFor(cmd)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	if ctx.Err() != nil {
		return res, Errorf(api.ErrCancelled, "cancelled while running `%s`", res.Cmdline())
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

/*
	Returns the command line for messages.  Not shell-quoted; it's for humans.
*/
func (r Result) Cmdline() string {
	return strings.Join(r.Args, " ")
}

/*
	Converts a non-zero exit into an `api.ErrProcessFailed` error
	mentioning the given action, the exit code, and the captured stderr.
	Returns nil for a zero exit.
*/
func (r Result) Check(action string) error {
	if r.ExitCode == 0 {
		return nil
	}
	return ErrorDetailed(api.ErrProcessFailed,
		"failed to "+action+": `"+r.Cmdline()+"` exited "+strconv.Itoa(r.ExitCode)+":\n"+r.Stderr,
		map[string]string{
			"cmd":    r.Cmdline(),
			"dir":    r.Dir,
			"exit":   strconv.Itoa(r.ExitCode),
			"stderr": r.Stderr,
		})
}

func waitFor(cmd *exec.Cmd) (int, error) {
	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return -1, Errorf(api.ErrProcessFailed, "%s: unknown wait error: %s", cmd.Path, err)
	}
	waitStatus, ok := exitErr.ProcessState.Sys().(syscall.WaitStatus)
	if !ok {
		return -1, Errorf(api.ErrProcessFailed, "%s: unknown process state implementation %T", cmd.Path, exitErr.ProcessState.Sys())
	}
	if waitStatus.Exited() {
		return waitStatus.ExitStatus(), nil
	} else if waitStatus.Signaled() {
		return int(waitStatus.Signal()) + 128, Errorf(api.ErrProcessFailed, "%s: process killed with signal %d", cmd.Path, waitStatus.Signal())
	} else {
		return -1, Errorf(api.ErrProcessFailed, "%s: unknown process wait status (%#v)", cmd.Path, waitStatus)
	}
}
