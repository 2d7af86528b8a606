/*
	The git CLI, driven as a subprocess.

	We never touch repository internals for writing: every mutation is
	a `git` invocation, so the result is exactly what a human running the
	same commands would get.
*/
package gitcli

import (
	"context"
	"strings"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/rbxarchive/api"
	"github.com/polydawn/rbxarchive/subproc"
)

/*
	Return the `git --version` string.  Used to check git exists before
	anything else happens.

	May return errors of category:

	  - `api.ErrProcessFailed` -- if there's no usable git
*/
func Version(ctx context.Context) (string, error) {
	res, err := subproc.Run(ctx, subproc.Cmd{Name: "git", Args: []string{"--version"}})
	if err != nil {
		return "", err
	}
	if err := res.Check("check for git"); err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

/*
	Identity is the optional name and email to author commits (and tags) as.
	Blank fields are left to git's own configuration.
*/
type Identity struct {
	Name  string
	Email string
}

func (id Identity) env() (env []string) {
	if id.Name != "" {
		env = append(env, "GIT_AUTHOR_NAME="+id.Name, "GIT_COMMITTER_NAME="+id.Name)
	}
	if id.Email != "" {
		env = append(env, "GIT_AUTHOR_EMAIL="+id.Email, "GIT_COMMITTER_EMAIL="+id.Email)
	}
	return
}

/*
	A working tree we're committing into.
*/
type Repo struct {
	Dir      string
	Identity Identity
}

/*
	Runs `git init` in an existing directory.

	May return errors of category:

	  - `api.ErrProcessFailed` -- if git fails
	  - `api.ErrCancelled`
*/
func Init(ctx context.Context, dir string, id Identity) (*Repo, error) {
	r := &Repo{Dir: dir, Identity: id}
	return r, r.git(ctx, "init repository", nil, "init")
}

/*
	Stages everything in the working tree (`git add .`).
*/
func (r *Repo) AddAll(ctx context.Context) error {
	return r.git(ctx, "stage changes", nil, "add", ".")
}

/*
	Commits the index with the given message.

	The date is used as both the author and committer date, verbatim;
	git accepts ISO 8601 among other formats.
	`--allow-empty` is used so that a version identical to its predecessor
	still gets its own commit (and so its own place in the history).
*/
func (r *Repo) Commit(ctx context.Context, msg string, date string) error {
	return r.git(ctx, "commit", dateEnv(date), "commit", "--allow-empty", "-m", msg)
}

/*
	Creates an annotated tag on HEAD.  The date becomes the tagger date.
*/
func (r *Repo) Tag(ctx context.Context, name string, msg string, date string) error {
	return r.git(ctx, "tag", dateEnv(date), "tag", "-a", name, "-m", msg)
}

func dateEnv(date string) []string {
	return []string{
		"GIT_AUTHOR_DATE=" + date,
		"GIT_COMMITTER_DATE=" + date,
	}
}

func (r *Repo) git(ctx context.Context, action string, env []string, args ...string) (err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	res, err := subproc.Run(ctx, subproc.Cmd{
		Dir:  r.Dir,
		Env:  append(r.Identity.env(), env...),
		Name: "git",
		Args: args,
	})
	if err != nil {
		return err
	}
	return res.Check(action)
}
