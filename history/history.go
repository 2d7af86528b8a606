/*
	Reading an archive back.

	An archive is an ordinary git repository whose history is one
	"Version <n>" commit per archived place version, with annotated "v<n>"
	tags on the published ones.  This package opens such a repository
	read-only (we never write through it; writing is the git CLI's job)
	and reports what's in it -- mostly so a later run knows which minimum
	version to start from.
*/
package history

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	. "github.com/warpfork/go-errcat"
	srcd_osfs "gopkg.in/src-d/go-billy.v4/osfs"
	srcd_git "gopkg.in/src-d/go-git.v4"
	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/plumbing/cache"
	"gopkg.in/src-d/go-git.v4/plumbing/object"
	"gopkg.in/src-d/go-git.v4/storage/filesystem"

	"github.com/polydawn/rbxarchive/api"
)

const commitMessagePrefix = "Version "

type Archive struct {
	dir  string
	repo *srcd_git.Repository
}

/*
	Open the archive in the given working tree.

	May return errors of category:

	  - `api.ErrUsage` -- if there's no git repository at dir
*/
func Open(dir string) (*Archive, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, Errorf(api.ErrUsage, "unusable path %q: %s", dir, err)
	}
	store := filesystem.NewStorage(srcd_osfs.New(filepath.Join(dir, ".git")), cache.NewObjectLRUDefault())
	repo, err := srcd_git.Open(store, srcd_osfs.New(dir))
	if err == srcd_git.ErrRepositoryNotExists {
		return nil, Errorf(api.ErrUsage, "no archive at %q: not a git repository", dir)
	} else if err != nil {
		return nil, Errorf(api.ErrUsage, "unable to open archive at %q: %s", dir, err)
	}
	return &Archive{dir, repo}, nil
}

/*
	List every archived version reachable from HEAD, in ascending order.
	An archive with no commits yet has no versions (and that's not an error).

	Commits whose message isn't "Version <n>" are skipped.
*/
func (a *Archive) Versions() ([]api.ArchivedVersion, error) {
	head, err := a.repo.Head()
	if err == plumbing.ErrReferenceNotFound {
		return nil, nil
	} else if err != nil {
		return nil, Errorf(api.ErrUsage, "archive at %q has no readable HEAD: %s", a.dir, err)
	}
	tags, err := a.annotatedTags()
	if err != nil {
		return nil, err
	}

	iter, err := a.repo.Log(&srcd_git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, Errorf(api.ErrUsage, "unable to read history of %q: %s", a.dir, err)
	}
	defer iter.Close()
	var result []api.ArchivedVersion
	err = iter.ForEach(func(c *object.Commit) error {
		version, ok := ParseCommitMessage(c.Message)
		if !ok {
			return nil
		}
		av := api.ArchivedVersion{
			Version:       version,
			Commit:        c.Hash.String(),
			AuthorTime:    c.Author.When,
			CommitterTime: c.Committer.When,
		}
		if tag, ok := tags[c.Hash]; ok {
			av.Tag = tag.Name
			av.TagMessage = strings.TrimSpace(tag.Message)
		}
		result = append(result, av)
		return nil
	})
	if err != nil {
		return nil, Errorf(api.ErrUsage, "unable to read history of %q: %s", a.dir, err)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result, nil
}

/*
	Map of commit hash to the annotated tag pointing at it.
	Lightweight tags aren't something we make, so they're ignored.
*/
func (a *Archive) annotatedTags() (map[plumbing.Hash]*object.Tag, error) {
	tags := map[plumbing.Hash]*object.Tag{}
	iter, err := a.repo.TagObjects()
	if err != nil {
		return nil, Errorf(api.ErrUsage, "unable to read tags of %q: %s", a.dir, err)
	}
	err = iter.ForEach(func(t *object.Tag) error {
		if t.TargetType == plumbing.CommitObject {
			tags[t.Target] = t
		}
		return nil
	})
	if err != nil {
		return nil, Errorf(api.ErrUsage, "unable to read tags of %q: %s", a.dir, err)
	}
	return tags, nil
}

/*
	Extracts n from a "Version <n>" commit message.
*/
func ParseCommitMessage(msg string) (int64, bool) {
	msg = strings.TrimSpace(msg)
	if !strings.HasPrefix(msg, commitMessagePrefix) {
		return 0, false
	}
	v, err := strconv.ParseInt(strings.TrimPrefix(msg, commitMessagePrefix), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

/*
	The highest archived version, or zero for an empty archive.
*/
func Highest(versions []api.ArchivedVersion) int64 {
	if len(versions) == 0 {
		return 0
	}
	return versions[len(versions)-1].Version
}
