package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/rbxarchive/api"
	"github.com/polydawn/rbxarchive/expand"
	"github.com/polydawn/rbxarchive/gitcli"
	"github.com/polydawn/rbxarchive/log"
)

/*
	Persist one downloaded version as a commit, tagging it if it was published.
	Returns the tag name, or empty if the version wasn't tagged.

	The blob always goes to the same filename, overwriting the previous
	version, so each commit is a diff against its predecessor.
	Author and committer dates are the version's creation time, not now.
*/
func CommitVersion(
	ctx context.Context,
	repo *gitcli.Repo,
	place api.PlaceID,
	exp expand.Expander,
	idx api.VersionIndex,
	version int64,
	body []byte,
	mon api.Monitor,
) (tag string, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	log.Info(mon, fmt.Sprintf("Saving version %d...", version))
	filename := place.Filename()
	if err := os.WriteFile(filepath.Join(repo.Dir, filename), body, 0644); err != nil {
		return "", Errorf(api.ErrLocalIO, "failed to write version %d: %s", version, err)
	}
	if err := exp.Expand(ctx, repo.Dir, filename); err != nil {
		return "", err
	}

	log.Info(mon, fmt.Sprintf("Committing version %d...", version))
	meta, ok := idx.Lookup(version)
	if !ok {
		return "", Errorf(api.ErrMetadataInconsistent, "Unable to get version metadata for version %d, aborting", version)
	}
	if !meta.Complete() {
		return "", Errorf(api.ErrMetadataInconsistent, "Unable to use version metadata for version %d, aborting", version)
	}

	if err := repo.AddAll(ctx); err != nil {
		return "", err
	}
	if err := repo.Commit(ctx, fmt.Sprintf("Version %d", version), meta.Created); err != nil {
		return "", err
	}
	if meta.Published() {
		tag = fmt.Sprintf("v%d", version)
		msg := fmt.Sprintf("Published on %s by %s %d", meta.Created, meta.CreatorType, meta.CreatorTargetID)
		if err := repo.Tag(ctx, tag, msg, meta.Created); err != nil {
			return "", err
		}
	}
	log.Committed(mon, version, meta, tag)
	return tag, nil
}
