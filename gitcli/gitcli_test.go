package gitcli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/rbxarchive/api"
	"github.com/polydawn/rbxarchive/subproc"
	"github.com/polydawn/rbxarchive/testutil"
)

func gitOutput(dir string, args ...string) string {
	res, err := subproc.Run(context.Background(), subproc.Cmd{Dir: dir, Name: "git", Args: args})
	So(err, ShouldBeNil)
	So(res.Check("inspect"), ShouldBeNil)
	return strings.TrimSpace(res.Stdout)
}

func TestGit(t *testing.T) {
	Convey("Driving the git CLI", t,
		testutil.Requires(testutil.RequiresGit, testutil.RequiresGitNotSkipped, func() {
			ctx := context.Background()
			testutil.WithTmpdir(func(tmpDir string) {
				Convey("git reports a version", func() {
					v, err := Version(ctx)
					So(err, ShouldBeNil)
					So(v, ShouldStartWith, "git version")
				})

				id := Identity{Name: "Archivist", Email: "archivist@example.com"}
				repo, err := Init(ctx, tmpDir, id)
				So(err, ShouldBeNil)
				So(repo.Dir, ShouldEqual, tmpDir)
				So(os.WriteFile(filepath.Join(tmpDir, "place_1.rbxl"), []byte("v1"), 0644), ShouldBeNil)
				So(repo.AddAll(ctx), ShouldBeNil)

				Convey("Commits carry the given date for author and committer", func() {
					So(repo.Commit(ctx, "Version 1", "2021-01-02T03:04:05Z"), ShouldBeNil)
					So(gitOutput(tmpDir, "log", "-1", "--format=%s|%at|%ct|%an|%ce"), ShouldEqual,
						fmt.Sprintf("Version 1|%d|%d|Archivist|archivist@example.com",
							time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC).Unix(),
							time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC).Unix(),
						))

					Convey("Unchanged trees still commit", func() {
						So(repo.AddAll(ctx), ShouldBeNil)
						So(repo.Commit(ctx, "Version 2", "2021-01-03T00:00:00Z"), ShouldBeNil)
						So(gitOutput(tmpDir, "rev-list", "--count", "HEAD"), ShouldEqual, "2")
					})
					Convey("Tags are annotated, and dated the same way", func() {
						So(repo.Tag(ctx, "v1", "Published on 2021-01-02T03:04:05Z by User 7", "2021-01-02T03:04:05Z"), ShouldBeNil)
						So(gitOutput(tmpDir, "cat-file", "-t", "v1"), ShouldEqual, "tag")
						So(gitOutput(tmpDir, "tag", "-l", "--format=%(contents:subject)", "v1"), ShouldEqual, "Published on 2021-01-02T03:04:05Z by User 7")
						So(gitOutput(tmpDir, "tag", "-l", "--format=%(taggerdate:unix)", "v1"), ShouldEqual,
							fmt.Sprint(time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC).Unix()))

						Convey("and a tag can't be made twice", func() {
							err := repo.Tag(ctx, "v1", "again", "2021-01-02T03:04:05Z")
							So(err, errcat.ErrorShouldHaveCategory, api.ErrProcessFailed)
						})
					})
				})
			})
		}),
	)
}
