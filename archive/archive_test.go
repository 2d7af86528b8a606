package archive

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/rbxarchive/api"
	"github.com/polydawn/rbxarchive/expand"
	"github.com/polydawn/rbxarchive/history"
	"github.com/polydawn/rbxarchive/testutil"
)

/*
	A warehouse serving a fixed index, and "v<n>" bodies for the versions
	in bodies.  Everything else is absent.
*/
type fakeWarehouse struct {
	idx     api.VersionIndex
	listErr error
	bodies  map[int64]string
	listed  bool
	fetched []int64

	absentStatus string
}

func (f *fakeWarehouse) ListVersions(ctx context.Context, place api.PlaceID, mon api.Monitor) (api.VersionIndex, error) {
	f.listed = true
	return f.idx, f.listErr
}

func (f *fakeWarehouse) FetchVersion(ctx context.Context, place api.PlaceID, version int64, mon api.Monitor) ([]byte, error) {
	f.fetched = append(f.fetched, version)
	body, ok := f.bodies[version]
	if !ok {
		return nil, errcat.ErrorDetailed(api.ErrVersionAbsent, fmt.Sprintf("version %d not found", version),
			map[string]string{"status": f.absentStatus},
		)
	}
	return []byte(body), nil
}

func meta(version int64, created string, published bool, creator string, creatorID int64) api.VersionMetadata {
	return api.VersionMetadata{
		Version:         version,
		Created:         created,
		IsPublished:     &published,
		CreatorType:     creator,
		CreatorTargetID: creatorID,
	}
}

func TestRun(t *testing.T) {
	Convey("Archiving a place", t,
		testutil.Requires(testutil.RequiresGit, testutil.RequiresGitNotSkipped, func() {
			ctx := context.Background()
			testutil.WithTmpdir(func(tmpDir string) {
				src := &fakeWarehouse{
					idx: api.VersionIndex{
						Versions: map[int64]api.VersionMetadata{
							1: meta(1, "2021-01-01T00:00:00Z", true, "User", 7),
							2: meta(2, "2021-02-01T12:30:00Z", false, "Group", 12),
						},
						Highest: 2,
					},
					bodies:       map[int64]string{1: "v1", 2: "v2"},
					absentStatus: "404 Not Found",
				}
				cfg := api.RunConfig{
					OutputDir:   filepath.Join(tmpDir, "out"),
					Place:       1818,
					Range:       api.VersionRange{Min: 1, Max: api.Unbounded},
					AuthorName:  "Archivist",
					AuthorEmail: "archivist@example.com",
				}

				Convey("Every version is committed until one is absent", func() {
					result, err := Run(ctx, cfg, src, expand.Expander{}, api.Monitor{})
					So(err, ShouldBeNil)
					So(result, ShouldResemble, api.RunResult{
						Place:          1818,
						FirstCommitted: 1,
						LastCommitted:  2,
						Commits:        2,
						Tags:           1,
						Stop:           api.Stop_Absent,
					})
					So(src.fetched, ShouldResemble, []int64{1, 2, 3})
					So(testutil.ShouldReadFile(filepath.Join(cfg.OutputDir, "place_1818.rbxl")), ShouldEqual, "v2")

					arch, err := history.Open(cfg.OutputDir)
					So(err, ShouldBeNil)
					versions, err := arch.Versions()
					So(err, ShouldBeNil)
					So(versions, ShouldHaveLength, 2)

					Convey("Commits are dated at their version's creation", func() {
						So(versions[0].Version, ShouldEqual, 1)
						So(versions[0].AuthorTime.Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
						So(versions[0].CommitterTime.Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
						So(versions[1].Version, ShouldEqual, 2)
						So(versions[1].AuthorTime.Equal(time.Date(2021, 2, 1, 12, 30, 0, 0, time.UTC)), ShouldBeTrue)
					})
					Convey("Only published versions are tagged", func() {
						So(versions[0].Tag, ShouldEqual, "v1")
						So(versions[0].TagMessage, ShouldEqual, "Published on 2021-01-01T00:00:00Z by User 7")
						So(versions[1].Tag, ShouldEqual, "")
					})
				})
				Convey("The range maximum stops the run", func() {
					cfg.Range.Max = 1
					result, err := Run(ctx, cfg, src, expand.Expander{}, api.Monitor{})
					So(err, ShouldBeNil)
					So(result.Commits, ShouldEqual, 1)
					So(result.Stop, ShouldEqual, api.Stop_RangeExhausted)
					So(src.fetched, ShouldResemble, []int64{1})
				})
				Convey("The range minimum skips earlier versions", func() {
					cfg.Range.Min = 2
					result, err := Run(ctx, cfg, src, expand.Expander{}, api.Monitor{})
					So(err, ShouldBeNil)
					So(result.FirstCommitted, ShouldEqual, 2)
					So(result.Tags, ShouldEqual, 0)
					So(src.fetched, ShouldResemble, []int64{2, 3})
				})
				Convey("A version without usable metadata aborts the run", func() {
					incomplete := src.idx.Versions[2]
					incomplete.IsPublished = nil
					src.idx.Versions[2] = incomplete
					src.bodies[3] = "v3"
					result, err := Run(ctx, cfg, src, expand.Expander{}, api.Monitor{})
					So(err, errcat.ErrorShouldHaveCategory, api.ErrMetadataInconsistent)
					So(err.Error(), ShouldEqual, "Unable to use version metadata for version 2, aborting")
					So(result.Commits, ShouldEqual, 1)
					So(src.fetched, ShouldResemble, []int64{1, 2})

					Convey("and what was committed before stays", func() {
						arch, err := history.Open(cfg.OutputDir)
						So(err, ShouldBeNil)
						versions, err := arch.Versions()
						So(err, ShouldBeNil)
						So(versions, ShouldHaveLength, 1)
						So(history.Highest(versions), ShouldEqual, 1)
					})
				})
				Convey("A version missing from the listing aborts the run", func() {
					delete(src.idx.Versions, 2)
					_, err := Run(ctx, cfg, src, expand.Expander{}, api.Monitor{})
					So(err, errcat.ErrorShouldHaveCategory, api.ErrMetadataInconsistent)
					So(err.Error(), ShouldEqual, "Unable to get version metadata for version 2, aborting")
				})
				Convey("A listing failure happens before any download", func() {
					src.listErr = errcat.Errorf(api.ErrUpstream, "error 500")
					_, err := Run(ctx, cfg, src, expand.Expander{}, api.Monitor{})
					So(err, errcat.ErrorShouldHaveCategory, api.ErrUpstream)
					So(src.fetched, ShouldBeEmpty)
				})
				Convey("An existing output directory is refused up front", func() {
					cfg.OutputDir = tmpDir
					_, err := Run(ctx, cfg, src, expand.Expander{}, api.Monitor{})
					So(err, errcat.ErrorShouldHaveCategory, api.ErrUsage)
					So(src.listed, ShouldBeFalse)
				})
				Convey("The monitor sees the run and is closed after", func() {
					evs := make(chan api.Event)
					var msgs []string
					done := make(chan struct{})
					go func() {
						defer close(done)
						for ev := range evs {
							if ev.Log != nil {
								msgs = append(msgs, ev.Log.Msg)
							}
						}
					}()
					_, err := Run(ctx, cfg, src, expand.Expander{}, api.Monitor{Chan: evs})
					So(err, ShouldBeNil)
					<-done
					So(msgs, ShouldContain, "Downloading version 1...")
					So(msgs, ShouldContain, "Committed version 2")
					So(msgs, ShouldContain, "Got 404 Not Found for version 3, ending download")

					Convey("and the end of the range reports the status it actually got", func() {
						src.absentStatus = "400 Bad Request"
						cfg.OutputDir = filepath.Join(tmpDir, "out-400")
						msgs = nil
						evs := make(chan api.Event)
						done := make(chan struct{})
						go func() {
							defer close(done)
							for ev := range evs {
								if ev.Log != nil {
									msgs = append(msgs, ev.Log.Msg)
								}
							}
						}()
						_, err := Run(ctx, cfg, src, expand.Expander{}, api.Monitor{Chan: evs})
						So(err, ShouldBeNil)
						<-done
						So(msgs, ShouldContain, "Got 400 Bad Request for version 3, ending download")
						So(msgs, ShouldNotContain, "Got 404 Not Found for version 3, ending download")
					})
				})
			})
		}),
	)
}

func TestCheckOutputDir(t *testing.T) {
	Convey("Output directories must not exist yet", t, func() {
		testutil.WithTmpdir(func(tmpDir string) {
			So(CheckOutputDir(filepath.Join(tmpDir, "new")), ShouldBeNil)
			So(CheckOutputDir(tmpDir), errcat.ErrorShouldHaveCategory, api.ErrUsage)
		})
	})
}
