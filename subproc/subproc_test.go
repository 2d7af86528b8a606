package subproc

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/rbxarchive/api"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	Convey("Running subprocesses", t, func() {
		Convey("Output and exit codes are captured", func() {
			res, err := Run(ctx, Cmd{Name: "sh", Args: []string{"-c", "echo out; echo err >&2; exit 3"}})
			So(err, ShouldBeNil)
			So(res.ExitCode, ShouldEqual, 3)
			So(res.Stdout, ShouldEqual, "out\n")
			So(res.Stderr, ShouldEqual, "err\n")
			So(res.Cmdline(), ShouldEqual, "sh -c echo out; echo err >&2; exit 3")

			Convey("and Check makes the non-zero exit an error", func() {
				err := res.Check("do the thing")
				So(err, errcat.ErrorShouldHaveCategory, api.ErrProcessFailed)
				So(err.Error(), ShouldContainSubstring, "failed to do the thing")
				So(err.Error(), ShouldContainSubstring, "exited 3")
				So(err.Error(), ShouldContainSubstring, "err\n")
			})
		})
		Convey("A zero exit checks out", func() {
			res, err := Run(ctx, Cmd{Name: "true"})
			So(err, ShouldBeNil)
			So(res.Check("succeed"), ShouldBeNil)
		})
		Convey("Env is layered over ours", func() {
			res, err := Run(ctx, Cmd{Name: "sh", Args: []string{"-c", `printf %s "$RBX_TEST_VAR"`}, Env: []string{"RBX_TEST_VAR=hello"}})
			So(err, ShouldBeNil)
			So(res.Stdout, ShouldEqual, "hello")
		})
		Convey("Dir sets the working directory", func() {
			res, err := Run(ctx, Cmd{Name: "pwd", Dir: "/"})
			So(err, ShouldBeNil)
			So(res.Stdout, ShouldEqual, "/\n")
		})
		Convey("Missing commands fail to start", func() {
			_, err := Run(ctx, Cmd{Name: "rbxarchive-no-such-command"})
			So(err, errcat.ErrorShouldHaveCategory, api.ErrProcessFailed)
		})
		Convey("Cancellation kills the process", func() {
			ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			_, err := Run(ctx, Cmd{Name: "sleep", Args: []string{"10"}})
			So(err, errcat.ErrorShouldHaveCategory, api.ErrCancelled)
		})
	})
}
