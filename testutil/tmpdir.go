package testutil

import (
	"os"
	"path/filepath"

	"github.com/smartystreets/goconvey/convey"
)

/*
	Run fn with a fresh temp dir, removed again afterwards.
	The path is absolute and has symlinks resolved, so it compares
	equal to what git reports.
*/
func WithTmpdir(fn func(tmpDir string)) {
	dir, err := os.MkdirTemp("", "rbxarchive-test-")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)
	dir, err = filepath.EvalSymlinks(dir)
	if err != nil {
		panic(err)
	}
	fn(dir)
}

/*
	Assert that a file exists and return its content.
*/
func ShouldReadFile(path string) string {
	bs, err := os.ReadFile(path)
	convey.So(err, convey.ShouldBeNil)
	return string(bs)
}
