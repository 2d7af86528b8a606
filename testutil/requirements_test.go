package testutil

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRequirements(t *testing.T) {
	Convey("Setting RBXARCHIVE_TEST_SKIP_GIT turns off git tests", t, func() {
		t.Setenv("RBXARCHIVE_TEST_SKIP_GIT", "1")
		So(RequiresGitNotSkipped.Predicate(), ShouldBeFalse)
		t.Setenv("RBXARCHIVE_TEST_SKIP_GIT", "")
		So(RequiresGitNotSkipped.Predicate(), ShouldBeTrue)
	})
	Convey("Unmet requirements skip the test body", t, func() {
		t.Setenv("RBXARCHIVE_TEST_SKIP_GIT", "1")
		ran := false
		Convey("gated on git", Requires(RequiresGitNotSkipped, func() { ran = true }))
		So(ran, ShouldBeFalse)
	})
	Convey("Met requirements run the test body", t, func() {
		t.Setenv("RBXARCHIVE_TEST_SKIP_GIT", "")
		ran := false
		Convey("gated on git", Requires(RequiresGitNotSkipped, func() { ran = true }))
		So(ran, ShouldBeTrue)
	})
}
