package api

import (
	"time"

	"github.com/polydawn/refmt/obj/atlas"
	"github.com/warpfork/go-errcat"
)

/*
	Times are serialized as RFC3339 strings (with nanos, when there are any).
*/
var Time_AtlasEntry = atlas.BuildEntry(time.Time{}).Transform().
	TransformMarshal(atlas.MakeMarshalTransformFunc(
		func(x time.Time) (string, error) {
			return x.Format(time.RFC3339Nano), nil
		})).
	TransformUnmarshal(atlas.MakeUnmarshalTransformFunc(
		func(x string) (time.Time, error) {
			return time.Parse(time.RFC3339Nano, x)
		})).
	Complete()

var Atlas = atlas.MustBuild(
	atlas.BuildEntry(Event{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(Event_Log{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(Event_Progress{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(Event_Result{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(ErrorInfo{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(RunResult{}).StructMap().Autogenerate().Complete(),
	atlas.BuildEntry(ArchivedVersion{}).StructMap().Autogenerate().Complete(),
	Time_AtlasEntry,
)

/*
	Stores the error in the serializable result form.
	The category is kept if the error has one of ours; everything else is
	reported under the catchall category.  Details (from errcat.ErrorDetailed)
	are carried over.
*/
func (r *Event_Result) SetError(err error) {
	if err == nil {
		r.Error = nil
		return
	}
	category, ok := errcat.Category(err).(ErrorCategory)
	if !ok {
		category = ErrorCategory("rbx-unknown")
	}
	r.Error = &ErrorInfo{
		Category: category,
		Msg:      err.Error(),
	}
	if details := errcat.Details(err); len(details) > 0 {
		r.Error.Details = details
	}
}
