package api

/*
	This file is all the serializable types used in rbxarchive
	to describe places, their saved versions, and the run configuration.
*/

import (
	"fmt"
	"math"
	"strconv"
)

/*
	PlaceIDs identify a Roblox place (game) asset.

	Places have a linear version history; each saved version is numbered
	with an ascending positive integer starting at 1.
*/
type PlaceID int64

func (x PlaceID) String() string {
	return strconv.FormatInt(int64(x), 10)
}

/*
	The name of the file each version of a place is written to inside
	the output repository.  The same name is used for every version, so that
	successive commits only capture the diff.
*/
func (x PlaceID) Filename() string {
	return "place_" + x.String() + ".rbxl"
}

/*
	Cookie is the `.ROBLOSECURITY` session credential.

	It's opaque to us.  It's attached to every outbound request,
	and never printed: the String method always redacts.
*/
type Cookie string

func (Cookie) String() string { return "***" }

const CookieName = ".ROBLOSECURITY"

/*
	Metadata about a single saved version of a place,
	as reported by the saved-versions listing.

	Created is kept verbatim (it's an ISO 8601 string, and it's handed
	straight to git as a date, so we don't round-trip it through time.Time).
	IsPublished is a pointer because absence is meaningful:
	a record lacking either Created or IsPublished can't be committed.
*/
type VersionMetadata struct {
	Version         int64  `refmt:"assetVersionNumber"`
	Created         string `refmt:"created,omitempty"`
	IsPublished     *bool  `refmt:"isPublished,omitempty"`
	CreatorType     string `refmt:"creatorType,omitempty"`
	CreatorTargetID int64  `refmt:"creatorTargetId,omitempty"`
}

/*
	Returns true if the record has the fields required to author a commit.
*/
func (m VersionMetadata) Complete() bool {
	return m.Created != "" && m.IsPublished != nil
}

func (m VersionMetadata) Published() bool {
	return m.IsPublished != nil && *m.IsPublished
}

/*
	The full mapping of version number to metadata for one place.

	An index is populated completely (by following pagination to the end)
	before any version is downloaded, and never mutated afterward.
*/
type VersionIndex struct {
	Versions map[int64]VersionMetadata
	Highest  int64 // largest version number observed on any page.
}

func (idx VersionIndex) Lookup(version int64) (VersionMetadata, bool) {
	m, ok := idx.Versions[version]
	return m, ok
}

// Unbounded is the max of a VersionRange which has no upper bound.
const Unbounded = int64(math.MaxInt64)

/*
	An inclusive range of version numbers, consumed in ascending order.
*/
type VersionRange struct {
	Min int64
	Max int64
}

func (r VersionRange) String() string {
	return fmt.Sprintf("[%d, %s]", r.Min, FormatMaxVersion(r.Max))
}

func FormatMaxVersion(max int64) string {
	if max == Unbounded {
		return "none"
	}
	return strconv.FormatInt(max, 10)
}

/*
	ExpandMode selects what the companion expansion tool does with each
	downloaded binary.  The string values are passed to the tool verbatim.
*/
type ExpandMode string

const (
	Expand_None    ExpandMode = ""
	Expand_All     ExpandMode = "all"       // both of the below.
	Expand_Rbxlx   ExpandMode = "rbxlx"     // convert to the readable xml format.
	Expand_Scripts ExpandMode = "fs_expand" // extract scripts to individual files.
)

/*
	Picks the expansion mode for a pair of yes/no answers.
*/
func ExpandModeFor(rbxlx, scripts bool) ExpandMode {
	switch {
	case rbxlx && scripts:
		return Expand_All
	case rbxlx:
		return Expand_Rbxlx
	case scripts:
		return Expand_Scripts
	default:
		return Expand_None
	}
}

/*
	RunConfig is everything racked up by input collection,
	and is treated as immutable once the pipeline starts.
*/
type RunConfig struct {
	OutputDir   string
	Cookie      Cookie
	Place       PlaceID
	Range       VersionRange
	Expand      ExpandMode
	AuthorName  string // optional; git's own config is used when blank.
	AuthorEmail string
}

/*
	Why the download loop stopped.
*/
type StopReason string

const (
	Stop_Absent         StopReason = "absent"          // the server said there is no such version.
	Stop_RangeExhausted StopReason = "range-exhausted" // we reached the max of the requested range.
)

/*
	The summary of a completed run.
*/
type RunResult struct {
	Place          PlaceID    `refmt:"place"`
	FirstCommitted int64      `refmt:"first,omitempty"`
	LastCommitted  int64      `refmt:"last,omitempty"`
	Commits        int        `refmt:"commits"`
	Tags           int        `refmt:"tags"`
	Stop           StopReason `refmt:"stop,omitempty"`
}
