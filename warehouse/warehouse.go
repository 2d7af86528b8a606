package warehouse

import (
	"context"

	"github.com/polydawn/rbxarchive/api"
)

/*
	A version lister produces the complete metadata index for a place.

	Implementations must follow pagination all the way to the end before
	returning; a partial index is an error, never a result.
*/
type VersionLister interface {
	ListVersions(ctx context.Context, place api.PlaceID, mon api.Monitor) (api.VersionIndex, error)
}

/*
	A version fetcher retrieves the binary content of one saved version.

	Returning an error of category `api.ErrVersionAbsent` means the version
	definitively does not exist; callers treat that as the end of history,
	not as a failure.  Transient failures are the fetcher's problem to retry.
*/
type VersionFetcher interface {
	FetchVersion(ctx context.Context, place api.PlaceID, version int64, mon api.Monitor) ([]byte, error)
}

/*
	Both halves.  The roblox http controller is one of these;
	tests substitute their own.
*/
type Controller interface {
	VersionLister
	VersionFetcher
}
