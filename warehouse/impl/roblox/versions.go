package roblox

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"path"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/rbxarchive/api"
	"github.com/polydawn/rbxarchive/log"
)

/*
	Fetch the complete version metadata index for a place,
	following the listing's cursor until there are no more pages.

	Any non-200 response aborts: a partial index is unsafe to archive from.

	May return errors of category:

	  - `api.ErrUpstream` -- for non-200 responses, connection failures, and unparsable bodies
	  - `api.ErrCancelled`
*/
func (ctrl *Controller) ListVersions(ctx context.Context, place api.PlaceID, mon api.Monitor) (_ api.VersionIndex, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	idx := api.VersionIndex{Versions: map[int64]api.VersionMetadata{}}
	cursor := ""
	for page := 1; ; page++ {
		log.MetadataPage(mon, place, page)
		pg, err := ctrl.listPage(ctx, place, cursor)
		if err != nil {
			return api.VersionIndex{}, err
		}
		for _, meta := range pg.Data {
			idx.Versions[meta.Version] = meta
			if meta.Version > idx.Highest {
				idx.Highest = meta.Version
			}
		}
		if pg.NextPageCursor == "" {
			break
		}
		cursor = pg.NextPageCursor
	}
	log.MetadataComplete(mon, place, idx)
	return idx, nil
}

func (ctrl *Controller) listingURL(place api.PlaceID, cursor string) string {
	u := *ctrl.developURL
	u.Path = path.Join(u.Path, "/v1/assets", place.String(), "saved-versions")
	q := url.Values{}
	q.Set("limit", listingPageSize)
	q.Set("sortOrder", "Desc")
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (ctrl *Controller) listPage(ctx context.Context, place api.PlaceID, cursor string) (savedVersionsPage, error) {
	reqURL := ctrl.listingURL(place, cursor)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return savedVersionsPage{}, Errorf(api.ErrUsage, "failed to build request: %s", err)
	}
	req.Header.Set("Accept", "application/json")
	ctrl.authorize(req)

	resp, err := ctrl.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return savedVersionsPage{}, Errorf(api.ErrCancelled, "cancelled while getting version metadata")
		}
		return savedVersionsPage{}, Errorf(api.ErrUpstream, "error connecting to %s: %s", reqURL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return savedVersionsPage{}, Errorf(api.ErrUpstream, "error reading response from %s: %s", reqURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return savedVersionsPage{}, ErrorDetailed(api.ErrUpstream,
			fmt.Sprintf("error %d on %s occurred while getting version metadata:\n%s", resp.StatusCode, reqURL, body),
			map[string]string{
				"status": resp.Status,
				"url":    reqURL,
				"body":   string(body),
			})
	}
	return decodeSavedVersionsPage(body)
}

/*
	One page of the saved-versions listing.
	The real response has lots of other fields; we only keep these.
*/
type savedVersionsPage struct {
	Data           []api.VersionMetadata
	NextPageCursor string
}

/*
	The listing is decoded loosely: first into wildcard maps, then picked
	apart by hand.  Unknown fields are ignored, and nulls are treated the
	same as absence.
*/
func decodeSavedVersionsPage(body []byte) (pg savedVersionsPage, err error) {
	var raw map[string]interface{}
	if err := refmt.Unmarshal(json.DecodeOptions{}, body, &raw); err != nil {
		return pg, Errorf(api.ErrUpstream, "unparsable version metadata: %s", err)
	}
	if cursor, ok := raw["nextPageCursor"].(string); ok {
		pg.NextPageCursor = cursor
	}
	data, ok := raw["data"].([]interface{})
	if !ok && raw["data"] != nil {
		return pg, Errorf(api.ErrUpstream, "unparsable version metadata: 'data' is not a list")
	}
	for i, entry := range data {
		fields, ok := entry.(map[string]interface{})
		if !ok {
			return pg, Errorf(api.ErrUpstream, "unparsable version metadata: entry %d is not a map", i)
		}
		var meta api.VersionMetadata
		meta.Version, ok = asInt(fields["assetVersionNumber"])
		if !ok {
			return pg, Errorf(api.ErrUpstream, "unparsable version metadata: entry %d has no assetVersionNumber", i)
		}
		meta.Created, _ = fields["created"].(string)
		if published, ok := fields["isPublished"].(bool); ok {
			meta.IsPublished = &published
		}
		meta.CreatorType, _ = fields["creatorType"].(string)
		meta.CreatorTargetID, _ = asInt(fields["creatorTargetId"])
		pg.Data = append(pg.Data, meta)
	}
	return pg, nil
}

func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
