package roblox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/rbxarchive/api"
	"github.com/polydawn/rbxarchive/log"
)

/*
	Fetch the binary content of one version of a place.

	Any status other than 200, 400, or 404 (and any connection failure) is
	considered transient: we log it, wait out the backoff, and try the *same*
	version again, with no limit on attempts.
	400 and 404 both mean the version does not exist.
	After a success the backoff counter goes back to its start.

	May return errors of category:

	  - `api.ErrVersionAbsent` -- if the server says there's no such version
	  - `api.ErrCancelled` -- if the context is cancelled (even mid-backoff)
*/
func (ctrl *Controller) FetchVersion(ctx context.Context, place api.PlaceID, version int64, mon api.Monitor) (_ []byte, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	var lastBody string
	op := func() ([]byte, error) {
		body, err := ctrl.fetchOnce(ctx, place, version)
		switch Category(err) {
		case nil:
			return body, nil
		case api.ErrVersionAbsent, api.ErrCancelled:
			return nil, backoff.Permanent(err)
		default:
			lastBody = string(body)
			return nil, err
		}
	}
	notify := func(err error, wait time.Duration) {
		log.DownloadRetry(mon, version, err, lastBody, wait)
	}
	body, err := backoff.RetryNotifyWithData(op, backoff.WithContext(ctrl.backoff, ctx), notify)
	if ctx.Err() != nil {
		return nil, Errorf(api.ErrCancelled, "cancelled while downloading version %d", version)
	}
	if err != nil {
		return nil, err
	}
	ctrl.backoff.Reset()
	return body, nil
}

func (ctrl *Controller) assetURL(place api.PlaceID, version int64) string {
	u := *ctrl.deliveryURL
	u.Path = path.Join(u.Path, "/v1/asset")
	q := url.Values{}
	q.Set("id", place.String())
	q.Set("version", strconv.FormatInt(version, 10))
	u.RawQuery = q.Encode()
	return u.String()
}

/*
	One attempt.  On an unexpected status, the body is returned
	alongside the error so it can be logged.
*/
func (ctrl *Controller) fetchOnce(ctx context.Context, place api.PlaceID, version int64) ([]byte, error) {
	reqURL := ctrl.assetURL(place, version)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, Errorf(api.ErrUsage, "failed to build request: %s", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	ctrl.authorize(req)

	resp, err := ctrl.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, Errorf(api.ErrCancelled, "cancelled while downloading version %d", version)
		}
		return nil, Errorf(api.ErrUpstream, "error connecting to %s: %s", reqURL, err)
	}
	defer resp.Body.Close()
	body, readErr := io.ReadAll(resp.Body)
	switch resp.StatusCode {
	case http.StatusOK:
		if readErr != nil {
			return nil, Errorf(api.ErrUpstream, "error reading version %d from %s: %s", version, reqURL, readErr)
		}
		return body, nil
	case http.StatusNotFound, http.StatusBadRequest:
		return nil, ErrorDetailed(api.ErrVersionAbsent,
			fmt.Sprintf("version %d of place %s not found (status %d)", version, place, resp.StatusCode),
			map[string]string{
				"status": resp.Status,
			},
		)
	default:
		return body, ErrorDetailed(api.ErrUpstream,
			fmt.Sprintf("error %d on %s occurred while downloading", resp.StatusCode, reqURL),
			map[string]string{
				"status": resp.Status,
				"url":    reqURL,
			})
	}
}
