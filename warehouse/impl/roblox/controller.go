/*
	The Roblox web APIs, as a warehouse of place versions.

	Two endpoints are used:

	  - the develop API's "saved-versions" listing, for metadata;
	  - the asset delivery API, for the binary content of each version.

	Both are authenticated by the `.ROBLOSECURITY` cookie.
*/
package roblox

import (
	"net/http"
	"net/url"
	"time"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/rbxarchive/api"
	"github.com/polydawn/rbxarchive/warehouse"
)

var (
	_ warehouse.Controller = &Controller{}
)

const (
	DefaultDevelopURL       = "https://develop.roblox.com"
	DefaultAssetDeliveryURL = "https://assetdelivery.roblox.com"

	// The asset delivery API wants to believe it's talking to a client.
	UserAgent = "Roblox/WinInet"

	listingPageSize = "50"
)

type Config struct {
	DevelopURL       string // blank means DefaultDevelopURL.
	AssetDeliveryURL string // blank means DefaultAssetDeliveryURL.
	Cookie           api.Cookie
	BackoffStart     time.Duration // zero means DefaultBackoffStart.
	BackoffStep      time.Duration // zero means DefaultBackoffStep.
	HTTPClient       *http.Client  // nil means http.DefaultClient (which follows redirects).
}

type Controller struct {
	developURL  *url.URL
	deliveryURL *url.URL
	cookie      api.Cookie
	client      *http.Client
	backoff     *LinearBackOff
}

/*
	Initialize a new controller for the Roblox APIs.

	May return errors of category:

	  - `api.ErrUsage` -- for unparsable or unsupported base URLs
*/
func NewController(cfg Config) (*Controller, error) {
	if cfg.DevelopURL == "" {
		cfg.DevelopURL = DefaultDevelopURL
	}
	if cfg.AssetDeliveryURL == "" {
		cfg.AssetDeliveryURL = DefaultAssetDeliveryURL
	}
	if cfg.BackoffStart == 0 {
		cfg.BackoffStart = DefaultBackoffStart
	}
	if cfg.BackoffStep == 0 {
		cfg.BackoffStep = DefaultBackoffStep
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	ctrl := &Controller{
		cookie:  cfg.Cookie,
		client:  cfg.HTTPClient,
		backoff: NewLinearBackOff(cfg.BackoffStart, cfg.BackoffStep),
	}
	var err error
	if ctrl.developURL, err = parseBaseURL(cfg.DevelopURL); err != nil {
		return nil, err
	}
	if ctrl.deliveryURL, err = parseBaseURL(cfg.AssetDeliveryURL); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func parseBaseURL(addr string) (*url.URL, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, Errorf(api.ErrUsage, "failed to parse URI: %s", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return nil, Errorf(api.ErrUsage, "unsupported scheme in api addr: %q (valid options are 'http' or 'https')", u.Scheme)
	}
	return u, nil
}

/*
	The backoff counter used between download retries.
*/
func (ctrl *Controller) Backoff() *LinearBackOff {
	return ctrl.backoff
}

func (ctrl *Controller) authorize(req *http.Request) {
	req.AddCookie(&http.Cookie{Name: api.CookieName, Value: string(ctrl.cookie)})
}
