// Package resolver follows a share link's redirect without fetching the
// target. Short-form share URLs are redirectors; the Location header is
// the only part of the response worth reading.
package resolver

import (
	"context"
	"net/http"
	"time"

	"sharefetch/pkg/cookie"
	"sharefetch/pkg/logger"
)

// ResolvedLink is the outcome of a single resolution attempt.
// Location empty with a status set means the input URL was not a
// redirector and should be used as-is. Err set means the network call
// itself failed, not that the server returned an error status.
type ResolvedLink struct {
	Original   string
	Location   string
	StatusCode int
	Err        error
}

// Target returns the URL the caller should download: the redirect
// target when one was found, otherwise the original URL.
func (r ResolvedLink) Target() string {
	if r.Location != "" {
		return r.Location
	}
	return r.Original
}

// Resolver issues non-redirect-following requests with a browser
// header profile.
type Resolver struct {
	client *http.Client
	logger logger.Logger
}

// browserHeaders mimics a desktop Firefox navigation request. The
// redirector refuses obviously scripted clients.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "zh-CN,zh;q=0.8,zh-TW;q=0.7,zh-HK;q=0.5,en-US;q=0.3,en;q=0.2",
	"Connection":                "keep-alive",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Upgrade-Insecure-Requests": "1",
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:136.0) Gecko/20100101 Firefox/136.0",
}

// New creates a Resolver with the given total timeout
func New(timeout time.Duration, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: log,
	}
}

// Resolve issues a GET against url with redirects disabled and returns
// the Location target for 301/302 responses. Any other status marks the
// URL as already canonical. Retry policy lives in the caller; a failed
// resolution is reported, never retried here.
func (r *Resolver) Resolve(ctx context.Context, url, rawCookie string) ResolvedLink {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ResolvedLink{Original: url, Err: err}
	}

	for key, value := range browserHeaders {
		req.Header.Set(key, value)
	}
	if rawCookie != "" {
		req.Header.Set("Cookie", cookie.HeaderValue(rawCookie))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.WarnWithFields("share link resolution failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return ResolvedLink{Original: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound {
		location := resp.Header.Get("Location")
		r.logger.DebugWithFields("share link resolved", map[string]interface{}{
			"url":      url,
			"location": location,
			"status":   resp.StatusCode,
		})
		return ResolvedLink{Original: url, Location: location, StatusCode: resp.StatusCode}
	}

	r.logger.DebugWithFields("share link already canonical", map[string]interface{}{
		"url":    url,
		"status": resp.StatusCode,
	})
	return ResolvedLink{Original: url, StatusCode: resp.StatusCode}
}
