// Package xhs resolves share links through a pair of third-party parse
// endpoints. The primary endpoint periodically enters maintenance; the
// client fails over to the secondary exactly once per call.
package xhs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sharefetch/pkg/config"
	errs "sharefetch/pkg/errors"
	"sharefetch/pkg/logger"
	"sharefetch/pkg/media"
)

const maintenanceCode = 201

// stringList tolerates endpoints that serialize a single URL as a bare
// string instead of a one-element array. Everything past the decode
// boundary sees []string.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*s = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return fmt.Errorf("expected string or string array: %w", err)
	}
	*s = []string{one}
	return nil
}

type parseResponse struct {
	Code    int       `json:"code"`
	Success int       `json:"success"`
	Data    parseData `json:"data"`
}

type parseData struct {
	Title       string     `json:"title"`
	VideoTitle  string     `json:"video_title"`
	Images      stringList `json:"images"`
	DownloadURL stringList `json:"download_url"`
	CoverURL    string     `json:"image_url"`
}

// Client queries the parse endpoints and normalizes their payloads
// into media.Item. Video sizes are probed with HEAD requests so the
// caller can report totals without fetching any body.
type Client struct {
	httpClient *http.Client
	primary    string
	secondary  string
	logger     logger.Logger
}

func NewClient(cfg config.XHSConfig, log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		primary:    cfg.PrimaryAPI,
		secondary:  cfg.SecondaryAPI,
		logger:     log,
	}
}

// Parse resolves shareURL into a media.Item. The primary endpoint is
// tried first; a maintenance code or any transport or decode failure
// triggers one failover to the secondary. Errors from the secondary
// are final.
func (c *Client) Parse(ctx context.Context, shareURL string) (*media.Item, error) {
	result, err := c.fetch(ctx, c.primary, shareURL)
	switch {
	case err != nil:
		logger.LogFailover(c.logger, c.primary, c.secondary, err.Error())
	case result.Code == maintenanceCode:
		logger.LogFailover(c.logger, c.primary, c.secondary, "maintenance")
		result = nil
	}

	if result == nil {
		result, err = c.fetch(ctx, c.secondary, shareURL)
		if err != nil {
			return nil, err
		}
	}

	if result.Success != 1 {
		return nil, errs.New(errs.ErrorTypeParsing, result.Code,
			"parse endpoint reported failure (code=%d)", result.Code)
	}

	return c.buildItem(ctx, &result.Data)
}

func (c *Client) fetch(ctx context.Context, endpoint, shareURL string) (*parseResponse, error) {
	requestURL := endpoint + "?url=" + url.QueryEscape(shareURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeBadInput, 0, "invalid endpoint URL: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeNetwork, 0, "parse request failed: %v", err)
	}
	defer resp.Body.Close()

	var result parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, resp.StatusCode,
			"undecodable parse response: %v", err)
	}
	return &result, nil
}

func (c *Client) buildItem(ctx context.Context, data *parseData) (*media.Item, error) {
	if len(data.Images) > 0 {
		return &media.Item{
			Type:          media.TypeImage,
			IsMultiPart:   len(data.Images) > 1,
			Count:         len(data.Images),
			DownloadLinks: data.Images,
			Title:         data.Title,
		}, nil
	}

	if len(data.DownloadURL) > 0 {
		sizes := make([]int64, 0, len(data.DownloadURL))
		for _, link := range data.DownloadURL {
			sizes = append(sizes, c.probeSize(ctx, link))
		}
		return &media.Item{
			Type:          media.TypeVideo,
			IsMultiPart:   len(data.DownloadURL) > 1,
			Count:         len(data.DownloadURL),
			DownloadLinks: data.DownloadURL,
			Title:         data.VideoTitle,
			Sizes:         sizes,
			CoverURL:      data.CoverURL,
		}, nil
	}

	return nil, errs.New(errs.ErrorTypeParsing, 0,
		"parse response carries neither images nor download URLs")
}

// probeSize reads Content-Length from a HEAD response. Probe failures
// degrade to 0 so a missing size never blocks the actual download.
func (c *Client) probeSize(ctx context.Context, link string) int64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return 0
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnWithFields("size probe failed", map[string]interface{}{
			"url":   link,
			"error": err.Error(),
		})
		return 0
	}
	defer resp.Body.Close()

	size, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil {
		return 0
	}
	return size
}
