// Package douyin resolves share links against the primary content API
// and normalizes its payload shapes (single video, segmented video,
// single image, image gallery) into one media.Item.
package douyin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"sharefetch/pkg/config"
	"sharefetch/pkg/cookie"
	errs "sharefetch/pkg/errors"
	"sharefetch/pkg/logger"
	"sharefetch/pkg/media"
)

// IDResolver derives a durable content identifier from an extracted
// share URL. Implementations may perform network calls.
type IDResolver interface {
	ResolveID(ctx context.Context, url string) (string, error)
}

// Signer produces the signed request token appended to every detail
// call. The signing algorithm itself lives behind this boundary.
type Signer interface {
	Sign(params url.Values, userAgent string) (string, error)
}

// SignerFunc adapts a plain function to the Signer interface
type SignerFunc func(params url.Values, userAgent string) (string, error)

func (f SignerFunc) Sign(params url.Values, userAgent string) (string, error) {
	return f(params, userAgent)
}

// urlPattern matches the first URL embedded in free-form share text
var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// ExtractURL pulls the first well-formed URL out of share text. Share
// strings wrap the link in marketing copy and emoji on both sides.
func ExtractURL(text string) (string, error) {
	match := urlPattern.FindString(text)
	if match == "" {
		return "", errs.New(errs.ErrorTypeBadInput, 0, "no valid URL found in share text")
	}
	return match, nil
}

// Client calls the primary content API with a full desktop fingerprint
// and a per-request signed token.
type Client struct {
	httpClient   *http.Client
	apiBase      string
	userAgent    string
	cookieHeader string
	ids          IDResolver
	signer       Signer
	logger       logger.Logger
}

// NewClient creates a detail-API client. rawCookie is the browser
// cookie string; it is normalized once here and reused per request.
func NewClient(cfg config.DouyinConfig, rawCookie string, ids IDResolver, signer Signer, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		apiBase:      cfg.APIBase,
		userAgent:    cfg.UserAgent,
		cookieHeader: cookie.HeaderValue(rawCookie),
		ids:          ids,
		signer:       signer,
		logger:       log,
	}
}

// FetchMedia resolves share text all the way to a normalized media
// item: extract the URL, derive the content id, call the detail API,
// classify the payload.
func (c *Client) FetchMedia(ctx context.Context, shareText string) (*media.Item, error) {
	extracted, err := ExtractURL(shareText)
	if err != nil {
		return nil, err
	}

	awemeID, err := c.ids.ResolveID(ctx, extracted)
	if err != nil {
		c.logger.WithError(err).WithField("url", extracted).Warn("failed to resolve content id")
		return nil, errs.New(errs.ErrorTypeBadInput, 0, "failed to resolve content id: %v", err)
	}

	c.logger.DebugWithFields("fetching media detail", map[string]interface{}{
		"aweme_id": awemeID,
	})

	detail, err := c.fetchDetail(ctx, awemeID)
	if err != nil {
		return nil, err
	}

	return c.classify(detail)
}

// fetchDetail calls the detail endpoint with the signed fingerprint
// query and decodes the response, attaching diagnostic context to any
// undecodable payload so callers can tell blocking from breakage.
func (c *Client) fetchDetail(ctx context.Context, awemeID string) (*detailResponse, error) {
	params := fingerprintParams(awemeID)

	token, err := c.signer.Sign(params, c.userAgent)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "failed to sign request: %v", err)
	}

	endpoint := c.apiBase + "?" + params.Encode() + "&a_bogus=" + url.QueryEscape(token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeBadInput, 0, "failed to create request: %v", err)
	}
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.8,zh-TW;q=0.7,zh-HK;q=0.5,en-US;q=0.3,en;q=0.2")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", "https://www.douyin.com/")
	if c.cookieHeader != "" {
		req.Header.Set("Cookie", c.cookieHeader)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeNetwork, 0, "network error: %v", err)
	}
	defer resp.Body.Close()
	logger.LogRequest(c.logger, http.MethodGet, c.apiBase, resp.StatusCode,
		float64(time.Since(start).Milliseconds()))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if len(body) == 0 {
		// Rate limiting, an invalid cookie, or a blocked request all
		// show up as a bare empty 200
		return nil, errs.New(errs.ErrorTypeParsing, resp.StatusCode,
			"empty response from detail API (aweme_id=%s)", awemeID)
	}

	var detail detailResponse
	if err := json.Unmarshal(body, &detail); err != nil {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		contentType := resp.Header.Get("Content-Type")
		c.logger.ErrorWithFields("failed to parse detail response", map[string]interface{}{
			"aweme_id":     awemeID,
			"status":       resp.StatusCode,
			"content_type": contentType,
			"body_preview": snippet,
		})
		return nil, errs.New(errs.ErrorTypeParsing, resp.StatusCode,
			"invalid JSON from detail API (content_type=%s, snippet=%s)", contentType, snippet)
	}

	return &detail, nil
}

// classify maps the decoded payload to exactly one media.Item shape
func (c *Client) classify(detail *detailResponse) (*media.Item, error) {
	data := detail.Data
	title := strings.TrimSpace(data.Desc)
	if title == "" {
		title = data.AwemeID
	}
	item := &media.Item{Title: title}

	switch data.MediaType {
	case mediaTypeImage:
		return c.classifyGallery(data, item)

	case mediaTypeSegmentVideo:
		item.Type = media.TypeVideo
		item.IsMultiPart = true
		for i, segment := range data.Images {
			link, ok := segmentPlayURL(segment)
			if !ok {
				c.logger.WarnWithFields("segment has no playable address", map[string]interface{}{
					"aweme_id": data.AwemeID,
					"segment":  i,
				})
				continue
			}
			item.DownloadLinks = append(item.DownloadLinks, link)
		}
		item.Count = len(item.DownloadLinks)
		if item.Count == 0 {
			return nil, errs.New(errs.ErrorTypeParsing, 0, "segmented video carries no playable segments")
		}
		return item, nil

	case mediaTypeVideo:
		if data.Video == nil || data.Video.PlayAddr == nil || len(data.Video.PlayAddr.URLList) == 0 {
			return nil, errs.New(errs.ErrorTypeParsing, 0, "video payload carries no play addresses")
		}
		item.Type = media.TypeVideo
		item.DownloadLinks = []string{pickPlayURL(data.Video.PlayAddr.URLList)}
		item.Count = 1
		return item, nil

	default:
		c.logger.WarnWithFields("unclassified payload shape", map[string]interface{}{
			"aweme_id":   data.AwemeID,
			"media_type": data.MediaType,
		})
		return nil, errs.New(errs.ErrorTypeParsing, 0, "unsupported media type %d", data.MediaType)
	}
}

// classifyGallery handles image posts. A gallery entry carrying a
// playable video sub-object is treated as a video segment; one such
// segment reclassifies the whole item as video content. This rule is a
// heuristic over observed payload shapes, so entries that match
// neither form are logged rather than silently mis-tagged.
func (c *Client) classifyGallery(data aweme, item *media.Item) (*media.Item, error) {
	hasVideoSegment := false
	for i, entry := range data.Images {
		switch {
		case entry.Video != nil && entry.Video.PlayAddr != nil && len(entry.Video.PlayAddr.URLList) > 0:
			hasVideoSegment = true
			item.DownloadLinks = append(item.DownloadLinks, entry.Video.PlayAddr.URLList[0])
		case len(entry.URLList) > 0:
			// The last entry of the quality list is the highest resolution
			item.DownloadLinks = append(item.DownloadLinks, entry.URLList[len(entry.URLList)-1])
		default:
			c.logger.WarnWithFields("unclassified gallery entry shape", map[string]interface{}{
				"aweme_id": data.AwemeID,
				"entry":    i,
			})
		}
	}

	item.Count = len(item.DownloadLinks)
	if item.Count == 0 {
		return nil, errs.New(errs.ErrorTypeParsing, 0, "gallery carries no usable entries")
	}

	if hasVideoSegment {
		item.Type = media.TypeVideo
		item.IsMultiPart = item.Count > 1
	} else {
		item.Type = media.TypeImage
		item.IsMultiPart = item.Count > 1
	}
	return item, nil
}

// segmentPlayURL picks the download URL for one segment of a
// multi-part video: the preferred quality tier of the h264 rendition,
// falling back to the segment's own address list when the preferred
// index is absent.
func segmentPlayURL(segment galleryEntry) (string, bool) {
	if segment.Video != nil && segment.Video.PlayAddrH264 != nil {
		if list := segment.Video.PlayAddrH264.URLList; len(list) > preferredPlayIndex {
			return list[preferredPlayIndex], true
		}
	}
	if len(segment.URLList) > preferredPlayIndex {
		return segment.URLList[preferredPlayIndex], true
	}
	if len(segment.URLList) > 0 {
		return segment.URLList[len(segment.URLList)-1], true
	}
	return "", false
}

// pickPlayURL returns the preferred quality tier, or the last entry
// when the list is shorter than the preferred index
func pickPlayURL(list []string) string {
	if len(list) > preferredPlayIndex {
		return list[preferredPlayIndex]
	}
	return list[len(list)-1]
}

// fingerprintParams builds the full desktop-browser parameter set the
// detail endpoint expects alongside the content id
func fingerprintParams(awemeID string) url.Values {
	return url.Values{
		"aweme_id":         {awemeID},
		"device_platform":  {"webapp"},
		"aid":              {"6383"},
		"channel":          {"channel_pc_web"},
		"pc_client_type":   {"1"},
		"version_code":     {"170400"},
		"version_name":     {"17.4.0"},
		"cookie_enabled":   {"true"},
		"screen_width":     {"1920"},
		"screen_height":    {"1080"},
		"browser_language": {"zh-CN"},
		"browser_platform": {"Win32"},
		"browser_name":     {"Edge"},
		"browser_version":  {"117.0.2045.47"},
		"browser_online":   {"true"},
		"engine_name":      {"Blink"},
		"engine_version":   {"117.0.0.0"},
		"os_name":          {"Windows"},
		"os_version":       {"10"},
		"cpu_core_num":     {"16"},
		"device_memory":    {"8"},
		"platform":         {"PC"},
		"downlink":         {"10"},
		"effective_type":   {"4g"},
		"round_trip_time":  {"50"},
		"webid":            {"7318500000000000000"},
		"msToken":          {""},
	}
}
