// Package pipeline drives a share link end to end: route to a
// provider, resolve media metadata, then download every part in
// source order to deterministic paths.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"sharefetch/pkg/douyin"
	"sharefetch/pkg/download"
	errs "sharefetch/pkg/errors"
	"sharefetch/pkg/logger"
	"sharefetch/pkg/media"
	"sharefetch/pkg/ratelimit"
)

// PrimaryProvider resolves share text against the primary platform
type PrimaryProvider interface {
	FetchMedia(ctx context.Context, shareText string) (*media.Item, error)
}

// SecondaryProvider resolves a share URL against the secondary platform
type SecondaryProvider interface {
	Parse(ctx context.Context, shareURL string) (*media.Item, error)
}

// Fetcher downloads one media URL to a destination path
type Fetcher interface {
	Fetch(ctx context.Context, url, dest, rawCookie string) download.Outcome
}

// Result summarizes one processed share link. SavePaths preserves the
// source order of the media parts.
type Result struct {
	Type        media.Type
	Title       string
	Count       int
	IsMultiPart bool
	SavePaths   []string
}

// Pipeline wires the providers, the downloader, and the rate limiter
// into a single per-link driver
type Pipeline struct {
	primary    PrimaryProvider
	secondary  SecondaryProvider
	downloader Fetcher
	limiter    ratelimit.Limiter
	directory  string
	rawCookie  string
	logger     logger.Logger
}

func New(primary PrimaryProvider, secondary SecondaryProvider, downloader Fetcher,
	limiter ratelimit.Limiter, directory, rawCookie string, log logger.Logger) *Pipeline {
	return &Pipeline{
		primary:    primary,
		secondary:  secondary,
		downloader: downloader,
		limiter:    limiter,
		directory:  directory,
		rawCookie:  rawCookie,
		logger:     log,
	}
}

// Process resolves shareText and downloads every media part
// sequentially. Downloads happen one at a time in payload order so
// part numbering always matches the source gallery.
func (p *Pipeline) Process(ctx context.Context, shareText string) (*Result, error) {
	shareURL, err := douyin.ExtractURL(shareText)
	if err != nil {
		return nil, err
	}

	p.limiter.Wait()

	item, err := p.resolveItem(ctx, shareText, shareURL)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Type:        item.Type,
		Title:       item.Title,
		Count:       item.Count,
		IsMultiPart: item.IsMultiPart,
	}

	base := sanitizeTitle(item.Title)
	ext := extensionFor(item.Type)

	for i, link := range item.DownloadLinks {
		dest := filepath.Join(p.directory, partName(base, ext, i, item.IsMultiPart))

		outcome := p.downloader.Fetch(ctx, link, dest, p.rawCookie)
		logger.LogDownload(p.logger, link, dest, string(item.Type), outcome.Success, outcome.Err)
		if !outcome.Success {
			return result, fmt.Errorf("part %d of %d failed: %w", i+1, item.Count, outcome.Err)
		}
		result.SavePaths = append(result.SavePaths, outcome.Path)
	}

	p.logger.WithFields(map[string]interface{}{
		"title": item.Title,
		"type":  string(item.Type),
		"count": item.Count,
	}).Info("Share link processed")

	return result, nil
}

// resolveItem routes by host. Primary platform links get the full
// share text since their IDs may live in the surrounding prose.
func (p *Pipeline) resolveItem(ctx context.Context, shareText, shareURL string) (*media.Item, error) {
	parsed, err := url.Parse(shareURL)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeBadInput, 0, "unparseable share URL: %v", err)
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case strings.Contains(host, "douyin.com") || strings.Contains(host, "iesdouyin.com"):
		return p.primary.FetchMedia(ctx, shareText)
	case strings.Contains(host, "xhslink.com") || strings.Contains(host, "xiaohongshu.com"):
		return p.secondary.Parse(ctx, shareURL)
	default:
		return nil, errs.New(errs.ErrorTypeBadInput, 0, "unsupported share host: %s", host)
	}
}

func partName(base, ext string, index int, multiPart bool) string {
	if !multiPart {
		return base + ext
	}
	return fmt.Sprintf("%s-Part%d%s", base, index+1, ext)
}

func extensionFor(t media.Type) string {
	if t == media.TypeVideo {
		return ".mp4"
	}
	return ".jpg"
}

// sanitizeTitle makes a title safe to use as a file name
func sanitizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "media"
	}

	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_",
		"|", "_", "\n", " ", "\r", " ",
	)
	title = replacer.Replace(title)

	// Keep names short enough for every common filesystem
	const maxLen = 80
	if runes := []rune(title); len(runes) > maxLen {
		title = string(runes[:maxLen])
	}
	return strings.TrimSpace(title)
}
