// Package download fetches binary media from hostile origin servers.
// Every fetch is a cache-fill: an existing destination file short-
// circuits the network entirely, and a path is only ever exposed as
// successful after the written file has been verified.
package download

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sharefetch/pkg/config"
	"sharefetch/pkg/cookie"
	errs "sharefetch/pkg/errors"
	"sharefetch/pkg/logger"
	"sharefetch/pkg/resolver"
	"sharefetch/pkg/retry"
)

const copyChunkSize = 8192

// Outcome reports a completed download attempt sequence. A failed
// Outcome is a result, not a fault: the caller logs it and moves on.
type Outcome struct {
	Success      bool
	Path         string
	BytesWritten int64
	Strategy     string
	Attempts     int
	Err          error
}

// Downloader fetches media URLs to disk using rotating client
// identities and bounded retries.
type Downloader struct {
	imageClient *http.Client
	videoClient *http.Client
	resolver    *resolver.Resolver
	cfg         config.DownloadConfig
	imageDelay  retry.BackoffStrategy
	videoDelay  retry.BackoffStrategy
	logger      logger.Logger
}

// New creates a Downloader. The resolver is consulted by Fetch for
// URLs that may still be redirectors.
func New(cfg config.DownloadConfig, res *resolver.Resolver, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{
		imageClient: newClient(cfg.ImageTimeout),
		videoClient: newClient(cfg.VideoTimeout),
		resolver:    res,
		cfg:         cfg,
		imageDelay:  &retry.ConstantBackoff{Delay: cfg.ImageRetryDelay},
		videoDelay:  &retry.ConstantBackoff{Delay: cfg.VideoRetryDelay},
		logger:      log,
	}
}

// newClient builds an http.Client with both a total and a connect
// timeout; the connect budget is half the total.
func newClient(total time.Duration) *http.Client {
	return &http.Client{
		Timeout: total,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: total / 2,
			}).DialContext,
		},
	}
}

// Fetch downloads a media URL, dispatching on its shape: image-CDN
// URLs use the rotating-identity image path, everything else is
// resolved through the redirector first and streamed as video.
func (d *Downloader) Fetch(ctx context.Context, url, dest, rawCookie string) Outcome {
	if IsImageURL(url) {
		return d.Image(ctx, url, dest, rawCookie)
	}

	target := url
	if d.resolver != nil {
		if link := d.resolver.Resolve(ctx, url, rawCookie); link.Err == nil {
			target = link.Target()
		}
	}
	return d.Video(ctx, target, dest, rawCookie)
}

// IsImageURL reports whether a URL points at the platform's image CDN
func IsImageURL(url string) bool {
	if !strings.Contains(url, "douyinpic.com") {
		return false
	}
	lower := strings.ToLower(url)
	for _, marker := range []string{".jpg", ".jpeg", ".png", ".webp", "image"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Image downloads an image URL with strategy rotation. The body is
// held in memory so the size floor can reject placeholder pages before
// anything touches the disk.
func (d *Downloader) Image(ctx context.Context, url, dest, rawCookie string) Outcome {
	if fileExists(dest) {
		d.logger.DebugWithFields("file exists, skipping download", map[string]interface{}{
			"path": dest,
		})
		return Outcome{Success: true, Path: dest, Attempts: 0}
	}

	cookieHeader := cookie.HeaderValue(rawCookie)
	var lastErr error

	for attempt := 0; attempt < d.cfg.ImageAttempts; attempt++ {
		if attempt > 0 {
			if err := retry.Wait(ctx, d.imageDelay.NextDelay(attempt)); err != nil {
				return Outcome{Attempts: attempt, Err: err}
			}
		}

		strat := imageStrategies[attempt%len(imageStrategies)]
		d.logger.DebugWithFields("image download attempt", map[string]interface{}{
			"url":      url,
			"attempt":  attempt + 1,
			"strategy": strat.Name,
		})

		body, status, err := d.fetchImageOnce(ctx, url, strat, cookieHeader)
		if err != nil {
			lastErr = err
			d.logger.WarnWithFields("image attempt failed", map[string]interface{}{
				"url":      url,
				"attempt":  attempt + 1,
				"strategy": strat.Name,
				"error":    err.Error(),
			})
			continue
		}

		if status == http.StatusNotFound {
			// The resource does not exist; remaining strategies would
			// only waste identities
			d.logger.WarnWithFields("image not found, skipping retries", map[string]interface{}{
				"url": url,
			})
			return Outcome{
				Attempts: attempt + 1,
				Err:      errs.New(errs.ErrorTypeNotFound, status, "image not found"),
			}
		}

		if status != http.StatusOK {
			lastErr = errs.New(statusErrorType(status), status, "image download failed with status %d", status)
			continue
		}

		if int64(len(body)) <= d.cfg.MinImageBytes {
			// Blocked requests come back as tiny HTML error pages with
			// a 200 status; a real photo is never this small
			lastErr = errs.New(errs.ErrorTypeBlocked, status,
				"content too small (%d bytes), likely an error page", len(body))
			d.logger.WarnWithFields("image body under size floor", map[string]interface{}{
				"url":   url,
				"bytes": len(body),
			})
			continue
		}

		if err := writeFileAtomic(dest, body); err != nil {
			lastErr = err
			continue
		}

		d.logger.InfoWithFields("image download successful", map[string]interface{}{
			"url":      url,
			"path":     dest,
			"bytes":    len(body),
			"strategy": strat.Name,
		})
		return Outcome{
			Success:      true,
			Path:         dest,
			BytesWritten: int64(len(body)),
			Strategy:     strat.Name,
			Attempts:     attempt + 1,
		}
	}

	d.logger.ErrorWithFields("image download exhausted all attempts", map[string]interface{}{
		"url":      url,
		"attempts": d.cfg.ImageAttempts,
	})
	return Outcome{Attempts: d.cfg.ImageAttempts, Err: lastErr}
}

// fetchImageOnce performs a single image request under one strategy
func (d *Downloader) fetchImageOnce(ctx context.Context, url string, strat Strategy, cookieHeader string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, errs.New(errs.ErrorTypeBadInput, 0, "failed to create request: %v", err)
	}
	for key, value := range strat.Headers {
		req.Header.Set(key, value)
	}
	if strat.AllowCookie && cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	resp, err := d.imageClient.Do(req)
	if err != nil {
		return nil, 0, errs.New(errs.ErrorTypeNetwork, 0, "network error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errs.New(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read body: %v", err)
	}
	return body, resp.StatusCode, nil
}

// Video downloads a video URL with a fixed desktop identity, escalating
// to a mobile identity inside the attempt when the server answers 403.
// The body streams to disk in fixed-size chunks; a zero-byte result is
// deleted and the attempt treated as failed.
func (d *Downloader) Video(ctx context.Context, url, dest, rawCookie string) Outcome {
	if fileExists(dest) {
		d.logger.DebugWithFields("file exists, skipping download", map[string]interface{}{
			"path": dest,
		})
		return Outcome{Success: true, Path: dest, Attempts: 0}
	}

	cookieHeader := cookie.HeaderValue(rawCookie)
	var lastErr error

	for attempt := 0; attempt < d.cfg.VideoAttempts; attempt++ {
		if attempt > 0 {
			if err := retry.Wait(ctx, d.videoDelay.NextDelay(attempt)); err != nil {
				return Outcome{Attempts: attempt, Err: err}
			}
		}

		strategy := "video-desktop"
		resp, err := d.videoRequest(ctx, url, videoHeaders, cookieHeader)
		if err != nil {
			lastErr = err
			d.logger.WarnWithFields("video attempt failed", map[string]interface{}{
				"url":     url,
				"attempt": attempt + 1,
				"error":   err.Error(),
			})
			continue
		}

		if resp.StatusCode == http.StatusForbidden {
			// One immediate mobile retry before the attempt counts as
			// failed; CDNs often relax for a different client class
			resp.Body.Close()
			d.logger.WarnWithFields("403 forbidden, escalating to mobile identity", map[string]interface{}{
				"url":     url,
				"attempt": attempt + 1,
			})
			strategy = "video-mobile"
			resp, err = d.videoRequest(ctx, url, mobileVideoHeaders, cookieHeader)
			if err != nil {
				lastErr = err
				continue
			}
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			d.logger.WarnWithFields("video not found, skipping retries", map[string]interface{}{
				"url": url,
			})
			return Outcome{
				Attempts: attempt + 1,
				Err:      errs.New(errs.ErrorTypeNotFound, resp.StatusCode, "video not found"),
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = errs.New(statusErrorType(resp.StatusCode), resp.StatusCode,
				"video download failed with status %d", resp.StatusCode)
			resp.Body.Close()
			continue
		}

		written, err := streamToFile(dest, resp.Body)
		resp.Body.Close()
		if err != nil {
			// Partial artifact must not survive the failed attempt
			os.Remove(dest)
			lastErr = err
			d.logger.WarnWithFields("video stream failed, partial file removed", map[string]interface{}{
				"url":   url,
				"path":  dest,
				"error": err.Error(),
			})
			continue
		}

		if written == 0 {
			os.Remove(dest)
			lastErr = errs.New(errs.ErrorTypeServerError, resp.StatusCode, "downloaded file is empty")
			d.logger.WarnWithFields("video file empty after download, retrying", map[string]interface{}{
				"url": url,
			})
			continue
		}

		d.logger.InfoWithFields("video download successful", map[string]interface{}{
			"url":      url,
			"path":     dest,
			"bytes":    written,
			"strategy": strategy,
		})
		return Outcome{
			Success:      true,
			Path:         dest,
			BytesWritten: written,
			Strategy:     strategy,
			Attempts:     attempt + 1,
		}
	}

	d.logger.ErrorWithFields("video download exhausted all attempts", map[string]interface{}{
		"url":      url,
		"attempts": d.cfg.VideoAttempts,
	})
	return Outcome{Attempts: d.cfg.VideoAttempts, Err: lastErr}
}

// videoRequest issues a single video GET with the given header set
func (d *Downloader) videoRequest(ctx context.Context, url string, headers map[string]string, cookieHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeBadInput, 0, "failed to create request: %v", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	resp, err := d.videoClient.Do(req)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeNetwork, 0, "network error: %v", err)
	}
	return resp, nil
}

// streamToFile copies the body to dest in fixed-size chunks, creating
// parent directories as needed
func streamToFile(dest string, body io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, errs.New(errs.ErrorTypeUnknown, 0, "failed to create directory: %v", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}

	buf := make([]byte, copyChunkSize)
	written, copyErr := io.CopyBuffer(out, body, buf)
	closeErr := out.Close()

	if copyErr != nil {
		return written, copyErr
	}
	return written, closeErr
}

// writeFileAtomic writes data through a temp file and renames it into
// place so a crashed write never leaves a half-written image behind
func writeFileAtomic(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errs.New(errs.ErrorTypeUnknown, 0, "failed to create directory: %v", err)
	}

	tempFile := dest + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	_, writeErr := out.Write(data)
	closeErr := out.Close()

	if writeErr != nil {
		os.Remove(tempFile)
		return writeErr
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return closeErr
	}

	if err := os.Rename(tempFile, dest); err != nil {
		os.Remove(tempFile)
		return err
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func statusErrorType(status int) errs.ErrorType {
	switch {
	case status == http.StatusForbidden:
		return errs.ErrorTypeBlocked
	case status == http.StatusUnauthorized:
		return errs.ErrorTypeAuth
	case status == http.StatusNotFound:
		return errs.ErrorTypeNotFound
	case status >= 500:
		return errs.ErrorTypeServerError
	default:
		return errs.ErrorTypeUnknown
	}
}
