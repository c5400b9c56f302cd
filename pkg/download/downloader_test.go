package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sharefetch/pkg/config"
	"sharefetch/pkg/logger"
	"sharefetch/pkg/resolver"
)

func testConfig() config.DownloadConfig {
	return config.DownloadConfig{
		Directory:       "",
		ImageAttempts:   5,
		VideoAttempts:   3,
		ImageTimeout:    5 * time.Second,
		VideoTimeout:    5 * time.Second,
		MinImageBytes:   1000,
		ImageRetryDelay: time.Millisecond,
		VideoRetryDelay: time.Millisecond,
	}
}

func newTestDownloader(t *testing.T) *Downloader {
	t.Helper()
	return New(testConfig(), nil, logger.NewTestLogger())
}

// largeBody is comfortably above the image size floor
func largeBody() []byte {
	return []byte(strings.Repeat("x", 2048))
}

func TestImageDownloadSuccess(t *testing.T) {
	body := largeBody()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "nested", "img.jpg")
	outcome := newTestDownloader(t).Image(context.Background(), server.URL, dest, "")

	if !outcome.Success {
		t.Fatalf("Expected success, got error: %v", outcome.Err)
	}
	if outcome.Attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", outcome.Attempts)
	}
	if outcome.Strategy != "desktop" {
		t.Errorf("Expected first strategy to be desktop, got %s", outcome.Strategy)
	}
	if outcome.BytesWritten != int64(len(body)) {
		t.Errorf("Expected %d bytes written, got %d", len(body), outcome.BytesWritten)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Failed to read downloaded file: %v", err)
	}
	if string(got) != string(body) {
		t.Error("File content does not match served body")
	}
}

func TestImageIdempotence(t *testing.T) {
	hits := 0
	body := largeBody()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(body)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "img.jpg")
	d := newTestDownloader(t)

	first := d.Image(context.Background(), server.URL, dest, "")
	second := d.Image(context.Background(), server.URL, dest, "")

	if hits != 1 {
		t.Errorf("Expected exactly one network fetch, got %d", hits)
	}
	if !first.Success || !second.Success {
		t.Error("Both calls should report success")
	}
	if second.Attempts != 0 {
		t.Errorf("Second call should report zero attempts, got %d", second.Attempts)
	}
	if second.Path != dest {
		t.Errorf("Second call should report the existing path, got %q", second.Path)
	}
}

func TestImageStrategyRotation(t *testing.T) {
	var agents []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "img.jpg")
	outcome := newTestDownloader(t).Image(context.Background(), server.URL, dest, "")

	if outcome.Success {
		t.Fatal("Expected failure when every attempt returns 500")
	}
	if len(agents) != 5 {
		t.Fatalf("Expected 5 attempts, got %d", len(agents))
	}
	for i, agent := range agents {
		want := imageStrategies[i%len(imageStrategies)].Headers["User-Agent"]
		if agent != want {
			t.Errorf("Attempt %d used wrong identity:\ngot  %s\nwant %s", i, agent, want)
		}
	}
}

func TestImageCookieOnlyOnBrowserStrategies(t *testing.T) {
	var cookies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookies = append(cookies, r.Header.Get("Cookie"))
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "img.jpg")
	raw := "sessionid=s; uid_tt=u; ttwid=t; sid_guard=g"
	newTestDownloader(t).Image(context.Background(), server.URL, dest, raw)

	if len(cookies) != 5 {
		t.Fatalf("Expected 5 attempts, got %d", len(cookies))
	}
	for i, c := range cookies {
		allowed := imageStrategies[i].AllowCookie
		if allowed && c == "" {
			t.Errorf("Strategy %s should carry the cookie", imageStrategies[i].Name)
		}
		if !allowed && c != "" {
			t.Errorf("Strategy %s must not carry the cookie", imageStrategies[i].Name)
		}
	}
}

func TestImageSizeFloorRejection(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		// 200 with a tiny body: a blocked-response error page
		w.Write([]byte("denied"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "img.jpg")
	outcome := newTestDownloader(t).Image(context.Background(), server.URL, dest, "")

	if outcome.Success {
		t.Fatal("Expected failure for under-floor bodies")
	}
	if hits != 5 {
		t.Errorf("Under-floor body should advance to the next strategy, got %d attempts", hits)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("No file may be written for a rejected body")
	}
}

func TestImage404ShortCircuit(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "img.jpg")
	outcome := newTestDownloader(t).Image(context.Background(), server.URL, dest, "")

	if outcome.Success {
		t.Fatal("Expected failure for 404")
	}
	if hits != 1 {
		t.Errorf("404 must short-circuit remaining attempts, got %d requests", hits)
	}
	if outcome.Attempts != 1 {
		t.Errorf("Expected 1 attempt recorded, got %d", outcome.Attempts)
	}
}

func TestVideoDownloadStreams(t *testing.T) {
	body := strings.Repeat("v", 3*copyChunkSize+17)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "clips", "v.mp4")
	outcome := newTestDownloader(t).Video(context.Background(), server.URL, dest, "")

	if !outcome.Success {
		t.Fatalf("Expected success, got error: %v", outcome.Err)
	}
	if outcome.Strategy != "video-desktop" {
		t.Errorf("Expected desktop identity, got %s", outcome.Strategy)
	}
	if outcome.BytesWritten != int64(len(body)) {
		t.Errorf("Expected %d bytes, got %d", len(body), outcome.BytesWritten)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Failed to read downloaded file: %v", err)
	}
	if string(got) != body {
		t.Error("Streamed content does not match served body")
	}
}

func TestVideo403MobileEscalation(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if strings.Contains(r.Header.Get("User-Agent"), "iPhone") {
			w.Write(largeBody())
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "v.mp4")
	outcome := newTestDownloader(t).Video(context.Background(), server.URL, dest, "")

	if !outcome.Success {
		t.Fatalf("Expected mobile escalation to succeed, got error: %v", outcome.Err)
	}
	if outcome.Strategy != "video-mobile" {
		t.Errorf("Expected video-mobile identity, got %s", outcome.Strategy)
	}
	if outcome.Attempts != 1 {
		t.Errorf("Mobile retry happens inside the attempt; expected 1, got %d", outcome.Attempts)
	}
	if hits != 2 {
		t.Errorf("Expected exactly two requests (desktop then mobile), got %d", hits)
	}
}

func TestVideoEmptyBodyRemovedAndRetried(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "v.mp4")
	outcome := newTestDownloader(t).Video(context.Background(), server.URL, dest, "")

	if outcome.Success {
		t.Fatal("Expected failure for persistently empty bodies")
	}
	if hits != 3 {
		t.Errorf("Empty body should feed the retry loop, got %d attempts", hits)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("Zero-byte artifact must be deleted")
	}
}

func TestVideo404Terminal(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "v.mp4")
	outcome := newTestDownloader(t).Video(context.Background(), server.URL, dest, "")

	if outcome.Success {
		t.Fatal("Expected failure for 404")
	}
	if hits != 1 {
		t.Errorf("404 must not be retried, got %d requests", hits)
	}
}

func TestVideoIdempotence(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "v.mp4")
	if err := os.WriteFile(dest, []byte("existing"), 0644); err != nil {
		t.Fatal(err)
	}

	outcome := newTestDownloader(t).Video(context.Background(), "http://127.0.0.1:1/never", dest, "")

	if !outcome.Success {
		t.Fatal("Existing file should short-circuit to success")
	}
	if outcome.Attempts != 0 {
		t.Errorf("Expected zero attempts, got %d", outcome.Attempts)
	}
}

func TestFetchResolvesRedirectorFirst(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(largeBody())
	}))
	defer origin.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", origin.URL+"/final.mp4")
		w.WriteHeader(http.StatusFound)
	}))
	defer redirector.Close()

	res := resolver.New(5*time.Second, logger.NewTestLogger())
	d := New(testConfig(), res, logger.NewTestLogger())

	dest := filepath.Join(t.TempDir(), "v.mp4")
	outcome := d.Fetch(context.Background(), redirector.URL, dest, "")

	if !outcome.Success {
		t.Fatalf("Expected success via redirect target, got error: %v", outcome.Err)
	}
}

func TestIsImageURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://p3-pc-sign.douyinpic.com/tos-cn/abc~tplv.jpeg?x=1", true},
		{"https://p3-pc-sign.douyinpic.com/obj/some-image?biz_tag=aweme_images", true},
		{"https://v26.douyinvod.com/video/tos/play.mp4", false},
		{"https://example.com/photo.jpg", false},
	}

	for _, tt := range tests {
		if got := IsImageURL(tt.url); got != tt.want {
			t.Errorf("IsImageURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
