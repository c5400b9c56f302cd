package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"sharefetch/pkg/auth"
	"sharefetch/pkg/config"
	"sharefetch/pkg/douyin"
	"sharefetch/pkg/download"
	"sharefetch/pkg/logger"
	"sharefetch/pkg/pipeline"
	"sharefetch/pkg/ratelimit"
	"sharefetch/pkg/resolver"
	"sharefetch/pkg/retention"
	"sharefetch/pkg/xhs"
)

var (
	configFile    = flag.String("config", "", "Path to configuration file")
	rawCookie     = flag.String("cookie", "", "Raw browser cookie string")
	cookieProfile = flag.String("cookie-profile", "", "Name of a stored cookie profile")
	saveProfile   = flag.String("save-cookie", "", "Store the given cookie under this profile name and exit")
	outputDir     = flag.String("output", "", "Output directory for downloads")
	retentionMins = flag.Int("retention", 0, "Delete downloads older than this many minutes")
	logLevel      = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	sweep         = flag.Bool("sweep", false, "Run the retention sweep and exit")
	cookieHelp    = flag.Bool("cookie-help", false, "Show the browser cookie extraction guide and exit")
)

func main() {
	flag.Parse()

	if *cookieHelp {
		auth.ShowCookieExtractionGuide()
		return
	}

	flags := make(map[string]interface{})
	if *rawCookie != "" {
		flags["cookie"] = *rawCookie
	}
	if *outputDir != "" {
		flags["output"] = *outputDir
	}
	if *retentionMins > 0 {
		flags["retention"] = *retentionMins
	}
	if *logLevel != "" {
		flags["log-level"] = *logLevel
	}

	cfg, err := config.Load(*configFile, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	if *saveProfile != "" {
		storeCookieProfile(*saveProfile, cfg.Cookie.Raw)
		return
	}

	if *sweep {
		sweeper := retention.NewSweeper(log)
		maxAge := time.Duration(cfg.Retention.MaxAgeMinutes) * time.Minute
		deleted := sweeper.Sweep(cfg.Download.Directory, maxAge)
		fmt.Printf("Deleted %d expired file(s) from %s\n", deleted, cfg.Download.Directory)
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: sharefetch [flags] <share link or share text>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	shareText := strings.TrimSpace(args[0])

	cookie := resolveCookie(cfg)

	res := resolver.New(cfg.Download.ImageTimeout, log)
	ids := douyin.NewLinkIDResolver(res, cookie)
	primary := douyin.NewClient(cfg.Douyin, cookie, ids, douyin.LocalSigner{}, log)
	secondary := xhs.NewClient(cfg.XHS, log)
	downloader := download.New(cfg.Download, res, log)

	refill := time.Minute / time.Duration(cfg.RateLimit.RequestsPerMinute)
	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.BurstSize, refill)

	p := pipeline.New(primary, secondary, downloader, limiter,
		cfg.Download.Directory, cookie, log)

	log.WithField("share_text", shareText).Info("Processing share link")

	result, err := p.Process(context.Background(), shareText)
	if err != nil {
		log.WithError(err).Error("Processing failed")
		fmt.Fprintf(os.Stderr, "Failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Saved %d %s file(s):\n", len(result.SavePaths), result.Type)
	for _, path := range result.SavePaths {
		fmt.Printf("  %s\n", path)
	}
}

// resolveCookie prefers the configured raw cookie, then a stored
// profile. An empty cookie is allowed; fetches degrade to anonymous
// quality.
func resolveCookie(cfg *config.Config) string {
	if cfg.Cookie.Raw != "" {
		return cfg.Cookie.Raw
	}

	manager, err := auth.NewManager()
	if err != nil {
		logger.WithError(err).Warn("Cookie profile stores unavailable")
		return ""
	}

	name := *cookieProfile
	if name == "" {
		name = cfg.Cookie.Profile
	}

	var profile *auth.Profile
	if name != "" {
		profile, err = manager.Retrieve(name)
	} else {
		profile, err = manager.RetrieveDefault()
	}
	if err != nil {
		logger.Info("No stored cookie profile, proceeding without authentication")
		auth.ShowQuickExtractGuide()
		return ""
	}

	logger.WithField("profile", profile.Name).Debug("Using stored cookie profile")
	return profile.Cookie
}

func storeCookieProfile(name, cookie string) {
	if cookie == "" {
		fmt.Fprintln(os.Stderr, "Provide the cookie via -cookie or SHAREFETCH_COOKIE to store it")
		os.Exit(1)
	}

	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cookie profile stores unavailable: %v\n", err)
		os.Exit(1)
	}

	if err := manager.Store(&auth.Profile{Name: name, Cookie: cookie}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to store cookie profile: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Stored cookie profile %q\n", name)
}
