package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Download.ImageAttempts != 5 {
		t.Errorf("ImageAttempts = %d, want 5", cfg.Download.ImageAttempts)
	}
	if cfg.Download.VideoAttempts != 3 {
		t.Errorf("VideoAttempts = %d, want 3", cfg.Download.VideoAttempts)
	}
	if cfg.Download.ImageTimeout != 30*time.Second {
		t.Errorf("ImageTimeout = %v, want 30s", cfg.Download.ImageTimeout)
	}
	if cfg.Download.VideoTimeout != 60*time.Second {
		t.Errorf("VideoTimeout = %v, want 60s", cfg.Download.VideoTimeout)
	}
	if cfg.Download.MinImageBytes != 1000 {
		t.Errorf("MinImageBytes = %d, want 1000", cfg.Download.MinImageBytes)
	}
	if cfg.Retention.MaxAgeMinutes != 60 {
		t.Errorf("MaxAgeMinutes = %d, want 60", cfg.Retention.MaxAgeMinutes)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SHAREFETCH_COOKIE", "sessionid=abc")
	t.Setenv("SHAREFETCH_DOUYIN_API", "http://localhost:9000/detail/")
	t.Setenv("SHAREFETCH_XHS_API", "http://localhost:9001/parse")
	t.Setenv("SHAREFETCH_XHS_API_FALLBACK", "http://localhost:9002/parse")
	t.Setenv("SHAREFETCH_DOWNLOAD_DIR", "/tmp/media")
	t.Setenv("SHAREFETCH_RETENTION_MINUTES", "15")
	t.Setenv("SHAREFETCH_REQUESTS_PER_MINUTE", "30")
	t.Setenv("SHAREFETCH_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatal(err)
	}

	if cfg.Cookie.Raw != "sessionid=abc" {
		t.Errorf("Cookie.Raw = %q", cfg.Cookie.Raw)
	}
	if cfg.Douyin.APIBase != "http://localhost:9000/detail/" {
		t.Errorf("Douyin.APIBase = %q", cfg.Douyin.APIBase)
	}
	if cfg.XHS.PrimaryAPI != "http://localhost:9001/parse" {
		t.Errorf("XHS.PrimaryAPI = %q", cfg.XHS.PrimaryAPI)
	}
	if cfg.XHS.SecondaryAPI != "http://localhost:9002/parse" {
		t.Errorf("XHS.SecondaryAPI = %q", cfg.XHS.SecondaryAPI)
	}
	if cfg.Download.Directory != "/tmp/media" {
		t.Errorf("Download.Directory = %q", cfg.Download.Directory)
	}
	if cfg.Retention.MaxAgeMinutes != 15 {
		t.Errorf("Retention.MaxAgeMinutes = %d", cfg.Retention.MaxAgeMinutes)
	}
	if cfg.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("RateLimit.RequestsPerMinute = %d", cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("SHAREFETCH_RETENTION_MINUTES", "-5")
	t.Setenv("SHAREFETCH_REQUESTS_PER_MINUTE", "notanumber")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatal(err)
	}

	if cfg.Retention.MaxAgeMinutes != 60 {
		t.Errorf("negative retention should be ignored, got %d", cfg.Retention.MaxAgeMinutes)
	}
	if cfg.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("unparseable rpm should be ignored, got %d", cfg.RateLimit.RequestsPerMinute)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
douyin:
  api_base: http://localhost:7000/detail/
download:
  directory: /data/media
  image_attempts: 7
retention:
  max_age_minutes: 120
logging:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatal(err)
	}

	if cfg.Douyin.APIBase != "http://localhost:7000/detail/" {
		t.Errorf("Douyin.APIBase = %q", cfg.Douyin.APIBase)
	}
	if cfg.Download.ImageAttempts != 7 {
		t.Errorf("ImageAttempts = %d, want 7", cfg.Download.ImageAttempts)
	}
	if cfg.Retention.MaxAgeMinutes != 120 {
		t.Errorf("MaxAgeMinutes = %d, want 120", cfg.Retention.MaxAgeMinutes)
	}
	// Untouched values keep defaults
	if cfg.Download.VideoAttempts != 3 {
		t.Errorf("VideoAttempts = %d, want default 3", cfg.Download.VideoAttempts)
	}
	if cfg.XHS.PrimaryAPI == "" {
		t.Error("XHS.PrimaryAPI default should survive partial file")
	}
}

func TestLoadFromFileMissingPathIsNotFatal(t *testing.T) {
	cfg := DefaultConfig()
	// Empty path with no config file in standard locations is fine
	if err := cfg.LoadFromFile(""); err != nil {
		t.Errorf("missing default config file should not be an error: %v", err)
	}

	// An explicit path that does not exist is an error
	if err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("explicit missing path should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"empty api base", func(c *Config) { c.Douyin.APIBase = "" }, true},
		{"empty xhs primary", func(c *Config) { c.XHS.PrimaryAPI = "" }, true},
		{"empty download dir", func(c *Config) { c.Download.Directory = "" }, true},
		{"zero image attempts", func(c *Config) { c.Download.ImageAttempts = 0 }, true},
		{"zero video attempts", func(c *Config) { c.Download.VideoAttempts = 0 }, true},
		{"zero timeout", func(c *Config) { c.Download.ImageTimeout = 0 }, true},
		{"negative image floor", func(c *Config) { c.Download.MinImageBytes = -1 }, true},
		{"zero retention", func(c *Config) { c.Retention.MaxAgeMinutes = 0 }, true},
		{"zero rpm", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"upper case log level", func(c *Config) { c.Logging.Level = "DEBUG" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Download.Directory = "/srv/media"
	cfg.Retention.MaxAgeMinutes = 90

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatal(err)
	}

	if loaded.Download.Directory != "/srv/media" {
		t.Errorf("Directory = %q", loaded.Download.Directory)
	}
	if loaded.Retention.MaxAgeMinutes != 90 {
		t.Errorf("MaxAgeMinutes = %d", loaded.Retention.MaxAgeMinutes)
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"cookie":    "sessionid=flag",
		"output":    "/flag/dir",
		"retention": 45,
		"log-level": "error",
	})

	if cfg.Cookie.Raw != "sessionid=flag" {
		t.Errorf("Cookie.Raw = %q", cfg.Cookie.Raw)
	}
	if cfg.Download.Directory != "/flag/dir" {
		t.Errorf("Directory = %q", cfg.Download.Directory)
	}
	if cfg.Retention.MaxAgeMinutes != 45 {
		t.Errorf("MaxAgeMinutes = %d", cfg.Retention.MaxAgeMinutes)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}

	// Empty or zero flags never clobber existing values
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"cookie":    "",
		"retention": 0,
	})
	if cfg.Cookie.Raw != "sessionid=flag" || cfg.Retention.MaxAgeMinutes != 45 {
		t.Error("empty flag values must not overwrite configuration")
	}
}
