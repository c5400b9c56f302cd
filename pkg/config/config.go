package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the share-link fetcher
type Config struct {
	// Cookie holds the browser identity used against the primary platform
	Cookie CookieConfig `yaml:"cookie" json:"cookie"`

	// Douyin holds the primary content API settings
	Douyin DouyinConfig `yaml:"douyin" json:"douyin"`

	// XHS holds the secondary platform resolver endpoints
	XHS XHSConfig `yaml:"xhs" json:"xhs"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Retention controls age-based cleanup of downloaded files
	Retention RetentionConfig `yaml:"retention" json:"retention"`

	// RateLimit paces calls against the content APIs
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CookieConfig holds the raw browser cookie and how to obtain it
type CookieConfig struct {
	// Raw is the full cookie string copied from a browser session
	Raw string `yaml:"raw" json:"raw"`
	// Profile names a stored credential profile used when Raw is empty
	Profile string `yaml:"profile" json:"profile"`
}

// DouyinConfig holds primary content API configuration
type DouyinConfig struct {
	APIBase   string `yaml:"api_base" json:"api_base"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// XHSConfig holds the secondary platform endpoints; the secondary URL is
// used when the primary signals maintenance or fails outright
type XHSConfig struct {
	PrimaryAPI   string `yaml:"primary_api" json:"primary_api"`
	SecondaryAPI string `yaml:"secondary_api" json:"secondary_api"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Directory       string        `yaml:"directory" json:"directory"`
	ImageAttempts   int           `yaml:"image_attempts" json:"image_attempts"`
	VideoAttempts   int           `yaml:"video_attempts" json:"video_attempts"`
	ImageTimeout    time.Duration `yaml:"image_timeout" json:"image_timeout"`
	VideoTimeout    time.Duration `yaml:"video_timeout" json:"video_timeout"`
	MinImageBytes   int64         `yaml:"min_image_bytes" json:"min_image_bytes"`
	ImageRetryDelay time.Duration `yaml:"image_retry_delay" json:"image_retry_delay"`
	VideoRetryDelay time.Duration `yaml:"video_retry_delay" json:"video_retry_delay"`
}

// RetentionConfig holds cleanup configuration
type RetentionConfig struct {
	MaxAgeMinutes int `yaml:"max_age_minutes" json:"max_age_minutes"`
}

// RateLimitConfig holds API pacing configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Douyin: DouyinConfig{
			APIBase:   "https://www.douyin.com/aweme/v1/web/aweme/detail/",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.212 Safari/537.36",
		},
		XHS: XHSConfig{
			PrimaryAPI:   "https://api.kxzjoker.cn/api/jiexi_video",
			SecondaryAPI: "https://api.kxzjoker.cn/api/jiexi_video_2",
		},
		Download: DownloadConfig{
			Directory:       "./downloads",
			ImageAttempts:   5,
			VideoAttempts:   3,
			ImageTimeout:    30 * time.Second,
			VideoTimeout:    60 * time.Second,
			MinImageBytes:   1000,
			ImageRetryDelay: 2 * time.Second,
			VideoRetryDelay: 1 * time.Second,
		},
		Retention: RetentionConfig{
			MaxAgeMinutes: 60,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if raw := os.Getenv("SHAREFETCH_COOKIE"); raw != "" {
		c.Cookie.Raw = raw
	}
	if profile := os.Getenv("SHAREFETCH_COOKIE_PROFILE"); profile != "" {
		c.Cookie.Profile = profile
	}
	if apiBase := os.Getenv("SHAREFETCH_DOUYIN_API"); apiBase != "" {
		c.Douyin.APIBase = apiBase
	}
	if api := os.Getenv("SHAREFETCH_XHS_API"); api != "" {
		c.XHS.PrimaryAPI = api
	}
	if api := os.Getenv("SHAREFETCH_XHS_API_FALLBACK"); api != "" {
		c.XHS.SecondaryAPI = api
	}
	if dir := os.Getenv("SHAREFETCH_DOWNLOAD_DIR"); dir != "" {
		c.Download.Directory = dir
	}
	if maxAge := os.Getenv("SHAREFETCH_RETENTION_MINUTES"); maxAge != "" {
		var val int
		fmt.Sscanf(maxAge, "%d", &val)
		if val > 0 {
			c.Retention.MaxAgeMinutes = val
		}
	}
	if rpm := os.Getenv("SHAREFETCH_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if logLevel := os.Getenv("SHAREFETCH_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".sharefetch.yaml",
		".sharefetch.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "sharefetch", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "sharefetch", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".sharefetch.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Douyin.APIBase == "" {
		errs = append(errs, errors.New("douyin API base URL is required"))
	}
	if c.XHS.PrimaryAPI == "" {
		errs = append(errs, errors.New("xhs primary API URL is required"))
	}
	if c.Download.Directory == "" {
		errs = append(errs, errors.New("download directory is required"))
	}
	if c.Download.ImageAttempts <= 0 {
		errs = append(errs, errors.New("image attempts must be positive"))
	}
	if c.Download.VideoAttempts <= 0 {
		errs = append(errs, errors.New("video attempts must be positive"))
	}
	if c.Download.ImageTimeout <= 0 || c.Download.VideoTimeout <= 0 {
		errs = append(errs, errors.New("download timeouts must be positive"))
	}
	if c.Download.MinImageBytes < 0 {
		errs = append(errs, errors.New("minimum image size cannot be negative"))
	}
	if c.Retention.MaxAgeMinutes <= 0 {
		errs = append(errs, errors.New("retention max age must be positive"))
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if raw, ok := flags["cookie"].(string); ok && raw != "" {
		c.Cookie.Raw = raw
	}
	if dir, ok := flags["output"].(string); ok && dir != "" {
		c.Download.Directory = dir
	}
	if minutes, ok := flags["retention"].(int); ok && minutes > 0 {
		c.Retention.MaxAgeMinutes = minutes
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".sharefetch.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
