// Package config loads citescrape's runtime configuration from environment
// variables (prefix CITESCRAPE_) and an optional file, with typed defaults
// set programmatically — mirroring the teacher's own zero-value defaulting
// idiom (NewCrawler, NewManager) rather than relying on struct tags.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config bundles the crawl defaults, rate limits, storage DSNs, event bus
// tuning, metrics port, and browser profile root a citescrape deployment
// needs. No CLI/RPC surface is built on top of it (out of scope, §1);
// Viper is used purely as the internal loader behind config.Load.
type Config struct {
	// Crawl settings: depth, page limit, concurrency, pacing, and robots.txt
	// policy.
	CrawlMaxDepth        int
	CrawlLimit           int
	CrawlConcurrency     int
	CrawlRequestsPerSec  float64
	CrawlJitter          float64
	CrawlRespectRobots   bool

	// Storage.
	LinkIndexDSN string
	AuditDSN     string

	// Event bus.
	BusCapacity int
	BusMode     string // "drop_oldest" | "block" | "error"

	// Observability.
	MetricsPort int

	// Browser.
	BrowserProfileRoot string
	BrowserHeadless    bool
	BrowserLaunchTimeout time.Duration

	// Search.
	SearchIndexPath string
}

const envPrefix = "CITESCRAPE"

// Load reads configuration from environment variables (prefix CITESCRAPE_,
// e.g. CITESCRAPE_CRAWL_MAX_DEPTH) and, if path is non-empty, from a
// YAML/TOML/JSON file at path, file values taking precedence over defaults
// but environment variables taking precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	return &Config{
		CrawlMaxDepth:        v.GetInt("crawl_max_depth"),
		CrawlLimit:           v.GetInt("crawl_limit"),
		CrawlConcurrency:     v.GetInt("crawl_concurrency"),
		CrawlRequestsPerSec:  v.GetFloat64("crawl_requests_per_sec"),
		CrawlJitter:          v.GetFloat64("crawl_jitter"),
		CrawlRespectRobots:   v.GetBool("crawl_respect_robots"),
		LinkIndexDSN:         v.GetString("link_index_dsn"),
		AuditDSN:             v.GetString("audit_dsn"),
		BusCapacity:          v.GetInt("bus_capacity"),
		BusMode:              v.GetString("bus_mode"),
		MetricsPort:          v.GetInt("metrics_port"),
		BrowserProfileRoot:   v.GetString("browser_profile_root"),
		BrowserHeadless:      v.GetBool("browser_headless"),
		BrowserLaunchTimeout: v.GetDuration("browser_launch_timeout"),
		SearchIndexPath:      v.GetString("search_index_path"),
	}, nil
}

// setDefaults mirrors the teacher's "if cfg.X <= 0 { cfg.X = default }"
// defaulting, expressed as viper.SetDefault calls so every key has a sane
// value even with no file and no environment override.
func setDefaults(v *viper.Viper) {
	v.SetDefault("crawl_max_depth", 3)
	v.SetDefault("crawl_limit", 0)
	v.SetDefault("crawl_concurrency", 3)
	v.SetDefault("crawl_requests_per_sec", 1.0)
	v.SetDefault("crawl_jitter", 0.2)
	v.SetDefault("crawl_respect_robots", true)

	v.SetDefault("link_index_dsn", "./citescrape-out/linkindex.db")
	v.SetDefault("audit_dsn", "./citescrape-out/audit.db")

	v.SetDefault("bus_capacity", 1000)
	v.SetDefault("bus_mode", "drop_oldest")

	v.SetDefault("metrics_port", 9090)

	v.SetDefault("browser_profile_root", "")
	v.SetDefault("browser_headless", true)
	v.SetDefault("browser_launch_timeout", 30*time.Second)

	v.SetDefault("search_index_path", "./citescrape-out/search.bleve")
}
