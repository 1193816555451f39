package module

import (
	"time"

	"propwatch/internal/platform/config"
)

// Options controls watch behavior. Values may also be read from env
type Options struct {
	Workers    int
	Interval   time.Duration
	JitterFrac float64
	MaxPages   int
	MaxRetries int
	RetryBase  time.Duration
	LeaseTTL   time.Duration
	SweepBatch int
	Notify     bool
}

// FromConfig reads options using CORE_WATCH_ prefix
func FromConfig(cfg config.Conf) Options {
	wf := cfg.Prefix("CORE_WATCH_")
	return Options{
		Workers:    wf.MayInt("WORKERS", 4),
		Interval:   wf.MayDuration("INTERVAL", time.Hour),
		JitterFrac: wf.MayFloat64("JITTER_FRAC", 0.1),
		MaxPages:   wf.MayInt("MAX_PAGES", 20),
		MaxRetries: wf.MayInt("MAX_RETRIES", 3),
		RetryBase:  wf.MayDuration("RETRY_BASE", 500*time.Millisecond),
		LeaseTTL:   wf.MayDuration("LEASE_TTL", 5*time.Minute),
		SweepBatch: wf.MayInt("SWEEP_BATCH", 8),
		Notify:     wf.MayBool("NOTIFY", true),
	}
}

// CatalogOptions configures the snapshot source built by the module
// when no source is injected
type CatalogOptions struct {
	BaseURL     string
	Index       string
	AppID       string
	APIKey      string
	SiteURL     string
	Currency    string
	UserAgent   string
	Timeout     time.Duration
	HitsPerPage int
	MaxRetries  int
	RetryBase   time.Duration
	PageDelay   time.Duration
	CacheDir    string
	CacheMaxAge time.Duration
	CacheMaxMB  int
}

// CatalogFromConfig reads catalog client options using CORE_CATALOG_ prefix
func CatalogFromConfig(cfg config.Conf) CatalogOptions {
	cf := cfg.Prefix("CORE_CATALOG_")
	return CatalogOptions{
		BaseURL:     cf.MayString("BASE_URL", ""),
		Index:       cf.MayString("INDEX", ""),
		AppID:       cf.MayString("APP_ID", ""),
		APIKey:      cf.MayString("API_KEY", ""),
		SiteURL:     cf.MayString("SITE_URL", ""),
		Currency:    cf.MayString("CURRENCY", "SAR"),
		UserAgent:   cf.MayString("USER_AGENT", ""),
		Timeout:     cf.MayDuration("TIMEOUT", 15*time.Second),
		HitsPerPage: cf.MayInt("HITS_PER_PAGE", 25),
		MaxRetries:  cf.MayInt("MAX_RETRIES", 3),
		RetryBase:   cf.MayDuration("RETRY_BASE", 500*time.Millisecond),
		PageDelay:   cf.MayDuration("PAGE_DELAY", 250*time.Millisecond),
		CacheDir:    cf.MayString("CACHE_DIR", ""),
		CacheMaxAge: cf.MayDuration("CACHE_MAX_AGE", 14*24*time.Hour),
		CacheMaxMB:  cf.MayInt("CACHE_MAX_MB", 512),
	}
}
