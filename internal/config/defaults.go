package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel             = "info"
	DefaultJSONLog              = false
	DefaultUserAgent            = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	DefaultHeadless             = true
	DefaultWorkers              = 1
	DefaultMaxWorkers           = 10
	DefaultOrdered              = true
	DefaultStartURL             = "https://www.wikiparfum.com/fr/fragrances/"
	DefaultCatalogPath          = "catalogue.json"
	DefaultDatasetPath          = "dataset.json"
	DefaultMaxLoadMore          = 250
	DefaultControlWait          = 8 * time.Second
	DefaultScrollPause          = 500 * time.Millisecond
	DefaultClickPause           = 1500 * time.Millisecond
	DefaultNavigationTimeout    = 30 * time.Second
	DefaultReadyTimeout         = 10 * time.Second
	DefaultDatasheetControlWait = 5 * time.Second
	DefaultDatasheetWait        = 5 * time.Second
	DefaultItemTimeout          = 2 * time.Minute
	DefaultRunTimeout           = time.Duration(0) // no limit
	DefaultRateLimitRPS         = 1.0
	DefaultRateLimitBurst       = 2
	DefaultRetryAttempts        = 2
	DefaultPoolAcquireTimeout   = 2 * time.Minute

	// EnvPrefix prefixes every environment variable, e.g. SCENTCRAWL_WORKERS
	EnvPrefix = "SCENTCRAWL"
)
