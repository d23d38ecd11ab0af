package client

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Environment variables recognized by NewAgentFromEnv and, for the base URL,
// by every constructor.
const (
	EnvBaseURL    = "MOLTBRIDGE_BASE_URL"
	EnvAgentID    = "MOLTBRIDGE_AGENT_ID"
	EnvSigningKey = "MOLTBRIDGE_SIGNING_KEY"
)

// Defaults applied by Config when a field is left zero.
const (
	DefaultBaseURL    = "https://api.moltbridge.ai"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
)

// defaultRetryBackoff is the escalating delay schedule between connection
// retries. The last value repeats when attempts exceed the schedule length.
var defaultRetryBackoff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// Config configures a Client. The zero value is usable: every field has a
// documented default.
type Config struct {
	// BaseURL is the API root. Empty falls back to MOLTBRIDGE_BASE_URL,
	// then to DefaultBaseURL. A trailing slash is stripped.
	BaseURL string

	// Timeout bounds each HTTP attempt, covering connection and body read.
	// Zero means DefaultTimeout. Ignored when HTTPClient is set.
	Timeout time.Duration

	// MaxRetries is the total attempt budget for connection-level and
	// read-timeout failures. Received HTTP responses are never retried,
	// whatever their status. Zero means DefaultMaxRetries.
	MaxRetries int

	// RetryBackoff overrides the delay schedule between attempts
	// (default 1s, 2s, 4s; the last value repeats).
	RetryBackoff []time.Duration

	// HTTPClient substitutes the underlying connection pool. When set,
	// Timeout is not applied to it.
	HTTPClient *http.Client

	// Logger receives debug-level transport events and info-level
	// verification milestones. Nil means no logging.
	Logger *zap.Logger

	// DiscoveryCacheTTL enables in-memory caching of discovery results for
	// the given duration. Zero disables caching.
	DiscoveryCacheTTL time.Duration

	// DiscoveryCacheSize caps the number of cached discovery results.
	// Zero means 128. Only meaningful with DiscoveryCacheTTL set.
	DiscoveryCacheSize int

	// Metrics, when set, registers per-request counter and duration
	// collectors with the given registerer.
	Metrics prometheus.Registerer

	// RateLimit caps outbound request rate client-side with a token bucket.
	// Zero disables limiting. RateBurst defaults to 1 when unset.
	RateLimit rate.Limit
	RateBurst int
}

// withDefaults resolves the environment fallback and fills zero fields.
func (cfg Config) withDefaults() Config {
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv(EnvBaseURL)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if len(cfg.RetryBackoff) == 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.DiscoveryCacheSize == 0 {
		cfg.DiscoveryCacheSize = 128
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 1
	}
	return cfg
}
