package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/moltbridge/moltbridge-go/pkg/auth"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// Client is an anonymous MoltBridge client. It can reach the endpoints that
// require no agent identity: Health and Pricing. Use NewAgent for the full
// authenticated surface.
//
// A Client owns one underlying connection pool, acquired at construction and
// released by Close. Concurrent calls on one Client interleave freely.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    []time.Duration
	logger     *zap.Logger
	limiter    *rate.Limiter
	metrics    *clientMetrics
	discovery  *expirable.LRU[string, json.RawMessage]
}

// New creates an anonymous Client from cfg. See Config for defaults.
func New(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	c := &Client{
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		logger:     cfg.Logger,
	}
	if cfg.Metrics != nil {
		m, err := newClientMetrics(cfg.Metrics)
		if err != nil {
			return nil, err
		}
		c.metrics = m
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.DiscoveryCacheTTL > 0 {
		c.discovery = expirable.NewLRU[string, json.RawMessage](cfg.DiscoveryCacheSize, nil, cfg.DiscoveryCacheTTL)
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(cfg Config) *Client {
	c, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Close releases the connection pool. The scoped form is defer c.Close().
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Health checks API server health. No authentication, single attempt.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	raw, err := c.request(ctx, http.MethodGet, "/health", nil, "", 1)
	if err != nil {
		return nil, err
	}
	return decodeMap(raw)
}

// Pricing returns the current pricing document. No authentication, single
// attempt.
func (c *Client) Pricing(ctx context.Context) (map[string]any, error) {
	raw, err := c.request(ctx, http.MethodGet, "/payments/pricing", nil, "", 1)
	if err != nil {
		return nil, err
	}
	return decodeMap(raw)
}

// AgentClient is a Client bound to an agent identity. Every operation that
// signs requests or consumes the verification token lives here, so an
// unauthenticated client cannot reach them by construction.
type AgentClient struct {
	*Client
	signer *auth.Signer

	// Verification state, guarded by mu. The token is write-once per
	// session: set by Verify, read by Register.
	mu                sync.Mutex
	state             VerificationState
	verificationToken string
}

// NewAgent creates an authenticated client from cfg and a Signer.
func NewAgent(cfg Config, signer *auth.Signer) (*AgentClient, error) {
	if signer == nil {
		return nil, ErrNoSigner
	}
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &AgentClient{Client: c, signer: signer}, nil
}

// NewAgentFromEnv creates an authenticated client using MOLTBRIDGE_AGENT_ID
// and MOLTBRIDGE_SIGNING_KEY. Without a signing key a fresh keypair is
// generated for the session; persist Signer().SeedHex() to remain reachable
// as the same agent across sessions.
func NewAgentFromEnv(cfg Config) (*AgentClient, error) {
	agentID := os.Getenv(EnvAgentID)
	if agentID == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrNoSigner, EnvAgentID)
	}

	var (
		signer *auth.Signer
		err    error
	)
	if seedHex := os.Getenv(EnvSigningKey); seedHex != "" {
		signer, err = auth.FromSeed(seedHex, agentID)
	} else {
		signer, err = auth.Generate(agentID)
	}
	if err != nil {
		return nil, err
	}
	return NewAgent(cfg, signer)
}

// AgentID returns the configured agent identity.
func (ac *AgentClient) AgentID() string { return ac.signer.AgentID() }

// Signer returns the request signer, e.g. to persist its seed.
func (ac *AgentClient) Signer() *auth.Signer { return ac.signer }

// ── Transport core ───────────────────────────────────────────────────────

// signed canonicalizes body, signs it, and issues the request. The signed
// bytes and the transmitted bytes are the same bytes.
func (ac *AgentClient) signed(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	payload, err := marshalBody(body)
	if err != nil {
		return nil, err
	}
	return ac.signedPayload(ctx, method, path, payload)
}

// signedPayload signs an already-canonicalized payload and issues the
// request. NewAgent guarantees a signer; the guard covers zero-value
// AgentClient misuse.
func (ac *AgentClient) signedPayload(ctx context.Context, method, path string, payload []byte) (json.RawMessage, error) {
	if ac.signer == nil {
		return nil, ErrNoSigner
	}
	authorization := ac.signer.SignCanonical(method, path, payload)
	return ac.request(ctx, method, path, payload, authorization, ac.maxRetries)
}

// public issues an unauthenticated request with the full retry budget.
// Used by the verification steps and registration, where identity rides in
// the body rather than in a signature.
func (c *Client) public(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	payload, err := marshalBody(body)
	if err != nil {
		return nil, err
	}
	return c.request(ctx, method, path, payload, "", c.maxRetries)
}

// request runs the retry loop. Only connection-level and read failures are
// retried; a received HTTP response is classified exactly once, whatever
// its status. The backoff sleep is interruptible by ctx.
func (c *Client) request(ctx context.Context, method, path string, payload []byte, authorization string, attempts int) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff[min(attempt-1, len(c.backoff)-1)]
			c.logger.Debug("retrying request",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%s %s: %w", method, path, ctx.Err())
			case <-time.After(delay):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%s %s: %w", method, path, err)
			}
		}

		var bodyReader io.Reader
		if len(payload) > 0 {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}

		status, header, respBody, err := c.send(req, method, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%s %s: %w", method, path, err)
			}
			lastErr = err
			continue
		}

		if status >= 400 {
			return nil, apiErrorFromResponse(status, header, respBody)
		}
		return respBody, nil
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrConnectionFailed, attempts, lastErr)
}

// send executes one attempt and records its metrics.
func (c *Client) send(req *http.Request, method, path string) (int, http.Header, []byte, error) {
	metricPath := path
	if i := strings.IndexByte(metricPath, '?'); i >= 0 {
		metricPath = metricPath[:i]
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(method, metricPath, "error", time.Since(start))
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.observe(method, metricPath, "error", time.Since(start))
		return 0, nil, nil, fmt.Errorf("read response: %w", err)
	}

	elapsed := time.Since(start)
	c.metrics.observe(method, metricPath, strconv.Itoa(resp.StatusCode), elapsed)
	c.logger.Debug("request complete",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
	)
	return resp.StatusCode, resp.Header, body, nil
}

// marshalBody canonicalizes a request body; nil stays nil.
func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	b, err := auth.CanonicalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return b, nil
}

// decodeMap unmarshals a raw response into a generic document.
func decodeMap(raw json.RawMessage) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return m, nil
}

// bodyOrNil collapses an empty optional-field body to no body at all, so
// the digest is computed over the empty string and nothing is transmitted.
func bodyOrNil(m map[string]any) any {
	if len(m) == 0 {
		return nil
	}
	return m
}
