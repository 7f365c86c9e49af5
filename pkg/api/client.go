// Package api implements the request dispatcher for the monitoring
// backend's HTTP API: it composes request identities, serves repeated
// queries from a TTL cache, and normalizes the backend's heterogeneous
// response shapes into a single raw payload.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/tejusbharadwaj/sensorbridge/pkg/cache"
)

// XMLTransformer converts a legacy non-JSON response body into the
// structured payload the given method would otherwise return as JSON. It
// is only consulted for non-JSON bodies longer than xmlFallbackThreshold.
type XMLTransformer func(method string, body []byte) (json.RawMessage, error)

const xmlFallbackThreshold = 200

// shapeOrder is the fixed priority list of top-level response fields. The
// first field present in a response wins; the remaining ones are ignored.
var shapeOrder = []string{
	"groups",
	"devices",
	"sensors",
	"channels",
	"values",
	"sensordata",
	"messages",
	"Version",
}

// ClientConfig holds the construction-time options for a Client.
type ClientConfig struct {
	BaseURL  string
	Username string
	Passhash string

	// CacheTTL is how long a cached response stays fresh. CacheSize
	// bounds the number of retained responses.
	CacheTTL  time.Duration
	CacheSize int

	// RateLimit and RateLimitBurst throttle outbound requests.
	RateLimit      float64
	RateLimitBurst int

	// XMLTransform handles legacy endpoints that still answer in XML.
	// Optional; without it such responses fail.
	XMLTransform XMLTransformer
}

// DefaultClientConfig returns a ClientConfig with sensible defaults for
// everything but the connection settings.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		CacheTTL:       5 * time.Minute,
		CacheSize:      1000,
		RateLimit:      10.0,
		RateLimitBurst: 20,
	}
}

// Client dispatches API requests. Concurrent Request calls are safe;
// identical in-flight requests are not coalesced, so two chains racing on
// the same identity may both reach the network.
type Client struct {
	baseURL   string
	username  string
	passhash  string
	cache     *cache.Store
	transport Transport
	limiter   *rate.Limiter
	xform     XMLTransformer
	logger    *logrus.Logger
}

// NewClient creates a Client talking to cfg.BaseURL through transport.
func NewClient(cfg ClientConfig, transport Transport, logger *logrus.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}

	store, err := cache.New(cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		username:  cfg.Username,
		passhash:  cfg.Passhash,
		cache:     store,
		transport: transport,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		xform:     cfg.XMLTransform,
		logger:    logger,
	}, nil
}

// Request issues a GET against the given API method with the given query
// parameters. Credentials are folded into the request identity, which
// doubles as the cache key: an identical request within the TTL window is
// answered from cache without touching the network. Failed requests are
// never cached.
func (c *Client) Request(ctx context.Context, method, params string) (json.RawMessage, error) {
	identity := c.requestURL(method, params)

	log := c.logger.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"method":     method,
		"cache_key":  cache.Fingerprint(identity),
	})

	if v, ok := c.cache.Lookup(identity); ok {
		Requests.WithLabelValues(method, "hit").Inc()
		log.Debug("cache hit")
		return v.(json.RawMessage), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.transport.SendGet(ctx, identity)
	Latency.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if err != nil {
		Requests.WithLabelValues(method, "error").Inc()
		return nil, &TransportError{Err: err}
	}
	if resp.Status < 200 || resp.Status > 299 {
		Requests.WithLabelValues(method, "error").Inc()
		return nil, &TransportError{Status: resp.Status, StatusText: resp.StatusText}
	}
	if len(resp.Body) == 0 {
		Requests.WithLabelValues(method, "error").Inc()
		return nil, ErrNoData
	}

	normalized, err := c.normalize(log, method, params, resp.Body)
	if err != nil {
		Requests.WithLabelValues(method, "error").Inc()
		return nil, err
	}

	Requests.WithLabelValues(method, "miss").Inc()
	log.WithField("duration", time.Since(start)).Debug("request completed")

	c.cache.Put(identity, normalized)

	return normalized, nil
}

// normalize reduces a response body to the payload of the first known
// top-level field. Non-JSON bodies are either the backend's "not enough
// data" sentinel, legacy XML to be transformed, or an unexpectedly
// truncated answer that is logged and treated as empty.
func (c *Client) normalize(log *logrus.Entry, method, params string, body []byte) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	jsonErr := json.Unmarshal(body, &fields)
	if jsonErr == nil {
		for _, name := range shapeOrder {
			if v, ok := fields[name]; ok {
				return v, nil
			}
		}
	}

	if strings.TrimSpace(string(body)) == "Not enough monitoring data" {
		return nil, &DataInsufficientError{Params: params}
	}

	if jsonErr != nil && len(body) > xmlFallbackThreshold {
		if c.xform == nil {
			return nil, errors.New("non-JSON response and no XML transformer configured")
		}
		return c.xform(method, body)
	}

	log.WithField("bytes", len(body)).Warn("unrecognized short response body, treating as empty")

	return nil, nil
}

// Login exchanges username and password for a fresh passhash and installs
// it, together with the username, for all subsequent requests.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	loginURL := c.baseURL + "/getpasshash.htm?username=" +
		url.QueryEscape(username) + "&password=" + url.QueryEscape(password)

	resp, err := c.transport.SendGet(ctx, loginURL)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	if resp.Status < 200 || resp.Status > 299 {
		return "", &TransportError{Status: resp.Status, StatusText: resp.StatusText}
	}
	if len(resp.Body) == 0 {
		return "", ErrNoData
	}

	passhash := strings.TrimSpace(string(resp.Body))
	c.username = username
	c.passhash = passhash

	c.logger.WithField("username", username).Info("login succeeded, passhash replaced")

	return passhash, nil
}

// APIVersion queries the backend's version string, the cheapest way to
// verify connectivity and credentials.
func (c *Client) APIVersion(ctx context.Context) (string, error) {
	raw, err := c.Request(ctx, "status.json", "")
	if err != nil {
		return "", err
	}

	var version string
	if err := json.Unmarshal(raw, &version); err != nil {
		return "", err
	}

	return version, nil
}

// requestURL composes the full request identity. The query string always
// begins with the credentials so the cache key is credential-scoped.
func (c *Client) requestURL(method, params string) string {
	return c.baseURL + "/" + method +
		"?username=" + url.QueryEscape(c.username) +
		"&passhash=" + url.QueryEscape(c.passhash) +
		"&" + params
}
