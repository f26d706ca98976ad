// Package api is the HTTP client of the remote finance API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finview/internal/cache"
	"finview/internal/log"
	"finview/internal/session"
)

// DefaultMaxBodySize bounds how much of a response is read.
const DefaultMaxBodySize = 8 << 20

// Config configures the client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	CacheTTL  time.Duration
	CacheSize int
	Transport http.RoundTripper
	// MaxBodySize defaults to DefaultMaxBodySize.
	MaxBodySize int64
}

// Client calls the finance API with the session's credentials attached.
type Client struct {
	base    *url.URL
	http    *http.Client
	session *session.Session
	cache   *cache.LRUCache[[]byte]
	logger  *log.Logger
	maxBody int64
}

// New builds a client for cfg.BaseURL. A zero CacheTTL disables read caching.
func New(cfg Config, sess *session.Session, logger *log.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if sess == nil {
		sess = session.New(nil, "")
	}
	if logger == nil {
		logger = log.Discard()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxBody := cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}

	c := &Client{
		base:    base,
		session: sess,
		logger:  logger.WithComponent(log.ComponentAPI),
		maxBody: maxBody,
		http: &http.Client{
			Transport: session.NewTransport(sess, pooledTransport(cfg.Transport)),
			Timeout:   timeout,
		},
	}
	if cfg.CacheTTL > 0 {
		c.cache = cache.NewLRUCache[[]byte](max(cfg.CacheSize, 1), cfg.CacheTTL)
	}
	return c, nil
}

func pooledTransport(rt http.RoundTripper) http.RoundTripper {
	if rt != nil {
		return rt
	}
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// Session returns the session attached to requests.
func (c *Client) Session() *session.Session {
	return c.session
}

// Cache exposes the read cache for periodic cleanup. It is nil when caching is off.
func (c *Client) Cache() *cache.LRUCache[[]byte] {
	return c.cache
}

// InvalidateCache drops every cached read.
func (c *Client) InvalidateCache() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

func (c *Client) resolve(path string, query url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) cacheKey(u string) string {
	return "env:" + c.session.EnvironmentID() + "|" + u
}

// get decodes a GET response into out, serving it from the cache when fresh.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.resolve(path, query)
	key := c.cacheKey(u)
	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			return decode(body, out)
		}
	}

	body, err := c.do(ctx, http.MethodGet, u, path, nil)
	if err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Set(key, body)
	}
	return decode(body, out)
}

// send performs a mutation. The response body is ignored unless out is non-nil.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	body, err := c.do(ctx, method, c.resolve(path, query), path, payload)
	if err != nil {
		return err
	}
	c.InvalidateCache()
	if out == nil {
		return nil
	}
	return decode(body, out)
}

func (c *Client) do(ctx context.Context, method, u, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "API request failed",
			log.FieldMethod, method, log.FieldPath, path, log.FieldError, err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if int64(len(body)) > c.maxBody {
		c.logger.WarnContext(ctx, "API response exceeds size limit",
			log.FieldMethod, method, log.FieldPath, path, "limit_bytes", c.maxBody)
		return nil, fmt.Errorf("%s %s: %w (limit %d bytes)", method, path, ErrResponseTooLarge, c.maxBody)
	}

	c.logger.DebugContext(ctx, "API request completed",
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: ExtractMessage(body),
			Body:    body,
		}
	}
	return body, nil
}

var errEmptyBody = errors.New("empty response body")

func decode(body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// getList treats an empty or null body as an empty list.
func getList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var out []T
	if err := c.get(ctx, path, query, &out); err != nil && !errors.Is(err, errEmptyBody) {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
