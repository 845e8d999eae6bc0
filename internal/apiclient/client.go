// Package apiclient is the only way the dashboard talks to the retail backend.
// Every call carries the visitor's cookies, and a single 401 is answered by
// one refresh followed by one retry of the original request.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/you/retaildash/domain"
)

// DefaultRefreshPath is joined to the base URL to renew an expired session
const DefaultRefreshPath = "/auth/refresh"

// Observer receives one notification per HTTP exchange. Status is 0 when no
// response was received.
type Observer interface {
	ObserveRequest(method string, status int)
	ObserveRefresh(ok bool)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, int) {}
func (nopObserver) ObserveRefresh(bool)        {}

// Config configures a Client
type Config struct {
	// BaseURL is either absolute or rooted at "/", in which case it is
	// resolved against Origin.
	BaseURL     string
	Origin      string
	RefreshPath string
	Timeout     time.Duration
	Jar         http.CookieJar
	Transport   http.RoundTripper
	Logger      *zap.Logger
	Observer    Observer
}

// Client is a session-aware JSON client. It is safe for concurrent use.
type Client struct {
	base        string
	baseURL     *url.URL
	refreshPath string
	http        *http.Client
	log         *zap.Logger
	observer    Observer
}

// Request describes one call. Header entries are added to every attempt,
// except Content-Type which is always application/json.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

// New builds a Client from cfg. A cookie jar is created when cfg.Jar is nil.
func New(cfg Config) (*Client, error) {
	base, err := resolveBase(cfg.BaseURL, cfg.Origin)
	if err != nil {
		return nil, err
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}

	jar := cfg.Jar
	if jar == nil {
		jar, err = NewJar()
		if err != nil {
			return nil, err
		}
	}

	c := &Client{
		base:        base,
		baseURL:     parsed,
		refreshPath: cfg.RefreshPath,
		http: &http.Client{
			Jar:       jar,
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		log:      cfg.Logger,
		observer: cfg.Observer,
	}
	if c.refreshPath == "" {
		c.refreshPath = DefaultRefreshPath
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	return c, nil
}

// NewJar returns a cookie jar that scopes cookies by public suffix
func NewJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return jar, nil
}

func resolveBase(base, origin string) (string, error) {
	base = strings.TrimRight(base, "/")
	switch {
	case isAbsolute(base):
		return base, nil
	case strings.HasPrefix(base, "/"):
		if !isAbsolute(origin) {
			return "", fmt.Errorf("relative api base %q needs an absolute origin, got %q", base, origin)
		}
		return strings.TrimRight(origin, "/") + base, nil
	default:
		return "", fmt.Errorf("api base %q must be absolute or start with /", base)
	}
}

func isAbsolute(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// BaseURL returns the resolved backend base URL
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Jar returns the cookie jar shared by every call of this client
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

func (c *Client) url(path string) string {
	if isAbsolute(path) {
		return path
	}
	return c.base + path
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

type phase int

const (
	phaseAttempt phase = iota
	phaseRefresh
	phaseRetry
)

// Do performs req and decodes a 2xx JSON body into out.
//
// A 401 on the first attempt triggers exactly one refresh. If the refresh
// succeeds the request is replayed once and that outcome is final; if it
// fails the call ends with domain.ErrUnauthorized.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	payload, err := encodeBody(req.Body)
	if err != nil {
		return err
	}

	current := phaseAttempt
	for {
		switch current {
		case phaseAttempt, phaseRetry:
			resp, err := c.send(ctx, req.Method, c.url(req.Path), payload, req.Header)
			if err != nil {
				return err
			}
			if resp.StatusCode == http.StatusUnauthorized && current == phaseAttempt {
				discard(resp)
				current = phaseRefresh
				continue
			}
			return c.finish(resp, out)

		case phaseRefresh:
			if err := c.refresh(ctx); err != nil {
				return err
			}
			current = phaseRetry
		}
	}
}

func (c *Client) refresh(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodPost, c.base+c.refreshPath, nil, nil)
	if err != nil {
		c.observer.ObserveRefresh(false)
		c.log.Debug("session refresh failed", zap.Error(err))
		return domain.ErrUnauthorized
	}
	discard(resp)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	c.observer.ObserveRefresh(ok)
	if !ok {
		c.log.Debug("session refresh rejected", zap.Int("status", resp.StatusCode))
		return domain.ErrUnauthorized
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte, extra http.Header) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range extra {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.observer.ObserveRequest(method, 0)
		c.log.Debug("api request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}

	c.observer.ObserveRequest(method, resp.StatusCode)
	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	return resp, nil
}

func (c *Client) finish(resp *http.Response, out any) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return data, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
