package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/marketplace-storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/metrics"
)

const (
	defaultTimeout             = 15 * time.Second
	defaultRefreshLeeway       = 30 * time.Second
	errorBodyReadLimit   int64 = 64 << 10
	refreshPath                = "/auth/refresh"
)

var errBaseURLRequired = errors.New("marketplace base url is required")

// TokenPair is the bearer/refresh pair issued by the marketplace.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Tokens is the per-visitor credential store consulted on authenticated calls.
// The client writes refreshed pairs back through SaveTokens.
type Tokens interface {
	Tokens(ctx context.Context) (TokenPair, error)
	SaveTokens(ctx context.Context, pair TokenPair) error
}

// Client talks to the marketplace REST API.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	refreshLeeway time.Duration
	metrics       *metrics.HTTPMetrics
	now           func() time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRefreshLeeway sets how close to expiry an access token is refreshed ahead of a call.
func WithRefreshLeeway(leeway time.Duration) Option {
	return func(c *Client) {
		if leeway >= 0 {
			c.refreshLeeway = leeway
		}
	}
}

// WithMetrics records every upstream call on the supplied metrics.
func WithMetrics(m *metrics.HTTPMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithClock overrides time.Now for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds a marketplace client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	client := &Client{
		httpClient:    &http.Client{Timeout: defaultTimeout},
		baseURL:       trimmed,
		refreshLeeway: defaultRefreshLeeway,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Request describes one marketplace call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON encoded when set.
	Body any
	// RawBody and ContentType send a pre-encoded payload such as multipart.
	RawBody     []byte
	ContentType string
	// Auth attaches the visitor's bearer token when non-nil.
	Auth Tokens
}

// Do executes req and decodes the (data-unwrapped) response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "marketplace client not configured")
	}
	payload, contentType, err := encodeBody(req)
	if err != nil {
		return err
	}

	var pair TokenPair
	refreshed := false
	if req.Auth != nil {
		pair, err = req.Auth.Tokens(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session tokens")
		}
		if pair.AccessToken == "" {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
		}
		if pair.RefreshToken != "" && auth.ExpiresWithin(pair.AccessToken, c.now(), c.refreshLeeway) {
			if next, refreshErr := c.refresh(ctx, req.Auth, pair); refreshErr == nil {
				pair = next
				refreshed = true
			}
		}
	}

	status, body, err := c.send(ctx, req, payload, contentType, pair.AccessToken)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized && req.Auth != nil && !refreshed && pair.RefreshToken != "" {
		next, refreshErr := c.refresh(ctx, req.Auth, pair)
		if refreshErr != nil {
			return upstreamError(req.Method, req.Path, status, body)
		}
		status, body, err = c.send(ctx, req, payload, contentType, next.AccessToken)
		if err != nil {
			return err
		}
	}
	if status < 200 || status > 299 {
		return upstreamError(req.Method, req.Path, status, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrapData(body), out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode marketplace response")
	}
	return nil
}

// Refresh exchanges the stored refresh token for a new pair and persists it.
func (c *Client) Refresh(ctx context.Context, tokens Tokens) (TokenPair, error) {
	if tokens == nil {
		return TokenPair{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	pair, err := tokens.Tokens(ctx)
	if err != nil {
		return TokenPair{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session tokens")
	}
	if pair.RefreshToken == "" {
		return TokenPair{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return c.refresh(ctx, tokens, pair)
}

func (c *Client) refresh(ctx context.Context, tokens Tokens, current TokenPair) (TokenPair, error) {
	payload, err := json.Marshal(map[string]string{"refreshToken": current.RefreshToken})
	if err != nil {
		return TokenPair{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal refresh request")
	}
	refreshReq := Request{Method: http.MethodPost, Path: refreshPath}
	status, body, err := c.send(ctx, refreshReq, payload, "application/json", "")
	if err != nil {
		return TokenPair{}, err
	}
	if status < 200 || status > 299 {
		return TokenPair{}, upstreamError(refreshReq.Method, refreshReq.Path, status, body)
	}
	var next TokenPair
	if err := json.Unmarshal(unwrapData(body), &next); err != nil {
		return TokenPair{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode refresh response")
	}
	if next.AccessToken == "" {
		return TokenPair{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}
	if err := tokens.SaveTokens(ctx, next); err != nil {
		return TokenPair{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist refreshed tokens")
	}
	return next, nil
}

func (c *Client) send(ctx context.Context, req Request, payload []byte, contentType, accessToken string) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.buildURL(req.Path, req.Query), body)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build marketplace request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveUpstream(req.Method, 0)
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute marketplace request")
	}
	defer func() { _ = resp.Body.Close() }()
	c.metrics.ObserveUpstream(req.Method, resp.StatusCode)

	reader := io.Reader(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reader = io.LimitReader(resp.Body, errorBodyReadLimit)
	}
	respBody, err := io.ReadAll(reader)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read marketplace response")
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	full := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

func encodeBody(req Request) ([]byte, string, error) {
	if req.RawBody != nil {
		return req.RawBody, req.ContentType, nil
	}
	if req.Body == nil {
		return nil, "", nil
	}
	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal marketplace request")
	}
	return payload, "application/json", nil
}

// unwrapData strips the {"data": ...} envelope some endpoints use.
func unwrapData(body []byte) []byte {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return body
	}
	if data, ok := envelope["data"]; ok && len(data) > 0 {
		return data
	}
	return body
}

func upstreamError(method, path string, status int, body []byte) error {
	message := extractMessage(body)
	failure := &pkgerrors.UpstreamFailure{Method: method, Path: path, Status: status, Message: message}
	err := pkgerrors.Wrap(pkgerrors.CodeUpstreamRejected, failure, message)
	if status >= 400 && status < 500 {
		err.WithStatus(status)
	}
	return err
}

// extractMessage reads the marketplace error message. Validation failures
// sometimes arrive as a list of strings; those are joined.
func extractMessage(body []byte) string {
	var envelope struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	for _, raw := range []json.RawMessage{envelope.Message, envelope.Error} {
		if len(raw) == 0 {
			continue
		}
		var single string
		if err := json.Unmarshal(raw, &single); err == nil && strings.TrimSpace(single) != "" {
			return strings.TrimSpace(single)
		}
		var many []string
		if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
			return strings.Join(many, ", ")
		}
	}
	return ""
}
