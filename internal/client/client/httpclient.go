package client

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
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds a whole request when no *http.Client is supplied.
	DefaultTimeout = 10 * time.Second

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 1 << 20
)

// HTTPClient implements Client over the authority's HTTP/JSON API.
// It never retries.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	metrics *Metrics
	log     logging.Logger
}

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

func WithMetrics(m *Metrics) Option {
	return func(c *HTTPClient) { c.metrics = m }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// NewHTTPClient returns a client for the API rooted at baseURL. Protected
// calls take their bearer token from tokens.
func NewHTTPClient(baseURL string, tokens TokenSource, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{baseURL: u, tokens: tokens}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = NewTransportClient(DefaultTimeout)
	}
	if c.log == nil {
		c.log = logging.Discard()
	}
	return c, nil
}

// NewTransportClient returns an *http.Client with connection-level timeouts
// and redirects disabled.
func NewTransportClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: timeout,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	auth   bool
	body   any
}

func (c *HTTPClient) do(ctx context.Context, r request, out any) (err error) {
	start := time.Now()
	reqID := uuid.NewString()
	defer func() {
		elapsed := time.Since(start)
		c.metrics.observe(r.op, err, elapsed)
		c.log.Debug(ctx, "api call", "op", r.op, "method", r.method, "path", r.path,
			"request_id", reqID, "elapsed", elapsed, "err", err)
	}()

	var token string
	if r.auth {
		var ok bool
		if token, ok = c.tokens.Token(); !ok {
			return &APIError{Op: r.op, Kind: common.ErrUnauthenticated, Detail: "no session token"}
		}
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return &APIError{Op: r.op, Kind: common.ErrInvalid, Err: err}
		}
		body = bytes.NewReader(b)
	}

	u := c.baseURL.JoinPath(r.path)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return &APIError{Op: r.op, Kind: common.ErrUnknown, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, reqID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Op: r.op, Kind: common.ErrNetwork, Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := parseDetail(raw)
		return &APIError{Op: r.op, Status: resp.StatusCode, Detail: detail, Kind: kindForStatus(resp.StatusCode, detail)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Op: r.op, Status: resp.StatusCode, Kind: common.ErrUnknown, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func contactPath(id string, rest ...string) string {
	parts := append([]string{"api", "contacts", url.PathEscape(id)}, rest...)
	return "/" + strings.Join(parts, "/")
}

func (c *HTTPClient) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	body := struct {
		Name     string `json:"name,omitempty"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}{name, email, password}

	var u models.User
	if err := c.do(ctx, request{op: "register", method: http.MethodPost, path: "/api/auth/register", body: body}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	var tr models.TokenResponse
	if err := c.do(ctx, request{op: "login", method: http.MethodPost, path: "/api/auth/login", body: body}, &tr); err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", &APIError{Op: "login", Status: http.StatusOK, Kind: common.ErrUnknown, Detail: "empty access token"}
	}
	return tr.AccessToken, nil
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, request{op: "me", method: http.MethodGet, path: "/api/auth/me", auth: true}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) List(ctx context.Context, filters *models.ListFilters) ([]models.Contact, error) {
	q := url.Values{}
	if filters != nil {
		if filters.Search != "" {
			q.Set("search", filters.Search)
		}
		if filters.Tag != "" {
			q.Set("tag", filters.Tag)
		}
		if filters.Favorite != nil {
			q.Set("favorite", strconv.FormatBool(*filters.Favorite))
		}
	}

	var list []models.Contact
	if err := c.do(ctx, request{op: "list", method: http.MethodGet, path: "/api/contacts", query: q, auth: true}, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Contact{}
	}
	return list, nil
}

func (c *HTTPClient) Get(ctx context.Context, id string) (*models.Contact, error) {
	var ct models.Contact
	if err := c.do(ctx, request{op: "get", method: http.MethodGet, path: contactPath(id), auth: true}, &ct); err != nil {
		return nil, err
	}
	return &ct, nil
}

func (c *HTTPClient) Create(ctx context.Context, payload models.ContactPayload) (*models.Contact, error) {
	var ct models.Contact
	if err := c.do(ctx, request{op: "create", method: http.MethodPost, path: "/api/contacts", auth: true, body: payload}, &ct); err != nil {
		return nil, err
	}
	return &ct, nil
}

func (c *HTTPClient) Update(ctx context.Context, id string, payload models.ContactPayload) (*models.Contact, error) {
	var ct models.Contact
	if err := c.do(ctx, request{op: "update", method: http.MethodPut, path: contactPath(id), auth: true, body: payload}, &ct); err != nil {
		return nil, err
	}
	return &ct, nil
}

func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	return c.do(ctx, request{op: "delete", method: http.MethodDelete, path: contactPath(id), auth: true}, nil)
}

func (c *HTTPClient) ToggleFavorite(ctx context.Context, id string) (*models.Contact, error) {
	var ct models.Contact
	if err := c.do(ctx, request{op: "favorite", method: http.MethodPatch, path: contactPath(id, "favorite"), auth: true}, &ct); err != nil {
		return nil, err
	}
	return &ct, nil
}
