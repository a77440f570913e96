package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rl1809/order-console/internal/core/domain"
)

const (
	headerUsername  = "X-Username"
	headerRequestID = "X-Request-ID"
	maxErrorBody    = 4 << 10
)

// StatusError is returned for any response outside the operation's success
// codes.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client talks to the order backend. It never retries; callers decide.
type Client struct {
	base     *url.URL
	identity domain.Identity
	http     *http.Client
}

type ordersResponse struct {
	Orders []domain.Order `json:"orders"`
}

type productsResponse struct {
	Products []domain.Product `json:"products"`
}

// NewClient builds a client for apiRoot (for example
// http://127.0.0.1:8000/api/). httpClient may be nil.
func NewClient(apiRoot string, identity domain.Identity, httpClient *http.Client) (*Client, error) {
	if !strings.HasSuffix(apiRoot, "/") {
		apiRoot += "/"
	}
	base, err := url.Parse(apiRoot)
	if err != nil {
		return nil, fmt.Errorf("parse api root: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("parse api root: unsupported scheme %q", base.Scheme)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{base: base, identity: identity, http: httpClient}, nil
}

func (c *Client) CreateOrder(ctx context.Context, requestID string, items []domain.ConsolidatedItem) error {
	headers := map[string]string{headerRequestID: requestID}
	return c.do(ctx, http.MethodPost, "orders/", nil, items, headers, nil, http.StatusOK, http.StatusCreated)
}

func (c *Client) ListUserOrders(ctx context.Context) ([]domain.Order, error) {
	var resp ordersResponse
	if err := c.do(ctx, http.MethodGet, "orders/user/", nil, nil, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

func (c *Client) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	var resp ordersResponse
	if err := c.do(ctx, http.MethodGet, "admin/orders/", nil, nil, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

func (c *Client) AcceptOrder(ctx context.Context, orderID int64) error {
	path := fmt.Sprintf("admin/orders/%d/accept/", orderID)
	return c.do(ctx, http.MethodPost, path, nil, struct{}{}, nil, nil, http.StatusOK)
}

func (c *Client) CancelOrder(ctx context.Context, orderID int64) error {
	path := fmt.Sprintf("admin/orders/%d/cancel/", orderID)
	return c.do(ctx, http.MethodPost, path, nil, struct{}{}, nil, nil, http.StatusOK)
}

func (c *Client) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	var resp productsResponse
	q := url.Values{"q": []string{query}}
	if err := c.do(ctx, http.MethodGet, "products/search/", q, nil, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any,
	headers map[string]string, out any, okCodes ...int) error {

	u := c.base.ResolveReference(&url.URL{Path: path})
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.identity.Token)
	req.Header.Set(headerUsername, c.identity.Username)
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if !accepted(resp.StatusCode, okCodes) {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func accepted(code int, okCodes []int) bool {
	for _, ok := range okCodes {
		if code == ok {
			return true
		}
	}
	return false
}
