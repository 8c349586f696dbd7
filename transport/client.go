package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-platform/core"
)

const defaultClientTimeout = 30 * time.Second
const defaultResponseBodyLimit int64 = 10 << 20 // 10 MiB

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the HTTP surface handed to plugin hooks through the execution
// context's API facet. Response bodies are read under a byte limit so a
// misbehaving upstream cannot exhaust the host.
type Client struct {
	client               HTTPDoer
	defaultHeaders       map[string]string
	maxResponseBodyBytes int64
}

type ClientOption func(*Client)

func WithHTTPClient(client HTTPDoer) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithDefaultHeaders sets headers applied to every request; per-request
// headers override them.
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for key, value := range headers {
			if strings.TrimSpace(key) == "" {
				continue
			}
			c.defaultHeaders[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
}

func WithResponseBodyLimit(limit int64) ClientOption {
	return func(c *Client) {
		if limit > 0 {
			c.maxResponseBodyBytes = limit
		}
	}
}

func NewClient(options ...ClientOption) *Client {
	c := &Client{
		client:               &http.Client{Timeout: defaultClientTimeout},
		defaultHeaders:       map[string]string{},
		maxResponseBodyBytes: defaultResponseBodyLimit,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (core.APIResponse, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil, headers)
}

func (c *Client) Post(ctx context.Context, rawURL string, body []byte, headers map[string]string) (core.APIResponse, error) {
	return c.do(ctx, http.MethodPost, rawURL, body, headers)
}

func (c *Client) Put(ctx context.Context, rawURL string, body []byte, headers map[string]string) (core.APIResponse, error) {
	return c.do(ctx, http.MethodPut, rawURL, body, headers)
}

func (c *Client) Delete(ctx context.Context, rawURL string, headers map[string]string) (core.APIResponse, error) {
	return c.do(ctx, http.MethodDelete, rawURL, nil, headers)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) (core.APIResponse, error) {
	if c == nil || c.client == nil {
		return core.APIResponse{}, transportError(
			"transport: client requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return core.APIResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid request url",
			http.StatusBadRequest,
			map[string]any{"url": strings.TrimSpace(rawURL)},
		)
	}
	if parsedURL.String() == "" || parsedURL.Scheme == "" {
		return core.APIResponse{}, transportError(
			"transport: absolute request url is required",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"url": parsedURL.String()},
		)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, parsedURL.String(), bytes.NewReader(body))
	if err != nil {
		return core.APIResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			http.StatusBadRequest,
			map[string]any{"method": method, "url": parsedURL.String()},
		)
	}
	for key, value := range c.defaultHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	httpRes, err := c.client.Do(httpReq)
	if err != nil {
		return core.APIResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: execute http request",
			http.StatusBadGateway,
			map[string]any{"method": method, "url": parsedURL.String()},
		)
	}
	defer httpRes.Body.Close()

	limit := c.maxResponseBodyBytes
	if limit <= 0 {
		limit = defaultResponseBodyLimit
	}
	payload, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	if err != nil {
		return core.APIResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: read response body",
			http.StatusBadGateway,
			map[string]any{"status_code": httpRes.StatusCode},
		)
	}
	if int64(len(payload)) > limit {
		return core.APIResponse{}, transportError(
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", limit),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"status_code": httpRes.StatusCode, "response_limit_b": limit},
		)
	}

	return core.APIResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       payload,
	}, nil
}

func flattenHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) == 0 {
			flat[key] = ""
			continue
		}
		flat[key] = strings.Join(values, ",")
	}
	return flat
}

var _ core.APIClient = (*Client)(nil)
