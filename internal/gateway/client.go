// Package gateway talks to OpenAI-compatible chat completion services such as Groq.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iksnae/persona-chat/internal"
)

// Client streams chat completions over HTTP
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	limiter        *rate.Limiter
	requestTimeout time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outgoing requests per minute. Zero disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
}

// WithRequestTimeout bounds a whole streamed request. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.requestTimeout = d }
}

// New creates a client for the service at baseURL
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		// no client timeout: streams are bounded by requestTimeout and ctx
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig creates a client from application settings
func FromConfig(cfg *internal.Config) *Client {
	return New(cfg.BaseURL, cfg.APIKey,
		WithRateLimit(cfg.RequestsPerMinute),
		WithRequestTimeout(cfg.RequestTimeout),
	)
}

// Stream sends req and yields reply fragments followed by one terminal event
func (c *Client) Stream(ctx context.Context, req internal.CompletionRequest) iter.Seq[internal.Event] {
	return func(yield func(internal.Event) bool) {
		streamCtx := ctx
		if c.requestTimeout > 0 {
			var cancel context.CancelFunc
			streamCtx, cancel = context.WithTimeout(ctx, c.requestTimeout)
			defer cancel()
		}

		resp, gwErr := c.open(streamCtx, req)
		if gwErr != nil {
			yield(internal.Failed(gwErr))
			return
		}
		defer resp.Body.Close()

		c.relay(streamCtx, resp.Body, yield)
	}
}

func (c *Client) open(ctx context.Context, req internal.CompletionRequest) (*http.Response, *internal.GatewayError) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, transportError(ctx, err)
		}
	}

	body, err := json.Marshal(newChatRequest(req))
	if err != nil {
		return nil, &internal.GatewayError{Kind: internal.FailureProtocol, Message: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &internal.GatewayError{Kind: internal.FailureNetwork, Err: err}
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	internal.LogDebug("POST %s model=%s messages=%d", httpReq.URL, req.Model, len(req.Messages))
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, handleErrorResponse(resp)
	}
	return resp, nil
}

// relay converts SSE chunks to events until a terminal event has been yielded
func (c *Client) relay(ctx context.Context, body io.Reader, yield func(internal.Event) bool) {
	reader := NewSSEReader(body)
	finished := false

	for {
		_, data, err := reader.ReadEvent()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF) && finished:
				yield(internal.Done())
			case errors.Is(err, io.EOF):
				yield(internal.Failed(&internal.GatewayError{Kind: internal.FailureProtocol, Message: "stream ended before completion"}))
			default:
				yield(internal.Failed(transportError(ctx, err)))
			}
			return
		}

		if bytes.Equal(bytes.TrimSpace(data), doneSentinel) {
			yield(internal.Done())
			return
		}

		var chunk streamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			yield(internal.Failed(&internal.GatewayError{Kind: internal.FailureProtocol, Message: "malformed stream chunk", Err: err}))
			return
		}
		if chunk.Error != nil {
			yield(internal.Failed(&internal.GatewayError{Kind: internal.FailureRemote, Message: chunk.Error.Message}))
			return
		}

		if text := chunk.content(); text != "" {
			if !yield(internal.Fragment(text)) {
				return
			}
		}
		if chunk.finished() {
			finished = true
		}
	}
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("User-Agent", "persona-chat")
}

// Models lists the model ids the service offers
func (c *Client) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp)
	}

	var list modelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, &internal.GatewayError{Kind: internal.FailureProtocol, Message: "decode model list", Err: err}
	}
	ids := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// HealthCheck verifies the service is reachable and accepts the API key
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Models(ctx)
	return err
}

func handleErrorResponse(resp *http.Response) *internal.GatewayError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var apiErr apiErrorResponse
	msg := ""
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	} else if s := strings.TrimSpace(string(body)); s != "" {
		msg = s
	} else {
		msg = http.StatusText(resp.StatusCode)
	}
	return &internal.GatewayError{Kind: internal.FailureRemote, Status: resp.StatusCode, Message: msg}
}

func transportError(ctx context.Context, err error) *internal.GatewayError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &internal.GatewayError{Kind: internal.FailureCanceled, Err: ctxErr}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &internal.GatewayError{Kind: internal.FailureCanceled, Err: err}
	}
	return &internal.GatewayError{Kind: internal.FailureNetwork, Err: fmt.Errorf("request failed: %w", err)}
}
