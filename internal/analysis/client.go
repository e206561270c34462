// Package analysis answers questions about transcripts and summarizes them
// through the Gemini generateContent API.
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"ytcollector-go/internal/config"
	"ytcollector-go/internal/constants"
	"ytcollector-go/internal/monitoring"
	"ytcollector-go/internal/monitoring/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBytes = 4 << 20

// Generator produces one model answer. *Client implements it.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Client calls generateContent, falling back to the next configured model
// when a model is not found.
type Client struct {
	endpoint string
	apiKey   string
	models   []string
	cli      *http.Client
}

// NewClient builds a Client from the gemini config section.
func NewClient(cfg config.GeminiConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = constants.GeminiEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("gemini endpoint: %w", err)
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   constants.ProxyDialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   constants.ProxyTLSHandshakeTimeout,
		ResponseHeaderTimeout: constants.GeminiRequestTimeout,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		models:   modelOrder(cfg.Model, cfg.FallbackModels),
		cli:      &http.Client{Transport: tr},
	}, nil
}

// Models returns the primary model followed by its fallbacks.
func (c *Client) Models() []string { return slices.Clone(c.models) }

// Generate tries each model in order; only a 404 moves on to the next one.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	body, err := buildPayload(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	ctx, span := tracing.StartSpan(ctx, "analysis", "gemini.generate",
		trace.WithAttributes(attribute.Int("gemini.turns", len(req.Turns))))
	var lastErr error
	for i, model := range c.models {
		resp, err := c.post(ctx, model, body)
		span.AddEvent("attempt", trace.WithAttributes(
			attribute.String("gemini.model", model),
			attribute.Bool("gemini.ok", err == nil),
		))
		if err == nil {
			monitoring.GeminiTokens.WithLabelValues("prompt").Add(float64(resp.Usage.PromptTokens))
			monitoring.GeminiTokens.WithLabelValues("response").Add(float64(resp.Usage.ResponseTokens))
			span.SetAttributes(attribute.String("gemini.model", resp.Model))
			tracing.EndSpan(span, nil)
			return resp, nil
		}
		lastErr = err
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound && i < len(c.models)-1 {
			continue
		}
		break
	}
	tracing.EndSpan(span, lastErr)
	return nil, lastErr
}

func (c *Client) post(ctx context.Context, model string, body []byte) (*Response, error) {
	endpoint := c.endpoint + "/v1beta/models/" + url.PathEscape(model) + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.cli.Do(req)
	if err != nil {
		monitoring.GeminiCalls.WithLabelValues(model, "error").Inc()
		return nil, fmt.Errorf("gemini %s: %w", model, err)
	}
	defer resp.Body.Close()
	monitoring.GeminiCalls.WithLabelValues(model, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("gemini %s: read body: %w", model, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseError(model, resp.StatusCode, data)
	}
	return parseResponse(model, data)
}

func modelOrder(primary string, fallbacks []string) []string {
	if strings.TrimSpace(primary) == "" {
		primary = constants.GeminiDefaultModel
	}
	out := []string{primary}
	for _, m := range fallbacks {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}
