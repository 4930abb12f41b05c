// Package api holds the thin gateway clients for the airbrb REST backend.
// Every response body is decoded into an endpoint-specific DTO and validated
// before it is converted to a domain type.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/airbrb/booking-client/internal/platform/metrics"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("airbrb/api-client")

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
	metrics  *metrics.MetricsManager
	logger   *logger.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics records request latency and errors.
func WithMetrics(m *metrics.MetricsManager) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   log.Named("APIClient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	method   string
	path     string
	endpoint string // low-cardinality label, e.g. "GET /listings/:id"
	token    string
	body     any
}

// do performs the request and decodes a successful body into out (which may
// be nil). out is validated after decoding.
func (c *Client) do(ctx context.Context, req request, out any) (err error) {
	ctx, span := tracer.Start(ctx, req.endpoint,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(attribute.String("http.method", req.method), attribute.String("http.path", req.path)))
	start := time.Now()
	defer func() {
		c.metrics.ObserveRequest(req.endpoint, time.Since(start), errorKind(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var payload io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", req.endpoint, err)
		}
		payload = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, payload)
	if err != nil {
		return fmt.Errorf("build %s request: %w", req.endpoint, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %s: %w", ErrTransport, req.endpoint, ctxErr)
		}
		return fmt.Errorf("%w: %s: %v", ErrTransport, req.endpoint, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %v", ErrTransport, req.endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Message: DefaultErrorMessage}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			switch {
			case eb.Error != "":
				apiErr.Message = eb.Error
			case eb.Message != "":
				apiErr.Message = eb.Message
			}
		}
		c.logger.Debug("Backend returned an error",
			zap.String("endpoint", req.endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return protocolError(req.endpoint, err)
	}
	if err := c.validate.Struct(out); err != nil {
		return protocolError(req.endpoint, err)
	}
	return nil
}

func errorKind(err error) string {
	var apiErr *Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return "server"
	case IsProtocol(err):
		return "protocol"
	case IsTransport(err):
		return "transport"
	default:
		return "client"
	}
}
