package pay2house

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/espolin/pay2house-go/signature"
)

// Version is the client library version.
const Version = "1.0.0"

const tracerName = "github.com/espolin/pay2house-go"

// Client performs signed calls against the Pay2.House API. It holds no
// mutable state after construction and is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *clientMetrics
}

// NewClient builds a [Client] authenticated with apiKey. The key is sent as
// api_key and also keys the sign_token HMAC.
func NewClient(apiKey string, opts ...Option) *Client {
	if apiKey == "" {
		panic("pay2house: api key is required")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.connectTimeout, cfg.requestTimeout)
	}
	tp := cfg.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(cfg.baseURL, "/"),
		userAgent:  cfg.userAgent,
		httpClient: httpClient,
		logger:     cfg.logger,
		tracer:     tp.Tracer(tracerName, trace.WithInstrumentationVersion(Version)),
		metrics:    newClientMetrics(cfg.meterProvider),
	}
}

func newHTTPClient(connectTimeout, requestTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	return &http.Client{
		Transport: transport,
		Timeout:   requestTimeout,
	}
}

// Post signs params, sends them to baseURL/endpoint as a form-encoded POST
// and returns the parsed envelope when its status is "success". There is
// exactly one attempt; failures come back as *Error.
func (c *Client) Post(ctx context.Context, endpoint string, params signature.Params) (Envelope, error) {
	ctx, span := c.tracer.Start(ctx, "pay2house.post",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("pay2house.endpoint", endpoint)),
	)
	defer span.End()

	start := time.Now()
	env, err := c.post(ctx, endpoint, params)
	outcome := statusSuccess
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		var apiErr *Error
		if errors.As(err, &apiErr) {
			outcome = string(apiErr.Kind)
			span.SetStatus(codes.Error, string(apiErr.Kind))
			if apiErr.Kind == KindAPI {
				span.SetAttributes(attribute.String("pay2house.error_code", string(apiErr.Code)))
				c.logger.WarnContext(ctx, "pay2house request rejected",
					slog.String("endpoint", endpoint),
					slog.String("code", string(apiErr.Code)),
					slog.String("message", apiErr.Message),
				)
			} else {
				c.logger.ErrorContext(ctx, "pay2house request failed",
					slog.String("endpoint", endpoint),
					slog.String("kind", string(apiErr.Kind)),
					slog.Any("error", err),
				)
			}
		} else {
			span.SetStatus(codes.Error, err.Error())
		}
		c.metrics.record(ctx, endpoint, outcome, time.Since(start))
		return nil, err
	}
	c.metrics.record(ctx, endpoint, outcome, time.Since(start))
	span.SetAttributes(attribute.String("pay2house.status", env.Status()))
	return env, nil
}

func (c *Client) post(ctx context.Context, endpoint string, params signature.Params) (Envelope, error) {
	filtered := signature.Filter(params)
	token, err := signature.CreateToken(filtered, c.apiKey)
	if err != nil {
		return nil, fmt.Errorf("pay2house: %s: sign request: %w", endpoint, err)
	}
	form, err := encodeForm(filtered)
	if err != nil {
		return nil, fmt.Errorf("pay2house: %s: encode request: %w", endpoint, err)
	}
	form.Set("sign_token", token)
	form.Set("api_key", c.apiKey)

	target := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("pay2house: %s: build request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.DebugContext(ctx, "pay2house request",
		slog.String("endpoint", endpoint),
		slog.Int("params", len(filtered)),
	)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newTransportError(endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError(endpoint, err)
	}
	c.logger.DebugContext(ctx, "pay2house response",
		slog.String("endpoint", endpoint),
		slog.Int("http_status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)
	return decodeEnvelope(endpoint, body)
}

func encodeForm(params signature.Params) (url.Values, error) {
	form := make(url.Values, len(params)+2)
	for k, v := range params {
		value, err := signature.FormatValue(v)
		if err != nil {
			return nil, err
		}
		form.Set(k, value)
	}
	return form, nil
}

// Ping reports whether the API accepts the configured credentials.
func (c *Client) Ping(ctx context.Context) bool {
	_, err := c.GetWallets(ctx, GetWalletsRequest{})
	return err == nil
}
