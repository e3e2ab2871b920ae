package pay2house

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL        = "https://pay2.house/api"
	DefaultUserAgent      = "Pay2House-Go-Client/1.0"
	DefaultConnectTimeout = 10 * time.Second
	DefaultRequestTimeout = 30 * time.Second
)

type config struct {
	baseURL        string
	userAgent      string
	connectTimeout time.Duration
	requestTimeout time.Duration
	httpClient     *http.Client
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

func defaultConfig() config {
	return config{
		baseURL:        DefaultBaseURL,
		userAgent:      DefaultUserAgent,
		connectTimeout: DefaultConnectTimeout,
		requestTimeout: DefaultRequestTimeout,
		logger:         discardLogger(),
	}
}

// Option customizes the client behavior.
type Option func(*config)

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(cfg *config) {
		cfg.baseURL = baseURL
	}
}

// WithHTTPClient replaces the internally built client. The connect and
// request timeouts are ignored when this option is used.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = client
	}
}

// WithConnectTimeout bounds the TCP connect phase of each call.
func WithConnectTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("pay2house: connect timeout must be positive")
	}
	return func(cfg *config) {
		cfg.connectTimeout = d
	}
}

// WithRequestTimeout bounds the full round trip of each call.
func WithRequestTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("pay2house: request timeout must be positive")
	}
	return func(cfg *config) {
		cfg.requestTimeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cfg *config) {
		cfg.userAgent = ua
	}
}

// WithLogger enables structured logging of dispatched calls.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithTracerProvider sets the provider used for call spans. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.tracerProvider = tp
	}
}

// WithMeterProvider sets the provider used for call counters and latency
// histograms. The global provider is used otherwise.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *config) {
		cfg.meterProvider = mp
	}
}

type webhookConfig struct {
	signatureHeader string
	logger          *slog.Logger
	middleware      []Middleware
}

// Middleware wraps the webhook handler.
type Middleware func(http.HandlerFunc) http.HandlerFunc

func applyMiddleware(h http.HandlerFunc, middleware ...Middleware) http.HandlerFunc {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}

// WebhookOption customizes the webhook handler.
type WebhookOption func(*webhookConfig)

// WithWebhookSignatureHeader requires every delivery to carry the hex
// HMAC-SHA256 of the raw body in the named header.
func WithWebhookSignatureHeader(name string) WebhookOption {
	return func(cfg *webhookConfig) {
		cfg.signatureHeader = name
	}
}

// WithWebhookLogger enables logging of rejected deliveries.
func WithWebhookLogger(logger *slog.Logger) WebhookOption {
	return func(cfg *webhookConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithWebhookMiddleware appends custom middleware in the order provided.
func WithWebhookMiddleware(mw ...Middleware) WebhookOption {
	return func(cfg *webhookConfig) {
		for _, m := range mw {
			if m == nil {
				continue
			}
			cfg.middleware = append(cfg.middleware, m)
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
