package pay2house

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds settings read from the environment by [LoadConfig].
type Config struct {
	APIKey         string
	BaseURL        string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	Webhook        WebhookConfig
	Defaults       DefaultsConfig
}

// WebhookConfig configures [NewWebhookHandlerFromConfig]. The sealed blob is
// always authenticated by its own HMAC. SignatureHeader adds a second check,
// a hex HMAC of the raw body, and is empty unless set because Pay2.House does
// not define such a header. It only applies when VerifySignature is true.
type WebhookConfig struct {
	Secret          string
	VerifySignature bool
	SignatureHeader string
}

// DefaultsConfig carries values callers may use when building requests.
type DefaultsConfig struct {
	MerchantID string
	Currency   string
}

// LoadConfig reads PAY2HOUSE_* variables. A .env file in the working
// directory is loaded first when present; real environment variables win.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:         getEnv("PAY2HOUSE_API_KEY", ""),
		BaseURL:        getEnv("PAY2HOUSE_BASE_URL", DefaultBaseURL),
		ConnectTimeout: getEnvAsSeconds("PAY2HOUSE_CONNECT_TIMEOUT", DefaultConnectTimeout),
		RequestTimeout: getEnvAsSeconds("PAY2HOUSE_REQUEST_TIMEOUT", DefaultRequestTimeout),
		Webhook: WebhookConfig{
			Secret:          getEnv("PAY2HOUSE_WEBHOOK_SECRET", ""),
			VerifySignature: getEnvAsBool("PAY2HOUSE_WEBHOOK_VERIFY_SIGNATURE", true),
			SignatureHeader: getEnv("PAY2HOUSE_WEBHOOK_SIGNATURE_HEADER", ""),
		},
		Defaults: DefaultsConfig{
			MerchantID: getEnv("PAY2HOUSE_MERCHANT_ID", getEnv("PAY2HOUSE_DEFAULT_MERCHANT_ID", "")),
			Currency:   getEnv("PAY2HOUSE_DEFAULT_CURRENCY", "USD"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pay2house: config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings every client needs.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("PAY2HOUSE_API_KEY is required")
	}
	if c.BaseURL == "" {
		return errors.New("PAY2HOUSE_BASE_URL must not be empty")
	}
	if c.ConnectTimeout <= 0 {
		return errors.New("PAY2HOUSE_CONNECT_TIMEOUT must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("PAY2HOUSE_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// NewClientFromConfig builds a [Client] from cfg. Options are applied after
// the config values and may override them.
func NewClientFromConfig(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("pay2house: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pay2house: %w", err)
	}
	base := []Option{
		WithBaseURL(cfg.BaseURL),
		WithConnectTimeout(cfg.ConnectTimeout),
		WithRequestTimeout(cfg.RequestTimeout),
	}
	return NewClient(cfg.APIKey, append(base, opts...)...), nil
}

// NewWebhookHandlerFromConfig builds a [WebhookHandler] using the webhook
// secret and, when verification is on, the configured signature header.
func NewWebhookHandlerFromConfig(cfg *Config, provider WebhookProvider, opts ...WebhookOption) (*WebhookHandler, error) {
	if cfg == nil {
		return nil, errors.New("pay2house: config is required")
	}
	if cfg.Webhook.Secret == "" {
		return nil, errors.New("pay2house: PAY2HOUSE_WEBHOOK_SECRET is required")
	}
	if provider == nil {
		return nil, errors.New("pay2house: webhook provider is required")
	}
	var base []WebhookOption
	if cfg.Webhook.VerifySignature && cfg.Webhook.SignatureHeader != "" {
		base = append(base, WithWebhookSignatureHeader(cfg.Webhook.SignatureHeader))
	}
	return NewWebhookHandler(cfg.Webhook.Secret, provider, append(base, opts...)...), nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSeconds accepts a whole number of seconds or a time.Duration
// string such as "1500ms".
func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
