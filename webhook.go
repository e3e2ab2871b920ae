package pay2house

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/espolin/pay2house-go/signature"
)

// WebhookField is the body field that carries the sealed blob.
const WebhookField = "data"

// WebhookProvider is implemented by business logic that consumes decrypted
// webhook payloads. The payload is the plaintext JSON sent by Pay2.House.
type WebhookProvider interface {
	HandleWebhook(ctx context.Context, payload []byte) error
}

// WebhookProviderFunc adapts a function to [WebhookProvider].
type WebhookProviderFunc func(ctx context.Context, payload []byte) error

func (f WebhookProviderFunc) HandleWebhook(ctx context.Context, payload []byte) error {
	return f(ctx, payload)
}

// WebhookHandler receives Pay2.House webhook deliveries, authenticates and
// decrypts them, and forwards the plaintext to a [WebhookProvider].
type WebhookHandler struct {
	secret   string
	provider WebhookProvider
	mux      *http.ServeMux
	cfg      webhookConfig
}

// NewWebhookHandler builds a [WebhookHandler] backed by net/http's ServeMux.
// It accepts POST on any path, so it can be mounted under a prefix.
func NewWebhookHandler(secret string, provider WebhookProvider, opts ...WebhookOption) *WebhookHandler {
	if secret == "" {
		panic("webhook: secret is required")
	}
	if provider == nil {
		panic("webhook: provider is required")
	}
	cfg := webhookConfig{logger: discardLogger()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	h := &WebhookHandler{
		secret:   secret,
		provider: provider,
		mux:      http.NewServeMux(),
		cfg:      cfg,
	}
	var middleware []Middleware
	if mw := newSignatureMiddleware(signatureMiddlewareConfig{
		Secret: secret,
		Header: cfg.signatureHeader,
		Logger: cfg.logger,
	}); mw != nil {
		middleware = append(middleware, mw)
	}
	middleware = append(middleware, cfg.middleware...)
	h.mux.HandleFunc("POST /", applyMiddleware(h.handleDelivery, middleware...))
	return h
}

// ServeHTTP satisfies http.Handler.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	delivery := deliveryFromRequest(r, h.cfg.signatureHeader)
	ctx := contextWithDelivery(r.Context(), delivery)
	h.mux.ServeHTTP(w, r.WithContext(ctx))
}

func (h *WebhookHandler) handleDelivery(w http.ResponseWriter, r *http.Request) {
	raw, err := readAndBufferBody(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}
	blob, err := extractBlob(r.Header.Get("Content-Type"), raw)
	if err != nil {
		writeWebhookError(w, http.StatusBadRequest, KindMalformedPayload, err.Error())
		return
	}
	payload, err := DecryptWebhook(blob, h.secret)
	if err != nil {
		h.rejectDelivery(w, r, err)
		return
	}
	if err := h.provider.HandleWebhook(r.Context(), payload); err != nil {
		h.cfg.logger.ErrorContext(r.Context(), "pay2house webhook handler failed", slog.Any("error", err))
		writeWebhookError(w, http.StatusInternalServerError, "", "webhook processing failed")
		return
	}
	writeJSON(w, http.StatusOK, webhookReply{Status: statusSuccess})
}

func (h *WebhookHandler) rejectDelivery(w http.ResponseWriter, r *http.Request, err error) {
	kind := KindMalformedPayload
	var whErr *Error
	if errors.As(err, &whErr) {
		kind = whErr.Kind
	}
	status := webhookStatus(kind)
	if kind == KindSignatureMismatch {
		h.cfg.logger.ErrorContext(r.Context(), "pay2house webhook signature mismatch",
			slog.String("remote_addr", r.RemoteAddr),
		)
	} else {
		h.cfg.logger.WarnContext(r.Context(), "pay2house webhook rejected",
			slog.String("kind", string(kind)),
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}
	writeWebhookError(w, status, kind, webhookRejectMessage(kind))
}

func webhookStatus(kind ErrorKind) int {
	switch kind {
	case KindSignatureMismatch:
		return http.StatusUnauthorized
	case KindDecryptionFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// webhookRejectMessage is the reply text for a rejected delivery. Decode
// details stay in the logs.
func webhookRejectMessage(kind ErrorKind) string {
	switch kind {
	case KindEmptyPayload:
		return "webhook payload is empty"
	case KindSignatureMismatch:
		return "signature verification failed"
	case KindDecryptionFailed:
		return "webhook payload could not be decrypted"
	default:
		return "webhook payload is malformed"
	}
}

// extractBlob pulls the data field from a JSON or form-encoded body. A body
// without the field yields "", which decrypts to an empty payload error.
func extractBlob(contentType string, raw []byte) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/json" {
		var body map[string]json.RawMessage
		if err := json.Unmarshal(raw, &body); err != nil {
			return "", errors.New("request body must be a JSON object")
		}
		field, ok := body[WebhookField]
		if !ok {
			return "", nil
		}
		var blob string
		if err := json.Unmarshal(field, &blob); err != nil {
			return "", errors.New(WebhookField + " must be a string")
		}
		return blob, nil
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return "", errors.New("request body must be form encoded")
	}
	return values.Get(WebhookField), nil
}

// DecryptWebhook authenticates and decrypts a sealed webhook blob. Failures
// are *Error values of kind EmptyPayload, MalformedPayload, SignatureMismatch
// or DecryptionFailed.
func DecryptWebhook(blob, secretKey string) ([]byte, error) {
	payload, err := signature.DecryptWebhook(blob, secretKey)
	if err != nil {
		return nil, webhookError(err)
	}
	return payload, nil
}

// VerifyWebhookSignature checks a hex HMAC-SHA256 of payload. A mismatch is
// reported as an *Error of kind SignatureMismatch.
func VerifyWebhookSignature(sig string, payload []byte, secretKey string) error {
	if !signature.VerifyWebhookSignature(sig, string(payload), secretKey) {
		return webhookError(signature.ErrSignatureMismatch)
	}
	return nil
}
