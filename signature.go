package pay2house

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/espolin/pay2house-go/signature"
)

// maxWebhookBody bounds the size of a buffered webhook delivery.
const maxWebhookBody = 1 << 20

type signatureMiddlewareConfig struct {
	Secret string
	Header string
	Logger *slog.Logger
}

// newSignatureMiddleware checks the hex HMAC of the raw body carried in
// cfg.Header. It returns nil when no header is configured.
func newSignatureMiddleware(cfg signatureMiddlewareConfig) Middleware {
	if cfg.Header == "" {
		return nil
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sig := strings.TrimSpace(r.Header.Get(cfg.Header))
			if sig == "" {
				cfg.Logger.ErrorContext(r.Context(), "pay2house webhook signature missing",
					slog.String("header", cfg.Header),
				)
				writeWebhookError(w, http.StatusUnauthorized, KindSignatureMismatch, cfg.Header+" header is required")
				return
			}
			raw, err := readAndBufferBody(w, r)
			if err != nil {
				writeBodyError(w, err)
				return
			}
			if !signature.VerifyWebhookSignature(sig, string(raw), cfg.Secret) {
				cfg.Logger.ErrorContext(r.Context(), "pay2house webhook signature mismatch",
					slog.String("header", cfg.Header),
					slog.String("remote_addr", r.RemoteAddr),
				)
				writeWebhookError(w, http.StatusUnauthorized, KindSignatureMismatch, "signature verification failed")
				return
			}
			next(w, r)
		}
	}
}

// readAndBufferBody reads the request body and replaces it with an in-memory
// copy so later handlers can read it again. Bodies over maxWebhookBody fail
// with *http.MaxBytesError.
func readAndBufferBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		r.Body = io.NopCloser(bytes.NewReader(nil))
		return nil, nil
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	return raw, nil
}

func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeWebhookError(w, http.StatusRequestEntityTooLarge, KindMalformedPayload, "request body too large")
		return
	}
	writeWebhookError(w, http.StatusBadRequest, KindMalformedPayload, "unable to read request body")
}
