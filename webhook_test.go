package pay2house

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/espolin/pay2house-go/signature"
)

const testWebhookSecret = "whsec"

type recordingProvider struct {
	payloads [][]byte
	delivery *WebhookDelivery
	err      error
}

func (p *recordingProvider) HandleWebhook(ctx context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	p.delivery = WebhookDeliveryFromContext(ctx)
	return p.err
}

func sealTestPayload(t *testing.T, plaintext string) string {
	t.Helper()

	blob, err := signature.SealWebhook([]byte(plaintext), testWebhookSecret)
	if err != nil {
		t.Fatalf("SealWebhook() error = %v", err)
	}
	return blob
}

func hexSignature(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func jsonDelivery(t *testing.T, blob string) *http.Request {
	t.Helper()

	body, err := json.Marshal(map[string]string{WebhookField: blob})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/pay2house", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formDelivery(blob string) *http.Request {
	body := url.Values{WebhookField: {blob}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeReply(t *testing.T, rec *httptest.ResponseRecorder) webhookReply {
	t.Helper()

	var reply webhookReply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply %q: %v", rec.Body.String(), err)
	}
	return reply
}

func TestWebhookHandlerAcceptsJSONAndForm(t *testing.T) {
	t.Parallel()

	const plaintext = `{"invoice_number":"INV-1","status":"paid"}`
	tests := map[string]func(t *testing.T, blob string) *http.Request{
		"json": jsonDelivery,
		"form": func(_ *testing.T, blob string) *http.Request { return formDelivery(blob) },
	}

	for name, build := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			provider := &recordingProvider{}
			handler := NewWebhookHandler(testWebhookSecret, provider)
			req := build(t, sealTestPayload(t, plaintext))
			req.Header.Set("User-Agent", "pay2house-test/1.0")
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
			}
			if reply := decodeReply(t, rec); reply.Status != "success" {
				t.Fatalf("unexpected reply %+v", reply)
			}
			if len(provider.payloads) != 1 || string(provider.payloads[0]) != plaintext {
				t.Fatalf("unexpected payloads %q", provider.payloads)
			}
			if provider.delivery == nil || provider.delivery.UserAgent != "pay2house-test/1.0" {
				t.Fatalf("expected delivery metadata on context got %+v", provider.delivery)
			}
		})
	}
}

func TestWebhookHandlerRejections(t *testing.T) {
	t.Parallel()

	valid := sealTestPayload(t, `{"a":1}`)
	decoded, err := base64.StdEncoding.DecodeString(valid)
	if err != nil {
		t.Fatalf("decode blob: %v", err)
	}
	parts := strings.Split(string(decoded), "|")
	tampered := base64.StdEncoding.EncodeToString([]byte(parts[0] + "|" + strings.Repeat("0", 64) + "|" + parts[2]))
	shortIV := base64.StdEncoding.EncodeToString([]byte("AAAA|" + hexSignature("AAAA|"+parts[2], testWebhookSecret) + "|" + parts[2]))

	tests := map[string]struct {
		req     *http.Request
		status  int
		kind    ErrorKind
		message string
	}{
		"missing field": {
			req:     formDelivery(""),
			status:  http.StatusBadRequest,
			kind:    KindEmptyPayload,
			message: "webhook payload is empty",
		},
		"invalid json": {
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
				r.Header.Set("Content-Type", "application/json")
				return r
			}(),
			status:  http.StatusBadRequest,
			kind:    KindMalformedPayload,
			message: "request body must be a JSON object",
		},
		"not base64": {
			req:     jsonDelivery(t, "%%%"),
			status:  http.StatusBadRequest,
			kind:    KindMalformedPayload,
			message: "webhook payload is malformed",
		},
		"tampered hmac": {
			req:     jsonDelivery(t, tampered),
			status:  http.StatusUnauthorized,
			kind:    KindSignatureMismatch,
			message: "signature verification failed",
		},
		"short iv": {
			req:     jsonDelivery(t, shortIV),
			status:  http.StatusUnprocessableEntity,
			kind:    KindDecryptionFailed,
			message: "webhook payload could not be decrypted",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			provider := &recordingProvider{}
			handler := NewWebhookHandler(testWebhookSecret, provider)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, tc.req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			reply := decodeReply(t, rec)
			if reply.Status != "error" || reply.Code != tc.kind || reply.Message != tc.message {
				t.Fatalf("unexpected reply %+v", reply)
			}
			if len(provider.payloads) != 0 {
				t.Fatalf("provider must not be called on rejected deliveries")
			}
		})
	}
}

func TestWebhookHandlerRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	body := url.Values{WebhookField: {strings.Repeat("A", maxWebhookBody)}}.Encode()
	tests := map[string][]WebhookOption{
		"plain":            nil,
		"signature header": {WithWebhookSignatureHeader("X-Sig")},
	}

	for name, opts := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			provider := &recordingProvider{}
			handler := NewWebhookHandler(testWebhookSecret, provider, opts...)
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("X-Sig", hexSignature(body, testWebhookSecret))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("expected 413 got %d: %s", rec.Code, rec.Body.String())
			}
			if reply := decodeReply(t, rec); reply.Code != KindMalformedPayload || reply.Message != "request body too large" {
				t.Fatalf("unexpected reply %+v", reply)
			}
			if len(provider.payloads) != 0 {
				t.Fatalf("provider must not be called on rejected deliveries")
			}
		})
	}
}

func TestWebhookHandlerProviderFailure(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{err: errors.New("db down")}
	handler := NewWebhookHandler(testWebhookSecret, provider)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, jsonDelivery(t, sealTestPayload(t, `{}`)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "db down") {
		t.Fatalf("provider error must not leak to the caller")
	}
}

func TestWebhookHandlerRejectsOtherMethods(t *testing.T) {
	t.Parallel()

	handler := NewWebhookHandler(testWebhookSecret, WebhookProviderFunc(func(context.Context, []byte) error { return nil }))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rec.Code)
	}
}

func TestWebhookHandlerSignatureHeader(t *testing.T) {
	t.Parallel()

	const header = "X-Pay2House-Signature"
	blob := sealTestPayload(t, `{"invoice_number":"INV-7"}`)
	body := url.Values{WebhookField: {blob}}.Encode()

	tests := map[string]struct {
		signature string
		status    int
	}{
		"valid":   {signature: hexSignature(body, testWebhookSecret), status: http.StatusOK},
		"missing": {status: http.StatusUnauthorized},
		"wrong":   {signature: hexSignature(body, "other"), status: http.StatusUnauthorized},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			provider := &recordingProvider{}
			handler := NewWebhookHandler(testWebhookSecret, provider, WithWebhookSignatureHeader(header))
			req := formDelivery(blob)
			if tc.signature != "" {
				req.Header.Set(header, tc.signature)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if tc.status == http.StatusOK {
				if provider.delivery == nil || provider.delivery.Signature != tc.signature {
					t.Fatalf("expected signature on delivery metadata got %+v", provider.delivery)
				}
				return
			}
			if reply := decodeReply(t, rec); reply.Code != KindSignatureMismatch {
				t.Fatalf("unexpected reply %+v", reply)
			}
			if len(provider.payloads) != 0 {
				t.Fatalf("provider must not be called on rejected deliveries")
			}
		})
	}
}

func TestWebhookHandlerMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) Middleware {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next(w, r)
			}
		}
	}
	handler := NewWebhookHandler(testWebhookSecret, &recordingProvider{}, WithWebhookMiddleware(mark("first"), nil, mark("second")))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, jsonDelivery(t, sealTestPayload(t, `{}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if strings.Join(order, ",") != "second,first" {
		t.Fatalf("unexpected middleware order %v", order)
	}
}

func TestDecryptWebhookWrapper(t *testing.T) {
	t.Parallel()

	payload, err := DecryptWebhook(sealTestPayload(t, "hello"), testWebhookSecret)
	if err != nil {
		t.Fatalf("DecryptWebhook() error = %v", err)
	}
	if string(payload) != "hello" {
		t.Fatalf("unexpected payload %q", payload)
	}

	_, err = DecryptWebhook("", testWebhookSecret)
	if !IsKind(err, KindEmptyPayload) {
		t.Fatalf("expected empty payload error got %v", err)
	}
	if !errors.Is(err, signature.ErrEmptyPayload) {
		t.Fatalf("expected sentinel in chain got %v", err)
	}
}

func TestVerifyWebhookSignatureWrapper(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"invoice_number":"INV-1"}`)
	const want = "e0a9ac3e1e9614920f186f075b96460497e52eb6949acfbb795ab68942a6957b"
	if err := VerifyWebhookSignature(want, payload, testWebhookSecret); err != nil {
		t.Fatalf("expected valid signature got %v", err)
	}
	err := VerifyWebhookSignature(strings.ToUpper(want), payload, testWebhookSecret)
	if !IsKind(err, KindSignatureMismatch) {
		t.Fatalf("expected signature mismatch got %v", err)
	}
}

func TestNewWebhookHandlerPanics(t *testing.T) {
	t.Parallel()

	tests := map[string]func(){
		"empty secret": func() { NewWebhookHandler("", &recordingProvider{}) },
		"nil provider": func() { NewWebhookHandler(testWebhookSecret, nil) },
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			fn()
		})
	}
}
