package pay2house

import (
	"context"
	"net/http"
	"strings"
)

// WebhookDelivery describes the HTTP request that carried a webhook.
type WebhookDelivery struct {
	// Example: Pay2House-Webhook/1.0
	UserAgent string
	// Example: 203.0.113.7:52110
	RemoteAddr string
	// Example: application/x-www-form-urlencoded
	ContentType string
	// Empty unless a signature header is configured on the handler.
	Signature string
}

func deliveryFromRequest(r *http.Request, signatureHeader string) *WebhookDelivery {
	d := &WebhookDelivery{
		UserAgent:   strings.TrimSpace(r.Header.Get("User-Agent")),
		RemoteAddr:  r.RemoteAddr,
		ContentType: strings.TrimSpace(r.Header.Get("Content-Type")),
	}
	if signatureHeader != "" {
		d.Signature = strings.TrimSpace(r.Header.Get(signatureHeader))
	}
	return d
}

type deliveryContextKey struct{}

func contextWithDelivery(ctx context.Context, d *WebhookDelivery) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if d == nil {
		return ctx
	}
	return context.WithValue(ctx, deliveryContextKey{}, d)
}

// WebhookDeliveryFromContext returns the delivery metadata stored by
// [WebhookHandler], or nil outside a webhook call.
func WebhookDeliveryFromContext(ctx context.Context) *WebhookDelivery {
	if ctx == nil {
		return nil
	}
	if d, ok := ctx.Value(deliveryContextKey{}).(*WebhookDelivery); ok {
		return d
	}
	return nil
}
