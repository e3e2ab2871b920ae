package pay2house

import (
	"errors"
	"fmt"

	"github.com/espolin/pay2house-go/signature"
)

// ErrorKind identifies which stage of a call or webhook delivery failed.
type ErrorKind string

const (
	KindTransport         ErrorKind = "transport_error"    // Connection, timeout or other network failure.
	KindMalformedResponse ErrorKind = "malformed_response" // Body is not JSON or lacks a status field.
	KindAPI               ErrorKind = "api_error"          // Server answered with status other than success.
	KindEmptyPayload      ErrorKind = "empty_payload"      // Webhook carried no blob.
	KindMalformedPayload  ErrorKind = "malformed_payload"  // Blob is not base64 or not iv|signature|ciphertext.
	KindSignatureMismatch ErrorKind = "signature_mismatch" // Blob or body HMAC did not match. Possible forgery.
	KindDecryptionFailed  ErrorKind = "decryption_failed"  // Bad IV, key length or padding.
)

const (
	defaultErrorCode    ErrorCode = "UNKNOWN_ERROR"
	defaultErrorMessage           = "Unknown error occurred"
)

// Error is the single error type returned by the client and the webhook
// helpers. Code and Message are only populated for KindAPI.
type Error struct {
	Kind     ErrorKind
	Code     ErrorCode
	Message  string
	Endpoint string

	err error
}

// Error makes *Error satisfy the stdlib error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	prefix := "pay2house"
	if e.Endpoint != "" {
		prefix = fmt.Sprintf("pay2house: %s", e.Endpoint)
	}
	switch {
	case e.Kind == KindAPI:
		return fmt.Sprintf("%s: %s: %s", prefix, e.Code, e.Message)
	case e.err != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, e.Kind, e.err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s: %s", prefix, e.Kind, e.Message)
	default:
		return fmt.Sprintf("%s: %s", prefix, e.Kind)
	}
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Category classifies the API error code. Non-API errors are Unclassified.
func (e *Error) Category() ErrorCategory {
	if e == nil || e.Kind != KindAPI {
		return CategoryUnclassified
	}
	return Classify(e.Code)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == kind
}

func newTransportError(endpoint string, cause error) *Error {
	return &Error{Kind: KindTransport, Endpoint: endpoint, err: cause}
}

func newMalformedResponseError(endpoint, message string, cause error) *Error {
	return &Error{Kind: KindMalformedResponse, Endpoint: endpoint, Message: message, err: cause}
}

func newAPIError(endpoint string, code ErrorCode, message string) *Error {
	if code == "" {
		code = defaultErrorCode
	}
	if message == "" {
		message = defaultErrorMessage
	}
	return &Error{Kind: KindAPI, Endpoint: endpoint, Code: code, Message: message}
}

// webhookError maps signature package sentinels onto the error taxonomy.
func webhookError(err error) *Error {
	kind := KindMalformedPayload
	switch {
	case errors.Is(err, signature.ErrEmptyPayload):
		kind = KindEmptyPayload
	case errors.Is(err, signature.ErrSignatureMismatch):
		kind = KindSignatureMismatch
	case errors.Is(err, signature.ErrDecryptionFailed):
		kind = KindDecryptionFailed
	}
	return &Error{Kind: kind, err: err}
}
