package pay2house

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/espolin/pay2house-go/signature"
)

const statusSuccess = "success"

// Envelope is the decoded top-level JSON object of an API response. Numbers
// are kept as json.Number.
type Envelope map[string]any

// Status returns the envelope status field.
func (e Envelope) Status() string {
	return e.String("status")
}

// Code returns the envelope code field.
func (e Envelope) Code() ErrorCode {
	return ErrorCode(e.String("code"))
}

// Message returns the envelope msg field.
func (e Envelope) Message() string {
	return e.String("msg")
}

// String renders the named field as a string, or "" when absent.
func (e Envelope) String(key string) string {
	v, ok := e[key]
	if !ok {
		return ""
	}
	s, err := signature.FormatValue(v)
	if err != nil {
		return ""
	}
	return s
}

func decodeEnvelope(endpoint string, body []byte) (Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var env Envelope
	if err := dec.Decode(&env); err != nil {
		return nil, newMalformedResponseError(endpoint, "invalid JSON response from API", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, newMalformedResponseError(endpoint, "unexpected data after JSON body", nil)
	}
	if env == nil {
		return nil, newMalformedResponseError(endpoint, "response is not a JSON object", nil)
	}
	if status, ok := env["status"]; !ok || status == nil {
		return nil, newMalformedResponseError(endpoint, "invalid API response format", nil)
	}
	if env.Status() != statusSuccess {
		return nil, newAPIError(endpoint, env.Code(), env.Message())
	}
	return env, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

type webhookReply struct {
	Status  string    `json:"status"`
	Code    ErrorKind `json:"code,omitempty"`
	Message string    `json:"msg,omitempty"`
}

func writeWebhookError(w http.ResponseWriter, status int, kind ErrorKind, message string) {
	writeJSON(w, status, webhookReply{Status: "error", Code: kind, Message: message})
}
