// Package signature implements the Pay2.House request signing and webhook
// verification primitives. Every function takes its secret explicitly and
// performs no I/O, so the package can be exercised with fixed vectors.
package signature

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	canonicaljson "github.com/gibson042/canonicaljson-go"
)

var (
	// ErrEmptyPayload is returned when a webhook carries no blob at all.
	ErrEmptyPayload = errors.New("signature: empty webhook payload")
	// ErrMalformedPayload is returned when the blob is not base64 or does not
	// split into exactly iv|signature|ciphertext.
	ErrMalformedPayload = errors.New("signature: malformed webhook payload")
	// ErrSignatureMismatch means the blob HMAC does not match. Treat it as a
	// forgery attempt.
	ErrSignatureMismatch = errors.New("signature: webhook signature mismatch")
	// ErrDecryptionFailed covers bad IV/key lengths and invalid padding.
	ErrDecryptionFailed = errors.New("signature: webhook decryption failed")
)

// Params is the set of named values signed and sent with an API call.
// Values may be strings, numbers, booleans, or nested slices and maps.
type Params map[string]any

// Filter returns a copy of params without null and empty-string values.
// Typed nil pointers, slices and maps count as null, and so does any string
// kind of length zero. Numeric zero and false are kept.
func Filter(params Params) Params {
	out := make(Params, len(params))
	for k, v := range params {
		if isAbsent(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func isAbsent(v any) bool {
	rv, ok := indirect(v)
	if !ok {
		return true
	}
	if rv.Kind() == reflect.String && rv.Len() == 0 {
		return true
	}
	return false
}

// indirect follows pointers and interfaces. It reports false when a nil is
// reached, or when v is a nil map or slice.
func indirect(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return rv, false
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return rv, false
		}
	}
	return rv, true
}

// FormatValue renders a parameter value the way it appears in the canonical
// string and on the wire. Scalars, including named string and number types
// and pointers to them, render as literals. Slices, maps and structs render
// as canonical JSON (see [CreateToken] for its number format). Null renders
// as "".
func FormatValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	}
	rv, ok := indirect(v)
	if !ok {
		return "", nil
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), nil
	}
	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return s.String(), nil
	}
	raw, err := canonicaljson.Marshal(rv.Interface())
	if err != nil {
		return "", fmt.Errorf("signature: encode value: %w", err)
	}
	return string(raw), nil
}

// CanonicalString builds the `key=value&...` string that CreateToken signs.
// Keys are sorted byte-wise after filtering.
func CanonicalString(params Params) (string, error) {
	filtered := Filter(params)
	keys := make([]string, 0, len(filtered))
	for k := range filtered {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		value, err := FormatValue(filtered[k])
		if err != nil {
			return "", fmt.Errorf("signature: parameter %q: %w", k, err)
		}
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(value)
	}
	return b.String(), nil
}

// CreateToken returns base64(HMAC-SHA256(CanonicalString(params), secretKey)).
// The result depends only on the filtered content, never on insertion order.
// An error is only possible when a nested value cannot be JSON encoded.
//
// Nested slices and maps are signed as canonical JSON: object keys sorted,
// no whitespace, and non-integer numbers in exponent form, so 1.5 becomes
// 1.5E0 and 10.0 stays 10. This differs from PHP json_encode, which keeps
// insertion order, writes 1.5 and escapes "/" and non-ASCII text. The server
// side canonicalization of nested values is not published, so callers that
// need it should send nested values pre-encoded as strings.
func CreateToken(params Params, secretKey string) (string, error) {
	canonical, err := CanonicalString(params)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, []byte(secretKey))
	_, _ = mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// VerifyWebhookSignature reports whether signature is the hex HMAC-SHA256 of
// payload under secretKey. The comparison is constant time.
func VerifyWebhookSignature(signature, payload, secretKey string) bool {
	expected := hexHMAC([]byte(payload), secretKey)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// DecryptWebhook authenticates and decrypts a webhook blob of the form
// base64(iv "|" hex-hmac "|" ciphertext), where iv and ciphertext are base64,
// the HMAC covers iv "|" ciphertext and the cipher is AES-256-CBC keyed by
// SHA-256(secretKey). The HMAC is checked before any decryption happens.
func DecryptWebhook(blob, secretKey string) ([]byte, error) {
	if blob == "" {
		return nil, ErrEmptyPayload
	}
	decoded, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: decode blob: %v", ErrMalformedPayload, err)
	}
	parts := bytes.Split(decoded, []byte("|"))
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 parts got %d", ErrMalformedPayload, len(parts))
	}
	iv, sig, ciphertext := parts[0], parts[1], parts[2]

	signed := make([]byte, 0, len(iv)+1+len(ciphertext))
	signed = append(signed, iv...)
	signed = append(signed, '|')
	signed = append(signed, ciphertext...)
	if !hmac.Equal([]byte(hexHMAC(signed, secretKey)), sig) {
		return nil, ErrSignatureMismatch
	}

	key := sha256.Sum256([]byte(secretKey))
	rawIV, err := base64.StdEncoding.DecodeString(string(iv))
	if err != nil {
		return nil, fmt.Errorf("%w: decode iv: %v", ErrDecryptionFailed, err)
	}
	rawCiphertext, err := base64.StdEncoding.DecodeString(string(ciphertext))
	if err != nil {
		return nil, fmt.Errorf("%w: decode ciphertext: %v", ErrDecryptionFailed, err)
	}
	plaintext, err := decryptCBC(key[:], rawIV, rawCiphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// SealWebhook is the inverse of DecryptWebhook. It encrypts plaintext under a
// random IV and returns the blob a Pay2.House delivery would carry.
func SealWebhook(plaintext []byte, secretKey string) (string, error) {
	key := sha256.Sum256([]byte(secretKey))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", err
	}
	iv := make([]byte, block.BlockSize())
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("signature: read iv: %w", err)
	}
	pad := block.BlockSize() - len(plaintext)%block.BlockSize()
	padded := make([]byte, len(plaintext), len(plaintext)+pad)
	copy(padded, plaintext)
	padded = append(padded, bytes.Repeat([]byte{byte(pad)}, pad)...)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	ivPart := base64.StdEncoding.EncodeToString(iv)
	ctPart := base64.StdEncoding.EncodeToString(ciphertext)
	sig := hexHMAC([]byte(ivPart+"|"+ctPart), secretKey)
	return base64.StdEncoding.EncodeToString([]byte(ivPart + "|" + sig + "|" + ctPart)), nil
}

func decryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", block.BlockSize(), len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(ciphertext))
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return unpad(out, block.BlockSize())
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}

func hexHMAC(payload []byte, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
