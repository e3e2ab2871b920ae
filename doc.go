// Package pay2house is a Go client for the Pay2.House payment API.
//
// Every call is a form-encoded POST signed with an HMAC-SHA256 token over the
// canonical parameter string (see package signature). Responses are JSON
// envelopes whose status field decides between a result and an [*Error].
//
// # Client
//
// Use [NewClient] or [NewClientFromConfig] and call the typed operations:
// [Client.CreatePayment], [Client.GetPaymentDetails], [Client.CreateTransfer],
// [Client.GetTransferHistory], [Client.GetWallets] and friends. [Client.Post]
// is the low-level entry point for endpoints without a typed wrapper.
//
// # Errors
//
// Failures are reported as [*Error] with a [ErrorKind]. API rejections carry
// the server code, which [Classify] maps to authentication, insufficient
// funds or validation groups.
//
// # Webhooks
//
// [NewWebhookHandler] exposes an http.Handler that authenticates and decrypts
// sealed deliveries (base64 of iv|hmac|ciphertext, AES-256-CBC) before
// passing the plaintext to a [WebhookProvider].
package pay2house
