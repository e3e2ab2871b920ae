package pay2house

import (
	"context"

	"github.com/espolin/pay2house-go/signature"
)

const (
	endpointCreatePayment  = "create_payment"
	endpointPaymentDetails = "show_payment_details"
)

// PaymentMethod restricts which methods the payer may use.
type PaymentMethod string

const (
	PaymentMethodAll       PaymentMethod = "ALL"
	PaymentMethodPay2House PaymentMethod = "PAY2_HOUSE"
	PaymentMethodUSDTTRC20 PaymentMethod = "USDT_TRC20"
	PaymentMethodCards     PaymentMethod = "CARDS"
)

// PaymentStatus is the lifecycle state of an invoice.
type PaymentStatus string

const (
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusOverdue   PaymentStatus = "overdue"
)

// DefaultDeadlineSeconds applies when CreatePaymentRequest.DeadlineSeconds is zero.
const DefaultDeadlineSeconds = 600

// CreatePaymentRequest opens a new invoice.
type CreatePaymentRequest struct {
	ExternalNumber  string        `json:"external_number" validate:"required"`
	Amount          float64       `json:"amount" validate:"gt=0"`
	CurrencyCode    string        `json:"currency_code" validate:"required"`
	MerchantID      string        `json:"merchant_id" validate:"required"`
	Description     string        `json:"description" validate:"required"`
	DeadlineSeconds int           `json:"deadline_seconds" validate:"omitempty,gte=60,lte=86400"`
	ReturnURL       string        `json:"return_url" validate:"required,url"`
	CancelURL       string        `json:"cancel_url" validate:"required,url"`
	HandlingFee     *float64      `json:"handling_fee,omitempty"`
	PayerEmail      *string       `json:"payer_email,omitempty" validate:"omitempty,email"`
	PaymentMethod   PaymentMethod `json:"payment_method,omitempty" validate:"omitempty,oneof=ALL PAY2_HOUSE USDT_TRC20 CARDS"`
}

// Validate checks the request before it is signed.
func (r CreatePaymentRequest) Validate() error {
	return validateStruct(r)
}

// Params returns the wire parameters with defaults applied.
func (r CreatePaymentRequest) Params() signature.Params {
	deadline := r.DeadlineSeconds
	if deadline == 0 {
		deadline = DefaultDeadlineSeconds
	}
	method := r.PaymentMethod
	if method == "" {
		method = PaymentMethodAll
	}
	p := signature.Params{
		"external_number":  r.ExternalNumber,
		"amount":           r.Amount,
		"currency_code":    r.CurrencyCode,
		"merchant_id":      r.MerchantID,
		"description":      r.Description,
		"deadline_seconds": deadline,
		"return_url":       r.ReturnURL,
		"cancel_url":       r.CancelURL,
		"payment_method":   string(method),
	}
	if r.HandlingFee != nil {
		p["handling_fee"] = *r.HandlingFee
	}
	if r.PayerEmail != nil {
		p["payer_email"] = *r.PayerEmail
	}
	return p
}

// CreatePaymentResponse carries the invoice and the payer redirect URL.
type CreatePaymentResponse struct {
	Status        string
	Code          string
	InvoiceNumber string
	ApprovalURL   string
}

var createPaymentResponseFields = fieldTable(
	required("status", func(r *CreatePaymentResponse) any { return &r.Status }),
	optional("code", "", func(r *CreatePaymentResponse) any { return &r.Code }),
	required("invoice_number", func(r *CreatePaymentResponse) any { return &r.InvoiceNumber }),
	required("approval_url", func(r *CreatePaymentResponse) any { return &r.ApprovalURL }),
)

// PaymentDetailsRequest looks up an invoice.
type PaymentDetailsRequest struct {
	MerchantID    string `json:"merchant_id" validate:"required"`
	InvoiceNumber string `json:"invoice_number" validate:"required"`
}

// Validate checks the request before it is signed.
func (r PaymentDetailsRequest) Validate() error {
	return validateStruct(r)
}

// Params returns the wire parameters.
func (r PaymentDetailsRequest) Params() signature.Params {
	return signature.Params{
		"merchant_id":    r.MerchantID,
		"invoice_number": r.InvoiceNumber,
	}
}

// PaymentDetailsResponse describes an invoice.
type PaymentDetailsResponse struct {
	Status         string
	Code           string
	InvoiceNumber  string
	CurrencyCode   string
	CurrencySymbol string
	ExternalNumber string
	Description    string
	Amount         float64
	HandlingFee    float64
	PaymentStatus  PaymentStatus
}

var paymentDetailsResponseFields = fieldTable(
	required("status", func(r *PaymentDetailsResponse) any { return &r.Status }),
	optional("code", "", func(r *PaymentDetailsResponse) any { return &r.Code }),
	required("invoice_number", func(r *PaymentDetailsResponse) any { return &r.InvoiceNumber }),
	required("currency_code", func(r *PaymentDetailsResponse) any { return &r.CurrencyCode }),
	optional("currency_symbol", "", func(r *PaymentDetailsResponse) any { return &r.CurrencySymbol }),
	optional("external_number", "", func(r *PaymentDetailsResponse) any { return &r.ExternalNumber }),
	optional("description", "", func(r *PaymentDetailsResponse) any { return &r.Description }),
	required("amount", func(r *PaymentDetailsResponse) any { return &r.Amount }),
	optional("handling_fee", "0", func(r *PaymentDetailsResponse) any { return &r.HandlingFee }),
	required("payment_status", func(r *PaymentDetailsResponse) any { return &r.PaymentStatus }),
)

// IsPaid reports whether the invoice has been paid.
func (r *PaymentDetailsResponse) IsPaid() bool {
	return r.PaymentStatus == PaymentStatusPaid
}

// IsPending reports whether the invoice still awaits payment.
func (r *PaymentDetailsResponse) IsPending() bool {
	return r.PaymentStatus == PaymentStatusPending
}

// IsCancelled is true for cancelled and overdue invoices.
func (r *PaymentDetailsResponse) IsCancelled() bool {
	return r.PaymentStatus == PaymentStatusCancelled || r.PaymentStatus == PaymentStatusOverdue
}

// TotalAmount is the invoice amount plus the handling fee.
func (r *PaymentDetailsResponse) TotalAmount() float64 {
	return r.Amount + r.HandlingFee
}

// CreatePayment validates req and opens a new invoice.
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	env, err := c.Post(ctx, endpointCreatePayment, req.Params())
	if err != nil {
		return nil, err
	}
	var resp CreatePaymentResponse
	if err := decodeFields(endpointCreatePayment, env, createPaymentResponseFields, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPaymentDetails fetches the current state of an invoice.
func (c *Client) GetPaymentDetails(ctx context.Context, req PaymentDetailsRequest) (*PaymentDetailsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	env, err := c.Post(ctx, endpointPaymentDetails, req.Params())
	if err != nil {
		return nil, err
	}
	var resp PaymentDetailsResponse
	if err := decodeFields(endpointPaymentDetails, env, paymentDetailsResponseFields, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IsPaymentPaid reports whether the invoice has been paid.
func (c *Client) IsPaymentPaid(ctx context.Context, merchantID, invoiceNumber string) (bool, error) {
	details, err := c.GetPaymentDetails(ctx, PaymentDetailsRequest{
		MerchantID:    merchantID,
		InvoiceNumber: invoiceNumber,
	})
	if err != nil {
		return false, err
	}
	return details.IsPaid(), nil
}
