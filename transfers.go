package pay2house

import (
	"context"
	"time"

	"github.com/espolin/pay2house-go/signature"
)

const (
	endpointCreateTransfer  = "transfers/create"
	endpointTransferDetails = "transfers/details"
	endpointTransferHistory = "transfers"
)

// TransactionType is the direction of a transfer relative to the caller.
type TransactionType string

const (
	TransactionTypeIncoming   TransactionType = "incoming"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// TransactionStatus is the processing state of a transfer.
type TransactionStatus string

const (
	TransactionStatusInProcessing TransactionStatus = "in_processing"
	TransactionStatusConfirmed    TransactionStatus = "confirmed"
	TransactionStatusError        TransactionStatus = "error"
)

// MaxTransferAmount is the largest amount accepted for a single transfer.
const MaxTransferAmount = 1_000_000

// CreateTransferRequest moves funds between two internal P2U accounts.
type CreateTransferRequest struct {
	SenderAccount    string  `json:"sender_account" validate:"required,account"`
	RecipientAccount string  `json:"recipient_account" validate:"required,account,nefield=SenderAccount"`
	Amount           float64 `json:"amount" validate:"gt=0,lte=1000000"`
	Comment          string  `json:"comment,omitempty" validate:"max=500"`
}

// Validate checks the request without sending it.
func (r CreateTransferRequest) Validate() error {
	return validateStruct(r)
}

// Params returns the wire parameters. An empty comment is omitted.
func (r CreateTransferRequest) Params() signature.Params {
	return signature.Params{
		"sender_account":    r.SenderAccount,
		"recipient_account": r.RecipientAccount,
		"amount":            r.Amount,
		"comment":           r.Comment,
	}
}

// CreateTransferResponse carries the number assigned to a new transfer.
type CreateTransferResponse struct {
	Status            string
	Code              string
	TransactionNumber string
}

var createTransferResponseFields = fieldTable(
	required("status", func(r *CreateTransferResponse) any { return &r.Status }),
	optional("code", "", func(r *CreateTransferResponse) any { return &r.Code }),
	required("transaction_number", func(r *CreateTransferResponse) any { return &r.TransactionNumber }),
)

// TransferDetailsRequest looks up one transfer by number.
type TransferDetailsRequest struct {
	TransactionNumber string `json:"transaction_number" validate:"required"`
}

// Validate checks the request without sending it.
func (r TransferDetailsRequest) Validate() error {
	return validateStruct(r)
}

// Params returns the wire parameters.
func (r TransferDetailsRequest) Params() signature.Params {
	return signature.Params{"transaction_number": r.TransactionNumber}
}

// TransferDetailsResponse describes a single transfer.
type TransferDetailsResponse struct {
	Status            string
	Code              string
	TransactionNumber string
	TimeCreated       int64
	DateCreated       string
	SenderAccount     string
	RecipientAccount  string
	Amount            float64
	FeeAmount         float64
	CurrencyCode      string
	PaymentMethod     string
	ConfirmMethod     string
	PaymentType       string
	TransactionType   TransactionType
	TransactionStatus TransactionStatus
	Comment           string
	ErrorMessage      string
}

var transferDetailsResponseFields = fieldTable(
	required("status", func(r *TransferDetailsResponse) any { return &r.Status }),
	optional("code", "", func(r *TransferDetailsResponse) any { return &r.Code }),
	required("transaction_number", func(r *TransferDetailsResponse) any { return &r.TransactionNumber }),
	required("time_created", func(r *TransferDetailsResponse) any { return &r.TimeCreated }),
	optional("date_created", "", func(r *TransferDetailsResponse) any { return &r.DateCreated }),
	required("sender_account", func(r *TransferDetailsResponse) any { return &r.SenderAccount }),
	required("recipient_account", func(r *TransferDetailsResponse) any { return &r.RecipientAccount }),
	required("amount", func(r *TransferDetailsResponse) any { return &r.Amount }),
	optional("fee_amount", "0", func(r *TransferDetailsResponse) any { return &r.FeeAmount }),
	required("currency_code", func(r *TransferDetailsResponse) any { return &r.CurrencyCode }),
	optional("payment_method", "", func(r *TransferDetailsResponse) any { return &r.PaymentMethod }),
	optional("confirm_method", "", func(r *TransferDetailsResponse) any { return &r.ConfirmMethod }),
	optional("payment_type", "", func(r *TransferDetailsResponse) any { return &r.PaymentType }),
	required("transaction_type", func(r *TransferDetailsResponse) any { return &r.TransactionType }),
	required("transaction_status", func(r *TransferDetailsResponse) any { return &r.TransactionStatus }),
	optional("comment", "", func(r *TransferDetailsResponse) any { return &r.Comment }),
	optional("error_message", "", func(r *TransferDetailsResponse) any { return &r.ErrorMessage }),
)

// IsConfirmed reports whether the transfer has been confirmed.
func (r *TransferDetailsResponse) IsConfirmed() bool {
	return r.TransactionStatus == TransactionStatusConfirmed
}

// IsProcessing reports whether the transfer is still in processing.
func (r *TransferDetailsResponse) IsProcessing() bool {
	return r.TransactionStatus == TransactionStatusInProcessing
}

// HasError reports whether the transfer ended in the error state.
func (r *TransferDetailsResponse) HasError() bool {
	return r.TransactionStatus == TransactionStatusError
}

// IsOutgoing reports whether the transfer is a withdrawal.
func (r *TransferDetailsResponse) IsOutgoing() bool {
	return r.TransactionType == TransactionTypeWithdrawal
}

// IsIncoming reports whether the transfer was received.
func (r *TransferDetailsResponse) IsIncoming() bool {
	return r.TransactionType == TransactionTypeIncoming
}

// TotalAmount is the transfer amount plus its fee.
func (r *TransferDetailsResponse) TotalAmount() float64 {
	return r.Amount + r.FeeAmount
}

// CreatedAt converts TimeCreated from unix seconds.
func (r *TransferDetailsResponse) CreatedAt() time.Time {
	return time.Unix(r.TimeCreated, 0).UTC()
}

// TransferHistoryRequest pages through past transfers. Zero PerPage and
// Page mean 25 and 1.
type TransferHistoryRequest struct {
	PerPage         int               `json:"per_page" validate:"omitempty,gte=10,lte=100"`
	Page            int               `json:"page" validate:"gte=0"`
	TransactionType TransactionType   `json:"transaction_type,omitempty" validate:"omitempty,oneof=incoming withdrawal"`
	Status          TransactionStatus `json:"status,omitempty" validate:"omitempty,oneof=in_processing confirmed error"`
	// DateRange uses the form "DD.MM.YYYY - DD.MM.YYYY".
	DateRange string `json:"date_range,omitempty" validate:"omitempty,date_range"`
}

// Validate checks the request without sending it.
func (r TransferHistoryRequest) Validate() error {
	return validateStruct(r)
}

// Params returns the wire parameters with paging defaults applied.
func (r TransferHistoryRequest) Params() signature.Params {
	perPage, page := r.PerPage, r.Page
	if perPage == 0 {
		perPage = 25
	}
	if page == 0 {
		page = 1
	}
	return signature.Params{
		"per_page":         perPage,
		"page":             page,
		"transaction_type": string(r.TransactionType),
		"status":           string(r.Status),
		"date_range":       r.DateRange,
	}
}

// Transaction is one entry of the transfer history.
type Transaction struct {
	TransactionNumber string
	TimeCreated       int64
	DateCreated       string
	SenderAccount     string
	RecipientAccount  string
	Amount            float64
	FeeAmount         float64
	CurrencyCode      string
	TransactionType   TransactionType
	TransactionStatus TransactionStatus
	Comment           string
}

var transactionFields = fieldTable(
	required("transaction_number", func(t *Transaction) any { return &t.TransactionNumber }),
	optional("time_created", "0", func(t *Transaction) any { return &t.TimeCreated }),
	optional("date_created", "", func(t *Transaction) any { return &t.DateCreated }),
	optional("sender_account", "", func(t *Transaction) any { return &t.SenderAccount }),
	optional("recipient_account", "", func(t *Transaction) any { return &t.RecipientAccount }),
	optional("amount", "0", func(t *Transaction) any { return &t.Amount }),
	optional("fee_amount", "0", func(t *Transaction) any { return &t.FeeAmount }),
	optional("currency_code", "", func(t *Transaction) any { return &t.CurrencyCode }),
	optional("transaction_type", "", func(t *Transaction) any { return &t.TransactionType }),
	optional("transaction_status", "", func(t *Transaction) any { return &t.TransactionStatus }),
	optional("comment", "", func(t *Transaction) any { return &t.Comment }),
)

// UnmarshalJSON accepts amounts and timestamps as either JSON numbers or
// numeric strings.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	env, err := decodeObject(data)
	if err != nil {
		return err
	}
	return decodeFields(endpointTransferHistory, env, transactionFields, t)
}

// TransferHistoryResponse is one page of transfers. Transactions is never nil.
type TransferHistoryResponse struct {
	Status       string
	Code         string
	Count        int
	Transactions []Transaction
}

var transferHistoryResponseFields = fieldTable(
	required("status", func(r *TransferHistoryResponse) any { return &r.Status }),
	optional("code", "", func(r *TransferHistoryResponse) any { return &r.Code }),
	optional("count", "0", func(r *TransferHistoryResponse) any { return &r.Count }),
	optional("transactions", "", func(r *TransferHistoryResponse) any { return &r.Transactions }),
)

// CreateTransfer validates req and moves funds between accounts.
func (c *Client) CreateTransfer(ctx context.Context, req CreateTransferRequest) (*CreateTransferResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	env, err := c.Post(ctx, endpointCreateTransfer, req.Params())
	if err != nil {
		return nil, err
	}
	var resp CreateTransferResponse
	if err := decodeFields(endpointCreateTransfer, env, createTransferResponseFields, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTransferDetails fetches one transfer.
func (c *Client) GetTransferDetails(ctx context.Context, req TransferDetailsRequest) (*TransferDetailsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	env, err := c.Post(ctx, endpointTransferDetails, req.Params())
	if err != nil {
		return nil, err
	}
	var resp TransferDetailsResponse
	if err := decodeFields(endpointTransferDetails, env, transferDetailsResponseFields, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTransferHistory fetches one page of the transfer history.
func (c *Client) GetTransferHistory(ctx context.Context, req TransferHistoryRequest) (*TransferHistoryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	env, err := c.Post(ctx, endpointTransferHistory, req.Params())
	if err != nil {
		return nil, err
	}
	resp := TransferHistoryResponse{Transactions: []Transaction{}}
	if err := decodeFields(endpointTransferHistory, env, transferHistoryResponseFields, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IsTransferConfirmed reports whether the transfer reached the confirmed state.
func (c *Client) IsTransferConfirmed(ctx context.Context, transactionNumber string) (bool, error) {
	details, err := c.GetTransferDetails(ctx, TransferDetailsRequest{TransactionNumber: transactionNumber})
	if err != nil {
		return false, err
	}
	return details.IsConfirmed(), nil
}
