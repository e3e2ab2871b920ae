package pay2house

import (
	"context"

	"github.com/espolin/pay2house-go/signature"
)

const (
	endpointWallets         = "wallets"
	endpointCreateWallet    = "wallets/create"
	endpointWalletDetails   = "wallets/details"
	endpointWalletStatement = "wallets/statement"
)

// GetWalletsRequest filters the wallet list. DeleteFlag 1 lists deleted
// wallets instead of active ones.
type GetWalletsRequest struct {
	DeleteFlag   int    `json:"delete_flag" validate:"oneof=0 1"`
	CurrencyCode string `json:"currency_code,omitempty" validate:"omitempty,oneof=USD EUR USDT"`
}

// Validate checks the request without sending it.
func (r GetWalletsRequest) Validate() error {
	return validateStruct(r)
}

// Params returns the wire parameters.
func (r GetWalletsRequest) Params() signature.Params {
	return signature.Params{
		"delete_flag":   r.DeleteFlag,
		"currency_code": r.CurrencyCode,
	}
}

// CreateWalletRequest opens a wallet in one of the supported currencies.
type CreateWalletRequest struct {
	Name         string `json:"name" validate:"required,min=3"`
	CurrencyCode string `json:"currency_code" validate:"required,oneof=USD EUR USDT"`
}

// Validate checks the request without sending it.
func (r CreateWalletRequest) Validate() error {
	return validateStruct(r)
}

// Params returns the wire parameters.
func (r CreateWalletRequest) Params() signature.Params {
	return signature.Params{
		"name":          r.Name,
		"currency_code": r.CurrencyCode,
	}
}

type walletAccountRequest struct {
	AccountNumber string `json:"account_number" validate:"required"`
}

func (r walletAccountRequest) Params() signature.Params {
	return signature.Params{"account_number": r.AccountNumber}
}

// Wallet is a wallet as returned by the list and details endpoints. Raw keeps
// every field of the object, including ones not mapped here.
type Wallet struct {
	AccountNumber string
	Name          string
	CurrencyCode  string
	Balance       float64
	Raw           Envelope
}

var walletFields = fieldTable(
	optional("account_number", "", func(w *Wallet) any { return &w.AccountNumber }),
	optional("name", "", func(w *Wallet) any { return &w.Name }),
	optional("currency_code", "", func(w *Wallet) any { return &w.CurrencyCode }),
	optional("balance", "0", func(w *Wallet) any { return &w.Balance }),
)

// UnmarshalJSON decodes one wallet object from a list response.
func (w *Wallet) UnmarshalJSON(data []byte) error {
	env, err := decodeObject(data)
	if err != nil {
		return err
	}
	if err := decodeFields(endpointWallets, env, walletFields, w); err != nil {
		return err
	}
	w.Raw = env
	return nil
}

type walletList struct {
	Wallets []Wallet
}

var walletListFields = fieldTable(
	optional("wallets", "", func(r *walletList) any { return &r.Wallets }),
)

func walletFromEnvelope(endpoint string, env Envelope) (*Wallet, error) {
	w := &Wallet{Raw: env}
	if err := decodeFields(endpoint, env, walletFields, w); err != nil {
		return nil, err
	}
	return w, nil
}

// GetWallets lists wallets. A response without a wallets key yields an
// empty list.
func (c *Client) GetWallets(ctx context.Context, req GetWalletsRequest) ([]Wallet, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	env, err := c.Post(ctx, endpointWallets, req.Params())
	if err != nil {
		return nil, err
	}
	var out walletList
	if err := decodeFields(endpointWallets, env, walletListFields, &out); err != nil {
		return nil, err
	}
	if out.Wallets == nil {
		return []Wallet{}, nil
	}
	return out.Wallets, nil
}

// CreateWallet opens a new wallet and returns it as echoed by the API.
func (c *Client) CreateWallet(ctx context.Context, req CreateWalletRequest) (*Wallet, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	env, err := c.Post(ctx, endpointCreateWallet, req.Params())
	if err != nil {
		return nil, err
	}
	return walletFromEnvelope(endpointCreateWallet, env)
}

// GetWalletDetails fetches one wallet by account number.
func (c *Client) GetWalletDetails(ctx context.Context, accountNumber string) (*Wallet, error) {
	req := walletAccountRequest{AccountNumber: accountNumber}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	env, err := c.Post(ctx, endpointWalletDetails, req.Params())
	if err != nil {
		return nil, err
	}
	return walletFromEnvelope(endpointWalletDetails, env)
}

// GetWalletStatement returns the download URL of the wallet's CSV statement,
// or "" when the API does not provide one.
func (c *Client) GetWalletStatement(ctx context.Context, accountNumber string) (string, error) {
	req := walletAccountRequest{AccountNumber: accountNumber}
	if err := validateStruct(req); err != nil {
		return "", err
	}
	env, err := c.Post(ctx, endpointWalletStatement, req.Params())
	if err != nil {
		return "", err
	}
	return env.String("download_url"), nil
}

// GetWalletBalance is a shortcut over GetWalletDetails.
func (c *Client) GetWalletBalance(ctx context.Context, accountNumber string) (float64, error) {
	w, err := c.GetWalletDetails(ctx, accountNumber)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// WalletExists reports whether details can be fetched for accountNumber.
func (c *Client) WalletExists(ctx context.Context, accountNumber string) bool {
	_, err := c.GetWalletDetails(ctx, accountNumber)
	return err == nil
}
