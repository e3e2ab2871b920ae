package pay2house

// ErrorCode is a machine-readable failure code returned in the envelope's
// code field.
type ErrorCode string

const (
	InvalidToken                ErrorCode = "INVALID_TOKEN"
	InvalidAPIKey               ErrorCode = "INVALID_API_KEY"
	APIKeyNotFound              ErrorCode = "API_KEY_NOT_FOUND"
	InactiveAPIKey              ErrorCode = "INACTIVE_API_KEY"
	SignatureDecodingFailed     ErrorCode = "SIGNATURE_DECODING_FAILED"
	InvalidSignatureData        ErrorCode = "INVALID_SIGNATURE_DATA"
	ExpiredSignature            ErrorCode = "EXPIRED_SIGNATURE"
	MismatchedSignatureIssuer   ErrorCode = "MISMATCHED_SIGNATURE_ISSUER"
	SignatureVerificationFailed ErrorCode = "SIGNATURE_VERIFICATION_FAILED"

	InsufficientSenderBalance   ErrorCode = "INSUFFICIENT_SENDER_BALANCE"
	AmountExceedsSenderBalance  ErrorCode = "AMOUNT_EXCEEDS_SENDER_BALANCE"
	InsufficientBalanceAfterFee ErrorCode = "INSUFFICIENT_BALANCE_AFTER_FEE"
	InsufficientBalance         ErrorCode = "INSUFFICIENT_BALANCE"

	InvalidExternalNumber ErrorCode = "INVALID_EXTERNAL_NUMBER"
	InvalidAmount         ErrorCode = "INVALID_AMOUNT"
	InvalidCurrencyCode   ErrorCode = "INVALID_CURRENCY_CODE"
	InvalidDescription    ErrorCode = "INVALID_DESCRIPTION"
	InvalidReturnURL      ErrorCode = "INVALID_RETURN_URL"
	InvalidCancelURL      ErrorCode = "INVALID_CANCEL_URL"
	InvalidPayerEmail     ErrorCode = "INVALID_PAYER_EMAIL"
	InvalidComment        ErrorCode = "INVALID_COMMENT"
	InvalidNameWallet     ErrorCode = "INVALID_NAME_WALLET"
	InvalidPaymentMethod  ErrorCode = "INVALID_PAYMENT_METHOD"

	UnknownError ErrorCode = defaultErrorCode
)

// ErrorCategory groups error codes by how a caller is likely to react.
type ErrorCategory string

const (
	CategoryAuthentication    ErrorCategory = "authentication"
	CategoryInsufficientFunds ErrorCategory = "insufficient_funds"
	CategoryValidation        ErrorCategory = "validation"
	CategoryUnclassified      ErrorCategory = "unclassified"
)

var (
	authenticationCodes = map[ErrorCode]struct{}{
		InvalidToken:                {},
		InvalidAPIKey:               {},
		APIKeyNotFound:              {},
		InactiveAPIKey:              {},
		SignatureDecodingFailed:     {},
		InvalidSignatureData:        {},
		ExpiredSignature:            {},
		MismatchedSignatureIssuer:   {},
		SignatureVerificationFailed: {},
	}
	insufficientFundsCodes = map[ErrorCode]struct{}{
		InsufficientSenderBalance:   {},
		AmountExceedsSenderBalance:  {},
		InsufficientBalanceAfterFee: {},
		InsufficientBalance:         {},
	}
	validationCodes = map[ErrorCode]struct{}{
		InvalidExternalNumber: {},
		InvalidAmount:         {},
		InvalidCurrencyCode:   {},
		InvalidDescription:    {},
		InvalidReturnURL:      {},
		InvalidCancelURL:      {},
		InvalidPayerEmail:     {},
		InvalidComment:        {},
		InvalidNameWallet:     {},
		InvalidPaymentMethod:  {},
	}
)

// Classify returns the first category whose table contains code.
func Classify(code ErrorCode) ErrorCategory {
	if _, ok := authenticationCodes[code]; ok {
		return CategoryAuthentication
	}
	if _, ok := insufficientFundsCodes[code]; ok {
		return CategoryInsufficientFunds
	}
	if _, ok := validationCodes[code]; ok {
		return CategoryValidation
	}
	return CategoryUnclassified
}
