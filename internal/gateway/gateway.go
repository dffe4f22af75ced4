package gateway

import (
	"errors"
	"fmt"
	"strconv"
)

// Provider identifies one supported bank gateway. The set is closed:
// adding a bank means adding a constant, an adapter file and a factory
// case, all checked at compile time.
type Provider string

const (
	ProviderICICIEazypay Provider = "ICICI_EAZYPAY"
	ProviderSBICollect   Provider = "SBI_COLLECT"
	ProviderHDFCSmartHub Provider = "HDFC_SMARTHUB"
	ProviderAxisEasyPay  Provider = "AXIS_EASYPAY"
)

var (
	ErrUnknownProvider    = errors.New("unknown payment provider")
	ErrMissingCredentials = errors.New("incomplete gateway credentials")
	ErrChecksumMismatch   = errors.New("checksum verification failed")
	ErrMissingField       = errors.New("callback payload missing required field")
)

func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderICICIEazypay, ProviderSBICollect, ProviderHDFCSmartHub, ProviderAxisEasyPay:
		return Provider(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

func (p Provider) String() string {
	return string(p)
}

// Credentials holds the per-school secrets stored in payment settings.
// Which fields are mandatory depends on the provider.
type Credentials struct {
	MerchantID string
	AccessCode string
	SecretKey  string
	WorkingKey string
	TestMode   bool
}

// InitiateRequest carries the uniform initiation contract every adapter
// translates into its bank-specific form post.
type InitiateRequest struct {
	OrderID     string
	Amount      float64
	StudentName string
	Email       string
	Phone       string
	ReturnURL   string
}

// Redirect describes the browser redirect the payer must follow: a form
// POST (or GET) of Params to URL.
type Redirect struct {
	URL    string            `json:"url"`
	Method string            `json:"method"`
	Params map[string]string `json:"params"`
}

// CallbackResult is the normalised outcome of a verified bank callback.
// An adapter only returns it when the checksum matched; Success reflects
// the bank's response code, not the verification.
type CallbackResult struct {
	OrderID           string
	BankTransactionID string
	ResponseCode      string
	ResponseMessage   string
	Amount            float64
	Success           bool
}

// Adapter is the uniform initiate/verify contract one bank implements.
type Adapter interface {
	Provider() Provider
	InitiatePayment(req InitiateRequest) (*Redirect, error)
	VerifyCallback(params map[string]string) (*CallbackResult, error)
}

// NewAdapter maps a provider to its adapter. Unknown providers and
// missing secrets are configuration errors for the tenant admin, never
// something the payer should see.
func NewAdapter(provider Provider, creds Credentials) (Adapter, error) {
	switch provider {
	case ProviderICICIEazypay:
		return newICICIAdapter(creds)
	case ProviderSBICollect:
		return newSBIAdapter(creds)
	case ProviderHDFCSmartHub:
		return newHDFCAdapter(creds)
	case ProviderAxisEasyPay:
		return newAxisAdapter(creds)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// callbackSigner produces the checksum a bank would attach to its
// callback payload. Implemented by every adapter; used by the dev-tools
// simulator and the round-trip tests, never on the production path.
type callbackSigner interface {
	signCallback(params map[string]string)
}

// SignCallback injects the provider's callback checksum into params,
// mimicking what the bank server does before posting to us.
func SignCallback(provider Provider, creds Credentials, params map[string]string) (map[string]string, error) {
	adapter, err := NewAdapter(provider, creds)
	if err != nil {
		return nil, err
	}
	signer, ok := adapter.(callbackSigner)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no callback signer", ErrUnknownProvider, provider)
	}
	signer.signCallback(params)
	return params, nil
}

// CallbackOrderID extracts the order correlation ID from a raw callback
// payload before verification. Needed to locate the payment row (and with
// it the tenant's secret) that the checksum is then verified against.
func CallbackOrderID(provider Provider, params map[string]string) string {
	switch provider {
	case ProviderICICIEazypay:
		return params["orderid"]
	case ProviderSBICollect:
		return params["order_no"]
	case ProviderHDFCSmartHub:
		return params["order_id"]
	case ProviderAxisEasyPay:
		return params["ORDERID"]
	}
	return ""
}

// CallbackParams builds an unsigned callback payload with the field
// names and response codes the given bank uses. Combined with
// SignCallback it reproduces a full bank callback for the simulator.
func CallbackParams(provider Provider, orderID, amount, transactionID string, success bool) map[string]string {
	switch provider {
	case ProviderICICIEazypay:
		code, msg := "E001", "Transaction Failed"
		if success {
			code, msg = iciciSuccessCode, "Transaction Successful"
		}
		return map[string]string{
			"orderid":         orderID,
			"amount":          amount,
			"transactionid":   transactionID,
			"ResponseCode":    code,
			"ResponseMessage": msg,
		}
	case ProviderSBICollect:
		status := "FAIL"
		if success {
			status = sbiStatusSuccess
		}
		return map[string]string{
			"order_no": orderID,
			"amount":   amount,
			"ref_no":   transactionID,
			"status":   status,
			"remarks":  "simulated callback",
		}
	case ProviderHDFCSmartHub:
		code := "0399"
		if success {
			code = hdfcSuccessCode
		}
		return map[string]string{
			"order_id":       orderID,
			"amount":         amount,
			"txn_id":         transactionID,
			"status_code":    code,
			"status_message": "simulated callback",
		}
	case ProviderAxisEasyPay:
		code := "999"
		if success {
			code = axisSuccessCode
		}
		return map[string]string{
			"ORDERID":  orderID,
			"AMOUNT":   amount,
			"TXNID":    transactionID,
			"RESPCODE": code,
			"RESPMSG":  "simulated callback",
		}
	}
	return nil
}

// formatAmount renders amounts the way the banks expect them: two
// decimal places, no grouping.
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func parseAmount(s string) float64 {
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return amount
}

func requireFields(params map[string]string, names ...string) error {
	for _, name := range names {
		if params[name] == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}
	return nil
}
