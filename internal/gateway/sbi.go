package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	sbiProductionURL = "https://www.onlinesbi.sbi/sbicollect/payment"
	sbiSandboxURL    = "https://test.onlinesbi.sbi/sbicollect/payment"

	sbiStatusSuccess = "SUCCESS"
)

type sbiAdapter struct {
	creds Credentials
}

func newSBIAdapter(creds Credentials) (Adapter, error) {
	if creds.MerchantID == "" || creds.SecretKey == "" {
		return nil, fmt.Errorf("%w: SBI Collect needs merchant code and secret key", ErrMissingCredentials)
	}
	return &sbiAdapter{creds: creds}, nil
}

func (a *sbiAdapter) Provider() Provider {
	return ProviderSBICollect
}

func (a *sbiAdapter) endpoint() string {
	if a.creds.TestMode {
		return sbiSandboxURL
	}
	return sbiProductionURL
}

// SBI signs a query-string style canonical form and base64-encodes the
// HMAC-SHA256 digest into secure_hash.
func (a *sbiAdapter) secureHash(canonical string) string {
	mac := hmac.New(sha256.New, []byte(a.creds.SecretKey))
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (a *sbiAdapter) InitiatePayment(req InitiateRequest) (*Redirect, error) {
	amount := formatAmount(req.Amount)

	canonical := fmt.Sprintf("merchant_code=%s&order_no=%s&amount=%s&return_url=%s",
		a.creds.MerchantID, req.OrderID, amount, req.ReturnURL)

	params := map[string]string{
		"merchant_code": a.creds.MerchantID,
		"order_no":      req.OrderID,
		"amount":        amount,
		"payer_name":    req.StudentName,
		"payer_email":   req.Email,
		"payer_mobile":  req.Phone,
		"return_url":    req.ReturnURL,
		"secure_hash":   a.secureHash(canonical),
	}

	return &Redirect{
		URL:    a.endpoint(),
		Method: "POST",
		Params: params,
	}, nil
}

func (a *sbiAdapter) VerifyCallback(params map[string]string) (*CallbackResult, error) {
	if err := requireFields(params, "order_no", "amount", "status", "secure_hash"); err != nil {
		return nil, err
	}

	canonical := fmt.Sprintf("order_no=%s&amount=%s&status=%s&ref_no=%s",
		params["order_no"], params["amount"], params["status"], params["ref_no"])
	if !hmac.Equal([]byte(a.secureHash(canonical)), []byte(params["secure_hash"])) {
		return nil, ErrChecksumMismatch
	}

	return &CallbackResult{
		OrderID:           params["order_no"],
		BankTransactionID: params["ref_no"],
		ResponseCode:      params["status"],
		ResponseMessage:   params["remarks"],
		Amount:            parseAmount(params["amount"]),
		Success:           params["status"] == sbiStatusSuccess,
	}, nil
}

func (a *sbiAdapter) signCallback(params map[string]string) {
	canonical := fmt.Sprintf("order_no=%s&amount=%s&status=%s&ref_no=%s",
		params["order_no"], params["amount"], params["status"], params["ref_no"])
	params["secure_hash"] = a.secureHash(canonical)
}
