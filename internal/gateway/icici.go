package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	iciciProductionURL = "https://eazypay.icicibank.com/EazyPG"
	iciciSandboxURL    = "https://eazypaytest.icicibank.com/EazyPG"

	// Eazypay reports E000 for a captured transaction.
	iciciSuccessCode = "E000"
)

type iciciAdapter struct {
	creds Credentials
}

func newICICIAdapter(creds Credentials) (Adapter, error) {
	if creds.MerchantID == "" || creds.SecretKey == "" {
		return nil, fmt.Errorf("%w: ICICI Eazypay needs merchant id and secret key", ErrMissingCredentials)
	}
	return &iciciAdapter{creds: creds}, nil
}

func (a *iciciAdapter) Provider() Provider {
	return ProviderICICIEazypay
}

func (a *iciciAdapter) endpoint() string {
	if a.creds.TestMode {
		return iciciSandboxURL
	}
	return iciciProductionURL
}

// checksum is HMAC-SHA256 over the pipe-joined mandatory fields, hex
// encoded. Field order must match what the callback verifier recomputes.
func (a *iciciAdapter) checksum(fields ...string) string {
	mac := hmac.New(sha256.New, []byte(a.creds.SecretKey))
	mac.Write([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *iciciAdapter) InitiatePayment(req InitiateRequest) (*Redirect, error) {
	amount := formatAmount(req.Amount)

	params := map[string]string{
		"merchantid": a.creds.MerchantID,
		"orderid":    req.OrderID,
		"amount":     amount,
		"payername":  req.StudentName,
		"payeremail": req.Email,
		"payerphone": req.Phone,
		"returnurl":  req.ReturnURL,
	}
	params["checksum"] = a.checksum(a.creds.MerchantID, req.OrderID, amount, req.ReturnURL)

	return &Redirect{
		URL:    a.endpoint(),
		Method: "POST",
		Params: params,
	}, nil
}

func (a *iciciAdapter) VerifyCallback(params map[string]string) (*CallbackResult, error) {
	if err := requireFields(params, "orderid", "amount", "ResponseCode", "checksum"); err != nil {
		return nil, err
	}

	expected := a.checksum(params["orderid"], params["amount"], params["ResponseCode"], params["transactionid"])
	if !hmac.Equal([]byte(expected), []byte(params["checksum"])) {
		return nil, ErrChecksumMismatch
	}

	return &CallbackResult{
		OrderID:           params["orderid"],
		BankTransactionID: params["transactionid"],
		ResponseCode:      params["ResponseCode"],
		ResponseMessage:   params["ResponseMessage"],
		Amount:            parseAmount(params["amount"]),
		Success:           params["ResponseCode"] == iciciSuccessCode,
	}, nil
}

func (a *iciciAdapter) signCallback(params map[string]string) {
	params["checksum"] = a.checksum(params["orderid"], params["amount"], params["ResponseCode"], params["transactionid"])
}
