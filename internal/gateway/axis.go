package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	axisProductionURL = "https://easypay.axisbank.co.in/index.php/payment/initiate"
	axisSandboxURL    = "https://easypaytest.axisbank.co.in/index.php/payment/initiate"

	axisSuccessCode = "000"
)

type axisAdapter struct {
	creds Credentials
}

func newAxisAdapter(creds Credentials) (Adapter, error) {
	if creds.MerchantID == "" || creds.SecretKey == "" || creds.AccessCode == "" {
		return nil, fmt.Errorf("%w: Axis EasyPay needs merchant id, access code and secret key", ErrMissingCredentials)
	}
	return &axisAdapter{creds: creds}, nil
}

func (a *axisAdapter) Provider() Provider {
	return ProviderAxisEasyPay
}

func (a *axisAdapter) endpoint() string {
	if a.creds.TestMode {
		return axisSandboxURL
	}
	return axisProductionURL
}

// EasyPay keys HMAC-SHA512 with accessCode:secretKey over the
// caret-joined fields.
func (a *axisAdapter) checksum(fields ...string) string {
	key := a.creds.AccessCode + ":" + a.creds.SecretKey
	mac := hmac.New(sha512.New, []byte(key))
	mac.Write([]byte(strings.Join(fields, "^")))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *axisAdapter) InitiatePayment(req InitiateRequest) (*Redirect, error) {
	amount := formatAmount(req.Amount)

	params := map[string]string{
		"MERCHANTID":   a.creds.MerchantID,
		"ACCESSCODE":   a.creds.AccessCode,
		"ORDERID":      req.OrderID,
		"AMOUNT":       amount,
		"PAYERNAME":    req.StudentName,
		"PAYEREMAIL":   req.Email,
		"PAYERMOBILE":  req.Phone,
		"RETURNURL":    req.ReturnURL,
		"CHECKSUMHASH": a.checksum(a.creds.MerchantID, req.OrderID, amount, req.ReturnURL),
	}

	return &Redirect{
		URL:    a.endpoint(),
		Method: "POST",
		Params: params,
	}, nil
}

func (a *axisAdapter) VerifyCallback(params map[string]string) (*CallbackResult, error) {
	if err := requireFields(params, "ORDERID", "AMOUNT", "RESPCODE", "CHECKSUMHASH"); err != nil {
		return nil, err
	}

	expected := a.checksum(params["ORDERID"], params["TXNID"], params["RESPCODE"], params["AMOUNT"])
	if !hmac.Equal([]byte(expected), []byte(params["CHECKSUMHASH"])) {
		return nil, ErrChecksumMismatch
	}

	return &CallbackResult{
		OrderID:           params["ORDERID"],
		BankTransactionID: params["TXNID"],
		ResponseCode:      params["RESPCODE"],
		ResponseMessage:   params["RESPMSG"],
		Amount:            parseAmount(params["AMOUNT"]),
		Success:           params["RESPCODE"] == axisSuccessCode,
	}, nil
}

func (a *axisAdapter) signCallback(params map[string]string) {
	params["CHECKSUMHASH"] = a.checksum(params["ORDERID"], params["TXNID"], params["RESPCODE"], params["AMOUNT"])
}
