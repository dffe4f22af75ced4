package payment

import (
	"time"

	errors "github.com/KinzixInfotech/edutemp-sub018/internal"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/common/validation"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/payment"
	"github.com/KinzixInfotech/edutemp-sub018/internal/gateway"
)

// InitiatePaymentRequest is the payer-facing initiation payload.
type InitiatePaymentRequest struct {
	StudentFeeID int64   `json:"student_fee_id"`
	Amount       float64 `json:"amount"`
}

func (r *InitiatePaymentRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("student_fee_id", r.StudentFeeID).Required()
	validator.Field("amount", r.Amount).Required().
		MinFloat(1.00, errors.ErrCodeInvalidAmount).
		MaxFloat(10_00_000.00, errors.ErrCodeAmountTooHigh)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// InitiatePaymentResponse carries the redirect descriptor for the
// payer's browser plus the correlation IDs.
type InitiatePaymentResponse struct {
	PaymentID int64             `json:"payment_id"`
	OrderID   string            `json:"order_id"`
	Redirect  *gateway.Redirect `json:"redirect"`
}

// CallbackOutcome is the service-level result of processing a bank
// callback.
type CallbackOutcome struct {
	Payment     *payment.FeePayment
	Duplicate   bool
	RedirectURL string
}

// SimulateCallbackRequest drives the dev-tools callback simulator.
type SimulateCallbackRequest struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Success       bool   `json:"success"`
}

func (r *SimulateCallbackRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("order_id", r.OrderID).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// PaymentView is the JSON shape returned by the status endpoint.
type PaymentView struct {
	ID                int64      `json:"id"`
	StudentFeeID      int64      `json:"student_fee_id"`
	OrderID           string     `json:"order_id"`
	Amount            float64    `json:"amount"`
	Status            string     `json:"status"`
	GatewayName       string     `json:"gateway_name"`
	BankTransactionID *string    `json:"bank_transaction_id,omitempty"`
	ReceiptNumber     *string    `json:"receipt_number,omitempty"`
	FailureReason     *string    `json:"failure_reason,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func ToView(p *payment.FeePayment) *PaymentView {
	if p == nil {
		return nil
	}
	return &PaymentView{
		ID:                p.ID,
		StudentFeeID:      p.StudentFeeID,
		OrderID:           p.GatewayOrderID,
		Amount:            p.Amount,
		Status:            p.Status,
		GatewayName:       p.GatewayName,
		BankTransactionID: p.BankTransactionID,
		ReceiptNumber:     p.ReceiptNumber,
		FailureReason:     p.FailureReason,
		PaidAt:            p.PaidAt,
		CreatedAt:         p.CreatedAt,
	}
}
