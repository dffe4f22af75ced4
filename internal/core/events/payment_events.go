package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentSucceeded = "payment.succeeded"
	EventTypePaymentFailed    = "payment.failed"
)

type PaymentSucceededEvent struct {
	BaseEvent
	PaymentID         int64   `json:"payment_id"`
	StudentFeeID      int64   `json:"student_fee_id"`
	SchoolID          string  `json:"school_id"`
	GatewayOrderID    string  `json:"gateway_order_id"`
	BankTransactionID string  `json:"bank_transaction_id"`
	Amount            float64 `json:"amount"`
	ReceiptNumber     string  `json:"receipt_number"`
}

func NewPaymentSucceededEvent(paymentID, studentFeeID int64, schoolID, gatewayOrderID, bankTransactionID string, amount float64, receiptNumber string) *PaymentSucceededEvent {
	return &PaymentSucceededEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentSucceeded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":          paymentID,
				"student_fee_id":      studentFeeID,
				"school_id":           schoolID,
				"gateway_order_id":    gatewayOrderID,
				"bank_transaction_id": bankTransactionID,
				"amount":              amount,
				"receipt_number":      receiptNumber,
			},
		},
		PaymentID:         paymentID,
		StudentFeeID:      studentFeeID,
		SchoolID:          schoolID,
		GatewayOrderID:    gatewayOrderID,
		BankTransactionID: bankTransactionID,
		Amount:            amount,
		ReceiptNumber:     receiptNumber,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	PaymentID      int64   `json:"payment_id"`
	StudentFeeID   int64   `json:"student_fee_id"`
	SchoolID       string  `json:"school_id"`
	GatewayOrderID string  `json:"gateway_order_id"`
	Amount         float64 `json:"amount"`
	FailureReason  string  `json:"failure_reason"`
}

func NewPaymentFailedEvent(paymentID, studentFeeID int64, schoolID, gatewayOrderID string, amount float64, failureReason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":       paymentID,
				"student_fee_id":   studentFeeID,
				"school_id":        schoolID,
				"gateway_order_id": gatewayOrderID,
				"amount":           amount,
				"failure_reason":   failureReason,
			},
		},
		PaymentID:      paymentID,
		StudentFeeID:   studentFeeID,
		SchoolID:       schoolID,
		GatewayOrderID: gatewayOrderID,
		Amount:         amount,
		FailureReason:  failureReason,
	}
}
