package payment

import (
	"encoding/json"
	"time"
)

const (
	StatusPending = "PENDING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// FeePayment is one online payment attempt against a student fee.
// Created PENDING at initiation, transitioned to exactly one terminal
// status by the gateway callback.
type FeePayment struct {
	ID                int64           `gorm:"primaryKey"`
	StudentFeeID      int64           `gorm:"column:student_fee_id;not null;index"`
	SchoolID          string          `gorm:"column:school_id;not null;index"`
	AcademicYearID    string          `gorm:"column:academic_year_id;not null"`
	Amount            float64         `gorm:"column:amount;not null"`
	Status            string          `gorm:"column:status;default:PENDING"`
	GatewayName       string          `gorm:"column:gateway_name;not null"`
	GatewayOrderID    string          `gorm:"column:gateway_order_id;not null;uniqueIndex"`
	BankTransactionID *string         `gorm:"column:bank_transaction_id;uniqueIndex"`
	ReceiptNumber     *string         `gorm:"column:receipt_number"`
	PaymentMethod     *string         `gorm:"column:payment_method"`
	GatewayResponse   json.RawMessage `gorm:"column:gateway_response;type:jsonb"`
	FailureReason     *string         `gorm:"column:failure_reason"`
	PaidAt            *time.Time      `gorm:"column:paid_at"`
	CreatedAt         time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;default:now()"`
}

func (FeePayment) TableName() string {
	return "fee_payments"
}

// IsTerminal reports whether the payment has reached a final status.
func (p *FeePayment) IsTerminal() bool {
	return p.Status == StatusSuccess || p.Status == StatusFailed
}
