package payment

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/payment"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/school"
)

// RepositoryAPI is the payment persistence contract.
type RepositoryAPI interface {
	Create(p *payment.FeePayment) error
	GetByID(id int64) (*payment.FeePayment, error)
	GetByOrderID(orderID string) (*payment.FeePayment, error)
	GetByStudentFeeID(studentFeeID int64) ([]*payment.FeePayment, error)
	// TransitionStatus applies updates only while the row is still
	// PENDING and reports whether a row was actually changed. Zero rows
	// means the payment already reached a terminal status.
	TransitionStatus(id int64, updates map[string]interface{}) (bool, error)
	ListPendingBefore(cutoff time.Time, limit int) ([]*payment.FeePayment, error)
}

// StudentFeeAPI is what the payment service needs from the fee ledger.
type StudentFeeAPI interface {
	GetFeeByID(id int64) (*school.StudentFee, error)
	GetStudentByID(id int64) (*school.Student, error)
	ApplyPayment(studentFeeID int64, amount float64) error
}

// GenerateOrderID builds the gateway correlation ID. The format is
// ORD_<unix-ts>_<0-999>; uniqueness is enforced by the database index,
// initiation retries once with a fresh suffix on collision.
func GenerateOrderID() string {
	return fmt.Sprintf("ORD_%d_%d", time.Now().Unix(), rand.Intn(1000))
}

// GenerateReceiptNumber builds the receipt number attached to a
// successful payment.
func GenerateReceiptNumber(now time.Time) string {
	return fmt.Sprintf("RCPT-%d-%s", now.Year(), uuid.New().String()[:8])
}
