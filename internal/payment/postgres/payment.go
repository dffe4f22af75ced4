package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/payment"
	paymentpkg "github.com/KinzixInfotech/edutemp-sub018/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &PaymentRepository{
		db: db,
	}
}

func (r *PaymentRepository) Create(p *payment.FeePayment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id int64) (*payment.FeePayment, error) {
	var p payment.FeePayment
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByOrderID(orderID string) (*payment.FeePayment, error) {
	var p payment.FeePayment
	err := r.db.Where("gateway_order_id = ?", orderID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByStudentFeeID(studentFeeID int64) ([]*payment.FeePayment, error) {
	var payments []*payment.FeePayment
	err := r.db.Where("student_fee_id = ?", studentFeeID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

// TransitionStatus is the single write path out of PENDING. The WHERE
// clause makes the PENDING→terminal transition atomic, so a retried bank
// callback finds zero rows to update instead of double-applying.
func (r *PaymentRepository) TransitionStatus(id int64, updates map[string]interface{}) (bool, error) {
	res := r.db.Model(&payment.FeePayment{}).
		Where("id = ? AND status = ?", id, payment.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PaymentRepository) ListPendingBefore(cutoff time.Time, limit int) ([]*payment.FeePayment, error) {
	var payments []*payment.FeePayment
	err := r.db.Where("status = ? AND created_at < ?", payment.StatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}
