package postgres

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/school"
	portalpkg "github.com/KinzixInfotech/edutemp-sub018/internal/portal"
)

type PortalRepository struct {
	db *gorm.DB
}

func NewPortalRepository(db *gorm.DB) portalpkg.RepositoryAPI {
	return &PortalRepository{db: db}
}

func (r *PortalRepository) GetStudentByAdmission(schoolID, admissionNo string) (*school.Student, error) {
	var student school.Student
	err := r.db.Where("school_id = ? AND admission_no = ?", schoolID, admissionNo).First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *PortalRepository) GetStudentByID(id int64) (*school.Student, error) {
	var student school.Student
	err := r.db.First(&student, id).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *PortalRepository) ActiveAcademicYearID(schoolID string) (string, error) {
	var year school.AcademicYear
	err := r.db.Where("school_id = ? AND is_active = ?", schoolID, true).First(&year).Error
	if err != nil {
		return "", err
	}
	return year.ID, nil
}

func (r *PortalRepository) GetFeeByID(id int64) (*school.StudentFee, error) {
	var fee school.StudentFee
	err := r.db.First(&fee, id).Error
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func (r *PortalRepository) ListFeesForStudent(studentID int64, schoolID, academicYearID string) ([]*school.StudentFee, error) {
	var fees []*school.StudentFee
	err := r.db.
		Where("student_id = ? AND school_id = ? AND academic_year_id = ?", studentID, schoolID, academicYearID).
		Order("id ASC").
		Find(&fees).Error
	if err != nil {
		return nil, err
	}
	return fees, nil
}

// ApplyPayment moves a confirmed amount onto the fee ledger. The row is
// locked for the duration of the transaction so concurrent callbacks
// for different payments against the same fee serialize cleanly.
func (r *PortalRepository) ApplyPayment(studentFeeID int64, amount float64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var fee school.StudentFee
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&fee, studentFeeID).Error; err != nil {
			return fmt.Errorf("lock student fee %d: %w", studentFeeID, err)
		}

		fee.PaidAmount += amount
		fee.BalanceAmount = fee.FinalAmount - fee.PaidAmount

		switch {
		case fee.BalanceAmount <= 0:
			fee.BalanceAmount = 0
			fee.Status = school.FeeStatusPaid
		case fee.PaidAmount > 0:
			fee.Status = school.FeeStatusPartial
		}

		return tx.Model(&school.StudentFee{}).
			Where("id = ?", studentFeeID).
			Updates(map[string]interface{}{
				"paid_amount":    fee.PaidAmount,
				"balance_amount": fee.BalanceAmount,
				"status":         fee.Status,
			}).Error
	})
}
