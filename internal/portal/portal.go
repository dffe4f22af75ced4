package portal

import (
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/school"
)

// RepositoryAPI is the roster and fee-ledger persistence contract. The
// same repository backs payer logins, fee listings, and the ledger
// update that a successful payment applies.
type RepositoryAPI interface {
	GetStudentByAdmission(schoolID, admissionNo string) (*school.Student, error)
	GetStudentByID(id int64) (*school.Student, error)
	ActiveAcademicYearID(schoolID string) (string, error)
	GetFeeByID(id int64) (*school.StudentFee, error)
	ListFeesForStudent(studentID int64, schoolID, academicYearID string) ([]*school.StudentFee, error)
	ApplyPayment(studentFeeID int64, amount float64) error
}
