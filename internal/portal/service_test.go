package portal_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	apperrors "github.com/KinzixInfotech/edutemp-sub018/internal"
	paymentmodel "github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/payment"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/school"
	portalPkg "github.com/KinzixInfotech/edutemp-sub018/internal/portal"
	sessionPkg "github.com/KinzixInfotech/edutemp-sub018/internal/session"
)

func TestPortal(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Portal Suite")
}

type mockPortalRepository struct {
	fees      map[int64]*school.StudentFee
	listError error
	listCalls int
}

func (m *mockPortalRepository) GetStudentByAdmission(string, string) (*school.Student, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPortalRepository) GetStudentByID(int64) (*school.Student, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPortalRepository) ActiveAcademicYearID(string) (string, error) {
	return "ay_2026", nil
}

func (m *mockPortalRepository) GetFeeByID(id int64) (*school.StudentFee, error) {
	fee, exists := m.fees[id]
	if !exists {
		return nil, gorm.ErrRecordNotFound
	}
	return fee, nil
}

func (m *mockPortalRepository) ListFeesForStudent(studentID int64, schoolID, academicYearID string) ([]*school.StudentFee, error) {
	m.listCalls++
	if m.listError != nil {
		return nil, m.listError
	}
	var fees []*school.StudentFee
	for _, fee := range m.fees {
		if fee.StudentID == studentID && fee.SchoolID == schoolID && fee.AcademicYearID == academicYearID {
			fees = append(fees, fee)
		}
	}
	return fees, nil
}

func (m *mockPortalRepository) ApplyPayment(int64, float64) error {
	return nil
}

type mockHistory struct {
	payments map[int64][]*paymentmodel.FeePayment
}

func (m *mockHistory) GetByStudentFeeID(studentFeeID int64) ([]*paymentmodel.FeePayment, error) {
	return m.payments[studentFeeID], nil
}

var _ = Describe("PortalService", func() {
	var (
		service *portalPkg.Service
		repo    *mockPortalRepository
		history *mockHistory
		sess    *sessionPkg.Session
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		repo = &mockPortalRepository{
			fees: map[int64]*school.StudentFee{
				11: {
					ID: 11, StudentID: 7, SchoolID: "sch_001", AcademicYearID: "ay_2026",
					StructureName:  "Tuition Term 1",
					OriginalAmount: 10000, FinalAmount: 9000, DiscountAmount: 1000,
					PaidAmount: 4000, BalanceAmount: 5000, Status: "PARTIAL",
				},
				12: {
					ID: 12, StudentID: 7, SchoolID: "sch_001", AcademicYearID: "ay_2026",
					StructureName:  "Transport",
					OriginalAmount: 3000, FinalAmount: 3000,
					BalanceAmount: 3000, Status: "UNPAID",
				},
				31: {
					ID: 31, StudentID: 42, SchoolID: "sch_001", AcademicYearID: "ay_2026",
					StructureName:  "Tuition Term 1",
					OriginalAmount: 9000, FinalAmount: 9000,
					BalanceAmount: 9000, Status: "UNPAID",
				},
			},
		}
		history = &mockHistory{
			payments: map[int64][]*paymentmodel.FeePayment{
				11: {{ID: 1, StudentFeeID: 11, GatewayOrderID: "ORD_1756600000_001", Status: paymentmodel.StatusSuccess}},
			},
		}

		sess = &sessionPkg.Session{
			Token:          "token",
			StudentID:      7,
			SchoolID:       "sch_001",
			AcademicYearID: "ay_2026",
		}

		service = portalPkg.NewService(repo, history, nil, 0, logger)
	})

	Describe("ListFees", func() {
		It("returns the student's fees with running totals", func() {
			summary, err := service.ListFees(ctx, sess)

			Expect(err).ToNot(HaveOccurred())
			Expect(summary.AcademicYearID).To(Equal("ay_2026"))
			Expect(summary.Fees).To(HaveLen(2))
			Expect(summary.TotalDue).To(Equal(12000.0))
			Expect(summary.TotalPaid).To(Equal(4000.0))
			Expect(summary.TotalBalance).To(Equal(8000.0))
		})

		It("excludes other students' fees", func() {
			summary, err := service.ListFees(ctx, sess)

			Expect(err).ToNot(HaveOccurred())
			for _, fee := range summary.Fees {
				Expect(fee.ID).ToNot(Equal(int64(31)))
			}
		})

		It("wraps repository failures as internal errors", func() {
			repo.listError = gorm.ErrInvalidDB

			_, err := service.ListFees(ctx, sess)

			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeInternal))
		})
	})

	Describe("FeePayments", func() {
		It("returns the history for a fee the student owns", func() {
			payments, err := service.FeePayments(ctx, sess, 11)

			Expect(err).ToNot(HaveOccurred())
			Expect(payments).To(HaveLen(1))
			Expect(payments[0].GatewayOrderID).To(Equal("ORD_1756600000_001"))
		})

		It("hides another student's fee behind not found", func() {
			_, err := service.FeePayments(ctx, sess, 31)

			Expect(err).To(Equal(apperrors.ErrStudentFeeNotFound))
		})

		It("returns not found for a missing fee", func() {
			_, err := service.FeePayments(ctx, sess, 404)

			Expect(err).To(Equal(apperrors.ErrStudentFeeNotFound))
		})
	})
})
