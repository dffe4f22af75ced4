package payment_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	apperrors "github.com/KinzixInfotech/edutemp-sub018/internal"
	paymentmodel "github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/payment"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/school"
	settingsmodel "github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/settings"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/events"
	"github.com/KinzixInfotech/edutemp-sub018/internal/gateway"
	paymentPkg "github.com/KinzixInfotech/edutemp-sub018/internal/payment"
	"github.com/KinzixInfotech/edutemp-sub018/internal/settings"
)

func TestPayment(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Payment Service Suite")
}

// Mock repository for testing
type mockPaymentRepository struct {
	payments    map[int64]*paymentmodel.FeePayment
	nextID      int64
	createError error
	createCalls int
	// duplicateNext rejects the next N creates with ErrDuplicatedKey,
	// simulating the unique index on gateway_order_id
	duplicateNext int
}

func newMockPaymentRepository() *mockPaymentRepository {
	return &mockPaymentRepository{
		payments: make(map[int64]*paymentmodel.FeePayment),
	}
}

func (m *mockPaymentRepository) Create(p *paymentmodel.FeePayment) error {
	m.createCalls++
	if m.createError != nil {
		return m.createError
	}
	if m.duplicateNext > 0 {
		m.duplicateNext--
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range m.payments {
		if existing.GatewayOrderID == p.GatewayOrderID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.payments[p.ID] = p
	return nil
}

func (m *mockPaymentRepository) GetByID(id int64) (*paymentmodel.FeePayment, error) {
	p, exists := m.payments[id]
	if !exists {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (m *mockPaymentRepository) GetByOrderID(orderID string) (*paymentmodel.FeePayment, error) {
	for _, p := range m.payments {
		if p.GatewayOrderID == orderID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepository) GetByStudentFeeID(studentFeeID int64) ([]*paymentmodel.FeePayment, error) {
	var result []*paymentmodel.FeePayment
	for _, p := range m.payments {
		if p.StudentFeeID == studentFeeID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPaymentRepository) TransitionStatus(id int64, updates map[string]interface{}) (bool, error) {
	p, exists := m.payments[id]
	if !exists || p.Status != paymentmodel.StatusPending {
		return false, nil
	}
	if status, ok := updates["status"].(string); ok {
		p.Status = status
	}
	if receipt, ok := updates["receipt_number"].(string); ok {
		p.ReceiptNumber = &receipt
	}
	if txn, ok := updates["bank_transaction_id"].(string); ok {
		p.BankTransactionID = &txn
	}
	if reason, ok := updates["failure_reason"].(string); ok {
		p.FailureReason = &reason
	}
	if paidAt, ok := updates["paid_at"].(time.Time); ok {
		p.PaidAt = &paidAt
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockPaymentRepository) ListPendingBefore(cutoff time.Time, limit int) ([]*paymentmodel.FeePayment, error) {
	var result []*paymentmodel.FeePayment
	for _, p := range m.payments {
		if p.Status == paymentmodel.StatusPending && p.CreatedAt.Before(cutoff) && len(result) < limit {
			result = append(result, p)
		}
	}
	return result, nil
}

// Mock fee ledger
type mockStudentFeeAPI struct {
	fees          map[int64]*school.StudentFee
	students      map[int64]*school.Student
	appliedFeeIDs []int64
	appliedTotal  float64
	applyError    error
}

func newMockStudentFeeAPI() *mockStudentFeeAPI {
	return &mockStudentFeeAPI{
		fees:     make(map[int64]*school.StudentFee),
		students: make(map[int64]*school.Student),
	}
}

func (m *mockStudentFeeAPI) GetFeeByID(id int64) (*school.StudentFee, error) {
	fee, exists := m.fees[id]
	if !exists {
		return nil, gorm.ErrRecordNotFound
	}
	return fee, nil
}

func (m *mockStudentFeeAPI) GetStudentByID(id int64) (*school.Student, error) {
	student, exists := m.students[id]
	if !exists {
		return nil, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (m *mockStudentFeeAPI) ApplyPayment(studentFeeID int64, amount float64) error {
	if m.applyError != nil {
		return m.applyError
	}
	m.appliedFeeIDs = append(m.appliedFeeIDs, studentFeeID)
	m.appliedTotal += amount
	return nil
}

// Mock settings
type mockSettingsAPI struct {
	settings map[string]*settingsmodel.PaymentSettings
}

func newMockSettingsAPI() *mockSettingsAPI {
	return &mockSettingsAPI{settings: make(map[string]*settingsmodel.PaymentSettings)}
}

func (m *mockSettingsAPI) GetForSchool(schoolID string) (*settingsmodel.PaymentSettings, error) {
	cfg, exists := m.settings[schoolID]
	if !exists {
		return nil, errors.New("settings not found")
	}
	return cfg, nil
}

var _ = Describe("PaymentService", func() {
	var (
		service      *paymentPkg.Service
		mockRepo     *mockPaymentRepository
		mockFees     *mockStudentFeeAPI
		mockSettings *mockSettingsAPI
		eventBus     *events.EventBus
		logger       *slog.Logger
		ctx          context.Context
	)

	const (
		schoolID  = "sch_001"
		yearID    = "ay_2026"
		studentID = int64(7)
		feeID     = int64(42)
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		mockRepo = newMockPaymentRepository()
		mockFees = newMockStudentFeeAPI()
		mockSettings = newMockSettingsAPI()
		eventBus = events.NewEventBus(logger)

		mockFees.students[studentID] = &school.Student{
			ID:            studentID,
			SchoolID:      schoolID,
			AdmissionNo:   "ADM-1001",
			Name:          "Aarav Sharma",
			Email:         "aarav@demo.school",
			ContactNumber: "9000000001",
			IsActive:      true,
		}
		mockFees.fees[feeID] = &school.StudentFee{
			ID:             feeID,
			StudentID:      studentID,
			SchoolID:       schoolID,
			AcademicYearID: yearID,
			FinalAmount:    12500.00,
			BalanceAmount:  12500.00,
			Status:         school.FeeStatusUnpaid,
		}
		mockSettings.settings[schoolID] = &settingsmodel.PaymentSettings{
			SchoolID:   schoolID,
			Provider:   "ICICI_EAZYPAY",
			IsEnabled:  true,
			TestMode:   true,
			MerchantID: "MERCH001",
			AccessCode: "ACCESS001",
			SecretKey:  "super-secret-key",
			SuccessURL: "https://school.example/pay/success",
			FailureURL: "https://school.example/pay/failure",
		}

		service = paymentPkg.NewService(mockRepo, mockFees, mockSettings, eventBus, "https://pay.example", logger)
	})

	initiate := func(amount float64) (*paymentPkg.InitiatePaymentResponse, error) {
		return service.InitiatePayment(ctx, studentID, &paymentPkg.InitiatePaymentRequest{
			StudentFeeID: feeID,
			Amount:       amount,
		})
	}

	signedCallback := func(orderID, amount, txnID string, success bool) map[string]string {
		provider := gateway.ProviderICICIEazypay
		creds := settings.GatewayCredentials(mockSettings.settings[schoolID])
		params := gateway.CallbackParams(provider, orderID, amount, txnID, success)
		signed, err := gateway.SignCallback(provider, creds, params)
		Expect(err).ToNot(HaveOccurred())
		return signed
	}

	Describe("InitiatePayment", func() {
		Context("when the request is valid", func() {
			It("creates a PENDING payment and returns the redirect", func() {
				resp, err := initiate(500.00)

				Expect(err).ToNot(HaveOccurred())
				Expect(resp.PaymentID).To(BeNumerically(">", 0))
				Expect(resp.OrderID).To(HavePrefix("ORD_"))
				Expect(strings.Count(resp.OrderID, "_")).To(Equal(2))
				Expect(resp.Redirect).ToNot(BeNil())
				Expect(resp.Redirect.Method).To(Equal("POST"))
				Expect(resp.Redirect.Params["checksum"]).ToNot(BeEmpty())

				stored, err := mockRepo.GetByID(resp.PaymentID)
				Expect(err).ToNot(HaveOccurred())
				Expect(stored.Status).To(Equal(paymentmodel.StatusPending))
				Expect(stored.SchoolID).To(Equal(schoolID))
				Expect(stored.AcademicYearID).To(Equal(yearID))
				Expect(stored.Amount).To(Equal(500.00))
			})
		})

		Context("when the gateway is disabled for the school", func() {
			It("rejects the initiation", func() {
				mockSettings.settings[schoolID].IsEnabled = false

				_, err := initiate(500.00)

				Expect(err).To(Equal(apperrors.ErrGatewayDisabled))
				Expect(mockRepo.createCalls).To(BeZero())
			})
		})

		Context("when the fee belongs to another student", func() {
			It("rejects the initiation", func() {
				_, err := service.InitiatePayment(ctx, studentID+1, &paymentPkg.InitiatePaymentRequest{
					StudentFeeID: feeID,
					Amount:       500.00,
				})

				Expect(err).To(HaveOccurred())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(apperrors.ErrorTypeForbidden))
			})
		})

		Context("when the amount is invalid", func() {
			It("rejects a zero amount", func() {
				_, err := initiate(0)
				Expect(err).To(HaveOccurred())
			})

			It("rejects an amount above the cap", func() {
				_, err := initiate(20_00_000.00)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("when the generated order ID collides", func() {
			It("retries once with a fresh order ID", func() {
				mockRepo.duplicateNext = 1

				resp, err := initiate(500.00)

				Expect(err).ToNot(HaveOccurred())
				Expect(mockRepo.createCalls).To(Equal(2))
				Expect(resp.OrderID).ToNot(BeEmpty())
			})

			It("gives up after the retry also collides", func() {
				mockRepo.duplicateNext = 2

				_, err := initiate(500.00)

				Expect(err).To(HaveOccurred())
				Expect(mockRepo.createCalls).To(Equal(2))
			})
		})
	})

	Describe("HandleCallback", func() {
		var orderID string

		BeforeEach(func() {
			resp, err := initiate(500.00)
			Expect(err).ToNot(HaveOccurred())
			orderID = resp.OrderID
		})

		Context("when the bank reports success with a valid checksum", func() {
			It("marks the payment SUCCESS and applies it to the fee", func() {
				params := signedCallback(orderID, "500.00", "TXN123", true)

				outcome, err := service.HandleCallback(ctx, "ICICI_EAZYPAY", params)

				Expect(err).ToNot(HaveOccurred())
				Expect(outcome.Duplicate).To(BeFalse())
				Expect(outcome.Payment.Status).To(Equal(paymentmodel.StatusSuccess))
				Expect(outcome.Payment.ReceiptNumber).ToNot(BeNil())
				Expect(*outcome.Payment.ReceiptNumber).To(HavePrefix("RCPT-"))
				Expect(outcome.Payment.BankTransactionID).ToNot(BeNil())
				Expect(*outcome.Payment.BankTransactionID).To(Equal("TXN123"))
				Expect(outcome.RedirectURL).To(Equal("https://school.example/pay/success"))

				Expect(mockFees.appliedFeeIDs).To(ConsistOf(feeID))
				Expect(mockFees.appliedTotal).To(Equal(500.00))
			})
		})

		Context("when the same success callback is delivered twice", func() {
			It("reports the stored state and runs no side effects", func() {
				params := signedCallback(orderID, "500.00", "TXN123", true)

				first, err := service.HandleCallback(ctx, "ICICI_EAZYPAY", params)
				Expect(err).ToNot(HaveOccurred())
				Expect(first.Duplicate).To(BeFalse())

				second, err := service.HandleCallback(ctx, "ICICI_EAZYPAY", params)
				Expect(err).ToNot(HaveOccurred())
				Expect(second.Duplicate).To(BeTrue())
				Expect(second.Payment.Status).To(Equal(paymentmodel.StatusSuccess))

				// The ledger was updated exactly once.
				Expect(mockFees.appliedFeeIDs).To(HaveLen(1))
				Expect(mockFees.appliedTotal).To(Equal(500.00))
			})
		})

		Context("when the checksum does not verify", func() {
			It("fails the payment and rejects the callback", func() {
				params := signedCallback(orderID, "500.00", "TXN123", true)
				params["checksum"] = "tampered"

				_, err := service.HandleCallback(ctx, "ICICI_EAZYPAY", params)

				Expect(err).To(HaveOccurred())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeChecksumMismatch))

				stored, getErr := mockRepo.GetByOrderID(orderID)
				Expect(getErr).ToNot(HaveOccurred())
				Expect(stored.Status).To(Equal(paymentmodel.StatusFailed))
				Expect(mockFees.appliedFeeIDs).To(BeEmpty())
			})
		})

		Context("when the bank declines the payment", func() {
			It("marks the payment FAILED with the gateway reason", func() {
				params := signedCallback(orderID, "500.00", "TXN123", false)

				outcome, err := service.HandleCallback(ctx, "ICICI_EAZYPAY", params)

				Expect(err).ToNot(HaveOccurred())
				Expect(outcome.Payment.Status).To(Equal(paymentmodel.StatusFailed))
				Expect(outcome.Payment.FailureReason).ToNot(BeNil())
				Expect(*outcome.Payment.FailureReason).To(ContainSubstring("gateway declined"))
				Expect(outcome.RedirectURL).To(Equal("https://school.example/pay/failure"))
				Expect(mockFees.appliedFeeIDs).To(BeEmpty())
			})
		})

		Context("when the order ID is unknown", func() {
			It("returns an unknown order error", func() {
				params := signedCallback("ORD_0_999", "500.00", "TXN123", true)

				_, err := service.HandleCallback(ctx, "ICICI_EAZYPAY", params)

				Expect(err).To(Equal(apperrors.ErrUnknownOrder))
			})
		})

		Context("when a failure callback arrives after success", func() {
			It("keeps the stored SUCCESS state", func() {
				success := signedCallback(orderID, "500.00", "TXN123", true)
				_, err := service.HandleCallback(ctx, "ICICI_EAZYPAY", success)
				Expect(err).ToNot(HaveOccurred())

				failure := signedCallback(orderID, "500.00", "TXN123", false)
				outcome, err := service.HandleCallback(ctx, "ICICI_EAZYPAY", failure)

				Expect(err).ToNot(HaveOccurred())
				Expect(outcome.Duplicate).To(BeTrue())
				Expect(outcome.Payment.Status).To(Equal(paymentmodel.StatusSuccess))
			})
		})

		Context("when a success callback arrives after the payment expired", func() {
			It("keeps FAILED and redirects to the failure page", func() {
				record, err := mockRepo.GetByOrderID(orderID)
				Expect(err).ToNot(HaveOccurred())
				transitioned, err := mockRepo.TransitionStatus(record.ID, map[string]interface{}{
					"status":         paymentmodel.StatusFailed,
					"failure_reason": "expired",
				})
				Expect(err).ToNot(HaveOccurred())
				Expect(transitioned).To(BeTrue())

				params := signedCallback(orderID, "500.00", "TXN123", true)
				outcome, err := service.HandleCallback(ctx, "ICICI_EAZYPAY", params)

				Expect(err).ToNot(HaveOccurred())
				Expect(outcome.Duplicate).To(BeTrue())
				Expect(outcome.Payment.Status).To(Equal(paymentmodel.StatusFailed))
				Expect(outcome.RedirectURL).To(Equal("https://school.example/pay/failure"))
				Expect(mockFees.appliedFeeIDs).To(BeEmpty())
			})
		})
	})

	Describe("GetForStudent", func() {
		var orderID string

		BeforeEach(func() {
			resp, err := initiate(500.00)
			Expect(err).ToNot(HaveOccurred())
			orderID = resp.OrderID
		})

		It("returns the payment to the student who owns the fee", func() {
			record, err := service.GetForStudent(orderID, studentID)

			Expect(err).ToNot(HaveOccurred())
			Expect(record.GatewayOrderID).To(Equal(orderID))
		})

		It("hides another student's payment behind not found", func() {
			_, err := service.GetForStudent(orderID, studentID+1)

			Expect(err).To(Equal(apperrors.ErrPaymentNotFound))
		})

		It("returns not found for an unknown order", func() {
			_, err := service.GetForStudent("ORD_0_999", studentID)

			Expect(err).To(Equal(apperrors.ErrPaymentNotFound))
		})
	})

	Describe("GenerateOrderID", func() {
		It("produces the ORD_<timestamp>_<suffix> shape", func() {
			orderID := paymentPkg.GenerateOrderID()

			parts := strings.Split(orderID, "_")
			Expect(parts).To(HaveLen(3))
			Expect(parts[0]).To(Equal("ORD"))
			Expect(parts[1]).ToNot(BeEmpty())
			Expect(parts[2]).ToNot(BeEmpty())
		})
	})

	Describe("GenerateReceiptNumber", func() {
		It("embeds the year of payment", func() {
			now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
			receipt := paymentPkg.GenerateReceiptNumber(now)

			Expect(receipt).To(HavePrefix("RCPT-2026-"))
			Expect(receipt).To(HaveLen(len("RCPT-2026-") + 8))
		})
	})
})
