package reconciler

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	paymentmodel "github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/payment"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/events"
)

func TestReconciler(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Reconciler Suite")
}

type mockPaymentRepository struct {
	mu       sync.Mutex
	payments map[int64]*paymentmodel.FeePayment
	listErr  error
}

func newMockPaymentRepository() *mockPaymentRepository {
	return &mockPaymentRepository{payments: make(map[int64]*paymentmodel.FeePayment)}
}

func (m *mockPaymentRepository) add(p *paymentmodel.FeePayment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
}

func (m *mockPaymentRepository) Create(p *paymentmodel.FeePayment) error {
	m.add(p)
	return nil
}

func (m *mockPaymentRepository) GetByID(id int64) (*paymentmodel.FeePayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, exists := m.payments[id]
	if !exists {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockPaymentRepository) GetByOrderID(orderID string) (*paymentmodel.FeePayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.GatewayOrderID == orderID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepository) GetByStudentFeeID(studentFeeID int64) ([]*paymentmodel.FeePayment, error) {
	return nil, nil
}

func (m *mockPaymentRepository) TransitionStatus(id int64, updates map[string]interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, exists := m.payments[id]
	if !exists || p.Status != paymentmodel.StatusPending {
		return false, nil
	}
	if status, ok := updates["status"].(string); ok {
		p.Status = status
	}
	if reason, ok := updates["failure_reason"].(string); ok {
		p.FailureReason = &reason
	}
	return true, nil
}

func (m *mockPaymentRepository) ListPendingBefore(cutoff time.Time, limit int) ([]*paymentmodel.FeePayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var stale []*paymentmodel.FeePayment
	for _, p := range m.payments {
		if p.Status == paymentmodel.StatusPending && p.CreatedAt.Before(cutoff) {
			copied := *p
			stale = append(stale, &copied)
			if len(stale) >= limit {
				break
			}
		}
	}
	return stale, nil
}

var _ = Describe("Reconciler", func() {
	var (
		repo       *mockPaymentRepository
		bus        *events.EventBus
		rec        *Reconciler
		failedMu   sync.Mutex
		failedIDs  []int64
		testLogger *slog.Logger
	)

	pendingPayment := func(id int64, age time.Duration) *paymentmodel.FeePayment {
		return &paymentmodel.FeePayment{
			ID:             id,
			StudentFeeID:   11,
			SchoolID:       "sch_001",
			AcademicYearID: "ay_2026",
			Amount:         5000,
			Status:         paymentmodel.StatusPending,
			GatewayName:    "ICICI_EAZYPAY",
			GatewayOrderID: "ORD_1756600000_001",
			CreatedAt:      time.Now().Add(-age),
		}
	}

	BeforeEach(func() {
		testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = newMockPaymentRepository()
		bus = events.NewEventBus(testLogger)

		failedMu.Lock()
		failedIDs = nil
		failedMu.Unlock()
		bus.Subscribe(events.EventTypePaymentFailed, func(_ context.Context, event events.Event) error {
			failed := event.(*events.PaymentFailedEvent)
			failedMu.Lock()
			failedIDs = append(failedIDs, failed.PaymentID)
			failedMu.Unlock()
			return nil
		})

		rec = New(Config{PendingTimeout: 30 * time.Minute}, repo, bus, testLogger)
	})

	failedSoFar := func() []int64 {
		failedMu.Lock()
		defer failedMu.Unlock()
		return append([]int64(nil), failedIDs...)
	}

	Describe("expirePayment", func() {
		It("fails a stale pending payment and publishes the event", func() {
			repo.add(pendingPayment(1, time.Hour))

			rec.expirePayment(ExpireJob{PaymentID: 1, GatewayOrderID: "ORD_1756600000_001"})

			expired, err := repo.GetByID(1)
			Expect(err).ToNot(HaveOccurred())
			Expect(expired.Status).To(Equal(paymentmodel.StatusFailed))
			Expect(*expired.FailureReason).To(Equal("expired"))

			Eventually(failedSoFar).Should(ConsistOf(int64(1)))
		})

		It("leaves a payment alone when a callback already settled it", func() {
			settled := pendingPayment(2, time.Hour)
			settled.Status = paymentmodel.StatusSuccess
			repo.add(settled)

			rec.expirePayment(ExpireJob{PaymentID: 2, GatewayOrderID: settled.GatewayOrderID})

			kept, err := repo.GetByID(2)
			Expect(err).ToNot(HaveOccurred())
			Expect(kept.Status).To(Equal(paymentmodel.StatusSuccess))
			Consistently(failedSoFar).Should(BeEmpty())
		})
	})

	Describe("SweepOnce", func() {
		It("queues only payments pending past the timeout", func() {
			stale := pendingPayment(1, time.Hour)
			fresh := pendingPayment(2, time.Minute)
			fresh.GatewayOrderID = "ORD_1756600000_002"
			repo.add(stale)
			repo.add(fresh)

			rec.SweepOnce()

			Expect(rec.jobQueue).To(HaveLen(1))
			job := <-rec.jobQueue
			Expect(job.PaymentID).To(Equal(int64(1)))
		})

		It("does nothing when listing fails", func() {
			repo.listErr = gorm.ErrInvalidDB
			repo.add(pendingPayment(1, time.Hour))

			rec.SweepOnce()

			Expect(rec.jobQueue).To(BeEmpty())
		})
	})

	Describe("Start and Shutdown", func() {
		It("drains stale payments through the worker pool", func() {
			repo.add(pendingPayment(1, time.Hour))

			rec.Start()
			defer rec.Shutdown()

			Eventually(func() string {
				p, err := repo.GetByID(1)
				if err != nil {
					return ""
				}
				return p.Status
			}).Should(Equal(paymentmodel.StatusFailed))
		})
	})
})
