package portal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/KinzixInfotech/edutemp-sub018/internal"
	"github.com/KinzixInfotech/edutemp-sub018/internal/cache"
	paymentmodel "github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/payment"
	"github.com/KinzixInfotech/edutemp-sub018/internal/session"
)

// PaymentHistoryAPI is the slice of the payment repository the portal
// reads for a fee's payment history.
type PaymentHistoryAPI interface {
	GetByStudentFeeID(studentFeeID int64) ([]*paymentmodel.FeePayment, error)
}

type ServiceAPI interface {
	ListFees(ctx context.Context, sess *session.Session) (*FeeSummary, error)
	FeePayments(ctx context.Context, sess *session.Session, feeID int64) ([]*paymentmodel.FeePayment, error)
}

type Service struct {
	repo     RepositoryAPI
	payments PaymentHistoryAPI
	cache    *cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, payments PaymentHistoryAPI, c *cache.Cache, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		payments: payments,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// ListFees returns the session student's fee summary for the active
// academic year. Listings are served through the cache; payment success
// and settings changes invalidate it.
func (s *Service) ListFees(ctx context.Context, sess *session.Session) (*FeeSummary, error) {
	var summary FeeSummary

	load := func() (interface{}, error) {
		fees, err := s.repo.ListFeesForStudent(sess.StudentID, sess.SchoolID, sess.AcademicYearID)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to list student fees", err)
		}

		result := FeeSummary{
			AcademicYearID: sess.AcademicYearID,
			Fees:           make([]FeeView, 0, len(fees)),
		}
		for _, fee := range fees {
			result.Fees = append(result.Fees, toFeeView(fee))
			result.TotalDue += fee.FinalAmount
			result.TotalPaid += fee.PaidAmount
			result.TotalBalance += fee.BalanceAmount
		}
		return result, nil
	}

	if s.cache == nil {
		value, err := load()
		if err != nil {
			return nil, err
		}
		summary = value.(FeeSummary)
		return &summary, nil
	}

	key := cache.FeeSummaryKey(sess.SchoolID, sess.StudentID, sess.AcademicYearID)
	if err := s.cache.Remember(ctx, key, s.cacheTTL, &summary, load); err != nil {
		return nil, err
	}
	return &summary, nil
}

// FeePayments returns the payment history for one of the student's own
// fees. Ownership is checked before the history is exposed.
func (s *Service) FeePayments(ctx context.Context, sess *session.Session, feeID int64) ([]*paymentmodel.FeePayment, error) {
	fee, err := s.repo.GetFeeByID(feeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStudentFeeNotFound
		}
		return nil, apperrors.NewInternalError("failed to load student fee", err)
	}
	if fee.StudentID != sess.StudentID || fee.SchoolID != sess.SchoolID {
		return nil, apperrors.ErrStudentFeeNotFound
	}

	history, err := s.payments.GetByStudentFeeID(feeID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load payment history", err)
	}
	return history, nil
}
