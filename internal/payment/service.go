package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/KinzixInfotech/edutemp-sub018/internal"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/payment"
	settingsmodel "github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/settings"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/events"
	"github.com/KinzixInfotech/edutemp-sub018/internal/gateway"
	"github.com/KinzixInfotech/edutemp-sub018/internal/settings"
)

// SettingsAPI is what the payment service needs from gateway settings.
type SettingsAPI interface {
	GetForSchool(schoolID string) (*settingsmodel.PaymentSettings, error)
}

// ServiceAPI is the payment service contract used by the HTTP handlers.
type ServiceAPI interface {
	InitiatePayment(ctx context.Context, studentID int64, req *InitiatePaymentRequest) (*InitiatePaymentResponse, error)
	HandleCallback(ctx context.Context, providerName string, params map[string]string) (*CallbackOutcome, error)
	GetByOrderID(orderID string) (*payment.FeePayment, error)
	GetForStudent(orderID string, studentID int64) (*payment.FeePayment, error)
	SettingsForSchool(schoolID string) (*settingsmodel.PaymentSettings, error)
}

type Service struct {
	repo            RepositoryAPI
	fees            StudentFeeAPI
	settings        SettingsAPI
	eventBus        *events.EventBus
	callbackBaseURL string
	logger          *slog.Logger
}

func NewService(repo RepositoryAPI, fees StudentFeeAPI, settingsAPI SettingsAPI, eventBus *events.EventBus, callbackBaseURL string, logger *slog.Logger) *Service {
	return &Service{
		repo:            repo,
		fees:            fees,
		settings:        settingsAPI,
		eventBus:        eventBus,
		callbackBaseURL: callbackBaseURL,
		logger:          logger,
	}
}

// InitiatePayment creates the PENDING payment row and builds the bank
// redirect. The row is created before the payer ever leaves for the bank
// so a callback always has something to update.
func (s *Service) InitiatePayment(ctx context.Context, studentID int64, req *InitiatePaymentRequest) (*InitiatePaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fee, err := s.fees.GetFeeByID(req.StudentFeeID)
	if err != nil {
		return nil, apperrors.ErrStudentFeeNotFound
	}
	if fee.StudentID != studentID {
		return nil, apperrors.NewForbiddenError("fee does not belong to this student", apperrors.ErrCodeValidationFailed)
	}

	student, err := s.fees.GetStudentByID(fee.StudentID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load student", err)
	}

	cfg, err := s.settings.GetForSchool(fee.SchoolID)
	if err != nil {
		return nil, apperrors.ErrGatewayNotConfigured.WithCause(err)
	}
	if !cfg.IsEnabled {
		return nil, apperrors.ErrGatewayDisabled
	}

	provider, err := gateway.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, apperrors.NewValidationError("configured payment provider is not supported", apperrors.ErrCodeUnknownProvider).WithCause(err)
	}

	adapter, err := gateway.NewAdapter(provider, settings.GatewayCredentials(cfg))
	if err != nil {
		return nil, apperrors.ErrGatewayNotConfigured.WithCause(err)
	}

	record, err := s.createPendingPayment(fee.ID, fee.SchoolID, fee.AcademicYearID, req.Amount, provider)
	if err != nil {
		s.logger.Error("failed to create pending payment",
			"error", err,
			"student_fee_id", fee.ID,
			"school_id", fee.SchoolID)
		return nil, apperrors.NewInternalError("failed to create payment record", err)
	}

	returnURL := fmt.Sprintf("%s/api/v1/payment/callback/%s", s.callbackBaseURL, provider)
	redirect, err := adapter.InitiatePayment(gateway.InitiateRequest{
		OrderID:     record.GatewayOrderID,
		Amount:      req.Amount,
		StudentName: student.Name,
		Email:       student.Email,
		Phone:       student.ContactNumber,
		ReturnURL:   returnURL,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build gateway redirect", err)
	}

	s.logger.Info("payment initiated",
		"payment_id", record.ID,
		"order_id", record.GatewayOrderID,
		"student_fee_id", fee.ID,
		"school_id", fee.SchoolID,
		"provider", provider,
		"amount", req.Amount)

	return &InitiatePaymentResponse{
		PaymentID: record.ID,
		OrderID:   record.GatewayOrderID,
		Redirect:  redirect,
	}, nil
}

// createPendingPayment inserts the PENDING row, retrying once with a
// fresh order ID when the timestamp+suffix scheme collides.
func (s *Service) createPendingPayment(studentFeeID int64, schoolID, academicYearID string, amount float64, provider gateway.Provider) (*payment.FeePayment, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		record := &payment.FeePayment{
			StudentFeeID:   studentFeeID,
			SchoolID:       schoolID,
			AcademicYearID: academicYearID,
			Amount:         amount,
			Status:         payment.StatusPending,
			GatewayName:    provider.String(),
			GatewayOrderID: GenerateOrderID(),
		}
		if err := s.repo.Create(record); err != nil {
			lastErr = err
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return nil, err
		}
		return record, nil
	}
	return nil, fmt.Errorf("order id collision persisted after retry: %w", lastErr)
}

// HandleCallback processes a bank's server-to-server form post. The
// checksum is verified with the tenant's stored secret before any state
// changes; a mismatch can only ever mark the payment FAILED.
func (s *Service) HandleCallback(ctx context.Context, providerName string, params map[string]string) (*CallbackOutcome, error) {
	provider, err := gateway.ParseProvider(providerName)
	if err != nil {
		return nil, apperrors.NewValidationError("unsupported callback provider", apperrors.ErrCodeUnknownProvider).WithCause(err)
	}

	orderID := gateway.CallbackOrderID(provider, params)
	if orderID == "" {
		return nil, apperrors.NewValidationError("callback is missing the order id", apperrors.ErrCodeValidationFailed)
	}

	record, err := s.repo.GetByOrderID(orderID)
	if err != nil {
		s.logger.Warn("callback for unknown order", "order_id", orderID, "provider", provider)
		return nil, apperrors.ErrUnknownOrder
	}

	cfg, err := s.settings.GetForSchool(record.SchoolID)
	if err != nil {
		return nil, apperrors.ErrGatewayNotConfigured.WithCause(err)
	}

	adapter, err := gateway.NewAdapter(provider, settings.GatewayCredentials(cfg))
	if err != nil {
		return nil, apperrors.ErrGatewayNotConfigured.WithCause(err)
	}

	result, err := adapter.VerifyCallback(params)
	if err != nil {
		if errors.Is(err, gateway.ErrChecksumMismatch) {
			// authenticity failure, not a transient error: the payment
			// must never become SUCCESS off an unverified payload
			s.failPayment(ctx, record, "checksum mismatch on gateway callback", nil)
			return nil, apperrors.NewUnauthorizedError("callback checksum verification failed", apperrors.ErrCodeChecksumMismatch)
		}
		return nil, apperrors.NewValidationError("malformed gateway callback", apperrors.ErrCodeValidationFailed).WithCause(err)
	}

	rawResponse, _ := json.Marshal(params)

	if !result.Success {
		reason := fmt.Sprintf("gateway declined: %s %s", result.ResponseCode, result.ResponseMessage)
		outcome := s.failPayment(ctx, record, reason, rawResponse)
		outcome.RedirectURL = cfg.FailureURL
		return outcome, nil
	}

	now := time.Now().UTC()
	receiptNumber := GenerateReceiptNumber(now)
	updates := map[string]interface{}{
		"status":           payment.StatusSuccess,
		"receipt_number":   receiptNumber,
		"paid_at":          now,
		"gateway_response": rawResponse,
		"updated_at":       now,
	}
	if result.BankTransactionID != "" {
		updates["bank_transaction_id"] = result.BankTransactionID
	}

	transitioned, err := s.repo.TransitionStatus(record.ID, updates)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update payment status", err)
	}

	if !transitioned {
		// duplicate delivery: the bank retried after we already reached a
		// terminal status. Report the stored state, run no side effects.
		current, getErr := s.repo.GetByID(record.ID)
		if getErr != nil {
			return nil, apperrors.NewInternalError("failed to load payment after duplicate callback", getErr)
		}
		s.logger.Info("duplicate gateway callback ignored",
			"payment_id", current.ID,
			"order_id", orderID,
			"status", current.Status)
		// the stored state decides the landing page: the reconciler may
		// have expired this payment before the bank's retry arrived
		redirectURL := cfg.SuccessURL
		if current.Status == payment.StatusFailed {
			redirectURL = cfg.FailureURL
		}
		return &CallbackOutcome{Payment: current, Duplicate: true, RedirectURL: redirectURL}, nil
	}

	if err := s.fees.ApplyPayment(record.StudentFeeID, record.Amount); err != nil {
		// payment is already final; the ledger catches up via reconciliation
		s.logger.Error("failed to apply payment to student fee",
			"error", err,
			"payment_id", record.ID,
			"student_fee_id", record.StudentFeeID)
	}

	updated, err := s.repo.GetByID(record.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to reload payment", err)
	}

	s.eventBus.Publish(ctx, events.NewPaymentSucceededEvent(
		updated.ID, updated.StudentFeeID, updated.SchoolID,
		updated.GatewayOrderID, result.BankTransactionID, updated.Amount, receiptNumber))

	s.logger.Info("payment captured",
		"payment_id", updated.ID,
		"order_id", updated.GatewayOrderID,
		"bank_transaction_id", result.BankTransactionID,
		"receipt_number", receiptNumber,
		"amount", updated.Amount)

	return &CallbackOutcome{Payment: updated, RedirectURL: cfg.SuccessURL}, nil
}

// failPayment applies the PENDING→FAILED transition. Safe to call on an
// already-final payment: the conditional update simply does nothing.
func (s *Service) failPayment(ctx context.Context, record *payment.FeePayment, reason string, rawResponse json.RawMessage) *CallbackOutcome {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":         payment.StatusFailed,
		"failure_reason": reason,
		"updated_at":     now,
	}
	if rawResponse != nil {
		updates["gateway_response"] = rawResponse
	}

	transitioned, err := s.repo.TransitionStatus(record.ID, updates)
	if err != nil {
		s.logger.Error("failed to mark payment failed",
			"error", err,
			"payment_id", record.ID,
			"reason", reason)
		return &CallbackOutcome{Payment: record}
	}

	current, err := s.repo.GetByID(record.ID)
	if err != nil {
		current = record
	}

	if !transitioned {
		s.logger.Info("duplicate gateway callback ignored",
			"payment_id", current.ID,
			"order_id", current.GatewayOrderID,
			"status", current.Status)
		return &CallbackOutcome{Payment: current, Duplicate: true}
	}

	s.eventBus.Publish(ctx, events.NewPaymentFailedEvent(
		current.ID, current.StudentFeeID, current.SchoolID,
		current.GatewayOrderID, current.Amount, reason))

	s.logger.Warn("payment failed",
		"payment_id", current.ID,
		"order_id", current.GatewayOrderID,
		"reason", reason)

	return &CallbackOutcome{Payment: current}
}

func (s *Service) GetByOrderID(orderID string) (*payment.FeePayment, error) {
	record, err := s.repo.GetByOrderID(orderID)
	if err != nil {
		return nil, apperrors.ErrPaymentNotFound
	}
	return record, nil
}

// GetForStudent is the payer-facing lookup. Order IDs are guessable, so
// the fee behind the payment must belong to the session's student; a
// foreign payment is indistinguishable from a missing one.
func (s *Service) GetForStudent(orderID string, studentID int64) (*payment.FeePayment, error) {
	record, err := s.repo.GetByOrderID(orderID)
	if err != nil {
		return nil, apperrors.ErrPaymentNotFound
	}

	fee, err := s.fees.GetFeeByID(record.StudentFeeID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load student fee for payment", err)
	}
	if fee.StudentID != studentID {
		return nil, apperrors.ErrPaymentNotFound
	}

	return record, nil
}

// SettingsForSchool exposes tenant settings for the dev simulator, which
// must sign callbacks with the tenant's own secrets.
func (s *Service) SettingsForSchool(schoolID string) (*settingsmodel.PaymentSettings, error) {
	return s.settings.GetForSchool(schoolID)
}
