package settings

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	apperrors "github.com/KinzixInfotech/edutemp-sub018/internal"
	settingsmodel "github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/settings"
	"github.com/KinzixInfotech/edutemp-sub018/internal/gateway"
)

// CacheInvalidator drops portal caches when gateway settings change.
type CacheInvalidator interface {
	InvalidateSchool(ctx context.Context, schoolID string) error
}

type Service struct {
	repo   RepositoryAPI
	cache  CacheInvalidator
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, cache CacheInvalidator, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// GetForSchool returns the settings row, creating a disabled default
// when the school has none yet.
func (s *Service) GetForSchool(schoolID string) (*settingsmodel.PaymentSettings, error) {
	record, err := s.repo.GetBySchoolID(schoolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record = &settingsmodel.PaymentSettings{SchoolID: schoolID, TestMode: true}
			if createErr := s.repo.Upsert(record); createErr != nil {
				return nil, createErr
			}
			return record, nil
		}
		return nil, err
	}
	return record, nil
}

// Update applies the admin payload. Empty secret fields keep the stored
// value so admins can toggle the gateway without re-entering keys.
func (s *Service) Update(ctx context.Context, schoolID string, req *UpdateSettingsRequest) (*settingsmodel.PaymentSettings, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	record, err := s.GetForSchool(schoolID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load payment settings", err)
	}

	record.Provider = req.Provider
	record.IsEnabled = req.IsEnabled
	if req.TestMode != nil {
		record.TestMode = *req.TestMode
	}
	if req.MerchantID != "" {
		record.MerchantID = req.MerchantID
	}
	if req.AccessCode != "" {
		record.AccessCode = req.AccessCode
	}
	if req.SecretKey != "" {
		record.SecretKey = req.SecretKey
	}
	if req.WorkingKey != "" {
		record.WorkingKey = req.WorkingKey
	}
	record.SuccessURL = req.SuccessURL
	record.FailureURL = req.FailureURL

	if err := s.repo.Upsert(record); err != nil {
		return nil, apperrors.NewInternalError("failed to save payment settings", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateSchool(ctx, schoolID); err != nil {
			s.logger.Warn("failed to invalidate portal cache after settings change",
				"error", err,
				"school_id", schoolID)
		}
	}

	s.logger.Info("payment settings updated",
		"school_id", schoolID,
		"provider", record.Provider,
		"is_enabled", record.IsEnabled,
		"test_mode", record.TestMode)

	return record, nil
}

// VerifyConfig runs a configuration self-test: build the adapter with
// the stored secrets and round-trip a probe checksum. Key problems
// surface here, at configuration time, instead of at callback time.
func (s *Service) VerifyConfig(schoolID string) (*VerifyConfigResult, error) {
	record, err := s.GetForSchool(schoolID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load payment settings", err)
	}

	result := &VerifyConfigResult{
		Provider:  record.Provider,
		TestMode:  record.TestMode,
		IsEnabled: record.IsEnabled,
	}

	provider, err := gateway.ParseProvider(record.Provider)
	if err != nil {
		result.Message = "no supported provider configured"
		return result, nil
	}

	creds := GatewayCredentials(record)
	adapter, err := gateway.NewAdapter(provider, creds)
	if err != nil {
		result.Message = err.Error()
		return result, nil
	}

	probe := gateway.CallbackParams(provider, "ORD_0_0", "1.00", "PROBE", true)
	probe, err = gateway.SignCallback(provider, creds, probe)
	if err != nil {
		result.Message = err.Error()
		return result, nil
	}
	if _, err := adapter.VerifyCallback(probe); err != nil {
		result.Message = err.Error()
		return result, nil
	}

	result.Valid = true
	return result, nil
}
