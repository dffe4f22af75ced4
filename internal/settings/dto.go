package settings

import (
	"time"

	errors "github.com/KinzixInfotech/edutemp-sub018/internal"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/common/validation"
	settingsmodel "github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/settings"
	"github.com/KinzixInfotech/edutemp-sub018/internal/gateway"
)

// UpdateSettingsRequest is the tenant-admin payload for gateway
// configuration.
type UpdateSettingsRequest struct {
	Provider   string `json:"provider"`
	IsEnabled  bool   `json:"is_enabled"`
	TestMode   *bool  `json:"test_mode"`
	MerchantID string `json:"merchant_id"`
	AccessCode string `json:"access_code"`
	SecretKey  string `json:"secret_key"`
	WorkingKey string `json:"working_key"`
	SuccessURL string `json:"success_url"`
	FailureURL string `json:"failure_url"`
}

func (r *UpdateSettingsRequest) Validate() error {
	validator := validation.NewValidator()

	if r.IsEnabled {
		validator.Field("provider", r.Provider).Required()
		validator.Field("merchant_id", r.MerchantID).Required()
	}
	validator.Field("provider", r.Provider).MaxLength(64, errors.ErrCodeValidationFailed)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	if r.Provider != "" {
		if _, err := gateway.ParseProvider(r.Provider); err != nil {
			return errors.NewValidationError("unsupported payment provider", errors.ErrCodeUnknownProvider).WithCause(err)
		}
	}
	return nil
}

// SettingsView is the admin-facing read shape; secrets are masked.
type SettingsView struct {
	SchoolID   string    `json:"school_id"`
	Provider   string    `json:"provider"`
	IsEnabled  bool      `json:"is_enabled"`
	TestMode   bool      `json:"test_mode"`
	MerchantID string    `json:"merchant_id"`
	AccessCode string    `json:"access_code"`
	SecretKey  string    `json:"secret_key"`
	WorkingKey string    `json:"working_key"`
	SuccessURL string    `json:"success_url"`
	FailureURL string    `json:"failure_url"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func ToView(s *settingsmodel.PaymentSettings) *SettingsView {
	if s == nil {
		return nil
	}
	return &SettingsView{
		SchoolID:   s.SchoolID,
		Provider:   s.Provider,
		IsEnabled:  s.IsEnabled,
		TestMode:   s.TestMode,
		MerchantID: s.MerchantID,
		AccessCode: maskSecret(s.AccessCode),
		SecretKey:  maskSecret(s.SecretKey),
		WorkingKey: maskSecret(s.WorkingKey),
		SuccessURL: s.SuccessURL,
		FailureURL: s.FailureURL,
		UpdatedAt:  s.UpdatedAt,
	}
}

// VerifyConfigResult reports the outcome of a configuration self-test.
type VerifyConfigResult struct {
	Provider  string `json:"provider"`
	TestMode  bool   `json:"test_mode"`
	IsEnabled bool   `json:"is_enabled"`
	Valid     bool   `json:"valid"`
	Message   string `json:"message,omitempty"`
}
