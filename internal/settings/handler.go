package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/KinzixInfotech/edutemp-sub018/internal"
	settingsmodel "github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/settings"
	"github.com/KinzixInfotech/edutemp-sub018/internal/auth"
	"github.com/KinzixInfotech/edutemp-sub018/internal/transport"
)

// ServiceAPI is the settings service contract used by the HTTP handler.
type ServiceAPI interface {
	GetForSchool(schoolID string) (*settingsmodel.PaymentSettings, error)
	Update(ctx context.Context, schoolID string, req *UpdateSettingsRequest) (*settingsmodel.PaymentSettings, error)
	VerifyConfig(schoolID string) (*VerifyConfigResult, error)
}

type Handler struct {
	transport.BaseHandler
	Service ServiceAPI
	Logger  *slog.Logger
}

func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: *transport.NewBaseHandler(logger),
		Service:     service,
		Logger:      logger,
	}
}

// GetSettings handles GET /api/v1/schools/payment-settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.ErrInvalidToken)
		return
	}

	record, err := h.Service.GetForSchool(admin.SchoolID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(record))
}

// UpdateSettings handles PUT /api/v1/schools/payment-settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.ErrInvalidToken)
		return
	}

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("UpdateSettings: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	record, err := h.Service.Update(r.Context(), admin.SchoolID, &req)
	if err != nil {
		h.Logger.Error("UpdateSettings: service error", "error", err, "school_id", admin.SchoolID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(record))
}

// VerifyConfig handles POST /api/v1/schools/payment-settings/verify.
func (h *Handler) VerifyConfig(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.ErrInvalidToken)
		return
	}

	result, err := h.Service.VerifyConfig(admin.SchoolID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}
