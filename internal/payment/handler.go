package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	errors "github.com/KinzixInfotech/edutemp-sub018/internal"
	"github.com/KinzixInfotech/edutemp-sub018/internal/session"
	"github.com/KinzixInfotech/edutemp-sub018/internal/transport"
)

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

// InitiatePayment handles POST /api/v1/portal/payments. Requires a valid
// payer session; the fee being paid must belong to the session's student.
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.ErrSessionExpired)
		return
	}

	var req InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("InitiatePayment: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	resp, err := h.Service.InitiatePayment(r.Context(), sess.StudentID, &req)
	if err != nil {
		h.Logger.Error("InitiatePayment: service error",
			"error", err,
			"student_id", sess.StudentID,
			"student_fee_id", req.StudentFeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

// GetPayment handles GET /api/v1/portal/payments/{orderID}.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.ErrSessionExpired)
		return
	}

	orderID := chi.URLParam(r, "orderID")
	record, err := h.Service.GetForStudent(orderID, sess.StudentID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(record))
}
