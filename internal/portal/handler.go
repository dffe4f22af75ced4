package portal

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/KinzixInfotech/edutemp-sub018/internal"
	"github.com/KinzixInfotech/edutemp-sub018/internal/payment"
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

// ListFees handles GET /api/v1/portal/fees.
func (h *Handler) ListFees(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.ErrSessionExpired)
		return
	}

	summary, err := h.Service.ListFees(r.Context(), sess)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

// FeePayments handles GET /api/v1/portal/fees/{feeID}/payments.
func (h *Handler) FeePayments(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.ErrSessionExpired)
		return
	}

	feeID, err := strconv.ParseInt(chi.URLParam(r, "feeID"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid fee ID", errors.ErrCodeValidationFailed))
		return
	}

	history, err := h.Service.FeePayments(r.Context(), sess, feeID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	views := make([]*payment.PaymentView, 0, len(history))
	for _, record := range history {
		views = append(views, payment.ToView(record))
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"payments": views})
}
