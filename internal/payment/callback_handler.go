package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	errors "github.com/KinzixInfotech/edutemp-sub018/internal"
	"github.com/KinzixInfotech/edutemp-sub018/internal/gateway"
	"github.com/KinzixInfotech/edutemp-sub018/internal/settings"
	"github.com/KinzixInfotech/edutemp-sub018/internal/transport"
)

// CallbackHandler receives the banks' server-to-server posts. These are
// raw form posts with provider-specific field names, not JSON from our
// own clients.
type CallbackHandler struct {
	transport.BaseHandler
	Service ServiceAPI
	Logger  *slog.Logger
}

func NewCallbackHandler(service ServiceAPI, logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		BaseHandler: *transport.NewBaseHandler(logger),
		Service:     service,
		Logger:      logger,
	}
}

// HandleCallback handles POST /api/v1/payment/callback/{provider}.
func (h *CallbackHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")

	params, err := decodeCallbackParams(r)
	if err != nil {
		h.Logger.Error("invalid gateway callback payload", "error", err, "provider", providerName)
		h.HandleError(w, errors.NewValidationError("invalid callback payload", errors.ErrCodeValidationFailed))
		return
	}

	outcome, err := h.Service.HandleCallback(r.Context(), providerName, params)
	if err != nil {
		h.Logger.Error("failed to process gateway callback",
			"error", err,
			"provider", providerName)
		h.HandleServiceError(w, err)
		return
	}

	// the bank posts via the payer's browser on the return leg; send the
	// payer on to the school's configured landing page when there is one
	if outcome.RedirectURL != "" {
		http.Redirect(w, r, outcome.RedirectURL, http.StatusFound)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    outcome.Payment.Status,
		"order_id":  outcome.Payment.GatewayOrderID,
		"duplicate": outcome.Duplicate,
	})
}

// SimulateCallback handles POST /api/v1/payment/dev/simulate. Only
// mounted when dev tools are enabled; builds a correctly signed callback
// for a pending order and runs it through the normal path.
func (h *CallbackHandler) SimulateCallback(w http.ResponseWriter, r *http.Request) {
	var req SimulateCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}
	if err := req.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	record, err := h.Service.GetByOrderID(req.OrderID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	cfg, err := h.Service.SettingsForSchool(record.SchoolID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	provider, err := gateway.ParseProvider(record.GatewayName)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("payment has an unsupported provider", errors.ErrCodeUnknownProvider))
		return
	}

	transactionID := req.TransactionID
	if transactionID == "" {
		transactionID = "SIMTXN_" + record.GatewayOrderID
	}

	params := gateway.CallbackParams(provider, record.GatewayOrderID, amountString(record.Amount), transactionID, req.Success)
	params, err = gateway.SignCallback(provider, settings.GatewayCredentials(cfg), params)
	if err != nil {
		h.HandleError(w, errors.NewInternalError("failed to sign simulated callback", err))
		return
	}

	outcome, err := h.Service.HandleCallback(r.Context(), provider.String(), params)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    outcome.Payment.Status,
		"order_id":  outcome.Payment.GatewayOrderID,
		"duplicate": outcome.Duplicate,
	})
}

func amountString(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// decodeCallbackParams flattens either a form post (the banks) or a JSON
// object (the simulator page) into string fields.
func decodeCallbackParams(r *http.Request) (map[string]string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var raw map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, err
		}
		params := make(map[string]string, len(raw))
		for k, v := range raw {
			switch value := v.(type) {
			case string:
				params[k] = value
			case float64:
				params[k] = strconv.FormatFloat(value, 'f', -1, 64)
			}
		}
		return params, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	params := make(map[string]string, len(r.PostForm))
	for k, values := range r.PostForm {
		if len(values) > 0 {
			params[k] = values[0]
		}
	}
	return params, nil
}
