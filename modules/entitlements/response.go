package entitlements

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/recruitkit/billing/pkg/entitlement"
	"github.com/recruitkit/billing/pkg/holder"
	"github.com/recruitkit/billing/pkg/plan"
	"github.com/recruitkit/billing/pkg/subscription"
	"github.com/recruitkit/billing/pkg/usage"
)

// JSONResponse is the standard JSON response envelope.
type JSONResponse struct {
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body JSONResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, JSONResponse{Code: "ok", Data: data})
}

func respondError(w http.ResponseWriter, err error) {
	status, code := classifyError(err)
	writeJSON(w, status, JSONResponse{
		Code: code,
		Error: &ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

// classifyError maps domain errors onto HTTP statuses. Anything unmapped is
// treated as a storage outage rather than a client mistake.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, holder.ErrInvalidKind),
		errors.Is(err, holder.ErrInvalidID),
		errors.Is(err, entitlement.ErrHolderNotFound):
		return http.StatusBadRequest, "invalid_holder"
	case errors.Is(err, entitlement.ErrInvalidFeatureKind):
		return http.StatusBadRequest, "invalid_feature_kind"
	case errors.Is(err, entitlement.ErrFeatureNotGranted):
		return http.StatusBadRequest, "feature_not_granted"
	case errors.Is(err, usage.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, plan.ErrPlanNotFound):
		return http.StatusNotFound, "plan_not_found"
	case errors.Is(err, subscription.ErrNotFound):
		return http.StatusNotFound, "subscription_not_found"
	case errors.Is(err, subscription.ErrAlreadyExists):
		return http.StatusConflict, "subscription_exists"
	case errors.Is(err, subscription.ErrVersionConflict):
		return http.StatusConflict, "concurrent_update"
	case errors.Is(err, subscription.ErrDowngradeNotPossible):
		return http.StatusConflict, "downgrade_not_possible"
	case errors.Is(err, subscription.ErrNotActive):
		return http.StatusConflict, "subscription_not_active"
	case errors.Is(err, errBadRequestBody):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusServiceUnavailable, "service_unavailable"
	}
}

var errBadRequestBody = errors.New("malformed request body")

// remainingValue renders a quota remainder as a number, or the string
// "unlimited" for the no-cap sentinel.
type remainingValue int64

func (v remainingValue) MarshalJSON() ([]byte, error) {
	if int64(v) == plan.Unlimited {
		return []byte(`"unlimited"`), nil
	}
	return json.Marshal(int64(v))
}
