package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"investa/domain"

	log "github.com/sirupsen/logrus"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domain.ErrValidation, http.StatusBadRequest, "validation_error"},
	{domain.ErrInvalidFieldValue, http.StatusBadRequest, "invalid_field_value"},
	{domain.ErrTermsNotAccepted, http.StatusBadRequest, "terms_not_accepted"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrUnknownInvestor, http.StatusNotFound, "unknown_investor"},
	{domain.ErrUnknownContract, http.StatusNotFound, "unknown_contract"},
	{domain.ErrUnknownRequest, http.StatusNotFound, "unknown_request"},
	{domain.ErrAlreadyDecided, http.StatusConflict, "already_decided"},
	{domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{domain.ErrDuplicateAccrual, http.StatusConflict, "duplicate_accrual"},
	{domain.ErrInsufficientProfitBalance, http.StatusUnprocessableEntity, "insufficient_profit_balance"},
	{domain.ErrInsufficientDeployableFunds, http.StatusUnprocessableEntity, "insufficient_deployable_funds"},
	{domain.ErrRefundNotEligible, http.StatusUnprocessableEntity, "refund_not_eligible"},
	{domain.ErrProfileIncomplete, http.StatusUnprocessableEntity, "profile_incomplete"},
	{domain.ErrInvestorInactive, http.StatusUnprocessableEntity, "investor_inactive"},
	{domain.ErrDepositsClosed, http.StatusUnprocessableEntity, "deposits_closed"},
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps an error to its HTTP status and stable code
func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Unhandled request error")
		message = "internal server error"
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}
