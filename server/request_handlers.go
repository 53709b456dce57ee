package server

import (
	"net/http"

	"investa/domain"
	"investa/domain/entities"
	"investa/domain/services"

	"github.com/shopspring/decimal"
)

type decisionBody struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason"`
}

type bulkDecisionBody struct {
	RequestIDs []int64 `json:"request_ids"`
	Outcome    string  `json:"outcome"`
}

type adjustAmountBody struct {
	Amount decimal.Decimal `json:"amount"`
}

func parseOutcome(raw string) (entities.Outcome, error) {
	outcome := entities.Outcome(raw)
	if !outcome.IsValid() {
		return "", domain.NewValidationError("outcome", "must be approve or reject")
	}
	return outcome, nil
}

func (s *Server) listInvestorRequests(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpRequestRead, id); !ok {
		return
	}

	filter, err := requestFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	filter.InvestorID = &id

	requests, err := s.deps.Approvals.ListRequests(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRequestList(requests))
}

func (s *Server) listAllRequests(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r, services.OpRequestReadAll, 0); !ok {
		return
	}

	filter, err := requestFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if filter.InvestorID, err = queryInt64(r, "investor_id"); err != nil {
		writeError(w, err)
		return
	}

	requests, err := s.deps.Approvals.ListRequests(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRequestList(requests))
}

func (s *Server) decideRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	admin, ok := s.authorize(w, r, services.OpRequestDecide, 0)
	if !ok {
		return
	}

	var body decisionBody
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, err)
		return
	}
	outcome, err := parseOutcome(body.Outcome)
	if err != nil {
		writeError(w, err)
		return
	}

	request, err := s.deps.Approvals.Decide(r.Context(), id, outcome, admin.InvestorID, body.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRequestResponse(request))
}

// bulkDecide always answers 200; failures are reported per request id
func (s *Server) bulkDecide(w http.ResponseWriter, r *http.Request) {
	admin, ok := s.authorize(w, r, services.OpRequestDecide, 0)
	if !ok {
		return
	}

	var body bulkDecisionBody
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, err)
		return
	}
	if len(body.RequestIDs) == 0 {
		writeError(w, domain.NewValidationError("request_ids", "must not be empty"))
		return
	}
	outcome, err := parseOutcome(body.Outcome)
	if err != nil {
		writeError(w, err)
		return
	}

	results := s.deps.Approvals.BulkDecide(r.Context(), body.RequestIDs, outcome, admin.InvestorID)
	writeJSON(w, http.StatusOK, newBulkResults(results))
}

func (s *Server) adjustRequestAmount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpRequestAdjust, 0); !ok {
		return
	}

	var body adjustAmountBody
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, err)
		return
	}

	request, err := s.deps.Approvals.AdjustPendingDeposit(r.Context(), id, body.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRequestResponse(request))
}
