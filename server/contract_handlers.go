package server

import (
	"net/http"

	"investa/domain"
	"investa/domain/entities"
	"investa/domain/interfaces"
	"investa/domain/services"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// createContractBody takes rate and term only from admins; investors get the offered terms
type createContractBody struct {
	Principal     decimal.Decimal `json:"principal"`
	MonthlyRate   decimal.Decimal `json:"monthly_rate"`
	TermMonths    int             `json:"term_months"`
	TermsAccepted bool            `json:"terms_accepted"`
}

func (b createContractBody) setsTerms() bool {
	return !b.MonthlyRate.IsZero() || b.TermMonths != 0
}

type reinvestBody struct {
	Amount        decimal.Decimal `json:"amount"`
	TermsAccepted bool            `json:"terms_accepted"`
}

type contractPatchBody struct {
	State           string           `json:"state"`
	MonthsPaid      *int             `json:"months_paid"`
	ProfitPaidTotal *decimal.Decimal `json:"profit_paid_total"`
}

type accrualBody struct {
	Period *int `json:"period"`
}

type accrualResponse struct {
	Credited int               `json:"credited"`
	Entry    *entryResponse    `json:"entry,omitempty"`
	Contract *contractResponse `json:"contract,omitempty"`
}

func (s *Server) listInvestorContracts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpContractRead, id); !ok {
		return
	}

	contracts, err := s.deps.Contracts.ListContracts(r.Context(), entities.ContractFilter{InvestorID: &id})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newContractList(contracts))
}

func (s *Server) createContract(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpContractCreate, id); !ok {
		return
	}

	var body createContractBody
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, err)
		return
	}
	if body.setsTerms() {
		if _, ok := s.authorize(w, r, services.OpContractSetTerms, id); !ok {
			return
		}
	}

	contract, err := s.deps.Contracts.Create(r.Context(), interfaces.CreateContractRequest{
		InvestorID:    id,
		Principal:     body.Principal,
		MonthlyRate:   body.MonthlyRate,
		TermMonths:    body.TermMonths,
		TermsAccepted: body.TermsAccepted,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newContractResponse(contract))
}

func (s *Server) reinvestProfit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpContractReinvest, id); !ok {
		return
	}

	var body reinvestBody
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, err)
		return
	}

	contract, err := s.deps.Contracts.Reinvest(r.Context(), interfaces.CreateContractRequest{
		InvestorID:    id,
		Principal:     body.Amount,
		TermsAccepted: body.TermsAccepted,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newContractResponse(contract))
}

// requestRefund resolves the contract owner before authorizing, so the gate sees the real target
func (s *Server) requestRefund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	contract, err := s.deps.Contracts.GetContract(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpContractRefund, contract.InvestorID); !ok {
		return
	}

	request, err := s.deps.Contracts.RequestEarlyRefund(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, newRequestResponse(request))
}

func (s *Server) listAllContracts(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r, services.OpContractReadAll, 0); !ok {
		return
	}

	investorID, err := queryInt64(r, "investor_id")
	if err != nil {
		writeError(w, err)
		return
	}
	filter := entities.ContractFilter{InvestorID: investorID}
	if raw := r.URL.Query().Get("state"); raw != "" {
		state := entities.ContractState(raw)
		if !state.IsValid() {
			writeError(w, domain.NewValidationError("state", "unknown contract state"))
			return
		}
		filter.State = &state
	}

	contracts, err := s.deps.Contracts.ListContracts(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newContractList(contracts))
}

func (s *Server) adminUpdateContract(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	admin, ok := s.authorize(w, r, services.OpContractAdmin, 0)
	if !ok {
		return
	}

	var body contractPatchBody
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, err)
		return
	}

	contract, err := s.deps.Contracts.AdminUpdateStatus(r.Context(), id, entities.ContractState(body.State), entities.ContractPatch{
		MonthsPaid:      body.MonthsPaid,
		ProfitPaidTotal: body.ProfitPaidTotal,
	}, admin.InvestorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newContractResponse(contract))
}

// accrueContract credits one explicit period, or every period due by now when none is given
func (s *Server) accrueContract(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpContractAccrue, 0); !ok {
		return
	}

	var body accrualBody
	if err := decodeBody(r, &body, true); err != nil {
		writeError(w, err)
		return
	}

	var resp accrualResponse
	if body.Period != nil {
		entry, err := s.deps.Contracts.AccrueMonthlyProfit(r.Context(), id, *body.Period)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Credited = 1
		e := newEntryResponse(entry)
		resp.Entry = &e
	} else {
		credited, err := s.deps.Contracts.AccrueDue(r.Context(), id, s.now())
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Credited = credited
	}

	contract, err := s.deps.Contracts.GetContract(r.Context(), id)
	if err != nil {
		log.WithError(err).WithField("contract_id", id).Warn("Failed to reload contract after accrual")
	} else {
		c := newContractResponse(contract)
		resp.Contract = &c
	}
	writeJSON(w, http.StatusOK, resp)
}
