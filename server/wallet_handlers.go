package server

import (
	"net/http"

	"investa/domain/services"

	"github.com/shopspring/decimal"
)

type amountBody struct {
	Amount decimal.Decimal `json:"amount"`
}

type creditBody struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpWalletRead, id); !ok {
		return
	}

	snapshot, err := s.deps.Wallet.Snapshot(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newWalletResponse(snapshot))
}

func (s *Server) getPending(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpWalletRead, id); !ok {
		return
	}

	view, err := s.deps.Wallet.PendingView(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPendingResponse(view))
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpHistoryRead, id); !ok {
		return
	}
	limit, err := historyLimit(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := s.deps.Wallet.History(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newHistoryResponse(items))
}

func (s *Server) requestDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpDepositRequest, id); !ok {
		return
	}

	var body amountBody
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, err)
		return
	}

	request, err := s.deps.Wallet.RequestDeposit(r.Context(), id, body.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, newRequestResponse(request))
}

func (s *Server) requestWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpWithdrawalRequest, id); !ok {
		return
	}

	var body amountBody
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, err)
		return
	}

	request, err := s.deps.Wallet.RequestWithdrawal(r.Context(), id, body.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, newRequestResponse(request))
}

func (s *Server) adminCredit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	admin, ok := s.authorize(w, r, services.OpWalletCredit, id)
	if !ok {
		return
	}

	var body creditBody
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, err)
		return
	}

	entry, err := s.deps.Wallet.AdminCredit(r.Context(), id, body.Amount, body.Note, admin.InvestorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newEntryResponse(entry))
}
