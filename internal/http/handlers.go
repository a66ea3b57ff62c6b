package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"pocketmoney/internal/approval"
	"pocketmoney/internal/core"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports whether the backing store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	month, err := queryMonth(r, "month", core.MonthOf(today))
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.summaries.Summary(r.Context(), r.PathValue("kid"), month, today)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date", s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.summaries.BalanceOn(r.Context(), r.PathValue("kid"), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	var choreType *core.ChoreType
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		t := core.ChoreType(v)
		choreType = &t
	}
	entries, err := s.chores.Pending(r.Context(), r.PathValue("kid"), choreType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type approveAllResponse struct {
	approval.BatchResult
	Failures []failureDetail `json:"failures,omitempty"`
}

// handleApproveAll answers 207 when some entries could not be approved. The
// body then lists what went through alongside the failures.
func (s *Server) handleApproveAll(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.chores.ApproveAllForDate(r.Context(), r.PathValue("kid"), date)
	var batchErr *core.BatchError
	switch {
	case errors.As(err, &batchErr):
		writeJSON(w, http.StatusMultiStatus, approveAllResponse{BatchResult: res, Failures: failureDetails(batchErr)})
	case err != nil:
		writeError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, approveAllResponse{BatchResult: res})
	}
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	entry, err := s.chores.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	entry, err := s.chores.Reject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteChoreEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.chores.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type logChoreRequest struct {
	ChoreID string `json:"choreId"`
	Date    string `json:"date"`
	Notes   string `json:"notes"`
}

func (s *Server) handleLogChore(w http.ResponseWriter, r *http.Request) {
	var req logChoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date := s.today()
	if strings.TrimSpace(req.Date) != "" {
		d, err := core.ParseDate(strings.TrimSpace(req.Date))
		if err != nil {
			writeError(w, r, badRequestf("date: %v", err))
			return
		}
		date = d
	}
	entry, err := s.chores.LogChore(r.Context(), r.PathValue("kid"), strings.TrimSpace(req.ChoreID), date, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

type ledgerEntryRequest struct {
	Date      string `json:"date"`
	Amount    string `json:"amount"`
	Kind      string `json:"kind"`
	Narrative string `json:"narrative"`
	Notes     string `json:"notes"`
}

func (s *Server) handleCreateLedgerEntry(w http.ResponseWriter, r *http.Request) {
	var req ledgerEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date := s.today()
	if strings.TrimSpace(req.Date) != "" {
		d, err := core.ParseDate(strings.TrimSpace(req.Date))
		if err != nil {
			writeError(w, r, badRequestf("date: %v", err))
			return
		}
		date = d
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.ledger.CreateEntry(r.Context(), r.PathValue("kid"), core.NewLedgerEntry{
		EntryDate: date,
		Amount:    amount,
		Kind:      core.LedgerKind(strings.TrimSpace(req.Kind)),
		Narrative: req.Narrative,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

type allowanceRequest struct {
	MonthlyAmount      string `json:"monthlyAmount"`
	EffectiveStartDate string `json:"effectiveStartDate"`
}

func (s *Server) handleSetAllowance(w http.ResponseWriter, r *http.Request) {
	var req allowanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount("monthlyAmount", req.MonthlyAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := core.ParseDate(strings.TrimSpace(req.EffectiveStartDate))
	if err != nil {
		writeError(w, r, badRequestf("effectiveStartDate: %v", err))
		return
	}
	rule, err := s.ledger.SetAllowance(r.Context(), r.PathValue("kid"), amount, start)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleGetAllowance(w http.ResponseWriter, r *http.Request) {
	rule, err := s.ledger.Allowance(r.Context(), r.PathValue("kid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleChores(w http.ResponseWriter, r *http.Request) {
	chores, err := s.chores.Chores(r.Context(), r.PathValue("kid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if chores == nil {
		chores = []core.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

type choreRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	BonusAmount string `json:"bonusAmount"`
	Active      *bool  `json:"active"`
}

func (s *Server) handleAddChore(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	bonus := decimal.Zero
	if strings.TrimSpace(req.BonusAmount) != "" {
		amount, err := parseAmount("bonusAmount", req.BonusAmount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		bonus = amount
	}
	active := req.Active == nil || *req.Active
	chore, err := s.chores.AddChore(r.Context(), core.Chore{
		KidID:       r.PathValue("kid"),
		Name:        req.Name,
		Type:        core.ChoreType(strings.TrimSpace(req.Type)),
		BonusAmount: bonus,
		Active:      active,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, chore)
}
