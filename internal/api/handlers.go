package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"github.com/feeflow-network/feeflow/internal/domain"
)

// ─── Read Surface ───────────────────────────────────────────────────────────

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.eng.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_supply":         st.TotalSupply.Dec(),
		"tax_vault":            st.TaxVault.Dec(),
		"reward_vault":         st.RewardVault.Dec(),
		"eligible_supply":      st.EligibleSupply.Dec(),
		"acc_reward_per_share": st.AccRewardPerShare.Dec(),
		"total_distributed":    st.TotalDistributed.Dec(),
		"total_claimed":        st.TotalClaimed.Dec(),
		"escrow":               st.Escrow.Dec(),
		"holders":              st.Holders,
	})
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	p := s.eng.Params()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"buy_tax_bps":  p.BuyTaxBps,
		"sell_tax_bps": p.SellTaxBps,
		"split": map[string]interface{}{
			"reward":    p.Split.Reward,
			"burn":      p.Split.Burn,
			"marketing": p.Split.Marketing,
			"team":      p.Split.Team,
		},
		"burn_from_input": p.BurnFromInput,
		"min_balance":     p.MinBalance.Dec(),
		"min_hold_time":   p.MinHoldTime.String(),
		"claim_cooldown":  p.ClaimCooldown.String(),
	})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddr(w, r)
	if !ok {
		return
	}
	resp := map[string]interface{}{
		"address":      addr.String(),
		"balance":      s.eng.BalanceOf(addr).Dec(),
		"base_balance": s.eng.BaseBalanceOf(addr).Dec(),
		"pending":      s.eng.Pending(addr).Dec(),
		"is_pair":      s.eng.IsPair(addr),
	}
	if a := s.eng.AccountOf(addr); a != nil {
		resp["excluded_from_tax"] = a.ExcludedFromTax
		resp["excluded_from_rewards"] = a.ExcludedFromRewards
		if !a.LastNonZeroAt.IsZero() {
			resp["last_nonzero_at"] = a.LastNonZeroAt.UTC().Format(time.RFC3339)
		}
		if !a.LastClaimAt.IsZero() {
			resp["last_claim_at"] = a.LastClaimAt.UTC().Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddr(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"address": addr.String(),
		"pending": s.eng.Pending(addr).Dec(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, "event journal not configured")
		return
	}
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be in 1..1000")
			return
		}
		limit = n
	}
	events, err := s.journal.RecentEvents(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]map[string]interface{}, 0, len(events))
	for _, ev := range events {
		out = append(out, eventJSON(ev))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": out})
}

func eventJSON(ev domain.Event) map[string]interface{} {
	m := map[string]interface{}{
		"id":        ev.ID,
		"type":      ev.Type,
		"timestamp": ev.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if !ev.From.IsZero() {
		m["from"] = ev.From.String()
	}
	if !ev.To.IsZero() {
		m["to"] = ev.To.String()
	}
	if ev.Kind != "" {
		m["kind"] = ev.Kind
	}
	for k, v := range map[string]*uint256.Int{
		"amount":       ev.Amount,
		"amount_in":    ev.AmountIn,
		"amount_out":   ev.AmountOut,
		"to_reward":    ev.ToReward,
		"to_burn":      ev.ToBurn,
		"to_marketing": ev.ToMarketing,
		"to_team":      ev.ToTeam,
	} {
		if v != nil {
			m[k] = v.Dec()
		}
	}
	return m
}

// ─── Operations ─────────────────────────────────────────────────────────────

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decode(w, r, &req) {
		return
	}
	from, err := domain.ParseAddress(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("from: %v", err))
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("to: %v", err))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("amount: %v", err))
		return
	}
	if err := s.eng.Transfer(from, to, amount); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"from":   from.String(),
		"to":     to.String(),
		"amount": amount.Dec(),
	})
}

type claimRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if !decode(w, r, &req) {
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("caller: %v", err))
		return
	}
	paid, err := s.eng.Claim(caller)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"caller": caller.String(),
		"paid":   paid.Dec(),
	})
}

type processRequest struct {
	Caller          string `json:"caller"`
	MaxAmount       string `json:"max_amount"`
	MinAmountOut    string `json:"min_amount_out,omitempty"`
	DeadlineSeconds int64  `json:"deadline_seconds,omitempty"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if !decode(w, r, &req) {
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("caller: %v", err))
		return
	}
	maxAmount, err := parseAmount(req.MaxAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("max_amount: %v", err))
		return
	}
	var minOut *uint256.Int
	if req.MinAmountOut != "" {
		minOut, err = parseAmount(req.MinAmountOut)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("min_amount_out: %v", err))
			return
		}
	}
	var deadline time.Time
	if req.DeadlineSeconds > 0 {
		deadline = time.Now().Add(time.Duration(req.DeadlineSeconds) * time.Second)
	}

	res, err := s.eng.Process(r.Context(), caller, maxAmount, minOut, deadline)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"amount_in":    res.AmountIn.Dec(),
		"amount_out":   res.AmountOut.Dec(),
		"to_reward":    res.ToReward.Dec(),
		"to_burn":      res.ToBurn.Dec(),
		"to_marketing": res.ToMarketing.Dec(),
		"to_team":      res.ToTeam.Dec(),
	})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func pathAddr(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.Address{}, false
	}
	return addr, true
}

func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("missing amount")
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("not a decimal amount: %q", s)
	}
	return v, nil
}

// errStatus maps engine sentinels onto HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAmountZero),
		errors.Is(err, domain.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProcessingBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrExcludedFromRewards),
		errors.Is(err, domain.ErrMinBalanceNotMet),
		errors.Is(err, domain.ErrHoldTimeNotMet),
		errors.Is(err, domain.ErrClaimCooldownActive),
		errors.Is(err, domain.ErrNothingToClaim):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSlippageExceeded),
		errors.Is(err, domain.ErrDeadlineExpired):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
