package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/feeflow-network/feeflow/internal/domain"
)

// ─── Owner Configuration Endpoints ──────────────────────────────────────────
// Every admin request carries the caller address; the engine enforces that
// only the owner's changes commit.

type setTaxesRequest struct {
	Caller     string     `json:"caller"`
	BuyTaxBps  domain.Bps `json:"buy_tax_bps"`
	SellTaxBps domain.Bps `json:"sell_tax_bps"`
}

func (s *Server) handleSetTaxes(w http.ResponseWriter, r *http.Request) {
	var req setTaxesRequest
	if !decode(w, r, &req) {
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("caller: %v", err))
		return
	}
	if err := s.eng.SetTaxes(caller, req.BuyTaxBps, req.SellTaxBps); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	s.handleParams(w, r)
}

type setSplitRequest struct {
	Caller        string     `json:"caller"`
	Reward        domain.Bps `json:"reward"`
	Burn          domain.Bps `json:"burn"`
	Marketing     domain.Bps `json:"marketing"`
	Team          domain.Bps `json:"team"`
	BurnFromInput *bool      `json:"burn_from_input,omitempty"`
}

func (s *Server) handleSetSplit(w http.ResponseWriter, r *http.Request) {
	var req setSplitRequest
	if !decode(w, r, &req) {
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("caller: %v", err))
		return
	}
	split := domain.SplitConfig{
		Reward:    req.Reward,
		Burn:      req.Burn,
		Marketing: req.Marketing,
		Team:      req.Team,
	}
	if err := s.eng.SetSplit(caller, split); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	if req.BurnFromInput != nil {
		if err := s.eng.SetBurnFromInput(caller, *req.BurnFromInput); err != nil {
			writeError(w, errStatus(err), err.Error())
			return
		}
	}
	s.handleParams(w, r)
}

type setAddressFlagRequest struct {
	Caller  string `json:"caller"`
	Address string `json:"address"`
	Enabled bool   `json:"enabled"`
}

func (s *Server) handleSetPair(w http.ResponseWriter, r *http.Request) {
	s.addressFlag(w, r, s.eng.SetPair)
}

func (s *Server) handleSetKeeper(w http.ResponseWriter, r *http.Request) {
	s.addressFlag(w, r, s.eng.SetKeeper)
}

func (s *Server) addressFlag(w http.ResponseWriter, r *http.Request, set func(caller, addr domain.Address, enabled bool) error) {
	var req setAddressFlagRequest
	if !decode(w, r, &req) {
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("caller: %v", err))
		return
	}
	addr, err := domain.ParseAddress(req.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("address: %v", err))
		return
	}
	if err := set(caller, addr, req.Enabled); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address": addr.String(),
		"enabled": req.Enabled,
	})
}

type setExclusionRequest struct {
	Caller   string `json:"caller"`
	Address  string `json:"address"`
	Scope    string `json:"scope"` // "tax" or "rewards"
	Excluded bool   `json:"excluded"`
}

func (s *Server) handleSetExclusion(w http.ResponseWriter, r *http.Request) {
	var req setExclusionRequest
	if !decode(w, r, &req) {
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("caller: %v", err))
		return
	}
	addr, err := domain.ParseAddress(req.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("address: %v", err))
		return
	}
	switch req.Scope {
	case "tax":
		err = s.eng.SetExcludedFromTax(caller, addr, req.Excluded)
	case "rewards":
		err = s.eng.SetExcludedFromRewards(caller, addr, req.Excluded)
	default:
		writeError(w, http.StatusBadRequest, `scope must be "tax" or "rewards"`)
		return
	}
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address":  addr.String(),
		"scope":    req.Scope,
		"excluded": req.Excluded,
	})
}

type setClaimGatesRequest struct {
	Caller        string `json:"caller"`
	MinBalance    string `json:"min_balance,omitempty"`
	MinHoldTime   string `json:"min_hold_time,omitempty"`
	ClaimCooldown string `json:"claim_cooldown,omitempty"`
}

func (s *Server) handleSetClaimGates(w http.ResponseWriter, r *http.Request) {
	var req setClaimGatesRequest
	if !decode(w, r, &req) {
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("caller: %v", err))
		return
	}
	if req.MinBalance != "" {
		min, err := parseAmount(req.MinBalance)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("min_balance: %v", err))
			return
		}
		if err := s.eng.SetMinBalance(caller, min); err != nil {
			writeError(w, errStatus(err), err.Error())
			return
		}
	}
	if req.MinHoldTime != "" {
		d, err := time.ParseDuration(req.MinHoldTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("min_hold_time: %v", err))
			return
		}
		if err := s.eng.SetMinHoldTime(caller, d); err != nil {
			writeError(w, errStatus(err), err.Error())
			return
		}
	}
	if req.ClaimCooldown != "" {
		d, err := time.ParseDuration(req.ClaimCooldown)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("claim_cooldown: %v", err))
			return
		}
		if err := s.eng.SetClaimCooldown(caller, d); err != nil {
			writeError(w, errStatus(err), err.Error())
			return
		}
	}
	s.handleParams(w, r)
}
