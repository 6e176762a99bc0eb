// Package engine implements the tax and reward distribution engine.
// It is a serially-ordered state machine: every mutating operation
// (transfer, process, claim, configuration change) runs to completion
// under one lock, and either commits all of its effects or none.
//
// The engine owns three cooperating subsystems:
//  1. The transfer-tax classifier routes the taxed portion of buy/sell
//     legs into the tax vault accumulator.
//  2. The tax processor (processor.go) drains the vault in batches through
//     an external swap and splits the proceeds across destination vaults.
//  3. The reward ledger (rewards.go) accrues proportional claims per holder
//     with a running reward-per-share accumulator and eligibility gating.
package engine

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"

	"github.com/feeflow-network/feeflow/internal/domain"
	"github.com/feeflow-network/feeflow/internal/infra/observability"
)

// ─── Configuration ──────────────────────────────────────────────────────────

// Config assembles an engine.
type Config struct {
	Owner     domain.Address
	Marketing domain.Address
	Team      domain.Address

	// InitialSupply is minted to Owner at construction.
	InitialSupply *uint256.Int

	Params domain.Params

	Swap  domain.SwapService
	Sink  domain.EventSink
	Clock clockwork.Clock
}

// ─── Engine ─────────────────────────────────────────────────────────────────

// Engine is the tax and reward distribution ledger. All exported methods are
// safe for concurrent use; mutations serialize on one mutex.
type Engine struct {
	mu    sync.Mutex
	clock clockwork.Clock
	swap  domain.SwapService
	sink  domain.EventSink

	owner   domain.Address
	keepers map[domain.Address]bool

	params    domain.Params
	marketing domain.Address
	team      domain.Address

	pairs    map[domain.Address]bool
	accounts map[domain.Address]*domain.Account

	totalSupply *uint256.Int

	// taxVault holds un-swapped tax tokens; drained only by Process.
	taxVault *uint256.Int

	// Base-asset balances. rewardVault backs all unclaimed rewards; the
	// per-address map holds marketing/team proceeds and paid-out claims.
	rewardVault  *uint256.Int
	baseBalances map[domain.Address]*uint256.Int

	// Global reward state. accPerShare and the two counters only ever
	// advance; escrow holds distributions made while no holder was eligible.
	accPerShare      *uint256.Int
	eligibleSupply   *uint256.Int
	totalDistributed *uint256.Int
	totalClaimed     *uint256.Int
	escrow           *uint256.Int

	// processing guards the external swap call against re-entry.
	processing bool
}

// New builds an engine, validating parameters and minting the initial supply
// to the owner. The dead address starts excluded from rewards.
func New(cfg Config) (*Engine, error) {
	if cfg.Owner.IsZero() {
		return nil, fmt.Errorf("%w: owner address is zero", domain.ErrInvalidConfiguration)
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.Params.MinBalance == nil {
		cfg.Params.MinBalance = uint256.NewInt(0)
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	e := &Engine{
		clock:            cfg.Clock,
		swap:             cfg.Swap,
		sink:             cfg.Sink,
		owner:            cfg.Owner,
		keepers:          make(map[domain.Address]bool),
		params:           cfg.Params,
		marketing:        cfg.Marketing,
		team:             cfg.Team,
		pairs:            make(map[domain.Address]bool),
		accounts:         make(map[domain.Address]*domain.Account),
		totalSupply:      uint256.NewInt(0),
		taxVault:         uint256.NewInt(0),
		rewardVault:      uint256.NewInt(0),
		baseBalances:     make(map[domain.Address]*uint256.Int),
		accPerShare:      uint256.NewInt(0),
		eligibleSupply:   uint256.NewInt(0),
		totalDistributed: uint256.NewInt(0),
		totalClaimed:     uint256.NewInt(0),
		escrow:           uint256.NewInt(0),
	}

	dead := e.account(domain.DeadAddress)
	dead.ExcludedFromRewards = true
	dead.ExcludedFromTax = true

	if cfg.InitialSupply != nil && !cfg.InitialSupply.IsZero() {
		e.mintLocked(cfg.Owner, cfg.InitialSupply)
	}
	return e, nil
}

// ─── Account Helpers (callers hold e.mu) ────────────────────────────────────

// account returns the account for addr, creating it zero-valued on first touch.
func (e *Engine) account(addr domain.Address) *domain.Account {
	a, ok := e.accounts[addr]
	if !ok {
		a = domain.NewAccount()
		e.accounts[addr] = a
	}
	return a
}

// settle moves a holder's accrued share of the accumulator into Accrued and
// re-snapshots RewardDebt. Must run before every balance change so that the
// change cannot retroactively alter already-earned rewards.
func (e *Engine) settle(a *domain.Account) {
	if a.ExcludedFromRewards {
		a.RewardDebt = e.accPerShare.Clone()
		return
	}
	// RewardDebt is always a past snapshot of the monotone accumulator.
	if delta := new(uint256.Int).Sub(e.accPerShare, a.RewardDebt); !delta.IsZero() && !a.Balance.IsZero() {
		earned, err := domain.MulDiv(a.Balance, delta, domain.AccScale)
		if err == nil && !earned.IsZero() {
			a.Accrued = new(uint256.Int).Add(a.Accrued, earned)
		}
	}
	a.RewardDebt = e.accPerShare.Clone()
}

// applyBalance commits a settled account's new balance, maintaining
// eligibleSupply and the hold-time clock.
func (e *Engine) applyBalance(a *domain.Account, newBalance *uint256.Int) {
	old := a.Balance
	if !a.ExcludedFromRewards {
		if newBalance.Gt(old) {
			delta := new(uint256.Int).Sub(newBalance, old)
			e.eligibleSupply = new(uint256.Int).Add(e.eligibleSupply, delta)
		} else {
			delta := new(uint256.Int).Sub(old, newBalance)
			e.eligibleSupply = new(uint256.Int).Sub(e.eligibleSupply, delta)
		}
	}

	switch {
	case old.IsZero() && !newBalance.IsZero():
		// Zero → nonzero starts a fresh hold window.
		a.LastNonZeroAt = e.clock.Now()
	case newBalance.Lt(old) && !newBalance.IsZero():
		// Any decrease that leaves a residual position restarts the clock:
		// a partial sell invalidates an in-progress hold.
		a.LastNonZeroAt = e.clock.Now()
	}
	a.Balance = newBalance
}

// mintLocked credits freshly minted tokens to addr.
func (e *Engine) mintLocked(addr domain.Address, amount *uint256.Int) {
	a := e.account(addr)
	e.settle(a)
	e.applyBalance(a, new(uint256.Int).Add(a.Balance, amount))
	e.totalSupply = new(uint256.Int).Add(e.totalSupply, amount)
}

// creditBase adds base-asset funds to a destination address.
func (e *Engine) creditBase(addr domain.Address, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	cur, ok := e.baseBalances[addr]
	if !ok {
		cur = uint256.NewInt(0)
	}
	e.baseBalances[addr] = new(uint256.Int).Add(cur, amount)
}

func (e *Engine) emit(ev domain.Event) {
	if e.sink == nil {
		return
	}
	ev.Timestamp = e.clock.Now()
	e.sink.Append(ev)
}

// ─── Transfer-Tax Classifier ────────────────────────────────────────────────

// classify decides the tax treatment of a (from, to) leg.
func (e *Engine) classify(from, to domain.Address) domain.TransferKind {
	if e.account(from).ExcludedFromTax || e.account(to).ExcludedFromTax {
		return domain.KindExempt
	}
	fromPair, toPair := e.pairs[from], e.pairs[to]
	switch {
	case fromPair && !toPair:
		return domain.KindBuy
	case toPair && !fromPair:
		return domain.KindSell
	default:
		return domain.KindWallet
	}
}

// Transfer moves amount from one account to another, routing the taxed
// portion of buy/sell legs into the tax vault. The balance mutation, the
// vault credit, the hold-time update, and the eligible-supply delta commit
// in one atomic step.
func (e *Engine) Transfer(from, to domain.Address, amount *uint256.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if amount == nil || amount.IsZero() {
		return domain.ErrAmountZero
	}

	src := e.account(from)
	if src.Balance.Lt(amount) {
		return fmt.Errorf("%w: balance %s, transfer %s", domain.ErrInsufficientBalance, src.Balance.Dec(), amount.Dec())
	}

	kind := e.classify(from, to)
	tax := uint256.NewInt(0)
	if kind.Taxed() {
		rate := e.params.BuyTaxBps
		if kind == domain.KindSell {
			rate = e.params.SellTaxBps
		}
		var err error
		tax, err = domain.MulBps(amount, rate)
		if err != nil {
			return err
		}
	}
	net := new(uint256.Int).Sub(amount, tax)

	// Commit. Both endpoints settle against the accumulator first so the
	// balance change cannot alter rewards earned under the old balance.
	if from == to {
		e.settle(src)
		e.applyBalance(src, new(uint256.Int).Sub(src.Balance, tax))
	} else {
		dst := e.account(to)
		e.settle(src)
		e.settle(dst)
		e.applyBalance(src, new(uint256.Int).Sub(src.Balance, amount))
		e.applyBalance(dst, new(uint256.Int).Add(dst.Balance, net))
	}
	if !tax.IsZero() {
		e.taxVault = new(uint256.Int).Add(e.taxVault, tax)
	}

	e.emit(domain.Event{Type: domain.EvTransferExecuted, From: from, To: to, Amount: amount.Clone(), Kind: kind})
	observability.TransfersTotal.WithLabelValues(string(kind)).Inc()
	if !tax.IsZero() {
		e.emit(domain.Event{Type: domain.EvTaxCollected, From: from, To: to, Amount: tax.Clone(), Kind: kind})
		observability.TaxCollections.Inc()
	}
	e.updateGauges()
	return nil
}

// updateGauges refreshes the coarse prometheus gauges. Caller holds e.mu.
func (e *Engine) updateGauges() {
	observability.HolderCount.Set(float64(len(e.accounts)))
	observability.TaxVaultTokens.Set(u256Float(e.taxVault))
	observability.EligibleSupplyTokens.Set(u256Float(e.eligibleSupply))
}

// u256Float approximates a 256-bit amount for gauge export. Precision loss
// is acceptable for metrics only; ledger state never round-trips through it.
func u256Float(v *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(v.ToBig()).Float64()
	return f
}
