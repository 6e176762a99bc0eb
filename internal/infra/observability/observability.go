// Package observability exposes Prometheus metrics for the ledger engine:
// transfer classification counts, tax collection, batch processing, and
// claim outcomes. Collectors are package-level promauto vars served by the
// API server's /metrics endpoint.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Transfer Metrics ───────────────────────────────────────────────────────

// TransfersTotal counts executed transfers by classification.
var TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "feeflow",
	Subsystem: "ledger",
	Name:      "transfers_total",
	Help:      "Total executed transfers by tax classification.",
}, []string{"kind"})

// TaxCollections counts transfers that routed tax into the vault.
var TaxCollections = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "feeflow",
	Subsystem: "ledger",
	Name:      "tax_collections_total",
	Help:      "Total taxed transfer legs.",
})

// ─── Processing Metrics ─────────────────────────────────────────────────────

// ProcessedBatches counts successfully committed processing batches.
var ProcessedBatches = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "feeflow",
	Subsystem: "processor",
	Name:      "batches_total",
	Help:      "Total committed tax processing batches.",
})

// ProcessFailures counts processing attempts aborted by a failed swap.
var ProcessFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "feeflow",
	Subsystem: "processor",
	Name:      "failures_total",
	Help:      "Total processing batches aborted with no state change.",
})

// ─── Reward Metrics ─────────────────────────────────────────────────────────

// Distributions counts accumulator advances.
var Distributions = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "feeflow",
	Subsystem: "rewards",
	Name:      "distributions_total",
	Help:      "Total reward distributions applied to the accumulator.",
})

// ClaimsTotal counts successful reward claims.
var ClaimsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "feeflow",
	Subsystem: "rewards",
	Name:      "claims_total",
	Help:      "Total successful reward claims.",
})

// ClaimRejections counts rejected claims by gate.
var ClaimRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "feeflow",
	Subsystem: "rewards",
	Name:      "claim_rejections_total",
	Help:      "Total rejected claims by eligibility gate.",
}, []string{"reason"})

// ─── Ledger Gauges ──────────────────────────────────────────────────────────
// Gauge values are float approximations of 256-bit amounts; they exist for
// dashboards only and are never read back into the ledger.

// HolderCount tracks the number of touched accounts.
var HolderCount = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "feeflow",
	Subsystem: "ledger",
	Name:      "holders",
	Help:      "Number of accounts ever touched by a transfer.",
})

// TaxVaultTokens tracks the un-swapped tax token balance.
var TaxVaultTokens = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "feeflow",
	Subsystem: "ledger",
	Name:      "tax_vault_tokens",
	Help:      "Approximate tax tokens awaiting processing.",
})

// EligibleSupplyTokens tracks the reward-eligible supply.
var EligibleSupplyTokens = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "feeflow",
	Subsystem: "ledger",
	Name:      "eligible_supply_tokens",
	Help:      "Approximate token supply held by reward-eligible accounts.",
})
