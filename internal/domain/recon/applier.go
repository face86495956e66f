package recon

import (
	"context"
)

// Skip reasons reported by the applier. Ledger-side failures are reported
// with the stringified error instead.
const (
	ReasonNoPayableLines    = "no payable lines"
	ReasonAlreadyReconciled = "already reconciled"
)

// Ledger is the slice of the external ledger the applier needs.
type Ledger interface {
	// UnreconciledPayableLines returns the ids of the invoice's open
	// payable-type journal items.
	UnreconciledPayableLines(ctx context.Context, moveID int64) ([]int64, error)

	// IsLineReconciled reads the current reconciled flag of a journal item.
	IsLineReconciled(ctx context.Context, lineID int64) (bool, error)

	// ReconcileLines links the given journal items through the ledger's
	// reconciliation primitive. Atomic only to the extent the ledger's
	// primitive is.
	ReconcileLines(ctx context.Context, lineIDs []int64) error
}

// Outcome records what happened to one requested pair: either applied or
// skipped with a reason. Failures are values here, not errors; one pair's
// failure never blocks the rest of the batch.
type Outcome struct {
	BankLineID int64
	MoveID     int64
	Applied    bool
	Reason     string // set only when skipped
}

// Applier commits match pairs through the external ledger.
type Applier struct {
	ledger Ledger
}

// NewApplier creates an applier backed by the given ledger.
func NewApplier(ledger Ledger) *Applier {
	return &Applier{ledger: ledger}
}

// Apply processes each pair independently and returns one outcome per pair,
// in input order. The bank line's reconciled flag is re-read fresh for every
// pair: the suggestion stage ran earlier and state may have changed since,
// including earlier pairs of this same batch.
func (a *Applier) Apply(ctx context.Context, pairs []MatchPair) []Outcome {
	outcomes := make([]Outcome, 0, len(pairs))

	for _, pair := range pairs {
		outcomes = append(outcomes, a.applyOne(ctx, pair))
	}

	return outcomes
}

func (a *Applier) applyOne(ctx context.Context, pair MatchPair) Outcome {
	out := Outcome{BankLineID: pair.BankLineID, MoveID: pair.MoveID}

	payables, err := a.ledger.UnreconciledPayableLines(ctx, pair.MoveID)
	if err != nil {
		out.Reason = err.Error()
		return out
	}
	if len(payables) == 0 {
		out.Reason = ReasonNoPayableLines
		return out
	}

	reconciled, err := a.ledger.IsLineReconciled(ctx, pair.BankLineID)
	if err != nil {
		out.Reason = err.Error()
		return out
	}
	if reconciled {
		out.Reason = ReasonAlreadyReconciled
		return out
	}

	lineIDs := append([]int64{pair.BankLineID}, payables...)
	if err := a.ledger.ReconcileLines(ctx, lineIDs); err != nil {
		out.Reason = err.Error()
		return out
	}

	out.Applied = true
	return out
}
