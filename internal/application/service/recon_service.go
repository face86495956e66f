// Package service composes domain logic with the outbound Odoo, SMTP and
// storage adapters.
package service

import (
	"context"
	"log/slog"

	"github.com/enerlind-render/odoo-agent/internal/domain/recon"
	"github.com/enerlind-render/odoo-agent/internal/infrastructure/config"
)

// ReconLedger is the slice of the Odoo client the reconciliation flows use.
type ReconLedger interface {
	ListUnreconciledBankLines(ctx context.Context, journalName, dateFrom, dateTo string) ([]recon.BankLine, error)
	ListUnpaidInvoices(ctx context.Context, dateFrom, dateTo string) ([]recon.InvoiceResidual, error)
	recon.Ledger
}

// AutoReconcileResult reports one auto-reconcile run.
type AutoReconcileResult struct {
	Suggested int
	Applied   int
	Skipped   int
	Outcomes  []recon.Outcome
}

// ReconService runs the suggest / apply / auto-reconcile flows. It holds no
// state between calls; bank lines and invoices are fetched fresh every time
// because the ledger can change between requests.
type ReconService struct {
	ledger       ReconLedger
	matcher      *recon.Matcher
	applier      *recon.Applier
	minAutoScore float64
	logger       *slog.Logger
}

// NewReconService creates the service with tolerances from config.
func NewReconService(ledger ReconLedger, cfg config.ReconConfig, logger *slog.Logger) *ReconService {
	if logger == nil {
		logger = slog.Default()
	}
	matcherCfg := recon.Config{
		AmountTolerance:   cfg.AmountTolerance,
		DateToleranceDays: cfg.DateToleranceDays,
		BaseScore:         cfg.BaseScore,
		PartnerBoostScore: cfg.PartnerBoostScore,
		PartnerPrefixLen:  cfg.PartnerPrefixLen,
	}
	return &ReconService{
		ledger:       ledger,
		matcher:      recon.NewMatcher(matcherCfg),
		applier:      recon.NewApplier(ledger),
		minAutoScore: cfg.MinAutoScore,
		logger:       logger,
	}
}

// Suggest fetches the open bank lines and unpaid vendor bills and returns
// scored pairings. Read-only; nothing is reserved or mutated.
func (s *ReconService) Suggest(ctx context.Context, journalName, dateFrom, dateTo string) ([]recon.Suggestion, error) {
	lines, err := s.ledger.ListUnreconciledBankLines(ctx, journalName, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	invoices, err := s.ledger.ListUnpaidInvoices(ctx, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	suggestions := s.matcher.Suggest(lines, invoices)
	s.logger.Debug("computed reconciliation suggestions",
		"bank_lines", len(lines), "invoices", len(invoices), "suggestions", len(suggestions))
	return suggestions, nil
}

// Apply commits the given pairs. Per-pair outcomes are values; the batch
// always completes.
func (s *ReconService) Apply(ctx context.Context, pairs []recon.MatchPair) []recon.Outcome {
	outcomes := s.applier.Apply(ctx, pairs)
	for _, out := range outcomes {
		if out.Applied {
			s.logger.Info("reconciled", "bank_line_id", out.BankLineID, "move_id", out.MoveID)
		} else {
			s.logger.Info("reconcile skipped", "bank_line_id", out.BankLineID, "move_id", out.MoveID, "reason", out.Reason)
		}
	}
	return outcomes
}

// AutoReconcile applies every suggestion at or above minScore. A negative
// minScore falls back to the configured default; an explicit 0 applies
// every suggestion.
func (s *ReconService) AutoReconcile(ctx context.Context, minScore float64) (AutoReconcileResult, error) {
	if minScore < 0 {
		minScore = s.minAutoScore
	}

	suggestions, err := s.Suggest(ctx, "", "", "")
	if err != nil {
		return AutoReconcileResult{}, err
	}

	pairs := make([]recon.MatchPair, 0, len(suggestions))
	for _, sg := range suggestions {
		if sg.Score >= minScore {
			pairs = append(pairs, sg.Pair())
		}
	}

	outcomes := s.Apply(ctx, pairs)

	result := AutoReconcileResult{
		Suggested: len(suggestions),
		Outcomes:  outcomes,
	}
	for _, out := range outcomes {
		if out.Applied {
			result.Applied++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}
