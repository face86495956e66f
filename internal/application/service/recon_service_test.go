package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enerlind-render/odoo-agent/internal/domain/recon"
	"github.com/enerlind-render/odoo-agent/internal/infrastructure/config"
)

// fakeReconLedger is an in-memory ReconLedger with error injection.
type fakeReconLedger struct {
	lines    []recon.BankLine
	invoices []recon.InvoiceResidual

	listLinesErr    error
	listInvoicesErr error

	payables       map[int64][]int64
	reconciled     map[int64]bool
	reconcileErr   error
	reconcileCalls int
}

func newFakeReconLedger() *fakeReconLedger {
	return &fakeReconLedger{
		payables:   make(map[int64][]int64),
		reconciled: make(map[int64]bool),
	}
}

func (f *fakeReconLedger) ListUnreconciledBankLines(_ context.Context, _, _, _ string) ([]recon.BankLine, error) {
	return f.lines, f.listLinesErr
}

func (f *fakeReconLedger) ListUnpaidInvoices(_ context.Context, _, _ string) ([]recon.InvoiceResidual, error) {
	return f.invoices, f.listInvoicesErr
}

func (f *fakeReconLedger) UnreconciledPayableLines(_ context.Context, moveID int64) ([]int64, error) {
	return f.payables[moveID], nil
}

func (f *fakeReconLedger) IsLineReconciled(_ context.Context, lineID int64) (bool, error) {
	return f.reconciled[lineID], nil
}

func (f *fakeReconLedger) ReconcileLines(_ context.Context, lineIDs []int64) error {
	if f.reconcileErr != nil {
		return f.reconcileErr
	}
	f.reconcileCalls++
	for _, id := range lineIDs {
		f.reconciled[id] = true
	}
	return nil
}

func reconConfig() config.ReconConfig {
	return config.ReconConfig{
		AmountTolerance:   0.50,
		DateToleranceDays: 5,
		BaseScore:         0.90,
		PartnerBoostScore: 0.98,
		PartnerPrefixLen:  5,
		MinAutoScore:      0.95,
	}
}

func TestReconService_Suggest(t *testing.T) {
	ledger := newFakeReconLedger()
	ledger.lines = []recon.BankLine{
		{ID: 1, Amount: 120.30, Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Partner: "ACME Corp"},
	}
	ledger.invoices = []recon.InvoiceResidual{
		{ID: 10, Residual: 120.00, Date: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), Partner: "ACME SL", Name: "BILL/2024/0042"},
	}
	svc := NewReconService(ledger, reconConfig(), nil)

	got, err := svc.Suggest(context.Background(), "", "", "")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.98, got[0].Score)
	assert.Equal(t, "BILL/2024/0042", got[0].InvoiceName)
}

func TestReconService_SuggestLedgerErrorIsFatal(t *testing.T) {
	ledger := newFakeReconLedger()
	ledger.listLinesErr = errors.New("odoo unreachable")
	svc := NewReconService(ledger, reconConfig(), nil)

	_, err := svc.Suggest(context.Background(), "", "", "")
	assert.Error(t, err)

	ledger.listLinesErr = nil
	ledger.listInvoicesErr = errors.New("odoo unreachable")
	_, err = svc.Suggest(context.Background(), "", "", "")
	assert.Error(t, err)
}

func TestReconService_AutoReconcileThreshold(t *testing.T) {
	// Two candidate invoices: one partner-boosted (0.98), one base score
	// (0.90). With the 0.95 default only the boosted pair is applied.
	ledger := newFakeReconLedger()
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	ledger.lines = []recon.BankLine{
		{ID: 1, Amount: 120.30, Date: day, Partner: "ACME Corp"},
		{ID: 2, Amount: 75.00, Date: day, Partner: "transfer"},
	}
	ledger.invoices = []recon.InvoiceResidual{
		{ID: 10, Residual: 120.00, Date: day, Partner: "ACME SL"},
		{ID: 11, Residual: 75.00, Date: day, Partner: "Endesa"},
	}
	ledger.payables[10] = []int64{201}
	ledger.payables[11] = []int64{202}
	svc := NewReconService(ledger, reconConfig(), nil)

	got, err := svc.AutoReconcile(context.Background(), -1)

	require.NoError(t, err)
	assert.Equal(t, 2, got.Suggested)
	assert.Equal(t, 1, got.Applied)
	assert.Equal(t, 0, got.Skipped)
	assert.Equal(t, 1, ledger.reconcileCalls)
	require.Len(t, got.Outcomes, 1)
	assert.Equal(t, int64(1), got.Outcomes[0].BankLineID)
	assert.Equal(t, int64(10), got.Outcomes[0].MoveID)
}

func TestReconService_AutoReconcileExplicitThreshold(t *testing.T) {
	ledger := newFakeReconLedger()
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	ledger.lines = []recon.BankLine{{ID: 2, Amount: 75.00, Date: day}}
	ledger.invoices = []recon.InvoiceResidual{{ID: 11, Residual: 75.00, Date: day}}
	ledger.payables[11] = []int64{202}
	svc := NewReconService(ledger, reconConfig(), nil)

	got, err := svc.AutoReconcile(context.Background(), 0.90)

	require.NoError(t, err)
	assert.Equal(t, 1, got.Suggested)
	assert.Equal(t, 1, got.Applied)
}

func TestReconService_AutoReconcileZeroThresholdAppliesAll(t *testing.T) {
	// An explicit zero is a literal threshold, not a request for the
	// default: base-score pairs are applied too.
	ledger := newFakeReconLedger()
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	ledger.lines = []recon.BankLine{
		{ID: 1, Amount: 120.00, Date: day, Partner: "ACME Corp"},
		{ID: 2, Amount: 75.00, Date: day, Partner: "transfer"},
	}
	ledger.invoices = []recon.InvoiceResidual{
		{ID: 10, Residual: 120.00, Date: day, Partner: "ACME SL"},
		{ID: 11, Residual: 75.00, Date: day, Partner: "Endesa"},
	}
	ledger.payables[10] = []int64{201}
	ledger.payables[11] = []int64{202}
	svc := NewReconService(ledger, reconConfig(), nil)

	got, err := svc.AutoReconcile(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, 2, got.Suggested)
	assert.Equal(t, 2, got.Applied)
	assert.Equal(t, 2, ledger.reconcileCalls)
}

func TestReconService_AutoReconcileCountsSkips(t *testing.T) {
	ledger := newFakeReconLedger()
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	ledger.lines = []recon.BankLine{{ID: 1, Amount: 120.00, Date: day, Partner: "ACME Corp"}}
	ledger.invoices = []recon.InvoiceResidual{{ID: 10, Residual: 120.00, Date: day, Partner: "ACME SL"}}
	// no payable lines configured for move 10
	svc := NewReconService(ledger, reconConfig(), nil)

	got, err := svc.AutoReconcile(context.Background(), -1)

	require.NoError(t, err)
	assert.Equal(t, 1, got.Suggested)
	assert.Equal(t, 0, got.Applied)
	assert.Equal(t, 1, got.Skipped)
	require.Len(t, got.Outcomes, 1)
	assert.Equal(t, recon.ReasonNoPayableLines, got.Outcomes[0].Reason)
}

func TestReconService_ApplyPassesThrough(t *testing.T) {
	ledger := newFakeReconLedger()
	ledger.payables[10] = []int64{201}
	svc := NewReconService(ledger, reconConfig(), nil)

	got := svc.Apply(context.Background(), []recon.MatchPair{{BankLineID: 1, MoveID: 10}})

	require.Len(t, got, 1)
	assert.True(t, got[0].Applied)
}
