package odoo

import (
	"context"

	"github.com/enerlind-render/odoo-agent/internal/domain/recon"
)

// Ledger operations for bank reconciliation. Bank line ids are
// account.move.line ids of the statement's journal entry, so the same id
// space feeds both the suggestion listing and the reconcile primitive.

// ListUnreconciledBankLines returns open bank-journal items, optionally
// narrowed by journal name and date range (YYYY-MM-DD, inclusive).
func (c *Client) ListUnreconciledBankLines(ctx context.Context, journalName, dateFrom, dateTo string) ([]recon.BankLine, error) {
	domain := []any{
		[]any{"journal_id.type", "=", "bank"},
		[]any{"account_id.account_type", "=", "asset_cash"},
		[]any{"reconciled", "=", false},
		[]any{"parent_state", "=", "posted"},
	}
	if journalName != "" {
		domain = append(domain, []any{"journal_id.name", "ilike", journalName})
	}
	if dateFrom != "" {
		domain = append(domain, []any{"date", ">=", dateFrom})
	}
	if dateTo != "" {
		domain = append(domain, []any{"date", "<=", dateTo})
	}

	rows, err := c.SearchRead(ctx, "account.move.line", domain,
		[]string{"id", "date", "balance", "partner_id", "name", "ref", "journal_id"},
		map[string]any{"order": "date asc, id asc"})
	if err != nil {
		return nil, err
	}

	lines := make([]recon.BankLine, 0, len(rows))
	for _, row := range rows {
		partner := many2oneName(row["partner_id"])
		if partner == "" {
			partner = asString(row["name"])
		}
		lines = append(lines, recon.BankLine{
			ID:      asInt64(row["id"]),
			Date:    asDate(row["date"]),
			Amount:  asFloat(row["balance"]),
			Partner: partner,
			Ref:     asString(row["ref"]),
			Journal: many2oneName(row["journal_id"]),
		})
	}
	return lines, nil
}

// ListUnpaidInvoices returns posted vendor bills with a positive residual,
// optionally narrowed by date range.
func (c *Client) ListUnpaidInvoices(ctx context.Context, dateFrom, dateTo string) ([]recon.InvoiceResidual, error) {
	domain := []any{
		[]any{"move_type", "=", "in_invoice"},
		[]any{"state", "=", "posted"},
		[]any{"payment_state", "in", []string{"not_paid", "partial"}},
		[]any{"amount_residual", ">", 0},
	}
	if c.companyID != 0 {
		domain = append(domain, []any{"company_id", "=", c.companyID})
	}
	if dateFrom != "" {
		domain = append(domain, []any{"invoice_date", ">=", dateFrom})
	}
	if dateTo != "" {
		domain = append(domain, []any{"invoice_date", "<=", dateTo})
	}

	rows, err := c.SearchRead(ctx, "account.move", domain,
		[]string{"id", "invoice_date", "amount_residual", "partner_id", "name", "state"},
		map[string]any{"order": "invoice_date asc, id asc"})
	if err != nil {
		return nil, err
	}

	invoices := make([]recon.InvoiceResidual, 0, len(rows))
	for _, row := range rows {
		invoices = append(invoices, recon.InvoiceResidual{
			ID:       asInt64(row["id"]),
			Date:     asDate(row["invoice_date"]),
			Residual: asFloat(row["amount_residual"]),
			Partner:  many2oneName(row["partner_id"]),
			Name:     asString(row["name"]),
			State:    asString(row["state"]),
		})
	}
	return invoices, nil
}

// UnreconciledPayableLines returns the ids of the invoice's open
// payable-type journal items.
func (c *Client) UnreconciledPayableLines(ctx context.Context, moveID int64) ([]int64, error) {
	domain := []any{
		[]any{"move_id", "=", moveID},
		[]any{"account_id.account_type", "=", "liability_payable"},
		[]any{"reconciled", "=", false},
	}
	return c.Search(ctx, "account.move.line", domain, nil)
}

// IsLineReconciled reads the current reconciled flag of one journal item.
func (c *Client) IsLineReconciled(ctx context.Context, lineID int64) (bool, error) {
	rows, err := c.Read(ctx, "account.move.line", []int64{lineID}, []string{"reconciled"})
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	return asBool(rows[0]["reconciled"]), nil
}

// ReconcileLines links the given journal items through Odoo's reconcile
// primitive.
func (c *Client) ReconcileLines(ctx context.Context, lineIDs []int64) error {
	return c.ExecuteKw(ctx, "account.move.line", "reconcile", []any{lineIDs}, nil, nil)
}
