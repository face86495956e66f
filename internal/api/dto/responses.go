package dto

import (
	"time"

	"github.com/enerlind-render/odoo-agent/internal/domain/extract"
	"github.com/enerlind-render/odoo-agent/internal/domain/recon"
	"github.com/enerlind-render/odoo-agent/internal/odoo"
)

const dateLayout = "2006-01-02"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// PingResponse reports the authenticated Odoo connection.
type PingResponse struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	User     string `json:"user"`
}

// SuggestionResponse represents one reconciliation candidate.
type SuggestionResponse struct {
	BankLineID  int64   `json:"bank_line_id"`
	MoveID      int64   `json:"move_id"`
	Amount      float64 `json:"amount"`
	BankDate    string  `json:"bank_date,omitempty"`
	InvoiceDate string  `json:"invoice_date,omitempty"`
	InvoiceName string  `json:"invoice_name,omitempty"`
	Partner     string  `json:"partner,omitempty"`
	Score       float64 `json:"score"`
}

// SuggestListResponse is returned by GET /odoo/reconcile/suggest.
type SuggestListResponse struct {
	Count int                  `json:"count"`
	Items []SuggestionResponse `json:"items"`
}

// OutcomeResponse reports one pair from an apply batch.
type OutcomeResponse struct {
	BankLineID int64  `json:"bank_line_id"`
	MoveID     int64  `json:"move_id"`
	Applied    bool   `json:"applied"`
	Reason     string `json:"reason,omitempty"`
}

// ApplyResponse is returned by POST /odoo/reconcile/apply. Applied and
// Skipped partition the requested pairs; skips carry their reason.
type ApplyResponse struct {
	Applied []OutcomeResponse `json:"applied"`
	Skipped []OutcomeResponse `json:"skipped"`
}

// AutoReconcileResponse is returned by POST /odoo/reconcile/auto.
type AutoReconcileResponse struct {
	Suggested int               `json:"suggested"`
	Applied   int               `json:"applied"`
	Skipped   int               `json:"skipped"`
	Results   []OutcomeResponse `json:"results"`
}

// PartnerListResponse is returned by GET /odoo/providers/search.
type PartnerListResponse struct {
	Count int            `json:"count"`
	Items []odoo.Partner `json:"items"`
}

// EnsurePartnerResponse is returned by POST /odoo/providers/ensure.
type EnsurePartnerResponse struct {
	Partner odoo.Partner `json:"partner"`
}

// ChecksumLookupResponse is returned by GET /odoo/attachments/find_by_checksum.
type ChecksumLookupResponse struct {
	Count       int               `json:"count"`
	MoveID      int64             `json:"move_id,omitempty"`
	Attachments []odoo.Attachment `json:"attachments"`
}

// FillDraftResponse is returned by POST /odoo/invoices/fill_draft.
// Status is "filled", "posted" or "filled_needs_review".
type FillDraftResponse struct {
	MoveID      int64  `json:"move_id"`
	PartnerID   int64  `json:"partner_id"`
	Status      string `json:"status"`
	TotalsMatch bool   `json:"totals_match"`
	Note        string `json:"note,omitempty"`
}

// AttachResponse is returned by POST /odoo/invoices/attach.
type AttachResponse struct {
	AttachmentID int64  `json:"attachment_id"`
	MoveID       int64  `json:"move_id"`
	Filename     string `json:"filename"`
	FileSHA1     string `json:"file_sha1"`
}

// ValidateResponse is returned by POST /odoo/invoices/validate.
type ValidateResponse struct {
	Posted []int64 `json:"posted"`
}

// ExtractResponse is returned by POST /odoo/invoices/extract. Every field
// is a best-effort hint; absent fields are omitted.
type ExtractResponse struct {
	Hints extract.Hints `json:"hints"`
}

// SendResponse is returned by POST /vendorbills/send.
type SendResponse struct {
	Status       string `json:"status"`
	FileSHA1     string `json:"file_sha1"`
	Filename     string `json:"filename"`
	To           string `json:"to"`
	DelaySeconds int    `json:"delay_seconds"`
}

// FromSuggestion converts a domain suggestion for the wire.
func FromSuggestion(s recon.Suggestion) SuggestionResponse {
	return SuggestionResponse{
		BankLineID:  s.BankLineID,
		MoveID:      s.MoveID,
		Amount:      s.Amount,
		BankDate:    formatDate(s.BankDate),
		InvoiceDate: formatDate(s.InvoiceDate),
		InvoiceName: s.InvoiceName,
		Partner:     s.Partner,
		Score:       s.Score,
	}
}

// FromSuggestions converts a batch, keeping order.
func FromSuggestions(items []recon.Suggestion) []SuggestionResponse {
	out := make([]SuggestionResponse, len(items))
	for i, s := range items {
		out[i] = FromSuggestion(s)
	}
	return out
}

// FromOutcomes converts apply outcomes, keeping order.
func FromOutcomes(items []recon.Outcome) []OutcomeResponse {
	out := make([]OutcomeResponse, len(items))
	for i, o := range items {
		out[i] = OutcomeResponse{
			BankLineID: o.BankLineID,
			MoveID:     o.MoveID,
			Applied:    o.Applied,
			Reason:     o.Reason,
		}
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
