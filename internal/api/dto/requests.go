package dto

// MatchPairRequest is one bank-line / vendor-bill pairing to reconcile.
type MatchPairRequest struct {
	BankLineID int64 `json:"bank_line_id" binding:"required"`
	MoveID     int64 `json:"move_id" binding:"required"`
}

// ApplyRequest is the body of POST /odoo/reconcile/apply.
type ApplyRequest struct {
	Matches []MatchPairRequest `json:"matches"`
}

// AutoReconcileRequest is the body of POST /odoo/reconcile/auto. MinScore
// is a pointer so that an explicit 0 (apply every suggestion) is
// distinguishable from an absent field (use the configured default).
type AutoReconcileRequest struct {
	MinScore *float64 `json:"min_score"`
}

// PartnerPayload carries supplier identity fields, either to search for an
// existing partner or to create one.
type PartnerPayload struct {
	Name  string `json:"name"`
	VAT   string `json:"vat"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// EnsureProviderRequest is the body of POST /odoo/providers/ensure.
type EnsureProviderRequest struct {
	PartnerPayload
	AllowCreateSupplier bool `json:"allow_create_supplier"`
}

// FillDraftRequest is the body of POST /odoo/invoices/fill_draft. Exactly
// one of PartnerID or Partner must be set. The three amount fields are
// pointers so that "not provided" is distinguishable from an explicit zero;
// the totals check only passes when all three are present.
type FillDraftRequest struct {
	MoveID              int64           `json:"move_id" binding:"required"`
	PartnerID           int64           `json:"partner_id"`
	Partner             *PartnerPayload `json:"partner"`
	AllowCreateSupplier bool            `json:"allow_create_supplier"`
	Ref                 string          `json:"ref"`
	InvoiceDate         string          `json:"invoice_date"` // YYYY-MM-DD
	Description         string          `json:"description"`
	AmountTotal         *float64        `json:"amount_total"`
	AmountUntaxed       *float64        `json:"amount_untaxed"`
	TaxAmount           *float64        `json:"tax_amount"`
	AccountRef          string          `json:"account_ref"` // code, name or "id:NN"
	TaxNames            string          `json:"tax_names"`   // comma-separated
	FileSHA1            string          `json:"file_sha1"`
	Filename            string          `json:"filename"`
	AutoPost            bool            `json:"auto_post"`
}

// ValidateRequest is the body of POST /odoo/invoices/validate.
type ValidateRequest struct {
	IDs []int64 `json:"ids"`
}
