package recon

import "time"

// Config holds matcher tolerances and scoring
type Config struct {
	AmountTolerance   float64 // Absolute currency units (default: 0.50)
	DateToleranceDays int     // Days tolerance (default: 5)
	BaseScore         float64 // Score for any passing pair (default: 0.90)
	PartnerBoostScore float64 // Score when partner prefixes agree (default: 0.98)
	PartnerPrefixLen  int     // Lowercase prefix length compared (default: 5)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		AmountTolerance:   0.50,
		DateToleranceDays: 5,
		BaseScore:         0.90,
		PartnerBoostScore: 0.98,
		PartnerPrefixLen:  5,
	}
}

// BankLine is one unreconciled row of an imported bank statement.
// A zero Date means the statement line carries no usable date.
type BankLine struct {
	ID      int64
	Date    time.Time
	Amount  float64 // signed; matching uses the absolute value
	Partner string  // free-text partner label from the statement
	Ref     string
	Journal string
}

// InvoiceResidual is the unpaid portion of a vendor invoice.
type InvoiceResidual struct {
	ID       int64
	Date     time.Time
	Residual float64 // outstanding amount, must be > 0 to be a candidate
	Partner  string
	Name     string // invoice display name
	State    string
}

// Suggestion pairs one bank line with one invoice, ranked by confidence.
// Suggestions are ephemeral: they are recomputed on every call because the
// underlying bank/invoice sets can change between calls.
type Suggestion struct {
	BankLineID  int64
	MoveID      int64
	Amount      float64 // the invoice residual the pair would settle
	BankDate    time.Time
	InvoiceDate time.Time
	InvoiceName string
	Partner     string
	Score       float64 // confidence in [0,1]
}

// MatchPair identifies one (bank line, invoice) pairing to reconcile.
type MatchPair struct {
	BankLineID int64
	MoveID     int64
}

// Pair extracts the identifiers the applier needs.
func (s Suggestion) Pair() MatchPair {
	return MatchPair{BankLineID: s.BankLineID, MoveID: s.MoveID}
}
