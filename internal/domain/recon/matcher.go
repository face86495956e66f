// Package recon proposes and applies pairings between unreconciled bank
// statement lines and open vendor invoices.
//
// The matcher uses tolerance-based criteria:
//   - Amount must match within an absolute tolerance (default 0.50)
//   - Dates, when both are known, must be within tolerance (default 5 days)
//   - A crude partner-label prefix check boosts the confidence score
//
// Example usage:
//
//	m := recon.NewMatcher(recon.DefaultConfig())
//	suggestions := m.Suggest(bankLines, invoices)
package recon

import (
	"math"
	"sort"
	"strings"
)

// Matcher scores (bank line, invoice) pairs
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	return &Matcher{
		config: config,
	}
}

// Suggest evaluates every (bank line, invoice) pair and returns all passing
// pairs sorted by descending score. A bank line or invoice may appear in
// multiple suggestions; this stage only proposes, it never reserves. The
// sort is stable so equal scores keep encounter order (outer bank lines,
// inner invoices), which consumers picking the "top suggestion" rely on.
//
// The scan is a brute-force O(B x I) pass. Inputs are caller-bounded batches
// (hundreds of rows), so no index structure is built; revisit if batch sizes
// grow materially.
func (m *Matcher) Suggest(lines []BankLine, invoices []InvoiceResidual) []Suggestion {
	suggestions := make([]Suggestion, 0)

	for _, line := range lines {
		amount := math.Abs(line.Amount)

		for _, inv := range invoices {
			if inv.Residual <= 0 {
				continue
			}

			if math.Abs(amount-inv.Residual) > m.config.AmountTolerance {
				continue
			}

			// Date check only applies when both sides carry a date. A missing
			// date passes unconditionally; that permissive default is part of
			// the contract, not an oversight.
			if !line.Date.IsZero() && !inv.Date.IsZero() {
				dateDiff := math.Abs(line.Date.Sub(inv.Date).Hours() / 24)
				if dateDiff > float64(m.config.DateToleranceDays) {
					continue
				}
			}

			score := m.config.BaseScore
			if m.partnerPrefixMatch(line.Partner, inv.Partner) {
				score = m.config.PartnerBoostScore
			}

			suggestions = append(suggestions, Suggestion{
				BankLineID:  line.ID,
				MoveID:      inv.ID,
				Amount:      inv.Residual,
				BankDate:    line.Date,
				InvoiceDate: inv.Date,
				InvoiceName: inv.Name,
				Partner:     inv.Partner,
				Score:       score,
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	return suggestions
}

// partnerPrefixMatch reports whether both labels are non-empty and share the
// same lowercase prefix. Intentionally crude; statement labels are too noisy
// for anything fancier to pay off.
func (m *Matcher) partnerPrefixMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return prefix(a, m.config.PartnerPrefixLen) == prefix(b, m.config.PartnerPrefixLen)
}

func prefix(s string, n int) string {
	r := []rune(strings.ToLower(s))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
