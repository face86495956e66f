// Package extract derives best-effort invoice field hints from unstructured
// invoice text. Vendor layouts are unpredictable, so everything here is a
// heuristic: hints are suggestions for the draft-filling step, never
// authoritative values.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Hints are the fields the heuristics managed to spot. Zero values mean
// "not found".
type Hints struct {
	SupplierName string  `json:"supplier_name,omitempty"`
	VATNumber    string  `json:"vat_number,omitempty"`
	InvoiceRef   string  `json:"invoice_ref,omitempty"`
	InvoiceDate  string  `json:"invoice_date,omitempty"` // YYYY-MM-DD
	AmountTotal  float64 `json:"amount_total,omitempty"`
	AmountBase   float64 `json:"amount_untaxed,omitempty"`
	TaxAmount    float64 `json:"tax_total,omitempty"`
}

var (
	refRe = regexp.MustCompile(`(?i)(?:factura|invoice)\s*(?:n[ºo°]?\.?|no\.?|#|:)?\s*([A-Z0-9][A-Z0-9\-/]{2,})`)

	dmyDateRe = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})\b`)
	isoDateRe = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)

	totalRe = regexp.MustCompile(`(?i)total(?:\s+(?:factura|invoice|a\s+pagar|due))?\s*:?\s*€?\s*([0-9][0-9.,]*)`)
	baseRe  = regexp.MustCompile(`(?i)(?:base\s+imponible|subtotal|untaxed)\s*:?\s*€?\s*([0-9][0-9.,]*)`)
	taxRe   = regexp.MustCompile(`(?i)(?:iva|i\.v\.a\.|vat|tax)(?:\s*\(?\d{1,2}\s*%\)?)?\s*:?\s*€?\s*([0-9][0-9.,]*)`)

	// Spanish CIF/NIF, optionally with the ES country prefix.
	vatRe = regexp.MustCompile(`\b(?:ES[-\s]?)?([ABCDEFGHJNPQRSUVW]\d{7}[0-9A-J]|\d{8}[A-Z])\b`)
)

// FromText scans invoice text and returns whatever fields the heuristics
// recognize.
func FromText(text string) Hints {
	h := Hints{}

	if m := refRe.FindStringSubmatch(text); m != nil {
		h.InvoiceRef = m[1]
	}
	h.InvoiceDate = findDate(text)
	if m := vatRe.FindStringSubmatch(text); m != nil {
		h.VATNumber = m[1]
	}
	h.SupplierName = guessSupplier(text)

	h.AmountTotal = largestAmount(totalRe, text)
	h.AmountBase = largestAmount(baseRe, text)
	if m := taxRe.FindStringSubmatch(text); m != nil {
		h.TaxAmount = parseAmount(m[1])
	}

	// A total smaller than its own base is a misread; drop the weaker hints.
	if h.AmountTotal != 0 && h.AmountBase != 0 && h.AmountTotal < h.AmountBase {
		h.AmountBase = 0
		h.TaxAmount = 0
	}

	return h
}

// findDate prefers a date on a line mentioning fecha/date, falling back to
// the first date anywhere in the document.
func findDate(text string) string {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "fecha") || strings.Contains(lower, "date") {
			if d := parseDateIn(line); d != "" {
				return d
			}
		}
	}
	return parseDateIn(text)
}

func parseDateIn(s string) string {
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("2006-01-02", m[0]); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if m := dmyDateRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		// reject impossible dates that normalized into a different day
		if t.Day() == day && int(t.Month()) == month {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// guessSupplier takes the first plausible line of the document: invoices
// almost always lead with the issuer's letterhead.
func guessSupplier(text string) string {
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if s == "" || len(s) < 3 {
			continue
		}
		lower := strings.ToLower(s)
		if strings.HasPrefix(lower, "factura") || strings.HasPrefix(lower, "invoice") {
			continue
		}
		return s
	}
	return ""
}

// largestAmount returns the biggest amount among all matches; totals tend
// to repeat per page and the grand total dominates.
func largestAmount(re *regexp.Regexp, text string) float64 {
	var max float64
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if v := parseAmount(m[1]); v > max {
			max = v
		}
	}
	return max
}

// parseAmount handles both European ("1.234,56") and anglo ("1,234.56")
// separators.
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	if lastComma > lastDot && len(s)-lastComma-1 <= 2 {
		// comma is the decimal separator
		intPart := strings.NewReplacer(".", "", ",", "").Replace(s[:lastComma])
		s = intPart + "." + s[lastComma+1:]
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
