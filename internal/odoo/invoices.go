package odoo

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Attachment is an ir.attachment row linked to a vendor bill.
type Attachment struct {
	ID         int64  `json:"id"`
	MoveID     int64  `json:"res_id"`
	Name       string `json:"name"`
	CreateDate string `json:"create_date"`
}

// DraftValues carries the fields written onto a vendor-bill draft.
type DraftValues struct {
	MoveID      int64
	PartnerID   int64
	Ref         string
	InvoiceDate string // YYYY-MM-DD
	Description string
	PriceUnit   float64
	AccountID   int64   // optional
	TaxIDs      []int64 // optional
}

var (
	idRefRe   = regexp.MustCompile(`^id:(\d+)$`)
	percentRe = regexp.MustCompile(`^\d{1,2}$`)
)

// FindAccountByReference resolves an expense account by code, "id:NN"
// reference, or name, scoped to the user's company. Returns 0 when nothing
// matches.
func (c *Client) FindAccountByReference(ctx context.Context, ref string) (int64, error) {
	s := strings.TrimSpace(ref)
	if s == "" {
		return 0, nil
	}
	companyID, err := c.CompanyID(ctx)
	if err != nil {
		return 0, err
	}

	searchOne := func(clause []any) (int64, error) {
		domain := []any{clause, []any{"company_id", "=", companyID}}
		ids, err := c.Search(ctx, "account.account", domain, map[string]any{"limit": 1})
		if err != nil || len(ids) == 0 {
			return 0, err
		}
		return ids[0], nil
	}

	if m := idRefRe.FindStringSubmatch(strings.ToLower(s)); m != nil {
		id, _ := strconv.ParseInt(m[1], 10, 64)
		return searchOne([]any{"id", "=", id})
	}
	if id, err := searchOne([]any{"code", "=", s}); err != nil || id != 0 {
		return id, err
	}
	return searchOne([]any{"name", "=", s})
}

// FindTaxesByNames resolves purchase taxes from a comma-separated list of
// references. Each entry may be "id:NN", a bare percentage ("21", "10"),
// a tax description, or a tax name; exact matches are tried before ilike.
// Unresolvable entries are silently dropped, mirroring the best-effort
// nature of extracted tax hints.
func (c *Client) FindTaxesByNames(ctx context.Context, refs string) ([]int64, error) {
	companyID, err := c.CompanyID(ctx)
	if err != nil {
		return nil, err
	}
	base := []any{
		[]any{"company_id", "=", companyID},
		[]any{"active", "=", true},
		[]any{"type_tax_use", "=", "purchase"},
	}

	searchOne := func(clause []any) (int64, error) {
		ids, err := c.Search(ctx, "account.tax", append([]any{clause}, base...), map[string]any{"limit": 1})
		if err != nil || len(ids) == 0 {
			return 0, err
		}
		return ids[0], nil
	}

	var result []int64
	for _, raw := range strings.Split(refs, ",") {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}

		if m := idRefRe.FindStringSubmatch(strings.ToLower(s)); m != nil {
			taxID, _ := strconv.ParseInt(m[1], 10, 64)
			ids, err := c.Search(ctx, "account.tax",
				[]any{[]any{"id", "=", taxID}, base[0], base[1], base[2]},
				map[string]any{"limit": 1})
			if err != nil {
				return nil, err
			}
			if len(ids) > 0 {
				result = append(result, ids[0])
			}
			continue
		}

		if percentRe.MatchString(s) {
			perc, _ := strconv.ParseFloat(s, 64)
			if id, err := searchOne([]any{"amount", "=", perc}); err != nil {
				return nil, err
			} else if id != 0 {
				result = append(result, id)
				continue
			}
			if id, err := searchOne([]any{"description", "ilike", s}); err != nil {
				return nil, err
			} else if id != 0 {
				result = append(result, id)
				continue
			}
		}

		for _, clause := range [][]any{
			{"description", "=", s},
			{"name", "=", s},
			{"name", "ilike", s},
		} {
			id, err := searchOne(clause)
			if err != nil {
				return nil, err
			}
			if id != 0 {
				result = append(result, id)
				break
			}
		}
	}
	return result, nil
}

// FindAttachmentsByChecksum locates vendor-bill attachments whose stored
// checksum matches the given SHA-1, newest first. The first attachment with
// a bound move wins as the draft candidate.
func (c *Client) FindAttachmentsByChecksum(ctx context.Context, sha1 string, limit int) (int64, []Attachment, error) {
	if limit <= 0 {
		limit = 5
	}
	domain := []any{
		[]any{"res_model", "=", "account.move"},
		[]any{"checksum", "=", sha1},
	}
	rows, err := c.SearchRead(ctx, "ir.attachment", domain,
		[]string{"id", "res_id", "name", "create_date"},
		map[string]any{"limit": limit, "order": "create_date desc"})
	if err != nil {
		return 0, nil, err
	}

	var moveID int64
	attachments := make([]Attachment, 0, len(rows))
	for _, row := range rows {
		att := Attachment{
			ID:         asInt64(row["id"]),
			MoveID:     asInt64(row["res_id"]),
			Name:       asString(row["name"]),
			CreateDate: asString(row["create_date"]),
		}
		if moveID == 0 && att.MoveID != 0 {
			moveID = att.MoveID
		}
		attachments = append(attachments, att)
	}
	return moveID, attachments, nil
}

// CreateAttachment uploads a file onto a vendor bill.
func (c *Client) CreateAttachment(ctx context.Context, moveID int64, filename string, data []byte, mimetype string) (int64, error) {
	clean := SanitizeFilename(filename)
	if mimetype == "" {
		mimetype = DetectMimetype(clean)
	}
	vals := map[string]any{
		"name":      clean,
		"res_model": "account.move",
		"res_id":    moveID,
		"datas":     base64.StdEncoding.EncodeToString(data),
		"mimetype":  mimetype,
	}
	var attID int64
	if err := c.ExecuteKw(ctx, "ir.attachment", "create", []any{[]any{vals}}, nil, &attID); err != nil {
		return 0, err
	}
	return attID, nil
}

// PostComment leaves a chatter note on the bill. Comment failures are
// logged and swallowed; a missing note never fails the operation it
// annotates.
func (c *Client) PostComment(ctx context.Context, moveID int64, body string) {
	vals := map[string]any{
		"model":        "account.move",
		"res_id":       moveID,
		"body":         body,
		"message_type": "comment",
	}
	if err := c.ExecuteKw(ctx, "mail.message", "create", []any{[]any{vals}}, nil, nil); err != nil {
		c.logger.Warn("chatter comment failed", "move_id", moveID, "error", err)
	}
}

// WriteDraft fills a vendor-bill draft with partner, reference, date and a
// single invoice line.
func (c *Client) WriteDraft(ctx context.Context, d DraftValues) error {
	line := map[string]any{
		"name":       d.Description,
		"quantity":   1.0,
		"price_unit": d.PriceUnit,
	}
	if d.AccountID != 0 {
		line["account_id"] = d.AccountID
	}
	if len(d.TaxIDs) > 0 {
		line["tax_ids"] = []any{[]any{6, 0, d.TaxIDs}}
	}

	vals := map[string]any{
		"partner_id":       d.PartnerID,
		"invoice_line_ids": []any{[]any{0, 0, line}},
	}
	if d.Ref != "" {
		vals["ref"] = d.Ref
	}
	if d.InvoiceDate != "" {
		vals["invoice_date"] = d.InvoiceDate
	}

	return c.ExecuteKw(ctx, "account.move", "write", []any{[]int64{d.MoveID}, vals}, nil, nil)
}

// PostMoves posts the given vendor bills (action_post).
func (c *Client) PostMoves(ctx context.Context, ids []int64) error {
	return c.ExecuteKw(ctx, "account.move", "action_post", []any{ids}, nil, nil)
}

// SanitizeFilename strips any path component from an upload name.
func SanitizeFilename(name string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		return "attachment"
	}
	base = filepath.Base(base)
	if base == "." || base == string(filepath.Separator) {
		return "attachment"
	}
	return base
}

// DetectMimetype guesses a content type from the file extension.
func DetectMimetype(filename string) string {
	if mt := mime.TypeByExtension(filepath.Ext(filename)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// FormatChecksumNote renders the chatter note left after a draft fill.
func FormatChecksumNote(ref, filename, sha1 string) string {
	return strings.TrimSpace(fmt.Sprintf("Agent: draft completed. Ref=%s. File=%s SHA1=%s", ref, SanitizeFilename(filename), sha1))
}
