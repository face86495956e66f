package odoo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrAwaitingSupplierConfirmation is returned by EnsurePartner when no
// existing supplier matches and creation was not authorized by the caller.
var ErrAwaitingSupplierConfirmation = errors.New("AWAITING_SUPPLIER_CONFIRMATION")

// Partner is a supplier record.
type Partner struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	VAT        string `json:"vat,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	UsageCount int    `json:"usage_count"`
}

// PartnerInput carries the supplier identity extracted from an invoice.
type PartnerInput struct {
	Name  string
	VAT   string
	Email string
	Phone string
}

// SelfExclusion keeps the company's own records out of supplier matching,
// so an invoice that prints the buyer's details does not resolve to the
// buyer itself.
type SelfExclusion struct {
	Keywords     []string // lowercase name fragments
	EmailDomains []string // lowercase domains without the @
}

var partnerFields = []string{"id", "name", "vat", "email", "phone"}

// CompanyID returns the company of the authenticated user.
func (c *Client) CompanyID(ctx context.Context) (int64, error) {
	uid, err := c.Authenticate(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := c.Read(ctx, "res.users", []int64{int64(uid)}, []string{"company_id"})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("odoo: user %d not readable", uid)
	}
	return many2oneID(rows[0]["company_id"]), nil
}

// CompanyPartnerID returns the partner record backing the user's company.
func (c *Client) CompanyPartnerID(ctx context.Context) (int64, error) {
	companyID, err := c.CompanyID(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := c.Read(ctx, "res.company", []int64{companyID}, []string{"partner_id"})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("odoo: company %d not readable", companyID)
	}
	return many2oneID(rows[0]["partner_id"]), nil
}

// supplierDomain builds the base search domain: active suppliers, never the
// company itself, minus configured self keywords/domains.
func (c *Client) supplierDomain(ctx context.Context, excl SelfExclusion) ([]any, error) {
	companyPartnerID, err := c.CompanyPartnerID(ctx)
	if err != nil {
		return nil, err
	}
	domain := []any{
		[]any{"supplier_rank", ">", 0},
		[]any{"active", "=", true},
		[]any{"commercial_partner_id", "!=", companyPartnerID},
		[]any{"id", "!=", companyPartnerID},
	}
	for _, kw := range excl.Keywords {
		domain = append(domain, []any{"name", "not ilike", kw})
	}
	for _, dom := range excl.EmailDomains {
		domain = append(domain, []any{"email", "not ilike", "@" + dom})
	}
	return domain, nil
}

// FindPartners searches suppliers by VAT (exact) or free-text name (exact
// first, ilike fallback). Results are annotated with how many vendor bills
// each supplier already has and sorted most-used first.
func (c *Client) FindPartners(ctx context.Context, query, vat string, limit int, excl SelfExclusion) ([]Partner, error) {
	if limit <= 0 {
		limit = 10
	}
	base, err := c.supplierDomain(ctx, excl)
	if err != nil {
		return nil, err
	}

	searchWith := func(clause []any) ([]map[string]any, error) {
		domain := base
		if clause != nil {
			domain = append([]any{clause}, base...)
		}
		return c.SearchRead(ctx, "res.partner", domain, partnerFields, map[string]any{"limit": limit})
	}

	var rows []map[string]any
	switch {
	case vat != "":
		rows, err = searchWith([]any{"vat", "=", vat})
	case query != "":
		rows, err = searchWith([]any{"name", "=", query})
		if err == nil && len(rows) == 0 {
			rows, err = searchWith([]any{"name", "ilike", query})
		}
	default:
		rows, err = searchWith(nil)
	}
	if err != nil {
		return nil, err
	}

	partners := make([]Partner, 0, len(rows))
	for _, row := range rows {
		p := partnerFromRow(row)
		p.UsageCount, err = c.vendorBillCount(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}

	sort.SliceStable(partners, func(i, j int) bool {
		if partners[i].UsageCount != partners[j].UsageCount {
			return partners[i].UsageCount > partners[j].UsageCount
		}
		return partners[i].Name < partners[j].Name
	})
	return partners, nil
}

// EnsurePartner resolves a supplier to an existing record through a dedup
// cascade (VAT, email, exact name, fuzzy name), enriching the first hit with
// any identity fields it is missing. Without a hit it either creates the
// supplier or reports ErrAwaitingSupplierConfirmation, per allowCreate.
func (c *Client) EnsurePartner(ctx context.Context, in PartnerInput, allowCreate bool, excl SelfExclusion) (Partner, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Partner{}, fmt.Errorf("supplier name is required")
	}
	vat := strings.ToUpper(strings.TrimSpace(in.VAT))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)

	base, err := c.supplierDomain(ctx, excl)
	if err != nil {
		return Partner{}, err
	}

	cascade := [][]any{}
	if vat != "" {
		cascade = append(cascade, []any{"vat", "=", vat})
	}
	if email != "" {
		cascade = append(cascade, []any{"email", "ilike", email})
	}
	cascade = append(cascade,
		[]any{"name", "=", name},
		[]any{"name", "ilike", name},
	)

	for _, clause := range cascade {
		ids, err := c.Search(ctx, "res.partner", append([]any{clause}, base...), map[string]any{"limit": 1})
		if err != nil {
			return Partner{}, err
		}
		if len(ids) == 0 {
			continue
		}
		return c.enrichPartner(ctx, ids[0], vat, email, phone)
	}

	if !allowCreate {
		return Partner{}, ErrAwaitingSupplierConfirmation
	}

	vals := map[string]any{"name": name, "supplier_rank": 1, "type": "contact"}
	if vat != "" {
		vals["vat"] = vat
	}
	if email != "" {
		vals["email"] = email
	}
	if phone != "" {
		vals["phone"] = phone
	}

	var partnerID int64
	if err := c.ExecuteKw(ctx, "res.partner", "create", []any{vals}, nil, &partnerID); err != nil {
		return Partner{}, err
	}
	c.logger.Info("created supplier", "partner_id", partnerID, "name", name)
	return c.readPartner(ctx, partnerID)
}

// enrichPartner writes back any identity fields the matched record lacks.
func (c *Client) enrichPartner(ctx context.Context, id int64, vat, email, phone string) (Partner, error) {
	partner, err := c.readPartner(ctx, id)
	if err != nil {
		return Partner{}, err
	}

	updates := map[string]any{}
	if vat != "" && partner.VAT == "" {
		updates["vat"] = vat
	}
	if email != "" && partner.Email == "" {
		updates["email"] = email
	}
	if phone != "" && partner.Phone == "" {
		updates["phone"] = phone
	}
	if len(updates) == 0 {
		return partner, nil
	}

	if err := c.ExecuteKw(ctx, "res.partner", "write", []any{[]int64{id}, updates}, nil, nil); err != nil {
		return Partner{}, err
	}
	return c.readPartner(ctx, id)
}

func (c *Client) readPartner(ctx context.Context, id int64) (Partner, error) {
	rows, err := c.Read(ctx, "res.partner", []int64{id}, partnerFields)
	if err != nil {
		return Partner{}, err
	}
	if len(rows) == 0 {
		return Partner{}, fmt.Errorf("odoo: partner %d not readable", id)
	}
	return partnerFromRow(rows[0]), nil
}

func (c *Client) vendorBillCount(ctx context.Context, partnerID int64) (int, error) {
	domain := []any{
		[]any{"move_type", "in", []string{"in_invoice", "in_refund"}},
		[]any{"partner_id", "=", partnerID},
	}
	var count int
	if err := c.ExecuteKw(ctx, "account.move", "search_count", []any{domain}, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func partnerFromRow(row map[string]any) Partner {
	return Partner{
		ID:    asInt64(row["id"]),
		Name:  asString(row["name"]),
		VAT:   asString(row["vat"]),
		Email: asString(row["email"]),
		Phone: asString(row["phone"]),
	}
}
