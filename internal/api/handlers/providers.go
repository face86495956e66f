package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/enerlind-render/odoo-agent/internal/api/dto"
	"github.com/enerlind-render/odoo-agent/internal/odoo"
)

const defaultPartnerLimit = 10

// ProvidersHandler serves supplier search and creation.
type ProvidersHandler struct {
	gateway Gateway
	excl    odoo.SelfExclusion
}

// NewProvidersHandler creates the handler. excl keeps the company's own
// records out of every supplier lookup.
func NewProvidersHandler(gateway Gateway, excl odoo.SelfExclusion) *ProvidersHandler {
	return &ProvidersHandler{gateway: gateway, excl: excl}
}

// Search looks up suppliers by VAT or name fragment, annotated with
// vendor-bill usage counts.
func (h *ProvidersHandler) Search(c *gin.Context) {
	query := c.Query("q")
	vat := c.Query("vat")
	limit := intQuery(c, "limit", defaultPartnerLimit)

	partners, err := h.gateway.FindPartners(c.Request.Context(), query, vat, limit, h.excl)
	if err != nil {
		abortLedger(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PartnerListResponse{
		Count: len(partners),
		Items: partners,
	})
}

// Ensure finds an existing supplier by the dedup cascade or creates one
// when allow_create_supplier is set.
func (h *ProvidersHandler) Ensure(c *gin.Context) {
	var req dto.EnsureProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" && req.VAT == "" && req.Email == "" {
		abortValidation(c, "at least one of name, vat or email is required")
		return
	}

	in := odoo.PartnerInput{
		Name:  req.Name,
		VAT:   req.VAT,
		Email: req.Email,
		Phone: req.Phone,
	}
	partner, err := h.gateway.EnsurePartner(c.Request.Context(), in, req.AllowCreateSupplier, h.excl)
	if err != nil {
		if errors.Is(err, odoo.ErrAwaitingSupplierConfirmation) {
			c.AbortWithStatusJSON(http.StatusConflict,
				dto.ConflictError("no matching supplier; confirm creation with allow_create_supplier"))
			return
		}
		abortLedger(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.EnsurePartnerResponse{Partner: partner})
}
