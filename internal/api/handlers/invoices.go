package handlers

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/enerlind-render/odoo-agent/internal/api/dto"
	"github.com/enerlind-render/odoo-agent/internal/domain/extract"
	"github.com/enerlind-render/odoo-agent/internal/odoo"
)

// totalsTolerance is the largest accepted drift between amount_total and
// amount_untaxed + tax_amount before a draft is flagged for review.
const totalsTolerance = 0.01

const defaultAttachmentLimit = 10

// Draft statuses returned by FillDraft.
const (
	StatusFilled            = "filled"
	StatusPosted            = "posted"
	StatusFilledNeedsReview = "filled_needs_review"
)

// InvoicesHandler serves the vendor-bill draft utilities: checksum lookup,
// draft fill, attachments, posting and field extraction.
type InvoicesHandler struct {
	gateway Gateway
	bills   BillSender
	linker  MoveLinker
	excl    odoo.SelfExclusion
	logger  *slog.Logger
}

// NewInvoicesHandler creates the handler.
func NewInvoicesHandler(gateway Gateway, bills BillSender, linker MoveLinker, excl odoo.SelfExclusion, logger *slog.Logger) *InvoicesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoicesHandler{gateway: gateway, bills: bills, linker: linker, excl: excl, logger: logger}
}

// FindByChecksum locates the vendor-bill draft holding an attachment with
// the given SHA-1. On a hit the local send trace is back-linked to the move.
func (h *InvoicesHandler) FindByChecksum(c *gin.Context) {
	sum := c.Query("sha1")
	if sum == "" {
		abortValidation(c, "sha1 is required")
		return
	}
	limit := intQuery(c, "limit", defaultAttachmentLimit)

	moveID, attachments, err := h.gateway.FindAttachmentsByChecksum(c.Request.Context(), sum, limit)
	if err != nil {
		abortLedger(c, err)
		return
	}

	if moveID != 0 && h.linker != nil {
		if err := h.linker.LinkMove(sum, moveID); err != nil {
			h.logger.Error("linking move to send trace", "sha1", sum, "error", err)
		}
	}

	c.JSON(http.StatusOK, dto.ChecksumLookupResponse{
		Count:       len(attachments),
		MoveID:      moveID,
		Attachments: attachments,
	})
}

// FillDraft writes partner, reference, date and a single invoice line onto
// a draft vendor bill and optionally posts it.
func (h *InvoicesHandler) FillDraft(c *gin.Context) {
	var req dto.FillDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, "invalid request body: "+err.Error())
		return
	}
	if req.MoveID <= 0 {
		abortValidation(c, "move_id is required")
		return
	}

	ctx := c.Request.Context()

	partnerID := req.PartnerID
	if partnerID <= 0 {
		if req.Partner == nil {
			abortValidation(c, "either partner_id or partner is required")
			return
		}
		in := odoo.PartnerInput{
			Name:  req.Partner.Name,
			VAT:   req.Partner.VAT,
			Email: req.Partner.Email,
			Phone: req.Partner.Phone,
		}
		partner, err := h.gateway.EnsurePartner(ctx, in, req.AllowCreateSupplier, h.excl)
		if err != nil {
			if errors.Is(err, odoo.ErrAwaitingSupplierConfirmation) {
				c.AbortWithStatusJSON(http.StatusConflict,
					dto.ConflictError("no matching supplier; confirm creation with allow_create_supplier"))
				return
			}
			abortLedger(c, err)
			return
		}
		partnerID = partner.ID
	}

	var accountID int64
	if req.AccountRef != "" {
		id, err := h.gateway.FindAccountByReference(ctx, req.AccountRef)
		if err != nil {
			abortLedger(c, err)
			return
		}
		if id == 0 {
			abortValidation(c, "account not found: "+req.AccountRef)
			return
		}
		accountID = id
	}

	var taxIDs []int64
	if req.TaxNames != "" {
		ids, err := h.gateway.FindTaxesByNames(ctx, req.TaxNames)
		if err != nil {
			abortLedger(c, err)
			return
		}
		taxIDs = ids
	}

	// Totals only count as verified when all three amounts were supplied.
	totalsMatch := req.AmountUntaxed != nil && req.TaxAmount != nil && req.AmountTotal != nil &&
		math.Abs(*req.AmountUntaxed+*req.TaxAmount-*req.AmountTotal) <= totalsTolerance

	var priceUnit float64
	if req.AmountUntaxed != nil {
		priceUnit = *req.AmountUntaxed
	}
	if priceUnit == 0 && req.AmountTotal != nil {
		priceUnit = *req.AmountTotal
	}

	draft := odoo.DraftValues{
		MoveID:      req.MoveID,
		PartnerID:   partnerID,
		Ref:         req.Ref,
		InvoiceDate: req.InvoiceDate,
		Description: req.Description,
		PriceUnit:   priceUnit,
		AccountID:   accountID,
		TaxIDs:      taxIDs,
	}
	if err := h.gateway.WriteDraft(ctx, draft); err != nil {
		abortLedger(c, err)
		return
	}

	note := odoo.FormatChecksumNote(req.Ref, req.Filename, req.FileSHA1)
	h.gateway.PostComment(ctx, req.MoveID, note)

	status := StatusFilled
	if req.AutoPost {
		if !totalsMatch {
			status = StatusFilledNeedsReview
		} else if err := h.gateway.PostMoves(ctx, []int64{req.MoveID}); err != nil {
			h.logger.Warn("posting filled draft", "move_id", req.MoveID, "error", err)
			status = StatusFilledNeedsReview
		} else {
			status = StatusPosted
		}
	}

	c.JSON(http.StatusOK, dto.FillDraftResponse{
		MoveID:      req.MoveID,
		PartnerID:   partnerID,
		Status:      status,
		TotalsMatch: totalsMatch,
		Note:        note,
	})
}

// Attach uploads a file onto a move as an ir.attachment and leaves a
// chatter note with its checksum.
func (h *InvoicesHandler) Attach(c *gin.Context) {
	raw := c.PostForm("move_id")
	if raw == "" {
		raw = c.Query("move_id")
	}
	moveID, _ := strconv.ParseInt(raw, 10, 64)
	if moveID <= 0 {
		abortValidation(c, "move_id is required")
		return
	}

	data, filename, ok := h.readUpload(c)
	if !ok {
		return
	}

	sum := sha1.Sum(data)
	fileSHA1 := hex.EncodeToString(sum[:])
	mimetype := odoo.DetectMimetype(filename)

	ctx := c.Request.Context()
	attachmentID, err := h.gateway.CreateAttachment(ctx, moveID, filename, data, mimetype)
	if err != nil {
		abortLedger(c, err)
		return
	}
	h.gateway.PostComment(ctx, moveID, odoo.FormatChecksumNote("", filename, fileSHA1))

	c.JSON(http.StatusOK, dto.AttachResponse{
		AttachmentID: attachmentID,
		MoveID:       moveID,
		Filename:     filename,
		FileSHA1:     fileSHA1,
	})
}

// Validate posts the given draft moves.
func (h *InvoicesHandler) Validate(c *gin.Context) {
	var req dto.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		abortValidation(c, "ids must not be empty")
		return
	}

	if err := h.gateway.PostMoves(c.Request.Context(), req.IDs); err != nil {
		abortLedger(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ValidateResponse{Posted: req.IDs})
}

// Extract pulls best-effort invoice hints out of an uploaded PDF.
func (h *InvoicesHandler) Extract(c *gin.Context) {
	data, _, ok := h.readUpload(c)
	if !ok {
		return
	}

	text, err := extract.TextFromPDF(data)
	if err != nil {
		abortValidation(c, "unreadable PDF: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.ExtractResponse{Hints: extract.FromText(text)})
}

// readUpload reads the multipart "file" part and resolves it through the
// upload normalizer (raw bytes, base64 text or OpenAI file id). Writes the
// error response itself and reports ok=false on failure.
func (h *InvoicesHandler) readUpload(c *gin.Context) ([]byte, string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortValidation(c, "multipart field 'file' is required")
		return nil, "", false
	}
	f, err := fileHeader.Open()
	if err != nil {
		abortValidation(c, "cannot read upload: "+err.Error())
		return nil, "", false
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		abortValidation(c, "cannot read upload: "+err.Error())
		return nil, "", false
	}

	data, filename, err := h.bills.ResolveUpload(raw, fileHeader.Filename)
	if err != nil {
		abortValidation(c, err.Error())
		return nil, "", false
	}
	return data, filename, true
}
