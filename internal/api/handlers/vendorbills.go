package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/enerlind-render/odoo-agent/internal/api/dto"
	"github.com/enerlind-render/odoo-agent/internal/application/service"
	"github.com/enerlind-render/odoo-agent/internal/infrastructure/storage"
)

const defaultSendsLimit = 20

// VendorBillsHandler serves the email ingestion endpoints.
type VendorBillsHandler struct {
	bills BillSender
}

// NewVendorBillsHandler creates the handler.
func NewVendorBillsHandler(bills BillSender) *VendorBillsHandler {
	return &VendorBillsHandler{bills: bills}
}

// Send emails the uploaded file to the vendor-bills alias. The returned
// SHA-1 is what callers later pass to find_by_checksum to locate the draft
// Odoo creates from the email.
func (h *VendorBillsHandler) Send(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortValidation(c, "multipart field 'file' is required")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		abortValidation(c, "cannot read upload: "+err.Error())
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		abortValidation(c, "cannot read upload: "+err.Error())
		return
	}

	data, filename, err := h.bills.ResolveUpload(raw, fileHeader.Filename)
	if err != nil {
		var tooLarge service.ErrAttachmentTooLarge
		if errors.As(err, &tooLarge) {
			abortValidation(c, tooLarge.Error())
			return
		}
		abortValidation(c, err.Error())
		return
	}

	to := c.PostForm("to")
	subjectMode := c.PostForm("subject_mode")
	delay, _ := strconv.Atoi(c.PostForm("delay_seconds"))

	result, err := h.bills.Send(data, filename, to, subjectMode, delay)
	if err != nil {
		abortLedger(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SendResponse{
		Status:       "sent",
		FileSHA1:     result.FileSHA1,
		Filename:     result.Filename,
		To:           result.Recipient,
		DelaySeconds: result.DelaySeconds,
	})
}

// ListSends returns send traces from the local store, newest first. With a
// sha1 query the listing narrows to attempts for that file.
func (h *VendorBillsHandler) ListSends(c *gin.Context) {
	var records []*storage.SendRecord
	var err error
	if sum := c.Query("sha1"); sum != "" {
		records, err = h.bills.SendsFor(sum)
	} else {
		records, err = h.bills.RecentSends(intQuery(c, "limit", defaultSendsLimit))
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "items": records})
}

// Stats returns aggregate counts over the send trail.
func (h *VendorBillsHandler) Stats(c *gin.Context) {
	stats, err := h.bills.Stats()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	c.JSON(http.StatusOK, stats)
}
