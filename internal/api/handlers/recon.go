package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/enerlind-render/odoo-agent/internal/api/dto"
	"github.com/enerlind-render/odoo-agent/internal/domain/recon"
)

// ReconHandler serves the reconciliation endpoints.
type ReconHandler struct {
	svc Reconciler
}

// NewReconHandler creates the handler.
func NewReconHandler(svc Reconciler) *ReconHandler {
	return &ReconHandler{svc: svc}
}

// Suggest computes scored bank-line / vendor-bill pairings. Read-only.
func (h *ReconHandler) Suggest(c *gin.Context) {
	journal := c.Query("journal_name")
	dateFrom := c.Query("date_from")
	dateTo := c.Query("date_to")

	suggestions, err := h.svc.Suggest(c.Request.Context(), journal, dateFrom, dateTo)
	if err != nil {
		abortLedger(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuggestListResponse{
		Count: len(suggestions),
		Items: dto.FromSuggestions(suggestions),
	})
}

// Apply commits an explicit list of pairings. Per-pair ledger failures come
// back as skip entries, never as a request-level error.
func (h *ReconHandler) Apply(c *gin.Context) {
	var req dto.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.Matches) == 0 {
		abortValidation(c, "matches must not be empty")
		return
	}

	pairs := make([]recon.MatchPair, len(req.Matches))
	for i, m := range req.Matches {
		if m.BankLineID <= 0 || m.MoveID <= 0 {
			abortValidation(c, "every match needs a positive bank_line_id and move_id")
			return
		}
		pairs[i] = recon.MatchPair{BankLineID: m.BankLineID, MoveID: m.MoveID}
	}

	outcomes := h.svc.Apply(c.Request.Context(), pairs)

	resp := dto.ApplyResponse{
		Applied: []dto.OutcomeResponse{},
		Skipped: []dto.OutcomeResponse{},
	}
	for _, out := range dto.FromOutcomes(outcomes) {
		if out.Applied {
			resp.Applied = append(resp.Applied, out)
		} else {
			resp.Skipped = append(resp.Skipped, out)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Auto runs suggest, filters by score and applies the survivors. An empty
// body is valid and means "use the configured threshold".
func (h *ReconHandler) Auto(c *gin.Context) {
	var req dto.AutoReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortValidation(c, "invalid request body: "+err.Error())
		return
	}

	minScore := -1.0
	if req.MinScore != nil {
		if *req.MinScore < 0 || *req.MinScore > 1 {
			abortValidation(c, "min_score must be between 0 and 1")
			return
		}
		minScore = *req.MinScore
	}

	result, err := h.svc.AutoReconcile(c.Request.Context(), minScore)
	if err != nil {
		abortLedger(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AutoReconcileResponse{
		Suggested: result.Suggested,
		Applied:   result.Applied,
		Skipped:   result.Skipped,
		Results:   dto.FromOutcomes(result.Outcomes),
	})
}
