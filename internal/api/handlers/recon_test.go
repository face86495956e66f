package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enerlind-render/odoo-agent/internal/api/dto"
	"github.com/enerlind-render/odoo-agent/internal/application/service"
	"github.com/enerlind-render/odoo-agent/internal/domain/recon"
)

func reconRouter(svc Reconciler) *gin.Engine {
	h := NewReconHandler(svc)
	return newTestRouter(func(r *gin.Engine) {
		r.GET("/odoo/reconcile/suggest", h.Suggest)
		r.POST("/odoo/reconcile/apply", h.Apply)
		r.POST("/odoo/reconcile/auto", h.Auto)
	})
}

func TestReconSuggest(t *testing.T) {
	svc := &fakeReconciler{
		suggestions: []recon.Suggestion{
			{
				BankLineID:  11,
				MoveID:      42,
				Amount:      120.00,
				BankDate:    time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
				InvoiceDate: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
				InvoiceName: "BILL/2024/0042",
				Partner:     "ACME SL",
				Score:       0.98,
			},
		},
	}
	router := reconRouter(svc)

	rec := doJSON(router, http.MethodGet, "/odoo/reconcile/suggest?date_from=2024-03-01", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.SuggestListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(11), resp.Items[0].BankLineID)
	assert.Equal(t, "2024-03-10", resp.Items[0].BankDate)
	assert.Equal(t, "2024-03-12", resp.Items[0].InvoiceDate)
	assert.Equal(t, 0.98, resp.Items[0].Score)
}

func TestReconSuggestLedgerFailure(t *testing.T) {
	svc := &fakeReconciler{suggestErr: errors.New("connection refused")}
	router := reconRouter(svc)

	rec := doJSON(router, http.MethodGet, "/odoo/reconcile/suggest", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "ledger_error")
}

func TestReconApply(t *testing.T) {
	svc := &fakeReconciler{
		outcomes: []recon.Outcome{
			{BankLineID: 11, MoveID: 42, Applied: true},
			{BankLineID: 12, MoveID: 43, Applied: false, Reason: recon.ReasonNoPayableLines},
		},
	}
	router := reconRouter(svc)

	body := `{"matches":[{"bank_line_id":11,"move_id":42},{"bank_line_id":12,"move_id":43}]}`
	rec := doJSON(router, http.MethodPost, "/odoo/reconcile/apply", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ApplyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Applied, 1)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, int64(11), resp.Applied[0].BankLineID)
	assert.Equal(t, recon.ReasonNoPayableLines, resp.Skipped[0].Reason)

	require.Len(t, svc.appliedWith, 2)
	assert.Equal(t, recon.MatchPair{BankLineID: 11, MoveID: 42}, svc.appliedWith[0])
}

func TestReconApplyValidation(t *testing.T) {
	router := reconRouter(&fakeReconciler{})

	tests := []struct {
		name string
		body string
	}{
		{"empty matches", `{"matches":[]}`},
		{"missing matches", `{}`},
		{"malformed json", `{"matches":`},
		{"zero ids", `{"matches":[{"bank_line_id":0,"move_id":42}]}`},
		{"negative move", `{"matches":[{"bank_line_id":3,"move_id":-1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(router, http.MethodPost, "/odoo/reconcile/apply", tt.body)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), "validation_error")
		})
	}
}

func TestReconAuto(t *testing.T) {
	svc := &fakeReconciler{
		autoResult: service.AutoReconcileResult{
			Suggested: 3,
			Applied:   2,
			Skipped:   1,
			Outcomes: []recon.Outcome{
				{BankLineID: 1, MoveID: 10, Applied: true},
				{BankLineID: 2, MoveID: 11, Applied: true},
				{BankLineID: 3, MoveID: 12, Applied: false, Reason: recon.ReasonAlreadyReconciled},
			},
		},
	}
	router := reconRouter(svc)

	rec := doJSON(router, http.MethodPost, "/odoo/reconcile/auto", `{"min_score":0.97}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.AutoReconcileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Suggested)
	assert.Equal(t, 2, resp.Applied)
	assert.Equal(t, 1, resp.Skipped)
	assert.Equal(t, 0.97, svc.autoScore)
}

func TestReconAutoDefaultsThreshold(t *testing.T) {
	svc := &fakeReconciler{}
	router := reconRouter(svc)

	rec := doJSON(router, http.MethodPost, "/odoo/reconcile/auto", `{}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1.0, svc.autoScore)
}

func TestReconAutoAcceptsEmptyBody(t *testing.T) {
	svc := &fakeReconciler{}
	router := reconRouter(svc)

	rec := doJSON(router, http.MethodPost, "/odoo/reconcile/auto", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1.0, svc.autoScore)
}

func TestReconAutoExplicitZeroThreshold(t *testing.T) {
	svc := &fakeReconciler{}
	router := reconRouter(svc)

	rec := doJSON(router, http.MethodPost, "/odoo/reconcile/auto", `{"min_score":0}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, svc.autoScore)
}

func TestReconAutoRejectsOutOfRangeScore(t *testing.T) {
	router := reconRouter(&fakeReconciler{})

	rec := doJSON(router, http.MethodPost, "/odoo/reconcile/auto", `{"min_score":1.5}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
