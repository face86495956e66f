// Package handlers implements the HTTP endpoints. Handlers depend on narrow
// interfaces so tests can stand in fakes for the Odoo client, the services
// and the local store.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/enerlind-render/odoo-agent/internal/api/dto"
	"github.com/enerlind-render/odoo-agent/internal/application/service"
	"github.com/enerlind-render/odoo-agent/internal/domain/recon"
	"github.com/enerlind-render/odoo-agent/internal/infrastructure/storage"
	"github.com/enerlind-render/odoo-agent/internal/odoo"
)

// Gateway is the slice of the Odoo client the handlers call directly.
// *odoo.Client satisfies it.
type Gateway interface {
	Ping(ctx context.Context) error
	Database() string
	User() string
	FindPartners(ctx context.Context, query, vat string, limit int, excl odoo.SelfExclusion) ([]odoo.Partner, error)
	EnsurePartner(ctx context.Context, in odoo.PartnerInput, allowCreate bool, excl odoo.SelfExclusion) (odoo.Partner, error)
	FindAccountByReference(ctx context.Context, ref string) (int64, error)
	FindTaxesByNames(ctx context.Context, refs string) ([]int64, error)
	FindAttachmentsByChecksum(ctx context.Context, sha1 string, limit int) (int64, []odoo.Attachment, error)
	CreateAttachment(ctx context.Context, moveID int64, filename string, data []byte, mimetype string) (int64, error)
	PostComment(ctx context.Context, moveID int64, body string)
	WriteDraft(ctx context.Context, d odoo.DraftValues) error
	PostMoves(ctx context.Context, ids []int64) error
}

// Reconciler is the reconciliation service surface the handlers use.
// *service.ReconService satisfies it.
type Reconciler interface {
	Suggest(ctx context.Context, journalName, dateFrom, dateTo string) ([]recon.Suggestion, error)
	Apply(ctx context.Context, pairs []recon.MatchPair) []recon.Outcome
	AutoReconcile(ctx context.Context, minScore float64) (service.AutoReconcileResult, error)
}

// BillSender is the vendor-bill service surface the handlers use.
// *service.VendorBillService satisfies it.
type BillSender interface {
	ResolveUpload(raw []byte, filename string) ([]byte, string, error)
	Send(data []byte, filename, aliasTo, subjectMode string, delaySeconds int) (service.SendResult, error)
	RecentSends(limit int) ([]*storage.SendRecord, error)
	SendsFor(fileSHA1 string) ([]*storage.SendRecord, error)
	Stats() (*storage.Stats, error)
}

// MoveLinker back-fills the local send trace once a checksum resolves to a
// vendor-bill draft. *storage.Store satisfies it.
type MoveLinker interface {
	LinkMove(sha1 string, moveID int64) error
}

func abortValidation(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, dto.ValidationError(message))
}

func abortLedger(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadGateway, dto.LedgerError(err))
}

// intQuery parses an integer query parameter with a default value.
func intQuery(c *gin.Context, name string, defaultVal int) int {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
