package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/enerlind-render/odoo-agent/internal/application/service"
	"github.com/enerlind-render/odoo-agent/internal/domain/recon"
	"github.com/enerlind-render/odoo-agent/internal/infrastructure/storage"
	"github.com/enerlind-render/odoo-agent/internal/odoo"
)

// fakeGateway is an in-memory Gateway with per-method error injection.
type fakeGateway struct {
	pingErr error

	partners    []odoo.Partner
	partnersErr error

	ensured   odoo.Partner
	ensureErr error
	ensureIn  odoo.PartnerInput

	accountID  int64
	accountErr error

	taxIDs  []int64
	taxErr  error
	taxRefs string

	checksumMoveID int64
	attachments    []odoo.Attachment
	checksumErr    error

	attachmentID int64
	attachErr    error

	comments []string

	draft    odoo.DraftValues
	draftErr error

	postedIDs []int64
	postErr   error
}

func (f *fakeGateway) Ping(context.Context) error { return f.pingErr }
func (f *fakeGateway) Database() string           { return "acme-prod" }
func (f *fakeGateway) User() string               { return "bot@acme.example" }

func (f *fakeGateway) FindPartners(_ context.Context, _, _ string, _ int, _ odoo.SelfExclusion) ([]odoo.Partner, error) {
	return f.partners, f.partnersErr
}

func (f *fakeGateway) EnsurePartner(_ context.Context, in odoo.PartnerInput, _ bool, _ odoo.SelfExclusion) (odoo.Partner, error) {
	f.ensureIn = in
	return f.ensured, f.ensureErr
}

func (f *fakeGateway) FindAccountByReference(_ context.Context, _ string) (int64, error) {
	return f.accountID, f.accountErr
}

func (f *fakeGateway) FindTaxesByNames(_ context.Context, refs string) ([]int64, error) {
	f.taxRefs = refs
	return f.taxIDs, f.taxErr
}

func (f *fakeGateway) FindAttachmentsByChecksum(_ context.Context, _ string, _ int) (int64, []odoo.Attachment, error) {
	return f.checksumMoveID, f.attachments, f.checksumErr
}

func (f *fakeGateway) CreateAttachment(_ context.Context, _ int64, _ string, _ []byte, _ string) (int64, error) {
	return f.attachmentID, f.attachErr
}

func (f *fakeGateway) PostComment(_ context.Context, _ int64, body string) {
	f.comments = append(f.comments, body)
}

func (f *fakeGateway) WriteDraft(_ context.Context, d odoo.DraftValues) error {
	f.draft = d
	return f.draftErr
}

func (f *fakeGateway) PostMoves(_ context.Context, ids []int64) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.postedIDs = append(f.postedIDs, ids...)
	return nil
}

// fakeReconciler returns canned reconciliation results.
type fakeReconciler struct {
	suggestions []recon.Suggestion
	suggestErr  error

	outcomes    []recon.Outcome
	appliedWith []recon.MatchPair

	autoResult service.AutoReconcileResult
	autoErr    error
	autoScore  float64
}

func (f *fakeReconciler) Suggest(_ context.Context, _, _, _ string) ([]recon.Suggestion, error) {
	return f.suggestions, f.suggestErr
}

func (f *fakeReconciler) Apply(_ context.Context, pairs []recon.MatchPair) []recon.Outcome {
	f.appliedWith = pairs
	return f.outcomes
}

func (f *fakeReconciler) AutoReconcile(_ context.Context, minScore float64) (service.AutoReconcileResult, error) {
	f.autoScore = minScore
	return f.autoResult, f.autoErr
}

// fakeBills passes uploads through untouched and records sends.
type fakeBills struct {
	resolveErr error

	sendResult service.SendResult
	sendErr    error
	sentData   []byte
	sentTo     string

	records    []*storage.SendRecord
	recordsErr error

	bySHA1   map[string][]*storage.SendRecord
	lookedUp string

	stats    *storage.Stats
	statsErr error
}

func (f *fakeBills) ResolveUpload(raw []byte, filename string) ([]byte, string, error) {
	if f.resolveErr != nil {
		return nil, "", f.resolveErr
	}
	if filename == "" {
		filename = "attachment"
	}
	return raw, filename, nil
}

func (f *fakeBills) Send(data []byte, _, aliasTo, _ string, _ int) (service.SendResult, error) {
	f.sentData = data
	f.sentTo = aliasTo
	return f.sendResult, f.sendErr
}

func (f *fakeBills) RecentSends(int) ([]*storage.SendRecord, error) {
	return f.records, f.recordsErr
}

func (f *fakeBills) SendsFor(fileSHA1 string) ([]*storage.SendRecord, error) {
	f.lookedUp = fileSHA1
	return f.bySHA1[fileSHA1], f.recordsErr
}

func (f *fakeBills) Stats() (*storage.Stats, error) {
	return f.stats, f.statsErr
}

// fakeLinker records LinkMove calls.
type fakeLinker struct {
	sha1   string
	moveID int64
	err    error
}

func (f *fakeLinker) LinkMove(sha1 string, moveID int64) error {
	f.sha1 = sha1
	f.moveID = moveID
	return f.err
}

func newTestRouter(register func(r *gin.Engine)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r)
	return r
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doMultipart(router http.Handler, path string, fields map[string]string, filename string, fileData []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if fileData != nil {
		part, _ := w.CreateFormFile("file", filename)
		_, _ = part.Write(fileData)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
