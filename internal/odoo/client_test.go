package odoo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enerlind-render/odoo-agent/internal/infrastructure/config"
)

// rpcCall is one decoded request seen by the fake Odoo server.
type rpcCall struct {
	Service string
	Method  string
	Model   string // object calls only
	ObjMeth string // object calls only
	Args    []any
	Kwargs  map[string]any
}

// fakeOdoo is an httptest JSON-RPC endpoint. handlers are keyed by
// "service.method" or, for execute_kw, "model.method".
type fakeOdoo struct {
	t        *testing.T
	server   *httptest.Server
	calls    []rpcCall
	handlers map[string]func(call rpcCall) (any, *rpcError)
}

func newFakeOdoo(t *testing.T) *fakeOdoo {
	t.Helper()
	f := &fakeOdoo{
		t:        t,
		handlers: map[string]func(call rpcCall) (any, *rpcError){},
	}
	f.handlers["common.login"] = func(rpcCall) (any, *rpcError) { return 7, nil }

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/jsonrpc", r.URL.Path)

		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		call := rpcCall{Service: req.Params.Service, Method: req.Params.Method}
		key := call.Service + "." + call.Method
		if call.Service == "object" && call.Method == "execute_kw" {
			// [db, uid, api_key, model, method, args, kwargs]
			require.Len(t, req.Params.Args, 7)
			call.Model = req.Params.Args[3].(string)
			call.ObjMeth = req.Params.Args[4].(string)
			call.Args = req.Params.Args[5].([]any)
			call.Kwargs, _ = req.Params.Args[6].(map[string]any)
			key = call.Model + "." + call.ObjMeth
		} else {
			call.Args = req.Params.Args
		}
		f.calls = append(f.calls, call)

		handler, ok := f.handlers[key]
		require.True(t, ok, "no fake handler for %s", key)
		result, rpcErr := handler(call)

		resp := map[string]any{"jsonrpc": "2.0", "id": 1}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeOdoo) on(key string, fn func(call rpcCall) (any, *rpcError)) {
	f.handlers[key] = fn
}

func (f *fakeOdoo) countCalls(service, method string) int {
	n := 0
	for _, c := range f.calls {
		if c.Service == service && c.Method == method {
			n++
		}
	}
	return n
}

func newTestClient(f *fakeOdoo) *Client {
	return NewClient(config.OdooConfig{
		URL:            f.server.URL,
		Database:       "acme-prod",
		User:           "bot@acme.example",
		APIKey:         "key",
		TimeoutSeconds: 5,
	}, nil)
}

func TestAuthenticateCachesUID(t *testing.T) {
	f := newFakeOdoo(t)
	client := newTestClient(f)
	ctx := context.Background()

	uid, err := client.Authenticate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, uid)

	_, err = client.Authenticate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.countCalls("common", "login"))
}

func TestAuthenticateRejected(t *testing.T) {
	f := newFakeOdoo(t)
	f.on("common.login", func(rpcCall) (any, *rpcError) { return 0, nil })
	client := newTestClient(f)

	_, err := client.Authenticate(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication rejected")
}

func TestRPCErrorSurfacesOdooMessage(t *testing.T) {
	f := newFakeOdoo(t)
	f.on("account.move.action_post", func(rpcCall) (any, *rpcError) {
		e := &rpcError{Code: 200, Message: "Odoo Server Error"}
		e.Data.Name = "odoo.exceptions.UserError"
		e.Data.Message = "You need at least one invoice line."
		return nil, e
	})
	client := newTestClient(f)

	err := client.PostMoves(context.Background(), []int64{42})

	require.Error(t, err)
	assert.Equal(t, "odoo: You need at least one invoice line.", err.Error())
}

func TestListUnreconciledBankLines(t *testing.T) {
	f := newFakeOdoo(t)
	f.on("account.move.line.search_read", func(call rpcCall) (any, *rpcError) {
		return []map[string]any{
			{
				"id":         101,
				"date":       "2024-03-10",
				"balance":    -120.30,
				"partner_id": []any{31.0, "ACME SL"},
				"name":       "TRANSFER ACME",
				"ref":        "stmt-3",
				"journal_id": []any{5.0, "Bank"},
			},
			{
				// Odoo renders empty relations and strings as false.
				"id":         102,
				"date":       false,
				"balance":    75.00,
				"partner_id": false,
				"name":       "CASH DEPOSIT",
				"ref":        false,
				"journal_id": []any{5.0, "Bank"},
			},
		}, nil
	})
	client := newTestClient(f)

	lines, err := client.ListUnreconciledBankLines(context.Background(), "Bank", "2024-03-01", "2024-03-31")

	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, int64(101), lines[0].ID)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), lines[0].Date)
	assert.Equal(t, -120.30, lines[0].Amount)
	assert.Equal(t, "ACME SL", lines[0].Partner)
	assert.Equal(t, "stmt-3", lines[0].Ref)
	assert.Equal(t, "Bank", lines[0].Journal)

	// Missing partner falls back to the line label; missing date stays zero.
	assert.True(t, lines[1].Date.IsZero())
	assert.Equal(t, "CASH DEPOSIT", lines[1].Partner)
	assert.Empty(t, lines[1].Ref)
}

func TestListUnpaidInvoices(t *testing.T) {
	f := newFakeOdoo(t)
	f.on("account.move.search_read", func(call rpcCall) (any, *rpcError) {
		return []map[string]any{
			{
				"id":              42,
				"invoice_date":    "2024-03-12",
				"amount_residual": 120.00,
				"partner_id":      []any{31.0, "ACME SL"},
				"name":            "BILL/2024/0042",
				"state":           "posted",
			},
		}, nil
	})
	client := newTestClient(f)

	invoices, err := client.ListUnpaidInvoices(context.Background(), "", "")

	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, int64(42), invoices[0].ID)
	assert.Equal(t, 120.00, invoices[0].Residual)
	assert.Equal(t, "ACME SL", invoices[0].Partner)
	assert.Equal(t, "BILL/2024/0042", invoices[0].Name)
}

func TestIsLineReconciled(t *testing.T) {
	f := newFakeOdoo(t)
	f.on("account.move.line.read", func(call rpcCall) (any, *rpcError) {
		return []map[string]any{{"id": 101, "reconciled": true}}, nil
	})
	client := newTestClient(f)

	reconciled, err := client.IsLineReconciled(context.Background(), 101)

	require.NoError(t, err)
	assert.True(t, reconciled)
}

func TestReconcileLinesSendsAllIDs(t *testing.T) {
	f := newFakeOdoo(t)
	f.on("account.move.line.reconcile", func(call rpcCall) (any, *rpcError) {
		return map[string]any{}, nil
	})
	client := newTestClient(f)

	err := client.ReconcileLines(context.Background(), []int64{101, 201, 202})

	require.NoError(t, err)
	last := f.calls[len(f.calls)-1]
	require.Equal(t, "account.move.line", last.Model)
	require.Len(t, last.Args, 1)
	ids := last.Args[0].([]any)
	assert.Equal(t, []any{101.0, 201.0, 202.0}, ids)
}
