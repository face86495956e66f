// Package odoo implements a JSON-RPC client for the Odoo external API
// (execute_kw) plus typed helpers for the models this bridge touches:
// partners, accounts, taxes, vendor bills, attachments and journal items.
package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/enerlind-render/odoo-agent/internal/infrastructure/config"
)

// Client talks to one Odoo database over /jsonrpc.
type Client struct {
	baseURL    string
	db         string
	user       string
	apiKey     string
	companyID  int
	httpClient *http.Client
	logger     *slog.Logger

	mu  sync.Mutex
	uid int
}

// NewClient creates a client from config. No network call is made; the
// session authenticates lazily on first use.
func NewClient(cfg config.OdooConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   cfg.URL,
		db:        cfg.Database,
		user:      cfg.User,
		apiKey:    cfg.APIKey,
		companyID: cfg.CompanyID,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
}

type rpcRequest struct {
	Jsonrpc string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// rpcError is the JSON-RPC error envelope Odoo returns for server-side
// failures (access errors, validation errors, tracebacks).
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

func (e *rpcError) Error() string {
	if e.Data.Message != "" {
		return fmt.Sprintf("odoo: %s", e.Data.Message)
	}
	return fmt.Sprintf("odoo: %s (code %d)", e.Message, e.Code)
}

// call performs one JSON-RPC round trip and decodes the result into out.
func (c *Client) call(ctx context.Context, service, method string, args []any, out any) error {
	payload := rpcRequest{
		Jsonrpc: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      time.Now().UnixNano(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jsonrpc", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("odoo unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading odoo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("odoo: unexpected HTTP status %d", resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decoding odoo response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decoding odoo result: %w", err)
		}
	}
	return nil
}

// Authenticate resolves and caches the user id for this session.
func (c *Client) Authenticate(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uid != 0 {
		return c.uid, nil
	}

	var uid int
	err := c.call(ctx, "common", "login", []any{c.db, c.user, c.apiKey}, &uid)
	if err != nil {
		return 0, err
	}
	if uid == 0 {
		return 0, fmt.Errorf("odoo: authentication rejected for user %q", c.user)
	}

	c.uid = uid
	c.logger.Debug("authenticated against odoo", "db", c.db, "uid", uid)
	return uid, nil
}

// ExecuteKw invokes model.method through the object service, decoding the
// result into out (pass nil to discard it).
func (c *Client) ExecuteKw(ctx context.Context, model, method string, args []any, kw map[string]any, out any) error {
	uid, err := c.Authenticate(ctx)
	if err != nil {
		return err
	}
	if kw == nil {
		kw = map[string]any{}
	}
	callArgs := []any{c.db, uid, c.apiKey, model, method, args, kw}
	return c.call(ctx, "object", "execute_kw", callArgs, out)
}

// Ping verifies connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Authenticate(ctx)
	return err
}

// Database returns the configured database name (for diagnostics output).
func (c *Client) Database() string { return c.db }

// User returns the configured login (for diagnostics output).
func (c *Client) User() string { return c.user }

// SearchRead is a convenience wrapper around the search_read method.
func (c *Client) SearchRead(ctx context.Context, model string, domain []any, fields []string, kw map[string]any) ([]map[string]any, error) {
	merged := map[string]any{"fields": fields}
	for k, v := range kw {
		merged[k] = v
	}
	var rows []map[string]any
	if err := c.ExecuteKw(ctx, model, "search_read", []any{domain}, merged, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Search returns matching record ids.
func (c *Client) Search(ctx context.Context, model string, domain []any, kw map[string]any) ([]int64, error) {
	var ids []int64
	if err := c.ExecuteKw(ctx, model, "search", []any{domain}, kw, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Read fetches the given fields for the given ids.
func (c *Client) Read(ctx context.Context, model string, ids []int64, fields []string) ([]map[string]any, error) {
	var rows []map[string]any
	if err := c.ExecuteKw(ctx, model, "read", []any{ids, fields}, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
