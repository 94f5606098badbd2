package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const authTTL = 10 * time.Minute

// OdooClient talks JSON-RPC to an Odoo instance. Authentication yields a
// numeric uid which is cached and reused for authTTL before re-login.
type OdooClient struct {
	url      string
	db       string
	user     string
	password string
	client   *http.Client

	mu       sync.Mutex
	uid      int
	authedAt time.Time
}

func NewOdooClient(url, db, user, password string) *OdooClient {
	return &OdooClient{
		url:      url,
		db:       db,
		user:     user,
		password: password,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int       `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Message string `json:"message"`
	} `json:"data"`
}

func (e *rpcError) String() string {
	if e.Data.Message != "" {
		return e.Data.Message
	}
	return e.Message
}

// call performs one JSON-RPC round trip against the service/method/args triple.
func (o *OdooClient) call(ctx context.Context, service, method string, args []any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal RPC request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url+"/jsonrpc", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build RPC request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("RPC call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("RPC call returned status %d", resp.StatusCode)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode RPC response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("RPC fault: %s", out.Error.String())
	}
	return out.Result, nil
}

// authenticate logs in and caches the uid. Safe for concurrent callers.
func (o *OdooClient) authenticate(ctx context.Context) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.uid != 0 && time.Since(o.authedAt) < authTTL {
		return o.uid, nil
	}

	result, err := o.call(ctx, "common", "login", []any{o.db, o.user, o.password})
	if err != nil {
		return 0, fmt.Errorf("authentication failed: %w", err)
	}

	var uid int
	if err := json.Unmarshal(result, &uid); err != nil || uid == 0 {
		return 0, fmt.Errorf("authentication rejected for user %s", o.user)
	}

	o.uid = uid
	o.authedAt = time.Now()
	return uid, nil
}

// ExecuteKw runs a model method through the object service.
func (o *OdooClient) ExecuteKw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	uid, err := o.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return o.call(ctx, "object", "execute_kw",
		[]any{o.db, uid, o.password, model, method, args, kwargs})
}
