package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync/atomic"
	"time"
)

// Compile-time interface check.
var _ ChainService = (*RPCClient)(nil)

// RPCClient is a JSON-RPC 1.0 client for talking directly to a node. It
// handles request serialization, Basic Auth, and response parsing; the
// ChainService methods are built on top of Call.
type RPCClient struct {
	url    string
	user   string
	pass   string
	client *http.Client
	nextID atomic.Int64
}

// rpcRequest represents a JSON-RPC 1.0 request payload.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcResponse represents a JSON-RPC 1.0 response payload.
type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCError is an error reported by the JSON-RPC server itself, as opposed
// to a transport failure.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("backend: rpc error %d: %s", e.Code, e.Message)
}

// NewRPCClient creates a JSON-RPC client. Basic Auth is used when user is
// non-empty.
func NewRPCClient(url, user, pass string) *RPCClient {
	return &RPCClient{
		url:  url,
		user: user,
		pass: pass,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// Call invokes a JSON-RPC method on the node. If params is nil an empty
// params array is sent; if result is nil the response result is discarded.
// Call returns ErrConnectionFailed when the HTTP request fails and
// ErrInvalidResponse when the response cannot be decoded. RPC-level errors
// are returned as plain errors carrying the server's message.
func (c *RPCClient) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	reqBody := rpcRequest{
		JSONRPC: "1.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("backend: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("backend: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var rpcResp rpcResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&rpcResp); decodeErr != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%w: HTTP %d", ErrConnectionFailed, resp.StatusCode)
		}
		return fmt.Errorf("%w: decode response: %w", ErrInvalidResponse, decodeErr)
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if rpcResp.ID != reqBody.ID {
		return fmt.Errorf("%w: response ID mismatch: expected %d, got %d",
			ErrInvalidResponse, reqBody.ID, rpcResp.ID)
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: unmarshal result: %w", ErrInvalidResponse, err)
		}
	}

	return nil
}

// coinToSat converts a whole-coin float64 amount (as returned by the node)
// to satoshis, rounding to avoid floating-point truncation.
func coinToSat(coins float64) uint64 {
	return uint64(math.Round(coins * 1e8))
}

// listUnspentResult maps the fields returned by listunspent.
type listUnspentResult struct {
	TxID          string  `json:"txid"`
	Vout          uint32  `json:"vout"`
	Amount        float64 `json:"amount"`
	ScriptPubKey  string  `json:"scriptPubKey"`
	Address       string  `json:"address"`
	Confirmations int64   `json:"confirmations"`
}

// GetUtxos calls `listunspent 0 9999999 ["address"]` and converts coin
// amounts to satoshis. Bare nodes carry no token index, so token-carrying
// outputs are reported as plain value here.
func (c *RPCClient) GetUtxos(ctx context.Context, address string) ([]*Utxo, error) {
	params := []interface{}{0, 9999999, []string{address}}
	var results []listUnspentResult
	if err := c.Call(ctx, "listunspent", params, &results); err != nil {
		return nil, err
	}

	utxos := make([]*Utxo, len(results))
	for i, r := range results {
		utxos[i] = &Utxo{
			TxID:         r.TxID,
			Vout:         r.Vout,
			ValueSat:     coinToSat(r.Amount),
			Address:      r.Address,
			ScriptPubKey: r.ScriptPubKey,
		}
	}
	return utxos, nil
}

// gettxoutResult maps the fields returned by gettxout. JSON null (spent
// output) leaves the raw message empty.
type gettxoutResult struct {
	Value         float64 `json:"value"`
	Confirmations int64   `json:"confirmations"`
}

// UtxoIsValid calls `gettxout txid vout true`; a null result means the
// outpoint is spent or unknown. Node answers are always live.
func (c *RPCClient) UtxoIsValid(ctx context.Context, utxo *Utxo) (bool, error) {
	params := []interface{}{utxo.TxID, utxo.Vout, true}
	var raw json.RawMessage
	if err := c.Call(ctx, "gettxout", params, &raw); err != nil {
		return false, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	var result gettxoutResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return false, fmt.Errorf("%w: unmarshal gettxout: %w", ErrInvalidResponse, err)
	}
	return true, nil
}

// SendTx calls sendrawtransaction. Node rejections (RPC errors) surface as
// ErrBroadcastRejected carrying the node's reason verbatim.
func (c *RPCClient) SendTx(ctx context.Context, txHex string) (string, error) {
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", []interface{}{txHex}, &txid); err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return "", fmt.Errorf("%w: %s", ErrBroadcastRejected, rpcErr.Message)
		}
		return "", err
	}
	return txid, nil
}

// GetTokenData always fails on this backend kind: bare nodes have no token
// index. The error kind is shared across all backends.
func (c *RPCClient) GetTokenData(ctx context.Context, tokenID string) (*TokenData, error) {
	return nil, fmt.Errorf("%w: token %s via json-rpc", ErrTokenDataUnavailable, tokenID)
}

// GetBalance sums the address's unspent outputs, split by confirmation.
func (c *RPCClient) GetBalance(ctx context.Context, address string) (*Balance, error) {
	params := []interface{}{0, 9999999, []string{address}}
	var results []listUnspentResult
	if err := c.Call(ctx, "listunspent", params, &results); err != nil {
		return nil, err
	}

	bal := &Balance{}
	for _, r := range results {
		if r.Confirmations > 0 {
			bal.ConfirmedSat += coinToSat(r.Amount)
		} else {
			bal.UnconfirmedSat += coinToSat(r.Amount)
		}
	}
	return bal, nil
}
