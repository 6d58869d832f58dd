package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Compile-time interface check.
var _ ChainService = (*RESTClient)(nil)

// RESTClient talks to a full-node-backed REST gateway. The gateway fronts
// an indexing node, so every answer reflects live chain state.
type RESTClient struct {
	url    string
	client *http.Client
}

// NewRESTClient creates a client for the gateway at baseURL.
func NewRESTClient(baseURL string) *RESTClient {
	return &RESTClient{
		url: strings.TrimRight(baseURL, "/"),
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

// do issues a request and decodes the JSON response into result.
func (c *RESTClient) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, reader)
	if err != nil {
		return fmt.Errorf("backend: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		// The gateway relays node-level rejections as 422 with the reason
		// in the body.
		reason, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: %s", ErrBroadcastRejected, strings.TrimSpace(string(reason)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: decode response: %w", ErrInvalidResponse, err)
		}
	}
	return nil
}

// restUtxo maps the gateway's electrum-style UTXO listing.
type restUtxo struct {
	TxHash string `json:"tx_hash"`
	TxPos  uint32 `json:"tx_pos"`
	Value  uint64 `json:"value"`
	Height int64  `json:"height"`
	Token  *struct {
		TokenID  string `json:"tokenId"`
		Qty      uint64 `json:"qty"`
		Ticker   string `json:"ticker"`
		Decimals uint8  `json:"decimals"`
	} `json:"token,omitempty"`
}

// GetUtxos lists unspent outputs for address via the electrumx index.
func (c *RESTClient) GetUtxos(ctx context.Context, address string) ([]*Utxo, error) {
	var resp struct {
		Success bool       `json:"success"`
		Utxos   []restUtxo `json:"utxos"`
	}
	if err := c.do(ctx, http.MethodGet, "/electrumx/utxos/"+address, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: gateway reported failure", ErrInvalidResponse)
	}

	utxos := make([]*Utxo, len(resp.Utxos))
	for i, r := range resp.Utxos {
		u := &Utxo{
			TxID:     r.TxHash,
			Vout:     r.TxPos,
			ValueSat: r.Value,
			Address:  address,
			Height:   r.Height,
		}
		if r.Token != nil {
			u.Token = &TokenDetail{
				ID:       r.Token.TokenID,
				Qty:      r.Token.Qty,
				Ticker:   r.Token.Ticker,
				Decimals: r.Token.Decimals,
			}
		}
		utxos[i] = u
	}
	return utxos, nil
}

// UtxoIsValid checks the node's live txout set, mempool included. A null
// result means the outpoint is spent or unknown.
func (c *RESTClient) UtxoIsValid(ctx context.Context, utxo *Utxo) (bool, error) {
	var resp struct {
		TxOut json.RawMessage `json:"txout"`
	}
	path := fmt.Sprintf("/blockchain/getTxOut/%s/%d?include_mempool=true", utxo.TxID, utxo.Vout)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return false, err
	}
	return len(resp.TxOut) > 0 && string(resp.TxOut) != "null", nil
}

// SendTx broadcasts a raw transaction hex through the gateway.
func (c *RESTClient) SendTx(ctx context.Context, txHex string) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		TxID    string `json:"txid"`
		Error   string `json:"error,omitempty"`
	}
	body := map[string]string{"txHex": txHex}
	if err := c.do(ctx, http.MethodPost, "/electrumx/tx/broadcast", body, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("%w: %s", ErrBroadcastRejected, resp.Error)
	}
	return resp.TxID, nil
}

// GetTokenData fetches token genesis metadata from the gateway's SLP index.
func (c *RESTClient) GetTokenData(ctx context.Context, tokenID string) (*TokenData, error) {
	var resp struct {
		ID          string `json:"tokenId"`
		Ticker      string `json:"ticker"`
		Name        string `json:"name"`
		Decimals    uint8  `json:"decimals"`
		DocumentURL string `json:"documentUri"`
		InitialQty  uint64 `json:"initialTokenQty"`
	}
	if err := c.do(ctx, http.MethodGet, "/slp/tokenStats/"+tokenID, nil, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: empty token record", ErrInvalidResponse)
	}
	return &TokenData{
		ID:          resp.ID,
		Ticker:      resp.Ticker,
		Name:        resp.Name,
		Decimals:    resp.Decimals,
		DocumentURL: resp.DocumentURL,
		InitialQty:  resp.InitialQty,
	}, nil
}

// GetBalance returns the electrumx balance for address.
func (c *RESTClient) GetBalance(ctx context.Context, address string) (*Balance, error) {
	var resp struct {
		Success bool `json:"success"`
		Balance struct {
			Confirmed   uint64 `json:"confirmed"`
			Unconfirmed uint64 `json:"unconfirmed"`
		} `json:"balance"`
	}
	if err := c.do(ctx, http.MethodGet, "/electrumx/balance/"+address, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: gateway reported failure", ErrInvalidResponse)
	}
	return &Balance{
		ConfirmedSat:   resp.Balance.Confirmed,
		UnconfirmedSat: resp.Balance.Unconfirmed,
	}, nil
}
