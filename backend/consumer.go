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
var _ ChainService = (*ConsumerClient)(nil)

// ConsumerClient talks to a caching consumer API. The service trades
// freshness for availability: answers may lag live chain state by its cache
// window. preferFresh asks the service to bypass its cache on validity
// checks (explicit configuration; there is no per-call override).
type ConsumerClient struct {
	url         string
	preferFresh bool
	client      *http.Client
}

// NewConsumerClient creates a client for the consumer API at baseURL.
func NewConsumerClient(baseURL string, preferFresh bool) *ConsumerClient {
	return &ConsumerClient{
		url:         strings.TrimRight(baseURL, "/"),
		preferFresh: preferFresh,
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

// post issues a JSON POST and decodes the response into result. The
// consumer API is POST-only.
func (c *ConsumerClient) post(ctx context.Context, path string, body, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("backend: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("backend: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrInvalidResponse, err)
	}
	return nil
}

// consumerUtxo maps the consumer API's UTXO shape.
type consumerUtxo struct {
	TxID     string `json:"txid"`
	Vout     uint32 `json:"vout"`
	Value    uint64 `json:"value"`
	Height   int64  `json:"height"`
	TokenID  string `json:"tokenId,omitempty"`
	TokenQty uint64 `json:"tokenQty,omitempty"`
	Ticker   string `json:"ticker,omitempty"`
	Decimals uint8  `json:"decimals,omitempty"`
}

func (u *consumerUtxo) toUtxo(address string) *Utxo {
	out := &Utxo{
		TxID:     u.TxID,
		Vout:     u.Vout,
		ValueSat: u.Value,
		Address:  address,
		Height:   u.Height,
	}
	if u.TokenID != "" {
		out.Token = &TokenDetail{
			ID:       u.TokenID,
			Qty:      u.TokenQty,
			Ticker:   u.Ticker,
			Decimals: u.Decimals,
		}
	}
	return out
}

// GetUtxos lists unspent outputs for address. The consumer API reports the
// plain and token pools separately; both are returned.
func (c *ConsumerClient) GetUtxos(ctx context.Context, address string) ([]*Utxo, error) {
	var resp struct {
		Success    bool           `json:"success"`
		BchUtxos   []consumerUtxo `json:"bchUtxos"`
		TokenUtxos []consumerUtxo `json:"tokenUtxos"`
		Message    string         `json:"message,omitempty"`
	}
	body := map[string]string{"address": address}
	if err := c.post(ctx, "/bch/utxos", body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, resp.Message)
	}

	utxos := make([]*Utxo, 0, len(resp.BchUtxos)+len(resp.TokenUtxos))
	for i := range resp.BchUtxos {
		utxos = append(utxos, resp.BchUtxos[i].toUtxo(address))
	}
	for i := range resp.TokenUtxos {
		utxos = append(utxos, resp.TokenUtxos[i].toUtxo(address))
	}
	return utxos, nil
}

// UtxoIsValid checks the consumer's view of the outpoint. With preferFresh
// the service is asked to consult the node instead of its cache, otherwise
// a cached answer is acceptable by design.
func (c *ConsumerClient) UtxoIsValid(ctx context.Context, utxo *Utxo) (bool, error) {
	var resp struct {
		IsValid bool `json:"isValid"`
	}
	body := map[string]interface{}{
		"utxo":    map[string]interface{}{"txid": utxo.TxID, "vout": utxo.Vout},
		"noCache": c.preferFresh,
	}
	if err := c.post(ctx, "/bch/utxoIsValid", body, &resp); err != nil {
		return false, err
	}
	return resp.IsValid, nil
}

// SendTx broadcasts a raw transaction hex.
func (c *ConsumerClient) SendTx(ctx context.Context, txHex string) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		TxID    string `json:"txid"`
		Message string `json:"message,omitempty"`
	}
	body := map[string]string{"hex": txHex}
	if err := c.post(ctx, "/bch/broadcast", body, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("%w: %s", ErrBroadcastRejected, resp.Message)
	}
	return resp.TxID, nil
}

// GetTokenData fetches token genesis metadata.
func (c *ConsumerClient) GetTokenData(ctx context.Context, tokenID string) (*TokenData, error) {
	var resp struct {
		Success   bool   `json:"success"`
		Message   string `json:"message,omitempty"`
		TokenData struct {
			ID          string `json:"tokenId"`
			Ticker      string `json:"ticker"`
			Name        string `json:"name"`
			Decimals    uint8  `json:"decimals"`
			DocumentURL string `json:"documentUri"`
			InitialQty  uint64 `json:"initialTokenQty"`
		} `json:"tokenData"`
	}
	body := map[string]string{"tokenId": tokenID}
	if err := c.post(ctx, "/bch/tokenData", body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, resp.Message)
	}
	return &TokenData{
		ID:          resp.TokenData.ID,
		Ticker:      resp.TokenData.Ticker,
		Name:        resp.TokenData.Name,
		Decimals:    resp.TokenData.Decimals,
		DocumentURL: resp.TokenData.DocumentURL,
		InitialQty:  resp.TokenData.InitialQty,
	}, nil
}

// GetBalance returns the consumer's balance view for address.
func (c *ConsumerClient) GetBalance(ctx context.Context, address string) (*Balance, error) {
	var resp struct {
		Success  bool   `json:"success"`
		Message  string `json:"message,omitempty"`
		Balances struct {
			Confirmed   uint64 `json:"confirmed"`
			Unconfirmed uint64 `json:"unconfirmed"`
		} `json:"balances"`
	}
	body := map[string]string{"address": address}
	if err := c.post(ctx, "/bch/balance", body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, resp.Message)
	}
	return &Balance{
		ConfirmedSat:   resp.Balances.Confirmed,
		UnconfirmedSat: resp.Balances.Unconfirmed,
	}, nil
}
