package backend

import "context"

// MockChainService is a test double for ChainService. All function fields
// must be set before the corresponding method is called.
type MockChainService struct {
	GetUtxosFn     func(ctx context.Context, address string) ([]*Utxo, error)
	UtxoIsValidFn  func(ctx context.Context, utxo *Utxo) (bool, error)
	SendTxFn       func(ctx context.Context, txHex string) (string, error)
	GetTokenDataFn func(ctx context.Context, tokenID string) (*TokenData, error)
	GetBalanceFn   func(ctx context.Context, address string) (*Balance, error)
}

func (m *MockChainService) GetUtxos(ctx context.Context, address string) ([]*Utxo, error) {
	return m.GetUtxosFn(ctx, address)
}
func (m *MockChainService) UtxoIsValid(ctx context.Context, utxo *Utxo) (bool, error) {
	return m.UtxoIsValidFn(ctx, utxo)
}
func (m *MockChainService) SendTx(ctx context.Context, txHex string) (string, error) {
	return m.SendTxFn(ctx, txHex)
}
func (m *MockChainService) GetTokenData(ctx context.Context, tokenID string) (*TokenData, error) {
	return m.GetTokenDataFn(ctx, tokenID)
}
func (m *MockChainService) GetBalance(ctx context.Context, address string) (*Balance, error) {
	return m.GetBalanceFn(ctx, address)
}
