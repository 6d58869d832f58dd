package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/cashtxorg/libcashtx-go/tokenmeta"
)

// Compile-time interface check: the Router is itself a ChainService.
var _ ChainService = (*Router)(nil)

// Router is the uniform facade over the interchangeable backend kinds. The
// concrete client is selected once from Config.Kind; every method wraps the
// underlying call in bounded exponential retry with a per-attempt timeout.
// Only after the retry budget is exhausted does a failure surface, wrapped
// in ErrBackendUnavailable together with the last underlying error.
// Broadcast rejections are permanent and never retried.
type Router struct {
	svc    ChainService
	cfg    Config
	tokens *tokenmeta.Store
}

// RouterOption customizes a Router at construction.
type RouterOption func(*Router)

// WithTokenStore attaches a persistent read-through cache for GetTokenData.
func WithTokenStore(store *tokenmeta.Store) RouterOption {
	return func(r *Router) { r.tokens = store }
}

// NewRouter builds a Router from a resolved Config.
func NewRouter(cfg *Config, opts ...RouterOption) (*Router, error) {
	resolved, err := ResolveConfig(cfg, nil)
	if err != nil {
		return nil, err
	}

	var svc ChainService
	switch resolved.Kind {
	case KindFullNodeREST:
		svc = NewRESTClient(resolved.URL)
	case KindConsumerAPI:
		svc = NewConsumerClient(resolved.URL, resolved.PreferFresh)
	case KindJSONRPC:
		svc = NewRPCClient(resolved.URL, resolved.User, resolved.Password)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, resolved.Kind)
	}

	return NewRouterWithService(svc, resolved, opts...), nil
}

// NewRouterWithService wraps an existing ChainService in the retry facade.
// Used by tests and by callers bringing their own backend implementation.
func NewRouterWithService(svc ChainService, cfg *Config, opts ...RouterOption) *Router {
	resolved := Config{}
	if cfg != nil {
		resolved = *cfg
	}
	if resolved.MaxRetries == 0 {
		resolved.MaxRetries = DefaultMaxRetries
	}
	if resolved.CallTimeout == 0 {
		resolved.CallTimeout = DefaultCallTimeout
	}
	if resolved.RetryBackoff == 0 {
		resolved.RetryBackoff = DefaultRetryBackoff
	}

	r := &Router{svc: svc, cfg: resolved}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Kind returns the configured interface kind.
func (r *Router) Kind() InterfaceKind { return r.cfg.Kind }

// retry runs fn under the router's retry policy. Each attempt gets its own
// timeout; a timed-out attempt counts as retry-eligible. The attempt
// counter is local to the call, so concurrent calls share no state.
func retry[T any](ctx context.Context, r *Router, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.cfg.RetryBackoff

	var out T
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
		defer cancel()

		v, err := fn(callCtx)
		if err != nil {
			if errors.Is(err, ErrBroadcastRejected) || errors.Is(err, ErrTokenDataUnavailable) {
				return backoff.Permanent(err)
			}
			log.Debugf("backend %s attempt %d failed: %v", op, attempt, err)
			return err
		}
		out = v
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, r.cfg.MaxRetries), ctx))

	if err != nil {
		if errors.Is(err, ErrBroadcastRejected) || errors.Is(err, ErrTokenDataUnavailable) {
			return out, err
		}
		log.Warnf("backend %s gave up after %d attempts: %v", op, attempt, err)
		return out, fmt.Errorf("%w: %s after %d attempts: %w",
			ErrBackendUnavailable, op, attempt, err)
	}
	return out, nil
}

// GetUtxos fetches the unspent outputs for address with retry.
func (r *Router) GetUtxos(ctx context.Context, address string) ([]*Utxo, error) {
	return retry(ctx, r, "getUtxos", func(ctx context.Context) ([]*Utxo, error) {
		return r.svc.GetUtxos(ctx, address)
	})
}

// UtxoIsValid checks an outpoint against the backend's current view with retry.
func (r *Router) UtxoIsValid(ctx context.Context, utxo *Utxo) (bool, error) {
	return retry(ctx, r, "utxoIsValid", func(ctx context.Context) (bool, error) {
		return r.svc.UtxoIsValid(ctx, utxo)
	})
}

// SendTx broadcasts a transaction with retry. Rejections are surfaced
// immediately; only transport failures are retried.
func (r *Router) SendTx(ctx context.Context, txHex string) (string, error) {
	return retry(ctx, r, "sendTx", func(ctx context.Context) (string, error) {
		return r.svc.SendTx(ctx, txHex)
	})
}

// GetTokenData fetches token genesis metadata with retry, consulting the
// attached token store first. Genesis records are immutable, so a cache hit
// never needs revalidation.
func (r *Router) GetTokenData(ctx context.Context, tokenID string) (*TokenData, error) {
	if r.tokens != nil {
		if rec, err := r.tokens.Get(tokenID); err == nil {
			return &TokenData{
				ID:          rec.ID,
				Ticker:      rec.Ticker,
				Name:        rec.Name,
				Decimals:    rec.Decimals,
				DocumentURL: rec.DocumentURL,
				InitialQty:  rec.InitialQty,
			}, nil
		}
	}

	data, err := retry(ctx, r, "getTokenData", func(ctx context.Context) (*TokenData, error) {
		return r.svc.GetTokenData(ctx, tokenID)
	})
	if err != nil {
		return nil, err
	}

	if r.tokens != nil {
		putErr := r.tokens.Put(&tokenmeta.Record{
			ID:          data.ID,
			Ticker:      data.Ticker,
			Name:        data.Name,
			Decimals:    data.Decimals,
			DocumentURL: data.DocumentURL,
			InitialQty:  data.InitialQty,
		})
		if putErr != nil {
			log.Warnf("backend: caching token %s failed: %v", tokenID, putErr)
		}
	}
	return data, nil
}

// GetBalance fetches the address balance with retry.
func (r *Router) GetBalance(ctx context.Context, address string) (*Balance, error) {
	return retry(ctx, r, "getBalance", func(ctx context.Context) (*Balance, error) {
		return r.svc.GetBalance(ctx, address)
	})
}
