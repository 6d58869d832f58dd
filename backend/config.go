package backend

import (
	"fmt"
	"time"
)

// InterfaceKind selects which backend implementation a Router dispatches to.
type InterfaceKind string

const (
	// KindFullNodeREST is a REST gateway backed by an indexing full node.
	KindFullNodeREST InterfaceKind = "full-node-rest"
	// KindConsumerAPI is a caching consumer-grade API.
	KindConsumerAPI InterfaceKind = "consumer-api"
	// KindJSONRPC talks JSON-RPC directly to a node.
	KindJSONRPC InterfaceKind = "json-rpc"
)

// Retry and timeout defaults applied by ResolveConfig.
const (
	DefaultMaxRetries   = 2
	DefaultCallTimeout  = 15 * time.Second
	DefaultRetryBackoff = 500 * time.Millisecond
)

// Config holds a backend's connection and retry parameters. It is fixed at
// Router construction and never mutated per call.
type Config struct {
	Kind InterfaceKind `json:"kind"`
	URL  string        `json:"url"`

	// User and Password apply to the json-rpc kind only (HTTP Basic Auth).
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`

	// PreferFresh asks a caching backend to bypass its cache on validity
	// checks. Freshness is explicit configuration, never an implicit side
	// effect of how a call is made.
	PreferFresh bool `json:"prefer_fresh,omitempty"`

	// MaxRetries is the number of re-attempts after the first failure.
	MaxRetries uint64 `json:"max_retries,omitempty"`

	// CallTimeout bounds each individual attempt. A timed-out attempt is
	// retry-eligible, not fatal.
	CallTimeout time.Duration `json:"call_timeout,omitempty"`

	// RetryBackoff is the initial interval of the exponential backoff
	// between attempts.
	RetryBackoff time.Duration `json:"retry_backoff,omitempty"`
}

// kindPresets supplies default endpoint URLs for the hosted backends. The
// json-rpc kind has no preset: node credentials are always explicit.
var kindPresets = map[InterfaceKind]string{
	KindFullNodeREST: "https://api.fullstack.cash/v5",
	KindConsumerAPI:  "https://free-bch.fullstack.cash",
}

// ResolveConfig merges configuration from two sources with decreasing
// priority: the explicit struct, then environment variables (CASHTX_BACKEND_KIND,
// CASHTX_BACKEND_URL, CASHTX_RPC_USER, CASHTX_RPC_PASS), then kind presets.
// Zero retry/timeout fields receive defaults.
func ResolveConfig(explicit *Config, env map[string]string) (*Config, error) {
	result := Config{Kind: KindConsumerAPI}

	if env != nil {
		if v := env["CASHTX_BACKEND_KIND"]; v != "" {
			result.Kind = InterfaceKind(v)
		}
		if v := env["CASHTX_BACKEND_URL"]; v != "" {
			result.URL = v
		}
		if v := env["CASHTX_RPC_USER"]; v != "" {
			result.User = v
		}
		if v := env["CASHTX_RPC_PASS"]; v != "" {
			result.Password = v
		}
	}

	if explicit != nil {
		if explicit.Kind != "" {
			result.Kind = explicit.Kind
		}
		if explicit.URL != "" {
			result.URL = explicit.URL
		}
		if explicit.User != "" {
			result.User = explicit.User
		}
		if explicit.Password != "" {
			result.Password = explicit.Password
		}
		result.PreferFresh = explicit.PreferFresh
		result.MaxRetries = explicit.MaxRetries
		result.CallTimeout = explicit.CallTimeout
		result.RetryBackoff = explicit.RetryBackoff
	}

	switch result.Kind {
	case KindFullNodeREST, KindConsumerAPI, KindJSONRPC:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, result.Kind)
	}

	if result.URL == "" {
		if preset, ok := kindPresets[result.Kind]; ok {
			result.URL = preset
		} else {
			return nil, fmt.Errorf("%w: %s has no preset (set Config.URL or CASHTX_BACKEND_URL)",
				ErrMissingURL, result.Kind)
		}
	}

	if result.MaxRetries == 0 {
		result.MaxRetries = DefaultMaxRetries
	}
	if result.CallTimeout == 0 {
		result.CallTimeout = DefaultCallTimeout
	}
	if result.RetryBackoff == 0 {
		result.RetryBackoff = DefaultRetryBackoff
	}

	return &result, nil
}
