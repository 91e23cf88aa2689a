package envsmith

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Provider resolves secret references for a single URI scheme.
// Implementations should treat Resolve as read-only and fast; provider
// latency bounds the duration of a pipeline run.
type Provider interface {
	// Scheme returns the URI scheme the provider handles, e.g. "env".
	Scheme() string
	// Resolve returns the secret value for uri, or an error when the
	// lookup fails.
	Resolve(ctx context.Context, uri string) (string, error)
}

// registry holds secret providers keyed by scheme. Registration is intended
// as one-time setup before any pipeline run; the lock only protects against
// a watcher goroutine resolving while a late registration happens.
type registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

var providerRegistry = &registry{providers: make(map[string]Provider)}

// Register installs a secret provider process-wide. The last registration
// for a scheme wins, which lets tests override built-ins.
func Register(p Provider) {
	providerRegistry.mu.Lock()
	defer providerRegistry.mu.Unlock()
	providerRegistry.providers[p.Scheme()] = p
}

func lookupProvider(scheme string) (Provider, bool) {
	providerRegistry.mu.RLock()
	defer providerRegistry.mu.RUnlock()
	p, ok := providerRegistry.providers[scheme]
	return p, ok
}

// secretScheme is the meta-scheme marking a value as an explicit secret
// reference: secret://<provider-scheme>/<payload>.
const secretScheme = "secret"

// resolveSecrets scans every value for scheme://payload references and
// replaces matches with the provider's resolved value. A value whose scheme
// has no registered provider is left untouched; it is ordinary data, not a
// failed secret. Values under the explicit secret:// form must resolve.
func resolveSecrets(ctx context.Context, src *Map) (*Map, error) {
	out := NewMap()
	for _, key := range src.Keys() {
		value, _ := src.Get(key)
		resolved, err := resolveSecretValue(ctx, key, value)
		if err != nil {
			return nil, err
		}
		out.Set(key, resolved)
	}
	return out, nil
}

func resolveSecretValue(ctx context.Context, key, value string) (string, error) {
	scheme, payload, ok := splitScheme(value)
	if !ok {
		return value, nil
	}

	uri := value
	if scheme == secretScheme {
		// secret://env/DB_PASS dispatches to the "env" provider as env://DB_PASS.
		inner, rest, found := strings.Cut(payload, "/")
		if !found || inner == "" {
			return "", &SecretError{Key: key, URI: value, Err: fmt.Errorf("malformed secret URI")}
		}
		scheme = inner
		uri = inner + "://" + rest
		if _, registered := lookupProvider(scheme); !registered {
			return "", &SecretError{Key: key, URI: value, Err: fmt.Errorf("no provider registered for scheme %q", scheme)}
		}
	}

	p, registered := lookupProvider(scheme)
	if !registered {
		return value, nil
	}

	resolved, err := p.Resolve(ctx, uri)
	if err != nil {
		return "", &SecretError{Key: key, URI: uri, Err: err}
	}
	return resolved, nil
}

// splitScheme extracts a URI scheme from a value of the form scheme://rest.
// Schemes follow RFC 3986: a letter followed by letters, digits, '+', '-',
// or '.'.
func splitScheme(value string) (scheme, rest string, ok bool) {
	i := strings.Index(value, "://")
	if i <= 0 {
		return "", "", false
	}
	scheme = value[:i]
	for j := 0; j < len(scheme); j++ {
		c := scheme[j]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case j > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return "", "", false
		}
	}
	return strings.ToLower(scheme), value[i+3:], true
}
