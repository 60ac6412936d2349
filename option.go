package formflow

import (
	"github.com/dogmatiq/dodeca/logging"
)

// ProviderOption configures the behavior of a Provider.
type ProviderOption func(*Provider)

// WithLogger returns an option that sets the target for log messages produced
// by the provider.
//
// If this option is omitted or l is nil, DefaultLogger is used.
func WithLogger(l logging.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = l
	}
}

// WithRegistry returns an option that sets the descriptor registry used by
// the provider.
//
// If this option is omitted, the provider uses its own empty registry.
func WithRegistry(r *Registry) ProviderOption {
	return func(p *Provider) {
		p.registry = r
	}
}

// WithUniqueTokenSource returns an option that sets the generator used to
// mint unique tokens for new instance identifiers.
//
// If this option is omitted, tokens are random UUIDs. It exists primarily so
// that tests can produce deterministic identifiers.
func WithUniqueTokenSource(fn func() string) ProviderOption {
	return func(p *Provider) {
		p.newToken = fn
	}
}
