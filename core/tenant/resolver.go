package tenant

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
)

// Resolver determines which Tenant (if any) an inbound request belongs to,
// from the request's Host header and the configured base domain.
//
// A nil result is the root context: the super-admin surface, and the safe
// fallback during local development. Unknown subdomains deliberately degrade
// to the root context instead of rejecting the request; they are logged so the
// fallback is at least observable.
type Resolver struct {
	svc            Service
	baseDomain     string
	platformSuffix string
	logger         core.Logger
}

func NewResolver(svc Service, conf *core.Config, logger core.Logger) *Resolver {
	return &Resolver{
		svc:            svc,
		baseDomain:     conf.BaseDomain,
		platformSuffix: conf.PlatformDomainSuffix,
		logger:         logger,
	}
}

// Resolve maps a raw request host to a Tenant. It performs at most one read
// query and only errors on persistence failures; every unmatched host shape
// resolves to (nil, nil).
func (r *Resolver) Resolve(ctx context.Context, host string) (*Tenant, error) {
	host = strings.ToLower(strings.SplitN(host, ":", 2)[0]) // strip port

	// sentinel hosts always bypass tenant routing, even if a tenant happens
	// to share the label
	if r.baseDomain == "" || host == "localhost" {
		return nil, nil
	}
	if r.platformSuffix != "" && strings.HasSuffix(host, r.platformSuffix) {
		return nil, nil
	}

	// root domain = super-admin surface
	if host == r.baseDomain {
		return nil, nil
	}

	suffix := "." + r.baseDomain
	if !strings.HasSuffix(host, suffix) {
		return nil, nil
	}

	// label immediately preceding the base domain
	sub := strings.TrimSuffix(host, suffix)
	if i := strings.LastIndex(sub, "."); i >= 0 {
		sub = sub[i+1:]
	}
	if sub == "" {
		return nil, nil
	}

	t, err := r.svc.GetBySubdomain(ctx, sub)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			r.logger.Warn("unknown tenant subdomain; falling back to root context", "host", host)
			return nil, nil
		}
		return nil, errors.Wrap(err, "resolving tenant by subdomain")
	}
	return &t, nil
}
