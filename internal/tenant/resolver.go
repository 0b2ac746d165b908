// Package tenant provides the tenant resolution boundary. Every entry point
// passes through the resolver before any read or write happens; downstream
// modules only ever see a strongly-typed tenant scope, never the raw host.
package tenant

import (
	"context"
	"errors"
	"net"
	"strings"

	"camicam_crm_backend/platform/httpkit"
	"camicam_crm_backend/platform/logger"
)

// reservedSubdomains can never resolve to a tenant, even if a matching row
// exists.
var reservedSubdomains = map[string]bool{
	"www":    true,
	"api":    true,
	"admin":  true,
	"app":    true,
	"static": true,
}

// TenantStore is the lookup interface the resolver needs. Satisfied by *Repository.
type TenantStore interface {
	GetBySubdomain(ctx context.Context, subdomain string) (Tenant, error)
}

// Resolver maps a request's origin host to a tenant scope.
type Resolver struct {
	store      TenantStore
	baseDomain string
	log        *logger.Logger
}

func NewResolver(store TenantStore, baseDomain string, log *logger.Logger) *Resolver {
	return &Resolver{
		store:      store,
		baseDomain: strings.ToLower(strings.TrimSpace(baseDomain)),
		log:        log,
	}
}

// Resolve returns the tenant scope for a request host, or ok=false when the
// host does not map to a live tenant. An unresolvable host is a normal
// outcome, not an error; only store failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, host string) (httpkit.TenantScope, bool, error) {
	subdomain, ok := r.subdomainFromHost(host)
	if !ok {
		r.log.TenantUnresolved(host, "malformed or reserved routing key")
		return httpkit.TenantScope{}, false, nil
	}

	t, err := r.store.GetBySubdomain(ctx, subdomain)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.log.TenantUnresolved(host, "no active tenant")
			return httpkit.TenantScope{}, false, nil
		}
		return httpkit.TenantScope{}, false, err
	}

	return httpkit.TenantScope{ID: t.ID, Subdomain: t.Subdomain}, true, nil
}

// subdomainFromHost extracts and validates the routing key from a host name.
func (r *Resolver) subdomainFromHost(host string) (string, bool) {
	hostname := strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(hostname); err == nil {
		hostname = h
	}

	if hostname == "" || net.ParseIP(hostname) != nil {
		return "", false
	}

	var label string
	if r.baseDomain != "" {
		// acme.crm.example.com with base crm.example.com -> acme
		suffix := "." + r.baseDomain
		if !strings.HasSuffix(hostname, suffix) {
			return "", false
		}
		label = strings.TrimSuffix(hostname, suffix)
	} else {
		parts := strings.SplitN(hostname, ".", 2)
		if len(parts) < 2 {
			return "", false
		}
		label = parts[0]
	}

	if !isValidLabel(label) || reservedSubdomains[label] {
		return "", false
	}

	return label, true
}

// isValidLabel checks a single DNS label: non-empty, alphanumeric plus
// hyphens, no leading/trailing hyphen, no embedded dots.
func isValidLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}
	if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
		return false
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}
