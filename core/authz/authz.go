// Package authz holds the single authorization decision for every protected
// operation. Handlers and middlewares consume Decide instead of re-checking
// roles ad hoc.
package authz

import (
	"github.com/darasahq/darasa/core/tenant"
	"github.com/darasahq/darasa/core/user"
)

// Requirement names what a protected operation demands of the caller.
type Requirement int

const (
	// SuperAdminOnly guards platform-level operations (tenant provisioning,
	// cross-tenant listings).
	SuperAdminOnly Requirement = iota
	// TenantMember requires the caller to belong to the resolved tenant.
	TenantMember
	// TenantAdmin requires a CLIENT_ADMIN of the resolved tenant.
	TenantAdmin
)

// Verdict is the tagged outcome of an authorization decision.
type Verdict int

const (
	// RedirectToLogin: no authenticated user; send them to the login surface.
	RedirectToLogin Verdict = iota
	// DenyForbidden: authenticated but not allowed; a hard 403, fail-closed.
	DenyForbidden
	// Allow: proceed.
	Allow
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case DenyForbidden:
		return "deny"
	default:
		return "login"
	}
}

// Decide evaluates {user, resolved tenant, requirement} first-match-wins:
//  1. unauthenticated -> RedirectToLogin;
//  2. super-admin -> Allow, for any requirement and any resolved tenant;
//  3. tenant-scoped requirement -> Allow only when the user belongs to the
//     resolved tenant (and holds CLIENT_ADMIN for TenantAdmin);
//  4. anything else -> DenyForbidden.
func Decide(usr *user.User, resolved *tenant.Tenant, req Requirement) Verdict {
	if usr == nil {
		return RedirectToLogin
	}
	if usr.IsSuperAdmin() {
		return Allow
	}

	switch req {
	case TenantAdmin:
		if !usr.IsClientAdmin() {
			return DenyForbidden
		}
		fallthrough
	case TenantMember:
		if resolved == nil || !usr.BelongsTo(resolved.ID) {
			return DenyForbidden
		}
		return Allow
	default: // SuperAdminOnly
		return DenyForbidden
	}
}
