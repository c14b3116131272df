package echoapi

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/authz"
	"github.com/darasahq/darasa/core/tenant"
	"github.com/darasahq/darasa/core/user"
	"github.com/darasahq/darasa/services/metrics"
)

var contextTenantKey = "tenant"

func requestIDMiddleware() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	})
}

// tenantMiddleware resolves the request's Host header to a tenant and binds it
// to the request context for the rest of the chain. Every route sees either a
// tenant or the root context; resolution happens exactly once per request.
func tenantMiddleware(resolver *tenant.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			t, err := resolver.Resolve(ctx.Request().Context(), ctx.Request().Host)
			if err != nil {
				return errors.Wrap(err, "resolving tenant")
			}
			if t != nil {
				ctx.Set(contextTenantKey, t)
				metricsvc.RecordTenantResolution("tenant")
			} else {
				metricsvc.RecordTenantResolution("root")
			}
			return next(ctx)
		}
	}
}

// contextTenant returns the tenant the request was resolved to, or nil for the
// root context.
func contextTenant(ctx echo.Context) *tenant.Tenant {
	if t, ok := ctx.Get(contextTenantKey).(*tenant.Tenant); ok {
		return t
	}
	return nil
}

// requireContextTenant returns the resolved tenant. Tenant-scoped data only
// exists on tenant hosts, so the root context reads as a miss; this matters
// for super admins, who pass the gate on any host.
func requireContextTenant(ctx echo.Context) (*tenant.Tenant, error) {
	if t := contextTenant(ctx); t != nil {
		return t, nil
	}
	return nil, errHttpNotFound
}

// requireMiddleware funnels a protected route through the authorization gate.
func requireMiddleware(req authz.Requirement, svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			var ctxUsr *user.User
			if usr, err := getContextUser(ctx, svc); err == nil {
				ctxUsr = &usr
			}
			switch authz.Decide(ctxUsr, contextTenant(ctx), req) {
			case authz.Allow:
				return next(ctx)
			case authz.RedirectToLogin:
				return errUnauthorized
			default:
				return errHttpForbidden
			}
		}
	}
}

func superAdminMiddleware(svc user.Service) echo.MiddlewareFunc {
	return requireMiddleware(authz.SuperAdminOnly, svc)
}

func tenantMemberMiddleware(svc user.Service) echo.MiddlewareFunc {
	return requireMiddleware(authz.TenantMember, svc)
}

func tenantAdminMiddleware(svc user.Service) echo.MiddlewareFunc {
	return requireMiddleware(authz.TenantAdmin, svc)
}
