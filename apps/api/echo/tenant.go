package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/tenant"
	"github.com/darasahq/darasa/core/user"
)

type tenantApi struct {
	svc      tenant.Service
	userSvc  user.Service
	validate *validator.Validate
}

// registerTenantAPI mounts the tenant provisioning endpoints. They are only
// ever reachable by super admins, so they all sit behind the same gate.
func registerTenantAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc tenant.Service,
	userSvc user.Service,
	validate *validator.Validate,
) {
	api := tenantApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	tg := g.Group("/tenants", jwt, superAdminMiddleware(userSvc))
	tg.POST("", api.create)
	tg.GET("", api.query)
	tg.GET("/:id", api.retrieve)
	tg.GET("/:id/users", api.queryUsers)
}

func (api *tenantApi) create(ctx echo.Context) error {
	var data tenant.NewTenant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTenant")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	t, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "creating tenant")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *tenantApi) query(ctx echo.Context) error {
	tenants, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying tenants")
	}
	if tenants == nil {
		tenants = []tenant.Tenant{}
	}
	return ctx.JSON(http.StatusOK, tenants)
}

func (api *tenantApi) retrieve(ctx echo.Context) error {
	t, err := api.tenantByID(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *tenantApi) queryUsers(ctx echo.Context) error {
	t, err := api.tenantByID(ctx)
	if err != nil {
		return err
	}

	filter := user.QueryFilter{TenantID: null.IntFrom(t.ID)}
	users, err := api.userSvc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying tenant users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *tenantApi) tenantByID(ctx echo.Context) (tenant.Tenant, error) {
	id, err := intParam(ctx, "id")
	if err != nil {
		return tenant.Tenant{}, err
	}
	t, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == tenant.ErrNotFound {
			return tenant.Tenant{}, errHttpNotFound
		}
		return tenant.Tenant{}, errors.Wrap(err, "finding tenant by ID")
	}
	return t, nil
}
