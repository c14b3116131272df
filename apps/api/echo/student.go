package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/student"
	"github.com/darasahq/darasa/core/user"
)

type studentApi struct {
	svc      student.Service
	validate *validator.Validate
}

// registerStudentAPI mounts the tenant-scoped student endpoints. Reads are
// open to any tenant member; writes need a tenant admin.
func registerStudentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc student.Service,
	userSvc user.Service,
	validate *validator.Validate,
) {
	api := studentApi{
		svc:      svc,
		validate: validate,
	}

	member := tenantMemberMiddleware(userSvc)
	admin := tenantAdminMiddleware(userSvc)

	g.GET("/dashboard", api.dashboard, jwt, member)

	sg := g.Group("/students", jwt)
	sg.GET("", api.query, member)
	sg.POST("", api.create, admin)
	sg.DELETE("", api.destroyMultiple, admin)
	sg.GET("/:id", api.retrieve, member)
	sg.PUT("/:id", api.update, admin)
	sg.DELETE("/:id", api.destroy, admin)
}

func (api *studentApi) dashboard(ctx echo.Context) error {
	t, err := requireContextTenant(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.DashboardStats(ctx.Request().Context(), t.ID)
	if err != nil {
		return errors.Wrap(err, "querying dashboard stats")
	}
	if stats.RecentStudents == nil {
		stats.RecentStudents = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *studentApi) create(ctx echo.Context) error {
	t, err := requireContextTenant(ctx)
	if err != nil {
		return err
	}

	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data, t.ID)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) query(ctx echo.Context) error {
	t, err := requireContextTenant(ctx)
	if err != nil {
		return err
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.QueryByTenant(ctx.Request().Context(), t.ID, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, err := api.studentByID(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	s, err := api.studentByID(ctx)
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate, s); err != nil {
		return err
	}

	s, err = api.svc.Update(ctx.Request().Context(), s.TenantID, s.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	s, err := api.studentByID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), s.TenantID, s.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) destroyMultiple(ctx echo.Context) error {
	t, err := requireContextTenant(ctx)
	if err != nil {
		return err
	}

	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), t.ID, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// studentByID loads the target student within the resolved tenant's scope; a
// record from another tenant reads as absent.
func (api *studentApi) studentByID(ctx echo.Context) (student.Student, error) {
	t, err := requireContextTenant(ctx)
	if err != nil {
		return student.Student{}, err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return student.Student{}, err
	}

	s, err := api.svc.GetByID(ctx.Request().Context(), t.ID, id)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Student{}, errHttpNotFound
		}
		return student.Student{}, errors.Wrap(err, "finding student by ID")
	}
	return s, nil
}
