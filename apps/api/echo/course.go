package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/student"
	"github.com/darasahq/darasa/core/user"
)

type courseApi struct {
	svc      course.Service
	validate *validator.Validate
}

// registerCourseAPI mounts the tenant-scoped course, enrollment and attendance
// endpoints. Reads are open to any tenant member; writes need a tenant admin.
func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc course.Service,
	userSvc user.Service,
	validate *validator.Validate,
) {
	api := courseApi{
		svc:      svc,
		validate: validate,
	}

	member := tenantMemberMiddleware(userSvc)
	admin := tenantAdminMiddleware(userSvc)

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query, member)
	cg.POST("", api.create, admin)
	cg.DELETE("", api.destroyMultiple, admin)
	cg.GET("/:id", api.retrieve, member)
	cg.PUT("/:id", api.update, admin)
	cg.DELETE("/:id", api.destroy, admin)

	cg.GET("/:id/enrollments", api.queryEnrollments, member)
	cg.POST("/:id/enrollments", api.enroll, admin)
	cg.DELETE("/:id/enrollments/:studentID", api.unenroll, admin)

	cg.GET("/:id/attendance", api.queryAttendance, member)
	cg.POST("/:id/attendance", api.recordAttendance, admin)
}

func (api *courseApi) create(ctx echo.Context) error {
	t, err := requireContextTenant(ctx)
	if err != nil {
		return err
	}

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), data, t.ID)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) query(ctx echo.Context) error {
	t, err := requireContextTenant(ctx)
	if err != nil {
		return err
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.QueryByTenant(ctx.Request().Context(), t.ID, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.courseByID(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	c, err := api.courseByID(ctx)
	if err != nil {
		return err
	}

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err = api.svc.Update(ctx.Request().Context(), c.TenantID, c.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	c, err := api.courseByID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), c.TenantID, c.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) destroyMultiple(ctx echo.Context) error {
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
		return errors.Wrap(err, "deleting courses")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Enrollments

func (api *courseApi) enroll(ctx echo.Context) error {
	t, err := requireContextTenant(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data course.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Enroll(ctx.Request().Context(), t.ID, id, data)
	if err != nil {
		if cause := errors.Cause(err); cause == course.ErrNotFound || cause == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	t, err := requireContextTenant(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	studentID, err := intParam(ctx, "studentID")
	if err != nil {
		return err
	}

	if err := api.svc.Unenroll(ctx.Request().Context(), t.ID, id, studentID); err != nil {
		if errors.Cause(err) == course.ErrEnrollmentNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "unenrolling student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) queryEnrollments(ctx echo.Context) error {
	t, err := requireContextTenant(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	enrollments, err := api.svc.QueryEnrollments(ctx.Request().Context(), t.ID, id)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

// Attendance

func (api *courseApi) recordAttendance(ctx echo.Context) error {
	t, err := requireContextTenant(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data course.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.RecordAttendance(ctx.Request().Context(), t.ID, id, data)
	if err != nil {
		if cause := errors.Cause(err); cause == course.ErrNotFound || cause == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *courseApi) queryAttendance(ctx echo.Context) error {
	t, err := requireContextTenant(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	// default to today when no date is supplied
	date := time.Now().UTC()
	if raw := ctx.QueryParam("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		}
		date = parsed
	}

	marks, err := api.svc.QueryAttendance(ctx.Request().Context(), t.ID, id, date)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "querying attendance")
	}
	if marks == nil {
		marks = []course.Attendance{}
	}
	return ctx.JSON(http.StatusOK, marks)
}

// courseByID loads the target course within the resolved tenant's scope; a
// record from another tenant reads as absent.
func (api *courseApi) courseByID(ctx echo.Context) (course.Course, error) {
	t, err := requireContextTenant(ctx)
	if err != nil {
		return course.Course{}, err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return course.Course{}, err
	}

	c, err := api.svc.GetByID(ctx.Request().Context(), t.ID, id)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return course.Course{}, errHttpNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course by ID")
	}
	return c, nil
}
