package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upscaleng/upscale/core/course"
)

type courseApi struct {
	svc course.ServiceInterface
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc course.ServiceInterface) {
	api := courseApi{svc: svc}

	cg := g.Group("/courses")

	// un-authed endpoints: the catalog is the marketing surface
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)

	// authed endpoints
	ag := g.Group("", jwt)
	ag.GET("/dashboard", api.dashboard)
	ag.POST("/modules/:id/complete", api.completeModule)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.Get(ctx.Request().Context(), course.GetFilter{ID: ctx.Param("id")})
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course")
	}

	return ctx.JSON(http.StatusOK, CourseDetailResponse{
		Course:     crs,
		Curriculum: api.svc.Curriculum(crs),
	})
}

// dashboard returns, per course, the student's module completion map and the
// next module to take. A fully completed course has no next module.
func (api *courseApi) dashboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	courses, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	completed, err := api.svc.ProgressByModule(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying progress")
	}

	entries := make([]DashboardEntry, 0, len(courses))
	for _, crs := range courses {
		entry := DashboardEntry{Course: crs, Progress: make(map[string]bool, len(crs.Modules))}
		for _, mod := range crs.Modules {
			entry.Progress[mod.ID] = completed[mod.ID]
		}
		if next, ok := api.svc.NextModule(crs, completed); ok {
			next := next
			entry.NextModule = &next
		}
		entries = append(entries, entry)
	}
	return ctx.JSON(http.StatusOK, DashboardResponse{Courses: entries})
}

func (api *courseApi) completeModule(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	prog, err := api.svc.CompleteModule(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrModuleNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "completing module")
	}
	return ctx.JSON(http.StatusOK, prog)
}

type (
	CourseDetailResponse struct {
		course.Course
		Curriculum []course.WeekTopic `json:"curriculum"`
	}

	DashboardEntry struct {
		Course     course.Course   `json:"course"`
		Progress   map[string]bool `json:"progress"`
		NextModule *course.Module  `json:"next_module,omitempty"`
	}

	DashboardResponse struct {
		Courses []DashboardEntry `json:"courses"`
	}
)
