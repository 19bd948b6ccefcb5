package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/academic"
	"github.com/trezcool/matokeo/core/user"
)

type academicApi struct {
	svc        *academic.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAcademicAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *academic.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := academicApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	admin := roleMiddleware(user.RoleAdmin)

	sg := g.Group("/students", jwt, admin)
	sg.POST("", api.createStudent)
	sg.GET("", api.queryStudents)
	sg.GET("/:id", api.retrieveStudent)
	sg.PUT("/:id", api.updateStudent)
	sg.DELETE("/:id", api.destroyStudent)

	subg := g.Group("/subjects", jwt, admin)
	subg.POST("", api.createSubject)
	subg.GET("", api.querySubjects)
	subg.DELETE("/:id", api.destroySubject)

	rg := g.Group("/results", jwt, admin)
	rg.POST("", api.recordMarks)

	g.GET("/dashboard", api.dashboard, jwt, admin)
}

// Handlers

func (api *academicApi) createStudent(ctx echo.Context) error {
	var data academic.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *academicApi) queryStudents(ctx echo.Context) error {
	students, err := api.svc.QueryStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []academic.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *academicApi) retrieveStudent(ctx echo.Context) error {
	st, err := api.svc.GetStudentByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding student by ID")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *academicApi) updateStudent(ctx echo.Context) error {
	st, err := api.svc.GetStudentByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return trapNotFoundErr(err, "finding student by ID")
	}

	var data academic.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(st, api.validate); err != nil {
		return err
	}

	st, err = api.svc.UpdateStudent(ctx.Request().Context(), st.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *academicApi) destroyStudent(ctx echo.Context) error {
	if err := api.svc.DeleteStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return trapNotFoundErr(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *academicApi) createSubject(ctx echo.Context) error {
	var data academic.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *academicApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.svc.QuerySubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []academic.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *academicApi) destroySubject(ctx echo.Context) error {
	if err := api.svc.DeleteSubject(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return trapNotFoundErr(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *academicApi) recordMarks(ctx echo.Context) error {
	var data academic.RecordMarks
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecordMarks")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.RecordMarks(ctx.Request().Context(), data)
	if err != nil {
		return trapNotFoundErr(err, "recording marks")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *academicApi) dashboard(ctx echo.Context) error {
	counts, err := api.svc.Counts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting records")
	}
	return ctx.JSON(http.StatusOK, counts)
}

// trapNotFoundErr maps missing-record errors to a 404, wrapping anything else.
func trapNotFoundErr(err error, msg string) error {
	switch errors.Cause(err) {
	case academic.ErrStudentNotFound, academic.ErrSubjectNotFound:
		return errHttpNotFound
	}
	return errors.Wrap(err, msg)
}
