package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/academic"
	"github.com/trezcool/matokeo/core/report"
	"github.com/trezcool/matokeo/core/user"
)

type portalApi struct {
	svc *academic.Service
}

// registerPortalAPI mounts the student self-service endpoints. A student's
// token carries their roll number as the username; that is the only record
// they can reach.
func registerPortalAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *academic.Service) {
	api := portalApi{svc: svc}

	pg := g.Group("/portal", jwt, roleMiddleware(user.RoleStudent))
	pg.GET("/profile", api.profile)
	pg.GET("/results", api.results)
	pg.GET("/report", api.report)
}

// Handlers

func (api *portalApi) profile(ctx echo.Context) error {
	st, err := api.contextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *portalApi) results(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	results, err := api.svc.ResultsForStudent(ctx.Request().Context(), claims.Username)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *portalApi) report(ctx echo.Context) error {
	st, err := api.contextStudent(ctx)
	if err != nil {
		return err
	}
	results, err := api.svc.ResultsForStudent(ctx.Request().Context(), st.RollNo)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}

	pdf, err := report.Render(st, results)
	if err != nil {
		return errors.Wrap(err, "rendering report")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="report.pdf"`)
	return ctx.Blob(http.StatusOK, "application/pdf", pdf)
}

// contextStudent resolves the student record paired with the token's roll number.
func (api *portalApi) contextStudent(ctx echo.Context) (academic.Student, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return academic.Student{}, errors.Wrap(err, "getting context claims")
	}

	st, err := api.svc.GetStudentByRollNo(ctx.Request().Context(), claims.Username)
	if err != nil {
		return academic.Student{}, trapNotFoundErr(err, "finding student by roll number")
	}
	return st, nil
}
