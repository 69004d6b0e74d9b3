package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upscaleng/upscale/core/quiz"
)

type quizApi struct {
	svc      quiz.ServiceInterface
	validate *validator.Validate
}

// registerQuizAPI wires the lead-gen questionnaire. All endpoints are
// public: visitors take the quiz before they have an account.
func registerQuizAPI(g *echo.Group, svc quiz.ServiceInterface, validate *validator.Validate) {
	api := quizApi{svc: svc, validate: validate}

	qg := g.Group("/questionnaire")
	qg.GET("/questions", api.questions)
	qg.POST("/submit", api.submit)
	qg.GET("/results/:token", api.results)
}

// Handlers

func (api *quizApi) questions(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, QuestionsResponse{Questions: api.svc.Questions()})
}

func (api *quizApi) submit(ctx echo.Context) error {
	var data quiz.Submission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Submit(ctx.Request().Context(), data, ctx.RealIP())
	if err != nil {
		return errors.Wrap(err, "submitting questionnaire")
	}
	return ctx.JSON(http.StatusCreated, SubmitResponse{
		Token:        res.Token,
		Track:        res.Track,
		MatchPercent: res.MatchPercent,
	})
}

func (api *quizApi) results(ctx echo.Context) error {
	page, err := api.svc.Result(ctx.Request().Context(), ctx.Param("token"))
	if err != nil {
		if errors.Cause(err) == quiz.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding result")
	}
	return ctx.JSON(http.StatusOK, page)
}

type (
	QuestionsResponse struct {
		Questions []quiz.Question `json:"questions"`
	}

	SubmitResponse struct {
		Token        string     `json:"token"`
		Track        quiz.Track `json:"track"`
		MatchPercent int        `json:"match_percentage"`
	}
)
