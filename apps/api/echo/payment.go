package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upscaleng/upscale/core/payment"
	"github.com/upscaleng/upscale/core/user"
)

type paymentApi struct {
	svc      payment.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerPaymentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc payment.ServiceInterface,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := paymentApi{svc: svc, usrSvc: usrSvc, validate: validate}

	pg := g.Group("/payments")
	pg.POST("/enroll", api.enroll, jwt)

	// Paystack redirects the payer here after checkout; no auth, the
	// reference is the only credential.
	pg.GET("/callback", api.callback)
}

// Handlers

func (api *paymentApi) enroll(ctx echo.Context) error {
	var data payment.Enrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Enrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	auth, err := api.svc.Enroll(ctx.Request().Context(), ctxUsr, data.Plan)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusOK, auth)
}

func (api *paymentApi) callback(ctx echo.Context) error {
	reference := ctx.QueryParam("reference")
	if reference == "" {
		return errHttpNotFound
	}

	pmt, err := api.svc.Confirm(ctx.Request().Context(), reference)
	if err != nil {
		switch errors.Cause(err) {
		case payment.ErrNotFound:
			return errHttpNotFound
		case payment.ErrVerificationFailed:
			return ctx.JSON(http.StatusOK, CallbackResponse{Status: payment.StatusFailed, Reference: reference})
		}
		return errors.Wrap(err, "confirming payment")
	}
	return ctx.JSON(http.StatusOK, CallbackResponse{Status: pmt.Status, Reference: pmt.Reference})
}

type CallbackResponse struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
}
