package sessions

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/kashguard/go-escrow/internal/api"
	"github.com/kashguard/go-escrow/internal/api/httperrors"
	"github.com/kashguard/go-escrow/internal/auth"
	"github.com/kashguard/go-escrow/internal/escrow"
	"github.com/kashguard/go-escrow/internal/types"
	"github.com/kashguard/go-escrow/internal/util"
	"github.com/labstack/echo/v4"
)

func PostCreateSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/sessions", postCreateSessionHandler(s))
}

func postCreateSessionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		principal, ok := auth.PrincipalFromContext(ctx)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
		}

		var body types.PostCreateSessionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		amount, err := types.ParseAmount(body.Amount)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		session, err := s.Engine.CreateSession(ctx, principal.ID, escrow.CreateSessionRequest{
			ID:              swag.StringValue(body.SessionID),
			Provider:        swag.StringValue(body.Provider),
			Asset:           swag.StringValue(body.Asset),
			Amount:          amount,
			DurationMinutes: swag.Int64Value(body.DurationMinutes),
			PayerNonce:      *body.PayerNonce,
		})
		if err != nil {
			return httperrors.EngineError(err)
		}

		return util.ValidateAndReturn(c, http.StatusCreated, types.NewSessionResponse(session))
	}
}
