package sessions

import (
	"net/http"

	"github.com/kashguard/go-escrow/internal/api"
	"github.com/kashguard/go-escrow/internal/api/httperrors"
	"github.com/kashguard/go-escrow/internal/auth"
	"github.com/kashguard/go-escrow/internal/types"
	"github.com/kashguard/go-escrow/internal/util"
	"github.com/labstack/echo/v4"
)

func PostCompleteSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/sessions/:id/complete", postCompleteSessionHandler(s))
}

func postCompleteSessionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		principal, ok := auth.PrincipalFromContext(ctx)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
		}

		var body types.PostCompleteSessionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		session, err := s.Engine.Complete(ctx, principal.ID, c.Param("id"), int(*body.Rating), body.Feedback)
		if err != nil {
			return httperrors.EngineError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, types.NewSessionResponse(session))
	}
}
