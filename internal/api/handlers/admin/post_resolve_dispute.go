package admin

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

func PostResolveDisputeRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Admin.POST("/sessions/:id/resolve-dispute", postResolveDisputeHandler(s))
}

func postResolveDisputeHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		principal, _ := auth.PrincipalFromContext(ctx)

		var body types.PostDisputeResolutionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		session, err := s.Engine.ResolveDispute(
			ctx,
			principal.ID,
			c.Param("id"),
			escrow.ResolutionCode(swag.StringValue(body.Resolution)),
			body.Note,
		)
		if err != nil {
			return httperrors.EngineError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, types.NewSessionResponse(session))
	}
}
