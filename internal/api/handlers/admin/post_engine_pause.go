package admin

import (
	"net/http"

	"github.com/kashguard/go-escrow/internal/api"
	"github.com/kashguard/go-escrow/internal/auth"
	"github.com/kashguard/go-escrow/internal/types"
	"github.com/kashguard/go-escrow/internal/util"
	"github.com/labstack/echo/v4"
)

func PostEnginePauseRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Admin.POST("/pause", postEnginePauseHandler(s))
}

func postEnginePauseHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		principal, _ := auth.PrincipalFromContext(ctx)

		var body types.PostEnginePausePayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		s.Engine.SetPaused(ctx, principal.ID, *body.Paused)
		return c.NoContent(http.StatusNoContent)
	}
}
