package admin

import (
	"net/http"

	"github.com/kashguard/go-escrow/internal/api"
	"github.com/kashguard/go-escrow/internal/api/httperrors"
	"github.com/kashguard/go-escrow/internal/auth"
	"github.com/labstack/echo/v4"
)

func DeleteAssetRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Admin.DELETE("/assets/:asset", deleteAssetHandler(s))
}

func deleteAssetHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		principal, _ := auth.PrincipalFromContext(ctx)

		if err := s.Engine.RemoveAsset(ctx, principal.ID, c.Param("asset")); err != nil {
			return httperrors.EngineError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
