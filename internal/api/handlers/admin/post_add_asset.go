package admin

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/kashguard/go-escrow/internal/api"
	"github.com/kashguard/go-escrow/internal/api/httperrors"
	"github.com/kashguard/go-escrow/internal/auth"
	"github.com/kashguard/go-escrow/internal/types"
	"github.com/kashguard/go-escrow/internal/util"
	"github.com/labstack/echo/v4"
)

func PostAddAssetRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Admin.POST("/assets", postAddAssetHandler(s))
}

func postAddAssetHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		principal, _ := auth.PrincipalFromContext(ctx)

		var body types.PostAllowlistPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		if err := s.Engine.AddAsset(ctx, principal.ID, swag.StringValue(body.Asset)); err != nil {
			return httperrors.EngineError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
