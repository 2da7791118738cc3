package sessions

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/kashguard/go-escrow/internal/api"
	"github.com/kashguard/go-escrow/internal/api/httperrors"
	"github.com/kashguard/go-escrow/internal/types"
	"github.com/kashguard/go-escrow/internal/util"
	"github.com/labstack/echo/v4"
)

func GetAssetSupportedRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/assets/:asset", getAssetSupportedHandler(s))
}

func getAssetSupportedHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		asset := c.Param("asset")

		supported, err := s.Engine.AssetSupported(c.Request().Context(), asset)
		if err != nil {
			return httperrors.EngineError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.AssetSupportedResponse{
			Asset:     swag.String(asset),
			Supported: supported,
		})
	}
}
