package admin

import (
	"net/http"

	"github.com/kashguard/go-escrow/internal/api"
	"github.com/kashguard/go-escrow/internal/api/httperrors"
	"github.com/kashguard/go-escrow/internal/types"
	"github.com/kashguard/go-escrow/internal/util"
	"github.com/labstack/echo/v4"
)

func GetAssetsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Admin.GET("/assets", getAssetsHandler(s))
}

func getAssetsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		assets, err := s.Engine.Assets(c.Request().Context())
		if err != nil {
			return httperrors.EngineError(err)
		}
		return util.ValidateAndReturn(c, http.StatusOK, &types.AssetListResponse{Assets: assets})
	}
}
