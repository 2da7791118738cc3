package sessions

import (
	"net/http"

	"github.com/kashguard/go-escrow/internal/api"
	"github.com/kashguard/go-escrow/internal/api/httperrors"
	"github.com/kashguard/go-escrow/internal/types"
	"github.com/kashguard/go-escrow/internal/util"
	"github.com/labstack/echo/v4"
)

func GetSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/sessions/:id", getSessionHandler(s))
}

func getSessionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.Engine.GetSession(c.Request().Context(), c.Param("id"))
		if err != nil {
			return httperrors.EngineError(err)
		}
		return util.ValidateAndReturn(c, http.StatusOK, types.NewSessionResponse(session))
	}
}
