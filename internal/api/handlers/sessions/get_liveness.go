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

// The liveness query backs the automated presence monitor: it tells the
// caller whether a heartbeat is due and whether the auto-pause guard is
// already satisfied.
func GetLivenessRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/sessions/:id/liveness", getLivenessHandler(s))
}

func getLivenessHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")

		needsHeartbeat, err := s.Engine.NeedsHeartbeat(ctx, id)
		if err != nil {
			return httperrors.EngineError(err)
		}
		shouldAutoPause, err := s.Engine.ShouldAutoPause(ctx, id)
		if err != nil {
			return httperrors.EngineError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.LivenessResponse{
			SessionID:       swag.String(id),
			NeedsHeartbeat:  needsHeartbeat,
			ShouldAutoPause: shouldAutoPause,
		})
	}
}
