package sessions

import (
	"context"
	"net/http"

	"github.com/kashguard/go-escrow/internal/api"
	"github.com/kashguard/go-escrow/internal/api/httperrors"
	"github.com/kashguard/go-escrow/internal/auth"
	"github.com/kashguard/go-escrow/internal/escrow"
	"github.com/kashguard/go-escrow/internal/types"
	"github.com/kashguard/go-escrow/internal/util"
	"github.com/labstack/echo/v4"
)

// transitionHandler builds the handler shared by all body-less lifecycle
// transitions: resolve the principal, call the engine, return the session.
func transitionHandler(fn func(ctx context.Context, caller string, id string) (*escrow.Session, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		principal, ok := auth.PrincipalFromContext(ctx)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
		}

		session, err := fn(ctx, principal.ID, c.Param("id"))
		if err != nil {
			return httperrors.EngineError(err)
		}
		return util.ValidateAndReturn(c, http.StatusOK, types.NewSessionResponse(session))
	}
}

func PostStartSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/sessions/:id/start", transitionHandler(s.Engine.Start))
}

func PostHeartbeatRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/sessions/:id/heartbeat", transitionHandler(s.Engine.Heartbeat))
}

func PostPauseSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/sessions/:id/pause", transitionHandler(s.Engine.Pause))
}

func PostResumeSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/sessions/:id/resume", transitionHandler(s.Engine.Resume))
}

func PostReleasePaymentRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/sessions/:id/release", transitionHandler(s.Engine.Release))
}

func PostAutoCompleteRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/sessions/:id/auto-complete", transitionHandler(s.Engine.AutoComplete))
}

func PostCancelSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/sessions/:id/cancel", transitionHandler(s.Engine.Cancel))
}

func PostExpireSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/sessions/:id/expire", transitionHandler(s.Engine.Expire))
}
