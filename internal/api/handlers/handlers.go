package handlers

import (
	"github.com/kashguard/go-escrow/internal/api"
	"github.com/kashguard/go-escrow/internal/api/handlers/admin"
	"github.com/kashguard/go-escrow/internal/api/handlers/sessions"
	"github.com/labstack/echo/v4"
)

// AttachAllRoutes registers every route of the service.
func AttachAllRoutes(s *api.Server) []*echo.Route {
	return []*echo.Route{
		// session lifecycle
		sessions.PostCreateSessionRoute(s),
		sessions.PostStartSessionRoute(s),
		sessions.PostHeartbeatRoute(s),
		sessions.PostPauseSessionRoute(s),
		sessions.PostResumeSessionRoute(s),
		sessions.PostReleasePaymentRoute(s),
		sessions.PostCompleteSessionRoute(s),
		sessions.PostAutoCompleteRoute(s),
		sessions.PostCancelSessionRoute(s),
		sessions.PostExpireSessionRoute(s),

		// read surface
		sessions.GetSessionRoute(s),
		sessions.GetAvailablePaymentRoute(s),
		sessions.GetLivenessRoute(s),
		sessions.GetNonceRoute(s),
		sessions.GetAssetSupportedRoute(s),

		// administrative surface
		admin.PostAddAssetRoute(s),
		admin.DeleteAssetRoute(s),
		admin.GetAssetsRoute(s),
		admin.PostWalletRotationRoute(s),
		admin.PostEnginePauseRoute(s),
		admin.PostEmergencyReleaseRoute(s),
		admin.PostResolveDisputeRoute(s),
	}
}
