package sessions

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

func GetNonceRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/nonce", getNonceHandler(s))
}

func getNonceHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		principal, ok := auth.PrincipalFromContext(ctx)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
		}

		nonce, err := s.Engine.PayerNonce(ctx, principal.ID)
		if err != nil {
			return httperrors.EngineError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.NonceResponse{
			Payer: swag.String(principal.ID),
			Nonce: nonce,
		})
	}
}
