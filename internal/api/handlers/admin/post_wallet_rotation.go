package admin

import (
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/go-openapi/swag"
	"github.com/kashguard/go-escrow/internal/api"
	"github.com/kashguard/go-escrow/internal/api/httperrors"
	"github.com/kashguard/go-escrow/internal/auth"
	"github.com/kashguard/go-escrow/internal/types"
	"github.com/kashguard/go-escrow/internal/util"
	"github.com/labstack/echo/v4"
)

func PostWalletRotationRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Admin.POST("/wallet", postWalletRotationHandler(s))
}

func postWalletRotationHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		principal, _ := auth.PrincipalFromContext(ctx)

		var body types.PostWalletRotationPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		if key := swag.StringValue(body.PublicKey); key != "" {
			raw, err := hex.DecodeString(strings.TrimPrefix(key, "0x"))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "malformed public key")
			}
			if _, err := s.Engine.RotatePlatformWalletFromKey(ctx, principal.ID, raw); err != nil {
				return httperrors.EngineError(err)
			}
			return c.NoContent(http.StatusNoContent)
		}

		if err := s.Engine.RotatePlatformWallet(ctx, principal.ID, swag.StringValue(body.Wallet)); err != nil {
			return httperrors.EngineError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
