package admin

import (
	"math/big"
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/kashguard/go-escrow/internal/api"
	"github.com/kashguard/go-escrow/internal/api/httperrors"
	"github.com/kashguard/go-escrow/internal/auth"
	"github.com/kashguard/go-escrow/internal/types"
	"github.com/kashguard/go-escrow/internal/util"
	"github.com/labstack/echo/v4"
)

func PostEmergencyReleaseRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Admin.POST("/sessions/:id/emergency-release", postEmergencyReleaseHandler(s))
}

func postEmergencyReleaseHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		principal, _ := auth.PrincipalFromContext(ctx)

		var body types.PostEmergencyReleasePayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		amount, _ := new(big.Int).SetString(swag.StringValue(body.Amount), 10)
		session, err := s.Engine.EmergencyRelease(
			ctx,
			principal.ID,
			c.Param("id"),
			swag.StringValue(body.Recipient),
			amount,
			swag.StringValue(body.Reason),
		)
		if err != nil {
			return httperrors.EngineError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, types.NewSessionResponse(session))
	}
}
