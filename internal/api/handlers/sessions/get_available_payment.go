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

func GetAvailablePaymentRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/sessions/:id/available-payment", getAvailablePaymentHandler(s))
}

func getAvailablePaymentHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")

		amount, err := s.Engine.AvailablePayment(ctx, id)
		if err != nil {
			return httperrors.EngineError(err)
		}
		elapsed, err := s.Engine.ElapsedMinutes(ctx, id)
		if err != nil {
			return httperrors.EngineError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.AvailablePaymentResponse{
			SessionID:      swag.String(id),
			Amount:         swag.String(amount.String()),
			ElapsedMinutes: elapsed,
		})
	}
}
