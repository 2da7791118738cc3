package router

import (
	"net/http"

	"github.com/kashguard/go-escrow/internal/api"
	"github.com/kashguard/go-escrow/internal/api/handlers"
	"github.com/kashguard/go-escrow/internal/api/httperrors"
	"github.com/kashguard/go-escrow/internal/auth"
	"github.com/kashguard/go-escrow/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Init attaches the echo instance, middleware and all routes to the server.
func Init(s *api.Server) {
	s.Echo = echo.New()
	s.Echo.HideBanner = true
	s.Echo.HTTPErrorHandler = errorHandler(s)

	if s.Config.Echo.EnableRecoverMiddleware {
		s.Echo.Use(middleware.Recover())
	}
	if s.Config.Echo.EnableLoggerMiddleware {
		s.Echo.Use(requestLogger())
	}

	// Health and metrics live on their own listener so they are reachable
	// even when the public listener is saturated, and never exposed publicly.
	s.Management = echo.New()
	s.Management.HideBanner = true

	s.Router = &api.Router{
		Root:       s.Echo.Group(""),
		Management: s.Management.Group("/-"),
		APIV1:      s.Echo.Group("/api/v1/escrow", auth.Middleware(s.JWT)),
		APIV1Admin: s.Echo.Group("/api/v1/admin", auth.Middleware(s.JWT), auth.RequirePermission(auth.PermissionAdmin)),
	}

	s.Router.Management.GET("/healthy", func(c echo.Context) error {
		if !s.Ready() {
			return c.String(http.StatusServiceUnavailable, "Not ready.")
		}
		return c.String(http.StatusOK, "Ready.")
	})
	s.Router.Management.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.Router.Routes = handlers.AttachAllRoutes(s)
	for _, route := range s.Router.Routes {
		log.Debug().Str("method", route.Method).Str("path", route.Path).Msg("Registered route")
	}
}

// requestLogger attaches a request-scoped zerolog logger and logs the
// request outcome.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := log.With().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Logger()
			c.SetRequest(req.WithContext(util.WithLogger(req.Context(), l)))

			err := next(c)

			l.Info().Int("status", c.Response().Status).Msg("Request handled")
			return err
		}
	}
}

// errorHandler renders httperrors payloads and hides internal details.
func errorHandler(s *api.Server) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var payload *httperrors.HTTPError
		switch e := err.(type) {
		case *httperrors.HTTPError:
			payload = e
		case *echo.HTTPError:
			detail, _ := e.Message.(string)
			if detail == "" {
				detail = http.StatusText(e.Code)
			}
			payload = httperrors.NewHTTPError(e.Code, httperrors.TypeGeneric, detail)
		default:
			payload = httperrors.WrapHTTPError(http.StatusInternalServerError, httperrors.TypeGeneric, "internal server error", err)
		}

		if payload.Internal != nil {
			util.LogFromEchoContext(c).Error().Err(payload.Internal).Int("status", payload.Code).Msg("Request failed")
			if s.Config.Echo.HideInternalServerErrorDetails {
				payload.Internal = nil
			}
		}

		if jsonErr := c.JSON(payload.Code, payload); jsonErr != nil {
			log.Error().Err(jsonErr).Msg("Failed to write error response")
		}
	}
}
