package util

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Validatable is implemented by request payloads that can check themselves.
type Validatable interface {
	Validate() error
}

// BindAndValidateBody binds the request body and runs its validation,
// mapping failures to 400 with the validation message.
func BindAndValidateBody(c echo.Context, v Validatable) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := v.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// ValidateAndReturn writes a JSON response with the given status.
func ValidateAndReturn(c echo.Context, status int, response interface{}) error {
	return c.JSON(status, response)
}
