package http

import (
	"errors"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidationError reports the first failed field of a bound request.
type ValidationError struct {
	Field string
	Tag   string
}

func (e *ValidationError) Error() string {
	return "validation failed on " + e.Field + " (" + e.Tag + ")"
}

// ReadAndValidateRequest binds query/body parameters into req, applies
// struct defaults, then validates. Returns a *ValidationError so callers
// can map individual fields to their wire messages.
func ReadAndValidateRequest(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return &ValidationError{Field: "", Tag: "bind"}
	}

	if err := defaults.Set(req); err != nil {
		return err
	}

	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{Field: verrs[0].Field(), Tag: verrs[0].Tag()}
		}
		return err
	}

	return nil
}
