package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// SuccessResponse writes the payload as-is with a 200.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// ErrorResponse writes {"error": message} with the given status.
func ErrorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, errorBody{Error: message})
}

// BadRequestResponse writes a 400 error.
func BadRequestResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusBadRequest, message)
}

// NotFoundResponse writes a 404 error.
func NotFoundResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusNotFound, message)
}

// InternalServerErrorResponse writes a 500 error.
func InternalServerErrorResponse(c echo.Context) error {
	return ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
}
