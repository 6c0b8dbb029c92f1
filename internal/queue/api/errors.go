package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error codes returned in the "code" field of error responses.
const (
	codeInvalidRequest  = "InvalidRequestArguments"
	codeResourceMissing = "ResourceNotFound"
	codeConflict        = "RequestConflict"
	codeInternal        = "InternalServerError"
)

// errorJSON writes {"code": ..., "error": ...}, the shape the gateway client
// decodes into its APIError.
func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, map[string]string{"code": code, "error": message})
}

func badRequest(c echo.Context, message string) error {
	return errorJSON(c, http.StatusBadRequest, codeInvalidRequest, message)
}

func notFound(c echo.Context, message string) error {
	return errorJSON(c, http.StatusNotFound, codeResourceMissing, message)
}

func conflict(c echo.Context, message string) error {
	return errorJSON(c, http.StatusConflict, codeConflict, message)
}

func internalError(c echo.Context, err error) error {
	return errorJSON(c, http.StatusInternalServerError, codeInternal, err.Error())
}
