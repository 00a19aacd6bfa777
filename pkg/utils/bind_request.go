package utils

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
)

// BindRequest binds the request payload into T and runs its struct
// validation tags. Bind and validation failures both surface as a 400
// carrying the validator's field messages.
func BindRequest[T any](c echo.Context) (T, error) {
	var req T

	if err := c.Bind(&req); err != nil {
		return req, httperror.WrapError(http.StatusBadRequest, err)
	}

	req, err := Validate(req)
	if err != nil {
		return req, httperror.WrapError(http.StatusBadRequest, err)
	}

	return req, nil
}
