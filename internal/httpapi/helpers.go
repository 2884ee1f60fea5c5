/*******************************************************************************
* File name: helpers.go
*
* Description: centralizes the errors.Is -> HTTP status mapping for
* validator errors.
*******************************************************************************/

package httpapi

import (
	"errors"
	"net/http"

	"stripedfs/internal/validator"
)

// mapValidatorError translates a validator error into its HTTP status
// code. Unrecognized errors map to 500.
func mapValidatorError(err error) (int, string) {
	switch {
	case errors.Is(err, validator.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, validator.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, validator.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, validator.ErrEmptyName), errors.Is(err, validator.ErrInvalidName):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
