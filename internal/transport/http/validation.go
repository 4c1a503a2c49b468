package http

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "gradepulse/internal/errors"
)

// reqValidator checks request bodies against their struct tags. Field
// names in error messages come from the json tags so clients see the
// wire names, not the Go ones.
var reqValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct validates a bound request body and converts the first
// failing field into an APIError suitable for rendering.
func validateStruct(v interface{}) *apierrors.APIError {
	err := reqValidator.Struct(v)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return apierrors.InvalidRequestWithError(err)
	}
	fe := fieldErrs[0]
	return apierrors.ErrValidation(fe.Field(), formatFieldError(fe))
}

// bindError maps a render.Bind failure to an APIError. Validation
// failures raised inside Bind pass through; decode errors become a
// generic invalid-request response.
func bindError(err error) *apierrors.APIError {
	if apiErr, ok := err.(*apierrors.APIError); ok {
		return apiErr
	}
	return apierrors.InvalidRequestWithError(err)
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
