package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeJSON decodes the request body into dst and runs struct validation.
// Unknown fields are rejected so typos surface as 400s instead of silent
// defaults.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return NewAppError(CodeBadRequest, "request body is required", http.StatusBadRequest, err)
		}
		return NewAppError(CodeBadRequest, "invalid JSON body", http.StatusBadRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return NewAppError(CodeBadRequest, "validation failed", http.StatusBadRequest, err).WithDetails(fields)
		}
		return NewAppError(CodeBadRequest, "validation failed", http.StatusBadRequest, err)
	}
	return nil
}

// WithDetails attaches details and returns the error for chaining.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}
