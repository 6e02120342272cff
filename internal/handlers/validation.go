package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// bindingErrorMessage turns a request binding failure into a client-facing
// message. Validation failures list the offending fields; anything else (bad
// JSON, wrong types) falls back to a generic format error.
func bindingErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request format: " + err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("field '%s' is required", fe.Field()))
		case "len":
			parts = append(parts, fmt.Sprintf("field '%s' must be exactly %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("field '%s' failed validation '%s'", fe.Field(), fe.Tag()))
		}
	}
	return "Invalid request: " + strings.Join(parts, "; ")
}
