package middleware

import (
	stderrors "errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"whisper-scribe/internal/api/errors"
)

// Validator interface for domain validation
type Validator interface {
	Validate() error
}

// ValidateQuery binds query parameters into req, checks its binding tags and
// then any domain rules.
func ValidateQuery(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindQuery(req); err != nil {
		return bindingError("Invalid query parameters", err)
	}
	if v, ok := req.(Validator); ok {
		return v.Validate()
	}
	return nil
}

func bindingError(message string, err error) *errors.APIError {
	fields := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if !stderrors.As(err, &validationErrs) {
		fields["request"] = err.Error()
		return errors.NewValidationError(message, fields)
	}

	for _, fieldError := range validationErrs {
		field := strings.ToLower(fieldError.Field())
		switch fieldError.Tag() {
		case "required":
			fields[field] = "is required"
		case "oneof":
			fields[field] = "must be one of: " + fieldError.Param()
		case "min", "gte":
			fields[field] = "is too small"
		case "max", "lte":
			fields[field] = "is too large"
		default:
			fields[field] = "is invalid"
		}
	}
	return errors.NewValidationError(message, fields)
}
