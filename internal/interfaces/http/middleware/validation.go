package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/storepulse/backend/internal/domain/snapshot"
	"github.com/storepulse/backend/internal/interfaces/http/dto"
)

var setupValidatorOnce sync.Once

// SetupValidator reports fields under their json (or form) name and
// registers the snapshot_kind tag on gin's validator. Safe to call repeatedly.
func SetupValidator() {
	setupValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("snapshot_kind", validateSnapshotKind)
	})
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return fld.Name
}

func validateSnapshotKind(fl validator.FieldLevel) bool {
	_, err := snapshot.ParseKind(fl.Field().String())
	return err == nil
}

// validationMessages renders a failed tag; %s is the tag parameter
var validationMessages = map[string]string{
	"required":      "This field is required",
	"required_with": "Required together with %s",
	"min":           "Must be at least %s",
	"max":           "Must be at most %s",
	"gte":           "Must be greater than or equal to %s",
	"lte":           "Must be less than or equal to %s",
	"gtfield":       "Must be after %s",
	"oneof":         "Must be one of: %s",
	"uuid":          "Invalid UUID format",
	"snapshot_kind": "Must be a snapshot kind (inventory, customer)",
}

func validationMessage(e validator.FieldError) string {
	msg, ok := validationMessages[e.Tag()]
	if !ok {
		return "Invalid value"
	}
	if strings.Contains(msg, "%s") {
		msg = fmt.Sprintf(msg, e.Param())
	}
	if (e.Tag() == "min" || e.Tag() == "max") && e.Kind() == reflect.String {
		msg += " characters"
	}
	return msg
}

// FormatValidationErrors turns a binding error into a validation response.
// Anything that is not a validator error is reported as malformed input.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewErrorResponse(dto.ErrCodeInvalidJSON, "Malformed request body or query", requestID)
	}

	details := make([]dto.ValidationDetail, len(fieldErrs))
	for i, fe := range fieldErrs {
		details[i] = dto.ValidationDetail{Field: fe.Field(), Message: validationMessage(fe)}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError aborts with 400 and the formatted binding error
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}
