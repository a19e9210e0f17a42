package httpx

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var tagMessages = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"gte":      "%s must be at least %s",
	"lte":      "%s must be at most %s",
	"eqfield":  "%s must match %s",
	"oneof":    "%s must be one of: %s",
}

// ValidateStruct runs the `validate` tags of s. Failures are keyed by the
// field's JSON name.
func ValidateStruct(s any) []ErrorDetail {
	var errs validator.ValidationErrors
	if err := validate.Struct(s); err == nil {
		return nil
	} else if !errors.As(err, &errs) {
		return []ErrorDetail{{Message: err.Error()}}
	}

	details := make([]ErrorDetail, 0, len(errs))
	for _, fe := range errs {
		details = append(details, ErrorDetail{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return details
}

func fieldMessage(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be %s %s characters", field, bound, param)
		}
		return fmt.Sprintf("%s must be %s %s", field, bound, param)
	}
	if format, ok := tagMessages[fe.Tag()]; ok {
		if strings.Count(format, "%s") == 2 {
			return fmt.Sprintf(format, field, strings.ReplaceAll(param, " ", ", "))
		}
		return fmt.Sprintf(format, field)
	}
	return field + " is invalid"
}
