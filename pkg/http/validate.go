package http

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var (
	validate = newValidator()

	tickerPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]{1,10}$`)
)

// newValidator reports fields by their wire name and adds the "symbols"
// rule for comma separated ticker lists.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("symbols", func(fl validator.FieldLevel) bool {
		for _, s := range strings.Split(fl.Field().String(), ",") {
			if s = strings.TrimSpace(s); s != "" && !tickerPattern.MatchString(s) {
				return false
			}
		}
		return true
	})
	return v
}

// ReadAndValidateRequest binds the request into req, applies `default`
// tags and validates. It returns nil when req is usable.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		out := make([]ValidationError, 0, len(ves))
		for _, fe := range ves {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: fieldMessage(fe),
				Params:  fieldParams(fe),
			})
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: msg}}
}

// Message formats take the field name and the rule parameter.
var fieldMessages = map[string]string{
	"required": "%s is required",
	"oneof":    "%s must be one of: %s",
	"gt":       "%s must be greater than %s",
	"gte":      "%s must be greater than or equal to %s",
	"lt":       "%s must be less than %s",
	"lte":      "%s must be less than or equal to %s",
	"url":      "%s must be a valid URL",
	"symbols":  "%s must be a comma separated list of ticker symbols",
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
	case "oneof":
		param = strings.ReplaceAll(param, " ", ", ")
	}
	if format, ok := fieldMessages[fe.Tag()]; ok {
		if strings.Count(format, "%s") == 1 {
			return fmt.Sprintf(format, field)
		}
		return fmt.Sprintf(format, field, param)
	}
	return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
}

func fieldParams(fe validator.FieldError) map[string]interface{} {
	switch fe.Tag() {
	case "min", "gte":
		return map[string]interface{}{"min": fe.Param()}
	case "max", "lte":
		return map[string]interface{}{"max": fe.Param()}
	case "gt", "lt":
		return map[string]interface{}{"value": fe.Param()}
	case "oneof":
		return map[string]interface{}{"options": strings.Fields(fe.Param())}
	}
	return nil
}
