package model

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/social-graph/pkg/errs"
)

// emailPattern accepts the basic local@domain.tld shape.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("basicemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks v against its struct rules. Failures come back as an
// errs.ValidationError keyed by JSON field name.
func Validate(v any) error {
	return translate(validate.Struct(v))
}

// ValidateFields checks only the named Go struct fields of v, for partial
// updates.
func ValidateFields(v any, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return translate(validate.StructPartial(v, fields...))
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.Invalid(err.Error(), nil)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + fields[name]
	}
	return errs.Invalid(strings.Join(parts, "; "), fields)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be %s characters or less", fe.Field(), fe.Param())
	case "basicemail":
		return "invalid email format"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
