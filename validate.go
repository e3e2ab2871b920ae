package pay2house

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	accountPattern   = regexp.MustCompile(`^P2U\d+$`)
	dateRangePattern = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4}) - (\d{2}\.\d{2}\.\d{4})$`)
	validate         = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	if err := v.RegisterValidation("account", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return accountPattern.MatchString(value)
	}); err != nil {
		panic(err)
	}

	if err := v.RegisterValidation("date_range", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return validDateRange(value)
	}); err != nil {
		panic(err)
	}

	return v
}

func validDateRange(value string) bool {
	m := dateRangePattern.FindStringSubmatch(value)
	if m == nil {
		return false
	}
	start, err := time.Parse("02.01.2006", m[1])
	if err != nil {
		return false
	}
	end, err := time.Parse("02.01.2006", m[2])
	if err != nil {
		return false
	}
	return !end.Before(start)
}

func validateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}

func normalizeValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	first := validationErrs[0]
	return fmt.Errorf("%s %s", first.Field(), validationMessage(first))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("cannot exceed %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "nefield":
		return "must differ from the sender account"
	case "account":
		return "must match P2U followed by digits"
	case "date_range":
		return `must be in format "DD.MM.YYYY - DD.MM.YYYY"`
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
