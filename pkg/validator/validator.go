package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"anoa.com/taskmanager/pkg/apperror"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const passwordSymbols = ".$%@!&*+"

// Register installs the custom rules on gin's binding validator and reports fields by json name.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return RegisterOn(v)
}

func RegisterOn(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)
	return v.RegisterValidation("strongpassword", strongPassword)
}

func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// strongPassword requires at least 8 characters with a lowercase and an uppercase letter,
// a digit and one of .$%@!&*+
func strongPassword(fl validator.FieldLevel) bool {
	return IsStrongPassword(fl.Field().String())
}

func IsStrongPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}

	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

// FormatValidationErrors converts binding errors into a 422 ValidationError.
// Errors that are not field validation failures (malformed JSON, wrong types) become ErrBadRequest.
func FormatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%s: %w", err.Error(), apperror.ErrBadRequest)
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fieldError := range validationErrors {
		name := fieldError.Field()
		if _, exists := fields[name]; !exists {
			fields[name] = getFieldErrorMessage(fieldError)
		}
	}
	return &apperror.ValidationError{Fields: fields}
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("the %s field is required", field)
	case "email":
		return fmt.Sprintf("the %s field must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("the %s field must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("the %s field must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("the %s field may not be greater than %s characters", field, fe.Param())
		}
		return fmt.Sprintf("the %s field may not be greater than %s", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("the %s field confirmation does not match", strings.TrimSuffix(field, " confirmation"))
	case "oneof":
		return fmt.Sprintf("the selected %s is invalid, expected one of: %s", field, fe.Param())
	case "uuid":
		return fmt.Sprintf("the %s field must be a valid UUID", field)
	case "strongpassword":
		return fmt.Sprintf("the %s must be at least 8 characters and contain an uppercase letter, a lowercase letter, a digit and one of %s", field, passwordSymbols)
	default:
		return fmt.Sprintf("the %s field is invalid", field)
	}
}
