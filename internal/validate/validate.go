// Package validate checks request payloads with go-playground/validator and
// converts failures into domain.ValidationError, keyed by JSON field name.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/pkordes/atob/internal/domain"
)

var std = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	mustRegister(v, "password", func(fl validator.FieldLevel) bool {
		return len(PasswordIssues(fl.Field().String())) == 0
	})
	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})
	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validate: register %q: %v", tag, err))
	}
}

// jsonName reports fields by their JSON name so issues match the payload.
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Struct validates s against its `validate` tags. It returns nil or a
// *domain.ValidationError.
func Struct(s any) error {
	err := std.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate.Struct: %w", err)
	}

	var out domain.ValidationError
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), codeFor(fe), messageFor(fe))
	}
	return out.Err()
}

func codeFor(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required", "notblank":
		return domain.CodeRequired
	case "min", "gte":
		if isString {
			return domain.CodeTooShort
		}
		return domain.CodeOutOfRange
	case "max", "lte":
		if isString {
			return domain.CodeTooLong
		}
		return domain.CodeOutOfRange
	case "latitude", "longitude":
		return domain.CodeOutOfRange
	case "eqfield":
		return domain.CodeMismatch
	case "password":
		return domain.CodeWeakPassword
	default:
		return domain.CodeInvalidFormat
	}
}

func messageFor(fe validator.FieldError) string {
	field := fe.Field()
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "min", "gte":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "eqfield":
		return field + " does not match"
	case "latitude":
		return field + " must be between -90 and 90"
	case "longitude":
		return field + " must be between -180 and 180"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "password":
		return field + ": " + strings.Join(PasswordIssues(fmt.Sprint(fe.Value())), "; ")
	case "username":
		return field + " may only contain letters, digits and the characters - . _ @ +"
	default:
		return field + " is invalid"
	}
}

// PasswordIssues lists every password rule pw breaks. An empty result means
// the password is acceptable.
func PasswordIssues(pw string) []string {
	var (
		issues                            []string
		hasUpper, hasLower, hasDigit, sym bool
		distinct                          = map[rune]struct{}{}
	)
	for _, r := range pw {
		distinct[r] = struct{}{}
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r):
			sym = true
		}
	}

	if len([]rune(pw)) < domain.PasswordMin {
		issues = append(issues, fmt.Sprintf("must be at least %d characters", domain.PasswordMin))
	}
	if !hasUpper {
		issues = append(issues, "must contain an uppercase letter")
	}
	if !hasLower {
		issues = append(issues, "must contain a lowercase letter")
	}
	if !hasDigit {
		issues = append(issues, "must contain a digit")
	}
	if !sym {
		issues = append(issues, "must contain a non-alphanumeric character")
	}
	if len(distinct) < domain.PasswordUniqueMin {
		issues = append(issues, fmt.Sprintf("must use at least %d different characters", domain.PasswordUniqueMin))
	}
	return issues
}

// Password returns a validation error for field when pw breaks the policy.
func Password(field, pw string) error {
	issues := PasswordIssues(pw)
	if len(issues) == 0 {
		return nil
	}
	return domain.Invalid(field, domain.CodeWeakPassword, field+": "+strings.Join(issues, "; "))
}

// ValidUsername reports whether name uses only letters, digits and - . _ @ +.
func ValidUsername(name string) bool {
	for _, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-._@+", r) {
			continue
		}
		return false
	}
	return true
}

// Email reports whether s is a single valid email address.
func Email(s string) bool {
	return std.Var(s, "required,email") == nil
}
