// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

const maxHWIDLength = 256

func init() {
	validate = validator.New()
	validate.RegisterValidation("username", validateUsername)
	validate.RegisterValidation("hwid", validateHWID)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateUsername(fl validator.FieldLevel) bool {
	username := fl.Field().String()

	// Letters, digits, underscore, dot and dash, 3-50 characters
	if len(username) < 3 || len(username) > 50 {
		return false
	}

	return usernamePattern.MatchString(username)
}

func validateHWID(fl validator.FieldLevel) bool {
	hwid := fl.Field().String()
	if strings.TrimSpace(hwid) == "" || len(hwid) > maxHWIDLength {
		return false
	}
	for _, r := range hwid {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind().String() == "string" {
			return e.Field() + " must be at least " + e.Param() + " characters"
		}
		return e.Field() + " must be at least " + e.Param()
	case "max":
		if e.Kind().String() == "string" {
			return e.Field() + " must be at most " + e.Param() + " characters"
		}
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "username":
		return "Username must be 3-50 characters and contain only letters, numbers, '_', '.' and '-'"
	case "hwid":
		return "Hardware id must be 1-256 printable characters"
	default:
		return e.Field() + " is invalid"
	}
}
