package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
)

// Payload size limits (in bytes)
const (
	MaxJSONSize   = 1 * 1024 * 1024 // 1MB - maximum JSON payload size
	MaxRecordSize = 512 * 1024      // 512KB - single bundle record
)

// String length limits
const (
	MinBundleNameLength  = 7
	MaxBundleNameLength  = 127
	MaxModuleNameLength  = 128
	MaxAbilityNameLength = 128
)

// ErrInvalidPayload wraps every validation failure
var ErrInvalidPayload = errors.New("invalid payload")

// BundleNamePattern is reverse-domain notation: at least two dot-separated
// segments, each starting with a letter
var BundleNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*(\.[a-zA-Z][a-zA-Z0-9_]*)+$`)

// validate is the shared validator instance
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("bundlename", func(fl validator.FieldLevel) bool {
		return IsBundleName(fl.Field().String())
	})
	return v
}

// ValidateStruct runs struct-tag validation over v
func ValidateStruct(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidPayload, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// IsBundleName reports whether name is a well-formed bundle name
func IsBundleName(name string) bool {
	n := utf8.RuneCountInString(name)
	if n < MinBundleNameLength || n > MaxBundleNameLength {
		return false
	}
	return BundleNamePattern.MatchString(name)
}

// ValidateBundleName validates a bundle name field
func ValidateBundleName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: bundle name is required", ErrInvalidPayload)
	}
	if !IsBundleName(name) {
		return fmt.Errorf("%w: bundle name %q is not reverse-domain notation", ErrInvalidPayload, name)
	}
	return nil
}

// JSONSizeValidator validates JSON size limits
type JSONSizeValidator struct {
	maxSize int
}

// NewJSONSizeValidator creates a new validator with the specified max size
func NewJSONSizeValidator(maxSize int) *JSONSizeValidator {
	return &JSONSizeValidator{maxSize: maxSize}
}

// DefaultJSONValidator returns a validator with the default 1MB limit
func DefaultJSONValidator() *JSONSizeValidator {
	return NewJSONSizeValidator(MaxJSONSize)
}

// ValidateSize checks if the data size is within limits
func (v *JSONSizeValidator) ValidateSize(data []byte) error {
	size := len(data)
	if size > v.maxSize {
		return fmt.Errorf("%w: JSON size %d bytes exceeds maximum %d bytes", ErrInvalidPayload, size, v.maxSize)
	}
	return nil
}

// ValidateJSON validates both size and JSON structure
func (v *JSONSizeValidator) ValidateJSON(data []byte) error {
	// Check size first (faster than parsing)
	if err := v.ValidateSize(data); err != nil {
		return err
	}
	if !sonic.Valid(data) {
		return fmt.Errorf("%w: malformed JSON", ErrInvalidPayload)
	}
	return nil
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidPayload, fieldName)
	}

	if value == "" && !required {
		return nil // Optional field, empty is OK
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%w: %s must be at least %d characters", ErrInvalidPayload, fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%w: %s must not exceed %d characters", ErrInvalidPayload, fieldName, maxLen)
	}

	// Check for null bytes (security issue)
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%w: %s contains invalid characters", ErrInvalidPayload, fieldName)
	}

	return nil
}

// ValidateModuleName validates a module name field
func ValidateModuleName(name string) error {
	return ValidateString(name, "module name", 1, MaxModuleNameLength, true)
}

// ValidateAbilityName validates an ability name field
func ValidateAbilityName(name string) error {
	return ValidateString(name, "ability name", 1, MaxAbilityNameLength, true)
}
