// Package security provides input validation for portal form fields.
package security

import (
	"fmt"
	"math"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ValidationService provides centralized field validation.
// All validation methods return descriptive errors that are safe to show to
// users; none of them reveal stored data.
type ValidationService struct {
	config *Config
}

// NewValidationService creates a validation service over security config.
func NewValidationService(config *Config) *ValidationService {
	return &ValidationService{config: config}
}

var (
	// phonePattern matches Turkish mobile numbers: optional +90 or leading
	// 0, then a 5xx prefix and seven more digits.
	phonePattern = regexp.MustCompile(`^(\+90|0)?5\d{9}$`)

	// ibanPattern matches Turkish IBANs: TR, two check digits, 22 more
	// digits (26 characters total).
	ibanPattern = regexp.MustCompile(`^TR\d{24}$`)

	digitsOnly = regexp.MustCompile(`^\d+$`)
)

// ValidateEmail validates email address format according to RFC 5322.
func (v *ValidationService) ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 255 {
		return fmt.Errorf("email must be less than 255 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePhone validates a Turkish mobile number.
// Accepts "+905321234567", "05321234567" and "5321234567"; separators are
// stripped before matching.
func (v *ValidationService) ValidatePhone(phone string) error {
	if phone == "" {
		return fmt.Errorf("phone number is required")
	}

	normalized := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	if !phonePattern.MatchString(normalized) {
		return fmt.Errorf("invalid phone number (expected Turkish mobile format)")
	}
	return nil
}

// ValidateNationalID validates a Turkish national identity number.
// Checks length, charset and both checksum digits.
func (v *ValidationService) ValidateNationalID(id string) error {
	if id == "" {
		return fmt.Errorf("national ID is required")
	}
	if len(id) != 11 || !digitsOnly.MatchString(id) {
		return fmt.Errorf("national ID must be 11 digits")
	}
	if id[0] == '0' {
		return fmt.Errorf("invalid national ID")
	}

	var digits [11]int
	for i := 0; i < 11; i++ {
		digits[i] = int(id[i] - '0')
	}

	// Tenth digit: ((d1+d3+d5+d7+d9)*7 - (d2+d4+d6+d8)) mod 10.
	// Eleventh digit: sum of the first ten, mod 10.
	odd := digits[0] + digits[2] + digits[4] + digits[6] + digits[8]
	even := digits[1] + digits[3] + digits[5] + digits[7]
	check10 := ((odd*7 - even) % 10 + 10) % 10
	if digits[9] != check10 {
		return fmt.Errorf("invalid national ID")
	}

	sum := 0
	for i := 0; i < 10; i++ {
		sum += digits[i]
	}
	if digits[10] != sum%10 {
		return fmt.Errorf("invalid national ID")
	}
	return nil
}

// ValidateIBAN validates a Turkish IBAN shape (TR + 24 digits).
// Spaces are stripped and letters uppercased before matching.
func (v *ValidationService) ValidateIBAN(iban string) error {
	if iban == "" {
		return fmt.Errorf("IBAN is required")
	}

	normalized := strings.ToUpper(strings.ReplaceAll(iban, " ", ""))
	if !ibanPattern.MatchString(normalized) {
		return fmt.Errorf("invalid IBAN (expected TR followed by 24 digits)")
	}
	return nil
}

// ValidateAmount validates a monetary amount: finite, positive and below
// the configured sanity ceiling.
func (v *ValidationService) ValidateAmount(amount string) error {
	if amount == "" {
		return fmt.Errorf("amount is required")
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(amount, ",", "."), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("invalid amount")
	}
	if value <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	if value > v.config.MaxAmount {
		return fmt.Errorf("amount exceeds the maximum of %.0f", v.config.MaxAmount)
	}
	return nil
}

// ValidateDate validates an ISO 8601 date string (YYYY-MM-DD).
func (v *ValidationService) ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse("2006-01-02", dateStr); err != nil {
		return fmt.Errorf("invalid date format (expected: YYYY-MM-DD)")
	}
	return nil
}

// ValidateDateTime validates an ISO 8601 date-time string.
func (v *ValidationService) ValidateDateTime(value string) error {
	if value == "" {
		return fmt.Errorf("date/time is required")
	}
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return fmt.Errorf("invalid date/time format (expected RFC 3339)")
	}
	return nil
}

// ValidateLength validates string length in runes against bounds.
func (v *ValidationService) ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must be %d characters or less", fieldName, max)
	}
	return nil
}

// CustomRule is the escape hatch for form-specific checks; it receives the
// field value and all submitted values, and reports validity with a
// user-facing message.
type CustomRule func(value interface{}, allValues map[string]interface{}) (bool, string)

// FieldRule is the declarative rule set applied to one form field.
// Evaluation order: required, type-specific, length bounds, custom.
// The first failure wins for a field.
type FieldRule struct {
	Required   bool
	Email      bool
	Phone      bool
	NationalID bool
	IBAN       bool
	Amount     bool
	Date       bool
	MinLength  int
	MaxLength  int
	Custom     CustomRule
}

// ValidateForm applies a declarative rule map to submitted form data and
// returns a field-to-error map. Every field is evaluated independently, so
// a caller receives the complete error map in a single pass; an empty map
// means the form is valid.
func (v *ValidationService) ValidateForm(data map[string]interface{}, rules map[string]FieldRule) map[string]string {
	errors := make(map[string]string)

	for field, rule := range rules {
		raw := data[field]
		str, _ := raw.(string)
		trimmed := strings.TrimSpace(str)

		if rule.Required && trimmed == "" {
			errors[field] = fmt.Sprintf("%s is required", field)
			continue
		}
		if trimmed == "" {
			// Optional and absent: nothing further to check.
			continue
		}

		if err := v.typeCheck(rule, trimmed); err != nil {
			errors[field] = err.Error()
			continue
		}

		if rule.MinLength > 0 || rule.MaxLength > 0 {
			if err := v.ValidateLength(field, trimmed, rule.MinLength, rule.MaxLength); err != nil {
				errors[field] = err.Error()
				continue
			}
		}

		if rule.Custom != nil {
			if ok, message := rule.Custom(raw, data); !ok {
				errors[field] = message
			}
		}
	}

	return errors
}

func (v *ValidationService) typeCheck(rule FieldRule, value string) error {
	switch {
	case rule.Email:
		return v.ValidateEmail(value)
	case rule.Phone:
		return v.ValidatePhone(value)
	case rule.NationalID:
		return v.ValidateNationalID(value)
	case rule.IBAN:
		return v.ValidateIBAN(value)
	case rule.Amount:
		return v.ValidateAmount(value)
	case rule.Date:
		return v.ValidateDate(value)
	}
	return nil
}
