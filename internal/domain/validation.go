package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxDisplayNameLength = 255
	MaxTitleLength       = 255
	MaxMessageLength     = 2000
	MaxListingCapacity   = 1000
	MaxExchangeHours     = "1000"
	MaxHoursPrecision    = 2
)

// ValidateHours validates an exchange or adjustment amount in hours.
func ValidateHours(hours decimal.Decimal) error {
	if hours.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidHours
	}

	maxHours := decimal.RequireFromString(MaxExchangeHours)
	if hours.GreaterThan(maxHours) {
		return fmt.Errorf("%w: maximum is %s hours", ErrValidation, MaxExchangeHours)
	}

	if !hours.Equal(hours.Truncate(MaxHoursPrecision)) {
		return fmt.Errorf("%w: hours are tracked to %d decimal places", ErrValidation, MaxHoursPrecision)
	}

	return nil
}

// ValidateMessage validates the optional free-text proposal message.
func ValidateMessage(message string) error {
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return fmt.Errorf("%w: message exceeds %d characters", ErrValidation, MaxMessageLength)
	}
	return nil
}

// ValidateDisplayName validates an account display name.
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: display name cannot be empty", ErrValidation)
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return fmt.Errorf("%w: display name exceeds %d characters", ErrValidation, MaxDisplayNameLength)
	}
	return nil
}

// ValidateTitle validates a listing title.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrValidation, MaxTitleLength)
	}
	return nil
}

// ValidateCapacity validates a listing capacity.
func ValidateCapacity(capacity int) error {
	if capacity < 1 || capacity > MaxListingCapacity {
		return fmt.Errorf("%w: capacity must be between 1 and %d", ErrValidation, MaxListingCapacity)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 100
	const DefaultPageSize = 20

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
