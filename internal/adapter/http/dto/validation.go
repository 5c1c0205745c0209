package dto

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalidRequest is returned when a request body fails validation.
var ErrInvalidRequest = errors.New("invalid request")

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

func initValidator() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())

	// hours travel as json.Number so both 1.5 and "1.5" decode.
	if err := vld.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
		str := fl.Field().String()
		if str == "" {
			return true
		}
		d, err := decimal.NewFromString(str)
		if err != nil {
			return false
		}
		return d.IsPositive()
	}); err != nil {
		return nil, fmt.Errorf("register positive_amount: %w", err)
	}

	if err := vld.RegisterValidation("nonzero_amount", func(fl validator.FieldLevel) bool {
		str := fl.Field().String()
		if str == "" {
			return true
		}
		d, err := decimal.NewFromString(str)
		if err != nil {
			return false
		}
		return !d.IsZero()
	}); err != nil {
		return nil, fmt.Errorf("register nonzero_amount: %w", err)
	}

	return vld, nil
}

// Validate checks a request struct against its validate tags.
func Validate(req any) error {
	validateOnce.Do(func() {
		validate, errValidate = initValidator()
	})
	if errValidate != nil {
		return errValidate
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return formatFieldError(verrs[0])
		}
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return nil
}

func formatFieldError(fe validator.FieldError) error {
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", ErrInvalidRequest, field)
	case "max":
		return fmt.Errorf("%w: %s must be at most %s", ErrInvalidRequest, field, fe.Param())
	case "min":
		return fmt.Errorf("%w: %s must be at least %s", ErrInvalidRequest, field, fe.Param())
	case "oneof":
		return fmt.Errorf("%w: %s must be one of [%s]", ErrInvalidRequest, field, fe.Param())
	case "positive_amount":
		return fmt.Errorf("%w: %s must be a positive number", ErrInvalidRequest, field)
	case "nonzero_amount":
		return fmt.Errorf("%w: %s must be a non-zero number", ErrInvalidRequest, field)
	default:
		return fmt.Errorf("%w: %s failed %s", ErrInvalidRequest, field, fe.Tag())
	}
}
