package authgate

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// FormatValidationErrorToMap flattens an ozzo validation error into a
// field -> message map suitable for rendering next to form inputs.
func FormatValidationErrorToMap(err error) map[string]any {
	out := map[string]any{}
	if err == nil {
		return out
	}

	verrs, ok := err.(validation.Errors)
	if !ok {
		out["_"] = err.Error()
		return out
	}

	for field, ferr := range verrs {
		if nested, ok := ferr.(validation.Errors); ok {
			for sub, serr := range nested {
				out[field+"."+sub] = serr.Error()
			}
			continue
		}
		out[field] = ferr.Error()
	}

	return out
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match", errors.CategoryValidation)
		}
		return nil
	}
}

// ValidatePhoneNumber checks that the value parses as a phone number in
// the given default region. Empty values pass; pair with Required when
// the field is mandatory.
func ValidatePhoneNumber(region string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		num, err := phonenumbers.Parse(s, region)
		if err != nil {
			return errors.New("invalid phone number", errors.CategoryValidation)
		}
		if !phonenumbers.IsValidNumber(num) {
			return errors.New("invalid phone number", errors.CategoryValidation)
		}
		return nil
	}
}
