package envelope

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report wire names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// pairs: a flattened key/value sequence must have even length.
	if err := v.RegisterValidation("pairs", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		switch f.Kind() {
		case reflect.Slice, reflect.Array:
			return f.Len()%2 == 0
		default:
			return false
		}
	}); err != nil {
		panic(fmt.Sprintf("envelope: register pairs validation: %v", err))
	}

	return v
}

// Validate checks the struct tags of an envelope value.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("envelope validation failed: %w", err)
	}
	return nil
}

// Validator returns the shared validator so other packages can validate
// their own configuration with the same registered rules.
func Validator() *validator.Validate {
	return validate
}
