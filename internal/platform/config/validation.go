package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("config validation failed")

// validate reports fields by their koanf keys, so messages name the
// setting as it is written in config.yaml.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}

		return name
	})

	return v
}

// Validate checks the configuration and reports every problem, one per line.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}

		for _, fe := range fieldErrs {
			problems = append(problems, describeFieldError(fe))
		}
	}

	for _, key := range c.EnableVendors {
		if _, ok := c.Vendors[key]; !ok {
			problems = append(problems, fmt.Sprintf("enable_vendors: vendor %q is not configured", key))
		}
	}

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("%w:\n  %s", ErrInvalid, strings.Join(problems, "\n  "))
}

func describeFieldError(fe validator.FieldError) string {
	key := settingKey(fe.Namespace())

	var rule string

	switch fe.Tag() {
	case "required":
		rule = "is required"
	case "required_if":
		rule = "is required when enabled"
	case "min":
		rule = "must be at least " + fe.Param()
	case "max":
		rule = "must be at most " + fe.Param()
	case "oneof":
		rule = "must be one of: " + fe.Param()
	case "url":
		rule = "must be a valid URL"
	case "http_url":
		rule = "must be an http or https URL"
	default:
		rule = "failed validation: " + fe.Tag()
	}

	return key + " " + rule
}

// settingKey drops the root struct name from a validator namespace,
// turning "Config.vendors[zenquotes].queries.quote" into
// "vendors[zenquotes].queries.quote".
func settingKey(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}

	return namespace
}
