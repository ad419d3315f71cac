package reporter

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/unseeyou/odometer-app/internal/timezone"
)

var validate = validator.New()

type Config struct {
	ServerURL string `validate:"required,url"`
	// Timezone overrides host detection when set.
	Timezone     string        `validate:"omitempty,timezone"`
	Timeout      time.Duration `validate:"gte=0"`
	DrainTimeout time.Duration `validate:"gte=0"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	return nil
}

// Source returns the configured override, or host detection when there is none.
func (c *Config) Source(opts ...timezone.Option) timezone.Source {
	if c.Timezone != "" {
		return timezone.Fixed(c.Timezone)
	}
	return timezone.NewSystem(opts...)
}
