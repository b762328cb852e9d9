package keypager

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// InvalidCursorPolicy decides what a cursor pager does with a token that
// fails to decode.
type InvalidCursorPolicy string

const (
	// InvalidCursorReject returns an error wrapping ErrInvalidCursor.
	InvalidCursorReject InvalidCursorPolicy = "reject"
	// InvalidCursorFirstPage logs the error and serves the first page.
	InvalidCursorFirstPage InvalidCursorPolicy = "first_page"
)

const configKey = "pagination"

// Config holds host-level pagination settings. It is read once at startup;
// pagers copy what they need at construction.
type Config struct {
	DefaultLimit  int                 `mapstructure:"default_limit" validate:"gte=1"`
	MaxLimit      int                 `mapstructure:"max_limit" validate:"gte=1,gtefield=DefaultLimit"`
	Secret        string              `mapstructure:"secret" validate:"max=64"`
	InvalidCursor InvalidCursorPolicy `mapstructure:"invalid_cursor" validate:"oneof=reject first_page"`
}

// DefaultConfig returns the default pagination configuration
func DefaultConfig() Config {
	return Config{
		DefaultLimit:  DefaultLimit,
		MaxLimit:      MaxLimit,
		InvalidCursor: InvalidCursorReject,
	}
}

var _validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if err := _validate.Struct(c); err != nil {
		return fmt.Errorf("invalid pagination config: %w", err)
	}

	if len(c.Secret) > MaxSecretSize {
		return fmt.Errorf("invalid pagination config: secret is longer than %d bytes", MaxSecretSize)
	}

	return nil
}

// Limits returns the page size bounds of the configuration.
func (c Config) Limits() Limits {
	return Limits{Default: c.DefaultLimit, Max: c.MaxLimit}
}

// Codec builds a CursorCodec keyed by the configured secret.
func (c Config) Codec() (*CursorCodec, error) {
	return NewCursorCodec([]byte(c.Secret))
}

// LoadConfig reads the "pagination" section from v, applying defaults and
// the PAGINATION_* environment variables, and validates the result.
//
// Example YAML:
//
//	pagination:
//	  default_limit: 20
//	  max_limit: 200
//	  secret: change-me
//	  invalid_cursor: first_page
func LoadConfig(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	defaults := DefaultConfig()
	v.SetDefault(configKey+".default_limit", defaults.DefaultLimit)
	v.SetDefault(configKey+".max_limit", defaults.MaxLimit)
	v.SetDefault(configKey+".secret", defaults.Secret)
	v.SetDefault(configKey+".invalid_cursor", string(defaults.InvalidCursor))

	for _, key := range []string{"default_limit", "max_limit", "secret", "invalid_cursor"} {
		fullKey := configKey + "." + key
		if err := v.BindEnv(fullKey, strings.ToUpper(configKey+"_"+key)); err != nil {
			return Config{}, fmt.Errorf("failed to bind env for %s: %w", fullKey, err)
		}
	}

	var wrapper struct {
		Pagination Config `mapstructure:"pagination"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal pagination config: %w", err)
	}

	cfg := wrapper.Pagination
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
