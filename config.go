package ritual

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config controls one generator run.
type Config struct {
	// CrateName is the name of the generated crate.
	CrateName string `mapstructure:"crate_name" validate:"required"`

	// OutDir is where generated sources are written. Unused when the caller
	// provides its own output sink.
	OutDir string `mapstructure:"out_dir"`

	// MovableTypes lists class paths that are safe to hold by value. This is
	// the authoritative set; the advisor only suggests.
	MovableTypes []string `mapstructure:"movable_types"`

	// FlagsPattern matches the name of the flags wrapper template class.
	FlagsPattern string `mapstructure:"flags_pattern"`

	// MinSampleCount is the minimum number of usage observations before the
	// allocation-place advisor trusts its statistics.
	MinSampleCount int `mapstructure:"min_sample_count" validate:"gte=1"`

	// MaxValueFraction is the largest fraction of by-value usages still
	// considered compatible with heap placement.
	MaxValueFraction float64 `mapstructure:"max_value_fraction" validate:"gte=0,lte=1"`

	// SuggestOnly stops the run after the advisor passes; no code is
	// emitted.
	SuggestOnly bool `mapstructure:"suggest_only"`
}

// DefaultConfig returns a config with all tunables at their defaults. The
// crate name has no default and must be filled in.
func DefaultConfig() Config {
	return Config{
		FlagsPattern:     "QFlags",
		MinSampleCount:   5,
		MaxValueFraction: 0.3,
	}
}

// LoadConfig loads configuration with the following priority (highest to
// lowest): environment variables (RITUAL_*), ritual.yaml in dir, defaults.
// The result is not validated; callers apply their overrides first and then
// call Validate.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("ritual")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("RITUAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.BindEnv("crate_name")
	v.BindEnv("out_dir")
	v.BindEnv("flags_pattern")
	v.BindEnv("min_sample_count")
	v.BindEnv("max_value_fraction")
	v.BindEnv("suggest_only")

	defaults := DefaultConfig()
	v.SetDefault("flags_pattern", defaults.FlagsPattern)
	v.SetDefault("min_sample_count", defaults.MinSampleCount)
	v.SetDefault("max_value_fraction", defaults.MaxValueFraction)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the config against its declared constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: failed %q constraint", fe.Field(), fe.Tag())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
