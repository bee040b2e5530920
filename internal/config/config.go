// Package config defines service configuration and its loading from
// defaults, an optional YAML file and LCA_ environment variables.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Archive formats.
const (
	FormatDir    = "dir"
	FormatSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`
	// LogFile, when set, also writes logs to a rotated file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// ArchiveFormat selects how QSOPath and VarPath are read.
	ArchiveFormat string `koanf:"archive_format" validate:"oneof=dir sqlite"`
	// QSOPath locates the quasar archive.
	QSOPath string `koanf:"qso_path" validate:"required"`
	// VarPath locates the variable star archive.
	VarPath string `koanf:"var_path" validate:"required"`

	// Outlier filter tuning.
	ClipSeedMode       string  `koanf:"clip_seed_mode" validate:"oneof=fixed sigma"`
	ClipSeed           float64 `koanf:"clip_seed" validate:"gte=0"`
	ClipSigmaFactor    float64 `koanf:"clip_sigma_factor" validate:"gt=0"`
	ClipStep           float64 `koanf:"clip_step" validate:"gt=0"`
	ClipMaxRejectRatio float64 `koanf:"clip_max_reject_ratio" validate:"gt=0,lte=1"`

	// Retrieval defaults applied when a request leaves them unset.
	DefaultClip     bool `koanf:"default_clip"`
	DefaultDatetime bool `koanf:"default_datetime"`

	// Curve cache.
	CacheEnabled    bool  `koanf:"cache_enabled"`
	CacheMaxItems   int64 `koanf:"cache_max_items" validate:"gte=1"`
	CacheTTLSeconds int   `koanf:"cache_ttl_seconds" validate:"gte=0"`

	// Per-client request rate limit. Zero disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `koanf:"rate_limit_burst" validate:"gte=0"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		ArchiveFormat:      FormatDir,
		QSOPath:            "data/qso",
		VarPath:            "data/var",
		ClipSeedMode:       "fixed",
		ClipSeed:           0.25,
		ClipSigmaFactor:    3,
		ClipStep:           0.1,
		ClipMaxRejectRatio: 0.1,
		DefaultClip:        true,
		DefaultDatetime:    true,
		CacheEnabled:       true,
		CacheMaxItems:      10_000,
		CacheTTLSeconds:    600,
		RateLimitRPS:       50,
		RateLimitBurst:     100,
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
