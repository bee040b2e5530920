package service

import (
	"fmt"
	"time"

	"github.com/okian/lcarchive/internal/adapters/cache"
	"github.com/okian/lcarchive/internal/adapters/repository"
	"github.com/okian/lcarchive/internal/config"
	"github.com/okian/lcarchive/internal/domain/clip"
)

// FilterFromConfig builds the outlier filter described by cfg.
func FilterFromConfig(cfg *config.Config) (*clip.Filter, error) {
	mode, err := clip.ParseSeedMode(cfg.ClipSeedMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	opts := []clip.Option{
		clip.WithStep(cfg.ClipStep),
		clip.WithMaxRejectRatio(cfg.ClipMaxRejectRatio),
	}
	switch mode {
	case clip.SeedSigma:
		opts = append(opts, clip.WithSigmaSeed(cfg.ClipSigmaFactor))
	default:
		opts = append(opts, clip.WithFixedSeed(cfg.ClipSeed))
	}
	return clip.New(opts...), nil
}

// OptionsFromConfig translates cfg into Service options. The returned
// cache, if any, is owned by the Service and closed by Stop.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	open, err := OpenerFor(cfg.ArchiveFormat)
	if err != nil {
		return nil, err
	}
	filter, err := FilterFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithCatalogs(
			CatalogSpec{Source: repository.QSOSource, Path: cfg.QSOPath},
			CatalogSpec{Source: repository.VarSource, Path: cfg.VarPath},
		),
		WithOpener(cfg.ArchiveFormat, open),
		WithFilter(filter),
		WithDefaults(cfg.DefaultClip, cfg.DefaultDatetime),
	}
	if cfg.CacheEnabled {
		c, err := cache.New(
			cache.WithMaxItems(cfg.CacheMaxItems),
			cache.WithTTL(time.Duration(cfg.CacheTTLSeconds)*time.Second),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCache(c))
	}
	return opts, nil
}
