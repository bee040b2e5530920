package service

import (
	"github.com/okian/lcarchive/internal/adapters/cache"
	"github.com/okian/lcarchive/internal/adapters/repository"
	"github.com/okian/lcarchive/internal/domain/clip"
	"github.com/okian/lcarchive/pkg/logger"
)

// CatalogSpec names one catalog and where its archive lives.
type CatalogSpec struct {
	Source repository.Source
	Path   string
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalogs sets the catalogs to load, in order.
func WithCatalogs(specs ...CatalogSpec) Option {
	return func(s *Service) {
		s.catalogs = append([]CatalogSpec(nil), specs...)
	}
}

// WithOpener sets how archives are opened and the backend name used in
// metrics.
func WithOpener(backend string, open Opener) Option {
	return func(s *Service) {
		if open != nil {
			s.backend = backend
			s.open = open
		}
	}
}

// WithFilter sets the outlier filter used when clipping is requested.
func WithFilter(f *clip.Filter) Option {
	return func(s *Service) {
		if f != nil {
			s.filter = f
		}
	}
}

// WithCache enables the curve cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithDefaults sets the clip and datetime defaults reported by Defaults.
func WithDefaults(clipOn, datetime bool) Option {
	return func(s *Service) {
		s.defaultClip = clipOn
		s.defaultDatetime = datetime
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
