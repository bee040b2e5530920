package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/okian/lcarchive/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithRateLimit enables per-client rate limiting. Non-positive rps
// leaves limiting off.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = NewRateLimiter(rps, burst)
	}
}

// WithDocs mounts extra documentation routes on the router.
func WithDocs(register func(chi.Router)) Option {
	return func(s *Server) {
		s.docs = register
	}
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
