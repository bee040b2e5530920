// Package service provides the retrieval service behind the HTTP API: it
// loads the catalogs, resolves train IDs and builds cleaned light curves.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/lcarchive/internal/adapters/archive"
	"github.com/okian/lcarchive/internal/adapters/cache"
	"github.com/okian/lcarchive/internal/adapters/repository"
	"github.com/okian/lcarchive/internal/domain/band"
	"github.com/okian/lcarchive/internal/domain/clip"
	"github.com/okian/lcarchive/internal/domain/lightcurve"
	"github.com/okian/lcarchive/pkg/logger"
	"github.com/okian/lcarchive/pkg/metrics"
)

// Service answers catalog and light-curve queries.
type Service struct {
	mu sync.RWMutex

	// Configuration
	catalogs        []CatalogSpec
	open            Opener
	backend         string
	filter          *clip.Filter
	cache           *cache.Cache
	defaultClip     bool
	defaultDatetime bool

	// State
	state    *state
	loadedAt time.Time
	reloads  int

	logger logger.Logger
}

// RetrieveOptions selects what LightCurve builds. Empty Bands means all.
type RetrieveOptions struct {
	Bands    []band.Band
	Clip     bool
	Datetime bool
}

// PlotOptions selects what Plot shapes. Zero From/To leave the window open.
type PlotOptions struct {
	Bands     []band.Band
	Clip      bool
	Normalize lightcurve.Normalization
	From      time.Time
	To        time.Time
}

// New constructs a Service. Catalogs are not loaded until Start.
func New(opts ...Option) *Service {
	openDir, _ := OpenerFor("dir")
	s := &Service{
		open:            openDir,
		backend:         "dir",
		filter:          clip.New(),
		defaultClip:     true,
		defaultDatetime: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads every catalog. It fails if any catalog cannot be loaded.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != nil {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "loading catalogs...", logger.Int("catalogs", len(s.catalogs)))
	st, err := s.load(ctx, 1)
	if err != nil {
		return err
	}
	s.state = st
	s.loadedAt = time.Now()
	s.logger.Info(ctx, "catalogs loaded",
		logger.Int("objects", st.store.Count(ctx)),
		logger.Any("sources", st.store.Sources(ctx)),
		logger.String("backend", s.backend),
	)
	return nil
}

// Stop closes every archive and the cache.
func (s *Service) Stop() {
	s.mu.Lock()
	st := s.state
	s.state = nil
	s.mu.Unlock()

	if st == nil {
		return
	}
	st.close()
	if s.cache != nil {
		s.cache.Close()
	}
	s.logger.Info(context.Background(), "service stopped")
}

// Reload loads every catalog again and swaps the result in atomically.
// On failure the current state is kept.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.RLock()
	cur := s.state
	s.mu.RUnlock()
	if cur == nil {
		return ErrNotStarted
	}

	next, err := s.load(ctx, cur.generation+1)
	metrics.RecordReload(err)
	if err != nil {
		metrics.RecordErrorByComponent("reload", "load_failed")
		s.logger.Error(ctx, "catalog reload failed", logger.Error(err))
		return err
	}

	s.mu.Lock()
	old := s.state
	if old == nil || old.generation >= next.generation {
		s.mu.Unlock()
		next.close()
		if old == nil {
			return ErrNotStarted
		}
		return fmt.Errorf("reload superseded by generation %d", old.generation)
	}
	s.state = next
	s.loadedAt = time.Now()
	s.reloads++
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Purge()
	}
	old.close()
	s.logger.Info(ctx, "catalogs reloaded",
		logger.Int("objects", next.store.Count(ctx)),
		logger.Int64("generation", int64(next.generation)),
	)
	return nil
}

// acquire returns the current state and registers the caller as a reader.
func (s *Service) acquire() (*state, func(), error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, nil, ErrNotStarted
	}
	st := s.state
	st.inflight.Add(1)
	return st, st.inflight.Done, nil
}

// Defaults returns the retrieval options used when a caller sets none.
func (s *Service) Defaults() RetrieveOptions {
	return RetrieveOptions{Bands: band.All, Clip: s.defaultClip, Datetime: s.defaultDatetime}
}

// LightCurve retrieves the cleaned light curve of id.
func (s *Service) LightCurve(ctx context.Context, id int64, opts RetrieveOptions) (*lightcurve.Curve, error) {
	st, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return s.lightCurve(ctx, st, id, opts)
}

func (s *Service) lightCurve(ctx context.Context, st *state, id int64, opts RetrieveOptions) (*lightcurve.Curve, error) {
	start := time.Now()

	rec, err := st.store.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	bands := opts.Bands
	if len(bands) == 0 {
		bands = band.All
	}

	key := cache.Key{TrainID: id, Bands: bands, Clip: opts.Clip, Datetime: opts.Datetime, Generation: st.generation}
	if s.cache != nil {
		if c, ok := s.cache.Get(key); ok {
			return c, nil
		}
	}

	arc, ok := st.archives[rec.Source]
	if !ok {
		return nil, fmt.Errorf("%w: no archive for source %s", archive.ErrInvalidArchive, rec.Source)
	}
	readStart := time.Now()
	raw, err := arc.LightCurve(ctx, rec.LightCurveKey)
	metrics.RecordArchiveRead(s.backend, msSince(readStart))
	if err != nil {
		metrics.RecordErrorByComponent("archive", s.backend)
		return nil, fmt.Errorf("train_id %d (%s key %s): %w", id, rec.Source, rec.LightCurveKey, err)
	}

	build := lightcurve.BuildOptions{
		Bands:      bands,
		Extinction: rec.Extinction,
		Datetime:   opts.Datetime,
	}
	if opts.Clip {
		build.Filter = s.filter
	}
	c, err := lightcurve.Build(raw, build)
	if err != nil {
		return nil, fmt.Errorf("train_id %d: %w", id, err)
	}
	c.TrainID = rec.TrainID
	c.Class = rec.Class
	c.Source = rec.Source

	for _, bc := range c.Bands {
		if bc.Clip == nil {
			continue
		}
		ratio := 0.0
		if bc.Clip.Considered > 0 {
			ratio = float64(bc.Clip.Masked) / float64(bc.Clip.Considered)
		}
		metrics.RecordClip(bc.Band.String(), bc.Clip.Masked, bc.Clip.Steps, bc.Clip.Threshold, ratio)
	}

	if s.cache != nil {
		s.cache.Set(key, c)
	}
	metrics.RecordRetrieval(rec.Source, opts.Clip, msSince(start))
	s.logger.Debug(ctx, "light curve built",
		logger.Int64("train_id", id),
		logger.Int("rows", c.Rows),
		logger.String("bands", band.Join(bands)),
		logger.Bool("clip", opts.Clip),
	)
	return c, nil
}

// Plot returns per-band series ready for plotting.
func (s *Service) Plot(ctx context.Context, id int64, opts PlotOptions) ([]lightcurve.Series, error) {
	c, err := s.LightCurve(ctx, id, RetrieveOptions{Bands: opts.Bands, Clip: opts.Clip})
	if err != nil {
		return nil, err
	}
	return lightcurve.Shape(c, opts.Bands, opts.Normalize, lightcurve.Window{From: opts.From, To: opts.To})
}

// Merge returns the clipped g, r and i series of id, each shifted by its
// own mean or median so the bands overlay. Empty how means median.
func (s *Service) Merge(ctx context.Context, id int64, how lightcurve.Normalization) ([]lightcurve.Series, error) {
	if how == "" {
		how = lightcurve.NormalizeMedian
	}
	return s.Plot(ctx, id, PlotOptions{Bands: band.GRI, Clip: true, Normalize: how})
}

// IDs lists every train ID with its class.
func (s *Service) IDs(ctx context.Context) ([]repository.IDEntry, error) {
	st, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return st.store.IDs(ctx), nil
}

// Sources lists the loaded catalog names.
func (s *Service) Sources(ctx context.Context) ([]string, error) {
	st, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return st.store.Sources(ctx), nil
}

// Catalog returns the full catalog table of source.
func (s *Service) Catalog(ctx context.Context, source string) (*archive.Table, error) {
	st, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return st.store.Catalog(ctx, source)
}

// CatalogMeta returns the column descriptions of source.
func (s *Service) CatalogMeta(ctx context.Context, source string) (map[string]string, error) {
	st, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	attrs, ok := st.attrs[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrUnknownSource, source)
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out, nil
}

// Object returns the catalog record of id.
func (s *Service) Object(ctx context.Context, id int64) (repository.Record, error) {
	st, release, err := s.acquire()
	if err != nil {
		return repository.Record{}, err
	}
	defer release()
	return st.store.Lookup(ctx, id)
}

// LightCurveKey returns the key id's light curve is stored under.
func (s *Service) LightCurveKey(ctx context.Context, id int64) (string, error) {
	st, release, err := s.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	return st.store.LightCurveKey(ctx, id)
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.state != nil,
		"backend":       s.backend,
		"clip_mode":     s.filter.Mode().String(),
		"cache_enabled": s.cache != nil,
		"reloads":       s.reloads,
	}
	if s.state == nil {
		return stats
	}

	perSource := make(map[string]int)
	for _, src := range s.state.store.Sources(ctx) {
		recs, err := s.state.store.Records(ctx, src)
		if err == nil {
			perSource[src] = len(recs)
		}
	}
	stats["objects"] = s.state.store.Count(ctx)
	stats["sources"] = perSource
	stats["generation"] = s.state.generation
	stats["loaded_at"] = s.loadedAt.UTC().Format(time.RFC3339)
	for _, name := range []string{"retrievals_total", "cache_requests_total", "clip_masked_points_total"} {
		if v, err := metrics.Value(name); err == nil {
			stats[name] = v
		}
	}
	return stats
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
