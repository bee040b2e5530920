package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/lcarchive/internal/adapters/archive"
	"github.com/okian/lcarchive/internal/adapters/archive/dirarchive"
	"github.com/okian/lcarchive/internal/adapters/archive/sqlitearchive"
	"github.com/okian/lcarchive/internal/adapters/repository"
	"github.com/okian/lcarchive/internal/config"
)

// Opener opens the archive at path.
type Opener func(path string) (archive.Archive, error)

// OpenerFor returns the opener for an archive format (dir or sqlite).
func OpenerFor(format string) (Opener, error) {
	switch format {
	case config.FormatDir:
		return func(path string) (archive.Archive, error) { return dirarchive.Open(path) }, nil
	case config.FormatSQLite:
		return func(path string) (archive.Archive, error) { return sqlitearchive.Open(path) }, nil
	}
	return nil, fmt.Errorf("%w: archive format %q", config.ErrInvalidConfig, format)
}

// state is one complete load of every catalog. Readers hold a reference
// while they use its archives; a reload waits for them before closing.
type state struct {
	generation uint64
	store      *repository.MemoryStore
	archives   map[string]archive.Archive
	attrs      map[string]map[string]string
	inflight   sync.WaitGroup
}

type loaded struct {
	arc   archive.Archive
	table repository.Table
	attrs map[string]string
}

// load opens every catalog concurrently. Either all succeed or every
// archive opened along the way is closed.
func (s *Service) load(ctx context.Context, generation uint64) (*state, error) {
	if len(s.catalogs) == 0 {
		return nil, ErrNoCatalogs
	}

	results := make([]loaded, len(s.catalogs))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range s.catalogs {
		i, spec := i, spec
		g.Go(func() error {
			arc, err := s.open(spec.Path)
			if err != nil {
				return fmt.Errorf("open %s catalog at %s: %w", spec.Source.Name, spec.Path, err)
			}
			results[i].arc = arc

			cat, err := arc.Catalog(gctx)
			if err != nil {
				return fmt.Errorf("read %s catalog: %w", spec.Source.Name, err)
			}
			attrs, err := arc.Attributes(gctx)
			if err != nil {
				return fmt.Errorf("read %s attributes: %w", spec.Source.Name, err)
			}
			results[i].table = repository.Table{Source: spec.Source, Catalog: cat}
			results[i].attrs = attrs
			return nil
		})
	}

	closeAll := func() {
		for _, r := range results {
			if r.arc != nil {
				_ = r.arc.Close()
			}
		}
	}
	if err := g.Wait(); err != nil {
		closeAll()
		return nil, err
	}

	tables := make([]repository.Table, len(results))
	for i, r := range results {
		tables[i] = r.table
	}
	store, err := repository.Load(ctx, tables...)
	if err != nil {
		closeAll()
		return nil, err
	}

	st := &state{
		generation: generation,
		store:      store,
		archives:   make(map[string]archive.Archive, len(results)),
		attrs:      make(map[string]map[string]string, len(results)),
	}
	for _, r := range results {
		st.archives[r.table.Source.Name] = r.arc
		st.attrs[r.table.Source.Name] = r.attrs
	}
	return st, nil
}

// close waits for readers of st and closes its archives.
func (st *state) close() {
	st.inflight.Wait()
	for _, a := range st.archives {
		_ = a.Close()
	}
}
