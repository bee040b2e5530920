// Command lcconvert copies a directory light-curve archive into a single
// SQLite file readable by the server with archive_format=sqlite.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/lcarchive/internal/adapters/archive/dirarchive"
	"github.com/okian/lcarchive/internal/adapters/archive/sqlitearchive"
	"github.com/okian/lcarchive/internal/adapters/repository"
	"github.com/okian/lcarchive/internal/domain/lightcurve"
	"github.com/okian/lcarchive/pkg/logger"
)

func main() {
	opts, err := NewOptions(os.Args)
	if err != nil {
		fmt.Fprint(os.Stderr, opts.Usage(err))
		os.Exit(2)
	}
	if err := logger.Init(logger.WithLevel(*opts.LogLevel), logger.WithWriter(os.Stderr)); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := convert(ctx, *opts.In, *opts.Out, opts.CatalogSource())
	if err != nil {
		logger.Get().Error(ctx, "conversion failed", logger.Error(err))
		os.Exit(1)
	}
	logger.Get().Info(ctx, "archive converted",
		logger.String("in", *opts.In),
		logger.String("out", *opts.Out),
		logger.Int("light_curves", n),
	)
}

// convert reads every light curve the catalog in dir points at and writes
// the lot to a new SQLite archive at out. It returns the number of curves.
func convert(ctx context.Context, dir, out string, src repository.Source) (int, error) {
	in, err := dirarchive.Open(dir)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	catalog, err := in.Catalog(ctx)
	if err != nil {
		return 0, err
	}
	attrs, err := in.Attributes(ctx)
	if err != nil {
		return 0, err
	}
	store, err := repository.Load(ctx, repository.Table{Source: src, Catalog: catalog})
	if err != nil {
		return 0, err
	}

	log := logger.Get()
	curves := make(map[string]*lightcurve.Table)
	for _, entry := range store.IDs(ctx) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		key, err := store.LightCurveKey(ctx, entry.TrainID)
		if err != nil {
			return 0, err
		}
		if _, ok := curves[key]; ok {
			continue
		}
		t, err := in.LightCurve(ctx, key)
		if err != nil {
			return 0, fmt.Errorf("train_id %d: %w", entry.TrainID, err)
		}
		curves[key] = t
		log.Debug(ctx, "light curve read", logger.Int64("train_id", entry.TrainID), logger.String("key", key))
	}

	if err := sqlitearchive.Write(ctx, out, catalog, attrs, curves); err != nil {
		return 0, err
	}
	return len(curves), nil
}
