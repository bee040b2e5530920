package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/okian/lcarchive/internal/adapters/archive"
	"github.com/okian/lcarchive/internal/adapters/archive/dirarchive"
	"github.com/okian/lcarchive/internal/adapters/cache"
	"github.com/okian/lcarchive/internal/adapters/repository"
	service "github.com/okian/lcarchive/internal/app"
	"github.com/okian/lcarchive/internal/config"
	"github.com/okian/lcarchive/internal/domain/band"
	"github.com/okian/lcarchive/internal/domain/clip"
	"github.com/okian/lcarchive/internal/domain/lightcurve"
	"github.com/okian/lcarchive/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
}

func started(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	qsoPath, varPath := writeArchives(t, t.TempDir())
	svc := service.New(append([]service.Option{catalogOptions(qsoPath, varPath)}, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Then queries report it", func() {
			_, err := svc.IDs(ctx)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(errors.Is(svc.Reload(ctx), service.ErrNotStarted), ShouldBeTrue)
			So(svc.Stats()["started"], ShouldEqual, false)
		})

		Convey("Then starting without catalogs fails", func() {
			So(errors.Is(svc.Start(ctx), service.ErrNoCatalogs), ShouldBeTrue)
		})
	})

	Convey("Given a catalog path that does not exist", t, func() {
		qsoPath, _ := writeArchives(t, t.TempDir())
		svc := service.New(catalogOptions(qsoPath, filepath.Join(t.TempDir(), "missing")))

		Convey("Then Start fails as a whole", func() {
			err := svc.Start(ctx)
			So(errors.Is(err, archive.ErrInvalidArchive), ShouldBeTrue)
			_, err = svc.IDs(ctx)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_Catalog(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := started(t)

		Convey("IDs lists both catalogs with their class", func() {
			ids, err := svc.IDs(ctx)
			So(err, ShouldBeNil)
			So(ids, ShouldResemble, []repository.IDEntry{
				{TrainID: 1, Type: repository.ClassAGN},
				{TrainID: 2, Type: repository.ClassAGN},
				{TrainID: 7, Type: repository.ClassNonAGN},
			})
		})

		Convey("Object and LightCurveKey translate ids", func() {
			rec, err := svc.Object(ctx, 7)
			So(err, ShouldBeNil)
			So(rec.Source, ShouldEqual, "vstar")
			key, err := svc.LightCurveKey(ctx, 7)
			So(err, ShouldBeNil)
			So(key, ShouldEqual, "5001")

			_, err = svc.LightCurveKey(ctx, 404)
			So(errors.Is(err, repository.ErrUnknownObjectID), ShouldBeTrue)
		})

		Convey("Catalog and CatalogMeta dump a source", func() {
			tbl, err := svc.Catalog(ctx, "qso")
			So(err, ShouldBeNil)
			So(tbl.Len(), ShouldEqual, 2)

			meta, err := svc.CatalogMeta(ctx, "qso")
			So(err, ShouldBeNil)
			So(meta, ShouldResemble, map[string]string{"class": "spectral class"})

			meta, err = svc.CatalogMeta(ctx, "vstar")
			So(err, ShouldBeNil)
			So(meta, ShouldBeEmpty)

			_, err = svc.CatalogMeta(ctx, "crts")
			So(errors.Is(err, repository.ErrUnknownSource), ShouldBeTrue)
			_, err = svc.Catalog(ctx, "crts")
			So(errors.Is(err, repository.ErrUnknownSource), ShouldBeTrue)
		})

		Convey("Stats reports the load", func() {
			stats := svc.Stats()
			So(stats["started"], ShouldEqual, true)
			So(stats["objects"], ShouldEqual, 3)
			So(stats["sources"], ShouldResemble, map[string]int{"qso": 2, "vstar": 1})
		})
	})
}

func TestService_LightCurve(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := started(t)

		Convey("A variable star retrieved in g, r, i with clipping", func() {
			c, err := svc.LightCurve(ctx, 7, service.RetrieveOptions{Bands: band.GRI, Clip: true})
			So(err, ShouldBeNil)
			So(c.TrainID, ShouldEqual, 7)
			So(c.Class, ShouldEqual, repository.ClassNonAGN)
			So(c.BandList(), ShouldResemble, band.GRI)

			Convey("has three equal-length sequences per band", func() {
				for _, bc := range c.Bands {
					So(bc.MJD, ShouldHaveLength, epochs)
					So(bc.Dered, ShouldHaveLength, epochs)
					So(bc.PSFMagErr, ShouldHaveLength, epochs)
				}
			})

			Convey("never exposes the sentinel", func() {
				for _, bc := range c.Bands {
					for i := range bc.Dered {
						So(bc.Dered[i].Valid && bc.Dered[i].Float <= lightcurve.Sentinel+1, ShouldBeFalse)
						So(bc.MJD[i].Valid && bc.MJD[i].Float == lightcurve.Sentinel, ShouldBeFalse)
					}
				}
				g, _ := c.Band(band.G)
				So(g.Dered[1].Valid, ShouldBeFalse)
			})

			Convey("is ordered by time", func() {
				for _, bc := range c.Bands {
					for i := 1; i < len(bc.MJD); i++ {
						So(bc.MJD[i].Float, ShouldBeGreaterThanOrEqualTo, bc.MJD[i-1].Float)
					}
				}
			})

			Convey("masks the flare and keeps the rest", func() {
				r, _ := c.Band(band.R)
				So(r.Dered[3].Valid, ShouldBeFalse)
				So(r.Dered[4].Valid, ShouldBeTrue)
				So(r.Dered[4].Float, ShouldAlmostEqual, 17.0, 1e-9)
				So(r.Clip.Masked, ShouldEqual, 1)
			})
		})

		Convey("Without clipping the flare is kept", func() {
			c, err := svc.LightCurve(ctx, 7, service.RetrieveOptions{Bands: []band.Band{band.R}})
			So(err, ShouldBeNil)
			r, _ := c.Band(band.R)
			So(r.Dered[3].Valid, ShouldBeTrue)
			So(r.Clip, ShouldBeNil)
		})

		Convey("Datetime columns are added on request", func() {
			c, err := svc.LightCurve(ctx, 7, service.RetrieveOptions{Bands: []band.Band{band.U}, Datetime: true})
			So(err, ShouldBeNil)
			u, _ := c.Band(band.U)
			So(u.Datetime[0].Time.Equal(lightcurve.MJDToTime(53000)), ShouldBeTrue)
		})

		Convey("Unknown ids fail with a typed error", func() {
			_, err := svc.LightCurve(ctx, 404, svc.Defaults())
			So(errors.Is(err, repository.ErrUnknownObjectID), ShouldBeTrue)
		})

		Convey("A catalogued object without a light curve is a hard error", func() {
			_, err := svc.LightCurve(ctx, 2, svc.Defaults())
			So(errors.Is(err, archive.ErrLightCurveNotFound), ShouldBeTrue)
		})

		Convey("A band absent from the light curve is a missing band", func() {
			_, err := svc.LightCurve(ctx, 1, service.RetrieveOptions{Bands: []band.Band{band.Z}})
			So(errors.Is(err, lightcurve.ErrMissingBand), ShouldBeTrue)

			c, err := svc.LightCurve(ctx, 1, service.RetrieveOptions{Bands: band.GRI, Clip: true})
			So(err, ShouldBeNil)
			So(c.Rows, ShouldEqual, epochs)
		})
	})
}

// errorLog counts error-level entries and drops everything else.
type errorLog struct {
	mu     sync.Mutex
	errors []string
}

func (l *errorLog) Info(context.Context, string, ...logger.Field)  {}
func (l *errorLog) Debug(context.Context, string, ...logger.Field) {}
func (l *errorLog) Warn(context.Context, string, ...logger.Field)  {}
func (l *errorLog) Fatal(context.Context, string, ...logger.Field) {}
func (l *errorLog) Named(string) logger.Logger                     { return l }
func (l *errorLog) Error(_ context.Context, msg string, _ ...logger.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func TestService_MissingLightCurveIsNotLogged(t *testing.T) {
	log := &errorLog{}
	svc := started(t, service.WithLogger(log))
	ctx := context.Background()

	Convey("A missing light curve is returned to the caller without an error log", t, func() {
		_, err := svc.LightCurve(ctx, 2, svc.Defaults())
		So(errors.Is(err, archive.ErrLightCurveNotFound), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "qso key 2")

		log.mu.Lock()
		defer log.mu.Unlock()
		So(log.errors, ShouldBeEmpty)
	})
}

func TestService_Plot(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := started(t)

		Convey("Plot drops missing epochs", func() {
			series, err := svc.Plot(ctx, 7, service.PlotOptions{Bands: []band.Band{band.G, band.R}, Clip: true})
			So(err, ShouldBeNil)
			So(series, ShouldHaveLength, 2)
			So(series[0].Len(), ShouldEqual, epochs-1)
			So(series[1].Len(), ShouldEqual, epochs-1)
			for _, s := range series {
				So(s.MJD, ShouldHaveLength, len(s.Mag))
				So(s.Err, ShouldHaveLength, len(s.Mag))
			}
		})

		Convey("Plot restricts to a window", func() {
			series, err := svc.Plot(ctx, 7, service.PlotOptions{
				Bands: []band.Band{band.U},
				From:  lightcurve.MJDToTime(53005),
				To:    lightcurve.MJDToTime(53009.5),
			})
			So(err, ShouldBeNil)
			So(series[0].MJD, ShouldResemble, []float64{53005, 53006, 53007, 53008, 53009})
		})

		Convey("Merge overlays g, r, i around zero", func() {
			series, err := svc.Merge(ctx, 7, "")
			So(err, ShouldBeNil)
			So(series, ShouldHaveLength, 3)
			for _, s := range series {
				So(s.Offset, ShouldNotEqual, 0)
				for _, m := range s.Mag {
					So(m, ShouldAlmostEqual, 0, 1e-9)
				}
			}
		})

		Convey("Merge of a quasar without z still works", func() {
			series, err := svc.Merge(ctx, 1, lightcurve.NormalizeMean)
			So(err, ShouldBeNil)
			So(series, ShouldHaveLength, 3)
		})
	})
}

func TestService_CacheAndReload(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a curve cache", t, func() {
		c, err := cache.New(cache.WithMaxItems(16))
		So(err, ShouldBeNil)
		qsoPath, varPath := writeArchives(t, t.TempDir())
		svc := service.New(catalogOptions(qsoPath, varPath), service.WithCache(c))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		opts := service.RetrieveOptions{Bands: band.GRI, Clip: true}

		Convey("A repeated retrieval is served from the cache", func() {
			first, err := svc.LightCurve(ctx, 7, opts)
			So(err, ShouldBeNil)
			c.Wait()
			second, err := svc.LightCurve(ctx, 7, opts)
			So(err, ShouldBeNil)
			So(second, ShouldEqual, first)
		})

		Convey("Reload picks up catalog changes and drops cached curves", func() {
			first, err := svc.LightCurve(ctx, 7, opts)
			So(err, ShouldBeNil)
			c.Wait()

			cat := catalogTable(t, []string{"class"},
				[]string{"1", "QSO", "0.1", "0.1", "0.1", "0.1", "0.1"},
				[]string{"2", "QSO", "0.1", "0.1", "0.1", "0.1", "0.1"},
				[]string{"3", "QSO", "0.1", "0.1", "0.1", "0.1", "0.1"},
			)
			So(os.RemoveAll(qsoPath), ShouldBeNil)
			So(dirarchive.Write(ctx, qsoPath, cat, nil,
				map[string]*lightcurve.Table{"1": rawCurve(19, band.Z), "3": rawCurve(18)}), ShouldBeNil)

			So(svc.Reload(ctx), ShouldBeNil)
			ids, err := svc.IDs(ctx)
			So(err, ShouldBeNil)
			So(ids, ShouldHaveLength, 4)
			So(svc.Stats()["reloads"], ShouldEqual, 1)

			again, err := svc.LightCurve(ctx, 7, opts)
			So(err, ShouldBeNil)
			So(again, ShouldNotEqual, first)
		})

		Convey("A failed reload keeps the current catalogs", func() {
			So(os.RemoveAll(qsoPath), ShouldBeNil)
			So(svc.Reload(ctx), ShouldNotBeNil)
			ids, err := svc.IDs(ctx)
			So(err, ShouldBeNil)
			So(ids, ShouldHaveLength, 3)
		})
	})
}

func TestOptionsFromConfig(t *testing.T) {
	ctx := context.Background()

	Convey("Given a config pointing at directory archives", t, func() {
		qsoPath, varPath := writeArchives(t, t.TempDir())
		cfg := config.New()
		cfg.QSOPath = qsoPath
		cfg.VarPath = varPath
		cfg.ClipSeedMode = "sigma"

		opts, err := service.OptionsFromConfig(cfg)
		So(err, ShouldBeNil)
		svc := service.New(opts...)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		stats := svc.Stats()
		So(stats["clip_mode"], ShouldEqual, clip.SeedSigma.String())
		So(stats["cache_enabled"], ShouldEqual, true)
		So(stats["backend"], ShouldEqual, config.FormatDir)
	})

	Convey("Given an unknown archive format", t, func() {
		cfg := config.New()
		cfg.ArchiveFormat = "zarr"
		_, err := service.OptionsFromConfig(cfg)
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
	})

	Convey("Given an unknown seed mode", t, func() {
		cfg := config.New()
		cfg.ClipSeedMode = "auto"
		_, err := service.FilterFromConfig(cfg)
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
	})
}
