package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/lcarchive/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lcarchive.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.CacheMaxItems, convey.ShouldEqual, 10_000)
			})
		})
	})

	convey.Convey("Given environment variables", t, func() {
		t.Setenv("LCA_ADDR", ":8080")
		t.Setenv("LCA_CLIP_SEED_MODE", "sigma")
		t.Setenv("LCA_CLIP_SIGMA_FACTOR", "2.5")
		t.Setenv("LCA_DEFAULT_CLIP", "false")
		t.Setenv("LCA_CACHE_MAX_ITEMS", "42")

		cfg, err := config.Load(ctx)

		convey.Convey("Then they override defaults", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.ClipSeedMode, convey.ShouldEqual, "sigma")
			convey.So(cfg.ClipSigmaFactor, convey.ShouldEqual, 2.5)
			convey.So(cfg.DefaultClip, convey.ShouldBeFalse)
			convey.So(cfg.CacheMaxItems, convey.ShouldEqual, 42)
		})
	})

	convey.Convey("Given a YAML file and an env override", t, func() {
		path := writeConfig(t, `
addr: ":9090"
archive_format: sqlite
qso_path: /srv/qso.db
var_path: /srv/var.db
clip_seed: 0.3
`)
		t.Setenv("LCA_CONFIG", path)
		t.Setenv("LCA_ADDR", ":7070")

		cfg, err := config.Load(ctx)

		convey.Convey("Then env wins over file and file over defaults", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			convey.So(cfg.ArchiveFormat, convey.ShouldEqual, config.FormatSQLite)
			convey.So(cfg.QSOPath, convey.ShouldEqual, "/srv/qso.db")
			convey.So(cfg.ClipSeed, convey.ShouldEqual, 0.3)
			convey.So(cfg.ClipStep, convey.ShouldEqual, 0.1)
		})
	})

	convey.Convey("Given an invalid YAML file", t, func() {
		t.Setenv("LCA_CONFIG", writeConfig(t, `invalid: yaml: content: [`))

		cfg, err := config.Load(ctx)

		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		convey.So(cfg, convey.ShouldBeNil)
	})

	convey.Convey("Given a non-existent file", t, func() {
		t.Setenv("LCA_CONFIG", "/non/existent/file.yaml")

		cfg, err := config.Load(ctx)

		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		convey.So(cfg, convey.ShouldBeNil)
	})

	convey.Convey("Given an empty addr", t, func() {
		t.Setenv("LCA_CONFIG", "")
		t.Setenv("LCA_ADDR", "")

		cfg, err := config.Load(ctx)

		convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		convey.So(cfg, convey.ShouldBeNil)
	})
}
