package config_test

import (
	"errors"
	"testing"

	"github.com/okian/lcarchive/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.ArchiveFormat, convey.ShouldEqual, config.FormatDir)
			convey.So(cfg.ClipSeedMode, convey.ShouldEqual, "fixed")
			convey.So(cfg.ClipSeed, convey.ShouldEqual, 0.25)
			convey.So(cfg.ClipStep, convey.ShouldEqual, 0.1)
			convey.So(cfg.ClipMaxRejectRatio, convey.ShouldEqual, 0.1)
			convey.So(cfg.DefaultClip, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given configs violating constraints", t, func() {
		for name, mutate := range map[string]func(*config.Config){
			"unknown format":    func(c *config.Config) { c.ArchiveFormat = "zarr" },
			"unknown seed mode": func(c *config.Config) { c.ClipSeedMode = "auto" },
			"zero step":         func(c *config.Config) { c.ClipStep = 0 },
			"ratio above one":   func(c *config.Config) { c.ClipMaxRejectRatio = 1.5 },
			"no qso path":       func(c *config.Config) { c.QSOPath = "" },
			"bad log format":    func(c *config.Config) { c.LogFormat = "xml" },
		} {
			name, mutate := name, mutate
			convey.Convey("Then "+name+" is rejected", func() {
				cfg := config.New()
				mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
