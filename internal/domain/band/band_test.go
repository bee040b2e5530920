package band_test

import (
	"errors"
	"testing"

	"github.com/okian/lcarchive/internal/domain/band"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given band names", t, func() {
		Convey("When parsing a known band with odd casing", func() {
			b, err := band.Parse(" G ")

			Convey("Then it should normalize it", func() {
				So(err, ShouldBeNil)
				So(b, ShouldEqual, band.G)
			})
		})

		Convey("When parsing an unknown band", func() {
			_, err := band.Parse("y")

			Convey("Then it should fail with ErrUnknownBand", func() {
				So(errors.Is(err, band.ErrUnknownBand), ShouldBeTrue)
			})
		})
	})
}

func TestParseList(t *testing.T) {
	Convey("Given band lists", t, func() {
		Convey("When the list is empty", func() {
			bands, err := band.ParseList("")

			Convey("Then every band is returned in order", func() {
				So(err, ShouldBeNil)
				So(bands, ShouldResemble, band.All)
			})
		})

		Convey("When the list has duplicates", func() {
			bands, err := band.ParseList("g,r,g,i")

			Convey("Then duplicates are dropped", func() {
				So(err, ShouldBeNil)
				So(bands, ShouldResemble, []band.Band{band.G, band.R, band.I})
				So(band.Join(bands), ShouldEqual, "g,r,i")
			})
		})

		Convey("When the list has an unknown entry", func() {
			_, err := band.ParseList("g,x")

			Convey("Then it fails", func() {
				So(errors.Is(err, band.ErrUnknownBand), ShouldBeTrue)
			})
		})
	})
}

func TestColumns(t *testing.T) {
	Convey("Column helpers follow the archive naming", t, func() {
		So(band.R.MJDColumn(), ShouldEqual, "mjd_r")
		So(band.R.PSFMagColumn(), ShouldEqual, "psfmag_r")
		So(band.R.PSFMagErrColumn(), ShouldEqual, "psfmagerr_r")
		So(band.R.ExtinctionColumn(), ShouldEqual, "extinction_r")
		So(band.R.DeredColumn(), ShouldEqual, "dered_r")
		So(band.R.DatetimeColumn(), ShouldEqual, "datetime_r")
	})
}
