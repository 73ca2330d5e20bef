package model_test

import (
	"errors"
	"testing"

	"github.com/okian/pitchdash/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestPitchRecord_ZoneCode(t *testing.T) {
	convey.Convey("Given pitch records with raw zone cells", t, func() {
		convey.Convey("When the zone is a plain integer", func() {
			z, err := model.PitchRecord{Zone: "5"}.ZoneCode()

			convey.Convey("Then it should parse", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(z, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When the zone is a whole float rendering", func() {
			z, err := model.PitchRecord{Zone: " 14.0 "}.ZoneCode()

			convey.Convey("Then it should parse to the integer", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(z, convey.ShouldEqual, 14)
			})
		})

		convey.Convey("When the zone is negative", func() {
			z, err := model.PitchRecord{Zone: "-1"}.ZoneCode()

			convey.Convey("Then it should parse without judging the domain", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(z, convey.ShouldEqual, -1)
			})
		})

		convey.Convey("When the zone is blank or a null marker", func() {
			for _, raw := range []string{"", "  ", "null", "NaN", "None"} {
				_, err := model.PitchRecord{Zone: raw}.ZoneCode()
				convey.So(errors.Is(err, model.ErrZoneMissing), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When the zone is not an integer", func() {
			for _, raw := range []string{"N/A", "5.5", "abc", "Inf"} {
				_, err := model.PitchRecord{Zone: raw}.ZoneCode()
				convey.So(errors.Is(err, model.ErrZoneNotInteger), convey.ShouldBeTrue)
			}
		})
	})
}

func TestPitchRecord_RecordID(t *testing.T) {
	convey.Convey("Given a pitch record with game coordinates", t, func() {
		p := model.PitchRecord{GamePK: 745123, AtBatNumber: 12, PitchNumber: 3}

		convey.Convey("Then the record id joins them", func() {
			convey.So(p.RecordID(), convey.ShouldEqual, "745123-12-3")
		})
	})
}

func TestParsePlayerType(t *testing.T) {
	convey.Convey("Given player type strings", t, func() {
		pt, err := model.ParsePlayerType("")
		convey.So(err, convey.ShouldBeNil)
		convey.So(pt, convey.ShouldEqual, model.Pitcher)

		pt, err = model.ParsePlayerType("Hitter")
		convey.So(err, convey.ShouldBeNil)
		convey.So(pt, convey.ShouldEqual, model.Batter)

		_, err = model.ParsePlayerType("catcher")
		convey.So(errors.Is(err, model.ErrInvalidPlayerType), convey.ShouldBeTrue)
	})
}

func TestParseDateRange(t *testing.T) {
	convey.Convey("Given date range inputs", t, func() {
		convey.Convey("When the range is valid", func() {
			r, err := model.ParseDateRange("2024-03-28", "2024-09-29")

			convey.Convey("Then it should round-trip to provider format", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.StartString(), convey.ShouldEqual, "2024-03-28")
				convey.So(r.EndString(), convey.ShouldEqual, "2024-09-29")
				convey.So(r.String(), convey.ShouldEqual, "2024-03-28..2024-09-29")
			})
		})

		convey.Convey("When start equals end", func() {
			_, err := model.ParseDateRange("2024-05-01", "2024-05-01")
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("When end is before start", func() {
			_, err := model.ParseDateRange("2024-05-02", "2024-05-01")
			convey.So(errors.Is(err, model.ErrInvalidDateRange), convey.ShouldBeTrue)
		})

		convey.Convey("When a date is malformed", func() {
			_, err := model.ParseDateRange("05/01/2024", "2024-05-01")
			convey.So(errors.Is(err, model.ErrInvalidDateRange), convey.ShouldBeTrue)
		})
	})
}

func TestPrefetchJobKey(t *testing.T) {
	convey.Convey("Given two jobs for the same player and range", t, func() {
		r, err := model.ParseDateRange("2024-04-01", "2024-04-30")
		convey.So(err, convey.ShouldBeNil)
		a := model.PrefetchJob{ID: "a", Player: "Darvish, Yu", Type: model.Pitcher, Range: r}
		b := model.PrefetchJob{ID: "b", Player: "Darvish, Yu", Type: model.Pitcher, Range: r}
		c := model.PrefetchJob{ID: "c", Player: "Darvish, Yu", Type: model.Batter, Range: r}

		convey.Convey("Then their keys ignore the job id", func() {
			convey.So(a.Key(), convey.ShouldEqual, b.Key())
			convey.So(a.Key(), convey.ShouldEqual, "pitcher|Darvish, Yu|2024-04-01..2024-04-30")
		})

		convey.Convey("Then the role is part of the key", func() {
			convey.So(a.Key(), convey.ShouldNotEqual, c.Key())
		})
	})
}
