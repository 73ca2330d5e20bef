package site

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	service "github.com/okian/pitchdash/internal/app"
	"github.com/okian/pitchdash/internal/domain/model"
	"github.com/okian/pitchdash/internal/domain/summary"
	"github.com/okian/pitchdash/internal/domain/zone"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeDeps struct {
	err error
}

func (f *fakeDeps) NewQuery(player, playerType, start, end, pitch string) (service.Query, error) {
	pt, err := model.ParsePlayerType(playerType)
	if err != nil {
		return service.Query{}, fmt.Errorf("%w: %v", service.ErrInvalidQuery, err)
	}
	if player == "" {
		player = "Darvish, Yu"
	}
	if pitch == "" {
		pitch = summary.AllPitches
	}
	r, _ := model.ParseDateRange("2024-01-01", "2024-12-31")
	return service.Query{Player: player, Type: pt, Range: r, Pitch: pitch}, nil
}

func (f *fakeDeps) Players(model.PlayerType) ([]string, string, error) {
	return []string{"Cole, Gerrit", "Darvish, Yu"}, "Darvish, Yu", nil
}

func (f *fakeDeps) Dashboard(_ context.Context, q service.Query) (service.DashboardView, error) {
	if f.err != nil {
		return service.DashboardView{}, f.err
	}
	var m zone.CountMatrix
	m[0][0], m[1][1] = 3, 1
	return service.DashboardView{
		Query:      q,
		PlayerID:   506433,
		PitchNames: []string{summary.AllPitches, "Slider", "<Sweeper>"},
		Summary:    summary.Summary{Count: 4, AvgReleaseSpeed: 92.04, AvgDaysSincePrevGame: 5, AvgLaunchSpeed: math.NaN(), AvgHitDistance: math.NaN()},
		Heatmap:    m,
		Movement:   []summary.Series{{PitchName: "Slider", Points: []summary.Point{{X: -6, Y: 2}, {X: 1, Y: 8}}}},
	}, nil
}

func TestRootHandler(t *testing.T) {
	Convey("Given the dashboard page", t, func() {
		deps := &fakeDeps{}
		mux := http.NewServeMux()
		Register(context.Background(), mux, deps)

		get := func(target string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
			return w
		}

		Convey("When / is requested", func() {
			w := get("/?pitch=Slider")
			body := w.Body.String()

			Convey("Then the full dashboard is rendered", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(body, ShouldContainSubstring, Title)
				So(body, ShouldContainSubstring, `<option value="Darvish, Yu" selected>`)
				So(body, ShouldContainSubstring, `<option value="Slider" selected>`)
				So(body, ShouldContainSubstring, "92.0 mph")
				So(body, ShouldContainSubstring, "n/a")
				So(body, ShouldContainSubstring, "<title>zone 1: 3</title>")
				So(body, ShouldContainSubstring, "fill:#b2182b")
				So(body, ShouldContainSubstring, "4 pitches in the zone")
				So(body, ShouldContainSubstring, "<svg")
				So(body, ShouldContainSubstring, "No pitches")
			})

			Convey("Then pitch names are escaped", func() {
				So(body, ShouldContainSubstring, "&lt;Sweeper&gt;")
				So(body, ShouldNotContainSubstring, "<Sweeper>")
			})
		})

		Convey("When an off-roster player is selected", func() {
			body := get("/?player=Smith,%20Joe").Body.String()

			Convey("Then it is kept in the player list", func() {
				So(body, ShouldContainSubstring, `<option value="Smith, Joe" selected>`)
			})
		})

		Convey("When the query is invalid", func() {
			w := get("/?type=umpire")

			Convey("Then the form is shown with the error", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, `class="error"`)
				So(w.Body.String(), ShouldContainSubstring, "Cole, Gerrit")
			})
		})

		Convey("When the data has a malformed zone", func() {
			deps.err = &zone.InvalidRecordError{Index: 1, RecordID: "2-1-2", Err: model.ErrZoneNotInteger}
			w := get("/")

			Convey("Then the failure is surfaced", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(w.Body.String(), ShouldContainSubstring, "invalid record 1 (2-1-2)")
				So(w.Body.String(), ShouldNotContainSubstring, "<svg")
			})
		})

		Convey("When the upstream times out", func() {
			deps.err = fmt.Errorf("%w: statcast: %w", service.ErrUpstream, context.DeadlineExceeded)
			So(get("/").Code, ShouldEqual, http.StatusGatewayTimeout)
		})

		Convey("When the player is unknown", func() {
			deps.err = service.ErrUnknownPlayer
			So(get("/").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When another path is requested", func() {
			So(get("/favicon.ico").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the page is posted to", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestRegisterWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		So(func() { Register(context.Background(), nil, &fakeDeps{}) }, ShouldPanic)
	})
}

func TestDiverging(t *testing.T) {
	Convey("Given the diverging scale", t, func() {
		Convey("Then the ends and midpoint are blue, white and red", func() {
			So(Diverging(0, 10), ShouldEqual, "#2166ac")
			So(Diverging(5, 10), ShouldEqual, "#f7f7f7")
			So(Diverging(10, 10), ShouldEqual, "#b2182b")
		})

		Convey("Then an empty grid is white", func() {
			So(Diverging(0, 0), ShouldEqual, "#f7f7f7")
		})

		Convey("Then values are clamped", func() {
			So(Diverging(20, 10), ShouldEqual, "#b2182b")
		})
	})
}

func TestHeatmapComponent(t *testing.T) {
	Convey("Given a matrix", t, func() {
		var m zone.CountMatrix
		m[2][2] = 7

		Convey("When it is rendered", func() {
			var buf bytes.Buffer
			So(Heatmap(m).Render(context.Background(), &buf), ShouldBeNil)

			out := buf.String()

			Convey("Then cells are numbered top-left to bottom-right", func() {
				So(out, ShouldContainSubstring, `data-zone="1"`)
				So(out, ShouldContainSubstring, "<title>zone 9: 7</title>")
				So(strings.Index(out, `data-zone="1"`), ShouldBeLessThan, strings.Index(out, `data-zone="9"`))
				So(strings.Count(out, "<rect"), ShouldEqual, 9)
			})

			Convey("Then shades follow the diverging scale", func() {
				So(out, ShouldContainSubstring, "fill:#b2182b")
				So(out, ShouldContainSubstring, "fill:#2166ac")
				So(out, ShouldContainSubstring, ">7</text>")
				So(out, ShouldContainSubstring, "7 pitches in the zone")
			})
		})
	})
}

func TestScatterComponent(t *testing.T) {
	Convey("Given one point with a strike zone", t, func() {
		spec := ScatterSpec{
			XLabel:     "x",
			YLabel:     "y",
			Series:     []summary.Series{{PitchName: "4-Seam Fastball", Points: []summary.Point{{X: 0, Y: 30}}}},
			StrikeZone: true,
		}

		Convey("When it is rendered", func() {
			var buf bytes.Buffer
			So(Scatter(spec).Render(context.Background(), &buf), ShouldBeNil)

			out := buf.String()

			Convey("Then the zone outline and point are drawn", func() {
				So(out, ShouldContainSubstring, `class="zone"`)
				So(out, ShouldContainSubstring, `class="scatter"`)
				So(strings.Count(out, "<circle"), ShouldEqual, 1)
				So(out, ShouldContainSubstring, "4-Seam Fastball")
				So(out, ShouldContainSubstring, "fill:#1b9e77")
			})
		})
	})
}
