package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/pitchdash/internal/adapters/http/api"
	service "github.com/okian/pitchdash/internal/app"
	"github.com/okian/pitchdash/internal/domain/model"
	"github.com/okian/pitchdash/internal/domain/summary"
	"github.com/okian/pitchdash/internal/domain/types"
	"github.com/okian/pitchdash/internal/domain/zone"
	"github.com/okian/pitchdash/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDependencies struct {
	dashErr     error
	prefetchErr error
	pending     map[string]bool
	lastQuery   service.Query
}

func (m *mockDependencies) NewQuery(player, playerType, start, end, pitch string) (service.Query, error) {
	pt, err := model.ParsePlayerType(playerType)
	if err != nil {
		return service.Query{}, fmt.Errorf("%w: %v", service.ErrInvalidQuery, err)
	}
	if start == "" {
		start = "2024-01-01"
	}
	if end == "" {
		end = "2024-12-31"
	}
	r, err := model.ParseDateRange(start, end)
	if err != nil {
		return service.Query{}, fmt.Errorf("%w: %v", service.ErrInvalidQuery, err)
	}
	if player == "" {
		player = "Darvish, Yu"
	}
	if pitch == "" {
		pitch = summary.AllPitches
	}
	q := service.Query{Player: player, Type: pt, Range: r, Pitch: pitch}
	m.lastQuery = q
	return q, nil
}

func (m *mockDependencies) Players(pt model.PlayerType) ([]string, string, error) {
	if pt == model.Batter {
		return []string{"Judge, Aaron", "Ohtani, Shohei"}, "Judge, Aaron", nil
	}
	return []string{"Darvish, Yu", "Cole, Gerrit"}, "Darvish, Yu", nil
}

func (m *mockDependencies) Dashboard(_ context.Context, q service.Query) (service.DashboardView, error) {
	if m.dashErr != nil {
		return service.DashboardView{}, m.dashErr
	}
	var hm zone.CountMatrix
	hm[0][0], hm[1][1], hm[2][2] = 1, 2, 1
	return service.DashboardView{
		Query:      q,
		PlayerID:   506433,
		PitchNames: []string{summary.AllPitches, "Slider"},
		Summary: summary.Summary{
			Count:                4,
			AvgReleaseSpeed:      91.234,
			AvgDaysSincePrevGame: 5,
			AvgLaunchSpeed:       math.NaN(),
			AvgHitDistance:       math.NaN(),
			Events:               map[string]int{"strikeout": 2},
		},
		Heatmap: hm,
		Movement: []summary.Series{
			{PitchName: "Slider", Points: []summary.Point{{X: -10.2, Y: 1.5}}},
		},
	}, nil
}

func (m *mockDependencies) Heatmap(ctx context.Context, q service.Query) (zone.CountMatrix, error) {
	v, err := m.Dashboard(ctx, q)
	return v.Heatmap, err
}

func (m *mockDependencies) Prefetch(_ context.Context, q service.Query) (string, bool, error) {
	if m.prefetchErr != nil {
		return "", false, m.prefetchErr
	}
	if m.pending == nil {
		m.pending = map[string]bool{}
	}
	key := string(q.Type) + "|" + q.Player
	if m.pending[key] {
		return "job-1", true, nil
	}
	m.pending[key] = true
	return "job-1", false, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}).Register(context.Background(), mux)
	return mux
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, r))
	return w
}

func decodeError(w *httptest.ResponseRecorder) types.ErrorResponse {
	var e types.ErrorResponse
	_ = json.NewDecoder(w.Body).Decode(&e)
	return e
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then health serves the metrics registry", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then stats returns the provider snapshot", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var got map[string]interface{}
			So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
			So(got["started"], ShouldEqual, true)
		})

		Convey("Then stats rejects POST with an Allow header", func() {
			w := do(mux, http.MethodPost, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, http.MethodGet)
			So(decodeError(w).Code, ShouldEqual, "method_not_allowed")
		})
	})
}

func TestPlayersHandler(t *testing.T) {
	Convey("Given the players endpoint", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("When no type is given", func() {
			w := do(mux, http.MethodGet, "/api/players", "")

			Convey("Then the pitcher roster is listed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got types.PlayersResponse
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got.Type, ShouldEqual, "pitcher")
				So(got.Default, ShouldEqual, "Darvish, Yu")
				So(got.Players, ShouldContain, "Cole, Gerrit")
			})
		})

		Convey("When type is hitter", func() {
			w := do(mux, http.MethodGet, "/api/players?type=hitter", "")

			Convey("Then the batter roster is listed", func() {
				var got types.PlayersResponse
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got.Type, ShouldEqual, "batter")
				So(got.Players, ShouldContain, "Judge, Aaron")
			})
		})

		Convey("When type is unknown", func() {
			w := do(mux, http.MethodGet, "/api/players?type=umpire", "")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Code, ShouldEqual, "bad_request")
			})
		})
	})
}

func TestDashboardHandler(t *testing.T) {
	Convey("Given the dashboard endpoints", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a dashboard is requested", func() {
			w := do(mux, http.MethodGet, "/api/dashboard?player=Darvish,%20Yu&start=2024-04-01&end=2024-09-30&pitch=Slider", "")

			Convey("Then the query is parsed and echoed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastQuery.Pitch, ShouldEqual, "Slider")

				var got types.DashboardResponse
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got.Query.MLBAMID, ShouldEqual, 506433)
				So(got.Query.Start, ShouldEqual, "2024-04-01")
				So(got.Query.End, ShouldEqual, "2024-09-30")
				So(got.Heatmap.Rows, ShouldResemble, [][]int{{1, 0, 0}, {0, 2, 0}, {0, 0, 1}})
				So(got.Heatmap.Total, ShouldEqual, 4)
				So(got.Heatmap.Max, ShouldEqual, 2)
			})

			Convey("Then missing means are null and present ones are rounded", func() {
				var got types.DashboardResponse
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got.Summary.AvgLaunchSpeed, ShouldBeNil)
				So(*got.Summary.AvgReleaseSpeed, ShouldEqual, 91.23)
				So(got.Movement[0].PitchName, ShouldEqual, "Slider")
				So(got.Location, ShouldBeEmpty)
			})
		})

		Convey("When only the heat map is requested", func() {
			w := do(mux, http.MethodGet, "/api/heatmap", "")

			Convey("Then the grid is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got types.HeatmapResponse
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got.Query.Player, ShouldEqual, "Darvish, Yu")
				So(got.Heatmap.Total, ShouldEqual, 4)
			})
		})

		Convey("When the date range is inverted", func() {
			w := do(mux, http.MethodGet, "/api/dashboard?start=2024-09-01&end=2024-04-01", "")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the service reports failures", func() {
			cases := []struct {
				err    error
				status int
				code   string
			}{
				{&zone.InvalidRecordError{Index: 1, RecordID: "2-1-2", Err: model.ErrZoneNotInteger}, http.StatusBadGateway, "invalid_record"},
				{fmt.Errorf("%w: Nobody, Some", service.ErrUnknownPlayer), http.StatusNotFound, "not_found"},
				{fmt.Errorf("%w: timeout", service.ErrUpstream), http.StatusBadGateway, "upstream_error"},
				{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
				{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
				{fmt.Errorf("%w: statcast: %w", service.ErrUpstream, context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
				{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
			}
			for _, tc := range cases {
				Convey(fmt.Sprintf("And the error is %v", tc.err), func() {
					deps.dashErr = tc.err
					w := do(mux, http.MethodGet, "/api/dashboard", "")
					So(w.Code, ShouldEqual, tc.status)
					So(decodeError(w).Code, ShouldEqual, tc.code)
				})
			}
		})

		Convey("When POST is used", func() {
			w := do(mux, http.MethodPost, "/api/heatmap", "")

			Convey("Then the method is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestPrefetchHandler(t *testing.T) {
	Convey("Given the prefetch endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)
		body := `{"player":"Cole, Gerrit","type":"pitcher","start":"2024-04-01","end":"2024-09-30"}`

		Convey("When a new job is requested", func() {
			w := do(mux, http.MethodPost, "/api/prefetch", body)

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var got types.PrefetchResponse
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got.JobID, ShouldEqual, "job-1")
				So(got.Duplicate, ShouldBeFalse)
			})

			Convey("And the same job again is reported as a duplicate", func() {
				w2 := do(mux, http.MethodPost, "/api/prefetch", body)
				So(w2.Code, ShouldEqual, http.StatusOK)
				var got types.PrefetchResponse
				So(json.NewDecoder(w2.Body).Decode(&got), ShouldBeNil)
				So(got.Duplicate, ShouldBeTrue)
			})
		})

		Convey("When the body is malformed", func() {
			for _, b := range []string{`{bad`, `{"player":"Cole, Gerrit","extra":1}`, `{"type":"pitcher"}`} {
				w := do(mux, http.MethodPost, "/api/prefetch", b)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the queue is full", func() {
			deps.prefetchErr = service.ErrQueueFull
			w := do(mux, http.MethodPost, "/api/prefetch", body)

			Convey("Then backpressure is reported", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decodeError(w).Code, ShouldEqual, "backpressure")
			})
		})

		Convey("When GET is used", func() {
			w := do(mux, http.MethodGet, "/api/prefetch", "")

			Convey("Then the method is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
			})
		})
	})
}

func TestRequestID(t *testing.T) {
	if err := logger.InitWith(io.Discard, logger.FormatText); err != nil {
		t.Fatal(err)
	}
	Convey("Given a handler behind RequestID", t, func() {
		var seen string
		h := api.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = api.RequestIDFrom(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))

		Convey("When the caller supplies an id", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(api.RequestIDHeader, "abc")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it is propagated and echoed", func() {
				So(seen, ShouldEqual, "abc")
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc")
				So(w.Code, ShouldEqual, http.StatusNoContent)
			})
		})

		Convey("When no id is supplied", func() {
			w := do(h, http.MethodGet, "/", "")

			Convey("Then one is generated", func() {
				So(seen, ShouldNotBeEmpty)
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, seen)
			})
		})
	})
}
