package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/pitchdash/internal/adapters/people"
	"github.com/okian/pitchdash/internal/adapters/repository"
	service "github.com/okian/pitchdash/internal/app"
	"github.com/okian/pitchdash/internal/domain/model"
	"github.com/okian/pitchdash/pkg/logger"
)

func init() {
	if err := logger.InitWith(io.Discard, logger.FormatText); err != nil {
		panic(err)
	}
}

const header = "game_date,game_pk,at_bat_number,pitch_number,pitch_name,p_throws,events,release_speed,pfx_x,pfx_z,plate_x,plate_z,pitcher_days_since_prev_game,launch_speed,hit_distance_sc,zone\n"

// darvishCSV has six complete pitches in zones 1, 5, 5, 9, 11 and 14 plus
// two incomplete rows that are dropped before any aggregation.
const darvishCSV = header +
	"2024-04-02,1,1,1,Slider,R,,84.0,0.9,0.1,-0.7,3.2,5,,,1\n" +
	"2024-04-02,1,1,2,4-Seam Fastball,R,,95.0,-0.6,1.3,0.0,2.5,5,,,5\n" +
	"2024-04-02,1,1,3,4-Seam Fastball,R,strikeout,96.0,-0.5,1.4,0.1,2.4,5,,,5\n" +
	"2024-04-02,1,2,1,Slider,R,field_out,85.0,1.0,0.2,0.7,1.8,5,101.0,250,9\n" +
	"2024-04-02,1,2,2,Slider,R,,83.0,0.8,0.0,-1.2,3.9,5,,,11\n" +
	"2024-04-02,1,3,1,4-Seam Fastball,R,walk,94.0,-0.7,1.2,1.3,1.2,5,,,14\n" +
	"2024-04-02,1,3,2,4-Seam Fastball,R,,95.5,-0.6,1.3,0.1,2.5,5,,,\n" +
	"2024-04-02,1,3,3,Slider,R,,,0.9,0.1,0.2,2.2,5,,,5\n"

// brokenCSV carries a zone the matrix cannot read.
const brokenCSV = header +
	"2024-04-02,2,1,1,Slider,R,,84.0,0.9,0.1,-0.7,3.2,5,,,2\n" +
	"2024-04-02,2,1,2,Slider,R,,84.0,0.9,0.1,-0.7,3.2,5,,,N/A\n"

const (
	darvishID = 506433
	brokenID  = 999001
	judgeID   = 592450
)

type fakeFetcher struct {
	calls   atomic.Int32
	bodies  map[int]string
	gate    chan struct{}
	failFor map[int]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, id int, _ model.PlayerType, _ model.DateRange) ([]byte, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if err, ok := f.failFor[id]; ok {
		return nil, err
	}
	body, ok := f.bodies[id]
	if !ok {
		return []byte(header), nil
	}
	return []byte(body), nil
}

type fakeResolver struct {
	mu    sync.Mutex
	ids   map[string]int
	calls int
}

func (r *fakeResolver) Lookup(_ context.Context, last, first string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if id, ok := r.ids[last+", "+first]; ok {
		return id, nil
	}
	if last == "Down" {
		return 0, errors.New("stats api unavailable")
	}
	return 0, fmt.Errorf("%w: %s %s", people.ErrPlayerNotFound, first, last)
}

func (r *fakeResolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type harness struct {
	svc      *service.Service
	fetcher  *fakeFetcher
	resolver *fakeResolver
	store    *repository.SQLiteStore
}

func newHarness(t *testing.T, opts ...service.Option) *harness {
	t.Helper()
	store, err := repository.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	h := &harness{
		fetcher: &fakeFetcher{bodies: map[int]string{
			darvishID: darvishCSV,
			brokenID:  brokenCSV,
		}},
		resolver: &fakeResolver{ids: map[string]int{
			"Darvish, Yu":  darvishID,
			"Broken, Bob":  brokenID,
			"Judge, Aaron": judgeID,
		}},
		store: store,
	}
	all := append([]service.Option{
		service.WithFetcher(h.fetcher),
		service.WithResolver(h.resolver),
		service.WithStore(store),
		service.WithWorkerCount(2),
	}, opts...)
	h.svc = service.New(all...)
	return h
}
