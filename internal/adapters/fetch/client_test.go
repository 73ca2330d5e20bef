package fetch_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pitchdash/internal/adapters/fetch"
	"github.com/okian/pitchdash/pkg/logger"
)

func newClient(retries int) *fetch.Client {
	return fetch.New("test",
		fetch.WithMaxRetries(retries),
		fetch.WithBackoff(time.Millisecond, 5*time.Millisecond),
		fetch.WithTimeout(2*time.Second),
	)
}

func TestClientGet(t *testing.T) {
	if err := logger.InitWith(io.Discard, logger.FormatText); err != nil {
		t.Fatal(err)
	}

	Convey("Given an upstream server", t, func() {
		var calls atomic.Int32
		var statuses []int
		var agent atomic.Value
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := int(calls.Add(1))
			agent.Store(r.UserAgent())
			code := http.StatusOK
			if n <= len(statuses) {
				code = statuses[n-1]
			}
			w.WriteHeader(code)
			_, _ = w.Write([]byte("zone\n5\n"))
		}))
		defer srv.Close()
		ctx := context.Background()

		Convey("When it answers 200", func() {
			body, err := newClient(2).Get(ctx, srv.URL)

			Convey("Then the body is returned after one call", func() {
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "zone\n5\n")
				So(calls.Load(), ShouldEqual, 1)
				So(agent.Load(), ShouldEqual, "pitchdash/1.0")
			})
		})

		Convey("When it fails transiently before succeeding", func() {
			statuses = []int{http.StatusServiceUnavailable, http.StatusTooManyRequests}
			body, err := newClient(3).Get(ctx, srv.URL)

			Convey("Then the request is retried", func() {
				So(err, ShouldBeNil)
				So(len(body), ShouldBeGreaterThan, 0)
				So(calls.Load(), ShouldEqual, 3)
			})
		})

		Convey("When it answers 404", func() {
			statuses = []int{http.StatusNotFound}
			_, err := newClient(3).Get(ctx, srv.URL)

			Convey("Then it fails at once with a status error", func() {
				var se *fetch.StatusError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Code, ShouldEqual, http.StatusNotFound)
				So(se.Transient(), ShouldBeFalse)
				So(errors.Is(err, fetch.ErrUpstream), ShouldBeTrue)
				So(calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When it keeps failing with 500", func() {
			statuses = []int{500, 500, 500, 500}
			_, err := newClient(2).Get(ctx, srv.URL)

			Convey("Then retries stop at the limit", func() {
				var se *fetch.StatusError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Code, ShouldEqual, http.StatusInternalServerError)
				So(calls.Load(), ShouldEqual, 3)
			})
		})
	})

	Convey("Given an upstream slower than the client timeout", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()

		Convey("When the request deadline passes", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			_, err := newClient(0).Get(ctx, srv.URL)

			Convey("Then the error is both an upstream failure and a deadline", func() {
				So(errors.Is(err, fetch.ErrUpstream), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})

		Convey("When the client timeout fires", func() {
			c := fetch.New("test", fetch.WithMaxRetries(0), fetch.WithTimeout(20*time.Millisecond))
			_, err := c.Get(context.Background(), srv.URL)

			Convey("Then it is reported as a deadline", func() {
				So(errors.Is(err, fetch.ErrUpstream), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unreachable upstream", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := newClient(1).Get(context.Background(), url)

		Convey("Then the network error is reported as an upstream failure", func() {
			So(errors.Is(err, fetch.ErrUpstream), ShouldBeTrue)
		})
	})
}
