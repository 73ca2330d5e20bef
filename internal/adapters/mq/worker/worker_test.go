package worker_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/okian/pitchdash/internal/adapters/mq/queue"
	"github.com/okian/pitchdash/internal/adapters/mq/worker"
	"github.com/okian/pitchdash/internal/domain/model"
	logging "github.com/okian/pitchdash/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type recordingLoader struct {
	mu     sync.Mutex
	loaded []string
	fail   map[string]error
	block  chan struct{}
}

func (r *recordingLoader) Load(ctx context.Context, j model.PrefetchJob) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.fail[j.Player]; ok {
		return err
	}
	r.loaded = append(r.loaded, j.Player)
	return nil
}

func (r *recordingLoader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.loaded)
}

type doneLog struct {
	mu   sync.Mutex
	errs map[string]error
	wg   sync.WaitGroup
}

func (d *doneLog) hook(j model.PrefetchJob, err error) {
	d.mu.Lock()
	d.errs[j.ID] = err
	d.mu.Unlock()
	d.wg.Done()
}

func waitTimeout(wg *sync.WaitGroup, d time.Duration) bool {
	ch := make(chan struct{})
	go func() { wg.Wait(); close(ch) }()
	select {
	case <-ch:
		return true
	case <-time.After(d):
		return false
	}
}

func TestWorkerPool(t *testing.T) {
	if err := logging.InitWith(io.Discard, logging.FormatText); err != nil {
		t.Fatal(err)
	}

	convey.Convey("Given a pool of workers over a queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		loader := &recordingLoader{fail: map[string]error{"Broken, Bob": errors.New("upstream down")}}
		done := &doneLog{errs: map[string]error{}}
		pool := worker.NewPool(3, q, loader, worker.WithOnDone(done.hook), worker.WithJobTimeout(time.Second))
		pool.Start(ctx)

		convey.So(pool.Size(), convey.ShouldEqual, 3)

		convey.Convey("When jobs are enqueued", func() {
			players := []string{"Darvish, Yu", "Cole, Gerrit", "Broken, Bob", "Skenes, Paul"}
			done.wg.Add(len(players))
			for i, p := range players {
				j := model.PrefetchJob{ID: fmt.Sprintf("job-%d", i), Player: p, Type: model.Pitcher}
				convey.So(q.Enqueue(ctx, j), convey.ShouldBeNil)
			}

			convey.Convey("Then every job is processed once and reported", func() {
				convey.So(waitTimeout(&done.wg, 5*time.Second), convey.ShouldBeTrue)
				convey.So(loader.count(), convey.ShouldEqual, 3)

				total, failed := pool.Processed()
				convey.So(total, convey.ShouldEqual, 4)
				convey.So(failed, convey.ShouldEqual, 1)

				done.mu.Lock()
				defer done.mu.Unlock()
				convey.So(done.errs["job-0"], convey.ShouldBeNil)
				convey.So(done.errs["job-2"], convey.ShouldNotBeNil)
				convey.So(done.errs["job-2"].Error(), convey.ShouldContainSubstring, "upstream down")
			})

			convey.Convey("Then shutdown closes the queue", func() {
				convey.So(waitTimeout(&done.wg, 5*time.Second), convey.ShouldBeTrue)
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a worker whose loader outlives the job timeout", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		loader := &recordingLoader{block: make(chan struct{})}
		done := &doneLog{errs: map[string]error{}}
		w := worker.NewInMemoryWorker(q, loader,
			worker.WithName("slow"),
			worker.WithJobTimeout(20*time.Millisecond),
			worker.WithOnDone(done.hook))

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go w.Run(runCtx)

		done.wg.Add(1)
		convey.So(q.Enqueue(ctx, model.PrefetchJob{ID: "slow-1", Player: "Darvish, Yu"}), convey.ShouldBeNil)

		convey.Convey("Then the job fails with a deadline error", func() {
			convey.So(waitTimeout(&done.wg, 5*time.Second), convey.ShouldBeTrue)
			done.mu.Lock()
			err := done.errs["slow-1"]
			done.mu.Unlock()
			convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
		})

		convey.Convey("Then the worker shuts down cleanly", func() {
			convey.So(waitTimeout(&done.wg, 5*time.Second), convey.ShouldBeTrue)
			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})
}
