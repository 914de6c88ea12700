package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-sync-cache/internal/logger"
)

// DefaultReloadInterval is used when the job is created with a non-positive
// interval.
const DefaultReloadInterval = 5 * time.Minute

// ReloadJob periodically forces a reload of every collection returned by its
// source.
type ReloadJob struct {
	source   func() []Reloadable
	interval time.Duration
	log      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReloadJob creates a ReloadJob. The source is queried on every tick, so
// collections built after Start are picked up. The job is idle until Start
// is called.
func NewReloadJob(source func() []Reloadable, interval time.Duration, log *logger.Logger) *ReloadJob {
	if interval <= 0 {
		interval = DefaultReloadInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReloadJob{source: source, interval: interval, log: log}
}

// Start implements Worker. It stops any previously running job, then
// launches a background goroutine that reloads every interval.
func (j *ReloadJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.reload(jobCtx)
			}
		}
	}()
}

// Stop implements Worker. It cancels the background goroutine's context and
// blocks until the goroutine has fully exited.
func (j *ReloadJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *ReloadJob) reload(ctx context.Context) {
	for _, r := range j.source() {
		if ctx.Err() != nil {
			return
		}
		c, err := r.EnsureLoaded(ctx, true)
		if err != nil {
			j.log.Err(err).Str(logger.CollectionField, r.Name()).Msg("reload failed")
			continue
		}
		j.log.Debug().Str(logger.CollectionField, r.Name()).Int("entities", c.Len()).Msg("collection reloaded")
	}
}
