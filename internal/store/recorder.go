package store

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"banglakey/internal/ime"
)

// DefaultRecorderBuffer is the queue length used when NewRecorder is given
// zero.
const DefaultRecorderBuffer = 256

// Recorder writes commits to the journal on its own goroutine. Sessions
// call Record with their lock held, so it never blocks: when the queue is
// full the commit is dropped and counted.
type Recorder struct {
	store  *Store
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan CommitRecord
	done   chan struct{}

	recorded atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64
}

// NewRecorder starts a recorder writing to s.
func NewRecorder(s *Store, logger *slog.Logger, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = DefaultRecorderBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		store:  s,
		logger: logger,
		queue:  make(chan CommitRecord, buffer),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Record queues a commit. It is safe to use as a session commit hook.
func (r *Recorder) Record(c ime.Commit) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}

	rec := CommitRecord{
		Latin:       c.Latin,
		Bengali:     c.Bengali,
		Source:      c.Source,
		TimestampNs: c.At.UnixNano(),
	}
	if c.At.IsZero() {
		rec.TimestampNs = time.Now().UnixNano()
	}

	select {
	case r.queue <- rec:
	default:
		r.dropped.Add(1)
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		if err := r.write(rec); err != nil {
			r.failed.Add(1)
			r.logger.Warn("journal write failed", "error", err)
			continue
		}
		r.recorded.Add(1)
	}
}

func (r *Recorder) write(rec CommitRecord) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if _, err = r.store.RecordCommit(&rec); !isBusy(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return err
}

// Close stops accepting commits and waits until the queue is written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
}

// RecorderStats counts what the recorder has done.
type RecorderStats struct {
	Recorded uint64
	Dropped  uint64
	Failed   uint64
}

// Stats returns the recorder counters.
func (r *Recorder) Stats() RecorderStats {
	return RecorderStats{
		Recorded: r.recorded.Load(),
		Dropped:  r.dropped.Load(),
		Failed:   r.failed.Load(),
	}
}
