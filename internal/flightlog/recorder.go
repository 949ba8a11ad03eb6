package flightlog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"dronefield/internal/sim"
)

type RecorderOptions struct {
	SampleEvery int           // keep every Nth snapshot
	QueueSize   int           // records buffered before dropping
	BatchSize   int           // records per transaction
	FlushEvery  time.Duration // upper bound on write latency
	Logger      *zap.Logger
	OnDrop      func(kind string)
}

type record struct {
	event  *Event
	sample *Sample
}

func (r record) kind() string {
	if r.event != nil {
		return r.event.Kind
	}
	return "sample"
}

// Recorder turns flight callbacks into rows. Enqueueing never blocks the
// simulation: records that do not fit in the queue are dropped and counted.
type Recorder struct {
	store   *Store
	session string
	opts    RecorderOptions
	log     *zap.Logger

	mu        sync.Mutex
	queue     chan record
	closed    bool
	snapshots int
	dropped   int
}

func NewRecorder(store *Store, sessionID string, opts RecorderOptions) *Recorder {
	if opts.SampleEvery < 1 {
		opts.SampleEvery = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1024
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 64
	}
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = time.Second
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		store:   store,
		session: sessionID,
		opts:    opts,
		log:     log.With(zap.String("session", sessionID)),
		queue:   make(chan record, opts.QueueSize),
	}
}

// Callbacks records every signal and forwards it to next.
func (r *Recorder) Callbacks(next sim.Callbacks) sim.Callbacks {
	return sim.Callbacks{
		OnSnapshot: func(s sim.Snapshot) {
			r.Snapshot(s)
			if next.OnSnapshot != nil {
				next.OnSnapshot(s)
			}
		},
		OnCrash: func(c sim.Crash) {
			r.Crash(c)
			if next.OnCrash != nil {
				next.OnCrash(c)
			}
		},
		OnObjective: func(s sim.Snapshot) {
			r.Objective(s)
			if next.OnObjective != nil {
				next.OnObjective(s)
			}
		},
		OnRepair: func(p sim.Repair) {
			r.Repair(p)
			if next.OnRepair != nil {
				next.OnRepair(p)
			}
		},
	}
}

func (r *Recorder) Snapshot(s sim.Snapshot) {
	r.mu.Lock()
	n := r.snapshots
	r.snapshots++
	r.mu.Unlock()
	if n%r.opts.SampleEvery != 0 {
		return
	}
	r.enqueue(record{sample: &Sample{
		SessionID:    r.session,
		SimTime:      s.Time,
		X:            s.Position.X,
		Y:            s.Position.Y,
		Z:            s.Position.Z,
		VX:           s.Velocity.X,
		VY:           s.Velocity.Y,
		VZ:           s.Velocity.Z,
		Pitch:        s.Attitude.Pitch,
		Yaw:          s.Attitude.Yaw,
		Roll:         s.Attitude.Roll,
		Throttle:     s.Throttle,
		Battery:      s.Battery,
		Status:       s.Status.String(),
		Distance:     s.Distance,
		HasObjective: s.HasObjective,
	}})
}

func (r *Recorder) Crash(c sim.Crash) {
	r.enqueue(record{event: &Event{
		SessionID: r.session,
		Kind:      "crash",
		Cause:     c.Cause.String(),
		SimTime:   c.Time,
		X:         c.Position.X,
		Y:         c.Position.Y,
		Z:         c.Position.Z,
		Speed:     c.Speed,
		Obstacle:  c.Obstacle,
	}})
}

func (r *Recorder) Objective(s sim.Snapshot) {
	r.enqueue(record{event: &Event{
		SessionID: r.session,
		Kind:      "objective",
		SimTime:   s.Time,
		X:         s.Position.X,
		Y:         s.Position.Y,
		Z:         s.Position.Z,
		Speed:     s.Velocity.Length(),
		Distance:  s.Distance,
		Obstacle:  -1,
	}})
}

func (r *Recorder) Repair(p sim.Repair) {
	cause := "spawn"
	if p.FromLast {
		cause = "last_good"
	}
	r.enqueue(record{event: &Event{
		SessionID: r.session,
		Kind:      "repair",
		Cause:     cause,
		SimTime:   p.Time,
		X:         p.Restored.X,
		Y:         p.Restored.Y,
		Z:         p.Restored.Z,
		Obstacle:  -1,
	}})
}

func (r *Recorder) enqueue(rec record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		select {
		case r.queue <- rec:
			return
		default:
		}
	}
	r.dropped++
	if r.opts.OnDrop != nil {
		r.opts.OnDrop(rec.kind())
	}
}

// Dropped is the number of records that never reached the queue.
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close stops accepting records. Run drains what is queued and returns.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	close(r.queue)
}

// Run writes queued records in batches until Close is called or ctx ends.
// Whatever is queued at that point is flushed before returning. Write errors
// are logged and the batch is discarded.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.FlushEvery)
	defer ticker.Stop()

	batch := make([]record, 0, r.opts.BatchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		var events []Event
		var samples []Sample
		for _, rec := range batch {
			if rec.event != nil {
				events = append(events, *rec.event)
			} else {
				samples = append(samples, *rec.sample)
			}
		}
		if err := r.store.write(ctx, events, samples); err != nil {
			r.log.Warn("flight log write failed", zap.Error(err), zap.Int("records", len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec, ok := <-r.queue:
			if !ok {
				flush(context.WithoutCancel(ctx))
				return nil
			}
			batch = append(batch, rec)
			if len(batch) >= r.opts.BatchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			r.drain(&batch)
			flush(context.WithoutCancel(ctx))
			return nil
		}
	}
}

// drain moves whatever is already queued into batch without waiting.
func (r *Recorder) drain(batch *[]record) {
	for {
		select {
		case rec, ok := <-r.queue:
			if !ok {
				return
			}
			*batch = append(*batch, rec)
		default:
			return
		}
	}
}
