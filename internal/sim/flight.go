package sim

import (
	"go.uber.org/zap"
)

// World is everything a session is built from. Obstacles are copied on
// NewFlight and Reset, so callers may reuse the slice.
type World struct {
	Spawn     Vec3
	Obstacles []Obstacle
	Objective *Vec3
}

// Snapshot is the read-only projection handed to HUDs and recorders.
type Snapshot struct {
	Time         float64
	Position     Vec3
	Velocity     Vec3
	Attitude     Attitude
	Throttle     float64
	Battery      float64
	Status       Status
	Distance     float64 // valid only when HasObjective
	HasObjective bool
}

// Repair describes a numeric-corruption recovery.
type Repair struct {
	Time     float64
	Restored Vec3
	FromLast bool // false when the spawn had to be used
}

// Callbacks receive the session's signals. Nil fields are skipped.
type Callbacks struct {
	OnSnapshot  func(Snapshot)
	OnCrash     func(Crash)
	OnObjective func(Snapshot)
	OnRepair    func(Repair)
}

type Option func(*Flight)

func WithTuning(t Tuning) Option { return func(f *Flight) { f.tuning = t } }

func WithLogger(l *zap.Logger) Option {
	return func(f *Flight) {
		if l != nil {
			f.log = l
		}
	}
}

func WithCallbacks(cb Callbacks) Option { return func(f *Flight) { f.cb = cb } }

// Flight is one flight session. It is not safe for concurrent use: the owner
// calls Step once per frame from a single goroutine.
type Flight struct {
	tuning Tuning
	log    *zap.Logger
	cb     Callbacks

	env       Environment
	spawn     Vec3
	objective *Vec3

	state    State
	lastGood State
	hasGood  bool

	crash    *Crash
	reached  bool
	lastSnap float64
	snapped  bool
	steps    uint64
}

func NewFlight(w World, opts ...Option) *Flight {
	f := &Flight{
		tuning: DefaultTuning(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.Reset(w)
	return f
}

// Reset starts a new session in w: Flying, objective latch cleared, snapshot
// gate cleared.
func (f *Flight) Reset(w World) {
	obstacles := make([]Obstacle, len(w.Obstacles))
	copy(obstacles, w.Obstacles)
	f.env = NewEnvironment(obstacles, f.tuning)
	f.spawn = w.Spawn
	if !f.spawn.IsFinite() {
		f.spawn = Vec3{}
	}
	f.state = NewState(f.spawn)
	f.lastGood = f.state
	f.hasGood = true
	f.crash = nil
	f.snapped = false
	f.steps = 0
	f.setObjective(w.Objective)
	f.log.Debug("session reset",
		zap.Int("obstacles", len(obstacles)),
		zap.Bool("objective", f.objective != nil),
	)
}

// SetObjective replaces or clears the objective and re-arms the reached signal.
func (f *Flight) SetObjective(p *Vec3) {
	f.setObjective(p)
}

func (f *Flight) setObjective(p *Vec3) {
	f.reached = false
	if p == nil || !p.IsFinite() {
		f.objective = nil
		return
	}
	o := *p
	f.objective = &o
}

// Step advances the session by one frame. elapsed is the wall time since the
// previous frame and is clamped before use; now is a monotonic clock reading
// used only for the snapshot gate.
func (f *Flight) Step(in Intent, elapsed, now float64) {
	f.sanitize(now)

	next, crash := Advance(f.state, in, elapsed, f.env)
	f.state = next
	f.steps++
	if f.state.IsFinite() {
		f.lastGood = f.state
		f.hasGood = true
	}

	if crash != nil {
		crash.Time = now
		f.crash = crash
		f.log.Info("crashed",
			zap.Stringer("cause", crash.Cause),
			zap.Int("probe", crash.Probe),
			zap.Int("obstacle", crash.Obstacle),
			zap.Float64("speed", crash.Speed),
		)
		if f.cb.OnCrash != nil {
			f.cb.OnCrash(*crash)
		}
	}

	if f.objective != nil && !f.reached && f.state.Status == StatusFlying {
		if f.state.Position.Distance(*f.objective) < f.tuning.CaptureRadius {
			f.reached = true
			snap := f.Snapshot(now)
			f.log.Info("objective reached", zap.Float64("distance", snap.Distance))
			if f.cb.OnObjective != nil {
				f.cb.OnObjective(snap)
			}
		}
	}

	if f.gate(now) && f.cb.OnSnapshot != nil {
		f.cb.OnSnapshot(f.Snapshot(now))
	}
}

// gate reports whether a snapshot is due at now and records it. A clock that
// runs backwards restarts the gate.
func (f *Flight) gate(now float64) bool {
	if !isFinite(now) {
		return false
	}
	if f.snapped && now >= f.lastSnap && now-f.lastSnap < f.tuning.SnapshotInterval() {
		return false
	}
	f.lastSnap = now
	f.snapped = true
	return true
}

// sanitize replaces a corrupted body with the last good one, or the spawn.
func (f *Flight) sanitize(now float64) {
	if f.state.IsFinite() {
		return
	}
	status := f.state.Status
	restored := NewState(f.spawn)
	fromLast := false
	if f.hasGood && f.lastGood.IsFinite() {
		restored = f.lastGood
		restored.Velocity = Vec3{}
		fromLast = true
	}
	if status == StatusCrashed {
		restored.Status = StatusCrashed
		restored.Throttle = 0
		restored.Battery = 0
	}
	f.state = restored
	f.log.Warn("repaired non-finite flight state",
		zap.Bool("from_last_good", fromLast),
		zap.Float64("x", restored.Position.X),
		zap.Float64("y", restored.Position.Y),
		zap.Float64("z", restored.Position.Z),
	)
	if f.cb.OnRepair != nil {
		f.cb.OnRepair(Repair{Time: now, Restored: restored.Position, FromLast: fromLast})
	}
}

// Snapshot returns the current state regardless of the rate gate.
func (f *Flight) Snapshot(now float64) Snapshot {
	s := f.state
	snap := Snapshot{
		Time:     now,
		Position: s.Position,
		Velocity: s.Velocity,
		Attitude: s.Attitude,
		Throttle: s.Throttle,
		Battery:  s.Battery,
		Status:   s.Status,
	}
	if s.Crashed() {
		snap.Throttle = 0
		snap.Battery = 0
	}
	if f.objective != nil {
		snap.Distance = s.Position.Distance(*f.objective)
		snap.HasObjective = true
	}
	return snap
}

func (f *Flight) State() State           { return f.state }
func (f *Flight) Status() Status         { return f.state.Status }
func (f *Flight) Tuning() Tuning         { return f.tuning }
func (f *Flight) Obstacles() []Obstacle  { return f.env.Obstacles }
func (f *Flight) Steps() uint64          { return f.steps }
func (f *Flight) ObjectiveReached() bool { return f.reached }

// LastCrash returns the crash that ended the session, if any.
func (f *Flight) LastCrash() (Crash, bool) {
	if f.crash == nil {
		return Crash{}, false
	}
	return *f.crash, true
}

func (f *Flight) Objective() (Vec3, bool) {
	if f.objective == nil {
		return Vec3{}, false
	}
	return *f.objective, true
}
