// Package state holds the process-wide runtime context: capture flags,
// detection counters and the current boot session. One Runtime is created by
// the application root and handed to every component that needs it.
package state

import (
	"sync"
	"sync/atomic"

	"beecam/internal/dto"
	"beecam/internal/model"
)

// Totals is a consistent snapshot of the process-lifetime counters.
type Totals struct {
	Bees  uint32
	Mites uint32
}

// WeightedPercent returns 100 * mites / bees, or 0 when no bee was counted.
func (t Totals) WeightedPercent() float64 {
	if t.Bees == 0 {
		return 0
	}
	return 100 * float64(t.Mites) / float64(t.Bees)
}

// Runtime is safe for concurrent use.
type Runtime struct {
	inferEnabled atomic.Bool
	saveEnabled  atomic.Bool
	storageOK    atomic.Bool
	frameCounter atomic.Uint32

	mu         sync.RWMutex
	totals     Totals
	roundBees  uint32
	roundMites uint32
	session    *model.Session
}

// NewRuntime creates a Runtime with the initial capture flags.
func NewRuntime(infer, save bool) *Runtime {
	rt := &Runtime{}
	rt.inferEnabled.Store(infer)
	rt.saveEnabled.Store(save)
	return rt
}

func (rt *Runtime) InferEnabled() bool     { return rt.inferEnabled.Load() }
func (rt *Runtime) SetInferEnabled(v bool) { rt.inferEnabled.Store(v) }
func (rt *Runtime) SaveEnabled() bool      { return rt.saveEnabled.Load() }
func (rt *Runtime) SetSaveEnabled(v bool)  { rt.saveEnabled.Store(v) }
func (rt *Runtime) StorageOK() bool        { return rt.storageOK.Load() }
func (rt *Runtime) SetStorageOK(v bool)    { rt.storageOK.Store(v) }

// WritesEnabled is the gate checked by every storage write.
func (rt *Runtime) WritesEnabled() bool {
	return rt.StorageOK() && rt.SaveEnabled()
}

// NextFrame increments and returns the frame counter.
func (rt *Runtime) NextFrame() uint32 {
	return rt.frameCounter.Add(1)
}

// FrameCounter returns the last issued frame number.
func (rt *Runtime) FrameCounter() uint32 {
	return rt.frameCounter.Load()
}

// SetSession records the scaffolded session for this boot.
func (rt *Runtime) SetSession(s *model.Session) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.session = s
}

// Session returns a copy of the current session, or nil before scaffolding.
func (rt *Runtime) Session() *model.Session {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	if rt.session == nil {
		return nil
	}
	s := *rt.session
	return &s
}

// ResetRound clears the per-round scratch counters.
func (rt *Runtime) ResetRound() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.roundBees = 0
	rt.roundMites = 0
}

// AddRound adds counts to the current round and to the lifetime totals.
func (rt *Runtime) AddRound(bees, mites uint32) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.roundBees += bees
	rt.roundMites += mites
	rt.totals.Bees += bees
	rt.totals.Mites += mites
}

// Round returns the current round counters.
func (rt *Runtime) Round() Totals {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return Totals{Bees: rt.roundBees, Mites: rt.roundMites}
}

// Totals returns the lifetime counters.
func (rt *Runtime) Totals() Totals {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.totals
}

// Snapshot builds the /api/state body.
func (rt *Runtime) Snapshot() dto.StateResponse {
	t := rt.Totals()
	return dto.StateResponse{
		Infer:       rt.InferEnabled(),
		Save:        rt.SaveEnabled(),
		Bees:        t.Bees,
		Mites:       t.Mites,
		AvgWeighted: dto.Percent(t.WeightedPercent()),
	}
}
