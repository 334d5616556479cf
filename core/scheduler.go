package core

import "fmt"

// System is a per-tick behaviour run by the Scheduler over every entity
// that carries the system's required component kinds.
type System interface {
	Name() string
	Required() []Kind
	Process(id EntityID, dt float64)
}

// BeginTicker is implemented by systems that need pass-level setup before
// per-entity processing (cache invalidation, counter resets).
type BeginTicker interface {
	Begin(dt float64)
}

// EndTicker is implemented by systems that aggregate after per-entity
// processing.
type EndTicker interface {
	End(dt float64)
}

// SystemHandle lets callers toggle a registered system without removing
// its state.
type SystemHandle struct {
	entry *systemEntry
}

// SetEnabled toggles the system. A disabled system is skipped entirely:
// no pass hooks, no per-entity processing.
func (h *SystemHandle) SetEnabled(enabled bool) {
	if h != nil && h.entry != nil {
		h.entry.enabled = enabled
	}
}

// Enabled reports the current toggle.
func (h *SystemHandle) Enabled() bool {
	return h != nil && h.entry != nil && h.entry.enabled
}

type systemEntry struct {
	sys     System
	enabled bool
}

// Scheduler runs registered systems once per simulated tick in
// registration order.
type Scheduler struct {
	world   *World
	entries []*systemEntry
	byName  map[string]*systemEntry
}

// NewScheduler creates a scheduler bound to a world.
func NewScheduler(world *World) *Scheduler {
	return &Scheduler{
		world:  world,
		byName: make(map[string]*systemEntry),
	}
}

// Register appends a system to the run order. Duplicate names are a
// programming error.
func (s *Scheduler) Register(sys System) (*SystemHandle, error) {
	if sys == nil || sys.Name() == "" {
		return nil, fmt.Errorf("scheduler: nil or unnamed system")
	}
	if _, exists := s.byName[sys.Name()]; exists {
		return nil, fmt.Errorf("scheduler: system %q already registered", sys.Name())
	}
	entry := &systemEntry{sys: sys, enabled: true}
	s.entries = append(s.entries, entry)
	s.byName[sys.Name()] = entry
	return &SystemHandle{entry: entry}, nil
}

// SetEnabled toggles a system by name; false when the name is unknown.
func (s *Scheduler) SetEnabled(name string, enabled bool) bool {
	entry, ok := s.byName[name]
	if !ok {
		return false
	}
	entry.enabled = enabled
	return true
}

// Update runs every enabled system, in registration order, over its
// declared required-component set. dt is simulated seconds.
func (s *Scheduler) Update(dt float64) {
	for _, entry := range s.entries {
		if !entry.enabled {
			continue
		}
		if b, ok := entry.sys.(BeginTicker); ok {
			b.Begin(dt)
		}
		required := entry.sys.Required()
		if len(required) > 0 {
			for _, id := range s.world.EntitiesWith(required...) {
				// An entity destroyed mid-pass by an earlier entity's
				// processing must not be visited.
				if !s.world.Exists(id) {
					continue
				}
				entry.sys.Process(id, dt)
			}
		}
		if e, ok := entry.sys.(EndTicker); ok {
			e.End(dt)
		}
	}
}
