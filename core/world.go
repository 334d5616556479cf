package core

import (
	"fmt"
	"math"
	"sort"
)

// EntityID identifies an entity. IDs are never reused within a World.
type EntityID uint64

// EventKind enumerates the observable store events.
type EventKind uint8

const (
	EventEntityCreated EventKind = iota
	EventEntityDestroyed
	EventComponentAdded
	EventComponentRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventEntityCreated:
		return "entityCreated"
	case EventEntityDestroyed:
		return "entityDestroyed"
	case EventComponentAdded:
		return "componentAdded"
	case EventComponentRemoved:
		return "componentRemoved"
	default:
		return "unknown"
	}
}

// Event is one observable store mutation. Events are appended to an
// outbound queue and drained once per tick by whoever consumes them; the
// core never depends on a subscriber being present.
type Event struct {
	Kind      EventKind
	Entity    EntityID
	Component Kind
}

// World owns entity lifecycle and component storage. One sparse map per
// component kind plus an index set per kind; multi-kind queries start from
// the smallest index so they cost proportional to the smallest relevant
// set, not the total entity count.
//
// The World is single-writer per tick phase and deliberately carries no
// internal locking; see the concurrency notes in DESIGN.md.
type World struct {
	nextID EntityID
	alive  map[EntityID]struct{}

	transforms   map[EntityID]*Transform
	transmitters map[EntityID]*Transmitter
	receivers    map[EntityID]*Receiver
	jammers      map[EntityID]*Jammer
	drones       map[EntityID]*Drone
	ais          map[EntityID]*AI
	teams        map[EntityID]Team

	index [kindCount]map[EntityID]struct{}

	events []Event
}

// NewWorld creates an empty world.
func NewWorld() *World {
	w := &World{
		nextID:       1,
		alive:        make(map[EntityID]struct{}),
		transforms:   make(map[EntityID]*Transform),
		transmitters: make(map[EntityID]*Transmitter),
		receivers:    make(map[EntityID]*Receiver),
		jammers:      make(map[EntityID]*Jammer),
		drones:       make(map[EntityID]*Drone),
		ais:          make(map[EntityID]*AI),
		teams:        make(map[EntityID]Team),
	}
	for k := range w.index {
		w.index[k] = make(map[EntityID]struct{})
	}
	return w
}

// CreateEntity allocates a fresh entity with no components.
func (w *World) CreateEntity() EntityID {
	id := w.nextID
	w.nextID++
	w.alive[id] = struct{}{}
	w.events = append(w.events, Event{Kind: EventEntityCreated, Entity: id})
	return id
}

// DestroyEntity removes the entity and all of its components atomically.
// Returns false if the id is unknown.
func (w *World) DestroyEntity(id EntityID) bool {
	if _, ok := w.alive[id]; !ok {
		return false
	}
	for kind := Kind(0); kind < kindCount; kind++ {
		if _, has := w.index[kind][id]; has {
			w.removeComponent(id, kind)
		}
	}
	delete(w.alive, id)
	w.events = append(w.events, Event{Kind: EventEntityDestroyed, Entity: id})
	return true
}

// Exists reports whether the entity is alive.
func (w *World) Exists(id EntityID) bool {
	_, ok := w.alive[id]
	return ok
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int { return len(w.alive) }

// Has reports whether the entity carries a component of the given kind.
func (w *World) Has(id EntityID, kind Kind) bool {
	if kind >= kindCount {
		return false
	}
	_, ok := w.index[kind][id]
	return ok
}

// RemoveComponent detaches a single component. Returns false when the
// entity or component is absent.
func (w *World) RemoveComponent(id EntityID, kind Kind) bool {
	if kind >= kindCount {
		return false
	}
	if _, ok := w.index[kind][id]; !ok {
		return false
	}
	w.removeComponent(id, kind)
	return true
}

func (w *World) removeComponent(id EntityID, kind Kind) {
	switch kind {
	case KindTransform:
		delete(w.transforms, id)
	case KindTransmitter:
		delete(w.transmitters, id)
	case KindReceiver:
		delete(w.receivers, id)
	case KindJammer:
		delete(w.jammers, id)
	case KindDrone:
		delete(w.drones, id)
	case KindAI:
		delete(w.ais, id)
	case KindTeam:
		delete(w.teams, id)
	default:
		// Unknown kinds are a programming error, not a runtime condition.
		panic(fmt.Sprintf("world: remove of unknown component kind %d", kind))
	}
	delete(w.index[kind], id)
	w.events = append(w.events, Event{Kind: EventComponentRemoved, Entity: id, Component: kind})
}

func (w *World) attached(id EntityID, kind Kind) bool {
	if _, ok := w.alive[id]; !ok {
		return false
	}
	w.index[kind][id] = struct{}{}
	w.events = append(w.events, Event{Kind: EventComponentAdded, Entity: id, Component: kind})
	return true
}

// AddTransform attaches a transform; nil when the entity is unknown.
// At most one component per kind: re-adding replaces the previous value.
func (w *World) AddTransform(id EntityID, c Transform) *Transform {
	if !w.attached(id, KindTransform) {
		return nil
	}
	stored := c
	w.transforms[id] = &stored
	return &stored
}

// AddTransmitter attaches a transmitter; nil when the entity is unknown.
func (w *World) AddTransmitter(id EntityID, c Transmitter) *Transmitter {
	if !w.attached(id, KindTransmitter) {
		return nil
	}
	stored := c
	w.transmitters[id] = &stored
	return &stored
}

// AddReceiver attaches a receiver; nil when the entity is unknown.
func (w *World) AddReceiver(id EntityID, c Receiver) *Receiver {
	if !w.attached(id, KindReceiver) {
		return nil
	}
	stored := c
	w.receivers[id] = &stored
	return &stored
}

// AddJammer attaches a jammer; nil when the entity is unknown.
func (w *World) AddJammer(id EntityID, c Jammer) *Jammer {
	if !w.attached(id, KindJammer) {
		return nil
	}
	stored := c
	w.jammers[id] = &stored
	return &stored
}

// AddDrone attaches a drone; nil when the entity is unknown.
func (w *World) AddDrone(id EntityID, c Drone) *Drone {
	if !w.attached(id, KindDrone) {
		return nil
	}
	stored := c
	w.drones[id] = &stored
	return &stored
}

// AddAI attaches an AI behaviour component; nil when the entity is unknown.
func (w *World) AddAI(id EntityID, c AI) *AI {
	if !w.attached(id, KindAI) {
		return nil
	}
	stored := c
	w.ais[id] = &stored
	return &stored
}

// AddTeam attaches a team marker. Returns false when the entity is unknown.
func (w *World) AddTeam(id EntityID, t Team) bool {
	if !w.attached(id, KindTeam) {
		return false
	}
	w.teams[id] = t
	return true
}

// AddComponent attaches a default-constructed component of the given kind.
// Returns false when the entity is unknown. An unknown kind is a
// programming error, not a runtime condition, and panics.
func (w *World) AddComponent(id EntityID, kind Kind) bool {
	switch kind {
	case KindTransform:
		return w.AddTransform(id, Transform{Scale: 1}) != nil
	case KindTransmitter:
		return w.AddTransmitter(id, Transmitter{}) != nil
	case KindReceiver:
		return w.AddReceiver(id, Receiver{StrongestDBm: math.Inf(-1)}) != nil
	case KindJammer:
		return w.AddJammer(id, Jammer{}) != nil
	case KindDrone:
		return w.AddDrone(id, Drone{}) != nil
	case KindAI:
		return w.AddAI(id, AI{}) != nil
	case KindTeam:
		return w.AddTeam(id, TeamNeutral)
	default:
		panic(fmt.Sprintf("world: add of unknown component kind %d", kind))
	}
}

// Transform returns the entity's transform, or nil.
func (w *World) Transform(id EntityID) *Transform { return w.transforms[id] }

// Transmitter returns the entity's transmitter, or nil.
func (w *World) Transmitter(id EntityID) *Transmitter { return w.transmitters[id] }

// Receiver returns the entity's receiver, or nil.
func (w *World) Receiver(id EntityID) *Receiver { return w.receivers[id] }

// Jammer returns the entity's jammer, or nil.
func (w *World) Jammer(id EntityID) *Jammer { return w.jammers[id] }

// Drone returns the entity's drone, or nil.
func (w *World) Drone(id EntityID) *Drone { return w.drones[id] }

// AI returns the entity's AI component, or nil.
func (w *World) AI(id EntityID) *AI { return w.ais[id] }

// Team returns the entity's team and whether one is set.
func (w *World) Team(id EntityID) (Team, bool) {
	t, ok := w.teams[id]
	return t, ok
}

// EntitiesWith returns the ids of all entities carrying every requested
// kind, in ascending id order. The scan starts from the smallest index set
// and filters against the rest.
func (w *World) EntitiesWith(kinds ...Kind) []EntityID {
	if len(kinds) == 0 {
		return nil
	}
	for _, k := range kinds {
		if k >= kindCount {
			return nil
		}
	}

	smallest := kinds[0]
	for _, k := range kinds[1:] {
		if len(w.index[k]) < len(w.index[smallest]) {
			smallest = k
		}
	}

	out := make([]EntityID, 0, len(w.index[smallest]))
candidates:
	for id := range w.index[smallest] {
		for _, k := range kinds {
			if k == smallest {
				continue
			}
			if _, ok := w.index[k][id]; !ok {
				continue candidates
			}
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AllEntities returns every live entity id in ascending order.
func (w *World) AllEntities() []EntityID {
	out := make([]EntityID, 0, len(w.alive))
	for id := range w.alive {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DrainEvents returns the queued events since the last drain and clears
// the queue. Ordering follows mutation order.
func (w *World) DrainEvents() []Event {
	out := w.events
	w.events = nil
	return out
}

// Clear destroys every entity and drops any queued events. Used by mission
// reset.
func (w *World) Clear() {
	for _, id := range w.AllEntities() {
		w.DestroyEntity(id)
	}
	w.events = nil
}
