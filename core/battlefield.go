package core

import (
	"context"
	"math/rand"
	"time"

	"github.com/signalsfoundry/ewsim/config"
	"github.com/signalsfoundry/ewsim/internal/logging"
)

// MetricsRecorder receives simulation gauges once per tick. The battlefield
// never depends on a recorder being present.
type MetricsRecorder interface {
	RecordTick(d time.Duration)
	SetSimCounts(entities, activeJammers, jammedReceivers int)
	SetTacticalAdvantage(score int)
}

// Options carries the injectable collaborators for a Battlefield. Zero
// values select production defaults.
type Options struct {
	Logger  logging.Logger
	Rand    *rand.Rand
	Clock   func() time.Time // pulse-window time base
	Epoch   time.Time        // SGP4 propagation start; zero means now
	Metrics MetricsRecorder
}

// Battlefield bundles the world, configuration, and systems into the
// engine's command surface. Placement and activation commands come in
// through its methods; the presentation layer polls Snapshot and drains
// Events after each tick.
type Battlefield struct {
	cfg   *config.Config
	world *World
	sched *Scheduler
	log   logging.Logger

	sky     *SkyTrack
	jammers *JammerSystem
	rf      *Propagation
	ai      *AISystem
	mission *Mission

	metrics MetricsRecorder

	// availability bookkeeping per catalog type
	deployedJammers map[string]int
	deployedDrones  map[string]int
}

// NewBattlefield wires a battlefield from an immutable configuration.
func NewBattlefield(cfg *config.Config, opts Options) (*Battlefield, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	epoch := opts.Epoch
	if epoch.IsZero() {
		epoch = time.Now().UTC()
	}

	world := NewWorld()
	sched := NewScheduler(world)

	bf := &Battlefield{
		cfg:             cfg,
		world:           world,
		sched:           sched,
		log:             log,
		metrics:         opts.Metrics,
		deployedJammers: make(map[string]int),
		deployedDrones:  make(map[string]int),
	}

	bf.sky = NewSkyTrack(world, cfg, epoch, log)
	bf.jammers = NewJammerSystem(world, cfg, log)
	bf.rf = NewPropagation(world, cfg, log)
	bf.ai = NewAISystem(world, cfg, opts.Rand, log)
	bf.mission = NewMission(world, cfg, bf.rf, log)

	if opts.Clock != nil {
		bf.rf.SetClock(opts.Clock)
	}

	// Tick order: orbital motion, jammer sync, propagation, AI, scoring.
	for _, sys := range []System{bf.sky, bf.jammers, bf.rf, bf.ai, bf.mission} {
		if _, err := sched.Register(sys); err != nil {
			return nil, err
		}
	}

	return bf, nil
}

// World exposes the component store, mainly for scenario loading and
// tests.
func (b *Battlefield) World() *World { return b.world }

// Scheduler exposes the system scheduler for enable/disable control.
func (b *Battlefield) Scheduler() *Scheduler { return b.sched }

// Mission exposes the scoring system.
func (b *Battlefield) Mission() *Mission { return b.mission }

// Jammers exposes the jammer behaviour system.
func (b *Battlefield) Jammers() *JammerSystem { return b.jammers }

// Propagation exposes the RF engine.
func (b *Battlefield) Propagation() *Propagation { return b.rf }

// Sky exposes the orbital tracking system.
func (b *Battlefield) Sky() *SkyTrack { return b.sky }

// Tick advances the simulation by dt seconds.
func (b *Battlefield) Tick(dt float64) {
	start := time.Now()
	b.sched.Update(dt)

	if b.metrics != nil {
		b.metrics.RecordTick(time.Since(start))
		b.metrics.SetSimCounts(b.world.EntityCount(), b.countActiveJammers(), b.countJammedReceivers())
		b.metrics.SetTacticalAdvantage(b.mission.TacticalAdvantage())
	}
}

// Events drains the world's queued store events for incremental
// presentation updates.
func (b *Battlefield) Events() []Event {
	return b.world.DrainEvents()
}

// CreateJammer places a player jammer of the given catalog type. Returns
// (0, false) when the type is unknown or its max-count is exhausted.
func (b *Battlefield) CreateJammer(typeName string, pos Vec3) (EntityID, bool) {
	jt, ok := b.cfg.JammerTypes[typeName]
	if !ok {
		return 0, false
	}
	if jt.MaxCount > 0 && b.deployedJammers[typeName] >= jt.MaxCount {
		return 0, false
	}

	id := b.world.CreateEntity()
	b.world.AddTransform(id, NewTransform(pos))
	b.world.AddTransmitter(id, Transmitter{
		Band:     jt.DefaultBand,
		PowerDBm: jt.DefaultPowerDBm,
		Antenna:  jt.DefaultAntenna,
	})
	b.world.AddJammer(id, Jammer{
		Type:       typeName,
		TargetBand: jt.DefaultBand,
		PowerDBm:   jt.DefaultPowerDBm,
	})
	b.world.AddTeam(id, TeamPlayer)

	b.deployedJammers[typeName]++
	b.log.Debug(context.Background(), "jammer placed",
		logging.String("type", typeName),
		logging.Uint64("entity", uint64(id)))
	return id, true
}

// ActivateJammer switches a jammer on; false on cooldown, depletion, or
// unknown id.
func (b *Battlefield) ActivateJammer(id EntityID) bool { return b.jammers.Activate(id) }

// DeactivateJammer switches a jammer off and arms its cooldown.
func (b *Battlefield) DeactivateJammer(id EntityID) bool { return b.jammers.Deactivate(id) }

// SetJammerFrequency retargets a jammer onto one of the defined bands.
func (b *Battlefield) SetJammerFrequency(id EntityID, band string) bool {
	return b.jammers.SetFrequency(id, band)
}

// SetJammerPower adjusts a jammer within its type's power range.
func (b *Battlefield) SetJammerPower(id EntityID, powerDBm float64) bool {
	return b.jammers.SetPower(id, powerDBm)
}

// RemoveJammer destroys a jammer entity and releases its availability
// slot. False when the id is not a jammer.
func (b *Battlefield) RemoveJammer(id EntityID) bool {
	jm := b.world.Jammer(id)
	if jm == nil {
		return false
	}
	typeName := jm.Type
	if !b.world.DestroyEntity(id) {
		return false
	}
	if b.deployedJammers[typeName] > 0 {
		b.deployedJammers[typeName]--
	}
	return true
}

// CreateDrone places a player drone of the given catalog type. base may be
// nil for drones with no recovery point.
func (b *Battlefield) CreateDrone(typeName string, pos Vec3, base *Vec3) (EntityID, bool) {
	dt, ok := b.cfg.DroneTypes[typeName]
	if !ok {
		return 0, false
	}
	if dt.MaxCount > 0 && b.deployedDrones[typeName] >= dt.MaxCount {
		return 0, false
	}

	id := b.spawnDrone(typeName, dt, TeamPlayer, pos, base, nil)
	b.deployedDrones[typeName]++
	return id, true
}

// spawnDrone creates a drone entity without touching availability
// counters; the scenario loader uses it for the opposing force.
func (b *Battlefield) spawnDrone(typeName string, dt config.DroneType, team Team, pos Vec3, base *Vec3, waypoints []Vec3) EntityID {
	pos.Z = dt.AltitudeM

	id := b.world.CreateEntity()
	b.world.AddTransform(id, NewTransform(pos))
	b.world.AddDrone(id, Drone{
		Type:         typeName,
		SpeedMPS:     dt.SpeedMPS,
		AltitudeM:    dt.AltitudeM,
		RemainingSec: dt.OperatingTimeSec,
		Waypoints:    waypoints,
		Base:         base,
		ReturnToBase: base != nil,
	})
	state := AIIdle
	if len(waypoints) > 0 {
		state = AIPatrol
	}
	b.world.AddAI(id, AI{
		Behavior:         BehaviorPatrol,
		State:            state,
		AwarenessRadiusM: 500,
	})
	b.world.AddReceiver(id, NewReceiver(dt.NavBand, dt.NavSensitivityDBm))
	b.world.AddTeam(id, team)

	b.log.Debug(context.Background(), "drone spawned",
		logging.String("type", typeName),
		logging.String("team", team.String()),
		logging.Uint64("entity", uint64(id)))
	return id
}

// SetDroneWaypoints replaces a drone's waypoint queue and puts it on
// patrol. False when the id is not a drone.
func (b *Battlefield) SetDroneWaypoints(id EntityID, waypoints []Vec3) bool {
	drone := b.world.Drone(id)
	if drone == nil {
		return false
	}
	drone.Waypoints = append(drone.Waypoints[:0], waypoints...)
	if ai := b.world.AI(id); ai != nil && ai.State != AIDisabled {
		if ai.State == AIConfused {
			ai.Resume = AIPatrol
		} else {
			ai.State = AIPatrol
		}
	}
	return true
}

// RemoveDrone destroys a drone entity and releases its availability slot.
func (b *Battlefield) RemoveDrone(id EntityID) bool {
	drone := b.world.Drone(id)
	if drone == nil {
		return false
	}
	typeName := drone.Type
	team, _ := b.world.Team(id)
	if !b.world.DestroyEntity(id) {
		return false
	}
	if team == TeamPlayer && b.deployedDrones[typeName] > 0 {
		b.deployedDrones[typeName]--
	}
	return true
}

// StartMission arms the mission phase machine.
func (b *Battlefield) StartMission() {
	b.mission.Start()
}

// Reset destroys every entity and clears availability counters and
// mission state.
func (b *Battlefield) Reset() {
	b.world.Clear()
	b.sky.Reset()
	b.mission.Reset()
	clear(b.deployedJammers)
	clear(b.deployedDrones)
	b.log.Info(context.Background(), "battlefield reset")
}

// JammersAvailable returns how many more jammers of the type may be
// placed; -1 when the type is unknown.
func (b *Battlefield) JammersAvailable(typeName string) int {
	jt, ok := b.cfg.JammerTypes[typeName]
	if !ok {
		return -1
	}
	if jt.MaxCount <= 0 {
		return int(^uint(0) >> 1)
	}
	return jt.MaxCount - b.deployedJammers[typeName]
}

// DronesAvailable returns how many more drones of the type may be placed;
// -1 when the type is unknown.
func (b *Battlefield) DronesAvailable(typeName string) int {
	dt, ok := b.cfg.DroneTypes[typeName]
	if !ok {
		return -1
	}
	if dt.MaxCount <= 0 {
		return int(^uint(0) >> 1)
	}
	return dt.MaxCount - b.deployedDrones[typeName]
}

func (b *Battlefield) countActiveJammers() int {
	n := 0
	for _, id := range b.world.EntitiesWith(KindJammer) {
		if jm := b.world.Jammer(id); jm.Active && !jm.Depleted {
			n++
		}
	}
	return n
}

func (b *Battlefield) countJammedReceivers() int {
	n := 0
	for _, id := range b.world.EntitiesWith(KindReceiver) {
		if b.world.Receiver(id).Jammed {
			n++
		}
	}
	return n
}
