package core

import (
	"context"

	"github.com/signalsfoundry/ewsim/config"
	"github.com/signalsfoundry/ewsim/internal/logging"
)

// JammerSystem drives the per-jammer state machine
// (INACTIVE → ACTIVE → COOLDOWN → INACTIVE) and keeps the owned
// transmitter synchronized to the jammer every tick. The transmitter is
// the single source of truth for propagation; the jammer holds the
// game-level semantics (cooldown, depletion, cost).
type JammerSystem struct {
	world *World
	cfg   *config.Config
	log   logging.Logger
}

// NewJammerSystem builds the jammer behaviour system.
func NewJammerSystem(world *World, cfg *config.Config, log logging.Logger) *JammerSystem {
	if log == nil {
		log = logging.Noop()
	}
	return &JammerSystem{world: world, cfg: cfg, log: log}
}

// Name implements System.
func (j *JammerSystem) Name() string { return "jammer-control" }

// Required implements System.
func (j *JammerSystem) Required() []Kind { return []Kind{KindJammer, KindTransmitter} }

// Process decays the cooldown timer and forces the transmitter to mirror
// the jammer's effective state.
func (j *JammerSystem) Process(id EntityID, dt float64) {
	jm := j.world.Jammer(id)
	tx := j.world.Transmitter(id)

	if jm.CooldownRemaining > 0 {
		jm.CooldownRemaining -= dt
		if jm.CooldownRemaining < 0 {
			jm.CooldownRemaining = 0
		}
	}

	tx.Active = jm.Active && jm.CooldownRemaining == 0 && !jm.Depleted
	tx.Band = jm.TargetBand
	tx.PowerDBm = jm.PowerDBm

	if jt, ok := j.cfg.JammerTypes[jm.Type]; ok && jt.PulseOnMs > 0 {
		tx.PulseOnMs = jt.PulseOnMs
		tx.PulseOffMs = jt.PulseOffMs
	} else {
		tx.PulseOnMs = 0
		tx.PulseOffMs = 0
	}
}

// Activate switches the jammer on. It fails without any state change when
// the jammer is unknown, mid-cooldown, or depleted.
func (j *JammerSystem) Activate(id EntityID) bool {
	jm := j.world.Jammer(id)
	if jm == nil {
		return false
	}
	if jm.CooldownRemaining > 0 || jm.Depleted {
		return false
	}
	jm.Active = true
	j.log.Debug(context.Background(), "jammer activated",
		logging.Uint64("entity", uint64(id)),
		logging.String("band", jm.TargetBand))
	return true
}

// Deactivate switches the jammer off and (re)arms the type's cooldown,
// even when the jammer was already inactive.
func (j *JammerSystem) Deactivate(id EntityID) bool {
	jm := j.world.Jammer(id)
	if jm == nil {
		return false
	}
	jm.Active = false
	if tx := j.world.Transmitter(id); tx != nil {
		tx.Active = false
	}
	if jt, ok := j.cfg.JammerTypes[jm.Type]; ok {
		jm.CooldownRemaining = jt.CooldownSec
	}
	j.log.Debug(context.Background(), "jammer deactivated",
		logging.Uint64("entity", uint64(id)),
		logging.Float64("cooldownSec", jm.CooldownRemaining))
	return true
}

// SetFrequency retargets the jammer. Fails when the band is not one of the
// configured bands; state is untouched on failure.
func (j *JammerSystem) SetFrequency(id EntityID, band string) bool {
	jm := j.world.Jammer(id)
	if jm == nil {
		return false
	}
	if !j.cfg.HasBand(band) {
		return false
	}
	jm.TargetBand = band
	return true
}

// SetPower adjusts the jammer's output. Fails when the level is outside
// the type's configured range; state is untouched on failure.
func (j *JammerSystem) SetPower(id EntityID, powerDBm float64) bool {
	jm := j.world.Jammer(id)
	if jm == nil {
		return false
	}
	jt, ok := j.cfg.JammerTypes[jm.Type]
	if !ok {
		return false
	}
	if powerDBm < jt.MinPowerDBm || powerDBm > jt.MaxPowerDBm {
		return false
	}
	jm.PowerDBm = powerDBm
	return true
}
