package core

import (
	"context"
	"math"
	"math/rand"

	"github.com/signalsfoundry/ewsim/config"
	"github.com/signalsfoundry/ewsim/internal/logging"
)

// AISystem runs one behaviour state machine per AI-bearing entity.
// Jamming feedback from the propagation pass pushes any state into
// confused; the suspended state resumes when the confusion timer expires.
// Entities that also carry a Drone component get the full
// patrol/returning/disabled navigation behaviour; anything else only
// toggles between idle and confused.
type AISystem struct {
	world *World
	cfg   *config.Config
	log   logging.Logger
	rng   *rand.Rand
}

// NewAISystem builds the AI behaviour system. rng feeds the confused
// heading jitter and must be non-nil only when determinism matters; a
// nil rng falls back to a fixed-seed source.
func NewAISystem(world *World, cfg *config.Config, rng *rand.Rand, log logging.Logger) *AISystem {
	if log == nil {
		log = logging.Noop()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &AISystem{world: world, cfg: cfg, log: log, rng: rng}
}

// Name implements System.
func (a *AISystem) Name() string { return "ai-behavior" }

// Required implements System.
func (a *AISystem) Required() []Kind { return []Kind{KindAI, KindTransform} }

// Process advances one entity's state machine by dt seconds.
func (a *AISystem) Process(id EntityID, dt float64) {
	ai := a.world.AI(id)
	tr := a.world.Transform(id)
	drone := a.world.Drone(id)

	if ai.State == AIDisabled {
		return
	}

	// Jamming feedback: suspend whatever is running and go confused.
	if rx := a.world.Receiver(id); rx != nil && rx.Jammed && ai.State != AIConfused {
		ai.Resume = ai.State
		ai.State = AIConfused
		ai.ConfusionRemaining = a.cfg.AI.ConfusionSec
		a.log.Debug(context.Background(), "ai confused by jamming",
			logging.Uint64("entity", uint64(id)),
			logging.String("resume", ai.Resume.String()))
	}

	switch ai.State {
	case AIConfused:
		a.stepConfused(ai, tr, drone, dt)
	case AIPatrol:
		if drone != nil {
			a.stepPatrol(id, ai, tr, drone, dt)
		} else {
			ai.State = AIIdle
		}
	case AIReturning:
		if drone != nil {
			a.stepReturning(ai, tr, drone, dt)
		} else {
			ai.State = AIIdle
		}
	case AIIdle:
		if drone != nil && drone.Target != nil {
			moveToward(tr, *drone.Target, drone.SpeedMPS, dt)
		}
	}

	// Operating-time budget. Exhaustion disables the unit; disabled is
	// terminal unless the entity is removed externally.
	if drone != nil {
		drone.RemainingSec -= dt
		if drone.RemainingSec <= 0 {
			drone.RemainingSec = 0
			ai.State = AIDisabled
			a.log.Debug(context.Background(), "drone disabled, operating time exhausted",
				logging.Uint64("entity", uint64(id)))
		}
	}
}

// stepConfused ticks the confusion timer and, for drones, applies the
// randomized-heading movement variant: heading jitter plus forward motion
// at half speed.
func (a *AISystem) stepConfused(ai *AI, tr *Transform, drone *Drone, dt float64) {
	ai.ConfusionRemaining -= dt
	if ai.ConfusionRemaining <= 0 {
		ai.ConfusionRemaining = 0
		ai.State = ai.Resume
		ai.Resume = AIIdle
		return
	}

	if drone == nil {
		return
	}
	jitter := (a.rng.Float64()*2 - 1) * a.cfg.AI.HeadingJitterRad
	tr.Yaw = normalizeAngle(tr.Yaw + jitter)
	step := drone.SpeedMPS / 2 * dt
	tr.Position.X += math.Cos(tr.Yaw) * step
	tr.Position.Y += math.Sin(tr.Yaw) * step
}

// stepPatrol advances toward the head of the waypoint queue, popping
// waypoints on arrival. An empty queue hands off to returning (when a
// base and the return flag are set) or idle.
func (a *AISystem) stepPatrol(id EntityID, ai *AI, tr *Transform, drone *Drone, dt float64) {
	for len(drone.Waypoints) > 0 {
		wp := drone.Waypoints[0]
		if tr.Position.GroundDistanceTo(wp) >= a.cfg.AI.ArrivalRadiusM {
			moveToward(tr, wp, drone.SpeedMPS, dt)
			return
		}
		drone.Waypoints = drone.Waypoints[1:]
	}

	if drone.Base != nil && drone.ReturnToBase {
		ai.State = AIReturning
	} else {
		ai.State = AIIdle
	}
	a.log.Debug(context.Background(), "patrol complete",
		logging.Uint64("entity", uint64(id)),
		logging.String("next", ai.State.String()))
}

// stepReturning moves toward the base location and idles on arrival.
func (a *AISystem) stepReturning(ai *AI, tr *Transform, drone *Drone, dt float64) {
	if drone.Base == nil {
		ai.State = AIIdle
		return
	}
	if tr.Position.GroundDistanceTo(*drone.Base) < a.cfg.AI.ArrivalRadiusM {
		ai.State = AIIdle
		return
	}
	moveToward(tr, *drone.Base, drone.SpeedMPS, dt)
}

// moveToward is the shared movement helper: face the target and advance
// speed·dt along the heading, without overshooting on the ground plane.
func moveToward(tr *Transform, target Vec3, speedMPS, dt float64) {
	dx := target.X - tr.Position.X
	dy := target.Y - tr.Position.Y
	dist := math.Hypot(dx, dy)

	tr.Yaw = math.Atan2(dy, dx)

	step := speedMPS * dt
	if step >= dist {
		tr.Position.X = target.X
		tr.Position.Y = target.Y
		return
	}
	tr.Position.X += math.Cos(tr.Yaw) * step
	tr.Position.Y += math.Sin(tr.Yaw) * step
}
