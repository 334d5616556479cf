package core

import "math"

// Kind identifies one of the closed set of component kinds. Components are
// a fixed sum: the store keeps one sparse map per kind and no runtime type
// tags beyond this enum.
type Kind uint8

const (
	KindTransform Kind = iota
	KindTransmitter
	KindReceiver
	KindJammer
	KindDrone
	KindAI
	KindTeam

	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindTransform:
		return "Transform"
	case KindTransmitter:
		return "RFTransmitter"
	case KindReceiver:
		return "RFReceiver"
	case KindJammer:
		return "Jammer"
	case KindDrone:
		return "Drone"
	case KindAI:
		return "AI"
	case KindTeam:
		return "Team"
	default:
		return "Unknown"
	}
}

// Transform is an entity's pose: battlefield-local position in metres,
// yaw in radians, and a uniform scale kept for the presentation layer.
type Transform struct {
	Position Vec3
	Yaw      float64
	Scale    float64
}

// Transmitter models an RF emitter. While a Jammer component is present on
// the same entity, the jammer system overwrites Active, Band, and PowerDBm
// every tick; the transmitter stays the single source of truth for
// propagation.
type Transmitter struct {
	Band       string
	PowerDBm   float64
	Antenna    string
	Active     bool
	HeadingRad float64

	// PulseOnMs/PulseOffMs > 0 selects pulse mode. Transmitting is the
	// derived in-window flag, refreshed by the propagation pass.
	PulseOnMs    int
	PulseOffMs   int
	Transmitting bool
}

// Signal is one received emission, as recorded during a receiver pass.
type Signal struct {
	Source      EntityID
	Band        string
	StrengthDBm float64
}

// Receiver models an RF listener. Signals, StrongestDBm, and Jammed are
// fully recomputed by the propagation engine every tick and never persist
// across ticks.
type Receiver struct {
	Band           string
	SensitivityDBm float64

	Signals      []Signal
	StrongestDBm float64
	Jammed       bool
}

// Jammer carries the game-level semantics of a jamming asset: cooldown,
// depletion, and the target frequency/power that its transmitter mirrors.
type Jammer struct {
	Type              string
	Active            bool
	TargetBand        string
	PowerDBm          float64
	CooldownRemaining float64
	Depleted          bool
}

// Drone holds the navigation state of an autonomous unit.
type Drone struct {
	Type         string
	SpeedMPS     float64
	AltitudeM    float64
	RemainingSec float64
	Waypoints    []Vec3
	Base         *Vec3
	ReturnToBase bool
	Target       *Vec3
}

// AIState enumerates the single per-entity behaviour machine. Confused
// suspends whatever state was active and resumes it when the timer expires.
type AIState uint8

const (
	AIIdle AIState = iota
	AIPatrol
	AIConfused
	AIReturning
	AIDisabled
)

func (s AIState) String() string {
	switch s {
	case AIIdle:
		return "idle"
	case AIPatrol:
		return "patrol"
	case AIConfused:
		return "confused"
	case AIReturning:
		return "returning"
	case AIDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// AI behaviour kinds.
const (
	BehaviorPatrol = "patrol"
	BehaviorDefend = "defend"
	BehaviorAttack = "attack"
)

// AI is the behaviour component shared by drones and any other
// autonomous entity.
type AI struct {
	Behavior           string
	State              AIState
	Resume             AIState
	ConfusionRemaining float64
	AwarenessRadiusM   float64
}

// Team marks an entity's affiliation.
type Team uint8

const (
	TeamNeutral Team = iota
	TeamPlayer
	TeamEnemy
)

func (t Team) String() string {
	switch t {
	case TeamPlayer:
		return "PLAYER"
	case TeamEnemy:
		return "ENEMY"
	default:
		return "NEUTRAL"
	}
}

// NewTransform returns a transform at pos with unit scale.
func NewTransform(pos Vec3) Transform {
	return Transform{Position: pos, Scale: 1}
}

// NewReceiver returns a receiver with its derived fields cleared.
func NewReceiver(band string, sensitivityDBm float64) Receiver {
	return Receiver{
		Band:           band,
		SensitivityDBm: sensitivityDBm,
		StrongestDBm:   math.Inf(-1),
	}
}
