package core

// EntitySnapshot is a read-only view of one entity's presentable state.
// Optional sections are nil when the entity lacks the component.
type EntitySnapshot struct {
	ID   EntityID
	Team Team

	Position Vec3
	Yaw      float64

	Transmitter *TransmitterSnapshot
	Receiver    *ReceiverSnapshot
	Jammer      *JammerSnapshot
	Drone       *DroneSnapshot
	AIState     string
}

// TransmitterSnapshot mirrors the emitter state the spectrum display needs.
type TransmitterSnapshot struct {
	Band         string
	PowerDBm     float64
	Active       bool
	Transmitting bool
}

// ReceiverSnapshot mirrors per-tick reception state.
type ReceiverSnapshot struct {
	Band         string
	StrongestDBm float64
	Jammed       bool
	Signals      []Signal
}

// JammerSnapshot mirrors jammer asset state.
type JammerSnapshot struct {
	Type              string
	Active            bool
	TargetBand        string
	PowerDBm          float64
	CooldownRemaining float64
	Depleted          bool
}

// DroneSnapshot mirrors drone navigation state.
type DroneSnapshot struct {
	Type         string
	RemainingSec float64
	Waypoints    int
}

// MissionSnapshot mirrors the scoring state the HUD consumes.
type MissionSnapshot struct {
	Started           bool
	Phase             string
	PhaseRemaining    float64
	TacticalAdvantage int
	SignalDominance   float64
	AssetRatio        float64
	Outcome           string
}

// Snapshot captures the presentable state of every entity plus the
// mission metrics. Signal slices are copied so the caller may hold the
// snapshot across ticks.
type Snapshot struct {
	Entities []EntitySnapshot
	Mission  MissionSnapshot
}

// Snapshot builds a read-only copy of the current battlefield state.
func (b *Battlefield) Snapshot() Snapshot {
	ids := b.world.AllEntities()
	snap := Snapshot{
		Entities: make([]EntitySnapshot, 0, len(ids)),
		Mission: MissionSnapshot{
			Started:           b.mission.Started(),
			Phase:             b.mission.Phase().String(),
			PhaseRemaining:    b.mission.PhaseRemaining(),
			TacticalAdvantage: b.mission.TacticalAdvantage(),
			SignalDominance:   b.mission.SignalDominance(),
			AssetRatio:        b.mission.AssetRatio(),
			Outcome:           b.mission.Outcome().String(),
		},
	}

	for _, id := range ids {
		es := EntitySnapshot{ID: id}
		if team, ok := b.world.Team(id); ok {
			es.Team = team
		}
		if tr := b.world.Transform(id); tr != nil {
			es.Position = tr.Position
			es.Yaw = tr.Yaw
		}
		if tx := b.world.Transmitter(id); tx != nil {
			es.Transmitter = &TransmitterSnapshot{
				Band:         tx.Band,
				PowerDBm:     tx.PowerDBm,
				Active:       tx.Active,
				Transmitting: tx.Transmitting,
			}
		}
		if rx := b.world.Receiver(id); rx != nil {
			signals := make([]Signal, len(rx.Signals))
			copy(signals, rx.Signals)
			es.Receiver = &ReceiverSnapshot{
				Band:         rx.Band,
				StrongestDBm: rx.StrongestDBm,
				Jammed:       rx.Jammed,
				Signals:      signals,
			}
		}
		if jm := b.world.Jammer(id); jm != nil {
			es.Jammer = &JammerSnapshot{
				Type:              jm.Type,
				Active:            jm.Active,
				TargetBand:        jm.TargetBand,
				PowerDBm:          jm.PowerDBm,
				CooldownRemaining: jm.CooldownRemaining,
				Depleted:          jm.Depleted,
			}
		}
		if drone := b.world.Drone(id); drone != nil {
			es.Drone = &DroneSnapshot{
				Type:         drone.Type,
				RemainingSec: drone.RemainingSec,
				Waypoints:    len(drone.Waypoints),
			}
		}
		if ai := b.world.AI(id); ai != nil {
			es.AIState = ai.State.String()
		}
		snap.Entities = append(snap.Entities, es)
	}
	return snap
}
