package core

import (
	"context"
	"math"

	"github.com/signalsfoundry/ewsim/config"
	"github.com/signalsfoundry/ewsim/internal/logging"
)

// Phase is a mission phase.
type Phase uint8

const (
	PhaseDeployment Phase = iota
	PhaseIntel
	PhaseOperation
	PhaseDefend
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseDeployment:
		return "DEPLOYMENT"
	case PhaseIntel:
		return "INTEL"
	case PhaseOperation:
		return "OPERATION"
	case PhaseDefend:
		return "DEFEND"
	case PhaseComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// Outcome is the mission result.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeVictory
	OutcomeDefeat
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVictory:
		return "VICTORY"
	case OutcomeDefeat:
		return "DEFEAT"
	default:
		return "NONE"
	}
}

// Mission aggregates propagation and asset state into the tactical
// advantage score and drives phase transitions and win/lose
// determination. Asset counts are rebuilt from the live entity set in a
// single pass every tick, so destroy ordering can never leave the
// defeat check looking at stale totals.
type Mission struct {
	world *World
	cfg   *config.Config
	rf    *Propagation
	log   logging.Logger

	started        bool
	phase          Phase
	phaseRemaining float64
	outcome        Outcome

	// per-tick tallies, rebuilt in Begin/Process
	totalPlayerAssets  int
	activePlayerAssets int

	signalDominance   float64
	assetRatio        float64
	targetLockRatio   float64
	tacticalAdvantage int
}

// NewMission builds the mission scoring system.
func NewMission(world *World, cfg *config.Config, rf *Propagation, log logging.Logger) *Mission {
	if log == nil {
		log = logging.Noop()
	}
	return &Mission{
		world: world,
		cfg:   cfg,
		rf:    rf,
		log:   log,
		phase: PhaseDeployment,
	}
}

// Name implements System.
func (m *Mission) Name() string { return "mission-control" }

// Required implements System. Per-entity processing tallies player assets.
func (m *Mission) Required() []Kind { return []Kind{KindTeam} }

// Begin resets the per-tick tallies.
func (m *Mission) Begin(dt float64) {
	m.totalPlayerAssets = 0
	m.activePlayerAssets = 0
}

// Process counts one entity toward the asset-status ratio. An asset is a
// player entity carrying a jammer, drone, or sensor receiver; it is
// active unless its jammer is depleted or its drone is disabled. Sensors
// always count as active.
func (m *Mission) Process(id EntityID, dt float64) {
	team, _ := m.world.Team(id)
	if team != TeamPlayer {
		return
	}

	jm := m.world.Jammer(id)
	drone := m.world.Drone(id)
	rx := m.world.Receiver(id)
	if jm == nil && drone == nil && rx == nil {
		return
	}

	m.totalPlayerAssets++

	if jm != nil && jm.Depleted {
		return
	}
	if drone != nil {
		if ai := m.world.AI(id); ai != nil && ai.State == AIDisabled {
			return
		}
	}
	m.activePlayerAssets++
}

// End folds the tallies into the advantage score and advances the phase
// timer.
func (m *Mission) End(dt float64) {
	playerDenied, enemyDenied := m.rf.JammedBandCounts()
	if playerDenied+enemyDenied == 0 {
		m.signalDominance = 0.5
	} else {
		m.signalDominance = float64(playerDenied) / float64(playerDenied+enemyDenied)
	}

	if m.totalPlayerAssets == 0 {
		m.assetRatio = 1
	} else {
		m.assetRatio = float64(m.activePlayerAssets) / float64(m.totalPlayerAssets)
	}

	// Target-lock scoring is not implemented yet; the weight is carried
	// so the blend does not change when it lands.
	m.targetLockRatio = 0

	advantage := 100 * (0.5*m.signalDominance + 0.3*m.assetRatio + 0.2*m.targetLockRatio)
	m.tacticalAdvantage = int(math.Round(advantage))
	if m.tacticalAdvantage < 0 {
		m.tacticalAdvantage = 0
	} else if m.tacticalAdvantage > 100 {
		m.tacticalAdvantage = 100
	}

	if !m.started || m.phase == PhaseComplete {
		return
	}

	// Defeat: every deployed asset is gone. The zero-total case is
	// explicitly excluded so removing the last asset does not read as a
	// wipeout.
	if m.totalPlayerAssets > 0 && m.activePlayerAssets == 0 {
		m.finish(OutcomeDefeat)
		return
	}

	if m.phase == PhaseOperation && m.tacticalAdvantage >= m.cfg.VictoryThreshold {
		m.finish(OutcomeVictory)
		return
	}

	m.phaseRemaining -= dt
	if m.phaseRemaining > 0 {
		return
	}

	switch m.phase {
	case PhaseDeployment:
		m.enterPhase(PhaseIntel, m.cfg.Phases.IntelSec)
	case PhaseIntel:
		m.enterPhase(PhaseOperation, m.cfg.Phases.OperationSec)
	case PhaseOperation:
		m.enterPhase(PhaseDefend, m.cfg.Phases.DefendSec)
	case PhaseDefend:
		// Falling off the end of DEFEND resolves on the current score.
		if m.tacticalAdvantage >= m.cfg.VictoryThreshold {
			m.finish(OutcomeVictory)
		} else {
			m.finish(OutcomeDefeat)
		}
	}
}

func (m *Mission) enterPhase(phase Phase, durationSec float64) {
	m.phase = phase
	m.phaseRemaining = durationSec
	m.log.Info(context.Background(), "mission phase change",
		logging.String("phase", phase.String()),
		logging.Float64("durationSec", durationSec))
}

func (m *Mission) finish(outcome Outcome) {
	m.phase = PhaseComplete
	m.phaseRemaining = 0
	m.outcome = outcome
	m.log.Info(context.Background(), "mission complete",
		logging.String("outcome", outcome.String()),
		logging.Int("tacticalAdvantage", m.tacticalAdvantage))
}

// Start arms the phase machine at DEPLOYMENT.
func (m *Mission) Start() {
	m.started = true
	m.outcome = OutcomeNone
	m.enterPhase(PhaseDeployment, m.cfg.Phases.DeploymentSec)
}

// Reset returns the mission to its pre-start state.
func (m *Mission) Reset() {
	m.started = false
	m.phase = PhaseDeployment
	m.phaseRemaining = 0
	m.outcome = OutcomeNone
	m.tacticalAdvantage = 0
	m.signalDominance = 0
	m.assetRatio = 0
}

// Started reports whether a mission is in progress or finished.
func (m *Mission) Started() bool { return m.started }

// Phase returns the current phase.
func (m *Mission) Phase() Phase { return m.phase }

// PhaseRemaining returns the seconds left in the current phase.
func (m *Mission) PhaseRemaining() float64 { return m.phaseRemaining }

// Outcome returns the mission result, OutcomeNone while undecided.
func (m *Mission) Outcome() Outcome { return m.outcome }

// TacticalAdvantage returns the current 0–100 advantage score.
func (m *Mission) TacticalAdvantage() int { return m.tacticalAdvantage }

// SignalDominance returns the player's share of denied bands.
func (m *Mission) SignalDominance() float64 { return m.signalDominance }

// AssetRatio returns the active/total player asset ratio.
func (m *Mission) AssetRatio() float64 { return m.assetRatio }
