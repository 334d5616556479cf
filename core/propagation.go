package core

import (
	"math"
	"time"

	"github.com/signalsfoundry/ewsim/config"
	"github.com/signalsfoundry/ewsim/internal/logging"
)

// Undetectable is the sentinel strength for pairs that cannot hear each
// other at all (band mismatch, inactive or out-of-window transmitter).
var Undetectable = math.Inf(-1)

// Propagation recomputes signal strength between every active transmitter
// and every receiver once per tick, and derives each receiver's jammed
// state. Pairwise results are cached for the duration of one pass and the
// cache is fully cleared at the start of the next.
type Propagation struct {
	world *World
	cfg   *config.Config
	log   logging.Logger

	// clock feeds the pulse duty-cycle window. Pulse timing deliberately
	// follows this wall-clock source rather than accumulated simulated
	// time; see DESIGN.md.
	clock func() time.Time

	cache map[pairKey]float64
}

type pairKey struct {
	tx, rx EntityID
}

// NewPropagation builds the propagation system.
func NewPropagation(world *World, cfg *config.Config, log logging.Logger) *Propagation {
	if log == nil {
		log = logging.Noop()
	}
	return &Propagation{
		world: world,
		cfg:   cfg,
		log:   log,
		clock: time.Now,
		cache: make(map[pairKey]float64),
	}
}

// SetClock overrides the pulse-window clock. Tests use a fixed clock to
// pin the duty cycle to a known phase.
func (p *Propagation) SetClock(clock func() time.Time) {
	if clock != nil {
		p.clock = clock
	}
}

// Name implements System.
func (p *Propagation) Name() string { return "rf-propagation" }

// Required implements System. The pass iterates transmitters; receivers
// are visited in the inner loop.
func (p *Propagation) Required() []Kind { return []Kind{KindTransmitter, KindTransform} }

// Begin clears the pairwise cache, refreshes pulse windows, and resets
// every receiver's derived state for this pass.
func (p *Propagation) Begin(dt float64) {
	clear(p.cache)

	now := p.clock()
	for _, id := range p.world.EntitiesWith(KindTransmitter) {
		tx := p.world.Transmitter(id)
		if tx.PulseOnMs > 0 {
			tx.Transmitting = tx.Active && pulseWindowOpen(now, tx.PulseOnMs, tx.PulseOffMs)
		} else {
			tx.Transmitting = tx.Active
		}
	}

	for _, id := range p.world.EntitiesWith(KindReceiver) {
		rx := p.world.Receiver(id)
		rx.Signals = rx.Signals[:0]
		rx.StrongestDBm = Undetectable
		rx.Jammed = false
	}
}

// Process implements System for a single transmitter entity: it evaluates
// the transmitter against every receiver, recording signals that exceed
// the receiver's sensitivity.
func (p *Propagation) Process(txID EntityID, dt float64) {
	tx := p.world.Transmitter(txID)
	if tx == nil || !tx.Active {
		return
	}

	jm := p.world.Jammer(txID)

	for _, rxID := range p.world.EntitiesWith(KindReceiver, KindTransform) {
		if rxID == txID {
			continue
		}
		rx := p.world.Receiver(rxID)

		strength := p.SignalStrength(txID, rxID)
		if math.IsInf(strength, -1) || strength <= rx.SensitivityDBm {
			// Boundary is fixed to the undetected side: a signal exactly
			// at sensitivity is not recorded.
			continue
		}

		rx.Signals = append(rx.Signals, Signal{
			Source:      txID,
			Band:        tx.Band,
			StrengthDBm: strength,
		})
		if strength > rx.StrongestDBm {
			rx.StrongestDBm = strength
		}

		// Jammed state is set only through this explicit jammer check.
		// A strong non-jammer emission on the same band never jams.
		if jm != nil && jm.Active && jm.TargetBand == rx.Band {
			rx.Jammed = true
		}
	}
}

// SignalStrength returns the received power in dBm at rx for tx's current
// emission, or Undetectable. Results are cached per pair within a pass.
//
// Early-exit rules, in order: inactive or band-mismatched transmitter,
// pulse transmitter outside its on-window, then the zero-distance case
// which returns the raw transmit power to avoid a singular path loss.
func (p *Propagation) SignalStrength(txID, rxID EntityID) float64 {
	key := pairKey{tx: txID, rx: rxID}
	if cached, ok := p.cache[key]; ok {
		return cached
	}

	strength := p.computeSignalStrength(txID, rxID)
	p.cache[key] = strength
	return strength
}

func (p *Propagation) computeSignalStrength(txID, rxID EntityID) float64 {
	tx := p.world.Transmitter(txID)
	rx := p.world.Receiver(rxID)
	if tx == nil || rx == nil {
		return Undetectable
	}
	if !tx.Active || tx.Band != rx.Band {
		return Undetectable
	}
	if tx.PulseOnMs > 0 && !tx.Transmitting {
		return Undetectable
	}

	txTr := p.world.Transform(txID)
	rxTr := p.world.Transform(rxID)
	if txTr == nil || rxTr == nil {
		return Undetectable
	}

	distM := txTr.Position.DistanceTo(rxTr.Position)
	if distM == 0 {
		return tx.PowerDBm
	}

	band, ok := p.cfg.Bands[tx.Band]
	if !ok {
		return Undetectable
	}

	loss := p.pathLossDB(distM, band.CenterMHz, txTr.Position.Z, rxTr.Position.Z)
	gain := p.antennaGainDBi(tx, txTr, rxTr)

	return tx.PowerDBm - loss + gain
}

// pathLossDB applies the configured path-loss model. Distances are metres,
// frequency in MHz, heights in metres above ground.
func (p *Propagation) pathLossDB(distM, freqMHz, heightTx, heightRx float64) float64 {
	distKm := distM / 1000.0

	switch p.cfg.PropagationModel {
	case config.ModelTwoRay:
		// The two-ray ground model is only meaningful beyond a reference
		// distance; below 1000 m it falls back to free space.
		if distM < 1000 {
			return fsplDB(distKm, freqMHz)
		}
		return 40*math.Log10(distKm) -
			20*math.Log10(math.Max(1, heightTx)) -
			20*math.Log10(math.Max(1, heightRx))

	case config.ModelLogDistance:
		// Reference-distance model anchored at 1 km, urban path-loss
		// exponent 2.8.
		const exponent = 2.8
		pl0 := fsplDB(1, freqMHz)
		return pl0 + 10*exponent*math.Log10(distKm)

	default:
		return fsplDB(distKm, freqMHz)
	}
}

// fsplDB is free-space path loss for distance in km and frequency in MHz.
func fsplDB(distKm, freqMHz float64) float64 {
	return 20*math.Log10(distKm) + 20*math.Log10(freqMHz) + 32.45
}

// antennaGainDBi evaluates the transmitter's antenna toward the receiver.
// Unknown antenna keys behave as isotropic.
func (p *Propagation) antennaGainDBi(tx *Transmitter, txTr, rxTr *Transform) float64 {
	ant, ok := p.cfg.Antennas[tx.Antenna]
	if !ok {
		return 0
	}
	if !ant.Directional || ant.BeamWidthDeg <= 0 {
		return ant.GainDBi
	}

	bearing := txTr.Position.BearingTo(rxTr.Position)
	offset := normalizeAngle(bearing - tx.HeadingRad)
	beamWidth := ant.BeamWidthDeg * math.Pi / 180

	lobe := math.Cos(math.Pi * offset / beamWidth)
	scale := lobe * lobe
	if math.Abs(offset) <= beamWidth/2 {
		return ant.GainDBi * scale
	}
	// Side lobes never go to exactly zero so weak off-axis emissions stay
	// detectable.
	return ant.GainDBi * math.Max(0.01, 0.2*scale)
}

// pulseWindowOpen reports whether a pulse transmitter is inside its
// on-window at the given instant.
func pulseWindowOpen(now time.Time, onMs, offMs int) bool {
	cycle := int64(onMs + offMs)
	if cycle <= 0 {
		return true
	}
	phase := now.UnixMilli() % cycle
	return phase < int64(onMs)
}

// JammedBandCounts tallies the distinct bands on which each side's
// receivers are currently jammed, attributed to the opposing side's
// denial effort. Mission scoring reads these tallies each tick.
func (p *Propagation) JammedBandCounts() (playerDenied, enemyDenied int) {
	playerBands := make(map[string]struct{})
	enemyBands := make(map[string]struct{})

	for _, id := range p.world.EntitiesWith(KindReceiver, KindTeam) {
		rx := p.world.Receiver(id)
		if !rx.Jammed {
			continue
		}
		team, _ := p.world.Team(id)
		switch team {
		case TeamEnemy:
			playerBands[rx.Band] = struct{}{}
		case TeamPlayer:
			enemyBands[rx.Band] = struct{}{}
		}
	}
	return len(playerBands), len(enemyBands)
}
