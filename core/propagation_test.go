package core

import (
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/ewsim/config"
)

func newRFWorld(t *testing.T) (*World, *Propagation, *config.Config) {
	t.Helper()
	cfg := config.Default()
	w := NewWorld()
	return w, NewPropagation(w, cfg, nil), cfg
}

func addEmitter(w *World, pos Vec3, band string, powerDBm float64, antenna string) EntityID {
	id := w.CreateEntity()
	w.AddTransform(id, NewTransform(pos))
	w.AddTransmitter(id, Transmitter{
		Band:     band,
		PowerDBm: powerDBm,
		Antenna:  antenna,
		Active:   true,
	})
	return id
}

func addListener(w *World, pos Vec3, band string, sensitivityDBm float64) EntityID {
	id := w.CreateEntity()
	w.AddTransform(id, NewTransform(pos))
	w.AddReceiver(id, NewReceiver(band, sensitivityDBm))
	return id
}

func runPass(p *Propagation, w *World) {
	p.Begin(0.1)
	for _, id := range w.EntitiesWith(KindTransmitter, KindTransform) {
		p.Process(id, 0.1)
	}
}

func TestFreeSpaceStrengthAtOneKilometre(t *testing.T) {
	w, p, _ := newRFWorld(t)
	tx := addEmitter(w, Vec3{}, config.BandGPS1575, 30, "omni")
	rx := addListener(w, Vec3{X: 1000}, config.BandGPS1575, -95)

	runPass(p, w)

	// 30 dBm - FSPL(1 km, 1575.42 MHz) + 2.5 dBi omni gain ≈ -63.9 dBm.
	got := p.SignalStrength(tx, rx)
	if math.Abs(got-(-63.9)) > 0.1 {
		t.Fatalf("SignalStrength = %v dBm, want ≈ -63.9", got)
	}

	r := w.Receiver(rx)
	if len(r.Signals) != 1 || r.Signals[0].Source != tx {
		t.Fatalf("receiver signals = %+v, want one from %d", r.Signals, tx)
	}
	if r.StrongestDBm != got {
		t.Fatalf("StrongestDBm = %v, want %v", r.StrongestDBm, got)
	}
}

func TestBandsAreIsolated(t *testing.T) {
	w, p, _ := newRFWorld(t)
	tx := addEmitter(w, Vec3{}, config.BandISM2400, 40, "omni")
	rx := addListener(w, Vec3{X: 100}, config.BandUHF433, -120)

	runPass(p, w)

	if got := p.SignalStrength(tx, rx); !math.IsInf(got, -1) {
		t.Fatalf("cross-band SignalStrength = %v, want -Inf", got)
	}
	if r := w.Receiver(rx); len(r.Signals) != 0 || r.Jammed {
		t.Fatalf("cross-band receiver picked up %+v", r)
	}
}

func TestInactiveTransmitterIsSilent(t *testing.T) {
	w, p, _ := newRFWorld(t)
	tx := addEmitter(w, Vec3{}, config.BandUHF433, 40, "omni")
	rx := addListener(w, Vec3{X: 100}, config.BandUHF433, -120)

	w.Transmitter(tx).Active = false
	runPass(p, w)

	if got := p.SignalStrength(tx, rx); !math.IsInf(got, -1) {
		t.Fatalf("inactive SignalStrength = %v, want -Inf", got)
	}
	if r := w.Receiver(rx); len(r.Signals) != 0 {
		t.Fatalf("inactive transmitter produced signals: %+v", r.Signals)
	}
}

func TestSensitivityBoundaryIsExclusive(t *testing.T) {
	w, p, _ := newRFWorld(t)
	// Co-located pair: strength is exactly the transmit power, which makes
	// the boundary deterministic.
	addEmitter(w, Vec3{}, config.BandISM915, 25, "omni")
	atBoundary := addListener(w, Vec3{}, config.BandISM915, 25)
	below := addListener(w, Vec3{}, config.BandISM915, 24.9)

	runPass(p, w)

	if r := w.Receiver(atBoundary); len(r.Signals) != 0 {
		t.Fatalf("signal exactly at sensitivity was recorded: %+v", r.Signals)
	}
	if r := w.Receiver(below); len(r.Signals) != 1 {
		t.Fatalf("signal above sensitivity was not recorded: %+v", r.Signals)
	}
}

func TestZeroDistanceReturnsRawPower(t *testing.T) {
	w, p, _ := newRFWorld(t)
	tx := addEmitter(w, Vec3{X: 5, Y: 5}, config.BandUHF433, 33, "omni")
	rx := addListener(w, Vec3{X: 5, Y: 5}, config.BandUHF433, -120)

	runPass(p, w)

	if got := p.SignalStrength(tx, rx); got != 33 {
		t.Fatalf("zero-distance SignalStrength = %v, want 33", got)
	}
}

func TestJammedRequiresActiveJammerOnBand(t *testing.T) {
	w, p, _ := newRFWorld(t)

	// Strong plain emitter on the receiver's band: detectable, never jams.
	addEmitter(w, Vec3{X: 50}, config.BandGPS1575, 45, "omni")
	rx := addListener(w, Vec3{}, config.BandGPS1575, -130)

	runPass(p, w)
	if r := w.Receiver(rx); len(r.Signals) == 0 || r.Jammed {
		t.Fatalf("plain emitter: signals=%d jammed=%v, want detected and not jammed",
			len(r.Signals), r.Jammed)
	}

	// Same geometry with a jammer component: the receiver is jammed.
	jammer := addEmitter(w, Vec3{X: -50}, config.BandGPS1575, 45, "omni")
	w.AddJammer(jammer, Jammer{Type: "STANDARD", Active: true, TargetBand: config.BandGPS1575, PowerDBm: 45})

	runPass(p, w)
	if r := w.Receiver(rx); !r.Jammed {
		t.Fatalf("active jammer on band did not jam the receiver")
	}

	// Inactive jammer: detectable state resets, jam flag stays clear.
	w.Jammer(jammer).Active = false
	w.Transmitter(jammer).Active = false
	runPass(p, w)
	if r := w.Receiver(rx); r.Jammed {
		t.Fatalf("inactive jammer left the receiver jammed")
	}
}

func TestPulseWindowGatesEmission(t *testing.T) {
	w, p, _ := newRFWorld(t)
	tx := addEmitter(w, Vec3{}, config.BandUHF433, 40, "omni")
	wtx := w.Transmitter(tx)
	wtx.PulseOnMs = 200
	wtx.PulseOffMs = 800
	rx := addListener(w, Vec3{X: 100}, config.BandUHF433, -120)

	// Phase 100 ms into the 1000 ms cycle: inside the on-window.
	p.SetClock(func() time.Time { return time.UnixMilli(10_100) })
	runPass(p, w)
	if !wtx.Transmitting {
		t.Fatalf("Transmitting = false inside on-window")
	}
	if r := w.Receiver(rx); len(r.Signals) != 1 {
		t.Fatalf("on-window signals = %d, want 1", len(r.Signals))
	}

	// Phase 500 ms: in the off-window. The transmitter stays Active but
	// must not be heard.
	p.SetClock(func() time.Time { return time.UnixMilli(10_500) })
	runPass(p, w)
	if wtx.Transmitting {
		t.Fatalf("Transmitting = true inside off-window")
	}
	if r := w.Receiver(rx); len(r.Signals) != 0 {
		t.Fatalf("off-window signals = %d, want 0", len(r.Signals))
	}
	if got := p.SignalStrength(tx, rx); !math.IsInf(got, -1) {
		t.Fatalf("off-window SignalStrength = %v, want -Inf", got)
	}
}

func TestPathLossGrowsWithDistance(t *testing.T) {
	for _, model := range []string{config.ModelFSPL, config.ModelTwoRay, config.ModelLogDistance} {
		cfg := config.Default()
		cfg.PropagationModel = model
		w := NewWorld()
		p := NewPropagation(w, cfg, nil)

		tx := addEmitter(w, Vec3{Z: 10}, config.BandISM915, 30, "omni")
		near := addListener(w, Vec3{X: 1500, Z: 10}, config.BandISM915, -200)
		far := addListener(w, Vec3{X: 3000, Z: 10}, config.BandISM915, -200)

		runPass(p, w)

		nearDBm := p.SignalStrength(tx, near)
		farDBm := p.SignalStrength(tx, far)
		if farDBm >= nearDBm {
			t.Fatalf("model %s: strength at 3 km (%v) >= at 1.5 km (%v)", model, farDBm, nearDBm)
		}
	}
}

func TestTwoRayFallsBackToFreeSpaceUpClose(t *testing.T) {
	cfgFSPL := config.Default()
	cfgTwoRay := config.Default()
	cfgTwoRay.PropagationModel = config.ModelTwoRay

	for _, tc := range []struct {
		distM     float64
		wantEqual bool
	}{
		{500, true},
		{2000, false},
	} {
		strengths := make([]float64, 0, 2)
		for _, cfg := range []*config.Config{cfgFSPL, cfgTwoRay} {
			w := NewWorld()
			p := NewPropagation(w, cfg, nil)
			tx := addEmitter(w, Vec3{Z: 10}, config.BandISM915, 30, "omni")
			rx := addListener(w, Vec3{X: tc.distM, Z: 10}, config.BandISM915, -200)
			runPass(p, w)
			strengths = append(strengths, p.SignalStrength(tx, rx))
		}
		equal := math.Abs(strengths[0]-strengths[1]) < 1e-9
		if equal != tc.wantEqual {
			t.Fatalf("dist %v m: fspl=%v two-ray=%v, wantEqual=%v",
				tc.distM, strengths[0], strengths[1], tc.wantEqual)
		}
	}
}

func TestLogDistanceAnchorsAtOneKilometre(t *testing.T) {
	cfg := config.Default()
	cfg.PropagationModel = config.ModelLogDistance
	w := NewWorld()
	p := NewPropagation(w, cfg, nil)

	tx := addEmitter(w, Vec3{}, config.BandISM2400, 30, "omni")
	rx := addListener(w, Vec3{X: 1000}, config.BandISM2400, -200)
	runPass(p, w)
	logDist := p.SignalStrength(tx, rx)

	cfg2 := config.Default()
	w2 := NewWorld()
	p2 := NewPropagation(w2, cfg2, nil)
	tx2 := addEmitter(w2, Vec3{}, config.BandISM2400, 30, "omni")
	rx2 := addListener(w2, Vec3{X: 1000}, config.BandISM2400, -200)
	runPass(p2, w2)
	fspl := p2.SignalStrength(tx2, rx2)

	if math.Abs(logDist-fspl) > 1e-9 {
		t.Fatalf("log-distance at reference distance = %v, fspl = %v, want equal", logDist, fspl)
	}
}

func TestDirectionalAntennaFavoursBoresight(t *testing.T) {
	w, p, _ := newRFWorld(t)
	// Yagi pointing along +X.
	tx := addEmitter(w, Vec3{}, config.BandCBand5800, 35, "yagi")
	onAxis := addListener(w, Vec3{X: 1000}, config.BandCBand5800, -200)
	offAxis := addListener(w, Vec3{Y: 1000}, config.BandCBand5800, -200)

	runPass(p, w)

	on := p.SignalStrength(tx, onAxis)
	off := p.SignalStrength(tx, offAxis)
	if on <= off {
		t.Fatalf("boresight %v dBm not stronger than 90° off-axis %v dBm", on, off)
	}
	// Side lobes are floored, never fully silent.
	if math.IsInf(off, -1) {
		t.Fatalf("off-axis emission fully silent, want floored side lobe")
	}
}

func TestPairCacheInvalidatedEachPass(t *testing.T) {
	w, p, _ := newRFWorld(t)
	tx := addEmitter(w, Vec3{}, config.BandUHF433, 30, "omni")
	rx := addListener(w, Vec3{X: 1000}, config.BandUHF433, -200)

	runPass(p, w)
	first := p.SignalStrength(tx, rx)

	// A mid-pass mutation must not change the cached pair result.
	w.Transmitter(tx).PowerDBm = 40
	if again := p.SignalStrength(tx, rx); again != first {
		t.Fatalf("cached SignalStrength changed mid-pass: %v -> %v", first, again)
	}

	// The next pass sees the new power.
	runPass(p, w)
	if fresh := p.SignalStrength(tx, rx); math.Abs(fresh-(first+10)) > 1e-9 {
		t.Fatalf("post-Begin SignalStrength = %v, want %v", fresh, first+10)
	}
}

func TestJammedBandCounts(t *testing.T) {
	w, p, _ := newRFWorld(t)

	jammer := addEmitter(w, Vec3{}, config.BandGPS1575, 45, "omni")
	w.AddJammer(jammer, Jammer{Type: "STANDARD", Active: true, TargetBand: config.BandGPS1575, PowerDBm: 45})
	w.AddTeam(jammer, TeamPlayer)

	enemyRx := addListener(w, Vec3{X: 100}, config.BandGPS1575, -130)
	w.AddTeam(enemyRx, TeamEnemy)

	runPass(p, w)

	playerDenied, enemyDenied := p.JammedBandCounts()
	if playerDenied != 1 || enemyDenied != 0 {
		t.Fatalf("JammedBandCounts = (%d, %d), want (1, 0)", playerDenied, enemyDenied)
	}
}
