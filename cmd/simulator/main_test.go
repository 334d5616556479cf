package main

import (
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/ewsim/config"
	"github.com/signalsfoundry/ewsim/core"
	"github.com/signalsfoundry/ewsim/timectrl"
)

const integrationScenario = `
name: integration-denial
drones:
  - type: RECON
    team: ENEMY
    position: {x: 150, y: 0, z: 0}
    waypoints:
      - {x: 150, y: 400, z: 0}
sensors:
  - team: ENEMY
    position: {x: 300, y: 0, z: 0}
    band: GPS1575
    sensitivity_dbm: -120
`

// TestIntegration_JammingWinsOperation runs a tiny end-to-end simulation:
// one player jammer denying the GPS band against an enemy recon drone,
// driven by an accelerated time controller through the first two mission
// phases and into OPERATION, where the denial score resolves to victory.
func TestIntegration_JammingWinsOperation(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	bf, err := core.NewBattlefield(cfg, core.Options{})
	if err != nil {
		t.Fatalf("NewBattlefield: %v", err)
	}

	if _, err := core.LoadScenario(bf, strings.NewReader(integrationScenario)); err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	jammerID, ok := bf.CreateJammer("STANDARD", core.Vec3{})
	if !ok {
		t.Fatalf("CreateJammer failed")
	}
	if !bf.SetJammerFrequency(jammerID, config.BandGPS1575) {
		t.Fatalf("SetJammerFrequency failed")
	}
	if !bf.ActivateJammer(jammerID) {
		t.Fatalf("ActivateJammer failed")
	}

	bf.StartMission()

	start := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	tc := timectrl.NewTimeController(start, time.Second, timectrl.Accelerated)
	tc.AddListener(func(simTime time.Time, dtSec float64) {
		bf.Tick(dtSec)
	})

	// DEPLOYMENT (120s) + INTEL (180s) + a few OPERATION ticks.
	if err := tc.Run(t.Context(), 310*time.Second); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := bf.Snapshot()
	if snap.Mission.Outcome != "VICTORY" {
		t.Fatalf("outcome = %s (phase %s, advantage %d), want VICTORY",
			snap.Mission.Outcome, snap.Mission.Phase, snap.Mission.TacticalAdvantage)
	}
	if snap.Mission.TacticalAdvantage < cfg.VictoryThreshold {
		t.Fatalf("tactical advantage = %d, want >= %d",
			snap.Mission.TacticalAdvantage, cfg.VictoryThreshold)
	}

	// The enemy drone's nav receiver must have spent the run jammed and
	// its AI confused or recovering, never cleanly on patrol at the end.
	jammedSeen := false
	for _, es := range snap.Entities {
		if es.Receiver != nil && es.Receiver.Band == config.BandGPS1575 && es.Receiver.Jammed {
			jammedSeen = true
		}
	}
	if !jammedSeen {
		t.Fatalf("no jammed GPS receiver in final snapshot")
	}
}
