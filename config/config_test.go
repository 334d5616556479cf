package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PropagationModel != ModelFSPL {
		t.Fatalf("PropagationModel = %q, want %q", cfg.PropagationModel, ModelFSPL)
	}
	if cfg.VictoryThreshold != 75 {
		t.Fatalf("VictoryThreshold = %d, want 75", cfg.VictoryThreshold)
	}
	if len(cfg.Bands) != 5 {
		t.Fatalf("band count = %d, want 5", len(cfg.Bands))
	}
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	body := []byte(`
propagationModel: two-ray
victoryThreshold: 60
skyDome:
  radiusM: 40000
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PropagationModel != ModelTwoRay {
		t.Fatalf("PropagationModel = %q, want two-ray", cfg.PropagationModel)
	}
	if cfg.VictoryThreshold != 60 {
		t.Fatalf("VictoryThreshold = %d, want 60", cfg.VictoryThreshold)
	}
	if cfg.SkyDome.RadiusM != 40000 {
		t.Fatalf("SkyDome.RadiusM = %v, want 40000", cfg.SkyDome.RadiusM)
	}
	// Untouched sections keep their defaults.
	if len(cfg.JammerTypes) != 4 {
		t.Fatalf("jammer catalog size = %d, want default 4", len(cfg.JammerTypes))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("Load of missing file succeeded")
	}
}

func TestValidateRejectsUnknownModel(t *testing.T) {
	cfg := Default()
	cfg.PropagationModel = "okumura-hata"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("unknown propagation model accepted")
	}
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := Default()
	cfg.VictoryThreshold = 120
	if err := cfg.Validate(); err == nil {
		t.Fatalf("threshold outside [0,100] accepted")
	}
}

func TestValidateRejectsDanglingBandReference(t *testing.T) {
	cfg := Default()
	jt := cfg.JammerTypes["STANDARD"]
	jt.DefaultBand = "XBAND9000"
	cfg.JammerTypes["STANDARD"] = jt
	if err := cfg.Validate(); err == nil {
		t.Fatalf("dangling band reference accepted")
	}
}

func TestValidateRejectsInvertedPowerRange(t *testing.T) {
	cfg := Default()
	jt := cfg.JammerTypes["STANDARD"]
	jt.MinPowerDBm = 50
	jt.MaxPowerDBm = 20
	cfg.JammerTypes["STANDARD"] = jt
	if err := cfg.Validate(); err == nil {
		t.Fatalf("inverted power range accepted")
	}
}

func TestValidateRejectsPartialPulseCycle(t *testing.T) {
	cfg := Default()
	jt := cfg.JammerTypes["PULSE"]
	jt.PulseOffMs = 0
	cfg.JammerTypes["PULSE"] = jt
	if err := cfg.Validate(); err == nil {
		t.Fatalf("partial pulse cycle accepted")
	}
}

func TestValidateRejectsUnknownNavBand(t *testing.T) {
	cfg := Default()
	dt := cfg.DroneTypes["RECON"]
	dt.NavBand = "GLONASS"
	cfg.DroneTypes["RECON"] = dt
	if err := cfg.Validate(); err == nil {
		t.Fatalf("unknown nav band accepted")
	}
}

func TestHasBand(t *testing.T) {
	cfg := Default()
	if !cfg.HasBand(BandGPS1575) {
		t.Fatalf("HasBand(%s) = false", BandGPS1575)
	}
	if cfg.HasBand("AM540") {
		t.Fatalf("HasBand accepted unknown band")
	}
}
