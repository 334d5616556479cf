package config

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"
)

// Propagation model selectors. The same model is applied to every
// transmitter/receiver pair in a run.
const (
	ModelFSPL        = "fspl"
	ModelTwoRay      = "two-ray"
	ModelLogDistance = "log-distance"
)

// Band describes one of the frequency bands the simulation recognises.
// Transmitters and receivers only detect each other on identical band keys.
type Band struct {
	CenterMHz float64 `mapstructure:"centerMHz"`
	MinMHz    float64 `mapstructure:"minMHz"`
	MaxMHz    float64 `mapstructure:"maxMHz"`
}

// Antenna describes a reusable antenna pattern. Directional antennas apply
// their gain inside the beam and a floored side-lobe fraction outside it.
type Antenna struct {
	GainDBi      float64 `mapstructure:"gainDBi"`
	BeamWidthDeg float64 `mapstructure:"beamWidthDeg"`
	Directional  bool    `mapstructure:"directional"`
}

// JammerType is a catalog entry for a deployable jammer.
type JammerType struct {
	DefaultAntenna  string  `mapstructure:"defaultAntenna"`
	DefaultBand     string  `mapstructure:"defaultBand"`
	MinPowerDBm     float64 `mapstructure:"minPowerDBm"`
	MaxPowerDBm     float64 `mapstructure:"maxPowerDBm"`
	DefaultPowerDBm float64 `mapstructure:"defaultPowerDBm"`
	CooldownSec     float64 `mapstructure:"cooldownSec"`
	RangeM          float64 `mapstructure:"rangeM"`
	Cost            int     `mapstructure:"cost"`
	MaxCount        int     `mapstructure:"maxCount"`

	// PulseOnMs/PulseOffMs > 0 puts the owned transmitter into pulse
	// mode while the jammer is active.
	PulseOnMs  int `mapstructure:"pulseOnMs"`
	PulseOffMs int `mapstructure:"pulseOffMs"`
}

// DroneType is a catalog entry for a deployable drone.
type DroneType struct {
	SpeedMPS          float64  `mapstructure:"speedMPS"`
	AltitudeM         float64  `mapstructure:"altitudeM"`
	OperatingTimeSec  float64  `mapstructure:"operatingTimeSec"`
	NavBand           string   `mapstructure:"navBand"`
	NavSensitivityDBm float64  `mapstructure:"navSensitivityDBm"`
	Vulnerabilities   []string `mapstructure:"vulnerabilities"`
	Cost              int      `mapstructure:"cost"`
	MaxCount          int      `mapstructure:"maxCount"`
}

// Phases holds the mission phase durations in seconds.
type Phases struct {
	DeploymentSec float64 `mapstructure:"deploymentSec"`
	IntelSec      float64 `mapstructure:"intelSec"`
	OperationSec  float64 `mapstructure:"operationSec"`
	DefendSec     float64 `mapstructure:"defendSec"`
}

// Origin anchors the battlefield-local frame on the Earth so satellite
// overflights can be projected into local coordinates.
type Origin struct {
	LatDeg float64 `mapstructure:"latDeg"`
	LonDeg float64 `mapstructure:"lonDeg"`
}

// SkyDome controls how orbital transmitters are projected above the
// battlefield.
type SkyDome struct {
	RadiusM         float64 `mapstructure:"radiusM"`
	MinElevationDeg float64 `mapstructure:"minElevationDeg"`
	BeaconPowerDBm  float64 `mapstructure:"beaconPowerDBm"`
}

// AI holds behaviour tuning shared by every AI-bearing entity.
type AI struct {
	ConfusionSec     float64 `mapstructure:"confusionSec"`
	ArrivalRadiusM   float64 `mapstructure:"arrivalRadiusM"`
	HeadingJitterRad float64 `mapstructure:"headingJitterRad"`
}

// Config is the complete simulation configuration. It is built once at
// startup and passed by reference into every system constructor; nothing
// mutates it afterwards.
type Config struct {
	Bands       map[string]Band       `mapstructure:"bands"`
	Antennas    map[string]Antenna    `mapstructure:"antennas"`
	JammerTypes map[string]JammerType `mapstructure:"jammerTypes"`
	DroneTypes  map[string]DroneType  `mapstructure:"droneTypes"`

	PropagationModel string `mapstructure:"propagationModel"`
	VictoryThreshold int    `mapstructure:"victoryThreshold"`

	Phases  Phases  `mapstructure:"phases"`
	Origin  Origin  `mapstructure:"origin"`
	SkyDome SkyDome `mapstructure:"skyDome"`
	AI      AI      `mapstructure:"ai"`
}

// Well-known band keys. Scenario files and catalogs may only reference
// these five.
const (
	BandUHF433    = "UHF433"
	BandISM915    = "ISM915"
	BandGPS1575   = "GPS1575"
	BandISM2400   = "ISM2400"
	BandCBand5800 = "CBAND5800"
)

// Default returns the built-in configuration. Every catalog is fully
// populated so the simulator runs without any config file present.
func Default() *Config {
	return &Config{
		Bands: map[string]Band{
			BandUHF433:    {CenterMHz: 433, MinMHz: 430, MaxMHz: 440},
			BandISM915:    {CenterMHz: 915, MinMHz: 902, MaxMHz: 928},
			BandGPS1575:   {CenterMHz: 1575.42, MinMHz: 1574, MaxMHz: 1577},
			BandISM2400:   {CenterMHz: 2400, MinMHz: 2400, MaxMHz: 2483.5},
			BandCBand5800: {CenterMHz: 5800, MinMHz: 5725, MaxMHz: 5875},
		},
		Antennas: map[string]Antenna{
			"omni":  {GainDBi: 2.5},
			"patch": {GainDBi: 8, BeamWidthDeg: 90, Directional: true},
			"yagi":  {GainDBi: 12, BeamWidthDeg: 45, Directional: true},
			"dish":  {GainDBi: 20, BeamWidthDeg: 15, Directional: true},
		},
		JammerTypes: map[string]JammerType{
			"STANDARD": {
				DefaultAntenna:  "omni",
				DefaultBand:     BandISM2400,
				MinPowerDBm:     20,
				MaxPowerDBm:     40,
				DefaultPowerDBm: 30,
				CooldownSec:     0,
				RangeM:          2000,
				Cost:            100,
				MaxCount:        4,
			},
			"DIRECTIONAL": {
				DefaultAntenna:  "yagi",
				DefaultBand:     BandGPS1575,
				MinPowerDBm:     25,
				MaxPowerDBm:     45,
				DefaultPowerDBm: 35,
				CooldownSec:     10,
				RangeM:          5000,
				Cost:            250,
				MaxCount:        2,
			},
			"PULSE": {
				DefaultAntenna:  "omni",
				DefaultBand:     BandUHF433,
				MinPowerDBm:     25,
				MaxPowerDBm:     50,
				DefaultPowerDBm: 40,
				CooldownSec:     20,
				RangeM:          3000,
				Cost:            400,
				MaxCount:        2,
				PulseOnMs:       200,
				PulseOffMs:      800,
			},
			"MOBILE": {
				DefaultAntenna:  "omni",
				DefaultBand:     BandISM915,
				MinPowerDBm:     15,
				MaxPowerDBm:     35,
				DefaultPowerDBm: 25,
				CooldownSec:     45,
				RangeM:          1500,
				Cost:            600,
				MaxCount:        1,
			},
		},
		DroneTypes: map[string]DroneType{
			"RECON": {
				SpeedMPS:          12,
				AltitudeM:         120,
				OperatingTimeSec:  900,
				NavBand:           BandGPS1575,
				NavSensitivityDBm: -130,
				Vulnerabilities:   []string{BandGPS1575, BandISM2400},
				Cost:              300,
				MaxCount:          3,
			},
			"STRIKE": {
				SpeedMPS:          25,
				AltitudeM:         80,
				OperatingTimeSec:  420,
				NavBand:           BandGPS1575,
				NavSensitivityDBm: -127,
				Vulnerabilities:   []string{BandGPS1575, BandCBand5800},
				Cost:              800,
				MaxCount:          2,
			},
		},
		PropagationModel: ModelFSPL,
		VictoryThreshold: 75,
		Phases: Phases{
			DeploymentSec: 120,
			IntelSec:      180,
			OperationSec:  600,
			DefendSec:     300,
		},
		Origin:  Origin{LatDeg: 47.3, LonDeg: 35.2},
		SkyDome: SkyDome{RadiusM: 30000, MinElevationDeg: 5, BeaconPowerDBm: 45},
		AI: AI{
			ConfusionSec:     30,
			ArrivalRadiusM:   5,
			HeadingJitterRad: 0.8,
		},
	}
}

// Load reads configuration from an optional YAML file on top of the
// built-in defaults and validates the result. An empty path returns the
// validated defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %q: %w", path, err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("config: decoding %q: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the cross-references and numeric ranges that the
// simulation relies on.
func (c *Config) Validate() error {
	switch c.PropagationModel {
	case ModelFSPL, ModelTwoRay, ModelLogDistance:
	default:
		return fmt.Errorf("config: unknown propagation model %q", c.PropagationModel)
	}

	if c.VictoryThreshold < 0 || c.VictoryThreshold > 100 {
		return fmt.Errorf("config: victory threshold %d outside [0,100]", c.VictoryThreshold)
	}

	for _, name := range sortedKeys(c.Bands) {
		b := c.Bands[name]
		if b.CenterMHz <= 0 {
			return fmt.Errorf("config: band %q has non-positive center frequency", name)
		}
	}

	for _, name := range sortedKeys(c.JammerTypes) {
		jt := c.JammerTypes[name]
		if _, ok := c.Bands[jt.DefaultBand]; !ok {
			return fmt.Errorf("config: jammer type %q references unknown band %q", name, jt.DefaultBand)
		}
		if _, ok := c.Antennas[jt.DefaultAntenna]; !ok {
			return fmt.Errorf("config: jammer type %q references unknown antenna %q", name, jt.DefaultAntenna)
		}
		if jt.MinPowerDBm > jt.MaxPowerDBm {
			return fmt.Errorf("config: jammer type %q has inverted power range", name)
		}
		if jt.DefaultPowerDBm < jt.MinPowerDBm || jt.DefaultPowerDBm > jt.MaxPowerDBm {
			return fmt.Errorf("config: jammer type %q default power outside range", name)
		}
		if (jt.PulseOnMs > 0) != (jt.PulseOffMs > 0) {
			return fmt.Errorf("config: jammer type %q has a partial pulse cycle", name)
		}
	}

	for _, name := range sortedKeys(c.DroneTypes) {
		dt := c.DroneTypes[name]
		if _, ok := c.Bands[dt.NavBand]; !ok {
			return fmt.Errorf("config: drone type %q references unknown nav band %q", name, dt.NavBand)
		}
		for _, band := range dt.Vulnerabilities {
			if _, ok := c.Bands[band]; !ok {
				return fmt.Errorf("config: drone type %q vulnerability references unknown band %q", name, band)
			}
		}
		if dt.SpeedMPS <= 0 {
			return fmt.Errorf("config: drone type %q has non-positive speed", name)
		}
	}

	return nil
}

// HasBand reports whether key is one of the configured frequency bands.
func (c *Config) HasBand(key string) bool {
	_, ok := c.Bands[key]
	return ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
