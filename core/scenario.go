package core

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScenarioSummary reports what a scenario load produced, mainly for
// logging from main().
type ScenarioSummary struct {
	Name       string
	Drones     []EntityID
	Sensors    []EntityID
	Emitters   []EntityID
	Satellites []EntityID
}

// Unexported YAML shapes so the on-disk format can evolve independently
// of the component model.
type scenarioYAML struct {
	Name       string            `yaml:"name"`
	Satellites []satelliteYAML   `yaml:"satellites"`
	Drones     []droneYAML       `yaml:"drones"`
	Sensors    []sensorYAML      `yaml:"sensors"`
	Emitters   []transmitterYAML `yaml:"emitters"`
}

type satelliteYAML struct {
	Name string `yaml:"name"`
	TLE1 string `yaml:"tle1"`
	TLE2 string `yaml:"tle2"`
}

type droneYAML struct {
	Type      string    `yaml:"type"`
	Team      string    `yaml:"team"`
	Position  vecYAML   `yaml:"position"`
	Base      *vecYAML  `yaml:"base"`
	Waypoints []vecYAML `yaml:"waypoints"`
}

type sensorYAML struct {
	Team           string  `yaml:"team"`
	Position       vecYAML `yaml:"position"`
	Band           string  `yaml:"band"`
	SensitivityDBm float64 `yaml:"sensitivity_dbm"`
}

type transmitterYAML struct {
	Team       string  `yaml:"team"`
	Position   vecYAML `yaml:"position"`
	Band       string  `yaml:"band"`
	PowerDBm   float64 `yaml:"power_dbm"`
	Antenna    string  `yaml:"antenna"`
	HeadingDeg float64 `yaml:"heading_deg"`
}

type vecYAML struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v vecYAML) vec() Vec3 { return Vec3{X: v.X, Y: v.Y, Z: v.Z} }

// LoadScenario reads a YAML scenario from r and spawns its force layout
// into the battlefield. It fails on structural errors and on references
// to unknown catalog types or bands; partially-applied scenarios are not
// rolled back, so callers should Reset on error.
func LoadScenario(b *Battlefield, r io.Reader) (*ScenarioSummary, error) {
	if b == nil {
		return nil, fmt.Errorf("scenario: nil battlefield")
	}

	var payload scenarioYAML
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("scenario: decode failed: %w", err)
	}

	summary := &ScenarioSummary{Name: payload.Name}

	for _, sat := range payload.Satellites {
		id, err := b.sky.AddSatellite(sat.Name, sat.TLE1, sat.TLE2)
		if err != nil {
			return nil, err
		}
		summary.Satellites = append(summary.Satellites, id)
	}

	for i, d := range payload.Drones {
		dt, ok := b.cfg.DroneTypes[d.Type]
		if !ok {
			return nil, fmt.Errorf("scenario: drone %d references unknown type %q", i, d.Type)
		}
		team, err := parseTeam(d.Team)
		if err != nil {
			return nil, fmt.Errorf("scenario: drone %d: %w", i, err)
		}
		var base *Vec3
		if d.Base != nil {
			v := d.Base.vec()
			base = &v
		}
		waypoints := make([]Vec3, 0, len(d.Waypoints))
		for _, wp := range d.Waypoints {
			waypoints = append(waypoints, wp.vec())
		}
		id := b.spawnDrone(d.Type, dt, team, d.Position.vec(), base, waypoints)
		summary.Drones = append(summary.Drones, id)
	}

	for i, sn := range payload.Sensors {
		if !b.cfg.HasBand(sn.Band) {
			return nil, fmt.Errorf("scenario: sensor %d references unknown band %q", i, sn.Band)
		}
		team, err := parseTeam(sn.Team)
		if err != nil {
			return nil, fmt.Errorf("scenario: sensor %d: %w", i, err)
		}
		id := b.world.CreateEntity()
		b.world.AddTransform(id, NewTransform(sn.Position.vec()))
		b.world.AddReceiver(id, NewReceiver(sn.Band, sn.SensitivityDBm))
		b.world.AddTeam(id, team)
		summary.Sensors = append(summary.Sensors, id)
	}

	for i, em := range payload.Emitters {
		if !b.cfg.HasBand(em.Band) {
			return nil, fmt.Errorf("scenario: emitter %d references unknown band %q", i, em.Band)
		}
		team, err := parseTeam(em.Team)
		if err != nil {
			return nil, fmt.Errorf("scenario: emitter %d: %w", i, err)
		}
		antenna := em.Antenna
		if antenna == "" {
			antenna = "omni"
		}
		id := b.world.CreateEntity()
		b.world.AddTransform(id, NewTransform(em.Position.vec()))
		b.world.AddTransmitter(id, Transmitter{
			Band:       em.Band,
			PowerDBm:   em.PowerDBm,
			Antenna:    antenna,
			Active:     true,
			HeadingRad: em.HeadingDeg * math.Pi / 180,
		})
		b.world.AddTeam(id, team)
		summary.Emitters = append(summary.Emitters, id)
	}

	return summary, nil
}

func parseTeam(s string) (Team, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PLAYER":
		return TeamPlayer, nil
	case "ENEMY", "":
		return TeamEnemy, nil
	case "NEUTRAL":
		return TeamNeutral, nil
	default:
		return TeamNeutral, fmt.Errorf("unknown team %q", s)
	}
}
