package core

import (
	"context"
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/ewsim/config"
	"github.com/signalsfoundry/ewsim/internal/logging"
)

// SkyTrack drives the positions of orbital GPS-band beacons. Each tracked
// entity carries a transmitter on the GPS band; its SGP4-propagated ECEF
// position is projected onto a sky dome above the battlefield origin so
// ground-scale geometry still produces sane path loss. Beacons below the
// minimum elevation stop transmitting until the next pass.
type SkyTrack struct {
	world *World
	cfg   *config.Config
	log   logging.Logger

	now    time.Time
	tracks map[EntityID]satellite.Satellite
}

// NewSkyTrack builds the orbital tracking system. epoch anchors the SGP4
// propagation time base.
func NewSkyTrack(world *World, cfg *config.Config, epoch time.Time, log logging.Logger) *SkyTrack {
	if log == nil {
		log = logging.Noop()
	}
	return &SkyTrack{
		world:  world,
		cfg:    cfg,
		log:    log,
		now:    epoch.UTC(),
		tracks: make(map[EntityID]satellite.Satellite),
	}
}

// Name implements System.
func (s *SkyTrack) Name() string { return "sky-track" }

// Required implements System. Only entities registered through
// AddSatellite are touched.
func (s *SkyTrack) Required() []Kind { return []Kind{KindTransform, KindTransmitter} }

// Begin advances the propagation time base.
func (s *SkyTrack) Begin(dt float64) {
	s.now = s.now.Add(time.Duration(dt * float64(time.Second)))
}

// Process re-projects one tracked beacon for the current tick.
func (s *SkyTrack) Process(id EntityID, dt float64) {
	sat, ok := s.tracks[id]
	if !ok {
		return
	}

	tr := s.world.Transform(id)
	tx := s.world.Transmitter(id)

	elevDeg, azRad := s.lookAngles(sat)
	if elevDeg < s.cfg.SkyDome.MinElevationDeg {
		tx.Active = false
		return
	}
	tx.Active = true

	elevRad := elevDeg * math.Pi / 180
	r := s.cfg.SkyDome.RadiusM
	tr.Position = Vec3{
		X: r * math.Cos(elevRad) * math.Sin(azRad),
		Y: r * math.Cos(elevRad) * math.Cos(azRad),
		Z: r * math.Sin(elevRad),
	}
}

// AddSatellite registers a GPS beacon entity from a TLE pair and returns
// its id. The entity is NEUTRAL and transmits on the GPS band with the
// configured beacon power.
func (s *SkyTrack) AddSatellite(name, tle1, tle2 string) (EntityID, error) {
	if len(tle1) < 64 || len(tle2) < 64 {
		return 0, fmt.Errorf("skytrack: malformed TLE for %q", name)
	}
	sat := satellite.TLEToSat(tle1, tle2, satellite.GravityWGS72)

	id := s.world.CreateEntity()
	s.world.AddTransform(id, NewTransform(Vec3{Z: s.cfg.SkyDome.RadiusM}))
	s.world.AddTransmitter(id, Transmitter{
		Band:     config.BandGPS1575,
		PowerDBm: s.cfg.SkyDome.BeaconPowerDBm,
		Antenna:  "omni",
		Active:   true,
	})
	s.world.AddTeam(id, TeamNeutral)

	s.tracks[id] = sat
	s.log.Info(context.Background(), "gps beacon tracked",
		logging.String("name", name),
		logging.Uint64("entity", uint64(id)))
	return id, nil
}

// Forget drops a track, typically after its entity was destroyed.
func (s *SkyTrack) Forget(id EntityID) {
	delete(s.tracks, id)
}

// Reset drops every track.
func (s *SkyTrack) Reset() {
	clear(s.tracks)
}

// lookAngles propagates the satellite to the current time base and
// returns its elevation (degrees) and azimuth (radians, measured from
// north toward east) as seen from the battlefield origin.
func (s *SkyTrack) lookAngles(sat satellite.Satellite) (elevDeg, azRad float64) {
	year, month, day := s.now.Date()
	hour, min, sec := s.now.Clock()

	posECI, _ := satellite.Propagate(sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	return lookAnglesECEF(
		s.cfg.Origin.LatDeg*math.Pi/180,
		s.cfg.Origin.LonDeg*math.Pi/180,
		posECEF.X, posECEF.Y, posECEF.Z,
	)
}

// lookAnglesECEF converts a satellite ECEF position (km) into elevation
// and azimuth for an observer on a spherical Earth at the given geodetic
// coordinates.
func lookAnglesECEF(latRad, lonRad, xKm, yKm, zKm float64) (elevDeg, azRad float64) {
	const earthRadiusKm = 6371.0

	obsX := earthRadiusKm * math.Cos(latRad) * math.Cos(lonRad)
	obsY := earthRadiusKm * math.Cos(latRad) * math.Sin(lonRad)
	obsZ := earthRadiusKm * math.Sin(latRad)

	dx := xKm - obsX
	dy := yKm - obsY
	dz := zKm - obsZ

	// ECEF delta to local ENU.
	sinLat, cosLat := math.Sin(latRad), math.Cos(latRad)
	sinLon, cosLon := math.Sin(lonRad), math.Cos(lonRad)

	east := -sinLon*dx + cosLon*dy
	north := -sinLat*cosLon*dx - sinLat*sinLon*dy + cosLat*dz
	up := cosLat*cosLon*dx + cosLat*sinLon*dy + sinLat*dz

	rng := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if rng == 0 {
		return 90, 0
	}

	elevDeg = math.Asin(up/rng) * 180 / math.Pi
	azRad = math.Atan2(east, north)
	return elevDeg, azRad
}
