package core

import "math"

// Vec3 is a battlefield-local position in metres. X grows east, Y grows
// north, Z is height above ground.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// GroundDistanceTo returns the distance between two points projected onto
// the ground plane, ignoring height.
func (v Vec3) GroundDistanceTo(other Vec3) float64 {
	return math.Hypot(other.X-v.X, other.Y-v.Y)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// BearingTo returns the ground-plane bearing from v to other in radians,
// measured counter-clockwise from the +X axis (math convention, matching
// how entity yaw is stored).
func (v Vec3) BearingTo(other Vec3) float64 {
	return math.Atan2(other.Y-v.Y, other.X-v.X)
}

// normalizeAngle wraps an angle into (-π, π].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
