// Package simobjects holds the wire/value types exchanged between
// Partitioner, Worker, and Client: body state, collider shapes,
// kinematic animation curves, and the bus/BlobStore message payloads
// that carry them.
//
// Grounded on original_source/crates/steadyum-api-types/src/{objects,
// kinematic,messages,queries,partitionner}.rs.
package simobjects

// Vec3 is a 3D vector/point, used for translation, velocity, and
// bounding-sphere centers.
type Vec3 struct {
	X, Y, Z float64
}

// Scale and Add make Vec3 satisfy Interpolatable, so it can be used
// directly as a KinematicCurve[Vec3] control point.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Quat is a unit quaternion rotation.
type Quat struct {
	X, Y, Z, W float64
}

// Isometry is a rigid transform: rotation then translation, matching
// rapier's Isometry<Real>.
type Isometry struct {
	Translation Vec3
	Rotation    Quat
}

// IdentityIsometry is the zero-rotation, zero-translation transform.
func IdentityIsometry() Isometry {
	return Isometry{Rotation: Quat{W: 1}}
}

// BoundingSphere is the shape published for watched ("ghost") bodies —
// neighbors only need an enclosing sphere to build boundary contact
// constraints, never the exact collider shape.
type BoundingSphere struct {
	Center Vec3
	Radius float64
}

// AABB mirrors regionmath.AABB's shape with Vec3 corners, for the
// pose-based helpers in this package; call sites convert between the
// two trivially.
type AABB struct {
	Mins Vec3
	Maxs Vec3
}
