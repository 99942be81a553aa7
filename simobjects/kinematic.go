package simobjects

import "math"

// Interpolatable is the constraint a KinematicCurve control-point type
// must satisfy: scalar scale and pairwise add, enough to linearly
// interpolate between two control points.
type Interpolatable[T any] interface {
	Scale(s float64) T
	Add(o T) T
}

// KinematicCurve is a ping-pong-looping piecewise-linear curve over a
// sequence of control points, evaluated at simulation time t.
//
// Grounded on original_source/.../kinematic.rs KinematicCurve::eval —
// ported term for term, including its exact clamp-before-t0,
// clamp-after-total-time-unless-looping, and odd/even loop-id
// ping-pong reflection.
type KinematicCurve[T Interpolatable[T]] struct {
	ControlPoints []T
	T0            float64
	TotalTime     float64
	LoopBack      bool
}

// Eval returns the interpolated value at time t.
func (c *KinematicCurve[T]) Eval(t float64) T {
	switch {
	case t < c.T0:
		return c.ControlPoints[0]
	case t > c.T0+c.TotalTime && !c.LoopBack:
		return c.ControlPoints[len(c.ControlPoints)-1]
	default:
		rel := t - c.T0
		loopID := int64(math.Floor(rel / c.TotalTime))
		frac := fract(rel / c.TotalTime)

		var relT float64
		if mod2(loopID) == 1 {
			relT = (1.0 - frac) * c.TotalTime
		} else {
			relT = frac * c.TotalTime
		}

		timeSlices := c.TotalTime / float64(len(c.ControlPoints)-1)
		currSlice := int(math.Floor(relT / timeSlices))
		if currSlice >= len(c.ControlPoints)-1 {
			currSlice = len(c.ControlPoints) - 2
		}
		relSliceT := fract(relT / timeSlices)

		a := c.ControlPoints[currSlice].Scale(1.0 - relSliceT)
		b := c.ControlPoints[currSlice+1].Scale(relSliceT)
		return a.Add(b)
	}
}

func fract(x float64) float64 {
	return x - math.Floor(x)
}

func mod2(n int64) int64 {
	m := n % 2
	if m < 0 {
		m += 2
	}
	return m
}

// KinematicAnimations bundles an optional linear (Vec3) and angular
// (Vec3, axis-angle) curve, applied on top of a base pose.
//
// LinearPreset/AngularPreset let a client reference a named curve
// preloaded on the Worker (SPEC_FULL.md §4.5 "Asset preload") instead
// of inlining control points over the wire; a Worker resolves these
// into Linear/Angular before the body's first CreateBody (see
// worker.PresetStore).
type KinematicAnimations struct {
	Linear  *KinematicCurve[Vec3] `json:"linear,omitempty"`
	Angular *KinematicCurve[Vec3] `json:"angular,omitempty"`

	LinearPreset  string `json:"linear_preset,omitempty"`
	AngularPreset string `json:"angular_preset,omitempty"`
}

// Eval applies the animation curves on top of base, leaving any axis
// without a curve untouched.
func (a *KinematicAnimations) Eval(t float64, base Isometry) Isometry {
	result := base
	if a.Linear != nil {
		result.Translation = a.Linear.Eval(t)
	}
	if a.Angular != nil {
		axisAngle := a.Angular.Eval(t)
		result.Rotation = quatFromAxisAngle(axisAngle)
	}
	return result
}

// quatFromAxisAngle converts a scaled-axis (axis * angle, rapier's
// AngVector<Real> in 3D) representation into a unit quaternion.
func quatFromAxisAngle(v Vec3) Quat {
	angle := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if angle < 1e-12 {
		return Quat{W: 1}
	}
	half := angle / 2
	s := math.Sin(half) / angle
	return Quat{X: v.X * s, Y: v.Y * s, Z: v.Z * s, W: math.Cos(half)}
}
