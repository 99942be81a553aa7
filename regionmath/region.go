// Package regionmath implements the spatial partitioning used to
// shard the simulation across Workers: a fixed-width cubic tiling of
// 3D space, a strict total order over tiles, and the neighbor sets
// that drive boundary-ghost watching and migration.
//
// Grounded on original_source/crates/steadyum-api-types/src/simulation.rs
// (SimulationBounds); reimplemented as steadyum-go's Region.
package regionmath

import "fmt"

// DefaultWidth is the fallback region edge length (W) when no
// configuration overrides it, matching the original's DEFAULT_WIDTH.
const DefaultWidth int64 = 100

// Region is an axis-aligned cube of space, identified by its integer
// corner coordinates. Two regions with equal Mins are the same region;
// Maxs is carried for convenience but is not part of identity.
type Region struct {
	Mins  [3]int64
	Maxs  [3]int64
}

// AABB is an axis-aligned bounding box in simulation-space (float)
// coordinates, the input to region_of/regions_intersecting.
type AABB struct {
	Mins [3]float64
	Maxs [3]float64
}

func floorDiv(e float64, width int64) int64 {
	q := e / float64(width)
	fl := int64(q)
	if q < 0 && float64(fl) != q {
		fl--
	}
	return fl
}

func ceilDiv(e float64, width int64) int64 {
	q := e / float64(width)
	cl := int64(q)
	if q > 0 && float64(cl) != q {
		cl++
	}
	return cl
}

// FromPoint returns the Region containing the given point, using the
// floor-division tiling rule: mins[k] = floor(point[k]/width)*width.
func FromPoint(point [3]float64, width int64) Region {
	var mins, maxs [3]int64
	for k := 0; k < 3; k++ {
		mins[k] = floorDiv(point[k], width) * width
		maxs[k] = mins[k] + width
	}
	return Region{Mins: mins, Maxs: maxs}
}

// RegionOf returns the Region that owns the given AABB, per the
// original's "from_aabb" rule: the region is selected by the AABB's
// maxs corner (a body is owned by the region containing its far
// corner, with regions_intersecting used to find every other region a
// body may still be straddling).
func RegionOf(box AABB, width int64) Region {
	return FromPoint(box.Maxs, width)
}

// RegionsIntersecting returns every region whose cube overlaps box,
// using floor(mins) as the lower bound and ceil(maxs) as the exclusive
// upper bound along each axis — the same min/max region-id computation
// as the original's intersecting_aabb.
func RegionsIntersecting(box AABB, width int64) []Region {
	var minID, maxID [3]int64
	for k := 0; k < 3; k++ {
		minID[k] = floorDiv(box.Mins[k], width)
		maxID[k] = ceilDiv(box.Maxs[k], width)
	}

	var out []Region
	for i := minID[0]; i < maxID[0]; i++ {
		for j := minID[1]; j < maxID[1]; j++ {
			for k := minID[2]; k < maxID[2]; k++ {
				mins := [3]int64{i * width, j * width, k * width}
				maxs := [3]int64{mins[0] + width, mins[1] + width, mins[2] + width}
				out = append(out, Region{Mins: mins, Maxs: maxs})
			}
		}
	}
	return out
}

// Less implements the strict total order over regions: lexicographic
// comparison of Mins only (Maxs is derived from Mins+width and never
// consulted), matching SimulationBounds' Ord impl.
func (r Region) Less(o Region) bool {
	cmp := r.Compare(o)
	return cmp < 0
}

// Compare returns -1, 0, or 1 per the same lexicographic-on-Mins rule
// as Less, for callers that want a three-way comparator (e.g. sort).
func (r Region) Compare(o Region) int {
	for k := 0; k < 3; k++ {
		if r.Mins[k] < o.Mins[k] {
			return -1
		}
		if r.Mins[k] > o.Mins[k] {
			return 1
		}
	}
	return 0
}

// Equal reports whether r and o are the same region (equal Mins).
func (r Region) Equal(o Region) bool { return r.Compare(o) == 0 }

func (r Region) width(axis int) int64 { return r.Maxs[axis] - r.Mins[axis] }

// neighborOffset builds the region translated by (i,j,k) widths along
// each axis, where i,j,k in {-1,0,1}.
func (r Region) neighborOffset(i, j, k int64) Region {
	dx := r.width(0) * i
	dy := r.width(1) * j
	dz := r.width(2) * k
	return Region{
		Mins: [3]int64{r.Mins[0] + dx, r.Mins[1] + dy, r.Mins[2] + dz},
		Maxs: [3]int64{r.Maxs[0] + dx, r.Maxs[1] + dy, r.Maxs[2] + dz},
	}
}

// Neighbors returns the asymmetric 13-of-26 neighbor set: exactly the
// adjacent regions that compare Greater than r in region order. This
// is the set a Worker waits on acks from and the set a migrating body
// may be handed off to — by construction every unordered pair of
// adjacent regions has exactly one direction in this relation, so no
// pair double-acks.
func (r Region) Neighbors() []Region {
	out := make([]Region, 0, 13)
	for i := int64(-1); i <= 1; i++ {
		for j := int64(-1); j <= 1; j++ {
			for k := int64(-1); k <= 1; k++ {
				if i == 0 && j == 0 && k == 0 {
					continue
				}
				adj := r.neighborOffset(i, j, k)
				if adj.Compare(r) > 0 {
					out = append(out, adj)
				}
			}
		}
	}
	return out
}

// AllNeighbors returns the full 26-neighborhood, used for watch-set
// reads (a Worker must read every neighbor's watch blob regardless of
// region order, since ghosts must mirror bodies owned in either
// direction).
func (r Region) AllNeighbors() []Region {
	out := make([]Region, 0, 26)
	for i := int64(-1); i <= 1; i++ {
		for j := int64(-1); j <= 1; j++ {
			for k := int64(-1); k <= 1; k++ {
				if i == 0 && j == 0 && k == 0 {
					continue
				}
				out = append(out, r.neighborOffset(i, j, k))
			}
		}
	}
	return out
}

// Key renders the canonical region-key string used as a MessageBus
// topic suffix and BlobStore key component: "mins.x_mins.y_mins.z__maxs.x_maxs.y_maxs.z".
func (r Region) Key() string {
	return fmt.Sprintf("%d_%d_%d__%d_%d_%d",
		r.Mins[0], r.Mins[1], r.Mins[2],
		r.Maxs[0], r.Maxs[1], r.Maxs[2])
}

// RunnerTopic returns "runner/<region-key>", the base of this region's
// WatchKey and WarmStateKey. A Worker's command topic is
// "runner/<worker-uuid>", not this string.
func (r Region) RunnerTopic() string { return "runner/" + r.Key() }

// AckTopic returns the ack topic name for this region's Worker.
func (r Region) AckTopic() string { return "runner-ack/" + r.Key() }

// WatchKey returns the BlobStore key under which this region's
// WatchedObjects blob is published: "watch/runner/<region-key>".
func (r Region) WatchKey() string { return "watch/" + r.RunnerTopic() }

// WarmStateKey returns the BlobStore key under which this region's
// authoritative WarmBodyObjectSet batch is published: "runner/<region-key>".
// Deliberately the same string as RunnerTopic() — BlobStore and
// MessageBus are separate stores, so the shared "runner/" namespace
// does not collide.
func (r Region) WarmStateKey() string { return r.RunnerTopic() }

// IsInSmallerRegion reports whether box, tiled at DefaultWidth, would
// fall into a region strictly less than r — used by the (unimplemented,
// see DESIGN.md) shrink-migration case in the original.
func (r Region) IsInSmallerRegion(box AABB) bool {
	return RegionOf(box, DefaultWidth).Less(r)
}
