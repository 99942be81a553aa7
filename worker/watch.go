package worker

import (
	"context"

	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/steadyum/steadyum-go/blobstore"
	"github.com/steadyum/steadyum-go/cmn/nlog"
	"github.com/steadyum/steadyum-go/simobjects"
)

// UpdateWatchSet reads every AllNeighbors() region's WatchedObjects
// blob and upserts a local ghost for each entry, then reaps any ghost
// not touched by this refresh (spec.md §4.5 step 4).
//
// Grounded on original_source's watch.rs set_watched_set /
// read_watched_objects, generalized from its per-handle HashMap to the
// Solver's iteration-tagged Ghosts map.
func (w *Worker) UpdateWatchSet(ctx context.Context) {
	bounds, has := w.Bounds()
	if !has {
		return
	}
	iteration := w.watchIteration.Add(1)

	// A body near a region corner can appear in more than one
	// neighbor's WatchedObjects this refresh (e.g. it sits in the
	// overlap of two adjacent neighbor bounding boxes). Each extra
	// sighting would just re-upsert the same ghost with a near-
	// identical sphere, so a cuckoo filter gates the redundant writes.
	// A filter hit is confirmed against the exact set before an upsert
	// is skipped, so a false positive never drops a body this refresh
	// hasn't seen yet.
	seen := cuckoo.NewFilter(1024)
	exact := make(map[[16]byte]bool)
	for _, nbh := range bounds.AllNeighbors() {
		blob, err := w.Blobs.Get(ctx, nbh.WatchKey())
		if err != nil {
			if _, isNotFound := err.(*blobstore.ErrNotFound); !isNotFound {
				nlog.Warningf("worker %s: read watch blob from %s: %v", w.UUID, nbh.Key(), err)
			}
			continue
		}
		watched, err := blobstore.DecodeWatchedObjects(blob)
		if err != nil {
			nlog.Errorf("worker %s: decode watch blob from %s: %v", w.UUID, nbh.Key(), err)
			continue
		}
		for _, entry := range watched.Objects {
			key := entry.UUID[:]
			if seen.Lookup(key) && exact[entry.UUID] {
				continue
			}
			seen.InsertUnique(key)
			exact[entry.UUID] = true
			w.Solver.UpsertGhost(entry.UUID, nbh, entry.Sphere, iteration)
		}
	}

	w.Solver.ReapStaleGhosts(iteration)
}

// PublishWatchSet writes this Worker's own WatchedObjects blob: a
// bounding sphere (1.1x local radius) for every locally owned body, so
// neighbor regions can mirror it as a ghost.
func (w *Worker) PublishWatchSet(ctx context.Context) error {
	bounds, has := w.Bounds()
	if !has {
		return nil
	}

	var objects []simobjects.WatchedEntry
	for h, b := range w.Solver.Bodies {
		sphere, ok := w.Solver.WatchSphere(h)
		if !ok {
			continue
		}
		objects = append(objects, simobjects.WatchedEntry{UUID: b.UUID, Sphere: sphere})
	}

	blob := blobstore.EncodeWatchedObjects(simobjects.WatchedObjects{Objects: objects})
	return w.Blobs.Put(ctx, bounds.WatchKey(), blob)
}
