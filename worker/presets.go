package worker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"github.com/steadyum/steadyum-go/cmn/nlog"
	"github.com/steadyum/steadyum-go/simobjects"
)

// presetCurve is the on-disk JSON shape of a preset KinematicCurve[Vec3]
// file (SPEC_FULL.md §4.5 "Asset preload"): a named, reusable curve a
// ColdBody.Animations can reference instead of embedding its own
// control points inline.
type presetCurve struct {
	ControlPoints []simobjects.Vec3 `json:"control_points"`
	T0            float64           `json:"t0"`
	TotalTime     float64           `json:"total_time"`
	LoopBack      bool              `json:"loop_back"`
}

// PresetStore is a Worker's in-memory registry of named preset curves,
// loaded once at startup.
type PresetStore struct {
	byName map[string]*simobjects.KinematicCurve[simobjects.Vec3]
}

// Lookup returns the named preset curve, or nil if no preset by that
// name was loaded.
func (s *PresetStore) Lookup(name string) *simobjects.KinematicCurve[simobjects.Vec3] {
	if s == nil {
		return nil
	}
	return s.byName[name]
}

// resolveAnimationPresets fills in any Linear/Angular curve left nil
// whose corresponding LinearPreset/AngularPreset names a preset loaded
// into w.Presets. A name with no matching preset is left unresolved
// (logged once) rather than failing the body's creation.
func (w *Worker) resolveAnimationPresets(bodyUUID string, anim *simobjects.KinematicAnimations) {
	if anim.Linear == nil && anim.LinearPreset != "" {
		if c := w.Presets.Lookup(anim.LinearPreset); c != nil {
			anim.Linear = c
		} else {
			nlog.Warningf("worker %s: body %s references unknown linear preset %q", w.UUID, bodyUUID, anim.LinearPreset)
		}
	}
	if anim.Angular == nil && anim.AngularPreset != "" {
		if c := w.Presets.Lookup(anim.AngularPreset); c != nil {
			anim.Angular = c
		} else {
			nlog.Warningf("worker %s: body %s references unknown angular preset %q", w.UUID, bodyUUID, anim.AngularPreset)
		}
	}
}

// LoadPresets walks dir for *.json preset curve files and parses each
// into a named KinematicCurve[Vec3], keyed by its filename without
// extension. Uses godirwalk rather than filepath.WalkDir for its
// lower-allocation directory scan, since this directory can hold many
// small preset files and this walk runs once per Worker startup.
func LoadPresets(dir string) (*PresetStore, error) {
	store := &PresetStore{byName: make(map[string]*simobjects.KinematicCurve[simobjects.Vec3])}

	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || !strings.HasSuffix(path, ".json") {
				return nil
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				nlog.Warningf("worker: read preset %s: %s", path, err.Error())
				return nil
			}
			var pc presetCurve
			if err := json.Unmarshal(raw, &pc); err != nil {
				nlog.Warningf("worker: parse preset %s: %s", path, err.Error())
				return nil
			}
			name := strings.TrimSuffix(filepath.Base(path), ".json")
			store.byName[name] = &simobjects.KinematicCurve[simobjects.Vec3]{
				ControlPoints: pc.ControlPoints,
				T0:            pc.T0,
				TotalTime:     pc.TotalTime,
				LoopBack:      pc.LoopBack,
			}
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		if os.IsNotExist(err) {
			// No preset directory configured/present: an empty store,
			// not a startup failure.
			return store, nil
		}
		return nil, errors.Wrapf(err, "walk preset dir %s", dir)
	}
	return store, nil
}
