package worker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/steadyum/steadyum-go/simobjects"
)

func TestLoadPresetsParsesEveryJSONFileByName(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "bob.json", `{"control_points":[{"x":0,"y":0,"z":0},{"x":1,"y":0,"z":0}],"t0":0,"total_time":2,"loop_back":true}`)
	writePreset(t, dir, "spin.json", `{"control_points":[{"x":0,"y":0,"z":0},{"x":0,"y":6.28,"z":0}],"t0":0,"total_time":4}`)
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := LoadPresets(dir)
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	if c := store.Lookup("bob"); c == nil {
		t.Fatal("expected preset \"bob\" to be loaded")
	} else if len(c.ControlPoints) != 2 || !c.LoopBack {
		t.Fatalf("unexpected bob preset: %+v", c)
	}
	if c := store.Lookup("spin"); c == nil {
		t.Fatal("expected preset \"spin\" to be loaded")
	}
	if store.Lookup("README") != nil {
		t.Fatal("non-JSON file should not have been loaded as a preset")
	}
}

func TestLoadPresetsMissingDirIsNotAnError(t *testing.T) {
	store, err := LoadPresets(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("LoadPresets on missing dir: %v", err)
	}
	if store.Lookup("anything") != nil {
		t.Fatal("expected an empty store")
	}
}

func TestResolveAnimationPresetsFillsNamedCurvesOnly(t *testing.T) {
	w := newTestWorker()
	w.Presets = &PresetStore{byName: map[string]*simobjects.KinematicCurve[simobjects.Vec3]{
		"orbit": {ControlPoints: []simobjects.Vec3{{X: 1}, {X: 2}}, TotalTime: 1},
	}}

	anim := &simobjects.KinematicAnimations{LinearPreset: "orbit"}
	w.resolveAnimationPresets("body-1", anim)
	if anim.Linear == nil {
		t.Fatal("expected Linear to be resolved from the \"orbit\" preset")
	}
	if anim.Angular != nil {
		t.Fatal("Angular was never requested and should stay nil")
	}

	unresolved := &simobjects.KinematicAnimations{AngularPreset: "missing"}
	w.resolveAnimationPresets("body-2", unresolved)
	if unresolved.Angular != nil {
		t.Fatal("an unknown preset name should be left unresolved, not fabricated")
	}
}

func writePreset(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}
