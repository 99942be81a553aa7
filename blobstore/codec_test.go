package blobstore

import (
	"testing"

	"github.com/google/uuid"

	"github.com/steadyum/steadyum-go/simobjects"
)

func TestWarmBodyRoundTrip(t *testing.T) {
	w := simobjects.WarmBody{
		Timestamp: 42,
		Position:  simobjects.Isometry{Translation: simobjects.Vec3{X: 1, Y: 2, Z: 3}, Rotation: simobjects.Quat{W: 1}},
		LinVel:    simobjects.Vec3{X: 0.5, Y: 0, Z: -0.5},
		AngVel:    simobjects.Vec3{X: 0, Y: 1, Z: 0},
	}
	blob := EncodeWarmBody(w)
	got, err := DecodeWarmBody(blob)
	if err != nil {
		t.Fatal(err)
	}
	if got != w {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, w)
	}
}

func TestWarmBodyObjectSetRoundTrip(t *testing.T) {
	set := simobjects.WarmBodyObjectSet{
		Timestamp: 7,
		Objects: []simobjects.BodyPositionObject{
			{UUID: uuid.New(), Timestamp: 7, Position: simobjects.IdentityIsometry()},
			{UUID: uuid.New(), Timestamp: 7, Position: simobjects.Isometry{Translation: simobjects.Vec3{X: 9}}},
		},
	}
	blob := EncodeWarmBodyObjectSet(set)
	got, err := DecodeWarmBodyObjectSet(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Objects) != len(set.Objects) {
		t.Fatalf("got %d objects, want %d", len(got.Objects), len(set.Objects))
	}
	for i := range set.Objects {
		if got.Objects[i].UUID != set.Objects[i].UUID {
			t.Errorf("object %d uuid mismatch", i)
		}
	}
}

func TestWatchedObjectsRoundTrip(t *testing.T) {
	w := simobjects.WatchedObjects{
		Objects: []simobjects.WatchedEntry{
			{UUID: uuid.New(), Sphere: simobjects.BoundingSphere{Center: simobjects.Vec3{X: 1, Y: 1, Z: 1}, Radius: 1.1}},
		},
	}
	blob := EncodeWatchedObjects(w)
	got, err := DecodeWatchedObjects(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Objects) != 1 || got.Objects[0].UUID != w.Objects[0].UUID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestRegionListRoundTrip(t *testing.T) {
	rl := simobjects.RegionList{Keys: []string{"0_0_0__100_100_100"}, Ports: []uint32{10000}}
	blob := EncodeRegionList(rl)
	got, err := DecodeRegionList(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Keys) != 1 || got.Keys[0] != rl.Keys[0] || got.Ports[0] != rl.Ports[0] {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestColdBodyRoundTrip(t *testing.T) {
	c := simobjects.ColdBody{
		Kind: simobjects.BodyDynamic,
		Shape: simobjects.Shape{
			Kind:   simobjects.ShapeBall,
			Radius: 0.5,
		},
	}
	blob, err := EncodeColdBody(c)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeColdBody(blob)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != c.Kind || got.Shape.Kind != c.Shape.Kind || got.Shape.Radius != c.Shape.Radius {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	blob := EncodeWarmBody(simobjects.WarmBody{Timestamp: 1})
	corrupt := make([]byte, len(blob))
	copy(corrupt, blob)
	corrupt[len(corrupt)-1] ^= 0xFF
	if _, err := DecodeWarmBody(corrupt); err == nil {
		t.Fatal("expected checksum mismatch error, got nil")
	}
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	blob := EncodeWarmBody(simobjects.WarmBody{Timestamp: 1})
	corrupt := make([]byte, len(blob))
	copy(corrupt, blob)
	corrupt[0] = codecVersion + 1
	if _, err := DecodeWarmBody(corrupt); err == nil {
		t.Fatal("expected unsupported version error, got nil")
	}
}

func TestLargePayloadIsCompressedAndRoundTrips(t *testing.T) {
	objs := make([]simobjects.BodyPositionObject, 0, 200)
	for i := 0; i < 200; i++ {
		objs = append(objs, simobjects.BodyPositionObject{UUID: uuid.New(), Timestamp: 1})
	}
	set := simobjects.WarmBodyObjectSet{Timestamp: 1, Objects: objs}
	blob := EncodeWarmBodyObjectSet(set)
	if blob[1] != 1 {
		t.Fatal("expected compression flag set for large payload")
	}
	got, err := DecodeWarmBodyObjectSet(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Objects) != len(objs) {
		t.Fatalf("got %d objects, want %d", len(got.Objects), len(objs))
	}
}
