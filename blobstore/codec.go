package blobstore

import (
	"bytes"
	"fmt"

	"github.com/OneOfOne/xxhash"
	"github.com/pierrec/lz4/v3"
	"github.com/tinylib/msgp/msgp"

	"github.com/steadyum/steadyum-go/simobjects"
)

// codecVersion is bumped whenever the wire layout of an encoded value
// changes; Decode rejects any other version rather than guess.
const codecVersion byte = 1

// compressThreshold is the payload size above which Encode transparently
// lz4-compresses the body (see SPEC_FULL.md §4.5 "Blob compression").
const compressThreshold = 512

// wrap prefixes payload with [version][compressed-flag][xxhash64] and,
// if payload is large enough, lz4-compresses it first. unwrap reverses
// this and verifies the checksum, returning ErrTransport on mismatch
// (a corrupted read is treated as retryable, never a crash).
func wrap(payload []byte) []byte {
	compressed := false
	body := payload
	if len(payload) > compressThreshold {
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(payload); err == nil && w.Close() == nil {
			body = buf.Bytes()
			compressed = true
		}
	}

	sum := xxhash.Checksum64(body)
	out := make([]byte, 0, 10+len(body))
	out = append(out, codecVersion)
	if compressed {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	for i := 0; i < 8; i++ {
		out = append(out, byte(sum>>(8*i)))
	}
	return append(out, body...)
}

func unwrap(blob []byte) ([]byte, error) {
	if len(blob) < 10 {
		return nil, fmt.Errorf("blobstore: truncated envelope (%d bytes)", len(blob))
	}
	if blob[0] != codecVersion {
		return nil, fmt.Errorf("blobstore: unsupported codec version %d", blob[0])
	}
	compressed := blob[1] == 1
	var want uint64
	for i := 0; i < 8; i++ {
		want |= uint64(blob[2+i]) << (8 * i)
	}
	body := blob[10:]
	if got := xxhash.Checksum64(body); got != want {
		return nil, &ErrTransport{Cause: fmt.Errorf("checksum mismatch: got %x want %x", got, want)}
	}
	if !compressed {
		return body, nil
	}
	r := lz4.NewReader(bytes.NewReader(body))
	var out bytes.Buffer
	if _, err := out.ReadFrom(r); err != nil {
		return nil, &ErrTransport{Cause: fmt.Errorf("lz4 decompress: %w", err)}
	}
	return out.Bytes(), nil
}

func writeVec3(w *msgp.Writer, v simobjects.Vec3) error {
	if err := w.WriteFloat64(v.X); err != nil {
		return err
	}
	if err := w.WriteFloat64(v.Y); err != nil {
		return err
	}
	return w.WriteFloat64(v.Z)
}

func readVec3(r *msgp.Reader) (simobjects.Vec3, error) {
	var v simobjects.Vec3
	var err error
	if v.X, err = r.ReadFloat64(); err != nil {
		return v, err
	}
	if v.Y, err = r.ReadFloat64(); err != nil {
		return v, err
	}
	v.Z, err = r.ReadFloat64()
	return v, err
}

func writeQuat(w *msgp.Writer, q simobjects.Quat) error {
	for _, f := range [...]float64{q.X, q.Y, q.Z, q.W} {
		if err := w.WriteFloat64(f); err != nil {
			return err
		}
	}
	return nil
}

func readQuat(r *msgp.Reader) (simobjects.Quat, error) {
	var q simobjects.Quat
	vals := make([]float64, 4)
	for i := range vals {
		v, err := r.ReadFloat64()
		if err != nil {
			return q, err
		}
		vals[i] = v
	}
	q.X, q.Y, q.Z, q.W = vals[0], vals[1], vals[2], vals[3]
	return q, nil
}

func writeIsometry(w *msgp.Writer, iso simobjects.Isometry) error {
	if err := writeVec3(w, iso.Translation); err != nil {
		return err
	}
	return writeQuat(w, iso.Rotation)
}

func readIsometry(r *msgp.Reader) (simobjects.Isometry, error) {
	var iso simobjects.Isometry
	var err error
	if iso.Translation, err = readVec3(r); err != nil {
		return iso, err
	}
	iso.Rotation, err = readQuat(r)
	return iso, err
}

// EncodeWarmBody / DecodeWarmBody implement the BlobStore's compact
// binary codec for the per-object "latest warm state" key.
func EncodeWarmBody(w simobjects.WarmBody) []byte {
	var buf bytes.Buffer
	mw := msgp.NewWriter(&buf)
	mw.WriteUint64(w.Timestamp)
	writeIsometry(mw, w.Position)
	writeVec3(mw, w.LinVel)
	writeVec3(mw, w.AngVel)
	mw.Flush()
	return wrap(buf.Bytes())
}

func DecodeWarmBody(blob []byte) (simobjects.WarmBody, error) {
	var out simobjects.WarmBody
	body, err := unwrap(blob)
	if err != nil {
		return out, err
	}
	mr := msgp.NewReader(bytes.NewReader(body))
	if out.Timestamp, err = mr.ReadUint64(); err != nil {
		return out, err
	}
	if out.Position, err = readIsometry(mr); err != nil {
		return out, err
	}
	if out.LinVel, err = readVec3(mr); err != nil {
		return out, err
	}
	out.AngVel, err = readVec3(mr)
	return out, err
}

// EncodeWarmBodyObjectSet / DecodeWarmBodyObjectSet codec the
// authoritative per-region batch published every macro-step.
func EncodeWarmBodyObjectSet(set simobjects.WarmBodyObjectSet) []byte {
	var buf bytes.Buffer
	mw := msgp.NewWriter(&buf)
	mw.WriteUint64(set.Timestamp)
	mw.WriteArrayHeader(uint32(len(set.Objects)))
	for _, o := range set.Objects {
		b, _ := o.UUID.MarshalBinary()
		mw.WriteBytes(b)
		mw.WriteUint64(o.Timestamp)
		writeIsometry(mw, o.Position)
	}
	mw.Flush()
	return wrap(buf.Bytes())
}

func DecodeWarmBodyObjectSet(blob []byte) (simobjects.WarmBodyObjectSet, error) {
	var out simobjects.WarmBodyObjectSet
	body, err := unwrap(blob)
	if err != nil {
		return out, err
	}
	mr := msgp.NewReader(bytes.NewReader(body))
	if out.Timestamp, err = mr.ReadUint64(); err != nil {
		return out, err
	}
	n, err := mr.ReadArrayHeader()
	if err != nil {
		return out, err
	}
	out.Objects = make([]simobjects.BodyPositionObject, 0, n)
	for i := uint32(0); i < n; i++ {
		var o simobjects.BodyPositionObject
		idBytes, err := mr.ReadBytes(nil)
		if err != nil {
			return out, err
		}
		if err := o.UUID.UnmarshalBinary(idBytes); err != nil {
			return out, err
		}
		if o.Timestamp, err = mr.ReadUint64(); err != nil {
			return out, err
		}
		if o.Position, err = readIsometry(mr); err != nil {
			return out, err
		}
		out.Objects = append(out.Objects, o)
	}
	return out, nil
}

// EncodeWatchedObjects / DecodeWatchedObjects codec a region's
// published ghost footprint list.
func EncodeWatchedObjects(w simobjects.WatchedObjects) []byte {
	var buf bytes.Buffer
	mw := msgp.NewWriter(&buf)
	mw.WriteArrayHeader(uint32(len(w.Objects)))
	for _, o := range w.Objects {
		b, _ := o.UUID.MarshalBinary()
		mw.WriteBytes(b)
		writeVec3(mw, o.Sphere.Center)
		mw.WriteFloat64(o.Sphere.Radius)
	}
	mw.Flush()
	return wrap(buf.Bytes())
}

func DecodeWatchedObjects(blob []byte) (simobjects.WatchedObjects, error) {
	var out simobjects.WatchedObjects
	body, err := unwrap(blob)
	if err != nil {
		return out, err
	}
	mr := msgp.NewReader(bytes.NewReader(body))
	n, err := mr.ReadArrayHeader()
	if err != nil {
		return out, err
	}
	out.Objects = make([]simobjects.WatchedEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		var e simobjects.WatchedEntry
		idBytes, err := mr.ReadBytes(nil)
		if err != nil {
			return out, err
		}
		if err := e.UUID.UnmarshalBinary(idBytes); err != nil {
			return out, err
		}
		if e.Sphere.Center, err = readVec3(mr); err != nil {
			return out, err
		}
		if e.Sphere.Radius, err = mr.ReadFloat64(); err != nil {
			return out, err
		}
		out.Objects = append(out.Objects, e)
	}
	return out, nil
}

// EncodeRegionList / DecodeRegionList codec the Partitioner's region
// enumeration blob.
func EncodeRegionList(rl simobjects.RegionList) []byte {
	var buf bytes.Buffer
	mw := msgp.NewWriter(&buf)
	mw.WriteArrayHeader(uint32(len(rl.Keys)))
	for _, k := range rl.Keys {
		mw.WriteString(k)
	}
	mw.WriteArrayHeader(uint32(len(rl.Ports)))
	for _, p := range rl.Ports {
		mw.WriteUint32(p)
	}
	mw.Flush()
	return wrap(buf.Bytes())
}

func DecodeRegionList(blob []byte) (simobjects.RegionList, error) {
	var out simobjects.RegionList
	body, err := unwrap(blob)
	if err != nil {
		return out, err
	}
	mr := msgp.NewReader(bytes.NewReader(body))
	nk, err := mr.ReadArrayHeader()
	if err != nil {
		return out, err
	}
	out.Keys = make([]string, 0, nk)
	for i := uint32(0); i < nk; i++ {
		s, err := mr.ReadString()
		if err != nil {
			return out, err
		}
		out.Keys = append(out.Keys, s)
	}
	np, err := mr.ReadArrayHeader()
	if err != nil {
		return out, err
	}
	out.Ports = make([]uint32, 0, np)
	for i := uint32(0); i < np; i++ {
		p, err := mr.ReadUint32()
		if err != nil {
			return out, err
		}
		out.Ports = append(out.Ports, p)
	}
	return out, nil
}
