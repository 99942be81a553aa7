package blobstore

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/steadyum/steadyum-go/simobjects"
)

var coldJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// EncodeColdBody / DecodeColdBody codec the session-stable body state.
// ColdBody's tagged-union Shape and optional generic KinematicCurve
// fields are awkward to hand-roll field-by-field in msgp (unlike the
// fixed-shape WarmBody/WatchedObjects above); instead the JSON
// representation is produced by the same jsoniter already wired for
// bus messages, then wrapped in the same versioned/checksummed/
// compressible envelope as every other BlobStore value. That envelope
// carries a version byte, a flag byte and a checksum; it carries no
// length prefix, and the ColdBody payload inside it is JSON text.
func EncodeColdBody(c simobjects.ColdBody) ([]byte, error) {
	j, err := coldJSON.Marshal(c)
	if err != nil {
		return nil, err
	}
	return wrap(j), nil
}

func DecodeColdBody(blob []byte) (simobjects.ColdBody, error) {
	var out simobjects.ColdBody
	body, err := unwrap(blob)
	if err != nil {
		return out, err
	}
	err = coldJSON.Unmarshal(body, &out)
	return out, err
}
