// Package cos holds small shared helpers, mirroring the teacher's
// cmn/cos grab-bag package (misc string/marshal/metric-tuple helpers
// used across otherwise-unrelated packages).
package cos

import (
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// IsValidUUID reports whether s parses as a canonical UUID. No caller
// in this module uses it; boundaries parse identifiers with uuid.Parse
// or JSON decoding directly.
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// MustMarshal marshals v to JSON, panicking on error. Reserved for
// values whose shape is fixed by this codebase (never user input).
func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// NamedVal64 is a (name, value) metric sample tuple, mirroring the
// teacher's cos.NamedVal64 used to batch stats updates.
type NamedVal64 struct {
	Name  string
	Value int64
}

// BHead renders a short head of a byte slice for log messages,
// avoiding dumping large payloads into logs.
func BHead(b []byte) string {
	const max = 64
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
