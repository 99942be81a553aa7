// Package mono provides a monotonic nanosecond clock, mirroring the
// teacher's cmn/mono package. The Worker's pacing and ack-timeout
// bookkeeping use mono.NanoTime() values, never wall-clock time, so
// they are immune to clock adjustments; step/ack timestamps themselves
// are step counters.
package mono

import "time"

var start = time.Now()

// NanoTime returns nanoseconds elapsed since process start.
func NanoTime() int64 { return int64(time.Since(start)) }

// Since returns nanoseconds elapsed since a prior NanoTime() value.
func Since(t int64) int64 { return NanoTime() - t }

// SinceNano is an alias of Since kept for call-site parity with the
// teacher, which exposes both spellings at different call sites.
func SinceNano(t int64) int64 { return Since(t) }
