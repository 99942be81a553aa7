// Package atomic provides typed wrappers over sync/atomic, mirroring
// the teacher's cmn/atomic package so call sites read as Load/Store/Inc
// rather than bare sync/atomic functions.
package atomic

import "sync/atomic"

type Int64 struct{ v int64 }

func (a *Int64) Load() int64          { return atomic.LoadInt64(&a.v) }
func (a *Int64) Store(val int64)      { atomic.StoreInt64(&a.v, val) }
func (a *Int64) Add(delta int64) int64 { return atomic.AddInt64(&a.v, delta) }
func (a *Int64) CAS(old, new int64) bool {
	return atomic.CompareAndSwapInt64(&a.v, old, new)
}

type Int32 struct{ v int32 }

func (a *Int32) Load() int32          { return atomic.LoadInt32(&a.v) }
func (a *Int32) Store(val int32)      { atomic.StoreInt32(&a.v, val) }
func (a *Int32) Add(delta int32) int32 { return atomic.AddInt32(&a.v, delta) }
func (a *Int32) CAS(old, new int32) bool {
	return atomic.CompareAndSwapInt32(&a.v, old, new)
}
func (a *Int32) Inc() int32 { return a.Add(1) }
func (a *Int32) Dec() int32 { return a.Add(-1) }

type Bool struct{ v int32 }

func (a *Bool) Load() bool { return atomic.LoadInt32(&a.v) != 0 }
func (a *Bool) Store(val bool) {
	var i int32
	if val {
		i = 1
	}
	atomic.StoreInt32(&a.v, i)
}

type Uint64 struct{ v uint64 }

func (a *Uint64) Load() uint64          { return atomic.LoadUint64(&a.v) }
func (a *Uint64) Store(val uint64)      { atomic.StoreUint64(&a.v, val) }
func (a *Uint64) Add(delta uint64) uint64 { return atomic.AddUint64(&a.v, delta) }
