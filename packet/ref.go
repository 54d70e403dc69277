package packet

import "sync/atomic"

// cell is the shared, atomically-refcounted home of one packet. Multiple
// Ref handles can point at the same cell; the packet is logically freed
// (available for GC) once the last handle releases it.
type cell struct {
	data Data
	refs atomic.Int32
}

// Ref is the smart handle of spec.md §3: atomic increment/decrement,
// type-safe downcast that falls back to Sentinel rather than nil, a
// copy-on-write MakePrivate, and TakeSole for extracting sole ownership.
// The zero Ref is a Sentinel-valued, non-shared handle.
type Ref struct {
	c *cell
}

// New wraps d in a fresh, singly-owned Ref. Wrapping one of the three
// sentinels is a cheap no-op: sentinels are immortal and never torn down
// (spec.md §3, §9), so New recognizes them and skips cell allocation.
func New(d Data) Ref {
	if IsControl(d) {
		return Ref{c: controlCell(d)}
	}
	c := &cell{data: d}
	c.refs.Store(1)
	return Ref{c: c}
}

var (
	sentinelCell = &cell{data: Sentinel}
	eosCell      = &cell{data: EOS}
	oodCell      = &cell{data: OOD}
)

func controlCell(d Data) *cell {
	switch {
	case IsEOS(d):
		return eosCell
	case IsOOD(d):
		return oodCell
	default:
		return sentinelCell
	}
}

// Empty is the canonical empty-slot handle.
func Empty() Ref { return Ref{c: sentinelCell} }

func (r Ref) Get() Data {
	if r.c == nil {
		return Sentinel
	}
	return r.c.data
}

func (r Ref) IsSentinel() bool { return r.c == nil || IsSentinel(r.c.data) }
func (r Ref) IsEOS() bool      { return r.c != nil && IsEOS(r.c.data) }
func (r Ref) IsOOD() bool      { return r.c != nil && IsOOD(r.c.data) }
func (r Ref) IsControl() bool  { return r.c == nil || IsControl(r.c.data) }

// Retain returns a new handle sharing r's cell, having bumped the
// refcount. Sentinels are immortal so their count is left untouched.
func (r Ref) Retain() Ref {
	if r.c == nil {
		return Empty()
	}
	if !IsControl(r.c.data) {
		r.c.refs.Add(1)
	}
	return Ref{c: r.c}
}

// Release drops one reference. Real (non-sentinel) packets whose count
// reaches zero are considered freed; Go's GC reclaims the memory once
// the last Ref handle is itself dropped, but the explicit count is kept
// so that the refcount-discipline invariants of spec.md §3/§8 remain
// independently testable.
func (r Ref) Release() {
	if r.c == nil || IsControl(r.c.data) {
		return
	}
	r.c.refs.Add(-1)
}

// RefCount reports the current refcount; sentinels report 0.
func (r Ref) RefCount() int32 {
	if r.c == nil || IsControl(r.c.data) {
		return 0
	}
	return r.c.refs.Load()
}

// MakePrivate performs copy-on-write: if more than one handle shares the
// underlying packet, it is cloned into a new, singly-owned cell; r's own
// reference to the old cell is released in that case. Sentinels are
// never cloned (cloning a sentinel just returns itself, see sentinel.Clone).
func (r Ref) MakePrivate() Ref {
	if r.c == nil || IsControl(r.c.data) {
		return r
	}
	if r.c.refs.Load() <= 1 {
		return r
	}
	cloned := r.c.data.Clone()
	r.Release()
	return New(cloned)
}

// Downcast type-asserts the wrapped packet to T; on mismatch it releases
// r and returns the empty Sentinel handle, per spec.md §3's "on type
// mismatch the handle takes the sentinel (never null)".
func Downcast[T Data](r Ref) (T, Ref) {
	var zero T
	if r.c == nil {
		return zero, Empty()
	}
	if v, ok := r.c.data.(T); ok {
		return v, r
	}
	r.Release()
	return zero, Empty()
}

// TakeSole extracts raw ownership when the refcount is exactly 1 per
// spec.md §3 ("release(): extract raw ownership when refcount is exactly
// 1"); ok is false (and d is nil) otherwise, leaving r untouched.
func (r Ref) TakeSole() (d Data, ok bool) {
	if r.c == nil || IsControl(r.c.data) {
		return nil, false
	}
	if r.c.refs.Load() != 1 {
		return nil, false
	}
	return r.c.data, true
}
