// Package link implements the Link/Queue abstraction connecting one
// output port to one input port: either a fast single-slot handoff (the
// common case, one producer and one consumer stepping in lockstep) or a
// mutex+condvar FIFO queue when a node needs to buffer ahead of its
// consumer. Grounded on aistore's transport/bundle stream-bundle design:
// a lightweight fast path plus an explicit buffered mode for bursty
// producers, rather than one channel-based implementation doing both.
package link

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/rwthflow/flow/packet"
	"github.com/rwthflow/flow/registry"
)

// Mode selects a Link's internal discipline.
type Mode int

const (
	// Fast is a single-slot handoff: Put blocks until the slot is empty,
	// Get blocks until the slot is full. No internal buffering.
	Fast Mode = iota
	// Queued is an unbounded mutex+condvar FIFO, for producers that must
	// run ahead of a slower consumer (e.g. a window node's lookahead).
	Queued
)

// Link carries packets of exactly one Datatype from one output port to
// one input port.
type Link struct {
	Datatype *registry.Datatype
	mode     Mode

	mu     sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	// Fast mode: single slot.
	slot    packet.Ref
	hasSlot bool

	// Queued mode: FIFO.
	queue *list.List

	closed bool
}

func New(dt *registry.Datatype, mode Mode) *Link {
	l := &Link{Datatype: dt, mode: mode}
	l.notEmpty = sync.NewCond(&l.mu)
	l.notFull = sync.NewCond(&l.mu)
	if mode == Queued {
		l.queue = list.New()
	}
	return l
}

// checkDatatype enforces that every packet flowing through the link
// matches the link's declared datatype, unless it is a control packet
// (EOS/OOD/Sentinel), which carries no payload datatype of its own.
func (l *Link) checkDatatype(r packet.Ref) error {
	d := r.Get()
	if packet.IsControl(d) {
		return nil
	}
	if l.Datatype != nil && d.Datatype() != l.Datatype {
		return fmt.Errorf("link: datatype mismatch: link wants %q, packet is %q",
			l.Datatype.Name, d.Datatype().Name)
	}
	return nil
}

// Put enqueues r, blocking in Fast mode until the single slot is free.
// Queued mode never blocks the producer.
func (l *Link) Put(r packet.Ref) error {
	if err := l.checkDatatype(r); err != nil {
		r.Release()
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.mode {
	case Fast:
		for l.hasSlot && !l.closed {
			l.notFull.Wait()
		}
		if l.closed {
			r.Release()
			return fmt.Errorf("link: put on closed link")
		}
		l.slot = r
		l.hasSlot = true
		l.notEmpty.Signal()
	case Queued:
		if l.closed {
			r.Release()
			return fmt.Errorf("link: put on closed link")
		}
		l.queue.PushBack(r)
		l.notEmpty.Signal()
	}
	return nil
}

// Get blocks until a packet is available and returns it.
func (l *Link) Get() (packet.Ref, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.mode {
	case Fast:
		for !l.hasSlot && !l.closed {
			l.notEmpty.Wait()
		}
		if !l.hasSlot {
			return packet.Empty(), fmt.Errorf("link: get on closed, empty link")
		}
		r := l.slot
		l.slot = packet.Ref{}
		l.hasSlot = false
		l.notFull.Signal()
		return r, nil
	case Queued:
		for l.queue.Len() == 0 && !l.closed {
			l.notEmpty.Wait()
		}
		if l.queue.Len() == 0 {
			return packet.Empty(), fmt.Errorf("link: get on closed, empty link")
		}
		front := l.queue.Remove(l.queue.Front())
		return front.(packet.Ref), nil
	}
	panic("link: unknown mode")
}

// IsDataAvailable reports whether Get would return immediately.
func (l *Link) IsDataAvailable() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == Fast {
		return l.hasSlot
	}
	return l.queue.Len() > 0
}

// Clear discards any buffered packet(s) without delivering them,
// releasing their references.
func (l *Link) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == Fast {
		if l.hasSlot {
			l.slot.Release()
			l.slot = packet.Ref{}
			l.hasSlot = false
			l.notFull.Signal()
		}
		return
	}
	for l.queue.Len() > 0 {
		e := l.queue.Remove(l.queue.Front())
		e.(packet.Ref).Release()
	}
}

// Close marks the link closed, waking any blocked Put/Get so they return
// an error instead of hanging forever.
func (l *Link) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.notEmpty.Broadcast()
	l.notFull.Broadcast()
}
