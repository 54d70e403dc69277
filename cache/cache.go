// Package cache implements the content-addressed packet cache of
// spec.md §4.9: an attribute-carrying wrapper over a keyed archive.Store
// backend, with a per-key writer that buffers same-typed packet runs
// and a per-key reader that replays them.
package cache

import (
	"bytes"
	"fmt"
	"io"

	"github.com/rwthflow/flow/attrs"
	"github.com/rwthflow/flow/cache/archive"
	"github.com/rwthflow/flow/metrics"
	"github.com/rwthflow/flow/packet"
	"github.com/rwthflow/flow/registry"
)

// Cache wraps an archive.Store with the packet-run codec and the
// <key>.attribs XML side-car convention.
type Cache struct {
	store   archive.Store
	metrics *metrics.Registry
}

func New(store archive.Store) *Cache { return &Cache{store: store} }

// UseMetrics installs the registry Reader reports hit/miss counts to;
// nil (the default) disables reporting, not lookups.
func (c *Cache) UseMetrics(r *metrics.Registry) { c.metrics = r }

func attribsKey(key string) string { return key + ".attribs" }

// Writer returns a new CacheWriter for key.
func (c *Cache) Writer(key string) *Writer {
	return &Writer{cache: c, key: key, attrs: attrs.New()}
}

// Reader opens key for replay; ok is false if key has never been
// written.
func (c *Cache) Reader(key string) (*Reader, bool, error) {
	b, ok, err := c.store.Get(key)
	if err != nil || !ok {
		if err == nil {
			c.metrics.CacheMiss()
		}
		return nil, ok, err
	}
	c.metrics.CacheHit()
	a := attrs.New()
	if ab, ok, err := c.store.Get(attribsKey(key)); err == nil && ok {
		if parsed, err := attrs.ReadXML(bytes.NewReader(ab)); err == nil {
			a = parsed
		}
	}
	return &Reader{buf: bytes.NewReader(b), attrs: a}, true, nil
}

// Writer buffers packets in memory until the datatype changes, then
// flushes a "run": datatype name followed by the gathered codec.
// Attributes are merged incrementally and written to the <key>.attribs
// side-car when Close finalizes the entry (spec.md §4.9).
type Writer struct {
	cache *Cache
	key   string
	attrs *attrs.Attributes

	buf       bytes.Buffer
	pending   []packet.Data
	pendingDT *registry.Datatype
	closed    bool
}

// Put appends d to the writer's pending run, flushing the current run
// first if d's datatype differs from the run in progress.
func (w *Writer) Put(d packet.Data) error {
	if w.closed {
		return fmt.Errorf("cache: write to closed writer for key %q", w.key)
	}
	dt := d.Datatype()
	if w.pendingDT != nil && dt != w.pendingDT {
		if err := w.flushRun(); err != nil {
			return err
		}
	}
	w.pendingDT = dt
	w.pending = append(w.pending, d)
	return nil
}

// MergeAttributes folds a into the writer's accumulated attribute set.
func (w *Writer) MergeAttributes(a *attrs.Attributes) { w.attrs.Merge(a) }

func (w *Writer) flushRun() error {
	if len(w.pending) == 0 {
		return nil
	}
	if err := writeString(&w.buf, w.pendingDT.Name); err != nil {
		return err
	}
	if err := packet.WriteGathered(&w.buf, w.pendingDT, w.pending); err != nil {
		return err
	}
	w.pending = nil
	w.pendingDT = nil
	return nil
}

// Close finalizes the buffered run(s) into the archive entry keyed by
// w.key, and writes the merged attributes to the <key>.attribs sibling.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.flushRun(); err != nil {
		return err
	}
	if err := w.cache.store.Put(w.key, w.buf.Bytes()); err != nil {
		return err
	}
	var ab bytes.Buffer
	if err := w.attrs.WriteXML(&ab); err != nil {
		return err
	}
	return w.cache.store.Put(attribsKey(w.key), ab.Bytes())
}

// Reader replays a cached entry run by run, yielding packets one at a
// time; at the end of each run the next run's header is parsed and its
// gathered codec decoded.
type Reader struct {
	buf   *bytes.Reader
	attrs *attrs.Attributes

	current []packet.Data
	idx     int
}

func (r *Reader) Attributes() *attrs.Attributes { return r.attrs }

// Next returns the next packet in the cached stream, loading the next
// run from the archive blob if the current run is exhausted. ok is
// false once every run has been consumed.
func (r *Reader) Next() (packet.Data, bool, error) {
	for r.idx >= len(r.current) {
		if r.buf.Len() == 0 {
			return nil, false, nil
		}
		name, err := readString(r.buf)
		if err != nil {
			return nil, false, err
		}
		dt, ok := registry.GetDatatype(name)
		if !ok {
			return nil, false, fmt.Errorf("cache: unknown datatype %q in cached run", name)
		}
		run, err := packet.ReadGathered(r.buf, dt)
		if err != nil {
			return nil, false, err
		}
		r.current = run
		r.idx = 0
	}
	d := r.current[r.idx]
	r.idx++
	return d, true, nil
}

// writeString/readString mirror packet's internal length-prefixed
// string codec; duplicated here (rather than exported from packet)
// since the run header is cache-internal framing, not a packet field.
func writeString(w *bytes.Buffer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func writeU32(w *bytes.Buffer, v uint32) error {
	b := []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	_, err := w.Write(b)
	return err
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}
