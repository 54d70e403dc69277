// Package archive provides the keyed, compressed blob store behind the
// cache (spec.md §1's "archive backend... treated as a keyed blob store
// with compression"). Two concrete backends satisfy the same Store
// interface: a local-directory backend (lz4 + a buntdb key index) and
// an S3 backend, mirroring the teacher's own cloud-provider-selectable
// backend pattern (ais/backend).
package archive

import "io"

// Store is a keyed blob store. Put/Get move each blob as one whole
// []byte; there is no streaming access. The cache package layers the
// packet-run codec on top.
type Store interface {
	// Put writes b under key, replacing any existing blob.
	Put(key string, b []byte) error
	// Get reads the blob stored under key. ok is false if key is absent.
	Get(key string) (b []byte, ok bool, err error)
	// Delete removes the blob stored under key, if any.
	Delete(key string) error
	// Close releases any resources (index handles, client connections).
	Close() error
}

// WriteCloser names a streaming-write handle. No Store in this package
// returns one: both backends take a whole blob through Put.
type WriteCloser interface {
	io.WriteCloser
}
