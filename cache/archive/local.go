package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pierrec/lz4/v3"
	"github.com/teris-io/shortid"
	"github.com/tidwall/buntdb"

	"github.com/rwthflow/flow/cmn/cos"
)

// LocalStore is a directory-backed Store: one lz4-compressed file per
// key under Root, with a buntdb index mapping key -> {file, length,
// content-hash} so repeated opens do not re-scan the directory.
// Grounded verbatim in spirit on the teacher's cmn/archive lz4Writer
// (compression codec) and on xact/xreg's registry (an in-memory index
// in front of a slower backing store).
type LocalStore struct {
	root string
	db   *buntdb.DB
	sid  *shortid.Shortid
}

// tempNameABC is the shortid alphabet used for in-progress cache-writer
// temp file names (spec.md §4.9's "attributes... on destruction" implies
// a finalize step; the name must be collision-free but otherwise
// opaque, same shape as the teacher's xact UUIDs).
const tempNameABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

type indexEntry struct {
	File        string
	Length      int
	ContentHash string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("archive: cannot create root %q: %w", root, err)
	}
	db, err := buntdb.Open(filepath.Join(root, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("archive: cannot open index: %w", err)
	}
	sid := shortid.MustNew(1, tempNameABC, 1)
	return &LocalStore{root: root, db: db, sid: sid}, nil
}

func (s *LocalStore) tempName() string {
	id, err := s.sid.Generate()
	if err != nil {
		id = strconv.FormatInt(int64(os.Getpid()), 36)
	}
	return id + ".lz4.tmp"
}

// Put lz4-compresses b into a temp file, renames it into place (atomic
// within one filesystem), then records the index entry keyed by key.
func (s *LocalStore) Put(key string, b []byte) error {
	tmp := filepath.Join(s.root, s.tempName())
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	zw := lz4.NewWriter(f)
	if _, err := zw.Write(b); err != nil {
		zw.Close()
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	finalName := cos.ContentHash([]byte(key)) + ".lz4"
	finalPath := filepath.Join(s.root, finalName)
	if err := os.Rename(tmp, finalPath); err != nil {
		os.Remove(tmp)
		return err
	}
	entry := indexEntry{File: finalName, Length: len(b), ContentHash: cos.ContentHash(b)}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, encodeEntry(entry), nil)
		return err
	})
}

func (s *LocalStore) Get(key string) ([]byte, bool, error) {
	var raw string
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		raw = v
		return nil
	})
	if err == buntdb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	entry := decodeEntry(raw)
	f, err := os.Open(filepath.Join(s.root, entry.File))
	if err != nil {
		return nil, false, err
	}
	defer f.Close()
	var buf bytes.Buffer
	zr := lz4.NewReader(f)
	if _, err := io.Copy(&buf, zr); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

func (s *LocalStore) Delete(key string) error {
	var entry indexEntry
	err := s.db.Update(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		entry = decodeEntry(v)
		_, err = tx.Delete(key)
		return err
	})
	if err == buntdb.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(s.root, entry.File))
}

func (s *LocalStore) Close() error { return s.db.Close() }

// encodeEntry/decodeEntry use a tiny pipe-delimited format rather than
// pulling in a JSON encoder for a three-field record; buntdb itself
// stores arbitrary strings, so this stays entirely internal to the
// index.
func encodeEntry(e indexEntry) string {
	return e.File + "|" + strconv.Itoa(e.Length) + "|" + e.ContentHash
}

func decodeEntry(s string) indexEntry {
	parts := splitN3(s)
	length, _ := strconv.Atoi(parts[1])
	return indexEntry{File: parts[0], Length: length, ContentHash: parts[2]}
}

func splitN3(s string) [3]string {
	var out [3]string
	start, field := 0, 0
	for i := 0; i < len(s) && field < 2; i++ {
		if s[i] == '|' {
			out[field] = s[start:i]
			field++
			start = i + 1
		}
	}
	out[field] = s[start:]
	return out
}
