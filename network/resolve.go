package network

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"golang.org/x/sync/singleflight"
)

// Resolver finds and parses sub-network `.flow` files named by a bare
// filter name that resolves to neither a built-in filter nor a
// previously declared <network-node> template (spec.md §4.5's filter
// lookup order, step (c)). Candidate directories are the including
// file's own directory, then cfg.Network.SearchPath in order; the
// first directory whose listing contains name+Extension wins.
//
// Grounded on aistore's fs/walkbck.go jogger pattern (directory
// traversal to discover filesystem entries before acting on them,
// there via WalkBck/joggerBck); here the corpus's godirwalk dependency
// (carried transitively by aisfs/cli's own directory-walking needs)
// is wired directly for the existence probe rather than a bare
// os.Stat per candidate, since SPEC_FULL.md's ambient file-resolution
// surface wants a directory-listing view over repeated stat calls
// when the same directory is probed for many sibling filter names.
type Resolver struct {
	SearchPath []string
	Extension  string

	group singleflight.Group
}

func NewResolver(searchPath []string, extension string) *Resolver {
	if extension == "" {
		extension = ".flow"
	}
	return &Resolver{SearchPath: searchPath, Extension: extension}
}

// findFile reports the full path of name+r.Extension within dir, or ""
// if dir does not contain it. Directories that don't exist or can't be
// read are treated as a non-match, not an error, since a SearchPath
// entry is allowed to be stale.
func (r *Resolver) findFile(dir, name string) string {
	want := name + r.Extension
	entries, err := godirwalk.ReadDirents(dir, nil)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.Name() == want && !e.IsDir() {
			return filepath.Join(dir, want)
		}
	}
	return ""
}

// Resolve locates the `.flow` file for name, trying baseDir (the
// including file's own directory) before SearchPath, in order.
func (r *Resolver) Resolve(baseDir, name string) (string, error) {
	candidates := append([]string{baseDir}, r.SearchPath...)
	for _, dir := range candidates {
		if path := r.findFile(dir, name); path != "" {
			return path, nil
		}
	}
	return "", fmt.Errorf("network: no sub-network file %q%s found in %q or search path %v",
		name, r.Extension, baseDir, r.SearchPath)
}

// loaded pairs a parsed template with the directory it was found in, so
// a sub-network's own sub-networks resolve relative to where it lives,
// not to its including parent's directory.
type loaded struct {
	tpl *NetworkTemplate
	dir string
}

// Load resolves and parses the `.flow` file for name. Concurrent calls
// for the same (baseDir, name) pair share one read and parse; results
// are not cached, so a later call for the same pair (such as a sibling
// <node filter="..."> entry that Build reaches after the first) reads
// and parses the file again. It returns the template and the
// directory it was loaded from.
func (r *Resolver) Load(baseDir, name string) (*NetworkTemplate, string, error) {
	key := baseDir + "\x00" + name
	v, err, _ := r.group.Do(key, func() (any, error) {
		path, err := r.Resolve(baseDir, name)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("network: opening sub-network file %q: %w", path, err)
		}
		defer f.Close()
		tpl, err := ParseFlow(f)
		if err != nil {
			return nil, fmt.Errorf("network: parsing sub-network file %q: %w", path, err)
		}
		return loaded{tpl: tpl, dir: filepath.Dir(path)}, nil
	})
	if err != nil {
		return nil, "", err
	}
	l := v.(loaded)
	return l.tpl, l.dir, nil
}
