// Package index builds digest-keyed lookups over manifest records.
package index

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/jamesainslie/hdcompare/pkg/hdcompare/manifest"
)

// Order selects the iteration order of Keys.
type Order int

const (
	// OrderFile yields keys in the file order of the record that owns them.
	OrderFile Order = iota
	// OrderHash yields keys sorted by digest.
	OrderHash
)

// String returns the string representation of the order.
func (o Order) String() string {
	switch o {
	case OrderFile:
		return "file"
	case OrderHash:
		return "hash"
	default:
		return "unknown"
	}
}

// ParseOrder parses "file" or "hash".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(s) {
	case "", "file":
		return OrderFile, nil
	case "hash":
		return OrderHash, nil
	default:
		return OrderFile, fmt.Errorf("unknown order %q (want file or hash)", s)
	}
}

// Index maps a digest to the last record carrying it.
type Index struct {
	key        string
	records    map[string]manifest.Record
	pos        map[string]int
	duplicates int
	excluded   int
}

// Option configures New.
type Option func(*settings)

type settings struct {
	key     string
	exclude []glob.Glob
}

// WithKey selects the column used as the key. The default is md5.
func WithKey(column string) Option {
	return func(s *settings) {
		s.key = column
	}
}

// WithExclude drops records whose filename matches any of the globs.
func WithExclude(globs ...glob.Glob) Option {
	return func(s *settings) {
		s.exclude = append(s.exclude, globs...)
	}
}

// CompilePatterns compiles filename glob patterns for WithExclude.
// Patterns use '/' as the separator.
func CompilePatterns(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// New indexes records in order. A later record with the same key replaces
// the earlier one. Keys are not validated; an empty digest is a valid key.
func New(records []manifest.Record, opts ...Option) *Index {
	s := settings{key: manifest.ColumnMD5}
	for _, opt := range opts {
		opt(&s)
	}

	idx := &Index{
		key:     s.key,
		records: make(map[string]manifest.Record, len(records)),
		pos:     make(map[string]int, len(records)),
	}

	for i, rec := range records {
		if matchesAny(rec.Filename, s.exclude) {
			idx.excluded++
			continue
		}

		k, _ := rec.Field(s.key)
		if _, ok := idx.records[k]; ok {
			idx.duplicates++
		}
		idx.records[k] = rec
		idx.pos[k] = i
	}

	return idx
}

func matchesAny(name string, globs []glob.Glob) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Key returns the column the index is keyed by.
func (x *Index) Key() string { return x.key }

// Len returns the number of distinct keys.
func (x *Index) Len() int { return len(x.records) }

// Duplicates returns how many records were replaced by a later one.
func (x *Index) Duplicates() int { return x.duplicates }

// Excluded returns how many records were dropped by exclude patterns.
func (x *Index) Excluded() int { return x.excluded }

// Get returns the record for a key.
func (x *Index) Get(key string) (manifest.Record, bool) {
	rec, ok := x.records[key]
	return rec, ok
}

// Has reports whether key is present.
func (x *Index) Has(key string) bool {
	_, ok := x.records[key]
	return ok
}

// Keys returns every key in the requested order.
func (x *Index) Keys(order Order) []string {
	keys := make([]string, 0, len(x.records))
	for k := range x.records {
		keys = append(keys, k)
	}

	switch order {
	case OrderHash:
		slices.Sort(keys)
	default:
		slices.SortFunc(keys, func(a, b string) int {
			return cmp.Compare(x.pos[a], x.pos[b])
		})
	}

	return keys
}
