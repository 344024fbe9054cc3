// Package output renders comparison reports as text, plain, pretty, json,
// json-canonical or yaml.
//
// Formatters are looked up by name in a registry:
//
//	formatter, err := output.Get("text")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, report); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/hdcompare/pkg/hdcompare/compare"
	"github.com/jamesainslie/hdcompare/pkg/hdcompare/manifest"
)

// DefaultHashPrefix is how many characters of a digest are printed.
const DefaultHashPrefix = 8

// Source describes one side of the comparison.
type Source struct {
	// Path is the manifest path as given on the command line.
	Path string

	// Header is the manifest's preamble.
	Header manifest.Header

	// Records is the number of data rows read.
	Records int

	// Unique is the number of distinct digests after indexing.
	Unique int

	// Duplicates is the number of rows replaced by a later row with the same digest.
	Duplicates int

	// Excluded is the number of rows dropped by exclude patterns.
	Excluded int

	// Bytes is the sum of all numeric sizes in the manifest.
	Bytes int64
}

// Report is everything a formatter needs.
type Report struct {
	// ID identifies the comparison run.
	ID string

	// Generated is when the report was produced.
	Generated time.Time

	// Base is the manifest checked against.
	Base Source

	// Comparison is the manifest whose entries were classified.
	Comparison Source

	// Reversed is true when the command line roles were swapped.
	Reversed bool

	// Key is the digest column used for matching.
	Key string

	// Order is the visit order name.
	Order string

	// SizeMode is the size comparison mode name.
	SizeMode string

	// Result holds the classification.
	Result *compare.Result
}

// HashPrefix shortens a digest for display. Digests shorter than n are
// returned whole.
func HashPrefix(hash string, n int) string {
	if len(hash) <= n {
		return hash
	}
	return hash[:n]
}

// Formatter is the interface that all output formatters implement.
type Formatter interface {
	// Format writes the formatted report to the buffer.
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
