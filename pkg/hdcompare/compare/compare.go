// Package compare classifies the entries of one manifest index against
// another.
//
// Every entry of the comparison index lands in exactly one bucket: its digest
// is missing from the base, or present with the same size, or present with a
// different size.
package compare

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jamesainslie/hdcompare/pkg/hdcompare/index"
	"github.com/jamesainslie/hdcompare/pkg/hdcompare/logging"
	"github.com/jamesainslie/hdcompare/pkg/hdcompare/manifest"
)

var logger = logging.Get("compare")

// DefaultSampleSize is how many visited entries are reported as samples.
const DefaultSampleSize = 5

// Outcome is the classification of one comparison entry.
type Outcome int

const (
	OutcomeNotInBase Outcome = iota
	OutcomeSameSize
	OutcomeDifferentSize
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeNotInBase:
		return "not_in_base"
	case OutcomeSameSize:
		return "same_size"
	case OutcomeDifferentSize:
		return "different_size"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name in JSON and YAML reports.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// SizeMode selects how size fields are compared.
type SizeMode int

const (
	// SizeString compares the raw text, so "010" and "10" differ.
	SizeString SizeMode = iota
	// SizeNumeric compares parsed integers, falling back to text when
	// either side does not parse.
	SizeNumeric
)

// String returns the string representation of the size mode.
func (m SizeMode) String() string {
	switch m {
	case SizeString:
		return "string"
	case SizeNumeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// ParseSizeMode parses "string" or "numeric".
func ParseSizeMode(s string) (SizeMode, error) {
	switch strings.ToLower(s) {
	case "", "string":
		return SizeString, nil
	case "numeric":
		return SizeNumeric, nil
	default:
		return SizeString, fmt.Errorf("unknown size mode %q (want string or numeric)", s)
	}
}

// Stats accumulates per-outcome counts.
type Stats struct {
	NotInBase     int `json:"not_in_base" yaml:"not_in_base"`
	DifferentSize int `json:"different_size" yaml:"different_size"`
	SameSize      int `json:"same_size" yaml:"same_size"`
}

// Total returns the number of classified entries.
func (s Stats) Total() int {
	return s.NotInBase + s.DifferentSize + s.SameSize
}

// Entry is one visited comparison entry.
type Entry struct {
	// Index is the visit position, starting at 0.
	Index   int             `json:"index" yaml:"index"`
	Hash    string          `json:"hash" yaml:"hash"`
	Record  manifest.Record `json:"record" yaml:"record"`
	Outcome Outcome         `json:"outcome" yaml:"outcome"`

	// BaseSize is the size recorded in the base, when the digest is there.
	BaseSize string `json:"base_size,omitempty" yaml:"base_size,omitempty"`
}

// Result is the outcome of one comparison pass.
type Result struct {
	Stats Stats

	// Total is the number of entries in the comparison index.
	Total int

	// Samples holds the first SampleSize visited entries.
	Samples []Entry

	// Missing holds every entry whose digest is not in the base.
	Missing []Entry

	// Mismatched holds every entry whose size differs from the base.
	Mismatched []Entry
}

// Option configures Compare.
type Option func(*settings)

type settings struct {
	order      index.Order
	sampleSize int
	sizeMode   SizeMode
}

// WithOrder sets the visit order. The default is file order.
func WithOrder(o index.Order) Option {
	return func(s *settings) {
		s.order = o
	}
}

// WithSampleSize sets how many leading entries are kept as samples.
// Negative values are treated as zero.
func WithSampleSize(n int) Option {
	return func(s *settings) {
		if n < 0 {
			n = 0
		}
		s.sampleSize = n
	}
}

// WithSizeMode sets how sizes are compared. The default is SizeString.
func WithSizeMode(m SizeMode) Option {
	return func(s *settings) {
		s.sizeMode = m
	}
}

// Compare checks every entry of comparison against base.
func Compare(base, comparison *index.Index, opts ...Option) *Result {
	s := settings{
		order:      index.OrderFile,
		sampleSize: DefaultSampleSize,
		sizeMode:   SizeString,
	}
	for _, opt := range opts {
		opt(&s)
	}

	res := &Result{Total: comparison.Len()}

	for i, hash := range comparison.Keys(s.order) {
		rec, _ := comparison.Get(hash)
		e := Entry{Index: i, Hash: hash, Record: rec}

		baseRec, ok := base.Get(hash)
		switch {
		case !ok:
			e.Outcome = OutcomeNotInBase
			res.Stats.NotInBase++
			res.Missing = append(res.Missing, e)
		case sameSize(baseRec.Size, rec.Size, s.sizeMode):
			e.Outcome = OutcomeSameSize
			e.BaseSize = baseRec.Size
			res.Stats.SameSize++
		default:
			e.Outcome = OutcomeDifferentSize
			e.BaseSize = baseRec.Size
			res.Stats.DifferentSize++
			res.Mismatched = append(res.Mismatched, e)
		}

		if i < s.sampleSize {
			res.Samples = append(res.Samples, e)
		}
	}

	logger.Debug("comparison finished",
		"total", res.Total,
		"not_in_base", res.Stats.NotInBase,
		"different_size", res.Stats.DifferentSize,
		"same_size", res.Stats.SameSize,
	)

	return res
}

func sameSize(a, b string, mode SizeMode) bool {
	if mode == SizeNumeric {
		na, errA := strconv.ParseInt(a, 10, 64)
		nb, errB := strconv.ParseInt(b, 10, 64)
		if errA == nil && errB == nil {
			return na == nb
		}
	}
	return a == b
}
