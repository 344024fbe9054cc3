package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/jamesainslie/hdcompare/pkg/hdcompare/compare"
	"github.com/jamesainslie/hdcompare/pkg/hdcompare/manifest"
)

// reportDoc is the document shape shared by the JSON and YAML formatters.
type reportDoc struct {
	ID         string          `json:"id" yaml:"id"`
	Generated  string          `json:"generated" yaml:"generated"`
	Reversed   bool            `json:"reversed" yaml:"reversed"`
	Key        string          `json:"key" yaml:"key"`
	Order      string          `json:"order" yaml:"order"`
	SizeMode   string          `json:"size_mode" yaml:"size_mode"`
	Base       sourceDoc       `json:"base" yaml:"base"`
	Comparison sourceDoc       `json:"comparison" yaml:"comparison"`
	Total      int             `json:"total" yaml:"total"`
	Stats      compare.Stats   `json:"stats" yaml:"stats"`
	Samples    []compare.Entry `json:"samples" yaml:"samples"`
	Missing    []compare.Entry `json:"missing" yaml:"missing"`
	Mismatched []compare.Entry `json:"mismatched" yaml:"mismatched"`
}

type sourceDoc struct {
	Path       string          `json:"path" yaml:"path"`
	Header     manifest.Header `json:"header" yaml:"header"`
	Records    int             `json:"records" yaml:"records"`
	Unique     int             `json:"unique" yaml:"unique"`
	Duplicates int             `json:"duplicates" yaml:"duplicates"`
	Excluded   int             `json:"excluded" yaml:"excluded"`
	Bytes      int64           `json:"bytes" yaml:"bytes"`
}

func buildDoc(r *Report) reportDoc {
	res := r.Result
	return reportDoc{
		ID:         r.ID,
		Generated:  r.Generated.UTC().Format(time.RFC3339),
		Reversed:   r.Reversed,
		Key:        r.Key,
		Order:      r.Order,
		SizeMode:   r.SizeMode,
		Base:       sourceDocFrom(r.Base),
		Comparison: sourceDocFrom(r.Comparison),
		Total:      res.Total,
		Stats:      res.Stats,
		Samples:    nonNil(res.Samples),
		Missing:    nonNil(res.Missing),
		Mismatched: nonNil(res.Mismatched),
	}
}

func sourceDocFrom(s Source) sourceDoc {
	return sourceDoc{
		Path:       s.Path,
		Header:     s.Header,
		Records:    s.Records,
		Unique:     s.Unique,
		Duplicates: s.Duplicates,
		Excluded:   s.Excluded,
		Bytes:      s.Bytes,
	}
}

// nonNil keeps empty lists as [] rather than null.
func nonNil(es []compare.Entry) []compare.Entry {
	if es == nil {
		return []compare.Entry{}
	}
	return es
}

// JSONFormatter writes the report as one JSON document.
// With Canonical set the document is RFC 8785 canonical JSON, so two runs
// over the same inputs (and the same ID and timestamp) are byte-identical.
type JSONFormatter struct {
	Canonical bool
}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Report) error {
	doc := buildDoc(r)

	if !f.Canonical {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(doc)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	canon, err := jsoncanonicalizer.Transform(data)
	if err != nil {
		return fmt.Errorf("canonicalizing report: %w", err)
	}
	w.Write(canon)
	w.WriteByte('\n')
	return nil
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
	Register("json-canonical", func() Formatter {
		return &JSONFormatter{Canonical: true}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
