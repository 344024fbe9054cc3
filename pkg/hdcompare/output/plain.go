package output

import (
	"bytes"
	"sort"
	"text/tabwriter"

	"github.com/jamesainslie/hdcompare/pkg/hdcompare/compare"
)

// PlainFormatter lists every entry that needs attention (not in the base,
// or a different size) as a tab-aligned table for scripting.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	entries := make([]compare.Entry, 0, len(r.Result.Missing)+len(r.Result.Mismatched))
	entries = append(entries, r.Result.Missing...)
	entries = append(entries, r.Result.Mismatched...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	if _, err := tw.Write([]byte("OUTCOME\tHASH\tSIZE\tPATH\n")); err != nil {
		return err
	}
	for _, e := range entries {
		row := e.Outcome.String() + "\t" + e.Hash + "\t" + e.Record.Size + "\t" + e.Record.Filename + "\n"
		if _, err := tw.Write([]byte(row)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
