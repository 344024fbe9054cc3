package output

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jamesainslie/hdcompare/pkg/hdcompare/compare"
)

// TextFormatter writes the classic console report: sample lines and
// not-in-source lines in visit order, then the totals.
type TextFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TextFormatter) Format(w *bytes.Buffer, r *Report) error {
	res := r.Result
	width := len(strconv.Itoa(res.Total))

	// Samples and missing entries are both sorted by visit index; merge them
	// so each entry's sample line precedes its missing line.
	samples, missing := res.Samples, res.Missing
	for len(samples) > 0 || len(missing) > 0 {
		if len(samples) > 0 && (len(missing) == 0 || samples[0].Index <= missing[0].Index) {
			writeSample(w, samples[0])
			samples = samples[1:]
			continue
		}
		writeMissing(w, missing[0], width)
		missing = missing[1:]
	}

	fmt.Fprintf(w, "\ndone; compared %d records\n", res.Total)
	fmt.Fprintf(w, "%d records not in source\n", res.Stats.NotInBase)
	fmt.Fprintf(w, "%d records different size\n", res.Stats.DifferentSize)
	fmt.Fprintf(w, "%d records equivalent\n", res.Stats.SameSize)

	return nil
}

func writeSample(w *bytes.Buffer, e compare.Entry) {
	fmt.Fprintf(w, "SAMPLE %d: %s %s\n", e.Index, HashPrefix(e.Hash, DefaultHashPrefix), e.Record.Filename)
}

func writeMissing(w *bytes.Buffer, e compare.Entry, width int) {
	fmt.Fprintf(w, "%0*d: NOT IN SOURCE: %s %s\n", width, e.Index, HashPrefix(e.Hash, DefaultHashPrefix), e.Record.Filename)
}

func init() {
	Register("text", func() Formatter {
		return &TextFormatter{}
	})
}

// Ensure TextFormatter implements Formatter.
var _ Formatter = (*TextFormatter)(nil)
