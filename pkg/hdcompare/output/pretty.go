package output

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/hdcompare/pkg/hdcompare/compare"
)

// PrettyFormatter renders the report with lipgloss styling for terminals.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	w.WriteString(f.formatSection("Not in source", r.Result.Missing, false))
	if len(r.Result.Mismatched) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatSection("Different size", r.Result.Mismatched, true))
	}

	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Report) string {
	direction := SuccessStyle.Render("forward")
	if r.Reversed {
		direction = WarningStyle.Render("reversed")
	}

	lines := []string{
		TitleStyle.Render("hashdeep comparison"),
		f.sourceLine("Source:", r.Base),
		f.sourceLine("Target:", r.Comparison),
		fmt.Sprintf("%s %s  %s %s  %s %s",
			LabelStyle.Render("Key:"), ValueStyle.Render(r.Key),
			LabelStyle.Render("Order:"), ValueStyle.Render(r.Order),
			LabelStyle.Render("Direction:"), direction),
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) sourceLine(label string, s Source) string {
	return fmt.Sprintf("%s %s %s",
		LabelStyle.Render(label),
		ValueStyle.Render(s.Path),
		MutedStyle.Render(fmt.Sprintf("(%s records, %s)",
			humanize.Comma(int64(s.Records)), humanize.IBytes(uint64(max(s.Bytes, 0))))),
	)
}

func (f *PrettyFormatter) formatSection(title string, entries []compare.Entry, withSizes bool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("  %s %s\n", TitleStyle.Render(title), MutedStyle.Render("("+humanize.Comma(int64(len(entries)))+")")))
	if len(entries) == 0 {
		sb.WriteString(MutedStyle.Render("  none") + "\n")
		return sb.String()
	}

	header := fmt.Sprintf("  %s%s%s",
		TableHeaderStyle.Render("HASH"),
		TableHeaderStyle.Render("SIZE"),
		TableHeaderStyle.Render("FILENAME"))
	sb.WriteString(header + "\n")

	for _, e := range entries {
		size := humanSize(e.Record.Size)
		if withSizes {
			size = humanSize(e.BaseSize) + " -> " + size
		}
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			HashStyle.Render(HashPrefix(e.Hash, DefaultHashPrefix)),
			ValueStyle.Render(size),
			ValueStyle.Render(e.Record.Filename)))
	}

	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Report) string {
	st := r.Result.Stats

	missing := SuccessStyle
	if st.NotInBase > 0 {
		missing = ErrorStyle
	}
	different := SuccessStyle
	if st.DifferentSize > 0 {
		different = WarningStyle
	}

	parts := []string{
		LabelStyle.Render("Compared:") + " " + ValueStyle.Render(humanize.Comma(int64(r.Result.Total))),
		LabelStyle.Render("Missing:") + " " + missing.Render(humanize.Comma(int64(st.NotInBase))),
		LabelStyle.Render("Different:") + " " + different.Render(humanize.Comma(int64(st.DifferentSize))),
		LabelStyle.Render("Equivalent:") + " " + SuccessStyle.Render(humanize.Comma(int64(st.SameSize))),
	}

	return FooterBox.Render(strings.Join(parts, "  "))
}

// humanSize renders a size field in IEC units, or verbatim when it is not a number.
func humanSize(s string) string {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return s
	}
	return humanize.IBytes(n)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
