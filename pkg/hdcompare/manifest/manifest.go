package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jamesainslie/hdcompare/pkg/hdcompare/logging"
)

var logger = logging.Get("manifest")

// Option configures a Read or Parse call.
type Option func(*options)

type options struct {
	progress io.Writer
}

// WithProgress copies every byte read into w. Progress bars implement
// io.Writer for this purpose.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

// Read opens the manifest at path and parses it.
// The file is closed before Read returns.
func Read(path string, opts ...Option) (*Manifest, error) {
	f, err := os.Open(path) // #nosec G304 -- path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return Parse(f, path, opts...)
}

// Parse reads a manifest from r. name is used in error messages.
//
// Parsing stops at the first error; no partial result is returned.
func Parse(r io.Reader, name string, opts ...Option) (*Manifest, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.progress != nil {
		r = io.TeeReader(r, o.progress)
	}

	m := &Manifest{Path: name}
	br := bufio.NewReader(r)

	lineNo := 0
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("reading %s: %w", name, readErr)
		}
		if line == "" && readErr != nil {
			break
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		if lineNo < PreambleLines {
			if err := m.parsePreamble(lineNo, line); err != nil {
				return nil, err
			}
		} else {
			rec, err := parseRecord(line, m.Header.Columns)
			if err != nil {
				err.Path = name
				err.Line = lineNo + 1
				return nil, err
			}
			rec.Line = lineNo + 1
			m.Records = append(m.Records, rec)
		}

		lineNo++
		if readErr != nil {
			break
		}
	}

	if lineNo < PreambleLines {
		// Truncated preamble: report the first missing line.
		return nil, m.preambleError(lineNo, "")
	}

	logger.Debug("manifest parsed",
		"path", name,
		"records", len(m.Records),
		"columns", strings.Join(m.Header.Columns, ","),
	)

	return m, nil
}

// parsePreamble validates one of the first five lines.
func (m *Manifest) parsePreamble(idx int, line string) error {
	switch idx {
	case 0:
		if !strings.HasPrefix(line, headerPrefix) {
			return m.preambleError(idx, line)
		}
	case 1:
		if !strings.HasPrefix(line, formatPrefix) {
			return m.preambleError(idx, line)
		}
		m.Header.Columns = strings.Split(strings.TrimPrefix(line, formatMarker), ",")
	case 2:
		if !strings.HasPrefix(line, invokedPrefix) {
			return m.preambleError(idx, line)
		}
		m.Header.InvokedFrom = strings.TrimPrefix(line, invokedPrefix)
	case 3:
		if !strings.HasPrefix(line, commandPrefix) {
			return m.preambleError(idx, line)
		}
		m.Header.Command = strings.TrimPrefix(line, commandPrefix)
	case 4:
		if !strings.HasPrefix(line, spacerPrefix) {
			return m.preambleError(idx, line)
		}
	}
	return nil
}

func (m *Manifest) preambleError(idx int, line string) *FormatError {
	var reason string
	switch idx {
	case 0:
		reason = "line 1 needs to start with hashdeep header"
	case 1:
		reason = "line 2 must be hashdeep format header"
	case 2:
		reason = "line 3 must contain invocation path; got: " + line
	case 3:
		reason = "line 4 must contain hashdeep command"
	default:
		reason = "line 5 must be spacer"
	}
	return &FormatError{Path: m.Path, Line: idx + 1, Reason: reason}
}

// parseRecord splits line on the first len(columns)-1 commas, so the last
// column keeps any commas it contains.
func parseRecord(line string, columns []string) (Record, *DataError) {
	var rec Record

	fields := strings.SplitN(line, ",", len(columns))
	if len(fields) < len(columns) {
		return rec, &DataError{Want: len(columns), Got: len(fields)}
	}

	for i, col := range columns {
		switch col {
		case ColumnSize:
			rec.Size = fields[i]
		case ColumnMD5:
			rec.MD5 = fields[i]
		case ColumnSHA256:
			rec.SHA256 = fields[i]
		case ColumnFilename:
			rec.Filename = fields[i]
		}
	}

	return rec, nil
}
