// Package manifest reads hashdeep manifests into typed records.
//
// A hashdeep manifest is a five line preamble followed by one CSV row per
// file:
//
//	%%%% HASHDEEP-1.0
//	%%%% size,md5,sha256,filename
//	## Invoked from: /data
//	## $ hashdeep -r -c md5,sha256 .
//	## 
//	1024,9e107d9d372bb6826bd81d3542a419d6,d7a8fbb3...,./photos/a.jpg
//
// The column order declared on line 2 drives how every data row is split.
package manifest

import (
	"strconv"
)

// Column names understood by the reader. Any other name declared in the
// header still consumes a field of every data row.
const (
	ColumnSize     = "size"
	ColumnMD5      = "md5"
	ColumnSHA256   = "sha256"
	ColumnFilename = "filename"
)

// Preamble line prefixes.
const (
	headerPrefix  = "%%%% HASHDEEP-1.0"
	formatPrefix  = "%%%% size,md5"
	formatMarker  = "%%%% "
	invokedPrefix = "## Invoked from: "
	commandPrefix = "## $ hashdeep "
	spacerPrefix  = "## "

	// PreambleLines is the number of header lines before the first record.
	PreambleLines = 5
)

// Record is one parsed data row. Of the column fields, only those named in
// the header's column list are populated. Line is reader metadata rather
// than a column and is always set.
type Record struct {
	Size     string `json:"size,omitempty" yaml:"size,omitempty"`
	MD5      string `json:"md5,omitempty" yaml:"md5,omitempty"`
	SHA256   string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty"`

	// Line is the 1-based line number the record was read from.
	Line int `json:"line" yaml:"line"`
}

// Field returns the value of the named column.
// The second result is false for column names the reader does not know.
func (r Record) Field(column string) (string, bool) {
	switch column {
	case ColumnSize:
		return r.Size, true
	case ColumnMD5:
		return r.MD5, true
	case ColumnSHA256:
		return r.SHA256, true
	case ColumnFilename:
		return r.Filename, true
	default:
		return "", false
	}
}

// Bytes parses the size field. Unparseable sizes report 0 and false.
func (r Record) Bytes() (int64, bool) {
	n, err := strconv.ParseInt(r.Size, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Header holds what the preamble declares.
type Header struct {
	// Columns is the field order for every data row.
	Columns []string `json:"columns" yaml:"columns"`

	// InvokedFrom is the working directory hashdeep ran in.
	InvokedFrom string `json:"invoked_from" yaml:"invoked_from"`

	// Command is the hashdeep command line, without the "hashdeep" word.
	Command string `json:"command" yaml:"command"`
}

// HasColumn reports whether the header declares the named column.
func (h Header) HasColumn(column string) bool {
	for _, c := range h.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Manifest is a fully read hashdeep file.
type Manifest struct {
	Path    string
	Header  Header
	Records []Record
}

// TotalBytes sums the sizes of all records with a numeric size field.
func (m *Manifest) TotalBytes() int64 {
	var total int64
	for _, r := range m.Records {
		if n, ok := r.Bytes(); ok {
			total += n
		}
	}
	return total
}
