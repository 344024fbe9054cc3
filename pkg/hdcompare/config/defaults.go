// Package config provides configuration management for hdcompare.
package config

// Default configuration values for hdcompare.
const (
	// DefaultOutput is the report format.
	DefaultOutput = "text"

	// DefaultKey is the digest column entries are matched on.
	DefaultKey = "md5"

	// DefaultOrder is the order entries are visited and reported in.
	DefaultOrder = "file"

	// DefaultSizeMode is how size fields are compared.
	DefaultSizeMode = "string"

	// DefaultSampleSize is how many leading entries are printed as samples.
	DefaultSampleSize = 5

	// DefaultLogLevel is the level for the optional log file.
	DefaultLogLevel = "info"

	// DefaultLogMaxSize is the size at which the log file is rotated.
	DefaultLogMaxSize = "10MB"

	// DefaultLogMaxBackups is how many rotated log files are kept.
	DefaultLogMaxBackups = 5

	// DefaultLogMaxAgeDays is how long rotated log files are kept.
	DefaultLogMaxAgeDays = 30

	// EnvPrefix prefixes environment overrides, e.g. HDCOMPARE_OUTPUT.
	EnvPrefix = "HDCOMPARE"

	appName = "hdcompare"
)
