package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/hdcompare/pkg/hdcompare/compare"
	"github.com/jamesainslie/hdcompare/pkg/hdcompare/config"
	"github.com/jamesainslie/hdcompare/pkg/hdcompare/index"
	"github.com/jamesainslie/hdcompare/pkg/hdcompare/manifest"
	"github.com/jamesainslie/hdcompare/pkg/hdcompare/output"
)

const usageLine = "Usage: hdcompare <base_file> <comp_file> [--reverse]"

type usageError struct{}

func (usageError) Error() string { return usageLine }

type missingFileError struct {
	path string
}

func (e *missingFileError) Error() string {
	return e.path + " does not exist"
}

// runOptions is the validated form of the comparison settings.
type runOptions struct {
	formatName string
	formatter  output.Formatter
	key        string
	order      index.Order
	sizeMode   compare.SizeMode
	sampleSize int
	excludes   []string
	progress   bool
}

func (a *app) runOptions() (*runOptions, error) {
	cfg := a.cfg

	formatter, err := output.Get(cfg.Output)
	if err != nil {
		return nil, err
	}

	key := strings.ToLower(cfg.Key)
	if key != manifest.ColumnMD5 && key != manifest.ColumnSHA256 {
		return nil, fmt.Errorf("unsupported key column %q (want %s or %s)", cfg.Key, manifest.ColumnMD5, manifest.ColumnSHA256)
	}

	order, err := index.ParseOrder(cfg.Order)
	if err != nil {
		return nil, err
	}

	sizeMode, err := compare.ParseSizeMode(cfg.SizeMode)
	if err != nil {
		return nil, err
	}

	return &runOptions{
		formatName: cfg.Output,
		formatter:  formatter,
		key:        key,
		order:      order,
		sizeMode:   sizeMode,
		sampleSize: cfg.SampleSize,
		excludes:   cfg.Exclude,
		progress:   cfg.Progress,
	}, nil
}

func (a *app) runCompare(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return usageError{}
	}
	basePath, compPath := args[0], args[1]

	reversed := bool(a.reverse)
	// A trailing --reverse after "--" is still honoured.
	if len(args) > 2 && strings.HasPrefix(args[2], "--reverse") {
		reversed = true
	}
	logger.Debug("arguments", "base", basePath, "comparison", compPath, "reversed", reversed)

	opts, err := a.runOptions()
	if err != nil {
		return err
	}

	globs, err := index.CompilePatterns(opts.excludes)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	say := func(format string, args ...any) {
		if opts.formatName == "text" {
			fmt.Fprintf(out, format+"\n", args...)
		}
	}

	say("hdcompare running for\n- %s\n- %s", basePath, compPath)

	for _, p := range []string{basePath, compPath} {
		if _, err := os.Stat(p); err != nil {
			return &missingFileError{path: p}
		}
	}

	base, err := a.readManifest(basePath, opts.progress)
	if err != nil {
		return err
	}
	comp, err := a.readManifest(compPath, opts.progress)
	if err != nil {
		return err
	}

	// The preamble check only looks at a prefix of line 2, so a header such
	// as "size,md5sum,..." is accepted and keys on empty md5 digests.
	if opts.key != config.DefaultKey {
		for _, m := range []*manifest.Manifest{base, comp} {
			if !m.Header.HasColumn(opts.key) {
				return fmt.Errorf("%s: header does not declare the %s column", m.Path, opts.key)
			}
		}
	}

	say("%d records in %s", len(base.Records), base.Path)
	say("%d records in %s", len(comp.Records), comp.Path)

	baseIdx := index.New(base.Records, index.WithKey(opts.key), index.WithExclude(globs...))
	compIdx := index.New(comp.Records, index.WithKey(opts.key), index.WithExclude(globs...))

	// The first manifest is looked up, the second is walked.
	lookupM, walkM := base, comp
	lookupIdx, walkIdx := baseIdx, compIdx
	if reversed {
		say("RUNNING REVERSED DIRECTION")
		say("now checking whether all keys from\n(SOURCE) %s exist in\n(TARGET) %s...", basePath, compPath)
		lookupM, walkM = comp, base
		lookupIdx, walkIdx = compIdx, baseIdx
	} else {
		say("now checking whether all keys from\n(TARGET) %s exist in\n(SOURCE) %s...", compPath, basePath)
	}

	result := compare.Compare(lookupIdx, walkIdx,
		compare.WithOrder(opts.order),
		compare.WithSampleSize(opts.sampleSize),
		compare.WithSizeMode(opts.sizeMode),
	)

	report := &output.Report{
		ID:         uuid.NewString(),
		Generated:  time.Now(),
		Base:       newSource(lookupM, lookupIdx),
		Comparison: newSource(walkM, walkIdx),
		Reversed:   reversed,
		Key:        opts.key,
		Order:      opts.order.String(),
		SizeMode:   opts.sizeMode.String(),
		Result:     result,
	}

	var buf bytes.Buffer
	if err := opts.formatter.Format(&buf, report); err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}
	if _, err := buf.WriteTo(out); err != nil {
		return err
	}

	logger.Info("comparison complete",
		"run", report.ID,
		"compared", result.Total,
		"not_in_base", result.Stats.NotInBase,
		"different_size", result.Stats.DifferentSize,
		"same_size", result.Stats.SameSize,
	)

	say("main function complete")
	return nil
}

func (a *app) readManifest(path string, progress bool) (*manifest.Manifest, error) {
	var opts []manifest.Option
	if progress {
		bar, err := newProgressBar(path, a.stderr)
		if err != nil {
			return nil, err
		}
		defer func() { _ = bar.Finish() }()
		opts = append(opts, manifest.WithProgress(bar))
	}

	m, err := manifest.Read(path, opts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("manifest header",
		"path", m.Path,
		"columns", strings.Join(m.Header.Columns, ","),
		"invoked_from", m.Header.InvokedFrom,
		"command", m.Header.Command,
	)
	return m, nil
}

func newSource(m *manifest.Manifest, x *index.Index) output.Source {
	return output.Source{
		Path:       m.Path,
		Header:     m.Header,
		Records:    len(m.Records),
		Unique:     x.Len(),
		Duplicates: x.Duplicates(),
		Excluded:   x.Excluded(),
		Bytes:      m.TotalBytes(),
	}
}
