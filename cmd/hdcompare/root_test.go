package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const preamble = "%%%% HASHDEEP-1.0\n" +
	"%%%% size,md5,sha256,filename\n" +
	"## Invoked from: /data\n" +
	"## $ hashdeep -r .\n" +
	"## \n"

type fixture struct {
	dir  string
	base string
	comp string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	f := fixture{
		dir:  dir,
		base: filepath.Join(dir, "base.txt"),
		comp: filepath.Join(dir, "comp.txt"),
	}
	writeFile(t, f.base, preamble+
		"10,aaa111,s1,./a.txt\n"+
		"20,bbb222,s2,./b.txt\n")
	writeFile(t, f.comp, preamble+
		"10,aaa111,s1,./a.txt\n"+
		"30,ccc333,s3,./c.txt\n")
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func run(args ...string) (string, string, int) {
	var stdout, stderr bytes.Buffer
	code := Execute(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestCompare_Forward(t *testing.T) {
	f := newFixture(t)

	out, _, code := run(f.base, f.comp)
	require.Equal(t, 0, code, out)

	want := "hdcompare running for\n" +
		"- " + f.base + "\n" +
		"- " + f.comp + "\n" +
		"2 records in " + f.base + "\n" +
		"2 records in " + f.comp + "\n" +
		"now checking whether all keys from\n" +
		"(TARGET) " + f.comp + " exist in\n" +
		"(SOURCE) " + f.base + "...\n" +
		"SAMPLE 0: aaa111 ./a.txt\n" +
		"SAMPLE 1: ccc333 ./c.txt\n" +
		"1: NOT IN SOURCE: ccc333 ./c.txt\n" +
		"\n" +
		"done; compared 2 records\n" +
		"1 records not in source\n" +
		"0 records different size\n" +
		"1 records equivalent\n" +
		"main function complete\n"
	assert.Equal(t, want, out)
}

func TestCompare_Reversed(t *testing.T) {
	spellings := [][]string{
		{"--reverse"},
		{"--reverse-direction"},
		{"--reversed"},
		{"-r"},
		{"--", "--reverse"},
	}

	for _, extra := range spellings {
		t.Run(strings.Join(extra, " "), func(t *testing.T) {
			f := newFixture(t)

			args := append([]string{f.base, f.comp}, extra...)
			out, _, code := run(args...)
			require.Equal(t, 0, code, out)

			assert.Contains(t, out, "RUNNING REVERSED DIRECTION\n")
			assert.Contains(t, out, "now checking whether all keys from\n(SOURCE) "+f.base+" exist in\n(TARGET) "+f.comp+"...\n")
			assert.Contains(t, out, "1: NOT IN SOURCE: bbb222 ./b.txt\n")
			assert.NotContains(t, out, "ccc333")
			assert.Contains(t, out, "done; compared 2 records\n1 records not in source\n")
		})
	}
}

func TestCompare_ThirdArgIgnored(t *testing.T) {
	for _, extra := range []string{"--foo", "--rev", "-x", "extra"} {
		t.Run(extra, func(t *testing.T) {
			f := newFixture(t)

			out, _, code := run(f.base, f.comp, extra)
			require.Equal(t, 0, code, out)

			assert.NotContains(t, out, "RUNNING REVERSED DIRECTION")
			assert.Contains(t, out, "now checking whether all keys from\n(TARGET) "+f.comp+" exist in\n(SOURCE) "+f.base+"...\n")
			assert.Contains(t, out, "1: NOT IN SOURCE: ccc333 ./c.txt\n")
		})
	}

	t.Run("--reverse=yes", func(t *testing.T) {
		f := newFixture(t)

		out, _, code := run(f.base, f.comp, "--reverse=yes")
		require.Equal(t, 0, code, out)

		assert.Contains(t, out, "RUNNING REVERSED DIRECTION\n")
		assert.Contains(t, out, "1: NOT IN SOURCE: bbb222 ./b.txt\n")
	})
}

func TestCompare_SizeMismatch(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.comp, preamble+"11,aaa111,s1,./a.txt\n")

	out, _, code := run(f.base, f.comp)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "done; compared 1 records\n0 records not in source\n1 records different size\n0 records equivalent\n")
}

func TestCompare_Usage(t *testing.T) {
	newFixture(t)

	for _, args := range [][]string{nil, {"only-one.txt"}} {
		out, _, code := run(args...)
		assert.Equal(t, 1, code)
		assert.Equal(t, usageLine+"\n", out)
	}
}

func TestCompare_MissingFile(t *testing.T) {
	f := newFixture(t)
	missing := filepath.Join(f.dir, "nope.txt")

	out, _, code := run(missing, filepath.Join(f.dir, "also-nope.txt"))
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasSuffix(out, missing+" does not exist\n"), out)
	assert.NotContains(t, out, "also-nope.txt does not exist")

	out, _, code = run(f.base, missing)
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasSuffix(out, missing+" does not exist\n"), out)
}

func TestCompare_NotHashdeep(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.base, "garbage\n")

	out, _, code := run(f.base, f.comp)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, f.base+" is not a hashdeep file: line 1 needs to start with hashdeep header")
	assert.NotContains(t, out, "done; compared")
}

func TestCompare_MalformedDataLine(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.comp, preamble+"10,aaa111\n")

	out, _, code := run(f.base, f.comp)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "line 6 has 2 fields, header declares 4 columns")
	assert.NotContains(t, out, "done; compared")
}

func TestCompare_JSONOutput(t *testing.T) {
	f := newFixture(t)

	out, _, code := run("-o", "json", f.base, f.comp)
	require.Equal(t, 0, code, out)
	assert.NotContains(t, out, "hdcompare running for")

	var doc struct {
		ID    string `json:"id"`
		Total int    `json:"total"`
		Stats struct {
			NotInBase int `json:"not_in_base"`
			SameSize  int `json:"same_size"`
		} `json:"stats"`
		Base struct {
			Path string `json:"path"`
		} `json:"base"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, 2, doc.Total)
	assert.Equal(t, 1, doc.Stats.NotInBase)
	assert.Equal(t, 1, doc.Stats.SameSize)
	assert.Equal(t, f.base, doc.Base.Path)
}

func TestCompare_Exclude(t *testing.T) {
	f := newFixture(t)

	out, _, code := run("-e", "**c.txt", f.base, f.comp)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "done; compared 1 records\n0 records not in source\n")
}

func TestCompare_InvalidOptions(t *testing.T) {
	f := newFixture(t)

	cases := [][]string{
		{"-o", "xml"},
		{"--key", "crc32"},
		{"--order", "random"},
		{"--size-mode", "fuzzy"},
		{"-e", "[unclosed"},
	}
	for _, extra := range cases {
		args := append(extra, f.base, f.comp)
		out, _, code := run(args...)
		assert.Equal(t, 1, code, strings.Join(extra, " "))
		assert.NotContains(t, out, "done; compared")
	}
}

func TestCompare_KeyColumnNotDeclared(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.comp, "%%%% HASHDEEP-1.0\n"+
		"%%%% size,md5,filename\n"+
		"## Invoked from: /data\n"+
		"## $ hashdeep -r .\n"+
		"## \n"+
		"10,aaa111,./a.txt\n")

	out, _, code := run("--key", "sha256", f.base, f.comp)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "header does not declare the sha256 column")
}

func TestCompare_LooseMD5Header(t *testing.T) {
	f := newFixture(t)
	loose := "%%%% HASHDEEP-1.0\n" +
		"%%%% size,md5sum,filename\n" +
		"## Invoked from: /data\n" +
		"## $ hashdeep -r .\n" +
		"## \n"
	writeFile(t, f.base, loose+"10,aaa111,./a.txt\n")
	writeFile(t, f.comp, loose+"20,bbb222,./b.txt\n10,aaa111,./a.txt\n")

	out, _, code := run(f.base, f.comp)
	require.Equal(t, 0, code, out)
	assert.NotContains(t, out, "header does not declare")
	// Every row keys on an empty md5 digest, so each side collapses to its last row.
	assert.Contains(t, out, "done; compared 1 records\n0 records not in source\n0 records different size\n1 records equivalent\n")
}

func TestCompare_ConfigFile(t *testing.T) {
	f := newFixture(t)
	cfg := filepath.Join(f.dir, "custom.yaml")
	writeFile(t, cfg, "output: yaml\n")

	out, _, code := run("--config", cfg, f.base, f.comp)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "not_in_base: 1")
	assert.NotContains(t, out, "main function complete")
}

func TestCompare_Progress(t *testing.T) {
	f := newFixture(t)

	out, _, code := run("--progress", f.base, f.comp)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "done; compared 2 records")
}

func TestConfigCommands(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.dir, "xdg", "hdcompare", "config.yaml")

	out, _, code := run("config", "path")
	require.Equal(t, 0, code)
	assert.Equal(t, path+"\n", out)

	out, _, code = run("config", "init")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Created default config file: "+path)
	assert.FileExists(t, path)

	out, _, code = run("config", "init")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Config file already exists")

	out, _, code = run("config", "show")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Config file: "+path)
	assert.Contains(t, out, "output:          text")
}

func TestVersionCommand(t *testing.T) {
	newFixture(t)

	out, _, code := run("version")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "hdcompare dev\n"), out)
}

func TestVerboseLogsToStderr(t *testing.T) {
	f := newFixture(t)

	_, stderr, code := run("-v", f.base, f.comp)
	require.Equal(t, 0, code)
	assert.Contains(t, stderr, "comparison complete")
}

func TestCompare_LogFile(t *testing.T) {
	f := newFixture(t)
	logPath := filepath.Join(f.dir, "logs", "hdcompare.log")
	cfg := filepath.Join(f.dir, "custom.yaml")
	writeFile(t, cfg, "logging:\n  level: info\n  path: "+logPath+"\n  max_size: 1MB\n")

	out, _, code := run("--config", cfg, f.base, f.comp)
	require.Equal(t, 0, code, out)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "comparison complete")
	assert.Contains(t, string(data), "not_in_base=1")
}
