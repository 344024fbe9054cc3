package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jamesainslie/hdcompare/pkg/hdcompare/config"
	"github.com/jamesainslie/hdcompare/pkg/hdcompare/logging"
)

var logger = logging.Get("cli")

// app carries the state shared by all commands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	stderr  io.Writer
	reverse reverseFlag
}

// Execute runs the CLI with args and returns the process exit status.
// Every message, including errors, goes to stdout.
func Execute(args []string, stdout, stderr io.Writer) int {
	a := &app{v: config.NewViper(), stderr: stderr}

	if args == nil {
		// cobra falls back to os.Args when given nil.
		args = []string{}
	}

	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stdout)

	err := cmd.Execute()
	_ = logging.Close()

	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hdcompare <base_file> <comp_file> [--reverse]",
		Short: "Compare two hashdeep manifests",
		Long: `hdcompare checks whether every file listed in one hashdeep manifest is
also present, with the same size, in another. Entries are matched by digest.

By default the entries of <comp_file> (TARGET) are looked up in <base_file>
(SOURCE). With --reverse the roles are swapped.

Examples:
  hdcompare source.hashdeep target.hashdeep
  hdcompare source.hashdeep target.hashdeep --reverse
  hdcompare -o json source.hashdeep target.hashdeep
  hdcompare -e '**.tmp' --order hash a.txt b.txt
  hdcompare config show`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		RunE: a.runCompare,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	// A third argument that is not a --reverse spelling is ignored, flag or not.
	cmd.FParseErrWhitelist = cobra.FParseErrWhitelist{UnknownFlags: true}

	// Any --reverse* spelling selects reversed mode.
	cmd.SetGlobalNormalizationFunc(normalizeFlagName)

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/hdcompare/config.yaml)")
	pf.BoolP("verbose", "v", false, "debug logging on stderr")

	f := cmd.Flags()
	f.VarP(&a.reverse, "reverse", "r", "swap source and target roles")
	f.Lookup("reverse").NoOptDefVal = "true"
	f.StringP("output", "o", config.DefaultOutput, "report format (text, plain, pretty, json, json-canonical, yaml)")
	f.String("key", config.DefaultKey, "digest column to match on (md5, sha256)")
	f.String("order", config.DefaultOrder, "entry order for samples and listings (file, hash)")
	f.String("size-mode", config.DefaultSizeMode, "size comparison (string, numeric)")
	f.Int("sample", config.DefaultSampleSize, "number of sample entries to print")
	f.StringSliceP("exclude", "e", nil, "filename glob to ignore (repeatable)")
	f.Bool("progress", false, "show a progress bar on stderr while reading manifests")

	_ = a.v.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = a.v.BindPFlag("output", f.Lookup("output"))
	_ = a.v.BindPFlag("key", f.Lookup("key"))
	_ = a.v.BindPFlag("order", f.Lookup("order"))
	_ = a.v.BindPFlag("size_mode", f.Lookup("size-mode"))
	_ = a.v.BindPFlag("sample_size", f.Lookup("sample"))
	_ = a.v.BindPFlag("exclude", f.Lookup("exclude"))
	_ = a.v.BindPFlag("progress", f.Lookup("progress"))

	cmd.AddCommand(a.configCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// normalizeFlagName maps every flag spelled with the reverse prefix
// (--reverse, --reversed, --reverse-direction) onto --reverse.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if strings.HasPrefix(name, "reverse") {
		return "reverse"
	}
	return pflag.NormalizedName(name)
}

// reverseFlag is set by any --reverse spelling, with or without a value:
// --reverse=yes and --reverse=false both select reversed mode.
type reverseFlag bool

func (r *reverseFlag) String() string { return strconv.FormatBool(bool(*r)) }

func (r *reverseFlag) Set(string) error {
	*r = true
	return nil
}

func (r *reverseFlag) Type() string { return "bool" }

func (r *reverseFlag) IsBoolFlag() bool { return true }

// initConfig loads configuration and starts logging.
func (a *app) initConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	maxSize, err := cfg.Logging.MaxSizeBytes()
	if err != nil {
		return err
	}
	rotation := logging.RotationConfig{
		MaxSize:    maxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAgeDays,
	}

	consoleLevel := ""
	if cfg.Verbose {
		consoleLevel = "debug"
	}
	if err := logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Path:         cfg.Logging.Path,
		Rotation:     rotation,
		ConsoleLevel: consoleLevel,
		Console:      a.stderr,
	}); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}

	if used := a.v.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", "file", used)
	}
	return nil
}
