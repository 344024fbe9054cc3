package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/hdcompare/pkg/hdcompare/config"
)

func (a *app) configCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage hdcompare configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/hdcompare/config.yaml (if set)
  2. ~/.config/hdcompare/config.yaml

Environment variables can override config file settings using the HDCOMPARE_ prefix:
  HDCOMPARE_OUTPUT=json
  HDCOMPARE_SAMPLE_SIZE=10
  HDCOMPARE_LOGGING_LEVEL=debug`,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the effective configuration after merging defaults, file, environment and flags.`,
		Args:  cobra.NoArgs,
		RunE:  a.runConfigShow,
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE:  a.runConfigPath,
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Long:  `Create a default configuration file if one doesn't exist.`,
		Args:  cobra.NoArgs,
		RunE:  a.runConfigInit,
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Edit configuration file",
		Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
		Args: cobra.NoArgs,
		RunE: a.runConfigEdit,
	})

	return configCmd
}

// configFile is the file config commands operate on.
func (a *app) configFile() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return config.ConfigPath()
}

func (a *app) runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	cfg := a.cfg

	if used := a.v.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			fmt.Fprintf(out, "Config file: %s\n\n", used)
		} else {
			fmt.Fprintf(out, "Config file: (using defaults, no file found)\n\n")
		}
	} else {
		fmt.Fprintf(out, "Config file: (using defaults, no file found)\n\n")
	}

	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "----------------------")
	fmt.Fprintf(out, "output:          %s\n", cfg.Output)
	fmt.Fprintf(out, "key:             %s\n", cfg.Key)
	fmt.Fprintf(out, "order:           %s\n", cfg.Order)
	fmt.Fprintf(out, "size_mode:       %s\n", cfg.SizeMode)
	fmt.Fprintf(out, "sample_size:     %d\n", cfg.SampleSize)
	fmt.Fprintf(out, "exclude:         %v\n", cfg.Exclude)
	fmt.Fprintf(out, "progress:        %t\n", cfg.Progress)
	fmt.Fprintf(out, "logging.level:   %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "logging.path:    %s\n", cfg.Logging.Path)

	fmt.Fprintln(out, "\nEnvironment Overrides:")
	fmt.Fprintln(out, "----------------------")
	anyOverrides := false
	for _, key := range []string{"output", "key", "order", "size_mode", "sample_size", "exclude", "progress", "verbose", "logging.level", "logging.path"} {
		name := config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if val := os.Getenv(name); val != "" {
			fmt.Fprintf(out, "%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Fprintln(out, "(none)")
	}

	return nil
}

func (a *app) runConfigPath(cmd *cobra.Command, _ []string) error {
	path := a.configFile()
	fmt.Fprintln(cmd.OutOrStdout(), path)

	if _, err := os.Stat(path); err == nil {
		logger.Debug("config file exists", "path", path)
	} else if os.IsNotExist(err) {
		logger.Debug("config file does not exist, defaults apply", "path", path)
	}
	return nil
}

func (a *app) runConfigInit(cmd *cobra.Command, _ []string) error {
	path := a.configFile()

	written, err := config.WriteDefault(path)
	if err != nil {
		return err
	}
	if !written {
		fmt.Fprintf(cmd.OutOrStdout(), "Config file already exists: %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "Use 'hdcompare config edit' to modify it.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created default config file: %s\n", path)
	return nil
}

func (a *app) runConfigEdit(_ *cobra.Command, _ []string) error {
	path := a.configFile()
	if _, err := config.WriteDefault(path); err != nil {
		return err
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	logger.Debug("opening config", "path", path, "editor", editor)

	editorCmd := exec.Command(editor, path) // #nosec G204 -- editor comes from the user's environment
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}
