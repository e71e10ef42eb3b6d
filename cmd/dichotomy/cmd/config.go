package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/dichotomy/internal/config"
	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
	"github.com/Aman-CERP/dichotomy/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the search configuration",
		Long: `Manage the configuration of a search.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/dichotomy/config.yaml)
  3. Project config (dichotomy.yaml, or --config)
  4. Environment variables (DICHOTOMY_*)`,
		Example: `  # Create dichotomy.yaml with the demo scenario
  dichotomy config init

  # Show effective configuration
  dichotomy config show

  # Undo the last config init --force
  dichotomy config restore`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a project configuration file",
		Long: `Create dichotomy.yaml (or the --config file) with the default search and
a two-line demo scenario. An existing file is kept unless --force is given,
in which case it is backed up first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite the existing configuration (a backup is kept)")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the configuration a run would use, after merging all sources.
--source defaults shows the hardcoded defaults only.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print configuration file paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())
			out.KeyValue("project", projectConfigPath())
			out.KeyValue("user", config.GetUserConfigPath())
			out.KeyValue("data", config.DataDir())
			return nil
		},
	}
}

func newConfigRestoreCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "restore [backup]",
		Short: "Restore the configuration from a backup",
		Long: `Restore the project configuration from one of its backups, the newest
when none is named. The current file is backed up before it is replaced.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigRestore(cmd, args, list)
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List the backups instead of restoring")

	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	path := projectConfigPath()

	var backup string
	if fileExists(path) {
		if !force {
			out.Warning("Configuration already exists")
			out.Statusf("📁", "Location: %s", path)
			out.Newline()
			out.Status("💡", "Use --force to replace it with the defaults (a backup is kept)")
			return nil
		}
		var err error
		backup, err = config.BackupFile(path)
		if err != nil {
			return derrors.IOError("failed to back up configuration", err)
		}
	}

	if err := config.NewConfig().WriteYAML(path); err != nil {
		return derrors.IOError("failed to write configuration", err).WithDetail("path", path)
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	if backup != "" {
		out.Statusf("💾", "Backup: %s", backup)
	}
	out.Newline()
	out.Status("📋", "Next steps:")
	out.List([]string{
		"Edit search and scenario to describe your network",
		"Run 'dichotomy config show' to verify",
		"Run 'dichotomy run'",
	})
	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	var (
		cfg        *config.Config
		sourceDesc string
	)
	switch source {
	case "merged":
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		sourceDesc = "merged (defaults + user + project + env)"
	case "defaults":
		cfg = config.NewConfig()
		sourceDesc = "defaults (hardcoded)"
	default:
		return derrors.ValidationError(fmt.Sprintf("invalid source: %s (use: merged, defaults)", source), nil)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return derrors.InternalError("failed to marshal config", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := output.New(cmd.OutOrStdout())
	out.Statusf("📋", "Configuration source: %s", sourceDesc)
	out.Newline()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return derrors.InternalError("failed to marshal config", err)
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigRestore(cmd *cobra.Command, args []string, list bool) error {
	out := output.New(cmd.OutOrStdout())
	path := projectConfigPath()

	backups, err := config.ListBackups(path)
	if err != nil {
		return derrors.IOError("failed to list backups", err)
	}
	if list {
		if len(backups) == 0 {
			out.Status("", "No backups")
			return nil
		}
		out.List(backups)
		return nil
	}

	var backup string
	switch {
	case len(args) == 1:
		backup = args[0]
	case len(backups) > 0:
		backup = backups[0]
	default:
		return derrors.New(derrors.ErrCodeConfigNotFound,
			fmt.Sprintf("no backups of %s", path), nil).
			WithSuggestion("Backups are made by 'dichotomy config init --force'")
	}

	if err := config.RestoreBackup(path, backup); err != nil {
		return derrors.IOError("failed to restore configuration", err).WithDetail("backup", backup)
	}
	out.Successf("Restored %s", path)
	out.Statusf("💾", "From: %s", backup)
	return nil
}
