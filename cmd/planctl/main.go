// Command planctl runs planning operations against a vault from the shell.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"vault-planning/internal/config"
	"vault-planning/internal/planning"
)

var Version = "dev"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	vault      string
	configPath string
	logLevel   string
	stderr     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stderr: stderr}
	rootCmd := &cobra.Command{
		Use:           "planctl",
		Short:         "Inspect and change the planning state of a vault",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&opts.vault, "vault", "", "vault root directory (default from config or PLANNING_VAULT)")
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(todayCmd(opts))
	rootCmd.AddCommand(showCmd(opts))
	rootCmd.AddCommand(createCmd(opts))
	rootCmd.AddCommand(updateCmd(opts))
	rootCmd.AddCommand(transitionCmd(opts, "done", "Mark a task done", (*planning.Engine).MarkTaskDone))
	rootCmd.AddCommand(transitionCmd(opts, "reopen", "Move a done task back to todo", (*planning.Engine).ReopenTask))
	rootCmd.AddCommand(startCmd(opts))
	rootCmd.AddCommand(stopCmd(opts))
	rootCmd.AddCommand(noteCmd(opts))
	rootCmd.AddCommand(dailyCmd(opts))
	rootCmd.AddCommand(reorderCmd(opts))
	rootCmd.AddCommand(deleteCmd(opts))
	rootCmd.AddCommand(uiStateCmd(opts))
	rootCmd.AddCommand(vaultIDCmd(opts))
	rootCmd.AddCommand(checkpointCmd(opts))
	rootCmd.AddCommand(hashKeyCmd())

	return rootCmd
}

// withEngine opens the vault, runs fn and prints its result as JSON.
func withEngine(cmd *cobra.Command, opts *rootOptions, fn func(*planning.Engine) (any, error)) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.vault != "" {
		cfg.VaultRoot = opts.vault
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(opts.stderr, &slog.HandlerOptions{Level: level}))

	engine, err := planning.Open(planning.Options{VaultRoot: cfg.VaultRoot, Logger: logger}, cfg.DatabaseOptions())
	if err != nil {
		return err
	}
	result, err := fn(engine)
	if closeErr := engine.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
