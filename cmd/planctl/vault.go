package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"vault-planning/internal/auth"
	"vault-planning/internal/planning"
)

func todayCmd(opts *rootOptions) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Print the kanban columns, timeline and running timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				return e.GetToday(day)
			})
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "day to show (YYYY-MM-DD, default today)")
	return cmd
}

func dailyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "daily <day>",
		Short: "Print the daily note path, creating the note if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				path, err := e.OpenDaily(args[0])
				return map[string]string{"path": path}, err
			})
		},
	}
}

func uiStateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui-state",
		Short: "Read or merge the stored UI state",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the stored UI state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				return rawState(e.GetUIState(""))
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <json>",
		Short: "Deep-merge a JSON object into the stored UI state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				return rawState(e.SetUIState("", args[0]))
			})
		},
	})
	return cmd
}

func rawState(state string, err error) (any, error) {
	if err != nil || state == "" {
		return nil, err
	}
	return json.RawMessage(state), nil
}

func vaultIDCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "vault-id",
		Short: "Print the vault identity, minting it on first use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				return map[string]string{"vault_id": e.VaultID()}, nil
			})
		},
	}
}

func checkpointCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "checkpoint",
		Short: "Fold the write-ahead log into the database file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				return map[string]bool{"ok": true}, e.Checkpoint()
			})
		},
	}
}

func hashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <key>",
		Short: "Print the bcrypt hash to configure as auth.api_key_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashAPIKey(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"api_key_hash": hash})
		},
	}
}
