package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vault-planning/internal/models"
	"vault-planning/internal/planning"
)

func showCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				return e.GetTask(args[0])
			})
		},
	}
}

func createCmd(opts *rootOptions) *cobra.Command {
	var (
		in       models.CreateTaskInput
		status   string
		priority string
		due      string
		board    string
		desc     string
		estimate int64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task and its note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if in.Status, err = models.ParseTaskStatus(status); err != nil {
				return err
			}
			if cmd.Flags().Changed("priority") {
				p, err := models.ParseTaskPriority(priority)
				if err != nil {
					return err
				}
				in.Priority = &p
			}
			if cmd.Flags().Changed("due") {
				in.DueDate = &due
			}
			if cmd.Flags().Changed("board") {
				in.BoardID = &board
			}
			if cmd.Flags().Changed("description") {
				in.Description = &desc
			}
			if cmd.Flags().Changed("estimate") {
				in.EstimateMin = &estimate
			}
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				return e.CreateTask(in)
			})
		},
	}
	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "task title")
	cmd.Flags().StringVarP(&status, "status", "s", "todo", "todo, doing, verify or done")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "urgent, high, medium, low or p0..p3")
	cmd.Flags().StringVarP(&due, "due", "d", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&board, "board", "", "board id")
	cmd.Flags().StringVar(&desc, "description", "", "task description")
	cmd.Flags().Int64Var(&estimate, "estimate", 0, "estimate in minutes")
	cmd.Flags().StringSliceVar(&in.Tags, "tag", nil, "tag (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func updateCmd(opts *rootOptions) *cobra.Command {
	var (
		title    string
		status   string
		priority string
		due      string
		clearDue bool
		board    string
		desc     string
		estimate int64
		tags     []string
		archived bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the given fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := models.UpdateTaskInput{ID: args[0]}
			flags := cmd.Flags()
			if flags.Changed("title") {
				in.Title = &title
			}
			if flags.Changed("status") {
				s, err := models.ParseTaskStatus(status)
				if err != nil {
					return err
				}
				in.Status = &s
			}
			if flags.Changed("priority") {
				p, err := models.ParseTaskPriority(priority)
				if err != nil {
					return err
				}
				in.Priority = &p
			}
			switch {
			case clearDue && flags.Changed("due"):
				return fmt.Errorf("--due and --clear-due are mutually exclusive")
			case clearDue:
				in.DueDate = models.Null()
			case flags.Changed("due"):
				in.DueDate = models.Some(due)
			}
			if flags.Changed("board") {
				in.BoardID = &board
			}
			if flags.Changed("description") {
				in.Description = &desc
			}
			if flags.Changed("estimate") {
				in.EstimateMin = &estimate
			}
			if flags.Changed("tag") {
				in.Tags = tags
				if in.Tags == nil {
					in.Tags = []string{}
				}
			}
			if flags.Changed("archived") {
				in.Archived = &archived
			}
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				return e.UpdateTask(in)
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "task title")
	cmd.Flags().StringVarP(&status, "status", "s", "", "todo, doing, verify or done")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "urgent, high, medium, low or p0..p3")
	cmd.Flags().StringVarP(&due, "due", "d", "", "due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.Flags().StringVar(&board, "board", "", "board id")
	cmd.Flags().StringVar(&desc, "description", "", "task description")
	cmd.Flags().Int64Var(&estimate, "estimate", 0, "estimate in minutes")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "replace tags (repeatable)")
	cmd.Flags().BoolVar(&archived, "archived", false, "archive or unarchive")
	return cmd
}

func transitionCmd(opts *rootOptions, use, short string, op func(*planning.Engine, string) (*models.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				return op(e, args[0])
			})
		},
	}
}

func startCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Start a timer on a task, stopping any other",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				return e.StartTask(args[0])
			})
		},
	}
}

func stopCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop the running timer of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				return e.StopTask(args[0])
			})
		},
	}
}

func noteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "note <id>",
		Short: "Print the note path of a task, creating the note if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				path, err := e.OpenTaskNote(args[0])
				return map[string]string{"path": path}, err
			})
		},
	}
}

func reorderCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id>=<index>[:<status>]...",
		Short: "Set column positions of several tasks in one transaction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseReorderArgs(args)
			if err != nil {
				return err
			}
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				if err := e.ReorderTasks(items); err != nil {
					return nil, err
				}
				return map[string]int{"count": len(items)}, nil
			})
		},
	}
}

func parseReorderArgs(args []string) ([]models.ReorderTaskInput, error) {
	items := make([]models.ReorderTaskInput, 0, len(args))
	for _, arg := range args {
		id, rest, ok := strings.Cut(arg, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid reorder item %q, expected <id>=<index>[:<status>]", arg)
		}
		indexPart, statusPart, hasStatus := strings.Cut(rest, ":")
		index, err := strconv.ParseInt(indexPart, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid order index in %q: %w", arg, err)
		}
		item := models.ReorderTaskInput{ID: id, OrderIndex: index}
		if hasStatus {
			status, err := models.ParseTaskStatus(statusPart)
			if err != nil {
				return nil, err
			}
			item.Status = &status
		}
		items = append(items, item)
	}
	return items, nil
}

func deleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task, its timers and its note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, func(e *planning.Engine) (any, error) {
				if err := e.DeleteTask(args[0]); err != nil {
					return nil, err
				}
				return map[string]string{"deleted": args[0]}, nil
			})
		},
	}
}
