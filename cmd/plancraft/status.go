package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plancraft/plancraft/checkpoint"
)

var statusCmd = &cobra.Command{
	Use:   "status <thread-id>",
	Short: "Show a thread's current position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(cmd.Context()) }()

		res, err := eng.Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printResult(cmd, res)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List planning threads",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(cmd.Context()) }()

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		threads, err := eng.ListThreads(cmd.Context(), checkpoint.Status(status), limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, th := range threads {
			fmt.Fprintf(out, "%s  %-12s  %s\n", th.ID, th.Status, th.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().String("status", "", "filter by status (RUNNING, INTERRUPTED, COMPLETED, FAILED)")
	listCmd.Flags().Int("limit", 50, "maximum threads to list")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
}
