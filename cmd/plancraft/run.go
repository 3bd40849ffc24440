package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plancraft/plancraft/checkpoint"
	"github.com/plancraft/plancraft/engine"
	"github.com/plancraft/plancraft/graph"
	"github.com/plancraft/plancraft/hitl"
)

var (
	runFile   string
	runPreset string
	runThread string
)

var runCmd = &cobra.Command{
	Use:   "run <request>",
	Short: "Start a planning run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(cmd.Context()) }()

		req := engine.RunRequest{
			UserInput: args[0],
			ThreadID:  runThread,
			Preset:    runPreset,
		}
		if runFile != "" {
			data, err := os.ReadFile(runFile)
			if err != nil {
				return fmt.Errorf("read attachment: %w", err)
			}
			req.FileContent = string(data)
		}

		res, err := eng.Run(cmd.Context(), req)
		if err != nil {
			return err
		}
		printResult(cmd, res)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runFile, "file", "", "attach a reference file to the request")
	runCmd.Flags().StringVar(&runPreset, "preset", "", "model preset: fast, balanced, or quality")
	runCmd.Flags().StringVar(&runThread, "thread", "", "pin the run to a specific thread id")
	rootCmd.AddCommand(runCmd)
}

// printResult renders a drive outcome for the terminal: the pending
// question when the run suspended, otherwise the final document.
func printResult(cmd *cobra.Command, res *graph.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "thread: %s (%s)\n", res.Thread.ID, res.Thread.Status)

	if env := res.Interrupt; env != nil {
		fmt.Fprintf(out, "\n%s\n", env.Question)
		for i, opt := range env.Options {
			fmt.Fprintf(out, "  %d. %s\n", i+1, opt.Label())
		}
		if env.AllowCustom {
			fmt.Fprintf(out, "  %d. %s\n", len(env.Options)+1, hitl.CustomInputTitle)
		}
		if env.Error != "" {
			fmt.Fprintf(out, "  (%s, attempt %d)\n", env.Error, env.RetryCount)
		}
		fmt.Fprintf(out, "\nanswer with: plancraft resume %s --option <title>\n", res.Thread.ID)
		return
	}

	switch res.Thread.Status {
	case checkpoint.StatusCompleted:
		if res.State.ChatSummary != "" {
			fmt.Fprintf(out, "\n%s\n", res.State.ChatSummary)
		}
		fmt.Fprintf(out, "\n%s\n", res.State.FinalOutput)
	case checkpoint.StatusFailed:
		fmt.Fprintf(out, "failed: %s [%s]\n", res.Thread.Error, res.Thread.Category)
	}

	if len(res.State.StepHistory) > 0 {
		steps := make([]string, 0, len(res.State.StepHistory))
		for _, rec := range res.State.StepHistory {
			steps = append(steps, rec.Step)
		}
		fmt.Fprintf(out, "\nsteps: %s\n", strings.Join(steps, " → "))
	}
}
