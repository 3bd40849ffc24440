package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plancraft/plancraft/hitl"
)

var (
	resumeOption string
	resumeText   string
	resumeFields []string
)

var resumeCmd = &cobra.Command{
	Use:   "resume <thread-id>",
	Short: "Answer a suspended thread's pending question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(cmd.Context()) }()

		fields := make(map[string]string, len(resumeFields))
		for _, f := range resumeFields {
			k, v, ok := strings.Cut(f, "=")
			if !ok {
				return fmt.Errorf("invalid --field %q, want key=value", f)
			}
			fields[k] = v
		}

		res, err := eng.Resume(cmd.Context(), args[0], hitl.ResumeCommand{
			SelectedOption: resumeOption,
			TextInput:      resumeText,
			Fields:         fields,
		})
		if err != nil {
			return err
		}
		printResult(cmd, res)
		return nil
	},
}

func init() {
	resumeCmd.Flags().StringVar(&resumeOption, "option", "", "selected option title")
	resumeCmd.Flags().StringVar(&resumeText, "text", "", "free-text answer")
	resumeCmd.Flags().StringArrayVar(&resumeFields, "field", nil, "form field answer as key=value (repeatable)")
	rootCmd.AddCommand(resumeCmd)
}
