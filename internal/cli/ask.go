package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	askAsync      bool
	askOutputFile string
)

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Ask the agent a data-engineering question",
	Long: `Ask the agent a free-form data-engineering question.

By default the command waits for the answer. With --async the run is tracked
on the server and a progress display polls until it finishes; Ctrl+C leaves
the run going in the background.

Examples:
  datapilot ask "why did workflow invocation 1234 fail?"
  datapilot ask "how do I partition events_raw by day?" -o answer.md
  datapilot ask --async "audit the freshness of every staging table"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askAsync, "async", false, "run in the background and poll for the answer")
	askCmd.Flags().StringVarP(&askOutputFile, "output", "o", "", "write the answer to a file")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	c := apiClient()
	ctx := cmd.Context()

	if askAsync {
		task, err := c.RunAsync(ctx, args[0])
		if err != nil {
			return err
		}
		if err := RunTaskProgress(c, task); err != nil {
			return err
		}
		if askOutputFile == "" {
			return nil
		}
		final, err := c.TaskStatus(ctx, task.ID)
		if err != nil {
			return err
		}
		return writeAnswer(final.Result)
	}

	result, err := c.Run(ctx, args[0])
	if err != nil {
		return err
	}
	return writeAnswer(result.Response)
}

func writeAnswer(answer string) error {
	if askOutputFile != "" {
		if err := os.WriteFile(askOutputFile, []byte(answer+"\n"), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("Answer written to %s\n", askOutputFile)
		return nil
	}
	fmt.Println(answer)
	return nil
}
