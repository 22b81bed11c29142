package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/datapilot/internal/taskstore"
)

var taskCmd = &cobra.Command{
	Use:   "task <id>",
	Short: "Show the status of a background agent run",
	Long: `Show the status of a background agent run started with 'ask --async'.

Finished tasks age out of the server after a while; an unknown id usually
means the task expired.`,
	Args: cobra.ExactArgs(1),
	RunE: runTask,
}

func init() {
	rootCmd.AddCommand(taskCmd)
}

func runTask(cmd *cobra.Command, args []string) error {
	task, err := apiClient().TaskStatus(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Task:    %s\n", task.ID)
	fmt.Printf("Status:  %s\n", task.Status)
	fmt.Printf("Created: %s\n", task.CreatedAt.Local().Format("2006-01-02 15:04:05"))

	switch task.Status {
	case taskstore.StatusCompleted:
		fmt.Printf("\n%s\n", task.Result)
	case taskstore.StatusFailed:
		fmt.Printf("\nError: %s\n", task.Error)
	}
	return nil
}
