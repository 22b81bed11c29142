package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect and call the server's tool catalogue",
}

var toolsListCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List available tools, optionally filtered by category",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runToolsList,
}

var toolsCallCmd = &cobra.Command{
	Use:   "call <category> <name> [json-args]",
	Short: "Call one tool with JSON arguments",
	Long: `Call one tool with JSON arguments and print the result.

Examples:
  datapilot tools call system ping '{"echo":"hi"}'
  datapilot tools call bigquery estimate_query_cost '{"query":"SELECT * FROM sales.orders"}'
  datapilot tools call dataform get_workflow_status`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runToolsCall,
}

var toolsInfoCmd = &cobra.Command{
	Use:   "info <category> <name>",
	Short: "Show one tool's description",
	Args:  cobra.ExactArgs(2),
	RunE:  runToolsInfo,
}

func init() {
	toolsCmd.AddCommand(toolsListCmd, toolsCallCmd, toolsInfoCmd)
	rootCmd.AddCommand(toolsCmd)
}

func runToolsList(cmd *cobra.Command, args []string) error {
	c := apiClient()
	ctx := cmd.Context()

	if len(args) == 1 {
		list, err := c.ListCategory(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s (%d tools)\n", list.Category, list.Count)
		for _, tool := range list.Tools {
			fmt.Printf("  %-40s %s\n", tool.Name, tool.Description)
		}
		return nil
	}

	list, err := c.ListTools(ctx)
	if err != nil {
		return err
	}
	for _, category := range list.Categories {
		fmt.Printf("%s\n", category)
		for _, tool := range list.Tools {
			if tool.Category != category {
				continue
			}
			fmt.Printf("  %-40s %s\n", tool.Name, tool.Description)
		}
		fmt.Println()
	}
	fmt.Printf("%d tools total\n", list.Count)
	return nil
}

func runToolsCall(cmd *cobra.Command, args []string) error {
	toolArgs := json.RawMessage(`{}`)
	if len(args) == 3 {
		if !json.Valid([]byte(args[2])) {
			return fmt.Errorf("arguments are not valid JSON: %s", args[2])
		}
		toolArgs = json.RawMessage(args[2])
	}

	result, err := apiClient().CallTool(cmd.Context(), args[0], args[1], toolArgs)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runToolsInfo(cmd *cobra.Command, args []string) error {
	info, err := apiClient().ToolInfo(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("%s/%s\n  %s\n", info.Category, info.Name, info.Description)
	return nil
}

func printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("render result: %w", err)
	}
	fmt.Println(string(raw))
	return nil
}
