package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/datapilot/internal/diag"
	"github.com/mkarlsen/datapilot/internal/parser"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Offline diagnostics on local input, no server required",
}

var (
	diagErrorLocation      string
	diagErrorNoSuggestions bool
)

var diagnoseErrorCmd = &cobra.Command{
	Use:   "error <message>",
	Short: "Classify a BigQuery error message",
	Long: `Classify a BigQuery error message into a category with likely causes
and suggested fixes.

Examples:
  datapilot diagnose error "Quota exceeded: your project exceeded quota for free query bytes scanned"
  datapilot diagnose error "Not found: Table proj:sales.orders" --location US`,
	Args: cobra.ExactArgs(1),
	RunE: runDiagnoseError,
}

var diagQueryBytes int64

var diagnoseQueryCmd = &cobra.Command{
	Use:   "query <sql-or-file>",
	Short: "Suggest optimizations for a SQL query",
	Long: `Suggest optimizations for a SQL query. The argument is read as a file
when it names one, otherwise it is treated as inline SQL.

Examples:
  datapilot diagnose query slow_report.sql
  datapilot diagnose query "SELECT * FROM sales.orders ORDER BY created_at" --bytes 5000000000`,
	Args: cobra.ExactArgs(1),
	RunE: runDiagnoseQuery,
}

var diagnoseSQLXCmd = &cobra.Command{
	Use:   "sqlx <file>",
	Short: "Parse the config block of a Dataform .sqlx file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagnoseSQLX,
}

func init() {
	diagnoseErrorCmd.Flags().StringVar(&diagErrorLocation, "location", "", "where the error occurred (query, load, ...)")
	diagnoseErrorCmd.Flags().BoolVar(&diagErrorNoSuggestions, "no-suggestions", false, "omit suggested fixes")
	diagnoseQueryCmd.Flags().Int64Var(&diagQueryBytes, "bytes", 0, "estimated bytes scanned, refines cost advice")

	diagnoseCmd.AddCommand(diagnoseErrorCmd, diagnoseQueryCmd, diagnoseSQLXCmd)
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnoseError(cmd *cobra.Command, args []string) error {
	classification := diag.ClassifyError(args[0], diagErrorLocation, !diagErrorNoSuggestions)
	return printJSON(classification)
}

func runDiagnoseQuery(cmd *cobra.Command, args []string) error {
	sql := args[0]
	if content, err := os.ReadFile(sql); err == nil {
		sql = string(content)
	}

	analysis := diag.SuggestOptimizations(sql, diagQueryBytes, "")
	return printJSON(analysis)
}

func runDiagnoseSQLX(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read sqlx file: %w", err)
	}

	config := parser.ParseSQLXConfig(string(content))
	return printJSON(config)
}
