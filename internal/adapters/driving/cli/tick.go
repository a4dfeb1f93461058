package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run one watch tick",
	Long: `Scans the source for objects changed since the persisted cursor,
registers them, runs every stage for each one, and advances the cursor.`,
	Args: cobra.NoArgs,
	RunE: runTick,
}

func init() {
	rootCmd.AddCommand(tickCmd)
}

func runTick(cmd *cobra.Command, _ []string) error {
	if err := requireEngine(watchService != nil); err != nil {
		return err
	}

	report, err := watchService.RunOnce(cmd.Context())
	if err != nil {
		return fmt.Errorf("tick failed: %w", err)
	}
	printTickReport(cmd, report)
	return nil
}

func printTickReport(cmd *cobra.Command, report *driving.TickReport) {
	cmd.Printf("Cursor: %s -> %s\n", report.Previous, report.Current)
	if report.Dispatched == 0 {
		cmd.Println("No changes.")
		return
	}
	cmd.Printf("Processed %d partition(s):\n", report.Dispatched)
	for _, res := range report.Results {
		printPipelineResult(cmd, res)
	}
}

func printPipelineResult(cmd *cobra.Command, res *domain.PipelineResult) {
	if res == nil {
		return
	}
	if res.Succeeded() {
		cmd.Printf("  %s: ok\n", res.Key)
		return
	}
	cmd.Printf("  %s:\n", res.Key)
	for _, o := range res.Outcomes {
		switch {
		case o.Err != nil:
			cmd.Printf("    %-12s failed (%s): %v\n", o.Stage, domain.ErrorKind(o.Err), o.Err)
		case o.Skipped:
			cmd.Printf("    %-12s skipped\n", o.Stage)
		default:
			cmd.Printf("    %-12s ok\n", o.Stage)
		}
	}
}
