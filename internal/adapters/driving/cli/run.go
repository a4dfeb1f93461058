package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

var runStage string

var runCmd = &cobra.Command{
	Use:   "run <key>",
	Short: "Re-run the stages for a registered partition",
	Long: `Runs every stage for a registered partition key, or a single stage
with --stage. Stages read their inputs from the store, so a single stage
fails with upstream_not_ready until its dependencies have produced output.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runStage, "stage", "", "run only this stage")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := requireEngine(pipelineRunner != nil && recordStore != nil); err != nil {
		return err
	}

	key := args[0]
	record, err := recordStore.Get(cmd.Context(), key)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("partition %s has no record; run a tick first", key)
	}
	if err != nil {
		return err
	}

	if runStage != "" {
		stage, ok := domain.ParseStage(runStage)
		if !ok {
			return fmt.Errorf("unknown stage %q", runStage)
		}
		if err := pipelineRunner.RunStage(cmd.Context(), key, stage, record.SourceLocator); err != nil {
			return err
		}
		cmd.Printf("%s: %s ok\n", key, stage)
		return nil
	}

	res := pipelineRunner.Run(cmd.Context(), domain.ExecutionRequest{Key: key, Locator: record.SourceLocator})
	printPipelineResult(cmd, res)
	if !res.Succeeded() {
		return fmt.Errorf("%d stage(s) failed for %s", len(res.Failed()), key)
	}
	return nil
}
