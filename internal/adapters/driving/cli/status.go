package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [key]",
	Short: "Show engine or partition status",
	Long: `Without arguments, shows the persisted cursor and how many partitions
are registered. With a key, shows which representations are stored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := requireEngine(watchService != nil && partitionStore != nil && recordStore != nil); err != nil {
		return err
	}
	if len(args) == 1 {
		return runRecordStatus(cmd, args[0])
	}

	ctx := cmd.Context()
	cursor, err := watchService.Cursor(ctx)
	if err != nil {
		return err
	}
	keys, err := partitionStore.List(ctx)
	if err != nil {
		return err
	}
	records, err := recordStore.ListKeys(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Cursor:     %s", cursor)
	if cursor > 0 {
		cmd.Printf(" (%s)", cursor.Time().UTC().Format("2006-01-02 15:04:05.000 MST"))
	}
	cmd.Println()
	cmd.Printf("Partitions: %d\n", len(keys))
	cmd.Printf("Records:    %d\n", len(records))
	return nil
}

func runRecordStatus(cmd *cobra.Command, key string) error {
	record, err := recordStore.Get(cmd.Context(), key)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no record for %s", key)
	}
	if err != nil {
		return err
	}

	cmd.Printf("Key:     %s\n", record.Key)
	cmd.Printf("Locator: %s\n", record.SourceLocator)
	cmd.Printf("Updated: %s\n", record.UpdatedAt.Format("2006-01-02 15:04:05"))
	for _, col := range []struct {
		name  string
		value *string
	}{
		{string(domain.ColumnMarkdown), record.Markdown},
		{string(domain.ColumnJSON), record.JSON},
		{string(domain.ColumnPlain), record.Plain},
		{string(domain.ColumnChunks), record.Chunks},
		{string(domain.ColumnEmbeddings), record.Embeddings},
	} {
		state := "missing"
		if col.value != nil {
			state = fmt.Sprintf("%d bytes", len(*col.value))
		}
		cmd.Printf("  %-14s %s\n", col.name, state)
	}
	return nil
}
