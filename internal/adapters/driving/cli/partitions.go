package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

var partitionsCmd = &cobra.Command{
	Use:   "partitions",
	Short: "Manage registered partitions",
}

var partitionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered partition keys",
	Args:  cobra.NoArgs,
	RunE:  runPartitionsList,
}

var partitionsDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a partition and its record",
	Long: `Removes a partition key from the registry and deletes its record along
with every relationship that names it. A later tick registers the key
again if its object changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runPartitionsDelete,
}

func init() {
	partitionsCmd.AddCommand(partitionsListCmd)
	partitionsCmd.AddCommand(partitionsDeleteCmd)
	rootCmd.AddCommand(partitionsCmd)
}

func runPartitionsList(cmd *cobra.Command, _ []string) error {
	if err := requireEngine(partitionStore != nil); err != nil {
		return err
	}

	keys, err := partitionStore.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		cmd.Println("No partitions registered.")
		return nil
	}
	for _, key := range keys {
		cmd.Println(key)
	}
	return nil
}

func runPartitionsDelete(cmd *cobra.Command, args []string) error {
	if err := requireEngine(partitionStore != nil && recordStore != nil); err != nil {
		return err
	}

	ctx := cmd.Context()
	key := args[0]
	known, err := partitionStore.Contains(ctx, key)
	if err != nil {
		return err
	}
	if !known {
		return fmt.Errorf("partition %s is not registered", key)
	}

	if err := recordStore.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete record %s: %w", key, err)
	}
	if err := partitionStore.Remove(ctx, key); err != nil {
		return fmt.Errorf("remove partition %s: %w", key, err)
	}
	cmd.Printf("Deleted %s\n", key)
	return nil
}
