package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

var relateKind string

var relateCmd = &cobra.Command{
	Use:   "relate",
	Short: "Manage relationships between documents",
}

var relateAddCmd = &cobra.Command{
	Use:   "add <doc-a> <doc-b>",
	Short: "Relate two documents",
	Long: `Records a relationship between two existing document keys.
Kinds: references, duplicates, supersedes.`,
	Args: cobra.ExactArgs(2),
	RunE: runRelateAdd,
}

var relateListCmd = &cobra.Command{
	Use:   "list <key>",
	Short: "List relationships naming a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelateList,
}

var relateDeleteCmd = &cobra.Command{
	Use:   "delete <doc-a> <doc-b>",
	Short: "Remove a relationship",
	Args:  cobra.ExactArgs(2),
	RunE:  runRelateDelete,
}

func init() {
	relateAddCmd.Flags().StringVar(&relateKind, "kind", string(domain.RelationReferences), "relationship kind")
	relateCmd.AddCommand(relateAddCmd)
	relateCmd.AddCommand(relateListCmd)
	relateCmd.AddCommand(relateDeleteCmd)
	rootCmd.AddCommand(relateCmd)
}

func runRelateAdd(cmd *cobra.Command, args []string) error {
	if err := requireEngine(relationshipStore != nil); err != nil {
		return err
	}

	rel := domain.Relationship{
		DocA: args[0],
		DocB: args[1],
		Kind: domain.RelationKind(relateKind),
	}
	if err := relationshipStore.Save(cmd.Context(), rel); err != nil {
		return fmt.Errorf("relate %s -> %s: %w", rel.DocA, rel.DocB, err)
	}
	cmd.Printf("%s %s %s\n", rel.DocA, rel.Kind, rel.DocB)
	return nil
}

func runRelateList(cmd *cobra.Command, args []string) error {
	if err := requireEngine(relationshipStore != nil); err != nil {
		return err
	}

	rels, err := relationshipStore.List(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(rels) == 0 {
		cmd.Println("No relationships.")
		return nil
	}
	for _, rel := range rels {
		cmd.Printf("%s %s %s\n", rel.DocA, rel.Kind, rel.DocB)
	}
	return nil
}

func runRelateDelete(cmd *cobra.Command, args []string) error {
	if err := requireEngine(relationshipStore != nil); err != nil {
		return err
	}

	if err := relationshipStore.Delete(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("Removed %s -> %s\n", args[0], args[1])
	return nil
}
