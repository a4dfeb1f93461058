package cli

import (
	"github.com/spf13/cobra"
)

var cursorCmd = &cobra.Command{
	Use:   "cursor",
	Short: "Inspect or reset the watch cursor",
}

var cursorShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the persisted cursor",
	Args:  cobra.NoArgs,
	RunE:  runCursorShow,
}

var cursorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the cursor to 0",
	Long: `Discards the persisted cursor. The next tick rediscovers every object
and re-runs its stages; stored records are overwritten in place.`,
	Args: cobra.NoArgs,
	RunE: runCursorReset,
}

func init() {
	cursorCmd.AddCommand(cursorShowCmd)
	cursorCmd.AddCommand(cursorResetCmd)
	rootCmd.AddCommand(cursorCmd)
}

func runCursorShow(cmd *cobra.Command, _ []string) error {
	if err := requireEngine(watchService != nil); err != nil {
		return err
	}

	cursor, err := watchService.Cursor(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Println(cursor.String())
	return nil
}

func runCursorReset(cmd *cobra.Command, _ []string) error {
	if err := requireEngine(watchService != nil); err != nil {
		return err
	}

	if err := watchService.Reset(cmd.Context()); err != nil {
		return err
	}
	cmd.Println("Cursor reset to 0.")
	return nil
}
