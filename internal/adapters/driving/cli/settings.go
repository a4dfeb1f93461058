package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// secretKeys are masked when shown and prompted for without echo.
var secretKeys = map[string]bool{
	"source.access_key_id":     true,
	"source.secret_access_key": true,
}

// listKeys hold comma-separated values.
var listKeys = map[string]bool{
	"events.brokers": true,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage engine settings",
	Long: `View and change the engine configuration stored in config.toml.

Keys use dot notation, for example source.root or watch.interval.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Set a configuration value",
	Long: `Set one configuration value by dotted key.

Secret keys prompt for the value without echo when it is omitted.
events.brokers takes a comma-separated list.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	for _, key := range settingsService.Keys() {
		val, ok := settingsService.Get(key)
		switch {
		case !ok:
			cmd.Printf("  %-26s (default)\n", key)
		case secretKeys[key]:
			cmd.Printf("  %-26s %s\n", key, maskSecret(fmt.Sprint(val)))
		default:
			cmd.Printf("  %-26s %v\n", key, val)
		}
	}
	cmd.Println()

	if err := settingsService.Validate(settingsService.Engine()); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'sercha-ingest settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	var raw string
	switch {
	case len(args) == 2:
		raw = args[1]
	case secretKeys[key]:
		cmd.Printf("%s: ", key)
		raw = readPassword()
		cmd.Println()
	default:
		return fmt.Errorf("a value is required for %s", key)
	}

	if err := settingsService.Set(key, parseValue(key, raw)); err != nil {
		return err
	}

	shown := raw
	if secretKeys[key] {
		shown = maskSecret(raw)
	}
	cmd.Printf("%s = %s\n", key, shown)
	return nil
}

// parseValue converts a command-line value to the type stored in TOML.
// Durations such as "5s" stay strings.
func parseValue(key, raw string) any {
	if listKeys[key] {
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items
	}
	if secretKeys[key] {
		return raw
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
