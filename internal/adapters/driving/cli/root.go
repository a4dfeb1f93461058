// Package cli provides the sercha-ingest command tree.
//
// Commands read package-level services injected by SetServices or built
// lazily by the Initializer registered with SetInitializer.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// annotationNoServices marks commands that run without core services.
const annotationNoServices = "no-services"

var (
	version = "dev"

	verbose   bool
	configDir string
	dataDir   string
)

// Core services used by commands.
var (
	settingsService   driving.SettingsService
	watchService      driving.WatchService
	pipelineRunner    driving.PipelineRunner
	scheduler         driving.Scheduler
	changeNotifier    ChangeNotifier
	recordStore       driven.RecordStore
	partitionStore    driven.PartitionStore
	relationshipStore driven.RelationshipStore

	// engineErr explains why engine services are missing, if they are.
	engineErr error
)

var (
	initializer Initializer
	cleanup     func() error
)

// ChangeNotifier emits a hint whenever the watched source may have changed.
type ChangeNotifier interface {
	Watch(ctx context.Context) <-chan struct{}
}

// Services groups the dependencies commands operate on.
type Services struct {
	Settings      driving.SettingsService
	Watch         driving.WatchService
	Runner        driving.PipelineRunner
	Scheduler     driving.Scheduler
	Notifier      ChangeNotifier
	Records       driven.RecordStore
	Partitions    driven.PartitionStore
	Relationships driven.RelationshipStore

	// EngineErr is set when the configuration cannot start an engine.
	// Settings commands still work so the configuration can be fixed.
	EngineErr error
}

// Options carries global flag values to the Initializer.
type Options struct {
	ConfigDir string
	DataDir   string
	Verbose   bool
}

// Initializer builds services for one invocation. The returned function
// releases them once the command finishes.
type Initializer func(ctx context.Context, opts Options) (*Services, func() error, error)

var rootCmd = &cobra.Command{
	Use:   "sercha-ingest",
	Short: "Incremental document ingestion engine",
	Long: `sercha-ingest watches a directory tree or object-store bucket, registers
every new or changed file as a partition, and derives markdown, JSON,
plain text, chunks and embeddings for each one into a single store.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.sercha-ingest)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.sercha-ingest/data)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetInitializer registers the function that builds services before a
// command runs.
func SetInitializer(fn Initializer) {
	initializer = fn
}

// SetServices injects services directly.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	settingsService = s.Settings
	watchService = s.Watch
	pipelineRunner = s.Runner
	scheduler = s.Scheduler
	changeNotifier = s.Notifier
	recordStore = s.Records
	partitionStore = s.Partitions
	relationshipStore = s.Relationships
	engineErr = s.EngineErr
}

// Execute runs the root command and releases any services it built.
func Execute() error {
	err := rootCmd.Execute()
	if cerr := teardown(); err == nil {
		err = cerr
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if cmd.Annotations[annotationNoServices] == "true" || initializer == nil {
		return nil
	}

	svc, release, err := initializer(cmd.Context(), Options{
		ConfigDir: configDir,
		DataDir:   dataDir,
		Verbose:   verbose,
	})
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	SetServices(svc)
	cleanup = release
	return nil
}

func teardown() error {
	if cleanup == nil {
		return nil
	}
	release := cleanup
	cleanup = nil
	return release()
}

// requireEngine reports why engine-backed commands cannot run.
func requireEngine(ready bool) error {
	if ready {
		return nil
	}
	if engineErr != nil {
		return fmt.Errorf("engine not configured: %w", engineErr)
	}
	return errors.New("engine not configured")
}
