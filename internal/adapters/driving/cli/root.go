// Package cli provides the command-line interface for regsync.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/veritrail/regsync/internal/adapters/driven/config/file"
	lognotify "github.com/veritrail/regsync/internal/adapters/driven/notify/log"
	"github.com/veritrail/regsync/internal/adapters/driven/oauth"
	"github.com/veritrail/regsync/internal/adapters/driven/storage/sqlite"
	"github.com/veritrail/regsync/internal/connectors/google"
	"github.com/veritrail/regsync/internal/connectors/google/drive"
	"github.com/veritrail/regsync/internal/core/domain"
	"github.com/veritrail/regsync/internal/core/ports/driven"
	"github.com/veritrail/regsync/internal/core/ports/driving"
	"github.com/veritrail/regsync/internal/core/services"
	"github.com/veritrail/regsync/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired in Execute. Tests swap these for mocks.
var (
	syncService  driving.SyncService
	schedulerSvc driving.Scheduler
	tenantStore  driven.TenantStore
	runStore     driven.RunStore
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "regsync",
	Short: "Synchronise regulatory documents from cloud folders",
	Long: `Regsync traverses tenant cloud folders, registers controlled documents
by their filename convention, and keeps the document registry current:
content changes are detected by hash, expiry dates are analysed, and
superseded revisions are marked obsolete.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
}

// Execute wires the services and runs the root command.
func Execute() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("failed to initialise config store: %w", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("failed to initialise storage: %w", err)
	}
	defer store.Close() //nolint:errcheck // Best-effort close on exit

	tokens := oauth.NewTokenProvider(configStore)
	connector := drive.NewConnector(tokens, drive.DefaultConfig())
	notifier := lognotify.New()

	tenantStore = store.TenantStore()
	runStore = store.RunStore()

	syncService = services.NewSyncOrchestrator(
		store.TenantStore(),
		store.DocumentRegistry(),
		store.RunStore(),
		connector,
		notifier,
		syncConfigFromStore(configStore),
	)

	schedulerSvc = services.NewScheduler(
		domain.DefaultSchedulerConfig(),
		store.SchedulerStore(),
		store.TenantStore(),
		syncService,
	)

	return rootCmd.Execute()
}

// syncConfigFromStore builds the sync configuration, letting config
// keys override the defaults.
func syncConfigFromStore(cfg driven.ConfigStore) services.SyncConfig {
	sc := services.DefaultSyncConfig(google.Classify)

	if v := cfg.GetInt("sync.batch_size"); v > 0 {
		sc.BatchSize = v
	}
	if v := cfg.GetInt("sync.light_concurrency"); v > 0 {
		sc.LightConcurrency = v
	}
	if v := cfg.GetInt("sync.heavy_concurrency"); v > 0 {
		sc.HeavyConcurrency = v
	}
	if v := cfg.GetInt("sync.max_retries"); v > 0 {
		sc.Retry.MaxRetries = v
	}
	if v := cfg.GetInt("sync.warning_window_days"); v > 0 {
		sc.WarningWindow = time.Duration(v) * 24 * time.Hour
	}
	if formats := cfg.GetStringSlice("sync.date_formats"); len(formats) > 0 {
		sc.DateFormats = formats
	}

	return sc
}
