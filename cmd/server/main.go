package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/skywatch/internal/alerting"
	"github.com/good-yellow-bee/skywatch/internal/api"
	"github.com/good-yellow-bee/skywatch/internal/feed"
	"github.com/good-yellow-bee/skywatch/internal/metrics"
	"github.com/good-yellow-bee/skywatch/internal/models"
	"github.com/good-yellow-bee/skywatch/internal/monitor"
	"github.com/good-yellow-bee/skywatch/internal/notifier"
	"github.com/good-yellow-bee/skywatch/internal/storage"
	"github.com/good-yellow-bee/skywatch/pkg/config"
)

var (
	configFile string
	feedURL    string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "skywatch-server",
	Short: "SkyWatch Server - Aircraft proximity and collision alerting",
	Long: `SkyWatch Server polls an ADS-B receiver for aircraft state,
scans for proximity conflicts, collision courses and emergency
squawks, and manages the resulting alert lifecycle.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("skywatch-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&feedURL, "feed", "f", "", "aircraft feed URL")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP API listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var cfg *Config

	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags
	if feedURL != "" {
		cfg.Feed.URL = feedURL
	}
	if httpAddr != "" {
		cfg.Server.HTTPAddress = httpAddr
	}
	cfg.Verbose = verbose

	// Thresholds, optionally file-backed with hot reload
	thresholds := monitor.DefaultThresholds()
	if cfg.Alerts.ThresholdsPath != "" {
		var err error
		thresholds, err = monitor.LoadThresholds(cfg.Alerts.ThresholdsPath)
		if err != nil {
			return fmt.Errorf("load thresholds: %w", err)
		}
	}
	provider := monitor.NewProvider(thresholds)

	// Persistence is optional; the in-memory store is authoritative
	var persister alerting.Persister
	var db *storage.SQLiteStorage
	if cfg.Database.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0750); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		db = storage.NewSQLiteStorage(cfg.Database.Path)
		if err := db.Open(); err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		persister = db
		log.Printf("database initialized at %s", cfg.Database.Path)
	}

	store := alerting.NewStore(alerting.StoreOptions{
		CooldownWindow: duration(cfg.Alerts.Cooldown),
		HistorySize:    cfg.Alerts.HistorySize,
		Persister:      persister,
	})
	defer store.Close()

	poller := feed.NewPoller(feed.Options{
		URL:      cfg.Feed.URL,
		Interval: duration(cfg.Feed.Interval),
		Timeout:  duration(cfg.Feed.Timeout),
		StaleTTL: duration(cfg.Feed.StaleTTL),
	})

	scheduler := alerting.NewScheduler(store, poller, provider, alerting.SchedulerOptions{
		ScanInterval:     duration(cfg.Alerts.ScanInterval),
		CleanupInterval:  duration(cfg.Alerts.CleanupInterval),
		AutoResolveAfter: duration(cfg.Alerts.AutoResolveAfter),
		DataLossAfter:    duration(cfg.Alerts.DataLossAfter),
	})

	dispatcher, err := buildDispatcher(cfg)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	apiServer, err := api.New(&api.Config{
		Address: cfg.Server.HTTPAddress,
		Verbose: cfg.Verbose,
	}, store, poller.Tracker(), provider)
	if err != nil {
		return fmt.Errorf("create API server: %w", err)
	}

	metricsServer := metrics.NewServer(cfg.Server.MetricsAddress)

	// Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("starting skywatch-server %s", config.Version)

	if cfg.Alerts.ThresholdsPath != "" {
		watcher, err := monitor.NewWatcher(cfg.Alerts.ThresholdsPath, provider)
		if err != nil {
			return fmt.Errorf("create thresholds watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("start thresholds watcher: %w", err)
		}
		defer watcher.Stop()
	}

	scheduler.Start(ctx)
	defer scheduler.Stop()

	events := store.Subscribe()
	go dispatcher.Run(ctx, events)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poller.Run(ctx)
	})
	g.Go(func() error {
		return apiServer.Run(ctx)
	})
	g.Go(func() error {
		return metricsServer.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return fmt.Errorf("run server: %w", err)
	}

	log.Printf("server stopped")
	return nil
}

// buildDispatcher wires the configured notification channels.
func buildDispatcher(cfg *Config) (*notifier.Dispatcher, error) {
	dispatcher := notifier.NewDispatcher(notifier.DispatcherOptions{
		MinSeverity: models.Severity(cfg.Notify.MinSeverity),
		RateLimit: notifier.RateLimitConfig{
			MaxPerWindow: cfg.Notify.MaxPerMinute,
		},
	})

	if cfg.Notify.SlackWebhookURL != "" {
		slack, err := notifier.NewSlackNotifier(notifier.SlackConfig{
			WebhookURL: cfg.Notify.SlackWebhookURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create slack notifier: %w", err)
		}
		dispatcher.Register(slack)
	}

	if cfg.Notify.WebhookURL != "" {
		webhook, err := notifier.NewWebhookNotifier(notifier.WebhookConfig{
			URL:     cfg.Notify.WebhookURL,
			Headers: cfg.Notify.WebhookHeaders,
		})
		if err != nil {
			return nil, fmt.Errorf("create webhook notifier: %w", err)
		}
		dispatcher.Register(webhook)
	}

	return dispatcher, nil
}
