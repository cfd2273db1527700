package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sunnysips/config"
	"sunnysips/internal/api"
	"sunnysips/internal/cache"
	"sunnysips/internal/mqtt"
	"sunnysips/internal/orchestrator"
	"sunnysips/internal/provider"
	"sunnysips/internal/recommend"
	"sunnysips/internal/refresh"
	"sunnysips/internal/storage"
	"sunnysips/internal/venue"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sunnysips",
		Short: "Sun exposure engine for outdoor seating",
		Long:  "Resolves per-venue sun outlooks and ranks favorite venues by upcoming sun windows",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(outlookCmd())
	rootCmd.AddCommand(recommendCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the engine service",
		Long:  "Start the API server, refresh loop, and MQTT publisher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			venues, err := venue.Load(cfg.Venues.Path)
			if err != nil {
				return fmt.Errorf("failed to load venues: %w", err)
			}
			log.Printf("Loaded %d venues from %s", venues.Len(), cfg.Venues.Path)

			db, err := storage.NewDatabase(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			log.Printf("Database opened at %s", cfg.Database.Path)

			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				Enabled:     cfg.MQTT.Enabled,
			})
			if err != nil {
				log.Printf("Warning: MQTT connection failed: %v", err)
			} else if cfg.MQTT.Enabled {
				log.Printf("MQTT connected to %s", cfg.MQTT.Broker)
			}

			orch, err := buildOrchestrator(cfg, venues)
			if err != nil {
				return err
			}

			refresher := refresh.NewRefresher(refresh.RefresherConfig{
				Orchestrator:   orch,
				Venues:         venues,
				Database:       db,
				Publisher:      publisher,
				CityID:         cfg.City.Default,
				OutlookDays:    cfg.Engine.OutlookDays,
				MinDurationMin: cfg.Engine.MinDurationMinutes,
				Interval:       cfg.Refresh.Interval,
				Enabled:        cfg.Refresh.Enabled,
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				if err := refresher.Start(ctx); err != nil {
					log.Printf("Refresher error: %v", err)
				}
			}()

			var server *api.Server
			if cfg.API.Enabled {
				server = api.NewServer(api.ServerConfig{
					Port:           cfg.API.Port,
					Orchestrator:   orch,
					Refresher:      refresher,
					Database:       db,
					Venues:         venues,
					DefaultCity:    cfg.City.Default,
					OutlookDays:    cfg.Engine.OutlookDays,
					MinDurationMin: cfg.Engine.MinDurationMinutes,
				})

				go func() {
					if err := server.Start(); err != nil && err != http.ErrServerClosed {
						log.Printf("API server error: %v", err)
					}
				}()
			}

			log.Println("SunnySips started. Press Ctrl+C to stop.")

			<-sigChan
			log.Println("Shutting down...")
			cancel()
			if server != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := server.Stop(shutdownCtx); err != nil {
					log.Printf("API shutdown error: %v", err)
				}
				shutdownCancel()
			}
			refresher.Stop()

			return nil
		},
	}
}

func outlookCmd() *cobra.Command {
	var days int
	var minDuration int

	cmd := &cobra.Command{
		Use:   "outlook <venue-id>",
		Short: "Resolve the sun outlook for one venue",
		Long:  "Resolve and print the sun outlook for a venue, walking the provider tiers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			venues, err := venue.Load(cfg.Venues.Path)
			if err != nil {
				return fmt.Errorf("failed to load venues: %w", err)
			}

			orch, err := buildOrchestrator(cfg, venues)
			if err != nil {
				return err
			}

			if minDuration <= 0 {
				minDuration = cfg.Engine.MinDurationMinutes
			}

			outlook, err := orch.FetchOutlook(cmd.Context(), args[0], cfg.City.Default, days, minDuration)
			if err != nil {
				return fmt.Errorf("failed to resolve outlook: %w", err)
			}

			output, _ := json.MarshalIndent(outlook, "", "  ")
			fmt.Println(string(output))

			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 1, "forecast horizon in days")
	cmd.Flags().IntVar(&minDuration, "min-duration", 0, "minimum sun window duration in minutes")
	return cmd
}

func recommendCmd() *cobra.Command {
	var days int
	var periods []string

	cmd := &cobra.Command{
		Use:   "recommend <venue-id> [venue-id...]",
		Short: "Rank favorite venues by upcoming sun",
		Long:  "Resolve outlooks for the given venues and print the ranked recommendation list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			venues, err := venue.Load(cfg.Venues.Path)
			if err != nil {
				return fmt.Errorf("failed to load venues: %w", err)
			}

			orch, err := buildOrchestrator(cfg, venues)
			if err != nil {
				return err
			}

			prefs := recommend.Preferences{
				MinDurationMinutes: cfg.Engine.MinDurationMinutes,
				PreferredPeriods:   periods,
			}

			list, err := orch.FetchFavoritesRecommendation(cmd.Context(), args, cfg.City.Default, days, prefs)
			if err != nil {
				return fmt.Errorf("failed to build recommendations: %w", err)
			}

			output, _ := json.MarshalIndent(list, "", "  ")
			fmt.Println(string(output))

			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 1, "forecast horizon in days")
	cmd.Flags().StringSliceVar(&periods, "periods", nil, "preferred periods (morning, lunch, afternoon, evening)")
	return cmd
}

func buildOrchestrator(cfg *config.Config, venues *venue.Registry) (*orchestrator.Orchestrator, error) {
	store, err := cache.NewFileStore(cfg.Cache.Dir, cfg.Cache.FreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to init cache: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.Providers.Timeout}

	return orchestrator.New(orchestrator.Config{
		Primary:     provider.NewPrimaryClient(cfg.Providers.PrimaryBaseURL, httpClient),
		Legacy:      provider.NewLegacyClient(cfg.Providers.LegacyBaseURL, httpClient),
		Snapshot:    provider.NewSnapshotClient(cfg.Providers.SnapshotBaseURL, httpClient),
		WeatherFeed: provider.NewWeatherFeedClient(cfg.Providers.WeatherBaseURL, httpClient),
		Store:       store,
		Venues:      venues,
		FreshTTL:    cfg.Cache.FreshTTL,
		StaleTTL:    cfg.Cache.StaleTTL,
		Timeout:     cfg.Providers.Timeout,
		MaxItems:    cfg.Engine.MaxRecommendations,
	}), nil
}
