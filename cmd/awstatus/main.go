package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"awstatus/internal/catalog"
	"awstatus/internal/config"
	"awstatus/internal/feed"
	"awstatus/internal/observability"
	web "awstatus/internal/server"
	"awstatus/internal/store"
	"awstatus/internal/worker"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger      *zap.Logger
	dataURL     string
	servicesURL string
	timeout     time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "awstatus",
	Short: "awstatus - query AWS service health issues by service and region",
}

func newClient() *feed.Client {
	return feed.NewClient(feed.WithURLs(dataURL, servicesURL), feed.WithTimeout(timeout))
}

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the known services and their short codes",
	Run: func(cmd *cobra.Command, args []string) {
		cat := catalog.New(newClient())
		if err := cat.Refresh(context.Background()); err != nil {
			logger.Fatal("Failed to fetch service catalog", zap.Error(err))
		}

		entries := cat.Services()
		fmt.Printf("Showing %d known services:\n", len(entries))
		fmt.Println("\tShort Name                     Long Name")
		for _, e := range entries {
			fmt.Printf("\t%-30s %s\n", e.Code, e.Name)
		}
	},
}

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List the known regions and their short codes",
	Run: func(cmd *cobra.Command, args []string) {
		cat := catalog.New(newClient())
		if err := cat.Refresh(context.Background()); err != nil {
			logger.Fatal("Failed to fetch service catalog", zap.Error(err))
		}

		entries := cat.Regions()
		fmt.Printf("Showing %d known regions:\n", len(entries))
		fmt.Println("\tRegion Name          Region Code")
		for _, e := range entries {
			fmt.Printf("\t%-20s %s\n", e.Name, e.Code)
		}
	},
}

var issuesCmd = &cobra.Command{
	Use:   "issues [service and/or region]",
	Short: "Show current and archived issues, optionally filtered",
	Args:  cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		client := newClient()

		cat := catalog.New(client)
		if err := cat.Refresh(ctx); err != nil {
			logger.Fatal("Failed to fetch service catalog", zap.Error(err))
		}

		st := store.New(client, logger)
		if err := st.Refresh(ctx); err != nil {
			logger.Fatal("Failed to refresh issues", zap.Error(err))
		}

		// Each term may name a service or a region; the catalog decides.
		var service, region string
		for _, arg := range args {
			switch {
			case cat.HasService(arg):
				service = strings.ToLower(arg)
			case cat.HasRegion(arg):
				region = strings.ToLower(arg)
			default:
				logger.Fatal("Term is neither a known service nor a known region", zap.String("term", arg))
			}
		}

		result := st.Query(service, region)

		serviceLabel := "all services"
		if service != "" {
			serviceLabel, _ = cat.ServiceCode(service)
		}
		regionLabel := "all regions"
		if region != "" {
			regionLabel, _ = cat.RegionCode(region)
		}

		fmt.Printf("%d current issues, %d archived issues for %s in %s (archive spans %d days)\n",
			len(result.Current), len(result.Archived), serviceLabel, regionLabel, st.ArchiveSpanDays())

		if len(result.Current) > 0 {
			fmt.Println("\nCurrent Issues:")
			fmt.Println("---------------")
			printJSON(result.Current)
		}
		if len(result.Archived) > 0 {
			fmt.Println("\nArchived Issues:")
			fmt.Println("----------------")
			printJSON(result.Archived)
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server with periodic feed refresh",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			logger.Fatal("Failed to load config", zap.Error(err))
		}

		srvLogger, err := observability.NewLogger(cfg.LogLevel)
		if err != nil {
			logger.Fatal("Failed to build logger", zap.Error(err))
		}
		defer srvLogger.Sync()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			srvLogger.Info("Shutting down...")
			cancel()
		}()

		client := feed.NewClient(
			feed.WithURLs(cfg.DataURL, cfg.ServicesURL),
			feed.WithTimeout(cfg.FetchTimeout),
		)
		metrics := observability.NewMetrics()
		cat := catalog.New(client)
		st := store.New(client, srvLogger, store.WithMetrics(metrics))

		refresher := worker.NewRefresher(st, cat, srvLogger, cfg.RefreshInterval)
		go refresher.Start(ctx)

		srv := web.NewServer(st, cat, srvLogger)
		go func() {
			if err := srv.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				srvLogger.Error("Server stopped", zap.Error(err))
				cancel()
			}
		}()

		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			srvLogger.Error("Shutdown error", zap.Error(err))
		}
		srvLogger.Info("Goodbye!")
	},
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		logger.Fatal("Failed to render issues", zap.Error(err))
	}
	fmt.Println(string(out))
}

func main() {
	var err error
	logger, err = zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rootCmd.PersistentFlags().StringVar(&dataURL, "data-url", feed.DefaultDataURL, "URL of the status issue feed")
	rootCmd.PersistentFlags().StringVar(&servicesURL, "services-url", feed.DefaultServicesURL, "URL of the service catalog feed")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "HTTP fetch timeout")

	rootCmd.AddCommand(servicesCmd)
	rootCmd.AddCommand(regionsCmd)
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
