package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/roivaz/azdo-pr-dashboard/internal/api"
	"github.com/roivaz/azdo-pr-dashboard/internal/azdo"
	"github.com/roivaz/azdo-pr-dashboard/internal/config"
	"github.com/roivaz/azdo-pr-dashboard/internal/db"
	"github.com/roivaz/azdo-pr-dashboard/internal/enrichment"
	"github.com/roivaz/azdo-pr-dashboard/internal/logging"
	"github.com/roivaz/azdo-pr-dashboard/internal/mcp"
	"github.com/roivaz/azdo-pr-dashboard/internal/mcp/tools"
	"github.com/roivaz/azdo-pr-dashboard/internal/poller"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Poll Azure DevOps and serve the dashboard API and MCP tools",
		RunE:  runServe,
	}
	cmd.Flags().String("listen", "", "HTTP listen address")
	cmd.Flags().String("poll-interval", "", "Delay between refreshes (e.g. 60s)")
	cmd.Flags().String("postgres-url", "", "Postgres URL for snapshot history (optional)")
	cmd.Flags().String("migrations", "", "Migrations directory (defaults to the embedded set)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	config.BindFlags(cmd.Flags())

	cfg, err := enrichment.LoadConfig()
	if err != nil {
		return err
	}
	log := logging.New(logging.NewZapLogger(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := azdo.NewClient(cfg.AzDO)
	if err != nil {
		return fmt.Errorf("create azure devops client: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []poller.Option{poller.WithMetrics(poller.NewMetrics(registry))}

	var repo *db.SnapshotRepository
	if cfg.PostgresURL != "" {
		database, err := db.Open(ctx, db.Config{
			DSN:           cfg.PostgresURL,
			Debug:         cfg.DBDebug,
			MigrationsDir: config.MigrationsDir(),
			AutoMigrate:   cfg.AutoMigrate,
			HistoryMax:    cfg.HistoryMax,
		})
		if err != nil {
			return fmt.Errorf("open snapshot history: %w", err)
		}
		defer func() {
			if cerr := database.Close(); cerr != nil {
				log.Error(cerr, "closing database")
			}
		}()
		repo = db.NewSnapshotRepository(database)
		opts = append(opts, poller.WithStore(repo))
		log.Info("snapshot history enabled", "history_max", cfg.HistoryMax)
	}

	pipeline := enrichment.NewPipeline(client, cfg.Concurrency, log)
	p := poller.New(pipeline, cfg.PollInterval, log, opts...)
	history := tools.NewDBHistoryService(repo)

	mcpServer := mcp.New(mcp.DefaultConfig(tools.NewSnapshotService(p), history))
	handler := api.NewHandler(p, history, log,
		api.WithMCP(mcp.EndpointPath, mcpServer.Handler),
		api.WithGatherer(registry),
	)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		_ = p.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("dashboard listening", "addr", cfg.ListenAddr,
			"organization", cfg.AzDO.Organization, "project", cfg.AzDO.Project)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		<-pollDone
		return err
	case err := <-errCh:
		stop()
		<-pollDone
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
