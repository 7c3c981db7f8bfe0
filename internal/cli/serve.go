package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/planner/internal/api"
	"github.com/aristath/planner/internal/events"
	"github.com/aristath/planner/internal/logging"
	"github.com/aristath/planner/internal/persistence"
	"github.com/aristath/planner/internal/project"
)

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	// Create signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := persistence.NewSQLiteStore(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	store := persistence.NewResilientStore(db, cfg.Store, logger)
	defer store.Close()

	bus := events.NewBus()
	feed := bus.SubscribeAll(0)

	server := api.NewServer(project.NewService(store, bus), *cfg, logger)
	server.ReportStoreState(func() string { return store.State().String() })

	listener, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		bus.Close()
		return fmt.Errorf("listening on %s: %w", cfg.Server.Addr, err)
	}
	logger.Info("listening", "addr", listener.Addr().String(), "database", cfg.Database.Path)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Serve(listener)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		// The serve context is already done; give in-flight requests a fresh deadline
		err := server.Shutdown(context.Background())
		bus.Close()
		logger.Info("event bus closed",
			"dropped_schedule", bus.Dropped(events.TopicSchedule),
			"dropped_project", bus.Dropped(events.TopicProject))
		return err
	})

	g.Go(func() error {
		events.Audit(logger, feed)
		return nil
	})

	return g.Wait()
}
