package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/spacetraders-go/internal/adapters/api"
	"github.com/andrescamacho/spacetraders-go/internal/adapters/repl"
	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
	"github.com/andrescamacho/spacetraders-go/internal/application/handlers"
	"github.com/andrescamacho/spacetraders-go/internal/application/registry"
	"github.com/andrescamacho/spacetraders-go/internal/application/strategy"
	"github.com/andrescamacho/spacetraders-go/internal/application/worker"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
	"github.com/andrescamacho/spacetraders-go/internal/domain/gamestate"
	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-go/internal/infrastructure/config"
	"github.com/andrescamacho/spacetraders-go/internal/infrastructure/database"
	"github.com/andrescamacho/spacetraders-go/internal/infrastructure/logging"
	"github.com/andrescamacho/spacetraders-go/internal/infrastructure/pidfile"
	"github.com/andrescamacho/spacetraders-go/internal/infrastructure/store"
)

var version = "dev"

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "controller",
		Short: "Runs the automated SpaceTraders fleet controller",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")

	root.AddCommand(newVersionCommand())
	root.AddCommand(newRunCommand(&configPath))
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the controller version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}

func newRunCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the worker loop and the command REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), *configPath)
		},
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New()
	ctx = logging.WithLogger(ctx, logger)

	token := os.Getenv("TOKEN")
	if token == "" {
		return fmt.Errorf("TOKEN environment variable is required")
	}

	pf := pidfile.New(cfg.Daemon.PIDFile)
	if err := pf.Acquire(); err != nil {
		return fmt.Errorf("acquire pid file: %w", err)
	}
	defer pf.Release()

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	gameStore := store.NewGormStore(db)

	gameAPI := api.NewSpaceTradersClientWithConfig(
		cfg.API.BaseURL,
		cfg.API.Retry.MaxAttempts,
		cfg.API.Retry.BackoffBase,
		5,
		60*time.Second,
		nil,
	)

	state := gamestate.New(token)
	queue := event.NewQueue(func(ev event.Event, r interface{}) {
		logging.Recover(ctx, fmt.Sprintf("subscriber for %s.%s", ev.Type, ev.Name), r)
	})
	clock := shared.NewRealClock()

	params := globalparams.New(queue, state, gameAPI, gameStore, clock)

	reg := registry.New()
	handlers.RegisterAll(reg)

	strategies := strategy.New(params)

	w := worker.New(params, reg, worker.Config{
		EmptyQueuePoll:  cfg.Daemon.EmptyQueuePoll,
		PostSuccessPace: cfg.Daemon.PostSuccessPace,
	})

	workerDone := make(chan struct{})
	workerCtx, cancelWorker := context.WithCancel(ctx)
	go func() {
		w.Run(workerCtx)
		close(workerDone)
	}()

	console := repl.New(params, reg, strategies, os.Stdout)

	if f, err := os.Open(cfg.Daemon.AutorunPath); err == nil {
		console.RunAutorun(ctx, f)
		f.Close()
	}

	console.Run(ctx, os.Stdin)

	cancelWorker()
	<-workerDone
	return nil
}
