package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kiryu-dev/battleship/internal/adapters/memory"
	"github.com/kiryu-dev/battleship/internal/adapters/sqlite"
	"github.com/kiryu-dev/battleship/internal/config"
	"github.com/kiryu-dev/battleship/internal/domain"
	"github.com/kiryu-dev/battleship/internal/transport/ws"
	"github.com/kiryu-dev/battleship/internal/usecase/game"
	"github.com/kiryu-dev/battleship/internal/usecase/hub"
	"github.com/kiryu-dev/battleship/internal/usecase/sweeper"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	_ = godotenv.Load()
	cfgPath := flag.String("config", "./config.yml", "path to config")
	flag.Parse()
	cfg, err := config.New(*cfgPath)
	if err != nil {
		logger.Fatal(err.Error())
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal(err.Error())
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close store: " + err.Error())
		}
	}()
	var (
		game   = game.New(cfg.Rules, logger)
		hub    = hub.New(game, store, logger)
		sweep  = sweeper.New(hub, cfg.Sweeper.Period, logger)
		server = ws.New(hub, sweep, logger,
			ws.WithAddr(cfg.Server.Addr),
			ws.WithReadHeaderTimeout(cfg.Server.ReadHeaderTimeout),
			ws.WithStoreName(cfg.Store.Driver))
	)
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	errGroup, groupCtx := errgroup.WithContext(ctx)
	errGroup.Go(func() error {
		select {
		case s := <-sigChan:
			return errors.Errorf("captured signal: %v", s)
		case <-groupCtx.Done():
			return nil
		}
	})
	errGroup.Go(func() error {
		return sweep.Run(groupCtx)
	})
	errGroup.Go(server.ListenAndServe)
	errGroup.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Info("failed to shutdown http server: " + err.Error())
		}
		return nil
	})
	if err := errGroup.Wait(); err != nil {
		logger.Info("gracefully shutting down the server: " + err.Error())
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (domain.Store, error) {
	switch cfg.Driver {
	case config.SQLiteDriver:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, errors.WithMessage(err, "open sqlite store")
		}
		return store, nil
	default:
		return memory.New(), nil
	}
}
