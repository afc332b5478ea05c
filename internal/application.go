package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-core/internal/config"
	"github.com/rocketscienceinc/tictactoe-core/internal/repository"
	"github.com/rocketscienceinc/tictactoe-core/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-core/internal/service"
	"github.com/rocketscienceinc/tictactoe-core/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-core/transport/rest"
)

var ErrAddrNotFound = errors.New("redis host is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Redis.Host == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	stateRepo := repository.NewStateRepository(redisStorage)
	botService := service.NewBotService(logger)
	sessionService := service.NewSessionService(logger, stateRepo, botService, service.SessionOptions{
		AIPlayer: tictactoe.Player(conf.Game.AIPlayer()),
		ManualAI: conf.Game.ManualAI,
	})

	router := rest.NewRouter(rest.NewHandlers(logger, sessionService))

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return rest.Start(ctx, log, conf.HTTPPort, router)
	})

	log.Info("Application started", "aiMark", conf.Game.AIMark, "manualAI", conf.Game.ManualAI)

	if err = errg.Wait(); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}
