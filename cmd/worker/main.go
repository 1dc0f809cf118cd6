package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"gatepass/internal/clock"
	"gatepass/internal/config"
	"gatepass/internal/consumers"
	"gatepass/internal/logger"
	"gatepass/internal/scheduler"
	"gatepass/internal/service"
)

// The worker process owns everything that runs off the request path: the
// deferred offer-expiry queue, the periodic reaper sweep and the NATS
// consumers.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	cfg.NATS.ClientID = "gatepass-worker"
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	consumerService, err := consumers.NewConsumerService(cfg)
	if err != nil {
		logger.Fatal("Failed to create consumer service", "error", err)
	}

	repos := consumerService.Repos()
	nats := consumerService.NATS()
	clk := clock.NewSystem()

	schedulerClient := scheduler.NewClient(cfg.Scheduler)
	defer schedulerClient.Close()

	// the expiry handler needs the same admission controller the API uses
	waitingList := service.NewWaitingListService(repos, repos.Events, repos.Tickets,
		repos.WaitingList, schedulerClient, nats, clk, cfg.OfferDuration)

	taskServer := scheduler.NewServer(cfg.Scheduler, waitingList)
	reaper := consumers.NewReaper(repos.WaitingList, nats, clk, cfg.ReaperInterval)

	if err := consumerService.Start(); err != nil {
		logger.Fatal("Failed to start consumers", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return taskServer.Run()
	})

	g.Go(func() error {
		err := reaper.Run(gctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		taskServer.Shutdown()
		return nil
	})

	logger.Get().Info("Worker started")

	if err := g.Wait(); err != nil {
		logger.Get().Error("Worker exited with error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := consumerService.Shutdown(shutdownCtx); err != nil {
		logger.Get().Error("Error during shutdown", "error", err)
	}

	logger.Get().Info("Worker stopped")
}
