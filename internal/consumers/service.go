// Package consumers runs the worker-side message handling: domain event
// subscriptions, the deferred offer-expiry queue and the periodic reaper
// sweep.
package consumers

import (
	"context"

	"gatepass/internal/config"
	"gatepass/internal/database"
	"gatepass/internal/logger"
	"gatepass/internal/messaging"
	"gatepass/internal/models"
	"gatepass/internal/repository"
)

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: NewHandlers(repos),
	}, nil
}

// Repos exposes the repositories so the worker can share them with the
// business layer
func (cs *ConsumerService) Repos() *repository.Repositories {
	return cs.repos
}

// NATS exposes the messaging client for the worker's publishers
func (cs *ConsumerService) NATS() *messaging.NATSClient {
	return cs.nats
}

func (cs *ConsumerService) Start() error {
	logger.Get().Info("Starting NATS consumers...")

	if _, err := cs.nats.SubscribeQueue(models.EventEventCancelled, "consumers", cs.handlers.HandleEventCancelled); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventOfferGranted, "consumers", cs.handlers.HandleOfferGranted); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventOfferExpired, "consumers", cs.handlers.HandleOfferExpired); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventTicketsIssued, "consumers", cs.handlers.HandleTicketsIssued); err != nil {
		return err
	}

	logger.Get().Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	logger.Get().Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			logger.Get().Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			logger.Get().Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
