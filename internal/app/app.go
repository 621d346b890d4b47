// Package app assembles the storage, messaging and service layers from
// configuration. Both the API server and the command line tool start here.
package app

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"meloch/internal/config"
	"meloch/internal/database"
	"meloch/internal/events"
	"meloch/internal/logger"
	"meloch/internal/notification"
	"meloch/internal/services"
	"meloch/internal/store"
)

// memoryEventLimit bounds the events kept when no broker is configured.
const memoryEventLimit = 1000

// App holds the wired services.
type App struct {
	Config    *config.Config
	Publisher events.Publisher

	Users   services.UserServicer
	Ledgers services.LedgerServicer
	Cards   services.CardServicer
	Backups services.BackupServicer
	Audit   services.AuditServicer

	db *database.Manager
}

// New opens the database, migrates it and builds every service.
func New(cfg *config.Config) (*App, error) {
	dbManager, err := database.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := dbManager.Migrate(); err != nil {
		_ = dbManager.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	a := Wire(cfg, dbManager.DB(), NewPublisher(cfg))
	a.db = dbManager
	return a, nil
}

// Wire builds the services over an open database. The memory driver keeps
// ledgers in process; every other driver stores them as documents in db.
func Wire(cfg *config.Config, db *gorm.DB, pub events.Publisher) *App {
	var ledgers store.LedgerStore
	if cfg.DBDriver == config.DriverMemory {
		ledgers = store.NewMemoryStore(cfg.DefaultMonthlyBudget)
	} else {
		ledgers = store.NewGormStore(db, cfg.DefaultMonthlyBudget)
	}

	policy := notification.NewPolicy(cfg.LowBudgetThreshold)
	dispatcher := events.NewDispatcher(pub)

	users := services.NewUserService(db)
	ledgerService := services.NewLedgerService(ledgers, policy, dispatcher)
	cards := services.NewCardService(db, cfg.Currency)

	return &App{
		Config:    cfg,
		Publisher: pub,
		Users:     users,
		Ledgers:   ledgerService,
		Cards:     cards,
		Backups:   services.NewBackupService(users, ledgerService, cards),
		Audit:     services.NewAuditService(db),
	}
}

// NewPublisher connects to the broker when one is configured. Notifications
// are best effort, so an unreachable broker degrades to the in-memory
// publisher instead of failing startup.
func NewPublisher(cfg *config.Config) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.NewMemoryPublisher(memoryEventLimit)
	}
	pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingPrefix)
	if err != nil {
		logger.Get().Warnw("AMQP unavailable, budget events stay in memory", "error", err)
		return events.NewMemoryPublisher(memoryEventLimit)
	}
	logger.Get().Infow("Publishing budget events", "exchange", cfg.AMQPExchange)
	return pub
}

// Close releases the broker connection and the database pool.
func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
