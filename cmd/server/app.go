package main

import (
	"database/sql"
	"fmt"

	"github.com/jengzang/salesmap-backend-go/internal/database"
	"github.com/jengzang/salesmap-backend-go/internal/erp"
	"github.com/jengzang/salesmap-backend-go/internal/logger"
	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/internal/repository"
	"github.com/jengzang/salesmap-backend-go/internal/service"
)

// openStore opens the database and applies pending migrations
func openStore() (*sql.DB, *repository.SalesRepository, error) {
	db, err := database.Open(database.Config{Path: cfg.Database.Path})
	if err != nil {
		return nil, nil, err
	}
	if _, err := database.NewMigrationManager(db).RunMigrations(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, repository.NewSalesRepository(db), nil
}

// newSyncService wires the ERP client when configured
func newSyncService(repo *repository.SalesRepository) (*service.SyncService, bool) {
	if !cfg.ERP.Enabled() {
		return service.NewSyncService(nil, repo), false
	}
	client, err := erp.NewClient(cfg.ERP)
	if err != nil {
		logger.Log.WithError(err).Warn("ERP client disabled")
		return service.NewSyncService(nil, repo), false
	}
	return service.NewSyncService(client, repo), true
}

// parseRange reads --from/--to style flags
func parseRange(from, to string) (models.DateRange, error) {
	f, err := models.ParseDate(from)
	if err != nil {
		return models.DateRange{}, err
	}
	t, err := models.ParseDate(to)
	if err != nil {
		return models.DateRange{}, err
	}
	r := models.DateRange{From: f, To: t}
	return r, r.Validate()
}
