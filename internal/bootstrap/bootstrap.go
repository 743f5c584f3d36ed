// Package bootstrap wires a config.Config into a ready evaluation.Service.
// Both binaries share it.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mind-engage/mindengage-evalreports/internal/config"
	"github.com/mind-engage/mindengage-evalreports/internal/db"
	"github.com/mind-engage/mindengage-evalreports/internal/evaluation"
	"github.com/mind-engage/mindengage-evalreports/internal/observability"
	"github.com/mind-engage/mindengage-evalreports/internal/portal"
	"github.com/mind-engage/mindengage-evalreports/internal/sqlsource"
)

// OpenSource returns the configured data source and a func releasing it.
func OpenSource(ctx context.Context, cfg config.Config, logger *slog.Logger) (evaluation.Source, func() error, error) {
	switch cfg.Source {
	case config.SourceSQL:
		drv, err := db.ParseDriver(cfg.DBDriver)
		if err != nil {
			return nil, nil, err
		}
		dbh, err := db.Open(ctx, drv, cfg.DBDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db open: %w", err)
		}
		return &sqlsource.Store{DB: dbh, Logger: logger}, dbh.Close, nil

	case config.SourcePortal, "":
		c, err := portal.New(portal.Config{
			BaseURL:      cfg.Portal.BaseURL,
			Token:        cfg.Portal.Token,
			TokenURL:     cfg.Portal.TokenURL,
			ClientID:     cfg.Portal.ClientID,
			ClientSecret: cfg.Portal.ClientSecret,
			Timeout:      cfg.Portal.Timeout,
			PageSize:     cfg.Portal.PageSize,
		})
		if err != nil {
			return nil, nil, err
		}
		c.Logger = logger
		return c, func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown source %q", cfg.Source)
}

// NewService builds the loader and service for src. reg may be nil.
func NewService(cfg config.Config, src evaluation.Source, reg prometheus.Registerer, logger *slog.Logger) *evaluation.Service {
	var m *observability.Metrics
	if reg != nil {
		m = observability.NewMetrics(reg)
	}
	loader := evaluation.NewLoader(src, m, logger)
	loader.Concurrency = cfg.FetchConcurrency
	loader.FetchTimeout = cfg.FetchTimeout

	svc := evaluation.NewService(loader, cfg.Location(), nil, logger)
	svc.TemplateID = cfg.TemplateID
	return svc
}
