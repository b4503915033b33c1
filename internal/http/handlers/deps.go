package handlers

import (
	"github.com/jmoiron/sqlx"

	"smarttrade/internal/config"
	"smarttrade/internal/repos"
	"smarttrade/internal/services"
	"smarttrade/internal/sync"
)

type Deps struct {
	ProductHandler  *ProductHandler
	SaleHandler     *SaleHandler
	ReportHandler   *ReportHandler
	SyncHandler     *SyncHandler
	SettingsHandler *SettingsHandler

	// Drainer is owned here so main can run its loop and tests can reach it.
	Drainer *sync.Drainer
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	productRepo := repos.NewProductRepo(db)
	saleRepo := repos.NewSaleRepo(db)
	outboxRepo := repos.NewOutboxRepo(db)
	settingsRepo := repos.NewSettingsRepo(db)

	settingsSvc := services.NewSettingsService(settingsRepo)
	productSvc := services.NewProductService(db, productRepo, saleRepo, outboxRepo, settingsSvc)
	saleSvc := services.NewSaleService(db, productRepo, saleRepo, outboxRepo)
	reportSvc := services.NewReportService(db)

	var remote sync.Remote
	if cfg.SyncEnabled() {
		remote = sync.NewHTTPRemote(cfg.RemoteURL, cfg.RemoteAPIKey, cfg.RemoteTimeout)
	}
	drainer := sync.NewDrainer(db, outboxRepo, productRepo, saleRepo, settingsSvc, remote,
		sync.Options{
			Interval:   cfg.SyncInterval,
			MaxRetries: cfg.SyncMaxRetries,
			RetryDelay: cfg.SyncRetryDelay,
		})

	return &Deps{
		ProductHandler:  &ProductHandler{Products: productSvc},
		SaleHandler:     &SaleHandler{Sales: saleSvc},
		ReportHandler:   &ReportHandler{Reports: reportSvc, Settings: settingsSvc, Drainer: drainer},
		SyncHandler:     &SyncHandler{Drainer: drainer},
		SettingsHandler: &SettingsHandler{Settings: settingsSvc},
		Drainer:         drainer,
	}
}
