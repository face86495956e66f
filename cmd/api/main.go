// Command api runs the Odoo agent HTTP server: reconciliation suggestions,
// supplier utilities, vendor-bill draft tooling and email ingestion.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/enerlind-render/odoo-agent/internal/api"
	"github.com/enerlind-render/odoo-agent/internal/application/service"
	"github.com/enerlind-render/odoo-agent/internal/clients"
	"github.com/enerlind-render/odoo-agent/internal/infrastructure/config"
	"github.com/enerlind-render/odoo-agent/internal/infrastructure/logging"
	"github.com/enerlind-render/odoo-agent/internal/infrastructure/storage"
	"github.com/enerlind-render/odoo-agent/internal/mail"
	"github.com/enerlind-render/odoo-agent/internal/odoo"
)

func main() {
	configFile := flag.String("config", "", "Configuration file path (falls back to environment)")
	flag.Parse()

	var cfg *config.Config
	if *configFile != "" {
		cfg = config.LoadOrEnvWithPath(*configFile)
	} else {
		cfg = config.LoadOrEnv()
	}

	logger := logging.NewLogger(cfg.Observability.Logging)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := storage.New(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("opening send-trace store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	odooClient := odoo.NewClient(cfg.Odoo, logger)

	var files clients.FileDownloader
	if cfg.OpenAI.APIKey != "" {
		files = clients.NewOpenAIFiles(cfg.OpenAI.APIKey)
	}

	reconService := service.NewReconService(odooClient, cfg.Recon, logger)
	billService := service.NewVendorBillService(
		mail.NewSender(cfg.SMTP), store, files, cfg.SMTP, cfg.Ingest.MaxAttachmentMB, logger)

	serverCfg := api.Config{
		Port:           cfg.API.Port,
		Token:          cfg.API.Token,
		AllowedOrigins: cfg.API.AllowedOrigins,
	}
	deps := api.Deps{
		Gateway: odooClient,
		Recon:   reconService,
		Bills:   billService,
		Linker:  store,
		Self: odoo.SelfExclusion{
			Keywords:     cfg.Ingest.SelfCompanyKeywords,
			EmailDomains: cfg.Ingest.SelfEmailDomains,
		},
	}
	server := api.NewServer(serverCfg, deps, logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
			os.Exit(1)
		}
	}
}
