package main

import (
	"fmt"
	"os"

	"github.com/landbridge/contract-ledger/internal/auth"
	"github.com/landbridge/contract-ledger/internal/config"
	"github.com/landbridge/contract-ledger/internal/db"
	"github.com/landbridge/contract-ledger/internal/excel"
	httphandler "github.com/landbridge/contract-ledger/internal/http"
	"github.com/landbridge/contract-ledger/internal/http/middleware"
	"github.com/landbridge/contract-ledger/internal/logger"
	"github.com/landbridge/contract-ledger/internal/pdf"
	"github.com/landbridge/contract-ledger/internal/repository"
	"github.com/landbridge/contract-ledger/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	contractRepo := repository.NewContractRepository(database)
	baselineRepo := repository.NewBaselineRepository(database)
	changeRequestRepo := repository.NewChangeRequestRepository(database)
	eventRepo := repository.NewEventRepository(database)

	statementGenerator := excel.NewGenerator()
	appendixGenerator := pdf.NewGenerator()

	baselineService := service.NewBaselineService(contractRepo, baselineRepo, log)
	contractService := service.NewContractService(contractRepo, baselineService, log)
	ledgerService := service.NewLedgerService(contractRepo, changeRequestRepo, eventRepo, baselineRepo, statementGenerator, log)
	changeRequestService := service.NewChangeRequestService(contractRepo, changeRequestRepo, eventRepo, baselineService, appendixGenerator, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(contractService, baselineService, ledgerService, changeRequestService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.Ledger.AllowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting contract ledger service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
