package main

import (
	"fmt"
	"os"

	"github.com/omkarpat/dcr-service/internal/auth"
	"github.com/omkarpat/dcr-service/internal/config"
	"github.com/omkarpat/dcr-service/internal/db"
	"github.com/omkarpat/dcr-service/internal/excel"
	httphandler "github.com/omkarpat/dcr-service/internal/http"
	"github.com/omkarpat/dcr-service/internal/http/middleware"
	"github.com/omkarpat/dcr-service/internal/logger"
	"github.com/omkarpat/dcr-service/internal/pdf"
	"github.com/omkarpat/dcr-service/internal/repository"
	"github.com/omkarpat/dcr-service/internal/service"
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

	dcrRepo := repository.NewDCRRepository(database)
	formRepo := repository.NewFormRepository(database)
	rateRepo := repository.NewRateRepository(database)

	dcrService := service.NewDCRService(dcrRepo, formRepo)
	formService := service.NewFormService(formRepo)
	reportService := service.NewReportService(dcrRepo, formRepo, rateRepo)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(dcrService, formService, reportService, excel.NewGenerator(), pdf.NewGenerator(), log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting dcr service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
