package main

import (
	"fmt"
	"os"

	"github.com/lagrosa/dpwh-estimates/internal/auth"
	"github.com/lagrosa/dpwh-estimates/internal/config"
	"github.com/lagrosa/dpwh-estimates/internal/db"
	"github.com/lagrosa/dpwh-estimates/internal/excel"
	"github.com/lagrosa/dpwh-estimates/internal/hauling"
	httphandler "github.com/lagrosa/dpwh-estimates/internal/http"
	"github.com/lagrosa/dpwh-estimates/internal/http/middleware"
	"github.com/lagrosa/dpwh-estimates/internal/logger"
	"github.com/lagrosa/dpwh-estimates/internal/pdf"
	"github.com/lagrosa/dpwh-estimates/internal/repository"
	"github.com/lagrosa/dpwh-estimates/internal/service"
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

	takeoffRepo := repository.NewTakeoffRepository(database)
	dupaRepo := repository.NewDupaRepository(database)
	rateRepo := repository.NewRateRepository(database)
	estimateRepo := repository.NewEstimateRepository(database)

	haulingTable := hauling.NewStaticTable(cfg.Pricing.HaulingRatePerUnit, nil)
	excelGenerator := excel.NewGenerator()
	pdfGenerator := pdf.NewGenerator()

	estimateService := service.NewEstimateService(
		takeoffRepo,
		dupaRepo,
		rateRepo,
		estimateRepo,
		haulingTable,
		excelGenerator,
		pdfGenerator,
		cfg,
		log,
	)
	versionService := service.NewVersionService(takeoffRepo, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(estimateService, versionService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.AllowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting estimates service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
