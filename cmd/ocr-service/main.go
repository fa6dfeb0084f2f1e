package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/engine"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/events"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/handler"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/pipeline"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/preprocess"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/repository"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/service"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/storage"
	"github.com/bitaqa/bitaqa-backend/pkg/config"
	"github.com/bitaqa/bitaqa-backend/pkg/database"
	"github.com/bitaqa/bitaqa-backend/pkg/httputil"
	"github.com/bitaqa/bitaqa-backend/pkg/logger"
	"github.com/bitaqa/bitaqa-backend/pkg/messaging"
)

// Finished jobs stay pollable this long before the store drops them.
const jobTTL = 15 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("ocr-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("ocr-service", cfg.Server.Environment)
	log.Info().Msg("starting OCR Service")

	// Optional scan-audit database
	var db *database.DB
	var auditRepo *repository.AuditRepository
	if cfg.Database.Enabled {
		db, err = database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		auditRepo = repository.NewAuditRepository(db)
	}

	// Optional event broker
	var rmq *messaging.RabbitMQ
	var publisher *events.ScanEventPublisher
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewScanEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	}

	// Optional write-only archive
	archive, err := storage.NewArchive(cfg.Archive.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize archive")
	}

	// OCR engines in precedence order
	engines := engine.NewSet(
		engine.NewTesseract(engine.TesseractConfig{
			TessdataPrefix: cfg.OCR.TessdataPrefix,
			Languages:      cfg.OCR.Languages,
			PageSegMode:    cfg.OCR.PageSegMode,
		}),
		engine.NewEasyOCR(engine.EasyOCRConfig{
			BaseURL:        cfg.OCR.EasyOCRURL,
			Timeout:        cfg.OCR.EngineTimeout,
			TextThreshold:  cfg.OCR.TextThreshold,
			LowTextBound:   cfg.OCR.LowTextBound,
			WidthThreshold: cfg.OCR.WidthThreshold,
		}),
	)
	log.Info().Strs("engines", engineNames(engines)).Msg("engines configured")

	// Extraction pipeline and scan service
	pl := pipeline.New(engines, preprocess.Options{
		BlurRadius:      cfg.Preprocess.BlurRadius,
		SharpenStrength: cfg.Preprocess.SharpenStrength,
		EdgeThreshold:   uint8(cfg.Preprocess.EdgeThreshold),
		MinWidth:        cfg.Preprocess.MinWidth,
		SplitRegions:    cfg.Preprocess.SplitRegions,
	}, log)
	store := storage.NewScanStore(jobTTL)
	svc := service.NewService(pl, store, archive, auditRepo, publisher, log)
	scanHandler := handler.NewHandler(svc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":  "healthy",
			"service": "ocr-service",
		}
		if db != nil {
			health["database"] = db.Health(r.Context())
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	// Scan endpoints
	r.Route("/api/v1", func(r chi.Router) {
		scanHandler.Routes(r)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func engineNames(set *engine.Set) []string {
	names := set.Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
