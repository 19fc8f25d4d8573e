package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/citecheck/internal/common"
	"github.com/joseph-ayodele/citecheck/internal/export"
	"github.com/joseph-ayodele/citecheck/internal/ocr"
	"github.com/joseph-ayodele/citecheck/internal/oracle/openai"
	"github.com/joseph-ayodele/citecheck/internal/pdfdoc"
	"github.com/joseph-ayodele/citecheck/internal/pipeline"
	"github.com/joseph-ayodele/citecheck/internal/processor"
	"github.com/joseph-ayodele/citecheck/internal/repository"
	"github.com/joseph-ayodele/citecheck/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	runs := repository.NewRunRepository(pool, logger)

	runner := ocr.ExecRunner()
	engine := ocr.NewTesseract(ocr.Config{
		Language:    cfg.Extract.TesseractLang,
		TessdataDir: cfg.Extract.TessdataDir,
	}, runner, logger)

	extractor := pipeline.NewExtractor(pipeline.Config{
		Workers:        cfg.Extract.Workers,
		MaxPages:       cfg.Extract.MaxPages,
		PageTimeout:    cfg.Extract.PageTimeout,
		MinViableChars: cfg.Extract.MinViableChars,
		Language:       cfg.Extract.TesseractLang,
	}, engine, nil, logger)

	oracleClient := openai.NewClient(openai.Config{
		APIKey:        cfg.Oracle.APIKey,
		BaseURL:       cfg.Oracle.BaseURL,
		Model:         cfg.Oracle.Model,
		Temperature:   cfg.Oracle.Temperature,
		Timeout:       cfg.Oracle.Timeout,
		MaxInputChars: cfg.Oracle.MaxInputChars,
	}, logger)

	proc := processor.NewProcessor(logger, pdfdoc.Config{DPI: cfg.Extract.DPI}, extractor, oracleClient, runner, runs)
	svc := server.NewService(logger, proc, runs, export.NewService(logger), pool, cfg.Server.MaxUploadMB)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: svc.Router(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}
