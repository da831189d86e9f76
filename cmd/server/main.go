package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"noveldigest/internal/ai"
	"noveldigest/internal/books"
	"noveldigest/internal/events"
	"noveldigest/internal/history"
	"noveldigest/internal/logger"
	"noveldigest/internal/scraper"
	"noveldigest/internal/summaries"
	"noveldigest/internal/watch"
	"noveldigest/pkg/models"
	"noveldigest/pkg/storage"
	"noveldigest/pkg/utils"
)

func main() {
	cfg := utils.Load()

	log := logger.New(envLogLevel(), cfg.Development())
	defer func() { _ = log.Sync() }()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal("data dir unavailable", logger.String("dir", cfg.DataDir), logger.Error(err))
	}
	if err := os.MkdirAll(cfg.ImageDir, 0o755); err != nil {
		log.Fatal("image dir unavailable", logger.String("dir", cfg.ImageDir), logger.Error(err))
	}

	bookCol, err := storage.Open[models.Book](filepath.Join(cfg.DataDir, "books.json"))
	if err != nil {
		log.Fatal("book store open failed", logger.Error(err))
	}
	summaryCol, err := storage.Open[models.Summary](filepath.Join(cfg.DataDir, "summaries.json"))
	if err != nil {
		log.Fatal("summary store open failed", logger.Error(err))
	}
	historyCol, err := storage.Open[models.HistoryEntry](filepath.Join(cfg.DataDir, "history.json"))
	if err != nil {
		log.Fatal("history store open failed", logger.Error(err))
	}

	bookRepo := books.NewRepo(bookCol)
	summaryRepo := summaries.NewRepo(summaryCol)
	historyRepo := history.NewRepo(historyCol)

	hub := events.NewHub()

	fetcher := scraper.NewFetcher(30 * time.Second)
	extractor := scraper.NewExtractor()
	contentExtractor := scraper.NewContentExtractor(fetcher)

	summarizer := ai.NewSummarizer(cfg.SummarizerKey)
	illustrator := ai.NewIllustrator(cfg.IllustratorKey, cfg.ImageDir)
	if !summarizer.Enabled() {
		log.Warn("no summarizer credential, chapters will be tracked without summaries")
	}

	runner := watch.NewRunner(
		bookRepo, summaryRepo, historyRepo,
		fetcher, extractor, contentExtractor,
		summarizer, illustrator,
		hub, log,
		cfg.BookDelay, cfg.ChapterDelay,
	)
	cleaner := watch.NewCleaner(summaryRepo, historyRepo, log)

	if cfg.Development() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"bookStore": bookCol.Path(),
			"running":   runner.Running(),
			"wsClients": hub.Count(),
		})
	})
	router.GET("/ws", events.Handler(hub, log))
	router.Static("/images", cfg.ImageDir)

	api := router.Group("/api")
	books.NewHandler(bookRepo, runner).RegisterRoutes(api)
	summaries.NewHandler(summaryRepo).RegisterRoutes(api)
	history.NewHandler(historyRepo).RegisterRoutes(api)

	api.POST("/cleanup", func(c *gin.Context) {
		var req struct {
			MaxAgeDays int `json:"maxAgeDays"`
		}
		_ = c.ShouldBindJSON(&req)
		if req.MaxAgeDays <= 0 {
			req.MaxAgeDays = cfg.RetentionDays
		}
		result, err := cleaner.Cleanup(req.MaxAgeDays)
		if err != nil {
			if errors.Is(err, watch.ErrInvalidAge) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cleanup failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := watch.NewScheduler(
		runner, cleaner, log,
		cfg.CheckInterval, cfg.DigestInterval, cfg.CleanupInterval,
		cfg.RetentionDays,
	)
	scheduler.Start(ctx)

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", logger.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", logger.Error(err))
	}

	cancel()
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", logger.Error(err))
	}
	log.Info("server stopped")
}

func envLogLevel() string {
	if v := os.Getenv("NOVELDIGEST_LOG_LEVEL"); v != "" {
		return v
	}
	return "info"
}
