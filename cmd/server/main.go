package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"macro-calendar/internal/app"
	"macro-calendar/internal/bot"
	"macro-calendar/internal/config"
	"macro-calendar/internal/handler"
	"macro-calendar/internal/job"
	"macro-calendar/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "macro-calendar/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initTracerFunc         = tracing.InitTracer
	newArchiveFunc         = app.NewArchive
	newCalendarServiceFunc = app.NewCalendarService
	newRefresherFunc       = job.NewCalendarRefresher
	startRefresherFunc     = func(r *job.CalendarRefresher, ctx context.Context) { go r.Start(ctx) }
	newBrieferFunc         = app.NewBriefer
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Macro Calendar API
// @version         1.0
// @description     Economic calendar of market-moving events extracted from financial news.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, tracing.ServiceName)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	archive, closeArchive := newArchiveFunc(ctx, cfg, tracer)
	defer closeArchive()

	calendarService := newCalendarServiceFunc(ctx, cfg, tracer, archive)

	// Keep the cache warm in the background (disabled when interval is 0)
	refresher := newRefresherFunc(tracer, calendarService, cfg.CalendarRefreshSecs)
	startRefresherFunc(refresher, ctx)

	startTelegramBotFunc(cfg.TelegramBotToken, calendarService, newBrieferFunc(cfg, tracer))

	h := newHandlerFunc(tracer, calendarService, cfg.AdminAPIKey)
	if archive != nil {
		h.WithHistory(archive)
	}

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	r.Use(handler.RequestID())

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		log.Printf("HTTP server listening on %s", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
