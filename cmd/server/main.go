package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Rjn-Mjn/esp32-attendance-server/internal/attendance"
	"github.com/Rjn-Mjn/esp32-attendance-server/internal/config"
	"github.com/Rjn-Mjn/esp32-attendance-server/internal/database"
	"github.com/Rjn-Mjn/esp32-attendance-server/internal/live"
	"github.com/Rjn-Mjn/esp32-attendance-server/internal/model"
	"github.com/Rjn-Mjn/esp32-attendance-server/internal/queue"
	"github.com/Rjn-Mjn/esp32-attendance-server/internal/repository"
	"github.com/Rjn-Mjn/esp32-attendance-server/internal/server"
	queue_publisher "github.com/Rjn-Mjn/esp32-attendance-server/internal/service"
	"github.com/Rjn-Mjn/esp32-attendance-server/internal/sweeper"
)

// scanNotifier fans recognized scans out to the live hub and the
// message broker. Both paths are best-effort and never fail the scan.
type scanNotifier struct {
	hub    *live.Hub
	logger *zap.Logger
}

func (n *scanNotifier) ScanRecognized(ctx context.Context, ev model.ScanEvent, accountID uint64) {
	n.hub.Publish(ctx, ev.TagID)

	event := queue.ScanRecognizedEvent{
		TagID:     ev.TagID,
		AccountID: accountID,
		ScanTime:  ev.Time.Format(time.RFC3339),
		Source:    ev.Source,
	}
	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Publisher logs its own failures; nothing to do with the error here.
		_ = queue_publisher.PublishScanRecognized(pctx, n.logger, event)
	}()
}

func main() {
	_ = godotenv.Load() // optional .env for local runs
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Fatal("invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		// No scan can be safely processed without the store.
		logger.Fatal("store unavailable", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := live.NewHub(config.NewRedisClient(), logger.Named("live"))
	go hub.Run(ctx)
	go queue.StartScanConsumer(logger.Named("consumer"))

	shifts := repository.NewShiftRepo(db)
	svc := attendance.NewService(
		repository.NewCardRepo(db),
		shifts,
		repository.NewLogRepo(db),
		&scanNotifier{hub: hub, logger: logger.Named("notify")},
		loc,
		logger.Named("attendance"),
	)

	sw := sweeper.New(shifts, loc, logger.Named("sweeper"))
	cr := cron.New()
	if _, err := cr.AddFunc(cfg.SweepCron, func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := sw.Sweep(sctx); err != nil {
			logger.Error("absence sweep failed", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("invalid sweep schedule", zap.String("cron", cfg.SweepCron), zap.Error(err))
	}
	cr.Start()

	e := live.NewServer(hub)
	go func() {
		if err := e.Start(":" + cfg.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	logger.Info("starting",
		zap.String("env", cfg.Env),
		zap.String("tcp_port", cfg.TCPPort),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("timezone", cfg.Timezone),
		zap.String("sweep_cron", cfg.SweepCron))

	tcp := &server.TCP{
		Addr:         ":" + cfg.TCPPort,
		Handler:      svc,
		Loc:          loc,
		MaxLineBytes: cfg.MaxLineBytes,
		Logger:       logger.Named("tcp"),
	}
	if err := tcp.Serve(ctx); err != nil {
		logger.Fatal("tcp server failed", zap.Error(err))
	}

	// Drain: stop HTTP and let an in-flight sweep finish, bounded.
	shctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = e.Shutdown(shctx)
	select {
	case <-cr.Stop().Done():
	case <-shctx.Done():
	}
	logger.Info("shutdown complete")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
