package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/driftmail/outreach/internal/config"
	"github.com/driftmail/outreach/internal/pkg/logger"
	"github.com/driftmail/outreach/internal/queue"
	"github.com/driftmail/outreach/internal/suppression"
	"github.com/driftmail/outreach/internal/worker"
)

func main() {
	log.Println("Starting outreach worker...")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadFromEnv(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.RedactPIIEnabled())

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	q, err := queue.NewFromURL(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")

	suppress := suppression.NewStore(db)

	transport, err := worker.NewSESTransport(cfg.SES.AccessKey, cfg.SES.SecretKey, cfg.SES.Region)
	if err != nil {
		log.Fatalf("Failed to initialize SES transport: %v", err)
	}
	log.Printf("SES transport initialized (region %s)", cfg.SES.Region)

	scheduler := worker.NewCampaignScheduler(db, q, suppress)
	scheduler.SetTickInterval(cfg.Scheduler.SchedulerTick())

	sendPool := worker.NewSendWorkerPool(db, q, suppress, transport, cfg.Scheduler.SendWorkers)
	bounces := worker.NewBounceProcessor(db, q, suppress)
	replies := worker.NewReplyProcessor(db, nil)

	warmupEngine := worker.NewWarmupEngine(db, q)
	warmupEngine.SetTickInterval(cfg.Warmup.WarmupTick())
	warmupConsumer := worker.NewWarmupConsumer(db, q, transport)

	shifter := worker.NewVariantShifter(db, q)
	health := worker.NewHealthMonitor(db, q)
	dailyReset := worker.NewDailyResetWorker(db, q)
	recovery := worker.NewQueueRecovery(db, q)

	type runner interface {
		Start() error
		Stop()
		Stats() map[string]int64
	}
	workers := []struct {
		name string
		r    runner
	}{
		{"campaign_scheduler", scheduler},
		{"send_workers", sendPool},
		{"bounce_processor", bounces},
		{"warmup_engine", warmupEngine},
		{"warmup_consumer", warmupConsumer},
		{"variant_shifter", shifter},
		{"health_monitor", health},
		{"daily_reset", dailyReset},
		{"queue_recovery", recovery},
	}
	for _, w := range workers {
		if err := w.r.Start(); err != nil {
			log.Fatalf("Failed to start %s: %v", w.name, err)
		}
	}
	log.Printf("All %d workers started", len(workers))

	ops := worker.NewOpsServer(db, q, replies, suppress)
	for _, w := range workers {
		ops.AddSource(w.name, w.r)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      ops.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		log.Printf("Ops server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Ops server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)

	// Stop in reverse order so consumers drain after producers quit.
	for i := len(workers) - 1; i >= 0; i-- {
		workers[i].r.Stop()
	}

	log.Println("Worker stopped")
}
