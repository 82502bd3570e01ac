package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kitapunya/expense-backend/config"
	httpapi "github.com/kitapunya/expense-backend/internal/api/http"
	"github.com/kitapunya/expense-backend/internal/auth"
	"github.com/kitapunya/expense-backend/internal/bootstrap"
	"github.com/kitapunya/expense-backend/internal/collections/cache"
	collsvc "github.com/kitapunya/expense-backend/internal/collections/service"
	"github.com/kitapunya/expense-backend/internal/housekeeping"
	"github.com/kitapunya/expense-backend/internal/metrics"
	"github.com/kitapunya/expense-backend/internal/sheets"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)

	var (
		tables sheets.Tables = sheets.Unconfigured{}
		stat   httpapi.MasterStat
	)
	if cfg.Google.Configured() {
		clients, err := bootstrap.NewGoogleClients(ctx, cfg.Google)
		if err != nil {
			log.Fatalf("google clients: %v", err)
		}
		tables = sheets.NewGoogle(clients.Sheets, cfg.Google.MasterSpreadsheetID, clients.Limiter)
		stat = sheets.NewDriveStat(clients.Drive, cfg.Google.MasterSpreadsheetID)
		log.Printf("google sheets configured (master=%s)", cfg.Google.MasterSpreadsheetID)
	} else {
		log.Println("google sheets credentials missing, running in not-configured mode")
	}

	var (
		handles collsvc.HandleCache
		sweeper housekeeping.CacheSweeper
	)
	if cfg.Cache.RedisAddr != "" {
		client, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()
		handles = cache.NewRedis(client, cfg.Cache.TTL)
	} else {
		mem := cache.NewMemory(cfg.Cache.TTL)
		handles, sweeper = mem, mem
	}

	services := bootstrap.NewServices(tables, handles)

	var verifiers auth.Chain
	if cfg.Google.ClientID != "" {
		verifiers = append(verifiers, auth.NewGoogleVerifier(cfg.Google.ClientID))
	}
	if cfg.Firebase.CredentialsPath != "" {
		client, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
		verifiers = append(verifiers, auth.NewFirebaseVerifier(client))
	}
	var verifier auth.Verifier
	if len(verifiers) > 0 {
		verifier = verifiers
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "expense-backend",
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SpreadsheetID:  cfg.Google.MasterSpreadsheetID,
		Configured:     cfg.Google.Configured(),
		Services:       services,
		Stat:           stat,
		Verifier:       verifier,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	var stats housekeeping.DirectoryStats
	if cfg.Google.Configured() {
		stats = services.Directory
	}
	scheduler := housekeeping.NewScheduler(sweeper, stats)
	if err := scheduler.Start(cfg.Cache.SweepSpec); err != nil {
		log.Fatalf("scheduler: %v", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s (env=%s, cache=%s)", cfg.Server.Port, cfg.App.Environment, handles.Name())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	<-scheduler.Stop().Done()
	log.Println("server stopped")
}
