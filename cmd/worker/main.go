package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/kitapunya/expense-backend/config"
	"github.com/kitapunya/expense-backend/internal/bootstrap"
	"github.com/kitapunya/expense-backend/internal/collections/cache"
	"github.com/kitapunya/expense-backend/internal/sheets"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker <stats|repair|export> [email]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if !cfg.Google.Configured() {
		log.Fatal("google sheets credentials are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	clients, err := bootstrap.NewGoogleClients(ctx, cfg.Google)
	if err != nil {
		log.Fatalf("google clients: %v", err)
	}
	tables := sheets.NewGoogle(clients.Sheets, cfg.Google.MasterSpreadsheetID, clients.Limiter)
	services := bootstrap.NewServices(tables, cache.NewMemory(cfg.Cache.TTL))

	switch os.Args[1] {
	case "stats":
		err = runStats(ctx, services)
	case "repair":
		err = runRepair(ctx, services, os.Args[2:])
	case "export":
		err = runExport(ctx, services, os.Args[2:])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}
