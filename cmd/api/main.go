package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/household/internal/auth"
	"github.com/MrJamesThe3rd/household/internal/config"
	"github.com/MrJamesThe3rd/household/internal/database"
	"github.com/MrJamesThe3rd/household/internal/export"
	householdHttp "github.com/MrJamesThe3rd/household/internal/http"
	exportHandler "github.com/MrJamesThe3rd/household/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/household/internal/http/importcsv"
	paymentHandler "github.com/MrJamesThe3rd/household/internal/http/payment"
	"github.com/MrJamesThe3rd/household/internal/importer"
	"github.com/MrJamesThe3rd/household/internal/payment"
	paymentStore "github.com/MrJamesThe3rd/household/internal/payment/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Auth.JWTSecret == "" {
		slog.Error("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("failed to load timezone", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()

		if err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	clock := func() time.Time { return time.Now().In(loc) }

	var (
		paymentService = payment.NewService(paymentStore.New(db), payment.WithClock(clock))
		importService  = importer.NewService()
		exportService  = export.NewService(paymentService)
		jwtService     = auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	)

	var (
		paymentH = paymentHandler.NewHandler(paymentService)
		importH  = importHandler.NewHandler(importService, paymentService)
		exportH  = exportHandler.NewHandler(exportService)
	)

	router := householdHttp.New(paymentH, importH, exportH, jwtService, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	slog.Info("starting server", "port", srv.Addr, "timezone", loc.String())

	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
