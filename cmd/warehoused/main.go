// Command warehoused runs the HTTP API server: config load, store open,
// manager wiring, and a graceful-shutdown HTTP listener.
//
// Configuration:
//   - DATABASE_URL, JWT_SECRET, JWT_ALGORITHM, ACCESS_TOKEN_MINUTES,
//     REFRESH_TOKEN_DAYS, FRONTEND_URL, SECRET_ENCRYPTION_KEY,
//     API_V1_PREFIX, LISTEN_ADDR (see internal/config)
//   - an optional YAML overlay file passed as the first argument
//
// Grounded on johnjansen-torua/cmd/coordinator/main.go's goroutine-server
// plus os/signal shutdown pattern.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/activity"
	"github.com/raimangsxr/my-warehouse/internal/authsvc"
	"github.com/raimangsxr/my-warehouse/internal/authtoken"
	"github.com/raimangsxr/my-warehouse/internal/boxes"
	"github.com/raimangsxr/my-warehouse/internal/config"
	"github.com/raimangsxr/my-warehouse/internal/httpapi"
	"github.com/raimangsxr/my-warehouse/internal/items"
	"github.com/raimangsxr/my-warehouse/internal/membership"
	"github.com/raimangsxr/my-warehouse/internal/secretcrypt"
	"github.com/raimangsxr/my-warehouse/internal/settings"
	"github.com/raimangsxr/my-warehouse/internal/store"
	"github.com/raimangsxr/my-warehouse/internal/syncengine"
	"github.com/raimangsxr/my-warehouse/internal/transfer"
)

const shutdownGrace = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var overlayPath string
	if len(os.Args) > 1 {
		overlayPath = os.Args[1]
	}

	cfg, err := config.Load(overlayPath)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	db, err := store.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("store open failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	boxMgr := boxes.New(logger)
	itemMgr := items.New(boxMgr, logger)
	syncEngine := syncengine.New(boxMgr, itemMgr, logger)
	transferEngine := transfer.New(boxMgr, logger)
	membershipMgr := membership.New()
	issuer := authtoken.NewIssuer(cfg.JWTSecret, cfg.AccessTokenMinutes)
	authMgr := authsvc.New(issuer, cfg.RefreshTokenDays, membershipMgr)
	activitySink := activity.New(logger)

	secretBox, err := secretcrypt.New(secretcrypt.DeriveKey(cfg.SecretEncryptionKey, cfg.JWTSecret))
	if err != nil {
		logger.Error("secret box init failed", "error", err)
		os.Exit(1)
	}
	settingsMgr := settings.New(secretBox)

	server := httpapi.NewServer(httpapi.Deps{
		DB:         db.DB(),
		Logger:     logger,
		Issuer:     issuer,
		Auth:       authMgr,
		Membership: membershipMgr,
		Boxes:      boxMgr,
		Items:      itemMgr,
		Sync:       syncEngine,
		Transfer:   transferEngine,
		Activity:   activitySink,
		Settings:   settingsMgr,
	})

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(cfg.APIV1Prefix),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("warehoused listening", "addr", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
