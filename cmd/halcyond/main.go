package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/halcyon-wallet/halcyond/internal/config"
	"github.com/halcyon-wallet/halcyond/internal/core/application/minter"
	"github.com/halcyon-wallet/halcyond/internal/core/application/progress"
	"github.com/halcyon-wallet/halcyond/internal/core/application/sender"
	"github.com/halcyon-wallet/halcyond/internal/core/domain"
	dbbadger "github.com/halcyon-wallet/halcyond/internal/infrastructure/storage/db/badger"
	"github.com/halcyon-wallet/halcyond/internal/infrastructure/vault"
	"github.com/halcyon-wallet/halcyond/internal/interfaces/ws"
	"github.com/halcyon-wallet/halcyond/pkg/explorer"
)

func main() {
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
	if err := config.Validate(); err != nil {
		log.WithError(err).Panic("invalid configuration")
	}

	datadir := config.GetString(config.DatadirKey)

	dbManager, err := dbbadger.NewDbManager(datadir, nil)
	if err != nil {
		log.WithError(err).Panic("failed to open wallet db")
	}
	defer dbManager.Close()
	walletRepo := dbbadger.NewWalletRepositoryImpl(dbManager)

	vaultSvc, err := vault.NewVault(datadir, nil)
	if err != nil {
		log.WithError(err).Panic("failed to open vault")
	}
	defer vaultSvc.Close()

	explorerSvc, err := explorer.NewService(explorer.Opts{
		APIURL: config.GetString(config.ExplorerURLKey),
	})
	if err != nil {
		log.WithError(err).Panic("failed to connect to explorer")
	}
	defer explorerSvc.Close()

	registry := domain.NewJobRegistry()
	emitter := progress.NewEmitter()
	limiter := rate.NewLimiter(rate.Limit(config.GetInt(config.SubmitRateKey)), 1)

	minterSvc := minter.NewService(minter.Opts{
		Registry:     registry,
		KeySource:    vaultSvc,
		ExplorerSvc:  explorerSvc,
		Publisher:    emitter,
		BatchSize:    config.GetInt(config.BatchSizeKey),
		PollInterval: config.GetDuration(config.PollIntervalKey),
		PollTimeout:  config.GetDuration(config.PollTimeoutKey),
		Limiter:      limiter,
	})
	senderSvc := sender.NewService(sender.Opts{
		KeySource:   vaultSvc,
		ExplorerSvc: explorerSvc,
		Limiter:     limiter,
	})

	handler := ws.NewHandler(ws.Opts{
		MinterSvc:   minterSvc,
		SenderSvc:   senderSvc,
		Emitter:     emitter,
		VaultSvc:    vaultSvc,
		WalletRepo:  walletRepo,
		ExplorerSvc: explorerSvc,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", config.GetInt(config.WSPortKey))
	mux := http.NewServeMux()
	mux.Handle("/ws", handler)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Debugf("ipc interface is listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Panic("error listening on ipc interface")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down")

	// Ask every running job to stop at its next batch boundary and give the
	// schedulers a moment to reach it.
	for _, jobId := range registry.ActiveIds() {
		if err := registry.RequestStop(jobId); err != nil {
			log.WithError(err).Warnf("failed to stop job %s", jobId)
		}
	}
	waitForJobs(registry, 30*time.Second)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("forced ipc shutdown")
	}

	log.Debug("exiting")
}

func waitForJobs(registry *domain.JobRegistry, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for len(registry.ActiveIds()) > 0 {
		if time.Now().After(deadline) {
			log.Warnf(
				"%d job(s) still active after %s, exiting anyway",
				len(registry.ActiveIds()), timeout,
			)
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}
