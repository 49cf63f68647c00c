package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/walletd/walletd/internal/config"
	"github.com/walletd/walletd/internal/core/application"
	"github.com/walletd/walletd/internal/interfaces"
	httpinterface "github.com/walletd/walletd/internal/interfaces/http"
	wsinterface "github.com/walletd/walletd/internal/interfaces/ws"
	dbbadger "github.com/walletd/walletd/internal/infrastructure/storage/badger"
	"github.com/walletd/walletd/pkg/stats"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	var (
		datadir         = config.GetDatadir()
		dbDir           = config.GetDbDir()
		peerAddress     = fmt.Sprintf(":%d", config.GetInt(config.PeerListeningPortKey))
		operatorAddress = fmt.Sprintf(":%d", config.GetInt(config.OperatorListeningPortKey))
		queueSize       = config.GetInt(config.PeerQueueSizeKey)
		profilerEnabled = config.GetBool(config.EnableProfilerKey)
		statsInterval   = time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
		walletInfo      = config.GetWalletInfo()
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if profilerEnabled {
		stats.EnableMemoryStatistics(ctx, statsInterval)
		defer dumpHeapProfile(filepath.Join(datadir, config.ProfilerLocation))
	}

	repo, err := dbbadger.NewSessionRepository(dbDir, log.StandardLogger())
	if err != nil {
		log.WithError(err).Fatal("failed to open session store")
	}
	defer repo.Close()

	session, err := application.LoadSession(ctx, repo, application.SessionOpts{
		CurrentNetwork: config.GetString(config.NetworkKey),
		Wallet:         &walletInfo,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to load session")
	}
	defer session.Close()

	handle := application.NewHandle(session)

	peerSvc, err := wsinterface.NewService(wsinterface.ServiceOpts{
		Address:   peerAddress,
		Handle:    handle,
		QueueSize: queueSize,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create peer interface")
	}
	operatorSvc, err := httpinterface.NewOperatorService(
		httpinterface.OperatorServiceOpts{
			Address: operatorAddress,
			Handle:  handle,
		},
	)
	if err != nil {
		log.WithError(err).Fatal("failed to create operator interface")
	}

	services := []interfaces.Service{peerSvc, operatorSvc}
	g := &errgroup.Group{}
	for _, svc := range services {
		svc := svc
		g.Go(svc.Start)
	}
	if err := g.Wait(); err != nil {
		for _, svc := range services {
			svc.Stop()
		}
		log.WithError(err).Fatal("failed to start daemon")
	}
	defer operatorSvc.Stop()
	defer peerSvc.Stop()

	log.Info("walletd started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down daemon")
}

func dumpHeapProfile(dir string) {
	f, err := os.Create(filepath.Join(dir, "heap.prof"))
	if err != nil {
		log.WithError(err).Warn("failed to create heap profile")
		return
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		log.WithError(err).Warn("failed to write heap profile")
	}
}
