package stats

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
	GIGABYTE
)

var (
	// Notifications counts the notifications broadcast to peers, by method
	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "walletd",
		Name:      "notifications_total",
		Help:      "Number of notifications broadcast to connected peers.",
	}, []string{"method"})
	// PeerSendFailures counts the notifications that could not be delivered
	// to a peer
	PeerSendFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "walletd",
		Name:      "peer_send_failures_total",
		Help:      "Number of failed deliveries to a single peer.",
	})
	// Peers is the number of currently registered peers
	Peers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "walletd",
		Name:      "peers",
		Help:      "Number of connected peers.",
	})
	// Transitions counts the session transitions by kind and by whether they
	// changed an observable value
	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "walletd",
		Name:      "transitions_total",
		Help:      "Number of committed session transitions.",
	}, []string{"kind", "changed"})
	// PersistenceFailures counts the failed writes of the session state
	PersistenceFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "walletd",
		Name:      "persistence_failures_total",
		Help:      "Number of failed session writes.",
	})
)

func init() {
	prometheus.MustRegister(
		Notifications, PeerSendFailures, Peers, Transitions, PersistenceFailures,
	)
}

// EnableMemoryStatistics enables go routine that periodically prints memory
// usage of the go process.
func EnableMemoryStatistics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				PrintMemoryStatistics()
				PrintNumOfRoutines()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// toMegabytes returns given memory in bytes to megabytes.
func toMegabytes(bytes uint64) float64 {
	return float64(bytes) / MEGABYTE
}

// PrintMemoryStatistics prints memory statistics using go runtime library.
func PrintMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.WithFields(log.Fields{
		"total_alloc_mb": toMegabytes(memStats.TotalAlloc),
		"heap_alloc_mb":  toMegabytes(memStats.HeapAlloc),
		"mallocs":        memStats.Mallocs,
		"frees":          memStats.Frees,
	}).Info("memory statistics")
}

// PrintNumOfRoutines prints number of go routines currently running
func PrintNumOfRoutines() {
	log.Infof("num of go routines: %v", runtime.NumGoroutine())
}
