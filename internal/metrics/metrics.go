package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SweepsTotal counts sweep invocations.
	SweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auction_sweeps_total",
		Help: "Number of expiration sweep invocations.",
	})

	// AuctionsSettled counts per-auction settlement outcomes, labelled by
	// the resulting status ("waiting", "cancelled") or "noop" for lost races.
	AuctionsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_settlements_total",
		Help: "Number of auctions processed by the sweeper, by outcome.",
	}, []string{"outcome"})

	// SweepItemFailures counts auctions whose settlement failed inside a sweep.
	SweepItemFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auction_sweep_item_failures_total",
		Help: "Number of per-auction failures reported by sweeps.",
	})

	// FeesCharged counts successfully charged participation fees.
	FeesCharged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auction_participation_fees_charged_total",
		Help: "Number of participation fees charged.",
	})
)

// HealthFunc reports the health of the backing store.
type HealthFunc func(ctx context.Context) error

// StartMetricsServer serves /metrics and /healthz on its own port and
// returns immediately; the server runs in a goroutine.
func StartMetricsServer(port string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
