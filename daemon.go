package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ssgreg/repeat"

	"github.com/joltkin/boxoffice/internal/lib/misc"
	"github.com/joltkin/boxoffice/internal/lib/pass"
	"github.com/joltkin/boxoffice/internal/lib/router"
)

var promAvgBlockTime = promauto.NewGauge(prometheus.GaugeOpts{
	Subsystem: "boxoffice",
	Name:      "avg_block_time_seconds",
})

// Daemon watches a deployed router (and optionally a pass) instance, keeping
// its on-chain configuration fresh and republishing balance metrics, served
// over a prometheus scrape endpoint.
type Daemon struct {
	logger       *slog.Logger
	algoClient   *algod.Client
	routerClient *router.Client
	passClient   *pass.Client

	// embed mutex for locking state for members below the mutex
	sync.RWMutex
	avgBlockTime time.Duration
}

func newDaemon() *Daemon {
	return &Daemon{
		logger:       App.logger,
		algoClient:   App.algoClient,
		routerClient: App.routerClient,
		passClient:   App.passClient,
	}
}

func (d *Daemon) start(ctx context.Context, wg *sync.WaitGroup, listenPort uint64) {
	misc.Infof(d.logger, "Starting boxoffice daemon, metrics on port:%d", listenPort)

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.EscrowWatcher(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.serveMetrics(ctx, listenPort)
	}()
}

// EscrowWatcher periodically refreshes the contract configuration from chain
// (it changes on re-deploys) and republishes escrow/payee balance gauges.
func (d *Daemon) EscrowWatcher(ctx context.Context) {
	defer d.logger.Info("Exiting EscrowWatcher")
	d.logger.Info("Starting EscrowWatcher")

	// make sure avg block time is set first
	if d.setAverageBlockTime(ctx) == nil {
		promAvgBlockTime.Set(d.AverageBlockTime().Seconds())
	}
	d.refreshBalances(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(1 * time.Minute):
			// Make sure our view of the contracts is fresh in case the
			// operator re-deployed
			err := d.refetchContractState(ctx)
			if err != nil {
				// try later.
				break
			}
			d.refreshBalances(ctx)
		case <-time.After(30 * time.Minute):
			if d.setAverageBlockTime(ctx) == nil {
				promAvgBlockTime.Set(d.AverageBlockTime().Seconds())
			}
		}
	}
}

func (d *Daemon) refreshBalances(ctx context.Context) {
	if err := d.routerClient.RefreshMetrics(ctx); err != nil {
		d.logger.Warn("balance refresh error", "error", err.Error())
	}
}

func (d *Daemon) refetchContractState(ctx context.Context) error {
	err := repeat.Repeat(
		repeat.Fn(func() error {
			if err := d.routerClient.LoadState(ctx); err != nil {
				return repeat.HintTemporary(err)
			}
			if d.passClient.PassAppID != 0 {
				if err := d.passClient.LoadState(ctx); err != nil {
					return repeat.HintTemporary(err)
				}
			}
			return nil
		}),
		repeat.StopOnSuccess(),
		repeat.LimitMaxTries(10),
		repeat.FnOnError(func(err error) error {
			misc.Warnf(d.logger, "retrying fetch of contract state, error:%v", err.Error())
			return err
		}),
		repeat.WithDelay(
			repeat.SetContextHintStop(),
			(&repeat.FullJitterBackoffBuilder{
				BaseDelay: 5 * time.Second,
				MaxDelay:  10 * time.Second,
			}).Set(),
		),
	)
	return err
}

func (d *Daemon) AverageBlockTime() time.Duration {
	d.RLock()
	defer d.RUnlock()
	return d.avgBlockTime
}

func (d *Daemon) setAverageBlockTime(ctx context.Context) error {
	// Get the latest block via the algoClient.Status() call, then
	// fetch the most recent X blocks - fetching the timestamps from each and
	// determining the approximate current average block time.
	const numRounds = 10

	status, err := d.algoClient.Status().Do(ctx)
	if err != nil {
		return fmt.Errorf("unable to fetch node status: %w", err)
	}
	var blockTimes []time.Time
	for round := status.LastRound - numRounds; round < status.LastRound; round++ {
		block, err := d.algoClient.Block(round).Do(ctx)
		if err != nil {
			return fmt.Errorf("unable to fetch block in setAverageBlockTime, err:%w", err)
		}
		blockTimes = append(blockTimes, time.Unix(block.TimeStamp, 0))
	}
	var totalBlockTime time.Duration
	for i := 1; i < len(blockTimes); i++ {
		totalBlockTime += blockTimes[i].Sub(blockTimes[i-1])
	}
	d.Lock()
	d.avgBlockTime = totalBlockTime / time.Duration(len(blockTimes)-1)
	d.Unlock()
	misc.Infof(d.logger, "average block time set to:%v", d.avgBlockTime)
	return nil
}

func (d *Daemon) serveMetrics(ctx context.Context, listenPort uint64) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", listenPort),
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		d.logger.Error("metrics listener failed", "error", err.Error())
	}
}
