// Command attestation-pool-demo drives the attestation pool end to end
// without a network: it loads configuration, starts the pool's slot
// ticker, serves Prometheus metrics, and optionally feeds the pool a
// synthetic stream of attestations.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/prysmaticlabs/attestation-pool/beacon-chain/operations/attestations"
	"github.com/prysmaticlabs/attestation-pool/config/params"
)

var log = logrus.WithField("prefix", "main")

func run(cliCtx *cli.Context) error {
	level, err := logrus.ParseLevel(cliCtx.String(verbosityFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid verbosity level: %w", err)
	}
	logrus.SetLevel(level)

	if path := cliCtx.String(chainConfigFileFlag.Name); path != "" {
		if err := params.LoadChainConfigFile(path); err != nil {
			return fmt.Errorf("could not load chain config file: %w", err)
		}
	}

	genesis := time.Now()
	svc := attestations.NewService(cliCtx.Context, &attestations.Config{
		Pool:        attestations.NewPool(),
		GenesisTime: genesis,
	})
	svc.Start()
	defer func() {
		if err := svc.Stop(); err != nil {
			log.WithError(err).Error("Error stopping attestation pool service")
		}
	}()

	port := cliCtx.Int(monitoringPortFlag.Name)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		log.WithField("port", port).Info("Serving metrics")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Metrics server stopped unexpectedly")
		}
	}()
	defer server.Shutdown(context.Background())

	if interval := cliCtx.Duration(feedRateFlag.Name); interval > 0 {
		go runSyntheticFeed(cliCtx.Context, svc.Pool(), interval, genesis)
	}

	<-cliCtx.Context.Done()
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:   "attestation-pool-demo",
		Usage:  "runs the attestation pool against a synthetic gossip feed",
		Flags:  appFlags,
		Action: run,
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
