package main

import "github.com/urfave/cli/v2"

var (
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info, warn, error)",
		Value: "info",
	}
	monitoringPortFlag = &cli.IntFlag{
		Name:  "monitoring-port",
		Usage: "Port to serve the /metrics Prometheus endpoint on",
		Value: 8080,
	}
	chainConfigFileFlag = &cli.StringFlag{
		Name:  "chain-config-file",
		Usage: "YAML file overriding the compiled-in chain configuration",
	}
	feedRateFlag = &cli.DurationFlag{
		Name:  "feed-interval",
		Usage: "How often the synthetic gossip feed produces a new attestation",
		Value: 0, // 0 disables the synthetic feed
	}
)

var appFlags = []cli.Flag{
	verbosityFlag,
	monitoringPortFlag,
	chainConfigFileFlag,
	feedRateFlag,
}
