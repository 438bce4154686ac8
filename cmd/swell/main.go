// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/stakewell/swell/api"
	"github.com/stakewell/swell/kv"
	"github.com/stakewell/swell/ledger"
	"github.com/stakewell/swell/log"
	"github.com/stakewell/swell/metrics"
	"github.com/stakewell/swell/storage"
	"github.com/stakewell/swell/token"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Swell",
		Usage:     "Node of the Swell staking ledger",
		Copyright: "2025 The Swell developers",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableAPILogsFlag,
			pprofFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "solo",
				Usage: "Swell ledger for test & dev, pre-funded accounts, no config required",
				Flags: []cli.Flag{
					dataDirFlag,
					apiAddrFlag,
					apiCorsFlag,
					persistFlag,
					verbosityFlag,
					jsonLogsFlag,
					enableAPILogsFlag,
					pprofFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					enableAdminFlag,
					adminAddrFlag,
				},
				Action: soloAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	cfgPath := ctx.String(configFlag.Name)
	if cfgPath == "" {
		fatal(fmt.Sprintf("no config file, use -%v to specify one", configFlag.Name))
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fatal("load config:", err)
	}

	dataDir := makeDataDir(ctx)
	mainDB := openMainDB(dataDir)
	defer func() { logger.Info("closing ledger database..."); mainDB.Close() }()

	l, err := buildLedger(mainDB, cfg)
	if err != nil {
		fatal("build ledger:", err)
	}

	return serve(ctx, l, logLevel, dataDir)
}

// buildLedger assembles a ledger over the store. Funding entries are minted
// only on a fresh store; reopening keeps the persisted balances untouched.
func buildLedger(db kv.GetPutter, cfg *Config) (*ledger.Ledger, error) {
	ledgerAddr, err := cfg.ledgerAddress()
	if err != nil {
		return nil, err
	}
	owner, err := cfg.ownerAddress()
	if err != nil {
		return nil, err
	}
	distributor, err := cfg.distributorAddress()
	if err != nil {
		return nil, err
	}
	mode, err := cfg.authMode()
	if err != nil {
		return nil, err
	}

	sctx := storage.NewContext(db)
	principal := token.New("principal", sctx)
	reward := token.New("reward", sctx)

	supply, err := principal.TotalSupply()
	if err != nil {
		return nil, err
	}
	if supply.Sign() == 0 {
		for _, entry := range cfg.Funding {
			account, err := parseConfigAddress("funding.account", entry.Account)
			if err != nil {
				return nil, err
			}
			pAmount, err := parseConfigAmount("funding.principal", entry.Principal)
			if err != nil {
				return nil, err
			}
			rAmount, err := parseConfigAmount("funding.reward", entry.Reward)
			if err != nil {
				return nil, err
			}
			if pAmount.Sign() > 0 {
				if err := principal.Mint(account, pAmount); err != nil {
					return nil, err
				}
			}
			if rAmount.Sign() > 0 {
				if err := reward.Mint(account, rAmount); err != nil {
					return nil, err
				}
			}
			logger.Info("funded account", "account", account, "principal", pAmount, "reward", rAmount)
		}
	}

	return ledger.New(sctx, ledger.Options{
		Address:     ledgerAddr,
		Owner:       owner,
		Distributor: distributor,
		AuthMode:    mode,
		Principal:   principal,
		Reward:      reward,
		Delay:       cfg.SnapshotDelay,
		Buffer:      cfg.SnapshotBuffer,
	})
}

func serve(ctx *cli.Context, l *ledger.Ledger, logLevel *slog.LevelVar, dataDir string) error {
	apiHandler := api.New(l, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
	})
	apiSrv, apiURL := startAPIServer(ctx, apiHandler)
	defer func() { logger.Info("stopping API server..."); apiSrv.Shutdown(context.Background()) }()

	if ctx.Bool(enableMetricsFlag.Name) {
		metricsSrv, metricsURL := startMetricsServer(ctx)
		defer func() { logger.Info("stopping metrics server..."); metricsSrv.Shutdown(context.Background()) }()
		logger.Info("metrics server started", "url", metricsURL)
	}

	if ctx.Bool(enableAdminFlag.Name) {
		adminSrv, adminURL := startAdminServer(ctx, l, logLevel)
		defer func() { logger.Info("stopping admin server..."); adminSrv.Shutdown(context.Background()) }()
		logger.Info("admin server started", "url", adminURL)
	}

	printStartupMessage(l, dataDir, apiURL)

	<-handleExitSignal().Done()
	return nil
}

func printStartupMessage(l *ledger.Ledger, dataDir string, apiURL string) {
	fmt.Printf(`Starting Swell %v
    Ledger       [ %v ]
    Auth mode    [ %v ]
    Data dir     [ %v ]
    API portal   [ %v ]
`,
		fullVersion(),
		l.Address(),
		l.AuthMode(),
		dataDir,
		apiURL)
}
