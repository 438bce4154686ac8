// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"crypto/ecdsa"
	"fmt"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/stakewell/swell/kv"
	"github.com/stakewell/swell/metrics"
	"github.com/stakewell/swell/swell"
)

// DevAccount account for development.
type DevAccount struct {
	Address    swell.Address
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts atomic.Value

// DevAccounts returns pre-funded accounts for solo mode.
func DevAccounts() []DevAccount {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]DevAccount)
	}

	var accs []DevAccount
	privKeys := []string{
		"99f0500549792796c14fed62011a51081dc5b5e68fe8bd8a13b86be829c4fd36",
		"7b067f53d350f1cf20ea13df416a7a05b0ea31c3c3dd5f481a3d8c7c5bfd33c7",
		"f4a1a17039216f535d42ec23732c79943ffb45a089fbb6a16b7ff41e8a20fbf3",
		"35b5cc144faca7d7f220fca7ad3420090861d5231d80eb23e1013426847371c4",
		"10c851d8d6c6ed9e6f625742063f292f4cf57c2dbeea8099fa3aca53ef90aef1",
		"2dd2c5b5d65913214783a6bd5679d8c6ef29ca9f2e2eae98b4add061d0b85ea0",
		"e1b72a1761ae189c10ec3783dd124b902ffd8c6b93cd9f0c6f583ef2952e5f0e",
		"35cabff76656ada72396f4fd1b4b14bd94b3b21a2c92161dced74cc6db3fd9a1",
		"b639c258292096306d2f60bc1a8da9bc434ad37f15cd44ee9a2526685f592220",
		"9d68178cdc934178cca0a0051f40ed46be153cf23cb1805b59cc612c0ad2bbe0",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		addr := crypto.PubkeyToAddress(pk.PublicKey)
		accs = append(accs, DevAccount{swell.Address(addr), pk})
	}
	devAccounts.Store(accs)
	return accs
}

// soloConfig funds every dev account and wires the first one as both owner
// and distributor. The short schedule keeps dev accrual cycles fast.
func soloConfig() *Config {
	accs := DevAccounts()
	cfg := &Config{
		Ledger:         swell.BytesToAddress([]byte("solo-ledger")).String(),
		Owner:          accs[0].Address.String(),
		Distributor:    accs[0].Address.String(),
		AuthMode:       "none",
		SnapshotDelay:  60,
		SnapshotBuffer: 10,
	}
	for _, acc := range accs {
		cfg.Funding = append(cfg.Funding, FundingEntry{
			Account:   acc.Address.String(),
			Principal: "1000000000000000000000000",
			Reward:    "1000000000000000000000000",
		})
	}
	return cfg
}

func soloAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	var mainDB kv.GetPutCloser
	var dataDir string
	if ctx.Bool(persistFlag.Name) {
		dataDir = makeDataDir(ctx)
		mainDB = openMainDB(dataDir)
	} else {
		dataDir = "Memory"
		mainDB = openMemMainDB()
	}
	defer func() { logger.Info("closing ledger database..."); mainDB.Close() }()

	l, err := buildLedger(mainDB, soloConfig())
	if err != nil {
		fatal("build ledger:", err)
	}

	for i, acc := range DevAccounts() {
		fmt.Printf("Dev account %v [ %v ]\n", i, acc.Address)
	}
	return serve(ctx, l, logLevel, dataDir)
}
