// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"gopkg.in/yaml.v3"

	"github.com/stakewell/swell/auth"
	"github.com/stakewell/swell/swell"
)

// FundingEntry seeds an account with principal and reward balance at boot.
// Amounts accept decimal or 0x-prefixed hex strings.
type FundingEntry struct {
	Account   string `yaml:"account"`
	Principal string `yaml:"principal"`
	Reward    string `yaml:"reward"`
}

// Config is the yaml node configuration.
type Config struct {
	Ledger         string         `yaml:"ledger"`
	Owner          string         `yaml:"owner"`
	Distributor    string         `yaml:"distributor"`
	AuthMode       string         `yaml:"authMode"`
	SnapshotDelay  uint64         `yaml:"snapshotDelay"`
	SnapshotBuffer uint64         `yaml:"snapshotBuffer"`
	Funding        []FundingEntry `yaml:"funding"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config [%v]: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) ledgerAddress() (swell.Address, error) {
	return parseConfigAddress("ledger", c.Ledger)
}

func (c *Config) ownerAddress() (swell.Address, error) {
	return parseConfigAddress("owner", c.Owner)
}

func (c *Config) distributorAddress() (swell.Address, error) {
	return parseConfigAddress("distributor", c.Distributor)
}

func (c *Config) authMode() (auth.Mode, error) {
	if c.AuthMode == "" {
		return auth.ModeNone, nil
	}
	return auth.ParseMode(c.AuthMode)
}

func parseConfigAddress(field, value string) (swell.Address, error) {
	if value == "" {
		return swell.Address{}, fmt.Errorf("config field '%v' is required", field)
	}
	addr, err := swell.ParseAddress(value)
	if err != nil {
		return swell.Address{}, fmt.Errorf("config field '%v': %w", field, err)
	}
	return *addr, nil
}

func parseConfigAmount(field, value string) (*big.Int, error) {
	if value == "" {
		return new(big.Int), nil
	}
	amount, ok := math.ParseBig256(value)
	if !ok {
		return nil, fmt.Errorf("config field '%v': invalid amount '%v'", field, value)
	}
	return amount, nil
}
