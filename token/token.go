// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token defines the fungible value-transfer capability the ledger
// consumes, plus a kv-backed implementation used by tests and solo mode.
package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/stakewell/swell/storage"
	"github.com/stakewell/swell/swell"
)

// Transferor moves fungible value between accounts. Transfers are atomic,
// all-or-nothing, and report insufficient funds as a false result rather
// than an error. An error means the transfer could not be attempted at all.
type Transferor interface {
	TransferFrom(from, to swell.Address, amount *big.Int) (bool, error)
}

// Token is a minimal fungible token backed by a storage context. When it
// shares the context with the ledger, its transfers commit or discard
// together with the ledger operation that triggered them.
type Token struct {
	name     string
	balances *storage.Mapping[swell.Address, *big.Int]
	supply   *storage.Uint256
}

// New creates a token bound to the context. The name namespaces its storage,
// so multiple tokens can share one context.
func New(name string, ctx *storage.Context) *Token {
	return &Token{
		name:     name,
		balances: storage.NewMapping[swell.Address, *big.Int](ctx, swell.Blake2b([]byte(name), []byte("balances"))),
		supply:   storage.NewUint256(ctx, swell.Blake2b([]byte(name), []byte("total-supply"))),
	}
}

// Name returns the token name.
func (t *Token) Name() string {
	return t.name
}

// BalanceOf returns the balance of an account.
func (t *Token) BalanceOf(addr swell.Address) (*big.Int, error) {
	return t.balances.Get(addr)
}

// TotalSupply returns the total minted supply.
func (t *Token) TotalSupply() (*big.Int, error) {
	return t.supply.Get()
}

// Mint credits an account with new supply.
func (t *Token) Mint(addr swell.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("negative mint amount")
	}
	bal, err := t.balances.Get(addr)
	if err != nil {
		return err
	}
	if err := t.balances.Set(addr, bal.Add(bal, amount)); err != nil {
		return err
	}
	return t.supply.Add(amount)
}

// TransferFrom implements Transferor.
func (t *Token) TransferFrom(from, to swell.Address, amount *big.Int) (bool, error) {
	if amount.Sign() < 0 {
		return false, errors.New("negative transfer amount")
	}
	fromBal, err := t.balances.Get(from)
	if err != nil {
		return false, err
	}
	if fromBal.Cmp(amount) < 0 {
		return false, nil
	}
	if from == to {
		return true, nil
	}
	toBal, err := t.balances.Get(to)
	if err != nil {
		return false, err
	}
	if err := t.balances.Set(from, fromBal.Sub(fromBal, amount)); err != nil {
		return false, err
	}
	if err := t.balances.Set(to, toBal.Add(toBal, amount)); err != nil {
		return false, err
	}
	return true, nil
}
