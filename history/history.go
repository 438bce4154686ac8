// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package history implements the append-only, versioned balance store backing
// point-in-time queries.
//
// A balance written while the current snapshot id is c takes effect from
// snapshot c+1: snapshot c was frozen before the write happened. Multiple
// writes under one current id collapse into a single checkpoint. Lookups run
// in time logarithmic in the number of changes for the account, not in the
// number of snapshots.
package history

import (
	"encoding/binary"
	"math/big"
	"sort"

	"github.com/stakewell/swell/cache"
	"github.com/stakewell/swell/storage"
	"github.com/stakewell/swell/swell"
)

const lookupCacheSize = 8192

// Checkpoint records the balance in effect after the last mutation made while
// ID was the current snapshot id.
type Checkpoint struct {
	ID    uint64
	Value *big.Int
}

type supplyKey struct{}

func (supplyKey) Bytes() []byte { return []byte("total-supply") }

// Service is the balance history store.
type Service struct {
	accounts *storage.Mapping[swell.Address, []Checkpoint]
	supply   *storage.Mapping[supplyKey, []Checkpoint]

	// point-in-time values are immutable once the queried snapshot exists,
	// so resolved lookups can be cached without invalidation
	lookups *cache.LRU
}

// New creates the history service on the given storage context.
func New(ctx *storage.Context) *Service {
	lookups, _ := cache.NewLRU(lookupCacheSize)
	return &Service{
		accounts: storage.NewMapping[swell.Address, []Checkpoint](ctx, swell.Blake2b([]byte("history-accounts"))),
		supply:   storage.NewMapping[supplyKey, []Checkpoint](ctx, swell.Blake2b([]byte("history-supply"))),
		lookups:  lookups,
	}
}

func appendCheckpoint(list []Checkpoint, currentID uint64, value *big.Int) []Checkpoint {
	cp := Checkpoint{ID: currentID, Value: new(big.Int).Set(value)}
	if n := len(list); n > 0 && list[n-1].ID == currentID {
		list[n-1] = cp
		return list
	}
	return append(list, cp)
}

// RecordVersion commits a new balance version for the account together with
// the new total supply, effective from snapshot currentID+1.
func (s *Service) RecordVersion(account swell.Address, newBalance, newTotalSupply *big.Int, currentID uint64) error {
	accList, err := s.accounts.Get(account)
	if err != nil {
		return err
	}
	if err := s.accounts.Set(account, appendCheckpoint(accList, currentID, newBalance)); err != nil {
		return err
	}

	supplyList, err := s.supply.Get(supplyKey{})
	if err != nil {
		return err
	}
	return s.supply.Set(supplyKey{}, appendCheckpoint(supplyList, currentID, newTotalSupply))
}

// valueAt finds the checkpoint in effect as of snapshot id: the one with the
// largest ID ≤ id−1. Queries beyond the last version return the latest value.
func valueAt(list []Checkpoint, id uint64) *big.Int {
	idx := sort.Search(len(list), func(i int) bool {
		return list[i].ID >= id
	})
	if idx == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(list[idx-1].Value)
}

func lookupKey(tag byte, account swell.Address, id uint64) string {
	var buf [1 + swell.AddressLength + 8]byte
	buf[0] = tag
	copy(buf[1:], account.Bytes())
	binary.BigEndian.PutUint64(buf[1+swell.AddressLength:], id)
	return string(buf[:])
}

// Balance returns the account's latest balance. Never cached: the latest
// value is mutable and may include uncommitted writes.
func (s *Service) Balance(account swell.Address) (*big.Int, error) {
	list, err := s.accounts.Get(account)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return new(big.Int), nil
	}
	return new(big.Int).Set(list[len(list)-1].Value), nil
}

// TotalSupply returns the latest total staked supply. Never cached.
func (s *Service) TotalSupply() (*big.Int, error) {
	list, err := s.supply.Get(supplyKey{})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return new(big.Int), nil
	}
	return new(big.Int).Set(list[len(list)-1].Value), nil
}

// BalanceAt returns the account balance as of the given snapshot id.
// The caller is responsible for ensuring 1 ≤ id ≤ current snapshot id.
func (s *Service) BalanceAt(account swell.Address, id uint64) (*big.Int, error) {
	v, err := s.lookups.GetOrLoad(lookupKey('a', account, id), func(any) (any, error) {
		list, err := s.accounts.Get(account)
		if err != nil {
			return nil, err
		}
		return valueAt(list, id), nil
	})
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(v.(*big.Int)), nil
}

// TotalSupplyAt returns the total staked supply as of the given snapshot id.
// The caller is responsible for ensuring 1 ≤ id ≤ current snapshot id.
func (s *Service) TotalSupplyAt(id uint64) (*big.Int, error) {
	v, err := s.lookups.GetOrLoad(lookupKey('s', swell.Address{}, id), func(any) (any, error) {
		list, err := s.supply.Get(supplyKey{})
		if err != nil {
			return nil, err
		}
		return valueAt(list, id), nil
	})
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(v.(*big.Int)), nil
}
