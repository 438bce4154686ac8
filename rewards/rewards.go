// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rewards implements the ordered accrual log, per-account claim
// cursors and the proportional reward calculator over historical balances.
package rewards

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/stakewell/swell/history"
	"github.com/stakewell/swell/storage"
	"github.com/stakewell/swell/swell"
)

var (
	// ErrInvalidSnapshotID returned for snapshot id 0, which is never allocated.
	ErrInvalidSnapshotID = errors.New("snapshot id 0 is invalid")
	// ErrNonExistentSnapshot returned when a snapshot id is out of the allocated range.
	ErrNonExistentSnapshot = errors.New("snapshot does not exist")
	// ErrCannotClaimPastSnapshots returned when a claim range starts before the cursor.
	ErrCannotClaimPastSnapshots = errors.New("cannot claim past snapshots")
	// ErrNoRewardsToClaim returned when the computed payout is zero.
	ErrNoRewardsToClaim = errors.New("no rewards to claim")
)

// Accrual is one entry of the reward accrual log.
type Accrual struct {
	SnapshotID uint64
	Amount     *big.Int
}

type snapshotID uint64

func (i snapshotID) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(i))
	return b[:]
}

// Service is the reward accrual log and claim cursor store.
type Service struct {
	hist *history.Service

	count   *storage.Uint64
	amounts *storage.Mapping[snapshotID, *big.Int]
	cursors *storage.Mapping[swell.Address, uint64]
	paid    *storage.Mapping[swell.Address, *big.Int]
}

// New creates the rewards service on the given storage context.
func New(ctx *storage.Context, hist *history.Service) *Service {
	return &Service{
		hist:    hist,
		count:   storage.NewUint64(ctx, swell.Blake2b([]byte("rewards-count"))),
		amounts: storage.NewMapping[snapshotID, *big.Int](ctx, swell.Blake2b([]byte("rewards-amounts"))),
		cursors: storage.NewMapping[swell.Address, uint64](ctx, swell.Blake2b([]byte("rewards-cursors"))),
		paid:    storage.NewMapping[swell.Address, *big.Int](ctx, swell.Blake2b([]byte("rewards-paid"))),
	}
}

// CurrentID returns the latest allocated snapshot id, 0 if none.
func (s *Service) CurrentID() (uint64, error) {
	return s.count.Get()
}

// Append allocates the next snapshot id and records the accrued amount under
// it. This is the only place snapshot ids come from.
func (s *Service) Append(amount *big.Int) (uint64, error) {
	current, err := s.count.Get()
	if err != nil {
		return 0, err
	}
	id := current + 1
	if err := s.amounts.Set(snapshotID(id), amount); err != nil {
		return 0, err
	}
	if err := s.count.Set(id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Service) checkID(id uint64) error {
	if id == 0 {
		return ErrInvalidSnapshotID
	}
	current, err := s.count.Get()
	if err != nil {
		return err
	}
	if id > current {
		return ErrNonExistentSnapshot
	}
	return nil
}

// RewardAt returns the total amount accrued at the given snapshot.
func (s *Service) RewardAt(id uint64) (*big.Int, error) {
	if err := s.checkID(id); err != nil {
		return nil, err
	}
	return s.amounts.Get(snapshotID(id))
}

// RewardOfAt returns the account's proportional share of the accrual at the
// given snapshot, using the balances in effect at that instant. Division
// truncates; the remainder is bounded dust, not an error.
func (s *Service) RewardOfAt(account swell.Address, id uint64) (*big.Int, error) {
	accrued, err := s.RewardAt(id)
	if err != nil {
		return nil, err
	}
	balance, err := s.hist.BalanceAt(account, id)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return new(big.Int), nil
	}
	supply, err := s.hist.TotalSupplyAt(id)
	if err != nil {
		return nil, err
	}
	if supply.Sign() == 0 {
		// accruals require staked supply, so an allocated id always has one
		return nil, errors.New("zero supply at allocated snapshot")
	}
	share := new(big.Int).Mul(accrued, balance)
	return share.Div(share, supply), nil
}

// RewardOfInRange sums RewardOfAt over [start, end] inclusive. Linear in the
// range length: balances are only observable at snapshot granularity, so a
// running reward-per-share accumulator would be unsound.
func (s *Service) RewardOfInRange(account swell.Address, start, end uint64) (*big.Int, error) {
	if start == 0 {
		return nil, ErrInvalidSnapshotID
	}
	if start > end {
		return nil, ErrNonExistentSnapshot
	}
	if err := s.checkID(end); err != nil {
		return nil, err
	}

	total := new(big.Int)
	for id := start; id <= end; id++ {
		share, err := s.RewardOfAt(account, id)
		if err != nil {
			return nil, err
		}
		total.Add(total, share)
	}
	return total, nil
}

// Cursor returns the smallest snapshot id not yet incorporated into the
// account's claimed total. 0 means the account never staked.
func (s *Service) Cursor(account swell.Address) (uint64, error) {
	return s.cursors.Get(account)
}

// InitCursor sets the cursor of a first-time staker. The cursor lands on the
// current snapshot id (not current+1): the account's balance at any existing
// snapshot is zero, so the overlap contributes nothing.
func (s *Service) InitCursor(account swell.Address) error {
	cursor, err := s.cursors.Get(account)
	if err != nil {
		return err
	}
	if cursor != 0 {
		return nil
	}
	current, err := s.count.Get()
	if err != nil {
		return err
	}
	if current == 0 {
		current = 1
	}
	return s.cursors.Set(account, current)
}

// AdvanceCursor moves the account cursor to the given position.
func (s *Service) AdvanceCursor(account swell.Address, cursor uint64) error {
	return s.cursors.Set(account, cursor)
}

// RecordPayout adds to the account's lifetime paid-out total.
func (s *Service) RecordPayout(account swell.Address, amount *big.Int) error {
	total, err := s.paid.Get(account)
	if err != nil {
		return err
	}
	return s.paid.Set(account, total.Add(total, amount))
}

// Paid returns the account's lifetime paid-out total.
func (s *Service) Paid(account swell.Address) (*big.Int, error) {
	return s.paid.Get(account)
}

// Pending returns the account's unclaimed rewards from its cursor through the
// latest snapshot.
func (s *Service) Pending(account swell.Address) (*big.Int, error) {
	cursor, err := s.cursors.Get(account)
	if err != nil {
		return nil, err
	}
	current, err := s.count.Get()
	if err != nil {
		return nil, err
	}
	if cursor == 0 || cursor > current {
		return new(big.Int), nil
	}
	return s.RewardOfInRange(account, cursor, current)
}

// Lifetime returns the account's total entitlement over every snapshot,
// claimed or not.
func (s *Service) Lifetime(account swell.Address) (*big.Int, error) {
	current, err := s.count.Get()
	if err != nil {
		return nil, err
	}
	if current == 0 {
		return new(big.Int), nil
	}
	return s.RewardOfInRange(account, 1, current)
}

// Snapshots returns the full accrual history in order.
func (s *Service) Snapshots() ([]Accrual, error) {
	current, err := s.count.Get()
	if err != nil {
		return nil, err
	}
	list := make([]Accrual, 0, current)
	for id := uint64(1); id <= current; id++ {
		amount, err := s.amounts.Get(snapshotID(id))
		if err != nil {
			return nil, err
		}
		list = append(list, Accrual{SnapshotID: id, Amount: amount})
	}
	return list, nil
}
