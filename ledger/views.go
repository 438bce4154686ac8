// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/stakewell/swell/rewards"
	"github.com/stakewell/swell/swell"
)

// Views take the same lock as the mutating operations: the staged write
// buffer is not safe to read while a mutation is in flight. They never write,
// so they neither commit nor discard.

// BalanceOf returns the account's current staked balance.
func (l *Ledger) BalanceOf(account swell.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hist.Balance(account)
}

// TotalSupply returns the current total staked supply.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hist.TotalSupply()
}

// checkSnapshotID bounds id to the allocated range for history queries.
func (l *Ledger) checkSnapshotID(id uint64) error {
	current, err := l.rew.CurrentID()
	if err != nil {
		return err
	}
	if id == 0 || id > current {
		return ErrNonExistentSnapshot
	}
	return nil
}

// BalanceOfAt returns the account balance as of the given snapshot.
func (l *Ledger) BalanceOfAt(account swell.Address, id uint64) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkSnapshotID(id); err != nil {
		return nil, err
	}
	return l.hist.BalanceAt(account, id)
}

// TotalSupplyAt returns the total staked supply as of the given snapshot.
func (l *Ledger) TotalSupplyAt(id uint64) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.checkSnapshotID(id); err != nil {
		return nil, err
	}
	return l.hist.TotalSupplyAt(id)
}

// CurrentSnapshotID returns the latest allocated snapshot id, 0 if none.
func (l *Ledger) CurrentSnapshotID() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rew.CurrentID()
}

// RewardAt returns the total amount accrued at the snapshot.
func (l *Ledger) RewardAt(id uint64) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rew.RewardAt(id)
}

// RewardOfAt returns the account's share of the accrual at the snapshot.
func (l *Ledger) RewardOfAt(account swell.Address, id uint64) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rew.RewardOfAt(account, id)
}

// RewardOfInRange sums the account's shares over [start, end] inclusive.
func (l *Ledger) RewardOfInRange(account swell.Address, start, end uint64) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rew.RewardOfInRange(account, start, end)
}

// PendingRewards returns the account's unclaimed rewards from its cursor
// through the latest snapshot.
func (l *Ledger) PendingRewards(account swell.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rew.Pending(account)
}

// LifetimeRewards returns the account's total entitlement over every
// snapshot, claimed or not.
func (l *Ledger) LifetimeRewards(account swell.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rew.Lifetime(account)
}

// ClaimedRewards returns the account's lifetime paid-out total.
func (l *Ledger) ClaimedRewards(account swell.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rew.Paid(account)
}

// ClaimCursor returns the account's claim cursor, 0 if it never staked.
func (l *Ledger) ClaimCursor(account swell.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rew.Cursor(account)
}

// RewardSnapshots returns the full accrual history in order.
func (l *Ledger) RewardSnapshots() ([]rewards.Accrual, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rew.Snapshots()
}

// CanAccrue reports whether the snapshot delay has elapsed.
func (l *Ledger) CanAccrue() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sched.CanAccrue(l.now())
}

// CanStake reports whether staking is outside the blackout window.
func (l *Ledger) CanStake() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sched.CanStake(l.now())
}

// NextSnapshotTime returns the earliest time the next accrual may land.
func (l *Ledger) NextSnapshotTime() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sched.NextSnapshotTime()
}

// TimeUntilNextSnapshot returns seconds until the next eligible accrual,
// 0 if already eligible.
func (l *Ledger) TimeUntilNextSnapshot() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sched.TimeUntilNextSnapshot(l.now())
}

// LastSnapshotTime returns the time of the latest accrual.
func (l *Ledger) LastSnapshotTime() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sched.LastSnapshotTime()
}

// SnapshotDelay returns the minimum spacing between accruals.
func (l *Ledger) SnapshotDelay() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sched.Delay()
}

// SnapshotBuffer returns the pre-accrual staking blackout window.
func (l *Ledger) SnapshotBuffer() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sched.Buffer()
}

// Owner returns the admin identity.
func (l *Ledger) Owner() (swell.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner.Get()
}

// Distributor returns the accrual-privileged identity.
func (l *Ledger) Distributor() (swell.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.distributor.Get()
}

// StakerMessage returns the text a persistent-mode staker must sign.
func (l *Ledger) StakerMessage() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gate.Message()
}

// IsApprovedStaker reports whether the account holds a persistent approval.
func (l *Ledger) IsApprovedStaker(account swell.Address) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gate.IsApproved(account)
}

// Nonce returns the account's next expected authorization nonce.
func (l *Ledger) Nonce(account swell.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gate.Nonce(account)
}
