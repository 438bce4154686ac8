// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/pkg/errors"

	"github.com/stakewell/swell/auth"
	"github.com/stakewell/swell/rewards"
	"github.com/stakewell/swell/schedule"
)

// Every failure aborts the whole operation with no partial mutation. Callers
// match with errors.Is and decide whether to retry with corrected parameters.
var (
	// ErrZeroAmount returned when a stake, unstake or accrual carries no value.
	ErrZeroAmount = errors.New("amount is zero")
	// ErrInsufficientBalance returned when an unstake exceeds the account's
	// staked balance.
	ErrInsufficientBalance = errors.New("insufficient staked balance")
	// ErrUnauthorized returned when a privileged call comes from neither the
	// owner nor the distributor, as appropriate.
	ErrUnauthorized = errors.New("caller not authorized")
	// ErrZeroSupply returned when an accrual finds nothing staked; the
	// proportional split would be undefined.
	ErrZeroSupply = errors.New("no staked supply")
	// ErrTimingViolation returned when an accrual arrives before the snapshot
	// delay has elapsed.
	ErrTimingViolation = errors.New("snapshot delay not elapsed")
	// ErrStakingBlocked returned when a stake lands inside the pre-accrual
	// buffer window.
	ErrStakingBlocked = errors.New("staking blocked before snapshot")
	// ErrTransfersNotAllowed returned on any attempt to move a staked
	// position between accounts. The receipt balance only changes via stake
	// and unstake.
	ErrTransfersNotAllowed = errors.New("receipt transfers not allowed")
	// ErrTransferFailed returned when the underlying token refuses a value
	// movement, typically for insufficient principal.
	ErrTransferFailed = errors.New("token transfer failed")

	ErrInvalidSnapshotID        = rewards.ErrInvalidSnapshotID
	ErrNonExistentSnapshot      = rewards.ErrNonExistentSnapshot
	ErrCannotClaimPastSnapshots = rewards.ErrCannotClaimPastSnapshots
	ErrNoRewardsToClaim         = rewards.ErrNoRewardsToClaim

	ErrInvalidDelay  = schedule.ErrInvalidDelay
	ErrInvalidBuffer = schedule.ErrInvalidBuffer

	ErrInvalidSignature  = auth.ErrInvalidSignature
	ErrDeadlineExpired   = auth.ErrDeadlineExpired
	ErrNotApprovedStaker = auth.ErrNotApprovedStaker
)

var errNilTransferor = errors.New("nil transferor")
