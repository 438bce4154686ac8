// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/stakewell/swell/swell"
)

// Status is the ledger-wide view.
type Status struct {
	CurrentSnapshotID uint64                `json:"currentSnapshotId"`
	TotalSupply       *math.HexOrDecimal256 `json:"totalSupply"`
	AuthMode          string                `json:"authMode"`
	Distributor       swell.Address         `json:"distributor"`
}

// Schedule is the snapshot timing view.
type Schedule struct {
	LastSnapshotTime      uint64 `json:"lastSnapshotTime"`
	SnapshotDelay         uint64 `json:"snapshotDelay"`
	SnapshotBuffer        uint64 `json:"snapshotBuffer"`
	NextSnapshotTime      uint64 `json:"nextSnapshotTime"`
	TimeUntilNextSnapshot uint64 `json:"timeUntilNextSnapshot"`
	CanAccrue             bool   `json:"canAccrue"`
	CanStake              bool   `json:"canStake"`
}

// Account is the per-account view.
type Account struct {
	Address         swell.Address         `json:"address"`
	Balance         *math.HexOrDecimal256 `json:"balance"`
	ClaimCursor     uint64                `json:"claimCursor"`
	PendingRewards  *math.HexOrDecimal256 `json:"pendingRewards"`
	LifetimeRewards *math.HexOrDecimal256 `json:"lifetimeRewards"`
	ClaimedRewards  *math.HexOrDecimal256 `json:"claimedRewards"`
	Approved        bool                  `json:"approved"`
	Nonce           uint64                `json:"nonce"`
}

// Snapshot is one accrual event.
type Snapshot struct {
	ID          uint64                `json:"id"`
	Amount      *math.HexOrDecimal256 `json:"amount"`
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply,omitempty"`
}

// StakeRequest stakes principal. Deadline and Signature are only meaningful
// when the ledger runs a signature-based authorization mode.
type StakeRequest struct {
	Account   swell.Address         `json:"account"`
	Amount    *math.HexOrDecimal256 `json:"amount"`
	Deadline  uint64                `json:"deadline,omitempty"`
	Signature hexutil.Bytes         `json:"signature,omitempty"`
}

// UnstakeRequest returns principal to the account.
type UnstakeRequest struct {
	Account swell.Address         `json:"account"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

// AccrueRequest deposits rewards and allocates the next snapshot.
type AccrueRequest struct {
	Caller swell.Address         `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// AccrueResponse reports the allocated snapshot id.
type AccrueResponse struct {
	SnapshotID uint64 `json:"snapshotId"`
}

// ClaimRequest pays out pending rewards. A zero Start/End claims everything
// pending; a non-zero pair claims the sub-range [start, end].
type ClaimRequest struct {
	Account swell.Address `json:"account"`
	Start   uint64        `json:"start,omitempty"`
	End     uint64        `json:"end,omitempty"`
}

// ClaimResponse reports the paid amount.
type ClaimResponse struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// ApproveRequest grants a persistent staking approval.
type ApproveRequest struct {
	Account   swell.Address `json:"account"`
	Signature hexutil.Bytes `json:"signature"`
}
