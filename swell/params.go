// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package swell

// Constants of the staking ledger.
const (
	// InitialSnapshotDelay minimum spacing between two reward accruals (unit: second).
	InitialSnapshotDelay uint64 = 60 * 60 * 24

	// InitialSnapshotBuffer window before the next eligible accrual during which
	// new staking is blocked (unit: second). Must never exceed the delay.
	InitialSnapshotBuffer uint64 = 60 * 60

	// SigningDomainName binds typed signatures to this ledger's signing domain.
	SigningDomainName = "Swell Staking Ledger"

	// SigningDomainVersion bumps invalidate all previously issued signatures.
	SigningDomainVersion = "1"

	// InitialStakerMessage default text a persistent-mode staker must sign.
	InitialStakerMessage = "I agree to stake on the Swell ledger."
)
