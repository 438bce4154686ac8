// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cry

import (
	"encoding/binary"
	"math/big"

	"github.com/stakewell/swell/swell"
)

// Type hashes of the structured messages the ledger accepts.
var (
	domainTypeHash  = swell.Keccak256([]byte("Domain(string name,string version,address ledger)"))
	approveTypeHash = swell.Keccak256([]byte("ApproveStaker(bytes32 messageHash)"))
	stakeTypeHash   = swell.Keccak256([]byte("Stake(uint64 nonce,uint64 deadline,uint256 amount)"))
)

// Domain separates signatures of one ledger deployment from any other.
type Domain struct {
	Name    string
	Version string
	Ledger  swell.Address
}

// Separator returns the domain separator hash.
func (d *Domain) Separator() swell.Bytes32 {
	return swell.Keccak256(
		domainTypeHash.Bytes(),
		swell.Keccak256([]byte(d.Name)).Bytes(),
		swell.Keccak256([]byte(d.Version)).Bytes(),
		d.Ledger.Bytes(),
	)
}

// typedHash computes keccak(0x19 0x01 ‖ domainSeparator ‖ structHash),
// binding the struct hash to the signing domain.
func typedHash(domain *Domain, structHash swell.Bytes32) swell.Bytes32 {
	return swell.Keccak256(
		[]byte{0x19, 0x01},
		domain.Separator().Bytes(),
		structHash.Bytes(),
	)
}

// ApproveStakerHash is the digest a staker signs to approve the given
// message text under the domain.
func ApproveStakerHash(domain *Domain, message string) swell.Bytes32 {
	structHash := swell.Keccak256(
		approveTypeHash.Bytes(),
		swell.Keccak256([]byte(message)).Bytes(),
	)
	return typedHash(domain, structHash)
}

// StakeHash is the digest a staker signs to authorize a single stake of the
// given amount, scoped to the account nonce and a deadline.
func StakeHash(domain *Domain, nonce uint64, deadline uint64, amount *big.Int) swell.Bytes32 {
	var nonceBytes, deadlineBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	binary.BigEndian.PutUint64(deadlineBytes[:], deadline)

	structHash := swell.Keccak256(
		stakeTypeHash.Bytes(),
		nonceBytes[:],
		deadlineBytes[:],
		swell.Keccak256(amount.Bytes()).Bytes(),
	)
	return typedHash(domain, structHash)
}
