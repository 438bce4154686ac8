// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"

	"github.com/stakewell/swell/swell"
)

func RandHash() swell.Bytes32 {
	var b32 swell.Bytes32

	rand.Read(b32[:])
	return b32
}

func RandAddress() swell.Address {
	var addr swell.Address

	rand.Read(addr[:])
	return addr
}
