// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cry provides signing, signer recovery and typed structured-data
// hashing for ledger authorizations.
package cry

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/stakewell/swell/swell"
)

// SignatureLength is the byte length of a [R || S || V] signature.
const SignatureLength = 65

// Sign signs a 32-byte message hash and returns the signature in
// [R || S || V] format, V being 0 or 1.
func Sign(msgHash swell.Bytes32, priv *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(msgHash.Bytes(), priv)
	if err != nil {
		return nil, errors.Wrap(err, "sign")
	}
	return sig, nil
}

// Signer recovers the signer address from a message hash and signature.
func Signer(msgHash swell.Bytes32, sig []byte) (swell.Address, error) {
	if len(sig) != SignatureLength {
		return swell.Address{}, errors.New("invalid signature length")
	}
	pub, err := crypto.SigToPub(msgHash.Bytes(), sig)
	if err != nil {
		return swell.Address{}, errors.Wrap(err, "recover signer")
	}
	return swell.Address(crypto.PubkeyToAddress(*pub)), nil
}
