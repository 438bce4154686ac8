// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auth

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakewell/swell/cry"
	"github.com/stakewell/swell/kv"
	"github.com/stakewell/swell/storage"
	"github.com/stakewell/swell/swell"
)

func newGate(t *testing.T, mode Mode) (*Gate, *storage.Context) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	ctx := storage.NewContext(db)
	domain := &cry.Domain{
		Name:    swell.SigningDomainName,
		Version: swell.SigningDomainVersion,
		Ledger:  swell.BytesToAddress([]byte("ledger")),
	}
	gate := New(mode, domain, ctx)
	require.NoError(t, gate.SetMessage(swell.InitialStakerMessage))
	return gate, ctx
}

func accountOf(priv *ecdsa.PrivateKey) swell.Address {
	return swell.Address(crypto.PubkeyToAddress(priv.PublicKey))
}

func TestModeNone(t *testing.T) {
	gate, _ := newGate(t, ModeNone)

	acc := swell.BytesToAddress([]byte("anyone"))
	assert.NoError(t, gate.AuthorizeStake(acc))
	assert.ErrorIs(t, gate.AuthorizeStakeWithSig(acc, big.NewInt(1), 100, nil, 50), ErrUnsupportedMode)
	assert.ErrorIs(t, gate.ApproveStaker(acc, nil), ErrUnsupportedMode)
}

func TestPersistentApproval(t *testing.T) {
	gate, _ := newGate(t, ModePersistent)

	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	acc := accountOf(priv)

	// not approved yet
	assert.ErrorIs(t, gate.AuthorizeStake(acc), ErrNotApprovedStaker)

	msg, err := gate.Message()
	require.NoError(t, err)
	sig, err := cry.Sign(cry.ApproveStakerHash(gate.domain, msg), priv)
	require.NoError(t, err)

	// wrong account
	other := swell.BytesToAddress([]byte("other"))
	assert.ErrorIs(t, gate.ApproveStaker(other, sig), ErrInvalidSignature)

	require.NoError(t, gate.ApproveStaker(acc, sig))
	approved, err := gate.IsApproved(acc)
	require.NoError(t, err)
	assert.True(t, approved)
	assert.NoError(t, gate.AuthorizeStake(acc))

	// idempotent
	require.NoError(t, gate.ApproveStaker(acc, sig))

	// inline signature path also accepted in persistent mode
	assert.NoError(t, gate.AuthorizeStakeWithSig(acc, big.NewInt(1), 0, sig, 0))
}

func TestApprovalSurvivesMessageChange(t *testing.T) {
	gate, _ := newGate(t, ModePersistent)

	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	acc := accountOf(priv)

	sig, err := cry.Sign(cry.ApproveStakerHash(gate.domain, swell.InitialStakerMessage), priv)
	require.NoError(t, err)
	require.NoError(t, gate.ApproveStaker(acc, sig))

	require.NoError(t, gate.SetMessage("new terms"))

	// old approval sticks
	assert.NoError(t, gate.AuthorizeStake(acc))

	// but the old signature no longer grants new approvals
	priv2, err := crypto.GenerateKey()
	require.NoError(t, err)
	acc2 := accountOf(priv2)
	oldSig, err := cry.Sign(cry.ApproveStakerHash(gate.domain, swell.InitialStakerMessage), priv2)
	require.NoError(t, err)
	assert.ErrorIs(t, gate.ApproveStaker(acc2, oldSig), ErrInvalidSignature)

	newSig, err := cry.Sign(cry.ApproveStakerHash(gate.domain, "new terms"), priv2)
	require.NoError(t, err)
	assert.NoError(t, gate.ApproveStaker(acc2, newSig))
}

func TestNonceSignature(t *testing.T) {
	gate, _ := newGate(t, ModeNonce)

	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	acc := accountOf(priv)

	amount := big.NewInt(1000)
	deadline := uint64(500)

	// plain stakes are rejected outright
	assert.ErrorIs(t, gate.AuthorizeStake(acc), ErrInvalidSignature)

	sig, err := cry.Sign(cry.StakeHash(gate.domain, 0, deadline, amount), priv)
	require.NoError(t, err)

	// expired
	assert.ErrorIs(t, gate.AuthorizeStakeWithSig(acc, amount, deadline, sig, deadline+1), ErrDeadlineExpired)

	// wrong amount
	assert.ErrorIs(t, gate.AuthorizeStakeWithSig(acc, big.NewInt(999), deadline, sig, 100), ErrInvalidSignature)

	// valid, consumes nonce 0
	assert.NoError(t, gate.AuthorizeStakeWithSig(acc, amount, deadline, sig, 100))
	nonce, err := gate.Nonce(acc)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	// replay of the consumed signature
	assert.ErrorIs(t, gate.AuthorizeStakeWithSig(acc, amount, deadline, sig, 100), ErrInvalidSignature)

	// next nonce works
	sig2, err := cry.Sign(cry.StakeHash(gate.domain, 1, deadline, amount), priv)
	require.NoError(t, err)
	assert.NoError(t, gate.AuthorizeStakeWithSig(acc, amount, deadline, sig2, 100))
}
