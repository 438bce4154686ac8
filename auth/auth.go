// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package auth implements the staking authorization gate. The mode is fixed
// at construction: no gate at all, a persistent signed approval, or a
// single-use nonce-scoped signature per stake.
//
// Persistent approvals are sticky: changing the message does not revoke
// approvals granted over an earlier message. Approval verifies the signer's
// identity, not their agreement to a particular text; flagged for product
// review rather than silently changed.
package auth

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/stakewell/swell/cry"
	"github.com/stakewell/swell/storage"
	"github.com/stakewell/swell/swell"
)

// Mode selects the authorization scheme.
type Mode uint8

const (
	// ModeNone disables the gate entirely.
	ModeNone Mode = iota
	// ModePersistent requires a one-time signed approval of the staker message.
	ModePersistent
	// ModeNonce requires a fresh (nonce, deadline, amount) signature per stake.
	ModeNonce
)

// String implements stringer.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModePersistent:
		return "persistent"
	case ModeNonce:
		return "nonce"
	default:
		return "unknown"
	}
}

// ParseMode converts a string presented mode into Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "none":
		return ModeNone, nil
	case "persistent":
		return ModePersistent, nil
	case "nonce":
		return ModeNonce, nil
	default:
		return 0, errors.Errorf("unknown authorization mode %q", s)
	}
}

var (
	// ErrInvalidSignature returned when a signature does not recover to the
	// staking account, or when a required signature is missing or consumed.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrDeadlineExpired returned when a nonce-mode signature is presented
	// after its deadline.
	ErrDeadlineExpired = errors.New("authorization deadline expired")
	// ErrNotApprovedStaker returned when a persistent-mode stake arrives
	// without a prior approval.
	ErrNotApprovedStaker = errors.New("account is not an approved staker")
	// ErrUnsupportedMode returned when an operation does not exist in the
	// configured mode.
	ErrUnsupportedMode = errors.New("operation not supported by authorization mode")
)

// Gate verifies stake authorizations.
type Gate struct {
	mode   Mode
	domain *cry.Domain

	message   *storage.String
	approvals *storage.Mapping[swell.Address, bool]
	nonces    *storage.Mapping[swell.Address, uint64]
}

// New creates a gate in the given mode, scoped to the signing domain.
func New(mode Mode, domain *cry.Domain, ctx *storage.Context) *Gate {
	return &Gate{
		mode:      mode,
		domain:    domain,
		message:   storage.NewString(ctx, swell.Blake2b([]byte("auth-message"))),
		approvals: storage.NewMapping[swell.Address, bool](ctx, swell.Blake2b([]byte("auth-approvals"))),
		nonces:    storage.NewMapping[swell.Address, uint64](ctx, swell.Blake2b([]byte("auth-nonces"))),
	}
}

// Mode returns the configured mode.
func (g *Gate) Mode() Mode {
	return g.mode
}

// Message returns the text a persistent-mode staker must sign.
func (g *Gate) Message() (string, error) {
	return g.message.Get()
}

// SetMessage replaces the staker message. Existing approvals stay valid.
func (g *Gate) SetMessage(message string) error {
	return g.message.Set(message)
}

// IsApproved returns whether the account holds a persistent approval.
func (g *Gate) IsApproved(account swell.Address) (bool, error) {
	return g.approvals.Get(account)
}

// Nonce returns the account's next expected signature nonce.
func (g *Gate) Nonce(account swell.Address) (uint64, error) {
	return g.nonces.Get(account)
}

// ApproveStaker grants the account a permanent approval, provided the
// signature covers the current message and recovers to the account.
// Idempotent: re-approving an approved account succeeds.
func (g *Gate) ApproveStaker(account swell.Address, sig []byte) error {
	if g.mode != ModePersistent {
		return ErrUnsupportedMode
	}
	if err := g.verifyApproval(account, sig); err != nil {
		return err
	}
	return g.approvals.Set(account, true)
}

// AuthorizeStake gates a stake carrying no signature.
func (g *Gate) AuthorizeStake(account swell.Address) error {
	switch g.mode {
	case ModeNone:
		return nil
	case ModePersistent:
		approved, err := g.approvals.Get(account)
		if err != nil {
			return err
		}
		if !approved {
			return ErrNotApprovedStaker
		}
		return nil
	default: // ModeNonce: a signature is mandatory on every stake
		return ErrInvalidSignature
	}
}

// AuthorizeStakeWithSig gates a signature-carrying stake. In nonce mode a
// successful authorization consumes the account nonce, making the signature
// permanently unusable.
func (g *Gate) AuthorizeStakeWithSig(account swell.Address, amount *big.Int, deadline uint64, sig []byte, now uint64) error {
	switch g.mode {
	case ModePersistent:
		return g.verifyApproval(account, sig)
	case ModeNonce:
		if now > deadline {
			return ErrDeadlineExpired
		}
		nonce, err := g.nonces.Get(account)
		if err != nil {
			return err
		}
		signer, err := cry.Signer(cry.StakeHash(g.domain, nonce, deadline, amount), sig)
		if err != nil || signer != account {
			return ErrInvalidSignature
		}
		return g.nonces.Set(account, nonce+1)
	default:
		return ErrUnsupportedMode
	}
}

func (g *Gate) verifyApproval(account swell.Address, sig []byte) error {
	message, err := g.message.Get()
	if err != nil {
		return err
	}
	signer, err := cry.Signer(cry.ApproveStakerHash(g.domain, message), sig)
	if err != nil || signer != account {
		return ErrInvalidSignature
	}
	return nil
}
