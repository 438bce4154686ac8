// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakewell/swell/auth"
	"github.com/stakewell/swell/cry"
	"github.com/stakewell/swell/kv"
	"github.com/stakewell/swell/storage"
	"github.com/stakewell/swell/swell"
	"github.com/stakewell/swell/token"
)

var (
	ledgerAddr  = swell.BytesToAddress([]byte("ledger"))
	owner       = swell.BytesToAddress([]byte("owner"))
	distributor = swell.BytesToAddress([]byte("distributor"))
	accA        = swell.BytesToAddress([]byte("accountA"))
	accB        = swell.BytesToAddress([]byte("accountB"))
	accC        = swell.BytesToAddress([]byte("accountC"))
	accD        = swell.BytesToAddress([]byte("accountD"))
)

// amounts carry 18 decimals
func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

type clock struct {
	now uint64
}

func (c *clock) advance(d uint64) { c.now += d }

type env struct {
	t         *testing.T
	ledger    *Ledger
	ctx       *storage.Context
	principal *token.Token
	reward    *token.Token
	clk       *clock
}

func newEnv(t *testing.T, mode auth.Mode, delay, buffer uint64) *env {
	db, err := kv.NewMem()
	require.NoError(t, err)
	ctx := storage.NewContext(db)

	principal := token.New("principal", ctx)
	reward := token.New("reward", ctx)
	clk := &clock{now: 1_000_000}

	led, err := New(ctx, Options{
		Address:     ledgerAddr,
		Owner:       owner,
		Distributor: distributor,
		AuthMode:    mode,
		Principal:   principal,
		Reward:      reward,
		Now:         func() uint64 { return clk.now },
		Delay:       delay,
		Buffer:      buffer,
	})
	require.NoError(t, err)

	e := &env{t: t, ledger: led, ctx: ctx, principal: principal, reward: reward, clk: clk}
	for _, acc := range []swell.Address{accA, accB, accC, accD} {
		e.mint(principal, acc, units(100))
	}
	e.mint(reward, distributor, units(100))
	return e
}

func (e *env) mint(tok *token.Token, acc swell.Address, amount *big.Int) {
	require.NoError(e.t, tok.Mint(acc, amount))
	require.NoError(e.t, e.ctx.Commit())
}

// accrue advances past the delay and deposits the amount.
func (e *env) accrue(amount *big.Int) uint64 {
	delay, err := e.ledger.SnapshotDelay()
	require.NoError(e.t, err)
	e.clk.advance(delay)
	id, err := e.ledger.Accrue(distributor, amount)
	require.NoError(e.t, err)
	return id
}

func TestProportionalRewardsAcrossSnapshots(t *testing.T) {
	e := newEnv(t, auth.ModeNone, 1000, 0)

	// B stakes 6; accrual 1 lands against B alone
	require.NoError(t, e.ledger.Stake(accB, units(6)))
	assert.Equal(t, uint64(1), e.accrue(units(1)))

	// A and C join before accrual 2
	require.NoError(t, e.ledger.Stake(accA, units(4)))
	require.NoError(t, e.ledger.Stake(accC, units(5)))
	assert.Equal(t, uint64(2), e.accrue(big.NewInt(1.5e18)))

	// C leaves before accrual 3
	require.NoError(t, e.ledger.Unstake(accC, units(5)))
	assert.Equal(t, uint64(3), e.accrue(units(2)))

	reward, err := e.ledger.RewardOfAt(accB, 1)
	require.NoError(t, err)
	assert.Equal(t, units(1), reward)

	reward, err = e.ledger.RewardOfAt(accA, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, reward.Sign())

	// 1.5 * 4/15 == 0.4
	reward, err = e.ledger.RewardOfAt(accA, 2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0.4e18), reward)

	reward, err = e.ledger.RewardOfAt(accC, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, reward.Sign())

	supply, err := e.ledger.TotalSupplyAt(2)
	require.NoError(t, err)
	assert.Equal(t, units(15), supply)

	// the per-account balances reconcile with the supply at every snapshot
	current, err := e.ledger.CurrentSnapshotID()
	require.NoError(t, err)
	for id := uint64(1); id <= current; id++ {
		supplyAt, err := e.ledger.TotalSupplyAt(id)
		require.NoError(t, err)
		sum := new(big.Int)
		for _, acc := range []swell.Address{accA, accB, accC, accD} {
			balance, err := e.ledger.BalanceOfAt(acc, id)
			require.NoError(t, err)
			sum.Add(sum, balance)
		}
		assert.Equal(t, supplyAt, sum, "snapshot %d", id)
	}
}

func TestLateStakerCursorAndZeroShare(t *testing.T) {
	e := newEnv(t, auth.ModeNone, 1000, 0)

	require.NoError(t, e.ledger.Stake(accB, units(6)))
	e.accrue(units(1))
	e.accrue(units(1))

	// D arrives after snapshot 2 exists
	require.NoError(t, e.ledger.Stake(accD, units(3)))

	cursor, err := e.ledger.ClaimCursor(accD)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cursor)

	// D's balance at snapshot 2 was zero, so the overlap pays nothing
	reward, err := e.ledger.RewardOfAt(accD, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, reward.Sign())
}

func TestClaim(t *testing.T) {
	e := newEnv(t, auth.ModeNone, 1000, 0)

	require.NoError(t, e.ledger.Stake(accB, units(6)))
	e.accrue(units(1))
	e.accrue(units(2))

	pending, err := e.ledger.PendingRewards(accB)
	require.NoError(t, err)
	assert.Equal(t, units(3), pending)

	payout, err := e.ledger.Claim(accB)
	require.NoError(t, err)
	assert.Equal(t, units(3), payout)

	got, err := e.reward.BalanceOf(accB)
	require.NoError(t, err)
	assert.Equal(t, units(3), got)

	cursor, err := e.ledger.ClaimCursor(accB)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), cursor)

	// nothing pending; cursor stays where it is
	_, err = e.ledger.Claim(accB)
	assert.ErrorIs(t, err, ErrNoRewardsToClaim)
	cursor, err = e.ledger.ClaimCursor(accB)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), cursor)

	// lifetime covers the claimed range
	lifetime, err := e.ledger.LifetimeRewards(accB)
	require.NoError(t, err)
	assert.Equal(t, units(3), lifetime)
	claimed, err := e.ledger.ClaimedRewards(accB)
	require.NoError(t, err)
	assert.Equal(t, units(3), claimed)
}

func TestClaimPartialCannotRegress(t *testing.T) {
	e := newEnv(t, auth.ModeNone, 1000, 0)

	require.NoError(t, e.ledger.Stake(accB, units(6)))
	e.accrue(units(1))
	e.accrue(units(2))

	payout, err := e.ledger.ClaimPartial(accB, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, units(1), payout)

	_, err = e.ledger.ClaimPartial(accB, 1, 1)
	assert.ErrorIs(t, err, ErrCannotClaimPastSnapshots)

	// a start beyond the cursor skips snapshots for good
	cursor, err := e.ledger.ClaimCursor(accB)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cursor)
}

func TestNonceSignatureReplay(t *testing.T) {
	e := newEnv(t, auth.ModeNonce, 1000, 0)

	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	acc := swell.Address(crypto.PubkeyToAddress(priv.PublicKey))
	e.mint(e.principal, acc, units(10))

	domain := &cry.Domain{
		Name:    swell.SigningDomainName,
		Version: swell.SigningDomainVersion,
		Ledger:  ledgerAddr,
	}
	amount := units(1)
	deadline := e.clk.now + 100

	sig, err := cry.Sign(cry.StakeHash(domain, 0, deadline, amount), priv)
	require.NoError(t, err)

	require.NoError(t, e.ledger.StakeWithSig(acc, amount, deadline, sig))

	// nonce advanced to 1, the signature is spent
	err = e.ledger.StakeWithSig(acc, amount, deadline, sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// and plain staking is never allowed in nonce mode
	assert.ErrorIs(t, e.ledger.Stake(acc, amount), ErrInvalidSignature)

	// a missing or zero amount is rejected before signature verification
	assert.ErrorIs(t, e.ledger.StakeWithSig(acc, nil, deadline, make([]byte, cry.SignatureLength)), ErrZeroAmount)
	assert.ErrorIs(t, e.ledger.StakeWithSig(acc, big.NewInt(0), deadline, make([]byte, cry.SignatureLength)), ErrZeroAmount)

	// expired deadline
	sig2, err := cry.Sign(cry.StakeHash(domain, 1, deadline, amount), priv)
	require.NoError(t, err)
	e.clk.advance(200)
	assert.ErrorIs(t, e.ledger.StakeWithSig(acc, amount, deadline, sig2), ErrDeadlineExpired)
}

func TestPersistentApprovalMode(t *testing.T) {
	e := newEnv(t, auth.ModePersistent, 1000, 0)

	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	acc := swell.Address(crypto.PubkeyToAddress(priv.PublicKey))
	e.mint(e.principal, acc, units(10))

	assert.ErrorIs(t, e.ledger.Stake(acc, units(1)), ErrNotApprovedStaker)

	msg, err := e.ledger.StakerMessage()
	require.NoError(t, err)
	assert.Equal(t, swell.InitialStakerMessage, msg)

	domain := &cry.Domain{
		Name:    swell.SigningDomainName,
		Version: swell.SigningDomainVersion,
		Ledger:  ledgerAddr,
	}
	sig, err := cry.Sign(cry.ApproveStakerHash(domain, msg), priv)
	require.NoError(t, err)
	require.NoError(t, e.ledger.ApproveStaker(acc, sig))

	approved, err := e.ledger.IsApprovedStaker(acc)
	require.NoError(t, err)
	assert.True(t, approved)
	assert.NoError(t, e.ledger.Stake(acc, units(1)))

	// approvals stick across a message change
	require.NoError(t, e.ledger.SetMessage(owner, "new terms"))
	assert.NoError(t, e.ledger.Stake(acc, units(1)))
}

func TestSetterConstraints(t *testing.T) {
	e := newEnv(t, auth.ModeNone, 1000, 500)

	assert.ErrorIs(t, e.ledger.SetSnapshotBuffer(owner, 1001), ErrInvalidBuffer)
	assert.ErrorIs(t, e.ledger.SetSnapshotDelay(owner, 499), ErrInvalidDelay)

	require.NoError(t, e.ledger.SetSnapshotBuffer(owner, 800))
	require.NoError(t, e.ledger.SetSnapshotDelay(owner, 900))

	// owner only
	assert.ErrorIs(t, e.ledger.SetSnapshotDelay(accA, 2000), ErrUnauthorized)
	assert.ErrorIs(t, e.ledger.SetDistributor(accA, accA), ErrUnauthorized)
	assert.ErrorIs(t, e.ledger.SetMessage(accA, "x"), ErrUnauthorized)
}

func TestStakingBlackout(t *testing.T) {
	e := newEnv(t, auth.ModeNone, 1000, 200)

	require.NoError(t, e.ledger.Stake(accB, units(6)))

	// move inside the buffer window before the next eligible accrual
	e.clk.advance(850)
	ok, err := e.ledger.CanStake()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, e.ledger.Stake(accA, units(1)), ErrStakingBlocked)

	// unstaking is never blocked
	assert.NoError(t, e.ledger.Unstake(accB, units(1)))

	// once the accrual lands the window reopens
	e.clk.advance(150)
	_, err = e.ledger.Accrue(distributor, units(1))
	require.NoError(t, err)
	assert.NoError(t, e.ledger.Stake(accA, units(1)))
}

func TestAccrueValidation(t *testing.T) {
	e := newEnv(t, auth.ModeNone, 1000, 0)

	// nothing staked
	e.clk.advance(1000)
	_, err := e.ledger.Accrue(distributor, units(1))
	assert.ErrorIs(t, err, ErrZeroSupply)

	require.NoError(t, e.ledger.Stake(accB, units(6)))

	_, err = e.ledger.Accrue(accA, units(1))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = e.ledger.Accrue(distributor, new(big.Int))
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, err = e.ledger.Accrue(distributor, units(1))
	require.NoError(t, err)

	// delay not elapsed again yet
	_, err = e.ledger.Accrue(distributor, units(1))
	assert.ErrorIs(t, err, ErrTimingViolation)
}

func TestStakeUnstakeRoundTrip(t *testing.T) {
	e := newEnv(t, auth.ModeNone, 1000, 0)

	before, err := e.principal.BalanceOf(accA)
	require.NoError(t, err)

	require.NoError(t, e.ledger.Stake(accA, units(7)))
	require.NoError(t, e.ledger.Unstake(accA, units(7)))

	after, err := e.principal.BalanceOf(accA)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	supply, err := e.ledger.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, 0, supply.Sign())

	assert.ErrorIs(t, e.ledger.Unstake(accA, units(1)), ErrInsufficientBalance)
}

func TestStakeValidation(t *testing.T) {
	e := newEnv(t, auth.ModeNone, 1000, 0)

	assert.ErrorIs(t, e.ledger.Stake(accA, new(big.Int)), ErrZeroAmount)

	// more principal than the account holds
	assert.ErrorIs(t, e.ledger.Stake(accA, units(1000)), ErrTransferFailed)

	// the failed stake left nothing behind
	bal, err := e.ledger.BalanceOf(accA)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())
	cursor, err := e.ledger.ClaimCursor(accA)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), cursor)
}

func TestSnapshotQueryBounds(t *testing.T) {
	e := newEnv(t, auth.ModeNone, 1000, 0)

	require.NoError(t, e.ledger.Stake(accB, units(6)))
	e.accrue(units(1))

	_, err := e.ledger.BalanceOfAt(accB, 0)
	assert.ErrorIs(t, err, ErrNonExistentSnapshot)
	_, err = e.ledger.BalanceOfAt(accB, 2)
	assert.ErrorIs(t, err, ErrNonExistentSnapshot)

	_, err = e.ledger.RewardAt(0)
	assert.ErrorIs(t, err, ErrInvalidSnapshotID)
	_, err = e.ledger.RewardAt(2)
	assert.ErrorIs(t, err, ErrNonExistentSnapshot)

	bal, err := e.ledger.BalanceOfAt(accB, 1)
	require.NoError(t, err)
	assert.Equal(t, units(6), bal)
}

func TestReceiptTransfersDisabled(t *testing.T) {
	e := newEnv(t, auth.ModeNone, 1000, 0)
	assert.ErrorIs(t, e.ledger.TransferReceipt(accA, accB, units(1)), ErrTransfersNotAllowed)
}

func TestRewardSnapshotsHistory(t *testing.T) {
	e := newEnv(t, auth.ModeNone, 1000, 0)

	require.NoError(t, e.ledger.Stake(accB, units(6)))
	e.accrue(units(1))
	e.accrue(units(2))

	snaps, err := e.ledger.RewardSnapshots()
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, uint64(1), snaps[0].SnapshotID)
	assert.Equal(t, units(1), snaps[0].Amount)
	assert.Equal(t, uint64(2), snaps[1].SnapshotID)
	assert.Equal(t, units(2), snaps[1].Amount)
}

func TestReopenKeepsState(t *testing.T) {
	db, err := kv.NewMem()
	require.NoError(t, err)

	clk := &clock{now: 1_000_000}
	opts := func(ctx *storage.Context) Options {
		return Options{
			Address:     ledgerAddr,
			Owner:       owner,
			Distributor: distributor,
			AuthMode:    auth.ModeNone,
			Principal:   token.New("principal", ctx),
			Reward:      token.New("reward", ctx),
			Now:         func() uint64 { return clk.now },
			Delay:       1000,
		}
	}

	ctx := storage.NewContext(db)
	principal := token.New("principal", ctx)
	require.NoError(t, principal.Mint(accA, units(10)))
	require.NoError(t, ctx.Commit())

	led, err := New(ctx, opts(ctx))
	require.NoError(t, err)
	require.NoError(t, led.Stake(accA, units(7)))

	// a second instance over the same store sees the committed state
	ctx2 := storage.NewContext(db)
	led2, err := New(ctx2, opts(ctx2))
	require.NoError(t, err)

	bal, err := led2.BalanceOf(accA)
	require.NoError(t, err)
	assert.Equal(t, units(7), bal)
	cursor, err := led2.ClaimCursor(accA)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cursor)
}
