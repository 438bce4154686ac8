// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger assembles the staking subsystem into a single serialized
// aggregate. Every mutating operation runs under one lock and commits or
// discards the storage context as a unit, so each call is atomic and the
// calls form a total order.
package ledger

import (
	"math/big"
	"sync"
	"time"

	"github.com/stakewell/swell/auth"
	"github.com/stakewell/swell/cry"
	"github.com/stakewell/swell/history"
	"github.com/stakewell/swell/log"
	"github.com/stakewell/swell/metrics"
	"github.com/stakewell/swell/rewards"
	"github.com/stakewell/swell/schedule"
	"github.com/stakewell/swell/storage"
	"github.com/stakewell/swell/swell"
	"github.com/stakewell/swell/token"
)

var logger = log.WithContext("pkg", "ledger")

var (
	metricStakeOps   = metrics.LazyLoadCounter("ledger_stake_ops_total")
	metricUnstakeOps = metrics.LazyLoadCounter("ledger_unstake_ops_total")
	metricAccruals   = metrics.LazyLoadCounter("ledger_accruals_total")
	metricClaims     = metrics.LazyLoadCounterVec("ledger_claims_total", []string{"kind"})
	metricOpFailures = metrics.LazyLoadCounterVec("ledger_op_failures_total", []string{"op"})
)

// Options configures a ledger instance.
type Options struct {
	// Address is the ledger's own identity, used as the custody account for
	// principal and reward value.
	Address swell.Address
	// Owner gates the admin setters.
	Owner swell.Address
	// Distributor gates accruals. Mutable later via SetDistributor.
	Distributor swell.Address
	// AuthMode selects the staking authorization scheme, fixed for the
	// lifetime of the instance.
	AuthMode auth.Mode
	// Principal moves the staked asset, Reward moves the reward asset. They
	// may be the same transferor.
	Principal token.Transferor
	Reward    token.Transferor
	// Now supplies the current unix time. Defaults to the wall clock. It must
	// never go backward between calls.
	Now func() uint64
	// Delay and Buffer seed the snapshot schedule on first boot; zero Delay
	// selects the defaults.
	Delay  uint64
	Buffer uint64
}

// Ledger is the staking aggregate.
type Ledger struct {
	mu  sync.Mutex
	ctx *storage.Context
	now func() uint64

	address     swell.Address
	owner       *storage.Address
	distributor *storage.Address
	principal   token.Transferor
	reward      token.Transferor

	hist  *history.Service
	sched *schedule.Service
	rew   *rewards.Service
	gate  *auth.Gate
}

// New assembles a ledger on the storage context and commits its initial
// state. Reopening over existing state keeps the persisted schedule, owner
// and distributor; the options only seed a fresh store.
func New(ctx *storage.Context, opts Options) (*Ledger, error) {
	if opts.Principal == nil || opts.Reward == nil {
		return nil, errNilTransferor
	}
	now := opts.Now
	if now == nil {
		now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	delay := opts.Delay
	if delay == 0 {
		delay = swell.InitialSnapshotDelay
		if opts.Buffer == 0 {
			opts.Buffer = swell.InitialSnapshotBuffer
		}
	}

	domain := &cry.Domain{
		Name:    swell.SigningDomainName,
		Version: swell.SigningDomainVersion,
		Ledger:  opts.Address,
	}
	hist := history.New(ctx)
	l := &Ledger{
		ctx:         ctx,
		now:         now,
		address:     opts.Address,
		owner:       storage.NewAddress(ctx, swell.Blake2b([]byte("ledger-owner"))),
		distributor: storage.NewAddress(ctx, swell.Blake2b([]byte("ledger-distributor"))),
		principal:   opts.Principal,
		reward:      opts.Reward,
		hist:        hist,
		sched:       schedule.New(ctx),
		rew:         rewards.New(ctx, hist),
		gate:        auth.New(opts.AuthMode, domain, ctx),
	}

	if err := l.initialize(now(), delay, opts.Buffer, opts.Owner, opts.Distributor); err != nil {
		ctx.Discard()
		return nil, err
	}
	if err := ctx.Commit(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) initialize(now, delay, buffer uint64, owner, distributor swell.Address) error {
	if err := l.sched.Initialize(now, delay, buffer); err != nil {
		return err
	}
	current, err := l.owner.Get()
	if err != nil {
		return err
	}
	if current.IsZero() {
		if err := l.owner.Set(owner); err != nil {
			return err
		}
		if err := l.distributor.Set(distributor); err != nil {
			return err
		}
	}
	if l.gate.Mode() == auth.ModePersistent {
		msg, err := l.gate.Message()
		if err != nil {
			return err
		}
		if msg == "" {
			if err := l.gate.SetMessage(swell.InitialStakerMessage); err != nil {
				return err
			}
		}
	}
	return nil
}

// Address returns the ledger's custody identity.
func (l *Ledger) Address() swell.Address {
	return l.address
}

// AuthMode returns the configured authorization mode.
func (l *Ledger) AuthMode() auth.Mode {
	return l.gate.Mode()
}

// run executes a mutating operation under the lock. On error the staged
// writes are discarded, leaving no observable state change.
func (l *Ledger) run(op string, fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := fn(); err != nil {
		l.ctx.Discard()
		metricOpFailures().AddWithLabel(1, map[string]string{"op": op})
		return err
	}
	return l.ctx.Commit()
}

// Stake locks amount of the account's principal into the ledger. In
// persistent mode the account needs a prior approval; in nonce mode plain
// stakes are rejected outright.
func (l *Ledger) Stake(account swell.Address, amount *big.Int) error {
	return l.run("stake", func() error {
		if err := l.gate.AuthorizeStake(account); err != nil {
			return err
		}
		return l.stake(account, amount)
	})
}

// StakeWithSig is Stake carrying an inline authorization signature. In nonce
// mode a successful stake consumes the account nonce.
func (l *Ledger) StakeWithSig(account swell.Address, amount *big.Int, deadline uint64, sig []byte) error {
	return l.run("stake", func() error {
		// the amount is hashed into the signed payload, so it must be
		// checked before signature verification
		if amount == nil || amount.Sign() <= 0 {
			return ErrZeroAmount
		}
		if err := l.gate.AuthorizeStakeWithSig(account, amount, deadline, sig, l.now()); err != nil {
			return err
		}
		return l.stake(account, amount)
	})
}

func (l *Ledger) stake(account swell.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	ok, err := l.sched.CanStake(l.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrStakingBlocked
	}
	if err := l.rew.InitCursor(account); err != nil {
		return err
	}
	ok, err = l.principal.TransferFrom(account, l.address, amount)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTransferFailed
	}
	balance, supply, current, err := l.balances(account)
	if err != nil {
		return err
	}
	if err := l.hist.RecordVersion(account, balance.Add(balance, amount), supply.Add(supply, amount), current); err != nil {
		return err
	}
	metricStakeOps().Add(1)
	logger.Info("staked", "account", account, "amount", amount)
	return nil
}

// Unstake returns amount of principal to the account. Never blocked by the
// buffer window; only entering new stake is.
func (l *Ledger) Unstake(account swell.Address, amount *big.Int) error {
	return l.run("unstake", func() error {
		if amount == nil || amount.Sign() <= 0 {
			return ErrZeroAmount
		}
		balance, supply, current, err := l.balances(account)
		if err != nil {
			return err
		}
		if balance.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}
		if err := l.hist.RecordVersion(account, balance.Sub(balance, amount), supply.Sub(supply, amount), current); err != nil {
			return err
		}
		ok, err := l.principal.TransferFrom(l.address, account, amount)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTransferFailed
		}
		metricUnstakeOps().Add(1)
		logger.Info("unstaked", "account", account, "amount", amount)
		return nil
	})
}

func (l *Ledger) balances(account swell.Address) (balance, supply *big.Int, current uint64, err error) {
	if balance, err = l.hist.Balance(account); err != nil {
		return
	}
	if supply, err = l.hist.TotalSupply(); err != nil {
		return
	}
	current, err = l.rew.CurrentID()
	return
}

// Accrue deposits amount of reward value and allocates the next snapshot id,
// freezing the balances in effect right now as that snapshot. Distributor
// only.
func (l *Ledger) Accrue(caller swell.Address, amount *big.Int) (uint64, error) {
	var id uint64
	err := l.run("accrue", func() error {
		distributor, err := l.distributor.Get()
		if err != nil {
			return err
		}
		if caller != distributor {
			return ErrUnauthorized
		}
		if amount == nil || amount.Sign() <= 0 {
			return ErrZeroAmount
		}
		supply, err := l.hist.TotalSupply()
		if err != nil {
			return err
		}
		if supply.Sign() == 0 {
			return ErrZeroSupply
		}
		now := l.now()
		ok, err := l.sched.CanAccrue(now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTimingViolation
		}
		ok, err = l.reward.TransferFrom(caller, l.address, amount)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTransferFailed
		}
		if err := l.sched.RecordAccrualTime(now); err != nil {
			return err
		}
		if id, err = l.rew.Append(amount); err != nil {
			return err
		}
		metricAccruals().Add(1)
		logger.Info("accrued", "snapshot", id, "amount", amount, "supply", supply)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Claim pays out the account's pending rewards from its cursor through the
// latest snapshot and moves the cursor past it. A zero payout fails with
// ErrNoRewardsToClaim and leaves the cursor untouched.
func (l *Ledger) Claim(account swell.Address) (*big.Int, error) {
	var payout *big.Int
	err := l.run("claim", func() error {
		cursor, err := l.rew.Cursor(account)
		if err != nil {
			return err
		}
		current, err := l.rew.CurrentID()
		if err != nil {
			return err
		}
		if cursor == 0 || cursor > current {
			return ErrNoRewardsToClaim
		}
		if payout, err = l.payout(account, cursor, current); err != nil {
			return err
		}
		metricClaims().AddWithLabel(1, map[string]string{"kind": "full"})
		logger.Info("claimed", "account", account, "amount", payout, "through", current)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// ClaimPartial pays out over the caller-chosen range [start, end] and moves
// the cursor to end+1. A start beyond the cursor permanently skips the
// snapshots in between; supplying start == cursor is the caller's
// responsibility.
func (l *Ledger) ClaimPartial(account swell.Address, start, end uint64) (*big.Int, error) {
	var payout *big.Int
	err := l.run("claim", func() error {
		cursor, err := l.rew.Cursor(account)
		if err != nil {
			return err
		}
		if cursor == 0 {
			return ErrNoRewardsToClaim
		}
		if start < cursor {
			return ErrCannotClaimPastSnapshots
		}
		if payout, err = l.payout(account, start, end); err != nil {
			return err
		}
		metricClaims().AddWithLabel(1, map[string]string{"kind": "partial"})
		logger.Info("claimed", "account", account, "amount", payout, "from", start, "through", end)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (l *Ledger) payout(account swell.Address, start, end uint64) (*big.Int, error) {
	amount, err := l.rew.RewardOfInRange(account, start, end)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, ErrNoRewardsToClaim
	}
	ok, err := l.reward.TransferFrom(l.address, account, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTransferFailed
	}
	if err := l.rew.AdvanceCursor(account, end+1); err != nil {
		return nil, err
	}
	if err := l.rew.RecordPayout(account, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// ApproveStaker grants the account a persistent staking approval backed by
// its signature over the current staker message. Persistent mode only.
func (l *Ledger) ApproveStaker(account swell.Address, sig []byte) error {
	return l.run("approve", func() error {
		if err := l.gate.ApproveStaker(account, sig); err != nil {
			return err
		}
		logger.Info("staker approved", "account", account)
		return nil
	})
}

// TransferReceipt always fails: the staked position is a non-transferable
// proof of principal and only changes via Stake and Unstake.
func (l *Ledger) TransferReceipt(_, _ swell.Address, _ *big.Int) error {
	return ErrTransfersNotAllowed
}

// --- admin setters, owner only ---

func (l *Ledger) checkOwner(caller swell.Address) error {
	owner, err := l.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrUnauthorized
	}
	return nil
}

// SetDistributor replaces the accrual-privileged identity.
func (l *Ledger) SetDistributor(caller, distributor swell.Address) error {
	return l.run("admin", func() error {
		if err := l.checkOwner(caller); err != nil {
			return err
		}
		if err := l.distributor.Set(distributor); err != nil {
			return err
		}
		logger.Info("distributor changed", "distributor", distributor)
		return nil
	})
}

// SetSnapshotDelay updates the minimum spacing between accruals.
func (l *Ledger) SetSnapshotDelay(caller swell.Address, d uint64) error {
	return l.run("admin", func() error {
		if err := l.checkOwner(caller); err != nil {
			return err
		}
		return l.sched.SetDelay(d)
	})
}

// SetSnapshotBuffer updates the pre-accrual staking blackout window.
func (l *Ledger) SetSnapshotBuffer(caller swell.Address, b uint64) error {
	return l.run("admin", func() error {
		if err := l.checkOwner(caller); err != nil {
			return err
		}
		return l.sched.SetBuffer(b)
	})
}

// SetMessage replaces the staker message. Approvals already granted stay
// valid.
func (l *Ledger) SetMessage(caller swell.Address, message string) error {
	return l.run("admin", func() error {
		if err := l.checkOwner(caller); err != nil {
			return err
		}
		return l.gate.SetMessage(message)
	})
}
