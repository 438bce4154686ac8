// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakewell/swell/api/utils"
	"github.com/stakewell/swell/ledger"
	"github.com/stakewell/swell/swell"
)

// Staking exposes the ledger over REST.
type Staking struct {
	ledger *ledger.Ledger
}

func New(l *ledger.Ledger) *Staking {
	return &Staking{ledger: l}
}

// convertError maps ledger failures onto http statuses. Validation failures
// are the caller's fault; authorization failures are forbidden; anything
// unexpected stays a 500.
func convertError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrUnauthorized),
		errors.Is(err, ledger.ErrNotApprovedStaker),
		errors.Is(err, ledger.ErrInvalidSignature),
		errors.Is(err, ledger.ErrDeadlineExpired):
		return utils.Forbidden(err)
	case errors.Is(err, ledger.ErrTimingViolation),
		errors.Is(err, ledger.ErrStakingBlocked):
		return utils.Conflict(err)
	case errors.Is(err, ledger.ErrZeroAmount),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrZeroSupply),
		errors.Is(err, ledger.ErrInvalidSnapshotID),
		errors.Is(err, ledger.ErrNonExistentSnapshot),
		errors.Is(err, ledger.ErrCannotClaimPastSnapshots),
		errors.Is(err, ledger.ErrNoRewardsToClaim),
		errors.Is(err, ledger.ErrInvalidDelay),
		errors.Is(err, ledger.ErrInvalidBuffer),
		errors.Is(err, ledger.ErrTransfersNotAllowed),
		errors.Is(err, ledger.ErrTransferFailed):
		return utils.BadRequest(err)
	default:
		return err
	}
}

func parseAddress(r *http.Request) (swell.Address, error) {
	addr, err := swell.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		return swell.Address{}, utils.BadRequest(errors.WithMessage(err, "address"))
	}
	return *addr, nil
}

func parseAmount(a *math.HexOrDecimal256) (*big.Int, error) {
	if a == nil {
		return nil, utils.BadRequest(errors.New("amount: missing"))
	}
	return (*big.Int)(a), nil
}

// dec renders a big.Int as a decimal-or-hex JSON number.
func dec(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}

func (s *Staking) handleGetStatus(w http.ResponseWriter, _ *http.Request) error {
	current, err := s.ledger.CurrentSnapshotID()
	if err != nil {
		return err
	}
	supply, err := s.ledger.TotalSupply()
	if err != nil {
		return err
	}
	distributor, err := s.ledger.Distributor()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Status{
		CurrentSnapshotID: current,
		TotalSupply:       dec(supply),
		AuthMode:          s.ledger.AuthMode().String(),
		Distributor:       distributor,
	})
}

func (s *Staking) handleGetSchedule(w http.ResponseWriter, _ *http.Request) error {
	sched := Schedule{}
	var err error
	if sched.LastSnapshotTime, err = s.ledger.LastSnapshotTime(); err != nil {
		return err
	}
	if sched.SnapshotDelay, err = s.ledger.SnapshotDelay(); err != nil {
		return err
	}
	if sched.SnapshotBuffer, err = s.ledger.SnapshotBuffer(); err != nil {
		return err
	}
	if sched.NextSnapshotTime, err = s.ledger.NextSnapshotTime(); err != nil {
		return err
	}
	if sched.TimeUntilNextSnapshot, err = s.ledger.TimeUntilNextSnapshot(); err != nil {
		return err
	}
	if sched.CanAccrue, err = s.ledger.CanAccrue(); err != nil {
		return err
	}
	if sched.CanStake, err = s.ledger.CanStake(); err != nil {
		return err
	}
	return utils.WriteJSON(w, &sched)
}

func (s *Staking) handleGetAccount(w http.ResponseWriter, r *http.Request) error {
	addr, err := parseAddress(r)
	if err != nil {
		return err
	}
	acc := Account{Address: addr}
	balance, err := s.ledger.BalanceOf(addr)
	if err != nil {
		return err
	}
	acc.Balance = dec(balance)
	if acc.ClaimCursor, err = s.ledger.ClaimCursor(addr); err != nil {
		return err
	}
	pending, err := s.ledger.PendingRewards(addr)
	if err != nil {
		return err
	}
	acc.PendingRewards = dec(pending)
	lifetime, err := s.ledger.LifetimeRewards(addr)
	if err != nil {
		return err
	}
	acc.LifetimeRewards = dec(lifetime)
	claimed, err := s.ledger.ClaimedRewards(addr)
	if err != nil {
		return err
	}
	acc.ClaimedRewards = dec(claimed)
	if acc.Approved, err = s.ledger.IsApprovedStaker(addr); err != nil {
		return err
	}
	if acc.Nonce, err = s.ledger.Nonce(addr); err != nil {
		return err
	}
	return utils.WriteJSON(w, &acc)
}

// handleGetAccountBalance returns the balance at the given snapshot, or the
// current one if the snapshot query parameter is absent.
func (s *Staking) handleGetAccountBalance(w http.ResponseWriter, r *http.Request) error {
	addr, err := parseAddress(r)
	if err != nil {
		return err
	}
	var balance *big.Int
	if q := r.URL.Query().Get("snapshot"); q != "" {
		id, err := strconv.ParseUint(q, 10, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "snapshot"))
		}
		if balance, err = s.ledger.BalanceOfAt(addr, id); err != nil {
			return convertError(err)
		}
	} else if balance, err = s.ledger.BalanceOf(addr); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"balance": dec(balance)})
}

func (s *Staking) handleGetSnapshots(w http.ResponseWriter, _ *http.Request) error {
	accruals, err := s.ledger.RewardSnapshots()
	if err != nil {
		return err
	}
	snaps := make([]Snapshot, 0, len(accruals))
	for _, a := range accruals {
		snaps = append(snaps, Snapshot{ID: a.SnapshotID, Amount: dec(a.Amount)})
	}
	return utils.WriteJSON(w, snaps)
}

func (s *Staking) handleGetSnapshot(w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	amount, err := s.ledger.RewardAt(id)
	if err != nil {
		return convertError(err)
	}
	supply, err := s.ledger.TotalSupplyAt(id)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &Snapshot{ID: id, Amount: dec(amount), TotalSupply: dec(supply)})
}

func (s *Staking) handleStake(w http.ResponseWriter, r *http.Request) error {
	var req StakeRequest
	if err := utils.ParseJSON(r.Body, &req); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	if len(req.Signature) > 0 {
		err = s.ledger.StakeWithSig(req.Account, amount, req.Deadline, req.Signature)
	} else {
		err = s.ledger.Stake(req.Account, amount)
	}
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, utils.M{"staked": dec(amount)})
}

func (s *Staking) handleUnstake(w http.ResponseWriter, r *http.Request) error {
	var req UnstakeRequest
	if err := utils.ParseJSON(r.Body, &req); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	if err := s.ledger.Unstake(req.Account, amount); err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, utils.M{"unstaked": dec(amount)})
}

func (s *Staking) handleAccrue(w http.ResponseWriter, r *http.Request) error {
	var req AccrueRequest
	if err := utils.ParseJSON(r.Body, &req); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	id, err := s.ledger.Accrue(req.Caller, amount)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &AccrueResponse{SnapshotID: id})
}

func (s *Staking) handleClaim(w http.ResponseWriter, r *http.Request) error {
	var req ClaimRequest
	if err := utils.ParseJSON(r.Body, &req); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	var (
		amount *big.Int
		err    error
	)
	if req.Start == 0 && req.End == 0 {
		amount, err = s.ledger.Claim(req.Account)
	} else {
		amount, err = s.ledger.ClaimPartial(req.Account, req.Start, req.End)
	}
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &ClaimResponse{Amount: dec(amount)})
}

func (s *Staking) handleApprove(w http.ResponseWriter, r *http.Request) error {
	var req ApproveRequest
	if err := utils.ParseJSON(r.Body, &req); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.ledger.ApproveStaker(req.Account, req.Signature); err != nil {
		return convertError(err)
	}
	approved, err := s.ledger.IsApprovedStaker(req.Account)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"approved": approved})
}

func (s *Staking) handleGetMessage(w http.ResponseWriter, _ *http.Request) error {
	msg, err := s.ledger.StakerMessage()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"message": msg})
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("staking_get_status").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStatus))
	sub.Path("/schedule").
		Methods(http.MethodGet).
		Name("staking_get_schedule").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetSchedule))
	sub.Path("/message").
		Methods(http.MethodGet).
		Name("staking_get_message").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetMessage))
	sub.Path("/accounts/{address}").
		Methods(http.MethodGet).
		Name("staking_get_account").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetAccount))
	sub.Path("/accounts/{address}/balance").
		Methods(http.MethodGet).
		Name("staking_get_account_balance").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetAccountBalance))
	sub.Path("/snapshots").
		Methods(http.MethodGet).
		Name("staking_get_snapshots").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetSnapshots))
	sub.Path("/snapshots/{id}").
		Methods(http.MethodGet).
		Name("staking_get_snapshot").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetSnapshot))
	sub.Path("/stake").
		Methods(http.MethodPost).
		Name("staking_stake").
		HandlerFunc(utils.WrapHandlerFunc(s.handleStake))
	sub.Path("/unstake").
		Methods(http.MethodPost).
		Name("staking_unstake").
		HandlerFunc(utils.WrapHandlerFunc(s.handleUnstake))
	sub.Path("/accrue").
		Methods(http.MethodPost).
		Name("staking_accrue").
		HandlerFunc(utils.WrapHandlerFunc(s.handleAccrue))
	sub.Path("/claims").
		Methods(http.MethodPost).
		Name("staking_claim").
		HandlerFunc(utils.WrapHandlerFunc(s.handleClaim))
	sub.Path("/approvals").
		Methods(http.MethodPost).
		Name("staking_approve").
		HandlerFunc(utils.WrapHandlerFunc(s.handleApprove))
}
