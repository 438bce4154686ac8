// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package schedule implements the snapshot timing gate: minimum spacing
// between reward accruals and the pre-accrual staking blackout window.
package schedule

import (
	"github.com/pkg/errors"

	"github.com/stakewell/swell/storage"
	"github.com/stakewell/swell/swell"
)

var (
	// ErrInvalidDelay returned when a new delay would undercut the buffer.
	ErrInvalidDelay = errors.New("snapshot delay must not be less than the buffer")
	// ErrInvalidBuffer returned when a new buffer would exceed the delay.
	ErrInvalidBuffer = errors.New("snapshot buffer must not exceed the delay")
)

// Service is the snapshot schedule state machine.
type Service struct {
	lastTime    *storage.Uint64
	delay       *storage.Uint64
	buffer      *storage.Uint64
	initialized *storage.Uint64
}

// New creates the schedule service on the given storage context.
func New(ctx *storage.Context) *Service {
	return &Service{
		lastTime:    storage.NewUint64(ctx, swell.Blake2b([]byte("schedule-last-snapshot-time"))),
		delay:       storage.NewUint64(ctx, swell.Blake2b([]byte("schedule-delay"))),
		buffer:      storage.NewUint64(ctx, swell.Blake2b([]byte("schedule-buffer"))),
		initialized: storage.NewUint64(ctx, swell.Blake2b([]byte("schedule-initialized"))),
	}
}

// Initialize seeds the schedule with the protocol defaults. The first accrual
// waits a full delay from initialization. Calling it again is a no-op.
func (s *Service) Initialize(now, delay, buffer uint64) error {
	if buffer > delay {
		return ErrInvalidBuffer
	}
	done, err := s.initialized.Get()
	if err != nil {
		return err
	}
	if done != 0 {
		return nil
	}
	if err := s.lastTime.Set(now); err != nil {
		return err
	}
	if err := s.delay.Set(delay); err != nil {
		return err
	}
	if err := s.buffer.Set(buffer); err != nil {
		return err
	}
	return s.initialized.Set(1)
}

// CanAccrue reports whether the minimum spacing since the last snapshot has
// elapsed.
func (s *Service) CanAccrue(now uint64) (bool, error) {
	last, err := s.lastTime.Get()
	if err != nil {
		return false, err
	}
	delay, err := s.delay.Get()
	if err != nil {
		return false, err
	}
	return now >= last+delay, nil
}

// CanStake reports whether staking is currently allowed. With a zero buffer
// there is no blackout window at all; otherwise staking is blocked from
// (next eligible accrual − buffer) until the accrual happens.
func (s *Service) CanStake(now uint64) (bool, error) {
	buffer, err := s.buffer.Get()
	if err != nil {
		return false, err
	}
	if buffer == 0 {
		return true, nil
	}
	last, err := s.lastTime.Get()
	if err != nil {
		return false, err
	}
	delay, err := s.delay.Get()
	if err != nil {
		return false, err
	}
	// buffer <= delay holds on every mutation, the subtraction cannot wrap
	return now < last+delay-buffer, nil
}

// RecordAccrualTime marks now as the latest snapshot time.
func (s *Service) RecordAccrualTime(now uint64) error {
	return s.lastTime.Set(now)
}

// SetDelay updates the minimum inter-accrual spacing.
func (s *Service) SetDelay(d uint64) error {
	buffer, err := s.buffer.Get()
	if err != nil {
		return err
	}
	if d < buffer {
		return ErrInvalidDelay
	}
	return s.delay.Set(d)
}

// SetBuffer updates the staking blackout window.
func (s *Service) SetBuffer(b uint64) error {
	delay, err := s.delay.Get()
	if err != nil {
		return err
	}
	if b > delay {
		return ErrInvalidBuffer
	}
	return s.buffer.Set(b)
}

// LastSnapshotTime returns the time of the latest accrual (or initialization).
func (s *Service) LastSnapshotTime() (uint64, error) {
	return s.lastTime.Get()
}

// Delay returns the minimum inter-accrual spacing.
func (s *Service) Delay() (uint64, error) {
	return s.delay.Get()
}

// Buffer returns the staking blackout window.
func (s *Service) Buffer() (uint64, error) {
	return s.buffer.Get()
}

// NextSnapshotTime returns the earliest time the next accrual may happen.
func (s *Service) NextSnapshotTime() (uint64, error) {
	last, err := s.lastTime.Get()
	if err != nil {
		return 0, err
	}
	delay, err := s.delay.Get()
	if err != nil {
		return 0, err
	}
	return last + delay, nil
}

// TimeUntilNextSnapshot returns how long until the next accrual becomes
// eligible, zero if it already is.
func (s *Service) TimeUntilNextSnapshot(now uint64) (uint64, error) {
	next, err := s.NextSnapshotTime()
	if err != nil {
		return 0, err
	}
	if now >= next {
		return 0, nil
	}
	return next - now, nil
}
