// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakewell/swell/kv"
	"github.com/stakewell/swell/storage"
)

func newTestService(t *testing.T, now, delay, buffer uint64) *Service {
	db, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := New(storage.NewContext(db))
	require.NoError(t, svc.Initialize(now, delay, buffer))
	return svc
}

func M(a ...any) []any {
	return a
}

func TestAccrualGate(t *testing.T) {
	svc := newTestService(t, 1000, 100, 10)

	assert.Equal(t, M(false, nil), M(svc.CanAccrue(1099)))
	assert.Equal(t, M(true, nil), M(svc.CanAccrue(1100)))

	require.NoError(t, svc.RecordAccrualTime(1100))
	assert.Equal(t, M(false, nil), M(svc.CanAccrue(1199)))
	assert.Equal(t, M(true, nil), M(svc.CanAccrue(1200)))
}

func TestStakingBlackout(t *testing.T) {
	svc := newTestService(t, 1000, 100, 10)

	// open until the blackout starts at 1090
	assert.Equal(t, M(true, nil), M(svc.CanStake(1089)))
	assert.Equal(t, M(false, nil), M(svc.CanStake(1090)))

	// stays blocked past the eligible accrual time until the accrual lands
	assert.Equal(t, M(false, nil), M(svc.CanStake(1150)))
	require.NoError(t, svc.RecordAccrualTime(1150))
	assert.Equal(t, M(true, nil), M(svc.CanStake(1150)))
}

func TestZeroBufferNeverBlocks(t *testing.T) {
	svc := newTestService(t, 1000, 100, 0)

	for _, now := range []uint64{0, 1000, 1100, 1_000_000} {
		ok, err := svc.CanStake(now)
		assert.NoError(t, err)
		assert.True(t, ok, "now=%d", now)
	}
}

func TestSetterConstraints(t *testing.T) {
	svc := newTestService(t, 1000, 100, 10)

	assert.ErrorIs(t, svc.SetBuffer(101), ErrInvalidBuffer)
	assert.ErrorIs(t, svc.SetDelay(9), ErrInvalidDelay)

	// boundary values are allowed
	assert.NoError(t, svc.SetBuffer(100))
	assert.NoError(t, svc.SetDelay(100))

	// and the constraint re-checks against the new values
	assert.ErrorIs(t, svc.SetDelay(99), ErrInvalidDelay)
	assert.NoError(t, svc.SetBuffer(0))
	assert.NoError(t, svc.SetDelay(50))
}

func TestNextSnapshotTimes(t *testing.T) {
	svc := newTestService(t, 1000, 100, 10)

	assert.Equal(t, M(uint64(1100), nil), M(svc.NextSnapshotTime()))
	assert.Equal(t, M(uint64(100), nil), M(svc.TimeUntilNextSnapshot(1000)))
	assert.Equal(t, M(uint64(1), nil), M(svc.TimeUntilNextSnapshot(1099)))
	assert.Equal(t, M(uint64(0), nil), M(svc.TimeUntilNextSnapshot(1100)))
	assert.Equal(t, M(uint64(0), nil), M(svc.TimeUntilNextSnapshot(2000)))
}

func TestInitializeIdempotent(t *testing.T) {
	svc := newTestService(t, 1000, 100, 10)

	require.NoError(t, svc.Initialize(9999, 5, 1))

	assert.Equal(t, M(uint64(1000), nil), M(svc.LastSnapshotTime()))
	assert.Equal(t, M(uint64(100), nil), M(svc.Delay()))
	assert.Equal(t, M(uint64(10), nil), M(svc.Buffer()))
}
