// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakewell/swell/history"
	"github.com/stakewell/swell/kv"
	"github.com/stakewell/swell/storage"
	"github.com/stakewell/swell/swell"
)

func newTestService(t *testing.T) (*Service, *history.Service) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := storage.NewContext(db)
	hist := history.New(ctx)
	return New(ctx, hist), hist
}

func TestAppendAllocatesSequentialIDs(t *testing.T) {
	svc, _ := newTestService(t)

	id, err := svc.Append(big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	id, err = svc.Append(big.NewInt(20))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)

	current, err := svc.CurrentID()
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), current)

	snapshots, err := svc.Snapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, Accrual{SnapshotID: 1, Amount: big.NewInt(10)}, snapshots[0])
	assert.Equal(t, Accrual{SnapshotID: 2, Amount: big.NewInt(20)}, snapshots[1])
}

func TestRewardAtBounds(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RewardAt(0)
	assert.ErrorIs(t, err, ErrInvalidSnapshotID)

	_, err = svc.RewardAt(1)
	assert.ErrorIs(t, err, ErrNonExistentSnapshot)

	_, err = svc.Append(big.NewInt(10))
	require.NoError(t, err)

	amount, err := svc.RewardAt(1)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(10), amount)

	_, err = svc.RewardAt(2)
	assert.ErrorIs(t, err, ErrNonExistentSnapshot)
}

func TestProportionalShares(t *testing.T) {
	svc, hist := newTestService(t)
	a := swell.BytesToAddress([]byte("a1"))
	b := swell.BytesToAddress([]byte("b1"))

	// a holds 6, b holds 4, before snapshot 1
	require.NoError(t, hist.RecordVersion(a, big.NewInt(6), big.NewInt(6), 0))
	require.NoError(t, hist.RecordVersion(b, big.NewInt(4), big.NewInt(10), 0))

	_, err := svc.Append(big.NewInt(100))
	require.NoError(t, err)

	share, err := svc.RewardOfAt(a, 1)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(60), share)

	share, err = svc.RewardOfAt(b, 1)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(40), share)

	// truncating division: 101 * 6 / 10 = 60.6 -> 60
	_, err = svc.Append(big.NewInt(101))
	require.NoError(t, err)

	share, err = svc.RewardOfAt(a, 2)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(60), share)
}

func TestRangeValidation(t *testing.T) {
	svc, hist := newTestService(t)
	a := swell.BytesToAddress([]byte("a1"))

	require.NoError(t, hist.RecordVersion(a, big.NewInt(1), big.NewInt(1), 0))
	_, err := svc.Append(big.NewInt(10))
	require.NoError(t, err)
	_, err = svc.Append(big.NewInt(10))
	require.NoError(t, err)

	_, err = svc.RewardOfInRange(a, 0, 2)
	assert.ErrorIs(t, err, ErrInvalidSnapshotID)

	_, err = svc.RewardOfInRange(a, 2, 1)
	assert.ErrorIs(t, err, ErrNonExistentSnapshot)

	_, err = svc.RewardOfInRange(a, 1, 3)
	assert.ErrorIs(t, err, ErrNonExistentSnapshot)

	total, err := svc.RewardOfInRange(a, 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(20), total)
}

func TestCursorInit(t *testing.T) {
	svc, _ := newTestService(t)
	a := swell.BytesToAddress([]byte("a1"))

	// before any snapshot: first stake initializes to 1
	require.NoError(t, svc.InitCursor(a))
	cursor, err := svc.Cursor(a)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), cursor)

	// existing cursor is left alone
	_, err = svc.Append(big.NewInt(10))
	require.NoError(t, err)
	require.NoError(t, svc.InitCursor(a))
	cursor, _ = svc.Cursor(a)
	assert.Equal(t, uint64(1), cursor)

	// with snapshots allocated, a fresh account lands on the current id
	b := swell.BytesToAddress([]byte("b1"))
	_, err = svc.Append(big.NewInt(10))
	require.NoError(t, err)
	require.NoError(t, svc.InitCursor(b))
	cursor, _ = svc.Cursor(b)
	assert.Equal(t, uint64(2), cursor)
}
