// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakewell/swell/kv"
	"github.com/stakewell/swell/storage"
	"github.com/stakewell/swell/swell"
)

func newTestService(t *testing.T) (*Service, *storage.Context) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := storage.NewContext(db)
	return New(ctx), ctx
}

func TestPointInTimeQueries(t *testing.T) {
	svc, _ := newTestService(t)
	acc := swell.BytesToAddress([]byte("a1"))

	// stake 6 before any snapshot exists (current id 0)
	require.NoError(t, svc.RecordVersion(acc, big.NewInt(6), big.NewInt(6), 0))

	// snapshot 1 freezes that state; later the balance moves to 10 (current id 1)
	require.NoError(t, svc.RecordVersion(acc, big.NewInt(10), big.NewInt(10), 1))

	// and to 4 after snapshot 3 (current id 3)
	require.NoError(t, svc.RecordVersion(acc, big.NewInt(4), big.NewInt(4), 3))

	tests := []struct {
		id       uint64
		expected int64
	}{
		{1, 6},  // state written while id was 0
		{2, 10}, // written while id was 1
		{3, 10}, // unchanged between snapshots 2 and 3
		{4, 4},  // written while id was 3
		{9, 4},  // beyond last version: latest value
	}
	for _, tt := range tests {
		bal, err := svc.BalanceAt(acc, tt.id)
		assert.NoError(t, err)
		assert.Equal(t, big.NewInt(tt.expected), bal, "balance at snapshot %d", tt.id)

		supply, err := svc.TotalSupplyAt(tt.id)
		assert.NoError(t, err)
		assert.Equal(t, big.NewInt(tt.expected), supply, "supply at snapshot %d", tt.id)
	}
}

func TestUnknownAccountIsZero(t *testing.T) {
	svc, _ := newTestService(t)

	bal, err := svc.BalanceAt(swell.BytesToAddress([]byte("nobody")), 1)
	assert.NoError(t, err)
	assert.Equal(t, new(big.Int), bal)
}

func TestSameIDOverwrites(t *testing.T) {
	svc, _ := newTestService(t)
	acc := swell.BytesToAddress([]byte("a1"))

	// two writes while id is 2 collapse into one checkpoint
	require.NoError(t, svc.RecordVersion(acc, big.NewInt(5), big.NewInt(5), 2))
	require.NoError(t, svc.RecordVersion(acc, big.NewInt(8), big.NewInt(8), 2))

	bal, err := svc.BalanceAt(acc, 3)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(8), bal)

	// snapshot 2 predates both writes
	bal, err = svc.BalanceAt(acc, 2)
	assert.NoError(t, err)
	assert.Equal(t, new(big.Int), bal)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	svc, _ := newTestService(t)
	acc := swell.BytesToAddress([]byte("a1"))

	require.NoError(t, svc.RecordVersion(acc, big.NewInt(7), big.NewInt(7), 0))

	bal, err := svc.BalanceAt(acc, 1)
	require.NoError(t, err)
	bal.SetInt64(999)

	again, err := svc.BalanceAt(acc, 1)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(7), again)
}

func TestSurvivesCommit(t *testing.T) {
	svc, ctx := newTestService(t)
	acc := swell.BytesToAddress([]byte("a1"))

	require.NoError(t, svc.RecordVersion(acc, big.NewInt(3), big.NewInt(3), 0))
	require.NoError(t, ctx.Commit())

	bal, err := svc.BalanceAt(acc, 1)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(3), bal)
}
