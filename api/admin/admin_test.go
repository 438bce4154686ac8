// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakewell/swell/auth"
	"github.com/stakewell/swell/kv"
	"github.com/stakewell/swell/ledger"
	"github.com/stakewell/swell/storage"
	"github.com/stakewell/swell/swell"
	"github.com/stakewell/swell/token"
)

var (
	owner    = swell.BytesToAddress([]byte("owner"))
	stranger = swell.BytesToAddress([]byte("stranger"))
)

func newTestServer(t *testing.T) (*httptest.Server, *slog.LevelVar) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	ctx := storage.NewContext(db)

	tok := token.New("principal", ctx)
	led, err := ledger.New(ctx, ledger.Options{
		Address:     swell.BytesToAddress([]byte("ledger")),
		Owner:       owner,
		Distributor: owner,
		AuthMode:    auth.ModeNone,
		Principal:   tok,
		Reward:      tok,
		Delay:       1000,
		Buffer:      100,
	})
	require.NoError(t, err)

	level := new(slog.LevelVar)
	srv := httptest.NewServer(HTTPHandler(led, level))
	t.Cleanup(srv.Close)
	return srv, level
}

func post(t *testing.T, url string, body any) (int, map[string]any) {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	if res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	}
	return res.StatusCode, out
}

func TestLogLevel(t *testing.T) {
	srv, level := newTestServer(t)

	res, err := http.Get(srv.URL + "/admin/loglevel")
	require.NoError(t, err)
	defer res.Body.Close()
	var current LogLevel
	require.NoError(t, json.NewDecoder(res.Body).Decode(&current))
	assert.Equal(t, "INFO", current.Level)

	code, out := post(t, srv.URL+"/admin/loglevel", LogLevel{Level: "debug"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "DEBUG", out["level"])
	assert.Equal(t, slog.LevelDebug, level.Level())

	code, _ = post(t, srv.URL+"/admin/loglevel", LogLevel{Level: "loud"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestScheduleSetters(t *testing.T) {
	srv, _ := newTestServer(t)

	delay := uint64(2000)
	buffer := uint64(500)
	code, out := post(t, srv.URL+"/admin/schedule", SetScheduleRequest{
		Caller: owner.String(),
		Delay:  &delay,
		Buffer: &buffer,
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2000), out["delay"])
	assert.Equal(t, float64(500), out["buffer"])

	// buffer above delay is rejected
	tooBig := uint64(3000)
	code, _ = post(t, srv.URL+"/admin/schedule", SetScheduleRequest{
		Caller: owner.String(),
		Buffer: &tooBig,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	// only the owner may change the schedule
	code, _ = post(t, srv.URL+"/admin/schedule", SetScheduleRequest{
		Caller: stranger.String(),
		Delay:  &delay,
	})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestSetDistributor(t *testing.T) {
	srv, _ := newTestServer(t)

	code, out := post(t, srv.URL+"/admin/distributor", SetDistributorRequest{
		Caller:      owner.String(),
		Distributor: stranger.String(),
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, stranger.String(), out["distributor"])

	code, _ = post(t, srv.URL+"/admin/distributor", SetDistributorRequest{
		Caller:      stranger.String(),
		Distributor: owner.String(),
	})
	assert.Equal(t, http.StatusForbidden, code)
}
