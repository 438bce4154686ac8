// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin exposes the operator surface: runtime log level and the
// owner-gated ledger setters. Meant to be served on its own listener, away
// from the public API.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakewell/swell/api/utils"
	"github.com/stakewell/swell/ledger"
	"github.com/stakewell/swell/log"
	"github.com/stakewell/swell/swell"
)

type Admin struct {
	ledger   *ledger.Ledger
	logLevel *slog.LevelVar
}

func New(l *ledger.Ledger, logLevel *slog.LevelVar) *Admin {
	return &Admin{l, logLevel}
}

// convertError translates ledger errors. The ledger itself checks the
// caller against the owner, so an identity mismatch is forbidden and the
// rest is the caller's fault.
func convertError(err error) error {
	switch errors.Cause(err) {
	case nil:
		return nil
	case ledger.ErrUnauthorized:
		return utils.Forbidden(err)
	case ledger.ErrInvalidDelay, ledger.ErrInvalidBuffer:
		return utils.BadRequest(err)
	default:
		return err
	}
}

func parseAddress(s string) (swell.Address, error) {
	addr, err := swell.ParseAddress(s)
	if err != nil {
		return swell.Address{}, err
	}
	return *addr, nil
}

func (a *Admin) handleGetLogLevel(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, &LogLevel{Level: a.logLevel.Level().String()})
}

func (a *Admin) handleSetLogLevel(w http.ResponseWriter, req *http.Request) error {
	var body LogLevel
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	switch body.Level {
	case "trace":
		a.logLevel.Set(log.LevelTrace)
	case "debug":
		a.logLevel.Set(log.LevelDebug)
	case "info":
		a.logLevel.Set(log.LevelInfo)
	case "warn":
		a.logLevel.Set(log.LevelWarn)
	case "error":
		a.logLevel.Set(log.LevelError)
	case "crit":
		a.logLevel.Set(log.LevelCrit)
	default:
		return utils.BadRequest(errors.New("invalid verbosity level"))
	}
	return utils.WriteJSON(w, &LogLevel{Level: a.logLevel.Level().String()})
}

func (a *Admin) handleSetDistributor(w http.ResponseWriter, req *http.Request) error {
	var body SetDistributorRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := parseAddress(body.Caller)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "caller"))
	}
	distributor, err := parseAddress(body.Distributor)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "distributor"))
	}
	if err := a.ledger.SetDistributor(caller, distributor); err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, utils.M{"distributor": distributor})
}

func (a *Admin) handleSetSchedule(w http.ResponseWriter, req *http.Request) error {
	var body SetScheduleRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := parseAddress(body.Caller)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "caller"))
	}
	// delay first, so a request raising both never trips the buffer bound
	if body.Delay != nil {
		if err := a.ledger.SetSnapshotDelay(caller, *body.Delay); err != nil {
			return convertError(err)
		}
	}
	if body.Buffer != nil {
		if err := a.ledger.SetSnapshotBuffer(caller, *body.Buffer); err != nil {
			return convertError(err)
		}
	}
	delay, err := a.ledger.SnapshotDelay()
	if err != nil {
		return err
	}
	buffer, err := a.ledger.SnapshotBuffer()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"delay": delay, "buffer": buffer})
}

func (a *Admin) handleSetMessage(w http.ResponseWriter, req *http.Request) error {
	var body SetMessageRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := parseAddress(body.Caller)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "caller"))
	}
	if err := a.ledger.SetMessage(caller, body.Message); err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, utils.M{"message": body.Message})
}

func (a *Admin) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/loglevel").
		Methods(http.MethodGet).
		Name("admin_get_loglevel").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetLogLevel))
	sub.Path("/loglevel").
		Methods(http.MethodPost).
		Name("admin_set_loglevel").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSetLogLevel))
	sub.Path("/distributor").
		Methods(http.MethodPost).
		Name("admin_set_distributor").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSetDistributor))
	sub.Path("/schedule").
		Methods(http.MethodPost).
		Name("admin_set_schedule").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSetSchedule))
	sub.Path("/message").
		Methods(http.MethodPost).
		Name("admin_set_message").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSetMessage))
}

// HTTPHandler builds a standalone handler for the admin surface.
func HTTPHandler(l *ledger.Ledger, logLevel *slog.LevelVar) http.Handler {
	router := mux.NewRouter()
	New(l, logLevel).Mount(router, "/admin")
	return router
}
