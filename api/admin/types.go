// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

type LogLevel struct {
	Level string `json:"level"`
}

type SetDistributorRequest struct {
	Caller      string `json:"caller"`
	Distributor string `json:"distributor"`
}

type SetScheduleRequest struct {
	Caller string  `json:"caller"`
	Delay  *uint64 `json:"delay"`
	Buffer *uint64 `json:"buffer"`
}

type SetMessageRequest struct {
	Caller  string `json:"caller"`
	Message string `json:"message"`
}
