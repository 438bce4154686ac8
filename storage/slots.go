// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"

	"github.com/stakewell/swell/swell"
)

// Uint256 is a storage wrapper for a single big integer slot.
type Uint256 struct {
	ctx  *Context
	slot swell.Bytes32
}

// NewUint256 binds a big integer to the given slot.
func NewUint256(ctx *Context, slot swell.Bytes32) *Uint256 {
	return &Uint256{ctx: ctx, slot: slot}
}

func (u *Uint256) Get() (*big.Int, error) {
	var value big.Int
	if err := u.ctx.GetStructured(u.slot, &value); err != nil {
		return nil, err
	}
	return &value, nil
}

func (u *Uint256) Set(value *big.Int) error {
	return u.ctx.SetStructured(u.slot, value)
}

func (u *Uint256) Add(value *big.Int) error {
	cur, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(cur.Add(cur, value))
}

func (u *Uint256) Sub(value *big.Int) error {
	cur, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(cur.Sub(cur, value))
}

// Uint64 is a storage wrapper for a single uint64 slot, used for ids,
// timestamps and durations.
type Uint64 struct {
	ctx  *Context
	slot swell.Bytes32
}

// NewUint64 binds a uint64 to the given slot.
func NewUint64(ctx *Context, slot swell.Bytes32) *Uint64 {
	return &Uint64{ctx: ctx, slot: slot}
}

func (u *Uint64) Get() (uint64, error) {
	var value uint64
	if err := u.ctx.GetStructured(u.slot, &value); err != nil {
		return 0, err
	}
	return value, nil
}

func (u *Uint64) Set(value uint64) error {
	return u.ctx.SetStructured(u.slot, value)
}

// String is a storage wrapper for a single string slot.
type String struct {
	ctx  *Context
	slot swell.Bytes32
}

// NewString binds a string to the given slot.
func NewString(ctx *Context, slot swell.Bytes32) *String {
	return &String{ctx: ctx, slot: slot}
}

func (s *String) Get() (string, error) {
	var value string
	if err := s.ctx.GetStructured(s.slot, &value); err != nil {
		return "", err
	}
	return value, nil
}

func (s *String) Set(value string) error {
	return s.ctx.SetStructured(s.slot, value)
}

// Address is a storage wrapper for a single address slot.
type Address struct {
	ctx  *Context
	slot swell.Bytes32
}

// NewAddress binds an address to the given slot.
func NewAddress(ctx *Context, slot swell.Bytes32) *Address {
	return &Address{ctx: ctx, slot: slot}
}

func (a *Address) Get() (swell.Address, error) {
	var value swell.Address
	if err := a.ctx.GetStructured(a.slot, &value); err != nil {
		return swell.Address{}, err
	}
	return value, nil
}

func (a *Address) Set(value swell.Address) error {
	return a.ctx.SetStructured(a.slot, value)
}
