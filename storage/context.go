// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed, buffered access to ledger state persisted
// in a kv store. Writes are staged in the context and become durable only on
// Commit, so a failed operation can be discarded without partial effects.
package storage

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/stakewell/swell/kv"
	"github.com/stakewell/swell/swell"
)

// Context stages reads and writes against a kv store.
type Context struct {
	store  kv.GetPutter
	staged map[swell.Bytes32][]byte
}

// NewContext creates a storage context over the given store.
func NewContext(store kv.GetPutter) *Context {
	return &Context{
		store:  store,
		staged: make(map[swell.Bytes32][]byte),
	}
}

// DecodeStorage reads raw storage at the given slot and passes it to the decode
// callback. Reads observe staged writes. A missing slot yields empty raw.
func (c *Context) DecodeStorage(slot swell.Bytes32, decode func(raw []byte) error) error {
	if raw, ok := c.staged[slot]; ok {
		return decode(raw)
	}
	raw, err := c.store.Get(slot.Bytes())
	if err != nil {
		if c.store.IsNotFound(err) {
			return decode(nil)
		}
		return errors.Wrap(err, "read storage")
	}
	return decode(raw)
}

// EncodeStorage stages raw storage produced by the encode callback at the given
// slot. Returning empty raw marks the slot for deletion.
func (c *Context) EncodeStorage(slot swell.Bytes32, encode func() ([]byte, error)) error {
	raw, err := encode()
	if err != nil {
		return err
	}
	c.staged[slot] = raw
	return nil
}

// GetStructured rlp-decodes the value stored at the slot. A missing slot
// leaves val at its zero value.
func (c *Context) GetStructured(slot swell.Bytes32, val any) error {
	return c.DecodeStorage(slot, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, val)
	})
}

// SetStructured rlp-encodes val and stages it at the slot.
func (c *Context) SetStructured(slot swell.Bytes32, val any) error {
	return c.EncodeStorage(slot, func() ([]byte, error) {
		return rlp.EncodeToBytes(val)
	})
}

// Uncommitted returns the number of staged writes.
func (c *Context) Uncommitted() int {
	return len(c.staged)
}

// Commit writes all staged changes to the store as a single batch. The
// staged writes are dropped whether the batch lands or not: a failed
// operation's writes must never ride along with a later commit.
func (c *Context) Commit() error {
	if len(c.staged) == 0 {
		return nil
	}
	var err error
	batch := c.store.NewBatch()
	for slot, raw := range c.staged {
		if len(raw) == 0 {
			err = batch.Delete(slot.Bytes())
		} else {
			err = batch.Put(slot.Bytes(), raw)
		}
		if err != nil {
			break
		}
	}
	if err == nil {
		err = batch.Write()
	}
	c.staged = make(map[swell.Bytes32][]byte)
	if err != nil {
		return errors.Wrap(err, "commit storage")
	}
	return nil
}

// Discard drops all staged changes.
func (c *Context) Discard() {
	if len(c.staged) > 0 {
		c.staged = make(map[swell.Bytes32][]byte)
	}
}
