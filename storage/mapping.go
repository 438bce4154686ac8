// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/stakewell/swell/swell"
)

// Key constrains mapping keys to byte-representable types.
type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction, similar to a mapping in a smart
// contract. Each entry lives in its own slot derived from the base position
// and the key.
type Mapping[K Key, V any] struct {
	ctx     *Context
	basePos swell.Bytes32
}

// NewMapping creates a mapping rooted at the given position.
func NewMapping[K Key, V any](ctx *Context, pos swell.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{ctx: ctx, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) swell.Bytes32 {
	return swell.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get returns the value stored for the key, or the zero value if absent.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.ctx.DecodeStorage(m.position(key), func(raw []byte) error {
		if reflect.ValueOf(&value).Elem().Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set stores the value for the key.
func (m *Mapping[K, V]) Set(key K, value V) error {
	return m.ctx.EncodeStorage(m.position(key), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}
