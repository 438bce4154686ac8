// Copyright (c) 2025 The Swell developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket provides a logical bucket on a kv store by key prefixing.
type Bucket string

type bucketStore struct {
	prefix string
	src    GetPutter
}

type bucketBatch struct {
	prefix string
	batch  Batch
}

// NewStore creates a bucket store over the source store.
func (b Bucket) NewStore(src GetPutter) GetPutter {
	return &bucketStore{string(b), src}
}

func (s *bucketStore) key(key []byte) []byte {
	return append([]byte(s.prefix), key...)
}

func (s *bucketStore) Get(key []byte) ([]byte, error) {
	return s.src.Get(s.key(key))
}

func (s *bucketStore) Has(key []byte) (bool, error) {
	return s.src.Has(s.key(key))
}

func (s *bucketStore) IsNotFound(err error) bool {
	return s.src.IsNotFound(err)
}

func (s *bucketStore) Put(key, value []byte) error {
	return s.src.Put(s.key(key), value)
}

func (s *bucketStore) Delete(key []byte) error {
	return s.src.Delete(s.key(key))
}

func (s *bucketStore) NewBatch() Batch {
	return &bucketBatch{s.prefix, s.src.NewBatch()}
}

func (b *bucketBatch) Put(key, value []byte) error {
	return b.batch.Put(append([]byte(b.prefix), key...), value)
}

func (b *bucketBatch) Delete(key []byte) error {
	return b.batch.Delete(append([]byte(b.prefix), key...))
}

func (b *bucketBatch) Len() int {
	return b.batch.Len()
}

func (b *bucketBatch) Write() error {
	return b.batch.Write()
}
