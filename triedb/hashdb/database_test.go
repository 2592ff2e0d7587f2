// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package hashdb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/crypto"
	"github.com/sunyihoo/mpt/kvdb"
	"github.com/sunyihoo/mpt/kvdb/memorydb"
	"github.com/sunyihoo/mpt/triedb/database"
)

// countingStore counts writes reaching the disk layer and can be told to fail.
type countingStore struct {
	kvdb.KeyValueStore
	puts    int
	failPut error
	failGet error
}

func (s *countingStore) Put(key, value []byte) error {
	if s.failPut != nil {
		return s.failPut
	}
	s.puts++
	return s.KeyValueStore.Put(key, value)
}

func (s *countingStore) Get(key []byte) ([]byte, error) {
	if s.failGet != nil {
		return nil, s.failGet
	}
	return s.KeyValueStore.Get(key)
}

func TestPutGet(t *testing.T) {
	for _, config := range []*Config{nil, {CleanCacheSize: 1024 * 1024, RecentWrites: 16}} {
		disk := memorydb.New()
		db := New(disk, config)

		blob := []byte("node blob")
		hash := crypto.Keccak256Hash(blob)
		require.NoError(t, db.Put(hash, blob))

		got, err := db.Node(hash)
		require.NoError(t, err)
		assert.Equal(t, blob, got)

		// Keys on disk are the raw hash
		stored, err := disk.Get(hash[:])
		require.NoError(t, err)
		assert.Equal(t, blob, stored)

		has, err := db.Has(hash)
		require.NoError(t, err)
		assert.True(t, has)
		require.NoError(t, db.Close())
	}
}

func TestIdempotentPut(t *testing.T) {
	disk := &countingStore{KeyValueStore: memorydb.New()}
	db := New(disk, &Config{RecentWrites: 16})

	blob := []byte{0xc2, 0x80, 0x80}
	hash := crypto.Keccak256Hash(blob)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Put(hash, blob))
	}
	assert.Equal(t, 1, disk.puts, "repeated puts must not reach the disk")

	got, err := db.Node(hash)
	require.NoError(t, err)
	assert.Equal(t, blob, got)
}

func TestCleanCacheHits(t *testing.T) {
	disk := memorydb.New()
	db := New(disk, &Config{CleanCacheSize: 1024 * 1024})
	defer db.Close()

	blob := []byte("cached")
	hash := crypto.Keccak256Hash(blob)
	require.NoError(t, disk.Put(hash[:], blob))

	for i := 0; i < 3; i++ {
		got, err := db.Node(hash)
		require.NoError(t, err)
		assert.Equal(t, blob, got)
	}
	entries, size, hits, misses := db.CacheStats()
	assert.Equal(t, uint64(1), entries)
	assert.NotZero(t, size)
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), misses)

	// A cached node survives removal from disk
	require.NoError(t, disk.Delete(hash[:]))
	got, err := db.Node(hash)
	require.NoError(t, err)
	assert.Equal(t, blob, got)
}

func TestMissingNode(t *testing.T) {
	db := New(memorydb.New(), nil)

	_, err := db.Node(common.HexToHash("0xdeadbeef"))
	assert.ErrorIs(t, err, database.ErrNodeNotFound)
}

func TestStorageFailures(t *testing.T) {
	boom := errors.New("disk on fire")
	disk := &countingStore{KeyValueStore: memorydb.New(), failPut: boom}
	db := New(disk, nil)

	blob := []byte("blob")
	hash := crypto.Keccak256Hash(blob)
	assert.ErrorIs(t, db.Put(hash, blob), boom)

	// A failed put must not be remembered as persisted
	disk.failPut = nil
	require.NoError(t, db.Put(hash, blob))
	assert.Equal(t, 1, disk.puts)

	disk.failGet = boom
	_, err := db.Node(hash)
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, database.ErrNodeNotFound))
}

func TestAccessAfterClose(t *testing.T) {
	db := New(memorydb.New(), &Config{CleanCacheSize: 1024 * 1024, RecentWrites: 16})

	blob := []byte("node blob")
	hash := crypto.Keccak256Hash(blob)
	require.NoError(t, db.Put(hash, blob))
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err := db.Node(hash)
	assert.ErrorIs(t, err, errDatabaseClosed)
	assert.ErrorIs(t, db.Put(hash, blob), errDatabaseClosed)
	_, err = db.Has(hash)
	assert.ErrorIs(t, err, errDatabaseClosed)
}
