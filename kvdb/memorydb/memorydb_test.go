// Copyright 2018 The go-ethereum Authors
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

package memorydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/mpt/kvdb"
	"github.com/sunyihoo/mpt/kvdb/dbtest"
)

func TestMemoryDB(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		dbtest.TestDatabaseSuite(t, func() kvdb.KeyValueStore {
			return New()
		})
	})
}

func TestMemoryDBStat(t *testing.T) {
	db := New()
	require.NoError(t, db.Put([]byte("ab"), []byte("cdef")))
	require.NoError(t, db.Put([]byte("ab"), []byte("cd")))

	stat, err := db.Stat()
	require.NoError(t, err)
	assert.Contains(t, stat, "Entries: 1")
	assert.Contains(t, stat, "4.00 B")
	assert.Equal(t, 1, db.Len())

	require.NoError(t, db.Close())
	_, err = db.Stat()
	assert.ErrorIs(t, err, ErrClosed)
}

func BenchmarkBatchAllocs(b *testing.B) {
	b.ReportAllocs()
	var key = make([]byte, 20)
	var val = make([]byte, 100)
	// 14205 ns/op, 1 allocs/op, 32 B/op
	for i := 0; i < b.N; i++ {
		batch := New().NewBatch()
		batch.Put(key, val)
		batch.Write()
	}
}
