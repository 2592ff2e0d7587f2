// Copyright 2019 The go-ethereum Authors
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

// Package dbtest contains the conformance suite every key-value backend must pass.
package dbtest

import (
	"bytes"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/mpt/kvdb"
)

// TestDatabaseSuite runs a suite of tests against a KeyValueStore database
// implementation.
func TestDatabaseSuite(t *testing.T, New func() kvdb.KeyValueStore) {
	t.Run("Iterator", func(t *testing.T) {
		tests := []struct {
			content map[string]string
			prefix  string
			start   string
			order   []string
		}{
			// Empty databases should be iterable
			{map[string]string{}, "", "", nil},
			{map[string]string{}, "non-existent-prefix", "", nil},

			// Single-item databases should be iterable
			{map[string]string{"key": "val"}, "", "", []string{"key"}},
			{map[string]string{"key": "val"}, "k", "", []string{"key"}},
			{map[string]string{"key": "val"}, "l", "", nil},

			// Multi-item databases should be fully iterable
			{
				map[string]string{"k1": "v1", "k5": "v5", "k2": "v2", "k4": "v4", "k3": "v3"},
				"", "",
				[]string{"k1", "k2", "k3", "k4", "k5"},
			},
			{
				map[string]string{"k1": "v1", "k5": "v5", "k2": "v2", "k4": "v4", "k3": "v3"},
				"k", "",
				[]string{"k1", "k2", "k3", "k4", "k5"},
			},
			{
				map[string]string{"k1": "v1", "k5": "v5", "k2": "v2", "k4": "v4", "k3": "v3"},
				"l", "",
				nil,
			},
			// Multi-item databases should be prefix-iterable
			{
				map[string]string{
					"ka1": "va1", "ka5": "va5", "ka2": "va2", "ka4": "va4", "ka3": "va3",
					"kb1": "vb1", "kb5": "vb5", "kb2": "vb2", "kb4": "vb4", "kb3": "vb3",
				},
				"ka", "",
				[]string{"ka1", "ka2", "ka3", "ka4", "ka5"},
			},
			{
				map[string]string{
					"ka1": "va1", "ka5": "va5", "ka2": "va2", "ka4": "va4", "ka3": "va3",
					"kb1": "vb1", "kb5": "vb5", "kb2": "vb2", "kb4": "vb4", "kb3": "vb3",
				},
				"kc", "",
				nil,
			},
			// Multi-item databases should be prefix-iterable with start position
			{
				map[string]string{
					"ka1": "va1", "ka5": "va5", "ka2": "va2", "ka4": "va4", "ka3": "va3",
					"kb1": "vb1", "kb5": "vb5", "kb2": "vb2", "kb4": "vb4", "kb3": "vb3",
				},
				"ka", "3",
				[]string{"ka3", "ka4", "ka5"},
			},
			{
				map[string]string{
					"ka1": "va1", "ka5": "va5", "ka2": "va2", "ka4": "va4", "ka3": "va3",
					"kb1": "vb1", "kb5": "vb5", "kb2": "vb2", "kb4": "vb4", "kb3": "vb3",
				},
				"ka", "8",
				nil,
			},
		}
		for i, tt := range tests {
			t.Run(fmt.Sprintf("case-%d", i), func(t *testing.T) {
				db := New()
				defer db.Close()

				for key, val := range tt.content {
					require.NoError(t, db.Put([]byte(key), []byte(val)))
				}
				it := db.NewIterator([]byte(tt.prefix), []byte(tt.start))
				defer it.Release()

				var got []string
				for it.Next() {
					key := string(it.Key())
					assert.Equal(t, tt.content[key], string(it.Value()), "value mismatch for %q", key)
					got = append(got, key)
				}
				require.NoError(t, it.Error())
				assert.Equal(t, tt.order, got)
			})
		}
	})

	t.Run("IteratorWith", func(t *testing.T) {
		db := New()
		defer db.Close()

		keys := []string{"1", "2", "3", "4", "6", "10", "11", "12", "20", "21", "22"}
		slices.Sort(keys)
		for _, k := range keys {
			require.NoError(t, db.Put([]byte(k), nil))
		}
		{
			it := db.NewIterator(nil, nil)
			var got []string
			for it.Next() {
				got = append(got, string(it.Key()))
			}
			it.Release()
			assert.Equal(t, keys, got)
		}
		{
			it := db.NewIterator([]byte("1"), nil)
			var got []string
			for it.Next() {
				got = append(got, string(it.Key()))
			}
			it.Release()
			assert.Equal(t, []string{"1", "10", "11", "12"}, got)
		}
		{
			it := db.NewIterator(nil, []byte("2"))
			var got []string
			for it.Next() {
				got = append(got, string(it.Key()))
			}
			it.Release()
			assert.Equal(t, []string{"2", "20", "21", "22", "3", "4", "6"}, got)
		}
	})

	t.Run("KeyValueOperations", func(t *testing.T) {
		db := New()
		defer db.Close()

		key := []byte("foo")

		got, err := db.Has(key)
		require.NoError(t, err)
		assert.False(t, got, "key exists before insertion")

		_, err = db.Get(key)
		assert.ErrorIs(t, err, kvdb.ErrNotFound)

		value := []byte("hello world")
		require.NoError(t, db.Put(key, value))

		got, err = db.Has(key)
		require.NoError(t, err)
		assert.True(t, got)

		dat, err := db.Get(key)
		require.NoError(t, err)
		assert.Equal(t, value, dat)

		// Mutating the returned slice must not leak into the store
		dat[0] = 'X'
		dat, err = db.Get(key)
		require.NoError(t, err)
		assert.Equal(t, value, dat)

		// Overwrite
		require.NoError(t, db.Put(key, []byte("bye")))
		dat, err = db.Get(key)
		require.NoError(t, err)
		assert.Equal(t, []byte("bye"), dat)

		require.NoError(t, db.Delete(key))
		got, err = db.Has(key)
		require.NoError(t, err)
		assert.False(t, got, "key exists after deletion")
	})

	t.Run("Batch", func(t *testing.T) {
		db := New()
		defer db.Close()

		b := db.NewBatch()
		for _, k := range []string{"1", "2", "3", "4"} {
			require.NoError(t, b.Put([]byte(k), nil))
		}
		has, err := db.Has([]byte("1"))
		require.NoError(t, err)
		assert.False(t, has, "batch writes are not visible before Write")

		require.NoError(t, b.Write())
		assert.Equal(t, []string{"1", "2", "3", "4"}, iterateKeys(db.NewIterator(nil, nil)))

		b.Reset()
		// Mix writes and deletes in batch
		b.Put([]byte("5"), nil)
		b.Delete([]byte("1"))
		b.Put([]byte("6"), nil)

		b.Delete([]byte("3")) // delete then put
		b.Put([]byte("3"), nil)

		b.Put([]byte("7"), nil) // put then delete
		b.Delete([]byte("7"))

		require.NoError(t, b.Write())
		assert.Equal(t, []string{"2", "3", "4", "5", "6"}, iterateKeys(db.NewIterator(nil, nil)))
	})

	t.Run("BatchReplay", func(t *testing.T) {
		db := New()
		defer db.Close()

		want := []string{"1", "2", "3", "4"}
		b := db.NewBatch()
		for _, k := range want {
			require.NoError(t, b.Put([]byte(k), []byte("v"+k)))
		}
		b2 := db.NewBatch()
		require.NoError(t, b.Replay(b2))
		require.NoError(t, b2.Replay(db))

		assert.Equal(t, want, iterateKeys(db.NewIterator(nil, nil)))
		assert.Equal(t, 4*3, b.ValueSize())
	})

	t.Run("OperationsAfterClose", func(t *testing.T) {
		db := New()
		require.NoError(t, db.Put([]byte("key"), []byte("value")))
		require.NoError(t, db.Close())

		_, err := db.Get([]byte("key"))
		assert.Error(t, err)
		assert.Error(t, db.Put([]byte("another"), []byte("value")))
	})
}

func iterateKeys(it kvdb.Iterator) []string {
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	slices.SortFunc(keys, func(a, b string) int { return bytes.Compare([]byte(a), []byte(b)) })
	it.Release()
	return keys
}
