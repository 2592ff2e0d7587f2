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

// Package boltdb implements the key-value database layer based on bbolt.
package boltdb

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/kvdb"
	bolt "go.etcd.io/bbolt"
)

const (
	// openTimeout bounds the wait for the file lock held by another process.
	openTimeout = time.Second

	// iteratorChunk is the number of entries an iterator loads per read
	// transaction. Holding a read transaction across user code would block
	// writers remapping the file.
	iteratorChunk = 1024
)

// bucketName is the single bucket holding the whole keyspace.
var bucketName = []byte("kv")

// Database is a persistent key-value store backed by a single bbolt file.
type Database struct {
	fn string
	db *bolt.DB

	getMeter metrics.Meter
	putMeter metrics.Meter

	closeOnce sync.Once
	log       log.Logger
}

// New opens (and creates if needed) a bbolt file as a key-value store.
func New(file string, namespace string, readonly bool) (*Database, error) {
	logger := log.New("database", file)
	db, err := bolt.Open(file, 0600, &bolt.Options{Timeout: openTimeout, ReadOnly: readonly})
	if err != nil {
		return nil, err
	}
	if !readonly {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucketName)
			return err
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	logger.Info("Opened bolt database", "readonly", readonly)
	return &Database{
		fn:       file,
		db:       db,
		getMeter: metrics.GetOrRegisterMeter(namespace+"db/get", nil),
		putMeter: metrics.GetOrRegisterMeter(namespace+"db/put", nil),
		log:      logger,
	}, nil
}

// Close flushes any pending data to disk and closes the file.
func (d *Database) Close() error {
	var err error
	d.closeOnce.Do(func() { err = d.db.Close() })
	return err
}

// view runs fn against the bucket in a read transaction. A missing bucket
// (read-only open of a fresh file) behaves as an empty store.
func (d *Database) view(fn func(b *bolt.Bucket) error) error {
	return d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		return fn(b)
	})
}

// Has retrieves if a key is present in the key-value store.
func (d *Database) Has(key []byte) (bool, error) {
	var found bool
	err := d.view(func(b *bolt.Bucket) error {
		k, _ := b.Cursor().Seek(key)
		found = k != nil && bytes.Equal(k, key)
		return nil
	})
	return found, err
}

// Get retrieves the given key if it's present in the key-value store.
func (d *Database) Get(key []byte) ([]byte, error) {
	var (
		ret   []byte
		found bool
	)
	err := d.view(func(b *bolt.Bucket) error {
		k, v := b.Cursor().Seek(key)
		if k == nil || !bytes.Equal(k, key) {
			return nil
		}
		found, ret = true, common.CopyBytes(v)
		if ret == nil {
			ret = []byte{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, kvdb.ErrNotFound
	}
	d.getMeter.Mark(int64(len(ret)))
	return ret, nil
}

// Put inserts the given value into the key-value store.
func (d *Database) Put(key []byte, value []byte) error {
	err := d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
	if err == nil {
		d.putMeter.Mark(int64(len(value)))
	}
	return err
}

// Delete removes the key from the key-value store.
func (d *Database) Delete(key []byte) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key)
	})
}

// NewBatch creates a write-only key-value store that buffers changes to its host
// database until a final write is called.
func (d *Database) NewBatch() kvdb.Batch {
	return &batch{db: d}
}

// NewBatchWithSize creates a write-only database batch with pre-allocated buffer.
func (d *Database) NewBatchWithSize(size int) kvdb.Batch {
	return &batch{db: d, ops: make([]keyvalue, 0, size)}
}

// Stat returns the transaction and page statistics of the bolt file.
func (d *Database) Stat() (string, error) {
	var (
		s       = d.db.Stats()
		entries int
	)
	err := d.view(func(b *bolt.Bucket) error {
		entries = b.Stats().KeyN
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Entries: %d\nFree pages: %d\nPending pages: %d\nRead txs: %d\n",
		entries, s.FreePageN, s.PendingPageN, s.TxN), nil
}

// Compact is a no-op: bbolt reuses freed pages in place and offers no
// online compaction.
func (d *Database) Compact(start []byte, limit []byte) error {
	return nil
}

// Path returns the path to the database file.
func (d *Database) Path() string {
	return d.fn
}

// NewIterator creates a binary-alphabetical iterator over a subset
// of database content with a particular key prefix, starting at a particular
// initial key (or after, if it does not exist).
func (d *Database) NewIterator(prefix []byte, start []byte) kvdb.Iterator {
	return &iterator{
		db:     d,
		prefix: common.CopyBytes(prefix),
		next:   append(common.CopyBytes(prefix), start...),
		index:  -1,
	}
}

// keyvalue is a queued batch operation. A nil value with delete set marks a
// removal.
type keyvalue struct {
	key    []byte
	value  []byte
	delete bool
}

// batch is a write-only bolt batch that commits changes to its host database
// in a single transaction when Write is called. A batch cannot be used
// concurrently.
type batch struct {
	db   *Database
	ops  []keyvalue
	size int
}

// Put inserts the given value into the batch for later committing.
func (b *batch) Put(key, value []byte) error {
	b.ops = append(b.ops, keyvalue{key: common.CopyBytes(key), value: common.CopyBytes(value)})
	b.size += len(key) + len(value)
	return nil
}

// Delete inserts the key removal into the batch for later committing.
func (b *batch) Delete(key []byte) error {
	b.ops = append(b.ops, keyvalue{key: common.CopyBytes(key), delete: true})
	b.size += len(key)
	return nil
}

// ValueSize retrieves the amount of data queued up for writing.
func (b *batch) ValueSize() int {
	return b.size
}

// Write flushes any accumulated data to disk.
func (b *batch) Write() error {
	return b.db.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for _, op := range b.ops {
			var err error
			if op.delete {
				err = bucket.Delete(op.key)
			} else {
				err = bucket.Put(op.key, op.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Reset resets the batch for reuse.
func (b *batch) Reset() {
	b.ops = b.ops[:0]
	b.size = 0
}

// Replay replays the batch contents.
func (b *batch) Replay(w kvdb.KeyValueWriter) error {
	for _, op := range b.ops {
		if op.delete {
			if err := w.Delete(op.key); err != nil {
				return err
			}
			continue
		}
		if err := w.Put(op.key, op.value); err != nil {
			return err
		}
	}
	return nil
}

// iterator walks the bucket in chunks, each loaded by a short-lived read
// transaction.
type iterator struct {
	db     *Database
	prefix []byte
	next   []byte // seek position of the next chunk
	done   bool   // no entries left past next

	keys   [][]byte
	values [][]byte
	index  int
	err    error
}

// fill loads the next chunk of entries starting at it.next.
func (it *iterator) fill() {
	it.keys, it.values, it.index = it.keys[:0], it.values[:0], -1
	if it.done {
		return
	}
	it.err = it.db.view(func(b *bolt.Bucket) error {
		c := b.Cursor()
		for k, v := c.Seek(it.next); k != nil && bytes.HasPrefix(k, it.prefix); k, v = c.Next() {
			if len(it.keys) == iteratorChunk {
				it.next = common.CopyBytes(k)
				return nil
			}
			it.keys = append(it.keys, common.CopyBytes(k))
			it.values = append(it.values, common.CopyBytes(v))
		}
		it.done = true
		return nil
	})
	if it.err != nil {
		it.done = true
	}
}

// Next moves the iterator to the next key/value pair. It returns whether the
// iterator is exhausted.
func (it *iterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.index+1 >= len(it.keys) {
		it.fill()
	}
	if it.index+1 >= len(it.keys) {
		return false
	}
	it.index++
	return true
}

// Error returns any accumulated error. Exhausting all the key/value pairs
// is not considered to be an error.
func (it *iterator) Error() error {
	return it.err
}

// Key returns the key of the current key/value pair, or nil if done.
func (it *iterator) Key() []byte {
	if it.index < 0 || it.index >= len(it.keys) {
		return nil
	}
	return it.keys[it.index]
}

// Value returns the value of the current key/value pair, or nil if done.
func (it *iterator) Value() []byte {
	if it.index < 0 || it.index >= len(it.values) {
		return nil
	}
	return it.values[it.index]
}

// Release releases associated resources.
func (it *iterator) Release() {
	it.keys, it.values, it.next = nil, nil, nil
	it.index, it.done = -1, true
}
