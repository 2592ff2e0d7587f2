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

// Package hashdb implements a content-addressed trie node database on top of
// a key-value store, keyed by the raw node hash.
package hashdb

import (
	"errors"
	"fmt"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/kvdb"
	"github.com/sunyihoo/mpt/triedb/database"
)

var (
	cleanHitMeter   = metrics.NewRegisteredMeter("hashdb/memcache/clean/hit", nil)
	cleanMissMeter  = metrics.NewRegisteredMeter("hashdb/memcache/clean/miss", nil)
	cleanReadMeter  = metrics.NewRegisteredMeter("hashdb/memcache/clean/read", nil)
	cleanWriteMeter = metrics.NewRegisteredMeter("hashdb/memcache/clean/write", nil)

	diskReadMeter  = metrics.NewRegisteredMeter("hashdb/disk/read", nil)
	diskWriteMeter = metrics.NewRegisteredMeter("hashdb/disk/write", nil)
	dedupMeter     = metrics.NewRegisteredMeter("hashdb/dedup", nil)
)

// errDatabaseClosed is returned by node accesses after Close.
var errDatabaseClosed = errors.New("node database closed")

// Config contains the settings for database.
type Config struct {
	CleanCacheSize int // Maximum memory allowance (in bytes) for caching clean nodes
	RecentWrites   int // Number of recently persisted hashes remembered to skip repeated puts
}

// Defaults is the default setting for database if it's not specified.
// Notably, clean cache is disabled explicitly.
var Defaults = &Config{
	// Explicitly set clean cache size to 0 to avoid creating fastcache,
	// otherwise database must be closed when it's no longer needed to
	// prevent memory leak.
	CleanCacheSize: 0,
	RecentWrites:   4096,
}

// Database is a write-through node store. Every Put reaches the disk before
// it returns; the clean cache only shortcuts reads.
//
// It is safe for concurrent use.
type Database struct {
	diskdb kvdb.KeyValueStore
	cleans *fastcache.Cache // GC friendly memory cache of clean node blobs
	recent *lru.Cache       // Hashes known to be on disk already

	lock   sync.RWMutex
	closed bool
}

// New initializes the hash-based node database.
func New(diskdb kvdb.KeyValueStore, config *Config) *Database {
	if config == nil {
		config = Defaults
	}
	var cleans *fastcache.Cache
	if config.CleanCacheSize > 0 {
		cleans = fastcache.New(config.CleanCacheSize)
	}
	db := &Database{
		diskdb: diskdb,
		cleans: cleans,
	}
	if config.RecentWrites > 0 {
		recent, err := lru.New(config.RecentWrites)
		if err != nil {
			log.Warn("Disabled recent write tracking", "size", config.RecentWrites, "err", err)
		} else {
			db.recent = recent
		}
	}
	return db
}

// Node retrieves an encoded trie node by hash, from the clean cache or the
// persistent database.
func (db *Database) Node(hash common.Hash) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return nil, errDatabaseClosed
	}
	if db.cleans != nil {
		if enc, ok := db.cleans.HasGet(nil, hash[:]); ok {
			cleanHitMeter.Mark(1)
			cleanReadMeter.Mark(int64(len(enc)))
			return enc, nil
		}
		cleanMissMeter.Mark(1)
	}
	enc, err := db.diskdb.Get(hash[:])
	if err != nil {
		if errors.Is(err, kvdb.ErrNotFound) {
			return nil, fmt.Errorf("%w: %x", database.ErrNodeNotFound, hash)
		}
		return nil, err
	}
	if len(enc) == 0 {
		return nil, fmt.Errorf("%w: %x", database.ErrNodeNotFound, hash)
	}
	diskReadMeter.Mark(int64(len(enc)))
	if db.cleans != nil {
		db.cleans.Set(hash[:], enc)
		cleanWriteMeter.Mark(int64(len(enc)))
	}
	return enc, nil
}

// Put persists the node blob under its hash. Repeated puts of a hash that is
// known to be on disk are skipped.
func (db *Database) Put(hash common.Hash, blob []byte) error {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return errDatabaseClosed
	}
	if db.recent != nil && db.recent.Contains(hash) {
		dedupMeter.Mark(1)
		return nil
	}
	if err := db.diskdb.Put(hash[:], blob); err != nil {
		return err
	}
	diskWriteMeter.Mark(int64(len(blob)))
	if db.recent != nil {
		db.recent.Add(hash, struct{}{})
	}
	if db.cleans != nil {
		db.cleans.Set(hash[:], blob)
		cleanWriteMeter.Mark(int64(len(blob)))
	}
	return nil
}

// Has reports whether the node is stored, without loading it into the cache.
func (db *Database) Has(hash common.Hash) (bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return false, errDatabaseClosed
	}
	if db.cleans != nil && db.cleans.Has(hash[:]) {
		return true, nil
	}
	return db.diskdb.Has(hash[:])
}

// DiskDB retrieves the persistent storage backing the trie database.
func (db *Database) DiskDB() kvdb.KeyValueStore {
	return db.diskdb
}

// CacheStats returns the number of entries and bytes held by the clean cache
// together with its lifetime hit/miss counters.
func (db *Database) CacheStats() (entries uint64, size common.StorageSize, hits uint64, misses uint64) {
	if db.cleans == nil {
		return 0, 0, 0, 0
	}
	var stats fastcache.Stats
	db.cleans.UpdateStats(&stats)
	return stats.EntriesCount, common.StorageSize(stats.BytesSize), stats.GetCalls - stats.Misses, stats.Misses
}

// Close releases the clean cache. The key-value store is owned by the caller
// and left open; further node accesses fail with errDatabaseClosed.
func (db *Database) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.closed {
		return nil
	}
	db.closed = true
	if db.cleans != nil {
		db.cleans.Reset()
	}
	if db.recent != nil {
		db.recent.Purge()
	}
	return nil
}

var _ database.NodeDatabase = (*Database)(nil)
