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

package rawdb

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/olekukonko/tablewriter"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/crypto"
	"github.com/sunyihoo/mpt/kvdb"
	"github.com/sunyihoo/mpt/kvdb/memorydb"
)

const (
	DBPebble  = "pebble"
	DBLeveldb = "leveldb"
	DBBolt    = "bolt"
	DBMemory  = "memory"

	boltFile = "nodes.bolt"
)

// NewMemoryDatabase creates an ephemeral in-memory key-value database.
func NewMemoryDatabase() kvdb.KeyValueStore {
	return memorydb.New()
}

// PreexistingDatabase checks the given data directory whether a database is already
// instantiated at that location, and if so, returns the type of database (or the
// empty string).
func PreexistingDatabase(path string) string {
	if _, err := os.Stat(filepath.Join(path, boltFile)); err == nil {
		return DBBolt
	}
	if _, err := os.Stat(filepath.Join(path, "CURRENT")); err != nil {
		return ""
	}
	if matches, err := filepath.Glob(filepath.Join(path, "OPTIONS*")); len(matches) > 0 || err != nil {
		if err != nil {
			panic(err)
		}
		return DBPebble
	}
	return DBLeveldb
}

type counter uint64

func (c counter) String() string {
	return fmt.Sprintf("%d", c)
}

// stat stores sizes and count for a parameter
type stat struct {
	size  common.StorageSize
	count counter
}

// Add size to the stat and increase the counter by 1
func (s *stat) Add(size common.StorageSize) {
	s.size += size
	s.count++
}

func (s *stat) Size() string {
	return s.size.String()
}

func (s *stat) Count() string {
	return s.count.String()
}

// InspectDatabase traverses the entire database and checks the size
// of all different categories of data. Trie nodes are recognized by
// rehashing their value with hasher.
func InspectDatabase(db kvdb.KeyValueStore, hasher crypto.Hasher, w io.Writer) error {
	it := db.NewIterator(nil, nil)
	defer it.Release()

	var (
		count  int64
		start  = time.Now()
		logged = time.Now()

		tries     stat
		history   stat
		preimages stat

		// Meta- and unaccounted data
		metadata    stat
		unaccounted stat

		// Totals
		total common.StorageSize
	)
	// Inspect key-value database first.
	for it.Next() {
		var (
			key  = it.Key()
			size = common.StorageSize(len(key) + len(it.Value()))
		)
		total += size
		switch {
		case IsTrieNode(key, it.Value(), hasher):
			tries.Add(size)
		case bytes.HasPrefix(key, historyPrefix) && len(key) == len(historyPrefix)+8:
			history.Add(size)
		case bytes.HasPrefix(key, PreimagePrefix) && len(key) == (len(PreimagePrefix)+common.HashLength):
			preimages.Add(size)
		default:
			var accounted bool
			for _, meta := range [][]byte{
				databaseVersionKey, trieConfigKey, headRootKey, historyCountKey,
			} {
				if bytes.Equal(key, meta) {
					metadata.Add(size)
					accounted = true
					break
				}
			}
			if !accounted {
				unaccounted.Add(size)
			}
		}
		count++
		if count%1000 == 0 && time.Since(logged) > 8*time.Second {
			log.Info("Inspecting database", "count", count, "elapsed", common.PrettyDuration(time.Since(start)))
			logged = time.Now()
		}
	}
	if err := it.Error(); err != nil {
		return err
	}
	// Display the database statistic of key-value store.
	stats := [][]string{
		{"Key-Value store", "Trie nodes", tries.Size(), tries.Count()},
		{"Key-Value store", "Root history", history.Size(), history.Count()},
		{"Key-Value store", "Trie preimages", preimages.Size(), preimages.Count()},
		{"Key-Value store", "Singleton metadata", metadata.Size(), metadata.Count()},
		{"Key-Value store", "Unaccounted", unaccounted.Size(), unaccounted.Count()},
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Database", "Category", "Size", "Items"})
	table.SetFooter([]string{"", "Total", total.String(), " "})
	table.AppendBulk(stats)
	table.Render()

	if unaccounted.size > 0 {
		log.Error("Database contains unaccounted data", "size", unaccounted.size, "count", unaccounted.count)
	}
	return nil
}
