// Copyright 2020 The go-ethereum Authors
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
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/mpt/kvdb"
	"github.com/sunyihoo/mpt/kvdb/boltdb"
	"github.com/sunyihoo/mpt/kvdb/leveldb"
	"github.com/sunyihoo/mpt/kvdb/pebble"
)

// OpenOptions contains the options to apply when opening a database.
type OpenOptions struct {
	Type      string // One of DBPebble, DBLeveldb, DBBolt or DBMemory, empty to autodetect
	Directory string // Database directory, ignored for the memory database
	Namespace string // Metrics namespace
	Cache     int    // Megabytes of memory allocated to internal caching
	Handles   int    // Number of file handles allocated to the database
	ReadOnly  bool
}

// Open opens a key-value database, e.g. pebble, leveldb or bolt.
//
//	                      type == null          type != null
//	                   +----------------------------------------
//	db is non-existent |  pebble default  |  specified type
//	db is existent     |  from db         |  specified type (if compatible)
func Open(o OpenOptions) (kvdb.KeyValueStore, error) {
	switch o.Type {
	case "", DBPebble, DBLeveldb, DBBolt:
	case DBMemory:
		log.Info("Using an ephemeral in-memory database")
		return NewMemoryDatabase(), nil
	default:
		return nil, fmt.Errorf("unknown db.engine %v", o.Type)
	}
	// Retrieve any pre-existing database's type and use that or the requested one
	// as long as there's no conflict between the two types
	existingDb := PreexistingDatabase(o.Directory)
	if len(existingDb) != 0 && len(o.Type) != 0 && o.Type != existingDb {
		return nil, fmt.Errorf("db.engine choice was %v but found pre-existing %v database in specified data directory", o.Type, existingDb)
	}
	if o.Type == DBPebble || existingDb == DBPebble {
		log.Info("Using pebble as the backing database")
		return pebble.New(o.Directory, o.Cache, o.Handles, o.Namespace, o.ReadOnly)
	}
	if o.Type == DBLeveldb || existingDb == DBLeveldb {
		log.Info("Using leveldb as the backing database")
		return leveldb.New(o.Directory, o.Cache, o.Handles, o.Namespace, o.ReadOnly)
	}
	if o.Type == DBBolt || existingDb == DBBolt {
		log.Info("Using bolt as the backing database")
		if !o.ReadOnly {
			if err := os.MkdirAll(o.Directory, 0700); err != nil {
				return nil, err
			}
		}
		return boltdb.New(filepath.Join(o.Directory, boltFile), o.Namespace, o.ReadOnly)
	}
	// No pre-existing database, no user-requested one either. Default to Pebble.
	log.Info("Defaulting to pebble as the backing database")
	return pebble.New(o.Directory, o.Cache, o.Handles, o.Namespace, o.ReadOnly)
}
