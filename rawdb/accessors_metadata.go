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
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/sunyihoo/mpt/kvdb"
)

// DatabaseVersion is the version number of the schema written by this package.
const DatabaseVersion = 1

// TrieConfigRecord is the persisted form of the trie configuration.
type TrieConfigRecord struct {
	Hasher string
	Codec  string
}

// String implements fmt.Stringer.
func (r *TrieConfigRecord) String() string {
	return fmt.Sprintf("%s/%s", r.Hasher, r.Codec)
}

// ReadDatabaseVersion retrieves the version number of the database.
func ReadDatabaseVersion(db kvdb.KeyValueReader) *uint64 {
	var version uint64

	enc, _ := db.Get(databaseVersionKey)
	if len(enc) == 0 {
		return nil
	}
	if err := rlp.DecodeBytes(enc, &version); err != nil {
		return nil
	}
	return &version
}

// WriteDatabaseVersion stores the version number of the database
func WriteDatabaseVersion(db kvdb.KeyValueWriter, version uint64) {
	enc, err := rlp.EncodeToBytes(version)
	if err != nil {
		log.Crit("Failed to encode database version", "err", err)
	}
	if err = db.Put(databaseVersionKey, enc); err != nil {
		log.Crit("Failed to store the database version", "err", err)
	}
}

// ReadTrieConfig retrieves the trie configuration the database was created
// with, or nil if none was stored.
func ReadTrieConfig(db kvdb.KeyValueReader) *TrieConfigRecord {
	enc, _ := db.Get(trieConfigKey)
	if len(enc) == 0 {
		return nil
	}
	var rec TrieConfigRecord
	if err := rlp.DecodeBytes(enc, &rec); err != nil {
		log.Error("Invalid trie config RLP", "err", err)
		return nil
	}
	return &rec
}

// WriteTrieConfig stores the trie configuration of the database.
func WriteTrieConfig(db kvdb.KeyValueWriter, rec *TrieConfigRecord) {
	enc, err := rlp.EncodeToBytes(rec)
	if err != nil {
		log.Crit("Failed to encode trie config", "err", err)
	}
	if err := db.Put(trieConfigKey, enc); err != nil {
		log.Crit("Failed to store trie config", "err", err)
	}
}

// ReadMetadata returns a set of key/value pairs that contains information
// about the database status. This can be used for diagnostic purposes.
func ReadMetadata(db kvdb.KeyValueReader) [][]string {
	pp := func(val *uint64) string {
		if val == nil {
			return "<nil>"
		}
		return fmt.Sprintf("%d (%#x)", *val, *val)
	}
	config := "<nil>"
	if rec := ReadTrieConfig(db); rec != nil {
		config = rec.String()
	}
	count := ReadHistoryCount(db)
	return [][]string{
		{"databaseVersion", pp(ReadDatabaseVersion(db))},
		{"trieConfig", config},
		{"headRoot", fmt.Sprintf("%v", ReadHeadRoot(db))},
		{"historyCount", pp(&count)},
	}
}
