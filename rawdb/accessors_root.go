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
	"encoding/binary"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/kvdb"
)

// RootRecord is a single entry of the root history.
type RootRecord struct {
	Root common.Hash
	Time uint64 // Unix time the root was adopted
	Key  []byte // Key whose write produced the root, empty for reverts and imports
}

// ReadHeadRoot retrieves the latest adopted trie root. The zero hash is
// returned if none was recorded yet.
func ReadHeadRoot(db kvdb.KeyValueReader) common.Hash {
	data, _ := db.Get(headRootKey)
	if len(data) != common.HashLength {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteHeadRoot stores the latest adopted trie root.
func WriteHeadRoot(db kvdb.KeyValueWriter, root common.Hash) {
	if err := db.Put(headRootKey, root.Bytes()); err != nil {
		log.Crit("Failed to store head root", "err", err)
	}
}

// ReadHistoryCount retrieves the number of recorded roots.
func ReadHistoryCount(db kvdb.KeyValueReader) uint64 {
	data, _ := db.Get(historyCountKey)
	if len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

// ReadRootRecord retrieves the root record with the given sequence number.
func ReadRootRecord(db kvdb.KeyValueReader, seq uint64) *RootRecord {
	data, _ := db.Get(historyKey(seq))
	if len(data) == 0 {
		return nil
	}
	rec := new(RootRecord)
	if err := rlp.DecodeBytes(data, rec); err != nil {
		log.Error("Invalid root record RLP", "seq", seq, "err", err)
		return nil
	}
	return rec
}

// ReadRootHistory retrieves all recorded roots, oldest first.
func ReadRootHistory(db kvdb.Iteratee) []*RootRecord {
	it := db.NewIterator(historyPrefix, nil)
	defer it.Release()

	var recs []*RootRecord
	for it.Next() {
		if len(it.Key()) != len(historyPrefix)+8 {
			continue
		}
		rec := new(RootRecord)
		if err := rlp.DecodeBytes(it.Value(), rec); err != nil {
			log.Error("Invalid root record RLP", "key", it.Key(), "err", err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs
}

// WriteRootUpdate appends rec to the root history and adopts rec.Root as the
// head root in one atomic batch. The sequence number of the new record is
// returned.
func WriteRootUpdate(db kvdb.KeyValueStore, rec *RootRecord) (uint64, error) {
	enc, err := rlp.EncodeToBytes(rec)
	if err != nil {
		log.Crit("Failed to RLP encode root record", "err", err)
	}
	seq := ReadHistoryCount(db)

	batch := db.NewBatch()
	if err := batch.Put(historyKey(seq), enc); err != nil {
		return 0, err
	}
	if err := batch.Put(historyCountKey, encodeSeq(seq+1)); err != nil {
		return 0, err
	}
	if err := batch.Put(headRootKey, rec.Root.Bytes()); err != nil {
		return 0, err
	}
	return seq, batch.Write()
}

// FindRootRecord returns the sequence number of the most recent record for
// root, or false if the root was never recorded.
func FindRootRecord(db kvdb.Iteratee, root common.Hash) (uint64, bool) {
	var (
		found bool
		seq   uint64
	)
	it := db.NewIterator(historyPrefix, nil)
	defer it.Release()
	for it.Next() {
		key := it.Key()
		if len(key) != len(historyPrefix)+8 {
			continue
		}
		var rec RootRecord
		if rlp.DecodeBytes(it.Value(), &rec) != nil {
			continue
		}
		if rec.Root == root {
			seq, found = binary.BigEndian.Uint64(key[len(historyPrefix):]), true
		}
	}
	return seq, found
}
