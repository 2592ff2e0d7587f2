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
	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/kvdb"
)

// ReadPreimage retrieves a single preimage of the provided hash.
func ReadPreimage(db kvdb.KeyValueReader, hash common.Hash) []byte {
	data, _ := db.Get(preimageKey(hash))
	if len(data) > 0 {
		preimageHitCounter.Inc(1)
	}
	return data
}

// WritePreimages writes the provided set of preimages to the database.
func WritePreimages(db kvdb.KeyValueWriter, preimages map[common.Hash][]byte) error {
	for hash, preimage := range preimages {
		if err := db.Put(preimageKey(hash), preimage); err != nil {
			return err
		}
	}
	preimageCounter.Inc(int64(len(preimages)))
	return nil
}

// PreimageStore persists the key preimages of hashed-key tries.
type PreimageStore struct {
	db kvdb.KeyValueStore
}

// NewPreimageStore creates a preimage store on top of db.
func NewPreimageStore(db kvdb.KeyValueStore) *PreimageStore {
	return &PreimageStore{db: db}
}

// Preimage retrieves the preimage of the specified hash.
func (s *PreimageStore) Preimage(hash common.Hash) []byte {
	return ReadPreimage(s.db, hash)
}

// InsertPreimage commits a set of preimages along with their hashes.
func (s *PreimageStore) InsertPreimage(preimages map[common.Hash][]byte) error {
	batch := s.db.NewBatch()
	if err := WritePreimages(batch, preimages); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		log.Error("Failed to flush preimages", "count", len(preimages), "err", err)
		return err
	}
	return nil
}
