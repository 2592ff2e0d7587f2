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

// Package rawdb contains a collection of low level database accessors.
package rawdb

import (
	"bytes"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/crypto"
)

// The fields below define the low level database schema prefixing.
var (
	// databaseVersionKey tracks the current database version.
	databaseVersionKey = []byte("DatabaseVersion")

	// trieConfigKey tracks the hasher and codec the stored nodes were built with.
	trieConfigKey = []byte("TrieConfig")

	// headRootKey tracks the latest adopted trie root.
	headRootKey = []byte("LastRoot")

	// historyCountKey tracks the number of recorded roots.
	historyCountKey = []byte("HistoryCount")

	// Data item prefixes (use single byte to avoid mixing data types).
	historyPrefix = []byte("h") // historyPrefix + seq (uint64 big endian) -> root record

	PreimagePrefix = []byte("secure-key-") // PreimagePrefix + hash -> preimage

	preimageCounter    = metrics.NewRegisteredCounter("db/preimage/total", nil)
	preimageHitCounter = metrics.NewRegisteredCounter("db/preimage/hits", nil)
)

// encodeSeq encodes a history sequence number as big endian uint64
func encodeSeq(seq uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, seq)
	return enc
}

// historyKey = historyPrefix + seq (uint64 big endian)
func historyKey(seq uint64) []byte {
	return append(append([]byte{}, historyPrefix...), encodeSeq(seq)...)
}

// preimageKey = PreimagePrefix + hash
func preimageKey(hash common.Hash) []byte {
	return append(append([]byte{}, PreimagePrefix...), hash.Bytes()...)
}

// IsTrieNode reports whether the key/value pair looks like a trie node
// stored by its hash under the given hasher.
func IsTrieNode(key, val []byte, hasher crypto.Hasher) bool {
	if len(key) != common.HashLength {
		return false
	}
	return bytes.Equal(key, hasher.Hash(val).Bytes())
}
