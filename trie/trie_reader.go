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

package trie

import (
	"errors"

	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/triedb/database"
)

// trieReader is a wrapper of the underlying node reader. It's not safe
// for concurrent usage.
type trieReader struct {
	reader database.NodeReader
	codec  Codec
	banned map[string]struct{} // Nibble paths whose nodes are hidden, for tests
}

func newTrieReader(db database.NodeReader, codec Codec) *trieReader {
	return &trieReader{reader: db, codec: codec}
}

// node retrieves the encoded trie node with the provided trie node
// information. A MissingNodeError is returned in case the node is
// not found, a StorageError for any other failure of the database.
//
// Don't modify the returned byte slice since it's not deep-copied and
// still be referenced by database.
func (r *trieReader) node(path []byte, hash common.Hash) ([]byte, error) {
	// Perform the logics in tests for preventing trie node access.
	if r.banned != nil {
		if _, ok := r.banned[string(path)]; ok {
			return nil, &MissingNodeError{NodeHash: hash, Path: path, err: database.ErrNodeNotFound}
		}
	}
	blob, err := r.reader.Node(hash)
	if err != nil {
		if errors.Is(err, database.ErrNodeNotFound) {
			return nil, &MissingNodeError{NodeHash: hash, Path: path, err: err}
		}
		return nil, &StorageError{Op: "read", NodeHash: hash, err: err}
	}
	if len(blob) == 0 {
		return nil, &MissingNodeError{NodeHash: hash, Path: path, err: database.ErrNodeNotFound}
	}
	return blob, nil
}

// resolve fetches and decodes the node stored under hash.
func (r *trieReader) resolve(path []byte, hash common.Hash) (node, []byte, error) {
	blob, err := r.node(path, hash)
	if err != nil {
		return nil, nil, err
	}
	n, err := decodeNode(blob, r.codec)
	if err != nil {
		return nil, nil, &MalformedNodeError{NodeHash: hash, Path: path, err: err}
	}
	return n, blob, nil
}
