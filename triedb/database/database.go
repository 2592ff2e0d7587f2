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

// Package database defines the node storage contract the trie is built on.
package database

import (
	"errors"

	"github.com/sunyihoo/mpt/common"
)

// ErrNodeNotFound is returned by a NodeReader when no blob is stored under
// the requested hash.
var ErrNodeNotFound = errors.New("trie node not found")

// NodeReader wraps the Node method of a backing trie store.
type NodeReader interface {
	// Node retrieves the trie node blob stored under the given hash. If the
	// node is absent, an error matching ErrNodeNotFound is returned.
	//
	// Don't modify the returned byte slice since it may not be deep-copied
	// and still be referenced by the database.
	Node(hash common.Hash) ([]byte, error)
}

// NodeWriter wraps the Put method of a backing trie store.
type NodeWriter interface {
	// Put persists the blob under its hash. Storing the same hash twice is a
	// no-op; nodes are never deleted or overwritten with different content.
	Put(hash common.Hash, blob []byte) error
}

// NodeDatabase is a content-addressed store of trie nodes.
type NodeDatabase interface {
	NodeReader
	NodeWriter
}
