// Copyright 2015 The go-ethereum Authors
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
	"bytes"
	"fmt"

	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/kvdb"
)

// Prove constructs a merkle proof for key. The result contains all encoded nodes
// on the path to the value at key, root first. The value itself is also included
// in the last node and can be retrieved by verifying the proof.
//
// If the trie does not contain a value for key, the returned proof contains all
// nodes of the longest existing prefix of the key (at least the root node), ending
// with the node that proves the absence of the key. The proof of an empty trie
// contains no nodes.
func (t *Trie) Prove(key []byte, proofDb kvdb.KeyValueWriter) error {
	_, err := t.get(t.root, toNibbles(key), 0, func(hash common.Hash, blob []byte) error {
		return proofDb.Put(hash[:], blob)
	})
	if err == ErrNotFound {
		return nil
	}
	return err
}

// ProofList stores an ordered list of trie nodes. It implements kvdb.KeyValueWriter.
type ProofList [][]byte

// Put appends the node, ignoring its key.
func (n *ProofList) Put(key []byte, value []byte) error {
	*n = append(*n, common.CopyBytes(value))
	return nil
}

// Delete panics as there's no reason to remove a node from the list.
func (n *ProofList) Delete(key []byte) error {
	panic("not supported")
}

// VerifyProof checks merkle proofs. The given proof must contain the nodes on
// the path to key, root first, as produced by Prove. It returns the value for
// key if the proof shows inclusion, ErrNotFound if the proof shows the key is
// absent from the trie, and an error matching ErrInvalidProof if the proof does
// not authenticate against root.
func VerifyProof(root common.Hash, key []byte, proof ProofList, config *Config) ([]byte, error) {
	config = config.sanitize()
	h := newHasher(config)

	if root == (common.Hash{}) || root == h.emptyRoot() {
		if len(proof) != 0 {
			return nil, fmt.Errorf("%w: %d surplus nodes for the empty trie", ErrInvalidProof, len(proof))
		}
		return nil, ErrNotFound
	}
	var (
		nibbles = toNibbles(key)
		pos     int
		want    = root
	)
	for i := 0; ; i++ {
		if i >= len(proof) {
			return nil, fmt.Errorf("%w: proof node %d (hash %064x) missing", ErrInvalidProof, i, want)
		}
		if got := h.hashData(proof[i]); got != want {
			return nil, fmt.Errorf("%w: proof node %d hash mismatch (have %x, want %x)", ErrInvalidProof, i, got, want)
		}
		n, err := decodeNode(proof[i], config.Codec)
		if err != nil {
			return nil, fmt.Errorf("%w: bad proof node %d: %w", ErrInvalidProof, i, err)
		}
		var (
			next  common.Hash // zero once the walk terminates
			value []byte
		)
		switch n := n.(type) {
		case *leafNode:
			if bytes.Equal(n.Path, nibbles[pos:]) {
				value = n.Value
			}
		case *extensionNode:
			if bytes.HasPrefix(nibbles[pos:], n.Path) {
				pos += len(n.Path)
				next = n.Child
			}
		case *branchNode:
			if pos == len(nibbles) {
				value = n.Value
			} else {
				next = n.Children[nibbles[pos]]
				pos++
			}
		default:
			panic(fmt.Sprintf("%T: invalid node: %v", n, n))
		}
		if next != (common.Hash{}) {
			want = next
			continue
		}
		if i != len(proof)-1 {
			return nil, fmt.Errorf("%w: %d surplus nodes after the terminal node", ErrInvalidProof, len(proof)-1-i)
		}
		if len(value) == 0 {
			return nil, ErrNotFound
		}
		return common.CopyBytes(value), nil
	}
}
