// Copyright 2014 The go-ethereum Authors
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

// Package trie implements a persistent Merkle Patricia Trie whose nodes are
// always addressed by hash and written to the node database as soon as they
// are created.
package trie

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/triedb/database"
)

// Trie is a Merkle Patricia Trie. Use New to create a trie that sits on
// top of a database. Every Update builds new nodes along the path from the
// modified leaf to the root, persists them and moves the root; nodes reachable
// from earlier roots are never touched, so any previously observed root can be
// reverted to.
//
// Trie is not safe for concurrent use. Readers should work on a Copy.
type Trie struct {
	root      common.Hash
	emptyRoot common.Hash

	// reader is the handler trie can retrieve nodes from.
	reader *trieReader

	// writer persists every newly created node.
	writer database.NodeWriter

	hasher *hasher
	config *Config
}

// New creates the trie instance with the provided root on top of the node
// database. The root can be the zero hash or the empty root of the
// configuration, then the trie is initially empty, otherwise the root node
// must be present in the database or a MissingNodeError is returned.
func New(root common.Hash, db database.NodeDatabase, config *Config) (*Trie, error) {
	config = config.sanitize()
	h := newHasher(config)
	trie := &Trie{
		emptyRoot: h.emptyRoot(),
		reader:    newTrieReader(db, config.Codec),
		writer:    db,
		hasher:    h,
		config:    config,
	}
	trie.root = trie.emptyRoot
	if err := trie.Revert(root); err != nil {
		return nil, err
	}
	return trie, nil
}

// NewEmpty is a shortcut to create empty tree. It's mostly used in tests.
func NewEmpty(db database.NodeDatabase) *Trie {
	tr, _ := New(common.Hash{}, db, nil)
	return tr
}

// Copy returns an independent handle on the same root. Updates applied to
// either handle are invisible to the other.
func (t *Trie) Copy() *Trie {
	cpy := *t
	return &cpy
}

// Config returns the codec and hash function the trie was opened with.
func (t *Trie) Config() *Config {
	return t.config
}

// Hash returns the root hash of the trie. The hash of an empty trie is the
// empty root of the configuration.
func (t *Trie) Hash() common.Hash {
	return t.root
}

// Revert re-adopts a previously observed root. The root node must be
// resolvable, the trie is left untouched otherwise.
func (t *Trie) Revert(root common.Hash) error {
	if t.isEmpty(root) {
		t.root = t.emptyRoot
		return nil
	}
	if _, _, err := t.reader.resolve(nil, root); err != nil {
		return err
	}
	t.root = root
	return nil
}

// isEmpty reports whether the reference points at the empty trie.
func (t *Trie) isEmpty(ref common.Hash) bool {
	return ref == (common.Hash{}) || ref == t.emptyRoot
}

// MustGet is a wrapper of Get and will omit any encountered error but just
// print out an error message.
func (t *Trie) MustGet(key []byte) []byte {
	res, err := t.Get(key)
	if err != nil && err != ErrNotFound {
		log.Error("Unhandled trie error in Trie.Get", "err", err)
	}
	return res
}

// Get returns the value for key stored in the trie.
// ErrNotFound is returned if the key is absent. If the trie is corrupted,
// an error matching ErrMalformedTrie is returned.
func (t *Trie) Get(key []byte) ([]byte, error) {
	value, err := t.get(t.root, toNibbles(key), 0, nil)
	if err != nil {
		return nil, err
	}
	return common.CopyBytes(value), nil
}

// get descends from ref along key[pos:]. onNode, if set, is invoked for every
// node resolved on the way, root first.
func (t *Trie) get(ref common.Hash, key []byte, pos int, onNode func(common.Hash, []byte) error) ([]byte, error) {
	if t.isEmpty(ref) {
		return nil, ErrNotFound
	}
	n, blob, err := t.reader.resolve(key[:pos], ref)
	if err != nil {
		return nil, err
	}
	if onNode != nil {
		if err := onNode(ref, blob); err != nil {
			return nil, err
		}
	}
	switch n := n.(type) {
	case *leafNode:
		if !bytes.Equal(n.Path, key[pos:]) {
			return nil, ErrNotFound
		}
		return n.Value, nil
	case *extensionNode:
		if !bytes.HasPrefix(key[pos:], n.Path) {
			return nil, ErrNotFound
		}
		return t.get(n.Child, key, pos+len(n.Path), onNode)
	case *branchNode:
		if pos == len(key) {
			if len(n.Value) == 0 {
				return nil, ErrNotFound
			}
			return n.Value, nil
		}
		return t.get(n.Children[key[pos]], key, pos+1, onNode)
	default:
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}

// MustUpdate is a wrapper of Update and will omit any encountered error but
// just print out an error message.
func (t *Trie) MustUpdate(key, value []byte) {
	if err := t.Update(key, value); err != nil {
		log.Error("Unhandled trie error in Trie.Update", "err", err)
	}
}

// Update associates key with value in the trie. Zero-length values are
// rejected with ErrEmptyValue, there is no way to delete a key other than
// reverting to an older root.
//
// The value bytes must not be modified by the caller while they are
// stored in the trie.
//
// If the trie is corrupted, a MissingNodeError is returned and the root is
// left unchanged.
func (t *Trie) Update(key, value []byte) error {
	if len(value) == 0 {
		return ErrEmptyValue
	}
	root, err := t.insert(t.root, nil, toNibbles(key), value)
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

// insert rebuilds the subtree referenced by ref with key (relative to prefix)
// set to value, returning the reference of the new subtree. Untouched
// subtrees keep their references.
func (t *Trie) insert(ref common.Hash, prefix, key []byte, value []byte) (common.Hash, error) {
	if t.isEmpty(ref) {
		return t.store(&leafNode{Path: key, Value: value})
	}
	n, _, err := t.reader.resolve(prefix, ref)
	if err != nil {
		return common.Hash{}, err
	}
	switch n := n.(type) {
	case *leafNode:
		matchlen := prefixLen(key, n.Path)
		// If the whole key matches, keep this leaf and only update the value.
		if matchlen == len(n.Path) && matchlen == len(key) {
			if bytes.Equal(n.Value, value) {
				return ref, nil
			}
			return t.store(&leafNode{Path: n.Path, Value: value})
		}
		// Otherwise branch out at the index where they differ.
		branch := &branchNode{}
		if err := t.place(branch, n.Path[matchlen:], n.Value); err != nil {
			return common.Hash{}, err
		}
		if err := t.place(branch, key[matchlen:], value); err != nil {
			return common.Hash{}, err
		}
		return t.wrap(key[:matchlen], branch)

	case *extensionNode:
		matchlen := prefixLen(key, n.Path)
		// If the whole path matches, descend into the child.
		if matchlen == len(n.Path) {
			child, err := t.insert(n.Child, concat(prefix, n.Path...), key[matchlen:], value)
			if err != nil {
				return common.Hash{}, err
			}
			if child == n.Child {
				return ref, nil
			}
			return t.store(&extensionNode{Path: n.Path, Child: child})
		}
		// Otherwise split the extension at the divergent nibble. The remaining
		// extension path may be empty, then the branch points at the child
		// directly.
		var (
			branch = &branchNode{}
			idx    = n.Path[matchlen]
		)
		if rest := n.Path[matchlen+1:]; len(rest) == 0 {
			branch.Children[idx] = n.Child
		} else {
			ext, err := t.store(&extensionNode{Path: rest, Child: n.Child})
			if err != nil {
				return common.Hash{}, err
			}
			branch.Children[idx] = ext
		}
		if err := t.place(branch, key[matchlen:], value); err != nil {
			return common.Hash{}, err
		}
		return t.wrap(key[:matchlen], branch)

	case *branchNode:
		if len(key) == 0 {
			if bytes.Equal(n.Value, value) {
				return ref, nil
			}
			nb := n.copy()
			nb.Value = value
			return t.store(nb)
		}
		child, err := t.insert(n.Children[key[0]], concat(prefix, key[0]), key[1:], value)
		if err != nil {
			return common.Hash{}, err
		}
		if child == n.Children[key[0]] {
			return ref, nil
		}
		nb := n.copy()
		nb.Children[key[0]] = child
		return t.store(nb)

	default:
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}

// place puts value into a branch under construction at the path rest below
// it. An exhausted path lands in the value slot, anything else in a fresh
// leaf below the first nibble.
func (t *Trie) place(branch *branchNode, rest, value []byte) error {
	if len(rest) == 0 {
		branch.Value = value
		return nil
	}
	leaf, err := t.store(&leafNode{Path: rest[1:], Value: value})
	if err != nil {
		return err
	}
	branch.Children[rest[0]] = leaf
	return nil
}

// wrap stores a freshly built branch and, if the split happened below a
// shared prefix, an extension over that prefix pointing to it.
func (t *Trie) wrap(shared []byte, branch *branchNode) (common.Hash, error) {
	ref, err := t.store(branch)
	if err != nil {
		return common.Hash{}, err
	}
	if len(shared) == 0 {
		return ref, nil
	}
	return t.store(&extensionNode{Path: common.CopyBytes(shared), Child: ref})
}

// store serializes and hashes a new node and persists it before handing out
// its reference.
func (t *Trie) store(n node) (common.Hash, error) {
	hash, blob := t.hasher.hash(n)
	if err := t.writer.Put(hash, blob); err != nil {
		return common.Hash{}, &StorageError{Op: "write", NodeHash: hash, err: err}
	}
	log.Trace("Stored trie node", "hash", hash, "size", len(blob))
	return hash, nil
}
