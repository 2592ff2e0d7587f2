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
	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/kvdb"
	"github.com/sunyihoo/mpt/triedb/database"
)

// preimageStore wraps the methods of a backing store for reading and writing
// trie key preimages.
type preimageStore interface {
	// Preimage retrieves the preimage of the specified hash.
	Preimage(hash common.Hash) []byte

	// InsertPreimage commits a set of preimages along with their hashes.
	InsertPreimage(preimages map[common.Hash][]byte) error
}

// SecureTrie wraps a trie with key hashing. In a SecureTrie, all
// access operations hash the key using the configured hash function. This
// prevents calling code from creating long chains of nodes that
// increase the access time.
//
// Contrary to a regular trie, a SecureTrie can only be created with
// NewSecure and must have an attached database. The preimage of each
// key is recorded if a preimage store is given.
//
// SecureTrie is not safe for concurrent use.
type SecureTrie struct {
	trie        Trie
	preimages   preimageStore
	secKeyCache map[common.Hash][]byte
}

// NewSecure creates a trie with an existing root node from a backing database.
//
// If root is the zero hash or the empty root of the configuration, the
// trie is initially empty. Otherwise, NewSecure will panic if db is nil and returns
// a MissingNodeError if the root node cannot be found.
func NewSecure(root common.Hash, db database.NodeDatabase, config *Config, preimages preimageStore) (*SecureTrie, error) {
	if db == nil {
		panic("trie.NewSecure called without a database")
	}
	trie, err := New(root, db, config)
	if err != nil {
		return nil, err
	}
	return &SecureTrie{trie: *trie, preimages: preimages}, nil
}

// hashKey returns the hash of key as an ephemeral buffer.
func (t *SecureTrie) hashKey(key []byte) []byte {
	return t.trie.config.Hasher.Hash(key).Bytes()
}

// MustGet returns the value for key stored in the trie.
// The value bytes must not be modified by the caller.
//
// This function will omit any encountered error but just
// print out an error message.
func (t *SecureTrie) MustGet(key []byte) []byte {
	return t.trie.MustGet(t.hashKey(key))
}

// Get returns the value for key stored in the trie.
// The value bytes must not be modified by the caller.
// ErrNotFound is returned if the key is absent.
func (t *SecureTrie) Get(key []byte) ([]byte, error) {
	return t.trie.Get(t.hashKey(key))
}

// MustUpdate associates key with value in the trie. Subsequent calls to
// Get will return value.
//
// This function will omit any encountered error but just print out an
// error message.
func (t *SecureTrie) MustUpdate(key, value []byte) {
	if err := t.Update(key, value); err != nil {
		log.Error("Unhandled trie error in SecureTrie.Update", "err", err)
	}
}

// Update associates key with value in the trie. Subsequent calls to
// Get will return value.
//
// The value bytes must not be modified by the caller while they are
// stored in the trie.
func (t *SecureTrie) Update(key, value []byte) error {
	hk := t.hashKey(key)
	if err := t.trie.Update(hk, value); err != nil {
		return err
	}
	t.getSecKeyCache()[common.BytesToHash(hk)] = common.CopyBytes(key)
	return nil
}

// GetKey returns the preimage of a hashed key that was
// previously used to store a value.
func (t *SecureTrie) GetKey(shaKey []byte) []byte {
	if key, ok := t.getSecKeyCache()[common.BytesToHash(shaKey)]; ok {
		return key
	}
	if t.preimages == nil {
		return nil
	}
	return t.preimages.Preimage(common.BytesToHash(shaKey))
}

// Prove constructs a merkle proof for the hashed key. See Trie.Prove.
func (t *SecureTrie) Prove(key []byte, proofDb kvdb.KeyValueWriter) error {
	return t.trie.Prove(t.hashKey(key), proofDb)
}

// Commit flushes the preimages of all keys written since the last commit
// into the preimage store. Trie nodes are already persisted by Update.
func (t *SecureTrie) Commit() error {
	if len(t.getSecKeyCache()) == 0 || t.preimages == nil {
		t.secKeyCache = make(map[common.Hash][]byte)
		return nil
	}
	if err := t.preimages.InsertPreimage(t.secKeyCache); err != nil {
		return err
	}
	t.secKeyCache = make(map[common.Hash][]byte)
	return nil
}

// Hash returns the root hash of SecureTrie.
func (t *SecureTrie) Hash() common.Hash {
	return t.trie.Hash()
}

// Revert re-adopts a previously observed root. See Trie.Revert.
func (t *SecureTrie) Revert(root common.Hash) error {
	return t.trie.Revert(root)
}

// Trie exposes the underlying trie keyed by hashed keys, e.g. for iteration.
func (t *SecureTrie) Trie() *Trie {
	return t.trie.Copy()
}

// Copy returns a copy of SecureTrie.
func (t *SecureTrie) Copy() *SecureTrie {
	cache := make(map[common.Hash][]byte, len(t.secKeyCache))
	for k, v := range t.secKeyCache {
		cache[k] = v
	}
	return &SecureTrie{
		trie:        *t.trie.Copy(),
		preimages:   t.preimages,
		secKeyCache: cache,
	}
}

// getSecKeyCache returns the current secure key cache, creating it on first use.
func (t *SecureTrie) getSecKeyCache() map[common.Hash][]byte {
	if t.secKeyCache == nil {
		t.secKeyCache = make(map[common.Hash][]byte)
	}
	return t.secKeyCache
}

// VerifySecureProof checks a proof produced by SecureTrie.Prove for the
// unhashed key.
func VerifySecureProof(root common.Hash, key []byte, proof ProofList, config *Config) ([]byte, error) {
	config = config.sanitize()
	return VerifyProof(root, config.Hasher.Hash(key).Bytes(), proof, config)
}
