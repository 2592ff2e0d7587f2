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

package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/rawdb"
	"github.com/sunyihoo/mpt/trie"
)

func testConfig(t *testing.T, engine string) *Config {
	return &Config{
		DataDir:         t.TempDir(),
		DBEngine:        engine,
		DatabaseCache:   16,
		DatabaseHandles: 16,
	}
}

func testTrieConfig() *TrieConfig {
	tc := DefaultTrieConfig
	tc.CleanCacheSize = 1
	return &tc
}

func TestDatadirLocked(t *testing.T) {
	conf := testConfig(t, rawdb.DBPebble)
	n, err := New(conf, testTrieConfig())
	require.NoError(t, err)
	defer n.Close()

	_, err = New(conf, testTrieConfig())
	assert.ErrorIs(t, err, ErrDatadirUsed)
}

func TestConfigMismatch(t *testing.T) {
	conf := testConfig(t, rawdb.DBLeveldb)
	n, err := New(conf, testTrieConfig())
	require.NoError(t, err)
	require.NoError(t, n.Close())

	tc := testTrieConfig()
	tc.Hasher = "sha256"
	_, err = New(conf, tc)
	var mismatch *ConfigMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "keccak256/rlp", mismatch.Stored)
	assert.Equal(t, "sha256/rlp", mismatch.Requested)

	// The failed open must release the directory lock.
	n, err = New(conf, testTrieConfig())
	require.NoError(t, err)
	require.NoError(t, n.Close())
}

func TestInvalidTrieConfig(t *testing.T) {
	tc := testTrieConfig()
	tc.Codec = "json"
	_, err := New(testConfig(t, rawdb.DBMemory), tc)
	assert.Error(t, err)
}

func TestUpdateRevertHistory(t *testing.T) {
	n, err := New(testConfig(t, rawdb.DBMemory), testTrieConfig())
	require.NoError(t, err)
	defer n.Close()

	assert.Equal(t, trie.EmptyRootHash, n.Head())

	r1, err := n.Update([]byte("doe"), []byte("reindeer"))
	require.NoError(t, err)
	r2, err := n.Update([]byte("dog"), []byte("puppy"))
	require.NoError(t, err)
	assert.Equal(t, r2, n.Head())

	_, err = n.Update([]byte("cat"), nil)
	assert.ErrorIs(t, err, trie.ErrEmptyValue)
	assert.Equal(t, r2, n.Head())

	require.NoError(t, n.Revert(r1))
	assert.Equal(t, r1, n.Head())
	tr, err := n.OpenTrie(common.Hash{})
	require.NoError(t, err)
	_, err = tr.Get([]byte("dog"))
	assert.ErrorIs(t, err, trie.ErrNotFound)

	// Older roots stay readable after a revert.
	tr, err = n.OpenTrie(r2)
	require.NoError(t, err)
	v, err := tr.Get([]byte("dog"))
	require.NoError(t, err)
	assert.Equal(t, []byte("puppy"), v)

	err = n.Revert(common.HexToHash("0x1234"))
	assert.ErrorIs(t, err, ErrUnknownRoot)

	require.NoError(t, n.Revert(common.Hash{}))
	assert.Equal(t, trie.EmptyRootHash, n.Head())

	hist := n.History()
	require.Len(t, hist, 4)
	assert.Equal(t, r1, hist[0].Root)
	assert.Equal(t, []byte("doe"), hist[0].Key)
	assert.Equal(t, r2, hist[1].Root)
	assert.Equal(t, r1, hist[2].Root)
	assert.Empty(t, hist[2].Key)
	assert.Equal(t, trie.EmptyRootHash, hist[3].Root)
}

func TestReopenKeepsHead(t *testing.T) {
	conf := testConfig(t, rawdb.DBBolt)
	n, err := New(conf, testTrieConfig())
	require.NoError(t, err)
	root, err := n.Update([]byte("key"), []byte("value"))
	require.NoError(t, err)
	require.NoError(t, n.Close())

	conf.ReadOnly = true
	n, err = New(conf, testTrieConfig())
	require.NoError(t, err)
	defer n.Close()
	assert.Equal(t, root, n.Head())

	_, err = n.Update([]byte("key"), []byte("other"))
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.ErrorIs(t, n.Revert(root), ErrReadOnly)
}

func TestSecureNode(t *testing.T) {
	tc := testTrieConfig()
	tc.Secure = true
	n, err := New(testConfig(t, rawdb.DBMemory), tc)
	require.NoError(t, err)
	defer n.Close()

	root, err := n.Update([]byte("foo"), []byte("bar"))
	require.NoError(t, err)

	hashed := n.TrieConfig().Hasher.Hash([]byte("foo"))
	assert.Equal(t, []byte("foo"), n.Preimage(hashed))

	raw, err := n.RawTrie(root)
	require.NoError(t, err)
	v, err := raw.Get(hashed.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []byte("bar"), v)

	tr, err := n.OpenTrie(root)
	require.NoError(t, err)
	var proof trie.ProofList
	require.NoError(t, tr.Prove([]byte("foo"), &proof))
	v, err = n.VerifyProof(root, []byte("foo"), proof)
	require.NoError(t, err)
	assert.Equal(t, []byte("bar"), v)
}

func TestCloseTwice(t *testing.T) {
	n, err := New(testConfig(t, rawdb.DBMemory), testTrieConfig())
	require.NoError(t, err)
	require.NoError(t, n.Close())
}
