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
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/crypto"
	"github.com/sunyihoo/mpt/kvdb/memorydb"
	"github.com/sunyihoo/mpt/triedb/hashdb"
)

// memPreimages is a trivial preimage store.
type memPreimages struct {
	lock    sync.Mutex
	m       map[common.Hash][]byte
	inserts int
	fail    error
}

func newMemPreimages() *memPreimages {
	return &memPreimages{m: make(map[common.Hash][]byte)}
}

func (p *memPreimages) Preimage(hash common.Hash) []byte {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.m[hash]
}

func (p *memPreimages) InsertPreimage(preimages map[common.Hash][]byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.inserts++
	for k, v := range preimages {
		p.m[k] = common.CopyBytes(v)
	}
	return nil
}

func newEmptySecure(t *testing.T, preimages preimageStore) *SecureTrie {
	trie, err := NewSecure(common.Hash{}, hashdb.New(memorydb.New(), nil), nil, preimages)
	require.NoError(t, err)
	return trie
}

// makeTestSecureTrie creates a large enough secure trie for testing.
func makeTestSecureTrie(t *testing.T) (*SecureTrie, map[string][]byte) {
	trie := newEmptySecure(t, newMemPreimages())
	content := make(map[string][]byte)
	for i := byte(0); i < 255; i++ {
		// Map the same data under multiple keys
		key, val := common.LeftPadBytes([]byte{1, i}, 32), []byte{i}
		content[string(key)] = val
		require.NoError(t, trie.Update(key, val))

		key, val = common.LeftPadBytes([]byte{2, i}, 32), []byte{i}
		content[string(key)] = val
		require.NoError(t, trie.Update(key, val))

		// Add some other data to inflate the trie
		for j := byte(3); j < 13; j++ {
			key, val = common.LeftPadBytes([]byte{j, i}, 32), []byte{j, i}
			content[string(key)] = val
			require.NoError(t, trie.Update(key, val))
		}
	}
	return trie, content
}

func TestSecureDelete(t *testing.T) {
	trie := newEmptySecure(t, nil)
	vals := []struct{ k, v string }{
		{"do", "verb"},
		{"ether", "wookiedoo"},
		{"horse", "stallion"},
		{"shaman", "horse"},
		{"doge", "coin"},
		{"dog", "puppy"},
		{"somethingveryoddindeedthis is", "myothernodedata"},
	}
	for _, val := range vals {
		require.NoError(t, trie.Update([]byte(val.k), []byte(val.v)))
	}
	for _, val := range vals {
		got, err := trie.Get([]byte(val.k))
		require.NoError(t, err)
		assert.Equal(t, []byte(val.v), got)
	}
	// The raw trie is keyed by the hashed keys only
	_, err := trie.Trie().Get([]byte("dog"))
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := trie.Trie().Get(crypto.Keccak256Hash([]byte("dog")).Bytes())
	require.NoError(t, err)
	assert.Equal(t, []byte("puppy"), got)
}

func TestSecureGetKey(t *testing.T) {
	preimages := newMemPreimages()
	trie := newEmptySecure(t, preimages)
	require.NoError(t, trie.Update([]byte("foo"), []byte("bar")))

	key := []byte("foo")
	value := []byte("bar")
	seckey := crypto.Keccak256Hash(key).Bytes()

	got, err := trie.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, got)
	assert.Equal(t, key, trie.GetKey(seckey), "GetKey must serve from the pending cache")
	assert.Empty(t, preimages.m, "preimages must not be flushed before commit")

	require.NoError(t, trie.Commit())
	assert.Equal(t, key, preimages.Preimage(common.BytesToHash(seckey)))
	assert.Equal(t, key, trie.GetKey(seckey), "GetKey must fall back to the preimage store")

	// A second commit without writes doesn't touch the store
	require.NoError(t, trie.Commit())
	assert.Equal(t, 1, preimages.inserts)
}

func TestSecureGetKeyWithoutStore(t *testing.T) {
	trie := newEmptySecure(t, nil)
	require.NoError(t, trie.Update([]byte("foo"), []byte("bar")))
	seckey := crypto.Keccak256Hash([]byte("foo")).Bytes()

	assert.Equal(t, []byte("foo"), trie.GetKey(seckey))
	require.NoError(t, trie.Commit())
	assert.Nil(t, trie.GetKey(seckey))
}

func TestSecureCommitFailure(t *testing.T) {
	preimages := newMemPreimages()
	preimages.fail = errors.New("disk full")
	trie := newEmptySecure(t, preimages)
	require.NoError(t, trie.Update([]byte("foo"), []byte("bar")))

	assert.ErrorIs(t, trie.Commit(), preimages.fail)
	// The pending preimages survive a failed flush
	assert.Equal(t, []byte("foo"), trie.GetKey(crypto.Keccak256Hash([]byte("foo")).Bytes()))
}

func TestSecureProof(t *testing.T) {
	trie, content := makeTestSecureTrie(t)
	root := trie.Hash()
	for key, val := range content {
		var proof ProofList
		require.NoError(t, trie.Prove([]byte(key), &proof))

		got, err := VerifySecureProof(root, []byte(key), proof, nil)
		require.NoError(t, err)
		assert.Equal(t, val, got)

		// The proof is for the hashed key, not the raw one
		_, err = VerifyProof(root, []byte(key), proof, nil)
		assert.Error(t, err)
	}
	var proof ProofList
	require.NoError(t, trie.Prove([]byte("missing"), &proof))
	_, err := VerifySecureProof(root, []byte("missing"), proof, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSecureConfigHasher(t *testing.T) {
	config, err := NewConfig("sha256", "cbor")
	require.NoError(t, err)

	trie, err := NewSecure(common.Hash{}, newTestDb(), config, nil)
	require.NoError(t, err)
	require.NoError(t, trie.Update([]byte("foo"), []byte("bar")))

	got, err := trie.Trie().Get(config.Hasher.Hash([]byte("foo")).Bytes())
	require.NoError(t, err)
	assert.Equal(t, []byte("bar"), got)

	var proof ProofList
	require.NoError(t, trie.Prove([]byte("foo"), &proof))
	val, err := VerifySecureProof(trie.Hash(), []byte("foo"), proof, config)
	require.NoError(t, err)
	assert.Equal(t, []byte("bar"), val)
}

func TestSecureRevert(t *testing.T) {
	trie := newEmptySecure(t, nil)
	require.NoError(t, trie.Update([]byte("a"), []byte("1")))
	before := trie.Hash()
	require.NoError(t, trie.Update([]byte("a"), []byte("2")))
	require.NotEqual(t, before, trie.Hash())

	require.NoError(t, trie.Revert(before))
	got, err := trie.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
}

// Tests that the secure trie copies are independent of each other.
func TestSecureTrieConcurrency(t *testing.T) {
	// Create an initial trie and copy if for concurrent access
	trie, _ := makeTestSecureTrie(t)

	threads := runtime.NumCPU()
	tries := make([]*SecureTrie, threads)
	for i := 0; i < threads; i++ {
		tries[i] = trie.Copy()
	}
	// Start a batch of goroutines interacting with the trie
	pend := new(sync.WaitGroup)
	pend.Add(threads)
	errs := make([]error, threads)
	for i := 0; i < threads; i++ {
		go func(index int) {
			defer pend.Done()

			for j := byte(0); j < 255; j++ {
				// Map the same data under multiple keys
				key, val := common.LeftPadBytes([]byte{byte(index), 1, j}, 32), []byte{j}
				if err := tries[index].Update(key, val); err != nil {
					errs[index] = err
					return
				}
				key, val = common.LeftPadBytes([]byte{byte(index), 2, j}, 32), []byte{j}
				if err := tries[index].Update(key, val); err != nil {
					errs[index] = err
					return
				}
			}
			if err := tries[index].Commit(); err != nil {
				errs[index] = err
			}
		}(i)
	}
	pend.Wait()
	for i, err := range errs {
		require.NoError(t, err, "thread %d", i)
	}
	// Every copy sees its own writes only
	for i := 0; i < threads; i++ {
		for j := 0; j < threads; j++ {
			key := common.LeftPadBytes([]byte{byte(j), 1, 7}, 32)
			val, err := tries[i].Get(key)
			if i == j {
				require.NoError(t, err)
				assert.True(t, bytes.Equal(val, []byte{7}), fmt.Sprintf("copy %d", i))
			} else if j != 0 {
				// Index 0 collides with the base content layout
				assert.ErrorIs(t, err, ErrNotFound, "copy %d key of %d", i, j)
			}
		}
	}
}
