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
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/kvdb/memorydb"
)

// Prng is a pseudo random number generator seeded by strong randomness.
// The randomness is printed on startup in order to make failures reproducible.
var prng = initRnd()

func initRnd() *mrand.Rand {
	var seed [8]byte
	crand.Read(seed[:])
	rnd := mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
	fmt.Printf("Seed: %x\n", seed)
	return rnd
}

func randBytes(n int) []byte {
	r := make([]byte, n)
	prng.Read(r)
	return r
}

func randomTrie(t *testing.T, n int) (*Trie, map[string][]byte) {
	trie := NewEmpty(newTestDb())
	vals := make(map[string][]byte)
	for i := byte(0); i < 100; i++ {
		k1 := common.LeftPadBytes([]byte{i}, 32)
		k2 := common.LeftPadBytes([]byte{i + 10}, 32)
		v := common.LeftPadBytes([]byte{i}, 32)
		require.NoError(t, trie.Update(k1, v))
		require.NoError(t, trie.Update(k2, v))
		vals[string(k1)] = v
		vals[string(k2)] = v
	}
	for i := 0; i < n; i++ {
		k, v := randBytes(32), randBytes(20)
		require.NoError(t, trie.Update(k, v))
		vals[string(k)] = v
	}
	return trie, vals
}

func TestProof(t *testing.T) {
	trie, vals := randomTrie(t, 500)
	root := trie.Hash()
	for k, v := range vals {
		var proof ProofList
		require.NoError(t, trie.Prove([]byte(k), &proof))
		require.NotEmpty(t, proof)

		val, err := VerifyProof(root, []byte(k), proof, nil)
		require.NoError(t, err, "key %x", k)
		assert.Equal(t, v, val, "key %x", k)
	}
}

func TestProofIntoDatabase(t *testing.T) {
	trie, vals := randomTrie(t, 50)
	for k := range vals {
		proofDb := memorydb.New()
		require.NoError(t, trie.Prove([]byte(k), proofDb))
		assert.NotZero(t, proofDb.Len())

		root := trie.Hash()
		has, err := proofDb.Has(root[:])
		require.NoError(t, err)
		assert.True(t, has, "proof must contain the root node")
		break
	}
}

func TestOneElementProof(t *testing.T) {
	trie := NewEmpty(newTestDb())
	updateString(t, trie, "k", "v")

	var proof ProofList
	require.NoError(t, trie.Prove([]byte("k"), &proof))
	require.Len(t, proof, 1)

	val, err := VerifyProof(trie.Hash(), []byte("k"), proof, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}

func TestEmptyTrieProof(t *testing.T) {
	trie := NewEmpty(newTestDb())

	var proof ProofList
	require.NoError(t, trie.Prove([]byte("missing"), &proof))
	assert.Empty(t, proof)

	_, err := VerifyProof(trie.Hash(), []byte("missing"), proof, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = VerifyProof(trie.Hash(), []byte("missing"), ProofList{{0x80}}, nil)
	assert.ErrorIs(t, err, ErrInvalidProof)
}

func TestBadProof(t *testing.T) {
	trie, vals := randomTrie(t, 200)
	root := trie.Hash()
	for k := range vals {
		var proof ProofList
		require.NoError(t, trie.Prove([]byte(k), &proof))

		// Flipping any byte of any node must be detected
		for i := range proof {
			for j := 0; j < len(proof[i]); j += 1 + len(proof[i])/16 {
				mutated := make(ProofList, len(proof))
				copy(mutated, proof)
				mutated[i] = common.CopyBytes(proof[i])
				mutated[i][j] ^= byte(1 + prng.Intn(255))

				_, err := VerifyProof(root, []byte(k), mutated, nil)
				assert.ErrorIs(t, err, ErrInvalidProof, "node %d byte %d", i, j)
			}
		}
		break
	}
}

func TestTruncatedProof(t *testing.T) {
	trie, vals := randomTrie(t, 200)
	root := trie.Hash()
	for k := range vals {
		var proof ProofList
		require.NoError(t, trie.Prove([]byte(k), &proof))
		require.Greater(t, len(proof), 1)

		_, err := VerifyProof(root, []byte(k), proof[:len(proof)-1], nil)
		assert.ErrorIs(t, err, ErrInvalidProof)

		_, err = VerifyProof(root, []byte(k), nil, nil)
		assert.ErrorIs(t, err, ErrInvalidProof)

		// Surplus trailing nodes
		surplus := append(append(ProofList{}, proof...), proof[0])
		_, err = VerifyProof(root, []byte(k), surplus, nil)
		assert.ErrorIs(t, err, ErrInvalidProof)

		// Reordered nodes
		swapped := append(ProofList{}, proof...)
		swapped[0], swapped[1] = swapped[1], swapped[0]
		_, err = VerifyProof(root, []byte(k), swapped, nil)
		assert.ErrorIs(t, err, ErrInvalidProof)
	}
}

func TestWrongKeyOrRoot(t *testing.T) {
	trie := NewEmpty(newTestDb())
	updateString(t, trie, "dog", "puppy")
	updateString(t, trie, "doe", "reindeer")

	var proof ProofList
	require.NoError(t, trie.Prove([]byte("dog"), &proof))

	// The proof of "dog" walks through the "doe" sibling slot, which it
	// cannot authenticate.
	_, err := VerifyProof(trie.Hash(), []byte("doe"), proof, nil)
	assert.ErrorIs(t, err, ErrInvalidProof)

	_, err = VerifyProof(common.HexToHash("0x01"), []byte("dog"), proof, nil)
	assert.ErrorIs(t, err, ErrInvalidProof)

	// A proof under another configuration does not authenticate
	_, err = VerifyProof(trie.Hash(), []byte("dog"), proof, &Config{Codec: CBORCodec})
	assert.ErrorIs(t, err, ErrInvalidProof)
}

func TestMissingKeyProof(t *testing.T) {
	trie := NewEmpty(newTestDb())
	for _, key := range []string{"k", "ka", "kb", "kc", "kcd", "zzz"} {
		updateString(t, trie, key, key)
	}
	root := trie.Hash()
	for _, key := range []string{"", "a", "j", "kc1", "kd", "kcde", "zz", "zzzz", "zzy"} {
		var proof ProofList
		require.NoError(t, trie.Prove([]byte(key), &proof))
		require.NotEmpty(t, proof, "key %q", key)

		val, err := VerifyProof(root, []byte(key), proof, nil)
		assert.ErrorIs(t, err, ErrNotFound, "key %q", key)
		assert.Nil(t, val)

		// The exclusion proof still has to authenticate
		if len(proof) > 1 {
			_, err = VerifyProof(root, []byte(key), proof[:1], nil)
			assert.ErrorIs(t, err, ErrInvalidProof, "key %q", key)
		}
	}
}

func TestProofRandomKeys(t *testing.T) {
	trie, vals := randomTrie(t, 300)
	root := trie.Hash()
	for i := 0; i < 200; i++ {
		key := randBytes(1 + prng.Intn(40))
		var proof ProofList
		require.NoError(t, trie.Prove(key, &proof))

		val, err := VerifyProof(root, key, proof, nil)
		if want, ok := vals[string(key)]; ok {
			require.NoError(t, err)
			assert.Equal(t, want, val)
		} else {
			assert.ErrorIs(t, err, ErrNotFound, "key %x", key)
		}
	}
}

func BenchmarkProve(b *testing.B) {
	trie := NewEmpty(newTestDb())
	keys := make([][]byte, 1000)
	for i := range keys {
		keys[i] = randBytes(32)
		trie.MustUpdate(keys[i], randBytes(20))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var proof ProofList
		if err := trie.Prove(keys[i%len(keys)], &proof); err != nil {
			b.Fatalf("failed to prove: %v", err)
		}
	}
}

func BenchmarkVerifyProof(b *testing.B) {
	trie := NewEmpty(newTestDb())
	keys := make([][]byte, 1000)
	proofs := make([]ProofList, len(keys))
	for i := range keys {
		keys[i] = randBytes(32)
		trie.MustUpdate(keys[i], randBytes(20))
	}
	for i := range keys {
		trie.Prove(keys[i], &proofs[i])
	}
	root := trie.Hash()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		im := i % len(keys)
		if _, err := VerifyProof(root, keys[im], proofs[im], nil); err != nil {
			b.Fatalf("key %x: %v", keys[im], err)
		}
	}
}
