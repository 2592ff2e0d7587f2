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

// Package crypto provides the digest functions used to address trie nodes.
package crypto

import (
	"fmt"
	"hash"
	"sort"
	"strings"
	"sync"

	"github.com/minio/sha256-simd"
	"github.com/sunyihoo/mpt/common"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Hasher is a deterministic, collision resistant function producing the 32 byte
// digests that address trie nodes. Implementations must be safe for concurrent use.
type Hasher interface {
	// Name returns the identifier used in configuration files and snapshots.
	Name() string

	// Hash digests the concatenation of the supplied byte slices.
	Hash(data ...[]byte) common.Hash
}

// KeccakState wraps sha3.state. In addition to the usual hash methods, it also supports
// Read to get a variable amount of data from the hash state. Read is faster than Sum
// because it doesn't copy the internal state, but also modifies the internal state.
type KeccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

// NewKeccakState creates a new KeccakState
func NewKeccakState() KeccakState {
	return sha3.NewLegacyKeccak256().(KeccakState)
}

// Keccak256Hash calculates and returns the Keccak256 hash of the input data,
// converting it to an internal Hash data structure.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	d := NewKeccakState()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(h[:])
	return h
}

// pooledHasher recycles hash states across calls.
type pooledHasher struct {
	name string
	pool sync.Pool
}

func newPooledHasher(name string, fn func() hash.Hash) *pooledHasher {
	return &pooledHasher{
		name: name,
		pool: sync.Pool{New: func() interface{} { return fn() }},
	}
}

func (h *pooledHasher) Name() string { return h.name }

func (h *pooledHasher) Hash(data ...[]byte) (out common.Hash) {
	d := h.pool.Get().(hash.Hash)
	d.Reset()
	for _, b := range data {
		d.Write(b)
	}
	if ks, ok := d.(KeccakState); ok {
		ks.Read(out[:])
	} else {
		d.Sum(out[:0])
	}
	h.pool.Put(d)
	return out
}

var (
	// Keccak256 is the legacy (pre-NIST) Keccak-256 used by Ethereum.
	Keccak256 Hasher = newPooledHasher("keccak256", func() hash.Hash { return sha3.NewLegacyKeccak256() })

	// SHA256 is SHA2-256, accelerated where the CPU supports it.
	SHA256 Hasher = newPooledHasher("sha256", sha256.New)

	// Blake2b256 is BLAKE2b with a 32 byte digest.
	Blake2b256 Hasher = newPooledHasher("blake2b256", func() hash.Hash {
		h, _ := blake2b.New256(nil)
		return h
	})
)

var hashers = map[string]Hasher{
	Keccak256.Name():  Keccak256,
	SHA256.Name():     SHA256,
	Blake2b256.Name(): Blake2b256,
}

// HasherByName resolves a hasher from its configuration name. The empty name
// selects Keccak256.
func HasherByName(name string) (Hasher, error) {
	if name == "" {
		return Keccak256, nil
	}
	if h, ok := hashers[strings.ToLower(name)]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("unknown hasher %q (available: %s)", name, strings.Join(HasherNames(), ", "))
}

// HasherNames lists the registered hashers in sorted order.
func HasherNames() []string {
	names := make([]string, 0, len(hashers))
	for name := range hashers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
