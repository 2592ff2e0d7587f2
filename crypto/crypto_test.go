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

package crypto

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/mpt/common"
)

func TestKnownDigests(t *testing.T) {
	tests := []struct {
		hasher Hasher
		input  []byte
		want   string
	}{
		{Keccak256, []byte{}, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{Keccak256, []byte{0x80}, "0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421"},
		{Keccak256, []byte("abc"), "0x4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"},
		{SHA256, []byte("abc"), "0xba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{Blake2b256, []byte("abc"), "0xbddd813c634239723171ef3fee98579b94964e3bb1cb3e427262c8c068d52319"},
	}
	for _, tt := range tests {
		t.Run(tt.hasher.Name(), func(t *testing.T) {
			assert.Equal(t, common.HexToHash(tt.want), tt.hasher.Hash(tt.input))
		})
	}
}

func TestHashConcatenation(t *testing.T) {
	for _, h := range []Hasher{Keccak256, SHA256, Blake2b256} {
		assert.Equal(t, h.Hash([]byte("hello world")), h.Hash([]byte("hello"), []byte(" "), []byte("world")), h.Name())
	}
	assert.Equal(t, Keccak256Hash([]byte("abc")), Keccak256.Hash([]byte("abc")))
}

func TestHasherByName(t *testing.T) {
	h, err := HasherByName("")
	require.NoError(t, err)
	assert.Equal(t, "keccak256", h.Name())

	h, err = HasherByName("SHA256")
	require.NoError(t, err)
	assert.Equal(t, SHA256, h)

	_, err = HasherByName("md5")
	assert.ErrorContains(t, err, "unknown hasher")
	assert.Equal(t, []string{"blake2b256", "keccak256", "sha256"}, HasherNames())
}

func TestConcurrentHashing(t *testing.T) {
	want := Keccak256.Hash([]byte("concurrent"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := Keccak256.Hash([]byte("concurrent")); got != want {
					t.Errorf("digest mismatch: %x != %x", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}
