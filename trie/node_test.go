// Copyright 2023 The go-ethereum Authors
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
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/crypto"
)

var codecsUnderTest = []Codec{RLPCodec, CBORCodec}

func testNodes() []node {
	var branch, valueBranch branchNode
	branch.Children[1] = crypto.Keccak256Hash([]byte("one"))
	branch.Children[15] = crypto.Keccak256Hash([]byte("fifteen"))
	valueBranch.Children[7] = crypto.Keccak256Hash([]byte("seven"))
	valueBranch.Value = []byte("branch value")

	return []node{
		&leafNode{Path: []byte{}, Value: []byte{0x01}},
		&leafNode{Path: []byte{1, 2, 3}, Value: []byte("odd leaf")},
		&leafNode{Path: []byte{0, 15, 1, 12}, Value: bytes.Repeat([]byte{0xaa}, 100)},
		&extensionNode{Path: []byte{5}, Child: crypto.Keccak256Hash([]byte("child"))},
		&extensionNode{Path: []byte{5, 6, 7, 8}, Child: crypto.Keccak256Hash([]byte("child"))},
		&branch,
		&valueBranch,
	}
}

func TestNodeRoundTrip(t *testing.T) {
	for _, codec := range codecsUnderTest {
		for _, n := range testNodes() {
			blob := n.encode(codec)
			decoded, err := decodeNode(blob, codec)
			require.NoError(t, err, "%s: %v", codec.Name(), n)
			assert.Equal(t, n, decoded, "%s round trip mismatch\nhave %s\nwant %s", codec.Name(), spew.Sdump(decoded), spew.Sdump(n))
			assert.Equal(t, blob, decoded.encode(codec), "%s re-encoding differs", codec.Name())
		}
	}
}

func TestLeafEncoding(t *testing.T) {
	n := &leafNode{Path: []byte{1, 2, 3, 4}, Value: []byte("v")}
	assert.Equal(t, common.FromHex("c58320123476"), n.encode(RLPCodec))
}

func TestBranchEncodingLayout(t *testing.T) {
	n := &branchNode{}
	n.Children[3] = crypto.Keccak256Hash([]byte("a"))
	n.Children[9] = crypto.Keccak256Hash([]byte("b"))

	elems, err := RLPCodec.DecodeList(n.encode(RLPCodec))
	require.NoError(t, err)
	require.Len(t, elems, 17)
	for i, elem := range elems[:16] {
		if i == 3 || i == 9 {
			assert.Equal(t, n.Children[i].Bytes(), elem)
		} else {
			assert.Empty(t, elem, "slot %d", i)
		}
	}
	assert.Empty(t, elems[16])
}

func TestDecodeNodeInvariants(t *testing.T) {
	hash := crypto.Keccak256Hash([]byte("child")).Bytes()
	empty17 := make([][]byte, 17)

	oneChild := make([][]byte, 17)
	oneChild[4] = hash

	shortRef := make([][]byte, 17)
	shortRef[0], shortRef[1] = hash, hash[:20]

	zeroRef := make([][]byte, 17)
	zeroRef[0], zeroRef[1] = hash, make([]byte, 32)

	tests := map[string][][]byte{
		"leaf without value":          {compactEncode([]byte{1}, true), nil},
		"extension with empty path":   {compactEncode(nil, false), hash},
		"extension without child":     {compactEncode([]byte{1}, false), nil},
		"extension with short child":  {compactEncode([]byte{1}, false), hash[:31]},
		"bad compact flag":            {{0x40}, []byte("v")},
		"empty compact path":          {nil, []byte("v")},
		"empty branch":                empty17,
		"branch with one child":       oneChild,
		"branch with short reference": shortRef,
		"branch with zero reference":  zeroRef,
		"three items":                 {{0x20}, []byte("v"), []byte("w")},
		"one item":                    {{0x20}},
	}
	for name, items := range tests {
		for _, codec := range codecsUnderTest {
			_, err := decodeNode(codec.EncodeList(items), codec)
			assert.Error(t, err, "%s/%s", codec.Name(), name)
		}
	}
	// A branch with a single child is valid as long as it holds a value.
	valued := make([][]byte, 17)
	valued[4], valued[16] = hash, []byte("value")
	_, err := decodeNode(RLPCodec.EncodeList(valued), RLPCodec)
	assert.NoError(t, err)
}

func TestDecodeNodeGarbage(t *testing.T) {
	nested, _ := rlp.EncodeToBytes([]interface{}{[]byte{0x20}, []interface{}{[]byte("x")}})
	inputs := map[string][]byte{
		"nil":          nil,
		"string":       {0x83, 'a', 'b', 'c'},
		"truncated":    {0xc5, 0x83, 0x20, 0x12},
		"trailing":     append(common.CopyBytes(common.FromHex("c58320123476")), 0x00),
		"nested list":  nested,
		"non-canon":    {0xc3, 0x81, 0x01, 0x76},
		"cbor garbage": {0xff, 0x00},
	}
	for name, input := range inputs {
		_, err := decodeNode(input, RLPCodec)
		assert.Error(t, err, name)
	}
	_, err := decodeNode([]byte{0xc2, 0x80, 0x80}, RLPCodec)
	assert.ErrorIs(t, err, ErrMalformedEncoding)
}

func TestDecodeErrorPath(t *testing.T) {
	items := make([][]byte, 17)
	items[0] = crypto.Keccak256Hash([]byte("a")).Bytes()
	items[5] = []byte{1, 2, 3}
	_, err := decodeNode(RLPCodec.EncodeList(items), RLPCodec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode path: [5]<-full")
}

func TestCodecEmptyString(t *testing.T) {
	assert.Equal(t, []byte{0x80}, RLPCodec.EmptyString())
	assert.Equal(t, []byte{0x40}, CBORCodec.EmptyString())
	assert.Equal(t, EmptyRootHash, crypto.Keccak256Hash(RLPCodec.EmptyString()))
}

func TestCBORCanonical(t *testing.T) {
	enc := CBORCodec.EncodeList([][]byte{{0x20}, []byte("v")})
	assert.Equal(t, []byte{0x82, 0x41, 0x20, 0x41, 'v'}, enc)

	// Same list with a non-minimal length prefix for the second string
	_, err := CBORCodec.DecodeList([]byte{0x82, 0x41, 0x20, 0x58, 0x01, 'v'})
	assert.ErrorIs(t, err, ErrMalformedEncoding)

	// Indefinite length array
	_, err = CBORCodec.DecodeList([]byte{0x9f, 0x41, 0x20, 0x41, 'v', 0xff})
	assert.ErrorIs(t, err, ErrMalformedEncoding)

	_, err = CBORCodec.DecodeList([]byte{0xf6})
	assert.ErrorIs(t, err, ErrMalformedEncoding)
}

func TestCodecByName(t *testing.T) {
	c, err := CodecByName("")
	require.NoError(t, err)
	assert.Equal(t, "rlp", c.Name())

	c, err = CodecByName("cbor")
	require.NoError(t, err)
	assert.Equal(t, "cbor", c.Name())

	_, err = CodecByName("json")
	assert.Error(t, err)
	assert.Equal(t, []string{"cbor", "rlp"}, CodecNames())
}
