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

package trie

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/fxamacker/cbor/v2"
)

// Codec is a canonical encoding of flat lists of byte strings. Identical lists
// must always produce identical bytes, since node hashes are taken over them.
type Codec interface {
	// Name returns the identifier used in configuration files and snapshots.
	Name() string

	// EncodeList encodes the items as a single list of byte strings.
	EncodeList(items [][]byte) []byte

	// DecodeList is the inverse of EncodeList. Any input that is not the
	// canonical encoding of a list of byte strings yields an error matching
	// ErrMalformedEncoding.
	DecodeList(buf []byte) ([][]byte, error)

	// EmptyString returns the encoding of the empty byte string, which is
	// also the serialized form of the empty trie.
	EmptyString() []byte
}

var (
	// RLPCodec encodes nodes with Ethereum's recursive length prefix, which
	// makes roots compatible with other Merkle Patricia Trie implementations.
	RLPCodec Codec = rlpCodec{}

	// CBORCodec encodes nodes with RFC 8949 core deterministic CBOR.
	CBORCodec Codec = newCBORCodec()
)

var codecs = map[string]Codec{
	RLPCodec.Name():  RLPCodec,
	CBORCodec.Name(): CBORCodec,
}

// CodecByName returns the codec registered under name. The empty name selects
// the RLP codec.
func CodecByName(name string) (Codec, error) {
	if name == "" {
		return RLPCodec, nil
	}
	c, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (available: %v)", name, CodecNames())
	}
	return c, nil
}

// CodecNames returns the sorted names of all registered codecs.
func CodecNames() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type rlpCodec struct{}

func (rlpCodec) Name() string { return "rlp" }

func (rlpCodec) EmptyString() []byte { return []byte{0x80} }

func (rlpCodec) EncodeList(items [][]byte) []byte {
	w := rlp.NewEncoderBuffer(nil)
	offset := w.List()
	for _, item := range items {
		w.WriteBytes(item)
	}
	w.ListEnd(offset)
	enc := w.ToBytes()
	w.Flush()
	return enc
}

func (rlpCodec) DecodeList(buf []byte) ([][]byte, error) {
	elems, rest, err := rlp.SplitList(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after list", ErrMalformedEncoding, len(rest))
	}
	var items [][]byte
	for len(elems) > 0 {
		var item []byte
		item, elems, err = rlp.SplitString(elems)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrMalformedEncoding, len(items), err)
		}
		items = append(items, item)
	}
	return items, nil
}

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() *cborCodec {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	return &cborCodec{enc: enc, dec: dec}
}

func (c *cborCodec) Name() string { return "cbor" }

func (c *cborCodec) EmptyString() []byte { return []byte{0x40} }

func (c *cborCodec) EncodeList(items [][]byte) []byte {
	// nil slices would encode as CBOR null
	list := make([][]byte, len(items))
	for i, item := range items {
		if item == nil {
			item = []byte{}
		}
		list[i] = item
	}
	enc, err := c.enc.Marshal(list)
	if err != nil {
		panic(fmt.Sprintf("cbor encoding of byte strings failed: %v", err))
	}
	return enc
}

func (c *cborCodec) DecodeList(buf []byte) ([][]byte, error) {
	var items [][]byte
	if err := c.dec.Unmarshal(buf, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: not a list", ErrMalformedEncoding)
	}
	if !bytes.Equal(c.EncodeList(items), buf) {
		return nil, fmt.Errorf("%w: non-canonical cbor", ErrMalformedEncoding)
	}
	return items, nil
}
