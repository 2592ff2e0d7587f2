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

package trie

import "fmt"

// Trie keys are dealt with in three distinct encodings:
//
// KEYBYTES encoding contains the actual key and nothing else. This encoding is the
// input to most API functions.
//
// NIBBLE encoding contains one byte for each nibble of the key, high nibble first.
// There is no terminator: whether a node holds a value is told by its kind, not its
// path. Nibble paths are used for nodes loaded in memory because they're convenient
// to access.
//
// COMPACT encoding is defined by the Ethereum Yellow Paper (it's called "hex prefix
// encoding" there) and contains the bytes of the key and a flag. The high nibble of the
// first byte contains the flag; the lowest bit encoding the oddness of the length and
// the second-lowest encoding whether the node at the key is a leaf. The low nibble
// of the first byte is zero in the case of an even number of nibbles and the first nibble
// in the case of an odd number. All remaining nibbles (now an even number) fit properly
// into the remaining bytes. Compact encoding is used for nodes stored on disk.

const (
	flagOdd  = 1
	flagLeaf = 2
)

// compactEncode packs a nibble path and its kind flag into the compact encoding.
func compactEncode(path []byte, isLeaf bool) []byte {
	var flag byte
	if isLeaf {
		flag = flagLeaf
	}
	buf := make([]byte, len(path)/2+1)
	if len(path)&1 == 1 {
		flag |= flagOdd
		buf[0] = path[0] // first nibble is contained in the first byte
		path = path[1:]
	}
	buf[0] |= flag << 4
	decodeNibbles(path, buf[1:])
	return buf
}

// compactDecode is the inverse of compactEncode. Only the canonical form is
// accepted: an even path must carry a zero padding nibble.
func compactDecode(compact []byte) ([]byte, bool, error) {
	if len(compact) == 0 {
		return nil, false, fmt.Errorf("%w: empty compact path", ErrMalformedEncoding)
	}
	flag := compact[0] >> 4
	if flag > flagLeaf|flagOdd {
		return nil, false, fmt.Errorf("%w: invalid compact flag %d", ErrMalformedEncoding, flag)
	}
	var (
		isLeaf = flag&flagLeaf != 0
		odd    = flag&flagOdd != 0
		path   = toNibbles(compact[1:])
	)
	if odd {
		return append([]byte{compact[0] & 0x0f}, path...), isLeaf, nil
	}
	if compact[0]&0x0f != 0 {
		return nil, false, fmt.Errorf("%w: non-zero padding nibble", ErrMalformedEncoding)
	}
	return path, isLeaf, nil
}

// toNibbles splits every byte into its two nibbles, high nibble first.
func toNibbles(str []byte) []byte {
	nibbles := make([]byte, len(str)*2)
	for i, b := range str {
		nibbles[i*2] = b / 16
		nibbles[i*2+1] = b % 16
	}
	return nibbles
}

// fromNibbles turns nibbles back into key bytes.
// This can only be used for paths of even length.
func fromNibbles(nibbles []byte) []byte {
	if len(nibbles)&1 != 0 {
		panic("can't convert nibble path of odd length")
	}
	key := make([]byte, len(nibbles)/2)
	decodeNibbles(nibbles, key)
	return key
}

func decodeNibbles(nibbles []byte, bytes []byte) {
	for bi, ni := 0, 0; ni < len(nibbles); bi, ni = bi+1, ni+2 {
		bytes[bi] = nibbles[ni]<<4 | nibbles[ni+1]
	}
}

// prefixLen returns the length of the common prefix of a and b.
func prefixLen(a, b []byte) int {
	var i, length = 0, len(a)
	if len(b) < length {
		length = len(b)
	}
	for ; i < length; i++ {
		if a[i] != b[i] {
			break
		}
	}
	return i
}

// concat returns a freshly allocated path holding a followed by b.
func concat(a []byte, b ...byte) []byte {
	r := make([]byte, len(a)+len(b))
	copy(r, a)
	copy(r[len(a):], b)
	return r
}
