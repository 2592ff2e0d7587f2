// Copyright 2022 The go-ethereum Authors
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

import "github.com/sunyihoo/mpt/common"

// encodeRef returns the list item for a child reference: the hash, or the
// empty string for an absent child.
func encodeRef(ref common.Hash) []byte {
	if ref == (common.Hash{}) {
		return nil
	}
	return ref.Bytes()
}

func (n *branchNode) encode(c Codec) []byte {
	items := make([][]byte, 17)
	for i, child := range &n.Children {
		items[i] = encodeRef(child)
	}
	items[16] = n.Value
	return c.EncodeList(items)
}

func (n *extensionNode) encode(c Codec) []byte {
	return c.EncodeList([][]byte{compactEncode(n.Path, false), encodeRef(n.Child)})
}

func (n *leafNode) encode(c Codec) []byte {
	return c.EncodeList([][]byte{compactEncode(n.Path, true), n.Value})
}
