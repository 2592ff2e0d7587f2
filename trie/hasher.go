// Copyright 2016 The go-ethereum Authors
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
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/crypto"
)

// hasher serializes nodes with the configured codec and digests them with
// the configured hash function. It holds no mutable state and is safe for
// concurrent use.
type hasher struct {
	codec Codec
	sha   crypto.Hasher
}

func newHasher(config *Config) *hasher {
	return &hasher{codec: config.Codec, sha: config.Hasher}
}

// hash serializes the node and returns its digest together with the blob.
func (h *hasher) hash(n node) (common.Hash, []byte) {
	blob := n.encode(h.codec)
	return h.sha.Hash(blob), blob
}

// hashData returns the digest of an already serialized node.
func (h *hasher) hashData(blob []byte) common.Hash {
	return h.sha.Hash(blob)
}

// emptyRoot returns the root of the empty trie, the digest of the codec's
// empty string.
func (h *hasher) emptyRoot() common.Hash {
	return h.sha.Hash(h.codec.EmptyString())
}
