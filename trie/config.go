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
	"fmt"

	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/crypto"
)

// EmptyRootHash is the root of an empty trie under the default configuration,
// keccak256(rlp("")).
var EmptyRootHash = common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// Config selects the node codec and hash function of a trie. Both change every
// root, so a database must always be opened with the configuration it was
// written with.
type Config struct {
	Hasher crypto.Hasher
	Codec  Codec
}

// DefaultConfig hashes RLP encoded nodes with Keccak-256.
var DefaultConfig = &Config{
	Hasher: crypto.Keccak256,
	Codec:  RLPCodec,
}

// NewConfig resolves a configuration from hasher and codec names. Empty names
// select the defaults.
func NewConfig(hasher, codec string) (*Config, error) {
	h, err := crypto.HasherByName(hasher)
	if err != nil {
		return nil, err
	}
	c, err := CodecByName(codec)
	if err != nil {
		return nil, err
	}
	return &Config{Hasher: h, Codec: c}, nil
}

// sanitize fills unset fields with the defaults.
func (c *Config) sanitize() *Config {
	if c == nil {
		return DefaultConfig
	}
	conf := *c
	if conf.Hasher == nil {
		conf.Hasher = DefaultConfig.Hasher
	}
	if conf.Codec == nil {
		conf.Codec = DefaultConfig.Codec
	}
	return &conf
}

// EmptyRoot returns the root of the empty trie under this configuration.
func (c *Config) EmptyRoot() common.Hash {
	c = c.sanitize()
	return c.Hasher.Hash(c.Codec.EmptyString())
}

// String implements fmt.Stringer.
func (c *Config) String() string {
	c = c.sanitize()
	return fmt.Sprintf("%s/%s", c.Hasher.Name(), c.Codec.Name())
}
