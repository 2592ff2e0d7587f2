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

package node

import (
	"fmt"
	"path/filepath"

	"github.com/sunyihoo/mpt/trie"
	"github.com/sunyihoo/mpt/triedb/hashdb"
)

const datadirNodes = "nodes" // Path within the datadir to the node database

// Config represents a small collection of configuration values to fine tune the
// storage layer of the node. These values can be further extended by all
// registered services.
type Config struct {
	// DataDir is the file system folder the node should use for any data storage
	// requirements. An empty value selects the current directory.
	DataDir string

	// DBEngine selects the key-value backend: pebble, leveldb, bolt or memory.
	// An empty value reuses the engine of an existing database, or pebble.
	DBEngine string `toml:",omitempty"`

	// DatabaseCache is the memory allowance of the backend in megabytes.
	DatabaseCache int

	// DatabaseHandles is the number of open files the backend may use.
	DatabaseHandles int

	// ReadOnly opens the database without write access.
	ReadOnly bool `toml:",omitempty"`
}

// ResolvePath resolves path in the data directory.
func (c *Config) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if c.DataDir == "" {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// TrieConfig holds the user facing trie settings.
type TrieConfig struct {
	Hasher         string // Hash function name, see crypto.HasherNames
	Codec          string // Node codec name, see trie.CodecNames
	CleanCacheSize int    // Memory allowance (MB) for caching clean trie nodes
	RecentWrites   int    // Number of recently written node hashes to remember
	Secure         bool   `toml:",omitempty"` // Hash keys before use
}

// TrieConfig converts the settings to the trie package configuration.
func (c *TrieConfig) TrieConfig() (*trie.Config, error) {
	config, err := trie.NewConfig(c.Hasher, c.Codec)
	if err != nil {
		return nil, fmt.Errorf("invalid trie config: %w", err)
	}
	return config, nil
}

// HashdbConfig converts the settings to the node database configuration.
func (c *TrieConfig) HashdbConfig() *hashdb.Config {
	return &hashdb.Config{
		CleanCacheSize: c.CleanCacheSize * 1024 * 1024,
		RecentWrites:   c.RecentWrites,
	}
}
