// Copyright 2015 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// Package utils contains internal helper functions for mpt commands.
package utils

import (
	"strings"

	"github.com/sunyihoo/mpt/crypto"
	"github.com/sunyihoo/mpt/internal/flags"
	"github.com/sunyihoo/mpt/node"
	"github.com/sunyihoo/mpt/rawdb"
	"github.com/sunyihoo/mpt/trie"
	"github.com/urfave/cli/v2"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// General settings
	DataDirFlag = &flags.DirectoryFlag{
		Name:     "datadir",
		Usage:    "Data directory for the databases",
		Value:    flags.DirectoryString(node.DefaultDataDir()),
		Category: flags.DatabaseCategory,
	}
	DBEngineFlag = &cli.StringFlag{
		Name:     "db.engine",
		Usage:    "Backing database implementation to use ('pebble', 'leveldb', 'bolt' or 'memory')",
		Value:    node.DefaultConfig.DBEngine,
		Category: flags.DatabaseCategory,
	}
	CacheFlag = &cli.IntFlag{
		Name:     "cache",
		Usage:    "Megabytes of memory allocated to the database",
		Value:    node.DefaultConfig.DatabaseCache,
		Category: flags.DatabaseCategory,
	}
	HandlesFlag = &cli.IntFlag{
		Name:     "handles",
		Usage:    "Number of file handles allocated to the database",
		Value:    node.DefaultConfig.DatabaseHandles,
		Category: flags.DatabaseCategory,
	}
	ReadOnlyFlag = &cli.BoolFlag{
		Name:     "readonly",
		Usage:    "Open the database in read-only mode",
		Category: flags.DatabaseCategory,
	}

	// Trie settings
	HasherFlag = &cli.StringFlag{
		Name:     "trie.hasher",
		Usage:    "Hash function of trie nodes (" + strings.Join(crypto.HasherNames(), ", ") + ")",
		Value:    node.DefaultTrieConfig.Hasher,
		Category: flags.TrieCategory,
	}
	CodecFlag = &cli.StringFlag{
		Name:     "trie.codec",
		Usage:    "Encoding of trie nodes (" + strings.Join(trie.CodecNames(), ", ") + ")",
		Value:    node.DefaultTrieConfig.Codec,
		Category: flags.TrieCategory,
	}
	TrieCacheFlag = &cli.IntFlag{
		Name:     "trie.cache",
		Usage:    "Megabytes of memory allocated to caching clean trie nodes",
		Value:    node.DefaultTrieConfig.CleanCacheSize,
		Category: flags.TrieCategory,
	}
	SecureFlag = &cli.BoolFlag{
		Name:     "trie.secure",
		Usage:    "Hash keys before inserting them into the trie",
		Category: flags.TrieCategory,
	}

	// Command arguments
	RootFlag = &cli.StringFlag{
		Name:  "root",
		Usage: "Trie root to operate on (default = head root)",
	}
	OutputFlag = &cli.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Usage:   "Output file (default = stdout)",
	}
	WorkersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "Number of concurrent workers (0 = number of CPUs)",
	}
)

var (
	// DatabaseFlags is the flag group of all database options.
	DatabaseFlags = []cli.Flag{
		DataDirFlag,
		DBEngineFlag,
		CacheFlag,
		HandlesFlag,
		ReadOnlyFlag,
	}
	// TrieFlags is the flag group of all trie options.
	TrieFlags = []cli.Flag{
		HasherFlag,
		CodecFlag,
		TrieCacheFlag,
		SecureFlag,
	}
)

// SetNodeConfig applies node-related command line flags to the config.
func SetNodeConfig(ctx *cli.Context, cfg *node.Config) {
	switch {
	case ctx.IsSet(DataDirFlag.Name):
		cfg.DataDir = ctx.String(DataDirFlag.Name)
	case cfg.DataDir == "":
		cfg.DataDir = node.DefaultDataDir()
	}
	if ctx.IsSet(DBEngineFlag.Name) {
		dbEngine := ctx.String(DBEngineFlag.Name)
		switch dbEngine {
		case rawdb.DBPebble, rawdb.DBLeveldb, rawdb.DBBolt, rawdb.DBMemory:
		default:
			Fatalf("Invalid choice for db.engine '%s', allowed 'pebble', 'leveldb', 'bolt' or 'memory'", dbEngine)
		}
		cfg.DBEngine = dbEngine
	}
	if ctx.IsSet(CacheFlag.Name) {
		cfg.DatabaseCache = ctx.Int(CacheFlag.Name)
	}
	if ctx.IsSet(HandlesFlag.Name) {
		cfg.DatabaseHandles = ctx.Int(HandlesFlag.Name)
	}
	if ctx.IsSet(ReadOnlyFlag.Name) {
		cfg.ReadOnly = ctx.Bool(ReadOnlyFlag.Name)
	}
}

// SetTrieConfig applies trie-related command line flags to the config.
func SetTrieConfig(ctx *cli.Context, cfg *node.TrieConfig) {
	if ctx.IsSet(HasherFlag.Name) {
		cfg.Hasher = ctx.String(HasherFlag.Name)
	}
	if ctx.IsSet(CodecFlag.Name) {
		cfg.Codec = ctx.String(CodecFlag.Name)
	}
	if ctx.IsSet(TrieCacheFlag.Name) {
		cfg.CleanCacheSize = ctx.Int(TrieCacheFlag.Name)
	}
	if ctx.IsSet(SecureFlag.Name) {
		cfg.Secure = ctx.Bool(SecureFlag.Name)
	}
}
