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

package node

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"

	"github.com/sunyihoo/mpt/rawdb"
	"github.com/sunyihoo/mpt/triedb/hashdb"
)

// DefaultConfig contains reasonable default settings.
var DefaultConfig = Config{
	DataDir:         DefaultDataDir(),
	DBEngine:        "",
	DatabaseCache:   512,
	DatabaseHandles: 512,
}

// DefaultTrieConfig contains the default trie settings.
var DefaultTrieConfig = TrieConfig{
	Hasher:         "keccak256",
	Codec:          "rlp",
	CleanCacheSize: 64,
	RecentWrites:   hashdb.Defaults.RecentWrites,
}

// DefaultDataDir is the default data directory to use for the databases and other
// persistence requirements.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := homeDir()
	if home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Mpt")
		case "windows":
			if appdata := os.Getenv("LOCALAPPDATA"); appdata != "" {
				return filepath.Join(appdata, "Mpt")
			}
			return filepath.Join(home, "AppData", "Roaming", "Mpt")
		default:
			return filepath.Join(home, ".mpt")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// isMemory reports whether the configuration selects the ephemeral engine.
func (c *Config) isMemory() bool {
	return c.DBEngine == rawdb.DBMemory
}
