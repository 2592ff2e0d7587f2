// Copyright 2020 The go-ethereum Authors
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

package rawdb

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/crypto"
)

func TestOpenEngines(t *testing.T) {
	for _, engine := range []string{DBPebble, DBLeveldb, DBBolt} {
		t.Run(engine, func(t *testing.T) {
			dir := t.TempDir()
			assert.Empty(t, PreexistingDatabase(dir))

			db, err := Open(OpenOptions{Type: engine, Directory: dir, Cache: 16, Handles: 16})
			require.NoError(t, err)
			require.NoError(t, db.Put([]byte("key"), []byte("value")))
			require.NoError(t, db.Close())

			assert.Equal(t, engine, PreexistingDatabase(dir))

			// Autodetect the engine on reopen
			db, err = Open(OpenOptions{Directory: dir, Cache: 16, Handles: 16, ReadOnly: true})
			require.NoError(t, err)
			val, err := db.Get([]byte("key"))
			require.NoError(t, err)
			assert.Equal(t, []byte("value"), val)
			require.NoError(t, db.Close())
		})
	}
}

func TestOpenConflictingEngine(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(OpenOptions{Type: DBLeveldb, Directory: dir, Cache: 16, Handles: 16})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(OpenOptions{Type: DBPebble, Directory: dir, Cache: 16, Handles: 16})
	assert.ErrorContains(t, err, "pre-existing leveldb database")

	_, err = Open(OpenOptions{Type: "rocksdb", Directory: dir})
	assert.ErrorContains(t, err, "unknown db.engine")
}

func TestOpenDefaultsToPebble(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(OpenOptions{Directory: dir, Cache: 16, Handles: 16})
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.Equal(t, DBPebble, PreexistingDatabase(dir))
}

func TestOpenMemory(t *testing.T) {
	db, err := Open(OpenOptions{Type: DBMemory, Directory: "/nonexistent"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
}

func TestInspectDatabase(t *testing.T) {
	db := NewMemoryDatabase()

	blob := []byte{0xc5, 0x83, 0x20, 0x12, 0x34, 0x76}
	hash := crypto.Keccak256Hash(blob)
	require.NoError(t, db.Put(hash[:], blob))
	// Hash-sized key whose value doesn't match
	require.NoError(t, db.Put(common.HexToHash("0x01").Bytes(), blob))

	WriteDatabaseVersion(db, DatabaseVersion)
	WriteTrieConfig(db, &TrieConfigRecord{Hasher: "keccak256", Codec: "rlp"})
	_, err := WriteRootUpdate(db, &RootRecord{Root: hash, Time: 1})
	require.NoError(t, err)
	require.NoError(t, NewPreimageStore(db).InsertPreimage(map[common.Hash][]byte{hash: []byte("k")}))

	var out bytes.Buffer
	require.NoError(t, InspectDatabase(db, crypto.Keccak256, &out))

	rows := make(map[string]string)
	for _, line := range strings.Split(out.String(), "\n") {
		cells := strings.Split(line, "|")
		if len(cells) < 5 {
			continue
		}
		rows[strings.TrimSpace(cells[2])] = strings.TrimSpace(cells[4])
	}
	assert.Equal(t, "1", rows["Trie nodes"])
	assert.Equal(t, "1", rows["Root history"])
	assert.Equal(t, "1", rows["Trie preimages"])
	assert.Equal(t, "4", rows["Singleton metadata"])
	assert.Equal(t, "1", rows["Unaccounted"])

	// Under another hasher the node is not recognized
	out.Reset()
	require.NoError(t, InspectDatabase(db, crypto.SHA256, &out))
	assert.Contains(t, out.String(), "Unaccounted")
}
