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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/crypto"
)

func TestHeadRoot(t *testing.T) {
	db := NewMemoryDatabase()
	assert.Equal(t, common.Hash{}, ReadHeadRoot(db))

	root := common.HexToHash("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")
	WriteHeadRoot(db, root)
	assert.Equal(t, root, ReadHeadRoot(db))
}

func TestRootHistory(t *testing.T) {
	db := NewMemoryDatabase()
	assert.Zero(t, ReadHistoryCount(db))
	assert.Empty(t, ReadRootHistory(db))
	assert.Nil(t, ReadRootRecord(db, 0))

	recs := []*RootRecord{
		{Root: common.HexToHash("0x01"), Time: 100, Key: []byte("a")},
		{Root: common.HexToHash("0x02"), Time: 200, Key: []byte("b")},
		{Root: common.HexToHash("0x01"), Time: 300},
	}
	for i, rec := range recs {
		seq, err := WriteRootUpdate(db, rec)
		require.NoError(t, err)
		assert.Equal(t, uint64(i), seq)
		assert.Equal(t, rec.Root, ReadHeadRoot(db))
	}
	assert.Equal(t, uint64(3), ReadHistoryCount(db))

	got := ReadRootHistory(db)
	require.Len(t, got, 3)
	for i := range recs {
		assert.Equal(t, recs[i].Root, got[i].Root)
		assert.Equal(t, recs[i].Time, got[i].Time)
		assert.Equal(t, len(recs[i].Key), len(got[i].Key))
	}
	rec := ReadRootRecord(db, 1)
	require.NotNil(t, rec)
	assert.Equal(t, []byte("b"), rec.Key)

	seq, ok := FindRootRecord(db, common.HexToHash("0x01"))
	require.True(t, ok)
	assert.Equal(t, uint64(2), seq, "most recent record wins")

	_, ok = FindRootRecord(db, common.HexToHash("0x03"))
	assert.False(t, ok)
}

func TestHistoryOrderBeyondByte(t *testing.T) {
	db := NewMemoryDatabase()
	for i := 0; i < 300; i++ {
		_, err := WriteRootUpdate(db, &RootRecord{Root: common.BytesToHash(encodeSeq(uint64(i))), Time: uint64(i)})
		require.NoError(t, err)
	}
	recs := ReadRootHistory(db)
	require.Len(t, recs, 300)
	for i, rec := range recs {
		assert.Equal(t, uint64(i), rec.Time)
	}
}

func TestMetadata(t *testing.T) {
	db := NewMemoryDatabase()
	assert.Nil(t, ReadDatabaseVersion(db))
	assert.Nil(t, ReadTrieConfig(db))

	WriteDatabaseVersion(db, DatabaseVersion)
	WriteTrieConfig(db, &TrieConfigRecord{Hasher: "keccak256", Codec: "rlp"})

	version := ReadDatabaseVersion(db)
	require.NotNil(t, version)
	assert.Equal(t, uint64(DatabaseVersion), *version)

	config := ReadTrieConfig(db)
	require.NotNil(t, config)
	assert.Equal(t, "keccak256/rlp", config.String())

	meta := ReadMetadata(db)
	require.Len(t, meta, 4)
	assert.Equal(t, []string{"trieConfig", "keccak256/rlp"}, meta[1])
	assert.Equal(t, "0 (0x0)", meta[3][1])
}

func TestPreimageStore(t *testing.T) {
	db := NewMemoryDatabase()
	store := NewPreimageStore(db)

	preimages := map[common.Hash][]byte{
		crypto.Keccak256Hash([]byte("foo")): []byte("foo"),
		crypto.Keccak256Hash([]byte("bar")): []byte("bar"),
	}
	assert.Nil(t, store.Preimage(crypto.Keccak256Hash([]byte("foo"))))
	require.NoError(t, store.InsertPreimage(preimages))
	for hash, preimage := range preimages {
		assert.Equal(t, preimage, store.Preimage(hash))
		assert.Equal(t, preimage, ReadPreimage(db, hash))
	}
}
