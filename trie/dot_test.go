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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDotEmpty(t *testing.T) {
	trie := NewEmpty(newTestDb())
	var buf bytes.Buffer
	require.NoError(t, trie.Dot(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "digraph"), out)
	assert.Contains(t, out, "empty")
}

func TestDotGraph(t *testing.T) {
	trie := NewEmpty(newTestDb())
	updateString(t, trie, "doe", "reindeer")
	updateString(t, trie, "dog", "puppy")
	updateString(t, trie, "dogglesworth", "cat")

	var buf bytes.Buffer
	require.NoError(t, trie.Dot(&buf))
	out := buf.String()

	assert.Contains(t, out, trie.Hash().TerminalString())
	assert.Equal(t, 2, strings.Count(out, "leaf "))
	assert.Equal(t, 2, strings.Count(out, "branch "))
	assert.Equal(t, 1, strings.Count(out, "ext "))
	assert.Contains(t, out, "7075707079") // puppy held by the inner branch
	assert.Equal(t, 4, strings.Count(out, "->"))
}

func TestDotSharedSubtree(t *testing.T) {
	trie := NewEmpty(newTestDb())
	for _, prefix := range []byte{0x10, 0x20} {
		for i := byte(0); i < 2; i++ {
			require.NoError(t, trie.Update([]byte{prefix, 0xaa, i}, []byte{i}))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, trie.Dot(&buf))
	out := buf.String()

	// root branch, one shared extension, its branch and two leaves
	assert.Equal(t, 1, strings.Count(out, "ext "))
	assert.Equal(t, 2, strings.Count(out, "leaf "))
	// root fans out twice into the shared extension
	assert.Equal(t, 5, strings.Count(out, "->"))
}

func TestDotMissingNode(t *testing.T) {
	db := newTestDb()
	trie := NewEmpty(db)
	updateString(t, trie, "abc", "1")
	updateString(t, trie, "xyz", "2")
	root := trie.Hash()
	require.NoError(t, db.disk.Delete(root[:]))

	assert.ErrorIs(t, trie.Dot(new(bytes.Buffer)), ErrMalformedTrie)
}
