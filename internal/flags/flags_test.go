// Copyright 2015 The go-ethereum Authors
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

package flags

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"
)

func TestPathExpansion(t *testing.T) {
	home := HomeDir()
	tests := map[string]string{
		"/home/someuser/tmp": "/home/someuser/tmp",
		"~/tmp":              home + "/tmp",
		"~thisOtherUser/b/":  "~thisOtherUser/b",
		"$DDDXXX/a/b":        "/tmp/a/b",
		"/a/b/":              "/a/b",
	}
	if runtime.GOOS == "windows" {
		t.Skip("unix paths only")
	}
	os.Setenv("DDDXXX", "/tmp")
	defer os.Unsetenv("DDDXXX")
	for test, expected := range tests {
		assert.Equal(t, expected, expandPath(test), "input %s", test)
	}
}

func TestWordWrap(t *testing.T) {
	assert.Equal(t, "aaa bbb\nccc", wordWrap("aaa bbb ccc", 8))
	assert.Equal(t, "single", wordWrap("single", 80))
}

func TestMerge(t *testing.T) {
	a := []cli.Flag{&cli.StringFlag{Name: "a"}}
	b := []cli.Flag{&cli.StringFlag{Name: "b"}, &cli.BoolFlag{Name: "c"}}
	assert.Len(t, Merge(a, b), 3)
	assert.Nil(t, Merge())
}

func TestAutoEnvVars(t *testing.T) {
	var (
		str = &cli.StringFlag{Name: "db.engine"}
		dir = &DirectoryFlag{Name: "datadir"}
		num = &cli.IntFlag{Name: "trie-cache"}
	)
	AutoEnvVars([]cli.Flag{str, dir, num}, "MPT")
	assert.Equal(t, []string{"MPT_DB_ENGINE"}, str.EnvVars)
	assert.Equal(t, []string{"MPT_DATADIR"}, dir.EnvVars)
	assert.Equal(t, []string{"MPT_TRIE_CACHE"}, num.EnvVars)
}
