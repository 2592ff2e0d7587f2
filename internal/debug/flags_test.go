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

package debug

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetupLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "mpt.log")
	ctx := newContext(t, "--log.file", logFile, "--log.format", "logfmt", "--verbosity", "4")
	require.NoError(t, Setup(ctx))
	defer Exit()

	_, err := os.Stat(logFile)
	assert.NoError(t, err)
}

func TestSetupUnknownFormat(t *testing.T) {
	ctx := newContext(t, "--log.format", "xml")
	assert.ErrorContains(t, Setup(ctx), "unknown log format")
}

func TestSetupBadVmodule(t *testing.T) {
	ctx := newContext(t, "--log.vmodule", "trie=notalevel")
	assert.Error(t, Setup(ctx))
}

func TestValidateLogLocation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, validateLogLocation(dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, "/home/tester/cpu.prof", expandHome("~/cpu.prof"))
	assert.Equal(t, "/tmp/x", expandHome("/tmp/./x"))
}
