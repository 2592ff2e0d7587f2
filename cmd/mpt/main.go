// Copyright 2014 The go-ethereum Authors
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

// mpt is a command-line tool for persistent Merkle Patricia Tries.
package main

import (
	"fmt"
	"os"

	"github.com/sunyihoo/mpt/cmd/utils"
	"github.com/sunyihoo/mpt/internal/debug"
	"github.com/sunyihoo/mpt/internal/flags"
	"github.com/urfave/cli/v2"
)

var app = flags.NewApp("the merkle patricia trie command line interface")

func init() {
	app.Commands = []*cli.Command{
		// See triecmd.go:
		putCommand,
		getCommand,
		rootCommand,
		historyCommand,
		revertCommand,
		proveCommand,
		verifyCommand,
		dotCommand,
		// See dbcmd.go:
		checkCommand,
		inspectCommand,
		compactCommand,
		exportCommand,
		importCommand,
		// See config.go:
		dumpConfigCommand,
	}
	app.Flags = flags.Merge(
		[]cli.Flag{configFileFlag},
		utils.DatabaseFlags,
		utils.TrieFlags,
		debug.Flags,
	)
	flags.AutoEnvVars(app.Flags, "MPT")

	before := app.Before
	app.Before = func(ctx *cli.Context) error {
		if err := before(ctx); err != nil {
			return err
		}
		flags.CheckEnvVars(ctx, app.Flags, "MPT")
		return debug.Setup(ctx)
	}
	app.After = func(ctx *cli.Context) error {
		debug.Exit()
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
