// Copyright 2021 The go-ethereum Authors
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

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/olekukonko/tablewriter"
	"github.com/sunyihoo/mpt/cmd/utils"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/internal/flags"
	"github.com/sunyihoo/mpt/kvdb"
	"github.com/sunyihoo/mpt/rawdb"
	"github.com/sunyihoo/mpt/trie"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var (
	checkCommand = &cli.Command{
		Action: checkTrie,
		Name:   "check",
		Usage:  "Verify a proof for every key stored in the trie",
		Flags:  flags.Merge([]cli.Flag{utils.RootFlag, utils.WorkersFlag}, commandFlags),
		Description: `
The check command walks every leaf of the trie, builds a proof for its key and
verifies the proof against the root. It fails on the first missing or
malformed node.`,
	}
	inspectCommand = &cli.Command{
		Action: inspect,
		Name:   "inspect",
		Usage:  "Inspect the storage size for each type of data in the database",
		Flags:  flags.Merge([]cli.Flag{utils.RootFlag}, commandFlags),
	}
	compactCommand = &cli.Command{
		Action: compact,
		Name:   "compact",
		Usage:  "Compact the database",
		Flags:  commandFlags,
		Description: `This command performs a database compaction.
WARNING: This operation may take a very long time to finish, and may cause database
corruption if it is aborted during execution'!`,
	}
	exportCommand = &cli.Command{
		Action:    exportSnapshot,
		Name:      "export",
		Usage:     "Export all nodes reachable from a root into a snapshot file",
		ArgsUsage: "<file>",
		Flags:     flags.Merge([]cli.Flag{utils.RootFlag}, commandFlags),
	}
	importCommand = &cli.Command{
		Action:    importSnapshot,
		Name:      "import",
		Usage:     "Import a snapshot file and adopt its root",
		ArgsUsage: "<file>",
		Flags:     flags.Merge([]cli.Flag{utils.WorkersFlag}, commandFlags),
		Description: `
The import command loads the nodes of a snapshot produced by export. Every node
is rehashed before it is written. The snapshot must use the hasher and codec of
the database. Once all nodes are loaded the snapshot root becomes the head.`,
	}
)

func workers(ctx *cli.Context) int {
	if n := ctx.Int(utils.WorkersFlag.Name); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

func checkTrie(ctx *cli.Context) error {
	root, err := rootFromFlag(ctx)
	if err != nil {
		return err
	}
	stack, _, err := makeConfigNode(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	tr, err := stack.RawTrie(root)
	if err != nil {
		return err
	}
	type leaf struct{ key, value []byte }
	var leaves []leaf
	if err := tr.Iterate(func(key, value []byte) bool {
		leaves = append(leaves, leaf{key, value})
		return true
	}); err != nil {
		return err
	}
	var (
		start   = time.Now()
		conf    = stack.TrieConfig()
		checked atomic.Int64
		g, gctx = errgroup.WithContext(ctx.Context)
	)
	root = tr.Hash()
	g.SetLimit(workers(ctx))
	for _, l := range leaves {
		if gctx.Err() != nil {
			break
		}
		l := l
		g.Go(func() error {
			var proof trie.ProofList
			if err := tr.Copy().Prove(l.key, &proof); err != nil {
				return fmt.Errorf("failed to prove key %x: %w", l.key, err)
			}
			value, err := trie.VerifyProof(root, l.key, proof, conf)
			if err != nil {
				return fmt.Errorf("invalid proof for key %x: %w", l.key, err)
			}
			if !bytes.Equal(value, l.value) {
				return fmt.Errorf("proof for key %x yields %x, want %x", l.key, value, l.value)
			}
			checked.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Checked trie", "root", root, "keys", checked.Load(), "elapsed", common.PrettyDuration(time.Since(start)))
	fmt.Fprintf(ctx.App.Writer, "Verified %d keys in trie %x\n", checked.Load(), root)
	return nil
}

func inspect(ctx *cli.Context) error {
	root, err := rootFromFlag(ctx)
	if err != nil {
		return err
	}
	stack, _, err := makeConfigNode(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	w := ctx.App.Writer
	if err := rawdb.InspectDatabase(stack.DiskDB(), stack.TrieConfig().Hasher, w); err != nil {
		return err
	}
	tr, err := stack.RawTrie(root)
	if err != nil {
		return err
	}
	stats, err := tr.Stats()
	if err != nil {
		return err
	}
	entries, size, hits, misses := stack.NodeDB().CacheStats()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Property", "Value"})
	table.AppendBulk([][]string{
		{"Root", tr.Hash().Hex()},
		{"Config", stack.TrieConfig().String()},
		{"Leaves", strconv.Itoa(stats.Leaves)},
		{"Extensions", strconv.Itoa(stats.Extensions)},
		{"Branches", strconv.Itoa(stats.Branches)},
		{"Values", strconv.Itoa(stats.Values)},
		{"Max depth", strconv.Itoa(stats.MaxDepth)},
		{"Avg depth", strconv.FormatFloat(stats.AvgDepth(), 'f', 2, 64)},
		{"Node size", stats.Size.String()},
		{"Cached nodes", fmt.Sprintf("%d (%v)", entries, size)},
		{"Cache hits/misses", fmt.Sprintf("%d/%d", hits, misses)},
	})
	table.Render()
	showDBStats(w, stack.DiskDB())
	return nil
}

func showDBStats(w io.Writer, db kvdb.KeyValueStater) {
	stats, err := db.Stat()
	if err != nil {
		log.Warn("Failed to read database stats", "error", err)
		return
	}
	fmt.Fprintln(w, stats)
}

func compact(ctx *cli.Context) error {
	stack, _, err := makeConfigNode(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	db := stack.DiskDB()
	log.Info("Stats before compaction")
	showDBStats(ctx.App.ErrWriter, db)

	log.Info("Triggering compaction")
	if err := db.Compact(nil, nil); err != nil {
		log.Info("Compact err", "error", err)
		return err
	}
	log.Info("Stats after compaction")
	showDBStats(ctx.App.ErrWriter, db)
	return nil
}

func exportSnapshot(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need <file> argument")
	}
	root, err := rootFromFlag(ctx)
	if err != nil {
		return err
	}
	stack, _, err := makeConfigNode(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	tr, err := stack.RawTrie(root)
	if err != nil {
		return err
	}
	file := ctx.Args().Get(0)
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	var (
		start  = time.Now()
		conf   = stack.TrieConfig()
		header = &rawdb.ExportHeader{
			Hasher: conf.Hasher.Name(),
			Codec:  conf.Codec.Name(),
			Root:   tr.Hash(),
		}
	)
	count, err := rawdb.ExportNodes(f, header, tr.Nodes)
	if err != nil {
		return fmt.Errorf("export failed after %d nodes: %w", count, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info("Exported snapshot", "file", file, "root", header.Root, "nodes", count, "elapsed", common.PrettyDuration(time.Since(start)))
	fmt.Fprintf(ctx.App.Writer, "Exported %d nodes of trie %x\n", count, header.Root)
	return nil
}

func importSnapshot(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need <file> argument")
	}
	stack, _, err := makeConfigNode(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	f, err := os.Open(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer f.Close()

	var (
		start = time.Now()
		conf  = stack.TrieConfig()
	)
	header, count, err := rawdb.ImportNodes(ctx.Context, stack.DiskDB(), f, workers(ctx), func(h *rawdb.ExportHeader) error {
		if h.Hasher != conf.Hasher.Name() || h.Codec != conf.Codec.Name() {
			return fmt.Errorf("snapshot uses trie config %s/%s, database uses %v", h.Hasher, h.Codec, conf)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := stack.Adopt(header.Root); err != nil {
		return fmt.Errorf("imported snapshot unusable: %w", err)
	}
	log.Info("Imported snapshot", "root", header.Root, "nodes", count, "elapsed", common.PrettyDuration(time.Since(start)))
	fmt.Fprintf(ctx.App.Writer, "Imported %d nodes, head root %x\n", count, stack.Head())
	return nil
}
