// Copyright 2020 The go-ethereum Authors
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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/olekukonko/tablewriter"
	"github.com/sunyihoo/mpt/cmd/utils"
	"github.com/sunyihoo/mpt/common"
	"github.com/sunyihoo/mpt/internal/flags"
	"github.com/sunyihoo/mpt/trie"
	"github.com/urfave/cli/v2"
)

var commandFlags = flags.Merge(utils.DatabaseFlags, utils.TrieFlags)

var (
	putCommand = &cli.Command{
		Action:    putValue,
		Name:      "put",
		Usage:     "Store a value under a key and adopt the new root",
		ArgsUsage: "<key> <value>",
		Flags:     commandFlags,
		Description: `
The put command inserts or replaces the value stored under key on top of the
current head root. The resulting root becomes the new head and is appended to
the root history. Keys and values prefixed with 0x are read as hex.`,
	}
	getCommand = &cli.Command{
		Action:    getValue,
		Name:      "get",
		Usage:     "Retrieve the value stored under a key",
		ArgsUsage: "<key>",
		Flags:     flags.Merge([]cli.Flag{utils.RootFlag}, commandFlags),
	}
	rootCommand = &cli.Command{
		Action: printRoot,
		Name:   "root",
		Usage:  "Print the head root",
		Flags:  commandFlags,
	}
	historyCommand = &cli.Command{
		Action: printHistory,
		Name:   "history",
		Usage:  "List all roots adopted so far, oldest first",
		Flags:  commandFlags,
	}
	revertCommand = &cli.Command{
		Action:    revertRoot,
		Name:      "revert",
		Usage:     "Adopt a previously observed root as head",
		ArgsUsage: "<root|#index>",
		Flags:     commandFlags,
		Description: `
The revert command adopts an older root as the head. The root is given either
as a hash or as #index into the root history. Nodes are never deleted, so any
root ever produced by this database can be adopted again.`,
	}
	proveCommand = &cli.Command{
		Action:    proveKey,
		Name:      "prove",
		Usage:     "Create a merkle proof for a key",
		ArgsUsage: "<key>",
		Flags:     flags.Merge([]cli.Flag{utils.RootFlag, utils.OutputFlag}, commandFlags),
		Description: `
The prove command writes the proof nodes for key, one hex encoded node per
line, root first. If the key is absent, the proof of its absence is written.`,
	}
	verifyCommand = &cli.Command{
		Action:    verifyProof,
		Name:      "verify",
		Usage:     "Verify a merkle proof against a root without opening the database",
		ArgsUsage: "<root> <key> <prooffile>",
		Flags:     utils.TrieFlags,
	}
	dotCommand = &cli.Command{
		Action: dumpDot,
		Name:   "dot",
		Usage:  "Render the trie structure in Graphviz dot format",
		Flags:  flags.Merge([]cli.Flag{utils.RootFlag, utils.OutputFlag}, commandFlags),
	}
)

// formatBytes renders printable UTF-8 verbatim and everything else as hex.
func formatBytes(b []byte) string {
	if len(b) == 0 || !utf8.Valid(b) {
		return hexutil.Encode(b)
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) {
			return hexutil.Encode(b)
		}
	}
	return string(b)
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid hash %q: want %d bytes, have %d", s, common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

// rootFromFlag returns the --root value, or the zero hash selecting the head.
func rootFromFlag(ctx *cli.Context) (common.Hash, error) {
	if !ctx.IsSet(utils.RootFlag.Name) {
		return common.Hash{}, nil
	}
	return parseHash(ctx.String(utils.RootFlag.Name))
}

// output returns the writer selected by --out and a function to close it.
func output(ctx *cli.Context) (io.Writer, func() error, error) {
	file := ctx.String(utils.OutputFlag.Name)
	if file == "" || file == "-" {
		return ctx.App.Writer, func() error { return nil }, nil
	}
	f, err := os.Create(file)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func putValue(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return errors.New("need <key> <value> arguments")
	}
	key, err := common.ParseBytes(ctx.Args().Get(0))
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	value, err := common.ParseBytes(ctx.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	stack, _, err := makeConfigNode(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	root, err := stack.Update(key, value)
	if err != nil {
		return err
	}
	log.Info("Stored value", "key", formatBytes(key), "size", len(value), "root", root)
	fmt.Fprintln(ctx.App.Writer, root.Hex())
	return nil
}

func getValue(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need <key> argument")
	}
	key, err := common.ParseBytes(ctx.Args().Get(0))
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
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

	tr, err := stack.OpenTrie(root)
	if err != nil {
		return err
	}
	value, err := tr.Get(key)
	if errors.Is(err, trie.ErrNotFound) {
		return fmt.Errorf("key %s not found in trie %x", formatBytes(key), tr.Hash())
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, formatBytes(value))
	return nil
}

func printRoot(ctx *cli.Context) error {
	stack, _, err := makeConfigNode(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	fmt.Fprintln(ctx.App.Writer, stack.Head().Hex())
	return nil
}

func printHistory(ctx *cli.Context) error {
	stack, _, err := makeConfigNode(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	var rows [][]string
	for i, rec := range stack.History() {
		key := ""
		if len(rec.Key) > 0 {
			key = formatBytes(rec.Key)
		}
		rows = append(rows, []string{
			"#" + strconv.Itoa(i),
			rec.Root.Hex(),
			time.Unix(int64(rec.Time), 0).UTC().Format(time.RFC3339),
			key,
		})
	}
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Index", "Root", "Time", "Key"})
	table.SetFooter([]string{"", "Head: " + stack.Head().Hex(), "", ""})
	table.AppendBulk(rows)
	table.Render()
	return nil
}

func revertRoot(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need <root|#index> argument")
	}
	stack, _, err := makeConfigNode(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	var (
		arg  = ctx.Args().Get(0)
		root common.Hash
	)
	if index, ok := strings.CutPrefix(arg, "#"); ok {
		i, err := strconv.ParseUint(index, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid history index %q: %w", arg, err)
		}
		hist := stack.History()
		if i >= uint64(len(hist)) {
			return fmt.Errorf("history index %d out of range, %d roots recorded", i, len(hist))
		}
		root = hist[i].Root
	} else if root, err = parseHash(arg); err != nil {
		return err
	}
	if err := stack.Revert(root); err != nil {
		return err
	}
	log.Info("Reverted head root", "root", root)
	fmt.Fprintln(ctx.App.Writer, stack.Head().Hex())
	return nil
}

func proveKey(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need <key> argument")
	}
	key, err := common.ParseBytes(ctx.Args().Get(0))
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
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

	tr, err := stack.OpenTrie(root)
	if err != nil {
		return err
	}
	var proof trie.ProofList
	if err := tr.Prove(key, &proof); err != nil {
		return err
	}
	w, closer, err := output(ctx)
	if err != nil {
		return err
	}
	for _, node := range proof {
		fmt.Fprintln(w, hexutil.Encode(node))
	}
	log.Info("Created proof", "key", formatBytes(key), "root", tr.Hash(), "nodes", len(proof))
	return closer()
}

// readProof parses a proof file of hex encoded nodes, one per line.
func readProof(file string) (trie.ProofList, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		proof   trie.ProofList
		scanner = bufio.NewScanner(f)
		line    int
	)
	scanner.Buffer(nil, 1024*1024)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		node, err := hexutil.Decode(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", file, line, err)
		}
		proof = append(proof, node)
	}
	return proof, scanner.Err()
}

func verifyProof(ctx *cli.Context) error {
	if ctx.NArg() != 3 {
		return errors.New("need <root> <key> <prooffile> arguments")
	}
	root, err := parseHash(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	key, err := common.ParseBytes(ctx.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	proof, err := readProof(ctx.Args().Get(2))
	if err != nil {
		return err
	}
	cfg := loadBaseConfig(ctx)
	conf, err := cfg.Trie.TrieConfig()
	if err != nil {
		return err
	}
	var value []byte
	if cfg.Trie.Secure {
		value, err = trie.VerifySecureProof(root, key, proof, conf)
	} else {
		value, err = trie.VerifyProof(root, key, proof, conf)
	}
	if errors.Is(err, trie.ErrNotFound) {
		fmt.Fprintf(ctx.App.Writer, "Proof valid: key %s is absent\n", formatBytes(key))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, formatBytes(value))
	return nil
}

func dumpDot(ctx *cli.Context) error {
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
	w, closer, err := output(ctx)
	if err != nil {
		return err
	}
	if err := tr.Dot(w); err != nil {
		closer()
		return err
	}
	return closer()
}
