// Copyright 2017 The go-ethereum Authors
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
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"unicode"

	"github.com/naoina/toml"
	"github.com/sunyihoo/mpt/cmd/utils"
	"github.com/sunyihoo/mpt/internal/flags"
	"github.com/sunyihoo/mpt/node"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var (
	dumpConfigCommand = &cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Export configuration values in a TOML format",
		ArgsUsage:   "<dumpfile (optional)>",
		Flags:       flags.Merge([]cli.Flag{configFileFlag}, utils.DatabaseFlags, utils.TrieFlags),
		Description: `Export configuration values in TOML format (to stdout by default).`,
	}

	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML or YAML configuration file",
		Category: flags.MiscCategory,
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type mptConfig struct {
	Node node.Config
	Trie node.TrieConfig
}

// loadConfig decodes a configuration file into cfg. Files ending in .yaml or
// .yml are read as YAML with lowercased field names, everything else as TOML.
func loadConfig(file string, cfg *mptConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bufio.NewReader(f))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return errors.New(file + ", " + err.Error())
		}
		return nil
	}
	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// loadBaseConfig loads the mptConfig based on the given command line
// parameters and config file.
func loadBaseConfig(ctx *cli.Context) mptConfig {
	// Load defaults.
	cfg := mptConfig{
		Node: node.DefaultConfig,
		Trie: node.DefaultTrieConfig,
	}

	// Load config file.
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			utils.Fatalf("%v", err)
		}
	}

	// Apply flags.
	utils.SetNodeConfig(ctx, &cfg.Node)
	utils.SetTrieConfig(ctx, &cfg.Trie)
	return cfg
}

// makeConfigNode opens the node described by the config file and flags.
func makeConfigNode(ctx *cli.Context) (*node.Node, mptConfig, error) {
	cfg := loadBaseConfig(ctx)
	stack, err := node.New(&cfg.Node, &cfg.Trie)
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to open database: %w", err)
	}
	return stack, cfg, nil
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg := loadBaseConfig(ctx)
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	_, err = dump.Write(out)
	return err
}
