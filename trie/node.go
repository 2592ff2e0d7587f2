// Copyright 2014 The go-ethereum Authors
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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sunyihoo/mpt/common"
)

var indices = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "a", "b", "c", "d", "e", "f", "[17]"}

// node is one of *leafNode, *extensionNode or *branchNode. The empty node has
// no representation: an absent child is the zero hash and the empty trie is
// the configured empty root.
type node interface {
	encode(c Codec) []byte
	fstring(string) string
}

type (
	// leafNode terminates a key. Path is the remaining nibble suffix.
	leafNode struct {
		Path  []byte
		Value []byte
	}
	// extensionNode consumes a shared, non-empty nibble prefix and points to
	// a branch.
	extensionNode struct {
		Path  []byte
		Child common.Hash
	}
	// branchNode fans out on one nibble. A zero hash marks an empty slot.
	branchNode struct {
		Children [16]common.Hash
		Value    []byte
	}
)

func (n *branchNode) copy() *branchNode { copy := *n; return &copy }

// childCount returns the number of populated child slots.
func (n *branchNode) childCount() int {
	var count int
	for _, child := range &n.Children {
		if child != (common.Hash{}) {
			count++
		}
	}
	return count
}

// Pretty printing.
func (n *leafNode) String() string      { return n.fstring("") }
func (n *extensionNode) String() string { return n.fstring("") }
func (n *branchNode) String() string    { return n.fstring("") }

func (n *branchNode) fstring(ind string) string {
	resp := fmt.Sprintf("[\n%s  ", ind)
	for i, child := range &n.Children {
		if child == (common.Hash{}) {
			resp += fmt.Sprintf("%s: <nil> ", indices[i])
		} else {
			resp += fmt.Sprintf("%s: <%x> ", indices[i], child[:])
		}
	}
	if len(n.Value) > 0 {
		resp += fmt.Sprintf("%s: %x ", indices[16], n.Value)
	}
	return resp + fmt.Sprintf("\n%s] ", ind)
}
func (n *extensionNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: <%x>} ", n.Path, n.Child[:])
}
func (n *leafNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %x} ", n.Path, n.Value)
}

// mustDecodeNode is a wrapper of decodeNode and panic if any error is encountered.
func mustDecodeNode(hash common.Hash, buf []byte, c Codec) node {
	n, err := decodeNode(buf, c)
	if err != nil {
		panic(fmt.Sprintf("node %x: %v", hash, err))
	}
	return n
}

// decodeNode parses the encoding of a trie node. The returned node does not
// reference buf, so it's safe to modify the byte slice afterwards.
func decodeNode(buf []byte, c Codec) (node, error) {
	if len(buf) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	elems, err := c.DecodeList(buf)
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	switch len(elems) {
	case 2:
		n, err := decodeShort(elems)
		return n, wrapError(err, "short")
	case 17:
		n, err := decodeFull(elems)
		return n, wrapError(err, "full")
	default:
		return nil, fmt.Errorf("invalid number of list elements: %v", len(elems))
	}
}

func decodeShort(elems [][]byte) (node, error) {
	path, isLeaf, err := compactDecode(elems[0])
	if err != nil {
		return nil, wrapError(err, "path")
	}
	if isLeaf {
		if len(elems[1]) == 0 {
			return nil, wrapError(errEmptyLeafValue, "value")
		}
		return &leafNode{Path: path, Value: common.CopyBytes(elems[1])}, nil
	}
	if len(path) == 0 {
		return nil, wrapError(errEmptyExtensionPath, "path")
	}
	child, err := decodeRef(elems[1])
	if err != nil {
		return nil, wrapError(err, "val")
	}
	if child == (common.Hash{}) {
		return nil, wrapError(errMissingChild, "val")
	}
	return &extensionNode{Path: path, Child: child}, nil
}

func decodeFull(elems [][]byte) (*branchNode, error) {
	n := &branchNode{}
	for i := 0; i < 16; i++ {
		child, err := decodeRef(elems[i])
		if err != nil {
			return nil, wrapError(err, fmt.Sprintf("[%d]", i))
		}
		n.Children[i] = child
	}
	if len(elems[16]) > 0 {
		n.Value = common.CopyBytes(elems[16])
	}
	if count := n.childCount(); count < 2 && (count == 0 || len(n.Value) == 0) {
		return nil, errDegenerateBranch
	}
	return n, nil
}

// decodeRef parses a child reference: either empty or a full 32-byte hash.
func decodeRef(buf []byte) (common.Hash, error) {
	switch len(buf) {
	case 0:
		return common.Hash{}, nil
	case common.HashLength:
		ref := common.BytesToHash(buf)
		if ref == (common.Hash{}) {
			return ref, errors.New("zero hash reference")
		}
		return ref, nil
	default:
		return common.Hash{}, fmt.Errorf("invalid reference size %d (want 0 or %d)", len(buf), common.HashLength)
	}
}

var (
	errEmptyLeafValue     = errors.New("leaf without value")
	errEmptyExtensionPath = errors.New("extension with empty path")
	errMissingChild       = errors.New("extension without child")
	errDegenerateBranch   = errors.New("branch with fewer than two entries")
)

// wraps a decoding error with information about the path to the
// invalid child node (for debugging encoding issues).
type decodeError struct {
	what  error
	stack []string
}

func wrapError(err error, ctx string) error {
	if err == nil {
		return nil
	}
	if decErr, ok := err.(*decodeError); ok {
		decErr.stack = append(decErr.stack, ctx)
		return decErr
	}
	return &decodeError{err, []string{ctx}}
}

func (err *decodeError) Error() string {
	return fmt.Sprintf("%v (decode path: %s)", err.what, strings.Join(err.stack, "<-"))
}

func (err *decodeError) Unwrap() error {
	return err.what
}
