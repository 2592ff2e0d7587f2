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

package trie

import (
	"errors"
	"fmt"

	"github.com/sunyihoo/mpt/common"
)

var (
	// ErrNotFound is returned when the requested key has no value in the trie.
	// It's a regular negative answer rather than a failure.
	ErrNotFound = errors.New("key not found")

	// ErrMalformedEncoding is returned when a byte sequence is not the canonical
	// encoding of a compact path or a node list.
	ErrMalformedEncoding = errors.New("malformed encoding")

	// ErrMalformedTrie is matched by every error caused by a referenced node that
	// cannot be fetched or does not decode as a valid node.
	ErrMalformedTrie = errors.New("malformed trie")

	// ErrStorage is matched by every error raised by the node database itself.
	ErrStorage = errors.New("storage failure")

	// ErrInvalidProof is returned when a proof does not authenticate against
	// the given root.
	ErrInvalidProof = errors.New("invalid proof")

	// ErrEmptyValue is returned when storing a zero-length value. An empty
	// branch value is indistinguishable from an absent one.
	ErrEmptyValue = errors.New("empty value")
)

// MissingNodeError is returned by the trie functions (Get, Update, Prove)
// in the case where a trie node is not present in the local database. It contains
// information necessary for retrieving the missing node.
type MissingNodeError struct {
	NodeHash common.Hash // hash of the missing node
	Path     []byte      // nibble path to the missing node
	err      error       // concrete error for missing trie node
}

// Unwrap returns the concrete error for missing trie node which
// allows us for further analysis outside.
func (err *MissingNodeError) Unwrap() error {
	return err.err
}

// Is reports a missing node as a malformed trie.
func (err *MissingNodeError) Is(target error) bool {
	return target == ErrMalformedTrie
}

func (err *MissingNodeError) Error() string {
	return fmt.Sprintf("missing trie node %x (path %x) %v", err.NodeHash, err.Path, err.err)
}

// MalformedNodeError is returned when a fetched node fails to decode or breaks
// a structural invariant.
type MalformedNodeError struct {
	NodeHash common.Hash
	Path     []byte
	err      error
}

func (err *MalformedNodeError) Unwrap() error {
	return err.err
}

func (err *MalformedNodeError) Is(target error) bool {
	return target == ErrMalformedTrie
}

func (err *MalformedNodeError) Error() string {
	return fmt.Sprintf("malformed trie node %x (path %x): %v", err.NodeHash, err.Path, err.err)
}

// StorageError wraps a failure of the node database other than a missing node.
type StorageError struct {
	Op       string // "read" or "write"
	NodeHash common.Hash
	err      error
}

func (err *StorageError) Unwrap() error {
	return err.err
}

func (err *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (err *StorageError) Error() string {
	return fmt.Sprintf("trie node %s %x failed: %v", err.Op, err.NodeHash, err.err)
}
