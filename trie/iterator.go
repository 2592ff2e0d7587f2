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

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sunyihoo/mpt/common"
)

var errOddKey = errors.New("value at odd nibble position")

// Iterate calls fn for every key/value pair of the trie in ascending key
// order, stopping early when fn returns false. The slices handed to fn must
// not be retained.
func (t *Trie) Iterate(fn func(key, value []byte) bool) error {
	_, err := t.iterate(t.root, nil, fn)
	return err
}

func (t *Trie) iterate(ref common.Hash, path []byte, fn func(key, value []byte) bool) (bool, error) {
	if t.isEmpty(ref) {
		return true, nil
	}
	n, _, err := t.reader.resolve(path, ref)
	if err != nil {
		return false, err
	}
	switch n := n.(type) {
	case *leafNode:
		full := concat(path, n.Path...)
		if len(full)&1 != 0 {
			return false, &MalformedNodeError{NodeHash: ref, Path: path, err: errOddKey}
		}
		return fn(fromNibbles(full), n.Value), nil
	case *extensionNode:
		return t.iterate(n.Child, concat(path, n.Path...), fn)
	case *branchNode:
		// A value held by the branch belongs to a key that is a prefix of all
		// keys below it, so it comes first.
		if len(n.Value) > 0 {
			if len(path)&1 != 0 {
				return false, &MalformedNodeError{NodeHash: ref, Path: path, err: errOddKey}
			}
			if !fn(fromNibbles(path), n.Value) {
				return false, nil
			}
		}
		for i, child := range &n.Children {
			if child == (common.Hash{}) {
				continue
			}
			cont, err := t.iterate(child, concat(path, byte(i)), fn)
			if err != nil || !cont {
				return cont, err
			}
		}
		return true, nil
	default:
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}

// Nodes calls fn once for every distinct node reachable from the root, parents
// before children. Subtrees that were already visited are skipped.
func (t *Trie) Nodes(fn func(hash common.Hash, blob []byte) error) error {
	return t.nodes(t.root, nil, mapset.NewThreadUnsafeSet[common.Hash](), fn)
}

func (t *Trie) nodes(ref common.Hash, path []byte, seen mapset.Set[common.Hash], fn func(common.Hash, []byte) error) error {
	if t.isEmpty(ref) || !seen.Add(ref) {
		return nil
	}
	n, blob, err := t.reader.resolve(path, ref)
	if err != nil {
		return err
	}
	if err := fn(ref, blob); err != nil {
		return err
	}
	switch n := n.(type) {
	case *leafNode:
		return nil
	case *extensionNode:
		return t.nodes(n.Child, concat(path, n.Path...), seen, fn)
	case *branchNode:
		for i, child := range &n.Children {
			if err := t.nodes(child, concat(path, byte(i)), seen, fn); err != nil {
				return err
			}
		}
		return nil
	default:
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}

// Stats summarizes the shape of a trie.
type Stats struct {
	Leaves      int                // Number of leaf nodes
	Extensions  int                // Number of extension nodes
	Branches    int                // Number of branch nodes
	Values      int                // Number of stored values, held by leaves and branches
	MaxDepth    int                // Longest root-to-node path, counted in nodes
	Size        common.StorageSize // Total size of all encoded nodes
	depthTotal  int
	valueLevels int
}

// AvgDepth returns the mean depth of all value-holding nodes.
func (s *Stats) AvgDepth() float64 {
	if s.valueLevels == 0 {
		return 0
	}
	return float64(s.depthTotal) / float64(s.valueLevels)
}

// Stats walks the whole trie and gathers shape statistics.
func (t *Trie) Stats() (*Stats, error) {
	stats := new(Stats)
	if err := t.stats(t.root, nil, 1, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (t *Trie) stats(ref common.Hash, path []byte, depth int, s *Stats) error {
	if t.isEmpty(ref) {
		return nil
	}
	n, blob, err := t.reader.resolve(path, ref)
	if err != nil {
		return err
	}
	s.Size += common.StorageSize(len(blob))
	if depth > s.MaxDepth {
		s.MaxDepth = depth
	}
	switch n := n.(type) {
	case *leafNode:
		s.Leaves++
		s.Values++
		s.depthTotal += depth
		s.valueLevels++
		return nil
	case *extensionNode:
		s.Extensions++
		return t.stats(n.Child, concat(path, n.Path...), depth+1, s)
	case *branchNode:
		s.Branches++
		if len(n.Value) > 0 {
			s.Values++
			s.depthTotal += depth
			s.valueLevels++
		}
		for i, child := range &n.Children {
			if err := t.stats(child, concat(path, byte(i)), depth+1, s); err != nil {
				return err
			}
		}
		return nil
	default:
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}
