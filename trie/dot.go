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
	"fmt"
	"io"

	"github.com/emicklei/dot"
	"github.com/sunyihoo/mpt/common"
)

// Dot renders the trie as a Graphviz digraph. Nodes are labelled with their
// kind and abbreviated hash, edges with the consumed nibbles.
func (t *Trie) Dot(w io.Writer) error {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "TB")
	if t.isEmpty(t.root) {
		g.Node("empty").Label(fmt.Sprintf("empty\n%s", t.root.TerminalString()))
	} else if _, err := t.dotNode(g, t.root, nil); err != nil {
		return err
	}
	g.Write(w)
	return nil
}

func (t *Trie) dotNode(g *dot.Graph, ref common.Hash, path []byte) (dot.Node, error) {
	if gn, ok := g.FindNodeById(ref.Hex()); ok {
		return gn, nil
	}
	n, _, err := t.reader.resolve(path, ref)
	if err != nil {
		return dot.Node{}, err
	}
	gn := g.Node(ref.Hex())
	switch n := n.(type) {
	case *leafNode:
		gn.Label(fmt.Sprintf("leaf %s\npath %x\nvalue %x", ref.TerminalString(), n.Path, n.Value)).Box()
		g.AddToSameRank("leaves", gn)
	case *extensionNode:
		gn.Label(fmt.Sprintf("ext %s", ref.TerminalString()))
		child, err := t.dotNode(g, n.Child, concat(path, n.Path...))
		if err != nil {
			return gn, err
		}
		g.Edge(gn, child, fmt.Sprintf("%x", n.Path))
	case *branchNode:
		label := fmt.Sprintf("branch %s", ref.TerminalString())
		if len(n.Value) > 0 {
			label += fmt.Sprintf("\nvalue %x", n.Value)
		}
		gn.Label(label)
		for i, c := range &n.Children {
			if c == (common.Hash{}) {
				continue
			}
			child, err := t.dotNode(g, c, concat(path, byte(i)))
			if err != nil {
				return gn, err
			}
			g.Edge(gn, child, indices[i])
		}
	default:
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
	return gn, nil
}
