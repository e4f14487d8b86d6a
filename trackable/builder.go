//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

package trackable

import (
	"trpc.group/trpc-go/trpc-trackable-go/log"
)

// GraphEntry is one node of a built graph together with the first path it
// was discovered at.
type GraphEntry struct {
	Path string
	Node *Node
}

// Graph is the result of traversing a root: a deterministic, ordered
// mapping from path to node. It is a snapshot; later attaches are not
// reflected and callers rebuild when they need a current view.
type Graph struct {
	entries []GraphEntry
	byPath  map[string]*Node
	visited map[int64]string // handle -> first-discovered path
}

// Build traverses root depth-first, iterating each node's edges in
// insertion order. A node reached twice keeps its first-discovered path
// and is not re-descended, which breaks cycles and keeps shared
// sub-objects single entries within one traversal. Slot edges are resolved
// in a second phase: a slot subtree is included only when both its owner
// and its variable were reached through ordinary edges or an earlier slot.
func Build(root *Node) *Graph {
	g := &Graph{
		byPath:  make(map[string]*Node),
		visited: make(map[int64]string),
	}
	if root == nil {
		return g
	}
	g.walk(RootPath, root)

	// Slot phase. A slot's path embeds the variable's own path under the
	// owner's, so two slots sharing a name but serving different variables
	// stay distinct checkpoint entries. Entries appended by a slot walk
	// are themselves scanned for slots, so nested slot-bearing nodes
	// resolve in one pass.
	for i := 0; i < len(g.entries); i++ {
		owner := g.entries[i].Node
		ownerPath := g.entries[i].Path
		for _, s := range owner.slots {
			varPath, ok := g.visited[s.variable.handle]
			if !ok {
				continue // variable not reachable: prune the slot subtree
			}
			path := JoinPath(ownerPath, s.name)
			if varPath != RootPath {
				path = path + PathSeparator + varPath
			}
			g.walk(path, s.slot)
		}
	}
	return g
}

func (g *Graph) walk(path string, n *Node) {
	if _, ok := g.visited[n.handle]; ok {
		return
	}
	// Ordinary edge paths are unique by construction, but a slot path is
	// spelled from three parts and can coincide with one of them. The
	// first claimant keeps the path; a second node there would make the
	// checkpoint entry ambiguous on restore.
	if _, taken := g.byPath[path]; taken {
		log.Warnf("graph path %q is already claimed by another node, skipping the duplicate subtree", path)
		return
	}
	g.visited[n.handle] = path
	g.entries = append(g.entries, GraphEntry{Path: path, Node: n})
	g.byPath[path] = n
	for _, e := range n.edges {
		g.walk(JoinPath(path, e.Name), e.Child)
	}
}

// Entries returns every reachable node in traversal order.
func (g *Graph) Entries() []GraphEntry {
	return g.entries
}

// Lookup returns the node at the given path, if one was reached.
func (g *Graph) Lookup(path string) (*Node, bool) {
	n, ok := g.byPath[path]
	return n, ok
}

// Contains reports whether the node identified by handle was reached.
func (g *Graph) Contains(handle int64) bool {
	_, ok := g.visited[handle]
	return ok
}
