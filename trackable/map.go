//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

package trackable

// Map is a tracking container for keyed children. Each inserted element is
// registered as a child of the map's node under its key, and any pending
// restoration for the element's path is applied synchronously before Set
// returns. Iteration follows insertion order, but checkpoint matching uses
// the key string, so reordering a map never invalidates matches.
type Map struct {
	node  *Node
	keys  []string
	elems map[string]*Node
}

// NewMap creates an empty tracking map backed by a fresh container node.
func NewMap(r *Registry) *Map {
	return &Map{node: r.NewNode(), elems: make(map[string]*Node)}
}

// Node returns the container node, for attaching the map into a graph.
func (m *Map) Node() *Node { return m.node }

// Set inserts or replaces the element under key. Replacing discards the
// prior child's attachment but not state already restored into it.
func (m *Map) Set(key string, child *Node) error {
	if err := m.node.Attach(key, child); err != nil {
		return err
	}
	if _, exists := m.elems[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.elems[key] = child
	return nil
}

// Get returns the element under key.
func (m *Map) Get(key string) (*Node, bool) {
	n, ok := m.elems[key]
	return n, ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of elements.
func (m *Map) Len() int { return len(m.elems) }
