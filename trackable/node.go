//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

// Package trackable models a mutable object graph whose leaf state can be
// checkpointed and restored by structural path rather than object identity.
package trackable

import (
	"fmt"
	"strings"
)

// Descriptor describes the shape and element type of a serialized leaf value.
type Descriptor struct {
	DType string  `json:"dtype"`
	Shape []int64 `json:"shape,omitempty"`
}

// Leaf is the serialization contract a checkpointable value must satisfy.
// The engine is agnostic to what the value is (scalar, dense array, nested
// buffer) as long as Marshal/Unmarshal round-trip.
type Leaf interface {
	// MarshalLeaf serializes the current value.
	MarshalLeaf() ([]byte, Descriptor, error)
	// UnmarshalLeaf replaces the current value with the serialized one.
	UnmarshalLeaf(data []byte, desc Descriptor) error
}

// Edge is a named reference from a node to one of its children.
type Edge struct {
	Name  string
	Child *Node
}

// slotEdge links an owner node to an auxiliary "slot" node kept per
// variable. It is conditionally saved: the subtree is traversed only when
// both the owner and the variable are reachable from the save root.
type slotEdge struct {
	name     string
	variable *Node
	slot     *Node
}

// Node is a vertex in a trackable graph: an optional leaf value plus an
// ordered set of named children. Nodes are created through a Registry and
// identified by their handle for the lifetime of the process.
type Node struct {
	handle   int64
	registry *Registry
	leaf     Leaf

	edges []Edge
	index map[string]int // edge name -> position in edges
	slots []slotEdge
}

// Handle returns the node's stable identity within its registry.
func (n *Node) Handle() int64 { return n.handle }

// Registry returns the registry that owns this node.
func (n *Node) Registry() *Registry { return n.registry }

// Leaf returns the node's leaf value, or nil for a pure container node.
func (n *Node) Leaf() Leaf { return n.leaf }

// Attach registers child under the given edge name. Re-attaching an
// existing name replaces the prior edge in place; it does not append.
// Malformed names are rejected here, at attach time, so graph builds
// never observe them.
func (n *Node) Attach(name string, child *Node) error {
	if err := validateEdgeName(name); err != nil {
		return err
	}
	if child == nil {
		return fmt.Errorf("%w: attach %q: child is nil", ErrGraphConstruction, name)
	}
	if i, ok := n.index[name]; ok {
		n.edges[i].Child = child
	} else {
		if n.index == nil {
			n.index = make(map[string]int)
		}
		n.index[name] = len(n.edges)
		n.edges = append(n.edges, Edge{Name: name, Child: child})
	}
	n.registry.notifyChildCreated()
	return nil
}

// Child returns the child attached under name, if any.
func (n *Node) Child(name string) (*Node, bool) {
	i, ok := n.index[name]
	if !ok {
		return nil, false
	}
	return n.edges[i].Child, true
}

// Edges returns the node's edges in insertion order.
func (n *Node) Edges() []Edge {
	out := make([]Edge, len(n.edges))
	copy(out, n.edges)
	return out
}

// RegisterSlot attaches a slot node kept on behalf of variable, e.g. an
// optimizer's per-variable accumulator. The slot's checkpoint key is
// <owner path>/<name>/<variable path>, and the slot is saved only when
// both the owner and the variable are reachable from the save root.
// Registering the same (variable, name) pair twice on one owner is a
// configuration error.
func (n *Node) RegisterSlot(name string, variable, slot *Node) error {
	if err := validateEdgeName(name); err != nil {
		return err
	}
	if variable == nil || slot == nil {
		return fmt.Errorf("%w: slot %q: variable and slot must be non-nil", ErrGraphConstruction, name)
	}
	for _, s := range n.slots {
		if s.name == name && s.variable.handle == variable.handle {
			return fmt.Errorf("%w: slot %q already registered for variable %d",
				ErrGraphConstruction, name, variable.handle)
		}
	}
	n.slots = append(n.slots, slotEdge{name: name, variable: variable, slot: slot})
	n.registry.notifyChildCreated()
	return nil
}

func validateEdgeName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: edge name cannot be empty", ErrGraphConstruction)
	}
	if strings.Contains(name, PathSeparator) {
		return fmt.Errorf("%w: edge name %q cannot contain %q", ErrGraphConstruction, name, PathSeparator)
	}
	return nil
}
