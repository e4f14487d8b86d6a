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
	"fmt"
	"strconv"
)

// List is a tracking container for ordered children. Each appended element
// is registered as a child of the list's node under an ordinal edge name,
// and any pending restoration for the element's path is applied
// synchronously before Append returns. Ordinals are assigned once, at
// append time, and never renumbered.
type List struct {
	node        *Node
	elems       []*Node
	nextOrdinal int
}

// NewList creates an empty tracking list backed by a fresh container node.
func NewList(r *Registry) *List {
	return &List{node: r.NewNode()}
}

// Node returns the container node, for attaching the list into a graph.
func (l *List) Node() *Node { return l.node }

// Append inserts child at the end of the list.
func (l *List) Append(child *Node) error {
	name := strconv.Itoa(l.nextOrdinal)
	if err := l.node.Attach(name, child); err != nil {
		return err
	}
	l.nextOrdinal++
	l.elems = append(l.elems, child)
	return nil
}

// Set replaces the element at index i. The prior child's edge is replaced,
// but state already restored into it is left untouched; the object belongs
// to the caller.
func (l *List) Set(i int, child *Node) error {
	if i < 0 || i >= len(l.elems) {
		return errIndexOutOfRange(i, len(l.elems))
	}
	if err := l.node.Attach(strconv.Itoa(i), child); err != nil {
		return err
	}
	l.elems[i] = child
	return nil
}

// Get returns the element at index i.
func (l *List) Get(i int) (*Node, bool) {
	if i < 0 || i >= len(l.elems) {
		return nil, false
	}
	return l.elems[i], true
}

// Len returns the number of elements.
func (l *List) Len() int { return len(l.elems) }

// Elements returns the elements in append order.
func (l *List) Elements() []*Node {
	out := make([]*Node, len(l.elems))
	copy(out, l.elems)
	return out
}

func errIndexOutOfRange(i, n int) error {
	return fmt.Errorf("%w: list index %d out of range [0, %d)", ErrGraphConstruction, i, n)
}
