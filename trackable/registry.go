//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

package trackable

// DeferredRestorer is notified whenever a node is attached anywhere in the
// registry's graph, giving a restore session the chance to match pending
// checkpoint entries against newly created nodes. OnChildCreated returns
// true once nothing remains pending, at which point the registry drops the
// restorer.
type DeferredRestorer interface {
	OnChildCreated() bool
}

// Registry is the arena that owns every node of one object graph. It
// assigns stable integer handles at creation time and fans out attach
// notifications to active restore sessions. A registry is not safe for
// concurrent use; the host serializes node creation if needed.
type Registry struct {
	nextHandle int64
	restorers  []DeferredRestorer
	notifying  bool
}

// NewRegistry creates an empty node arena.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewNode creates a container node with no leaf value.
func (r *Registry) NewNode() *Node {
	return r.NewLeaf(nil)
}

// NewLeaf creates a node carrying the given leaf value.
func (r *Registry) NewLeaf(leaf Leaf) *Node {
	r.nextHandle++
	return &Node{handle: r.nextHandle, registry: r, leaf: leaf}
}

// AddRestorer registers a restore session for deferred matching. The
// session is dropped as soon as OnChildCreated reports completion.
func (r *Registry) AddRestorer(dr DeferredRestorer) {
	if dr == nil {
		return
	}
	r.restorers = append(r.restorers, dr)
}

// notifyChildCreated runs every active restorer synchronously, before the
// triggering attach call returns to its caller. A restorer that consumed
// its last pending entry is removed from the list.
func (r *Registry) notifyChildCreated() {
	if len(r.restorers) == 0 || r.notifying {
		return
	}
	// An attach performed while applying a restored value must not
	// re-enter the sweep.
	r.notifying = true
	defer func() { r.notifying = false }()

	kept := r.restorers[:0]
	for _, dr := range r.restorers {
		if !dr.OnChildCreated() {
			kept = append(kept, dr)
		}
	}
	r.restorers = kept
}
