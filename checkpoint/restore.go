//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

package checkpoint

import (
	"context"
	"fmt"
	"sort"

	"trpc.group/trpc-go/trpc-trackable-go/log"
	"trpc.group/trpc-go/trpc-trackable-go/trackable"
)

// Restorer matches checkpoint entries to a live graph and assigns leaf
// values, eagerly for paths that are already live and deferred for paths
// instantiated later.
type Restorer struct {
	store Store
}

// NewRestorer creates a Restorer reading through store.
func NewRestorer(store Store) *Restorer {
	return &Restorer{store: store}
}

// Restore loads the checkpoint at prefix and applies it to root. Entries
// whose path matches a live leaf node are assigned before Restore returns;
// the rest become pending restorations, consumed when a node at their path
// is created through a tracking container or an explicit attach. The
// returned Status tracks both directions of the match.
func (r *Restorer) Restore(ctx context.Context, root *trackable.Node, prefix string) (*Status, error) {
	index, err := r.store.ReadIndex(ctx, prefix)
	if err != nil {
		return nil, err
	}

	st := &Status{
		store:      r.store,
		prefix:     prefix,
		root:       root,
		pending:    make(map[string]Entry),
		indexPaths: make(map[string]bool, len(index.Entries)),
	}
	graph := trackable.Build(root)
	for _, e := range index.Entries {
		st.indexPaths[e.Path] = true
		node, ok := graph.Lookup(e.Path)
		if !ok || node.Leaf() == nil {
			st.pending[e.Path] = e
			continue
		}
		if err := st.apply(ctx, node, e); err != nil {
			return nil, err
		}
	}
	if len(st.pending) > 0 {
		root.Registry().AddRestorer(st)
	}
	return st, nil
}

// Status reports how a restore matched up against the live graph and
// exposes the two matching assertions. A Status with pending entries stays
// registered with the root's registry until every entry is consumed.
type Status struct {
	store  Store
	prefix string
	root   *trackable.Node

	pending    map[string]Entry // unconsumed checkpoint entries, keyed by path
	indexPaths map[string]bool  // every path present in the checkpoint
}

// OnChildCreated implements trackable.DeferredRestorer. It re-matches
// pending entries against the current graph and applies any that now have
// a live leaf node, synchronously, before the triggering attach returns.
func (st *Status) OnChildCreated() bool {
	if len(st.pending) == 0 {
		return true
	}
	graph := trackable.Build(st.root)
	for path, e := range st.pending {
		node, ok := graph.Lookup(path)
		if !ok || node.Leaf() == nil {
			continue
		}
		// Deferred application runs inside the host's attach call, which
		// carries no context of its own.
		if err := st.apply(context.Background(), node, e); err != nil {
			log.Warnf("deferred restore of %q from %s failed, will retry on next attach: %v",
				path, st.prefix, err)
			continue
		}
	}
	return len(st.pending) == 0
}

// apply reads an entry's bytes and assigns them to the node's leaf,
// consuming the entry.
func (st *Status) apply(ctx context.Context, node *trackable.Node, e Entry) error {
	data, err := st.store.ReadValue(ctx, st.prefix, e)
	if err != nil {
		return err
	}
	if err := node.Leaf().UnmarshalLeaf(data, e.Descriptor); err != nil {
		return fmt.Errorf("restore leaf at %q from %s: %w", e.Path, st.prefix, err)
	}
	delete(st.pending, e.Path)
	return nil
}

// Pending returns the paths of unconsumed checkpoint entries, sorted.
func (st *Status) Pending() []string {
	out := make([]string, 0, len(st.pending))
	for path := range st.pending {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// AssertExistingObjectsMatched succeeds when every leaf node currently
// live in the root's graph has a matching checkpoint entry. Checkpoint
// entries with no live counterpart are tolerated; the checkpoint may be a
// superset of the graph.
func (st *Status) AssertExistingObjectsMatched() error {
	missing := st.liveUnmatched()
	if len(missing) > 0 {
		return &MismatchError{LiveUnmatched: missing}
	}
	return nil
}

// AssertConsumed is the stricter check: every live leaf node matched a
// checkpoint entry and every checkpoint entry was consumed by a live node.
// It fails while deferred matches are still outstanding or when the
// checkpoint holds state that was never instantiated.
func (st *Status) AssertConsumed() error {
	missing := st.liveUnmatched()
	unconsumed := st.Pending()
	if len(missing) > 0 || len(unconsumed) > 0 {
		return &MismatchError{
			LiveUnmatched:       missing,
			CheckpointUnmatched: unconsumed,
		}
	}
	return nil
}

// liveUnmatched rebuilds the graph at call time and collects live leaf
// paths absent from the checkpoint.
func (st *Status) liveUnmatched() []string {
	var missing []string
	for _, ge := range trackable.Build(st.root).Entries() {
		if ge.Node.Leaf() == nil {
			continue
		}
		if !st.indexPaths[ge.Path] {
			missing = append(missing, ge.Path)
		}
	}
	sort.Strings(missing)
	return missing
}
