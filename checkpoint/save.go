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

	"trpc.group/trpc-go/trpc-trackable-go/trackable"
)

// Saver serializes every leaf reachable from a root into sharded data
// plus an index, through a Store.
type Saver struct {
	store     Store
	name      string
	shardSize int64
}

// SaverOption configures a Saver.
type SaverOption func(*Saver)

// WithSaverName sets the checkpoint name used to build prefixes.
func WithSaverName(name string) SaverOption {
	return func(s *Saver) { s.name = name }
}

// WithSaverShardSize sets the target size of one data shard.
func WithSaverShardSize(size int64) SaverOption {
	return func(s *Saver) { s.shardSize = size }
}

// NewSaver creates a Saver writing through store.
func NewSaver(store Store, opts ...SaverOption) *Saver {
	s := &Saver{
		store:     store,
		name:      DefaultCheckpointName,
		shardSize: DefaultShardSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveOption configures one save call.
type SaveOption func(*saveOptions)

type saveOptions struct {
	incrementCounter bool
}

// WithoutCounterIncrement saves without advancing the root's save counter,
// reusing the current numeric suffix.
func WithoutCounterIncrement() SaveOption {
	return func(o *saveOptions) { o.incrementCounter = false }
}

// Save serializes all leaves reachable from root and publishes them as one
// checkpoint, returning its prefix. The root's save counter is incremented
// first, inside the same graph, so the new value is captured by this save.
// Nothing is published when any write fails.
func (s *Saver) Save(ctx context.Context, root *trackable.Node, opts ...SaveOption) (string, error) {
	options := saveOptions{incrementCounter: true}
	for _, opt := range opts {
		opt(&options)
	}

	counter, err := EnsureSaveCounter(root)
	if err != nil {
		return "", err
	}
	if options.incrementCounter {
		counter.Increment()
	}

	graph := trackable.Build(root)
	index, shards, err := s.pack(graph)
	if err != nil {
		return "", err
	}

	prefix := checkpointPrefix(s.name, counter.Value())
	if err := s.store.WriteCheckpoint(ctx, prefix, index, shards); err != nil {
		return "", err
	}
	return prefix, nil
}

// pack serializes the graph's leaves in traversal order and assigns them
// to shards greedily against the target shard size. Both steps are
// deterministic for a given graph, so incremental saves reproduce the same
// layout.
func (s *Saver) pack(graph *trackable.Graph) (*Index, [][]byte, error) {
	var (
		entries []Entry
		shards  [][]byte
		current []byte
	)
	for _, ge := range graph.Entries() {
		leaf := ge.Node.Leaf()
		if leaf == nil {
			continue
		}
		data, desc, err := leaf.MarshalLeaf()
		if err != nil {
			return nil, nil, fmt.Errorf("marshal leaf at %q: %w", ge.Path, err)
		}
		if len(current) > 0 && int64(len(current))+int64(len(data)) > s.shardSize {
			shards = append(shards, current)
			current = nil
		}
		entries = append(entries, Entry{
			Path:       ge.Path,
			Shard:      len(shards),
			Offset:     int64(len(current)),
			Length:     int64(len(data)),
			Descriptor: desc,
		})
		current = append(current, data...)
	}
	shards = append(shards, current)

	index := &Index{
		Version:   IndexVersion,
		NumShards: len(shards),
		Entries:   entries,
	}
	return index, shards, nil
}
