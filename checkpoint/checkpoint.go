//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

// Package checkpoint persists the leaf state of trackable graphs into
// sharded, indexed checkpoints and restores it by structural path, with
// deferred matching for nodes created after the restore call.
package checkpoint

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"trpc.group/trpc-go/trpc-trackable-go/trackable"
)

const (
	// IndexVersion is the current version of the index artifact format.
	IndexVersion = 1

	// SaveCounterEdge is the edge name of the automatically tracked save
	// counter attached to every save root.
	SaveCounterEdge = "save_counter"

	// DefaultCheckpointName prefixes checkpoint artifacts when no name is
	// configured.
	DefaultCheckpointName = "ckpt"
	// DefaultMaxToKeep is the default retention limit of a Manager.
	DefaultMaxToKeep = 5
	// DefaultShardSize is the default target size of one data shard.
	DefaultShardSize int64 = 10 << 20
)

// Entry locates one serialized leaf inside a checkpoint: its path from the
// save root and the shard region holding its bytes.
type Entry struct {
	Path       string               `json:"path"`
	Shard      int                  `json:"shard"`
	Offset     int64                `json:"offset"`
	Length     int64                `json:"length"`
	Descriptor trackable.Descriptor `json:"descriptor"`
}

// Index is the per-checkpoint artifact mapping paths to shard regions.
// Entries follow graph traversal order, which makes shard assignment
// reproducible for a given graph.
type Index struct {
	Version   int     `json:"version"`
	NumShards int     `json:"num_shards"`
	Entries   []Entry `json:"entries"`
}

// Manifest records the retained checkpoint prefixes in creation order,
// oldest first. It is the single source of truth for which checkpoints
// exist and is rewritten on every save and eviction.
type Manifest struct {
	Latest string   `json:"latest_checkpoint"`
	All    []string `json:"all_checkpoints"`
}

// EntryInfo is one row of checkpoint introspection output.
type EntryInfo struct {
	Path       string
	Descriptor trackable.Descriptor
}

// ListEntries reads the ordered (path, descriptor) pairs of a checkpoint
// straight from its index, without a live object graph.
func ListEntries(ctx context.Context, store Store, prefix string) ([]EntryInfo, error) {
	index, err := store.ReadIndex(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]EntryInfo, 0, len(index.Entries))
	for _, e := range index.Entries {
		out = append(out, EntryInfo{Path: e.Path, Descriptor: e.Descriptor})
	}
	return out, nil
}

// LatestCheckpoint returns the most recent checkpoint prefix recorded in
// the store's manifest, or "" when no checkpoint exists.
func LatestCheckpoint(ctx context.Context, store Store) (string, error) {
	manifest, err := store.ReadManifest(ctx)
	if err != nil {
		return "", err
	}
	if manifest == nil {
		return "", nil
	}
	return manifest.Latest, nil
}

// checkpointSeq extracts the numeric suffix of a checkpoint prefix.
func checkpointSeq(prefix string) int64 {
	i := strings.LastIndex(prefix, "-")
	if i < 0 {
		return 0
	}
	seq, err := strconv.ParseInt(prefix[i+1:], 10, 64)
	if err != nil {
		return 0
	}
	return seq
}

// checkpointPrefix builds a prefix from a configured name and a counter
// value.
func checkpointPrefix(name string, seq int64) string {
	return fmt.Sprintf("%s-%d", name, seq)
}
