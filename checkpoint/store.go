//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

package checkpoint

import "context"

// Store is the artifact storage contract for checkpoints. Implementations
// must make WriteCheckpoint atomic from the reader's perspective: a
// checkpoint either appears complete, with its index readable and every
// shard region addressable, or it does not appear at all. Shards are
// written before the index is published.
//
// The artifacts under one manifest are owned by a single writer;
// concurrent writers to the same store are undefined behavior.
type Store interface {
	// WriteCheckpoint persists all shards and then the index under prefix.
	WriteCheckpoint(ctx context.Context, prefix string, index *Index, shards [][]byte) error
	// ReadIndex loads the index stored under prefix. A missing or
	// malformed index is ErrStorageCorruption.
	ReadIndex(ctx context.Context, prefix string) (*Index, error)
	// ReadValue reads the bytes of one entry from its shard.
	ReadValue(ctx context.Context, prefix string, entry Entry) ([]byte, error)
	// DeleteCheckpoint removes the index and shards stored under prefix.
	DeleteCheckpoint(ctx context.Context, prefix string) error
	// ReadManifest loads the manifest, or nil when none was ever written.
	ReadManifest(ctx context.Context) (*Manifest, error)
	// WriteManifest atomically replaces the manifest.
	WriteManifest(ctx context.Context, manifest *Manifest) error
	// Close releases resources held by the store.
	Close() error
}
