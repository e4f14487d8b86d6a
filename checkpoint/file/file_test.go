//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-trackable-go/checkpoint"
	"trpc.group/trpc-go/trpc-trackable-go/trackable"
)

func testIndex() *checkpoint.Index {
	return &checkpoint.Index{
		Version:   checkpoint.IndexVersion,
		NumShards: 2,
		Entries: []checkpoint.Entry{
			{Path: "w", Shard: 0, Offset: 0, Length: 3, Descriptor: trackable.Descriptor{DType: "uint8", Shape: []int64{3}}},
			{Path: "b", Shard: 1, Offset: 0, Length: 2, Descriptor: trackable.Descriptor{DType: "uint8", Shape: []int64{2}}},
		},
	}
}

func TestWriteReadCheckpoint(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	shards := [][]byte{{1, 2, 3}, {4, 5}}
	require.NoError(t, store.WriteCheckpoint(ctx, "ckpt-1", testIndex(), shards))

	index, err := store.ReadIndex(ctx, "ckpt-1")
	require.NoError(t, err)
	assert.Equal(t, 2, index.NumShards)
	require.Len(t, index.Entries, 2)

	data, err := store.ReadValue(ctx, "ckpt-1", index.Entries[0])
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	data, err = store.ReadValue(ctx, "ckpt-1", index.Entries[1])
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, data)
}

func TestReadIndexMissingIsCorruption(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.ReadIndex(ctx, "ckpt-9")
	assert.ErrorIs(t, err, checkpoint.ErrStorageCorruption)
}

func TestReadIndexMalformedIsCorruption(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ckpt-1.index.json"), []byte("{not json"), 0o644))
	_, err = store.ReadIndex(ctx, "ckpt-1")
	assert.ErrorIs(t, err, checkpoint.ErrStorageCorruption)
}

func TestShardsWithoutIndexAreNotACheckpoint(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	// Simulates a crash after shard writes but before the index publish.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ckpt-1.data-00000"), []byte{1}, 0o644))
	_, err = store.ReadIndex(ctx, "ckpt-1")
	assert.ErrorIs(t, err, checkpoint.ErrStorageCorruption)
}

func TestDeleteCheckpointRemovesAllArtifacts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.WriteCheckpoint(ctx, "ckpt-1", testIndex(), [][]byte{{1, 2, 3}, {4, 5}}))
	require.NoError(t, store.DeleteCheckpoint(ctx, "ckpt-1"))

	matches, err := filepath.Glob(filepath.Join(dir, "ckpt-1.*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestManifestRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	manifest, err := store.ReadManifest(ctx)
	require.NoError(t, err)
	assert.Nil(t, manifest, "no manifest before the first write")

	want := &checkpoint.Manifest{Latest: "ckpt-2", All: []string{"ckpt-1", "ckpt-2"}}
	require.NoError(t, store.WriteManifest(ctx, want))
	manifest, err = store.ReadManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, manifest)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkpoint.json"), []byte("{"), 0o644))
	_, err = store.ReadManifest(ctx)
	assert.ErrorIs(t, err, checkpoint.ErrStorageCorruption)
}
