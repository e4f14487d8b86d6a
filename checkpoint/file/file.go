//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

// Package file provides filesystem-backed checkpoint storage. A checkpoint
// occupies `<prefix>.index.json` plus `<prefix>.data-NNNNN` shard files in
// one directory; the manifest lives in `checkpoint.json`. Every artifact
// is written to a temp file and renamed into place, and the index is
// written after its shards, so readers never observe a partial checkpoint.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-trackable-go/checkpoint"
)

const manifestFile = "checkpoint.json"

// Store is a filesystem implementation of checkpoint.Store.
type Store struct {
	dir string
}

var _ checkpoint.Store = (*Store)(nil)

// NewStore creates a store rooted at dir, creating the directory if
// needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create checkpoint directory %q: %v",
			checkpoint.ErrStorageIO, dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) indexPath(prefix string) string {
	return filepath.Join(s.dir, prefix+".index.json")
}

func (s *Store) shardPath(prefix string, shard int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.data-%05d", prefix, shard))
}

// WriteCheckpoint implements checkpoint.Store.
func (s *Store) WriteCheckpoint(ctx context.Context, prefix string, index *checkpoint.Index, shards [][]byte) error {
	var written []string
	cleanup := func() {
		for _, path := range written {
			os.Remove(path)
		}
	}
	for i, shard := range shards {
		path := s.shardPath(prefix, i)
		if err := s.writeAtomic(path, shard); err != nil {
			cleanup()
			return err
		}
		written = append(written, path)
	}
	data, err := json.Marshal(index)
	if err != nil {
		cleanup()
		return fmt.Errorf("%w: encode index for %q: %v", checkpoint.ErrStorageIO, prefix, err)
	}
	// Publishing the index is the commit point.
	if err := s.writeAtomic(s.indexPath(prefix), data); err != nil {
		cleanup()
		return err
	}
	return nil
}

// ReadIndex implements checkpoint.Store.
func (s *Store) ReadIndex(ctx context.Context, prefix string) (*checkpoint.Index, error) {
	data, err := os.ReadFile(s.indexPath(prefix))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no index for checkpoint %q in %q",
			checkpoint.ErrStorageCorruption, prefix, s.dir)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read index for %q: %v", checkpoint.ErrStorageIO, prefix, err)
	}
	var index checkpoint.Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%w: decode index for %q: %v",
			checkpoint.ErrStorageCorruption, prefix, err)
	}
	if index.Version != checkpoint.IndexVersion {
		return nil, fmt.Errorf("%w: index for %q has unsupported version %d",
			checkpoint.ErrStorageCorruption, prefix, index.Version)
	}
	return &index, nil
}

// ReadValue implements checkpoint.Store.
func (s *Store) ReadValue(ctx context.Context, prefix string, entry checkpoint.Entry) ([]byte, error) {
	f, err := os.Open(s.shardPath(prefix, entry.Shard))
	if err != nil {
		return nil, fmt.Errorf("%w: open shard %d of %q: %v",
			checkpoint.ErrStorageIO, entry.Shard, prefix, err)
	}
	defer f.Close()
	data := make([]byte, entry.Length)
	if _, err := f.ReadAt(data, entry.Offset); err != nil {
		return nil, fmt.Errorf("%w: read %q (shard %d, offset %d, length %d): %v",
			checkpoint.ErrStorageCorruption, entry.Path, entry.Shard, entry.Offset, entry.Length, err)
	}
	return data, nil
}

// DeleteCheckpoint implements checkpoint.Store.
func (s *Store) DeleteCheckpoint(ctx context.Context, prefix string) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, prefix+".*"))
	if err != nil {
		return fmt.Errorf("%w: list artifacts of %q: %v", checkpoint.ErrStorageIO, prefix, err)
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: delete %q: %v", checkpoint.ErrStorageIO, path, err)
		}
	}
	return nil
}

// ReadManifest implements checkpoint.Store.
func (s *Store) ReadManifest(ctx context.Context) (*checkpoint.Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, manifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest: %v", checkpoint.ErrStorageIO, err)
	}
	var manifest checkpoint.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: decode manifest: %v", checkpoint.ErrStorageCorruption, err)
	}
	return &manifest, nil
}

// WriteManifest implements checkpoint.Store.
func (s *Store) WriteManifest(ctx context.Context, manifest *checkpoint.Manifest) error {
	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("%w: encode manifest: %v", checkpoint.ErrStorageIO, err)
	}
	return s.writeAtomic(filepath.Join(s.dir, manifestFile), data)
}

// Close implements checkpoint.Store.
func (s *Store) Close() error { return nil }

// writeAtomic writes data to a uniquely named temp file in the target's
// directory and renames it into place.
func (s *Store) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: write %q: %v", checkpoint.ErrStorageIO, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: publish %q: %v", checkpoint.ErrStorageIO, path, err)
	}
	return nil
}
