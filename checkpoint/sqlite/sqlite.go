//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

// Package sqlite provides SQLite-backed checkpoint storage. Shards and
// index are written in one transaction, which gives the atomic-publish
// guarantee checkpoint.Store requires.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trpc.group/trpc-go/trpc-trackable-go/checkpoint"
)

const (
	createCheckpoints = "CREATE TABLE IF NOT EXISTS trackable_checkpoints (" +
		"prefix TEXT NOT NULL, " +
		"ts INTEGER NOT NULL, " +
		"index_json BLOB NOT NULL, " +
		"PRIMARY KEY (prefix)" +
		")"

	createShards = "CREATE TABLE IF NOT EXISTS trackable_shards (" +
		"prefix TEXT NOT NULL, " +
		"shard_id INTEGER NOT NULL, " +
		"data BLOB NOT NULL, " +
		"PRIMARY KEY (prefix, shard_id)" +
		")"

	createManifest = "CREATE TABLE IF NOT EXISTS trackable_manifest (" +
		"id INTEGER PRIMARY KEY CHECK (id = 1), " +
		"manifest_json BLOB NOT NULL" +
		")"

	insertShard = "INSERT OR REPLACE INTO trackable_shards (prefix, shard_id, data) " +
		"VALUES (?, ?, ?)"

	insertCheckpoint = "INSERT OR REPLACE INTO trackable_checkpoints (prefix, ts, index_json) " +
		"VALUES (?, ?, ?)"

	selectIndex = "SELECT index_json FROM trackable_checkpoints WHERE prefix = ? LIMIT 1"

	selectShard = "SELECT data FROM trackable_shards WHERE prefix = ? AND shard_id = ? LIMIT 1"

	deleteCheckpointRow = "DELETE FROM trackable_checkpoints WHERE prefix = ?"
	deleteShardRows     = "DELETE FROM trackable_shards WHERE prefix = ?"

	upsertManifest = "INSERT OR REPLACE INTO trackable_manifest (id, manifest_json) VALUES (1, ?)"
	selectManifest = "SELECT manifest_json FROM trackable_manifest WHERE id = 1"
)

// Store is a SQLite implementation of checkpoint.Store. It expects an
// initialized *sql.DB and creates the required schema. The db is owned by
// the caller and is not closed by Close.
type Store struct {
	db *sql.DB
}

var _ checkpoint.Store = (*Store)(nil)

// NewStore creates a store over db and ensures the schema exists.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: sqlite store requires a db", checkpoint.ErrStorageIO)
	}
	for _, stmt := range []string{createCheckpoints, createShards, createManifest} {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("%w: create schema: %v", checkpoint.ErrStorageIO, err)
		}
	}
	return &Store{db: db}, nil
}

// WriteCheckpoint implements checkpoint.Store.
func (s *Store) WriteCheckpoint(ctx context.Context, prefix string, index *checkpoint.Index, shards [][]byte) error {
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("%w: encode index for %q: %v", checkpoint.ErrStorageIO, prefix, err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", checkpoint.ErrStorageIO, err)
	}
	defer tx.Rollback()

	for i, shard := range shards {
		if _, err := tx.ExecContext(ctx, insertShard, prefix, i, shard); err != nil {
			return fmt.Errorf("%w: write shard %d of %q: %v", checkpoint.ErrStorageIO, i, prefix, err)
		}
	}
	ts := time.Now().UTC().UnixNano()
	if _, err := tx.ExecContext(ctx, insertCheckpoint, prefix, ts, data); err != nil {
		return fmt.Errorf("%w: write index for %q: %v", checkpoint.ErrStorageIO, prefix, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit checkpoint %q: %v", checkpoint.ErrStorageIO, prefix, err)
	}
	return nil
}

// ReadIndex implements checkpoint.Store.
func (s *Store) ReadIndex(ctx context.Context, prefix string) (*checkpoint.Index, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, selectIndex, prefix).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no index for checkpoint %q", checkpoint.ErrStorageCorruption, prefix)
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
	var data []byte
	err := s.db.QueryRowContext(ctx, selectShard, prefix, entry.Shard).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: shard %d of %q missing",
			checkpoint.ErrStorageCorruption, entry.Shard, prefix)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read shard %d of %q: %v",
			checkpoint.ErrStorageIO, entry.Shard, prefix, err)
	}
	end := entry.Offset + entry.Length
	if entry.Offset < 0 || end > int64(len(data)) {
		return nil, fmt.Errorf("%w: %q addresses [%d, %d) in %d-byte shard %d",
			checkpoint.ErrStorageCorruption, entry.Path, entry.Offset, end, len(data), entry.Shard)
	}
	return data[entry.Offset:end], nil
}

// DeleteCheckpoint implements checkpoint.Store.
func (s *Store) DeleteCheckpoint(ctx context.Context, prefix string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", checkpoint.ErrStorageIO, err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, deleteShardRows, prefix); err != nil {
		return fmt.Errorf("%w: delete shards of %q: %v", checkpoint.ErrStorageIO, prefix, err)
	}
	if _, err := tx.ExecContext(ctx, deleteCheckpointRow, prefix); err != nil {
		return fmt.Errorf("%w: delete index of %q: %v", checkpoint.ErrStorageIO, prefix, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit deletion of %q: %v", checkpoint.ErrStorageIO, prefix, err)
	}
	return nil
}

// ReadManifest implements checkpoint.Store.
func (s *Store) ReadManifest(ctx context.Context) (*checkpoint.Manifest, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, selectManifest).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
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
	if _, err := s.db.ExecContext(ctx, upsertManifest, data); err != nil {
		return fmt.Errorf("%w: write manifest: %v", checkpoint.ErrStorageIO, err)
	}
	return nil
}

// Close implements checkpoint.Store. The underlying db belongs to the
// caller and stays open.
func (s *Store) Close() error { return nil }
