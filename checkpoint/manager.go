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
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"trpc.group/trpc-go/trpc-trackable-go/log"
	"trpc.group/trpc-go/trpc-trackable-go/telemetry"
	"trpc.group/trpc-go/trpc-trackable-go/trackable"
)

// record is one retained checkpoint: its numeric suffix and prefix.
// Records are kept sorted by sequence number, oldest first.
type record struct {
	seq    int64
	prefix string
}

// Manager issues a numbered sequence of checkpoints under one root,
// records the live ones in the store's manifest, and evicts the oldest
// beyond the retention limit. One Manager owns its store's manifest and
// artifacts exclusively; concurrent writers must be serialized by the
// host.
type Manager struct {
	root      *trackable.Node
	store     Store
	saver     *Saver
	restorer  *Restorer
	name      string
	maxToKeep int
	shardSize int64

	records []record
	loaded  bool

	saves            metric.Int64Counter
	saveDuration     metric.Float64Histogram
	evictions        metric.Int64Counter
	evictionFailures metric.Int64Counter
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithMaxToKeep sets the retention limit. Zero or negative keeps every
// checkpoint.
func WithMaxToKeep(n int) ManagerOption {
	return func(m *Manager) { m.maxToKeep = n }
}

// WithCheckpointName sets the name prefixing checkpoint artifacts.
func WithCheckpointName(name string) ManagerOption {
	return func(m *Manager) { m.name = name }
}

// WithShardSize sets the target size of one data shard.
func WithShardSize(size int64) ManagerOption {
	return func(m *Manager) { m.shardSize = size }
}

// NewManager creates a checkpoint manager for root writing through store.
// The root's save counter is attached here, before any restore, so a
// restored counter keeps numeric suffixes monotonic across restarts.
func NewManager(root *trackable.Node, store Store, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		root:      root,
		store:     store,
		name:      DefaultCheckpointName,
		maxToKeep: DefaultMaxToKeep,
		shardSize: DefaultShardSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	if _, err := EnsureSaveCounter(root); err != nil {
		return nil, err
	}
	m.saver = NewSaver(store, WithSaverName(m.name), WithSaverShardSize(m.shardSize))
	m.restorer = NewRestorer(store)
	m.initInstruments()
	return m, nil
}

func (m *Manager) initInstruments() {
	var err error
	if m.saves, err = telemetry.Meter.Int64Counter(telemetry.MetricSaves); err != nil {
		log.Debugf("create %s instrument: %v", telemetry.MetricSaves, err)
	}
	if m.saveDuration, err = telemetry.Meter.Float64Histogram(telemetry.MetricSaveDuration); err != nil {
		log.Debugf("create %s instrument: %v", telemetry.MetricSaveDuration, err)
	}
	if m.evictions, err = telemetry.Meter.Int64Counter(telemetry.MetricEvictions); err != nil {
		log.Debugf("create %s instrument: %v", telemetry.MetricEvictions, err)
	}
	if m.evictionFailures, err = telemetry.Meter.Int64Counter(telemetry.MetricEvictionFailures); err != nil {
		log.Debugf("create %s instrument: %v", telemetry.MetricEvictionFailures, err)
	}
}

// Save writes a new checkpoint of the root, appends it to the manifest,
// and evicts beyond the retention limit. It returns the new prefix.
func (m *Manager) Save(ctx context.Context) (string, error) {
	ctx, span := telemetry.Tracer.Start(ctx, telemetry.SpanSave)
	defer span.End()

	if err := m.loadRecords(ctx); err != nil {
		return "", err
	}
	start := time.Now()
	prefix, err := m.saver.Save(ctx, m.root)
	if err != nil {
		return "", err
	}
	span.SetAttributes(
		attribute.String(telemetry.KeyCheckpointName, m.name),
		attribute.String(telemetry.KeyCheckpointPrefix, prefix),
	)
	if m.saves != nil {
		m.saves.Add(ctx, 1)
	}
	if m.saveDuration != nil {
		m.saveDuration.Record(ctx, time.Since(start).Seconds())
	}

	m.records = append(m.records, record{seq: checkpointSeq(prefix), prefix: prefix})
	sort.Slice(m.records, func(i, j int) bool { return m.records[i].seq < m.records[j].seq })
	m.evict(ctx)

	// Files are deleted first; the manifest is rewritten after, so a crash
	// never leaves it referencing deleted artifacts.
	if err := m.writeManifest(ctx); err != nil {
		return "", err
	}
	return prefix, nil
}

// evict deletes the oldest checkpoints beyond maxToKeep. A failed deletion
// is a non-fatal warning, and the record stays in the manifest so it never
// points past state whose removal is unconfirmed.
func (m *Manager) evict(ctx context.Context) {
	if m.maxToKeep <= 0 {
		return
	}
	for len(m.records) > m.maxToKeep {
		oldest := m.records[0]
		if err := m.store.DeleteCheckpoint(ctx, oldest.prefix); err != nil {
			log.Warnf("evicting checkpoint %s failed, keeping it in the manifest: %v",
				oldest.prefix, err)
			if m.evictionFailures != nil {
				m.evictionFailures.Add(ctx, 1)
			}
			return
		}
		m.records = m.records[1:]
		if m.evictions != nil {
			m.evictions.Add(ctx, 1)
		}
	}
}

// Restore applies the checkpoint at prefix to the manager's root.
func (m *Manager) Restore(ctx context.Context, prefix string) (*Status, error) {
	ctx, span := telemetry.Tracer.Start(ctx, telemetry.SpanRestore)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.KeyCheckpointPrefix, prefix))
	return m.restorer.Restore(ctx, m.root, prefix)
}

// RestoreOrInitialize restores the latest checkpoint recorded in the
// manifest, or returns (nil, nil) when none exists and the root keeps its
// freshly initialized state.
func (m *Manager) RestoreOrInitialize(ctx context.Context) (*Status, error) {
	if err := m.loadRecords(ctx); err != nil {
		return nil, err
	}
	if len(m.records) == 0 {
		return nil, nil
	}
	return m.Restore(ctx, m.records[len(m.records)-1].prefix)
}

// Checkpoints returns the retained checkpoint prefixes, oldest first.
func (m *Manager) Checkpoints() []string {
	if err := m.loadRecords(context.Background()); err != nil {
		log.Errorf("load checkpoint manifest: %v", err)
		return nil
	}
	out := make([]string, len(m.records))
	for i, r := range m.records {
		out[i] = r.prefix
	}
	return out
}

// LatestCheckpoint returns the most recent retained prefix, or "".
func (m *Manager) LatestCheckpoint() string {
	ckpts := m.Checkpoints()
	if len(ckpts) == 0 {
		return ""
	}
	return ckpts[len(ckpts)-1]
}

// loadRecords populates records from the manifest once per Manager.
func (m *Manager) loadRecords(ctx context.Context) error {
	if m.loaded {
		return nil
	}
	manifest, err := m.store.ReadManifest(ctx)
	if err != nil {
		return err
	}
	if manifest != nil {
		for _, prefix := range manifest.All {
			m.records = append(m.records, record{seq: checkpointSeq(prefix), prefix: prefix})
		}
		sort.Slice(m.records, func(i, j int) bool { return m.records[i].seq < m.records[j].seq })
	}
	m.loaded = true
	return nil
}

func (m *Manager) writeManifest(ctx context.Context) error {
	manifest := &Manifest{All: make([]string, len(m.records))}
	for i, r := range m.records {
		manifest.All[i] = r.prefix
	}
	if len(m.records) > 0 {
		manifest.Latest = m.records[len(m.records)-1].prefix
	}
	return m.store.WriteManifest(ctx, manifest)
}
