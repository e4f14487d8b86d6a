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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAssignsOrdinalEdges(t *testing.T) {
	r := NewRegistry()
	root := r.NewNode()
	list := NewList(r)
	require.NoError(t, root.Attach("layers", list.Node()))

	a := r.NewLeaf(&testLeaf{data: []byte("a")})
	b := r.NewLeaf(&testLeaf{data: []byte("b")})
	require.NoError(t, list.Append(a))
	require.NoError(t, list.Append(b))

	g := Build(root)
	n, ok := g.Lookup("layers/0")
	require.True(t, ok)
	assert.Equal(t, a.Handle(), n.Handle())
	n, ok = g.Lookup("layers/1")
	require.True(t, ok)
	assert.Equal(t, b.Handle(), n.Handle())
	assert.Equal(t, 2, list.Len())
}

func TestListSetReplacesElement(t *testing.T) {
	r := NewRegistry()
	list := NewList(r)
	require.NoError(t, list.Append(r.NewLeaf(&testLeaf{})))

	replacement := r.NewLeaf(&testLeaf{})
	require.NoError(t, list.Set(0, replacement))
	got, ok := list.Get(0)
	require.True(t, ok)
	assert.Equal(t, replacement.Handle(), got.Handle())

	err := list.Set(3, replacement)
	assert.ErrorIs(t, err, ErrGraphConstruction)
}

func TestMapKeysKeepInsertionOrder(t *testing.T) {
	r := NewRegistry()
	m := NewMap(r)
	require.NoError(t, m.Set("two", r.NewLeaf(&testLeaf{})))
	require.NoError(t, m.Set("one", r.NewLeaf(&testLeaf{})))

	assert.Equal(t, []string{"two", "one"}, m.Keys())

	// Re-setting an existing key replaces without duplicating the key.
	replacement := r.NewLeaf(&testLeaf{})
	require.NoError(t, m.Set("two", replacement))
	assert.Equal(t, []string{"two", "one"}, m.Keys())
	got, ok := m.Get("two")
	require.True(t, ok)
	assert.Equal(t, replacement.Handle(), got.Handle())
}

func TestMapMatchingUsesKeyNotPosition(t *testing.T) {
	r := NewRegistry()
	root := r.NewNode()
	m := NewMap(r)
	require.NoError(t, root.Attach("vars", m.Node()))
	leaf := r.NewLeaf(&testLeaf{})
	require.NoError(t, m.Set("one", r.NewLeaf(&testLeaf{})))
	require.NoError(t, m.Set("two", leaf))

	g := Build(root)
	n, ok := g.Lookup("vars/two")
	require.True(t, ok)
	assert.Equal(t, leaf.Handle(), n.Handle())
}

// recordingRestorer counts notifications and reports done after a
// configured number of sweeps.
type recordingRestorer struct {
	calls  int
	doneIn int
}

func (rr *recordingRestorer) OnChildCreated() bool {
	rr.calls++
	return rr.calls >= rr.doneIn
}

func TestRegistryNotifiesAndDropsRestorers(t *testing.T) {
	r := NewRegistry()
	root := r.NewNode()
	rr := &recordingRestorer{doneIn: 2}
	r.AddRestorer(rr)

	require.NoError(t, root.Attach("a", r.NewNode()))
	assert.Equal(t, 1, rr.calls)

	require.NoError(t, root.Attach("b", r.NewNode()))
	assert.Equal(t, 2, rr.calls)

	// Done after the second sweep: no further notifications.
	require.NoError(t, root.Attach("c", r.NewNode()))
	assert.Equal(t, 2, rr.calls)
}
