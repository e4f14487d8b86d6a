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

// testLeaf is a byte-blob leaf for graph tests.
type testLeaf struct {
	data []byte
}

func (l *testLeaf) MarshalLeaf() ([]byte, Descriptor, error) {
	return append([]byte(nil), l.data...), Descriptor{DType: "bytes"}, nil
}

func (l *testLeaf) UnmarshalLeaf(data []byte, desc Descriptor) error {
	l.data = append([]byte(nil), data...)
	return nil
}

func TestBuildPathsFollowInsertionOrder(t *testing.T) {
	r := NewRegistry()
	root := r.NewNode()
	child := r.NewNode()
	require.NoError(t, root.Attach("zebra", child))
	require.NoError(t, root.Attach("alpha", r.NewLeaf(&testLeaf{})))
	require.NoError(t, child.Attach("w", r.NewLeaf(&testLeaf{})))

	g := Build(root)
	var paths []string
	for _, e := range g.Entries() {
		paths = append(paths, e.Path)
	}
	// Depth-first in insertion order, not alphabetical.
	assert.Equal(t, []string{"", "zebra", "zebra/w", "alpha"}, paths)
}

func TestBuildSharedNodeKeepsFirstPath(t *testing.T) {
	r := NewRegistry()
	root := r.NewNode()
	shared := r.NewLeaf(&testLeaf{})
	require.NoError(t, root.Attach("a", shared))
	require.NoError(t, root.Attach("b", shared))

	g := Build(root)
	_, ok := g.Lookup("a")
	assert.True(t, ok)
	_, ok = g.Lookup("b")
	assert.False(t, ok, "second path to a shared node must not be recorded")
}

func TestBuildBreaksCycles(t *testing.T) {
	r := NewRegistry()
	root := r.NewNode()
	child := r.NewNode()
	require.NoError(t, root.Attach("child", child))
	require.NoError(t, child.Attach("back", root))

	g := Build(root)
	assert.Len(t, g.Entries(), 2)
	n, ok := g.Lookup("child")
	require.True(t, ok)
	assert.Equal(t, child.Handle(), n.Handle())
}

func TestBuildSlotEdgeConditional(t *testing.T) {
	r := NewRegistry()
	variable := r.NewLeaf(&testLeaf{data: []byte("w")})
	slot := r.NewLeaf(&testLeaf{data: []byte("m")})
	optimizer := r.NewNode()
	require.NoError(t, optimizer.RegisterSlot("momentum", variable, slot))

	// Variable not reachable from the root: the slot subtree is pruned.
	root := r.NewNode()
	require.NoError(t, root.Attach("optimizer", optimizer))
	g := Build(root)
	assert.False(t, g.Contains(slot.Handle()))

	// Once the variable joins the graph, the slot is traversed under the
	// optimizer's path, keyed by the variable's own path.
	require.NoError(t, root.Attach("variable", variable))
	g = Build(root)
	n, ok := g.Lookup("optimizer/momentum/variable")
	require.True(t, ok)
	assert.Equal(t, slot.Handle(), n.Handle())
}

func TestBuildSlotPathCollisionKeepsFirstClaimant(t *testing.T) {
	r := NewRegistry()
	root := r.NewNode()
	variable := r.NewLeaf(&testLeaf{data: []byte("w")})
	optimizer := r.NewNode()
	require.NoError(t, root.Attach("v", variable))
	require.NoError(t, root.Attach("opt", optimizer))

	// A regular edge chain spells "opt/m/v", the same string the slot
	// below will derive from <owner>/<slot-name>/<variable-path>.
	mid := r.NewNode()
	occupant := r.NewLeaf(&testLeaf{data: []byte("edge")})
	require.NoError(t, optimizer.Attach("m", mid))
	require.NoError(t, mid.Attach("v", occupant))

	slot := r.NewLeaf(&testLeaf{data: []byte("slot")})
	require.NoError(t, optimizer.RegisterSlot("m", variable, slot))

	g := Build(root)
	n, ok := g.Lookup("opt/m/v")
	require.True(t, ok)
	assert.Equal(t, occupant.Handle(), n.Handle(), "the edge chain claimed the path first")
	assert.False(t, g.Contains(slot.Handle()), "the colliding slot subtree is skipped")
}

func TestAttachValidatesEdgeNames(t *testing.T) {
	r := NewRegistry()
	root := r.NewNode()

	err := root.Attach("", r.NewNode())
	assert.ErrorIs(t, err, ErrGraphConstruction)

	err = root.Attach("a/b", r.NewNode())
	assert.ErrorIs(t, err, ErrGraphConstruction)

	err = root.Attach("ok", nil)
	assert.ErrorIs(t, err, ErrGraphConstruction)
}

func TestAttachReplacesExistingEdge(t *testing.T) {
	r := NewRegistry()
	root := r.NewNode()
	first := r.NewNode()
	second := r.NewNode()
	require.NoError(t, root.Attach("x", first))
	require.NoError(t, root.Attach("x", second))

	assert.Len(t, root.Edges(), 1)
	got, ok := root.Child("x")
	require.True(t, ok)
	assert.Equal(t, second.Handle(), got.Handle())
}

func TestRegisterSlotRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	optimizer := r.NewNode()
	variable := r.NewLeaf(&testLeaf{})

	require.NoError(t, optimizer.RegisterSlot("m", variable, r.NewLeaf(&testLeaf{})))
	err := optimizer.RegisterSlot("m", variable, r.NewLeaf(&testLeaf{}))
	assert.ErrorIs(t, err, ErrGraphConstruction)

	// Same slot name for a different variable is fine.
	assert.NoError(t, optimizer.RegisterSlot("m", r.NewLeaf(&testLeaf{}), r.NewLeaf(&testLeaf{})))
}
