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
	"encoding/binary"
	"fmt"

	"trpc.group/trpc-go/trpc-trackable-go/trackable"
)

const counterDType = "int64"

// Counter is the automatically tracked save counter. It lives as a leaf
// under the save root's "save_counter" edge, so it is captured in every
// save and restored like any other leaf, which keeps checkpoint suffixes
// monotonic across process restarts.
type Counter struct {
	value int64
}

// Value returns the current counter value.
func (c *Counter) Value() int64 { return c.value }

// Increment advances the counter and returns the new value.
func (c *Counter) Increment() int64 {
	c.value++
	return c.value
}

// MarshalLeaf implements trackable.Leaf.
func (c *Counter) MarshalLeaf() ([]byte, trackable.Descriptor, error) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, uint64(c.value))
	return data, trackable.Descriptor{DType: counterDType}, nil
}

// UnmarshalLeaf implements trackable.Leaf.
func (c *Counter) UnmarshalLeaf(data []byte, desc trackable.Descriptor) error {
	if desc.DType != counterDType || len(data) != 8 {
		return fmt.Errorf("%w: save counter expects 8-byte %s, got %d-byte %q",
			ErrStorageCorruption, counterDType, len(data), desc.DType)
	}
	c.value = int64(binary.LittleEndian.Uint64(data))
	return nil
}

// EnsureSaveCounter returns the save counter attached to root, creating
// and attaching one when absent. A foreign leaf already occupying the
// save_counter edge is a configuration error.
func EnsureSaveCounter(root *trackable.Node) (*Counter, error) {
	if node, ok := root.Child(SaveCounterEdge); ok {
		counter, ok := node.Leaf().(*Counter)
		if !ok {
			return nil, fmt.Errorf("%w: %q edge is not a save counter",
				trackable.ErrGraphConstruction, SaveCounterEdge)
		}
		return counter, nil
	}
	counter := &Counter{}
	if err := root.Attach(SaveCounterEdge, root.Registry().NewLeaf(counter)); err != nil {
		return nil, err
	}
	return counter, nil
}
