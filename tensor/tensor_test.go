//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-trackable-go/trackable"
)

func TestLeafRoundTrip(t *testing.T) {
	src, err := NewFloat32([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	data, desc, err := src.MarshalLeaf()
	require.NoError(t, err)
	assert.Equal(t, DTypeFloat32, desc.DType)
	assert.Equal(t, []int64{2, 3}, desc.Shape)

	dst := New(Float32)
	require.NoError(t, dst.UnmarshalLeaf(data, desc))
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, dst.Float32s())
	assert.Equal(t, []int64{2, 3}, dst.Shape())
}

func TestUnmarshalLeafValidates(t *testing.T) {
	dst := New(Float32)
	err := dst.UnmarshalLeaf([]byte{0}, trackable.Descriptor{DType: "complex128"})
	assert.Error(t, err)

	err = dst.UnmarshalLeaf([]byte{0, 0}, trackable.Descriptor{DType: DTypeFloat32, Shape: []int64{2}})
	assert.Error(t, err, "2 bytes cannot fill two float32 elements")
}

func TestNewFloat32RejectsShapeMismatch(t *testing.T) {
	_, err := NewFloat32([]float32{1, 2, 3}, 2, 2)
	assert.Error(t, err)
}

func TestScalar(t *testing.T) {
	s := Scalar(4.5)
	assert.Equal(t, int64(1), s.NumElements())
	assert.Empty(t, s.Shape())
	assert.Equal(t, []float32{4.5}, s.Float32s())
}
