//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

// Package tensor provides a minimal dense tensor used as the leaf value of
// trackable graphs: an element type, a shape, and little-endian raw data.
// It exists so checkpoints have something concrete to round-trip; heavier
// numeric backends can replace it by implementing trackable.Leaf.
package tensor

import (
	"encoding/binary"
	"fmt"
	"math"

	"trpc.group/trpc-go/trpc-trackable-go/trackable"
)

// DataType identifies the element type of a tensor.
type DataType int

// Supported element types.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
	Bool
)

// Data type string constants used in shape/type descriptors.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
	DTypeUint8   = "uint8"
	DTypeBool    = "bool"
)

// String returns the descriptor spelling of the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return DTypeFloat32
	case Float64:
		return DTypeFloat64
	case Int32:
		return DTypeInt32
	case Int64:
		return DTypeInt64
	case Uint8:
		return DTypeUint8
	case Bool:
		return DTypeBool
	default:
		return "unknown"
	}
}

// Size returns the byte width of one element.
func (dt DataType) Size() int {
	switch dt {
	case Float64, Int64:
		return 8
	case Float32, Int32:
		return 4
	default:
		return 1
	}
}

// ParseDataType converts a descriptor spelling back to a DataType.
func ParseDataType(s string) (DataType, bool) {
	switch s {
	case DTypeFloat32:
		return Float32, true
	case DTypeFloat64:
		return Float64, true
	case DTypeInt32:
		return Int32, true
	case DTypeInt64:
		return Int64, true
	case DTypeUint8:
		return Uint8, true
	case DTypeBool:
		return Bool, true
	default:
		return 0, false
	}
}

// Tensor is a dense value with little-endian raw storage. It is mutated in
// place by restoration, so hold tensors by pointer.
type Tensor struct {
	dtype DataType
	shape []int64
	data  []byte
}

// New creates a zero-filled tensor of the given type and shape.
func New(dtype DataType, shape ...int64) *Tensor {
	n := numElements(shape)
	return &Tensor{
		dtype: dtype,
		shape: append([]int64(nil), shape...),
		data:  make([]byte, n*int64(dtype.Size())),
	}
}

// NewFloat32 creates a float32 tensor from values. The value count must
// match the shape's element count.
func NewFloat32(values []float32, shape ...int64) (*Tensor, error) {
	if int64(len(values)) != numElements(shape) {
		return nil, fmt.Errorf("tensor: %d values do not fill shape %v", len(values), shape)
	}
	t := New(Float32, shape...)
	for i, v := range values {
		binary.LittleEndian.PutUint32(t.data[i*4:], math.Float32bits(v))
	}
	return t, nil
}

// Scalar creates a rank-0 float32 tensor.
func Scalar(v float32) *Tensor {
	t := New(Float32)
	binary.LittleEndian.PutUint32(t.data, math.Float32bits(v))
	return t
}

// DType returns the element type.
func (t *Tensor) DType() DataType { return t.dtype }

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() []int64 {
	return append([]int64(nil), t.shape...)
}

// NumElements returns the total element count.
func (t *Tensor) NumElements() int64 { return numElements(t.shape) }

// Data returns the raw little-endian storage. The slice aliases the
// tensor; it is not a copy.
func (t *Tensor) Data() []byte { return t.data }

// Float32s decodes the storage as float32 values.
func (t *Tensor) Float32s() []float32 {
	out := make([]float32, len(t.data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(t.data[i*4:]))
	}
	return out
}

// MarshalLeaf implements trackable.Leaf.
func (t *Tensor) MarshalLeaf() ([]byte, trackable.Descriptor, error) {
	data := make([]byte, len(t.data))
	copy(data, t.data)
	return data, trackable.Descriptor{DType: t.dtype.String(), Shape: t.Shape()}, nil
}

// UnmarshalLeaf implements trackable.Leaf, replacing the tensor's type,
// shape and storage with the serialized ones.
func (t *Tensor) UnmarshalLeaf(data []byte, desc trackable.Descriptor) error {
	dtype, ok := ParseDataType(desc.DType)
	if !ok {
		return fmt.Errorf("tensor: unknown dtype %q", desc.DType)
	}
	want := numElements(desc.Shape) * int64(dtype.Size())
	if int64(len(data)) != want {
		return fmt.Errorf("tensor: %d bytes do not fill %s%v (want %d)",
			len(data), desc.DType, desc.Shape, want)
	}
	t.dtype = dtype
	t.shape = append([]int64(nil), desc.Shape...)
	t.data = append([]byte(nil), data...)
	return nil
}

func numElements(shape []int64) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}
