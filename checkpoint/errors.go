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
	"errors"
	"fmt"
	"strings"
)

// Errors.
var (
	// ErrStorageCorruption reports a malformed or missing index or
	// manifest artifact. It is surfaced to the caller and never retried.
	ErrStorageCorruption = errors.New("checkpoint storage corruption")
	// ErrStorageIO reports a failed read or write of checkpoint
	// artifacts. A failed save publishes nothing.
	ErrStorageIO = errors.New("checkpoint storage i/o error")
	// ErrRestoreMismatch reports checkpoint entries and live nodes that
	// could not be matched to each other.
	ErrRestoreMismatch = errors.New("checkpoint restore mismatch")
)

// MismatchError names the paths that failed a restore-status assertion.
type MismatchError struct {
	// LiveUnmatched are paths of live leaf nodes absent from the checkpoint.
	LiveUnmatched []string
	// CheckpointUnmatched are checkpoint paths never matched to a live node.
	CheckpointUnmatched []string
}

// Error implements error.
func (e *MismatchError) Error() string {
	var parts []string
	if len(e.LiveUnmatched) > 0 {
		parts = append(parts, fmt.Sprintf("live nodes not in checkpoint: %s",
			strings.Join(e.LiveUnmatched, ", ")))
	}
	if len(e.CheckpointUnmatched) > 0 {
		parts = append(parts, fmt.Sprintf("checkpoint entries not instantiated: %s",
			strings.Join(e.CheckpointUnmatched, ", ")))
	}
	return fmt.Sprintf("%v: %s", ErrRestoreMismatch, strings.Join(parts, "; "))
}

// Unwrap makes the error match ErrRestoreMismatch with errors.Is.
func (e *MismatchError) Unwrap() error { return ErrRestoreMismatch }
