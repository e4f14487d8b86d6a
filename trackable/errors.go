//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

package trackable

import "errors"

// Errors.
var (
	// ErrGraphConstruction reports a malformed graph configuration such as
	// an empty or conflicting edge name. It is raised at attach time, so
	// the host can correct the graph before any save or restore.
	ErrGraphConstruction = errors.New("graph construction error")
)
