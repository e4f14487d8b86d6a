//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

package trackable

// Path conventions.
const (
	// PathSeparator joins edge names into checkpoint keys.
	PathSeparator = "/"
	// RootPath is the path of the graph root itself.
	RootPath = ""
)

// JoinPath appends an edge name to a parent path.
func JoinPath(parent, name string) string {
	if parent == RootPath {
		return name
	}
	return parent + PathSeparator + name
}
