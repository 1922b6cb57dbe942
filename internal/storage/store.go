/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Get when no record exists under the key.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidKey is returned for keys that cannot be stored safely.
	ErrInvalidKey = errors.New("invalid record key")
)

// RecordStore persists submission envelopes and rendered records.
// Implementations must be safe for concurrent use by distinct keys.
type RecordStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	// List returns every stored key in lexical order.
	List(ctx context.Context) ([]string, error)
}

// PendingLister is implemented by stores that can select untransformed
// submissions without reading every body.
type PendingLister interface {
	Pending(ctx context.Context) ([]string, error)
}

// ContentStore publishes named files to a content repository.
type ContentStore interface {
	WriteFile(ctx context.Context, name string, data []byte) error
}

// CheckKey rejects empty keys and keys that would escape a directory.
func CheckKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "", key == ".", key == "..":
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	case strings.ContainsAny(key, "/\\\x00"):
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}
