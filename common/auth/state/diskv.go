/*
Copyright 2026 The Jishu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package state

import (
	"context"

	"github.com/gravitational/trace"
	"github.com/peterbourgon/diskv/v3"
)

const (
	// cacheSizeMaxBytes max memory cache
	cacheSizeMaxBytes = 1024 * 16

	// filePerm restricts session files to the owner
	filePerm = 0600

	// pathPerm restricts the storage directory to the owner
	pathPerm = 0700
)

// DiskvStore is a Store persisting every key as a file in a single directory.
type DiskvStore struct {
	// dv is a diskv instance
	dv *diskv.Diskv
}

// NewDiskvStore creates a store rooted at dir. The directory is created on first write.
func NewDiskvStore(dir string) (*DiskvStore, error) {
	if dir == "" {
		return nil, trace.BadParameter("missing storage directory")
	}

	// Simplest transform function: put all the data files into the base dir.
	flatTransform := func(s string) []string { return []string{} }

	dv := diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    flatTransform,
		CacheSizeMax: cacheSizeMaxBytes,
		FilePerm:     filePerm,
		PathPerm:     pathPerm,
	})

	return &DiskvStore{dv: dv}, nil
}

// Get implements Store
func (s *DiskvStore) Get(_ context.Context, key string) (string, error) {
	if !s.dv.Has(key) {
		return "", nil
	}

	b, err := s.dv.Read(key)
	if err != nil {
		return "", trace.ConvertSystemError(err)
	}

	return string(b), nil
}

// Set implements Store
func (s *DiskvStore) Set(_ context.Context, key, value string) error {
	if err := s.dv.Write(key, []byte(value)); err != nil {
		return trace.ConvertSystemError(err)
	}
	return nil
}

// RemoveAll implements Store
func (s *DiskvStore) RemoveAll(_ context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if !s.dv.Has(key) {
			continue
		}
		if err := s.dv.Erase(key); err != nil {
			errs = append(errs, trace.ConvertSystemError(err))
		}
	}
	return trace.NewAggregate(errs...)
}

var _ Store = &DiskvStore{}
