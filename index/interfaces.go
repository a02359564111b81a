// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/loincvec/core"
)

// Distance selects the similarity metric for a collection.
type Distance string

const (
	DistanceCosine Distance = "Cosine"
	DistanceDot    Distance = "Dot"
	DistanceEuclid Distance = "Euclid"
)

// ParseDistance maps a user-supplied metric name to its canonical Distance.
// Matching is case-insensitive.
func ParseDistance(s string) (Distance, error) {
	switch strings.ToLower(s) {
	case "cosine":
		return DistanceCosine, nil
	case "dot":
		return DistanceDot, nil
	case "euclid":
		return DistanceEuclid, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDistance, s)
}

// CollectionSpec describes a destination collection.
type CollectionSpec struct {
	Name       string
	Dimensions uint64
	Distance   Distance
}

// Validate checks that the spec is complete.
func (s CollectionSpec) Validate() error {
	if s.Name == "" {
		return ErrEmptyCollectionName
	}
	if s.Dimensions == 0 {
		return ErrZeroDimensions
	}
	if _, err := ParseDistance(string(s.Distance)); err != nil {
		return err
	}
	return nil
}

// Store is the vector index service boundary.
// Implementations must be safe for concurrent use.
type Store interface {
	// EnsureCollection creates the collection if it does not exist. If it
	// exists with a matching configuration the call is a no-op; a mismatched
	// configuration fails with a *ConfigConflictError. Existing collections
	// are never recreated here.
	EnsureCollection(ctx context.Context, spec CollectionSpec) error

	// RecreateCollection drops any existing collection and creates it fresh.
	// Destructive; callers must require explicit authorization.
	RecreateCollection(ctx context.Context, spec CollectionSpec) error

	// Upsert inserts or replaces points by identifier. When wait is true the
	// call returns only after the store acknowledges durability of every
	// point in the batch.
	Upsert(ctx context.Context, collection string, points []*core.Point, wait bool) error

	// Count returns the number of points in the collection.
	Count(ctx context.Context, collection string) (uint64, error)

	// Close releases the store's connections.
	Close() error
}
