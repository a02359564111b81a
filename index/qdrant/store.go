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


package qdrant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/loincvec/core"
	"github.com/poiesic/loincvec/index"
	"github.com/qdrant/go-client/qdrant"
)

// Store implements index.Store against a Qdrant server over gRPC.
type Store struct {
	client *qdrant.Client
	logger *slog.Logger
}

var _ index.Store = (*Store)(nil)

// NewStore connects to a Qdrant server. The port is the gRPC port
// (6334 for a default deployment).
func NewStore(host string, port int) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant at %s:%d: %w", host, port, err)
	}

	return &Store{
		client: client,
		logger: slog.Default().With("component", "qdrant-store"),
	}, nil
}

// EnsureCollection creates the collection if absent. An existing collection
// with matching dimensionality and distance metric is a no-op; a mismatch is
// a *index.ConfigConflictError, never an implicit recreation.
func (s *Store) EnsureCollection(ctx context.Context, spec index.CollectionSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	exists, err := s.client.CollectionExists(ctx, spec.Name)
	if err != nil {
		return fmt.Errorf("checking collection %q: %w", spec.Name, err)
	}
	if !exists {
		return s.createCollection(ctx, spec)
	}

	info, err := s.client.GetCollectionInfo(ctx, spec.Name)
	if err != nil {
		return fmt.Errorf("inspecting collection %q: %w", spec.Name, err)
	}

	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	existing := index.CollectionSpec{Name: spec.Name}
	if params != nil {
		existing.Dimensions = params.GetSize()
		existing.Distance = distanceName(params.GetDistance())
	}
	if existing.Dimensions != spec.Dimensions || existing.Distance != spec.Distance {
		return &index.ConfigConflictError{Requested: spec, Existing: existing}
	}

	s.logger.Debug("collection exists with matching configuration", "collection", spec.Name)
	return nil
}

// RecreateCollection drops any existing collection and creates it fresh.
func (s *Store) RecreateCollection(ctx context.Context, spec index.CollectionSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	exists, err := s.client.CollectionExists(ctx, spec.Name)
	if err != nil {
		return fmt.Errorf("checking collection %q: %w", spec.Name, err)
	}
	if exists {
		s.logger.Warn("dropping existing collection", "collection", spec.Name)
		if err := s.client.DeleteCollection(ctx, spec.Name); err != nil {
			return fmt.Errorf("deleting collection %q: %w", spec.Name, err)
		}
	}
	return s.createCollection(ctx, spec)
}

func (s *Store) createCollection(ctx context.Context, spec index.CollectionSpec) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     spec.Dimensions,
			Distance: distanceOf(spec.Distance),
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", spec.Name, err)
	}
	s.logger.Info("created collection",
		"collection", spec.Name, "dimensions", spec.Dimensions, "distance", spec.Distance)
	return nil
}

// Upsert inserts or replaces points by numeric identifier. When wait is true
// the call returns only after Qdrant acknowledges durability of the whole
// batch, so a retried batch with the same identifiers replaces rather than
// duplicates.
func (s *Store) Upsert(ctx context.Context, collection string, points []*core.Point, wait bool) error {
	if len(points) == 0 {
		return nil
	}

	qp := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		payload := make(map[string]any, len(p.Payload))
		for k, v := range p.Payload {
			payload[k] = v
		}
		qp[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(p.Id)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(wait),
		Points:         qp,
	})
	if err != nil {
		return fmt.Errorf("upserting %d points into %q: %w", len(points), collection, err)
	}
	return nil
}

// Count returns the exact number of points in the collection.
func (s *Store) Count(ctx context.Context, collection string) (uint64, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("counting points in %q: %w", collection, err)
	}
	return count, nil
}

// HealthCheck verifies the server is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	return nil
}

// Close closes the underlying gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func distanceOf(d index.Distance) qdrant.Distance {
	switch d {
	case index.DistanceDot:
		return qdrant.Distance_Dot
	case index.DistanceEuclid:
		return qdrant.Distance_Euclid
	default:
		return qdrant.Distance_Cosine
	}
}

func distanceName(d qdrant.Distance) index.Distance {
	switch d {
	case qdrant.Distance_Dot:
		return index.DistanceDot
	case qdrant.Distance_Euclid:
		return index.DistanceEuclid
	case qdrant.Distance_Cosine:
		return index.DistanceCosine
	default:
		return index.Distance(d.String())
	}
}
