package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"routelayer/internal/core/domain"
	"routelayer/internal/core/ports"
	"routelayer/internal/pkg/metrics"
)

// ErrLayerNotFound is returned when a layer ID resolves to nothing, neither
// in memory nor in the repository.
var ErrLayerNotFound = errors.New("layer not found")

// LayerPatch describes a partial update to a layer's route. Nil pointer
// fields are left untouched. WaypointsSet distinguishes "waypoints absent"
// from "waypoints explicitly null" (the latter is the deprecated clearing
// shape and coerces to an empty list).
type LayerPatch struct {
	Start             *domain.GeoPoint
	End               *domain.GeoPoint
	Waypoints         []domain.GeoPoint
	WaypointsSet      bool
	LegacyData        []domain.GeoPoint
	TravelMode        *domain.TravelMode
	AvoidFerries      *bool
	AvoidHighways     *bool
	AvoidTolls        *bool
	OptimizeWaypoints *bool
	ShowMarkers       *bool
	ShowRoute         *bool
}

// layerHandle guards a single live layer. RouteSpec is single-threaded by
// contract, so every mutation and snapshot goes through the handle's mutex.
type layerHandle struct {
	mu    sync.Mutex
	layer *domain.Layer
	deps  []domain.Deprecation
}

// LayerService hosts live directions layers: it owns the in-memory
// RouteSpec instances, persists their snapshots, and relays their change
// and deprecation signals to the event publisher.
type LayerService struct {
	repo      ports.LayerRepository
	publisher ports.LayerEventPublisher

	mu     sync.RWMutex
	layers map[string]*layerHandle
}

// NewLayerService creates a new LayerService.
func NewLayerService(repo ports.LayerRepository, publisher ports.LayerEventPublisher) *LayerService {
	return &LayerService{
		repo:      repo,
		publisher: publisher,
		layers:    make(map[string]*layerHandle),
	}
}

// attach subscribes the service to a spec's signals. Observers run inside
// the handle's critical section, so publishing is fire-and-forget with a
// detached context.
func (s *LayerService) attach(layerID string, spec *domain.RouteSpec, h *layerHandle) {
	spec.OnChange(func(ch domain.FieldChange) {
		metrics.LayerFieldChanges.WithLabelValues(string(ch.Field)).Inc()
		if ch.Field == domain.FieldBounds {
			metrics.BoundsRecomputations.Inc()
		}
		if s.publisher != nil {
			_ = s.publisher.PublishFieldChange(context.Background(), layerID, ch)
		}
	})
	spec.OnDeprecation(func(d domain.Deprecation) {
		metrics.DeprecationSignals.WithLabelValues(d.Feature).Inc()
		h.deps = append(h.deps, d)
		if s.publisher != nil {
			_ = s.publisher.PublishDeprecation(context.Background(), layerID, d)
		}
	})
}

// Create builds a new layer from construction options, persists it and
// starts hosting it. Deprecation signals raised during construction are
// returned so the transport can surface them to the caller.
func (s *LayerService) Create(ctx context.Context, name string, opts ...domain.Option) (*domain.LayerRecord, []domain.Deprecation, error) {
	var deps []domain.Deprecation
	opts = append(opts, domain.WithDeprecationHandler(func(d domain.Deprecation) {
		deps = append(deps, d)
	}))

	spec, err := domain.New(opts...)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	layer := &domain.Layer{
		ID:        uuid.NewString(),
		Name:      name,
		Route:     spec,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, d := range deps {
		metrics.DeprecationSignals.WithLabelValues(d.Feature).Inc()
		if s.publisher != nil {
			_ = s.publisher.PublishDeprecation(ctx, layer.ID, d)
		}
	}

	h := &layerHandle{layer: layer}
	s.attach(layer.ID, spec, h)

	rec := layer.Record()
	if err := s.repo.Save(ctx, &rec); err != nil {
		return nil, nil, fmt.Errorf("saving layer: %w", err)
	}

	s.mu.Lock()
	s.layers[layer.ID] = h
	s.mu.Unlock()

	metrics.LayersHosted.Inc()
	return &rec, deps, nil
}

// handle returns the live handle for a layer, lazily rehydrating it from
// the repository when the service has not hosted it yet (e.g. after a
// restart).
func (s *LayerService) handle(ctx context.Context, id string) (*layerHandle, error) {
	s.mu.RLock()
	h, ok := s.layers[id]
	s.mu.RUnlock()
	if ok {
		return h, nil
	}

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrLayerNotFound
	}

	spec, err := domain.FromSnapshot(rec.Route)
	if err != nil {
		return nil, fmt.Errorf("rehydrating layer %s: %w", id, err)
	}

	h = &layerHandle{layer: &domain.Layer{
		ID:        rec.ID,
		Name:      rec.Name,
		Route:     spec,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}}
	s.attach(rec.ID, spec, h)

	s.mu.Lock()
	// Another request may have rehydrated concurrently; keep the winner.
	if existing, ok := s.layers[id]; ok {
		h = existing
	} else {
		s.layers[id] = h
		metrics.LayersHosted.Inc()
	}
	s.mu.Unlock()

	return h, nil
}

// Get returns the current record of a layer.
func (s *LayerService) Get(ctx context.Context, id string) (*domain.LayerRecord, error) {
	h, err := s.handle(ctx, id)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	rec := h.layer.Record()
	h.mu.Unlock()
	return &rec, nil
}

// List returns a page of persisted layer records plus the total count.
// Live layers are served from memory so in-flight mutations are visible.
func (s *LayerService) List(ctx context.Context, limit, offset int) ([]*domain.LayerRecord, int, error) {
	recs, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	for i, rec := range recs {
		if h, ok := s.layers[rec.ID]; ok {
			h.mu.Lock()
			live := h.layer.Record()
			h.mu.Unlock()
			recs[i] = &live
		}
	}
	s.mu.RUnlock()

	return recs, total, nil
}

// Update applies a patch to a layer's route as one atomic batch: every
// field notification fires individually, but the bounding box is
// recomputed at most once. Deprecation signals raised by the patch are
// returned alongside the updated record.
func (s *LayerService) Update(ctx context.Context, id string, patch LayerPatch) (*domain.LayerRecord, []domain.Deprecation, error) {
	// Validate the whole patch up front so the batch below cannot fail
	// halfway with some fields already applied.
	if patch.LegacyData != nil &&
		(patch.Start != nil || patch.End != nil || patch.WaypointsSet) {
		return nil, nil, &domain.ConfigurationError{
			Reason: "cannot set both data and one of start, end or waypoints",
		}
	}
	if patch.LegacyData != nil && len(patch.LegacyData) < 2 {
		return nil, nil, &domain.ValidationError{
			Field:  domain.Field("data"),
			Reason: "flattened route data needs at least two points",
		}
	}
	if patch.TravelMode != nil {
		if _, err := domain.ParseTravelMode(string(*patch.TravelMode)); err != nil {
			return nil, nil, err
		}
	}

	h, err := s.handle(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	depsBefore := len(h.deps)
	spec := h.layer.Route

	err = spec.Update(func(r *domain.RouteSpec) error {
		if patch.LegacyData != nil {
			if err := r.SetLegacyData(patch.LegacyData); err != nil {
				return err
			}
		}
		if patch.Start != nil {
			r.SetStart(*patch.Start)
		}
		if patch.End != nil {
			r.SetEnd(*patch.End)
		}
		if patch.WaypointsSet {
			r.SetWaypoints(patch.Waypoints)
		}
		if patch.TravelMode != nil {
			if err := r.SetTravelMode(*patch.TravelMode); err != nil {
				return err
			}
		}
		if patch.AvoidFerries != nil {
			r.SetAvoidFerries(*patch.AvoidFerries)
		}
		if patch.AvoidHighways != nil {
			r.SetAvoidHighways(*patch.AvoidHighways)
		}
		if patch.AvoidTolls != nil {
			r.SetAvoidTolls(*patch.AvoidTolls)
		}
		if patch.OptimizeWaypoints != nil {
			r.SetOptimizeWaypoints(*patch.OptimizeWaypoints)
		}
		if patch.ShowMarkers != nil {
			r.SetShowMarkers(*patch.ShowMarkers)
		}
		if patch.ShowRoute != nil {
			r.SetShowRoute(*patch.ShowRoute)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	deps := append([]domain.Deprecation(nil), h.deps[depsBefore:]...)
	h.layer.UpdatedAt = time.Now().UTC()

	rec := h.layer.Record()
	if err := s.repo.Save(ctx, &rec); err != nil {
		return nil, nil, fmt.Errorf("saving layer: %w", err)
	}
	return &rec, deps, nil
}

// SetStatus records a route status reported by an external directions
// resolver. The status is write-only from the resolver's perspective but
// readable through Get.
func (s *LayerService) SetStatus(ctx context.Context, id, status string) error {
	h, err := s.handle(ctx, id)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.layer.Route.SetRouteStatus(status)
	h.layer.UpdatedAt = time.Now().UTC()

	metrics.StatusReports.Inc()

	rec := h.layer.Record()
	if err := s.repo.Save(ctx, &rec); err != nil {
		return fmt.Errorf("saving layer: %w", err)
	}
	return nil
}

// HostedCount returns the number of layers currently live in this process.
func (s *LayerService) HostedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}

// Delete stops hosting a layer and removes its record.
func (s *LayerService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, hosted := s.layers[id]
	delete(s.layers, id)
	s.mu.Unlock()

	if hosted {
		metrics.LayersHosted.Dec()
	}

	return s.repo.Delete(ctx, id)
}
