package domain

import "time"

// Layer is a directions layer hosted for the lifetime of a display session:
// a named, live RouteSpec plus bookkeeping metadata.
type Layer struct {
	ID        string
	Name      string
	Route     *RouteSpec
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RouteSnapshot is the serialisable state of a RouteSpec, used for
// persistence and API responses.
type RouteSnapshot struct {
	Start             GeoPoint   `json:"start"`
	End               GeoPoint   `json:"end"`
	Waypoints         []GeoPoint `json:"waypoints"`
	TravelMode        TravelMode `json:"travel_mode"`
	AvoidFerries      bool       `json:"avoid_ferries"`
	AvoidHighways     bool       `json:"avoid_highways"`
	AvoidTolls        bool       `json:"avoid_tolls"`
	OptimizeWaypoints bool       `json:"optimize_waypoints"`
	ShowMarkers       bool       `json:"show_markers"`
	ShowRoute         bool       `json:"show_route"`
	Bounds            Bounds     `json:"bounds"`
	RouteStatus       string     `json:"route_status,omitempty"`
}

// LayerRecord is the persisted form of a Layer.
type LayerRecord struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Route     RouteSnapshot `json:"route"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Snapshot captures the current state of the spec.
func (r *RouteSpec) Snapshot() RouteSnapshot {
	return RouteSnapshot{
		Start:             r.start,
		End:               r.end,
		Waypoints:         r.Waypoints(),
		TravelMode:        r.travelMode,
		AvoidFerries:      r.avoidFerries,
		AvoidHighways:     r.avoidHighways,
		AvoidTolls:        r.avoidTolls,
		OptimizeWaypoints: r.optimizeWaypoints,
		ShowMarkers:       r.showMarkers,
		ShowRoute:         r.showRoute,
		Bounds:            r.bounds,
		RouteStatus:       r.routeStatus,
	}
}

// FromSnapshot rebuilds a live RouteSpec from a persisted snapshot.
func FromSnapshot(s RouteSnapshot) (*RouteSpec, error) {
	wps := s.Waypoints
	if wps == nil {
		wps = []GeoPoint{}
	}
	spec, err := New(
		WithStart(s.Start),
		WithEnd(s.End),
		WithWaypoints(wps),
		WithTravelMode(s.TravelMode),
		WithAvoidFerries(s.AvoidFerries),
		WithAvoidHighways(s.AvoidHighways),
		WithAvoidTolls(s.AvoidTolls),
		WithOptimizeWaypoints(s.OptimizeWaypoints),
		WithShowMarkers(s.ShowMarkers),
		WithShowRoute(s.ShowRoute),
	)
	if err != nil {
		return nil, err
	}
	spec.routeStatus = s.RouteStatus
	return spec, nil
}

// Record returns the persisted form of the layer.
func (l *Layer) Record() LayerRecord {
	return LayerRecord{
		ID:        l.ID,
		Name:      l.Name,
		Route:     l.Route.Snapshot(),
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}
