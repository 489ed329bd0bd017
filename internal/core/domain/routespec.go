package domain

import (
	"fmt"
	"slices"
)

// Deprecation messages for the legacy input shapes.
const (
	deprecatedDataMsg      = "the flattened data shape is deprecated; pass start, end and waypoints instead"
	deprecatedWaypointsMsg = "passing null waypoints is deprecated; pass an empty list"
)

// RouteSpec is an observable record of the parameters of a directions
// request: endpoints, intermediate waypoints, travel mode, avoidance flags
// and display toggles, plus a bounding box derived from the geometry.
//
// The bounding box is recomputed synchronously whenever start, end or
// waypoints change. Multi-field updates (the legacy-data path, or any batch
// applied through Update) hold notifications so the recomputation happens
// exactly once per batch.
//
// A RouteSpec is not safe for concurrent use; the owning session serialises
// access to it.
type RouteSpec struct {
	start             GeoPoint
	end               GeoPoint
	waypoints         []GeoPoint
	travelMode        TravelMode
	avoidFerries      bool
	avoidHighways     bool
	avoidTolls        bool
	optimizeWaypoints bool
	showMarkers       bool
	showRoute         bool
	routeStatus       string

	bounds Bounds

	holdDepth     int
	pending       []FieldChange
	geometryDirty bool

	changeHandlers      []func(FieldChange)
	deprecationHandlers []func(Deprecation)
}

type routeConfig struct {
	start        *GeoPoint
	end          *GeoPoint
	waypoints    []GeoPoint
	waypointsSet bool
	legacyData   []GeoPoint

	travelMode        TravelMode
	avoidFerries      bool
	avoidHighways     bool
	avoidTolls        bool
	optimizeWaypoints bool
	showMarkers       bool
	showRoute         bool

	deprecationHandlers []func(Deprecation)
}

// Option configures a RouteSpec at construction.
type Option func(*routeConfig)

// WithStart sets the route origin.
func WithStart(p GeoPoint) Option { return func(c *routeConfig) { c.start = &p } }

// WithEnd sets the route destination.
func WithEnd(p GeoPoint) Option { return func(c *routeConfig) { c.end = &p } }

// WithWaypoints sets the intermediate stops, in visit order. An explicit nil
// slice is accepted for backward compatibility: it raises a deprecation
// signal and is coerced to an empty list.
func WithWaypoints(wps []GeoPoint) Option {
	return func(c *routeConfig) {
		c.waypoints = wps
		c.waypointsSet = true
	}
}

// WithLegacyData supplies the deprecated flattened route shape: a single
// ordered sequence whose first element becomes start, last element end, and
// middle slice the waypoints. It cannot be combined with WithStart, WithEnd
// or WithWaypoints.
func WithLegacyData(data []GeoPoint) Option {
	return func(c *routeConfig) { c.legacyData = data }
}

// WithTravelMode sets the mode of transport. Defaults to DRIVING.
func WithTravelMode(m TravelMode) Option {
	return func(c *routeConfig) { c.travelMode = m }
}

// WithAvoidFerries avoids ferries where possible.
func WithAvoidFerries(v bool) Option { return func(c *routeConfig) { c.avoidFerries = v } }

// WithAvoidHighways avoids highways where possible.
func WithAvoidHighways(v bool) Option { return func(c *routeConfig) { c.avoidHighways = v } }

// WithAvoidTolls avoids toll roads where possible.
func WithAvoidTolls(v bool) Option { return func(c *routeConfig) { c.avoidTolls = v } }

// WithOptimizeWaypoints lets the remote renderer reorder waypoints to
// minimise the overall cost of the route.
func WithOptimizeWaypoints(v bool) Option { return func(c *routeConfig) { c.optimizeWaypoints = v } }

// WithShowMarkers toggles the start/end/waypoint markers. Defaults to true.
func WithShowMarkers(v bool) Option { return func(c *routeConfig) { c.showMarkers = v } }

// WithShowRoute toggles drawing of the route line. Defaults to true.
func WithShowRoute(v bool) Option { return func(c *routeConfig) { c.showRoute = v } }

// WithDeprecationHandler registers a deprecation observer before inputs are
// resolved, so construction-time signals (legacy data, null waypoints) are
// delivered to it.
func WithDeprecationHandler(fn func(Deprecation)) Option {
	return func(c *routeConfig) { c.deprecationHandlers = append(c.deprecationHandlers, fn) }
}

// New builds a RouteSpec from the supplied options.
//
// Either start and end (with optional waypoints), or the legacy flattened
// data shape, must be supplied — mixing the two is a ConfigurationError.
// The initial bounding box is computed before New returns. Construction
// failures leave nothing behind: no partially-built RouteSpec is returned.
func New(opts ...Option) (*RouteSpec, error) {
	cfg := routeConfig{
		travelMode:  DefaultTravelMode,
		showMarkers: true,
		showRoute:   true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &RouteSpec{
		travelMode:          cfg.travelMode,
		avoidFerries:        cfg.avoidFerries,
		avoidHighways:       cfg.avoidHighways,
		avoidTolls:          cfg.avoidTolls,
		optimizeWaypoints:   cfg.optimizeWaypoints,
		showMarkers:         cfg.showMarkers,
		showRoute:           cfg.showRoute,
		deprecationHandlers: cfg.deprecationHandlers,
	}

	if !cfg.travelMode.Valid() {
		return nil, &ValidationError{
			Field:  FieldTravelMode,
			Reason: fmt.Sprintf("%q is not one of BICYCLING, DRIVING, TRANSIT, WALKING", string(cfg.travelMode)),
		}
	}

	switch {
	case cfg.legacyData != nil:
		if cfg.start != nil || cfg.end != nil || cfg.waypointsSet {
			return nil, &ConfigurationError{Reason: "cannot set both data and one of start, end or waypoints"}
		}
		r.deprecate(Deprecation{Feature: "data", Message: deprecatedDataMsg})
		start, end, wps, err := destructureLegacy(cfg.legacyData)
		if err != nil {
			return nil, err
		}
		r.start, r.end, r.waypoints = start, end, wps
	default:
		if cfg.start == nil || cfg.end == nil {
			return nil, &ConfigurationError{Reason: "start and end are required"}
		}
		r.start, r.end = *cfg.start, *cfg.end
		if cfg.waypointsSet && cfg.waypoints == nil {
			r.deprecate(Deprecation{Feature: "waypoints", Message: deprecatedWaypointsMsg})
		}
		r.waypoints = slices.Clone(cfg.waypoints)
	}
	if r.waypoints == nil {
		r.waypoints = []GeoPoint{}
	}

	r.bounds = BoundsOf(r.routePoints())
	return r, nil
}

// NewRoute is the convenience factory for the common case: explicit start
// and end, no legacy path.
func NewRoute(start, end GeoPoint, opts ...Option) (*RouteSpec, error) {
	return New(append([]Option{WithStart(start), WithEnd(end)}, opts...)...)
}

// destructureLegacy splits the flattened shape into its canonical parts.
func destructureLegacy(data []GeoPoint) (start, end GeoPoint, waypoints []GeoPoint, err error) {
	if len(data) < 2 {
		return GeoPoint{}, GeoPoint{}, nil,
			&ValidationError{Field: "data", Reason: "flattened route data needs at least two points"}
	}
	return data[0], data[len(data)-1], slices.Clone(data[1 : len(data)-1]), nil
}

// OnChange registers fn to be called for every attribute change, including
// the derived bounds. Handlers run synchronously on the mutating goroutine.
func (r *RouteSpec) OnChange(fn func(FieldChange)) {
	r.changeHandlers = append(r.changeHandlers, fn)
}

// OnDeprecation registers fn to be called for every deprecation signal.
func (r *RouteSpec) OnDeprecation(fn func(Deprecation)) {
	r.deprecationHandlers = append(r.deprecationHandlers, fn)
}

// Update applies fn as a single batched mutation: change notifications and
// the bounds recomputation are held until fn returns, then released exactly
// once. The hold is released even when fn fails.
func (r *RouteSpec) Update(fn func(*RouteSpec) error) error {
	r.beginHold()
	defer r.endHold()
	return fn(r)
}

func (r *RouteSpec) beginHold() { r.holdDepth++ }

func (r *RouteSpec) endHold() {
	r.holdDepth--
	if r.holdDepth > 0 {
		return
	}
	pending := r.pending
	r.pending = nil
	for _, ch := range pending {
		r.emit(ch)
	}
	if r.geometryDirty {
		r.geometryDirty = false
		r.recomputeBounds()
	}
}

func (r *RouteSpec) emit(ch FieldChange) {
	for _, fn := range r.changeHandlers {
		fn(ch)
	}
}

func (r *RouteSpec) notify(ch FieldChange) {
	if r.holdDepth > 0 {
		r.pending = append(r.pending, ch)
		return
	}
	r.emit(ch)
}

func (r *RouteSpec) deprecate(d Deprecation) {
	for _, fn := range r.deprecationHandlers {
		fn(d)
	}
}

func (r *RouteSpec) routePoints() []GeoPoint {
	pts := make([]GeoPoint, 0, len(r.waypoints)+2)
	pts = append(pts, r.start)
	pts = append(pts, r.waypoints...)
	pts = append(pts, r.end)
	return pts
}

// geometryChanged recomputes bounds immediately, or defers to the end of the
// enclosing batch.
func (r *RouteSpec) geometryChanged() {
	if r.holdDepth > 0 {
		r.geometryDirty = true
		return
	}
	r.recomputeBounds()
}

func (r *RouteSpec) recomputeBounds() {
	old := r.bounds
	r.bounds = BoundsOf(r.routePoints())
	if r.bounds != old {
		r.emit(FieldChange{Field: FieldBounds, Old: old, New: r.bounds})
	}
}

// SetStart moves the route origin.
func (r *RouteSpec) SetStart(p GeoPoint) {
	if p == r.start {
		return
	}
	old := r.start
	r.start = p
	r.notify(FieldChange{Field: FieldStart, Old: old, New: p})
	r.geometryChanged()
}

// SetEnd moves the route destination.
func (r *RouteSpec) SetEnd(p GeoPoint) {
	if p == r.end {
		return
	}
	old := r.end
	r.end = p
	r.notify(FieldChange{Field: FieldEnd, Old: old, New: p})
	r.geometryChanged()
}

// SetWaypoints replaces the intermediate stops. A nil slice raises a
// deprecation signal and is coerced to an empty list, never an error.
func (r *RouteSpec) SetWaypoints(wps []GeoPoint) {
	if wps == nil {
		r.deprecate(Deprecation{Feature: "waypoints", Message: deprecatedWaypointsMsg})
		wps = []GeoPoint{}
	}
	if slices.Equal(wps, r.waypoints) {
		return
	}
	old := r.waypoints
	r.waypoints = slices.Clone(wps)
	r.notify(FieldChange{Field: FieldWaypoints, Old: old, New: slices.Clone(wps)})
	r.geometryChanged()
}

// SetLegacyData assigns the deprecated flattened shape to an existing spec:
// start, end and waypoints are destructured and applied as one batch, so
// subscribers see a single bounds recomputation. The flattened shape itself
// is not retained.
func (r *RouteSpec) SetLegacyData(data []GeoPoint) error {
	if data == nil {
		return nil
	}
	r.deprecate(Deprecation{Feature: "data", Message: deprecatedDataMsg})
	start, end, wps, err := destructureLegacy(data)
	if err != nil {
		return err
	}
	return r.Update(func(r *RouteSpec) error {
		r.SetStart(start)
		r.SetEnd(end)
		r.SetWaypoints(wps)
		return nil
	})
}

// SetTravelMode changes the mode of transport. A value outside the allowed
// enum is rejected and leaves the current mode untouched.
func (r *RouteSpec) SetTravelMode(m TravelMode) error {
	if !m.Valid() {
		return &ValidationError{
			Field:  FieldTravelMode,
			Reason: fmt.Sprintf("%q is not one of BICYCLING, DRIVING, TRANSIT, WALKING", string(m)),
		}
	}
	if m == r.travelMode {
		return nil
	}
	old := r.travelMode
	r.travelMode = m
	r.notify(FieldChange{Field: FieldTravelMode, Old: old, New: m})
	return nil
}

func (r *RouteSpec) setBool(f Field, dst *bool, v bool) {
	if *dst == v {
		return
	}
	old := *dst
	*dst = v
	r.notify(FieldChange{Field: f, Old: old, New: v})
}

// SetAvoidFerries toggles ferry avoidance.
func (r *RouteSpec) SetAvoidFerries(v bool) { r.setBool(FieldAvoidFerries, &r.avoidFerries, v) }

// SetAvoidHighways toggles highway avoidance.
func (r *RouteSpec) SetAvoidHighways(v bool) { r.setBool(FieldAvoidHighways, &r.avoidHighways, v) }

// SetAvoidTolls toggles toll-road avoidance.
func (r *RouteSpec) SetAvoidTolls(v bool) { r.setBool(FieldAvoidTolls, &r.avoidTolls, v) }

// SetOptimizeWaypoints toggles remote waypoint reordering.
func (r *RouteSpec) SetOptimizeWaypoints(v bool) {
	r.setBool(FieldOptimizeWaypoints, &r.optimizeWaypoints, v)
}

// SetShowMarkers toggles marker display.
func (r *RouteSpec) SetShowMarkers(v bool) { r.setBool(FieldShowMarkers, &r.showMarkers, v) }

// SetShowRoute toggles route-line display.
func (r *RouteSpec) SetShowRoute(v bool) { r.setBool(FieldShowRoute, &r.showRoute, v) }

// SetRouteStatus records the outcome of the remote route computation
// (e.g. "OK", "NOT_FOUND"). It is written by the external routing
// collaborator, never computed here.
func (r *RouteSpec) SetRouteStatus(status string) {
	if status == r.routeStatus {
		return
	}
	old := r.routeStatus
	r.routeStatus = status
	r.notify(FieldChange{Field: FieldRouteStatus, Old: old, New: status})
}

// Start returns the route origin.
func (r *RouteSpec) Start() GeoPoint { return r.start }

// End returns the route destination.
func (r *RouteSpec) End() GeoPoint { return r.end }

// Waypoints returns a copy of the intermediate stops, in visit order.
// It is never nil.
func (r *RouteSpec) Waypoints() []GeoPoint { return slices.Clone(r.waypoints) }

// TravelMode returns the current mode of transport.
func (r *RouteSpec) TravelMode() TravelMode { return r.travelMode }

// AvoidFerries reports whether ferries are avoided.
func (r *RouteSpec) AvoidFerries() bool { return r.avoidFerries }

// AvoidHighways reports whether highways are avoided.
func (r *RouteSpec) AvoidHighways() bool { return r.avoidHighways }

// AvoidTolls reports whether toll roads are avoided.
func (r *RouteSpec) AvoidTolls() bool { return r.avoidTolls }

// OptimizeWaypoints reports whether remote waypoint reordering is requested.
func (r *RouteSpec) OptimizeWaypoints() bool { return r.optimizeWaypoints }

// ShowMarkers reports whether endpoint/waypoint markers are displayed.
func (r *RouteSpec) ShowMarkers() bool { return r.showMarkers }

// ShowRoute reports whether the route line is displayed.
func (r *RouteSpec) ShowRoute() bool { return r.showRoute }

// Bounds returns the bounding box of start, waypoints and end.
func (r *RouteSpec) Bounds() Bounds { return r.bounds }

// RouteStatus returns the last status reported by the remote router.
func (r *RouteSpec) RouteStatus() string { return r.routeStatus }
