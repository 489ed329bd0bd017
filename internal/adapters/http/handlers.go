package http

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"routelayer/internal/core/domain"
	"routelayer/internal/core/usecases"
	"routelayer/internal/pkg/geospatial"
)

// routeRequest is the inbound shape of a route, shared by create and patch.
// Waypoints is kept raw so an explicit JSON null (the deprecated clearing
// shape) can be told apart from an absent key.
type routeRequest struct {
	Start             *domain.GeoPoint  `json:"start"`
	End               *domain.GeoPoint  `json:"end"`
	Waypoints         json.RawMessage   `json:"waypoints"`
	Data              []domain.GeoPoint `json:"data"`
	TravelMode        *string           `json:"travel_mode"`
	AvoidFerries      *bool             `json:"avoid_ferries"`
	AvoidHighways     *bool             `json:"avoid_highways"`
	AvoidTolls        *bool             `json:"avoid_tolls"`
	OptimizeWaypoints *bool             `json:"optimize_waypoints"`
	ShowMarkers       *bool             `json:"show_markers"`
	ShowRoute         *bool             `json:"show_route"`
}

// waypoints resolves the raw field into (points, set): set is false when the
// key was absent, and points is nil for an explicit null.
func (r *routeRequest) waypoints() ([]domain.GeoPoint, bool, error) {
	if len(r.Waypoints) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(r.Waypoints), []byte("null")) {
		return nil, true, nil
	}
	var pts []domain.GeoPoint
	if err := json.Unmarshal(r.Waypoints, &pts); err != nil {
		return nil, false, err
	}
	if pts == nil {
		pts = []domain.GeoPoint{}
	}
	return pts, true, nil
}

type createLayerRequest struct {
	Name  string       `json:"name"`
	Route routeRequest `json:"route"`
}

// layerResponse wraps a record with the deprecation signals its request
// raised, mirroring the response headers in the body for API clients that
// cannot read headers.
type layerResponse struct {
	Layer        *domain.LayerRecord  `json:"layer"`
	Deprecations []domain.Deprecation `json:"deprecations,omitempty"`
}

// CreateLayerHandler creates a new directions layer.
func CreateLayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createLayerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Name == "" {
			return errBadRequest(c, "name is required")
		}

		var opts []domain.Option
		if req.Route.Start != nil {
			opts = append(opts, domain.WithStart(*req.Route.Start))
		}
		if req.Route.End != nil {
			opts = append(opts, domain.WithEnd(*req.Route.End))
		}
		wps, wpsSet, err := req.Route.waypoints()
		if err != nil {
			return errBadRequest(c, "waypoints must be null or a list of points")
		}
		if wpsSet {
			opts = append(opts, domain.WithWaypoints(wps))
		}
		if req.Route.Data != nil {
			opts = append(opts, domain.WithLegacyData(req.Route.Data))
		}
		if req.Route.TravelMode != nil {
			opts = append(opts, domain.WithTravelMode(domain.TravelMode(*req.Route.TravelMode)))
		}
		if req.Route.AvoidFerries != nil {
			opts = append(opts, domain.WithAvoidFerries(*req.Route.AvoidFerries))
		}
		if req.Route.AvoidHighways != nil {
			opts = append(opts, domain.WithAvoidHighways(*req.Route.AvoidHighways))
		}
		if req.Route.AvoidTolls != nil {
			opts = append(opts, domain.WithAvoidTolls(*req.Route.AvoidTolls))
		}
		if req.Route.OptimizeWaypoints != nil {
			opts = append(opts, domain.WithOptimizeWaypoints(*req.Route.OptimizeWaypoints))
		}
		if req.Route.ShowMarkers != nil {
			opts = append(opts, domain.WithShowMarkers(*req.Route.ShowMarkers))
		}
		if req.Route.ShowRoute != nil {
			opts = append(opts, domain.WithShowRoute(*req.Route.ShowRoute))
		}

		rec, deprecations, err := deps.Layers.Create(c.UserContext(), req.Name, opts...)
		if err != nil {
			return mapDomainError(c, err)
		}

		setDeprecationHeaders(c, deprecations)
		c.Set("Location", "/v1/layers/"+rec.ID)
		return c.Status(201).JSON(layerResponse{Layer: rec, Deprecations: deprecations})
	}
}

// GetLayerHandler returns a single layer by ID.
func GetLayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "layer id is required")
		}
		rec, err := deps.Layers.Get(c.UserContext(), id)
		if err != nil {
			return mapDomainError(c, err)
		}
		return c.JSON(rec)
	}
}

// ListLayersHandler lists layers with offset/limit pagination.
func ListLayersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		recs, total, err := deps.Layers.List(c.UserContext(), limit, offset)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if recs == nil {
			recs = []*domain.LayerRecord{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: recs, Pagination: pg})
	}
}

// PatchLayerHandler applies a partial route update as one atomic batch.
func PatchLayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "layer id is required")
		}

		var req routeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		wps, wpsSet, err := req.waypoints()
		if err != nil {
			return errBadRequest(c, "waypoints must be null or a list of points")
		}

		patch := usecases.LayerPatch{
			Start:        req.Start,
			End:          req.End,
			Waypoints:    wps,
			WaypointsSet: wpsSet,
			LegacyData:   req.Data,
		}
		if req.TravelMode != nil {
			m := domain.TravelMode(*req.TravelMode)
			patch.TravelMode = &m
		}
		patch.AvoidFerries = req.AvoidFerries
		patch.AvoidHighways = req.AvoidHighways
		patch.AvoidTolls = req.AvoidTolls
		patch.OptimizeWaypoints = req.OptimizeWaypoints
		patch.ShowMarkers = req.ShowMarkers
		patch.ShowRoute = req.ShowRoute

		rec, deprecations, err := deps.Layers.Update(c.UserContext(), id, patch)
		if err != nil {
			return mapDomainError(c, err)
		}

		setDeprecationHeaders(c, deprecations)
		return c.JSON(layerResponse{Layer: rec, Deprecations: deprecations})
	}
}

// DeleteLayerHandler removes a layer.
func DeleteLayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "layer id is required")
		}
		if err := deps.Layers.Delete(c.UserContext(), id); err != nil {
			return mapDomainError(c, err)
		}
		return c.SendStatus(204)
	}
}

// statusRequest is the inbound shape of a route status report.
type statusRequest struct {
	Status string `json:"status"`
}

// SetStatusHandler records the outcome reported by a directions resolver.
func SetStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "layer id is required")
		}
		var req statusRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Status == "" {
			return errBadRequest(c, "status is required")
		}
		if err := deps.Layers.SetStatus(c.UserContext(), id, req.Status); err != nil {
			return mapDomainError(c, err)
		}
		return c.SendStatus(204)
	}
}

// GetBoundsHandler returns just the derived bounding box of a layer.
func GetBoundsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "layer id is required")
		}
		rec, err := deps.Layers.Get(c.UserContext(), id)
		if err != nil {
			return mapDomainError(c, err)
		}
		return c.JSON(rec.Route.Bounds)
	}
}

// layerSummary is a compact overview of a layer's route geometry.
type layerSummary struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	TravelMode    string        `json:"travel_mode"`
	WaypointCount int           `json:"waypoint_count"`
	LegCount      int           `json:"leg_count"`
	PathMeters    float64       `json:"path_meters"`
	Bounds        domain.Bounds `json:"bounds"`
	RouteStatus   string        `json:"route_status,omitempty"`
}

// GetSummaryHandler returns geometry statistics for a layer: leg count and
// the great-circle length of start → waypoints → end.
func GetSummaryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "layer id is required")
		}
		rec, err := deps.Layers.Get(c.UserContext(), id)
		if err != nil {
			return mapDomainError(c, err)
		}

		route := rec.Route
		points := make([][2]float64, 0, len(route.Waypoints)+2)
		points = append(points, [2]float64{route.Start.Lat, route.Start.Lon})
		for _, wp := range route.Waypoints {
			points = append(points, [2]float64{wp.Lat, wp.Lon})
		}
		points = append(points, [2]float64{route.End.Lat, route.End.Lon})

		return c.JSON(layerSummary{
			ID:            rec.ID,
			Name:          rec.Name,
			TravelMode:    string(route.TravelMode),
			WaypointCount: len(route.Waypoints),
			LegCount:      len(points) - 1,
			PathMeters:    geospatial.PathLength(points),
			Bounds:        route.Bounds,
			RouteStatus:   route.RouteStatus,
		})
	}
}
