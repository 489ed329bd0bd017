package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "routelayer/internal/adapters/http"
	"routelayer/internal/core/domain"
	"routelayer/internal/core/usecases"
)

// ---- Mock repository ----

type mockLayerRepo struct {
	mu      sync.Mutex
	records map[string]*domain.LayerRecord
}

func newMockLayerRepo() *mockLayerRepo {
	return &mockLayerRepo{records: make(map[string]*domain.LayerRecord)}
}

func (m *mockLayerRepo) Save(ctx context.Context, rec *domain.LayerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *mockLayerRepo) Get(ctx context.Context, id string) (*domain.LayerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, usecases.ErrLayerNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *mockLayerRepo) List(ctx context.Context, limit, offset int) ([]*domain.LayerRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.LayerRecord
	for _, rec := range m.records {
		cp := *rec
		out = append(out, &cp)
	}
	total := len(out)
	if offset > len(out) {
		out = nil
	} else {
		out = out[offset:]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *mockLayerRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return usecases.ErrLayerNotFound
	}
	delete(m.records, id)
	return nil
}

// ---- Test helpers ----

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	deps := &handler.Dependencies{
		Layers: usecases.NewLayerService(newMockLayerRepo(), nil),
	}
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (int, []byte, map[string][]string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, data, resp.Header
}

func createLayer(t *testing.T, app *fiber.App, body string) string {
	t.Helper()
	status, data, _ := doRequest(t, app, "POST", "/v1/layers", body)
	if status != 201 {
		t.Fatalf("create layer: expected 201, got %d: %s", status, data)
	}
	var result struct {
		Layer domain.LayerRecord `json:"layer"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	return result.Layer.ID
}

// ---- Layer handler tests ----

func TestCreateLayer_Success(t *testing.T) {
	app := setupApp(t)

	status, data, headers := doRequest(t, app, "POST", "/v1/layers", `{
		"name": "geneva-zurich",
		"route": {
			"start": {"lat": 46.2, "lon": 6.1},
			"end":   {"lat": 47.4, "lon": 8.5}
		}
	}`)
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, data)
	}
	if loc := headers["Location"]; len(loc) == 0 || !strings.HasPrefix(loc[0], "/v1/layers/") {
		t.Errorf("expected Location header, got %v", loc)
	}

	var result struct {
		Layer domain.LayerRecord `json:"layer"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	route := result.Layer.Route
	if route.TravelMode != domain.TravelModeDriving {
		t.Errorf("travel mode = %s, want DRIVING default", route.TravelMode)
	}
	if !route.ShowMarkers || !route.ShowRoute {
		t.Error("display toggles should default to true")
	}
	want := domain.Bounds{Min: domain.GeoPoint{Lat: 46.2, Lon: 6.1}, Max: domain.GeoPoint{Lat: 47.4, Lon: 8.5}}
	if route.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", route.Bounds, want)
	}
}

func TestCreateLayer_LegacyDataSetsDeprecationHeaders(t *testing.T) {
	app := setupApp(t)

	status, data, headers := doRequest(t, app, "POST", "/v1/layers", `{
		"name": "legacy",
		"route": {
			"data": [
				{"lat": 1, "lon": 1}, {"lat": 2, "lon": 2},
				{"lat": 3, "lon": 3}, {"lat": 4, "lon": 4}
			]
		}
	}`)
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, data)
	}
	if dep := headers["Deprecation"]; len(dep) == 0 || dep[0] != "true" {
		t.Errorf("expected Deprecation: true header, got %v", dep)
	}
	if sunset := headers["Sunset"]; len(sunset) == 0 {
		t.Error("expected Sunset header")
	}

	var result struct {
		Layer        domain.LayerRecord   `json:"layer"`
		Deprecations []domain.Deprecation `json:"deprecations"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	route := result.Layer.Route
	if route.Start != (domain.GeoPoint{Lat: 1, Lon: 1}) || route.End != (domain.GeoPoint{Lat: 4, Lon: 4}) {
		t.Errorf("destructured endpoints = %v .. %v", route.Start, route.End)
	}
	if len(route.Waypoints) != 2 {
		t.Errorf("waypoints = %v", route.Waypoints)
	}
	if len(result.Deprecations) != 1 || result.Deprecations[0].Feature != "data" {
		t.Errorf("deprecations = %v", result.Deprecations)
	}
}

func TestCreateLayer_LegacyDataMixedWithStart(t *testing.T) {
	app := setupApp(t)

	status, data, _ := doRequest(t, app, "POST", "/v1/layers", `{
		"name": "bad",
		"route": {
			"start": {"lat": 1, "lon": 1},
			"data": [{"lat": 1, "lon": 1}, {"lat": 2, "lon": 2}]
		}
	}`)
	if status != 400 {
		t.Fatalf("expected 400, got %d: %s", status, data)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.Unmarshal(data, &apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("code = %s", apiErr.Code)
	}
}

func TestCreateLayer_NullWaypoints(t *testing.T) {
	app := setupApp(t)

	status, data, headers := doRequest(t, app, "POST", "/v1/layers", `{
		"name": "null-wps",
		"route": {
			"start": {"lat": 1, "lon": 1},
			"end":   {"lat": 2, "lon": 2},
			"waypoints": null
		}
	}`)
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, data)
	}
	if dep := headers["Deprecation"]; len(dep) == 0 {
		t.Error("explicit null waypoints should set the Deprecation header")
	}

	var result struct {
		Layer domain.LayerRecord `json:"layer"`
	}
	json.Unmarshal(data, &result)
	if result.Layer.Route.Waypoints == nil || len(result.Layer.Route.Waypoints) != 0 {
		t.Errorf("waypoints should be coerced to [], got %v", result.Layer.Route.Waypoints)
	}
}

func TestCreateLayer_InvalidTravelMode(t *testing.T) {
	app := setupApp(t)

	status, data, _ := doRequest(t, app, "POST", "/v1/layers", `{
		"name": "flying",
		"route": {
			"start": {"lat": 1, "lon": 1},
			"end":   {"lat": 2, "lon": 2},
			"travel_mode": "FLYING"
		}
	}`)
	if status != 422 {
		t.Fatalf("expected 422, got %d: %s", status, data)
	}

	var apiErr struct {
		Code  string `json:"code"`
		Field string `json:"field"`
	}
	json.Unmarshal(data, &apiErr)
	if apiErr.Code != "validation_failed" || apiErr.Field != "travel_mode" {
		t.Errorf("error = %+v", apiErr)
	}
}

func TestGetLayer_NotFound(t *testing.T) {
	app := setupApp(t)

	status, _, _ := doRequest(t, app, "GET", "/v1/layers/unknown-id", "")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestPatchLayer_MovesBounds(t *testing.T) {
	app := setupApp(t)
	id := createLayer(t, app, `{
		"name": "patchme",
		"route": {
			"start": {"lat": 0, "lon": 0},
			"end":   {"lat": 10, "lon": 10}
		}
	}`)

	status, data, _ := doRequest(t, app, "PATCH", "/v1/layers/"+id, `{
		"waypoints": [{"lat": 5, "lon": -5}, {"lat": 20, "lon": 5}]
	}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}

	var result struct {
		Layer domain.LayerRecord `json:"layer"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	want := domain.Bounds{Min: domain.GeoPoint{Lat: 0, Lon: -5}, Max: domain.GeoPoint{Lat: 20, Lon: 10}}
	if result.Layer.Route.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", result.Layer.Route.Bounds, want)
	}
}

func TestPatchLayer_InvalidTravelModeKeepsState(t *testing.T) {
	app := setupApp(t)
	id := createLayer(t, app, `{
		"name": "modes",
		"route": {
			"start": {"lat": 1, "lon": 1},
			"end":   {"lat": 2, "lon": 2},
			"travel_mode": "WALKING"
		}
	}`)

	status, _, _ := doRequest(t, app, "PATCH", "/v1/layers/"+id, `{"travel_mode": "FLYING"}`)
	if status != 422 {
		t.Fatalf("expected 422, got %d", status)
	}

	_, data, _ := doRequest(t, app, "GET", "/v1/layers/"+id, "")
	var rec domain.LayerRecord
	json.Unmarshal(data, &rec)
	if rec.Route.TravelMode != domain.TravelModeWalking {
		t.Errorf("travel mode = %s, want WALKING unchanged", rec.Route.TravelMode)
	}
}

func TestDeleteLayer(t *testing.T) {
	app := setupApp(t)
	id := createLayer(t, app, `{
		"name": "gone",
		"route": {
			"start": {"lat": 1, "lon": 1},
			"end":   {"lat": 2, "lon": 2}
		}
	}`)

	status, _, _ := doRequest(t, app, "DELETE", "/v1/layers/"+id, "")
	if status != 204 {
		t.Fatalf("expected 204, got %d", status)
	}

	status, _, _ = doRequest(t, app, "GET", "/v1/layers/"+id, "")
	if status != 404 {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
}

func TestSetStatus(t *testing.T) {
	app := setupApp(t)
	id := createLayer(t, app, `{
		"name": "status",
		"route": {
			"start": {"lat": 1, "lon": 1},
			"end":   {"lat": 2, "lon": 2}
		}
	}`)

	status, _, _ := doRequest(t, app, "PUT", "/v1/layers/"+id+"/status", `{"status": "NOT_FOUND"}`)
	if status != 204 {
		t.Fatalf("expected 204, got %d", status)
	}

	_, data, _ := doRequest(t, app, "GET", "/v1/layers/"+id, "")
	var rec domain.LayerRecord
	json.Unmarshal(data, &rec)
	if rec.Route.RouteStatus != "NOT_FOUND" {
		t.Errorf("route status = %q", rec.Route.RouteStatus)
	}
}

func TestGetBounds(t *testing.T) {
	app := setupApp(t)
	id := createLayer(t, app, `{
		"name": "bounds",
		"route": {
			"start": {"lat": 46.2, "lon": 6.1},
			"end":   {"lat": 47.4, "lon": 8.5}
		}
	}`)

	status, data, _ := doRequest(t, app, "GET", "/v1/layers/"+id+"/bounds", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var bounds domain.Bounds
	if err := json.Unmarshal(data, &bounds); err != nil {
		t.Fatal(err)
	}
	want := domain.Bounds{Min: domain.GeoPoint{Lat: 46.2, Lon: 6.1}, Max: domain.GeoPoint{Lat: 47.4, Lon: 8.5}}
	if bounds != want {
		t.Errorf("bounds = %+v, want %+v", bounds, want)
	}
}

func TestGetSummary(t *testing.T) {
	app := setupApp(t)
	id := createLayer(t, app, `{
		"name": "summary",
		"route": {
			"start": {"lat": 43.263, "lon": -2.935},
			"end":   {"lat": 43.301, "lon": -2.994},
			"waypoints": [{"lat": 43.27, "lon": -2.95}]
		}
	}`)

	status, data, _ := doRequest(t, app, "GET", "/v1/layers/"+id+"/summary", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var summary struct {
		WaypointCount int     `json:"waypoint_count"`
		LegCount      int     `json:"leg_count"`
		PathMeters    float64 `json:"path_meters"`
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.WaypointCount != 1 || summary.LegCount != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.PathMeters <= 0 {
		t.Errorf("path length should be positive, got %f", summary.PathMeters)
	}
}

func TestListLayers_Pagination(t *testing.T) {
	app := setupApp(t)
	for _, name := range []string{"a", "b", "c"} {
		createLayer(t, app, `{
			"name": "`+name+`",
			"route": {
				"start": {"lat": 1, "lon": 1},
				"end":   {"lat": 2, "lon": 2}
			}
		}`)
	}

	status, data, headers := doRequest(t, app, "GET", "/v1/layers?offset=0&limit=2", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result struct {
		Data       []domain.LayerRecord `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 3 {
		t.Errorf("total = %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("page size = %d", len(result.Data))
	}
	if link := headers["Link"]; len(link) == 0 || !strings.Contains(link[0], `rel="next"`) {
		t.Errorf("expected next Link header, got %v", link)
	}
}

func TestHealth(t *testing.T) {
	app := setupApp(t)

	status, data, _ := doRequest(t, app, "GET", "/v1/health", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var health struct {
		Status string `json:"status"`
	}
	json.Unmarshal(data, &health)
	if health.Status != "healthy" {
		t.Errorf("status = %q", health.Status)
	}
}

func TestGraphQL_LayerQuery(t *testing.T) {
	app := setupApp(t)
	id := createLayer(t, app, `{
		"name": "gql",
		"route": {
			"start": {"lat": 1, "lon": 1},
			"end":   {"lat": 2, "lon": 2},
			"travel_mode": "TRANSIT"
		}
	}`)

	status, data, _ := doRequest(t, app, "POST", "/graphql", `{
		"query": "query($id: String!) { layer(id: $id) { id name route { travel_mode bounds { min { lat lon } max { lat lon } } } } }",
		"variables": {"id": "`+id+`"}
	}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}

	var result struct {
		Data struct {
			Layer struct {
				ID    string `json:"id"`
				Name  string `json:"name"`
				Route struct {
					TravelMode string `json:"travel_mode"`
				} `json:"route"`
			} `json:"layer"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("graphql errors: %v", result.Errors)
	}
	if result.Data.Layer.ID != id {
		t.Errorf("layer id = %q, want %q", result.Data.Layer.ID, id)
	}
	if result.Data.Layer.Route.TravelMode != "TRANSIT" {
		t.Errorf("travel mode = %q", result.Data.Layer.Route.TravelMode)
	}
}
