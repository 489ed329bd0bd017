package domain

// Field identifies a RouteSpec attribute in change notifications.
type Field string

const (
	FieldStart             Field = "start"
	FieldEnd               Field = "end"
	FieldWaypoints         Field = "waypoints"
	FieldTravelMode        Field = "travel_mode"
	FieldAvoidFerries      Field = "avoid_ferries"
	FieldAvoidHighways     Field = "avoid_highways"
	FieldAvoidTolls        Field = "avoid_tolls"
	FieldOptimizeWaypoints Field = "optimize_waypoints"
	FieldShowMarkers       Field = "show_markers"
	FieldShowRoute         Field = "show_route"
	FieldBounds            Field = "bounds"
	FieldRouteStatus       Field = "route_status"
)

// FieldChange is emitted to subscribed consumers whenever a RouteSpec
// attribute takes a new value. Old and New hold the attribute's values
// before and after the assignment.
type FieldChange struct {
	Field Field `json:"field"`
	Old   any   `json:"old"`
	New   any   `json:"new"`
}

// Deprecation is a soft signal emitted when a caller uses a legacy input
// shape. It never aborts the operation that raised it.
type Deprecation struct {
	Feature string `json:"feature"`
	Message string `json:"message"`
}
