package domain

import "fmt"

// TravelMode is the mode of transport a route is computed for.
// The enumerated values are the contract surface the remote directions
// renderer honours verbatim.
type TravelMode string

const (
	TravelModeBicycling TravelMode = "BICYCLING"
	TravelModeDriving   TravelMode = "DRIVING"
	TravelModeTransit   TravelMode = "TRANSIT"
	TravelModeWalking   TravelMode = "WALKING"
)

// DefaultTravelMode is used when no mode is supplied.
const DefaultTravelMode = TravelModeDriving

// Valid reports whether m is one of the four allowed travel modes.
func (m TravelMode) Valid() bool {
	switch m {
	case TravelModeBicycling, TravelModeDriving, TravelModeTransit, TravelModeWalking:
		return true
	}
	return false
}

// ParseTravelMode converts a raw string into a TravelMode.
func ParseTravelMode(s string) (TravelMode, error) {
	m := TravelMode(s)
	if !m.Valid() {
		return "", &ValidationError{Field: FieldTravelMode, Reason: fmt.Sprintf("%q is not one of BICYCLING, DRIVING, TRANSIT, WALKING", s)}
	}
	return m, nil
}
