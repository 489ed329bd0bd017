package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	Min GeoPoint `json:"min"`
	Max GeoPoint `json:"max"`
}

// BoundsOf returns the smallest bounding box containing all points.
// The caller guarantees at least one point.
func BoundsOf(points []GeoPoint) Bounds {
	b := Bounds{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		if p.Lat < b.Min.Lat {
			b.Min.Lat = p.Lat
		}
		if p.Lon < b.Min.Lon {
			b.Min.Lon = p.Lon
		}
		if p.Lat > b.Max.Lat {
			b.Max.Lat = p.Lat
		}
		if p.Lon > b.Max.Lon {
			b.Max.Lon = p.Lon
		}
	}
	return b
}
