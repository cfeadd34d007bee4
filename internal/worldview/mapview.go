package worldview

import geohash "github.com/TomiHiltunen/geohash-golang"

const (
	initialZoom  = 5
	renderedZoom = 8
)

// Marker is the single map pin placed after a render.
type Marker struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Geohash   string  `json:"geohash"`
}

// MapState is the viewport and marker of the map widget.
type MapState struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom"`
	Marker    *Marker `json:"marker,omitempty"`
}

// InitialMapState centers on Tokyo, as the page does before any search.
func InitialMapState() MapState {
	return MapState{
		Latitude:  35.6895,
		Longitude: 139.6917,
		Zoom:      initialZoom,
	}
}

// Focus moves the viewport to lat/lon and replaces the marker.
func (m *MapState) Focus(lat, lon float64) {
	m.Latitude = lat
	m.Longitude = lon
	m.Zoom = renderedZoom
	m.Marker = &Marker{
		Latitude:  lat,
		Longitude: lon,
		Geohash:   geohash.Encode(lat, lon),
	}
}
