package domain

// Coordinate is a WGS 84 position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Route is an ordered polyline. Hike routes close back on their start point.
type Route []Coordinate

// Drawable reports whether the route has enough points to render a line.
func (r Route) Drawable() bool {
	return len(r) >= 2
}

// BBox is a geographic bounding box in GeoJSON order.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Contains reports whether c lies inside the box, edges included.
func (b BBox) Contains(c Coordinate) bool {
	return c.Lon >= b.MinLon && c.Lon <= b.MaxLon &&
		c.Lat >= b.MinLat && c.Lat <= b.MaxLat
}

// Place is one candidate returned by the place search service.
type Place struct {
	Name  string      `json:"name"`
	Layer string      `json:"layer"`
	BBox  *BBox       `json:"bbox,omitempty"`
	Point *Coordinate `json:"point,omitempty"`
}
