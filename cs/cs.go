// Package cs models the coordinate system attached to a voxel grid.
//
// The accessor layer treats it as opaque: it is decoded from the
// container header once, cached, and handed back to callers unchanged.
package cs

// CoordinateSystem describes the spatial reference of a grid.
//
// Name is a short identifier (e.g. "WGS 84 / UTM zone 15N"), WKT the
// full well-known-text definition when available. Either may be empty
// for local/unreferenced grids.
type CoordinateSystem struct {
	Name  string `json:"name,omitempty"`
	Datum string `json:"datum,omitempty"`
	Units string `json:"units,omitempty"`
	WKT   string `json:"wkt,omitempty"`
}

// Unknown is the coordinate system of a grid with no spatial reference.
func Unknown() *CoordinateSystem {
	return &CoordinateSystem{Name: "*unknown"}
}

// IsUnknown reports whether c carries no usable reference.
func (c *CoordinateSystem) IsUnknown() bool {
	return c == nil || c.Name == "" || c.Name == "*unknown"
}

func (c *CoordinateSystem) String() string {
	if c == nil || c.Name == "" {
		return "*unknown"
	}
	return c.Name
}
