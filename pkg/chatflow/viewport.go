package chatflow

// Point is a position in client (screen) coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is the canvas element's client rectangle.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the canvas transform: where the canvas sits on screen and
// how it is panned and zoomed.
type Viewport struct {
	Bounds Bounds  `json:"bounds"`
	PanX   float64 `json:"panX"`
	PanY   float64 `json:"panY"`
	// Zoom is the scale factor; values <= 0 are treated as 1.
	Zoom float64 `json:"zoom"`
}

// Project converts a client point into flow coordinates, so that a node
// created there lands under the cursor whatever the pan and zoom.
func (v Viewport) Project(p Point) Position {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return Position{
		X: (p.X - v.Bounds.Left - v.PanX) / zoom,
		Y: (p.Y - v.Bounds.Top - v.PanY) / zoom,
	}
}
