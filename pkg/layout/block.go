package layout

// Point is a coordinate in page space. Y grows downward.
type Point struct {
	X, Y float64
}

// Block is an axis-aligned rectangle in page space.
type Block struct {
	X, Y          float64
	Width, Height float64
}

// Right returns the x coordinate of the right edge.
func (b Block) Right() float64 { return b.X + b.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b Block) Bottom() float64 { return b.Y + b.Height }

// CenterX returns the horizontal center of the block.
func (b Block) CenterX() float64 { return b.X + b.Width/2 }

// CenterY returns the vertical center of the block.
func (b Block) CenterY() float64 { return b.Y + b.Height/2 }

// BottomCenter is the anchor used when an edge leaves a block downward.
func (b Block) BottomCenter() Point { return Point{b.CenterX(), b.Bottom()} }

// TopCenter is the anchor used when an edge enters a block from above.
func (b Block) TopCenter() Point { return Point{b.CenterX(), b.Y} }

// LeftMiddle is the anchor used when an edge enters a block from the left.
func (b Block) LeftMiddle() Point { return Point{b.X, b.CenterY()} }

// Overlaps reports whether b and o share any interior area. Blocks that only
// touch along an edge do not overlap.
func (b Block) Overlaps(o Block) bool {
	return b.X < o.Right() && o.X < b.Right() && b.Y < o.Bottom() && o.Y < b.Bottom()
}
