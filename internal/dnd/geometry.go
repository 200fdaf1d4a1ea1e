package dnd

// Point is a position in surface coordinates.
type Point struct {
	X int
	Y int
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p translated by -q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rect is an axis-aligned rectangle. Its right edge is X+W and its bottom edge is Y+H.
type Rect struct {
	X int
	Y int
	W int
	H int
}

func (r Rect) Left() int   { return r.X }
func (r Rect) Top() int    { return r.Y }
func (r Rect) Right() int  { return r.X + r.W }
func (r Rect) Bottom() int { return r.Y + r.H }

// Contains reports whether p lies within r. All four edges are inclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left() && p.X <= r.Right() && p.Y >= r.Top() && p.Y <= r.Bottom()
}

// HitTest returns the first descriptor, in layout order, whose rectangle contains p.
func HitTest(p Point, cols []ColumnDescriptor) (ColumnDescriptor, bool) {
	for _, col := range cols {
		if col.Rect.Contains(p) {
			return col, true
		}
	}
	return ColumnDescriptor{}, false
}
