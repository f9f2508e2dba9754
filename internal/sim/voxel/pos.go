package voxel

// Pos is a grid-aligned block coordinate.
type Pos struct {
	X int
	Y int
	Z int
}

func (p Pos) ToArray() [3]int { return [3]int{p.X, p.Y, p.Z} }

func PosFromArray(a [3]int) Pos { return Pos{X: a[0], Y: a[1], Z: a[2]} }

func (p Pos) Add(d Pos) Pos { return Pos{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z} }

func (p Pos) Down() Pos { return Pos{X: p.X, Y: p.Y - 1, Z: p.Z} }

func (p Pos) Up() Pos { return Pos{X: p.X, Y: p.Y + 1, Z: p.Z} }

// Less orders positions by y, then z, then x.
func (p Pos) Less(o Pos) bool {
	if p.Y != o.Y {
		return p.Y < o.Y
	}
	if p.Z != o.Z {
		return p.Z < o.Z
	}
	return p.X < o.X
}

// Horizontal lists the four horizontal offsets in the fixed order used for flow decisions.
var Horizontal = [4]Pos{
	{X: -1},
	{X: 1},
	{Z: -1},
	{Z: 1},
}

// Faces lists all six face offsets: the horizontal ones, then up, then down.
var Faces = [6]Pos{
	{X: -1},
	{X: 1},
	{Z: -1},
	{Z: 1},
	{Y: 1},
	{Y: -1},
}

func Manhattan(a, b Pos) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y) + absInt(a.Z-b.Z)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func floorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
