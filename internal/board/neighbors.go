package board

var offsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Neighbors returns the up to eight positions surrounding p that lie inside a
// rows x cols grid. Edge cells have five neighbours and corner cells three.
func Neighbors(p Position, rows, cols int) []Position {
	return appendNeighbors(make([]Position, 0, len(offsets)), p, rows, cols)
}

func appendNeighbors(dst []Position, p Position, rows, cols int) []Position {
	for _, o := range offsets {
		r, c := p.Row+o[0], p.Col+o[1]
		if r < 0 || r >= rows || c < 0 || c >= cols {
			continue
		}
		dst = append(dst, Position{Row: r, Col: c})
	}
	return dst
}
