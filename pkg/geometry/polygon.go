package geometry

// Edge is an ordered pair of adjacent polygon vertices.
type Edge struct {
	From, To Point2D
}

// ClosedEdges returns the edges of a closed polygon, including the
// wraparound edge from the last vertex back to the first.
// A polygon with fewer than 2 vertices has no edges.
func ClosedEdges(polygon []Point2D) []Edge {
	n := len(polygon)
	if n < 2 {
		return nil
	}

	edges := make([]Edge, n)
	for i := 0; i < n; i++ {
		edges[i] = Edge{From: polygon[i], To: polygon[(i+1)%n]}
	}
	return edges
}

// ClosedLength returns the perimeter of a closed polygon.
func ClosedLength(polygon []Point2D) float64 {
	var total float64
	for _, e := range ClosedEdges(polygon) {
		total += e.From.Distance(e.To)
	}
	return total
}
