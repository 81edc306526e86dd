package validate

import (
	"fmt"
	"math"

	"plan-studio/internal/plan/model"
)

// ============================================================
// Connectivity Validator
// ============================================================

const (
	// pointTolerance is the matching tolerance for endpoints and
	// connection points, in millimeters.
	pointTolerance = 1.0
	// areaTolerance is the relative tolerance between the stored room
	// area and the shoelace area of its corners.
	areaTolerance = 0.01
)

type Kind string

const (
	OpenBoundary             Kind = "OpenBoundary"
	AreaMismatch             Kind = "AreaMismatch"
	DanglingWall             Kind = "DanglingWall"
	UnreciprocatedConnection Kind = "UnreciprocatedConnection"
	OverlappingRooms         Kind = "OverlappingRooms"
	SelfIntersectingPolygon  Kind = "SelfIntersectingPolygon"
	BoundingBoxMismatch      Kind = "BoundingBoxMismatch"
)

type Violation struct {
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject"` // offending room or wall id
	Detail  string `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s(%s): %s", v.Kind, v.Subject, v.Detail)
}

// Validate checks a floor plan against the structural connectivity
// invariants and returns the ordered list of violations. An empty result
// means the plan is valid. The plan is never mutated and nothing is
// repaired; the caller decides whether to reject, retry or persist.
func Validate(plan *model.FloorPlan) []Violation {
	var out []Violation

	for _, room := range plan.Rooms.Elements {
		out = append(out, checkRoom(plan, room)...)
	}
	out = append(out, checkConnections(plan)...)
	out = append(out, checkDanglingWalls(plan)...)
	out = append(out, checkOverlaps(plan)...)
	out = append(out, checkBoundingBox(plan)...)

	return out
}

// ============================================================
// Room checks
// ============================================================

func checkRoom(plan *model.FloorPlan, room model.Room) []Violation {
	var out []Violation

	corners := room.Bounds.Corners
	if len(corners) < 3 {
		out = append(out, Violation{
			Kind:    OpenBoundary,
			Subject: room.ID,
			Detail:  fmt.Sprintf("polygon has %d corners, need at least 3", len(corners)),
		})
		return out
	}

	if selfIntersects(corners) {
		out = append(out, Violation{
			Kind:    SelfIntersectingPolygon,
			Subject: room.ID,
			Detail:  "corner sequence crosses itself",
		})
	}

	// Every edge of the corner walk must be covered by a wall whose
	// endpoints match the edge endpoints, in either direction.
	for i := range corners {
		a := corners[i]
		b := corners[(i+1)%len(corners)]
		if !edgeCovered(plan, a, b) {
			out = append(out, Violation{
				Kind:    OpenBoundary,
				Subject: room.ID,
				Detail:  fmt.Sprintf("edge (%.0f,%.0f)-(%.0f,%.0f) has no covering wall", a.X, a.Y, b.X, b.Y),
			})
		}
	}

	shoelace := polygonArea(corners)
	if relDiff(shoelace, room.Bounds.Area) > areaTolerance {
		out = append(out, Violation{
			Kind:    AreaMismatch,
			Subject: room.ID,
			Detail:  fmt.Sprintf("stored area %.0f, polygon area %.0f", room.Bounds.Area, shoelace),
		})
	}

	return out
}

func edgeCovered(plan *model.FloorPlan, a, b model.Point) bool {
	for _, w := range plan.Walls.Elements {
		if samePoint(w.StartPoint, a) && samePoint(w.EndPoint, b) {
			return true
		}
		if samePoint(w.StartPoint, b) && samePoint(w.EndPoint, a) {
			return true
		}
	}
	return false
}

// ============================================================
// Wall checks
// ============================================================

func checkConnections(plan *model.FloorPlan) []Violation {
	var out []Violation

	for _, w := range plan.Walls.Elements {
		for _, conn := range w.Connections {
			if !pointOnSegment(conn.Point, w.StartPoint, w.EndPoint) {
				out = append(out, Violation{
					Kind:    UnreciprocatedConnection,
					Subject: w.ID,
					Detail:  fmt.Sprintf("connection to %s at (%.0f,%.0f) is off this wall's segment", conn.WallID, conn.Point.X, conn.Point.Y),
				})
				continue
			}

			other, ok := plan.WallByID(conn.WallID)
			if !ok {
				out = append(out, Violation{
					Kind:    UnreciprocatedConnection,
					Subject: w.ID,
					Detail:  fmt.Sprintf("connection references unknown wall %s", conn.WallID),
				})
				continue
			}

			if !hasBackReference(other, w.ID, conn.Point) {
				out = append(out, Violation{
					Kind:    UnreciprocatedConnection,
					Subject: w.ID,
					Detail:  fmt.Sprintf("wall %s has no reciprocal connection at (%.0f,%.0f)", conn.WallID, conn.Point.X, conn.Point.Y),
				})
			}
		}
	}

	return out
}

func hasBackReference(other model.Wall, wallID string, at model.Point) bool {
	for _, conn := range other.Connections {
		if conn.WallID == wallID && samePoint(conn.Point, at) {
			return true
		}
	}
	return false
}

func checkDanglingWalls(plan *model.FloorPlan) []Violation {
	used := make(map[string]bool)
	for _, room := range plan.Rooms.Elements {
		corners := room.Bounds.Corners
		for i := range corners {
			a := corners[i]
			b := corners[(i+1)%len(corners)]
			for _, w := range plan.Walls.Elements {
				if (samePoint(w.StartPoint, a) && samePoint(w.EndPoint, b)) ||
					(samePoint(w.StartPoint, b) && samePoint(w.EndPoint, a)) {
					used[w.ID] = true
				}
			}
		}
		for _, w := range room.Walls {
			used[w.ID] = true
		}
	}

	var out []Violation
	for _, w := range plan.Walls.Elements {
		if !used[w.ID] {
			out = append(out, Violation{
				Kind:    DanglingWall,
				Subject: w.ID,
				Detail:  "wall covers no room edge",
			})
		}
	}
	return out
}

// ============================================================
// Overlap and bounding box checks
// ============================================================

func checkOverlaps(plan *model.FloorPlan) []Violation {
	var out []Violation

	rooms := plan.Rooms.Elements
	for i := 0; i < len(rooms); i++ {
		for j := i + 1; j < len(rooms); j++ {
			if roomsOverlap(rooms[i], rooms[j]) {
				out = append(out, Violation{
					Kind:    OverlappingRooms,
					Subject: rooms[i].ID,
					Detail:  fmt.Sprintf("interior overlaps room %s", rooms[j].ID),
				})
			}
		}
	}
	return out
}

// roomsOverlap samples the vertices and centroid of each room and tests them
// strictly inside the other polygon. Shared boundaries are not overlap.
func roomsOverlap(a, b model.Room) bool {
	for _, p := range samplePoints(a.Bounds.Corners) {
		if pointStrictlyInPolygon(p, b.Bounds.Corners) {
			return true
		}
	}
	for _, p := range samplePoints(b.Bounds.Corners) {
		if pointStrictlyInPolygon(p, a.Bounds.Corners) {
			return true
		}
	}
	return false
}

func samplePoints(corners []model.Point) []model.Point {
	pts := make([]model.Point, 0, len(corners)+1)
	pts = append(pts, corners...)
	pts = append(pts, centroid(corners))
	return pts
}

func checkBoundingBox(plan *model.FloorPlan) []Violation {
	var seen bool
	var tight model.BoundingBox
	tight.MinX, tight.MinY = math.MaxFloat64, math.MaxFloat64
	tight.MaxX, tight.MaxY = -math.MaxFloat64, -math.MaxFloat64

	for _, room := range plan.Rooms.Elements {
		for _, c := range room.Bounds.Corners {
			seen = true
			tight.MinX = math.Min(tight.MinX, c.X)
			tight.MinY = math.Min(tight.MinY, c.Y)
			tight.MaxX = math.Max(tight.MaxX, c.X)
			tight.MaxY = math.Max(tight.MaxY, c.Y)
		}
	}
	if !seen {
		return nil
	}

	bb := plan.Metadata.BoundingBox
	if math.Abs(bb.MinX-tight.MinX) > pointTolerance ||
		math.Abs(bb.MinY-tight.MinY) > pointTolerance ||
		math.Abs(bb.MaxX-tight.MaxX) > pointTolerance ||
		math.Abs(bb.MaxY-tight.MaxY) > pointTolerance {
		return []Violation{{
			Kind:    BoundingBoxMismatch,
			Subject: "metadata.boundingBox",
			Detail: fmt.Sprintf("stored [%.0f %.0f %.0f %.0f], tight [%.0f %.0f %.0f %.0f]",
				bb.MinX, bb.MinY, bb.MaxX, bb.MaxY,
				tight.MinX, tight.MinY, tight.MaxX, tight.MaxY),
		}}
	}
	return nil
}

// ============================================================
// Geometry helpers
// ============================================================

func samePoint(a, b model.Point) bool {
	return math.Abs(a.X-b.X) <= pointTolerance && math.Abs(a.Y-b.Y) <= pointTolerance
}

func relDiff(a, b float64) float64 {
	ref := math.Max(math.Abs(a), math.Abs(b))
	if ref == 0 {
		return 0
	}
	return math.Abs(a-b) / ref
}

// polygonArea is the shoelace formula over the corner ring.
func polygonArea(corners []model.Point) float64 {
	var sum float64
	n := len(corners)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += corners[i].X*corners[j].Y - corners[j].X*corners[i].Y
	}
	return math.Abs(sum) / 2
}

func centroid(corners []model.Point) model.Point {
	var sx, sy float64
	for _, c := range corners {
		sx += c.X
		sy += c.Y
	}
	n := float64(len(corners))
	return model.Point{X: sx / n, Y: sy / n}
}

func pointOnSegment(p, a, b model.Point) bool {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return samePoint(p, a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	px := a.X + t*dx
	py := a.Y + t*dy
	return math.Hypot(p.X-px, p.Y-py) <= pointTolerance
}

// selfIntersects tests every non-adjacent edge pair for a proper crossing.
func selfIntersects(corners []model.Point) bool {
	n := len(corners)
	for i := 0; i < n; i++ {
		a1 := corners[i]
		a2 := corners[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Skip adjacent edges, including the wrap-around pair.
			if j == i || (j+1)%n == i || (i+1)%n == j {
				continue
			}
			b1 := corners[j]
			b2 := corners[(j+1)%n]
			if segmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

func segmentsCross(a1, a2, b1, b2 model.Point) bool {
	d1 := cross(b1, b2, a1)
	d2 := cross(b1, b2, a2)
	d3 := cross(a1, a2, b1)
	d4 := cross(a1, a2, b2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross(o, a, b model.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// pointStrictlyInPolygon is a ray cast with a small inset so points on the
// boundary do not count as inside.
func pointStrictlyInPolygon(p model.Point, corners []model.Point) bool {
	if onPolygonBoundary(p, corners) {
		return false
	}
	inside := false
	n := len(corners)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a := corners[i]
		b := corners[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

func onPolygonBoundary(p model.Point, corners []model.Point) bool {
	n := len(corners)
	for i := 0; i < n; i++ {
		if pointOnSegment(p, corners[i], corners[(i+1)%n]) {
			return true
		}
	}
	return false
}
