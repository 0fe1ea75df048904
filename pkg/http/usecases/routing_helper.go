package usecases

import (
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
)

// routeCoords. start of the first segment then the end of every segment.
// a disconnected segment (broken route matching) also contributes its start.
func routeCoords(store *da.Store, route []da.SegIndex) []geo.Coordinate {
	coords := make([]geo.Coordinate, 0, len(route)+1)
	prevTo := da.INVALID_NODE
	for _, s := range route {
		seg := store.GetSegment(s)
		if seg.GetFromNode() != prevTo {
			coords = append(coords, seg.GetFrom())
		}
		coords = append(coords, seg.GetTo())
		prevTo = seg.GetToNode()
	}
	return coords
}

func snapToSegment(store *da.Store, seg da.SegIndex, p geo.Coordinate) geo.Coordinate {
	s := store.GetSegment(seg)
	return geo.ProjectPointToLineCoord(s.GetFrom(), s.GetTo(), p)
}

func polylineOf(store *da.Store, route []da.SegIndex) string {
	return geo.PolylineFromCoords(routeCoords(store, route))
}
