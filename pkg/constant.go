package pkg

import "math"

// enum of highway classification, slot numbers follow the segment csv `way_type` column
type HighwayType int8

const (
	HIGHWAY_UNKNOWN HighwayType = 0

	// roads
	HIGHWAY_MOTORWAY     HighwayType = 1
	HIGHWAY_TRUNK        HighwayType = 2
	HIGHWAY_PRIMARY      HighwayType = 3
	HIGHWAY_SECONDARY    HighwayType = 4
	HIGHWAY_TERTIARY     HighwayType = 5
	HIGHWAY_UNCLASSIFIED HighwayType = 6
	HIGHWAY_RESIDENTIAL  HighwayType = 7
	HIGHWAY_SERVICE      HighwayType = 8

	// link roads
	HIGHWAY_MOTORWAY_LINK  HighwayType = 12
	HIGHWAY_TRUNK_LINK     HighwayType = 13
	HIGHWAY_PRIMARY_LINK   HighwayType = 14
	HIGHWAY_SECONDARY_LINK HighwayType = 15
	HIGHWAY_TERTIARY_LINK  HighwayType = 16

	// special road types
	HIGHWAY_LIVING_STREET HighwayType = 20
	HIGHWAY_PEDESTRIAN    HighwayType = 21
	HIGHWAY_TRACK         HighwayType = 22
	HIGHWAY_BUS_GUIDEWAY  HighwayType = 23
	HIGHWAY_RACEWAY       HighwayType = 24
	HIGHWAY_ROAD          HighwayType = 25

	// paths
	HIGHWAY_FOOTWAY   HighwayType = 29
	HIGHWAY_BRIDLEWAY HighwayType = 30
	HIGHWAY_STEPS     HighwayType = 31
	HIGHWAY_PATH      HighwayType = 32

	HIGHWAY_CYCLEWAY HighwayType = 35

	// lifecycle
	HIGHWAY_PROPOSED     HighwayType = 38
	HIGHWAY_CONSTRUCTION HighwayType = 39

	HIGHWAY_TYPE_MAX HighwayType = 42
)

func (h HighwayType) IsLinkRoad() bool {
	return h >= HIGHWAY_MOTORWAY_LINK && h <= HIGHWAY_TERTIARY_LINK
}

func (h HighwayType) Valid() bool {
	return h >= HIGHWAY_UNKNOWN && h < HIGHWAY_TYPE_MAX
}

// GetHighwayType. maps an osm highway=* tag value to a HighwayType
func GetHighwayType(roadType string) HighwayType {
	switch roadType {
	case "motorway":
		return HIGHWAY_MOTORWAY
	case "trunk":
		return HIGHWAY_TRUNK
	case "primary":
		return HIGHWAY_PRIMARY
	case "secondary":
		return HIGHWAY_SECONDARY
	case "tertiary":
		return HIGHWAY_TERTIARY
	case "unclassified":
		return HIGHWAY_UNCLASSIFIED
	case "residential":
		return HIGHWAY_RESIDENTIAL
	case "service":
		return HIGHWAY_SERVICE
	case "motorway_link":
		return HIGHWAY_MOTORWAY_LINK
	case "trunk_link":
		return HIGHWAY_TRUNK_LINK
	case "primary_link":
		return HIGHWAY_PRIMARY_LINK
	case "secondary_link":
		return HIGHWAY_SECONDARY_LINK
	case "tertiary_link":
		return HIGHWAY_TERTIARY_LINK
	case "living_street":
		return HIGHWAY_LIVING_STREET
	case "pedestrian":
		return HIGHWAY_PEDESTRIAN
	case "track":
		return HIGHWAY_TRACK
	case "bus_guideway":
		return HIGHWAY_BUS_GUIDEWAY
	case "raceway":
		return HIGHWAY_RACEWAY
	case "road":
		return HIGHWAY_ROAD
	case "footway":
		return HIGHWAY_FOOTWAY
	case "bridleway":
		return HIGHWAY_BRIDLEWAY
	case "steps":
		return HIGHWAY_STEPS
	case "path":
		return HIGHWAY_PATH
	case "cycleway":
		return HIGHWAY_CYCLEWAY
	case "proposed":
		return HIGHWAY_PROPOSED
	case "construction":
		return HIGHWAY_CONSTRUCTION
	default:
		return HIGHWAY_UNKNOWN
	}
}

// nominal speed (km/h) per HighwayType slot, used by routing weights
var SPEED_PROFILE = [HIGHWAY_TYPE_MAX]int{
	10,                                 // unknown
	90, 85, 65, 55, 40, 25, 25, 15,     // motorway .. service
	10, 10, 10,                         // reserve
	45, 40, 30, 25, 20,                 // links
	10, 10, 10,                         // reserve
	10, 10, 10, 10, 50, 10, 10, 10, 10, // living street .. road, reserve
	10, 10, 10, 10, 10, 10,             // paths
	40, 10, 10,                         // cycleway
	10, 10, 10, 10,                     // lifecycle
}

type StructType int8

const (
	STRUCT_INVALID StructType = -1
	STRUCT_DEFAULT StructType = 0
	STRUCT_BRIDGE  StructType = 1
	STRUCT_TUNNEL  StructType = 2
)

type ExclusionType int8

const (
	EXTYPE_NONE ExclusionType = iota
	EXTYPE_ALWAYS
	EXTYPE_DAILY_TIME_RANGE
	EXTYPE_DATETIME_RANGE
	EXTYPE_NO_GPS

	EXTYPE_MAX_VALID = EXTYPE_NO_GPS
)

type TimeType int8

const (
	TIME_TYPE_LOCAL TimeType = 0
	TIME_TYPE_UTC   TimeType = 1
)

type MatchPriority int8

const (
	MATCH_PRI_BOTH MatchPriority = iota
	MATCH_PRI_ANGLE
	MATCH_PRI_DISTANCE
)

const (
	R_EARTH_METERS        = 6371004.0
	LAT_METERS_PER_DEGREE = 111194.99646

	INF_WEIGHT     float64 = 1e15
	INVALID_WEIGHT         = math.MaxInt

	// tile grid
	TILE_SIZE_METERS   = 200.0
	MIN_TILE_ZOOM      = 14.0
	MAX_TILE_ZOOM      = 24.0
	MIN_INDEXED_LENGTH = 0.1

	REVERSE_SEG_WEIGHT_FACTOR = 1.05

	DEFAULT_LOCAL_UTC_DIFF_SECONDS = 8 * 3600
	SECONDS_PER_DAY                = 24 * 3600

	// route matching
	MAX_MATCH_CANDIDATES = 3
	MAX_ASSIGN_RESULTS   = 4
	MAX_SEGMENT_LEN      = 200.0
)

// tunable thresholds, exported so callers can override them before building the engine
var (
	SAME_WAY_ANGLE_TOLERANCE = 25

	REVERSE_SEARCH_RADIUS      = 60.0
	REVERSE_OPPOSITE_MIN_ANGLE = 170
	REVERSE_SIDE_ANGLE_MIN     = 10
	REVERSE_SIDE_ANGLE_MAX     = 170

	NO_GPS_TUNNEL_ENTRY_METERS = 50.0

	EXCLUSION_ROUTE_RADIUS          = 40.0
	EXCLUSION_ROUTE_ANGLE_TOLERANCE = 35

	VIA_ROUTE_NEARBY_DISTANCE       = 1200.0
	VIA_ROUTE_REVERSED_PROJECTION_M = 10.0

	SIMILAR_ROUTE_MAX_DIRECT_DISTANCE = 1500.0
	SIMILAR_ROUTE_HEADING_TOLERANCE   = 40
	SIMILAR_ROUTE_TIE_DISTANCE        = 0.00003
	SIMILAR_ROUTE_MAX_DISTANCE        = 1e6

	SUSPICIOUS_NEIGHBOUR_MAX_ANGLE = 40
	SUSPICIOUS_POINT_MIN_ANGLE     = 80
	SUSPICIOUS_NEIGHBOUR_MAX_GAP   = int64(180)

	POINT_ROUTE_COARSE_DISTANCE = 400.0
)
