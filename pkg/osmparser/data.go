package osmparser

import (
	"strconv"
	"strings"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/paulmach/osm"
)

var (
	// https://wiki.openstreetmap.org/wiki/OSM_tags_for_routing/Telenav
	acceptedHighway = map[string]struct{}{
		"motorway":       {},
		"motorway_link":  {},
		"trunk":          {},
		"trunk_link":     {},
		"primary":        {},
		"primary_link":   {},
		"secondary":      {},
		"secondary_link": {},
		"tertiary":       {},
		"tertiary_link":  {},
		"residential":    {},
		"service":        {},
		"road":           {},
		"track":          {},
		"unclassified":   {},
		"living_street":  {},
	}

	// way tags copied into the opt_tags column
	keptTags = []string{"junction", "ref", "maxspeed", "lanes", "access", "surface", "service"}
)

func isRestricted(value string) bool {
	return value == "no" || value == "restricted"
}

// getReversedOneWay. forward/backward closed to vehicles
func getReversedOneWay(tags osm.Tags) (bool, bool) {
	forward := isRestricted(tags.Find("vehicle:forward")) || isRestricted(tags.Find("motor_vehicle:forward"))
	backward := isRestricted(tags.Find("vehicle:backward")) || isRestricted(tags.Find("motor_vehicle:backward"))
	return forward, backward
}

// wayDirection. oneWay and reversed (node order flipped, oneway=-1)
func wayDirection(tags osm.Tags) (oneWay bool, reversed bool) {
	noForward, noBackward := getReversedOneWay(tags)
	switch tags.Find("oneway") {
	case "yes", "1", "true":
		oneWay = true
	case "-1", "reverse":
		oneWay, reversed = true, true
	case "no", "false", "0":
		return false, false
	}
	if tags.Find("junction") == "roundabout" || tags.Find("highway") == "motorway" {
		oneWay = true
	}
	if noForward && !noBackward {
		oneWay, reversed = true, true
	} else if noBackward && !noForward {
		oneWay = true
	}
	return oneWay, reversed
}

func acceptOsmWay(way *osm.Way) bool {
	if len(way.Nodes) < 2 {
		return false
	}
	if way.Tags.Find("area") == "yes" {
		return false
	}
	if access := way.Tags.Find("access"); access == "no" || access == "private" {
		return false
	}
	highway := way.Tags.Find("highway")
	if highway != "" {
		_, ok := acceptedHighway[highway]
		return ok
	}
	return way.Tags.Find("junction") != ""
}

func isYes(v string) bool {
	return v != "" && v != "no" && v != "0" && v != "false"
}

func structType(tags osm.Tags) pkg.StructType {
	if isYes(tags.Find("tunnel")) {
		return pkg.STRUCT_TUNNEL
	}
	if isYes(tags.Find("bridge")) {
		return pkg.STRUCT_BRIDGE
	}
	return pkg.STRUCT_DEFAULT
}

// layer. osm layer tag, invalid values count as 0
func layer(tags osm.Tags) int8 {
	v, err := strconv.Atoi(strings.TrimSpace(tags.Find("layer")))
	if err != nil {
		return 0
	}
	if v > 127 {
		return 127
	}
	if v < -128 {
		return -128
	}
	return int8(v)
}

func wayTags(tags osm.Tags) map[string]string {
	var m map[string]string
	for _, k := range keptTags {
		v := tags.Find(k)
		if v == "" {
			continue
		}
		if m == nil {
			m = make(map[string]string, len(keptTags))
		}
		// comma separates opt_tags entries
		m[k] = strings.ReplaceAll(v, ",", ";")
	}
	return m
}
