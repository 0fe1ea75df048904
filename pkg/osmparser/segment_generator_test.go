package osmparser

import (
	"context"
	"strings"
	"testing"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/graph"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testOsm = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6">
  <node id="1" lat="-7.7600" lon="110.3700"/>
  <node id="2" lat="-7.7600" lon="110.3710"/>
  <node id="3" lat="-7.7600" lon="110.3720"/>
  <node id="4" lat="-7.7610" lon="110.3720"/>
  <node id="5" lat="-7.7620" lon="110.3720"/>
  <node id="6" lat="-7.7620" lon="110.3730"/>
  <node id="7" lat="-7.7630" lon="110.3730"/>
  <way id="100">
    <nd ref="1"/><nd ref="2"/><nd ref="2"/><nd ref="3"/>
    <tag k="highway" v="primary"/>
    <tag k="name" v="Jalan Solo"/>
    <tag k="ref" v="N15"/>
  </way>
  <way id="101">
    <nd ref="3"/><nd ref="4"/><nd ref="5"/>
    <tag k="highway" v="secondary"/>
    <tag k="oneway" v="-1"/>
    <tag k="bridge" v="yes"/>
    <tag k="layer" v="1"/>
  </way>
  <way id="102">
    <nd ref="5"/><nd ref="6"/>
    <tag k="highway" v="footway"/>
  </way>
  <way id="103">
    <nd ref="5"/><nd ref="6"/><nd ref="99"/>
    <tag k="highway" v="residential"/>
    <tag k="oneway" v="yes"/>
    <tag k="tunnel" v="culvert"/>
  </way>
  <way id="104">
    <nd ref="6"/><nd ref="7"/>
    <tag k="highway" v="service"/>
    <tag k="access" v="private"/>
  </way>
</osm>`

func generate(t *testing.T) []datastructure.SegmentRecord {
	t.Helper()
	ctx := context.Background()
	g := NewSegmentGenerator(zap.NewNop())

	ways := osmxml.New(ctx, strings.NewReader(testOsm))
	if err := g.ScanWays(ways); err != nil {
		t.Fatalf("scan ways: %v", err)
	}
	ways.Close()

	nodes := osmxml.New(ctx, strings.NewReader(testOsm))
	if err := g.ScanNodes(nodes); err != nil {
		t.Fatalf("scan nodes: %v", err)
	}
	nodes.Close()

	assert.Equal(t, 3, g.GetNumWays())
	return g.Records()
}

func TestSegmentGeneratorRecords(t *testing.T) {
	records := generate(t)

	type seg struct {
		wayId      int64
		sub        int16
		fromNodeId int64
		toNodeId   int64
		oneWay     bool
	}
	got := make([]seg, 0, len(records))
	for i, r := range records {
		assert.Equal(t, int64(i+1), r.SegId)
		assert.Equal(t, int16(0), r.SplitSeq)
		assert.Greater(t, r.Length, 0.0)
		got = append(got, seg{r.WayId, r.WaySubSeq, r.FromNodeId, r.ToNodeId, r.OneWay})
	}

	want := []seg{
		{100, 1, 1, 2, false},
		{100, -1, 2, 1, false},
		{100, 2, 2, 3, false},
		{100, -2, 3, 2, false},
		// oneway=-1, urutan node dibalik
		{101, 1, 5, 4, true},
		{101, 2, 4, 3, true},
		// node 99 tidak ada
		{103, 1, 5, 6, true},
	}
	assert.Equal(t, want, got)
}

func TestSegmentGeneratorAttributes(t *testing.T) {
	records := generate(t)

	testCases := []struct {
		name        string
		segId       int64
		wantHighway pkg.HighwayType
		wantName    string
		wantStruct  pkg.StructType
		wantLayer   int8
		wantTags    map[string]string
	}{
		{
			name:        "primary with ref",
			segId:       1,
			wantHighway: pkg.HIGHWAY_PRIMARY,
			wantName:    "Jalan Solo",
			wantStruct:  pkg.STRUCT_DEFAULT,
			wantTags:    map[string]string{"ref": "N15"},
		},
		{
			name:        "bridge layer",
			segId:       5,
			wantHighway: pkg.HIGHWAY_SECONDARY,
			wantStruct:  pkg.STRUCT_BRIDGE,
			wantLayer:   1,
		},
		{
			name:        "tunnel",
			segId:       7,
			wantHighway: pkg.HIGHWAY_RESIDENTIAL,
			wantStruct:  pkg.STRUCT_TUNNEL,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := records[tc.segId-1]
			assert.Equal(t, tc.wantHighway, r.HighwayType)
			assert.Equal(t, tc.wantName, r.WayName)
			assert.Equal(t, tc.wantStruct, r.StructType)
			assert.Equal(t, tc.wantLayer, r.Layer)
			assert.Equal(t, tc.wantTags, r.Tags)
		})
	}
}

func TestSegmentGeneratorCsvRoundTrip(t *testing.T) {
	records := generate(t)

	var sb strings.Builder
	if err := graph.WriteSegmentRecords(&sb, records); err != nil {
		t.Fatalf("write: %v", err)
	}
	read, err := graph.ReadSegmentRecords(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if assert.Len(t, read, len(records)) {
		for i := range records {
			assert.Equal(t, records[i].SegId, read[i].SegId)
			assert.Equal(t, records[i].WaySubSeq, read[i].WaySubSeq)
			assert.Equal(t, records[i].Tags, read[i].Tags)
			assert.InDelta(t, records[i].Length, read[i].Length, 0.01)
		}
	}

	b := graph.NewBuilder(zap.NewNop(), 2, true)
	store, err := b.LoadSegments(read, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	assert.Equal(t, len(records), store.NumberOfSegments())
	_, ok := store.GetNodeById(4)
	assert.True(t, ok)
}

func TestWayDirection(t *testing.T) {
	testCases := []struct {
		name         string
		tags         osm.Tags
		wantOneWay   bool
		wantReversed bool
	}{
		{name: "two way", tags: osm.Tags{{Key: "highway", Value: "primary"}}},
		{name: "oneway yes", tags: osm.Tags{{Key: "oneway", Value: "yes"}}, wantOneWay: true},
		{name: "oneway reverse", tags: osm.Tags{{Key: "oneway", Value: "-1"}}, wantOneWay: true, wantReversed: true},
		{name: "roundabout", tags: osm.Tags{{Key: "junction", Value: "roundabout"}}, wantOneWay: true},
		{name: "motorway", tags: osm.Tags{{Key: "highway", Value: "motorway"}}, wantOneWay: true},
		{name: "motorway explicit two way", tags: osm.Tags{{Key: "highway", Value: "motorway"}, {Key: "oneway", Value: "no"}}},
		{name: "no vehicle forward", tags: osm.Tags{{Key: "vehicle:forward", Value: "no"}}, wantOneWay: true, wantReversed: true},
		{name: "no motor vehicle backward", tags: osm.Tags{{Key: "motor_vehicle:backward", Value: "no"}}, wantOneWay: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			oneWay, reversed := wayDirection(tc.tags)
			assert.Equal(t, tc.wantOneWay, oneWay)
			assert.Equal(t, tc.wantReversed, reversed)
		})
	}
}
