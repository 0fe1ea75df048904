package exclusion

import (
	"strings"
	"testing"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/stretchr/testify/assert"
)

func mustParse(t *testing.T, s string) int64 {
	t.Helper()
	v, err := ParseTime(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return v
}

func TestSettingIsActive(t *testing.T) {
	const diff = pkg.DEFAULT_LOCAL_UTC_DIFF_SECONDS

	daily := NewSetting(pkg.EXTYPE_DAILY_TIME_RANGE,
		mustParse(t, "2024-01-01 22:00:00"), mustParse(t, "2024-01-01 23:30:00"))
	overnight := NewSetting(pkg.EXTYPE_DAILY_TIME_RANGE,
		mustParse(t, "2024-01-01 23:00:00"), mustParse(t, "2024-01-02 05:00:00"))
	datetime := NewSetting(pkg.EXTYPE_DATETIME_RANGE,
		mustParse(t, "2024-03-01 08:00:00"), mustParse(t, "2024-03-01 10:00:00"))

	testCases := []struct {
		name    string
		setting Setting
		t       TimePoint
		want    bool
	}{
		{
			name:    "daily inside window on another day",
			setting: daily,
			t:       NewTimePoint(mustParse(t, "2025-06-15 22:30:00"), true),
			want:    true,
		},
		{
			name:    "daily outside window",
			setting: daily,
			t:       NewTimePoint(mustParse(t, "2025-06-15 21:59:59"), true),
			want:    false,
		},
		{
			name:    "daily utc time shifted by local diff",
			setting: daily,
			t:       NewTimePoint(mustParse(t, "2025-06-15 14:30:00"), false),
			want:    true,
		},
		{
			name:    "overnight window after midnight",
			setting: overnight,
			t:       NewTimePoint(mustParse(t, "2025-06-15 02:00:00"), true),
			want:    true,
		},
		{
			name:    "overnight window midday",
			setting: overnight,
			t:       NewTimePoint(mustParse(t, "2025-06-15 12:00:00"), true),
			want:    false,
		},
		{
			name:    "datetime inside",
			setting: datetime,
			t:       NewTimePoint(mustParse(t, "2024-03-01 09:00:00"), true),
			want:    true,
		},
		{
			name:    "datetime next day",
			setting: datetime,
			t:       NewTimePoint(mustParse(t, "2024-03-02 09:00:00"), true),
			want:    false,
		},
		{
			name:    "no gps never closes routing",
			setting: Setting{Type: pkg.EXTYPE_NO_GPS},
			t:       NewTimePoint(mustParse(t, "2024-03-02 09:00:00"), true),
			want:    false,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.setting.IsActive(tt.t, diff)
			if got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	seg := datastructure.NewSegment(datastructure.SegmentRecord{
		SegId: 7, FromLat: 1.3, FromLon: 103.8, ToLat: 1.301, ToLon: 103.8,
		WayId: 3, WaySubSeq: 1, FromNodeId: 1, ToNodeId: 2,
	})
	reg := NewRegistry(pkg.DEFAULT_LOCAL_UTC_DIFF_SECONDS)
	now := NewTimePoint(mustParse(t, "2024-03-01 09:00:00"), true)

	assert.False(t, reg.IsSegmentExcluded(&seg, now))

	reg.Set(&seg, Setting{Type: pkg.EXTYPE_ALWAYS})
	assert.True(t, seg.IsExcluded())
	assert.True(t, seg.IsExcludedAlways())
	assert.True(t, reg.IsSegmentExcluded(&seg, now))

	reg.Set(&seg, Setting{Type: pkg.EXTYPE_NO_GPS})
	assert.True(t, seg.IsExcludedNoGps())
	assert.False(t, reg.IsSegmentExcluded(&seg, now))

	reg.Clear(&seg)
	assert.False(t, seg.IsExcluded())
	assert.Equal(t, 0, reg.Len())
}

func TestReadExclusionRoutes(t *testing.T) {
	data := strings.Join([]string{
		"description,exclusion_type,time_point_type,time_from,time_to,bi_dir,lat1,lng1,h1,lat2,lng2,h2,lat3,lng3,h3,lat4,lng4,h4",
		"# comment",
		"tunnel night,2,0,2024-01-01 23:00:00,2024-01-02 05:00:00,1,1.30,103.80,0,1.31,103.80,0,0,0,0,0,0,0",
		"closed,1,0,,,0,1.30,103.80,90,1.30,103.81,400,1.30,103.82,90,0,0,0",
		"nothing,0,0,,,0,1.30,103.80,90,1.30,103.81,90,0,0,0,0,0,0",
		"bad,9,0,,,0,1.30,103.80,90,1.30,103.81,90,0,0,0,0,0,0",
	}, "\n")

	routes, err := ReadExclusionRoutes(strings.NewReader(data))
	assert.Error(t, err)
	assert.Len(t, routes, 2)

	assert.Equal(t, "tunnel night", routes[0].Description)
	assert.Equal(t, pkg.EXTYPE_DAILY_TIME_RANGE, routes[0].Type)
	assert.True(t, routes[0].BiDir)
	assert.Len(t, routes[0].ViaPoints, 2)

	// heading 400 and point 0,0 are ignored
	assert.Equal(t, pkg.EXTYPE_ALWAYS, routes[1].Type)
	assert.Len(t, routes[1].ViaPoints, 2)

	rev := routes[0].ReversedViaPoints()
	assert.Equal(t, 180, rev[0].Heading)
	assert.Equal(t, routes[0].ViaPoints[1].Coord, rev[0].Coord)

	setting, err := routes[0].ToSetting()
	assert.NoError(t, err)
	assert.Equal(t, int64(23*3600), setting.From)
	assert.Equal(t, int64(5*3600), setting.To)

	utcDaily := routes[0]
	utcDaily.TimeType = pkg.TIME_TYPE_UTC
	_, err = utcDaily.ToSetting()
	assert.Error(t, err)
}
