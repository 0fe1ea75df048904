package exclusion

import (
	"fmt"
	"time"

	"github.com/lintang-b-s/roadmatch/pkg"
)

const TIME_LAYOUT = "2006-01-02 15:04:05"

// TimePoint. device data time, Unix 0 means no time.
// Local is true when Unix is local wall clock rather than utc.
type TimePoint struct {
	Unix  int64
	Local bool
}

func NewTimePoint(unix int64, local bool) TimePoint {
	return TimePoint{Unix: unix, Local: local}
}

func (t TimePoint) IsSet() bool {
	return t.Unix != 0
}

// LocalSeconds. local wall clock seconds
func (t TimePoint) LocalSeconds(localUtcDiff int64) int64 {
	if t.Local {
		return t.Unix
	}
	return t.Unix + localUtcDiff
}

// ParseTime. "2006-01-02 15:04:05" as wall clock seconds (no timezone)
func ParseTime(s string) (int64, error) {
	t, err := time.Parse(TIME_LAYOUT, s)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

/*
Setting. exclusion rule for a set of segments.
DAILY_TIME_RANGE: From/To are seconds since midnight, windows crossing midnight wrap.
DATETIME_RANGE: From/To are absolute local wall clock seconds.
*/
type Setting struct {
	Type pkg.ExclusionType
	From int64
	To   int64
}

func NewSetting(exType pkg.ExclusionType, from, to int64) Setting {
	s := Setting{Type: exType, From: from, To: to}
	if exType == pkg.EXTYPE_DAILY_TIME_RANGE {
		s.From = secondOfDay(from)
		s.To = secondOfDay(to)
	}
	return s
}

func secondOfDay(sec int64) int64 {
	d := sec % pkg.SECONDS_PER_DAY
	if d < 0 {
		d += pkg.SECONDS_PER_DAY
	}
	return d
}

// IsActive. the exclusion applies at time t. NO_GPS is never active for routing.
func (s Setting) IsActive(t TimePoint, localUtcDiff int64) bool {
	switch s.Type {
	case pkg.EXTYPE_ALWAYS:
		return true
	case pkg.EXTYPE_DAILY_TIME_RANGE:
		x := secondOfDay(t.LocalSeconds(localUtcDiff))
		if s.From <= s.To {
			return x >= s.From && x <= s.To
		}
		return x >= s.From || x <= s.To
	case pkg.EXTYPE_DATETIME_RANGE:
		x := t.LocalSeconds(localUtcDiff)
		return x >= s.From && x <= s.To
	default:
		return false
	}
}

func (s Setting) String() string {
	switch s.Type {
	case pkg.EXTYPE_DAILY_TIME_RANGE:
		return fmt.Sprintf("daily %02d:%02d:%02d-%02d:%02d:%02d",
			s.From/3600, s.From%3600/60, s.From%60, s.To/3600, s.To%3600/60, s.To%60)
	case pkg.EXTYPE_DATETIME_RANGE:
		return fmt.Sprintf("datetime %s-%s",
			time.Unix(s.From, 0).UTC().Format(TIME_LAYOUT), time.Unix(s.To, 0).UTC().Format(TIME_LAYOUT))
	case pkg.EXTYPE_ALWAYS:
		return "always"
	case pkg.EXTYPE_NO_GPS:
		return "no_gps"
	default:
		return "none"
	}
}
