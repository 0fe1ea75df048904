package exclusion

import (
	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
)

// Registry. exclusion setting per segment id. not thread safe, writers hold the engine lock.
type Registry struct {
	settings     map[int64]Setting
	localUtcDiff int64
}

func NewRegistry(localUtcDiff int64) *Registry {
	return &Registry{
		settings:     make(map[int64]Setting),
		localUtcDiff: localUtcDiff,
	}
}

func (r *Registry) GetLocalUtcDiff() int64 {
	return r.localUtcDiff
}

func (r *Registry) SetLocalUtcDiff(diff int64) {
	r.localUtcDiff = diff
}

// Set. installs setting on the segment and updates its exclusion bits
func (r *Registry) Set(seg *datastructure.Segment, setting Setting) {
	if setting.Type == pkg.EXTYPE_NONE {
		r.Clear(seg)
		return
	}
	seg.SetExclusion(true, setting.Type == pkg.EXTYPE_ALWAYS, setting.Type == pkg.EXTYPE_NO_GPS)
	r.settings[seg.GetId()] = setting
}

func (r *Registry) Clear(seg *datastructure.Segment) {
	seg.SetExclusion(false, false, false)
	delete(r.settings, seg.GetId())
}

func (r *Registry) Get(segId int64) (Setting, bool) {
	s, ok := r.settings[segId]
	return s, ok
}

func (r *Registry) Len() int {
	return len(r.settings)
}

// SegmentIds. ids of all segments with a setting
func (r *Registry) SegmentIds() []int64 {
	ids := make([]int64, 0, len(r.settings))
	for id := range r.settings {
		ids = append(ids, id)
	}
	return ids
}

// IsSegmentExcluded. NO_GPS never closes a segment for routing
func (r *Registry) IsSegmentExcluded(seg *datastructure.Segment, t TimePoint) bool {
	if !seg.IsExcluded() {
		return false
	}
	if seg.IsExcludedAlways() {
		return true
	}
	setting, ok := r.settings[seg.GetId()]
	if !ok {
		return false
	}
	return setting.IsActive(t, r.localUtcDiff)
}
