package concurrent

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitRange(t *testing.T) {
	testCases := []struct {
		name  string
		n     int
		parts int
		want  []IndexRange
	}{
		{name: "even", n: 6, parts: 3, want: []IndexRange{{0, 2}, {2, 4}, {4, 6}}},
		{name: "uneven", n: 7, parts: 3, want: []IndexRange{{0, 3}, {3, 6}, {6, 7}}},
		{name: "more parts than items", n: 2, parts: 8, want: []IndexRange{{0, 1}, {1, 2}}},
		{name: "empty", n: 0, parts: 4, want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitRange(tc.n, tc.parts))
		})
	}
}

func TestRunJobs(t *testing.T) {
	jobs := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	got := RunJobs(3, jobs, func(j int) int { return j * j })
	sort.Ints(got)
	assert.Equal(t, []int{1, 4, 9, 16, 25, 36, 49, 64, 81, 100}, got)
}

func TestParallelRange(t *testing.T) {
	out := make([]int, 1000)
	ParallelRange(len(out), 4, func(i int) {
		out[i] = i + 1
	})
	for i, v := range out {
		if v != i+1 {
			t.Fatalf("index %d not visited", i)
		}
	}
}

func TestGoroutinePool(t *testing.T) {
	pool := NewGoroutinePool(2, 4)
	defer pool.Close()
	pool.Spawn(1)

	var count int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		pool.Schedule(func() {
			defer wg.Done()
			atomic.AddInt64(&count, 1)
		})
	}
	wg.Wait()
	assert.Equal(t, int64(20), atomic.LoadInt64(&count))
}

func TestGoroutinePoolScheduleTimeout(t *testing.T) {
	pool := NewGoroutinePool(1, 0)
	defer pool.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	pool.Schedule(func() {
		close(started)
		<-release
	})
	<-started

	err := pool.ScheduleTimeout(20*time.Millisecond, func() {})
	assert.ErrorIs(t, err, ErrScheduleTimeout)
	close(release)
}
