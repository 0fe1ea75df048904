package concurrent

import (
	"runtime"
	"sync"
)

type JobFunc[T any, G any] func(job T) G

// WorkerPool. numWorkers goroutines drain one jobQueue and send each result to results
type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan T
	results    chan G
	wg         sync.WaitGroup
}

func NewWorkerPool[T any, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan T, jobQueueSize),
		results:    make(chan G, jobQueueSize),
	}
}

func (wp *WorkerPool[T, G]) worker(jobFunc JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		res := jobFunc(job)
		wp.results <- res
	}
}

func (wp *WorkerPool[T, G]) Start(jobFunc JobFunc[T, G]) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(jobFunc)
	}
}

func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) AddJob(job T) {
	wp.jobQueue <- job
}

func (wp *WorkerPool[T, G]) CollectResults() chan G {
	return wp.results
}

func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobQueue)
}

// RunJobs. runs jobs on a pool of numWorkers and collects results in no particular order.
// every job has finished when RunJobs returns.
func RunJobs[T any, G any](numWorkers int, jobs []T, jobFunc JobFunc[T, G]) []G {
	wp := NewWorkerPool[T, G](numWorkers, len(jobs))
	wp.Start(jobFunc)
	for _, job := range jobs {
		wp.AddJob(job)
	}
	wp.Close()
	wp.Wait()

	results := make([]G, 0, len(jobs))
	for res := range wp.CollectResults() {
		results = append(results, res)
	}
	return results
}

type IndexRange struct {
	From, To int // [From, To)
}

// SplitRange. splits [0, n) into at most parts disjoint ranges
func SplitRange(n, parts int) []IndexRange {
	if parts <= 0 {
		parts = runtime.NumCPU()
	}
	if n <= 0 {
		return nil
	}
	if parts > n {
		parts = n
	}
	step := (n + parts - 1) / parts
	ranges := make([]IndexRange, 0, parts)
	for from := 0; from < n; from += step {
		to := from + step
		if to > n {
			to = n
		}
		ranges = append(ranges, IndexRange{From: from, To: to})
	}
	return ranges
}

// ParallelRange. calls fn for every index in [0, n), each worker owning a disjoint range.
// fn may only write to locations owned by its index.
func ParallelRange(n, numWorkers int, fn func(i int)) {
	RunJobs(numWorkers, SplitRange(n, numWorkers), func(r IndexRange) struct{} {
		for i := r.From; i < r.To; i++ {
			fn(i)
		}
		return struct{}{}
	})
}
