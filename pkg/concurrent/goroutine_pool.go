package concurrent

import (
	"errors"
	"sync"
	"time"
)

var ErrScheduleTimeout = errors.New("schedule error: timed out")

// GoroutinePool. fixed-size goroutine pool used by the websocket server to
// handle netpoll events without a new goroutine per request.
// ref: https://github.com/gobwas/ws-examples/blob/master/src/gopool/pool.go
type GoroutinePool struct {
	sem  chan struct{}
	work chan func()

	closeOnce sync.Once
	done      chan struct{}
}

// NewGoroutinePool. size = max goroutines, queue = task queue length
func NewGoroutinePool(size, queue int) *GoroutinePool {
	if size <= 0 {
		size = 1
	}
	return &GoroutinePool{
		sem:  make(chan struct{}, size),
		work: make(chan func(), queue),
		done: make(chan struct{}),
	}
}

// Spawn. starts n goroutines up front
func (p *GoroutinePool) Spawn(n int) {
	if n > cap(p.sem) {
		n = cap(p.sem)
	}
	for i := 0; i < n; i++ {
		p.sem <- struct{}{}
		go p.worker(nil)
	}
}

// Schedule. blocks until a goroutine or queue slot is free
func (p *GoroutinePool) Schedule(task func()) {
	p.schedule(task, nil)
}

// ScheduleTimeout. Schedule that gives up after timeout
func (p *GoroutinePool) ScheduleTimeout(timeout time.Duration, task func()) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	return p.schedule(task, timer.C)
}

func (p *GoroutinePool) schedule(task func(), timeout <-chan time.Time) error {
	select {
	case <-p.done:
		return errors.New("schedule error: pool closed")
	case <-timeout:
		return ErrScheduleTimeout
	case p.work <- task:
		return nil
	case p.sem <- struct{}{}:
		go p.worker(task)
		return nil
	}
}

func (p *GoroutinePool) worker(task func()) {
	defer func() { <-p.sem }()

	if task != nil {
		task()
	}
	for {
		select {
		case <-p.done:
			return
		case task := <-p.work:
			task()
		}
	}
}

func (p *GoroutinePool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}
