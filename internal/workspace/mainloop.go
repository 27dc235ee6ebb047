package workspace

import (
	"context"
	"sync"
)

// MainLoop is the host's UI-affine execution context: submitted work runs one
// item at a time, in submission order, on the goroutine that called Run.
type MainLoop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
	done    chan struct{}
}

func NewMainLoop() *MainLoop {
	return &MainLoop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Run drains the queue until ctx is done. Work still queued at that point is
// dropped and later submissions fail with ErrLoopStopped.
func (l *MainLoop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			fn()
		}
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.stopped = true
			l.queue = nil
			l.mu.Unlock()
			return nil
		case <-l.wake:
		}
	}
}

// Done is closed once Run has returned.
func (l *MainLoop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn without waiting. It never blocks, so it is safe to call from
// work already running on the loop.
func (l *MainLoop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it. If ctx ends first Do returns
// ctx.Err(), but fn is not cancelled and still runs.
func (l *MainLoop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *MainLoop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}
