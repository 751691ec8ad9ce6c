package gocbcfg

import (
	"context"
	"sync"
)

// configPublisher fans accepted ClusterConfig snapshots out to subscribers.
// Publishing only enqueues onto per-subscriber queues, so the provider's
// state serializer is never held across a delivery and a slow subscriber
// cannot stall the others. Every subscriber observes the snapshots in
// acceptance order; there is no replay for late subscribers.
type configPublisher struct {
	lock     sync.Mutex
	closed   bool
	watchers []*configWatcher
}

type configWatcher struct {
	lock      sync.Mutex
	wait      *sync.Cond
	pending   []*ClusterConfig
	draining  bool
	cancelled bool

	// cancelCh unblocks an in-flight delivery when the subscriber goes away,
	// exitCh marks the delivery goroutine as finished.
	cancelCh chan struct{}
	exitCh   chan struct{}
	outCh    chan *ClusterConfig
}

func newConfigPublisher() *configPublisher {
	return &configPublisher{}
}

// Subscribe registers a new subscriber. The returned channel closes once the
// context is cancelled or the publisher shuts down; a shutdown still delivers
// everything that was already accepted.
func (p *configPublisher) Subscribe(ctx context.Context) <-chan *ClusterConfig {
	w := &configWatcher{
		cancelCh: make(chan struct{}),
		exitCh:   make(chan struct{}),
		outCh:    make(chan *ClusterConfig, 1),
	}
	w.wait = sync.NewCond(&w.lock)

	p.lock.Lock()
	if p.closed {
		p.lock.Unlock()
		close(w.outCh)
		return w.outCh
	}
	p.watchers = append(p.watchers, w)
	p.lock.Unlock()

	go w.deliverThread()
	go func() {
		select {
		case <-ctx.Done():
			p.unsubscribe(w)
		case <-w.exitCh:
		}
	}()

	return w.outCh
}

// Publish enqueues the snapshot for every current subscriber. Callers
// serialize Publish invocations; the per-watcher queues preserve that order.
func (p *configPublisher) Publish(config *ClusterConfig) {
	p.lock.Lock()
	for _, w := range p.watchers {
		w.enqueue(config)
	}
	p.lock.Unlock()
}

// Close stops accepting new snapshots and closes every subscription once its
// already queued snapshots have been delivered.
func (p *configPublisher) Close() {
	p.lock.Lock()
	watchers := p.watchers
	p.watchers = nil
	p.closed = true
	p.lock.Unlock()

	for _, w := range watchers {
		w.drain()
	}
}

func (p *configPublisher) unsubscribe(w *configWatcher) {
	p.lock.Lock()
	for i, ow := range p.watchers {
		if ow == w {
			p.watchers = append(p.watchers[:i], p.watchers[i+1:]...)
			break
		}
	}
	p.lock.Unlock()

	w.cancel()
}

func (w *configWatcher) enqueue(config *ClusterConfig) {
	w.lock.Lock()
	if !w.draining && !w.cancelled {
		w.pending = append(w.pending, config)
	}
	w.lock.Unlock()

	w.wait.Broadcast()
}

func (w *configWatcher) drain() {
	w.lock.Lock()
	w.draining = true
	w.lock.Unlock()

	w.wait.Broadcast()
}

func (w *configWatcher) cancel() {
	w.lock.Lock()
	if w.cancelled {
		w.lock.Unlock()
		return
	}
	w.cancelled = true
	close(w.cancelCh)
	w.lock.Unlock()

	w.wait.Broadcast()
}

func (w *configWatcher) deliverThread() {
	defer close(w.exitCh)

	for {
		w.lock.Lock()
		for len(w.pending) == 0 && !w.draining && !w.cancelled {
			w.wait.Wait()
		}
		if w.cancelled || (w.draining && len(w.pending) == 0) {
			w.lock.Unlock()
			close(w.outCh)
			return
		}
		next := w.pending[0]
		w.pending = w.pending[1:]
		w.lock.Unlock()

		select {
		case w.outCh <- next:
		case <-w.cancelCh:
			close(w.outCh)
			return
		}
	}
}
