// Package events implements the process-wide engine event source.
package events

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dkeye/rtcpeer/internal/core"
	"github.com/dkeye/rtcpeer/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultQueueSize = 256

type subKey struct {
	id   domain.ConnID
	kind core.EventKind
}

type item struct {
	ev      core.Event
	barrier chan struct{}
}

// Dispatcher fans engine events out to per-connection subscribers.
// Subscribers are indexed by connection id so an event costs one map lookup.
// A single loop goroutine delivers events in publish order.
type Dispatcher struct {
	queue  chan item
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.RWMutex
	subs map[subKey][]*subscription
}

func NewDispatcher(parent context.Context, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(parent)
	d := &Dispatcher{
		queue:  make(chan item, queueSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		subs:   make(map[subKey][]*subscription),
	}
	go d.loop()
	return d
}

type subscription struct {
	d      *Dispatcher
	key    subKey
	fn     func(core.Event)
	active atomic.Bool
	once   sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.active.Store(false)
		s.d.remove(s)
	})
}

func (d *Dispatcher) Subscribe(id domain.ConnID, kind core.EventKind, fn func(core.Event)) core.Subscription {
	s := &subscription{d: d, key: subKey{id: id, kind: kind}, fn: fn}
	s.active.Store(true)
	d.mu.Lock()
	d.subs[s.key] = append(d.subs[s.key], s)
	d.mu.Unlock()
	return s
}

func (d *Dispatcher) remove(s *subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := d.subs[s.key]
	for i, cur := range list {
		if cur == s {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(d.subs, s.key)
		return
	}
	d.subs[s.key] = list
}

// Publish enqueues ev. It blocks while the queue is full and drops the event
// once the dispatcher is stopped.
func (d *Dispatcher) Publish(ev core.Event) {
	select {
	case d.queue <- item{ev: ev}:
	case <-d.ctx.Done():
		log.Debug().Str("module", "events").Uint64("conn_id", uint64(ev.ConnID)).
			Str("kind", ev.Kind.String()).Msg("dispatcher stopped, event dropped")
	}
}

// Drain waits until every event published before the call has been delivered.
func (d *Dispatcher) Drain(ctx context.Context) error {
	b := make(chan struct{})
	select {
	case d.queue <- item{barrier: b}:
	case <-d.ctx.Done():
		return d.ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-b:
		return nil
	case <-d.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubscriptionCount reports live subscriptions across all connections.
func (d *Dispatcher) SubscriptionCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, list := range d.subs {
		n += len(list)
	}
	return n
}

// Close stops the loop. Queued events are discarded.
func (d *Dispatcher) Close() {
	d.cancel()
	<-d.done
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for {
		select {
		case <-d.ctx.Done():
			log.Info().Str("module", "events").Msg("dispatcher loop done")
			return
		case it := <-d.queue:
			if it.barrier != nil {
				close(it.barrier)
				continue
			}
			d.deliver(it.ev)
		}
	}
}

func (d *Dispatcher) deliver(ev core.Event) {
	d.mu.RLock()
	list := d.subs[subKey{id: ev.ConnID, kind: ev.Kind}]
	snapshot := make([]*subscription, len(list))
	copy(snapshot, list)
	d.mu.RUnlock()

	if len(snapshot) == 0 {
		log.Debug().Str("module", "events").Uint64("conn_id", uint64(ev.ConnID)).
			Str("kind", ev.Kind.String()).Msg("no subscriber, event discarded")
		return
	}
	for _, s := range snapshot {
		if !s.active.Load() {
			continue
		}
		d.call(s, ev)
	}
}

func (d *Dispatcher) call(s *subscription, ev core.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "events").Uint64("conn_id", uint64(ev.ConnID)).
				Str("kind", ev.Kind.String()).Interface("panic", r).Msg("subscriber panicked")
		}
	}()
	s.fn(ev)
}
