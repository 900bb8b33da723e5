// Package transport implements the broadcast/unicast message bus every
// other RedNet Core component sends envelopes over. It is the lowest
// layer in the stack (spec component C1): best-effort delivery, FIFO
// per (sender, protocol), no ordering guarantee across senders.
package transport

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by Send/Broadcast/Receive once the bus has shut down.
var ErrClosed = errors.New("transport: bus closed")

// Envelope is the opaque unit of delivery. Every message on the wire
// carries {type, ts, senderId}; Payload carries the type-specific body.
type Envelope struct {
	Type     string
	SenderID int
	DestID   int // 0 for broadcast
	Protocol string
	TS       time.Time
	Payload  any
}

// Bus is the interface every node-local component depends on. A real
// deployment would back this with UDP/radio framing; LoopbackBus below
// backs it with in-process channels for single-node tests and demos.
type Bus interface {
	Send(ctx context.Context, destID int, protocol string, env Envelope) error
	Broadcast(ctx context.Context, protocol string, env Envelope) error
	Receive(ctx context.Context, protocol string, timeout time.Duration) (Envelope, bool, error)
	Close() error
}

// LoopbackBus fans broadcast and unicast envelopes out to every
// registered receiver on a given protocol. It never guarantees ordering
// across senders but preserves FIFO per (sender, protocol) by using a
// single buffered channel per (nodeID, protocol) subscription.
type LoopbackBus struct {
	selfID int

	mu     sync.Mutex
	subs   map[string][]chan Envelope // protocol -> subscriber channels
	closed bool
}

// NewLoopbackBus creates a bus identifying outgoing envelopes as sent by selfID.
func NewLoopbackBus(selfID int) *LoopbackBus {
	return &LoopbackBus{
		selfID: selfID,
		subs:   map[string][]chan Envelope{},
	}
}

// Subscribe registers a receiver channel for protocol and returns it.
// Receive reads from a channel created this way internally; components
// needing direct access (e.g. test harnesses wiring multiple nodes)
// may call Subscribe themselves.
func (b *LoopbackBus) Subscribe(protocol string, buffer int) chan Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Envelope, buffer)
	b.subs[protocol] = append(b.subs[protocol], ch)
	return ch
}

// Send delivers env to every subscriber of protocol; in a loopback bus
// there is no real unicast addressing, so destID is carried for
// informational purposes and filtering is left to the receiver.
func (b *LoopbackBus) Send(ctx context.Context, destID int, protocol string, env Envelope) error {
	env.DestID = destID
	return b.publish(protocol, env)
}

// Broadcast delivers env to every subscriber of protocol.
func (b *LoopbackBus) Broadcast(ctx context.Context, protocol string, env Envelope) error {
	env.DestID = 0
	return b.publish(protocol, env)
}

func (b *LoopbackBus) publish(protocol string, env Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if env.SenderID == 0 {
		env.SenderID = b.selfID
	}
	if env.TS.IsZero() {
		env.TS = time.Now()
	}
	for _, ch := range b.subs[protocol] {
		select {
		case ch <- env:
		default:
			// Fire-and-forget: a full subscriber channel means the
			// receiver is behind. Messages may be lost, per contract.
		}
	}
	return nil
}

// Receive cooperatively waits for the next envelope on protocol, up to
// timeout. Each call opens its own temporary subscription so concurrent
// callers on the same protocol each see every published envelope instead
// of competing for one shared channel — publish fans out to every live
// subscriber, and this is one of them for the duration of the call only.
// Returns (env, true, nil) on delivery, (zero, false, nil) on timeout.
func (b *LoopbackBus) Receive(ctx context.Context, protocol string, timeout time.Duration) (Envelope, bool, error) {
	ch, unsubscribe, err := b.subscribeOne(protocol)
	if err != nil {
		return Envelope{}, false, err
	}
	defer unsubscribe()

	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case env, ok := <-ch:
		if !ok {
			return Envelope{}, false, ErrClosed
		}
		return env, true, nil
	case <-timeoutCh:
		return Envelope{}, false, nil
	case <-ctx.Done():
		return Envelope{}, false, ctx.Err()
	}
}

// subscribeOne registers a single-use receiver channel for protocol and
// returns it along with a function that removes it again. The returned
// channel is buffered by 1: publish never blocks on a Receive call that
// hasn't reached its select yet.
func (b *LoopbackBus) subscribeOne(protocol string) (chan Envelope, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, nil, ErrClosed
	}
	ch := make(chan Envelope, 1)
	b.subs[protocol] = append(b.subs[protocol], ch)
	return ch, func() { b.unsubscribe(protocol, ch) }, nil
}

func (b *LoopbackBus) unsubscribe(protocol string, ch chan Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[protocol]
	for i, c := range subs {
		if c == ch {
			b.subs[protocol] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
}

// Close shuts down the bus; further Send/Broadcast calls return ErrClosed.
func (b *LoopbackBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	return nil
}
