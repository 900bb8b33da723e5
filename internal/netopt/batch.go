package netopt

import (
	"context"
	"sync"
	"time"

	"github.com/httptim/rednet-core/internal/transport"
)

const MsgBatch = "batch"

// BatchEnvelope is the wire shape for a flushed batch (spec.md §6).
type BatchEnvelope struct {
	Messages []transport.Envelope
}

// Batcher accumulates small, non-urgent messages to the same
// destination and flushes them as a single batch envelope once
// batchTimeout elapses or batchSize/maxBatchSizeBytes is reached
// (spec.md §4.2).
type Batcher struct {
	bus      transport.Bus
	protocol string

	batchSize  int
	maxBytes   int
	timeout    time.Duration
	sizeOf     func(transport.Envelope) int

	mu      sync.Mutex
	byDest  map[int]*pendingBatch
}

type pendingBatch struct {
	messages []transport.Envelope
	bytes    int
	timer    *time.Timer
}

// NewBatcher creates a batcher flushing onto bus under protocol.
// sizeOf estimates an envelope's serialized byte size; pass nil to use
// a constant per-message estimate.
func NewBatcher(bus transport.Bus, protocol string, batchSize, maxBytes int, timeout time.Duration, sizeOf func(transport.Envelope) int) *Batcher {
	if sizeOf == nil {
		sizeOf = func(transport.Envelope) int { return 64 }
	}
	return &Batcher{
		bus: bus, protocol: protocol, batchSize: batchSize, maxBytes: maxBytes,
		timeout: timeout, sizeOf: sizeOf, byDest: map[int]*pendingBatch{},
	}
}

// Add queues env for destID, flushing immediately if the batch is now
// full by count or by byte budget (spec.md §4.2 "maxBatchSize bytes").
// Per-destination batched messages preserve the order they were added
// (spec.md §5).
func (b *Batcher) Add(ctx context.Context, destID int, env transport.Envelope) {
	b.mu.Lock()
	pb, ok := b.byDest[destID]
	if !ok {
		pb = &pendingBatch{}
		b.byDest[destID] = pb
		pb.timer = time.AfterFunc(b.timeout, func() { b.flush(ctx, destID) })
	}
	pb.messages = append(pb.messages, env)
	pb.bytes += b.sizeOf(env)

	full := len(pb.messages) >= b.batchSize || (b.maxBytes > 0 && pb.bytes >= b.maxBytes)
	b.mu.Unlock()

	if full {
		b.flush(ctx, destID)
	}
}

// flush sends the accumulated batch for destID as a single envelope,
// if anything is pending. Safe to call concurrently (e.g. from a timer
// firing racing with a full-batch flush); only the first caller to
// observe pending messages does the send.
func (b *Batcher) flush(ctx context.Context, destID int) {
	b.mu.Lock()
	pb, ok := b.byDest[destID]
	if !ok || len(pb.messages) == 0 {
		b.mu.Unlock()
		return
	}
	messages := pb.messages
	pb.timer.Stop()
	delete(b.byDest, destID)
	b.mu.Unlock()

	_ = b.bus.Send(ctx, destID, b.protocol, transport.Envelope{
		Type: MsgBatch, TS: time.Now(), Protocol: b.protocol,
		Payload: BatchEnvelope{Messages: messages},
	})
}

// Unpack expands a batch envelope back into its ordered messages.
// Non-batch envelopes are returned as a single-element slice.
func Unpack(env transport.Envelope) []transport.Envelope {
	batch, ok := env.Payload.(BatchEnvelope)
	if !ok {
		return []transport.Envelope{env}
	}
	return batch.Messages
}
