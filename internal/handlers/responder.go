package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/httptim/rednet-core/internal/netopt"
	"github.com/httptim/rednet-core/internal/transport"
)

// Responder answers FETCH_REQUEST envelopes addressed to this node with
// its own Dispatcher, the remote-fetch half of spec.md §4.8.
//
// Incoming requests pass through dedupe (optional) before reaching the
// dispatcher, matching the Net Optimizer's rule that request-shaped
// messages are deduplicated by hash within a window (spec.md §4.2).
type Responder struct {
	bus    transport.Bus
	selfID int
	disp   *Dispatcher
	dedupe *netopt.Deduper
	logger *slog.Logger
}

// NewResponder creates a fetch responder for this node. dedupe may be
// nil to disable request deduplication.
func NewResponder(bus transport.Bus, selfID int, disp *Dispatcher, dedupe *netopt.Deduper, logger *slog.Logger) *Responder {
	return &Responder{bus: bus, selfID: selfID, disp: disp, dedupe: dedupe, logger: logger}
}

// Run polls for FETCH_REQUEST envelopes until ctx is cancelled.
func (r *Responder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		env, ok, err := r.bus.Receive(ctx, ProtocolFetch, time.Second)
		if err != nil || !ok {
			continue
		}
		if err := transport.ValidateEnvelope(env, time.Now()); err != nil {
			if r.logger != nil {
				r.logger.Debug("handlers: dropped envelope failing integrity check", "err", err, "sender", env.SenderID)
			}
			continue
		}
		if env.Type != MsgFetchRequest {
			continue
		}
		r.handle(ctx, env)
	}
}

func (r *Responder) handle(ctx context.Context, env transport.Envelope) {
	req, ok := env.Payload.(FetchRequestPayload)
	if !ok {
		return
	}
	if r.dedupe != nil {
		key := netopt.RequestKey{Type: env.Type, URL: req.Path, Method: "FETCH"}
		if !r.dedupe.Admit(key, time.Now()) {
			if r.logger != nil {
				r.logger.Debug("handlers: dropped duplicate fetch request", "path", req.Path, "sender", env.SenderID)
			}
			return
		}
	}
	resp := r.disp.ServeLocal(req.Path)

	out := transport.Envelope{
		Type: MsgFetchResponse, SenderID: r.selfID, Protocol: ProtocolFetch,
		TS: time.Now(), Payload: resp,
	}
	if r.logger != nil {
		r.logger.Debug("handlers: served fetch request", "path", req.Path, "found", resp.Found)
	}
	_ = r.bus.Send(ctx, env.SenderID, ProtocolFetch, out)
}
