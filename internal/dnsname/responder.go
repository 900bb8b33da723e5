package dnsname

import (
	"context"
	"log/slog"
	"time"

	"github.com/httptim/rednet-core/internal/transport"
)

// Responder is the long-running task that answers DNS_QUERY and PING
// messages from the local registry, and records observed DNS_REGISTER
// announcements into the registry's alias bookkeeping (spec.md §4.3
// "Responder").
type Responder struct {
	selfID int
	bus    transport.Bus
	reg    *Registry
	logger *slog.Logger
}

// NewResponder creates a responder for this node's registry.
func NewResponder(selfID int, bus transport.Bus, reg *Registry, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{selfID: selfID, bus: bus, reg: reg, logger: logger}
}

// Run processes DNS protocol messages until ctx is cancelled. It is
// meant to be started as a single goroutine by the composition root.
func (r *Responder) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		env, ok, err := r.bus.Receive(ctx, ProtocolDNS, time.Second)
		if err != nil {
			return
		}
		if !ok {
			continue
		}
		if err := transport.ValidateEnvelope(env, time.Now()); err != nil {
			if r.logger != nil {
				r.logger.Debug("dnsname: dropped envelope failing integrity check", "err", err, "sender", env.SenderID)
			}
			continue
		}
		r.handle(ctx, env)
	}
}

func (r *Responder) handle(ctx context.Context, env transport.Envelope) {
	switch env.Type {
	case MsgDNSQuery:
		q, ok := env.Payload.(QueryPayload)
		if !ok {
			return
		}
		rec, found := r.reg.Lookup(q.Domain)
		if !found {
			return
		}
		_ = r.bus.Broadcast(ctx, ProtocolDNS, transport.Envelope{
			Type: MsgDNSResponse, SenderID: r.selfID, Protocol: ProtocolDNS,
			Payload: ResponsePayload{
				Domain: rec.Domain, OwnerID: rec.OwnerID, Kind: rec.Kind,
				Target: rec.Target, TS: time.Now(),
			},
		})

	case MsgPing:
		p, ok := env.Payload.(PingPayload)
		if !ok {
			return
		}
		_ = r.bus.Send(ctx, env.SenderID, ProtocolDNS, transport.Envelope{
			Type: MsgPong, SenderID: r.selfID, Protocol: ProtocolDNS,
			Payload: PongPayload{Nonce: p.Nonce, TS: time.Now()},
		})

	case MsgDNSRegister:
		reg, ok := env.Payload.(RegisterPayload)
		if !ok {
			return
		}
		kind := KindAlias
		if reg.Target == "" {
			kind = KindComputer
		}
		r.reg.ObserveExternal(Record{
			Domain: reg.Domain, Kind: kind, OwnerID: reg.OwnerID,
			Target: reg.Target, RegisteredAt: reg.TS,
		})
	}
}
