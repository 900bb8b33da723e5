package dnsname

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/httptim/rednet-core/internal/peers"
	"github.com/httptim/rednet-core/internal/transport"
)

var ErrDomainUnresolved = errors.New("dnsname: domain could not be resolved")

// Config bundles the DNS Core timing parameters (spec.md §6).
type Config struct {
	QueryTimeout         time.Duration
	MaxRetries           int
	PropagationDelay     time.Duration
	VerificationTimeout  time.Duration
}

// Service implements DNS Core's lookup/register/responder operations
// (spec.md §4.3) atop a transport.Bus, the local Registry, the Cache,
// and the peers.Directory for authenticity checks.
type Service struct {
	selfID  int
	bus     transport.Bus
	cfg     Config
	cache   *Cache
	reg     *Registry
	dir     *peers.Directory
	logger  *slog.Logger
	maxLen  int
}

// NewService wires the DNS Core components together.
func NewService(selfID int, bus transport.Bus, cfg Config, cache *Cache, reg *Registry, dir *peers.Directory, maxDomainLength int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{selfID: selfID, bus: bus, cfg: cfg, cache: cache, reg: reg, dir: dir, maxLen: maxDomainLength, logger: logger}
}

// Register registers domain (optionally with target, for aliases) and,
// on success, broadcasts DNS_REGISTER (spec.md §4.3).
func (s *Service) Register(ctx context.Context, domain, target string, now time.Time) (Record, error) {
	parsed, err := Parse(domain, s.maxLen)
	if err != nil {
		return Record{}, err
	}
	rec, err := s.reg.Register(parsed, target, now)
	if err != nil {
		return Record{}, err
	}

	_ = s.bus.Broadcast(ctx, ProtocolDNS, transport.Envelope{
		Type:     MsgDNSRegister,
		SenderID: s.selfID,
		TS:       now,
		Protocol: ProtocolDNS,
		Payload: RegisterPayload{
			Domain:  rec.Domain,
			Target:  rec.Target,
			OwnerID: rec.OwnerID,
			TS:      now,
		},
	})
	return rec, nil
}

// Lookup resolves domain to its owning node, following spec.md §4.3's
// four-step algorithm: cache, verified-computer-domain fast path,
// broadcast query with retries, earliest-ts authentic winner.
func (s *Service) Lookup(ctx context.Context, domain string, now time.Time) (CacheEntry, error) {
	if entry, ok := s.cache.Get(domain); ok {
		return entry, nil
	}

	parsed, err := Parse(domain, s.maxLen)
	if err != nil {
		return CacheEntry{}, err
	}

	if parsed.Kind == KindComputer {
		if s.verify(ctx, parsed.NodeID) {
			entry := s.cache.Put(domain, parsed.NodeID, KindComputer, "", now)
			return entry, nil
		}
	}

	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.cfg.PropagationDelay):
			case <-ctx.Done():
				return CacheEntry{}, ctx.Err()
			}
		}

		resp, ok := s.query(ctx, domain)
		if ok {
			entry := s.cache.Put(domain, resp.OwnerID, resp.Kind, resp.Target, now)
			return entry, nil
		}
	}

	return CacheEntry{}, fmt.Errorf("%w: %s", ErrDomainUnresolved, domain)
}

// verify performs a ping/pong round-trip to check that nodeID is
// reachable, used to fast-path computer-domain resolution (spec.md
// §4.3 step 2).
func (s *Service) verify(ctx context.Context, nodeID int) bool {
	nonce := rand.Int63()
	_ = s.bus.Send(ctx, nodeID, ProtocolDNS, transport.Envelope{
		Type: MsgPing, SenderID: s.selfID, Protocol: ProtocolDNS,
		Payload: PingPayload{Nonce: nonce, TS: time.Now()},
	})

	deadline := time.Now().Add(s.cfg.VerificationTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		env, ok, err := s.bus.Receive(ctx, ProtocolDNS, remaining)
		if err != nil || !ok {
			return false
		}
		if err := transport.ValidateEnvelope(env, time.Now()); err != nil {
			continue
		}
		if env.Type != MsgPong {
			continue
		}
		pong, ok := env.Payload.(PongPayload)
		if ok && pong.Nonce == nonce && env.SenderID == nodeID {
			return true
		}
	}
}

// query broadcasts DNS_QUERY and gathers responses for up to
// QueryTimeout, discarding inauthentic ones and choosing the
// earliest-ts authentic response (spec.md §4.3 step 4).
func (s *Service) query(ctx context.Context, domain string) (ResponsePayload, bool) {
	_ = s.bus.Broadcast(ctx, ProtocolDNS, transport.Envelope{
		Type: MsgDNSQuery, SenderID: s.selfID, Protocol: ProtocolDNS,
		Payload: QueryPayload{Domain: domain},
	})

	deadline := time.Now().Add(s.cfg.QueryTimeout)
	var best *ResponsePayload

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		env, ok, err := s.bus.Receive(ctx, ProtocolDNS, remaining)
		if err != nil {
			break
		}
		if !ok {
			break
		}
		if err := transport.ValidateEnvelope(env, time.Now()); err != nil {
			continue
		}
		if env.Type != MsgDNSResponse {
			continue
		}
		resp, ok := env.Payload.(ResponsePayload)
		if !ok || resp.Domain != domain {
			continue
		}
		if !s.authentic(env.SenderID, resp) {
			continue
		}
		if best == nil || resp.TS.Before(best.TS) {
			r := resp
			best = &r
		}
	}

	if best == nil {
		return ResponsePayload{}, false
	}
	return *best, true
}

// authentic implements spec.md §4.3's authenticity rule: the sender is
// either the claimed owner or a known server-kind peer.
func (s *Service) authentic(senderID int, resp ResponsePayload) bool {
	if senderID == resp.OwnerID {
		return true
	}
	if p, ok := s.dir.Get(senderID); ok && p.Kind == peers.KindServer {
		return true
	}
	return false
}
