package shared

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Connection is one pooled connection handle to a host (spec.md §3).
type Connection struct {
	ID        string
	Host      string
	CreatedAt time.Time
	LastUsed  time.Time
	InFlight  bool
}

// ConnectionPool caps concurrent connections per host, reusing idle
// ones and pruning expired ones on access (spec.md §4.5).
type ConnectionPool struct {
	mu           sync.Mutex
	maxPerDomain int
	timeout      time.Duration
	byHost       map[string][]*Connection
}

// NewConnectionPool creates a pool capping maxPerDomain connections per
// host, expiring idle connections after timeout.
func NewConnectionPool(maxPerDomain int, timeout time.Duration) *ConnectionPool {
	return &ConnectionPool{maxPerDomain: maxPerDomain, timeout: timeout, byHost: map[string][]*Connection{}}
}

// GetConnection returns a usable connection for host: pruning expired
// connections first, then reusing an idle one if available, otherwise
// creating a new one up to maxPerDomain, otherwise reusing the least
// recently used connection with its LastUsed bumped (spec.md §4.5).
func (p *ConnectionPool) GetConnection(host string, now time.Time) *Connection {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns := p.pruneExpiredLocked(host, now)

	for _, c := range conns {
		if !c.InFlight {
			c.InFlight = true
			c.LastUsed = now
			return c
		}
	}

	if len(conns) < p.maxPerDomain {
		c := &Connection{ID: uuid.NewString(), Host: host, CreatedAt: now, LastUsed: now, InFlight: true}
		p.byHost[host] = append(conns, c)
		return c
	}

	oldest := conns[0]
	for _, c := range conns[1:] {
		if c.LastUsed.Before(oldest.LastUsed) {
			oldest = c
		}
	}
	oldest.LastUsed = now
	oldest.InFlight = true
	return oldest
}

// Release marks a connection as no longer in flight.
func (p *ConnectionPool) Release(host, connID string, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.byHost[host] {
		if c.ID == connID {
			c.InFlight = false
			c.LastUsed = now
			return
		}
	}
}

func (p *ConnectionPool) pruneExpiredLocked(host string, now time.Time) []*Connection {
	conns := p.byHost[host]
	kept := conns[:0]
	for _, c := range conns {
		if c.InFlight || now.Sub(c.LastUsed) <= p.timeout {
			kept = append(kept, c)
		}
	}
	p.byHost[host] = kept
	return kept
}
