package transport

import (
	"errors"
	"time"
)

// MaxEnvelopeClockSkew bounds how far into the future or past an
// envelope's timestamp may be before it is rejected as stale or
// far-future (spec.md §6: "validated by age window").
const MaxEnvelopeClockSkew = 30 * time.Second

var (
	ErrEnvelopeMissingType   = errors.New("transport: envelope missing type")
	ErrEnvelopeMissingSender = errors.New("transport: envelope missing senderId")
	ErrEnvelopeStale         = errors.New("transport: envelope timestamp too old")
	ErrEnvelopeFarFuture     = errors.New("transport: envelope timestamp too far in the future")
)

// ValidateEnvelope checks the generic shape every wire envelope must
// satisfy, independent of its type-specific payload: non-empty type, a
// sender id, and a timestamp within MaxEnvelopeClockSkew of now.
func ValidateEnvelope(env Envelope, now time.Time) error {
	if env.Type == "" {
		return ErrEnvelopeMissingType
	}
	if env.SenderID == 0 {
		return ErrEnvelopeMissingSender
	}
	if env.TS.IsZero() {
		return ErrEnvelopeStale
	}
	if now.Sub(env.TS) > MaxEnvelopeClockSkew {
		return ErrEnvelopeStale
	}
	if env.TS.Sub(now) > MaxEnvelopeClockSkew {
		return ErrEnvelopeFarFuture
	}
	return nil
}
