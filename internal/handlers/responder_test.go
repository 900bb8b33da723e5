package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/httptim/rednet-core/internal/netopt"
	"github.com/httptim/rednet-core/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startResponder(t *testing.T, r *Responder) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { r.Run(ctx); close(done) }()
	return func() { cancel(); <-done }
}

func TestResponderServesFetchRequest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.txt"), []byte("hello"), 0o644))

	bus := transport.NewLoopbackBus(1)
	disp := NewDispatcher(nil, bus, 1, dir, nil, time.Second, nil)
	r := NewResponder(bus, 1, disp, nil, nil)
	stop := startResponder(t, r)
	defer stop()

	respCh := bus.Subscribe(ProtocolFetch, 4)
	require.NoError(t, bus.Send(context.Background(), 1, ProtocolFetch, transport.Envelope{
		Type: MsgFetchRequest, SenderID: 2, Protocol: ProtocolFetch,
		TS: time.Now(), Payload: FetchRequestPayload{Path: "/page.txt"},
	}))

	for i := 0; i < 2; i++ {
		select {
		case env := <-respCh:
			if env.Type != MsgFetchResponse {
				continue
			}
			payload, ok := env.Payload.(FetchResponsePayload)
			require.True(t, ok)
			assert.True(t, payload.Found)
			assert.Equal(t, "hello", string(payload.Content))
			return
		case <-time.After(time.Second):
			t.Fatal("no response received")
		}
	}
	t.Fatal("never saw a FETCH_RESPONSE envelope")
}

func TestResponderDropsDuplicateRequestsWithinDedupeWindow(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.txt"), []byte("hello"), 0o644))

	bus := transport.NewLoopbackBus(1)
	disp := NewDispatcher(nil, bus, 1, dir, nil, time.Second, nil)
	dedupe := netopt.NewDeduper(time.Minute, 100)
	r := NewResponder(bus, 1, disp, dedupe, nil)

	env := transport.Envelope{
		Type: MsgFetchRequest, SenderID: 2, Protocol: ProtocolFetch,
		TS: time.Now(), Payload: FetchRequestPayload{Path: "/page.txt"},
	}
	r.handle(context.Background(), env)
	before := dedupe.Len()
	r.handle(context.Background(), env)
	assert.Equal(t, before, dedupe.Len(), "duplicate request must not add a second dedupe entry")
}
