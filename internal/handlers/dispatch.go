package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/httptim/rednet-core/internal/dnsname"
	"github.com/httptim/rednet-core/internal/transport"
)

// BuiltinFunc serves rdnt://<builtin>/<path> requests (external
// collaborator, spec.md §4.8).
type BuiltinFunc func(builtin, reqPath string) (content []byte, contentType string, ok bool)

// Dispatcher resolves a URL to raw bytes, dispatching by scheme/host.
type Dispatcher struct {
	dns      *dnsname.Service
	bus      transport.Bus
	selfID   int
	fsRoot   string
	builtin  BuiltinFunc
	logger   *slog.Logger
	fetchTTL time.Duration
}

// NewDispatcher creates a content dispatcher rooted at fsRoot for local
// filesystem paths, resolving computer domains via dns and fetching
// across nodes over bus.
func NewDispatcher(dns *dnsname.Service, bus transport.Bus, selfID int, fsRoot string, builtin BuiltinFunc, fetchTTL time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{dns: dns, bus: bus, selfID: selfID, fsRoot: fsRoot, builtin: builtin, fetchTTL: fetchTTL, logger: logger}
}

// Fetch resolves rawURL to its raw content and inferred content type.
func (d *Dispatcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(rawURL, "rdnt://"):
		return d.fetchBuiltin(rawURL)
	case isComputerDomainURL(rawURL):
		return d.fetchRemote(ctx, rawURL)
	default:
		return d.fetchLocal(rawURL)
	}
}

func isComputerDomainURL(rawURL string) bool {
	host := rawURL
	if idx := strings.Index(host, "/"); idx >= 0 {
		host = host[:idx]
	}
	return strings.Contains(host, ".comp") && strings.HasSuffix(host, ".rednet")
}

func splitHostPath(rawURL string) (host, reqPath string) {
	if idx := strings.Index(rawURL, "/"); idx >= 0 {
		return rawURL[:idx], rawURL[idx:]
	}
	return rawURL, "/"
}

func (d *Dispatcher) fetchBuiltin(rawURL string) ([]byte, string, error) {
	rest := strings.TrimPrefix(rawURL, "rdnt://")
	builtin, reqPath := splitHostPath(rest)
	if d.builtin == nil {
		return nil, "", ErrPageNotFound
	}
	content, contentType, ok := d.builtin(builtin, reqPath)
	if !ok {
		return nil, "", ErrPageNotFound
	}
	if contentType == "" {
		contentType = string(InferContentType(reqPath))
	}
	return content, contentType, nil
}

func (d *Dispatcher) fetchRemote(ctx context.Context, rawURL string) ([]byte, string, error) {
	domain, reqPath := splitHostPath(rawURL)

	entry, err := d.dns.Lookup(ctx, domain, time.Now())
	if err != nil {
		return nil, "", fmt.Errorf("handlers: resolve %s: %w", domain, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, d.fetchTTL)
	defer cancel()

	env := transport.Envelope{
		Type: MsgFetchRequest, SenderID: d.selfID, Protocol: ProtocolFetch,
		TS: time.Now(), Payload: FetchRequestPayload{Path: reqPath},
	}
	destID := entry.OwnerID
	if err := d.bus.Send(reqCtx, destID, ProtocolFetch, env); err != nil {
		return nil, "", fmt.Errorf("handlers: send fetch request: %w", err)
	}

	for {
		resp, ok, err := d.bus.Receive(reqCtx, ProtocolFetch, d.fetchTTL)
		if err != nil {
			return nil, "", fmt.Errorf("handlers: fetch %s: %w", rawURL, err)
		}
		if !ok {
			return nil, "", fmt.Errorf("handlers: fetch %s: %w", rawURL, context.DeadlineExceeded)
		}
		if resp.Type != MsgFetchResponse || resp.SenderID != destID {
			continue
		}
		payload, ok := resp.Payload.(FetchResponsePayload)
		if !ok {
			continue
		}
		if !payload.Found {
			return nil, "", ErrPageNotFound
		}
		return payload.Content, payload.ContentType, nil
	}
}

func (d *Dispatcher) fetchLocal(rawURL string) ([]byte, string, error) {
	clean := filepath.Join(d.fsRoot, filepath.Clean("/"+rawURL))
	info, err := os.Stat(clean)
	if err != nil {
		return nil, "", ErrPageNotFound
	}
	if info.IsDir() {
		for _, ext := range KnownIndexExtensions {
			candidate := filepath.Join(clean, "index"+ext)
			if data, err := os.ReadFile(candidate); err == nil {
				return data, string(InferContentType(candidate)), nil
			}
		}
		return nil, "", ErrPageNotFound
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, "", ErrPageNotFound
	}
	return data, string(InferContentType(clean)), nil
}

// ServeLocal implements the remote side of fetchRemote: answer a
// FETCH_REQUEST for one of this node's own local filesystem paths.
// Builtin pages are not served through it.
func (d *Dispatcher) ServeLocal(reqPath string) FetchResponsePayload {
	content, contentType, err := d.fetchLocal(reqPath)
	if err != nil {
		return FetchResponsePayload{Found: false, Error: err.Error()}
	}
	return FetchResponsePayload{Found: true, Content: content, ContentType: contentType}
}
