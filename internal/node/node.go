// Package node is the composition root for a RedNet Core node: it wires
// every component (C1-C11, plus the admin API and persistence) together
// and supervises their lifecycles, grounded on the teacher's
// server.Runner start/select/shutdown shape.
package node

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/httptim/rednet-core/internal/api"
	"github.com/httptim/rednet-core/internal/config"
	"github.com/httptim/rednet-core/internal/database"
	"github.com/httptim/rednet-core/internal/dnsname"
	"github.com/httptim/rednet-core/internal/dnsresolver"
	"github.com/httptim/rednet-core/internal/handlers"
	"github.com/httptim/rednet-core/internal/loader"
	"github.com/httptim/rednet-core/internal/netopt"
	"github.com/httptim/rednet-core/internal/peers"
	"github.com/httptim/rednet-core/internal/sandbox"
	"github.com/httptim/rednet-core/internal/search/engine"
	"github.com/httptim/rednet-core/internal/search/index"
	"github.com/httptim/rednet-core/internal/shared"
	"github.com/httptim/rednet-core/internal/tab"
	"github.com/httptim/rednet-core/internal/transport"
)

const registryResource = "dns-registry"

// Node owns every live component for one RedNet Core process and the
// goroutines that keep them running.
type Node struct {
	cfg    *config.Config
	logger *slog.Logger
	selfID int

	bus *transport.LoopbackBus
	dir *peers.Directory

	dnsCache     *dnsname.Cache
	dnsRegistry  *dnsname.Registry
	dnsService   *dnsname.Service
	dnsResponder *dnsname.Responder
	resolver     *dnsresolver.Resolver

	deduper       *netopt.Deduper
	batcher       *netopt.Batcher
	deltaSyncer   *netopt.DeltaSyncer
	receiverStore *netopt.ReceiverStore

	connPool  *shared.ConnectionPool
	cookies   *shared.CookieJar
	downloads *shared.Manager
	pageCache *shared.PageCache

	tabs *tab.Manager

	dispatcher     *handlers.Dispatcher
	fetchResponder *handlers.Responder
	processor      *handlers.Processor
	sandbox        *sandbox.Sandbox
	loader         *loader.Loader

	searchIndex *index.Index
	search      *engine.Engine

	db  *database.DB
	api *api.Server

	wg sync.WaitGroup
}

// New builds every component for a node but starts nothing; call Run to
// start the supervised goroutines.
func New(cfg *config.Config, logger *slog.Logger) (*Node, error) {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Node{cfg: cfg, logger: logger, selfID: cfg.Node.ID}

	n.bus = transport.NewLoopbackBus(n.selfID)
	n.dir = peers.New(cfg.Resolver.InitialTrust, cfg.Resolver.MinTrustLevel, cfg.Resolver.TrustDecayRate, time.Duration(cfg.Resolver.BlacklistDurationSec)*time.Second)

	n.dnsCache = dnsname.NewCache(cfg.DNS.MaxCacheEntries, time.Duration(cfg.DNS.CacheTimeoutSeconds)*time.Second)
	n.dnsRegistry = dnsname.New(n.selfID)
	n.dnsService = dnsname.NewService(n.selfID, n.bus, dnsname.Config{
		QueryTimeout:        time.Duration(cfg.DNS.QueryTimeoutSeconds) * time.Second,
		MaxRetries:          cfg.DNS.MaxRetries,
		PropagationDelay:    time.Duration(cfg.DNS.PropagationDelayMillis) * time.Millisecond,
		VerificationTimeout: time.Duration(cfg.DNS.VerificationTimeoutSec) * time.Second,
	}, n.dnsCache, n.dnsRegistry, n.dir, cfg.DNS.MaxDomainLength, logger)
	n.dnsResponder = dnsname.NewResponder(n.selfID, n.bus, n.dnsRegistry, logger)

	n.resolver = dnsresolver.New(dnsresolver.Config{
		MinVoters:          cfg.Resolver.MinVoters,
		VotingTimeout:       time.Duration(cfg.Resolver.VotingTimeoutSeconds) * time.Second,
		MajorityThreshold:  cfg.Resolver.MajorityThreshold,
		MaxDisputesPerHour: cfg.Resolver.MaxDisputesPerHour,
	}, n.bus, n.dir, logger)

	n.deduper = netopt.NewDeduper(time.Duration(cfg.NetOpt.DedupeWindowMillis)*time.Millisecond, cfg.NetOpt.MaxDedupeCache)
	n.batcher = netopt.NewBatcher(n.bus, "registry-sync", cfg.NetOpt.BatchSize, cfg.NetOpt.MaxBatchSizeBytes, time.Duration(cfg.NetOpt.BatchTimeoutMillis)*time.Millisecond, nil)
	n.deltaSyncer = netopt.NewDeltaSyncer()
	n.receiverStore = netopt.NewReceiverStore()

	n.connPool = shared.NewConnectionPool(cfg.Shared.MaxPerDomainConns, time.Duration(cfg.Shared.ConnectionTimeoutSecs)*time.Second)
	n.cookies = shared.NewCookieJar(cfg.Shared.CookiesPath)
	if err := n.cookies.Load(); err != nil {
		logger.Warn("node: failed to load cookie jar", "path", cfg.Shared.CookiesPath, "err", err)
	}
	n.downloads = shared.NewManager(cfg.Shared.DownloadDirectory, cfg.Shared.CompletedDownloadsCap)
	n.pageCache = shared.NewPageCache(cfg.Shared.PageCacheMaxBytes, time.Duration(cfg.Shared.PageCacheTTLSeconds)*time.Second)

	n.tabs = tab.NewManager(20)

	n.dispatcher = handlers.NewDispatcher(n.dnsService, n.bus, n.selfID, cfg.Node.ContentRoot, nil, time.Duration(cfg.DNS.QueryTimeoutSeconds)*time.Second, logger)
	n.fetchResponder = handlers.NewResponder(n.bus, n.selfID, n.dispatcher, n.deduper, logger)
	n.sandbox = sandbox.New(sandbox.Config{})
	n.processor = handlers.NewProcessor(handlers.NewBasicMarkupParser(), n.sandbox)
	n.loader = loader.New(loader.Config{
		MaxConcurrent: cfg.Loader.MaxConcurrent,
		LoadTimeout:   time.Duration(cfg.Loader.LoadTimeoutSeconds) * time.Second,
		MaxRetries:    cfg.Loader.MaxRetries,
	}, n.fetchForLoader, logger)

	n.searchIndex = index.New()
	n.search = engine.New(n.searchIndex, engine.Config{
		MaxResultsPerQuery: cfg.Search.MaxResultsPerQuery,
		CacheTTLSeconds:    cfg.Search.CacheTTLSeconds,
	}, engine.NewResultCache(cfg.Search.CacheMaxEntries, cfg.Search.CacheMaxMemoryBytes))

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("node: open database: %w", err)
	}
	n.db = db
	if err := n.loadPersisted(); err != nil {
		logger.Warn("node: persisted state load incomplete", "err", err)
	}

	if cfg.API.Enabled {
		n.api = api.New(cfg, logger)
		h := n.api.Handler()
		h.SetDNS(n.dnsRegistry, n.dnsCache)
		h.SetResolver(n.resolver)
		h.SetTabs(n.tabs)
		h.SetLoader(n.loader)
		h.SetSearch(n.search)
		h.SetDownloads(n.downloads)
	}

	return n, nil
}

// loadPersisted restores registry/dispute/search state saved by a prior
// run; a node with no prior database has nothing to load and that is
// not an error.
func (n *Node) loadPersisted() error {
	if recs, err := n.db.LoadRegistry(); err == nil {
		for _, rec := range recs {
			n.dnsRegistry.ObserveExternal(dnsname.Record{Domain: rec.Domain, Kind: rec.Kind, OwnerID: rec.OwnerID, Target: rec.Target, RegisteredAt: rec.RegisteredAt})
		}
	} else {
		return fmt.Errorf("load registry: %w", err)
	}
	if docs, err := n.db.LoadDocuments(); err == nil {
		n.searchIndex.LoadFromDocuments(docs)
	} else {
		return fmt.Errorf("load documents: %w", err)
	}
	return nil
}

// fetchForLoader is the Loader's Fetcher: it dispatches the URL,
// classifies and processes the content, and (when the in-flight call
// is routed for a known tab) pushes the fetched content and the
// processed page title straight into that tab, closing the loop
// Loader -> Handlers -> Tab State described
// in spec.md §4.7-§4.8.
func (n *Node) fetchForLoader(ctx context.Context, rawURL string) ([]byte, string, string, error) {
	start := time.Now()
	kind := handlers.InferContentType(rawURL)

	var content []byte
	var contentType string
	if kind != handlers.KindDynamic {
		if entry, ok := n.pageCache.Get(rawURL); ok {
			content, contentType = entry.Content, entry.ContentType
		}
	}
	if content == nil {
		if host, ok := remoteHost(rawURL); ok {
			conn := n.connPool.GetConnection(host, time.Now())
			defer n.connPool.Release(host, conn.ID, time.Now())
		}
		fetched, fetchedType, err := n.dispatcher.Fetch(ctx, rawURL)
		if err != nil {
			return nil, "", "", err
		}
		content, contentType = fetched, fetchedType
		if kind != handlers.KindDynamic {
			n.pageCache.Set(rawURL, content, contentType, time.Now())
		}
	}

	result, err := n.processor.Process(ctx, kind, content, handlers.DynamicRequest{URL: rawURL})
	if err != nil {
		return nil, "", "", err
	}

	title := result.Title
	if title == "" {
		title = rawURL
	}
	if tabID, ok := loader.TabIDFromContext(ctx); ok {
		if t, found := n.tabs.Get(tabID); found {
			t.SetContent(content, contentType, title, time.Since(start))
		}
	}
	return content, contentType, title, nil
}

// Run starts every background component and blocks until ctx is
// cancelled, then shuts everything down gracefully.
func (n *Node) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n.spawn(func() { n.dnsResponder.Run(ctx) })
	n.spawn(func() { n.fetchResponder.Run(ctx) })
	n.spawn(func() { n.loader.Run(ctx) })
	n.spawn(func() { n.runDisputeVoteCollector(ctx) })
	n.spawn(func() { n.runDisputeSweep(ctx) })
	n.spawn(func() { n.runRegistrySync(ctx) })
	n.spawn(func() { n.runPersistenceSync(ctx) })

	var apiErrCh chan error
	if n.api != nil {
		apiErrCh = make(chan error, 1)
		n.logger.Info("node: admin API listening", "addr", n.api.Addr())
		go func() { apiErrCh <- n.api.ListenAndServe() }()
	}

	select {
	case <-ctx.Done():
	case err := <-apiErrCh:
		if err != nil {
			cancel()
			n.wg.Wait()
			return fmt.Errorf("node: admin API: %w", err)
		}
	}

	if n.api != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = n.api.Shutdown(shutdownCtx)
		shutdownCancel()
	}
	n.wg.Wait()

	n.persistNow()
	_ = n.cookies.Save()
	return n.db.Close()
}

func (n *Node) spawn(f func()) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		f()
	}()
}

// runDisputeVoteCollector plays the voting side of the dispute protocol
// for every VOTE_REQUEST this node observes (spec.md §4.4): each
// request is answered with this node's policy vote, and an observed
// VOTE_RESPONSE is recorded against the matching dispute, tallying it
// once enough votes have arrived.
func (n *Node) runDisputeVoteCollector(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		env, ok, err := n.bus.Receive(ctx, dnsresolver.ProtocolDNS, time.Second)
		if err != nil || !ok {
			continue
		}
		if err := transport.ValidateEnvelope(env, time.Now()); err != nil {
			n.logger.Debug("node: dropped dispute envelope failing integrity check", "err", err, "sender", env.SenderID)
			continue
		}
		switch env.Type {
		case dnsresolver.MsgVoteRequest:
			req, ok := env.Payload.(dnsresolver.VoteRequestPayload)
			if !ok {
				continue
			}
			vote := dnsresolver.EvaluateVoteRequest(req)
			_ = n.bus.Send(ctx, env.SenderID, dnsresolver.ProtocolDNS, transport.Envelope{
				Type: dnsresolver.MsgVoteResponse, SenderID: n.selfID, Protocol: dnsresolver.ProtocolDNS,
				TS: time.Now(), Payload: dnsresolver.VoteResponsePayload{DisputeID: req.DisputeID, Vote: vote, Voter: n.selfID},
			})
		case dnsresolver.MsgVoteResponse:
			resp, ok := env.Payload.(dnsresolver.VoteResponsePayload)
			if !ok {
				continue
			}
			if !n.resolver.RecordVote(resp.DisputeID, resp.Voter, resp.Vote, time.Now()) {
				continue
			}
			if d, found := n.resolver.Get(resp.DisputeID); found && len(d.Votes) >= n.cfg.Resolver.MinVoters {
				if _, err := n.resolver.Tally(ctx, d.Domain, time.Now()); err == nil {
					if err := n.db.SaveDispute(d); err != nil {
						n.logger.Warn("node: persist tallied dispute", "id", d.ID, "err", err)
					}
				}
			}
		}
	}
}

// runDisputeSweep periodically expires disputes whose voting window
// elapsed without a tally (spec.md §4.4).
func (n *Node) runDisputeSweep(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(n.cfg.Resolver.VotingTimeoutSeconds) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, d := range n.resolver.ExpireStale(now) {
				n.logger.Info("node: dispute expired without quorum", "domain", d.Domain, "id", d.ID)
			}
		}
	}
}

// runRegistrySync periodically pushes this node's registry state to
// every known peer through the Net Optimizer's delta path (spec.md
// §4.2). The DeltaSyncer keeps one base per resource, not per peer: the
// first sync sends a full snapshot, and later syncs send a delta
// whenever it serializes under half the size of a full resend, so a
// peer first seen after the first sync receives only deltas. A local
// ReceiverStore mirrors the result, the same
// reconciliation a remote peer would perform, for admin introspection.
func (n *Node) runRegistrySync(ctx context.Context) {
	interval := time.Duration(n.cfg.DNS.CacheTimeoutSeconds) * time.Second / 2
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.syncRegistryOnce(ctx)
		}
	}
}

func (n *Node) syncRegistryOnce(ctx context.Context) {
	state := map[string]string{}
	for _, rec := range n.dnsRegistry.All() {
		state[rec.Domain] = fmt.Sprintf("%d|%s|%s", rec.OwnerID, rec.Kind, rec.Target)
	}
	delta, sendFull := n.deltaSyncer.Update(registryResource, state)

	for _, peer := range n.dir.Snapshot() {
		if sendFull {
			n.batcher.Add(ctx, peer.ID, transport.Envelope{
				Type: "REGISTRY_FULL", Protocol: "registry-sync", TS: time.Now(), Payload: state,
			})
			continue
		}
		n.batcher.Add(ctx, peer.ID, transport.Envelope{
			Type: netopt.MsgDelta, Protocol: "registry-sync", TS: time.Now(), Payload: delta,
		})
	}

	if sendFull {
		n.receiverStore.ApplyFull(registryResource, state)
		return
	}
	if _, err := n.receiverStore.ApplyDelta(delta); err != nil {
		n.receiverStore.ApplyFull(registryResource, state)
	}
}

// runPersistenceSync periodically mirrors in-memory state the node
// would otherwise lose on restart into SQLite.
func (n *Node) runPersistenceSync(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.persistNow()
		}
	}
}

func (n *Node) persistNow() {
	for _, rec := range n.dnsRegistry.All() {
		if err := n.db.SaveRegistryRecord(rec); err != nil {
			n.logger.Warn("node: persist registry record", "domain", rec.Domain, "err", err)
		}
	}
	for _, doc := range n.searchIndex.AllDocuments() {
		if err := n.db.SaveDocument(doc); err != nil {
			n.logger.Warn("node: persist search document", "url", doc.URL, "err", err)
		}
	}
	if err := n.cookies.Save(); err != nil {
		n.logger.Warn("node: persist cookie jar", "err", err)
	}
}

// remoteHost returns the host portion of rawURL and true when it names
// a remote computer-domain resource (spec.md §4.8's "<name>.comp<id>.rednet"
// form), the only fetch path that occupies a pooled connection slot.
func remoteHost(rawURL string) (string, bool) {
	host := rawURL
	if idx := strings.Index(host, "/"); idx >= 0 {
		host = host[:idx]
	}
	if strings.Contains(host, ".comp") && strings.HasSuffix(host, ".rednet") {
		return host, true
	}
	return "", false
}
