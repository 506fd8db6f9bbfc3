// ABOUTME: Gateway orchestrator wiring store, guard, relay, router and transport.
// ABOUTME: Manages the webhook HTTP server, tsnet listeners, and the sweep loop.

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/2389/club-relay/internal/config"
	"github.com/2389/club-relay/internal/dedupe"
	"github.com/2389/club-relay/internal/draft"
	"github.com/2389/club-relay/internal/registry"
	"github.com/2389/club-relay/internal/relay"
	"github.com/2389/club-relay/internal/router"
	"github.com/2389/club-relay/internal/store"
	"github.com/2389/club-relay/internal/telegram"
	"github.com/2389/club-relay/internal/threadmap"
)

// sweepInterval controls how often expired drafts are removed.
const sweepInterval = time.Hour

// Gateway orchestrates the club-relay server components: the webhook
// HTTP server, the update router behind it, and the periodic draft
// sweep.
type Gateway struct {
	config      *config.Config
	store       store.Store
	guard       dedupe.Guard
	drafts      *draft.Assembler
	router      *router.Router
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger
}

// initStore creates the store from config, honoring the env override.
func initStore(cfg *config.Config) (store.Store, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("CLUB_RELAY_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// initGuard selects the duplicate guard: shared Redis when configured,
// otherwise the in-process TTL cache.
func initGuard(ctx context.Context, cfg *config.Config, logger *slog.Logger) (dedupe.Guard, error) {
	if cfg.Dedupe.Redis.Addr != "" {
		logger.Info("using redis duplicate guard", "addr", cfg.Dedupe.Redis.Addr)
		return dedupe.NewRedisGuard(ctx, dedupe.RedisConfig{
			Addr:     cfg.Dedupe.Redis.Addr,
			Password: cfg.Dedupe.Redis.Password,
			DB:       cfg.Dedupe.Redis.DB,
		}, cfg.Dedupe.TTL)
	}
	return dedupe.New(cfg.Dedupe.TTL, cfg.Dedupe.MaxSize), nil
}

// New assembles a gateway from configuration. The returned gateway owns
// the store and guard and releases them on Shutdown.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	guard, err := initGuard(ctx, cfg, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	client := telegram.NewClient(cfg.Telegram.Token, cfg.Telegram.APIBaseURL, logger)
	threads := threadmap.New(s, logger)
	rel := relay.New(client, s, threads, relay.GroupConfig{
		GroupID:            cfg.Admin.GroupID,
		MessageTopicID:     cfg.Admin.MessageTopicID,
		ApplicationTopicID: cfg.Admin.ApplicationTopicID,
	}, logger)
	reg := registry.New(s, rel, logger)
	drafts := draft.New(s, cfg.Limits.DraftTTL, cfg.Limits.MaxFileSize, logger)

	rt := router.New(router.Options{
		Store:        s,
		Guard:        guard,
		Drafts:       drafts,
		Registry:     reg,
		Relay:        rel,
		Threads:      threads,
		Sender:       client,
		AdminGroupID: cfg.Admin.GroupID,
		Logger:       logger,
	})

	g := &Gateway{
		config: cfg,
		store:  s,
		guard:  guard,
		drafts: drafts,
		router: rt,
		logger: logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /telegram/webhook", g.handleWebhook)
	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("GET /ready", g.handleReady)

	g.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// Run starts the webhook server and the sweep loop, blocking until the
// context is canceled or the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := g.setupListener(ctx)
	if err != nil {
		return err
	}

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go g.sweepLoop(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("webhook server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// sweepLoop periodically removes expired drafts.
func (g *Gateway) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if _, err := g.drafts.SweepExpired(sweepCtx); err != nil {
				g.logger.Warn("draft sweep failed", "error", err)
			}
			cancel()
		case <-ctx.Done():
			return
		}
	}
}

// setupListener creates the webhook listener: plain TCP, or a tsnet
// node when tailscale is enabled (with Funnel for public HTTPS).
func (g *Gateway) setupListener(ctx context.Context) (net.Listener, error) {
	if g.config.Tailscale.Enabled {
		if g.config.Server.HTTPAddr != "" {
			g.logger.Warn("server.http_addr is ignored when tailscale is enabled",
				"http_addr", g.config.Server.HTTPAddr)
		}
		return g.setupTailscaleListener(ctx)
	}

	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// resolveTailscaleStateDir returns the state directory, using the
// default under the user's home if not configured.
func resolveTailscaleStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for tailscale state (set tailscale.state_dir explicitly): %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "club-relay", "tailscale"), nil
}

func resolveTailscaleAuthKey(configured string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv("TS_AUTHKEY")
}

// setupTailscaleListener starts a tsnet node and listens on it. With
// Funnel the webhook gets a public HTTPS address Telegram can reach
// without any port forwarding.
func (g *Gateway) setupTailscaleListener(ctx context.Context) (net.Listener, error) {
	tsCfg := g.config.Tailscale

	stateDir, err := resolveTailscaleStateDir(tsCfg.StateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	g.tsnetServer = &tsnet.Server{
		Hostname:  tsCfg.Hostname,
		Dir:       stateDir,
		Ephemeral: tsCfg.Ephemeral,
		AuthKey:   resolveTailscaleAuthKey(tsCfg.AuthKey),
	}

	g.logger.Info("starting tailscale node",
		"hostname", tsCfg.Hostname,
		"state_dir", stateDir,
		"ephemeral", tsCfg.Ephemeral)
	status, err := g.tsnetServer.Up(ctx)
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}
	g.logTailscaleStatus(tsCfg.Hostname, status)

	if tsCfg.Funnel {
		g.logger.Info("enabling tailscale funnel (public HTTPS) on :443")
		ln, err := g.tsnetServer.ListenFunnel("tcp", ":443")
		if err != nil {
			_ = g.tsnetServer.Close()
			return nil, fmt.Errorf("listening on tailscale funnel port: %w", err)
		}
		return ln, nil
	}

	ln, err := g.tsnetServer.Listen("tcp", ":80")
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, fmt.Errorf("listening on tailscale HTTP port: %w", err)
	}
	return ln, nil
}

func (g *Gateway) logTailscaleStatus(hostname string, status *ipnstate.Status) {
	var tsAddr, dnsName string
	if len(status.TailscaleIPs) > 0 {
		tsAddr = status.TailscaleIPs[0].String()
	} else {
		g.logger.Warn("tailscale node has no IP addresses assigned")
	}
	if status.Self != nil {
		dnsName = status.Self.DNSName
	}
	g.logger.Info("tailscale node ready", "hostname", hostname, "tailscale_ip", tsAddr, "dns_name", dnsName)
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown stops the webhook server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var firstErr error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("HTTP server shutdown: %w", err)
	}

	if g.tsnetServer != nil {
		if err := g.tsnetServer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("tsnet shutdown: %w", err)
		}
	}

	if err := g.guard.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("guard shutdown: %w", err)
	}

	if err := g.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("store shutdown: %w", err)
	}

	g.logger.Info("gateway shutdown complete")
	return firstErr
}
