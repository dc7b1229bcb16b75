// Package app wires the Friend Lines server runtime: config, logging,
// persistence, HTTP routes, and the websocket feed gateway.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OmerEfron/friend-lines-server/cmd/identity"
	authapi "github.com/OmerEfron/friend-lines-server/cmd/internal/auth/api"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/auth/session"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/notify"
	socialapi "github.com/OmerEfron/friend-lines-server/cmd/internal/social/api"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/friendship"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/group"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/social/newsflash"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/stream"
)

const dbSchema = "friendlines"

// Store is a small app-level lifecycle abstraction. It exists so
// DB-backed resources can be closed gracefully on shutdown.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used for in-memory store mode.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

// stores bundles the per-domain persistence interfaces the services need.
type stores struct {
	users    identity.Store
	sessions session.Store
	friends  friendship.Store
	groups   group.Store
	posts    newsflash.Store
	devices  notify.Store
}

// App is the server runtime: it owns the HTTP wiring and the feed gateway.
type App struct {
	cfg Config
	log Logger

	store Store

	dbPool    *pgxpool.Pool
	dbEnabled bool

	auth    *authapi.Handler
	social  *socialapi.Handler
	gateway *stream.Gateway
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	st, dbPool, dbEnabled, dom, err := newStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	closeOnErr := func() {
		_ = st.Close(context.Background())
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		closeOnErr()
		return nil, err
	}
	tokens, err := session.NewJWTManager(sessCfg)
	if err != nil {
		closeOnErr()
		return nil, err
	}
	sessionSvc := session.NewService(sessCfg, dom.users, dom.sessions, tokens)

	authCfg := authapi.LoadConfigFromEnv()
	authHandler, err := authapi.NewHandler(log, authCfg, dom.users, sessionSvc)
	if err != nil {
		closeOnErr()
		return nil, err
	}

	var sender notify.PushSender
	if cfg.PushURL != "" {
		httpSender, err := notify.NewHTTPPushSender(cfg.PushURL, cfg.PushAPIKey, cfg.PushTimeout)
		if err != nil {
			closeOnErr()
			return nil, err
		}
		sender = httpSender
	}
	devices, err := notify.NewService(log, dom.devices, sender)
	if err != nil {
		closeOnErr()
		return nil, err
	}

	hub := stream.NewFeedHub(log)
	gateway, err := stream.NewGateway(log, hub, sessionSvc)
	if err != nil {
		closeOnErr()
		return nil, err
	}

	posts, err := newsflash.NewService(log, dom.posts, dom.friends, dom.groups, devices, hub)
	if err != nil {
		closeOnErr()
		return nil, err
	}

	socialHandler, err := socialapi.NewHandler(log, dom.users, dom.friends, dom.groups, posts, devices)
	if err != nil {
		closeOnErr()
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     st,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		auth:      authHandler,
		social:    socialHandler,
		gateway:   gateway,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or a
// fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()

	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth, a.social, a.gateway)

	handler := WithCORS(mux, a.cfg, a.log)
	handler = WithSecurityHeaders(handler)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between Postgres-backed persistence and the in-memory
// dev stores.
func newStore(ctx context.Context, cfg Config, log Logger) (Store, *pgxpool.Pool, bool, stores, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		dom := stores{
			users:    identity.NewMemoryStore(),
			sessions: session.NewMemoryStore(),
			friends:  friendship.NewMemoryStore(),
			groups:   group.NewMemoryStore(),
			posts:    newsflash.NewMemoryStore(),
			devices:  notify.NewMemoryStore(),
		}
		return nopStore{}, nil, false, dom, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, stores{}, err
	}

	log.Info("db.enabled.postgres_store")

	// The app owns the pool lifecycle; the per-domain stores never close it.
	dom, err := newPostgresStores(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, stores{}, err
	}

	return dbStore{pool: pool}, pool, true, dom, nil
}

func newPostgresStores(pool *pgxpool.Pool) (stores, error) {
	users, err := identity.NewPostgresStore(pool, identity.WithSchema(dbSchema))
	if err != nil {
		return stores{}, err
	}
	friends, err := friendship.NewPostgresStore(pool, dbSchema)
	if err != nil {
		return stores{}, err
	}
	groups, err := group.NewPostgresStore(pool, dbSchema)
	if err != nil {
		return stores{}, err
	}
	posts, err := newsflash.NewPostgresStore(pool, dbSchema)
	if err != nil {
		return stores{}, err
	}
	devices, err := notify.NewPostgresStore(pool, dbSchema)
	if err != nil {
		return stores{}, err
	}
	return stores{
		users:    users,
		sessions: session.NewPostgresStore(pool),
		friends:  friends,
		groups:   groups,
		posts:    posts,
		devices:  devices,
	}, nil
}

type dbStore struct {
	pool *pgxpool.Pool
}

func (s dbStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
