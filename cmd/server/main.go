package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"openid-provider/internal/account"
	"openid-provider/internal/identity"
	"openid-provider/internal/openid"
	"openid-provider/internal/platform/config"
	"openid-provider/internal/platform/httpserver"
	"openid-provider/internal/platform/logger"
	"openid-provider/internal/platform/metrics"
	platformredis "openid-provider/internal/platform/redis"
	"openid-provider/internal/provider"
	providerhandler "openid-provider/internal/provider/handler"
	"openid-provider/internal/session"
	"openid-provider/internal/trust"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	var (
		identityStore identity.Store
		trustStore    trust.Store
		accountStore  account.Store
		txRunner      provider.TrustTxRunner
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			return
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("database unreachable", "error", err)
			return
		}
		identityStore = identity.NewPostgres(db)
		trustStore = trust.NewPostgres(db)
		accountStore = account.NewPostgres(db)
		txRunner = newTrustPostgresTx(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		identityStore = identity.NewInMemoryStore()
		memTrust := trust.NewInMemoryStore()
		trustStore = memTrust
		accountStore = account.NewInMemoryStore()
		txRunner = provider.MemoryTxRunner{Registry: memTrust}
	}

	var (
		sessionStore session.Store
		pendingStore session.PendingStore
	)
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessionStore = session.NewRedisStore(redisClient.Client, cfg.SessionTTL)
		pendingStore = session.NewRedisPendingStore(redisClient.Client, cfg.PendingTTL)
	} else {
		log.Warn("no redis configured, sessions are process-local")
		sessionStore = session.NewInMemoryStore()
		pendingStore = session.NewInMemoryPendingStore()
	}

	urls := identity.NewURLTemplate(cfg.BaseURL)
	resolver := identity.NewResolver(identityStore, urls, log)
	authorizer := trust.NewAuthorizer(resolver, trustStore)
	accounts := account.NewService(accountStore)
	sessions := session.NewManager(sessionStore, cfg.SessionCookie, log)
	codec := openid.NewDefaultCodec(strings.TrimRight(cfg.BaseURL, "/") + "/openid")
	assembler := provider.NewExtensionAssembler(accountStore, cfg.AXExtension, log)

	engine := provider.NewEngine(codec, authorizer, pendingStore, assembler, provider.Routes{
		Endpoint: "/openid",
		Decide:   "/openid/decide",
		Login:    cfg.LoginURL,
	}, m, log)
	consentFlow := provider.NewConsentFlow(engine, pendingStore, txRunner)

	h := providerhandler.New(engine, consentFlow, sessions, accounts, identityStore, codec, m, log)

	router := chi.NewRouter()
	h.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting openid provider", "addr", cfg.Addr, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
	}
}
