// Command server is the HTTP/WebSocket front door of the auto-generated,
// role-aware GraphQL API: it loads configuration, opens the database
// pool, wires the Full-Schema/Privilege/Filter/Generator chain (C4-C7)
// behind a per-role cache, and serves `/graphql` for both queries and
// `graphql-transport-ws` subscriptions, plus a health check and a
// schema-refresh admin endpoint. Grounded in serv/serv.go's router
// construction, timeouts, graceful shutdown and zap startup logging, and
// serv/routes.go's route-assembly shape — reduced to this module's scope
// (no auth, MCP, REST, or hot-deploy routes, all out of scope per
// spec.md's Non-goals).
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"

	"github.com/qbloq/dbgraphql/internal/config"
	"github.com/qbloq/dbgraphql/internal/logger"
	"github.com/qbloq/dbgraphql/internal/querylimit"
	"github.com/qbloq/dbgraphql/internal/sdata"
	"github.com/qbloq/dbgraphql/internal/schema"
)

const defaultAddr = "0.0.0.0:8080"

// subscriptionPollInterval is how often C12's Poller re-fetches a
// subscribed table (spec.md §9 Open Question #1 placeholder; see
// internal/subs/poller.go).
const subscriptionPollInterval = 2 * time.Second

func main() {
	configPath := os.Getenv("DBGRAPHQL_CONFIG")
	addr := os.Getenv("DBGRAPHQL_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	dev := os.Getenv("GO_ENV") != "production"

	log, err := logger.New(dev)
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("loading config: %s", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connecting to database: %s", err)
	}
	defer pool.Close()

	reflector, err := sdata.NewReflectorFromPool(pool, cfg.SchemaTTL())
	if err != nil {
		log.Fatalf("building reflector: %s", err)
	}
	golden, err := schema.NewGoldenService(reflector, cfg.AllowedSchema, cfg.SchemaTTL())
	if err != nil {
		log.Fatalf("building golden schema service: %s", err)
	}
	privileges, err := schema.NewPrivilegeService(sdata.PoolQuerier{Pool: pool}, cfg.AllowedSchema, cfg.SchemaTTL())
	if err != nil {
		log.Fatalf("building privilege service: %s", err)
	}
	schemas, err := newRoleSchemas(golden, privileges, cfg.AllowedSchema, cfg.Security.RoleBasedSchema, cfg.SchemaTTL(), subscriptionPollInterval)
	if err != nil {
		log.Fatalf("building role schema cache: %s", err)
	}

	limits := querylimit.Limits{
		MaxDepth:      cfg.GraphQL.Security.MaxQueryDepth,
		MaxComplexity: cfg.GraphQL.Security.MaxQueryComplexity,
	}

	gql := newGraphQLServer(pool, schemas, limits, log)
	ws := newSubscriptionServer(pool, schemas, log)
	admin := newAdminHandler(schemas, log)

	r := chi.NewRouter()
	r.Use(setServerHeader)
	r.Get("/healthz", healthzHandler(pool))
	r.Post("/admin/schema/refresh", admin.ServeHTTP)
	r.Handle("/graphql", graphqlOrWebsocket(gql, ws))

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}).Handler(r)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		if err := srv.Shutdown(context.Background()); err != nil {
			log.Warn("shutdown signal received")
		}
		close(idleConnsClosed)
	}()

	srv.RegisterOnShutdown(func() {
		pool.Close()
		log.Info("shutdown complete")
	})

	log.Infow("server started",
		"addr", addr,
		"allowed_schema", cfg.AllowedSchema,
		"role_based_schema", cfg.Security.RoleBasedSchema,
	)

	l, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("failed to init port: %s", err)
	}

	if err := srv.Serve(l); err != http.ErrServerClosed {
		log.Fatalf("failed to start: %s", err)
	}
	<-idleConnsClosed
}

const serverName = "dbgraphql"

func setServerHeader(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", serverName)
		h.ServeHTTP(w, r)
	})
}

// graphqlOrWebsocket dispatches `/graphql` to the websocket multiplexer
// when the request is an upgrade request, and to the plain HTTP handler
// otherwise, matching spec.md §6: "The same path upgrades to WebSocket
// when the request carries Upgrade: websocket."
func graphqlOrWebsocket(gql http.Handler, ws http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if isWebsocketUpgrade(r) {
			ws.ServeHTTP(w, r)
			return
		}
		gql.ServeHTTP(w, r)
	}
}

func isWebsocketUpgrade(r *http.Request) bool {
	return r.Header.Get("Upgrade") == "websocket" || r.Header.Get("Upgrade") == "Websocket"
}

func healthzHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
