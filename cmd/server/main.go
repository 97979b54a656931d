package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shoppinglist/internal/handlers"
	"shoppinglist/internal/logging"
	"shoppinglist/internal/middleware"
	"shoppinglist/internal/persist"
	"shoppinglist/internal/shoppinglist"
	tlsconfig "shoppinglist/internal/tls"

	"github.com/gin-gonic/gin"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	logging.InitLogger(logging.NewConfigFromEnv())

	if err := run(); err != nil {
		logging.Logger.Fatalf("Server stopped: %v", err)
	}
	_ = logging.Close()
}

func run() error {
	persistConfig := persist.NewConfigFromEnv()
	kv, err := persist.Open(persistConfig)
	if err != nil {
		return err
	}
	defer kv.Close()
	logging.Logger.WithField("backend", persistConfig.Backend).Info("Persistence backend ready")

	bridge := persist.NewBridge(kv, persistConfig.BridgeOptions()...)
	// Close is idempotent; the shutdown path closes it first to log the result
	defer bridge.Close()
	store := shoppinglist.NewStore(bridge.Hydrate(context.Background()), shoppinglist.WithPersister(bridge))

	router := newRouter(store, kv)
	securityConfig := middleware.NewSecurityConfigFromEnv()
	if err := router.SetTrustedProxies(securityConfig.TrustedProxies); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	servers, err := newServers(router, getEnv("PORT", "8080"), tlsconfig.NewConfigFromEnv())
	if err != nil {
		return err
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *server) {
			logging.Logger.Infof("Starting %s server on %s...", srv.name, srv.Addr)
			if err := srv.listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(srv)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Logger.Info("Shutdown signal received")
	case serveErr = <-errCh:
		logging.Logger.WithError(serveErr).Error("Server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Logger.WithError(err).Warnf("Failed to shut down %s server cleanly", srv.name)
		}
	}

	// Requests are drained, so the last snapshot is final
	if err := bridge.Close(); err != nil {
		logging.Logger.WithError(err).Error("Last shopping list write failed")
	}
	logging.Logger.Info("Server stopped")
	return serveErr
}

// newRouter wires the middleware chain, the item routes and the health routes
func newRouter(store handlers.ListStore, kv persist.KVStore) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(middleware.NewCORSConfigFromEnv()))
	router.Use(middleware.RequestSizeLimit(middleware.NewSecurityConfigFromEnv().MaxRequestBodySize))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorSanitizer())

	rateLimitConfig := middleware.NewRateLimitConfigFromEnv()
	router.Use(middleware.GlobalRateLimiter(rateLimitConfig))
	writeLimit := middleware.WriteRateLimiter(rateLimitConfig)

	itemHandler := handlers.NewItemHandler(store)
	v1 := router.Group("/api/v1")
	{
		items := v1.Group("/items")
		items.GET("", itemHandler.GetItems)
		items.POST("", writeLimit, itemHandler.AddItem)
		items.PUT("/:itemId", writeLimit, middleware.ItemIDValidator("itemId"), itemHandler.EditItem)
		items.POST("/:itemId/purchase", writeLimit, middleware.ItemIDValidator("itemId"), itemHandler.MarkPurchased)
		items.DELETE("/:itemId", writeLimit, middleware.ItemIDValidator("itemId"), itemHandler.DeleteItem)
	}

	healthHandler := handlers.NewHealthHandler(kv, version)
	health := router.Group("/health")
	{
		health.GET("", healthHandler.BasicHealth)
		health.GET("/detailed", healthHandler.DetailedHealth)
		health.GET("/ready", healthHandler.ReadinessProbe)
		health.GET("/live", healthHandler.LivenessProbe)
	}

	return router
}

type server struct {
	*http.Server
	name string
	tls  bool
}

func (s *server) listen() error {
	if s.tls {
		// Certificates are already loaded into TLSConfig
		return s.ListenAndServeTLS("", "")
	}
	return s.ListenAndServe()
}

// newServers returns the API server and, with TLS and redirect enabled, a
// plain HTTP server on httpPort that redirects to it
func newServers(handler http.Handler, httpPort string, tlsConfig *tlsconfig.Config) ([]*server, error) {
	if !tlsConfig.Enabled {
		return []*server{{
			Server: newHTTPServer(":"+httpPort, handler),
			name:   "HTTP",
		}}, nil
	}

	serverTLS, err := tlsConfig.ServerConfig()
	if err != nil {
		return nil, err
	}
	api := newHTTPServer(":"+tlsConfig.Port, handler)
	api.TLSConfig = serverTLS
	servers := []*server{{Server: api, name: "HTTPS", tls: true}}

	if tlsConfig.RedirectHTTP {
		servers = append(servers, &server{
			Server: newHTTPServer(":"+httpPort, tlsconfig.RedirectHandler(tlsConfig.Port)),
			name:   "HTTP redirect",
		})
	}
	return servers, nil
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
