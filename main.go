package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"storefront-service/cart"
	"storefront-service/catalog"
	"storefront-service/clients"
	"storefront-service/config"
	"storefront-service/controllers"
	"storefront-service/logger"
	"storefront-service/messaging"
	"storefront-service/middleware"
	awspkg "storefront-service/pkg/aws"
	"storefront-service/routes"
	"storefront-service/search"
	"storefront-service/session"
	"storefront-service/telemetry"
	"storefront-service/tradein"
	"storefront-service/views"
)

const serviceName = "storefront-web"

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── AWS (secrets, CloudWatch, SNS) ──
	var awsCfg sdkaws.Config
	awsReady := false
	if cfg.UseAWSSecrets || cfg.CloudWatchEnabled || cfg.TradeInTopicARN != "" {
		c, err := awspkg.LoadAWSConfig(ctx, awspkg.Options{Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint})
		if err != nil {
			log.Printf("[storefront] AWS config unavailable: %v", err)
		} else {
			awsCfg = c
			awsReady = true
		}
	}

	if cfg.UseAWSSecrets && awsReady {
		if err := cfg.ApplySecrets(ctx, awspkg.NewSecretsClient(awsCfg)); err != nil {
			log.Printf("[storefront] Secrets Manager lookup failed, keeping JWT_SECRET from env: %v", err)
		}
	}

	var cwWriter io.Writer
	if cfg.CloudWatchEnabled && awsReady {
		w, err := awspkg.NewCloudWatchLogsWriter(ctx, awsCfg, cfg.CloudWatchLogGroup, serviceName)
		if err != nil {
			log.Printf("[storefront] CloudWatch Logs init failed: %v", err)
		} else {
			cwWriter = w
		}
	}

	zapLogger, err := logger.Initialize(cfg.Env, cwWriter)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	metricsClient := awspkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled && awsReady)

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		zapLogger.Warn("Tracing disabled", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	api := clients.NewAPIClient(cfg.APIBaseURL, cfg.RequestTimeout)

	// ── Sessions ──
	var store session.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		rs, err := session.NewRedisStore(ctx, rdb, cfg.SessionTTL, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to start session store", zap.Error(err))
		}
		defer rs.Close()
		store = rs
		zapLogger.Info("Sessions stored in Redis")
	} else {
		store = session.NewMemoryStore(cfg.SessionTTL)
		zapLogger.Warn("REDIS_URL not set, sessions are kept in memory on this instance only")
	}

	sessions := session.NewManager(store, session.Options{
		CookieName: cfg.SessionCookie,
		TTL:        cfg.SessionTTL,
		Secure:     cfg.CookieSecure,
		Tokens:     session.NewTokenInspector(cfg.JWTSecret),
		Logger:     zapLogger,
	})
	defer sessions.Close()

	// A session that ends can have no cart lines in flight.
	guard := cart.NewLineGuard()
	unsubscribe := sessions.Subscribe(func(e session.Event) {
		if e.Kind == session.EventInvalidated {
			guard.Forget(e.SessionID)
		}
	})
	defer unsubscribe()

	// ── Domain services ──
	table, err := tradein.LoadTable()
	if err != nil {
		zapLogger.Fatal("Failed to load trade-in table", zap.Error(err))
	}
	var publisher tradein.Publisher
	if awsReady && cfg.TradeInTopicARN != "" {
		publisher = awspkg.NewSNSClient(awsCfg)
	}

	catalogSvc := catalog.New(api, zapLogger)
	cartSvc := cart.NewService(api, guard, zapLogger)
	messagingSvc := messaging.NewService(api, zapLogger)
	tradeinSvc := tradein.NewService(api, table, publisher, cfg.TradeInTopicARN, zapLogger)
	suggester := search.NewSuggester(search.NewDebouncer(cfg.SearchDebounce), api, catalogSvc, cfg.SuggestLimit, zapLogger)

	renderer, err := views.New()
	if err != nil {
		zapLogger.Fatal("Failed to parse templates", zap.Error(err))
	}

	// ── HTTP ──
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	base := &controllers.Base{Sessions: sessions, Categories: catalogSvc, Views: renderer, Logger: zapLogger}

	r := gin.New()
	r.Use(gin.CustomRecovery(base.Recovered))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(middleware.Metrics(metricsClient, serviceName))
	r.Use(middleware.SecurityHeaders())

	routes.RegisterRoutes(r, routes.Controllers{
		Base:     base,
		Catalog:  controllers.NewCatalogController(base, catalogSvc),
		Search:   controllers.NewSearchController(base, suggester),
		Auth:     controllers.NewAuthController(base, api),
		Cart:     controllers.NewCartController(base, cartSvc),
		Messages: controllers.NewMessagesController(base, messagingSvc),
		TradeIn:  controllers.NewTradeInController(base, tradeinSvc),
	}, routes.Options{
		Sessions:       sessions,
		SuggestLimiter: middleware.NewRateLimiter(rate.Limit(10), 20, 10*time.Minute),
		AuthLimiter:    middleware.NewRateLimiter(rate.Every(6*time.Second), 5, 10*time.Minute),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           telemetry.Handler(r, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Storefront listening", zap.String("port", cfg.Port), zap.String("api", cfg.APIBaseURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Shutdown error", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zapLogger.Warn("Tracing shutdown error", zap.Error(err))
	}
}
