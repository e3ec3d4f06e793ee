package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"

	"github.com/2beens/fitdiary/internal/ai"
	"github.com/2beens/fitdiary/internal/auth"
	"github.com/2beens/fitdiary/internal/config"
	"github.com/2beens/fitdiary/internal/db"
	"github.com/2beens/fitdiary/internal/diary"
	"github.com/2beens/fitdiary/internal/middleware"
	"github.com/2beens/fitdiary/internal/telemetry/metrics"
	"github.com/2beens/fitdiary/internal/telemetry/tracing"
	"github.com/2beens/fitdiary/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient  *redis.Client
	loginChecker auth.Checker

	aiLimiter    *ai.RateLimiter
	diaryService *diary.Service
	diaryRepo    *diary.Repo

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	AIAPIKey                string
	VersionInfo             string
	DBUser                  string
	DBPassword              string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         params.DBUser,
		DBPassword:     params.DBPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(params.VersionInfo, pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "fitdiary", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "fitdiary-backend", rdb)
	if err != nil {
		return nil, err
	}

	if params.AIAPIKey == "" {
		// requests still get fallback content, flagged as a configuration error
		log.Errorf("ai api key not set, every diary request will be served with fallback content")
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   time.Duration(cfg.AITimeoutSeconds) * time.Second,
	}

	aiLimiter, aiClient, orchestrator := newAIStack(cfg, params.AIAPIKey, tracedHttpClient, metricsManager)
	diaryRepo := diary.NewRepo(dbPool)

	return &Server{
		config:      cfg,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		redisClient:  rdb,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),

		aiLimiter: aiLimiter,
		diaryRepo: diaryRepo,
		diaryService: diary.NewService(diary.NewServiceParams{
			Generator:      aiClient,
			Orchestrator:   orchestrator,
			Normalizer:     diary.NewNormalizer(),
			EntriesLoader:  diaryRepo,
			Cache:          diary.NewRecommendationsCache(cfg.RecommendationsCacheSize * 1024 * 1024),
			MetricsManager: metricsManager,
		}),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

// newAIStack builds the one rate limiter shared by every ai call of the process.
func newAIStack(
	cfg *config.Config,
	apiKey string,
	httpClient *http.Client,
	metricsManager *metrics.Manager,
) (*ai.RateLimiter, *ai.Client, *ai.Orchestrator) {
	limiterCfg := ai.DefaultRateLimiterConfig()
	limiterCfg.MaxRequestsPerMinute = cfg.AIMaxRequestsPerMinute
	limiterCfg.BaseMinDelay = time.Duration(cfg.AIBaseMinDelayMs) * time.Millisecond
	limiterCfg.MaxAdaptiveDelay = time.Duration(cfg.AIMaxAdaptiveDelayMs) * time.Millisecond
	limiter := ai.NewRateLimiter(limiterCfg)

	policy := ai.Policy{
		MaxAttempts:        cfg.AIMaxAttempts,
		BaseDelay:          time.Duration(cfg.AIRetryBaseDelayMs) * time.Millisecond,
		RateLimitBaseDelay: time.Duration(cfg.AIRateLimitRetryDelayMs) * time.Millisecond,
	}

	client := ai.NewClient(ai.NewClientParams{
		BaseURL:    cfg.AIBaseURL,
		APIKey:     apiKey,
		Model:      cfg.AIModel,
		HTTPClient: httpClient,
	})

	return limiter, client, ai.NewOrchestrator(limiter, policy, metricsManager)
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("fitdiary-router"))

	r.HandleFunc("/", s.handleRoot).Methods("GET", "OPTIONS").Name("root")
	r.HandleFunc("/version", s.handleVersion).Methods("GET").Name("version")

	diaryHandler := diary.NewHandler(s.diaryService, s.diaryRepo, s.aiLimiter, s.metricsManager)
	diaryHandler.SetupRoutes(r, redis_rate.NewLimiter(s.redisClient), s.config.DiaryRateLimitAllowedPerMin)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, s.versionInfo)
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: 3 * time.Minute, // a diary request can sit in ai backoff for a while
		ReadTimeout:  time.Minute,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop accepting requests first, in-flight ones still use db and redis
	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("http server: %w", shutdownErr))
		}
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		if shutdownErr := s.metricsHttpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("metrics http server: %w", shutdownErr))
		}
		log.Warnln("metrics server shut down")
	}

	if s.otelShutdown != nil {
		s.otelShutdown()
		log.Trace("otel shut down ...")
	}

	if s.redisClient != nil {
		if closeErr := s.redisClient.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("redis client: %w", closeErr))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	for _, e := range multierr.Errors(err) {
		log.Errorf(" >>> graceful shutdown: %s", e)
	}
}
