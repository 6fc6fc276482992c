package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/golang-migrate/migrate/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pathshala-ai/pathshala/config"
	"github.com/pathshala-ai/pathshala/internal/cache"
	"github.com/pathshala-ai/pathshala/internal/embed"
	"github.com/pathshala-ai/pathshala/internal/generate"
	"github.com/pathshala-ai/pathshala/internal/ingest"
	"github.com/pathshala-ai/pathshala/internal/lang"
	"github.com/pathshala-ai/pathshala/internal/retrieval"
	"github.com/pathshala-ai/pathshala/internal/store"
	"github.com/pathshala-ai/pathshala/provider"
)

// Run wires every dependency from config and serves until the listener
// fails.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()
	srvLogger := log.New(log.Writer(), "[SERVER] ", log.LstdFlags)

	// storage
	var st store.Store
	var keyword store.KeywordSearcher
	var pg *store.PostgresStore
	switch cfg.Storage.Backend {
	case "postgres":
		dsn := cfg.Storage.Postgres.DSN()
		if err := Migrate("file://migrations", dsn, "up", 0); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrations: %w", err)
		}
		var err error
		pg, err = store.NewPostgres(ctx, dsn)
		if err != nil {
			return err
		}
		st = pg
		if cfg.Corpus.Hybrid {
			srvLogger.Printf("WARNING: hybrid retrieval requires the memory backend, continuing vector-only")
		}
	default:
		mem := store.NewMemoryStore()
		st = mem
		if cfg.Corpus.Hybrid {
			keyword = mem
		}
	}

	// query cache
	var qc cache.Cache
	switch cfg.Cache.Backend {
	case "redis":
		client, err := cache.Conn(ctx, cfg.Storage.Redis.Addr(), cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
		if err != nil {
			return err
		}
		qc = cache.NewRedisCache(client)
	default:
		qc = cache.NewMemoryCache(cfg.Cache.Capacity)
	}

	// generation backend, shared by embedding and generation
	p, err := provider.NewProvider(provider.Client(cfg.LLM.Backend), provider.Options{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return err
	}

	factories := map[lang.Language]embed.Factory{
		lang.Primary: embed.ProviderFactory(p, cfg.Embedding.PrimaryModel),
	}
	if cfg.Embedding.TargetModel != "" {
		factories[lang.Target] = embed.ProviderFactory(p, cfg.Embedding.TargetModel)
	}
	router := embed.NewRouter(factories)
	classifier := lang.NewClassifier(nil)

	coordinator := retrieval.NewCoordinator(st, keyword, router, classifier, qc)
	pipeline := generate.NewPipeline(p, cfg.LLM.PreferredModel, cfg.LLM.FallbackModels, cfg.LLM.FirstTokenTimeout)
	ingestor := ingest.New(st, router, classifier, qc)

	loadCorpus := func(ctx context.Context) error {
		if cfg.Corpus.ReferenceDir != "" {
			if _, err := ingestor.IngestDir(ctx, cfg.Corpus.ReferenceDir, store.CollectionReference); err != nil {
				return fmt.Errorf("reference corpus: %w", err)
			}
		}
		if cfg.Corpus.CourseNotesDir != "" {
			if _, err := ingestor.IngestDir(ctx, cfg.Corpus.CourseNotesDir, store.CollectionCourseNotes); err != nil {
				return fmt.Errorf("course notes corpus: %w", err)
			}
		}
		return nil
	}
	if err := loadCorpus(ctx); err != nil {
		srvLogger.Printf("WARNING: corpus load failed, serving whatever is indexed: %v", err)
	}

	if cfg.Corpus.RefreshCron != "" {
		sched, err := ingest.NewRefreshScheduler(cfg.Corpus.RefreshCron, loadCorpus)
		if err != nil {
			return fmt.Errorf("refresh schedule: %w", err)
		}
		sched.Start()
	}

	api := e.Group("/api")

	var mw []echo.MiddlewareFunc
	if cfg.Server.AuthEnabled {
		if pg == nil {
			return fmt.Errorf("auth requires the postgres storage backend")
		}
		auth := &AuthHandler{Store: pg, Secret: []byte(cfg.Server.JWTSecret)}
		auth.Register(api.Group("/auth"))
		mw = append(mw, withAuth(auth.Secret))
	}

	ch := &ChatHandler{Retriever: coordinator, Generator: pipeline}
	ch.Register(api, mw...)
	qh := &QuestionsHandler{Retriever: coordinator, Generator: pipeline}
	qh.Register(api, mw...)
	mh := &ModelsHandler{Provider: p, Pipeline: pipeline}
	mh.Register(api, mw...)

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":10010"
	}
	srvLogger.Printf("listening on %s", addr)
	return e.Start(addr)
}
