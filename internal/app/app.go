// File: internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iyunix/go-triage/internal/config"
	"github.com/iyunix/go-triage/internal/handlers"
	"github.com/iyunix/go-triage/internal/observability"
	"github.com/iyunix/go-triage/internal/services"
	"github.com/iyunix/go-triage/internal/services/ai"
	"github.com/iyunix/go-triage/internal/services/corpus"
	"github.com/iyunix/go-triage/internal/services/department"
	"github.com/iyunix/go-triage/internal/services/detection"
	"github.com/iyunix/go-triage/internal/services/embedding"
	"github.com/iyunix/go-triage/internal/services/vectorindex"
)

const (
	ServiceName    = "go-triage"
	ServiceVersion = "0.1.0"

	llmBackendStatic = "static"
)

// Application aggregates all services and handlers
type Application struct {
	Config  *config.Config
	Logger  services.Logger
	Metrics *observability.Metrics

	Encoder  embedding.Encoder
	Index    vectorindex.Index
	Provider ai.AIProvider // nil with the static department backend

	Detector *detection.Detector
	Resolver *department.Resolver
	Loader   *corpus.Loader
	Triage   *services.TriageService
	Handler  *handlers.TriageHandler

	corpusConfig  *corpus.Config
	closers       []func() error
	shutdownTrace func(context.Context) error
}

// New builds the pipeline selected by cfg. Close releases what it opened,
// also when New fails part way.
func New(ctx context.Context, cfg *config.Config, logger services.Logger) (app *Application, err error) {
	app = &Application{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			app.Close(context.Background())
			app = nil
		}
	}()

	if app.shutdownTrace, err = observability.Setup(ctx, ServiceName, ServiceVersion, cfg.OTLPEndpoint); err != nil {
		return app, fmt.Errorf("tracing setup: %w", err)
	}
	if app.Metrics, err = observability.InitMetrics(); err != nil {
		return app, fmt.Errorf("metrics setup: %w", err)
	}

	if app.Encoder, err = app.newEncoder(ctx); err != nil {
		return app, fmt.Errorf("encoder: %w", err)
	}
	app.closers = append(app.closers, app.Encoder.Close)

	if app.Index, err = vectorindex.Open(ctx, app.indexConfig(), logger); err != nil {
		return app, fmt.Errorf("vector index: %w", err)
	}
	app.closers = append(app.closers, app.Index.Close)

	detCfg := detection.DefaultConfig()
	detCfg.DefaultTopK = cfg.DetectTopK
	if detCfg.MaxTopK < detCfg.DefaultTopK {
		detCfg.MaxTopK = detCfg.DefaultTopK
	}
	if err = detCfg.Validate(); err != nil {
		return app, fmt.Errorf("detection config: %w", err)
	}
	app.Detector = detection.NewDetector(detCfg, app.Encoder, app.Index, app.Metrics, logger)

	if app.Resolver, err = app.newResolver(); err != nil {
		return app, fmt.Errorf("department resolver: %w", err)
	}

	app.corpusConfig = &corpus.Config{Path: cfg.CorpusPath, MaxRows: cfg.CorpusMaxRows, BatchSize: cfg.CorpusBatchSize}
	if err = app.corpusConfig.Validate(); err != nil {
		return app, fmt.Errorf("corpus config: %w", err)
	}
	app.Loader = corpus.NewLoader(app.Encoder, app.Index, logger)

	var health services.HealthChecker
	backends := services.Backends{
		Encoder: app.Encoder.ModelID(),
		Index:   app.Index.Name(),
		LLM:     cfg.LLMBackend,
	}
	if app.Provider != nil {
		health = app.Provider
		backends.Model = cfg.LLMModel
	}
	app.Triage = services.NewTriageService(app.Detector, app.Resolver, app.Index, health, backends,
		services.TriageConfig{DefaultTopK: cfg.DetectTopK, RequestTimeout: cfg.RequestTimeout}, logger)
	app.Handler = handlers.NewTriageHandler(app.Triage, logger)

	logger.Info("application initialized",
		"encoder", backends.Encoder,
		"index", backends.Index,
		"llm", backends.LLM,
		"model", backends.Model,
	)
	return app, nil
}

func (a *Application) indexConfig() *vectorindex.Config {
	c := vectorindex.DefaultConfig()
	c.Backend = a.Config.VectorBackend
	c.DBPath = a.Config.VectorDBPath
	c.APIKey = a.Config.PineconeAPIKey
	c.IndexHost = a.Config.PineconeIndexHost
	if a.Config.PineconeNamespace != "" {
		c.Namespace = a.Config.PineconeNamespace
	}
	return c
}

func (a *Application) newEncoder(ctx context.Context) (embedding.Encoder, error) {
	cfg := a.Config
	embCfg := embedding.DefaultConfig()
	embCfg.CacheTTL = cfg.CacheTTL
	if cfg.CacheSize > 0 {
		embCfg.CacheSize = cfg.CacheSize
	}
	embCfg.Dimension = cfg.HashingDimension

	var inner embedding.Encoder
	switch cfg.EmbeddingBackend {
	case "hashing":
		// Deterministic and local: nothing to cache.
		return embedding.NewHashingEncoder(embCfg.Dimension), nil
	case "onnx":
		embCfg.ModelPath = cfg.ONNXModelPath
		embCfg.TokenizerPath = cfg.ONNXTokenizerPath
		embCfg.RuntimeLibPath = cfg.ONNXRuntimeLib
		enc, err := embedding.NewONNXEncoder(embCfg)
		if err != nil {
			return nil, err
		}
		inner = enc
	case ai.BackendOpenAI, ai.BackendOllama:
		aiCfg := ai.DefaultConfig()
		aiCfg.Backend = cfg.EmbeddingBackend
		aiCfg.EmbeddingKey = cfg.EmbeddingAPIKey
		aiCfg.EmbeddingBaseURL = cfg.EmbeddingBaseURL
		aiCfg.EmbeddingModel = cfg.EmbeddingModel
		if err := aiCfg.ValidateEmbedding(); err != nil {
			return nil, ai.NewConfigError(err.Error())
		}
		var provider ai.EmbeddingProvider
		if cfg.EmbeddingBackend == ai.BackendOllama {
			// The Ollama adapter serves embeddings from its base URL.
			aiCfg.LLMBaseURL = cfg.EmbeddingBaseURL
			aiCfg.LLMKey = cfg.EmbeddingAPIKey
			provider = ai.NewOllamaProvider(aiCfg)
		} else {
			provider = ai.NewOpenAIProvider(aiCfg)
		}
		inner = embedding.NewProviderEncoder(provider, cfg.EmbeddingModel, embCfg)
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", cfg.EmbeddingBackend)
	}

	return embedding.NewCachedEncoder(inner, a.newCache(ctx, embCfg), embCfg.CacheKeyPrefix, a.Logger), nil
}

// newCache prefers Redis when configured and reachable, else a bounded in-process LRU.
func (a *Application) newCache(ctx context.Context, embCfg *embedding.Config) embedding.Cache {
	cfg := a.Config
	if cfg.CacheRedisAddr == "" {
		return embedding.NewMemoryCache(embCfg.CacheSize, embCfg.CacheTTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.CacheRedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		a.Logger.Warn("redis embedding cache unavailable, using memory cache", "addr", cfg.CacheRedisAddr, "error", err)
		client.Close()
		return embedding.NewMemoryCache(embCfg.CacheSize, embCfg.CacheTTL)
	}

	cache := embedding.NewRedisCache(client, embCfg.CacheTTL)
	a.closers = append(a.closers, cache.Close)
	a.Logger.Info("redis embedding cache connected", "addr", cfg.CacheRedisAddr, "ttl", embCfg.CacheTTL.String())
	return cache
}

func (a *Application) newResolver() (*department.Resolver, error) {
	cfg := a.Config
	deptCfg := department.DefaultConfig()
	deptCfg.Model = cfg.LLMModel
	deptCfg.Samples = cfg.ProposalSamples
	deptCfg.Stream = cfg.LLMStream
	deptCfg.CallTimeout = cfg.LLMCallTimeout
	deptCfg.DiseaseTimeout = cfg.DiseaseTimeout
	deptCfg.Concurrency = cfg.PipelineConcurrency
	deptCfg.FinalizerMode = cfg.FinalizerMode

	if cfg.LLMBackend == llmBackendStatic {
		// Table proposals are deterministic, so a model finalizer adds nothing.
		deptCfg.FinalizerMode = department.FinalizerVote
		if err := deptCfg.Validate(); err != nil {
			return nil, err
		}
		return department.NewResolver(department.NewStaticProposer(department.NewStaticTable()), department.NewVoteFinalizer(), deptCfg, a.Logger), nil
	}
	if err := deptCfg.Validate(); err != nil {
		return nil, err
	}

	aiCfg := ai.DefaultConfig()
	aiCfg.Backend = cfg.LLMBackend
	aiCfg.LLMKey = cfg.LLMAPIKey
	aiCfg.LLMBaseURL = cfg.LLMBaseURL
	aiCfg.Temperature = float32(cfg.LLMTemperature)
	if cfg.LLMCallTimeout > 0 {
		aiCfg.Timeout = cfg.LLMCallTimeout
	}
	provider, err := ai.NewProvider(aiCfg)
	if err != nil {
		return nil, err
	}
	a.Provider = provider

	proposer := department.NewLLMProposer(provider, deptCfg, a.Metrics, a.Logger)
	var finalizer department.Finalizer
	if deptCfg.FinalizerMode == department.FinalizerVote {
		finalizer = department.NewVoteFinalizer()
	} else {
		finalizer = department.NewLLMFinalizer(provider, deptCfg, a.Metrics, a.Logger)
	}
	return department.NewResolver(proposer, finalizer, deptCfg, a.Logger), nil
}

// LoadCorpus reads the configured CSV and embeds it into the index. With
// reset the index is emptied first.
func (a *Application) LoadCorpus(ctx context.Context, reset bool) (*corpus.LoadReport, error) {
	rows, err := corpus.ReadCSVFile(a.corpusConfig.Path, a.corpusConfig.MaxRows)
	if err != nil {
		return nil, err
	}
	if reset {
		return a.Loader.Reload(ctx, rows, a.corpusConfig.BatchSize)
	}
	return a.Loader.Load(ctx, rows, a.corpusConfig.BatchSize)
}

// Close releases resources in reverse order of acquisition.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.shutdownTrace != nil {
		if err := a.shutdownTrace(ctx); err != nil {
			errs = append(errs, err)
		}
		a.shutdownTrace = nil
	}
	return errors.Join(errs...)
}
