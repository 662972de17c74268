package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/BaSui01/maestro/archive"
	"github.com/BaSui01/maestro/cache"
	"github.com/BaSui01/maestro/config"
	"github.com/BaSui01/maestro/engine"
	"github.com/BaSui01/maestro/internal/metrics"
	"github.com/BaSui01/maestro/llm"
	"github.com/BaSui01/maestro/providers"
	"github.com/BaSui01/maestro/providers/anthropic"
	"github.com/BaSui01/maestro/providers/gemini"
	"github.com/BaSui01/maestro/providers/unsupported"
	"github.com/BaSui01/maestro/rag"
	"github.com/BaSui01/maestro/session"
	"github.com/BaSui01/maestro/speech"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func runSession(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	scenarioPath := fs.String("scenario", "", "Path to scenario file (required)")
	audioDir := fs.String("audio-dir", "", "Directory for synthesized speech clips")
	var docs stringList
	fs.Var(&docs, "doc", "Document to index for retrieval (repeatable)")
	fs.Parse(args)

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "run: --scenario is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Log.BuildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting maestro",
		zap.String("version", Version),
		zap.String("scenario", *scenarioPath),
	)

	sessionCfg, err := loadScenario(*scenarioPath, cfg)
	if err != nil {
		logger.Fatal("failed to load scenario", zap.Error(err))
	}

	opts, cleanup, err := buildCollaborators(cfg, *audioDir, logger)
	if err != nil {
		logger.Fatal("failed to build collaborators", zap.Error(err))
	}
	defer cleanup()

	eng, err := engine.New(sessionCfg, opts)
	if err != nil {
		logger.Fatal("invalid session config", zap.Error(err))
	}

	if len(docs) > 0 {
		files, err := readDocs(docs)
		if err != nil {
			logger.Fatal("failed to read documents", zap.Error(err))
		}
		if err := eng.AddFiles(context.Background(), files); err != nil {
			logger.Fatal("failed to index documents", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First signal stops the session cooperatively; a second one aborts.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("stop requested, finishing current turn")
		eng.Stop()
		<-sigCh
		cancel()
	}()

	doc, err := eng.Run(ctx)
	if err != nil {
		logger.Fatal("session failed", zap.Error(err))
	}

	eng.SummarizeLessons(context.Background())

	if doc != "" {
		fmt.Println(doc)
	}
	logger.Info("maestro finished")
}

// loadScenario reads a session definition and fills unset fields from the
// process configuration.
func loadScenario(path string, cfg *config.Config) (engine.Config, error) {
	var sc engine.Config
	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("read scenario file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("parse scenario file: %w", err)
	}
	if sc.UserName == "" {
		sc.UserName = cfg.Session.UserName
	}
	if sc.Temperature == 0 {
		sc.Temperature = cfg.Session.Temperature
	}
	if sc.OutputFormat == "" {
		sc.OutputFormat = cfg.Session.OutputFormat
	}
	if sc.SandboxTurnCap == 0 {
		sc.SandboxTurnCap = cfg.Session.SandboxTurnCap
	}
	return sc, nil
}

func readDocs(paths []string) ([]rag.File, error) {
	files := make([]rag.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read document %s: %w", p, err)
		}
		files = append(files, rag.File{Name: filepath.Base(p), Content: string(data)})
	}
	return files, nil
}

func buildCollaborators(cfg *config.Config, audioDir string, logger *zap.Logger) (engine.Options, func(), error) {
	registry := llm.NewRegistry(unsupported.New("unsupported"))
	if cfg.Providers.Gemini.APIKey != "" {
		p := gemini.New(providers.GeminiConfig{
			APIKey:  cfg.Providers.Gemini.APIKey,
			BaseURL: cfg.Providers.Gemini.BaseURL,
			Model:   cfg.Providers.Gemini.Model,
			Timeout: cfg.Providers.Gemini.Timeout,
		}, logger)
		registry.Register(p.Name(), p)
	}
	if cfg.Providers.Anthropic.APIKey != "" {
		p := anthropic.New(providers.ClaudeConfig{
			APIKey:  cfg.Providers.Anthropic.APIKey,
			BaseURL: cfg.Providers.Anthropic.BaseURL,
			Model:   cfg.Providers.Anthropic.Model,
			Timeout: cfg.Providers.Anthropic.Timeout,
		}, logger)
		registry.Register(p.Name(), p)
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var memory cache.Store
	if cfg.Redis.Addr != "" {
		redisStore, err := cache.NewRedisStore(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			cleanup()
			return engine.Options{}, nil, err
		}
		memory = redisStore
	} else {
		memory = cache.NewMemoryStore()
	}

	var sessions archive.Store
	if cfg.Archive.Path != "" {
		sqliteStore, err := archive.NewSQLiteStore(cfg.Archive.Path, cfg.Archive.MaxSessions, logger)
		if err != nil {
			cleanup()
			return engine.Options{}, nil, err
		}
		sessions = sqliteStore
	} else {
		sessions = archive.NewMemoryStore(cfg.Archive.MaxSessions)
	}

	chunking := rag.DefaultChunkingConfig()
	if cfg.Retrieval.ChunkSize > 0 {
		chunking.ChunkSize = cfg.Retrieval.ChunkSize
	}
	if cfg.Retrieval.ChunkOverlap > 0 {
		chunking.ChunkOverlap = cfg.Retrieval.ChunkOverlap
	}
	var tokenizer rag.Tokenizer = rag.EstimatorCounter{}
	if cfg.Retrieval.TokenEncoding != "" {
		tokenizer = rag.NewTiktokenCounter(cfg.Retrieval.TokenEncoding, logger)
	}
	docs := rag.NewService(
		rag.NewChunker(chunking, tokenizer, logger),
		rag.NewHashingEmbedder(0),
		rag.NewInMemoryVectorStore(logger),
		logger,
	)

	var tts speech.Synthesizer = speech.Disabled{}
	var audio *session.AudioQueue
	if cfg.Speech.Enabled && cfg.Providers.Gemini.APIKey != "" {
		tts = speech.NewGeminiTTS(providers.GeminiConfig{
			APIKey:  cfg.Providers.Gemini.APIKey,
			BaseURL: cfg.Providers.Gemini.BaseURL,
			Model:   cfg.Speech.Model,
		}, logger)
		audio = session.NewAudioQueue(clipWriter(audioDir, logger), logger)
		cleanups = append(cleanups, audio.Close)
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		collector = metrics.NewCollector(cfg.Metrics.Namespace, reg, logger)
		if cfg.Metrics.Addr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Warn("metrics server stopped", zap.Error(err))
				}
			}()
			cleanups = append(cleanups, func() { srv.Close() })
		}
	}

	return engine.Options{
		Registry: registry,
		Docs:     docs,
		Memory:   memory,
		TTS:      tts,
		Audio:    audio,
		Archive:  sessions,
		Metrics:  collector,
		Logger:   logger,
	}, cleanup, nil
}

// clipWriter stores each synthesized clip as a numbered PCM file. Without a
// directory the clips are discarded.
func clipWriter(dir string, logger *zap.Logger) session.Player {
	var n int
	return session.PlayerFunc(func(ctx context.Context, audioBase64 string) error {
		if dir == "" {
			return nil
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		data, err := base64.StdEncoding.DecodeString(audioBase64)
		if err != nil {
			return fmt.Errorf("decode audio clip: %w", err)
		}
		n++
		return os.WriteFile(filepath.Join(dir, fmt.Sprintf("clip-%03d.pcm", n)), data, 0o644)
	})
}
