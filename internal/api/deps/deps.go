// Package deps builds the shared services handed to every API module and command.
package deps

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nexxt/connect/internal/auth"
	"github.com/nexxt/connect/internal/embedding"
	"github.com/nexxt/connect/internal/enrichment"
	"github.com/nexxt/connect/internal/recommend"
	"github.com/nexxt/connect/internal/similarity"
	"github.com/nexxt/connect/internal/stores/graph"
	"github.com/nexxt/connect/internal/stores/relational"
	"github.com/nexxt/connect/internal/transcript"
	"github.com/nexxt/connect/internal/tuning"
	"github.com/nexxt/connect/pkg/utils"
)

// Deps holds the stores and services shared by the API modules
type Deps struct {
	Config       *utils.Config
	Tuning       *tuning.Tuning
	Relational   relational.Store
	Graph        graph.Store
	Embedder     embedding.Embedder
	Normalizer   *enrichment.Normalizer
	Engine       *recommend.Engine
	Transcripts  *transcript.Service
	Refresher    *similarity.Refresher
	Tokens       *auth.TokenManager
	AuthRequired bool
}

// Build connects the stores named in cfg and wires the services on top of them.
// Stores without connection settings fall back to in-memory implementations.
func Build(ctx context.Context, cfg *utils.Config) (*Deps, error) {
	t, err := tuning.Load(cfg.Get("RECOMMENDER_CONFIG_PATH"))
	if err != nil {
		return nil, err
	}

	rel, err := openRelational(cfg)
	if err != nil {
		return nil, err
	}

	g, err := openGraph(ctx, cfg)
	if err != nil {
		_ = rel.Close()
		return nil, err
	}

	d, err := Wire(cfg, t, rel, g)
	if err != nil {
		_ = rel.Close()
		_ = g.Close(ctx)
		return nil, err
	}
	return d, nil
}

// Wire builds the services over already opened stores
func Wire(cfg *utils.Config, t *tuning.Tuning, rel relational.Store, g graph.Store) (*Deps, error) {
	if t == nil {
		t = tuning.Default()
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	extractor, err := newExtractor(cfg, t)
	if err != nil {
		return nil, err
	}

	refresher, err := similarity.NewRefresher(g, similarity.Config{
		Schedule:        cfg.GetWithDefault("SIMILARITY_REFRESH_SPEC", "@every 30m"),
		RefreshOnStart:  cfg.GetBoolWithDefault("SIMILARITY_REFRESH_ON_START", true),
		UpdateThreshold: cfg.GetIntWithDefault("SIMILARITY_UPDATE_THRESHOLD", 25),
		RunTimeout:      cfg.GetDurationWithDefault("SIMILARITY_RUN_TIMEOUT", 30*time.Minute),
		Options:         graph.SimilarityOptions{TopK: t.Similarity.TopK, Cutoff: t.Similarity.Cutoff},
	})
	if err != nil {
		return nil, err
	}

	d := &Deps{
		Config:     cfg,
		Tuning:     t,
		Relational: rel,
		Graph:      g,
		Embedder:   embedder,
		Normalizer: enrichment.NewNormalizer(rel, embedder,
			enrichment.WithCandidates(t.Normalizer.Candidates),
			enrichment.WithMaxDistance(t.Normalizer.MaxVectorDistance)),
		Engine:       recommend.NewEngine(g, rel, t),
		Transcripts:  transcript.NewService(extractor, g, refresher.NotifyUpdate),
		Refresher:    refresher,
		AuthRequired: cfg.GetBoolWithDefault("AUTH_REQUIRED", false),
	}

	if secret := cfg.Get("JWT_SECRET"); secret != "" {
		d.Tokens, err = auth.NewTokenManager(secret, cfg.GetDurationWithDefault("JWT_TTL", 24*time.Hour))
		if err != nil {
			return nil, err
		}
	} else if d.AuthRequired {
		return nil, errors.New("AUTH_REQUIRED is set but JWT_SECRET is empty")
	}

	return d, nil
}

// Close releases both store connections
func (d *Deps) Close(ctx context.Context) error {
	return errors.Join(d.Relational.Close(), d.Graph.Close(ctx))
}

func openRelational(cfg *utils.Config) (relational.Store, error) {
	if cfg.Get("POSTGRES_DB") == "" {
		log.Println("[DEPS]: Warning: POSTGRES_DB not set, using in-memory relational store")
		return relational.NewInMemoryStore(), nil
	}

	host := cfg.GetWithDefault("POSTGRES_HOST", "localhost")
	port := cfg.GetWithDefault("POSTGRES_PORT", "5432")
	dsn := relational.DSN(host, port, cfg.Get("POSTGRES_USER"), cfg.Get("POSTGRES_PASSWORD"),
		cfg.Get("POSTGRES_DB"), cfg.Get("POSTGRES_SSLMODE"))

	store, err := relational.NewStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres at %s:%s: %w", host, port, err)
	}
	log.Printf("[DEPS]: Connected to postgres at %s:%s", host, port)
	return store, nil
}

func openGraph(ctx context.Context, cfg *utils.Config) (graph.Store, error) {
	if cfg.Get("NEO4J_PASSWORD") == "" {
		log.Println("[DEPS]: Warning: NEO4J_PASSWORD not set, using in-memory graph store")
		return graph.NewInMemoryStore(), nil
	}

	uri := cfg.GetWithDefault("NEO4J_URI", "bolt://localhost:7687")
	store, err := graph.NewNeo4jStore(ctx, uri, cfg.GetWithDefault("NEO4J_USER", "neo4j"),
		cfg.Get("NEO4J_PASSWORD"), cfg.GetWithDefault("NEO4J_DATABASE", "neo4j"))
	if err != nil {
		return nil, fmt.Errorf("failed to open neo4j at %s: %w", uri, err)
	}
	log.Printf("[DEPS]: Connected to neo4j at %s", uri)
	return store, nil
}

func newEmbedder(cfg *utils.Config) (embedding.Embedder, error) {
	dims := cfg.GetIntWithDefault("EMBEDDING_DIMENSIONS", embedding.DefaultDimensions)
	if dims != relational.EmbeddingDimensions {
		return nil, fmt.Errorf("EMBEDDING_DIMENSIONS is %d but the vector columns hold %d", dims, relational.EmbeddingDimensions)
	}
	if cfg.Get("OPENAI_API_KEY") == "" {
		log.Println("[DEPS]: OPENAI_API_KEY not set, using hashing embedder")
		return embedding.NewHashingEmbedder(dims), nil
	}

	return embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
		APIKey:        cfg.Get("OPENAI_API_KEY"),
		BaseURL:       cfg.Get("OPENAI_BASE_URL"),
		Model:         cfg.Get("EMBEDDING_MODEL"),
		Dimensions:    dims,
		RatePerSecond: cfg.GetFloatWithDefault("EMBEDDING_RATE_PER_SECOND", 5),
	})
}

func newExtractor(cfg *utils.Config, t *tuning.Tuning) (transcript.Extractor, error) {
	rules := transcript.NewRuleExtractor(t.Transcript)

	switch kind := cfg.GetWithDefault("TRANSCRIPT_EXTRACTOR", "rules"); kind {
	case "rules":
		return rules, nil
	case "llm":
		return transcript.NewLLMExtractor(cfg, rules)
	default:
		return nil, fmt.Errorf("unknown TRANSCRIPT_EXTRACTOR %q", kind)
	}
}
