package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alvmarrod/degrees/internal/cache"
	"github.com/alvmarrod/degrees/internal/config"
	"github.com/alvmarrod/degrees/internal/graphdb"
	"github.com/alvmarrod/degrees/internal/metrics"
	"github.com/alvmarrod/degrees/internal/query"
	"github.com/alvmarrod/degrees/internal/search"
	"github.com/alvmarrod/degrees/internal/storage"
	"github.com/alvmarrod/degrees/internal/wikipedia"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// app holds the collaborators shared by serve and query
type app struct {
	cfg       *config.Config
	store     *storage.Storage
	searchLog *storage.SearchLog
	tracker   *metrics.Tracker
	service   *query.Service

	neo4j *graphdb.Neo4jSearcher
	redis *redis.Client
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, tracker: metrics.NewTracker()}

	store, err := storage.NewStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.store = store
	logrus.Infof("Graph database initialized: %s", cfg.DBPath)

	searchLog, err := storage.NewSearchLog(cfg.SearchesDBPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize search log: %w", err)
	}
	a.searchLog = searchLog

	var searcher query.Searcher
	switch cfg.SearchBackend {
	case "neo4j":
		neo, err := graphdb.NewNeo4jSearcher(ctx, graphdb.Options{
			URI:      cfg.Neo4jURI,
			Database: cfg.Neo4jDatabase,
			Username: cfg.Neo4jUsername,
			Password: cfg.Neo4jPassword,
			MaxDepth: cfg.MaxSearchDepth,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
		}
		a.neo4j = neo
		searcher = neo
		logrus.Infof("Path search backend: neo4j (%s)", cfg.Neo4jURI)
	default:
		searcher = search.NewSearcher(store, cfg.MaxSearchDepth)
		logrus.Info("Path search backend: sqlite")
	}

	client, err := wikipedia.NewClient(wikipedia.Options{
		APIURL:        cfg.WikipediaAPIURL,
		UserAgent:     cfg.UserAgent,
		ThumbnailSize: cfg.ThumbnailSize,
		BatchSize:     cfg.MetadataBatchSize,
		Concurrency:   cfg.MetadataConcurrency,
		Timeout:       time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
	}, a.tracker)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create metadata client: %w", err)
	}

	var fetcher query.MetadataFetcher = client
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			logrus.Warnf("Metadata cache disabled: %v", err)
		} else {
			a.redis = rdb
			fetcher = cache.NewPageCache(rdb, client, time.Duration(cfg.CacheTTLSeconds)*time.Second)
			logrus.Infof("Metadata cache enabled: %s", cfg.RedisAddr)
		}
	}

	a.service = query.NewService(store, searcher, query.NewAssembler(fetcher), searchLog, a.tracker)
	return a, nil
}

// Close releases every open connection
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logrus.Warnf("Failed to close redis client: %v", err)
		}
	}
	if a.neo4j != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.neo4j.Close(ctx); err != nil {
			logrus.Warnf("Failed to close neo4j driver: %v", err)
		}
	}
	if a.searchLog != nil {
		if err := a.searchLog.Close(); err != nil {
			logrus.Warnf("Failed to close search log: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logrus.Warnf("Failed to close graph database: %v", err)
		}
	}
}
