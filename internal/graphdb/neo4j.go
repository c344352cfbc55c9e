package graphdb

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/alvmarrod/degrees/internal/storage"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrMissingURI indicates the graph URI is not provided
var ErrMissingURI = errors.New("graph URI is required")

// Options configures the Neo4j connection
type Options struct {
	URI      string
	Database string
	Username string
	Password string
	MaxDepth int
}

// Neo4jSearcher answers shortest path queries against a graph of
// (:Page {id})-[:LINKS_TO]->(:Page) nodes
type Neo4jSearcher struct {
	driver   neo4j.DriverWithContext
	database string
	maxDepth int
}

// NewNeo4jSearcher establishes a Bolt connection using the official Neo4j driver
func NewNeo4jSearcher(ctx context.Context, opts Options) (*Neo4jSearcher, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 10
	}

	return &Neo4jSearcher{
		driver:   driver,
		database: opts.Database,
		maxDepth: maxDepth,
	}, nil
}

// shortestPathsCypher needs the depth bound inlined; Cypher has no
// parameter for variable-length bounds
func shortestPathsCypher(maxDepth int) string {
	return fmt.Sprintf(`
MATCH (s:Page {id: $source}), (t:Page {id: $target})
MATCH p = allShortestPaths((s)-[:LINKS_TO*..%d]->(t))
RETURN [n IN nodes(p) | n.id] AS ids
`, maxDepth)
}

// SearchShortestPaths returns every shortest path from source to target
func (s *Neo4jSearcher) SearchShortestPaths(ctx context.Context, source, target int) (storage.PathSet, error) {
	if source == target {
		return storage.PathSet{{source}}, nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, shortestPathsCypher(s.maxDepth), map[string]any{
		"source": int64(source),
		"target": int64(target),
	})
	if err != nil {
		return nil, fmt.Errorf("shortest paths query: %w", err)
	}

	paths := storage.PathSet{}
	for res.Next(ctx) {
		value, _ := res.Record().Get("ids")
		path, err := toPath(value)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("shortest paths query: %w", err)
	}

	slices.SortFunc(paths, func(a, b storage.Path) int {
		return slices.Compare(a, b)
	})
	return paths, nil
}

// Close releases the driver
func (s *Neo4jSearcher) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func toPath(value any) (storage.Path, error) {
	raw, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected path value %T", value)
	}

	path := make(storage.Path, 0, len(raw))
	for _, v := range raw {
		switch id := v.(type) {
		case int64:
			path = append(path, int(id))
		case int:
			path = append(path, id)
		default:
			return nil, fmt.Errorf("unexpected page id %T in path", v)
		}
	}
	return path, nil
}
