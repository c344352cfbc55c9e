package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Max number of bound parameters per IN (...) query
const linkQueryBatch = 500

// Storage handles all link graph database operations
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new Storage instance, opening/creating the DB and initializing schema
func NewStorage(dbPath string) (*Storage, error) {
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	storage := &Storage{db: db}

	// Initialize schema
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func openSQLite(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// initSchema creates tables and indices if they don't exist
func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		is_redirect INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS links (
		from_id INTEGER NOT NULL,
		to_id INTEGER NOT NULL,
		PRIMARY KEY (from_id, to_id)
	) WITHOUT ROWID;

	CREATE TABLE IF NOT EXISTS redirects (
		source_id INTEGER PRIMARY KEY,
		target_id INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_title ON pages(title COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_links_to ON links(to_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ResolveTitle returns the page ID for a title, following redirects
// Returns ErrPageNotFound if no page matches
func (s *Storage) ResolveTitle(ctx context.Context, title string) (int, error) {
	sanitized := SanitizeTitle(title)
	if sanitized == "" {
		return 0, ErrPageNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, is_redirect
		FROM pages
		WHERE title = ? COLLATE NOCASE
		ORDER BY id ASC
	`, sanitized)
	if err != nil {
		return 0, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var candidates []Page
	for rows.Next() {
		var page Page
		if err := rows.Scan(&page.PageID, &page.Title, &page.IsRedirect); err != nil {
			return 0, fmt.Errorf("failed to scan page: %w", err)
		}
		candidates = append(candidates, page)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating pages: %w", err)
	}

	chosen, ok := pickCandidate(sanitized, candidates)
	if !ok {
		return 0, ErrPageNotFound
	}
	if !chosen.IsRedirect {
		return chosen.PageID, nil
	}

	var targetID int
	err = s.db.QueryRowContext(ctx, "SELECT target_id FROM redirects WHERE source_id = ?", chosen.PageID).Scan(&targetID)
	if err == sql.ErrNoRows {
		return 0, ErrPageNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to follow redirect: %w", err)
	}

	return targetID, nil
}

// pickCandidate prefers an exact non-redirect match, then any non-redirect,
// then the first redirect
func pickCandidate(sanitized string, candidates []Page) (Page, bool) {
	if len(candidates) == 0 {
		return Page{}, false
	}
	for _, page := range candidates {
		if page.Title == sanitized && !page.IsRedirect {
			return page, true
		}
	}
	for _, page := range candidates {
		if !page.IsRedirect {
			return page, true
		}
	}
	return candidates[0], true
}

// OutgoingLinks returns the link targets of each given page
func (s *Storage) OutgoingLinks(ctx context.Context, pageIDs []int) (map[int][]int, error) {
	return s.adjacency(ctx, "from_id", "to_id", pageIDs)
}

// IncomingLinks returns the link sources pointing at each given page
func (s *Storage) IncomingLinks(ctx context.Context, pageIDs []int) (map[int][]int, error) {
	return s.adjacency(ctx, "to_id", "from_id", pageIDs)
}

func (s *Storage) adjacency(ctx context.Context, keyCol, valueCol string, pageIDs []int) (map[int][]int, error) {
	result := make(map[int][]int)

	for start := 0; start < len(pageIDs); start += linkQueryBatch {
		end := min(start+linkQueryBatch, len(pageIDs))
		batch := pageIDs[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		query := fmt.Sprintf("SELECT %s, %s FROM links WHERE %s IN (%s)", keyCol, valueCol, keyCol, placeholders)
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query links: %w", err)
		}

		for rows.Next() {
			var key, value int
			if err := rows.Scan(&key, &value); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan link: %w", err)
			}
			result[key] = append(result[key], value)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("error iterating links: %w", err)
		}
	}

	return result, nil
}

// InsertPages inserts or replaces pages in a single transaction
func (s *Storage) InsertPages(pages []Page) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare("INSERT OR REPLACE INTO pages (id, title, is_redirect) VALUES (?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, page := range pages {
			if _, err := stmt.Exec(page.PageID, page.Title, page.IsRedirect); err != nil {
				return fmt.Errorf("failed to insert page %d: %w", page.PageID, err)
			}
		}
		return nil
	})
}

// InsertLinks inserts links in a single transaction, ignoring duplicates
func (s *Storage) InsertLinks(links []Link) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare("INSERT OR IGNORE INTO links (from_id, to_id) VALUES (?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, link := range links {
			if _, err := stmt.Exec(link.FromID, link.ToID); err != nil {
				return fmt.Errorf("failed to insert link %d->%d: %w", link.FromID, link.ToID, err)
			}
		}
		return nil
	})
}

// InsertRedirects inserts or replaces redirects in a single transaction
func (s *Storage) InsertRedirects(redirects []Redirect) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare("INSERT OR REPLACE INTO redirects (source_id, target_id) VALUES (?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range redirects {
			if _, err := stmt.Exec(r.SourceID, r.TargetID); err != nil {
				return fmt.Errorf("failed to insert redirect %d->%d: %w", r.SourceID, r.TargetID, err)
			}
		}
		return nil
	})
}

func (s *Storage) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
