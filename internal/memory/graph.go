package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alvmarrod/degrees/internal/storage"
	"github.com/sirupsen/logrus"
)

// Graph holds the page link graph in memory for fast access
type Graph struct {
	pages     map[int]*storage.Page    // pageID -> page
	byTitle   map[string][]int         // ASCII-folded title -> pageIDs
	redirects map[int]int              // source -> target
	outgoing  map[int]map[int]struct{} // from -> set of to
	incoming  map[int]map[int]struct{} // to -> set of from
	linkCount int
	mu        sync.RWMutex
}

// NewGraph creates a new in-memory graph
func NewGraph() *Graph {
	return &Graph{
		pages:     make(map[int]*storage.Page),
		byTitle:   make(map[string][]int),
		redirects: make(map[int]int),
		outgoing:  make(map[int]map[int]struct{}),
		incoming:  make(map[int]map[int]struct{}),
	}
}

// UpsertPage inserts or replaces a page
func (g *Graph) UpsertPage(page storage.Page) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, exists := g.pages[page.PageID]; exists {
		g.removeTitle(old.Title, old.PageID)
	}

	pageCopy := page
	g.pages[page.PageID] = &pageCopy
	key := storage.FoldTitle(page.Title)
	g.byTitle[key] = append(g.byTitle[key], page.PageID)
}

func (g *Graph) removeTitle(title string, pageID int) {
	key := storage.FoldTitle(title)
	ids := g.byTitle[key]
	for i, id := range ids {
		if id == pageID {
			g.byTitle[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(g.byTitle[key]) == 0 {
		delete(g.byTitle, key)
	}
}

// AddLink records a directed link between two known pages
func (g *Graph) AddLink(fromID, toID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Verify pages exist
	if _, exists := g.pages[fromID]; !exists {
		return fmt.Errorf("source page %d not found", fromID)
	}
	if _, exists := g.pages[toID]; !exists {
		return fmt.Errorf("target page %d not found", toID)
	}

	if g.outgoing[fromID] == nil {
		g.outgoing[fromID] = make(map[int]struct{})
	}
	if _, exists := g.outgoing[fromID][toID]; exists {
		return nil
	}
	g.outgoing[fromID][toID] = struct{}{}

	if g.incoming[toID] == nil {
		g.incoming[toID] = make(map[int]struct{})
	}
	g.incoming[toID][fromID] = struct{}{}
	g.linkCount++

	return nil
}

// AddRedirect records that sourceID redirects to targetID
func (g *Graph) AddRedirect(sourceID, targetID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.pages[sourceID]; !exists {
		return fmt.Errorf("redirect page %d not found", sourceID)
	}
	g.redirects[sourceID] = targetID
	return nil
}

// ResolveTitle returns the page ID for a title, following redirects
func (g *Graph) ResolveTitle(_ context.Context, title string) (int, error) {
	sanitized := storage.SanitizeTitle(title)

	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := append([]int(nil), g.byTitle[storage.FoldTitle(sanitized)]...)
	if sanitized == "" || len(ids) == 0 {
		return 0, storage.ErrPageNotFound
	}
	sort.Ints(ids)

	var exact, anyArticle *storage.Page
	for _, id := range ids {
		page := g.pages[id]
		switch {
		case !page.IsRedirect && page.Title == sanitized && exact == nil:
			exact = page
		case !page.IsRedirect && anyArticle == nil:
			anyArticle = page
		}
	}

	switch {
	case exact != nil:
		return exact.PageID, nil
	case anyArticle != nil:
		return anyArticle.PageID, nil
	}

	// Only redirects matched (lowest ID first, same as the sqlite store)
	first := g.pages[ids[0]]
	target, ok := g.redirects[first.PageID]
	if !ok {
		return 0, storage.ErrPageNotFound
	}
	return target, nil
}

// OutgoingLinks returns the link targets of each given page
func (g *Graph) OutgoingLinks(_ context.Context, pageIDs []int) (map[int][]int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return collect(g.outgoing, pageIDs), nil
}

// IncomingLinks returns the link sources pointing at each given page
func (g *Graph) IncomingLinks(_ context.Context, pageIDs []int) (map[int][]int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return collect(g.incoming, pageIDs), nil
}

func collect(adjacency map[int]map[int]struct{}, pageIDs []int) map[int][]int {
	result := make(map[int][]int)
	for _, id := range pageIDs {
		neighbors, ok := adjacency[id]
		if !ok {
			continue
		}
		list := make([]int, 0, len(neighbors))
		for n := range neighbors {
			list = append(list, n)
		}
		sort.Ints(list)
		result[id] = list
	}
	return result
}

// GetStats returns current graph statistics
func (g *Graph) GetStats() (pageCount, linkCount, redirectCount int) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.pages), g.linkCount, len(g.redirects)
}

// Flush writes all in-memory data to SQLite storage
func (g *Graph) Flush(store *storage.Storage) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	startTime := time.Now()
	logrus.Info("Starting flush to database...")

	pages := make([]storage.Page, 0, len(g.pages))
	for _, page := range g.pages {
		pages = append(pages, *page)
	}
	if err := store.InsertPages(pages); err != nil {
		return fmt.Errorf("failed to flush pages: %w", err)
	}

	links := make([]storage.Link, 0, g.linkCount)
	for from, targets := range g.outgoing {
		for to := range targets {
			links = append(links, storage.Link{FromID: from, ToID: to})
		}
	}
	if err := store.InsertLinks(links); err != nil {
		return fmt.Errorf("failed to flush links: %w", err)
	}

	redirects := make([]storage.Redirect, 0, len(g.redirects))
	for source, target := range g.redirects {
		redirects = append(redirects, storage.Redirect{SourceID: source, TargetID: target})
	}
	if err := store.InsertRedirects(redirects); err != nil {
		return fmt.Errorf("failed to flush redirects: %w", err)
	}

	duration := time.Since(startTime)
	logrus.Infof("Flush complete: %d pages, %d links, %d redirects written in %v",
		len(pages), len(links), len(redirects), duration)

	return nil
}
