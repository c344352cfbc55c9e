package memory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alvmarrod/degrees/internal/storage"
)

func buildGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	g.UpsertPage(storage.Page{PageID: 100, Title: "Cat"})
	g.UpsertPage(storage.Page{PageID: 150, Title: "Mammal"})
	g.UpsertPage(storage.Page{PageID: 200, Title: "Dog"})
	g.UpsertPage(storage.Page{PageID: 201, Title: "Doggo", IsRedirect: true})
	for _, l := range [][2]int{{100, 150}, {150, 200}, {100, 150}} {
		if err := g.AddLink(l[0], l[1]); err != nil {
			t.Fatalf("AddLink(%d, %d) failed: %v", l[0], l[1], err)
		}
	}
	if err := g.AddRedirect(201, 200); err != nil {
		t.Fatalf("AddRedirect failed: %v", err)
	}
	return g
}

func TestGraphResolveTitle(t *testing.T) {
	g := buildGraph(t)
	ctx := context.Background()

	tests := map[string]int{"Cat": 100, "cat": 100, "Doggo": 200, " Dog ": 200}
	for title, want := range tests {
		got, err := g.ResolveTitle(ctx, title)
		if err != nil {
			t.Fatalf("ResolveTitle(%q) failed: %v", title, err)
		}
		if got != want {
			t.Fatalf("ResolveTitle(%q) = %d, want %d", title, got, want)
		}
	}

	if _, err := g.ResolveTitle(ctx, "Nonexistent"); !errors.Is(err, storage.ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestGraphRenamedPage(t *testing.T) {
	g := buildGraph(t)
	g.UpsertPage(storage.Page{PageID: 100, Title: "Felis_catus"})

	if _, err := g.ResolveTitle(context.Background(), "Cat"); !errors.Is(err, storage.ErrPageNotFound) {
		t.Fatalf("expected old title to be gone, got %v", err)
	}
	if id, err := g.ResolveTitle(context.Background(), "Felis catus"); err != nil || id != 100 {
		t.Fatalf("expected new title to resolve to 100, got %d (err=%v)", id, err)
	}
}

func TestGraphLinks(t *testing.T) {
	g := buildGraph(t)

	if err := g.AddLink(100, 999); err == nil {
		t.Fatalf("expected error linking to unknown page")
	}

	out, _ := g.OutgoingLinks(context.Background(), []int{100, 150, 200})
	if len(out[100]) != 1 || out[100][0] != 150 {
		t.Fatalf("unexpected outgoing links: %v", out)
	}
	if _, ok := out[200]; ok {
		t.Fatalf("page 200 has no outgoing links")
	}

	in, _ := g.IncomingLinks(context.Background(), []int{200})
	if len(in[200]) != 1 || in[200][0] != 150 {
		t.Fatalf("unexpected incoming links: %v", in)
	}

	pages, links, redirects := g.GetStats()
	if pages != 4 || links != 2 || redirects != 1 {
		t.Fatalf("unexpected stats: pages=%d links=%d redirects=%d", pages, links, redirects)
	}
}

func TestGraphFlush(t *testing.T) {
	g := buildGraph(t)

	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "graph.sqlite"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer store.Close()

	if err := g.Flush(store); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	ctx := context.Background()
	id, err := store.ResolveTitle(ctx, "Doggo")
	if err != nil || id != 200 {
		t.Fatalf("expected flushed redirect to resolve to 200, got %d (err=%v)", id, err)
	}
	out, err := store.OutgoingLinks(ctx, []int{150})
	if err != nil || len(out[150]) != 1 || out[150][0] != 200 {
		t.Fatalf("unexpected flushed links: %v (err=%v)", out, err)
	}
}

func TestGraphCaseFoldingMatchesSQLite(t *testing.T) {
	g := buildGraph(t)
	g.UpsertPage(storage.Page{PageID: 300, Title: "Écrivain"})

	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "graph.sqlite"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer store.Close()
	if err := g.Flush(store); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	ctx := context.Background()
	for _, title := range []string{"Écrivain", "ÉCRIVAIN", "écrivain", "CAT", "dOGGO"} {
		memID, memErr := g.ResolveTitle(ctx, title)
		dbID, dbErr := store.ResolveTitle(ctx, title)
		if memID != dbID || errors.Is(memErr, storage.ErrPageNotFound) != errors.Is(dbErr, storage.ErrPageNotFound) {
			t.Errorf("ResolveTitle(%q): memory=%d (%v), sqlite=%d (%v)", title, memID, memErr, dbID, dbErr)
		}
	}

	if _, err := g.ResolveTitle(ctx, "écrivain"); !errors.Is(err, storage.ErrPageNotFound) {
		t.Fatalf("expected non-ASCII case to stay distinct, got %v", err)
	}
}
