package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"serve", "query", "import", "recent"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestQueryRequiresTwoTitles(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"query", "Cat"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	if err := root.Execute(); err == nil {
		t.Fatalf("expected argument error")
	}
}

func TestImportThenRecent(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		return path
	}

	configPath := write("config.json", `{
		"db_path": "`+filepath.Join(dir, "graph.sqlite")+`",
		"searches_db_path": "`+filepath.Join(dir, "searches.sqlite")+`"
	}`)
	pages := write("pages.txt", "1\tCat\t0\n2\tDog\t0\n")
	links := write("links.txt", "1\t2\n")

	root := newRootCmd()
	root.SetArgs([]string{"--config", configPath, "import", "--pages", pages, "--links", links})
	if err := root.Execute(); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "graph.sqlite")); err != nil {
		t.Fatalf("graph database not created: %v", err)
	}

	var out bytes.Buffer
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", configPath, "recent", "--limit", "5"})
	if err := root.Execute(); err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "null" && got != "[]" {
		t.Fatalf("expected no searches, got %s", got)
	}
}

func TestRecentRejectsBadLimit(t *testing.T) {
	for _, limit := range []string{"0", "-1", "501"} {
		root := newRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.json"), "recent", "--limit", limit})
		err := root.Execute()
		if err == nil || !strings.Contains(err.Error(), "--limit") {
			t.Errorf("limit %s: expected limit error, got %v", limit, err)
		}
	}
}

func TestLoadConfigUnreadablePath(t *testing.T) {
	dir := t.TempDir()
	notDir := filepath.Join(dir, "file")
	if err := os.WriteFile(notDir, []byte("{}"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := loadConfig(filepath.Join(notDir, "config.json")); err == nil {
		t.Fatalf("expected error for a config path that cannot be read")
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.ListenAddr != ":5000" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestImportRejectsEmptyDump(t *testing.T) {
	dir := t.TempDir()
	pages := filepath.Join(dir, "pages.txt")
	links := filepath.Join(dir, "links.txt")
	for _, path := range []string{pages, links} {
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	configPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{"db_path": "`+filepath.Join(dir, "graph.sqlite")+`"}`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	root := newRootCmd()
	root.SetArgs([]string{"--config", configPath, "import", "--pages", pages, "--links", links})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "no pages loaded") {
		t.Fatalf("expected empty dump error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "graph.sqlite")); !os.IsNotExist(err) {
		t.Fatalf("graph database should not be created for an empty dump")
	}
}
