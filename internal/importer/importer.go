package importer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alvmarrod/degrees/internal/memory"
	"github.com/alvmarrod/degrees/internal/storage"
	"github.com/sirupsen/logrus"
)

// Files names the tab-separated dump files to import
type Files struct {
	Pages     string // id, title, is_redirect
	Links     string // from_id, to_id
	Redirects string // source_id, target_id
}

// Stats summarizes one import
type Stats struct {
	Pages     int
	Links     int
	Redirects int
	Skipped   int
}

// LoadFiles reads the dump files into the graph. Pages must be loaded first
// since links and redirects referencing unknown pages are skipped
func LoadFiles(graph *memory.Graph, files Files) (Stats, error) {
	var stats Stats

	if err := readFile(files.Pages, func(r io.Reader) error { return LoadPages(graph, r, &stats) }); err != nil {
		return stats, fmt.Errorf("failed to load pages: %w", err)
	}
	if files.Redirects != "" {
		if err := readFile(files.Redirects, func(r io.Reader) error { return LoadRedirects(graph, r, &stats) }); err != nil {
			return stats, fmt.Errorf("failed to load redirects: %w", err)
		}
	}
	if err := readFile(files.Links, func(r io.Reader) error { return LoadLinks(graph, r, &stats) }); err != nil {
		return stats, fmt.Errorf("failed to load links: %w", err)
	}

	logrus.Infof("Import complete: %d pages, %d links, %d redirects, %d lines skipped",
		stats.Pages, stats.Links, stats.Redirects, stats.Skipped)
	return stats, nil
}

func readFile(path string, load func(io.Reader) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return load(file)
}

// LoadPages reads "id<TAB>title<TAB>is_redirect" lines
func LoadPages(graph *memory.Graph, r io.Reader, stats *Stats) error {
	return eachRecord(r, 3, stats, func(fields []string) error {
		pageID, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("invalid page id %q", fields[0])
		}
		title := storage.SanitizeTitle(fields[1])
		if title == "" {
			return errors.New("empty title")
		}
		if storage.IsExcludedTitle(title) {
			return fmt.Errorf("non-article title %q", title)
		}
		isRedirect := fields[2] == "1"

		graph.UpsertPage(storage.Page{PageID: pageID, Title: title, IsRedirect: isRedirect})
		stats.Pages++
		return nil
	})
}

// LoadLinks reads "from_id<TAB>to_id" lines
func LoadLinks(graph *memory.Graph, r io.Reader, stats *Stats) error {
	return eachRecord(r, 2, stats, func(fields []string) error {
		from, to, err := parsePair(fields)
		if err != nil {
			return err
		}
		if err := graph.AddLink(from, to); err != nil {
			return err
		}
		stats.Links++
		return nil
	})
}

// LoadRedirects reads "source_id<TAB>target_id" lines
func LoadRedirects(graph *memory.Graph, r io.Reader, stats *Stats) error {
	return eachRecord(r, 2, stats, func(fields []string) error {
		source, target, err := parsePair(fields)
		if err != nil {
			return err
		}
		if err := graph.AddRedirect(source, target); err != nil {
			return err
		}
		stats.Redirects++
		return nil
	})
}

func parsePair(fields []string) (int, int, error) {
	a, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid page id %q", fields[0])
	}
	b, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid page id %q", fields[1])
	}
	return a, b, nil
}

// Longest dump line accepted
const maxLineBytes = 1 << 20

// eachRecord calls fn for every well-formed line; bad lines are logged and counted
// Fields are split on tabs only, quotes carry no meaning in the dumps
func eachRecord(r io.Reader, fieldCount int, stats *Stats, fn func([]string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if text == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) != fieldCount {
			logrus.Warnf("Skipping line %d: expected %d fields, got %d", line, fieldCount, len(fields))
			stats.Skipped++
			continue
		}
		if err := fn(fields); err != nil {
			logrus.Debugf("Skipping line %d: %v", line, err)
			stats.Skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("line %d: %w", line+1, err)
	}
	return nil
}
