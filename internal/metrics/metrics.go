package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/alvmarrod/degrees/internal/storage"
)

// Tracker holds and manages query metrics
type Tracker struct {
	mu               sync.Mutex
	data             storage.Metrics
	totalQueryTimeMs int64
	queryCount       int
}

// NewTracker creates a new metrics tracker
func NewTracker() *Tracker {
	return &Tracker{
		data: storage.Metrics{
			StartTime: time.Now(),
		},
	}
}

// IncrementQueriesServed increments the successful query counter
func (t *Tracker) IncrementQueriesServed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.QueriesServed++
}

// IncrementQueriesFailed increments the failed query counter
func (t *Tracker) IncrementQueriesFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.QueriesFailed++
}

// IncrementUnknownPages increments the unresolved title counter
func (t *Tracker) IncrementUnknownPages() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.UnknownPages++
}

// AddPathsReturned adds to the returned paths counter
func (t *Tracker) AddPathsReturned(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.PathsReturned += n
}

// RecordMetadataChunk records one metadata API call and how many pages it described
func (t *Tracker) RecordMetadataChunk(ok bool, pages int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.MetadataChunks++
	if !ok {
		t.data.MetadataChunksFailed++
	}
	t.data.PagesEnriched += pages
}

// RecordQueryTime records a query duration
func (t *Tracker) RecordQueryTime(duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalQueryTimeMs += duration.Milliseconds()
	t.queryCount++
}

// GetSnapshot returns a copy of current metrics
func (t *Tracker) GetSnapshot() storage.Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := t.data
	snapshot.TotalQueryTimeMs = t.totalQueryTimeMs

	// Calculate average query time
	if t.queryCount > 0 {
		snapshot.AvgQueryTimeMs = t.totalQueryTimeMs / int64(t.queryCount)
	}

	return snapshot
}

// WriteToFile exports metrics to a JSON file
func (t *Tracker) WriteToFile(path, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Finalize metrics
	t.data.EndTime = time.Now()
	t.data.TerminationReason = reason
	t.data.TotalQueryTimeMs = t.totalQueryTimeMs

	if t.queryCount > 0 {
		t.data.AvgQueryTimeMs = t.totalQueryTimeMs / int64(t.queryCount)
	}

	jsonData, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}

	return nil
}

// LogProgress formats current metrics for periodic console updates
func (t *Tracker) LogProgress() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return fmt.Sprintf("Queries: %d served, %d failed, %d unknown pages | Paths: %d | Metadata: %d chunks, %d failed, %d pages",
		t.data.QueriesServed,
		t.data.QueriesFailed,
		t.data.UnknownPages,
		t.data.PathsReturned,
		t.data.MetadataChunks,
		t.data.MetadataChunksFailed,
		t.data.PagesEnriched,
	)
}
