package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alvmarrod/degrees/internal/metrics"
	"github.com/alvmarrod/degrees/internal/query"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MaxBatchSize is the most page IDs the API accepts per query
const MaxBatchSize = 50

// Options configures the metadata client
type Options struct {
	APIURL        string
	UserAgent     string
	ThumbnailSize int
	BatchSize     int
	Concurrency   int
	Timeout       time.Duration
}

// Client fetches page metadata from the MediaWiki action API
type Client struct {
	collector     *colly.Collector
	apiURL        string
	thumbnailSize int
	batchSize     int
	concurrency   int
	tracker       *metrics.Tracker
}

// NewClient creates a metadata client; tracker may be nil
func NewClient(opts Options, tracker *metrics.Tracker) (*Client, error) {
	if opts.APIURL == "" {
		return nil, errors.New("api url is required")
	}
	if opts.BatchSize < 1 || opts.BatchSize > MaxBatchSize {
		return nil, fmt.Errorf("batch size must be between 1 and %d, got %d", MaxBatchSize, opts.BatchSize)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	collectorOpts := []colly.CollectorOption{
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	}
	if opts.UserAgent != "" {
		collectorOpts = append(collectorOpts, colly.UserAgent(opts.UserAgent))
	}
	collector := colly.NewCollector(collectorOpts...)
	if opts.Timeout > 0 {
		collector.SetRequestTimeout(opts.Timeout)
	}

	return &Client{
		collector:     collector,
		apiURL:        opts.APIURL,
		thumbnailSize: opts.ThumbnailSize,
		batchSize:     opts.BatchSize,
		concurrency:   opts.Concurrency,
		tracker:       tracker,
	}, nil
}

// FetchMetadata returns metadata for the given pages, one API call per chunk
// A failed chunk is logged and contributes no pages; only cancellation of
// ctx is returned as an error
func (c *Client) FetchMetadata(ctx context.Context, pageIDs []int) (query.PagesMap, error) {
	if len(pageIDs) == 0 {
		return query.PagesMap{}, nil
	}

	chunks := chunkIDs(pageIDs, c.batchSize)
	results := make([]query.PagesMap, len(chunks))

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			pages, err := c.fetchChunk(ctx, chunk)
			if err != nil {
				logrus.Warnf("Metadata chunk %d/%d (%d pages, first=%d) failed: %v", i+1, len(chunks), len(chunk), chunk[0], err)
				if c.tracker != nil {
					c.tracker.RecordMetadataChunk(false, 0)
				}
				return nil
			}
			if c.tracker != nil {
				c.tracker.RecordMetadataChunk(true, len(pages))
			}
			results[i] = pages
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := make(query.PagesMap, len(pageIDs))
	for _, pages := range results {
		for id, info := range pages {
			merged[id] = info
		}
	}

	return merged, nil
}

// fetchChunk issues a single API request for at most MaxBatchSize pages
func (c *Client) fetchChunk(ctx context.Context, pageIDs []int) (query.PagesMap, error) {
	if len(pageIDs) > MaxBatchSize {
		panic(fmt.Sprintf("metadata chunk of %d pages exceeds API limit of %d", len(pageIDs), MaxBatchSize))
	}

	collector := c.collector.Clone()
	collector.Context = ctx

	var body []byte
	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/json")
	})
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := collector.Visit(c.chunkURL(pageIDs)); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("api error %s: %s", resp.Error.Code, resp.Error.Info)
	}
	if resp.Query == nil {
		return nil, errors.New("response has no query section")
	}

	return normalizePages(resp.Query.Pages, pageIDs), nil
}

// chunkURL builds the action=query URL for one chunk
func (c *Client) chunkURL(pageIDs []int) string {
	ids := make([]string, len(pageIDs))
	for i, id := range pageIDs {
		ids[i] = strconv.Itoa(id)
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("pageids", strings.Join(ids, "|"))
	params.Set("prop", "info|pageimages|pageterms")
	params.Set("inprop", "url|displaytitle")
	params.Set("piprop", "thumbnail")
	params.Set("pithumbsize", strconv.Itoa(c.thumbnailSize))
	params.Set("pilimit", strconv.Itoa(MaxBatchSize))
	params.Set("wbptterms", "description")

	sep := "?"
	if strings.Contains(c.apiURL, "?") {
		sep = "&"
	}
	return c.apiURL + sep + params.Encode()
}

// chunkIDs splits ids into consecutive chunks of at most size elements
func chunkIDs(ids []int, size int) [][]int {
	var chunks [][]int
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
