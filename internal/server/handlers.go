package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/alvmarrod/degrees/internal/query"
	"github.com/alvmarrod/degrees/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// QueryHandler runs one shortest path query
type QueryHandler interface {
	HandleQuery(ctx context.Context, sourceTitle, targetTitle string) (query.Result, error)
}

// StatsSource exposes the current service counters
type StatsSource interface {
	GetSnapshot() storage.Metrics
}

// RecentSearches lists the latest audit records
type RecentSearches interface {
	Recent(ctx context.Context, limit int) ([]storage.SearchRecord, error)
}

type pathsRequest struct {
	Source string `json:"source" binding:"required"`
	Target string `json:"target" binding:"required"`
}

type handlers struct {
	queries QueryHandler
	stats   StatsSource
	recent  RecentSearches
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) paths(c *gin.Context) {
	var req pathsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must include source and target page titles"})
		return
	}

	result, err := h.queries.HandleQuery(c.Request.Context(), req.Source, req.Target)
	if err != nil {
		var unknown *query.UnknownPageError
		if errors.As(err, &unknown) {
			c.JSON(http.StatusBadRequest, gin.H{"error": unknown.Error()})
			return
		}
		logrus.WithField("request_id", c.GetString("request_id")).Errorf("Query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *handlers) statsSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.GetSnapshot())
}

func (h *handlers) recentSearches(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > storage.MaxRecentLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be between 1 and %d", storage.MaxRecentLimit)})
			return
		}
		limit = n
	}

	records, err := h.recent.Recent(c.Request.Context(), limit)
	if err != nil {
		logrus.Errorf("Failed to list recent searches: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if records == nil {
		records = []storage.SearchRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"searches": records})
}
