package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alvmarrod/degrees/internal/metrics"
	"github.com/alvmarrod/degrees/internal/storage"
	"github.com/sirupsen/logrus"
)

// Service handles shortest path queries end to end
type Service struct {
	resolver  Resolver
	searcher  Searcher
	assembler *Assembler
	audit     AuditSink
	tracker   *metrics.Tracker
}

// NewService wires the query collaborators; tracker may be nil
func NewService(resolver Resolver, searcher Searcher, assembler *Assembler, audit AuditSink, tracker *metrics.Tracker) *Service {
	return &Service{
		resolver:  resolver,
		searcher:  searcher,
		assembler: assembler,
		audit:     audit,
		tracker:   tracker,
	}
}

// HandleQuery resolves both titles, searches for shortest paths, enriches
// them with page metadata and writes an audit record
func (s *Service) HandleQuery(ctx context.Context, sourceTitle, targetTitle string) (Result, error) {
	startTime := time.Now()

	result, rec, err := s.run(ctx, sourceTitle, targetTitle, startTime)
	if err != nil {
		s.recordFailure(err)
		return Result{}, err
	}

	// Audit failures never reach the caller
	if err := s.audit.AppendAuditRecord(context.WithoutCancel(ctx), rec); err != nil {
		logrus.Warnf("Failed to write audit record for %d -> %d: %v", rec.SourceID, rec.TargetID, err)
	}

	if s.tracker != nil {
		s.tracker.IncrementQueriesServed()
		s.tracker.AddPathsReturned(len(result.Paths))
		s.tracker.RecordQueryTime(time.Since(startTime))
	}

	logrus.WithFields(logrus.Fields{
		"source":   sourceTitle,
		"target":   targetTitle,
		"paths":    len(result.Paths),
		"pages":    len(result.Pages),
		"duration": rec.Duration,
	}).Info("Query complete")

	return result, nil
}

func (s *Service) run(ctx context.Context, sourceTitle, targetTitle string, startTime time.Time) (Result, storage.SearchRecord, error) {
	sourceID, err := s.resolve(ctx, sourceTitle, SideSource)
	if err != nil {
		return Result{}, storage.SearchRecord{}, err
	}

	targetID, err := s.resolve(ctx, targetTitle, SideTarget)
	if err != nil {
		return Result{}, storage.SearchRecord{}, err
	}

	paths, err := s.searcher.SearchShortestPaths(ctx, sourceID, targetID)
	if err != nil {
		return Result{}, storage.SearchRecord{}, fmt.Errorf("%w: search %d -> %d: %w", ErrUpstreamUnavailable, sourceID, targetID, err)
	}
	if paths == nil {
		paths = storage.PathSet{}
	}

	result, err := s.assembler.Assemble(ctx, paths)
	if err != nil {
		return Result{}, storage.SearchRecord{}, err
	}

	rec := storage.SearchRecord{
		SourceID: sourceID,
		TargetID: targetID,
		Duration: time.Since(startTime).Seconds(),
		Paths:    paths,
	}

	return result, rec, nil
}

func (s *Service) resolve(ctx context.Context, title string, side Side) (int, error) {
	pageID, err := s.resolver.ResolveTitle(ctx, title)
	if errors.Is(err, storage.ErrPageNotFound) {
		return 0, &UnknownPageError{Title: title, Side: side}
	}
	if err != nil {
		return 0, fmt.Errorf("%w: resolve %s page %q: %w", ErrUpstreamUnavailable, side, title, err)
	}
	return pageID, nil
}

func (s *Service) recordFailure(err error) {
	var unknown *UnknownPageError
	if errors.As(err, &unknown) {
		logrus.Infof("Query rejected: %v", err)
		if s.tracker != nil {
			s.tracker.IncrementUnknownPages()
		}
		return
	}

	logrus.Errorf("Query failed: %v", err)
	if s.tracker != nil {
		s.tracker.IncrementQueriesFailed()
	}
}
