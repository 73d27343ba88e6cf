// Package runner executes the batch archiving pipeline.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/m-a-p/link-archiver/internal/archive"
	"github.com/m-a-p/link-archiver/internal/extract"
	"github.com/m-a-p/link-archiver/internal/logstore"
	"github.com/m-a-p/link-archiver/internal/ratelimit"
)

// Runner drives input files through extraction, submission, and the log.
type Runner struct {
	services  []archive.Service
	submitter *archive.Submitter
	store     *logstore.Store
	limiter   *ratelimit.Limiter
	clock     archive.Clock
	logger    *zap.Logger
}

// Counters tracks per-run outcomes for the final summary.
type Counters struct {
	FilesProcessed  int
	FilesSkipped    int
	FilesUnreadable int
	URLs            int
	Succeeded       int
	Failed          int
	AlreadyArchived int
}

// New constructs a Runner. Services are submitted to in name order so
// runs are reproducible.
func New(
	services []archive.Service,
	submitter *archive.Submitter,
	store *logstore.Store,
	limiter *ratelimit.Limiter,
	clock archive.Clock,
	logger *zap.Logger,
) *Runner {
	sorted := make([]archive.Service, len(services))
	copy(sorted, services)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })
	return &Runner{
		services:  sorted,
		submitter: submitter,
		store:     store,
		limiter:   limiter,
		clock:     clock,
		logger:    logger,
	}
}

// Run archives every URL found in files and persists the merged log.
// Unparsable files and per-URL submission failures are recorded and do
// not abort the batch; only an unusable log store or a fully unreadable
// input set is fatal.
func (r *Runner) Run(ctx context.Context, files []string) (logstore.Log, Counters, error) {
	runID := uuid.NewString()
	logger := r.logger.With(zap.String("run_id", runID))
	counters := Counters{}

	log, err := r.store.Load()
	if err != nil {
		return logstore.Log{}, counters, fmt.Errorf("load log: %w", err)
	}

	sortedFiles := make([]string, len(files))
	copy(sortedFiles, files)
	sort.Strings(sortedFiles)

	// Collect URLs first so a URL referenced by several files is
	// submitted once but associated with all of them.
	urlFiles := make(map[string][]string)
	for _, file := range sortedFiles {
		urls, err := extract.FromFile(file)
		if err != nil {
			var perr *extract.ParseError
			if errors.As(err, &perr) {
				counters.FilesSkipped++
				logger.Warn("skipping unparsable file", zap.String("file", file), zap.Error(err))
			} else {
				counters.FilesUnreadable++
				logger.Warn("skipping unreadable file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		counters.FilesProcessed++
		logger.Info("extracted urls", zap.String("file", file), zap.Int("count", len(urls)))
		for _, u := range urls {
			urlFiles[u] = append(urlFiles[u], file)
		}
	}
	// Unparsable files are skipped per file; only a batch where no file
	// could even be read is a fatal input error.
	if len(files) > 0 && counters.FilesUnreadable == len(files) {
		return logstore.Log{}, counters, fmt.Errorf("no input file could be read")
	}

	urls := make([]string, 0, len(urlFiles))
	for u := range urlFiles {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	counters.URLs = len(urls)

	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}
		results := r.submitURL(ctx, u, log, &counters)
		now := r.clock.Now()
		for _, file := range urlFiles[u] {
			log = logstore.Merge(log, u, results, file, now)
		}
	}

	if err := r.store.Save(log); err != nil {
		return logstore.Log{}, counters, fmt.Errorf("save log: %w", err)
	}

	logger.Info("run complete",
		zap.Int("files_processed", counters.FilesProcessed),
		zap.Int("files_skipped", counters.FilesSkipped),
		zap.Int("files_unreadable", counters.FilesUnreadable),
		zap.Int("urls", counters.URLs),
		zap.Int("succeeded", counters.Succeeded),
		zap.Int("failed", counters.Failed),
		zap.Int("already_archived", counters.AlreadyArchived),
		zap.String("log", r.store.Path()),
	)

	if ctx.Err() != nil {
		return log, counters, ctx.Err()
	}
	return log, counters, nil
}

// submitURL sends one URL to every configured service. Services are
// independent: one failing never blocks the others. A service that
// already archived the URL in a previous run is skipped to conserve the
// rate-limit budget; its entry is left absent so the merge keeps the
// stored success untouched.
func (r *Runner) submitURL(ctx context.Context, url string, log logstore.Log, counters *Counters) map[string]archive.ServiceResult {
	results := make(map[string]archive.ServiceResult, len(r.services))
	for _, svc := range r.services {
		if prev, ok := log.ArchivedLinks[url].Services[svc.Name()]; ok && prev.Success {
			counters.AlreadyArchived++
			r.logger.Debug("url already archived, skipping",
				zap.String("service", svc.Name()),
				zap.String("url", url),
			)
			continue
		}
		if err := r.limiter.Wait(ctx, svc.Name()); err != nil {
			results[svc.Name()] = archive.ServiceResult{
				Success:     false,
				Error:       err.Error(),
				LastAttempt: r.clock.Now(),
			}
			counters.Failed++
			continue
		}
		res := r.submitter.Submit(ctx, svc, url)
		results[svc.Name()] = res
		if res.Success {
			counters.Succeeded++
		} else {
			counters.Failed++
		}
	}
	return results
}
