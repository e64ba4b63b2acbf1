// Package scan drives the processing pipeline: a single-worker FIFO that
// takes each scan through quota consumption, checkout, survey, AI analysis
// and persistence, reconciling quota refunds on failure.
package scan

import (
	"context"
	"sync"
	"time"

	"github.com/gitgauge/gitgauge/internal/interfaces"
	"github.com/gitgauge/gitgauge/internal/logging"
	"github.com/gitgauge/gitgauge/internal/model"
	"github.com/gitgauge/gitgauge/internal/quota"
)

// Orchestrator owns scan status after record creation: it is the only
// component with write authority over a record's lifecycle. One worker
// goroutine consumes the queue, so at most one scan is ever running per
// process.
type Orchestrator struct {
	store    interfaces.ScanStore
	quota    *quota.Tracker
	fetcher  interfaces.RepoFetcher
	surveyor interfaces.Surveyor
	analyzer interfaces.Analyzer
	logger   logging.Logger

	queue *fifo
	wake  chan struct{}
	quit  chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewOrchestrator wires the pipeline components and starts the worker.
func NewOrchestrator(
	store interfaces.ScanStore,
	tracker *quota.Tracker,
	fetcher interfaces.RepoFetcher,
	surveyor interfaces.Surveyor,
	analyzer interfaces.Analyzer,
	logger logging.Logger,
) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		quota:    tracker,
		fetcher:  fetcher,
		surveyor: surveyor,
		analyzer: analyzer,
		logger:   logger,
		queue:    &fifo{},
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
	}
	o.wg.Add(1)
	go o.work()
	return o
}

// Submit appends a scan id to the queue and returns immediately.
func (o *Orchestrator) Submit(scanID string) {
	o.queue.push(scanID)
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// QueueDepth reports pending entries and whether a scan is being processed.
func (o *Orchestrator) QueueDepth() (pending int, processing bool) {
	return o.queue.depth()
}

// CancelIfQueued removes a scan from the queue if it has not been dequeued
// yet, deleting its record. A running scan cannot be cancelled.
func (o *Orchestrator) CancelIfQueued(ctx context.Context, scanID string) bool {
	if !o.queue.remove(scanID) {
		return false
	}
	if err := o.store.DeleteScan(ctx, scanID); err != nil {
		o.logger.Warn("cancelled scan record not deleted",
			logging.Field{Key: "scan_id", Value: scanID},
			logging.Field{Key: "error", Value: err.Error()})
	}
	return true
}

// Close stops the worker after the current scan (if any) finishes.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() { close(o.quit) })
	o.wg.Wait()
}

// work is the single sequential consumer. A failing scan never blocks the
// ones behind it.
func (o *Orchestrator) work() {
	defer o.wg.Done()
	for {
		select {
		case <-o.quit:
			return
		case <-o.wake:
		}

		for {
			select {
			case <-o.quit:
				return
			default:
			}
			id, ok := o.queue.pop()
			if !ok {
				break
			}
			o.queue.setProcessing(true)
			o.process(context.Background(), id)
			o.queue.setProcessing(false)
		}
	}
}

func (o *Orchestrator) setProgress(ctx context.Context, id string, stage model.Stage, message string, pct int) {
	_, err := o.store.UpdateScan(ctx, id, func(rec *model.ScanRecord) {
		rec.Status = model.ScanRunning
		rec.Progress = &model.Progress{Stage: stage, Message: message, Percentage: pct}
	})
	if err != nil {
		o.logger.Warn("progress update failed",
			logging.Field{Key: "scan_id", Value: id},
			logging.Field{Key: "error", Value: err.Error()})
	}
}

// process drives one scan through the full state machine.
func (o *Orchestrator) process(ctx context.Context, id string) {
	log := o.logger.With(logging.Field{Key: "component", Value: "orchestrator"})

	rec, err := o.store.GetScan(ctx, id)
	if err != nil {
		log.Error("dequeued scan could not be loaded",
			logging.Field{Key: "scan_id", Value: id},
			logging.Field{Key: "error", Value: err.Error()})
		return
	}
	if rec.RepoURL == "" {
		o.fail(ctx, id, errMalformedRecord, false, "")
		return
	}

	identifier := rec.QuotaIdentifier()

	// Read-only re-check; quota has not been spent yet, so a disallow here
	// fails the scan without a refund.
	if dec := o.quota.CheckOnly(ctx, identifier, rec.Authenticated()); !dec.Allowed {
		o.fail(ctx, id, errQuotaExceeded, false, identifier)
		return
	}

	// Direct consume: the check just happened. From here on quota is spent
	// and a refund is owed on any non-malicious failure.
	o.quota.Consume(ctx, identifier)
	consumed := true

	o.setProgress(ctx, id, model.StageCloning, "cloning repository", 10)

	localPath, err := o.fetcher.CheckoutRepo(ctx, rec.RepoURL)
	if err != nil {
		o.fail(ctx, id, err, consumed, identifier)
		return
	}
	defer o.fetcher.Cleanup(localPath)

	o.setProgress(ctx, id, model.StageCloning, "repository cloned", 20)

	rc, err := o.surveyor.Survey(localPath, rec.RepoURL)
	if err != nil {
		o.fail(ctx, id, err, consumed, identifier)
		return
	}

	o.setProgress(ctx, id, model.StageAnalyzing, "analyzing repository content", 40)

	result, err := o.analyzer.Analyze(ctx, rc)
	if err != nil {
		o.fail(ctx, id, err, consumed, identifier)
		return
	}

	o.setProgress(ctx, id, model.StageGenerating, "generating assessment", 70)

	// Timeline is best-effort: a failure here logs and continues with an
	// empty timeline rather than failing the whole scan.
	var timeline []model.TimelineEvent
	if commits, logErr := o.fetcher.CommitLog(ctx, localPath, 0); logErr != nil {
		log.Warn("commit log unavailable, skipping timeline",
			logging.Field{Key: "scan_id", Value: id},
			logging.Field{Key: "error", Value: logErr.Error()})
	} else if events, sumErr := o.analyzer.SummarizeTimeline(ctx, commits, rec.RepoURL); sumErr != nil {
		log.Warn("timeline summarization failed, continuing without it",
			logging.Field{Key: "scan_id", Value: id},
			logging.Field{Key: "error", Value: sumErr.Error()})
	} else {
		timeline = events
	}

	o.setProgress(ctx, id, model.StageGenerating, "assembling results", 85)
	o.setProgress(ctx, id, model.StageCompleted, "assessment complete", 100)

	now := time.Now().UTC()
	_, err = o.store.UpdateScan(ctx, id, func(rec *model.ScanRecord) {
		rec.Status = model.ScanSucceeded
		rec.Progress = nil
		rec.Description = result.Description
		rec.TechStack = result.TechStack
		rec.CategorizedTechStack = result.CategorizedTechStack
		rec.SkillLevel = result.SkillLevel
		rec.RepositoryInfo = result.RepositoryInfo
		rec.DetailedAssessment = result.DetailedAssessment
		rec.Timeline = timeline
		rec.CompletedAt = &now
	})
	if err != nil {
		o.fail(ctx, id, err, consumed, identifier)
		return
	}

	log.Info("scan succeeded",
		logging.Field{Key: "scan_id", Value: id},
		logging.Field{Key: "repo", Value: rec.RepoURL})
}

// fail records a terminal failure and reconciles quota: when quota was
// consumed and the classified code allows it, the identifier gets its
// request back.
func (o *Orchestrator) fail(ctx context.Context, id string, cause error, consumed bool, identifier string) {
	code := Classify(cause)
	now := time.Now().UTC()

	_, err := o.store.UpdateScan(ctx, id, func(rec *model.ScanRecord) {
		rec.Status = model.ScanFailed
		rec.Progress = nil
		rec.Error = cause.Error()
		rec.ErrorCode = code
		rec.ErrorType = code.Type()
		rec.CompletedAt = &now
	})
	if err != nil {
		o.logger.Error("failed scan could not be persisted",
			logging.Field{Key: "scan_id", Value: id},
			logging.Field{Key: "error", Value: err.Error()})
	}

	if consumed && code.Refundable() && identifier != "" {
		o.quota.Refund(ctx, identifier)
	}

	o.logger.Info("scan failed",
		logging.Field{Key: "scan_id", Value: id},
		logging.Field{Key: "code", Value: string(code)},
		logging.Field{Key: "refunded", Value: consumed && code.Refundable()})
}
