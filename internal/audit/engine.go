// Package audit runs a batch through matching, rules and judgment.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/shinsa/internal/judge"
	"github.com/hyperjump/shinsa/internal/match"
	"github.com/hyperjump/shinsa/internal/models"
	"github.com/hyperjump/shinsa/internal/policy"
	"github.com/hyperjump/shinsa/internal/report"
	"github.com/hyperjump/shinsa/internal/rules"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency   = 4
	defaultRecordTimeout = 60 * time.Second
)

// Engine evaluates batches. It is safe for concurrent use.
type Engine struct {
	judge         judge.Judge
	concurrency   int
	recordTimeout time.Duration
	progress      func()
	logger        *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency bounds how many records are judged at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithRecordTimeout bounds the time spent judging one record.
func WithRecordTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.recordTimeout = d
		}
	}
}

// WithProgress registers a callback invoked once per completed record. It may be
// called from several goroutines.
func WithProgress(fn func()) Option {
	return func(e *Engine) { e.progress = fn }
}

// WithLogger sets a logger for per-record debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine that escalates to j.
func NewEngine(j judge.Judge, opts ...Option) *Engine {
	e := &Engine{
		judge:         j,
		concurrency:   defaultConcurrency,
		recordTimeout: defaultRecordTimeout,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode returns the judge mode.
func (e *Engine) Mode() string { return e.judge.Mode() }

// Run evaluates every record of the batch against set and returns a report with
// exactly one verdict per record, in record order. Only an invalid batch returns an
// error. Per-record failures become Error verdicts, including records whose judgment
// was cut off by ctx; verdicts already decided are kept.
func (e *Engine) Run(ctx context.Context, batch *models.Batch, set *policy.Set) (*models.Report, error) {
	if batch == nil {
		return nil, &models.InvalidInputError{Reason: "batch is nil"}
	}
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	if e.judge == nil {
		return nil, &models.InvalidInputError{Reason: "no judge configured"}
	}
	start := time.Now()

	pairs, ambiguities := match.Match(batch.Records, batch.Receipts)
	warnings := make([]string, 0, len(ambiguities))
	for _, a := range ambiguities {
		e.logger.Warn("ambiguous receipt id", zap.String("receipt_id", a.ReceiptID), zap.Int("count", a.Count))
		warnings = append(warnings, a.Error())
	}

	verdicts := make([]models.Verdict, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range pairs {
		g.Go(func() error {
			verdicts[i] = e.evaluate(gctx, pairs[i], set)
			if e.progress != nil {
				e.progress()
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		e.logger.Warn("batch deadline reached before all judgments completed", zap.Error(err))
	}

	r := report.Assemble(verdicts, report.WithMode(e.judge.Mode()), report.WithWarnings(warnings...))
	e.logger.Info("batch evaluated",
		zap.String("report_id", r.ID),
		zap.String("mode", r.Mode),
		zap.Int("records", r.Summary.Total),
		zap.Int("compliant", r.Summary.Compliant),
		zap.Int("non_compliant", r.Summary.NonCompliant),
		zap.Int("error", r.Summary.Error),
		zap.Duration("took", time.Since(start)))
	return r, nil
}

// evaluate produces the verdict for one pair. It never fails.
func (e *Engine) evaluate(ctx context.Context, pair models.MatchedPair, set *policy.Set) (v models.Verdict) {
	v = models.Verdict{
		RecordID:  pair.Record.ID,
		ReceiptID: receiptID(pair),
		Warnings:  pair.Warnings,
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("record evaluation panicked", zap.String("record_id", pair.Record.ID), zap.Any("panic", r))
			v.Compliance = models.Error
			v.Explanation = fmt.Sprintf("internal error: %v", r)
		}
	}()

	if out := rules.Evaluate(pair); out.Kind == rules.Reject {
		v.Compliance = models.NonCompliant
		v.Explanation = out.Violation.Reason
		e.logger.Debug("record rejected", zap.String("record_id", pair.Record.ID), zap.String("reason", out.Violation.Reason))
		return v
	}

	rctx, cancel := context.WithTimeout(ctx, e.recordTimeout)
	defer cancel()
	d := e.judge.Judge(rctx, pair, set)
	if d.Compliance == models.Error && errors.Is(rctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		d.Explanation = fmt.Sprintf("judgment timed out after %s: %s", e.recordTimeout, d.Explanation)
	} else if d.Compliance == models.Error && ctx.Err() != nil {
		d.Explanation = fmt.Sprintf("audit cut off: %s", d.Explanation)
	}
	v.Compliance = d.Compliance
	v.Explanation = d.Explanation
	v.Label = d.Label
	v.SimilarityRecord = d.SimilarityRecord
	v.SimilarityReceipt = d.SimilarityReceipt
	e.logger.Debug("record judged",
		zap.String("record_id", pair.Record.ID),
		zap.String("compliance", string(v.Compliance)))
	return v
}

// receiptID is the matched receipt's id, or the id the record declared when no
// receipt was found.
func receiptID(pair models.MatchedPair) *string {
	if pair.Receipt != nil {
		return models.StringPtr(pair.Receipt.ReceiptID)
	}
	return models.StringPtr(pair.Record.ReceiptID)
}
