// Package service runs one compliance check end to end: ingest, audit, persist.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/shinsa/internal/audit"
	"github.com/hyperjump/shinsa/internal/ingest"
	"github.com/hyperjump/shinsa/internal/judge"
	"github.com/hyperjump/shinsa/internal/models"
	"github.com/hyperjump/shinsa/internal/policy"
	"github.com/hyperjump/shinsa/internal/storage"
	"go.uber.org/zap"
)

var (
	// ErrNoPolicy is returned when a request has no policy and no standing policy is loaded.
	ErrNoPolicy = errors.New("policy_file is required: no standing policy is loaded")
	// ErrUnknownMode is returned for a judge mode that is not configured.
	ErrUnknownMode = errors.New("unknown judge mode")
)

// CheckRequest is one batch to evaluate.
type CheckRequest struct {
	Expense  ingest.File
	Policy   *ingest.File // nil uses the standing policy
	Receipts []ingest.File
	Mode     string // empty uses the default mode
	Save     bool
	Progress func()
}

// Service evaluates batches.
type Service struct {
	ingestor      *ingest.Ingestor
	judges        map[string]judge.Judge
	defaultMode   string
	concurrency   int
	recordTimeout time.Duration
	store         storage.Storage
	standing      *policy.Standing
	logger        *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithStorage persists reports when a request asks to save.
func WithStorage(s storage.Storage) Option {
	return func(svc *Service) { svc.store = s }
}

// WithStanding sets the fallback policy.
func WithStanding(st *policy.Standing) Option {
	return func(svc *Service) { svc.standing = st }
}

// WithAudit sets the audit fan-out and per-record timeout.
func WithAudit(concurrency int, recordTimeout time.Duration) Option {
	return func(svc *Service) {
		svc.concurrency = concurrency
		svc.recordTimeout = recordTimeout
	}
}

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// New creates a Service. judges maps mode to judge; defaultMode must be one of them.
func New(in *ingest.Ingestor, judges map[string]judge.Judge, defaultMode string, opts ...Option) (*Service, error) {
	if _, ok := judges[defaultMode]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, defaultMode)
	}
	svc := &Service{
		ingestor:    in,
		judges:      judges,
		defaultMode: defaultMode,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// DefaultMode returns the judge mode used when a request names none.
func (s *Service) DefaultMode() string { return s.defaultMode }

// Modes returns the configured judge modes.
func (s *Service) Modes() []string {
	out := make([]string, 0, len(s.judges))
	for _, m := range []string{judge.ModeSimilarity, judge.ModeGenerative} {
		if _, ok := s.judges[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Standing returns the standing policy holder, or nil.
func (s *Service) Standing() *policy.Standing { return s.standing }

// Storage returns the report store, or nil.
func (s *Service) Storage() storage.Storage { return s.store }

// Check ingests the request's files and evaluates them. Request-level problems
// (unparseable expense file, missing policy, unknown mode, policy embedding
// failure) return an error; everything else is reported per record.
func (s *Service) Check(ctx context.Context, req CheckRequest) (*models.Report, error) {
	mode := req.Mode
	if mode == "" {
		mode = s.defaultMode
	}
	j, ok := s.judges[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	set, err := s.policySet(ctx, req.Policy)
	if err != nil {
		return nil, err
	}
	defer set.Close()

	records, err := s.ingestor.Expenses(ctx, req.Expense.Name, req.Expense.Data)
	if err != nil {
		return nil, err
	}
	receipts := s.ingestor.Receipts(ctx, req.Receipts)

	engine := audit.NewEngine(j,
		audit.WithConcurrency(s.concurrency),
		audit.WithRecordTimeout(s.recordTimeout),
		audit.WithProgress(req.Progress),
		audit.WithLogger(s.logger))
	rep, err := engine.Run(ctx, &models.Batch{Records: records, Receipts: receipts, Policy: set.Chunks()}, set)
	if err != nil {
		return nil, err
	}

	if req.Save && s.store != nil {
		if err := s.store.SaveReport(ctx, rep); err != nil {
			return nil, fmt.Errorf("save report: %w", err)
		}
	}
	return rep, nil
}

func (s *Service) policySet(ctx context.Context, f *ingest.File) (*policy.Set, error) {
	if f != nil {
		return s.ingestor.Policy(ctx, f.Name, f.Data)
	}
	if s.standing != nil {
		if set := s.standing.Acquire(); set != nil {
			return set, nil
		}
	}
	return nil, ErrNoPolicy
}
