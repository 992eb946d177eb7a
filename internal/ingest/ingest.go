// Package ingest turns uploaded expense, receipt and policy files into embedded
// batch inputs.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hyperjump/shinsa/internal/embedding"
	"github.com/hyperjump/shinsa/internal/extract"
	"github.com/hyperjump/shinsa/internal/fileid"
	"github.com/hyperjump/shinsa/internal/models"
	"github.com/hyperjump/shinsa/internal/policy"
	"github.com/hyperjump/shinsa/internal/vector"
	"github.com/hyperjump/shinsa/pkg/utils"
	"go.uber.org/zap"
)

const defaultPolicyCacheSize = 16

// File is an uploaded file.
type File struct {
	Name string
	Data []byte
}

// Ingestor parses, extracts and embeds batch inputs.
type Ingestor struct {
	extractor      *extract.Extractor
	embedder       embedding.Embedder
	chunker        *extract.Chunker
	vectors        *vector.Factory
	keywordWeight  float64
	semanticWeight float64
	logger         *zap.Logger

	mu          sync.Mutex
	policyCache map[string][]models.PolicyChunk
	cacheOrder  []string
	cacheSize   int
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingestor) { in.logger = l }
}

// WithChunking sets policy chunk size and overlap in words.
func WithChunking(size, overlap int) Option {
	return func(in *Ingestor) { in.chunker = extract.NewChunker(size, overlap) }
}

// WithVectorFactory sets the vector index backend for policy sets.
func WithVectorFactory(f *vector.Factory) Option {
	return func(in *Ingestor) { in.vectors = f }
}

// WithFusionWeights sets the keyword and semantic weights of policy retrieval.
func WithFusionWeights(keyword, semantic float64) Option {
	return func(in *Ingestor) {
		in.keywordWeight = keyword
		in.semanticWeight = semantic
	}
}

// WithPolicyCacheSize sets how many embedded policies are kept by content hash.
func WithPolicyCacheSize(n int) Option {
	return func(in *Ingestor) { in.cacheSize = n }
}

// NewIngestor creates an Ingestor. extractor may be nil, in which case a default one is used.
func NewIngestor(embedder embedding.Embedder, extractor *extract.Extractor, opts ...Option) *Ingestor {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	in := &Ingestor{
		extractor:      extractor,
		embedder:       embedder,
		chunker:        extract.NewChunker(200, 50),
		vectors:        &vector.Factory{Type: vector.IndexTypeMemory},
		keywordWeight:  0.3,
		semanticWeight: 0.7,
		logger:         zap.NewNop(),
		policyCache:    make(map[string][]models.PolicyChunk),
		cacheSize:      defaultPolicyCacheSize,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// RecordText is the text embedded for an expense record.
func RecordText(r models.ExpenseRecord) string {
	return fmt.Sprintf("Category: %s. Description: %s. Amount: %s. Date: %s.",
		r.Category, r.Description, utils.FormatAmount(r.Amount), r.Date)
}

// Expenses parses an expense file and embeds every record. A record whose
// embedding fails carries EmbedError instead of failing the file.
func (in *Ingestor) Expenses(ctx context.Context, name string, data []byte) ([]models.ExpenseRecord, error) {
	records, err := extract.ParseExpenses(name, data)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = RecordText(r)
	}
	vecs, errs := in.embedEach(ctx, texts)
	for i := range records {
		if errs[i] != nil {
			records[i].EmbedError = errs[i].Error()
			in.logger.Warn("record embedding failed", zap.String("record_id", records[i].ID), zap.Error(errs[i]))
			continue
		}
		records[i].Embedding = vecs[i]
	}
	in.logger.Debug("expenses ingested", zap.String("file", name), zap.Int("records", len(records)))
	return records, nil
}

// Receipts extracts and embeds receipt files. A file that cannot be read or
// embedded yields a ReceiptDocument with Error set; the batch is never aborted.
func (in *Ingestor) Receipts(ctx context.Context, files []File) []models.ReceiptDocument {
	docs := make([]models.ReceiptDocument, len(files))
	var texts []string
	var textIdx []int
	for i, f := range files {
		doc := models.ReceiptDocument{Filename: f.Name, ReceiptID: fileid.ReceiptID(f.Name)}
		text, err := in.extractor.ExtractBytes(f.Data, extract.Ext(f.Name))
		switch {
		case err != nil:
			doc.Error = err.Error()
		case strings.TrimSpace(text) == "":
			doc.Error = "no text could be extracted"
		default:
			doc.Text = text
			fields := extract.ExtractReceiptFields(text)
			if fields.ReceiptID != "" {
				doc.ReceiptID = fields.ReceiptID
			}
			doc.ExtractedAmount = fields.Amount
			texts = append(texts, text)
			textIdx = append(textIdx, i)
		}
		if doc.Error != "" {
			in.logger.Warn("receipt extraction failed", zap.String("file", f.Name), zap.String("error", doc.Error))
		}
		docs[i] = doc
	}

	vecs, errs := in.embedEach(ctx, texts)
	for j, i := range textIdx {
		if errs[j] != nil {
			docs[i].Error = errs[j].Error()
			docs[i].Text = ""
			in.logger.Warn("receipt embedding failed", zap.String("file", files[i].Name), zap.Error(errs[j]))
			continue
		}
		docs[i].Embedding = vecs[j]
	}
	in.logger.Debug("receipts ingested", zap.Int("files", len(files)))
	return docs
}

// Policy extracts, chunks and embeds a policy document and indexes it into a
// Set. Embedded chunks are cached by content hash. Any embedding failure fails
// the call.
func (in *Ingestor) Policy(ctx context.Context, name string, data []byte) (*policy.Set, error) {
	key := fileid.ContentID(data)
	chunks, ok := in.cachedPolicy(key)
	if ok {
		in.logger.Debug("policy cache hit", zap.String("file", name), zap.String("content_id", key))
	} else {
		text, err := in.extractor.ExtractBytes(data, extract.Ext(name))
		if err != nil {
			return nil, &models.ParseError{File: name, Reason: err.Error()}
		}
		chunks = in.chunker.Chunk(fileid.Stem(name), extract.Normalize(text))
		if len(chunks) == 0 {
			return nil, &models.ParseError{File: name, Reason: "policy has no text"}
		}
		texts := make([]string, len(chunks))
		for i, ch := range chunks {
			texts[i] = ch.Text
		}
		vecs, err := in.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed policy %s: %w", name, err)
		}
		for i := range chunks {
			chunks[i].Embedding = vecs[i]
		}
		in.storePolicy(key, chunks)
	}
	return policy.NewSet(ctx, chunks, in.vectors,
		policy.WithSource(name),
		policy.WithWeights(in.keywordWeight, in.semanticWeight),
		policy.WithLogger(in.logger))
}

// embedEach embeds texts in one batch, falling back to one call per text when the
// batch fails so a single bad input does not fail the others.
func (in *Ingestor) embedEach(ctx context.Context, texts []string) ([][]float32, []error) {
	vecs := make([][]float32, len(texts))
	errs := make([]error, len(texts))
	if len(texts) == 0 {
		return vecs, errs
	}
	batch, err := in.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(batch) == len(texts) {
		return batch, errs
	}
	in.logger.Debug("batch embedding failed, embedding individually", zap.Error(err))
	for i, t := range texts {
		if ctxErr := ctx.Err(); ctxErr != nil {
			errs[i] = ctxErr
			continue
		}
		vecs[i], errs[i] = in.embedder.Embed(ctx, t)
		if errs[i] == nil && len(vecs[i]) == 0 {
			errs[i] = errors.New("empty embedding")
		}
	}
	return vecs, errs
}

func (in *Ingestor) cachedPolicy(key string) ([]models.PolicyChunk, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	chunks, ok := in.policyCache[key]
	return chunks, ok
}

func (in *Ingestor) storePolicy(key string, chunks []models.PolicyChunk) {
	if in.cacheSize <= 0 {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, ok := in.policyCache[key]; ok {
		return
	}
	for len(in.cacheOrder) >= in.cacheSize {
		delete(in.policyCache, in.cacheOrder[0])
		in.cacheOrder = in.cacheOrder[1:]
	}
	in.policyCache[key] = chunks
	in.cacheOrder = append(in.cacheOrder, key)
}

// LoadPolicyFile is a policy.Loader reading the policy from disk.
func (in *Ingestor) LoadPolicyFile(ctx context.Context, path string) (*policy.Set, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return in.Policy(ctx, path, data)
}
