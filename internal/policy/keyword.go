package policy

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// chunkDoc is the bleve document for one policy chunk.
type chunkDoc struct {
	Text string `json:"text"`
}

// keywordIndex is an in-memory bleve index over policy chunk text.
type keywordIndex struct {
	index bleve.Index
}

// keywordHit is a single keyword search hit.
type keywordHit struct {
	ID    string
	Score float64
}

func newKeywordIndex() (*keywordIndex, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textField := bleve.NewTextFieldMapping()
	// Standard analyzer does not stem, so "per diem" matches the literal policy wording.
	textField.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textField)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("create policy keyword index: %w", err)
	}
	return &keywordIndex{index: index}, nil
}

func (k *keywordIndex) add(id, text string) error {
	return k.index.Index(id, chunkDoc{Text: text})
}

// search runs a match query over chunk text and returns up to limit hits.
func (k *keywordIndex) search(query string, limit int) ([]keywordHit, error) {
	q := bleve.NewMatchQuery(query)
	q.SetField("text")
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := k.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("policy keyword search: %w", err)
	}
	out := make([]keywordHit, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = keywordHit{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

func (k *keywordIndex) close() error {
	return k.index.Close()
}
