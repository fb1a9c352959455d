package qdrant

import (
	"context"
	"sort"
	"sync"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

type indexedRecord struct {
	id      string
	domains []domain.ApplicationDomain
	vector  sparseVector
	norm    float64
}

// MemoryClient is the in-process retrieval backend: the same lexical
// encoding as the qdrant client, scored locally. Default backend for
// single-node deployments and tests; no external service required.
type MemoryClient struct {
	mu      sync.RWMutex
	records []indexedRecord
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

func (c *MemoryClient) IndexSnapshot(_ context.Context, snapshot *domain.CatalogSnapshot) error {
	records := snapshot.Records()
	indexed := make([]indexedRecord, 0, len(records))
	for _, rec := range records {
		vec := encodeRequirement(rec)
		indexed = append(indexed, indexedRecord{
			id:      rec.ID,
			domains: rec.Domains,
			vector:  vec,
			norm:    norm(vec),
		})
	}

	c.mu.Lock()
	c.records = indexed
	c.mu.Unlock()
	return nil
}

func (c *MemoryClient) Query(
	ctx context.Context,
	text string,
	domainFilter []domain.ApplicationDomain,
	topK int,
) ([]domain.RetrievalHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 10
	}
	query := encodeQuery(text)
	if len(query.Indices) == 0 {
		return nil, nil
	}
	queryNorm := norm(query)

	c.mu.RLock()
	defer c.mu.RUnlock()

	hits := make([]domain.RetrievalHit, 0, len(c.records))
	for _, rec := range c.records {
		if !domainApplies(rec.domains, domainFilter) {
			continue
		}
		score := dotProduct(query, rec.vector)
		if score <= 0 {
			continue
		}
		if queryNorm > 0 && rec.norm > 0 {
			score /= queryNorm * rec.norm
		}
		hits = append(hits, domain.RetrievalHit{RequirementID: rec.id, Relevance: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Relevance != hits[j].Relevance {
			return hits[i].Relevance > hits[j].Relevance
		}
		return hits[i].RequirementID < hits[j].RequirementID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func domainApplies(tagged, filter []domain.ApplicationDomain) bool {
	if len(tagged) == 0 || len(filter) == 0 {
		return true
	}
	for _, t := range tagged {
		for _, f := range filter {
			if t == f {
				return true
			}
		}
	}
	return false
}
