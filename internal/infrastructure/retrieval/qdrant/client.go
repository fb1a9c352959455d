package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

const sparseVectorName = "lexical"

// Client talks to a qdrant instance over its HTTP API and serves
// requirement retrieval from a sparse lexical index. One point per
// catalog record; re-indexing a snapshot upserts in place.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu sync.Mutex
	ensured  bool
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// IndexSnapshot upserts every record of the snapshot. Point ids are
// derived from the requirement id, so re-ingesting a catalog replaces
// records instead of duplicating them.
func (c *Client) IndexSnapshot(ctx context.Context, snapshot *domain.CatalogSnapshot) error {
	records := snapshot.Records()
	if len(records) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx); err != nil {
		return err
	}

	type point struct {
		ID      string                  `json:"id"`
		Vector  map[string]sparseVector `json:"vector"`
		Payload map[string]any          `json:"payload"`
	}

	points := make([]point, 0, len(records))
	for _, rec := range records {
		domains := make([]string, 0, len(rec.Domains))
		for _, d := range rec.Domains {
			domains = append(domains, string(d))
		}
		points = append(points, point{
			ID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte(rec.ID)).String(),
			Vector: map[string]sparseVector{sparseVectorName: encodeRequirement(rec)},
			Payload: map[string]any{
				"requirement_id":  rec.ID,
				"tier":            string(rec.Tier),
					"general":         rec.General,
				"article":         rec.Article,
				"domains":         domains,
				"catalog_version": snapshot.Version(),
			},
		})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant upsert status: %s", resp.Status)
	}
	return nil
}

func (c *Client) Query(
	ctx context.Context,
	text string,
	domainFilter []domain.ApplicationDomain,
	topK int,
) ([]domain.RetrievalHit, error) {
	if topK <= 0 {
		topK = 10
	}
	query := encodeQuery(text)
	if len(query.Indices) == 0 {
		return nil, nil
	}

	reqBody := map[string]any{
		"query":        query,
		"using":        sparseVectorName,
		"limit":        topK,
		"with_payload": true,
	}
	if filter := buildDomainFilter(domainFilter); filter != nil {
		reqBody["filter"] = filter
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal query body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/query", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant query request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("qdrant query status: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var queryResp struct {
		Result struct {
			Points []struct {
				Score   float64        `json:"score"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}

	maxScore := 0.0
	for _, p := range queryResp.Result.Points {
		if p.Score > maxScore {
			maxScore = p.Score
		}
	}

	out := make([]domain.RetrievalHit, 0, len(queryResp.Result.Points))
	for _, p := range queryResp.Result.Points {
		id := getStringPayload(p.Payload, "requirement_id")
		if id == "" {
			continue
		}
		relevance := p.Score
		if maxScore > 0 {
			relevance = p.Score / maxScore
		}
		out = append(out, domain.RetrievalHit{RequirementID: id, Relevance: relevance})
	}
	return out, nil
}

// buildDomainFilter matches records tagged with any of the system's
// domains plus untagged records, which apply everywhere.
func buildDomainFilter(domains []domain.ApplicationDomain) map[string]any {
	if len(domains) == 0 {
		return nil
	}
	should := make([]map[string]any, 0, len(domains)+1)
	for _, d := range domains {
		should = append(should, map[string]any{
			"key":   "domains",
			"match": map[string]any{"value": string(d)},
		})
	}
	should = append(should, map[string]any{
		"is_empty": map[string]any{"key": "domains"},
	})
	return map[string]any{"should": should}
}

func (c *Client) ensureCollection(ctx context.Context) error {
	c.ensureMu.Lock()
	if c.ensured {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	body, err := json.Marshal(map[string]any{
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal ensure collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create ensure collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()
	// 409 when the collection already exists.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	c.ensureMu.Lock()
	c.ensured = true
	c.ensureMu.Unlock()
	return nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
