package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ChromaStore talks to a Chroma server's REST API. No client library for
// Chroma appears anywhere in the example pack, so this is a small
// hand-rolled HTTP/JSON client.
type ChromaStore struct {
	baseURL      string
	httpClient   *http.Client
	tenant       string
	database     string
	collectionID string
	collection   string
	seenIDs      map[string]bool
}

func NewChromaStore(baseURL string) *ChromaStore {
	return &ChromaStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tenant:     "default_tenant",
		database:   "default_database",
		seenIDs:    make(map[string]bool),
	}
}

func (c *ChromaStore) Open(ctx context.Context, collection string, dim int, metric Metric) error {
	c.collection = collection
	body := map[string]any{
		"name": collection,
		"metadata": map[string]any{
			"distance_metric": string(metricOrDefault(metric)),
		},
		"get_or_create": true,
	}
	var resp struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/api/v2/tenants/%s/databases/%s/collections", c.tenant, c.database)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return fmt.Errorf("vectorstore: chroma get_or_create_collection: %w", err)
	}
	c.collectionID = resp.ID
	return nil
}

// chunkID prefers the record's own ID, then content_hash from metadata,
// else derives an id from the text, then disambiguates any collision with a short random suffix so
// ChromaDB's unique-id constraint holds.
func (c *ChromaStore) chunkID(r Record) string {
	id := r.ID
	if id == "" {
		if h, ok := r.Metadata["content_hash"].(string); ok && h != "" {
			id = h
		} else {
			id = contentHashPrefix(r.Text)
		}
	}
	if c.seenIDs[id] {
		id = id + "_" + uuid.New().String()[:8]
	}
	c.seenIDs[id] = true
	return id
}

func (c *ChromaStore) Upsert(ctx context.Context, batch []Record) (Report, error) {
	if c.collectionID == "" {
		return Report{}, ErrNotOpen
	}

	ids := make([]string, 0, len(batch))
	embeddings := make([][]float32, 0, len(batch))
	documents := make([]string, 0, len(batch))
	metadatas := make([]map[string]any, 0, len(batch))

	for _, r := range batch {
		ids = append(ids, c.chunkID(r))
		embeddings = append(embeddings, r.Vector)
		documents = append(documents, r.Text)
		metadatas = append(metadatas, cleanMetadataForChroma(r.Metadata))
	}

	body := map[string]any{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
		"metadatas":  metadatas,
	}
	path := fmt.Sprintf("/api/v2/tenants/%s/databases/%s/collections/%s/upsert", c.tenant, c.database, c.collectionID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return Report{FailedCount: len(batch)}, fmt.Errorf("vectorstore: chroma upsert: %w", err)
	}
	return Report{StoredCount: len(batch)}, nil
}

func (c *ChromaStore) DeleteBySource(ctx context.Context, fileName string) (int, error) {
	if c.collectionID == "" {
		return 0, ErrNotOpen
	}
	body := map[string]any{
		"where": map[string]any{
			"source_file": fileName,
		},
	}
	var deletedIDs []string
	path := fmt.Sprintf("/api/v2/tenants/%s/databases/%s/collections/%s/delete", c.tenant, c.database, c.collectionID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &deletedIDs); err != nil {
		return 0, fmt.Errorf("vectorstore: chroma delete: %w", err)
	}
	return len(deletedIDs), nil
}

func (c *ChromaStore) doJSON(ctx context.Context, method, path string, reqBody, respBody any) error {
	var r *bytes.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	} else {
		r = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("chroma returned status %d", resp.StatusCode)
	}
	if respBody != nil {
		return json.NewDecoder(resp.Body).Decode(respBody)
	}
	return nil
}

// cleanMetadataForChroma coerces metadata values for ChromaDB, which only
// accepts str/int/float/bool. Slices become comma-joined strings; anything
// else is stringified.
func cleanMetadataForChroma(metadata map[string]interface{}) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		switch x := v.(type) {
		case string, bool:
			out[k] = x
		case int:
			out[k] = x
		case int64:
			out[k] = x
		case float32:
			out[k] = float64(x)
		case float64:
			out[k] = x
		case []string:
			out[k] = strings.Join(x, ", ")
		default:
			out[k] = fmt.Sprintf("%v", x)
		}
	}
	return out
}

func contentHashPrefix(text string) string {
	return strconv.Itoa(len(text)) + "-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(text)).String()[:16]
}
