package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// WeaviateStore talks to a Weaviate server's REST API. No Weaviate client
// library appears anywhere in the example pack, so this is a hand-rolled
// HTTP/JSON client restricted to the operations the pipeline needs.
type WeaviateStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	class      string
}

func NewWeaviateStore(baseURL, apiKey string) *WeaviateStore {
	return &WeaviateStore{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, httpClient: &http.Client{}}
}

func (w *WeaviateStore) Open(ctx context.Context, collection string, dim int, metric Metric) error {
	w.class = collection
	exists, err := w.classExists(ctx)
	if err != nil {
		return fmt.Errorf("vectorstore: checking weaviate schema: %w", err)
	}
	if exists {
		return nil
	}

	body := map[string]any{
		"class":      collection,
		"vectorizer": "none",
		"vectorIndexConfig": map[string]any{
			"distance": weaviateMetric(metric),
		},
		"properties": []map[string]any{
			{"name": "content", "dataType": []string{"text"}},
			{"name": "sourceFile", "dataType": []string{"text"}},
			{"name": "metadata", "dataType": []string{"text"}},
		},
	}
	return w.doJSON(ctx, http.MethodPost, "/v1/schema", body, nil)
}

func (w *WeaviateStore) classExists(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/v1/schema/"+w.class, nil)
	if err != nil {
		return false, err
	}
	w.authorize(req)
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

func (w *WeaviateStore) Upsert(ctx context.Context, batch []Record) (Report, error) {
	if w.class == "" {
		return Report{}, ErrNotOpen
	}
	objects := make([]map[string]any, 0, len(batch))
	for _, r := range batch {
		metaJSON, _ := json.Marshal(r.Metadata)
		objects = append(objects, map[string]any{
			"class":  w.class,
			"id":     r.ID,
			"vector": r.Vector,
			"properties": map[string]any{
				"content":    r.Text,
				"sourceFile": sourceFileOf(r),
				"metadata":   string(metaJSON),
			},
		})
	}
	body := map[string]any{"objects": objects}
	if err := w.doJSON(ctx, http.MethodPost, "/v1/batch/objects", body, nil); err != nil {
		return Report{FailedCount: len(batch)}, fmt.Errorf("vectorstore: weaviate batch insert: %w", err)
	}
	return Report{StoredCount: len(batch)}, nil
}

func (w *WeaviateStore) DeleteBySource(ctx context.Context, fileName string) (int, error) {
	if w.class == "" {
		return 0, ErrNotOpen
	}
	body := map[string]any{
		"match": map[string]any{
			"class": w.class,
			"where": map[string]any{
				"path":      []string{"sourceFile"},
				"operator":  "Equal",
				"valueText": fileName,
			},
		},
	}
	var result struct {
		Results struct {
			Successful int `json:"successful"`
		} `json:"results"`
	}
	req, err := w.newRequest(ctx, http.MethodDelete, "/v1/batch/objects", body)
	if err != nil {
		return 0, err
	}
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("vectorstore: weaviate delete: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("weaviate returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, nil
	}
	return result.Results.Successful, nil
}

func (w *WeaviateStore) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, w.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	w.authorize(req)
	return req, nil
}

func (w *WeaviateStore) authorize(req *http.Request) {
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}
}

func (w *WeaviateStore) doJSON(ctx context.Context, method, path string, reqBody, respBody any) error {
	req, err := w.newRequest(ctx, method, path, reqBody)
	if err != nil {
		return err
	}
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("weaviate returned status %d", resp.StatusCode)
	}
	if respBody != nil {
		return json.NewDecoder(resp.Body).Decode(respBody)
	}
	return nil
}

func weaviateMetric(m Metric) string {
	switch m {
	case MetricL2:
		return "l2-squared"
	case MetricIP:
		return "dot"
	default:
		return "cosine"
	}
}
