package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// MilvusStore talks to a Milvus server's HTTP v2 API. No Milvus client
// library appears anywhere in the example pack, so this is a hand-rolled
// HTTP/JSON client restricted to the operations the pipeline needs.
type MilvusStore struct {
	baseURL    string
	httpClient *http.Client
	collection string
}

func NewMilvusStore(baseURL string) *MilvusStore {
	return &MilvusStore{baseURL: strings.TrimRight(baseURL, "/"), httpClient: &http.Client{}}
}

func (m *MilvusStore) Open(ctx context.Context, collection string, dim int, metric Metric) error {
	m.collection = collection
	body := map[string]any{
		"collectionName": collection,
		"dimension":      dim,
		"metricType":     milvusMetric(metric),
	}
	return m.doJSON(ctx, "/v2/vectordb/collections/create", body, nil)
}

func (m *MilvusStore) Upsert(ctx context.Context, batch []Record) (Report, error) {
	if m.collection == "" {
		return Report{}, ErrNotOpen
	}
	data := make([]map[string]any, 0, len(batch))
	for _, r := range batch {
		data = append(data, map[string]any{
			"id":          r.ID,
			"vector":      r.Vector,
			"content":     r.Text,
			"source_file": sourceFileOf(r),
		})
	}
	body := map[string]any{
		"collectionName": m.collection,
		"data":           data,
	}
	if err := m.doJSON(ctx, "/v2/vectordb/entities/upsert", body, nil); err != nil {
		return Report{FailedCount: len(batch)}, fmt.Errorf("vectorstore: milvus upsert: %w", err)
	}
	return Report{StoredCount: len(batch)}, nil
}

func (m *MilvusStore) DeleteBySource(ctx context.Context, fileName string) (int, error) {
	if m.collection == "" {
		return 0, ErrNotOpen
	}
	body := map[string]any{
		"collectionName": m.collection,
		"filter":         fmt.Sprintf(`source_file == "%s"`, fileName),
	}
	// Milvus does not report the exact deleted count for a filter-based
	// delete; the request succeeding is the only signal available.
	if err := m.doJSON(ctx, "/v2/vectordb/entities/delete", body, nil); err != nil {
		return 0, fmt.Errorf("vectorstore: milvus delete: %w", err)
	}
	return 0, nil
}

func (m *MilvusStore) doJSON(ctx context.Context, path string, reqBody, respBody any) error {
	b, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("milvus returned status %d", resp.StatusCode)
	}
	if respBody != nil {
		return json.NewDecoder(resp.Body).Decode(respBody)
	}
	return nil
}

func milvusMetric(m Metric) string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricIP:
		return "IP"
	default:
		return "COSINE"
	}
}
