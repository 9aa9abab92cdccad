package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// payloadSourceField and payloadIDField are reserved payload keys: the
// former lets DeleteBySource filter without a dedicated index, the latter
// recovers the caller-supplied Record.ID from a point whose Qdrant point ID
// had to be replaced with a deterministic UUID.
const (
	payloadSourceField = "source_file"
	payloadIDField      = "_original_id"
)

// QdrantStore talks to a Qdrant-compatible server over gRPC.
type QdrantStore struct {
	dsn        string
	apiKey     string
	useTLS     bool
	client     *qdrant.Client
	collection string
	dimension  int
	metric     Metric
}

// NewQdrantStore parses dsn (e.g. "http://localhost:6334?api_key=...") and
// returns a store ready for Open. The Go client speaks Qdrant's gRPC API,
// which defaults to port 6334.
func NewQdrantStore(dsn string) (*QdrantStore, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: parsing qdrant dsn: %w", err)
	}
	return &QdrantStore{
		dsn:    dsn,
		apiKey: parsed.Query().Get("api_key"),
		useTLS: parsed.Scheme == "https",
	}, nil
}

func (q *QdrantStore) Open(ctx context.Context, collection string, dim int, metric Metric) error {
	if collection == "" {
		return fmt.Errorf("vectorstore: collection name is required")
	}
	if dim <= 0 {
		return fmt.Errorf("vectorstore: qdrant requires dimensions > 0")
	}

	parsed, err := url.Parse(q.dsn)
	if err != nil {
		return fmt.Errorf("vectorstore: parsing qdrant dsn: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := parsed.Port()
	if port == "" {
		port = "6334"
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("vectorstore: invalid port in qdrant dsn: %w", err)
	}

	cfg := &qdrant.Config{Host: host, Port: portNum, UseTLS: q.useTLS, APIKey: q.apiKey}
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("vectorstore: creating qdrant client: %w", err)
	}

	q.client = client
	q.collection = collection
	q.dimension = dim
	q.metric = metricOrDefault(metric)

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("vectorstore: checking qdrant collection: %w", err)
	}
	if exists {
		return nil
	}

	var distance qdrant.Distance
	switch q.metric {
	case MetricL2:
		distance = qdrant.Distance_Euclid
	case MetricIP:
		distance = qdrant.Distance_Dot
	default:
		distance = qdrant.Distance_Cosine
	}
	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: distance,
		}),
	})
	if err != nil {
		return fmt.Errorf("vectorstore: creating qdrant collection: %w", err)
	}
	return nil
}

func (q *QdrantStore) pointID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func (q *QdrantStore) Upsert(ctx context.Context, batch []Record) (Report, error) {
	if q.client == nil {
		return Report{}, ErrNotOpen
	}
	points := make([]*qdrant.PointStruct, 0, len(batch))
	for _, r := range batch {
		uuidStr := q.pointID(r.ID)

		payload := make(map[string]any, len(r.Metadata)+2)
		for k, v := range r.Metadata {
			payload[k] = v
		}
		payload["text"] = r.Text
		if uuidStr != r.ID {
			payload[payloadIDField] = r.ID
		}

		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuidStr),
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
	}); err != nil {
		return Report{FailedCount: len(batch)}, fmt.Errorf("vectorstore: qdrant upsert: %w", err)
	}
	return Report{StoredCount: len(batch)}, nil
}

func (q *QdrantStore) DeleteBySource(ctx context.Context, fileName string) (int, error) {
	if q.client == nil {
		return 0, ErrNotOpen
	}
	limit := uint32(10000)
	hits, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: q.collection,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch(payloadSourceField, fileName)},
		},
		Limit:       &limit,
		WithPayload: qdrant.NewWithPayload(false),
	})
	if err != nil {
		return 0, fmt.Errorf("vectorstore: qdrant scroll for delete: %w", err)
	}

	deleted := 0
	for _, hit := range hits {
		if _, err := q.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: q.collection,
			Points:         qdrant.NewPointsSelector(hit.Id),
		}); err != nil {
			return deleted, fmt.Errorf("vectorstore: qdrant delete: %w", err)
		}
		deleted++
	}
	return deleted, nil
}

func (q *QdrantStore) Close() error {
	if q.client == nil {
		return nil
	}
	return q.client.Close()
}
