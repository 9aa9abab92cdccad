package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgVectorStore persists records to a Postgres table guarded by the
// pgvector extension.
type PgVectorStore struct {
	pool      *pgxpool.Pool
	table     string
	dimension int
	metric    Metric
}

// NewPgVectorStore opens a pool against dsn. table defaults to
// "ragpipe_embeddings" when empty.
func NewPgVectorStore(ctx context.Context, dsn, table string) (*PgVectorStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: connecting to postgres: %w", err)
	}
	if table == "" {
		table = "ragpipe_embeddings"
	}
	return &PgVectorStore{pool: pool, table: table}, nil
}

func (p *PgVectorStore) Open(ctx context.Context, _ string, dim int, metric Metric) error {
	if _, err := p.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("vectorstore: creating pgvector extension: %w", err)
	}

	vecType := "vector"
	if dim > 0 {
		vecType = fmt.Sprintf("vector(%d)", dim)
	}
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  content TEXT,
  embedding %s,
  metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
  source_file TEXT
);
`, p.table, vecType)
	if _, err := p.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("vectorstore: creating pgvector table: %w", err)
	}

	p.dimension = dim
	p.metric = metricOrDefault(metric)
	return nil
}

func (p *PgVectorStore) Upsert(ctx context.Context, batch []Record) (Report, error) {
	if p.pool == nil {
		return Report{}, ErrNotOpen
	}
	report := Report{}
	for _, r := range batch {
		vecLit := toVectorLiteral(r.Vector)
		metaJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			report.FailedCount++
			continue
		}
		_, err = p.pool.Exec(ctx, fmt.Sprintf(`
INSERT INTO %s (id, content, embedding, metadata, source_file)
VALUES ($1, $2, $3::vector, $4, $5)
ON CONFLICT (id) DO UPDATE SET
  content = EXCLUDED.content,
  embedding = EXCLUDED.embedding,
  metadata = EXCLUDED.metadata,
  source_file = EXCLUDED.source_file
`, p.table), r.ID, r.Text, vecLit, metaJSON, sourceFileOf(r))
		if err != nil {
			report.FailedCount++
			continue
		}
		report.StoredCount++
	}
	if report.FailedCount > 0 {
		return report, fmt.Errorf("vectorstore: %d of %d records failed to upsert", report.FailedCount, len(batch))
	}
	return report, nil
}

func (p *PgVectorStore) DeleteBySource(ctx context.Context, fileName string) (int, error) {
	if p.pool == nil {
		return 0, ErrNotOpen
	}
	tag, err := p.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE source_file = $1`, p.table), fileName)
	if err != nil {
		return 0, fmt.Errorf("vectorstore: pgvector delete: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (p *PgVectorStore) Close() {
	p.pool.Close()
}

// operatorFor maps a Metric to its pgvector distance operator, kept for
// callers that issue ORDER BY similarity queries alongside Upsert/Delete.
func operatorFor(m Metric) string {
	switch m {
	case MetricL2:
		return "<->"
	case MetricIP:
		return "<#>"
	default:
		return "<=>"
	}
}

func toVectorLiteral(v []float32) string {
	if len(v) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(fmt.Sprintf("%g", x))
	}
	b.WriteByte(']')
	return b.String()
}
