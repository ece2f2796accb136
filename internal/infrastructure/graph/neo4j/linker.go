// Package neo4j records documents and the entities they mention as a graph
// and answers which documents share entities.
package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/document-router/internal/core/domain"
	"github.com/kirillkom/document-router/internal/infrastructure/resilience"
)

const defaultMaxRelated = 5

type Options struct {
	URI        string
	Username   string
	Password   string
	Database   string
	MaxRelated int

	ResilienceExecutor *resilience.Executor
}

type runner interface {
	run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
}

type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (r driverRunner) run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{}
	if r.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(r.database))
	}
	result, err := neo4j.ExecuteQuery(ctx, r.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}

type Linker struct {
	runner     runner
	driver     neo4j.DriverWithContext
	maxRelated int
	executor   *resilience.Executor
}

func New(ctx context.Context, opts Options) (*Linker, error) {
	if strings.TrimSpace(opts.URI) == "" {
		return nil, fmt.Errorf("neo4j uri is required")
	}
	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.Username, opts.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	l := newWithRunner(driverRunner{driver: driver, database: opts.Database}, opts.MaxRelated, opts.ResilienceExecutor)
	l.driver = driver
	return l, nil
}

func newWithRunner(r runner, maxRelated int, executor *resilience.Executor) *Linker {
	if maxRelated <= 0 {
		maxRelated = defaultMaxRelated
	}
	return &Linker{runner: r, maxRelated: maxRelated, executor: executor}
}

func (l *Linker) Close(ctx context.Context) error {
	if l.driver == nil {
		return nil
	}
	return l.driver.Close(ctx)
}

const mergeDocumentCypher = `
MERGE (d:Document {id: $id})
SET d.filename = $filename, d.doc_type = $doc_type, d.department = $department
WITH d
UNWIND $entities AS value
MERGE (e:Entity {value: value})
MERGE (d)-[:MENTIONS]->(e)
`

const relatedDocumentsCypher = `
MATCH (d:Document {id: $id})-[:MENTIONS]->(e:Entity)<-[:MENTIONS]-(other:Document)
WHERE other.id <> $id
RETURN other.id AS id, count(e) AS shared
ORDER BY shared DESC, id ASC
LIMIT $limit
`

// LinkDocument upserts the document and its entities, then returns the ids of
// documents sharing the most entities with it.
func (l *Linker) LinkDocument(ctx context.Context, doc *domain.Document, entities []string) ([]string, error) {
	if doc == nil || doc.ID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "link document", fmt.Errorf("document id is required"))
	}
	if entities == nil {
		entities = []string{}
	}

	_, err := resilience.Do(ctx, l.executor, "neo4j.merge", func(ctx context.Context) ([]*neo4j.Record, error) {
		return l.runner.run(ctx, mergeDocumentCypher, map[string]any{
			"id":         doc.ID,
			"filename":   doc.Filename,
			"doc_type":   doc.DocType,
			"department": doc.Department,
			"entities":   entities,
		})
	}, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "neo4j merge document", err)
	}

	records, err := resilience.Do(ctx, l.executor, "neo4j.related", func(ctx context.Context) ([]*neo4j.Record, error) {
		return l.runner.run(ctx, relatedDocumentsCypher, map[string]any{
			"id":    doc.ID,
			"limit": int64(l.maxRelated),
		})
	}, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "neo4j related documents", err)
	}

	related := make([]string, 0, len(records))
	for _, rec := range records {
		raw, ok := rec.Get("id")
		if !ok {
			continue
		}
		if id, ok := raw.(string); ok && id != "" {
			related = append(related, id)
		}
	}
	return related, nil
}
