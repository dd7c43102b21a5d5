package sentience

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/astql/postgres"
	"github.com/zoobzio/soy"
)

// tokenRow is the persisted shape of a committed token.
type tokenRow struct {
	ID        string    `db:"id" type:"text" constraints:"primarykey"`
	Kind      string    `db:"kind" type:"text" constraints:"notnull"`
	Fields    Fields    `db:"fields" type:"jsonb" default:"'{}'"`
	Embedding Vector    `db:"embedding" type:"vector(256)"`
	Created   time.Time `db:"created" type:"timestamp" constraints:"notnull"`
}

// edgeRow is the persisted shape of a committed relation.
type edgeRow struct {
	ID       string    `db:"id" type:"uuid" constraints:"primarykey" default:"gen_random_uuid()"`
	SourceID string    `db:"source_id" type:"text" constraints:"notnull"`
	TargetID string    `db:"target_id" type:"text" constraints:"notnull"`
	Kind     string    `db:"kind" type:"text" constraints:"notnull"`
	Weight   float32   `db:"weight" type:"real" constraints:"notnull"`
	Created  time.Time `db:"created" type:"timestamp" constraints:"notnull"`
}

// SoyCortex implements Cortex using soy for Postgres persistence with
// pgvector similarity recall.
type SoyCortex struct {
	tokens *soy.Soy[tokenRow]
	edges  *soy.Soy[edgeRow]
	db     *sqlx.DB
}

// NewSoyCortex creates a soy-backed Cortex implementation.
func NewSoyCortex(db *sqlx.DB) (*SoyCortex, error) {
	renderer := postgres.New()

	tokens, err := soy.New[tokenRow](db, "tokens", renderer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tokens table: %w", err)
	}

	edges, err := soy.New[edgeRow](db, "edges", renderer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize edges table: %w", err)
	}

	return &SoyCortex{
		tokens: tokens,
		edges:  edges,
		db:     db,
	}, nil
}

// Commit persists a token with its embedding and returns the stored id.
// A duplicate id violates the primary key; the token is committed at most
// once.
func (c *SoyCortex) Commit(ctx context.Context, token Token, embedding Vector) (string, error) {
	row := tokenRow{
		ID:        token.ID,
		Kind:      string(token.Kind),
		Fields:    token.Fields,
		Embedding: embedding,
		Created:   time.Now(),
	}

	inserted, err := c.tokens.Insert().Exec(ctx, &row)
	if err != nil {
		return "", fmt.Errorf("failed to insert token: %w", err)
	}
	return inserted.ID, nil
}

// AddRelation persists an edge. Weight is validated here: the gate does not
// clamp, the persistence layer rejects.
func (c *SoyCortex) AddRelation(ctx context.Context, edge Edge) error {
	if edge.Weight < 0 || edge.Weight > 1 {
		return fmt.Errorf("edge weight %f outside [0,1]", edge.Weight)
	}

	row := edgeRow{
		SourceID: edge.SourceID,
		TargetID: edge.TargetID,
		Kind:     string(edge.Kind),
		Weight:   edge.Weight,
		Created:  time.Now(),
	}

	if _, err := c.edges.Insert().Exec(ctx, &row); err != nil {
		return fmt.Errorf("failed to insert edge: %w", err)
	}
	return nil
}

// Recall returns the k tokens nearest to the query embedding, ordered by
// pgvector distance.
func (c *SoyCortex) Recall(ctx context.Context, query Vector, k int) ([]Token, error) {
	rows, err := c.tokens.Query().
		WhereNotNull("embedding").
		OrderByExpr("embedding", "<->", "query_embedding", "asc").
		Limit(k).
		Exec(ctx, map[string]any{"query_embedding": query})
	if err != nil {
		return nil, fmt.Errorf("failed to recall tokens: %w", err)
	}

	tokens := make([]Token, 0, len(rows))
	for _, row := range rows {
		tokens = append(tokens, Token{
			ID:     row.ID,
			Kind:   TokenKind(row.Kind),
			Fields: row.Fields,
		})
	}
	return tokens, nil
}

// Window returns the n most recently committed token refs, oldest first.
func (c *SoyCortex) Window(ctx context.Context, n int) ([]TokenRef, error) {
	rows, err := c.tokens.Query().
		OrderBy("created", "desc").
		Limit(n).
		Exec(ctx, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("failed to load window: %w", err)
	}

	refs := make([]TokenRef, len(rows))
	for i, row := range rows {
		// Reverse so the window reads oldest first.
		refs[len(rows)-1-i] = TokenRef{
			ID:        row.ID,
			Kind:      TokenKind(row.Kind),
			Embedding: row.Embedding,
		}
	}
	return refs, nil
}

// Stats reports token and edge counts.
func (c *SoyCortex) Stats(ctx context.Context) (map[string]float64, error) {
	var tokenCount, edgeCount float64

	if err := c.db.GetContext(ctx, &tokenCount, "SELECT COUNT(*) FROM tokens"); err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}
	if err := c.db.GetContext(ctx, &edgeCount, "SELECT COUNT(*) FROM edges"); err != nil {
		return nil, fmt.Errorf("failed to count edges: %w", err)
	}

	return map[string]float64{
		"tokens": tokenCount,
		"edges":  edgeCount,
	}, nil
}

// Close closes the underlying database connection.
func (c *SoyCortex) Close() error {
	return c.db.Close()
}

var _ Cortex = (*SoyCortex)(nil)
