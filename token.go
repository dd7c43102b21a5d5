package sentience

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// RawToken is a cognitive unit as produced by the DSL executor, before
// canonicalization. Kind is an open string; the canonicalizer maps it onto
// the closed TokenKind enumeration.
type RawToken struct {
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Fields map[string]any `json:"fields"`
}

// RawEdge is a relation as produced by the DSL executor.
type RawEdge struct {
	SourceID string  `json:"source_id"`
	TargetID string  `json:"target_id"`
	Kind     string  `json:"kind"`
	Weight   float32 `json:"weight"`
}

// TokenKind is the closed set of cognitive token categories.
type TokenKind string

const (
	KindPercept    TokenKind = "percept"
	KindReflection TokenKind = "reflection"
	KindAction     TokenKind = "action"
	KindConcept    TokenKind = "concept"
	KindSelfModel  TokenKind = "self_model"
)

// EdgeKind is the closed set of relation categories between tokens.
type EdgeKind string

const (
	EdgeAboutSelf   EdgeKind = "about_self"
	EdgeCauses      EdgeKind = "causes"
	EdgeSupports    EdgeKind = "supports"
	EdgeContradicts EdgeKind = "contradicts"
	EdgeStructural  EdgeKind = "structural"
	EdgeTemporal    EdgeKind = "temporal"
	EdgeSemantic    EdgeKind = "semantic"
)

// Token is the canonical, immutable form of a cognitive unit. Tokens are
// value objects: once created they are read, embedded, gated, and committed,
// never mutated in place. Deletion and eviction belong to the Cortex.
type Token struct {
	ID     string    `json:"id"`
	Kind   TokenKind `json:"kind"`
	Fields Fields    `json:"fields"`
}

// CanonicalText renders the token as "{kind}:{canonical-json}" for hashing
// and embedding. encoding/json orders map keys lexicographically, so the
// rendering is stable across processes for equal kind and fields.
func (t Token) CanonicalText() string {
	b, err := json.Marshal(t.Fields)
	if err != nil {
		// Fields holding unmarshalable values degrade to an empty object
		// rather than failing the step.
		b = []byte("{}")
	}
	return string(t.Kind) + ":" + string(b)
}

// Edge is the canonical form of a typed, weighted relation between two
// tokens. Weight is conventionally in [0,1] but is not clamped here; the
// persistence layer may reject out-of-range values.
type Edge struct {
	SourceID string   `json:"source_id"`
	TargetID string   `json:"target_id"`
	Kind     EdgeKind `json:"kind"`
	Weight   float32  `json:"weight"`
}

// TokenRef is a lightweight handle to a committed token, used for the
// short-term-memory window supplied to evaluation.
type TokenRef struct {
	ID        string
	Kind      TokenKind
	Embedding Vector
}

// Fields is the structured content of a token.
// Implements sql.Scanner and driver.Valuer for jsonb persistence.
type Fields map[string]any

// Value implements driver.Valuer for writing fields to the database.
func (f Fields) Value() (driver.Value, error) {
	if f == nil {
		return "{}", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner for reading fields from the database.
func (f *Fields) Scan(src any) error {
	if src == nil {
		*f = nil
		return nil
	}

	var b []byte
	switch val := src.(type) {
	case []byte:
		b = val
	case string:
		b = []byte(val)
	default:
		return fmt.Errorf("cannot scan %T into Fields", src)
	}

	return json.Unmarshal(b, f)
}
