package sentience

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// tokenKindTable maps executor kind strings onto the closed TokenKind
// enumeration. Lookup is case-insensitive. Adding a new kind requires
// exactly one edit here.
var tokenKindTable = map[string]TokenKind{
	"percept":    KindPercept,
	"reflection": KindReflection,
	"action":     KindAction,
	"concept":    KindConcept,
	"self_model": KindSelfModel,
	"selfmodel":  KindSelfModel,
	"self":       KindSelfModel,
}

// edgeKindTable maps executor edge-type strings onto the closed EdgeKind
// enumeration. DERIVED_FROM is the executor's name for structural lineage.
var edgeKindTable = map[string]EdgeKind{
	"about":        EdgeAboutSelf,
	"about_self":   EdgeAboutSelf,
	"causes":       EdgeCauses,
	"supports":     EdgeSupports,
	"contradicts":  EdgeContradicts,
	"derived_from": EdgeStructural,
	"structural":   EdgeStructural,
	"temporal":     EdgeTemporal,
	"semantic":     EdgeSemantic,
}

// CanonicalizeToken converts an executor token into its canonical form.
// Unknown kinds degrade to KindPercept and a missing id is generated, both
// reported via the ConversionDegraded signal. Never fails: one malformed
// token must not abort an entire reflection step.
func CanonicalizeToken(ctx context.Context, raw RawToken) Token {
	kind, ok := tokenKindTable[strings.ToLower(raw.Kind)]
	if !ok {
		kind = KindPercept
		capitan.Emit(ctx, ConversionDegraded,
			FieldTokenID.Field(raw.ID),
			FieldRawKind.Field(raw.Kind),
			FieldTokenKind.Field(string(kind)),
		)
	}

	id := raw.ID
	if id == "" {
		id = uuid.New().String()
	}

	return Token{
		ID:     id,
		Kind:   kind,
		Fields: Fields(raw.Fields),
	}
}

// CanonicalizeEdge converts an executor edge into its canonical form.
// Unknown edge types degrade to EdgeSemantic (reported via the
// ConversionDegraded signal, not silent loss). Edges missing an endpoint id
// cannot reference anything and are reported unconvertible instead.
func CanonicalizeEdge(ctx context.Context, raw RawEdge) (Edge, bool) {
	if raw.SourceID == "" || raw.TargetID == "" {
		return Edge{}, false
	}

	kind, ok := edgeKindTable[strings.ToLower(raw.Kind)]
	if !ok {
		kind = EdgeSemantic
		capitan.Emit(ctx, ConversionDegraded,
			FieldRawKind.Field(raw.Kind),
			FieldEdgeKind.Field(string(kind)),
		)
	}

	return Edge{
		SourceID: raw.SourceID,
		TargetID: raw.TargetID,
		Kind:     kind,
		Weight:   raw.Weight,
	}, true
}
