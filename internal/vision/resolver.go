// Package vision resolves a graded card's identity from a slab photo.
//
// The model-backed resolver asks a vision model for structured fields;
// the deterministic fallback derives a repeatable demo identity from
// the image bytes. A decorator composes the two so resolution never
// fails.
package vision

import (
	"context"

	"github.com/sells-group/pokescan/internal/model"
)

// IdentityResolver produces a best-guess identity for a slab image.
// The hint, when non-empty, is authoritative for the grading company.
type IdentityResolver interface {
	Resolve(ctx context.Context, imageBase64 string, hint model.GradingCompany) (*model.ResolvedIdentity, error)
}

// postValidate normalizes model output into the domain's invariants:
// grade clamped to [1,10], confidence to [0.01,0.99], alternatives
// capped at 2, and the caller hint overriding the resolved company.
func postValidate(identity *model.ResolvedIdentity, hint model.GradingCompany) *model.ResolvedIdentity {
	identity.GradeNumeric = model.ClampGrade(identity.GradeNumeric)
	identity.Confidence = model.ClampConfidence(identity.Confidence)
	if len(identity.Alternatives) > 2 {
		identity.Alternatives = identity.Alternatives[:2]
	}
	if hint != "" && hint.Valid() {
		identity.GradingCompany = hint
	}
	return identity
}
