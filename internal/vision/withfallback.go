package vision

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/pokescan/internal/model"
)

// resolverWithFallback catches every error from the primary resolver
// and delegates to the fallback, so composed resolution never fails.
type resolverWithFallback struct {
	primary  IdentityResolver
	fallback IdentityResolver
}

// WithFallback wraps primary so that any error is absorbed by asking
// fallback instead. A nil primary delegates directly.
func WithFallback(primary, fallback IdentityResolver) IdentityResolver {
	return &resolverWithFallback{primary: primary, fallback: fallback}
}

func (r *resolverWithFallback) Resolve(ctx context.Context, imageBase64 string, hint model.GradingCompany) (*model.ResolvedIdentity, error) {
	if r.primary != nil {
		identity, err := r.primary.Resolve(ctx, imageBase64, hint)
		if err == nil {
			return identity, nil
		}
		zap.L().Warn("vision: primary resolver failed, using fallback", zap.Error(err))
	}
	return r.fallback.Resolve(ctx, imageBase64, hint)
}
