package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pokescan/internal/certlookup"
	"github.com/sells-group/pokescan/internal/comps"
	"github.com/sells-group/pokescan/internal/config"
	"github.com/sells-group/pokescan/internal/model"
	"github.com/sells-group/pokescan/internal/scan"
	"github.com/sells-group/pokescan/internal/store"
	"github.com/sells-group/pokescan/internal/vision"
	anthropicpkg "github.com/sells-group/pokescan/pkg/anthropic"
	"github.com/sells-group/pokescan/pkg/ebay"
)

// serviceEnv holds the initialized store and scan service shared by
// the serve/analyze/scans commands.
type serviceEnv struct {
	Store store.Store
	Scans *scan.Service
}

// Close releases resources held by the environment.
func (se *serviceEnv) Close() {
	if se.Store != nil {
		_ = se.Store.Close()
	}
}

// initService builds the store, resolvers, aggregator, and scan
// service from config. Callers should defer env.Close().
func initService(ctx context.Context) (*serviceEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	fallback := vision.NewFallbackResolver()
	var resolver vision.IdentityResolver = fallback
	if cfg.Anthropic.Key != "" {
		modelResolver := vision.NewModelResolver(
			anthropicpkg.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model,
		)
		resolver = vision.WithFallback(modelResolver, fallback)
	}

	certs := certlookup.NewResolver(certOptions(cfg.Cert)...)

	var market ebay.Client
	if cfg.Ebay.ClientID != "" && cfg.Ebay.ClientSecret != "" {
		market = ebay.NewClient(cfg.Ebay.ClientID, cfg.Ebay.ClientSecret,
			ebay.WithMarketplaceID(cfg.Ebay.MarketplaceID))
	}
	aggregator := comps.NewAggregator(market)

	return &serviceEnv{
		Store: st,
		Scans: scan.NewService(resolver, certs, aggregator, st),
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		return store.NewMemory(), nil
	case "sqlite":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store: sqlite driver requires store.database_url")
		}
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store: postgres driver requires store.database_url")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
}

func certOptions(c config.CertConfig) []certlookup.Option {
	var opts []certlookup.Option
	if c.PSAURLTemplate != "" {
		opts = append(opts, certlookup.WithURLTemplate(model.CompanyPSA, c.PSAURLTemplate))
	}
	if c.BGSURLTemplate != "" {
		opts = append(opts, certlookup.WithURLTemplate(model.CompanyBGS, c.BGSURLTemplate))
	}
	if c.CGCURLTemplate != "" {
		opts = append(opts, certlookup.WithURLTemplate(model.CompanyCGC, c.CGCURLTemplate))
	}
	return opts
}
