package crossref

import (
	"log/slog"

	"github.com/zapponejosh/manseryeok-api/internal/config"
	"github.com/zapponejosh/manseryeok-api/internal/metrics"
)

// NewFromConfig builds the cached KASI lookup described by cfg. It returns
// nil when no service key is configured.
func NewFromConfig(cfg *config.Config, store Store, m *metrics.Metrics, logger *slog.Logger) *CachedLookup {
	if !cfg.CrossReferenceEnabled() {
		return nil
	}
	client := NewKASIClient(KASIConfig{
		BaseURL:    cfg.KASIBaseURL,
		ServiceKey: cfg.KASIServiceKey,
		RatePerSec: cfg.CrossRefRatePerSec,
	}, m, logger)
	return NewCachedLookup(store, client, m, logger)
}
