package api

import (
	"encoding/json"
	"net/http"

	"cicerone/pkg/tracker"
)

// StatsHandler reports per-provider request and cache counters.
type StatsHandler struct {
	tracker *tracker.Tracker
}

func NewStatsHandler(t *tracker.Tracker) *StatsHandler {
	return &StatsHandler{tracker: t}
}

type ProviderStatsDTO struct {
	Requests    int64 `json:"requests"`
	Failures    int64 `json:"failures"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	HitRate     int64 `json:"hit_rate"`
}

type StatsResponse struct {
	Providers map[string]ProviderStatsDTO `json:"providers"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	resp := StatsResponse{Providers: make(map[string]ProviderStatsDTO)}
	for provider, stats := range snapshot {
		totalCache := stats.CacheHits + stats.CacheMisses
		hitRate := int64(0)
		if totalCache > 0 {
			hitRate = (stats.CacheHits * 100) / totalCache
		}
		resp.Providers[provider] = ProviderStatsDTO{
			Requests:    stats.Requests,
			Failures:    stats.Failures,
			CacheHits:   stats.CacheHits,
			CacheMisses: stats.CacheMisses,
			HitRate:     hitRate,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
