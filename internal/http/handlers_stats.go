package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type todayStatsResponse struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

type dailyBucketResponse struct {
	Date       string  `json:"date"`
	Count      int     `json:"count"`
	HasAlcohol bool    `json:"has_alcohol"`
	Total      float64 `json:"total,omitempty"`
}

type typeCountResponse struct {
	Drink drinkResponse `json:"drink"`
	Count int           `json:"count"`
}

// serveStats renders a statistics endpoint through the response cache. The
// cache key is the full request URI, so distinct windows cache separately.
func (s *Server) serveStats(w http.ResponseWriter, r *http.Request, compute func() (any, error)) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	key := r.URL.RequestURI()
	if data, found := s.statsCache.Get(key); found {
		slog.DebugContext(r.Context(), "Stats cache hit", "key", key)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	v, err := compute()
	if err != nil {
		slog.ErrorContext(r.Context(), "Stats computation error", "error", err, "url", key)
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		slog.ErrorContext(r.Context(), "Stats encoding error", "error", err, "url", key)
		writeError(w, http.StatusInternalServerError, "failed to encode statistics")
		return
	}
	data = append(data, '\n')

	s.statsCache.Set(key, data)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleStatsToday(w http.ResponseWriter, r *http.Request) {
	s.serveStats(w, r, func() (any, error) {
		count, total, err := s.svc.TodayTotals(r.Context())
		if err != nil {
			return nil, err
		}
		return todayStatsResponse{Count: count, Total: total.Float()}, nil
	})
}

func (s *Server) handleStatsDaily(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r, 7)
	s.serveStats(w, r, func() (any, error) {
		series, err := s.svc.DailySeries(r.Context(), days)
		if err != nil {
			return nil, err
		}

		out := make([]dailyBucketResponse, 0, len(series))
		for _, b := range series {
			out = append(out, dailyBucketResponse{
				Date:       b.Date.Format("2006-01-02"),
				Count:      b.Count,
				HasAlcohol: b.HasAlcohol,
			})
		}
		return out, nil
	})
}

func (s *Server) handleStatsSpend(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r, 7)
	s.serveStats(w, r, func() (any, error) {
		series, err := s.svc.DailySpendSeries(r.Context(), days)
		if err != nil {
			return nil, err
		}

		out := make([]dailyBucketResponse, 0, len(series))
		for _, b := range series {
			out = append(out, dailyBucketResponse{
				Date:  b.Date.Format("2006-01-02"),
				Total: b.Total.Float(),
			})
		}
		return out, nil
	})
}

func (s *Server) handleStatsByType(w http.ResponseWriter, r *http.Request) {
	s.serveStats(w, r, func() (any, error) {
		counts, err := s.svc.ConsumptionByType(r.Context())
		if err != nil {
			return nil, err
		}

		out := make([]typeCountResponse, 0, len(counts))
		for _, tc := range counts {
			out = append(out, typeCountResponse{Drink: toDrinkResponse(tc.Drink), Count: tc.Count})
		}
		return out, nil
	})
}
