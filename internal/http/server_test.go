package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"drinktrack/internal/core"
	applog "drinktrack/internal/log"
	"drinktrack/internal/services"
	"drinktrack/internal/storage"
)

func money(v float64) priceAmount {
	return priceAmount{core.MoneyFromFloat(v)}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := applog.New(applog.Config{
		Component: applog.ComponentHTTP,
		Handler:   slog.NewTextHandler(io.Discard, nil),
	})

	srv := NewServer(":0", services.NewDrinkService(repo, nil), logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func createDrink(t *testing.T, srv *Server, name string, price float64, category string) drinkResponse {
	t.Helper()

	rr := doRequest(t, srv, http.MethodPost, "/api/drinks", drinkPayload{
		Name: name, Emoji: "🍺", Price: money(price), Category: category,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create drink status = %d, body = %s", rr.Code, rr.Body.String())
	}
	return decodeBody[drinkResponse](t, rr)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doRequest(t, srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestDrinksCRUD(t *testing.T) {
	srv := newTestServer(t)

	d := createDrink(t, srv, "Cerveza", 3.50, "Alcohol")
	if d.Price != 3.50 || d.Order != 1 {
		t.Errorf("created drink = %+v, want price 3.50 order 1", d)
	}

	t.Run("list", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/api/drinks", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		drinks := decodeBody[[]drinkResponse](t, rr)
		if len(drinks) != 1 || drinks[0].ID != d.ID {
			t.Errorf("list = %+v, want single drink %s", drinks, d.ID)
		}
	})

	t.Run("get", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/api/drinks/"+d.ID, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		got := decodeBody[drinkResponse](t, rr)
		if got.Name != "Cerveza" {
			t.Errorf("name = %q, want Cerveza", got.Name)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/api/drinks/nope", nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})

	t.Run("update", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodPut, "/api/drinks/"+d.ID, drinkPayload{
			Name: "Cerveza", Emoji: "🍺", Price: money(4.00), Category: "Alcohol",
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
		got := decodeBody[drinkResponse](t, rr)
		if got.Price != 4.00 {
			t.Errorf("price = %v, want 4.00", got.Price)
		}
	})

	t.Run("update missing", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodPut, "/api/drinks/nope", drinkPayload{
			Name: "X", Emoji: "❓", Price: money(1.00), Category: "Alcohol",
		})
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})

	t.Run("validation failures", func(t *testing.T) {
		cases := []struct {
			name    string
			payload drinkPayload
		}{
			{"empty name", drinkPayload{Name: "  ", Emoji: "🍺", Price: money(1), Category: "Alcohol"}},
			{"zero price", drinkPayload{Name: "X", Emoji: "🍺", Price: money(0), Category: "Alcohol"}},
			{"bad category", drinkPayload{Name: "X", Emoji: "🍺", Price: money(1), Category: "Soda"}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				rr := doRequest(t, srv, http.MethodPost, "/api/drinks", tc.payload)
				if rr.Code != http.StatusUnprocessableEntity {
					t.Errorf("status = %d, want 422", rr.Code)
				}
			})
		}
	})

	t.Run("delete", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodDelete, "/api/drinks/"+d.ID, nil)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rr.Code)
		}

		rr = doRequest(t, srv, http.MethodDelete, "/api/drinks/"+d.ID, nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("second delete status = %d, want 404", rr.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodPatch, "/api/drinks", nil)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rr.Code)
		}
	})
}

func TestDrinkPriceFormats(t *testing.T) {
	srv := newTestServer(t)

	t.Run("string price with comma separator", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodPost, "/api/drinks", map[string]any{
			"name": "Vino", "emoji": "🍷", "price": "4,50", "category": "Alcohol",
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
		d := decodeBody[drinkResponse](t, rr)
		if d.Price != 4.50 {
			t.Errorf("price = %v, want 4.50", d.Price)
		}
	})

	t.Run("undecodable string price", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodPost, "/api/drinks", map[string]any{
			"name": "Vino", "emoji": "🍷", "price": "cuatro", "category": "Alcohol",
		})
		if rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", rr.Code)
		}
	})

	t.Run("string unit price on consumption", func(t *testing.T) {
		d := createDrink(t, srv, "Cerveza", 3.50, "Alcohol")

		rr := doRequest(t, srv, http.MethodPost, "/api/consumptions", map[string]any{
			"drink_id": d.ID, "unit_price": "2.25",
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
		e := decodeBody[eventResponse](t, rr)
		if e.UnitPrice != 2.25 {
			t.Errorf("unit price = %v, want 2.25", e.UnitPrice)
		}
	})
}

func TestConsumptionFlow(t *testing.T) {
	srv := newTestServer(t)
	d := createDrink(t, srv, "Cerveza", 3.50, "Alcohol")

	t.Run("log with default price", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodPost, "/api/consumptions", consumptionPayload{DrinkID: d.ID})
		if rr.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
		e := decodeBody[eventResponse](t, rr)
		if e.Quantity != 1 || e.UnitPrice != 3.50 {
			t.Errorf("event = %+v, want qty 1 price 3.50", e)
		}
	})

	t.Run("log for unknown drink", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodPost, "/api/consumptions", consumptionPayload{DrinkID: "nope"})
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})

	t.Run("missing drink_id", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodPost, "/api/consumptions", consumptionPayload{})
		if rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", rr.Code)
		}
	})

	t.Run("list today", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/api/consumptions?days=1", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		events := decodeBody[[]eventResponse](t, rr)
		if len(events) != 1 {
			t.Fatalf("events = %d, want 1", len(events))
		}
	})

	t.Run("invalid day filter", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/api/consumptions?day=not-a-date", nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("decrement removes the single serving", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodPost, "/api/consumptions/decrement", map[string]string{"drink_id": d.ID})
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
		res := decodeBody[map[string]bool](t, rr)
		if !res["changed"] {
			t.Error("expected changed = true")
		}

		rr = doRequest(t, srv, http.MethodPost, "/api/consumptions/decrement", map[string]string{"drink_id": d.ID})
		res = decodeBody[map[string]bool](t, rr)
		if res["changed"] {
			t.Error("expected changed = false when nothing is left")
		}
	})

	t.Run("reset today scoped to one drink", func(t *testing.T) {
		other := createDrink(t, srv, "Agua", 1.50, "Sin Alcohol")
		doRequest(t, srv, http.MethodPost, "/api/consumptions", consumptionPayload{DrinkID: d.ID})
		doRequest(t, srv, http.MethodPost, "/api/consumptions", consumptionPayload{DrinkID: other.ID})

		rr := doRequest(t, srv, http.MethodDelete, "/api/consumptions/today?drink_id="+d.ID, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		res := decodeBody[map[string]int](t, rr)
		if res["deleted"] != 1 {
			t.Errorf("deleted = %d, want 1", res["deleted"])
		}

		list := doRequest(t, srv, http.MethodGet, "/api/consumptions?days=1", nil)
		events := decodeBody[[]eventResponse](t, list)
		if len(events) != 1 || events[0].DrinkID != other.ID {
			t.Fatalf("scoped reset must keep other drinks' events, got %+v", events)
		}
	})

	t.Run("reset today for all drinks", func(t *testing.T) {
		doRequest(t, srv, http.MethodPost, "/api/consumptions", consumptionPayload{DrinkID: d.ID})

		rr := doRequest(t, srv, http.MethodDelete, "/api/consumptions/today", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		res := decodeBody[map[string]int](t, rr)
		if res["deleted"] != 2 {
			t.Errorf("deleted = %d, want 2", res["deleted"])
		}
	})

	t.Run("delete single event", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodPost, "/api/consumptions", consumptionPayload{DrinkID: d.ID})
		if rr.Code != http.StatusCreated {
			t.Fatalf("log consumption status = %d", rr.Code)
		}
		e := decodeBody[eventResponse](t, rr)

		rr = doRequest(t, srv, http.MethodDelete, "/api/consumptions/"+e.ID, nil)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("delete status = %d, want 204", rr.Code)
		}

		rr = doRequest(t, srv, http.MethodDelete, "/api/consumptions/"+e.ID, nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("second delete status = %d, want 404", rr.Code)
		}
	})
}

func TestStatsEndpoints(t *testing.T) {
	srv := newTestServer(t)
	d := createDrink(t, srv, "Cerveza", 3.50, "Alcohol")

	rr := doRequest(t, srv, http.MethodPost, "/api/consumptions", consumptionPayload{DrinkID: d.ID, Quantity: 2})
	if rr.Code != http.StatusCreated {
		t.Fatalf("log consumption status = %d", rr.Code)
	}

	t.Run("today", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/api/stats/today", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		stats := decodeBody[todayStatsResponse](t, rr)
		if stats.Count != 2 || stats.Total != 7.00 {
			t.Errorf("stats = %+v, want count 2 total 7.00", stats)
		}
	})

	t.Run("daily series is dense", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/api/stats/daily?days=7", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		series := decodeBody[[]dailyBucketResponse](t, rr)
		if len(series) != 7 {
			t.Fatalf("series length = %d, want 7", len(series))
		}
		last := series[len(series)-1]
		if last.Count != 2 || !last.HasAlcohol {
			t.Errorf("today's bucket = %+v, want count 2 with alcohol", last)
		}
	})

	t.Run("spend series", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/api/stats/spend?days=7", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		series := decodeBody[[]dailyBucketResponse](t, rr)
		if len(series) != 7 {
			t.Fatalf("series length = %d, want 7", len(series))
		}
		if series[len(series)-1].Total != 7.00 {
			t.Errorf("today's spend = %v, want 7.00", series[len(series)-1].Total)
		}
	})

	t.Run("by type", func(t *testing.T) {
		rr := doRequest(t, srv, http.MethodGet, "/api/stats/by-type", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		counts := decodeBody[[]typeCountResponse](t, rr)
		if len(counts) != 1 || counts[0].Count != 2 {
			t.Errorf("counts = %+v, want one entry with count 2", counts)
		}
	})

	t.Run("cache is invalidated by mutations", func(t *testing.T) {
		// Warm the cache.
		doRequest(t, srv, http.MethodGet, "/api/stats/today", nil)

		rr := doRequest(t, srv, http.MethodPost, "/api/consumptions", consumptionPayload{DrinkID: d.ID})
		if rr.Code != http.StatusCreated {
			t.Fatalf("log consumption status = %d", rr.Code)
		}

		rr = doRequest(t, srv, http.MethodGet, "/api/stats/today", nil)
		stats := decodeBody[todayStatsResponse](t, rr)
		if stats.Count != 3 {
			t.Errorf("count after mutation = %d, want 3", stats.Count)
		}
	})
}

func TestImportExport(t *testing.T) {
	srv := newTestServer(t)
	createDrink(t, srv, "Cerveza", 3.50, "Alcohol")
	createDrink(t, srv, "Agua", 1.50, "Sin Alcohol")

	rr := doRequest(t, srv, http.MethodGet, "/api/export", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("export status = %d", rr.Code)
	}
	exported := rr.Body.Bytes()

	t.Run("import into empty catalog", func(t *testing.T) {
		other := newTestServer(t)

		req := httptest.NewRequest(http.MethodPost, "/api/import?mode=merge", bytes.NewReader(exported))
		rec := httptest.NewRecorder()
		other.Handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("import status = %d, body = %s", rec.Code, rec.Body.String())
		}
		summary := decodeBody[importResponse](t, rec)
		if summary.DrinksAdded != 2 {
			t.Errorf("drinks_added = %d, want 2", summary.DrinksAdded)
		}

		list := doRequest(t, other, http.MethodGet, "/api/drinks", nil)
		drinks := decodeBody[[]drinkResponse](t, list)
		if len(drinks) != 2 {
			t.Errorf("drinks after import = %d, want 2", len(drinks))
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/import?mode=replace", bytes.NewReader(exported))
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed document", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/import?mode=merge", bytes.NewReader([]byte(`{"oops":`)))
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", rec.Code)
		}
	})
}

func TestRetentionSettings(t *testing.T) {
	srv := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/settings/retention", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	p := decodeBody[retentionPayload](t, rr)
	if p.RetentionDays != 0 {
		t.Errorf("default retention = %d, want 0", p.RetentionDays)
	}

	rr = doRequest(t, srv, http.MethodPut, "/api/settings/retention", retentionPayload{RetentionDays: 30})
	if rr.Code != http.StatusOK {
		t.Fatalf("put status = %d", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/settings/retention", nil)
	p = decodeBody[retentionPayload](t, rr)
	if p.RetentionDays != 30 {
		t.Errorf("retention = %d, want 30", p.RetentionDays)
	}

	rr = doRequest(t, srv, http.MethodPut, "/api/settings/retention", retentionPayload{RetentionDays: -1})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative retention status = %d, want 422", rr.Code)
	}
}
