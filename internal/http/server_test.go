package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"gasolina/internal/core"
	"gasolina/internal/icon"
	"gasolina/internal/log"
	"gasolina/internal/middleware/ratelimit"
	"gasolina/internal/ports/memory"
	"gasolina/internal/services"
)

var testNow = time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)

type fakeIcons struct {
	img icon.Image
	err error
}

func (f *fakeIcons) Generate(context.Context) (icon.Image, error) { return f.img, f.err }

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type testApp struct {
	srv   *Server
	store *memory.Store
}

func newTestApp(t *testing.T, mutate func(*Deps)) *testApp {
	t.Helper()
	store := memory.New()
	clock := core.FixedClock(testNow)
	entries := services.NewEntryService(store, core.NewIDSource(clock), nil)
	stats := services.NewStatsService(store, store, core.NewEngine(clock), 16, time.Minute)
	entries.OnChange(stats)

	deps := Deps{
		Entries: entries,
		Stats:   stats,
		Store:   fakePinger{},
		Clock:   clock,
		Logger:  log.New(log.Config{Handler: log.NewHandler(io.Discard, slog.LevelError)}),
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv := NewServer(":0", deps)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testApp{srv: srv, store: store}
}

func (a *testApp) do(method, target string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(w, req)
	return w
}

func (a *testApp) postForm(target string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	h := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	if htmx {
		h["HX-Request"] = "true"
	}
	return a.do(http.MethodPost, target, strings.NewReader(form.Encode()), h)
}

func (a *testApp) postJSON(target, body string) *httptest.ResponseRecorder {
	return a.do(http.MethodPost, target, strings.NewReader(body), map[string]string{"Content-Type": "application/json"})
}

func TestHealthAndReady(t *testing.T) {
	app := newTestApp(t, nil)

	w := app.do(http.MethodGet, "/healthz", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}
	var health map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil || health["status"] != "ok" {
		t.Fatalf("healthz body = %s", w.Body.String())
	}

	w = app.do(http.MethodGet, "/readyz", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("readyz status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestReady_StorageDown(t *testing.T) {
	app := newTestApp(t, func(d *Deps) { d.Store = fakePinger{err: errors.New("disk gone")} })

	w := app.do(http.MethodGet, "/readyz", nil, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), "disk gone") {
		t.Fatalf("body should name the failure: %s", w.Body.String())
	}
}

func TestIndex_Renders(t *testing.T) {
	app := newTestApp(t, nil)

	w := app.do(http.MethodGet, "/", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Control de Gasolina", "Importe Pagado (€)", "Todavía no hay registros", `value="2024-03-20"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request id not set")
	}
}

func TestUnknownPath_NotFound(t *testing.T) {
	app := newTestApp(t, nil)
	if w := app.do(http.MethodGet, "/nope", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCreateEntry_HTMX(t *testing.T) {
	app := newTestApp(t, nil)

	w := app.postForm("/api/entries", url.Values{
		"date":          {"2024-03-10"},
		"totalCost":     {"62,73"},
		"liters":        {"40,5"},
		"pricePerLiter": {"1,549"},
		"odometer":      {"1400"},
	}, true)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	trigger := w.Header().Get("HX-Trigger")
	for _, ev := range []string{"entry:created", "form:reset", "stats:refresh"} {
		if !strings.Contains(trigger, ev) {
			t.Errorf("HX-Trigger %q missing %s", trigger, ev)
		}
	}
	if !strings.Contains(w.Body.String(), "62,73 €") {
		t.Errorf("body = %q", w.Body.String())
	}

	list, _ := app.store.ListEntries(context.Background())
	if len(list) != 1 || list[0].Liters != 40.5 || list[0].Odometer != 1400 {
		t.Fatalf("stored = %+v", list)
	}
}

func TestCreateEntry_JSON(t *testing.T) {
	app := newTestApp(t, nil)

	w := app.postJSON("/api/entries", `{"date":"2024-03-10","liters":40,"pricePerLiter":1.5}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var e core.Entry
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.TotalCost != 60 {
		t.Fatalf("derived total = %v, want 60", e.TotalCost)
	}
	if e.ID != testNow.UnixMilli() {
		t.Fatalf("id = %d, want creation millis", e.ID)
	}
}

func TestCreateEntry_Invalid(t *testing.T) {
	app := newTestApp(t, nil)

	cases := []struct {
		name string
		body string
	}{
		{"bad date", `{"date":"10/03/2024","totalCost":"10"}`},
		{"negative liters", `{"date":"2024-03-10","liters":"-4","totalCost":"10"}`},
		{"missing cost", `{"date":"2024-03-10"}`},
		{"bad odometer", `{"date":"2024-03-10","totalCost":"10","odometer":"12,5"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := app.postJSON("/api/entries", tc.body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Fatalf("error body = %s", w.Body.String())
			}
		})
	}

	if list, _ := app.store.ListEntries(context.Background()); len(list) != 0 {
		t.Fatalf("invalid input stored: %+v", list)
	}
}

func TestCreateEntry_MalformedJSON(t *testing.T) {
	app := newTestApp(t, nil)
	if w := app.postJSON("/api/entries", `{"date":`); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDeleteEntry(t *testing.T) {
	app := newTestApp(t, nil)
	w := app.postJSON("/api/entries", `{"date":"2024-03-10","totalCost":"30"}`)
	var e core.Entry
	_ = json.Unmarshal(w.Body.Bytes(), &e)
	id := strconv.FormatInt(e.ID, 10)

	if w := app.do(http.MethodDelete, "/api/entries/999", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id status = %d", w.Code)
	}
	if w := app.do(http.MethodDelete, "/api/entries/abc", nil, nil); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad id status = %d", w.Code)
	}

	w = app.do(http.MethodDelete, "/api/entries/"+id, nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if list, _ := app.store.ListEntries(context.Background()); len(list) != 0 {
		t.Fatalf("entry not deleted: %+v", list)
	}
}

func TestDeleteEntry_FormPostHTMX(t *testing.T) {
	app := newTestApp(t, nil)
	w := app.postJSON("/api/entries", `{"date":"2024-03-10","totalCost":"30"}`)
	var e core.Entry
	_ = json.Unmarshal(w.Body.Bytes(), &e)

	w = app.postForm("/api/entries/delete", url.Values{"id": {strconv.FormatInt(e.ID, 10)}}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), "entry:deleted") {
		t.Fatalf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
	}
}

func TestBudget_RoundTripAndStats(t *testing.T) {
	app := newTestApp(t, nil)

	app.postJSON("/api/entries", `{"date":"2024-03-10","totalCost":"90"}`)
	app.postJSON("/api/entries", `{"date":"2024-02-10","totalCost":"500"}`)

	w := app.do(http.MethodPut, "/api/budget", strings.NewReader(`{"budget":"100"}`), map[string]string{"Content-Type": "application/json"})
	if w.Code != http.StatusOK {
		t.Fatalf("set budget status = %d body=%s", w.Code, w.Body.String())
	}

	w = app.do(http.MethodGet, "/api/budget", nil, nil)
	var b map[string]float64
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil || b["budget"] != 100 {
		t.Fatalf("budget = %s", w.Body.String())
	}

	w = app.do(http.MethodGet, "/api/stats", nil, nil)
	var st core.Statistics
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if st.TotalSpent != 590 || st.SpentThisMonth != 90 {
		t.Fatalf("stats = %+v", st.Summary)
	}
	if !st.Budget.Set || st.Budget.Percentage != 90 || st.Budget.OverBudget {
		t.Fatalf("budget status = %+v", st.Budget)
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("api responses must not be cached, got %q", w.Header().Get("Cache-Control"))
	}

	if w := app.postJSON("/api/budget", `{"budget":"-5"}`); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative budget status = %d", w.Code)
	}
}

func TestDashboardPartial_ShowsBudgetAndCharts(t *testing.T) {
	app := newTestApp(t, nil)
	app.postJSON("/api/entries", `{"date":"2024-03-01","liters":"40","pricePerLiter":"1,5","odometer":"1000"}`)
	app.postJSON("/api/entries", `{"date":"2024-03-10","liters":"35","pricePerLiter":"1,6","odometer":"1400"}`)
	app.postJSON("/api/budget", `{"budget":"100"}`)

	w := app.do(http.MethodGet, "/ui/dashboard", nil, map[string]string{"HX-Request": "true"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Consumo Medio", "Te has pasado", "<polyline", "Precio por Litro (€/L)"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestExport(t *testing.T) {
	app := newTestApp(t, nil)

	if w := app.do(http.MethodGet, "/export.csv", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("empty export status = %d", w.Code)
	}

	app.postJSON("/api/entries", `{"date":"2024-03-10","liters":"40,5","pricePerLiter":"1,549","totalCost":"62,73","odometer":"1400"}`)

	w := app.do(http.MethodGet, "/export.csv", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("csv status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "historial_gastos_gasolina.csv") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(w.Body.String(), "2024-03-10;40,5;1,549;62,73;1400") {
		t.Fatalf("csv body = %q", w.Body.String())
	}

	w = app.do(http.MethodGet, "/export.xlsx", nil, nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "PK") {
		t.Fatalf("xlsx status = %d", w.Code)
	}
}

func TestGenerateIcon(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		app := newTestApp(t, nil)
		if w := app.do(http.MethodPost, "/api/icon", nil, nil); w.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("htmx image", func(t *testing.T) {
		gen := &fakeIcons{img: icon.Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}}
		app := newTestApp(t, func(d *Deps) { d.Icons = gen })

		w := app.do(http.MethodPost, "/api/icon", nil, map[string]string{"HX-Request": "true"})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), `src="data:image/png;base64,`) {
			t.Fatalf("body = %s", w.Body.String())
		}
	})

	t.Run("download", func(t *testing.T) {
		gen := &fakeIcons{img: icon.Image{Data: []byte("png"), MIMEType: "image/png"}}
		app := newTestApp(t, func(d *Deps) { d.Icons = gen })

		w := app.do(http.MethodPost, "/api/icon", nil, nil)
		if w.Header().Get("Content-Type") != "image/png" || w.Body.String() != "png" {
			t.Fatalf("unexpected response %q %q", w.Header().Get("Content-Type"), w.Body.String())
		}
	})

	t.Run("no image", func(t *testing.T) {
		app := newTestApp(t, func(d *Deps) { d.Icons = &fakeIcons{err: icon.ErrNoImage} })

		w := app.do(http.MethodPost, "/api/icon", nil, nil)
		if w.Code != http.StatusBadGateway || !strings.Contains(w.Body.String(), "No se pudo generar el icono") {
			t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
		}
	})
}

func TestRateLimit(t *testing.T) {
	app := newTestApp(t, func(d *Deps) {
		d.RateLimit = ratelimit.Config{RequestsPerMinute: 1, Methods: []string{http.MethodPost}}
	})

	if w := app.postJSON("/api/budget", `{"budget":"50"}`); w.Code != http.StatusOK {
		t.Fatalf("first status = %d", w.Code)
	}
	w := app.postJSON("/api/budget", `{"budget":"60"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
	// Reads are not limited.
	if w := app.do(http.MethodGet, "/api/budget", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
}

func TestMetrics(t *testing.T) {
	app := newTestApp(t, nil)
	app.postJSON("/api/entries", `{"date":"2024-03-10","totalCost":"30"}`)

	w := app.do(http.MethodGet, "/metrics", nil, nil)
	body := w.Body.String()
	for _, want := range []string{"entries_created_total 1", "http_requests_total", "stats_cache_hits_total"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
