package ginserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"

	"stayrate/internal/app/wiring"
	domainpricing "stayrate/internal/domain/pricing"
	domainrules "stayrate/internal/domain/rules"
	"stayrate/internal/infra/obs"
	"stayrate/internal/infra/storage/memory"
	"stayrate/internal/infra/validation"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T, boundary domainrules.Boundary) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cmds, qs := wiring.Buses(wiring.Deps{
		UoW:         memory.NewFactory(),
		Outbox:      memory.NewOutbox(nil),
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Validator:   validation.New(),
		Engine:      domainpricing.NewEngine(boundary),
		Logger:      logger,
		Now:         func() time.Time { return time.Date(2022, 1, 1, 8, 0, 0, 0, time.UTC) },
		MaxStay:     365,
	})
	router := NewRouter(obs.Middleware{Logger: logger}, obs.HealthHandlers{}, Handlers{
		Property: PropertyHandler{Commands: cmds, Queries: qs, Logger: logger},
		Rule:     RuleHandler{Commands: cmds, Queries: qs, Logger: logger},
		Booking:  BookingHandler{Commands: cmds, Queries: qs, Logger: logger},
	})
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func (s *testServer) createProperty(price float64) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/properties", map[string]any{"name": "Cabin", "base_price": price})
	if w.Code != http.StatusCreated {
		s.t.Fatalf("create property: %d %s", w.Code, w.Body.String())
	}
	return decode[map[string]string](s.t, w)["property_id"]
}

func (s *testServer) createRule(body map[string]any) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/rules", body)
	if w.Code != http.StatusCreated {
		s.t.Fatalf("create rule: %d %s", w.Code, w.Body.String())
	}
}

type bookingResponse struct {
	BookingID  string  `json:"booking_id"`
	FinalPrice float64 `json:"final_price"`
}

func TestBookingPricingScenarios(t *testing.T) {
	tests := []struct {
		name     string
		boundary domainrules.Boundary
		end      string
		rules    []map[string]any
		want     float64
	}{
		{"no rules", domainrules.BoundaryExclusive, "2022-01-10", nil, 100},
		{"one min stay", domainrules.BoundaryExclusive, "2022-01-10", []map[string]any{
			{"price_modifier": -10, "min_stay_length": 7},
		}, 90},
		{"min stay out of reach", domainrules.BoundaryExclusive, "2022-01-10", []map[string]any{
			{"price_modifier": -10, "min_stay_length": 7},
			{"price_modifier": -20, "min_stay_length": 30},
		}, 90},
		{"larger min stay wins", domainrules.BoundaryExclusive, "2022-01-10", []map[string]any{
			{"price_modifier": -10, "min_stay_length": 7},
			{"price_modifier": -20, "min_stay_length": 8},
		}, 80},
		{"specific day", domainrules.BoundaryExclusive, "2022-01-10", []map[string]any{
			{"price_modifier": -10, "min_stay_length": 7},
			{"fixed_price": 20, "specific_day": "2022-01-04"},
		}, 101},
		{"seven day stay", domainrules.BoundaryInclusive, "2022-01-07", []map[string]any{
			{"price_modifier": -10, "min_stay_length": 7},
			{"fixed_price": 20, "specific_day": "2022-01-04"},
		}, 74},
		{"double condition", domainrules.BoundaryExclusive, "2022-01-10", []map[string]any{
			{"price_modifier": -10, "min_stay_length": 7},
			{"fixed_price": 20, "specific_day": "2022-01-04"},
			{"price_modifier": -10, "fixed_price": 5, "min_stay_length": 7, "specific_day": "2022-01-05"},
		}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.boundary)
			pid := s.createProperty(10)
			for _, r := range tt.rules {
				r["property_id"] = pid
				s.createRule(r)
			}
			w := s.do(http.MethodPost, "/api/v1/bookings", map[string]string{
				"property_id": pid, "start_date": "2022-01-01", "end_date": tt.end,
			})
			if w.Code != http.StatusCreated {
				t.Fatalf("status %d: %s", w.Code, w.Body.String())
			}
			if got := decode[bookingResponse](t, w).FinalPrice; got != tt.want {
				t.Errorf("final price = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBookingErrors(t *testing.T) {
	s := newTestServer(t, domainrules.BoundaryExclusive)
	pid := s.createProperty(10)
	book := func(start, end string) *httptest.ResponseRecorder {
		return s.do(http.MethodPost, "/api/v1/bookings", map[string]string{"property_id": pid, "start_date": start, "end_date": end})
	}
	if w := book("2022-01-05", "2022-01-10"); w.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	cases := []struct {
		name       string
		start, end string
		status     int
	}{
		{"overlap", "2022-01-10", "2022-01-12", http.StatusConflict},
		{"reversed", "2022-01-12", "2022-01-11", http.StatusBadRequest},
		{"in the past", "2021-12-30", "2022-01-02", http.StatusBadRequest},
		{"malformed date", "2022/01/20", "2022-01-21", http.StatusBadRequest},
		{"too long", "2022-02-01", "2400-01-01", http.StatusBadRequest},
	}
	for _, c := range cases {
		if w := book(c.start, c.end); w.Code != c.status {
			t.Errorf("%s: status %d, want %d (%s)", c.name, w.Code, c.status, w.Body.String())
		}
	}
	w := s.do(http.MethodPost, "/api/v1/bookings", map[string]string{"property_id": "missing", "start_date": "2022-02-01", "end_date": "2022-02-02"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown property: status %d", w.Code)
	}
	w = s.do(http.MethodPost, "/api/v1/bookings", map[string]string{"start_date": "2022-02-01"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing fields: status %d", w.Code)
	}
}

func TestBookingIdempotencyHeader(t *testing.T) {
	s := newTestServer(t, domainrules.BoundaryExclusive)
	pid := s.createProperty(10)
	body := map[string]string{"property_id": pid, "start_date": "2022-01-02", "end_date": "2022-01-03"}
	first := s.do(http.MethodPost, "/api/v1/bookings", body, "Idempotency-Key", "abc")
	second := s.do(http.MethodPost, "/api/v1/bookings", body, "Idempotency-Key", "abc")
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("statuses %d %d", first.Code, second.Code)
	}
	if decode[bookingResponse](t, first).BookingID != decode[bookingResponse](t, second).BookingID {
		t.Error("replayed request must return the original booking")
	}
}

func TestCancelAndRebook(t *testing.T) {
	s := newTestServer(t, domainrules.BoundaryExclusive)
	pid := s.createProperty(10)
	w := s.do(http.MethodPost, "/api/v1/bookings", map[string]string{"property_id": pid, "start_date": "2022-01-02", "end_date": "2022-01-05"})
	id := decode[bookingResponse](t, w).BookingID

	w = s.do(http.MethodPost, "/api/v1/bookings/"+id+"/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: %d %s", w.Code, w.Body.String())
	}
	if state := decode[map[string]any](t, w)["state"]; state != "CANCELLED" {
		t.Errorf("state = %v", state)
	}
	if w := s.do(http.MethodPost, "/api/v1/bookings/"+id+"/cancel", nil); w.Code != http.StatusConflict {
		t.Errorf("second cancel: %d", w.Code)
	}
	w = s.do(http.MethodPost, "/api/v1/bookings", map[string]string{"property_id": pid, "start_date": "2022-01-03", "end_date": "2022-01-04"})
	if w.Code != http.StatusCreated {
		t.Errorf("rebook: %d %s", w.Code, w.Body.String())
	}
	if w := s.do(http.MethodGet, "/api/v1/bookings/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("get unknown booking: %d", w.Code)
	}
	list := s.do(http.MethodGet, "/api/v1/bookings?property_id="+pid, nil)
	if items := decode[map[string][]any](t, list)["items"]; len(items) != 2 {
		t.Errorf("bookings = %d", len(items))
	}
}

func TestQuoteEndpoint(t *testing.T) {
	s := newTestServer(t, domainrules.BoundaryExclusive)
	pid := s.createProperty(10)
	s.createRule(map[string]any{"property_id": pid, "price_modifier": -10, "min_stay_length": 7})
	w := s.do(http.MethodPost, "/api/v1/properties/"+pid+"/quote", map[string]string{"start_date": "2022-01-01", "end_date": "2022-01-10"})
	if w.Code != http.StatusOK {
		t.Fatalf("quote: %d %s", w.Code, w.Body.String())
	}
	var q struct {
		FinalPrice float64 `json:"final_price"`
		Available  bool    `json:"available"`
		Breakdown  []struct {
			Date   string  `json:"date"`
			Amount float64 `json:"amount"`
		} `json:"breakdown"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &q); err != nil {
		t.Fatal(err)
	}
	if q.FinalPrice != 90 || !q.Available || len(q.Breakdown) != 10 || q.Breakdown[9].Date != "2022-01-10" || q.Breakdown[0].Amount != 9 {
		t.Errorf("quote = %+v", q)
	}
}

func TestPropertyAndRuleEndpoints(t *testing.T) {
	s := newTestServer(t, domainrules.BoundaryExclusive)
	if w := s.do(http.MethodPost, "/api/v1/properties", map[string]any{"name": "x"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing base price: %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/v1/properties", map[string]any{"name": "x", "base_price": -5}); w.Code != http.StatusBadRequest {
		t.Errorf("negative base price: %d", w.Code)
	}
	pid := s.createProperty(10)
	w := s.do(http.MethodPut, "/api/v1/properties/"+pid, map[string]any{"name": "Loft", "base_price": 15})
	if w.Code != http.StatusOK || decode[map[string]any](t, w)["base_price"] != 15.0 {
		t.Errorf("update: %d %s", w.Code, w.Body.String())
	}
	if w := s.do(http.MethodPost, "/api/v1/rules", map[string]any{"property_id": pid, "price_modifier": 5}); w.Code != http.StatusBadRequest {
		t.Errorf("rule without condition: %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/api/v1/rules", map[string]any{"property_id": pid, "price_modifier": 5, "min_stay_length": 0}); w.Code != http.StatusBadRequest {
		t.Errorf("zero min stay: %d", w.Code)
	}
	s.createRule(map[string]any{"property_id": pid, "fixed_price": 12, "specific_day": "2022-03-01"})
	list := s.do(http.MethodGet, "/api/v1/rules?property_id="+pid, nil)
	items := decode[map[string][]map[string]any](t, list)["items"]
	if len(items) != 1 || items[0]["category"] != "specific_day" {
		t.Fatalf("rules = %v", items)
	}
	ruleID, _ := items[0]["id"].(string)
	if w := s.do(http.MethodDelete, "/api/v1/rules/"+ruleID, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete rule: %d", w.Code)
	}
	if w := s.do(http.MethodDelete, "/api/v1/properties/"+pid, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete property: %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/v1/properties/"+pid, nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted property: %d", w.Code)
	}
}
