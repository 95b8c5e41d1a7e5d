package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"expense_tracker/internal/models"
	"expense_tracker/internal/service"
)

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil, Options{})

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", defaultInterval},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=2m", defaultInterval},
		{"interval_ms_too_large", "/ws?interval_ms=90000", defaultInterval},
		{"interval_invalid_string", "/ws?interval=bogus", defaultInterval},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", defaultInterval},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, tc.u, nil)
			if got := h.parseInterval(c); got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

func TestCheckOrigin(t *testing.T) {
	h := NewHandler(&service.Service{}, nil, Options{AllowedOrigins: []string{"https://app.example.com"}})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)

	req.Header.Set("Origin", "https://app.example.com")
	if !h.checkOrigin(req) {
		t.Fatal("allowed origin rejected")
	}
	req.Header.Set("Origin", "https://evil.example.com")
	if h.checkOrigin(req) {
		t.Fatal("foreign origin accepted")
	}
}

func wsURL(t *testing.T, srv *httptest.Server, q url.Values) string {
	t.Helper()
	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = q.Encode()
	return u.String()
}

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func TestWebSocket_SummaryStream(t *testing.T) {
	an := &mockAnalytics{
		daily:      []models.DailyTotal{{Date: models.NewDate(2024, 1, 5), Total: mustMoney(t, "42.50")}},
		categories: []models.CategoryTotal{{Category: "Food", Total: mustMoney(t, "42.50"), Count: 1}},
	}
	srv := httptest.NewServer(newTestRouter(withAuth(&service.Service{Analytics: an})))
	defer srv.Close()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(wsURL(t, srv, url.Values{"interval_ms": {"20"}}), authHeader(testToken))
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if env.Type != "summary" {
		t.Fatalf("bad envelope: %+v", env)
	}
	var sum spendingSummary
	if err := json.Unmarshal(env.Data, &sum); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if len(sum.Daily) != 1 || len(sum.Categories) != 1 || sum.Categories[0].Category != "Food" {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	an.mu.Lock()
	days, owner := an.lastDays, an.lastUserID
	an.mu.Unlock()
	if days != service.DefaultSeriesDays || owner != 7 {
		t.Fatalf("series for user=%d days=%d", owner, days)
	}

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	env = envelope{}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read second: %v", err)
	}
	if env.Type != "summary" {
		t.Fatalf("expected type=summary, got %+v", env)
	}
}

func TestWebSocket_QueryToken(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(withAuth(&service.Service{Analytics: &mockAnalytics{}})))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, srv, url.Values{"token": {testToken}}), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil || env.Type != "summary" {
		t.Fatalf("env=%+v err=%v", env, err)
	}
}

func TestWebSocket_RejectsBeforeUpgrade(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(withAuth(&service.Service{})))
	defer srv.Close()

	cases := []struct {
		name string
		q    url.Values
		hdr  http.Header
		code int
	}{
		{"no token", url.Values{}, nil, http.StatusUnauthorized},
		{"bad token", url.Values{"token": {"forged"}}, nil, http.StatusForbidden},
		{"bad bearer", url.Values{}, authHeader("forged"), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(wsURL(t, srv, tc.q), tc.hdr)
			if err == nil {
				t.Fatal("expected handshake failure")
			}
			if resp == nil || resp.StatusCode != tc.code {
				t.Fatalf("resp=%v want %d", resp, tc.code)
			}
		})
	}
}

func TestWebSocket_LookupErrorSendsErrorFrame(t *testing.T) {
	an := &mockAnalytics{err: errors.New("boom")}
	srv := httptest.NewServer(newTestRouter(withAuth(&service.Service{Analytics: an})))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, srv, nil), authHeader(testToken))
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Type != "error" || env.Error != errInternal {
		t.Fatalf("env=%+v", env)
	}
}
