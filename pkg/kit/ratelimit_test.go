package kit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPRateLimiter_Window(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewIPRateLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two hits should pass")
	}
	if l.Allow("a") {
		t.Fatal("third hit inside window should be limited")
	}
	if !l.Allow("b") {
		t.Fatal("other ip should not share the budget")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("a") {
		t.Fatal("hit after window should pass")
	}
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	l := NewIPRateLimiter(1, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPut, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("Retry-After=%q", got)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:5555"
	if got := clientIP(req); got != "198.51.100.4" {
		t.Fatalf("clientIP=%q", got)
	}

	req.Header.Set("X-Forwarded-For", " 203.0.113.9 ")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Fatalf("forwarded clientIP=%q", got)
	}
}
