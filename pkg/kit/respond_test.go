package kit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Query string `json:"query"`
	}

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"ok", `{"query":"camo"}`, false},
		{"unknown field", `{"q":"camo"}`, true},
		{"trailing data", `{"query":"a"}{"query":"b"}`, true},
		{"not json", `query=camo`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.in))
			var b body
			err := DecodeJSON(httptest.NewRecorder(), req, &b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestMetricsAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{"match", "s3cret", "Bearer s3cret", http.StatusOK},
		{"wrong", "s3cret", "Bearer nope", http.StatusForbidden},
		{"missing", "s3cret", "", http.StatusForbidden},
		{"unset token", "", "Bearer ", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			MetricsAuth(tt.token)(ok).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status=%d want %d", rec.Code, tt.want)
			}
		})
	}
}
