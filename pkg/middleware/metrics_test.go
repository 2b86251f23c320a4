package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/api/reports/0f5c8a4e-1b2d-4c3e-9f6a-7b8c9d0e1f2a":          "/api/reports/{id}",
		"/api/reports/0f5c8a4e-1b2d-4c3e-9f6a-7b8c9d0e1f2a/evidence": "/api/reports/{id}/evidence",
		"/api/unassigned-reports":                                     "/api/unassigned-reports",
		"/timeline/42":                                                "/timeline/{id}",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRouteLabelUsesMatchedPattern(t *testing.T) {
	var route string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/reports/{officerId}", func(w http.ResponseWriter, r *http.Request) {})
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		route = routeLabel(r)
	})

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/reports/abc", nil))
	if route != "/api/reports/{officerId}" {
		t.Errorf("matched route = %q", route)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere/123", nil))
	if route != "/nowhere/{id}" {
		t.Errorf("unmatched route = %q", route)
	}
}
