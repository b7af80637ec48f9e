package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()
	cases := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct public", "203.0.113.7:5000", "", "", "203.0.113.7"},
		{"public peer cannot spoof", "203.0.113.7:5000", "1.1.1.1", "", "203.0.113.7"},
		{"trusted proxy xff", "10.0.0.2:80", "198.51.100.4, 10.0.0.2", "", "198.51.100.4"},
		{"trusted proxy real ip", "127.0.0.1:80", "", "198.51.100.9", "198.51.100.9"},
		{"trusted proxy garbage", "192.168.1.1:80", "not-an-ip", "", "192.168.1.1"},
		{"no port", "198.51.100.1", "", "", "198.51.100.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				r.Header.Set("X-Real-IP", tc.xri)
			}
			if got := d.ExtractClientIP(r); got != tc.want {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()
	cases := []struct {
		method, target, ua string
		want               bool
	}{
		{http.MethodGet, "/api/stats", "Mozilla/5.0", false},
		{http.MethodGet, "/export.csv", "curl/8.0", false},
		{http.MethodGet, "/.env", "", true},
		{http.MethodGet, "/?q=union+select", "", false},
		{http.MethodGet, "/?q=union%20select", "", false},
		{http.MethodGet, "/?q=<script>", "", true},
		{http.MethodGet, "/", "sqlmap/1.7", true},
		{"TRACE", "/", "", true},
	}
	flagged := int64(0)
	for _, tc := range cases {
		r := httptest.NewRequest(tc.method, tc.target, nil)
		if tc.ua != "" {
			r.Header.Set("User-Agent", tc.ua)
		}
		if got := d.DetectSuspiciousRequest(r); got != tc.want {
			t.Fatalf("%s %s (%s): want %v, got %v", tc.method, tc.target, tc.ua, tc.want, got)
		}
		if tc.want {
			flagged++
		}
	}
	if d.SuspiciousCount() != flagged {
		t.Fatalf("expected %d flagged, got %d", flagged, d.SuspiciousCount())
	}
}

func TestHeaders(t *testing.T) {
	h := Headers(DefaultHeadersConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("missing X-Frame-Options")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Fatal("missing CSP")
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must not be sent over plain HTTP")
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("unexpected HSTS %q", got)
	}
}

func TestNoStore(t *testing.T) {
	rec := httptest.NewRecorder()
	NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatal("expected no-store")
	}
}
