package utils

import (
	"net/http/httptest"
	"testing"
)

func TestIPMatcherAllow(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.5 ", "::1", "not-an-ip", ""})

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"192.168.1.5", true},
		{"192.168.1.6", false},
		{"::1", true},
		{"::ffff:10.0.0.1", true},
		{"garbage", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := m.Allow(tt.ip); got != tt.want {
				t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}

	if NewIPMatcher([]string{"nope"}).IsEmpty() != true {
		t.Error("matcher with only invalid entries should be empty")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remote     string
		trustProxy bool
		want       string
	}{
		{"remote addr only", nil, "1.2.3.4:5678", false, "1.2.3.4"},
		{"proxy headers ignored when untrusted", map[string]string{"X-Forwarded-For": "9.9.9.9"}, "1.2.3.4:5678", false, "1.2.3.4"},
		{"cloudflare header first", map[string]string{"CF-Connecting-IP": "8.8.8.8", "X-Forwarded-For": "9.9.9.9"}, "127.0.0.1:1", true, "8.8.8.8"},
		{"first forwarded entry", map[string]string{"X-Forwarded-For": "9.9.9.9, 10.0.0.1"}, "127.0.0.1:1", true, "9.9.9.9"},
		{"real ip fallback", map[string]string{"X-Real-IP": "7.7.7.7"}, "127.0.0.1:1", true, "7.7.7.7"},
		{"ipv6 remote", nil, "[::1]:8080", false, "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
