package proxyserver

import (
	"testing"

	"github.com/pkg/errors"
)

func TestParseRequestLine(t *testing.T) {
	tests := []struct {
		line   string
		method string
		url    string
	}{
		{"GET http://example.com/ HTTP/1.0\r\n", "GET", "http://example.com/"},
		{"GET example.com/pic.png HTTP/1.1\n", "GET", "http://example.com/pic.png"},
		{"POST http://example.com/form HTTP/1.0", "POST", "http://example.com/form"},
		{"GET http://example.com/no-version", "GET", "http://example.com/no-version"},
		{"GET https://example.com/ HTTP/1.0", "GET", "https://example.com/"},
	}
	for _, tt := range tests {
		req, err := ParseRequestLine(tt.line)
		if err != nil {
			t.Fatalf("ParseRequestLine(%q) error: %v", tt.line, err)
		}
		if req.Method != tt.method || req.URL != tt.url {
			t.Errorf("ParseRequestLine(%q) = %+v", tt.line, req)
		}
	}
}

func TestParseMalformedRequestLine(t *testing.T) {
	for _, line := range []string{"", "\r\n", "GARBAGE", " http://example.com/ HTTP/1.0", "GET ", "GET  HTTP/1.0"} {
		if _, err := ParseRequestLine(line); !errors.Is(err, ErrMalformedRequest) {
			t.Errorf("ParseRequestLine(%q): expected ErrMalformedRequest, got %v", line, err)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	for _, target := range []string{"example.com/a", "http://example.com/a", "www.example.com", "https://example.com"} {
		once := NormalizeURL(target)
		if once[:4] != "http" {
			t.Errorf("NormalizeURL(%q) = %q", target, once)
		}
		if twice := NormalizeURL(once); twice != once {
			t.Errorf("NormalizeURL not idempotent: %q -> %q", once, twice)
		}
	}
	if got := NormalizeURL("example.com/a"); got != "http://example.com/a" {
		t.Errorf("NormalizeURL = %q", got)
	}
}

func TestCacheStatusString(t *testing.T) {
	cs := CacheStatus{}
	if cs.String() != "" {
		t.Fatalf("Empty status is %q", cs.String())
	}
	cs.Hit()
	if cs.String() != "ProxyServer; hit" || !cs.IsHit() {
		t.Fatalf("Hit status is %q", cs.String())
	}
	cs = CacheStatus{}
	cs.Forward(CacheStatusFwdMiss)
	cs.Detail("stored")
	if cs.String() != "ProxyServer; fwd=miss; detail=stored" {
		t.Fatalf("Forward status is %q", cs.String())
	}
}
