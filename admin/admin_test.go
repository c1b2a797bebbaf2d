package admin

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	proxyserver "github.com/Anushka4401/Proxy-Server-using-LRU-cache"
	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/cache"
	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/journal"
)

type fakeProxy struct {
	running atomic.Bool
	cache   *cache.LRU
	closed  atomic.Int32
}

func (p *fakeProxy) Running() bool { return p.running.Load() }

func (p *fakeProxy) Stats() proxyserver.StatsSnapshot {
	return proxyserver.StatsSnapshot{CacheHits: 3, CacheEntries: p.cache.Len()}
}

func (p *fakeProxy) Cache() cache.Provider { return p.cache }

func (p *fakeProxy) Close() error {
	p.closed.Add(1)
	p.running.Store(false)
	return nil
}

type fakeJournal struct {
	limit atomic.Int64
	url   atomic.Value
}

func (j *fakeJournal) Recent(limit int) ([]journal.Entry, error) {
	j.limit.Store(int64(limit))
	return []journal.Entry{{Time: time.Unix(0, 0), Method: "GET", URL: "http://example.com/", Status: 200}}, nil
}

func (j *fakeJournal) ForURL(url string, limit int) ([]journal.Entry, error) {
	j.limit.Store(int64(limit))
	j.url.Store(url)
	return []journal.Entry{{Time: time.Unix(0, 0), Method: "GET", URL: url, Status: 404}}, nil
}

func startAdmin(t *testing.T, j Journal) (*fakeProxy, *httptest.Server) {
	p := &fakeProxy{cache: cache.NewLRU(4, nil)}
	p.running.Store(true)
	p.cache.Put("http://example.com/a", cache.TextValue("hello\n"))
	p.cache.Put("http://example.com/b.png", cache.BinaryValue([]byte{1, 2, 3}, "png"))
	logger := zerolog.Nop()
	server := httptest.NewServer(NewRouter(Config{Proxy: p, Journal: j, Logger: &logger}))
	t.Cleanup(server.Close)
	return p, server
}

func get(t *testing.T, url string) (int, string) {
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s error: %v", url, err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(body)
}

func TestHealth(t *testing.T) {
	p, server := startAdmin(t, nil)
	if code, body := get(t, server.URL+"/healthz"); code != 200 || !strings.Contains(body, `"up"`) {
		t.Fatalf("Health: %d %s", code, body)
	}
	p.running.Store(false)
	if code, _ := get(t, server.URL+"/healthz"); code != http.StatusServiceUnavailable {
		t.Fatalf("Health of closed proxy: %d", code)
	}
}

func TestStats(t *testing.T) {
	_, server := startAdmin(t, nil)
	code, body := get(t, server.URL+"/stats")
	if code != 200 {
		t.Fatalf("Stats code %d", code)
	}
	var s proxyserver.StatsSnapshot
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		t.Fatalf("Could not decode stats: %v", err)
	}
	if s.CacheHits != 3 || s.CacheEntries != 2 {
		t.Fatalf("Stats: %+v", s)
	}
}

func TestCacheEntries(t *testing.T) {
	_, server := startAdmin(t, nil)
	_, body := get(t, server.URL+"/cache")
	var entries []cache.EntryInfo
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		t.Fatalf("Could not decode entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Key != "http://example.com/a" || entries[1].Format != "png" || entries[1].Size != 3 {
		t.Fatalf("Entries: %+v", entries)
	}
}

func TestRequests(t *testing.T) {
	j := &fakeJournal{}
	_, server := startAdmin(t, j)

	code, body := get(t, server.URL+"/requests?limit=5")
	if code != 200 || j.limit.Load() != 5 || !strings.Contains(body, "http://example.com/") {
		t.Fatalf("Requests: %d %d %s", code, j.limit.Load(), body)
	}
	get(t, server.URL+"/requests")
	if j.limit.Load() != defaultLimit {
		t.Fatalf("Default limit is %d", j.limit.Load())
	}
	get(t, server.URL+"/requests?limit=100000")
	if j.limit.Load() != maxLimit {
		t.Fatalf("Limit not capped: %d", j.limit.Load())
	}
	if code, _ := get(t, server.URL+"/requests?limit=abc"); code != http.StatusBadRequest {
		t.Fatalf("Invalid limit code %d", code)
	}
}

func TestRequestsForURL(t *testing.T) {
	j := &fakeJournal{}
	_, server := startAdmin(t, j)

	code, body := get(t, server.URL+"/requests?url="+url.QueryEscape("http://example.com/pic.png?v=1")+"&limit=3")
	if code != 200 || j.limit.Load() != 3 || j.url.Load() != "http://example.com/pic.png?v=1" {
		t.Fatalf("Requests: %d %d %v %s", code, j.limit.Load(), j.url.Load(), body)
	}
	var entries []journal.Entry
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		t.Fatalf("Could not decode entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != 404 {
		t.Fatalf("Entries: %+v", entries)
	}
}

func TestRequestsWithoutJournal(t *testing.T) {
	_, server := startAdmin(t, nil)
	if code, _ := get(t, server.URL+"/requests"); code != http.StatusNotFound {
		t.Fatalf("Code %d", code)
	}
}

func TestMetrics(t *testing.T) {
	_, server := startAdmin(t, nil)
	code, body := get(t, server.URL+"/metrics")
	if code != 200 || !strings.Contains(body, "proxy_cache_hits_total") {
		t.Fatalf("Metrics: %d %s", code, body)
	}
}

func TestClose(t *testing.T) {
	p, server := startAdmin(t, nil)
	if code, _ := get(t, server.URL+"/close"); code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /close code %d", code)
	}
	res, err := http.Post(server.URL+"/close", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusAccepted || p.closed.Load() != 1 || p.Running() {
		t.Fatalf("Close: %d, closed %d times", res.StatusCode, p.closed.Load())
	}
}
