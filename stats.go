package proxyserver

import (
	"sync/atomic"
	"time"

	"github.com/pascaldekloe/metrics"
)

// process-wide counters, exposed in the Prometheus text format
var (
	metricConnections = metrics.MustCounter("proxy_connections_total", "Number of client connections handled")
	metricRequests    = metrics.MustCounter("proxy_get_requests_total", "Number of GET requests received")
	metricHits        = metrics.MustCounter("proxy_cache_hits_total", "Number of requests served from the cache")
	metricMisses      = metrics.MustCounter("proxy_cache_misses_total", "Number of requests forwarded to the origin")
	metricNotFound    = metrics.MustCounter("proxy_not_found_total", "Number of 404 responses sent")
	metricUnsupported = metrics.MustCounter("proxy_unsupported_method_total", "Number of requests with a method other than GET")
	metricMalformed   = metrics.MustCounter("proxy_malformed_requests_total", "Number of unparsable or oversized request lines")
	metricReadFail    = metrics.MustCounter("proxy_read_errors_total", "Number of connections without a complete request line")
	metricOriginFail  = metrics.MustCounter("proxy_origin_errors_total", "Number of origin fetches that failed")
	metricWriteFail   = metrics.MustCounter("proxy_client_write_errors_total", "Number of responses that could not be written to the client")
	metricBytes       = metrics.MustCounter("proxy_response_bytes_total", "Number of bytes written to clients")
)

// Stats counts the work done by one proxy. Safe for concurrent use.
type Stats struct {
	started     time.Time
	current     atomic.Int64
	connections atomic.Uint64
	requests    atomic.Uint64
	hits        atomic.Uint64
	misses      atomic.Uint64
	notFound    atomic.Uint64
	unsupported atomic.Uint64
	malformed   atomic.Uint64
	readFail    atomic.Uint64
	originFail  atomic.Uint64
	writeFail   atomic.Uint64
	bytes       atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	CurrentConnections int64   `json:"currentConnections"`
	TotalConnections   uint64  `json:"totalConnections"`
	GetRequests        uint64  `json:"getRequests"`
	CacheHits          uint64  `json:"cacheHits"`
	CacheMisses        uint64  `json:"cacheMisses"`
	NotFound           uint64  `json:"notFound"`
	UnsupportedMethods uint64  `json:"unsupportedMethods"`
	MalformedRequests  uint64  `json:"malformedRequests"`
	ReadErrors         uint64  `json:"readErrors"`
	OriginErrors       uint64  `json:"originErrors"`
	WriteErrors        uint64  `json:"writeErrors"`
	BytesWritten       uint64  `json:"bytesWritten"`
	CacheEntries       int     `json:"cacheEntries"`
	CacheCapacity      int     `json:"cacheCapacity"`
	Evictions          uint64  `json:"evictions"`
	UptimeSeconds      float64 `json:"uptimeSeconds"`
}

func newStats() *Stats {
	return &Stats{started: time.Now()}
}

func (s *Stats) connOpened() {
	s.current.Add(1)
	s.connections.Add(1)
	metricConnections.Add(1)
}

func (s *Stats) connClosed() {
	s.current.Add(-1)
}

func (s *Stats) request() {
	s.requests.Add(1)
	metricRequests.Add(1)
}

func (s *Stats) hit() {
	s.hits.Add(1)
	metricHits.Add(1)
}

func (s *Stats) miss() {
	s.misses.Add(1)
	metricMisses.Add(1)
}

func (s *Stats) notFoundSent() {
	s.notFound.Add(1)
	metricNotFound.Add(1)
}

func (s *Stats) unsupportedMethod() {
	s.unsupported.Add(1)
	metricUnsupported.Add(1)
}

func (s *Stats) malformedRequest() {
	s.malformed.Add(1)
	metricMalformed.Add(1)
}

func (s *Stats) readError() {
	s.readFail.Add(1)
	metricReadFail.Add(1)
}

func (s *Stats) originError() {
	s.originFail.Add(1)
	metricOriginFail.Add(1)
}

func (s *Stats) writeError() {
	s.writeFail.Add(1)
	metricWriteFail.Add(1)
}

func (s *Stats) written(n int64) {
	if n <= 0 {
		return
	}
	s.bytes.Add(uint64(n))
	metricBytes.Add(uint64(n))
}

// Snapshot returns the current counter values. Cache fields are left zero.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		CurrentConnections: s.current.Load(),
		TotalConnections:   s.connections.Load(),
		GetRequests:        s.requests.Load(),
		CacheHits:          s.hits.Load(),
		CacheMisses:        s.misses.Load(),
		NotFound:           s.notFound.Load(),
		UnsupportedMethods: s.unsupported.Load(),
		MalformedRequests:  s.malformed.Load(),
		ReadErrors:         s.readFail.Load(),
		OriginErrors:       s.originFail.Load(),
		WriteErrors:        s.writeFail.Load(),
		BytesWritten:       s.bytes.Load(),
		UptimeSeconds:      time.Since(s.started).Seconds(),
	}
}
