// Package proxyserver implements a forward HTTP proxy for GET requests
// that keeps the fetched resources in a shared LRU cache.
package proxyserver

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/cache"
	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/journal"
	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/origin"
)

const (
	DefaultWorkers     = 10
	DefaultReadTimeout = 10 * time.Second
)

// ErrProxyClosed is returned by Serve after Close has been called.
var ErrProxyClosed = errors.New("proxy closed")

// Fetcher gets resources from origin servers.
// Implementations must be thread-safe!
type Fetcher interface {
	// Fetch returns origin.ErrNotFound if the resource is not available,
	// any other error if the origin could not be reached.
	Fetch(ctx context.Context, url string) (cache.Value, error)
}

// Recorder stores handled requests.
// Implementations must be thread-safe!
type Recorder interface {
	Record(journal.Entry) error
}

type Config struct {
	// Storage for fetched resources. An LRU with the default capacity is used if nil.
	Cache cache.Provider
	// Origin fetcher. A fetcher without timeout is used if nil.
	Fetcher Fetcher
	// Number of connections handled concurrently. Defaults to DefaultWorkers.
	Workers int
	// Time allowed for the client to send the request line.
	// Defaults to DefaultReadTimeout; negative disables the timeout.
	ReadTimeout time.Duration
	// Optional journal of handled requests.
	Journal Recorder
	// Logger to use. A console logger is used if nil.
	Logger *zerolog.Logger
}

type Proxy struct {
	cache       cache.Provider
	fetcher     Fetcher
	workers     int
	readTimeout time.Duration
	journal     Recorder
	log         zerolog.Logger
	stats       *Stats

	running  atomic.Bool
	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

// New creates a proxy. Call Serve to start accepting connections.
func New(config Config) *Proxy {
	// use console logger if not specified in config
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}

	p := &Proxy{
		cache:       config.Cache,
		fetcher:     config.Fetcher,
		workers:     config.Workers,
		readTimeout: config.ReadTimeout,
		journal:     config.Journal,
		log:         logger,
		stats:       newStats(),
	}
	if p.cache == nil {
		p.cache = cache.NewLRU(cache.DefaultCapacity, &logger)
	}
	if p.fetcher == nil {
		p.fetcher = origin.NewFetcher(origin.Config{Logger: &logger})
	}
	if p.workers <= 0 {
		p.workers = DefaultWorkers
	}
	if p.readTimeout == 0 {
		p.readTimeout = DefaultReadTimeout
	}
	return p
}

// ListenAndServe listens on the TCP address and calls Serve.
func (p *Proxy) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", addr)
	}
	return p.Serve(ln)
}

// Serve accepts connections on ln and hands them to a fixed pool of workers.
// While all workers are busy, new connections wait in the listen backlog.
// Serve returns ErrProxyClosed after Close, once every accepted connection
// has been handled.
func (p *Proxy) Serve(ln net.Listener) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		ln.Close()
		return ErrProxyClosed
	}
	if p.listener != nil {
		p.mu.Unlock()
		return errors.New("proxy is already serving")
	}
	p.listener = ln
	p.running.Store(true)
	p.mu.Unlock()

	p.log.Info().Str("addr", ln.Addr().String()).Int("workers", p.workers).
		Int("capacity", p.cache.Capacity()).Msg("Proxy listening")

	conns := make(chan net.Conn)
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for conn := range conns {
				p.ServeConn(conn)
			}
		}()
	}
	defer func() {
		close(conns)
		wg.Wait()
		p.log.Info().Msg("Proxy stopped")
	}()

	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !p.Running() {
				return ErrProxyClosed
			}
			if errors.Is(err, net.ErrClosed) {
				p.running.Store(false)
				return errors.WithMessage(err, "accepting connection")
			}
			// back off like net/http does
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if max := 1 * time.Second; tempDelay > max {
				tempDelay = max
			}
			p.log.Error().Err(err).Dur("retry", tempDelay).Msg("Error accepting connection")
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0
		conns <- conn
	}
}

// ServeConn handles one request on conn and closes it.
func (p *Proxy) ServeConn(conn net.Conn) {
	defer conn.Close()
	p.NewHandler(conn).Serve()
}

// Close stops accepting new connections.
// Connections already accepted are still handled.
func (p *Proxy) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.running.Store(false)
	if p.listener != nil {
		return p.listener.Close()
	}
	return nil
}

// Running reports whether the proxy is accepting connections.
func (p *Proxy) Running() bool {
	return p.running.Load()
}

// Cache returns the cache shared by all handlers.
func (p *Proxy) Cache() cache.Provider {
	return p.cache
}

// Stats returns the current counters including the cache fill level.
func (p *Proxy) Stats() StatsSnapshot {
	s := p.stats.Snapshot()
	s.CacheEntries = p.cache.Len()
	s.CacheCapacity = p.cache.Capacity()
	if ec, ok := p.cache.(interface{ Evictions() uint64 }); ok {
		s.Evictions = ec.Evictions()
	}
	return s
}
