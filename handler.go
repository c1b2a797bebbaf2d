package proxyserver

import (
	"bufio"
	"context"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/journal"
	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/origin"
)

// MaxRequestLine is the longest request line accepted, including the line ending.
const MaxRequestLine = 8 << 10

// ErrRequestLineTooLong is returned for request lines longer than MaxRequestLine.
var ErrRequestLineTooLong = errors.WithMessage(ErrMalformedRequest, "request line too long")

// Handler services exactly one request on one client connection.
// It does not close the connection.
type Handler struct {
	proxy  *Proxy
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	log    zerolog.Logger
}

// outcome is what happened to a single request.
type outcome struct {
	req         Request
	status      int
	cacheStatus CacheStatus
	bytes       int64
	err         error
}

// NewHandler creates a handler for conn and arms the read timeout for the request line.
func (p *Proxy) NewHandler(conn net.Conn) *Handler {
	if p.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(p.readTimeout)); err != nil {
			p.log.Warn().Err(err).Msg("Could not set read deadline")
		}
	}
	return &Handler{
		proxy:  p,
		conn:   conn,
		reader: bufio.NewReaderSize(conn, MaxRequestLine),
		writer: bufio.NewWriter(conn),
		log:    p.log.With().Str("client", clientAddr(conn)).Logger(),
	}
}

// Serve reads the request line, serves the response from the cache or the origin
// and flushes everything written. Failures are logged and never propagate.
func (h *Handler) Serve() {
	start := time.Now()
	h.proxy.stats.connOpened()
	defer h.proxy.stats.connClosed()
	defer h.recover()

	out := h.handle()
	h.finish(out, time.Since(start))
}

func (h *Handler) recover() {
	if err := recover(); err != nil {
		h.log.WithLevel(zerolog.PanicLevel).Interface("error", err).Msg("Panic in connection handler")
	}
}

func (h *Handler) handle() (out outcome) {
	line, err := h.reader.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		h.proxy.stats.malformedRequest()
		out.cacheStatus.Forward(CacheStatusFwdMalformed)
		out.err = ErrRequestLineTooLong
		h.log.Debug().Int("limit", MaxRequestLine).Msg("Request line too long")
		return out
	}
	if err != nil && (err != io.EOF || len(line) == 0) {
		h.proxy.stats.readError()
		out.cacheStatus.Forward(CacheStatusFwdRead)
		out.err = errors.Wrap(err, "reading request line")
		h.log.Debug().Err(err).Msg("Could not read request line")
		return out
	}

	req, err := ParseRequestLine(string(line))
	if err != nil {
		h.proxy.stats.malformedRequest()
		out.cacheStatus.Forward(CacheStatusFwdMalformed)
		out.err = err
		h.log.Debug().Err(err).Msg("Could not parse request")
		return out
	}
	out.req = req
	log := h.log.With().Str("method", req.Method).Str("url", req.URL).Logger()

	if req.Method != "GET" {
		h.proxy.stats.unsupportedMethod()
		out.cacheStatus.Forward(CacheStatusFwdMethod)
		log.Info().Msg("Unsupported request method")
		return out
	}
	h.proxy.stats.request()

	value, ok := h.proxy.cache.Get(req.URL)
	if ok {
		h.proxy.stats.hit()
		out.cacheStatus.Hit()
		log.Trace().Msg("Serving from cache")
	} else {
		h.proxy.stats.miss()
		out.cacheStatus.Forward(CacheStatusFwdMiss)
		value, err = h.proxy.fetcher.Fetch(context.Background(), req.URL)
		if errors.Is(err, origin.ErrNotFound) {
			h.proxy.stats.notFoundSent()
			out.cacheStatus.Detail("not-found")
			out.status = 404
			out.bytes, err = writeNotFound(h.writer)
			h.written(&out, err, log)
			return out
		}
		if err != nil {
			h.proxy.stats.originError()
			out.cacheStatus.Detail("origin-error")
			out.err = err
			log.Error().Err(err).Msg("Error fetching from origin")
			return out
		}
		h.proxy.cache.Put(req.URL, value)
		out.cacheStatus.Detail("stored")
	}

	out.status = 200
	out.bytes, err = writeValue(h.writer, h.conn, value)
	h.written(&out, err, log)
	return out
}

func (h *Handler) written(out *outcome, err error, log zerolog.Logger) {
	h.proxy.stats.written(out.bytes)
	if err != nil {
		h.proxy.stats.writeError()
		out.err = errors.Wrap(err, "writing to client")
		log.Warn().Err(err).Int64("bytes", out.bytes).Msg("Error writing to client")
	}
}

// finish logs the response and records it in the journal.
func (h *Handler) finish(out outcome, elapsed time.Duration) {
	if out.status != 0 {
		h.log.Debug().
			Str("method", out.req.Method).
			Str("url", out.req.URL).
			Str("status", out.cacheStatus.String()).
			Bool("hit", out.cacheStatus.IsHit()).
			Int("code", out.status).
			Int64("bytes", out.bytes).
			Dur("duration", elapsed).
			Msg("Sending response to client")
	}

	if h.proxy.journal == nil {
		return
	}
	entry := journal.Entry{
		Time:        time.Now(),
		Client:      clientAddr(h.conn),
		Method:      out.req.Method,
		URL:         out.req.URL,
		Status:      out.status,
		CacheStatus: out.cacheStatus.String(),
		Bytes:       out.bytes,
		Duration:    elapsed,
	}
	if out.err != nil {
		entry.Error = out.err.Error()
	}
	if err := h.proxy.journal.Record(entry); err != nil {
		h.log.Error().Err(err).Msg("Could not record request")
	}
}

func clientAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
