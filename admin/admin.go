// Package admin serves the management API of a running proxy.
package admin

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pascaldekloe/metrics"
	"github.com/rs/zerolog"

	proxyserver "github.com/Anushka4401/Proxy-Server-using-LRU-cache"
	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/cache"
	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/journal"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

// Proxy is the part of *proxyserver.Proxy used by the API.
type Proxy interface {
	Running() bool
	Stats() proxyserver.StatsSnapshot
	Cache() cache.Provider
	Close() error
}

// Journal lists handled requests, newest first.
type Journal interface {
	Recent(limit int) ([]journal.Entry, error)
	ForURL(url string, limit int) ([]journal.Entry, error)
}

type Config struct {
	Proxy Proxy
	// Optional. /requests answers 404 without a journal.
	Journal Journal
	// Called by POST /close. Proxy.Close is used if nil.
	Close func() error
	// Logger to use. A console logger is used if nil.
	Logger *zerolog.Logger
}

type api struct {
	proxy   Proxy
	journal Journal
	close   func() error
	log     zerolog.Logger
}

// NewRouter returns the admin routes.
func NewRouter(config Config) http.Handler {
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}
	a := &api{
		proxy:   config.Proxy,
		journal: config.Journal,
		close:   config.Close,
		log:     logger.With().Str("component", "admin").Logger(),
	}
	if a.close == nil {
		a.close = a.proxy.Close
	}

	r := chi.NewRouter()
	r.Get("/healthz", a.health)
	r.Get("/stats", a.stats)
	r.Get("/metrics", metrics.ServeHTTP)
	r.Get("/cache", a.cacheEntries)
	r.Get("/requests", a.requests)
	r.Post("/close", a.closeProxy)
	return r
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	status, code := "up", http.StatusOK
	if !a.proxy.Running() {
		status, code = "closed", http.StatusServiceUnavailable
	}
	a.writeJSON(w, code, map[string]string{"status": status})
}

func (a *api) stats(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.proxy.Stats())
}

func (a *api) cacheEntries(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.proxy.Cache().Entries())
}

func (a *api) requests(w http.ResponseWriter, r *http.Request) {
	if a.journal == nil {
		http.Error(w, "Request journal not enabled", http.StatusNotFound)
		return
	}
	limit := defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	var entries []journal.Entry
	var err error
	if url := r.URL.Query().Get("url"); url != "" {
		entries, err = a.journal.ForURL(url, limit)
	} else {
		entries, err = a.journal.Recent(limit)
	}
	if err != nil {
		a.log.Error().Err(err).Msg("Could not read request journal")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.writeJSON(w, http.StatusOK, entries)
}

func (a *api) closeProxy(w http.ResponseWriter, r *http.Request) {
	a.log.Info().Str("remote", r.RemoteAddr).Msg("Close requested")
	if err := a.close(); err != nil {
		a.log.Error().Err(err).Msg("Could not close proxy")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *api) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Error().Err(err).Msg("Could not encode response")
	}
}
