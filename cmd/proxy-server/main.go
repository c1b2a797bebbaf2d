package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	proxyserver "github.com/Anushka4401/Proxy-Server-using-LRU-cache"
	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/admin"
	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/cache"
	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/journal"
	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/origin"
)

var (
	// CLI flags
	configFilenameFlag string
	verbosityTraceFlag bool
	logFilenameFlag    string
	settings           Config

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "YAML config file (command line flags take precedence)")
	flag.IntVar(&settings.Port, "port", 8085, "Port to listen on")
	flag.IntVar(&settings.Capacity, "capacity", cache.DefaultCapacity, "Maximum number of cached resources")
	flag.IntVar(&settings.Workers, "workers", proxyserver.DefaultWorkers, "Number of connections handled concurrently")
	flag.DurationVar(&settings.ReadTimeout, "read-timeout", proxyserver.DefaultReadTimeout, "Time allowed for clients to send the request line")
	flag.DurationVar(&settings.OriginTimeout, "origin-timeout", 0, "Timeout for origin requests (0 for none)")
	flag.StringVar(&settings.Admin, "admin", "", "Address of the admin API, e.g. localhost:8086 (disabled if empty)")
	flag.StringVar(&settings.Journal, "journal", "", "Request journal DB file name (use 'memory' for in-memory db, disabled if empty)")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	if configFilenameFlag != "" {
		fileConfig, err := getConfig(configFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Str("file", configFilenameFlag).Msg("Could not read config")
		}
		setFlags := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
		settings.merge(fileConfig, setFlags)
	}

	proxyConfig := proxyserver.Config{
		Cache: cache.NewLRU(settings.Capacity, &log.Logger),
		Fetcher: origin.NewFetcher(origin.Config{
			Timeout: settings.OriginTimeout,
			Logger:  &log.Logger,
		}),
		Workers:     settings.Workers,
		ReadTimeout: settings.ReadTimeout,
		Logger:      &log.Logger,
	}

	// the admin API needs an untyped nil when there is no journal
	var requestJournal admin.Journal
	if settings.Journal != "" {
		j, err := journal.Open(settings.Journal)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not open request journal")
		}
		defer j.Close()
		proxyConfig.Journal = j
		requestJournal = j
	}

	proxy := proxyserver.New(proxyConfig)

	// "close" on the console or a signal stops the proxy
	go watchConsole(os.Stdin, func() { proxy.Close() })
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		proxy.Close()
	}()

	var adminServer *http.Server
	if settings.Admin != "" {
		adminServer = &http.Server{
			Addr: settings.Admin,
			Handler: admin.NewRouter(admin.Config{
				Proxy:   proxy,
				Journal: requestJournal,
				Logger:  &log.Logger,
			}),
		}
		go func() {
			log.Info().Str("addr", settings.Admin).Msg("Starting admin API")
			if err := adminServer.ListenAndServe(); err != http.ErrServerClosed {
				log.Error().Err(err).Msg("Admin API error")
			}
		}()
	}

	err := proxy.ListenAndServe(fmt.Sprintf(":%d", settings.Port))
	if adminServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := adminServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Error shutting down admin API")
		}
	}
	if err != nil && !errors.Is(err, proxyserver.ErrProxyClosed) {
		log.Error().Err(err).Msg("Proxy failed")
		return
	}
	log.Info().Msg("Shutdown complete")
}
