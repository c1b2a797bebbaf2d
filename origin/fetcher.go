// Package origin fetches resources from origin servers on behalf of proxy clients.
// Images (png, jpg, jpeg, gif) are validated by decoding them; everything else
// is read as text.
package origin

import (
	"bufio"
	"bytes"
	"context"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/cache"
)

// ErrNotFound is returned when the origin answered but the body is not a usable resource,
// e.g. an empty or undecodable image.
var ErrNotFound = errors.New("origin: resource not found")

var decoders = map[string]func(io.Reader) (image.Image, error){
	"png":  png.Decode,
	"jpg":  jpeg.Decode,
	"jpeg": jpeg.Decode,
	"gif":  gif.Decode,
}

type Config struct {
	// Timeout for a whole origin exchange. Zero means no timeout.
	Timeout time.Duration
	// Transport to use for origin requests.
	// A transport without connection reuse is used if nil.
	Transport http.RoundTripper
	// Logger to use. A disabled logger is used if nil.
	Logger *zerolog.Logger
}

// Fetcher performs origin requests. It is safe for concurrent use.
type Fetcher struct {
	client http.Client
	log    zerolog.Logger
}

// NewFetcher creates a fetcher.
// Unless a transport is configured, every origin request opens its own connection,
// which is closed when the request is done.
func NewFetcher(config Config) *Fetcher {
	transport := config.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.DisableKeepAlives = true
		transport = t
	}
	f := &Fetcher{
		client: http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		log: zerolog.Nop(),
	}
	if config.Logger != nil {
		f.log = *config.Logger
	}
	return f
}

// Fetch gets the resource identified by the absolute URL.
// Image URLs result in a binary value; all other URLs result in a text value.
// ErrNotFound is returned for images that are empty or cannot be decoded
// in the format given by the extension. Any other error means the origin
// could not be reached or refused the request.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (cache.Value, error) {
	ext := FileExtension(rawURL)
	if format, ok := ImageFormat(ext); ok {
		return f.fetchImage(ctx, rawURL, format)
	}
	return f.fetchText(ctx, rawURL)
}

func (f *Fetcher) fetchImage(ctx context.Context, rawURL, format string) (cache.Value, error) {
	f.log.Trace().Str("url", rawURL).Str("format", format).Msg("Fetching image from origin")
	res, err := f.get(ctx, rawURL, nil)
	if err != nil {
		return cache.Value{}, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return cache.Value{}, errors.Wrapf(err, "reading image from %s", rawURL)
	}
	if len(body) == 0 {
		return cache.Value{}, errors.WithMessage(ErrNotFound, "empty image body")
	}
	if _, err := decoders[format](bytes.NewReader(body)); err != nil {
		f.log.Debug().Err(err).Str("url", rawURL).Str("format", format).Msg("Could not decode image")
		return cache.Value{}, errors.WithMessagef(ErrNotFound, "decoding %s", format)
	}
	return cache.BinaryValue(body, format), nil
}

func (f *Fetcher) fetchText(ctx context.Context, rawURL string) (cache.Value, error) {
	f.log.Trace().Str("url", rawURL).Msg("Fetching text from origin")
	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	header.Set("Content-Language", "en-US")
	// always ask the origin for a fresh copy
	header.Set("Cache-Control", "no-cache")
	header.Set("Pragma", "no-cache")

	res, err := f.get(ctx, rawURL, header)
	if err != nil {
		return cache.Value{}, err
	}
	defer res.Body.Close()

	text, err := readLines(res.Body)
	if err != nil {
		return cache.Value{}, errors.Wrapf(err, "reading text from %s", rawURL)
	}
	return cache.TextValue(text), nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "creating request for %s", rawURL)
	}
	for name, values := range header {
		req.Header[name] = values
	}
	res, err := f.client.Do(req)
	if err != nil {
		return nil, errors.WithMessage(err, "getting URL")
	}
	if res.StatusCode >= http.StatusBadRequest {
		res.Body.Close()
		return nil, errors.Errorf("origin %s returned status %d", rawURL, res.StatusCode)
	}
	return res, nil
}

// readLines reads r to the end and joins its lines, each terminated by "\n".
// Both "\n" and "\r\n" end a line.
func readLines(r io.Reader) (string, error) {
	var sb strings.Builder
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
	}
}
