package proxyserver

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedRequest is returned for request lines without a method or target URL.
var ErrMalformedRequest = errors.New("malformed request line")

// Request is a parsed client request line.
type Request struct {
	Method string
	// URL is the normalized absolute target URL. It is also the cache key.
	URL string
}

// ParseRequestLine parses "METHOD SP URL [SP VERSION]".
// The version is discarded. Trailing CR and LF are ignored.
func ParseRequestLine(line string) (Request, error) {
	line = strings.TrimRight(line, "\r\n")
	method, rest, found := strings.Cut(line, " ")
	if !found || method == "" {
		return Request{}, errors.WithMessagef(ErrMalformedRequest, "%q", line)
	}
	target, _, _ := strings.Cut(rest, " ")
	if target == "" {
		return Request{}, errors.WithMessagef(ErrMalformedRequest, "%q", line)
	}
	return Request{
		Method: method,
		URL:    NormalizeURL(target),
	}, nil
}

// NormalizeURL prefixes "http://" to targets that do not already start with "http".
func NormalizeURL(target string) string {
	if strings.HasPrefix(target, "http") {
		return target
	}
	return "http://" + target
}
