package proxyserver

import (
	"bufio"
	"io"

	"github.com/Anushka4401/Proxy-Server-using-LRU-cache/cache"
)

const (
	statusLineOK       = "HTTP/1.0 200 OK\r\n"
	statusLineNotFound = "HTTP/1.0 404 NOT FOUND\r\n"
	proxyAgentHeader   = "Proxy-agent: ProxyServer/1.0\r\n"
)

// writeNotFound writes the 404 status line and header and flushes them.
func writeNotFound(bw *bufio.Writer) (int64, error) {
	n, err := bw.WriteString(statusLineNotFound + proxyAgentHeader + "\r\n")
	if err != nil {
		return int64(n), err
	}
	return int64(n), bw.Flush()
}

// writeValue writes a 200 response carrying v.
// The header goes through bw and is flushed before any body byte is written.
// Text bodies are written through bw as well; binary bodies go straight to conn.
func writeValue(bw *bufio.Writer, conn io.Writer, v cache.Value) (int64, error) {
	written, err := bw.WriteString(statusLineOK + proxyAgentHeader + "\r\n")
	total := int64(written)
	if err != nil {
		return total, err
	}
	if err := bw.Flush(); err != nil {
		return total, err
	}

	switch v.Kind() {
	case cache.Binary:
		written, err = conn.Write(v.Bytes())
		total += int64(written)
		return total, err
	default:
		written, err = bw.WriteString(v.Text())
		total += int64(written)
		if err != nil {
			return total, err
		}
		return total, bw.Flush()
	}
}
