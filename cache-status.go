package proxyserver

import "fmt"

type CacheStatusStatus string

const (
	CacheStatusHit = "hit"
	CacheStatusFwd = "fwd"
)

type CacheStatusFwdReason string

const (
	// The request method is not served by the proxy.
	CacheStatusFwdMethod = "method"

	// The request line could not be parsed or was too long.
	CacheStatusFwdMalformed = "malformed"

	// No request line arrived before the read timeout or the connection closed.
	CacheStatusFwdRead = "read-error"

	// The cache did not contain the requested URL.
	CacheStatusFwdMiss = "miss"
)

// CacheStatus describes how a request was handled,
// in the format of the Cache-Status response header.
type CacheStatus struct {
	status    CacheStatusStatus
	detail    string
	fwdReason CacheStatusFwdReason
}

func (cs *CacheStatus) Hit() {
	cs.status = CacheStatusHit
}

func (cs *CacheStatus) Forward(reason CacheStatusFwdReason) {
	cs.status = CacheStatusFwd
	cs.fwdReason = reason
}

func (cs *CacheStatus) Detail(detail string) {
	cs.detail = detail
}

func (cs *CacheStatus) IsHit() bool {
	return cs.status == CacheStatusHit
}

func (cs *CacheStatus) String() string {
	if cs.status == "" {
		return ""
	}
	status := fmt.Sprintf("ProxyServer; %s", cs.status)
	if cs.status == CacheStatusFwd && cs.fwdReason != "" {
		status = fmt.Sprintf("%s=%s", status, cs.fwdReason)
	}
	if cs.detail != "" {
		status = status + "; detail=" + cs.detail
	}
	return status
}
