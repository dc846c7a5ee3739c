package utils

import (
	"time"
)

// Version of the findy-exchange.
const Version = "0.1.0"

const (
	HTTPReqTimeout = 1 * time.Minute
	AwaitTimeout   = 10 * time.Second
)

var Settings = &Hub{autoAccept: true}

// Hub holds the runtime settings. It is written once at startup by the CLI
// or by the tests, and read by the protocols after that.
type Hub struct {
	timeout      time.Duration // timeout for HTTP and WS requests
	awaitTimeout time.Duration // default timeout for protocol awaits
	autoAccept   bool          // responder answers DID exchange requests automatically
	retries      uint64        // outbound delivery retries of a transport

	compress bool // HTTP transport compresses payloads with zstd
}

// SetTimeout sets the default timeout for HTTP and WS requests.
func (h *Hub) SetTimeout(to time.Duration) {
	h.timeout = to
}

func (h *Hub) Timeout() time.Duration {
	if h.timeout == 0 {
		return HTTPReqTimeout
	}
	return h.timeout
}

func (h *Hub) SetAwaitTimeout(to time.Duration) {
	h.awaitTimeout = to
}

// AwaitTimeout is used by the chained flows when caller doesn't give one.
func (h *Hub) AwaitTimeout() time.Duration {
	if h.awaitTimeout == 0 {
		return AwaitTimeout
	}
	return h.awaitTimeout
}

func (h *Hub) SetAutoAccept(yes bool) {
	h.autoAccept = yes
}

func (h *Hub) AutoAccept() bool {
	return h.autoAccept
}

func (h *Hub) SetRetries(n uint64) {
	h.retries = n
}

func (h *Hub) Retries() uint64 {
	return h.retries
}

func (h *Hub) SetCompress(yes bool) {
	h.compress = yes
}

func (h *Hub) Compress() bool {
	return h.compress
}
