package vaultsdk

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// retryableNetworkError reports whether an attempt failure is transient
// enough to spend a retry on. Per-attempt timeouts qualify; caller-driven
// cancellation and malformed exchanges do not.
//
// ctx is the caller's context. It decides whether a cancellation error
// means "the caller gave up" or "this attempt ran out of time": an
// http.Client.Timeout failure also satisfies errors.Is(err,
// context.DeadlineExceeded), so the error alone cannot tell the two apart.
func retryableNetworkError(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}

	// The caller gave up. Retrying would just burn the budget against a
	// context that is already done.
	if ctx.Err() != nil {
		return false
	}

	// A body that died mid-stream is a malformed exchange, not a
	// transient fault.
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return false
	}

	// url.Error wraps the interesting cause; unwrap before classifying
	// so the net.Error check below sees the real thing.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// http.Client.Timeout surfaces here with Timeout() == true.
		if urlErr.Timeout() {
			return true
		}
		return retryableNetworkError(ctx, urlErr.Err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Cancellation that is neither the caller's context nor a timeout
	// came from inside the exchange; nothing to gain from a retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Everything else at this level is a socket-class failure: refused
	// connections, resets, unreachable hosts, handshake errors.
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	// A connection the server closed before answering.
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	return false
}

// Request IDs are ULIDs from a shared monotonic source, so the IDs of
// concurrent requests from one process still sort by issue order in the
// service's audit log.
var (
	requestIDMu      sync.Mutex
	requestIDEntropy = ulid.Monotonic(rand.Reader, 0)
)

func newRequestID() string {
	requestIDMu.Lock()
	defer requestIDMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), requestIDEntropy).String()
}
