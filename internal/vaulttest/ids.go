package vaulttest

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

func newULID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), idEntropy).String()
}

// newTokenID mints a service token value. The "s." prefix marks it as a
// service token the way the real service does.
func newTokenID() string {
	return "s." + strings.ToLower(newULID())
}

// newAccessor mints a token accessor, a reference that permits lookup and
// revocation without holding the token itself.
func newAccessor() string {
	return strings.ToLower(newULID())
}
