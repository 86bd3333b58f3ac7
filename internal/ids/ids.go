// Package ids generates unique, URL-safe identifiers for obligation
// references and gateway checkouts.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Reference returns a prefixed identifier, e.g. "MC-01J9W...".
func Reference(prefix string) string {
	return prefix + "-" + New()
}
