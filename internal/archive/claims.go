package archive

import (
	"sync"

	"github.com/roach88/orderingest/internal/fingerprint"
)

// Claims is the set of digests already taken by a file earlier in the same
// run. It lives exactly as long as one run and is never persisted.
//
// Safe for concurrent use: Claim is an atomic check-and-insert.
type Claims struct {
	mu     sync.Mutex
	owners map[fingerprint.Digest]string
}

// NewClaims returns an empty claim set.
func NewClaims() *Claims {
	return &Claims{owners: make(map[fingerprint.Digest]string)}
}

// Claim records file as the owner of d. If d was already claimed it returns
// the earlier owner and false.
func (c *Claims) Claim(d fingerprint.Digest, file string) (owner string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, taken := c.owners[d]; taken {
		return prev, false
	}
	c.owners[d] = file
	return file, true
}

// Len returns the number of claimed digests.
func (c *Claims) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.owners)
}
