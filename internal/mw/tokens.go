package mw

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Tokens maps opaque login tokens to operator IDs. A token expires after
// ttl without use; every successful Resolve restarts the clock.
type Tokens struct {
	cache *cache.Cache
}

// NewTokens returns an empty token set.
func NewTokens(ttl time.Duration) *Tokens {
	return &Tokens{cache: cache.New(ttl, 2*ttl)}
}

// Issue returns a new random token for operatorID.
func (t *Tokens) Issue(operatorID string) string {
	token := uuid.NewString()
	t.cache.SetDefault(token, operatorID)
	return token
}

// Resolve returns the operator the token was issued to.
func (t *Tokens) Resolve(token string) (string, bool) {
	v, ok := t.cache.Get(token)
	if !ok {
		return "", false
	}
	id := v.(string)
	t.cache.SetDefault(token, id)
	return id, true
}

// Revoke forgets token. Unknown tokens are ignored.
func (t *Tokens) Revoke(token string) {
	t.cache.Delete(token)
}
