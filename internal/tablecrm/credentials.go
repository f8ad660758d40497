package tablecrm

import (
	"strings"
	"sync"

	"orderdesk/internal/domain"
)

// Credentials holds the API token of one operator session. It is created when
// the session starts and cleared when the session ends.
type Credentials struct {
	mu    sync.RWMutex
	token string
}

// NewCredentials returns credentials holding token (which may be empty).
func NewCredentials(token string) *Credentials {
	return &Credentials{token: strings.TrimSpace(token)}
}

// Set replaces the token.
func (c *Credentials) Set(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// Clear forgets the token.
func (c *Credentials) Clear() {
	c.Set("")
}

// Token returns the current token or ErrNoCredential.
func (c *Credentials) Token() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return "", domain.ErrNoCredential
	}
	return c.token, nil
}

// Present reports whether a token is set.
func (c *Credentials) Present() bool {
	_, err := c.Token()
	return err == nil
}
