package request

import "sync"

// Credentials holds the OAuth/API-key material a Request signs its
// outbound call with. Owned by value inside a Request; setters are safe to
// call from any state, including while Loading, per spec.md §3's invariant
// that only R's own refresh logic may rewrite access_token as a side effect.
type Credentials struct {
	mu           sync.RWMutex
	apiKey       string
	clientID     string
	clientSecret string
	accessToken  string
	refreshToken string
	scopes       []string
}

func (c *Credentials) snapshot() Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Credentials{
		apiKey:       c.apiKey,
		clientID:     c.clientID,
		clientSecret: c.clientSecret,
		accessToken:  c.accessToken,
		refreshToken: c.refreshToken,
		scopes:       append([]string(nil), c.scopes...),
	}
}

func (c *Credentials) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

func (c *Credentials) ClientID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientID
}

func (c *Credentials) ClientSecret() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientSecret
}

func (c *Credentials) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Credentials) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshToken
}

func (c *Credentials) Scopes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.scopes...)
}

func (c *Credentials) set(field string, assign func()) {
	c.mu.Lock()
	assign()
	c.mu.Unlock()
}

// Request's credential setters below wrap Credentials.set and additionally
// publish a CredentialChanged event; see Request.SetAPIKey et al.
